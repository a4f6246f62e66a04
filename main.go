package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"CampusChat/data/database/mgo/mongoutil"
	"CampusChat/data/database/pg"
	"CampusChat/global"
	"CampusChat/logger"
	mid "CampusChat/middleware"
	midsec "CampusChat/middleware/security"
	"CampusChat/module/guild"
	guildsrv "CampusChat/module/guild/service"
	"CampusChat/module/message"
	"CampusChat/module/user"
	usersrv "CampusChat/module/user/service"
	"CampusChat/service/chat"
	"CampusChat/service/storage"
	redissrv "CampusChat/service/storage/redis"
	jwtlib "CampusChat/tools/security"
)

func main() {
	global.Load()
	global.ConfigIds()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1) Stores
	pool, err := pg.Connect(ctx, pg.Config{URL: global.Config.DatabaseURL})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	mgoCli, err := mongoutil.NewMongoDB(ctx, &mongoutil.Config{
		Uri:         global.Config.MongoURI,
		Database:    global.Config.MongoDatabase,
		MaxPoolSize: 20,
	})
	if err != nil {
		log.Fatalf("mongo: %v", err)
	}

	var mirror chat.PresenceMirror
	if err := redissrv.InitRedis(redissrv.Config{
		Addr:     global.Config.RedisAddr,
		Password: global.Config.RedisPassword,
	}); err != nil {
		logger.Warnf("redis unavailable, presence mirror disabled: %v", err)
	} else {
		mirror = storage.NewMirror(global.Config.GatewayID, global.Config.PresenceTTL)
	}

	users := usersrv.NewService(pool)
	guilds := guildsrv.NewService(pool)
	msgStore := message.NewStore(mgoCli.GetDB())

	// 2) Gateway core
	srv := chat.NewServer(chat.Config{
		GatewayID:     global.Config.GatewayID,
		MaxMessageLen: global.Config.MaxMessageLen,
	}, msgStore, users, mirror)

	if global.Config.NatsURL != "" {
		bridge, err := chat.NewBridge(global.Config.NatsURL, "", global.Config.GatewayID)
		if err != nil {
			log.Fatalf("nats: %v", err)
		}
		defer bridge.Close()
		if err := srv.AttachBridge(bridge); err != nil {
			log.Fatalf("bridge subscribe: %v", err)
		}
		logger.Infof("cross-node bridge attached url=%s", global.Config.NatsURL)
	}

	// 3) HTTP + WebSocket
	jwtOpts := jwtlib.Options{Secret: global.GetJwtSecret(), Alg: "HS256", TTL: global.Config.JWTTTL}
	mid.ConfigAuth(midsec.DefaultOptions(jwtOpts))

	userH := user.NewHandler(users, srv, jwtOpts)
	guildH := guild.NewHandler(guilds)
	msgH := message.NewHandler(msgStore, users, srv)

	r := gin.New()
	r.Use(gin.Recovery(), mid.CORS())

	r.GET("/ws", srv.HandleWS)

	// no token required: signup/login
	mid.POST(r, "/api/auth/signup", userH.Signup, mid.RouteOpt{IsAuth: false})
	mid.POST(r, "/api/auth/login", userH.Login, mid.RouteOpt{IsAuth: false})

	// token required
	mid.GET(r, "/api/users/online", userH.Online, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/users/:id", userH.Get, mid.RouteOpt{IsAuth: true})
	mid.PUT(r, "/api/users/status", userH.SetStatus, mid.RouteOpt{IsAuth: true})

	mid.GET(r, "/api/servers", guildH.List, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/servers/user/:userId", guildH.OfUser, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/servers/:id", guildH.Get, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/servers/:id/channels", guildH.Channels, mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/api/servers/:id/join", guildH.Join, mid.RouteOpt{IsAuth: true})

	mid.GET(r, "/api/messages/channel/:channelId", msgH.ChannelHistory, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/messages/group/:groupChatId", msgH.GroupHistory, mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/api/messages", msgH.Send, mid.RouteOpt{IsAuth: true})
	mid.DELETE(r, "/api/messages/:id", msgH.Remove, mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/api/messages/group-chat", guildH.CreateGroup, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/messages/user/:userId/group-chats", guildH.GroupsOfUser, mid.RouteOpt{IsAuth: true})

	addr := fmt.Sprintf(":%d", global.Config.Port)
	logger.Infof("[HTTP] chat gateway %s listening on %s", global.Config.GatewayID, addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}
