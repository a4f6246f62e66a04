package chat

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"CampusChat/logger"
	"CampusChat/tools/ids"
	"CampusChat/tools/safe"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Config struct {
	GatewayID     string
	MaxMessageLen int // runes; 0 => 4000
	SendQueueSize int // per-connection outbound queue; 0 => 256
	FanoutWorkers int // 0 => 1 (ordered delivery)
	FanoutQueue   int // 0 => 1024
}

func (c *Config) norm() {
	if c.GatewayID == "" {
		c.GatewayID = "gw-1"
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 256
	}
}

// Server wires the four core pieces together: connection registry, room
// tracker, presence coordinator and message dispatcher, fronted by the
// websocket endpoint and backed by the fan-out pool. All state is owned here
// and injected downward; nothing is process-global.
type Server struct {
	cfg    Config
	reg    *Registry
	rooms  *Rooms
	pres   *Presence
	disp   *Dispatcher
	fanout *Fanout
	bridge *Bridge // nil when running single-node
}

func NewServer(cfg Config, store MessageStore, users UserDirectory, mirror PresenceMirror) *Server {
	safe.MustNotNil(store, "store")
	safe.MustNotNil(users, "users")
	cfg.norm()
	s := &Server{
		cfg:    cfg,
		reg:    NewRegistry(),
		rooms:  NewRooms(),
		fanout: NewFanout(cfg.FanoutWorkers, cfg.FanoutQueue),
	}
	s.pres = NewPresence(s.reg, s.rooms, s, mirror)
	s.disp = NewDispatcher(store, users, s.rooms, s, cfg.MaxMessageLen)
	return s
}

func (s *Server) Registry() *Registry     { return s.reg }
func (s *Server) Rooms() *Rooms           { return s.rooms }
func (s *Server) Presence() *Presence     { return s.pres }
func (s *Server) Dispatcher() *Dispatcher { return s.disp }
func (s *Server) GatewayID() string       { return s.cfg.GatewayID }

// AttachBridge enables cross-node delivery. Must be called before serving.
func (s *Server) AttachBridge(b *Bridge) error {
	s.bridge = b
	return b.Start(s.applyRemote)
}

// ---- Emitter ----

func (s *Server) EmitRoom(t Topic, event string, data any) {
	payload := MarshalFrame(event, data)
	s.fanout.Broadcast(s.reg.Resolve(s.rooms.SubscribersOf(t)), payload)
	s.publish(t.Key(), payload)
}

func (s *Server) EmitRoomExcept(t Topic, exceptConnID, event string, data any) {
	payload := MarshalFrame(event, data)
	conns := s.reg.Resolve(s.rooms.SubscribersOf(t))
	kept := conns[:0]
	for _, c := range conns {
		if c.ConnID != exceptConnID {
			kept = append(kept, c)
		}
	}
	s.fanout.Broadcast(kept, payload)
	s.publish(t.Key(), payload)
}

func (s *Server) EmitGlobal(event string, data any) {
	payload := MarshalFrame(event, data)
	s.fanout.Broadcast(s.reg.All(), payload)
	s.publish("", payload)
}

// EmitTo answers a single connection, bypassing the fan-out pool. Used for
// error frames that must never be broadcast.
func (s *Server) EmitTo(c *Client, event string, data any) {
	if c == nil {
		return
	}
	c.Deliver(MarshalFrame(event, data))
}

func (s *Server) publish(roomKey string, payload []byte) {
	if s.bridge == nil {
		return
	}
	if err := s.bridge.Publish(roomKey, payload); err != nil {
		logger.Warnf("[server] bridge publish failed room=%q err=%v", roomKey, err)
	}
}

// applyRemote delivers a frame produced on another gateway to local
// subscribers only; it is never re-published.
func (s *Server) applyRemote(roomKey string, payload []byte) {
	if roomKey == "" {
		s.fanout.Broadcast(s.reg.All(), payload)
		return
	}
	t, err := ParseTopicKey(roomKey)
	if err != nil {
		logger.Warnf("[server] remote frame with bad room key: %v", err)
		return
	}
	s.fanout.Broadcast(s.reg.Resolve(s.rooms.SubscribersOf(t)), payload)
}

// ---- websocket endpoint ----

// HandleWS upgrades the request and runs the connection's read loop. One
// logical task per inbound event: frames of a single connection are handled
// in arrival order, and registry/room mutations never suspend.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[HandleWS] upgrade failed: %v", err)
		return
	}

	client := NewClient(ids.GenerateString(), ws, s.cfg.SendQueueSize)
	safe.SafeGo(client.writePump)
	logger.Infof("[HandleWS] connected conn=%s remote=%s", client.ConnID, ws.RemoteAddr())

	s.readLoop(client)

	// Disconnect is the only cancellation signal: invalidate the connection
	// in registry and rooms before the writer is torn down.
	s.pres.OnDisconnect(client.ConnID)
	client.Close()
	logger.Infof("[HandleWS] disconnected conn=%s user=%s", client.ConnID, client.UserID)
}

func (s *Server) readLoop(client *Client) {
	ws := client.WS
	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed conn=%s", client.ConnID)
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout conn=%s err=%v", client.ConnID, err)
			} else {
				logger.Infof("[WS] read err conn=%s err=%v", client.ConnID, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[WS] bad frame conn=%s err=%v sample=%q", client.ConnID, perr, sample)
			continue
		}

		s.handleFrame(client, frame)
	}
}
