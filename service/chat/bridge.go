package chat

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"CampusChat/logger"
)

// remoteFrame is the envelope exchanged between gateway nodes over NATS.
// Room is the topic key; empty means a global broadcast. Payload is the
// already-marshaled client frame, forwarded byte for byte.
type remoteFrame struct {
	Gateway string          `json:"gateway"`
	Room    string          `json:"room,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Bridge replicates outbound broadcasts to the other gateway nodes. Local
// delivery never waits on it: a NATS outage degrades the deployment to
// per-node fan-out.
type Bridge struct {
	nc        *nats.Conn
	subject   string
	gatewayID string
	sub       *nats.Subscription
}

func NewBridge(url, subject, gatewayID string) (*Bridge, error) {
	if subject == "" {
		subject = "campuschat.fanout"
	}
	nc, err := nats.Connect(url,
		nats.Name("campuschat-"+gatewayID),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(500*time.Millisecond),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
	)
	if err != nil {
		return nil, err
	}
	return &Bridge{nc: nc, subject: subject, gatewayID: gatewayID}, nil
}

// Start subscribes and feeds frames from other gateways into apply.
func (b *Bridge) Start(apply func(roomKey string, payload []byte)) error {
	sub, err := b.nc.Subscribe(b.subject, func(m *nats.Msg) {
		var rf remoteFrame
		if err := json.Unmarshal(m.Data, &rf); err != nil {
			logger.Warnf("[bridge] bad remote frame: %v", err)
			return
		}
		if rf.Gateway == b.gatewayID {
			return // our own publish echoed back
		}
		apply(rf.Room, rf.Payload)
	})
	if err != nil {
		return err
	}
	b.sub = sub
	return nil
}

func (b *Bridge) Publish(roomKey string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	data, err := json.Marshal(remoteFrame{Gateway: b.gatewayID, Room: roomKey, Payload: payload})
	if err != nil {
		return err
	}
	return b.nc.Publish(b.subject, data)
}

func (b *Bridge) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	if b.nc != nil {
		_ = b.nc.Drain()
	}
}
