package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	msgmodel "CampusChat/module/message/model"
	"CampusChat/tools/errs"
	"CampusChat/tools/ids"
)

// fakeStore is an in-memory MessageStore with switchable failure.
type fakeStore struct {
	mu      sync.Mutex
	rows    map[string]*msgmodel.Message
	inserts int
	failing bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]*msgmodel.Message)}
}

func (f *fakeStore) Insert(_ context.Context, topicKey, authorID, content string) (*msgmodel.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, errs.New("store down")
	}
	f.inserts++
	msg := &msgmodel.Message{
		ID:        ids.GenerateString(),
		TopicKey:  topicKey,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	f.rows[msg.ID] = msg
	return msg, nil
}

func (f *fakeStore) AuthorOf(_ context.Context, messageID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return "", errs.New("store down")
	}
	msg, ok := f.rows[messageID]
	if !ok {
		return "", errs.ErrRecordNotFound.WithDetail("message " + messageID)
	}
	return msg.AuthorID, nil
}

func (f *fakeStore) Delete(_ context.Context, messageID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return false, errs.New("store down")
	}
	if _, ok := f.rows[messageID]; !ok {
		return false, nil
	}
	delete(f.rows, messageID)
	return true, nil
}

func (f *fakeStore) has(messageID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[messageID]
	return ok
}

func (f *fakeStore) insertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserts
}

// fakeDirectory maps user ids to display names.
type fakeDirectory struct {
	names map[string]string
}

func (f *fakeDirectory) DisplayInfo(_ context.Context, userID string) (string, string, error) {
	if name, ok := f.names[userID]; ok {
		return name, "/avatars/" + userID + ".png", nil
	}
	return "", "", errs.ErrRecordNotFound.WithDetail("user " + userID)
}

func newTestServer(store MessageStore) *Server {
	return NewServer(Config{GatewayID: "gw-test", MaxMessageLen: 50},
		store,
		&fakeDirectory{names: map[string]string{"alice": "Alice", "bob": "Bob"}},
		nil)
}

func newTestClient(userID string) *Client {
	c := NewClient(ids.GenerateString(), nil, 32)
	c.UserID = userID
	return c
}

// recvFrame waits for one frame on the client queue.
func recvFrame(t *testing.T, c *Client) *Frame {
	t.Helper()
	select {
	case payload := <-c.Send:
		var f Frame
		if err := json.Unmarshal(payload, &f); err != nil {
			t.Fatalf("bad frame %q: %v", payload, err)
		}
		return &f
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame received conn=%s", c.ConnID)
		return nil
	}
}

// expectSilence asserts no frame lands on the queue within the window.
func expectSilence(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.Send:
		t.Fatalf("unexpected frame for conn=%s: %s", c.ConnID, payload)
	case <-time.After(100 * time.Millisecond):
	}
}

// drain empties queued frames.
func drain(c *Client) {
	for {
		select {
		case <-c.Send:
		case <-time.After(50 * time.Millisecond):
			return
		}
	}
}
