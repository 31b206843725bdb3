package realtime

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type memPubSub struct {
	published []string            // event names published
	handlers  map[uuid.UUID]func(event string, payload []byte)
	cancelled int
}

func newMemPubSub() *memPubSub {
	return &memPubSub{handlers: make(map[uuid.UUID]func(string, []byte))}
}

func (m *memPubSub) PublishEvent(eventID uuid.UUID, event string, payload []byte) error {
	m.published = append(m.published, event)
	return nil
}

func (m *memPubSub) SubscribeEvent(eventID uuid.UUID, handler func(event string, payload []byte)) (func(), error) {
	m.handlers[eventID] = handler
	return func() { m.cancelled++ }, nil
}

func newTestClient(eventID uuid.UUID) *Client {
	return &Client{
		ID:      uuid.New().String(),
		EventID: eventID,
		send:    make(chan WSMessage, 8),
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	ps := newMemPubSub()
	hub := NewHub(zap.NewNop(), ps, ps)
	eventID := uuid.New()

	c1 := newTestClient(eventID)
	c2 := newTestClient(eventID)
	hub.Register(c1)
	hub.Register(c2)

	if got := hub.WatcherCount(eventID); got != 2 {
		t.Errorf("WatcherCount = %d, want 2", got)
	}
	// One subscription per event, not per client.
	if len(ps.handlers) != 1 {
		t.Errorf("subscriptions = %d, want 1", len(ps.handlers))
	}

	hub.Unregister(c1)
	if ps.cancelled != 0 {
		t.Error("subscription cancelled while watchers remain")
	}
	hub.Unregister(c2)
	if ps.cancelled != 1 {
		t.Errorf("cancelled = %d, want 1 after last watcher left", ps.cancelled)
	}
	if got := hub.WatcherCount(eventID); got != 0 {
		t.Errorf("WatcherCount = %d, want 0", got)
	}
}

func TestHubBroadcastToEvent(t *testing.T) {
	ps := newMemPubSub()
	hub := NewHub(zap.NewNop(), ps, ps)
	eventID := uuid.New()
	other := uuid.New()

	watcher := newTestClient(eventID)
	bystander := newTestClient(other)
	hub.Register(watcher)
	hub.Register(bystander)

	hub.BroadcastToEvent(eventID, "results_update", map[string]int{"total_votes": 42})

	select {
	case msg := <-watcher.send:
		if msg.Event != "results_update" {
			t.Errorf("Event = %q, want results_update", msg.Event)
		}
		var got map[string]int
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("unmarshal data: %v", err)
		}
		if got["total_votes"] != 42 {
			t.Errorf("total_votes = %d, want 42", got["total_votes"])
		}
	default:
		t.Fatal("watcher received nothing")
	}

	select {
	case msg := <-bystander.send:
		t.Errorf("bystander on another event received %q", msg.Event)
	default:
	}

	// Also published for other instances.
	if len(ps.published) != 1 || ps.published[0] != "results_update" {
		t.Errorf("published = %v, want [results_update]", ps.published)
	}
}

func TestHubDeliversRemoteMessages(t *testing.T) {
	ps := newMemPubSub()
	hub := NewHub(zap.NewNop(), ps, ps)
	eventID := uuid.New()

	watcher := newTestClient(eventID)
	hub.Register(watcher)

	handler := ps.handlers[eventID]
	if handler == nil {
		t.Fatal("no subscription handler registered")
	}
	handler("results_update", []byte(`{"total_votes":7}`))

	select {
	case msg := <-watcher.send:
		if msg.Event != "results_update" {
			t.Errorf("Event = %q, want results_update", msg.Event)
		}
	default:
		t.Fatal("remote message not delivered to local watcher")
	}
}

func TestHubSkipsSlowClients(t *testing.T) {
	ps := newMemPubSub()
	hub := NewHub(zap.NewNop(), ps, ps)
	eventID := uuid.New()

	slow := &Client{ID: uuid.New().String(), EventID: eventID, send: make(chan WSMessage)} // no buffer
	hub.Register(slow)

	// Must not block even though nobody reads from the channel.
	hub.BroadcastToEvent(eventID, "results_update", map[string]int{"total_votes": 1})
}
