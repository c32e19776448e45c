package gateway

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftday/mockdraft/internal/notify"
)

func testConnection(m *Manager, draftID uuid.UUID) *Connection {
	return &Connection{
		ID:      uuid.New().String(),
		DraftID: draftID,
		send:    make(chan []byte, 4),
		manager: m,
	}
}

func TestBroadcastDeliversToPool(t *testing.T) {
	m := NewManager(DefaultConfig())
	draftID := uuid.New()
	conn := testConnection(m, draftID)
	m.register(conn)

	m.broadcast(notify.Envelope{DraftID: draftID, EventType: "PickMade"})

	select {
	case data := <-conn.send:
		assert.Contains(t, string(data), "PickMade")
	default:
		t.Fatal("expected a queued broadcast message")
	}
}

func TestEnqueueAfterUnregisterIsSafe(t *testing.T) {
	m := NewManager(DefaultConfig())
	draftID := uuid.New()
	conn := testConnection(m, draftID)
	m.register(conn)

	// A pump goroutine can unregister (closing the send channel) between
	// broadcast snapshotting the pool and sending. The send must degrade
	// to a refusal, not a closed-channel panic.
	m.unregister(conn)

	assert.False(t, conn.enqueue([]byte(`{}`)))
	assert.False(t, conn.enqueue([]byte(`{}`)), "repeat sends stay safe")
}

func TestUnregisterTwiceIsIdempotent(t *testing.T) {
	m := NewManager(DefaultConfig())
	draftID := uuid.New()
	conn := testConnection(m, draftID)
	m.register(conn)

	m.unregister(conn)
	m.unregister(conn)

	assert.Empty(t, m.Stats())
}

func TestDeliverDropsWhenQueueFull(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.broadcastCh = make(chan notify.Envelope, 1)

	env := notify.Envelope{DraftID: uuid.New(), EventType: "PickMade"}
	require.NoError(t, m.Deliver(context.Background(), env))
	assert.Error(t, m.Deliver(context.Background(), env))
}
