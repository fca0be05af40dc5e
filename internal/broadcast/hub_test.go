package broadcast

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logmonitor/logmonitor/internal/db/models"
	"github.com/logmonitor/logmonitor/internal/metrics"
)

var errBroken = errors.New("broken pipe")

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	fail     bool
	gate     chan struct{}
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	if c.gate != nil {
		<-c.gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fail || c.closed {
		return errBroken
	}

	c.messages = append(c.messages, data)

	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	return nil
}

func (c *fakeConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([][]byte(nil), c.messages...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func sample(msg string) Event {
	return Event{Message: msg, Level: "error", User: "Alice", CreatedAt: "2024-05-10 14:00:00"}
}

func TestPushReachesEverySubscriber(t *testing.T) {
	hub := New(8, time.Second, metrics.NewUnregistered())
	defer hub.Close()

	conns := []*fakeConn{{}, {}, {}}
	for _, c := range conns {
		_, err := hub.Subscribe(c)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, hub.Push(sample("disk full")))

	for _, c := range conns {
		require.Eventually(t, func() bool { return len(c.received()) == 1 }, time.Second, 5*time.Millisecond)

		var got envelope
		require.NoError(t, json.Unmarshal(c.received()[0], &got))
		assert.Equal(t, EventNewLog, got.Event)
		assert.Equal(t, sample("disk full"), got.Data)
	}
}

func TestPushWithoutSubscribers(t *testing.T) {
	hub := New(0, 0, nil)
	defer hub.Close()

	assert.Zero(t, hub.Push(sample("nobody")))
}

func TestPerSubscriberOrder(t *testing.T) {
	hub := New(16, time.Second, nil)
	defer hub.Close()

	conn := &fakeConn{}
	_, err := hub.Subscribe(conn)
	require.NoError(t, err)

	for _, msg := range []string{"one", "two", "three"} {
		hub.Push(sample(msg))
	}

	require.Eventually(t, func() bool { return len(conn.received()) == 3 }, time.Second, 5*time.Millisecond)

	var order []string
	for _, raw := range conn.received() {
		var got envelope
		require.NoError(t, json.Unmarshal(raw, &got))
		order = append(order, got.Data.Message)
	}

	assert.Equal(t, []string{"one", "two", "three"}, order)
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	counters := metrics.NewUnregistered()
	hub := New(1, time.Second, counters)
	defer hub.Close()

	stalled := &fakeConn{gate: make(chan struct{})}
	healthy := &fakeConn{}

	_, err := hub.Subscribe(stalled)
	require.NoError(t, err)
	_, err = hub.Subscribe(healthy)
	require.NoError(t, err)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for i := 0; i < 5; i++ {
			hub.Push(sample("burst"))
			time.Sleep(10 * time.Millisecond)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("push blocked on a stalled subscriber")
	}

	close(stalled.gate)

	assert.Equal(t, 1, hub.Len())
	assert.True(t, stalled.isClosed())
	assert.InDelta(t, 1, testutil.ToFloat64(counters.BroadcastDropped), 0)
	require.Eventually(t, func() bool { return len(healthy.received()) == 5 }, time.Second, 5*time.Millisecond)
}

func TestFailingSubscriberIsDropped(t *testing.T) {
	hub := New(4, time.Second, nil)
	defer hub.Close()

	broken := &fakeConn{fail: true}
	s, err := hub.Subscribe(broken)
	require.NoError(t, err)

	hub.Push(sample("first"))
	require.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, broken.isClosed())

	assert.Zero(t, hub.Push(sample("second")))

	hub.Unsubscribe(s)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	counters := metrics.NewUnregistered()
	hub := New(4, time.Second, counters)
	defer hub.Close()

	conn := &fakeConn{}
	s, err := hub.Subscribe(conn)
	require.NoError(t, err)
	assert.InDelta(t, 1, testutil.ToFloat64(counters.LiveSubscribers), 0)

	hub.Unsubscribe(s)
	hub.Unsubscribe(s)

	assert.Zero(t, hub.Push(sample("after")))
	assert.Empty(t, conn.received())
	assert.InDelta(t, 0, testutil.ToFloat64(counters.LiveSubscribers), 0)
}

func TestClose(t *testing.T) {
	hub := New(4, time.Second, nil)

	conn := &fakeConn{}
	_, err := hub.Subscribe(conn)
	require.NoError(t, err)

	hub.Close()

	assert.True(t, conn.isClosed())
	assert.Zero(t, hub.Len())

	_, err = hub.Subscribe(&fakeConn{})
	require.ErrorIs(t, err, ErrHubClosed)
}

func TestNewEvent(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	ev := &models.LogEvent{
		Message:   "disk full",
		Level:     "error",
		CreatedAt: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
		User:      models.User{Name: "Alice"},
	}

	assert.Equal(t, Event{
		Message: "disk full", Level: "error", User: "Alice", CreatedAt: "2024-05-10 14:00:00",
	}, NewEvent(ev, rome))

	assert.Equal(t, "2024-05-10 12:00:00", NewEvent(ev, nil).CreatedAt)
}
