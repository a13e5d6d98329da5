package message

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/wabot/plugin/whatsapp"
	"github.com/hrygo/wabot/server/internal/observability"
)

// recordingHandler records handled message ids and can block until released.
type recordingHandler struct {
	mu      sync.Mutex
	handled []string
	outcome string
	block   chan struct{}
	panicOn string
	running atomic.Int32
	peak    atomic.Int32
}

func (h *recordingHandler) HandleMessage(ctx context.Context, msg whatsapp.Message, _ string) string {
	n := h.running.Add(1)
	defer h.running.Add(-1)
	for {
		p := h.peak.Load()
		if n <= p || h.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if msg.ID == h.panicOn {
		panic("boom")
	}
	if h.block != nil {
		select {
		case <-h.block:
		case <-ctx.Done():
			return observability.OutcomeFailed
		}
	}

	h.mu.Lock()
	h.handled = append(h.handled, msg.ID)
	h.mu.Unlock()
	if h.outcome == "" {
		return observability.OutcomeProcessed
	}
	return h.outcome
}

func (h *recordingHandler) Handled() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.handled...)
}

func deliveries(ids ...string) []whatsapp.Delivery {
	list := make([]whatsapp.Delivery, 0, len(ids))
	for _, id := range ids {
		list = append(list, whatsapp.Delivery{Message: whatsapp.Message{From: "15550001111", ID: id}, PhoneNumberID: "pn-1"})
	}
	return list
}

func TestRunner_ProcessesDeliveryInOrder(t *testing.T) {
	handler := &recordingHandler{}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	r := NewRunner(handler, metrics, Config{MaxConcurrent: 2})

	jobID, err := r.Submit(deliveries("a", "b", "c"))
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)

	require.NoError(t, r.Shutdown(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, handler.Handled())
	assert.Equal(t, int64(3), metrics.Snapshot().MessageTotal)
	assert.Equal(t, int64(0), r.Pending())
}

func TestRunner_BoundsConcurrency(t *testing.T) {
	handler := &recordingHandler{block: make(chan struct{})}
	r := NewRunner(handler, nil, Config{MaxConcurrent: 2})

	for i := 0; i < 5; i++ {
		_, err := r.Submit(deliveries(string(rune('a' + i))))
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool { return handler.running.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), handler.running.Load())

	close(handler.block)
	require.NoError(t, r.Shutdown(context.Background()))
	assert.Len(t, handler.Handled(), 5)
	assert.Equal(t, int32(2), handler.peak.Load())
}

func TestRunner_RejectsWhenQueueFull(t *testing.T) {
	handler := &recordingHandler{block: make(chan struct{})}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	r := NewRunner(handler, metrics, Config{MaxConcurrent: 1, MaxPending: 1})

	_, err := r.Submit(deliveries("a"))
	require.NoError(t, err)

	_, err = r.Submit(deliveries("b", "c"))
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, int64(2), metrics.Snapshot().DroppedTotal)

	close(handler.block)
	require.NoError(t, r.Shutdown(context.Background()))
	assert.Equal(t, []string{"a"}, handler.Handled())
}

func TestRunner_SubmitAfterShutdown(t *testing.T) {
	r := NewRunner(&recordingHandler{}, nil, Config{})
	require.NoError(t, r.Shutdown(context.Background()))

	_, err := r.Submit(deliveries("a"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRunner_ShutdownDeadlineCancelsHandlers(t *testing.T) {
	handler := &recordingHandler{block: make(chan struct{})}
	r := NewRunner(handler, nil, Config{MaxConcurrent: 1})

	_, err := r.Submit(deliveries("a"))
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return handler.running.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Shutdown(ctx), context.DeadlineExceeded)
	assert.Empty(t, handler.Handled())
}

func TestRunner_MessageTimeout(t *testing.T) {
	handler := &recordingHandler{block: make(chan struct{})}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	r := NewRunner(handler, metrics, Config{MessageTimeout: 10 * time.Millisecond})

	_, err := r.Submit(deliveries("a", "b"))
	require.NoError(t, err)
	require.NoError(t, r.Shutdown(context.Background()))

	assert.Equal(t, int64(2), metrics.Snapshot().FailedTotal)
}

func TestRunner_RecoversFromPanic(t *testing.T) {
	handler := &recordingHandler{panicOn: "a"}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	r := NewRunner(handler, metrics, Config{})

	_, err := r.Submit(deliveries("a", "b"))
	require.NoError(t, err)
	require.NoError(t, r.Shutdown(context.Background()))

	assert.Equal(t, []string{"b"}, handler.Handled())
	snapshot := metrics.Snapshot()
	assert.Equal(t, int64(2), snapshot.MessageTotal)
	assert.Equal(t, int64(1), snapshot.FailedTotal)
}
