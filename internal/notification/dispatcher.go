package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayo6706/wallet-ledger/internal/observability"
)

type envelope struct {
	topic   string
	payload any
}

// Dispatcher decouples the engine from the sink through a bounded
// queue. Enqueue never blocks the caller; a saturated queue drops the
// alert and logs it. Publish failures are logged and suppressed.
type Dispatcher struct {
	sink    Sink
	queue   chan envelope
	timeout time.Duration
	wg      sync.WaitGroup
	once    sync.Once
}

func NewDispatcher(sink Sink, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		sink:    sink,
		queue:   make(chan envelope, queueSize),
		timeout: 5 * time.Second,
	}
}

// Start launches the consumer goroutine. It drains the queue until
// Close is called, then flushes what remains.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for env := range d.queue {
			d.deliver(env)
		}
	}()
}

// Enqueue hands an alert to the consumer. Fire-and-forget: the caller
// gets no signal of eventual delivery.
func (d *Dispatcher) Enqueue(topic string, payload any) {
	select {
	case d.queue <- envelope{topic: topic, payload: payload}:
	default:
		observability.IncrementNotification("dropped")
		zap.L().Warn("notification queue saturated, alert dropped", zap.String("topic", topic))
	}
}

// Close stops accepting alerts and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *Dispatcher) deliver(env envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.sink.Publish(ctx, env.topic, env.payload); err != nil {
		observability.IncrementNotification("failed")
		zap.L().Error("failed to deliver notification", zap.String("topic", env.topic), zap.Error(err))
		return
	}
	observability.IncrementNotification("delivered")
}
