package notify

import (
	"sync"

	"go.uber.org/zap"

	"mindline/internal/domain"
)

const queueDepth = 64

// Deliverer sends one rendered notification. Satisfied by *Mailer.
type Deliverer interface {
	Deliver(domain.Notification) error
}

// Dispatcher implements ports.Notifier: Fire enqueues without blocking and a
// single worker drains the queue. Delivery failures are logged and dropped so
// mail trouble never surfaces into a live call.
type Dispatcher struct {
	deliverer Deliverer
	log       *zap.Logger

	queue chan domain.Notification
	done  chan struct{}
	once  sync.Once
}

func NewDispatcher(d Deliverer, log *zap.Logger) *Dispatcher {
	disp := &Dispatcher{
		deliverer: d,
		log:       log,
		queue:     make(chan domain.Notification, queueDepth),
		done:      make(chan struct{}),
	}
	go disp.run()
	return disp
}

// Fire enqueues a notification. It never blocks: when the queue is full the
// notification is dropped with a log line.
func (d *Dispatcher) Fire(n domain.Notification) {
	select {
	case d.queue <- n:
	default:
		d.log.Warn("notification queue full, dropping",
			zap.String("kind", string(n.Kind)))
	}
}

// Close stops accepting work and waits for queued notifications to drain.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for n := range d.queue {
		if err := d.deliverer.Deliver(n); err != nil {
			d.log.Warn("notification delivery failed",
				zap.String("kind", string(n.Kind)),
				zap.Error(err))
			continue
		}
		d.log.Info("notification delivered",
			zap.String("kind", string(n.Kind)))
	}
}
