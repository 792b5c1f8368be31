package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Outbound delivers a rendered message to a chat destination.
type Outbound interface {
	Send(ctx context.Context, destination, text string) error
}

type delivery struct {
	destination string
	text        string
}

// Notifier queues best-effort outbound notifications. A slow or unreachable
// channel never delays the mutation that triggered the message: Notify hands
// the delivery to a worker and returns immediately, and delivery failures
// are logged and discarded.
type Notifier struct {
	out         Outbound
	defaultDest string
	timeout     time.Duration
	queue       chan delivery
	logger      *zap.Logger
}

// NewNotifier builds a dispatcher. A nil outbound channel or empty default
// destination turns Notify into a silent no-op for unaddressed messages.
func NewNotifier(out Outbound, defaultDest string, timeout time.Duration, logger *zap.Logger) *Notifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Notifier{
		out:         out,
		defaultDest: defaultDest,
		timeout:     timeout,
		queue:       make(chan delivery, 64),
		logger:      logger,
	}
}

// Notify enqueues a message for the given destination, defaulting to the
// configured one. Never blocks: a full queue drops the message.
func (n *Notifier) Notify(text string, destination ...string) {
	if n == nil || n.out == nil {
		return
	}
	dest := n.defaultDest
	if len(destination) > 0 && destination[0] != "" {
		dest = destination[0]
	}
	if dest == "" {
		return
	}
	select {
	case n.queue <- delivery{destination: dest, text: text}:
	default:
		n.logger.Warn("notification queue full; dropping message")
	}
}

// Run drains the queue until the context is canceled. Intended to run as a
// single background goroutine.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-n.queue:
			n.deliver(ctx, d)
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, d delivery) {
	sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	if err := n.out.Send(sendCtx, d.destination, d.text); err != nil {
		n.logger.Debug("notification delivery failed",
			zap.String("destination", d.destination),
			zap.Error(err))
	}
}
