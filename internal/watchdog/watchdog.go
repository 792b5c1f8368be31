package watchdog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/notify"
)

// TicketSource yields tickets whose resolution deadline has passed while
// their status is non-terminal.
type TicketSource interface {
	ListBreached(ctx context.Context, now time.Time) ([]domain.Ticket, error)
}

// Notifier is the outbound side of a breach alert.
type Notifier interface {
	Notify(text string, destination ...string)
}

// Watchdog periodically scans for SLA breaches. A breached ticket is
// renotified on every tick until it is resolved or closed; there is no
// edge-trigger de-duplication, matching production behavior.
type Watchdog struct {
	tickets  TicketSource
	notifier Notifier
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// New builds a watchdog. A nil clock defaults to time.Now.
func New(tickets TicketSource, notifier Notifier, interval time.Duration, clock func() time.Time, logger *zap.Logger) *Watchdog {
	if interval <= 0 {
		interval = time.Minute
	}
	if clock == nil {
		clock = time.Now
	}
	return &Watchdog{
		tickets:  tickets,
		notifier: notifier,
		interval: interval,
		now:      clock,
		logger:   logger,
	}
}

// Run ticks until the context is canceled. Runs for the life of the process.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick performs one breach scan. A failing notification for one ticket must
// not stop the rest of the scan; Notify is already fire-and-forget, and the
// scan itself only logs store errors.
func (w *Watchdog) Tick(ctx context.Context) {
	now := w.now()
	breached, err := w.tickets.ListBreached(ctx, now)
	if err != nil {
		w.logger.Warn("sla breach scan failed", zap.Error(err))
		return
	}
	for i := range breached {
		w.notifier.Notify(notify.SLABreachedMessage(&breached[i]))
	}
	if len(breached) > 0 {
		w.logger.Debug("sla breaches notified", zap.Int("count", len(breached)))
	}
}
