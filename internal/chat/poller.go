package chat

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/bot"
)

// Handler consumes decoded chat messages. Satisfied by bot.Center.
type Handler interface {
	HandleMessage(ctx context.Context, msg bot.Message) error
}

// Poller drives the bot over long polling when no webhook is configured.
type Poller struct {
	client   *Client
	handler  Handler
	interval time.Duration
	logger   *zap.Logger

	offset int64
}

// NewPoller constructs a poller.
func NewPoller(client *Client, handler Handler, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{client: client, handler: handler, interval: interval, logger: logger}
}

// Run polls until the context is canceled. Poll failures back off for one
// interval and retry; a crashed poll loop would silence the bot entirely.
func (p *Poller) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		updates, err := p.client.GetUpdates(ctx, p.offset, 30*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("telegram poll failed", zap.Error(err))
			timer.Reset(p.interval)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= p.offset {
				p.offset = update.UpdateID + 1
			}
			p.Dispatch(ctx, update)
		}
		timer.Reset(p.interval)
	}
}

// Dispatch routes one update to the handler. Shared with the webhook path.
func (p *Poller) Dispatch(ctx context.Context, update Update) {
	msg, ok := ToMessage(update)
	if !ok {
		return
	}
	if err := p.handler.HandleMessage(ctx, msg); err != nil {
		p.logger.Debug("bot reply failed", zap.String("conversation", msg.ConversationID), zap.Error(err))
	}
}

// ToMessage converts an update to the transport-agnostic message form.
// Non-text updates are skipped.
func ToMessage(update Update) (bot.Message, bool) {
	if update.Message == nil || update.Message.Text == "" {
		return bot.Message{}, false
	}
	sender := ""
	if update.Message.From != nil {
		sender = update.Message.From.FirstName
		if update.Message.From.Username != "" {
			sender = update.Message.From.Username
		}
	}
	return bot.Message{
		ConversationID: strconv.FormatInt(update.Message.Chat.ID, 10),
		Sender:         sender,
		Text:           update.Message.Text,
	}, true
}
