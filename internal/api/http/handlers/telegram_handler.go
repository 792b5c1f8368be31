package handlers

import (
	"crypto/subtle"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/bot"
	"github.com/spec-kit/helpdesk-service/internal/chat"
)

// TelegramHandler receives webhook pushes as an alternative to polling.
type TelegramHandler struct {
	center *bot.Center
	token  string
	logger *zap.Logger
}

// NewTelegramHandler constructs handler.
func NewTelegramHandler(center *bot.Center, token string, logger *zap.Logger) *TelegramHandler {
	return &TelegramHandler{center: center, token: token, logger: logger}
}

// Webhook POST /telegram/:token. The bot token in the path is the shared
// secret; anything else is rejected before the body is read. Always
// acknowledges with 200 so Telegram does not redeliver.
func (h *TelegramHandler) Webhook(c *fiber.Ctx) error {
	if subtle.ConstantTimeCompare([]byte(c.Params("token")), []byte(h.token)) != 1 {
		return c.SendStatus(fiber.StatusNotFound)
	}

	var update chat.Update
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		h.logger.Debug("webhook decode failed", zap.Error(err))
		return c.SendStatus(fiber.StatusOK)
	}

	msg, ok := chat.ToMessage(update)
	if !ok {
		return c.SendStatus(fiber.StatusOK)
	}
	if err := h.center.HandleMessage(c.UserContext(), msg); err != nil {
		h.logger.Debug("webhook handling failed", zap.Error(err))
	}
	return c.SendStatus(fiber.StatusOK)
}
