package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/service"
)

// StatsHandler serves reporting endpoints.
type StatsHandler struct {
	service *service.TicketService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(ticketService *service.TicketService) *StatsHandler {
	return &StatsHandler{service: ticketService}
}

// Monthly GET /api/stats/monthly. Defaults to the current year; a year with
// no tickets returns twelve empty buckets.
func (h *StatsHandler) Monthly(c *fiber.Ctx) error {
	year := c.QueryInt("year", time.Now().Year())
	buckets, err := h.service.MonthlyStats(c.UserContext(), year)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"year": year, "months": buckets}})
}
