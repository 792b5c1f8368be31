package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/blob"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AttachmentsHandler stores uploaded files and appends them to tickets.
type AttachmentsHandler struct {
	service *service.TicketService
	storage blob.Storage
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(ticketService *service.TicketService, storage blob.Storage) *AttachmentsHandler {
	return &AttachmentsHandler{service: ticketService, storage: storage}
}

// Upload POST /api/tickets/:id/attachments. Multipart form, field "file".
func (h *AttachmentsHandler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file required", nil)
	}

	f, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable file", nil)
	}
	defer f.Close()

	attachment, err := h.storage.Save(c.UserContext(), header.Filename, header.Size, header.Header.Get("Content-Type"), f)
	if err != nil {
		return err
	}

	ticket, err := h.service.AppendAttachment(c.UserContext(), c.Params("id"), attachment)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}
