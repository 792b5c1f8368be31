package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketsHandler manages ticket intake, reads, patches, and comments.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		ID:             req.ID,
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		WhatsappNumber: req.WhatsappNumber,
		Department:     req.Department,
		Category:       req.Category,
		Subcategory:    req.Subcategory,
		Subject:        req.Subject,
		Description:    req.Description,
		Priority:       domain.TicketPriority(req.Priority),
		Impact:         domain.TicketImpact(req.Impact),
		Attachments:    attachmentsFromDTO(req.Attachments),
		AssetTag:       req.AssetTag,
		Location:       req.Location,
		Tags:           req.Tags,
		Assignee:       req.Assignee,
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		tickets, err := h.service.Search(c.UserContext(), q, c.QueryInt("limit", 10))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
	}

	tickets, err := h.service.ListTickets(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// PatchTicket PATCH /api/tickets/:id.
func (h *TicketsHandler) PatchTicket(c *fiber.Ctx) error {
	var req dto.PatchTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	patch := domain.TicketPatch{
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		WhatsappNumber: req.WhatsappNumber,
		Department:     req.Department,
		Category:       req.Category,
		Subcategory:    req.Subcategory,
		Subject:        req.Subject,
		Description:    req.Description,
		AssetTag:       req.AssetTag,
		Location:       req.Location,
		Tags:           req.Tags,
		Assignee:       req.Assignee,
	}
	if req.Priority != nil {
		priority := domain.TicketPriority(*req.Priority)
		patch.Priority = &priority
	}
	if req.Impact != nil {
		impact := domain.TicketImpact(*req.Impact)
		patch.Impact = &impact
	}
	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		patch.Status = &status
	}
	if req.Attachments != nil {
		attachments := attachmentsFromDTO(*req.Attachments)
		patch.Attachments = &attachments
	}

	ticket, err := h.service.PatchTicket(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListComments GET /api/tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	comments, err := h.service.ListComments(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddComment POST /api/tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.NewValidationError("body required", nil)
	}

	comment, err := h.service.AddComment(c.UserContext(), c.Params("id"), req.Author, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

func attachmentsFromDTO(in []dto.AttachmentDTO) []domain.Attachment {
	out := make([]domain.Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, domain.Attachment{Name: a.Name, Size: a.Size, URL: a.URL})
	}
	return out
}

func attachmentDTOs(in []domain.Attachment) []dto.AttachmentDTO {
	out := make([]dto.AttachmentDTO, 0, len(in))
	for _, a := range in {
		out = append(out, dto.AttachmentDTO{Name: a.Name, Size: a.Size, URL: a.URL})
	}
	return out
}

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:              t.ID,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		RequesterName:   t.RequesterName,
		RequesterEmail:  t.RequesterEmail,
		WhatsappNumber:  t.WhatsappNumber,
		Department:      t.Department,
		Category:        t.Category,
		Subcategory:     t.Subcategory,
		Subject:         t.Subject,
		Description:     t.Description,
		Priority:        string(t.Priority),
		Impact:          string(t.Impact),
		Status:          string(t.Status),
		ResponseHours:   t.ResponseHours,
		ResolutionHours: t.ResolutionHours,
		DueResponseAt:   t.DueResponseAt,
		DueResolutionAt: t.DueResolutionAt,
		Attachments:     attachmentDTOs(t.Attachments),
		AssetTag:        t.AssetTag,
		Location:        t.Location,
		Tags:            t.Tags,
		Assignee:        t.Assignee,
	}
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return items
}

func commentResponse(c *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        c.ID,
		TicketID:  c.TicketID,
		Author:    c.Author,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}
}
