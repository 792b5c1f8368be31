package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// NewPostgresStore returns the networked relational backend.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Tickets:   &pgTicketRepository{pool: pool},
		Comments:  &pgCommentRepository{pool: pool},
		ChatLinks: &pgChatLinkRepository{pool: pool},
		Users:     &pgUserRepository{pool: pool},
	}
}

const ticketColumns = `id, created_at, updated_at, requester_name, requester_email, whatsapp_number,
        department, category, subcategory, subject, description, priority, impact, status,
        response_hours, resolution_hours, due_response_at, due_resolution_at,
        attachments, asset_tag, location, tags, assignee`

type pgTicketRepository struct {
	pool *pgxpool.Pool
}

func (r *pgTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if err := validateTicketForCreate(ticket); err != nil {
		return err
	}
	const query = `
        INSERT INTO tickets (` + ticketColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`
	_, err := r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.RequesterName,
		ticket.RequesterEmail,
		ticket.WhatsappNumber,
		ticket.Department,
		ticket.Category,
		ticket.Subcategory,
		ticket.Subject,
		ticket.Description,
		ticket.Priority,
		ticket.Impact,
		ticket.Status,
		ticket.ResponseHours,
		ticket.ResolutionHours,
		ticket.DueResponseAt,
		ticket.DueResolutionAt,
		encodeAttachments(ticket.Attachments),
		ticket.AssetTag,
		ticket.Location,
		encodeTags(ticket.Tags),
		ticket.Assignee,
	)
	if err != nil {
		return apperrors.NewBackendError("ticket create", err)
	}
	return nil
}

func (r *pgTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, apperrors.NewBackendError("ticket get", err)
	}
	return ticket, nil
}

func (r *pgTicketRepository) List(ctx context.Context) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewBackendError("ticket list", err)
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (r *pgTicketRepository) ListByRequesterEmail(ctx context.Context, email string, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT `+ticketColumns+` FROM tickets WHERE requester_email=$1 ORDER BY created_at DESC LIMIT %d`, limit)
	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, apperrors.NewBackendError("ticket list by requester", err)
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (r *pgTicketRepository) ListBreached(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets
        WHERE status NOT IN ($1,$2) AND due_resolution_at <= $3`
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusResolved, domain.TicketStatusClosed, now)
	if err != nil {
		return nil, apperrors.NewBackendError("ticket breach scan", err)
	}
	defer rows.Close()
	return collectTickets(rows)
}

// Patch updates only the columns present in the patch in one atomic row
// update, so concurrent patches to the same id serialize per field-set.
func (r *pgTicketRepository) Patch(ctx context.Context, id string, patch domain.TicketPatch, updatedAt time.Time) (*domain.Ticket, error) {
	args := []any{id, updatedAt}
	sets := []string{"updated_at=$2"}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.RequesterName != nil {
		set("requester_name", *patch.RequesterName)
	}
	if patch.RequesterEmail != nil {
		set("requester_email", patch.RequesterEmail)
	}
	if patch.WhatsappNumber != nil {
		set("whatsapp_number", *patch.WhatsappNumber)
	}
	if patch.Department != nil {
		set("department", patch.Department)
	}
	if patch.Category != nil {
		set("category", *patch.Category)
	}
	if patch.Subcategory != nil {
		set("subcategory", *patch.Subcategory)
	}
	if patch.Subject != nil {
		set("subject", *patch.Subject)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Priority != nil {
		set("priority", *patch.Priority)
	}
	if patch.Impact != nil {
		set("impact", *patch.Impact)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.ResponseHours != nil {
		set("response_hours", *patch.ResponseHours)
	}
	if patch.ResolutionHours != nil {
		set("resolution_hours", *patch.ResolutionHours)
	}
	if patch.DueResponseAt != nil {
		set("due_response_at", *patch.DueResponseAt)
	}
	if patch.DueResolutionAt != nil {
		set("due_resolution_at", *patch.DueResolutionAt)
	}
	if patch.Attachments != nil {
		set("attachments", encodeAttachments(*patch.Attachments))
	}
	if patch.AssetTag != nil {
		set("asset_tag", patch.AssetTag)
	}
	if patch.Location != nil {
		set("location", patch.Location)
	}
	if patch.Tags != nil {
		set("tags", encodeTags(*patch.Tags))
	}
	if patch.Assignee != nil {
		set("assignee", patch.Assignee)
	}

	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE id=$1 RETURNING `+ticketColumns, strings.Join(sets, ", "))
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, apperrors.NewBackendError("ticket patch", err)
	}
	return ticket, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var attachments, tags string
	if err := row.Scan(
		&ticket.ID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.RequesterName,
		&ticket.RequesterEmail,
		&ticket.WhatsappNumber,
		&ticket.Department,
		&ticket.Category,
		&ticket.Subcategory,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Impact,
		&ticket.Status,
		&ticket.ResponseHours,
		&ticket.ResolutionHours,
		&ticket.DueResponseAt,
		&ticket.DueResolutionAt,
		&attachments,
		&ticket.AssetTag,
		&ticket.Location,
		&tags,
		&ticket.Assignee,
	); err != nil {
		return nil, err
	}
	ticket.Attachments = decodeAttachments(attachments)
	ticket.Tags = decodeTags(tags)
	return &ticket, nil
}

func collectTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, apperrors.NewBackendError("ticket scan", err)
		}
		result = append(result, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewBackendError("ticket rows", err)
	}
	return result, nil
}

type pgCommentRepository struct {
	pool *pgxpool.Pool
}

func (r *pgCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if err := validateCommentForCreate(comment); err != nil {
		return err
	}
	const query = `
        INSERT INTO comments (id, ticket_id, author, body, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := r.pool.Exec(ctx, query, comment.ID, comment.TicketID, comment.Author, comment.Body, comment.CreatedAt)
	if err != nil {
		return apperrors.NewBackendError("comment create", err)
	}
	return nil
}

func (r *pgCommentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, author, body, created_at
        FROM comments WHERE ticket_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, apperrors.NewBackendError("comment list", err)
	}
	defer rows.Close()

	result := []domain.Comment{}
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(&comment.ID, &comment.TicketID, &comment.Author, &comment.Body, &comment.CreatedAt); err != nil {
			return nil, apperrors.NewBackendError("comment scan", err)
		}
		result = append(result, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewBackendError("comment rows", err)
	}
	return result, nil
}

type pgChatLinkRepository struct {
	pool *pgxpool.Pool
}

func (r *pgChatLinkRepository) Upsert(ctx context.Context, conversationID, email string) error {
	const query = `
        INSERT INTO chat_links (conversation_id, email) VALUES ($1,$2)
        ON CONFLICT (conversation_id) DO UPDATE SET email=EXCLUDED.email`
	if _, err := r.pool.Exec(ctx, query, conversationID, email); err != nil {
		return apperrors.NewBackendError("chat link upsert", err)
	}
	return nil
}

func (r *pgChatLinkRepository) Get(ctx context.Context, conversationID string) (*domain.ChatLink, error) {
	const query = `SELECT conversation_id, email FROM chat_links WHERE conversation_id=$1`
	var link domain.ChatLink
	if err := r.pool.QueryRow(ctx, query, conversationID).Scan(&link.ConversationID, &link.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("chat link", map[string]any{"conversation_id": conversationID})
		}
		return nil, apperrors.NewBackendError("chat link get", err)
	}
	return &link, nil
}

type pgUserRepository struct {
	pool *pgxpool.Pool
}

func (r *pgUserRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, email, password_hash, role) VALUES ($1,$2,$3,$4)`
	if _, err := r.pool.Exec(ctx, query, user.ID, user.Email, user.PasswordHash, user.Role); err != nil {
		return apperrors.NewBackendError("user create", err)
	}
	return nil
}

func (r *pgUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, email, password_hash, role FROM users WHERE email=$1`
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
		}
		return nil, apperrors.NewBackendError("user get", err)
	}
	return &user, nil
}
