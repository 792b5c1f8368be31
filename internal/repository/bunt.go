package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// BuntHandles carries one open buntdb file per table.
type BuntHandles struct {
	Tickets   *buntdb.DB
	Comments  *buntdb.DB
	Users     *buntdb.DB
	ChatLinks *buntdb.DB
}

// NewBuntStore returns the embedded backend. Rows are JSON documents keyed
// by primary key; ordering is applied after the scan.
func NewBuntStore(handles *BuntHandles) *Store {
	return &Store{
		Tickets:   &buntTicketRepository{db: handles.Tickets},
		Comments:  &buntCommentRepository{db: handles.Comments},
		ChatLinks: &buntChatLinkRepository{db: handles.ChatLinks},
		Users:     &buntUserRepository{db: handles.Users},
	}
}

// ticketRow is the stored shape of a ticket. Attachments and tags stay as
// encoded text so both backends share one codec.
type ticketRow struct {
	ID              string                `json:"id"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
	RequesterName   string                `json:"requesterName"`
	RequesterEmail  *string               `json:"requesterEmail"`
	WhatsappNumber  string                `json:"whatsappNumber"`
	Department      *string               `json:"department"`
	Category        string                `json:"category"`
	Subcategory     string                `json:"subcategory"`
	Subject         string                `json:"subject"`
	Description     string                `json:"description"`
	Priority        domain.TicketPriority `json:"priority"`
	Impact          domain.TicketImpact   `json:"impact"`
	Status          domain.TicketStatus   `json:"status"`
	ResponseHours   int                   `json:"responseHours"`
	ResolutionHours int                   `json:"resolutionHours"`
	DueResponseAt   time.Time             `json:"dueResponseAt"`
	DueResolutionAt time.Time             `json:"dueResolutionAt"`
	Attachments     string                `json:"attachments"`
	AssetTag        *string               `json:"assetTag"`
	Location        *string               `json:"location"`
	Tags            string                `json:"tags"`
	Assignee        *string               `json:"assignee"`
}

func toTicketRow(t *domain.Ticket) ticketRow {
	return ticketRow{
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
		Priority:        t.Priority,
		Impact:          t.Impact,
		Status:          t.Status,
		ResponseHours:   t.ResponseHours,
		ResolutionHours: t.ResolutionHours,
		DueResponseAt:   t.DueResponseAt,
		DueResolutionAt: t.DueResolutionAt,
		Attachments:     encodeAttachments(t.Attachments),
		AssetTag:        t.AssetTag,
		Location:        t.Location,
		Tags:            encodeTags(t.Tags),
		Assignee:        t.Assignee,
	}
}

func (row ticketRow) toDomain() domain.Ticket {
	return domain.Ticket{
		ID:              row.ID,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		RequesterName:   row.RequesterName,
		RequesterEmail:  row.RequesterEmail,
		WhatsappNumber:  row.WhatsappNumber,
		Department:      row.Department,
		Category:        row.Category,
		Subcategory:     row.Subcategory,
		Subject:         row.Subject,
		Description:     row.Description,
		Priority:        row.Priority,
		Impact:          row.Impact,
		Status:          row.Status,
		ResponseHours:   row.ResponseHours,
		ResolutionHours: row.ResolutionHours,
		DueResponseAt:   row.DueResponseAt,
		DueResolutionAt: row.DueResolutionAt,
		Attachments:     decodeAttachments(row.Attachments),
		AssetTag:        row.AssetTag,
		Location:        row.Location,
		Tags:            decodeTags(row.Tags),
		Assignee:        row.Assignee,
	}
}

type buntTicketRepository struct {
	db *buntdb.DB
}

func (r *buntTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	if err := validateTicketForCreate(ticket); err != nil {
		return err
	}
	data, err := json.Marshal(toTicketRow(ticket))
	if err != nil {
		return apperrors.NewBackendError("ticket encode", err)
	}
	err = r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(ticket.ID, string(data), nil)
		return err
	})
	if err != nil {
		return apperrors.NewBackendError("ticket create", err)
	}
	return nil
}

func (r *buntTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	var row ticketRow
	err := r.db.View(func(tx *buntdb.Tx) error {
		raw, err := tx.Get(id)
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(raw), &row)
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, apperrors.NewBackendError("ticket get", err)
	}
	ticket := row.toDomain()
	return &ticket, nil
}

func (r *buntTicketRepository) scan(filter func(ticketRow) bool) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	err := r.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(_, raw string) bool {
			var row ticketRow
			if err := json.Unmarshal([]byte(raw), &row); err != nil {
				return true
			}
			if filter == nil || filter(row) {
				result = append(result, row.toDomain())
			}
			return true
		})
	})
	if err != nil {
		return nil, apperrors.NewBackendError("ticket scan", err)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *buntTicketRepository) List(ctx context.Context) ([]domain.Ticket, error) {
	return r.scan(nil)
}

func (r *buntTicketRepository) ListByRequesterEmail(ctx context.Context, email string, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 10
	}
	tickets, err := r.scan(func(row ticketRow) bool {
		return row.RequesterEmail != nil && *row.RequesterEmail == email
	})
	if err != nil {
		return nil, err
	}
	if len(tickets) > limit {
		tickets = tickets[:limit]
	}
	return tickets, nil
}

func (r *buntTicketRepository) ListBreached(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	return r.scan(func(row ticketRow) bool {
		return !row.Status.Terminal() && !row.DueResolutionAt.After(now)
	})
}

// Patch runs read-merge-write inside one Update transaction, so concurrent
// patches to the same id serialize on the store.
func (r *buntTicketRepository) Patch(_ context.Context, id string, patch domain.TicketPatch, updatedAt time.Time) (*domain.Ticket, error) {
	var merged domain.Ticket
	err := r.db.Update(func(tx *buntdb.Tx) error {
		raw, err := tx.Get(id)
		if err != nil {
			return err
		}
		var row ticketRow
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return err
		}
		merged = row.toDomain()
		patch.Apply(&merged)
		merged.UpdatedAt = updatedAt
		data, err := json.Marshal(toTicketRow(&merged))
		if err != nil {
			return err
		}
		_, _, err = tx.Set(id, string(data), nil)
		return err
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, apperrors.NewBackendError("ticket patch", err)
	}
	return &merged, nil
}

type commentRow struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type buntCommentRepository struct {
	db *buntdb.DB
}

func (r *buntCommentRepository) Create(_ context.Context, comment *domain.Comment) error {
	if err := validateCommentForCreate(comment); err != nil {
		return err
	}
	data, err := json.Marshal(commentRow{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		Author:    comment.Author,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	})
	if err != nil {
		return apperrors.NewBackendError("comment encode", err)
	}
	err = r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(comment.ID, string(data), nil)
		return err
	})
	if err != nil {
		return apperrors.NewBackendError("comment create", err)
	}
	return nil
}

func (r *buntCommentRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	result := []domain.Comment{}
	err := r.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(_, raw string) bool {
			var row commentRow
			if err := json.Unmarshal([]byte(raw), &row); err != nil {
				return true
			}
			if row.TicketID == ticketID {
				result = append(result, domain.Comment{
					ID:        row.ID,
					TicketID:  row.TicketID,
					Author:    row.Author,
					Body:      row.Body,
					CreatedAt: row.CreatedAt,
				})
			}
			return true
		})
	})
	if err != nil {
		return nil, apperrors.NewBackendError("comment list", err)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

type buntChatLinkRepository struct {
	db *buntdb.DB
}

func (r *buntChatLinkRepository) Upsert(_ context.Context, conversationID, email string) error {
	err := r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(conversationID, email, nil)
		return err
	})
	if err != nil {
		return apperrors.NewBackendError("chat link upsert", err)
	}
	return nil
}

func (r *buntChatLinkRepository) Get(_ context.Context, conversationID string) (*domain.ChatLink, error) {
	var email string
	err := r.db.View(func(tx *buntdb.Tx) error {
		var err error
		email, err = tx.Get(conversationID)
		return err
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil, apperrors.NewNotFound("chat link", map[string]any{"conversation_id": conversationID})
		}
		return nil, apperrors.NewBackendError("chat link get", err)
	}
	return &domain.ChatLink{ConversationID: conversationID, Email: email}, nil
}

type userRow struct {
	ID           string          `json:"id"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"password"`
	Role         domain.UserRole `json:"role"`
}

type buntUserRepository struct {
	db *buntdb.DB
}

func (r *buntUserRepository) Create(_ context.Context, user *domain.User) error {
	data, err := json.Marshal(userRow{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
	})
	if err != nil {
		return apperrors.NewBackendError("user encode", err)
	}
	err = r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(user.Email, string(data), nil)
		return err
	})
	if err != nil {
		return apperrors.NewBackendError("user create", err)
	}
	return nil
}

func (r *buntUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var row userRow
	err := r.db.View(func(tx *buntdb.Tx) error {
		raw, err := tx.Get(email)
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(raw), &row)
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
		}
		return nil, apperrors.NewBackendError("user get", err)
	}
	return &domain.User{ID: row.ID, Email: row.Email, PasswordHash: row.PasswordHash, Role: row.Role}, nil
}
