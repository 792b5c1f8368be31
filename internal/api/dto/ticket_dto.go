package dto

import "time"

// AttachmentDTO is a stored file reference on the wire.
type AttachmentDTO struct {
	Name string `json:"name"`
	Size int64  `json:"size,omitempty"`
	URL  string `json:"url,omitempty"`
}

// CreateTicketRequest is the intake payload. Client-supplied SLA fields are
// ignored; the server derives them.
type CreateTicketRequest struct {
	ID             string          `json:"id"`
	RequesterName  string          `json:"requesterName"`
	RequesterEmail string          `json:"requesterEmail"`
	WhatsappNumber string          `json:"whatsappNumber"`
	Department     string          `json:"department"`
	Category       string          `json:"category"`
	Subcategory    string          `json:"subcategory"`
	Subject        string          `json:"subject"`
	Description    string          `json:"description"`
	Priority       string          `json:"priority"`
	Impact         string          `json:"impact"`
	Attachments    []AttachmentDTO `json:"attachments"`
	AssetTag       string          `json:"assetTag"`
	Location       string          `json:"location"`
	Tags           []string        `json:"tags"`
	Assignee       string          `json:"assignee"`
}

// PatchTicketRequest carries merge-patch semantics: absent keys leave fields
// untouched, present keys overwrite.
type PatchTicketRequest struct {
	RequesterName  *string          `json:"requesterName"`
	RequesterEmail *string          `json:"requesterEmail"`
	WhatsappNumber *string          `json:"whatsappNumber"`
	Department     *string          `json:"department"`
	Category       *string          `json:"category"`
	Subcategory    *string          `json:"subcategory"`
	Subject        *string          `json:"subject"`
	Description    *string          `json:"description"`
	Priority       *string          `json:"priority"`
	Impact         *string          `json:"impact"`
	Status         *string          `json:"status"`
	Attachments    *[]AttachmentDTO `json:"attachments"`
	AssetTag       *string          `json:"assetTag"`
	Location       *string          `json:"location"`
	Tags           *[]string        `json:"tags"`
	Assignee       *string          `json:"assignee"`
}

// TicketResponse is the full wire form of a ticket.
type TicketResponse struct {
	ID              string          `json:"id"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	RequesterName   string          `json:"requesterName"`
	RequesterEmail  *string         `json:"requesterEmail"`
	WhatsappNumber  string          `json:"whatsappNumber"`
	Department      *string         `json:"department"`
	Category        string          `json:"category"`
	Subcategory     string          `json:"subcategory"`
	Subject         string          `json:"subject"`
	Description     string          `json:"description"`
	Priority        string          `json:"priority"`
	Impact          string          `json:"impact"`
	Status          string          `json:"status"`
	ResponseHours   int             `json:"responseHours"`
	ResolutionHours int             `json:"resolutionHours"`
	DueResponseAt   time.Time       `json:"dueResponseAt"`
	DueResolutionAt time.Time       `json:"dueResolutionAt"`
	Attachments     []AttachmentDTO `json:"attachments"`
	AssetTag        *string         `json:"assetTag"`
	Location        *string         `json:"location"`
	Tags            []string        `json:"tags"`
	Assignee        *string         `json:"assignee"`
}

// CreateCommentRequest appends a comment to a ticket.
type CreateCommentRequest struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

// CommentResponse is the wire form of a comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
