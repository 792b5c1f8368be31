package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "New"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusWaiting    TicketStatus = "Waiting"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// Terminal reports whether the status excludes a ticket from SLA scanning.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityCritical TicketPriority = "Critical"
)

// TicketImpact enumerates business impact levels.
type TicketImpact string

const (
	TicketImpactMinor    TicketImpact = "Minor"
	TicketImpactModerate TicketImpact = "Moderate"
	TicketImpactMajor    TicketImpact = "Major"
)

// Attachment is a stored file reference on a ticket.
type Attachment struct {
	Name string `json:"name"`
	Size int64  `json:"size,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID              string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	RequesterName   string
	RequesterEmail  *string
	WhatsappNumber  string
	Department      *string
	Category        string
	Subcategory     string
	Subject         string
	Description     string
	Priority        TicketPriority
	Impact          TicketImpact
	Status          TicketStatus
	ResponseHours   int
	ResolutionHours int
	DueResponseAt   time.Time
	DueResolutionAt time.Time
	Attachments     []Attachment
	AssetTag        *string
	Location        *string
	Tags            []string
	Assignee        *string
}

// Clone returns a deep copy so event subscribers cannot mutate shared state.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	cp := *t
	cp.RequesterEmail = cloneStringPtr(t.RequesterEmail)
	cp.Department = cloneStringPtr(t.Department)
	cp.AssetTag = cloneStringPtr(t.AssetTag)
	cp.Location = cloneStringPtr(t.Location)
	cp.Assignee = cloneStringPtr(t.Assignee)
	cp.Attachments = append([]Attachment{}, t.Attachments...)
	cp.Tags = append([]string{}, t.Tags...)
	return &cp
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// TicketPatch carries a field-level merge; only non-nil fields overwrite.
type TicketPatch struct {
	RequesterName   *string
	RequesterEmail  *string
	WhatsappNumber  *string
	Department      *string
	Category        *string
	Subcategory     *string
	Subject         *string
	Description     *string
	Priority        *TicketPriority
	Impact          *TicketImpact
	Status          *TicketStatus
	ResponseHours   *int
	ResolutionHours *int
	DueResponseAt   *time.Time
	DueResolutionAt *time.Time
	Attachments     *[]Attachment
	AssetTag        *string
	Location        *string
	Tags            *[]string
	Assignee        *string
}

// Apply merges the patch into the ticket in place.
func (p TicketPatch) Apply(t *Ticket) {
	if p.RequesterName != nil {
		t.RequesterName = *p.RequesterName
	}
	if p.RequesterEmail != nil {
		t.RequesterEmail = p.RequesterEmail
	}
	if p.WhatsappNumber != nil {
		t.WhatsappNumber = *p.WhatsappNumber
	}
	if p.Department != nil {
		t.Department = p.Department
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Subcategory != nil {
		t.Subcategory = *p.Subcategory
	}
	if p.Subject != nil {
		t.Subject = *p.Subject
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Impact != nil {
		t.Impact = *p.Impact
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.ResponseHours != nil {
		t.ResponseHours = *p.ResponseHours
	}
	if p.ResolutionHours != nil {
		t.ResolutionHours = *p.ResolutionHours
	}
	if p.DueResponseAt != nil {
		t.DueResponseAt = *p.DueResponseAt
	}
	if p.DueResolutionAt != nil {
		t.DueResolutionAt = *p.DueResolutionAt
	}
	if p.Attachments != nil {
		t.Attachments = *p.Attachments
	}
	if p.AssetTag != nil {
		t.AssetTag = p.AssetTag
	}
	if p.Location != nil {
		t.Location = p.Location
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	if p.Assignee != nil {
		t.Assignee = p.Assignee
	}
}

// ChangedFields lists the patch keys that carry a value, for event payloads.
func (p TicketPatch) ChangedFields() []string {
	fields := []string{}
	add := func(name string, set bool) {
		if set {
			fields = append(fields, name)
		}
	}
	add("requesterName", p.RequesterName != nil)
	add("requesterEmail", p.RequesterEmail != nil)
	add("whatsappNumber", p.WhatsappNumber != nil)
	add("department", p.Department != nil)
	add("category", p.Category != nil)
	add("subcategory", p.Subcategory != nil)
	add("subject", p.Subject != nil)
	add("description", p.Description != nil)
	add("priority", p.Priority != nil)
	add("impact", p.Impact != nil)
	add("status", p.Status != nil)
	add("attachments", p.Attachments != nil)
	add("assetTag", p.AssetTag != nil)
	add("location", p.Location != nil)
	add("tags", p.Tags != nil)
	add("assignee", p.Assignee != nil)
	return fields
}

// NewTicketID generates an id of the form TKT-<year>-<RANDOM8>.
func NewTicketID(now time.Time) string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return "TKT-" + now.Format("2006") + "-" + random
}

// NormalizePhone reduces a phone number to digits-only international form.
// A leading local zero becomes the 62 country prefix.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		digits = "62" + digits[1:]
	}
	return digits
}
