package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Comment is an immutable note attached to a ticket id.
type Comment struct {
	ID        string
	TicketID  string
	Author    string
	Body      string
	CreatedAt time.Time
}

// NewCommentID generates an id of the form CMT-<unix ms>-<rand4>.
func NewCommentID(now time.Time) string {
	random := strings.ToLower(strings.ReplaceAll(uuid.NewString(), "-", ""))[:4]
	return fmt.Sprintf("CMT-%d-%s", now.UnixMilli(), random)
}
