package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"0811222333":       "62811222333",
		"+62 811-222-333":  "62811222333",
		"62811222333":      "62811222333",
		"(0274) 555 123":   "62274555123",
		"abc":              "",
		"":                 "",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizePhone(input), "input %q", input)
	}
}

func TestNewTicketIDFormat(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	id := NewTicketID(now)

	assert.True(t, strings.HasPrefix(id, "TKT-2025-"), id)
	suffix := strings.TrimPrefix(id, "TKT-2025-")
	assert.Len(t, suffix, 8)
	assert.Equal(t, strings.ToUpper(suffix), suffix)
}

func TestPatchChangedFields(t *testing.T) {
	status := TicketStatusResolved
	assignee := "agent-1"
	patch := TicketPatch{Status: &status, Assignee: &assignee}

	assert.ElementsMatch(t, []string{"status", "assignee"}, patch.ChangedFields())
	assert.Empty(t, TicketPatch{}.ChangedFields())
}

func TestPatchApplyLeavesAbsentFields(t *testing.T) {
	ticket := Ticket{
		Subject:  "printer jam",
		Status:   TicketStatusNew,
		Priority: TicketPriorityMedium,
	}
	status := TicketStatusInProgress
	TicketPatch{Status: &status}.Apply(&ticket)

	assert.Equal(t, TicketStatusInProgress, ticket.Status)
	assert.Equal(t, "printer jam", ticket.Subject)
	assert.Equal(t, TicketPriorityMedium, ticket.Priority)
}

func TestCloneIsolation(t *testing.T) {
	email := "a@b.c"
	original := &Ticket{
		ID:             "TKT-2025-ABCD1234",
		RequesterEmail: &email,
		Attachments:    []Attachment{{Name: "log.txt"}},
		Tags:           []string{"vpn"},
	}
	cp := original.Clone()

	*cp.RequesterEmail = "x@y.z"
	cp.Attachments[0].Name = "other.txt"
	cp.Tags[0] = "printer"

	assert.Equal(t, "a@b.c", *original.RequesterEmail)
	assert.Equal(t, "log.txt", original.Attachments[0].Name)
	assert.Equal(t, "vpn", original.Tags[0])
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, TicketStatusResolved.Terminal())
	assert.True(t, TicketStatusClosed.Terminal())
	assert.False(t, TicketStatusNew.Terminal())
	assert.False(t, TicketStatusInProgress.Terminal())
	assert.False(t, TicketStatusWaiting.Terminal())
}
