package sla

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Deadlines holds the derived service-level targets for a ticket.
type Deadlines struct {
	ResponseHours   int
	ResolutionHours int
	DueResponseAt   time.Time
	DueResolutionAt time.Time
}

type hoursPair struct {
	response   int
	resolution int
}

// matrix mirrors the production policy table. Impact is accepted as an input
// but every impact row carries the same hours; the lookup is effectively by
// priority only. That is observed behavior, kept as-is for compatibility.
var matrix = map[domain.TicketPriority]map[domain.TicketImpact]hoursPair{
	domain.TicketPriorityLow: {
		domain.TicketImpactMinor:    {8, 72},
		domain.TicketImpactModerate: {8, 72},
		domain.TicketImpactMajor:    {8, 72},
	},
	domain.TicketPriorityMedium: {
		domain.TicketImpactMinor:    {4, 48},
		domain.TicketImpactModerate: {4, 48},
		domain.TicketImpactMajor:    {4, 48},
	},
	domain.TicketPriorityHigh: {
		domain.TicketImpactMinor:    {2, 24},
		domain.TicketImpactModerate: {2, 24},
		domain.TicketImpactMajor:    {2, 24},
	},
	domain.TicketPriorityCritical: {
		domain.TicketImpactMinor:    {1, 8},
		domain.TicketImpactModerate: {1, 8},
		domain.TicketImpactMajor:    {1, 8},
	},
}

// Compute derives SLA deadlines from the policy table relative to now.
// Unknown priority or impact values fall back to the Medium/Moderate row.
func Compute(now time.Time, priority domain.TicketPriority, impact domain.TicketImpact) Deadlines {
	row, ok := matrix[priority]
	if !ok {
		row = matrix[domain.TicketPriorityMedium]
	}
	hours, ok := row[impact]
	if !ok {
		hours = row[domain.TicketImpactModerate]
	}
	return Deadlines{
		ResponseHours:   hours.response,
		ResolutionHours: hours.resolution,
		DueResponseAt:   now.Add(time.Duration(hours.response) * time.Hour),
		DueResolutionAt: now.Add(time.Duration(hours.resolution) * time.Hour),
	}
}
