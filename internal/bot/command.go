package bot

import "strings"

// Command is the tagged-variant result of parsing an inbound chat message.
// Unknown input is a checked case, not a fallthrough.
type Command interface {
	isCommand()
}

// Start requests the help text and the conversation's own identifier.
type Start struct{}

// Link ties the conversation to a requester email.
type Link struct {
	Email string
}

// ShowTicket requests one ticket's detail.
type ShowTicket struct {
	ID string
}

// UpdateTicket patches a ticket's status, optionally adding a note.
type UpdateTicket struct {
	ID     string
	Status string
	Notes  string
}

// NewTicket creates a ticket from pipe-delimited fields. Optional trailing
// fields carry defaults.
type NewTicket struct {
	Subject     string
	Description string
	Priority    string
	Impact      string
	Email       string
	Name        string
	Whatsapp    string
}

// MyTickets lists recent tickets for the conversation's linked email.
type MyTickets struct{}

// Find searches tickets by free text.
type Find struct {
	Query string
}

// Usage signals missing or malformed required arguments; the reply is a
// usage reminder and no state is mutated.
type Usage struct {
	Text string
}

// Unknown is any message that matches no command keyword.
type Unknown struct {
	Text string
}

func (Start) isCommand()        {}
func (Link) isCommand()         {}
func (ShowTicket) isCommand()   {}
func (UpdateTicket) isCommand() {}
func (NewTicket) isCommand()    {}
func (MyTickets) isCommand()    {}
func (Find) isCommand()         {}
func (Usage) isCommand()        {}
func (Unknown) isCommand()      {}

const (
	usageLink      = "Usage: /link email@domain.com"
	usageTicket    = "Usage: /ticket TKT-XXXX"
	usageUpdate    = "Usage: /update ID | Status | [notes]"
	usageNewTicket = "Usage: /newticket Subject | Description | [Priority] | [Impact] | [Email] | [Name] | [WA]"
	usageFind      = "Usage: /find text"

	defaultPriority = "Medium"
	defaultImpact   = "Moderate"
	defaultEmail    = "user@example.com"
	defaultName     = "Telegram User"
	defaultWhatsapp = "6280000000000"
)

// Parse recognizes a command by its leading keyword. Pipe-style arguments
// are split on | and trimmed. Malformed input degrades to Usage or Unknown;
// Parse never fails.
func Parse(text string) Command {
	trimmed := strings.TrimSpace(text)
	keyword, args := splitKeyword(trimmed)

	switch strings.ToLower(keyword) {
	case "/start":
		return Start{}
	case "/link":
		if args == "" {
			return Usage{Text: usageLink}
		}
		return Link{Email: strings.ToLower(args)}
	case "/ticket":
		if args == "" {
			return Usage{Text: usageTicket}
		}
		return ShowTicket{ID: args}
	case "/update":
		parts := splitPipe(args)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return Usage{Text: usageUpdate}
		}
		cmd := UpdateTicket{ID: parts[0], Status: parts[1]}
		if len(parts) > 2 {
			cmd.Notes = parts[2]
		}
		return cmd
	case "/newticket":
		parts := splitPipe(args)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return Usage{Text: usageNewTicket}
		}
		cmd := NewTicket{
			Subject:     parts[0],
			Description: parts[1],
			Priority:    fieldOrDefault(parts, 2, defaultPriority),
			Impact:      fieldOrDefault(parts, 3, defaultImpact),
			Email:       fieldOrDefault(parts, 4, defaultEmail),
			Name:        fieldOrDefault(parts, 5, defaultName),
			Whatsapp:    fieldOrDefault(parts, 6, defaultWhatsapp),
		}
		return cmd
	case "/mytickets":
		return MyTickets{}
	case "/find":
		if args == "" {
			return Usage{Text: usageFind}
		}
		return Find{Query: args}
	default:
		return Unknown{Text: trimmed}
	}
}

func splitKeyword(text string) (keyword, args string) {
	if text == "" {
		return "", ""
	}
	idx := strings.IndexAny(text, " \t\n")
	if idx < 0 {
		return text, ""
	}
	return text[:idx], strings.TrimSpace(text[idx:])
}

func splitPipe(args string) []string {
	if args == "" {
		return nil
	}
	parts := strings.Split(args, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func fieldOrDefault(parts []string, idx int, fallback string) string {
	if idx < len(parts) && parts[idx] != "" {
		return parts[idx]
	}
	return fallback
}
