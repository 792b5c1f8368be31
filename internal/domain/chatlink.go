package domain

// ChatLink maps a chat conversation to a requester email.
// Relinking a conversation overwrites the previous email.
type ChatLink struct {
	ConversationID string
	Email          string
}
