package domain

// UserRole labels what a user may do.
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleAgent UserRole = "agent"
)

// User is an agent or administrator who signs in to work tickets.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         UserRole
}
