package models

// Role controls which parts of the app a user may reach.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// User represents a registered account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Name is the display name of the user.
	Name string

	// Email is the user's email address (unique). Used for login.
	Email string

	// Role decides admin vs. employee access.
	Role Role

	// PasswordHash is the bcrypt hash of the login password.
	// Never serialized to clients.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64
}

// NewUser builds a user with the given identity and hashed credential.
// ID and CreatedAt are assigned by the store on first save.
func NewUser(email, name, passwordHash string, role Role) *User {
	if role == "" {
		role = RoleEmployee
	}
	return &User{
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: passwordHash,
	}
}
