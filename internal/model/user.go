package model

import "time"

// Role is the authorization role carried in access tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleOwner || r == RoleAdmin
}

// User represents an application account as stored in the `users`
// table.  The password hash never leaves the repository and handler
// layers; responses use dedicated DTOs.
//
// Email is unique and stored lower-cased; PasswordHash is a bcrypt hash.
type User struct {
	ID           string    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
