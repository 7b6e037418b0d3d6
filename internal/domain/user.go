package domain

import "time"

// User is a registered citizen or staff account. Records are never mutated after creation.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// UserProjection is the identity echoed back to clients after login.
type UserProjection struct {
	ID      string
	Email   string
	IsAdmin bool
}

// Projection strips credentials from the user.
func (u *User) Projection() UserProjection {
	return UserProjection{ID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin}
}
