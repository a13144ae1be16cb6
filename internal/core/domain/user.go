package domain

import (
	"strings"
	"time"
)

// User models a directory record. PasswordHash always holds a hasher output.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Username     string
	Email        string
	PasswordHash string
	Phone        string
	Address      string
	Role         Role
	CreatedAt    time.Time
}

// PublicUser is the view of a User that is safe to return to clients.
// It has no password field at all.
type PublicUser struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstname"`
	LastName  string    `json:"lastname"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Public returns the client-safe projection of u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// NormalizeEmail returns the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
