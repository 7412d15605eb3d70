package models

import (
	"time"

	"github.com/takdim/inven-go/pkg/roles"
)

type User struct {
	ID           int        `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	FullName     string     `json:"full_name" db:"full_name"`
	Email        *string    `json:"email,omitempty" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         roles.Role `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

func (u *User) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   u.ID,
		ResourceType: "user",
	}
}

// UserChanges holds the optional columns of a user update.
type UserChanges struct {
	FullName     *string
	Email        *string
	Role         *roles.Role
	IsActive     *bool
	PasswordHash *string
}

func (c *UserChanges) HasChanges() bool {
	return c.FullName != nil || c.Email != nil || c.Role != nil || c.IsActive != nil || c.PasswordHash != nil
}
