package user

import (
	"context"
	"time"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSalesAgent Role = "sales_agent"
	RoleUser       Role = "user"
)

// User is an intranet account: an administrator or a sales agent. Accounts
// are created by administrators only; there is no self registration.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	PasswordHash string     `json:"-"`
	Banned       bool       `json:"banned"`
	BanReason    *string    `json:"ban_reason,omitempty"`
	BanExpires   *time.Time `json:"ban_expires,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ActiveBan reports whether the user currently has an effective ban. An
// expired ban no longer blocks authentication even if the flag was never
// cleared.
func (u *User) ActiveBan(now time.Time) bool {
	if !u.Banned {
		return false
	}
	if u.BanExpires != nil && now.After(*u.BanExpires) {
		return false
	}
	return true
}

// ListFilter selects active or banned accounts.
type ListFilter string

const (
	FilterActive ListFilter = "active"
	FilterBanned ListFilter = "banned"
)

// ListOptions carries pagination, filtering, and search for the admin list.
type ListOptions struct {
	Page     int
	PageSize int
	Filter   ListFilter
	Search   string
}

type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	List(ctx context.Context, opts ListOptions) ([]*User, int64, error)
}
