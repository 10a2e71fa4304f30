package requests

import "time"

// LoginRequest authenticates an intranet account.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateUserRequest registers a new account. Admin only.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// UpdateUserRequest applies partial account changes. Admin only.
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// BanUserRequest blocks an account, optionally until an expiry date.
type BanUserRequest struct {
	Reason  string     `json:"reason"`
	Expires *time.Time `json:"expires"`
}
