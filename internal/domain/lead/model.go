package lead

import (
	"context"
	"time"
)

// Lead is an unauthenticated prospective customer. The ID is the opaque
// token the visitor's browser holds across sessions; it is durable once the
// lead is persisted. Email is unique and drives identity reconciliation.
type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	LastSeen  time.Time `json:"last_seen"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repository interface {
	FindByID(ctx context.Context, id string) (*Lead, error)
	FindByEmail(ctx context.Context, email string) (*Lead, error)
	// Upsert creates the lead if absent, otherwise updates contact details
	// and last seen.
	Upsert(ctx context.Context, l *Lead) error
	TouchLastSeen(ctx context.Context, id string, at time.Time) error
}
