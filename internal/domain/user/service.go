package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"crm-server/internal/utils/idgen"
	"crm-server/internal/utils/platformerrors"
)

// ListResult is the paginated admin user list.
type ListResult struct {
	Users      []*User `json:"users"`
	Total      int64   `json:"total"`
	TotalPages int     `json:"total_pages"`
}

// CreateInput carries the admin-provided account details.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// UpdateInput carries optional account updates.
type UpdateInput struct {
	Name  *string
	Email *string
	Role  *Role
}

// Service implements admin account management.
type Service struct {
	repo       Repository
	validate   *validator.Validate
	bcryptCost int
	log        zerolog.Logger
}

func NewService(repo Repository, bcryptCost int, log zerolog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		validate:   validator.New(),
		bcryptCost: bcryptCost,
		log:        log.With().Str("component", "user-service").Logger(),
	}
}

// List returns users with pagination, active/banned filtering, and
// name/email search.
func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 || opts.PageSize > 100 {
		opts.PageSize = 20
	}
	if opts.Filter == "" {
		opts.Filter = FilterActive
	}

	users, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list users")
	}

	totalPages := int((total + int64(opts.PageSize) - 1) / int64(opts.PageSize))
	return &ListResult{Users: users, Total: total, TotalPages: totalPages}, nil
}

// Create registers a new intranet account with a bcrypt-hashed credential.
func (s *Service) Create(ctx context.Context, input CreateInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"correo electrónico inválido", err, "a5d83f12-7c04-4b9e-8261-f09e3c5a71d8")
	}
	if len(input.Password) < 8 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"la contraseña debe tener al menos 8 caracteres", nil, "3c91e670-5af2-48db-b1c4-86d20e7f5a39")
	}
	switch input.Role {
	case RoleAdmin, RoleSalesAgent, RoleUser:
	default:
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"rol inválido", nil, "94b7d2c5-1e83-4f06-a7d9-c50b82e14f67")
	}

	if existing, err := s.repo.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
			"ya existe un usuario con ese correo", nil, "6e250a9d-43cb-4871-9fd6-02ea71c8b354")
	} else if err != nil && !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to check existing user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to hash password")
	}

	id, err := idgen.GenerateSecureID("usr", 16)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate user id")
	}

	u := &User{
		ID:           id,
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		Role:         input.Role,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create user")
	}

	s.log.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("user created")
	return u, nil
}

// Update applies partial changes to an account.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "user not found")
	}

	if input.Name != nil {
		u.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		if err := s.validate.Var(*input.Email, "required,email"); err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				"correo electrónico inválido", err, "d1f6a803-92e5-4c7b-b0a4-35c8e96d217f")
		}
		u.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Role != nil {
		switch *input.Role {
		case RoleAdmin, RoleSalesAgent, RoleUser:
		default:
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				"rol inválido", nil, "b8e4f216-3a9d-4c85-9f1b-72d0c5a8e493")
		}
		u.Role = *input.Role
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update user")
	}
	return u, nil
}

// Ban blocks an account, optionally until an expiry. The expiry is
// normalized to UTC end-of-day so a ban "until the 15th" covers the whole
// day regardless of the admin's timezone.
func (s *Service) Ban(ctx context.Context, id string, reason string, expires *time.Time) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "user not found")
	}

	u.Banned = true
	if reason = strings.TrimSpace(reason); reason != "" {
		u.BanReason = &reason
	} else {
		u.BanReason = nil
	}
	if expires != nil {
		normalized := time.Date(expires.UTC().Year(), expires.UTC().Month(), expires.UTC().Day(),
			23, 59, 59, int(999*time.Millisecond), time.UTC)
		u.BanExpires = &normalized
	} else {
		u.BanExpires = nil
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to ban user")
	}

	s.log.Info().Str("user_id", u.ID).Msg("user banned")
	return u, nil
}

// Reactivate clears a ban.
func (s *Service) Reactivate(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "user not found")
	}

	u.Banned = false
	u.BanReason = nil
	u.BanExpires = nil

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to reactivate user")
	}

	s.log.Info().Str("user_id", u.ID).Msg("user reactivated")
	return u, nil
}

// VerifyCredentials authenticates an email/password pair, refusing banned
// accounts whose ban has not expired.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
			"credenciales inválidas", err, "0b84c6f9-27d1-4e35-a8b0-913f5da6c47e")
	}

	if u.ActiveBan(time.Now().UTC()) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
			"la cuenta está suspendida", nil, "47f2918a-c5e6-40db-9c73-b1a08d54e2f6")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
			"credenciales inválidas", err, "c26a7e50-d413-48f9-8b2e-60f5d17c93a4")
	}

	return u, nil
}
