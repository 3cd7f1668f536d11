package store

import (
	"context"

	"github.com/google/uuid"

	"barberbook/backend/internal/domain"
)

// CredentialStore persists the provider credential of a principal.
type CredentialStore interface {
	// GetCredential returns ok=false when the principal exists but never
	// connected the provider, and ErrNotFound when the principal is unknown.
	GetCredential(ctx context.Context, userID uuid.UUID) (cred domain.Credential, ok bool, err error)
	// UpdateCredential writes access token, refresh token and expiry in a
	// single statement.
	UpdateCredential(ctx context.Context, userID uuid.UUID, cred domain.Credential) error
}

type UserRepository interface {
	CredentialStore

	Create(ctx context.Context, u domain.User) (domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	UpsertClientByEmail(ctx context.Context, email, name string) (domain.User, error)
	UpdateCalendlyLink(ctx context.Context, id uuid.UUID, link string) (domain.User, error)
	ListBarbers(ctx context.Context) ([]domain.User, error)
}
