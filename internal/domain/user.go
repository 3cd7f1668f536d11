package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Role string

const (
	RoleBarber Role = "barber"
	RoleClient Role = "client"
)

func (r Role) Valid() bool {
	return r == RoleBarber || r == RoleClient
}

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID             uuid.UUID  `bun:"id,pk,type:uuid"`
	Name           string     `bun:"name,notnull"`
	Email          string     `bun:"email,notnull,unique"`
	PasswordHash   string     `bun:"password_hash,notnull"`
	Role           Role       `bun:"role,notnull"`
	CalendlyLink   string     `bun:"calendly_link,nullzero"`
	AccessToken    string     `bun:"access_token,nullzero"`
	RefreshToken   string     `bun:"refresh_token,nullzero"`
	TokenExpiresAt *time.Time `bun:"token_expires_at"`
	CreatedAt      time.Time  `bun:"created_at,notnull"`
	UpdatedAt      time.Time  `bun:"updated_at,notnull"`
}

func (u *User) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stamp(query, &u.ID, &u.CreatedAt, &u.UpdatedAt)
}

// Credential returns the stored provider credential. ok is false when the
// user never completed the provider connect flow.
func (u User) Credential() (Credential, bool) {
	if u.RefreshToken == "" {
		return Credential{}, false
	}
	return Credential{
		AccessToken:  u.AccessToken,
		RefreshToken: u.RefreshToken,
		ExpiresAt:    u.TokenExpiresAt,
	}, true
}

func (u User) Principal() Principal {
	return Principal{ID: u.ID, Role: u.Role}
}

// Principal is the authenticated caller of an API action.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

// Credential is the OAuth token triple kept per principal. All three fields
// are always written together.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// NeedsRefresh reports whether the access token must not be used for an
// outbound call anymore: the expiry is unknown or falls within buffer of now.
func (c Credential) NeedsRefresh(now time.Time, buffer time.Duration) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return !now.Before(c.ExpiresAt.Add(-buffer))
}
