// Package tokens keeps provider access tokens usable: it refreshes them
// shortly before expiry and persists the rotated credential.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"barberbook/backend/internal/domain"
	"barberbook/backend/internal/store"
)

// RefreshBuffer is how long before expiry a token stops being handed out.
const RefreshBuffer = 60 * time.Second

// refreshTimeout bounds a shared refresh, which outlives any single caller.
const refreshTimeout = 30 * time.Second

var ErrNotConnected = errors.New("provider integration not connected")

// RefreshError reports that the provider rejected the refresh exchange. The
// stored credential is left as it was.
type RefreshError struct {
	PrincipalID uuid.UUID
	Err         error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh provider token for %s: %v", e.PrincipalID, e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// Grant is what the provider token endpoint hands back.
type Grant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

type Exchanger interface {
	Refresh(ctx context.Context, refreshToken string) (Grant, error)
	ExchangeCode(ctx context.Context, code string) (Grant, error)
}

type Manager struct {
	store     store.CredentialStore
	exchanger Exchanger
	now       func() time.Time
	log       *slog.Logger

	group singleflight.Group
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(credentials store.CredentialStore, exchanger Exchanger, log *slog.Logger, opts ...Option) *Manager {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		store:     credentials,
		exchanger: exchanger,
		now:       time.Now,
		log:       log.With(slog.String("component", "tokens")),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureValidToken returns an access token that stays valid for at least
// RefreshBuffer, refreshing and persisting a new credential when needed.
// Concurrent callers for the same principal share one refresh.
func (m *Manager) EnsureValidToken(ctx context.Context, principalID uuid.UUID) (string, error) {
	cred, ok, err := m.store.GetCredential(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotConnected
		}
		return "", fmt.Errorf("load credential: %w", err)
	}
	if !ok {
		return "", ErrNotConnected
	}
	if !cred.NeedsRefresh(m.now(), RefreshBuffer) {
		return cred.AccessToken, nil
	}

	// The flight is shared, so it must not die with the caller that started it.
	flightCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(principalID.String(), func() (any, error) {
		rctx, cancel := context.WithTimeout(flightCtx, refreshTimeout)
		defer cancel()
		return m.refresh(rctx, principalID, cred)
	})
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("wait for token refresh: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (m *Manager) refresh(ctx context.Context, principalID uuid.UUID, cred domain.Credential) (string, error) {
	log := m.log.With(slog.String("principal_id", principalID.String()))

	grant, err := m.exchanger.Refresh(ctx, cred.RefreshToken)
	if err != nil && ctx.Err() != nil {
		// Timed out talking to the provider; retryable, not a rejection.
		log.Warn("token refresh timed out", slog.Any("err", err))
		return "", fmt.Errorf("refresh provider token: %w", err)
	}
	if err != nil {
		log.Warn("token refresh rejected", slog.Any("err", err))
		return "", &RefreshError{PrincipalID: principalID, Err: err}
	}
	if grant.AccessToken == "" {
		log.Warn("token refresh returned no access token")
		return "", &RefreshError{PrincipalID: principalID, Err: errors.New("empty access token")}
	}
	if grant.RefreshToken == "" {
		grant.RefreshToken = cred.RefreshToken
	}

	next := m.credentialFrom(grant)
	if err := m.store.UpdateCredential(ctx, principalID, next); err != nil {
		log.Error("persist refreshed token failed", slog.Any("err", err))
		return "", fmt.Errorf("persist refreshed credential: %w", err)
	}

	log.Info("token refreshed", expiryAttr(next))
	return next.AccessToken, nil
}

// Connect completes the authorization-code grant and stores the resulting
// credential for principalID.
func (m *Manager) Connect(ctx context.Context, principalID uuid.UUID, code string) error {
	grant, err := m.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	if grant.AccessToken == "" || grant.RefreshToken == "" {
		return errors.New("exchange authorization code: incomplete token response")
	}

	cred := m.credentialFrom(grant)
	if err := m.store.UpdateCredential(ctx, principalID, cred); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	m.log.Info("provider connected", slog.String("principal_id", principalID.String()), expiryAttr(cred))
	return nil
}

// Verify reports whether a usable access token can be produced right now.
func (m *Manager) Verify(ctx context.Context, principalID uuid.UUID) bool {
	_, err := m.EnsureValidToken(ctx, principalID)
	return err == nil
}

func (m *Manager) credentialFrom(g Grant) domain.Credential {
	cred := domain.Credential{
		AccessToken:  g.AccessToken,
		RefreshToken: g.RefreshToken,
	}
	if g.ExpiresIn > 0 {
		exp := m.now().Add(g.ExpiresIn).UTC()
		cred.ExpiresAt = &exp
	}
	return cred
}

func expiryAttr(c domain.Credential) slog.Attr {
	if c.ExpiresAt == nil {
		return slog.String("expires_at", "unknown")
	}
	return slog.Time("expires_at", *c.ExpiresAt)
}

// IsNotConnected reports whether err means the principal has to (re)connect
// the provider before provider-backed actions can run.
func IsNotConnected(err error) bool {
	var refreshErr *RefreshError
	return errors.Is(err, ErrNotConnected) || errors.As(err, &refreshErr)
}
