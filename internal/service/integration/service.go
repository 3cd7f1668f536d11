// Package integration drives the provider account lifecycle of a barber:
// the OAuth connect round trip, webhook subscription and event type lookup.
package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"barberbook/backend/internal/calendly"
	"barberbook/backend/internal/domain"
	"barberbook/backend/internal/webhook"
)

var ErrInvalidState = errors.New("invalid connect state")

type authorizer interface {
	AuthCodeURL(state string) string
}

type stateCodec interface {
	MakeState(userID uuid.UUID) (string, error)
	ParseState(raw string) (uuid.UUID, error)
}

type tokenManager interface {
	Connect(ctx context.Context, principalID uuid.UUID, code string) error
	EnsureValidToken(ctx context.Context, principalID uuid.UUID) (string, error)
	Verify(ctx context.Context, principalID uuid.UUID) bool
}

type providerAPI interface {
	CurrentUser(ctx context.Context, accessToken string) (calendly.User, error)
	ListEventTypes(ctx context.Context, accessToken, userURI string) ([]calendly.EventType, error)
	CreateWebhookSubscription(ctx context.Context, accessToken string, sub calendly.WebhookSubscription) error
}

type Config struct {
	// WebhookURL is where the provider should deliver invitee events. Empty
	// skips the subscription step.
	WebhookURL string
	// SigningKey is handed to the provider so deliveries carry a signature the
	// webhook verifier accepts.
	SigningKey string
}

type Service struct {
	oauth    authorizer
	states   stateCodec
	tokens   tokenManager
	provider providerAPI
	cfg      Config
	log      *slog.Logger
}

func NewService(oauth authorizer, states stateCodec, tokens tokenManager, provider providerAPI, cfg Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		oauth:    oauth,
		states:   states,
		tokens:   tokens,
		provider: provider,
		cfg:      cfg,
		log:      log.With(slog.String("component", "integration")),
	}
}

func (s *Service) ConnectURL(requester domain.Principal) (string, error) {
	if requester.Role != domain.RoleBarber {
		return "", domain.ErrForbidden
	}
	state, err := s.states.MakeState(requester.ID)
	if err != nil {
		return "", err
	}
	return s.oauth.AuthCodeURL(state), nil
}

// CompleteConnect stores the credential for the user bound in state and
// subscribes the account's organization to invitee events. A failed
// subscription is logged and does not undo the connection.
func (s *Service) CompleteConnect(ctx context.Context, code, state string) (uuid.UUID, error) {
	if code == "" {
		return uuid.Nil, domain.NewValidationError("code is required")
	}
	userID, err := s.states.ParseState(state)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if err := s.tokens.Connect(ctx, userID, code); err != nil {
		return uuid.Nil, err
	}

	if s.cfg.WebhookURL != "" {
		if err := s.subscribe(ctx, userID); err != nil {
			s.log.Warn("webhook subscription failed", slog.String("user_id", userID.String()), slog.Any("err", err))
		}
	}
	return userID, nil
}

func (s *Service) subscribe(ctx context.Context, userID uuid.UUID) error {
	token, err := s.tokens.EnsureValidToken(ctx, userID)
	if err != nil {
		return err
	}
	me, err := s.provider.CurrentUser(ctx, token)
	if err != nil {
		return fmt.Errorf("current user: %w", err)
	}
	err = s.provider.CreateWebhookSubscription(ctx, token, calendly.WebhookSubscription{
		URL:          s.cfg.WebhookURL,
		Events:       []string{webhook.KindInviteeCreated, webhook.KindInviteeCanceled},
		Organization: me.CurrentOrganization,
		Scope:        "organization",
		SigningKey:   s.cfg.SigningKey,
	})
	if err != nil {
		return fmt.Errorf("create webhook subscription: %w", err)
	}
	s.log.Info("webhook subscription created", slog.String("user_id", userID.String()), slog.String("organization", me.CurrentOrganization))
	return nil
}

func (s *Service) EventTypes(ctx context.Context, requester domain.Principal) ([]calendly.EventType, error) {
	if requester.Role != domain.RoleBarber {
		return nil, domain.ErrForbidden
	}
	token, err := s.tokens.EnsureValidToken(ctx, requester.ID)
	if err != nil {
		return nil, err
	}
	me, err := s.provider.CurrentUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return s.provider.ListEventTypes(ctx, token, me.URI)
}

func (s *Service) Verify(ctx context.Context, requester domain.Principal) bool {
	return s.tokens.Verify(ctx, requester.ID)
}
