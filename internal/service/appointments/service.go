// Package appointments serves user-initiated appointment actions: listing
// and provider-side cancellation.
package appointments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"barberbook/backend/internal/domain"
)

var ErrNoCancellationURL = errors.New("appointment has no cancellation url")

type repository interface {
	GetDetail(ctx context.Context, id uuid.UUID) (domain.AppointmentDetail, error)
	ListForClient(ctx context.Context, clientID uuid.UUID) ([]domain.AppointmentView, error)
	ListForBarber(ctx context.Context, barberID uuid.UUID) ([]domain.AppointmentView, error)
}

type tokenSource interface {
	EnsureValidToken(ctx context.Context, principalID uuid.UUID) (string, error)
}

type canceller interface {
	CancelInvitee(ctx context.Context, accessToken, cancellationURL string) error
}

type Service struct {
	repo     repository
	tokens   tokenSource
	provider canceller
	log      *slog.Logger
}

func NewService(repo repository, tokens tokenSource, provider canceller, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:     repo,
		tokens:   tokens,
		provider: provider,
		log:      log.With(slog.String("component", "appointments")),
	}
}

// RequestCancel asks the provider to cancel the booking on behalf of
// requester. Local status is not touched here: the provider's
// invitee.canceled webhook is what flips it.
func (s *Service) RequestCancel(ctx context.Context, requester domain.Principal, appointmentID uuid.UUID) error {
	if appointmentID == uuid.Nil {
		return domain.NewValidationError("appointment id is required")
	}
	log := s.log.With(
		slog.String("appointment_id", appointmentID.String()),
		slog.String("principal_id", requester.ID.String()),
	)

	appt, err := s.repo.GetDetail(ctx, appointmentID)
	if err != nil {
		return err
	}

	if err := AuthorizeCancel(requester, appt); err != nil {
		log.Warn("cancel denied", slog.String("role", string(requester.Role)))
		return err
	}

	if appt.CancellationURL == "" {
		return ErrNoCancellationURL
	}

	// The booking lives in the barber's provider account.
	token, err := s.tokens.EnsureValidToken(ctx, appt.BarberID)
	if err != nil {
		return err
	}

	if err := s.provider.CancelInvitee(ctx, token, appt.CancellationURL); err != nil {
		log.Warn("provider cancel failed", slog.Any("err", err))
		return fmt.Errorf("provider cancel: %w", err)
	}

	log.Info("cancel requested at provider")
	return nil
}

func (s *Service) ListForClient(ctx context.Context, requester domain.Principal, clientID uuid.UUID) ([]domain.AppointmentView, error) {
	if requester.Role != domain.RoleClient || requester.ID != clientID {
		return nil, ErrForbidden
	}
	return s.repo.ListForClient(ctx, clientID)
}

func (s *Service) ListForBarber(ctx context.Context, requester domain.Principal, barberID uuid.UUID) ([]domain.AppointmentView, error) {
	if requester.Role != domain.RoleBarber || requester.ID != barberID {
		return nil, ErrForbidden
	}
	return s.repo.ListForBarber(ctx, barberID)
}
