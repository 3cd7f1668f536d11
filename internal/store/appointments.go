package store

import (
	"context"

	"github.com/google/uuid"

	"barberbook/backend/internal/domain"
)

type AppointmentRepository interface {
	// CreateFromWebhook inserts appt keyed by its ExternalEventURI. When a row
	// with that URI already exists nothing is written, the stored row is
	// returned and created is false.
	CreateFromWebhook(ctx context.Context, appt domain.Appointment) (out domain.Appointment, created bool, err error)
	// CancelByExternalURI moves a booked appointment to cancelled. changed is
	// false when it was already cancelled; ErrNotFound when no row matches.
	CancelByExternalURI(ctx context.Context, uri string) (out domain.Appointment, changed bool, err error)

	GetDetail(ctx context.Context, id uuid.UUID) (domain.AppointmentDetail, error)
	ListForClient(ctx context.Context, clientID uuid.UUID) ([]domain.AppointmentView, error)
	ListForBarber(ctx context.Context, barberID uuid.UUID) ([]domain.AppointmentView, error)
}
