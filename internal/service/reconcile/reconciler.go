// Package reconcile applies verified provider webhook events to local
// appointment state. Every mutation is keyed by the provider's event URI so
// redelivered events are harmless.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"barberbook/backend/internal/domain"
	"barberbook/backend/internal/store"
	"barberbook/backend/internal/webhook"
)

var ErrUnknownService = errors.New("unknown service for event type")

type Outcome string

const (
	OutcomeCreated     Outcome = "created"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeCancelled   Outcome = "cancelled"
	OutcomeNotModified Outcome = "not_modified"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeIgnored     Outcome = "ignored"
)

type Result struct {
	Outcome     Outcome
	Appointment *domain.Appointment
}

type serviceLookup interface {
	FindByEventTypeURI(ctx context.Context, uri string) (domain.Service, error)
}

type clientUpserter interface {
	UpsertClientByEmail(ctx context.Context, email, name string) (domain.User, error)
}

type appointmentWriter interface {
	CreateFromWebhook(ctx context.Context, appt domain.Appointment) (domain.Appointment, bool, error)
	CancelByExternalURI(ctx context.Context, uri string) (domain.Appointment, bool, error)
}

type Reconciler struct {
	services     serviceLookup
	clients      clientUpserter
	appointments appointmentWriter
	log          *slog.Logger
}

func NewReconciler(services serviceLookup, clients clientUpserter, appointments appointmentWriter, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{
		services:     services,
		clients:      clients,
		appointments: appointments,
		log:          log.With(slog.String("component", "reconcile")),
	}
}

func (r *Reconciler) Handle(ctx context.Context, ev webhook.Event) (Result, error) {
	switch e := ev.(type) {
	case webhook.InviteeCreated:
		return r.created(ctx, e)
	case webhook.InviteeCanceled:
		return r.canceled(ctx, e)
	default:
		r.log.Info("webhook event ignored", slog.String("event", ev.Kind()))
		return Result{Outcome: OutcomeIgnored}, nil
	}
}

func (r *Reconciler) created(ctx context.Context, e webhook.InviteeCreated) (Result, error) {
	log := r.log.With(slog.String("event", e.Kind()), slog.String("event_uri", e.URI))

	svc, err := r.services.FindByEventTypeURI(ctx, e.EventTypeURI)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("webhook for unknown service", slog.String("event_type_uri", e.EventTypeURI))
			return Result{}, fmt.Errorf("%w: %s", ErrUnknownService, e.EventTypeURI)
		}
		return Result{}, fmt.Errorf("find service: %w", err)
	}

	client, err := r.clients.UpsertClientByEmail(ctx, e.Email, e.Name)
	if errors.Is(err, store.ErrConflict) {
		// The invitee email belongs to a barber, who cannot be a client.
		log.Warn("webhook invitee is not a client", slog.String("service_id", svc.ID.String()))
		return Result{Outcome: OutcomeIgnored}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("upsert client: %w", err)
	}

	appt, created, err := r.appointments.CreateFromWebhook(ctx, domain.Appointment{
		ClientID:         client.ID,
		ServiceID:        svc.ID,
		ScheduledAt:      e.StartTime,
		Status:           domain.StatusBooked,
		ExternalEventURI: e.URI,
		CancellationURL:  e.CancelURL,
		RescheduleURL:    e.RescheduleURL,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create appointment: %w", err)
	}

	if !created {
		log.Info("duplicate webhook delivery", slog.String("appointment_id", appt.ID.String()))
		return Result{Outcome: OutcomeDuplicate, Appointment: &appt}, nil
	}
	log.Info(
		"appointment booked",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("service_id", svc.ID.String()),
		slog.Time("scheduled_at", appt.ScheduledAt),
	)
	return Result{Outcome: OutcomeCreated, Appointment: &appt}, nil
}

func (r *Reconciler) canceled(ctx context.Context, e webhook.InviteeCanceled) (Result, error) {
	log := r.log.With(slog.String("event", e.Kind()), slog.String("event_uri", e.URI))

	appt, changed, err := r.appointments.CancelByExternalURI(ctx, e.URI)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("cancel for unknown appointment")
			return Result{Outcome: OutcomeNotFound}, nil
		}
		return Result{}, fmt.Errorf("cancel appointment: %w", err)
	}

	if !changed {
		log.Info("appointment already cancelled", slog.String("appointment_id", appt.ID.String()))
		return Result{Outcome: OutcomeNotModified, Appointment: &appt}, nil
	}
	log.Info("appointment cancelled", slog.String("appointment_id", appt.ID.String()))
	return Result{Outcome: OutcomeCancelled, Appointment: &appt}, nil
}
