package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "booked"
	StatusCancelled AppointmentStatus = "cancelled"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID               uuid.UUID         `bun:"id,pk,type:uuid"`
	ClientID         uuid.UUID         `bun:"client_id,notnull,type:uuid"`
	ServiceID        uuid.UUID         `bun:"service_id,notnull,type:uuid"`
	ScheduledAt      time.Time         `bun:"scheduled_at,notnull"`
	Status           AppointmentStatus `bun:"status,notnull"`
	ExternalEventURI string            `bun:"external_event_uri,nullzero,unique"`
	CancellationURL  string            `bun:"cancellation_url,nullzero"`
	RescheduleURL    string            `bun:"reschedule_url,nullzero"`
	CreatedAt        time.Time         `bun:"created_at,notnull"`
	UpdatedAt        time.Time         `bun:"updated_at,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && a.Status == "" {
		a.Status = StatusBooked
	}
	return stamp(query, &a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// AppointmentDetail is an appointment plus the barber owning its service.
type AppointmentDetail struct {
	Appointment
	BarberID uuid.UUID
}

// AppointmentView is the listing shape: the service booked and the other
// party of the appointment (the barber for clients, the client for barbers).
type AppointmentView struct {
	ID              uuid.UUID
	ScheduledAt     time.Time
	Status          AppointmentStatus
	CancellationURL string
	RescheduleURL   string
	Service         ServiceSummary
	OtherUser       UserSummary
}

type ServiceSummary struct {
	ID         uuid.UUID
	Name       string
	PriceCents int64
}

type UserSummary struct {
	ID    uuid.UUID
	Name  string
	Email string
}
