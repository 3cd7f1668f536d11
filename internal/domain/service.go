package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Service is a bookable offering of one barber. EventTypeURI is the
// provider identifier used to route inbound bookings.
type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	BarberID     uuid.UUID `bun:"barber_id,notnull,type:uuid"`
	Name         string    `bun:"name,notnull"`
	PriceCents   int64     `bun:"price_cents,notnull"`
	EventType    string    `bun:"event_type,nullzero"`
	EventTypeURI string    `bun:"event_type_uri,nullzero,unique"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func (s *Service) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stamp(query, &s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// Barber is a barber profile together with the services they offer.
type Barber struct {
	ID           uuid.UUID
	Name         string
	Email        string
	CalendlyLink string
	Services     []Service
}
