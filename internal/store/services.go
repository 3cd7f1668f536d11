package store

import (
	"context"

	"github.com/google/uuid"

	"barberbook/backend/internal/domain"
)

type ServiceRepository interface {
	Create(ctx context.Context, svc domain.Service) (domain.Service, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Service, error)
	FindByEventTypeURI(ctx context.Context, uri string) (domain.Service, error)
	List(ctx context.Context) ([]domain.Service, error)
	ListByBarbers(ctx context.Context, barberIDs []uuid.UUID) ([]domain.Service, error)
	// Update and Delete only touch rows owned by svc.BarberID / barberID.
	Update(ctx context.Context, svc domain.Service) (domain.Service, error)
	Delete(ctx context.Context, barberID, id uuid.UUID) error
}
