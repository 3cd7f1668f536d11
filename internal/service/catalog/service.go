// Package catalog manages the services barbers offer and the public barber
// directory.
package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"barberbook/backend/internal/domain"
	"barberbook/backend/internal/store"
)

type serviceRepository interface {
	Create(ctx context.Context, svc domain.Service) (domain.Service, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Service, error)
	List(ctx context.Context) ([]domain.Service, error)
	ListByBarbers(ctx context.Context, barberIDs []uuid.UUID) ([]domain.Service, error)
	Update(ctx context.Context, svc domain.Service) (domain.Service, error)
	Delete(ctx context.Context, barberID, id uuid.UUID) error
}

type barberDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	ListBarbers(ctx context.Context) ([]domain.User, error)
}

type Service struct {
	services serviceRepository
	users    barberDirectory
	log      *slog.Logger
}

func NewService(services serviceRepository, users barberDirectory, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		services: services,
		users:    users,
		log:      log.With(slog.String("component", "catalog")),
	}
}

type ServiceInput struct {
	Name         string
	PriceCents   int64
	EventType    string
	EventTypeURI string
}

func (in ServiceInput) validate() (ServiceInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.EventType = strings.TrimSpace(in.EventType)
	in.EventTypeURI = strings.TrimSpace(in.EventTypeURI)
	if in.Name == "" {
		return in, domain.NewValidationError("name is required")
	}
	if in.PriceCents < 0 {
		return in, domain.NewValidationError("price_cents must not be negative")
	}
	return in, nil
}

func (s *Service) Create(ctx context.Context, requester domain.Principal, in ServiceInput) (domain.Service, error) {
	if requester.Role != domain.RoleBarber {
		return domain.Service{}, domain.ErrForbidden
	}
	in, err := in.validate()
	if err != nil {
		return domain.Service{}, err
	}

	svc, err := s.services.Create(ctx, domain.Service{
		BarberID:     requester.ID,
		Name:         in.Name,
		PriceCents:   in.PriceCents,
		EventType:    in.EventType,
		EventTypeURI: in.EventTypeURI,
	})
	if err != nil {
		return domain.Service{}, err
	}
	s.log.Info("service created", slog.String("service_id", svc.ID.String()), slog.String("barber_id", requester.ID.String()))
	return svc, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Service, error) {
	return s.services.List(ctx)
}

// Get returns a service to its owning barber only.
func (s *Service) Get(ctx context.Context, requester domain.Principal, id uuid.UUID) (domain.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return domain.Service{}, err
	}
	if requester.Role != domain.RoleBarber || svc.BarberID != requester.ID {
		return domain.Service{}, domain.ErrForbidden
	}
	return svc, nil
}

func (s *Service) Update(ctx context.Context, requester domain.Principal, id uuid.UUID, in ServiceInput) (domain.Service, error) {
	if _, err := s.Get(ctx, requester, id); err != nil {
		return domain.Service{}, err
	}
	in, err := in.validate()
	if err != nil {
		return domain.Service{}, err
	}
	return s.services.Update(ctx, domain.Service{
		ID:           id,
		BarberID:     requester.ID,
		Name:         in.Name,
		PriceCents:   in.PriceCents,
		EventType:    in.EventType,
		EventTypeURI: in.EventTypeURI,
	})
}

func (s *Service) Delete(ctx context.Context, requester domain.Principal, id uuid.UUID) error {
	if _, err := s.Get(ctx, requester, id); err != nil {
		return err
	}
	if err := s.services.Delete(ctx, requester.ID, id); err != nil {
		return err
	}
	s.log.Info("service deleted", slog.String("service_id", id.String()), slog.String("barber_id", requester.ID.String()))
	return nil
}

func (s *Service) ListForBarber(ctx context.Context, requester domain.Principal, barberID uuid.UUID) ([]domain.Service, error) {
	if requester.Role != domain.RoleBarber || requester.ID != barberID {
		return nil, domain.ErrForbidden
	}
	return s.services.ListByBarbers(ctx, []uuid.UUID{barberID})
}

func (s *Service) ListBarbers(ctx context.Context) ([]domain.Barber, error) {
	users, err := s.users.ListBarbers(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	services, err := s.services.ListByBarbers(ctx, ids)
	if err != nil {
		return nil, err
	}

	byBarber := make(map[uuid.UUID][]domain.Service, len(users))
	for _, svc := range services {
		byBarber[svc.BarberID] = append(byBarber[svc.BarberID], svc)
	}

	out := make([]domain.Barber, 0, len(users))
	for _, u := range users {
		out = append(out, toBarber(u, byBarber[u.ID]))
	}
	return out, nil
}

func (s *Service) GetBarber(ctx context.Context, id uuid.UUID) (domain.Barber, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.Barber{}, err
	}
	if u.Role != domain.RoleBarber {
		return domain.Barber{}, store.ErrNotFound
	}
	services, err := s.services.ListByBarbers(ctx, []uuid.UUID{id})
	if err != nil {
		return domain.Barber{}, err
	}
	return toBarber(u, services), nil
}

func toBarber(u domain.User, services []domain.Service) domain.Barber {
	if services == nil {
		services = []domain.Service{}
	}
	return domain.Barber{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		CalendlyLink: u.CalendlyLink,
		Services:     services,
	}
}
