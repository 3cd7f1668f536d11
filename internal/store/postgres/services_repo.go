package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"barberbook/backend/internal/domain"
	"barberbook/backend/internal/store"
)

var _ store.ServiceRepository = (*ServiceRepo)(nil)

type ServiceRepo struct {
	db bun.IDB
}

func NewServiceRepo(db bun.IDB) *ServiceRepo {
	return &ServiceRepo{db: db}
}

func (r *ServiceRepo) Create(ctx context.Context, svc domain.Service) (domain.Service, error) {
	if _, err := r.db.NewInsert().Model(&svc).Exec(ctx); err != nil {
		return domain.Service{}, mapError(err)
	}
	return svc, nil
}

func (r *ServiceRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	var s domain.Service
	err := r.db.NewSelect().
		Model(&s).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Service{}, mapError(err)
	}
	return s, nil
}

func (r *ServiceRepo) FindByEventTypeURI(ctx context.Context, uri string) (domain.Service, error) {
	var s domain.Service
	err := r.db.NewSelect().
		Model(&s).
		Where("event_type_uri = ?", uri).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Service{}, mapError(err)
	}
	return s, nil
}

func (r *ServiceRepo) List(ctx context.Context) ([]domain.Service, error) {
	var rows []domain.Service
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ServiceRepo) ListByBarbers(ctx context.Context, barberIDs []uuid.UUID) ([]domain.Service, error) {
	if len(barberIDs) == 0 {
		return nil, nil
	}
	var rows []domain.Service
	err := r.db.NewSelect().
		Model(&rows).
		Where("barber_id IN (?)", bun.In(barberIDs)).
		OrderExpr("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ServiceRepo) Update(ctx context.Context, svc domain.Service) (domain.Service, error) {
	var out domain.Service
	err := r.db.NewUpdate().
		Model(&out).
		Set("name = ?", svc.Name).
		Set("price_cents = ?", svc.PriceCents).
		Set("event_type = ?", nullIfEmpty(svc.EventType)).
		Set("event_type_uri = ?", nullIfEmpty(svc.EventTypeURI)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", svc.ID).
		Where("barber_id = ?", svc.BarberID).
		Returning("*").
		Scan(ctx)
	if err != nil {
		return domain.Service{}, mapError(err)
	}
	return out, nil
}

func (r *ServiceRepo) Delete(ctx context.Context, barberID, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.Service)(nil)).
		Where("id = ?", id).
		Where("barber_id = ?", barberID).
		Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
