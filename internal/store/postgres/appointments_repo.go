package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"barberbook/backend/internal/domain"
	"barberbook/backend/internal/store"
)

var _ store.AppointmentRepository = (*AppointmentRepo)(nil)

type AppointmentRepo struct {
	db bun.IDB
}

func NewAppointmentRepo(db bun.IDB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

func (r *AppointmentRepo) CreateFromWebhook(ctx context.Context, appt domain.Appointment) (domain.Appointment, bool, error) {
	m := appt
	res, err := r.db.NewInsert().
		Model(&m).
		On("CONFLICT (external_event_uri) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, false, mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, false, err
	}
	if affected > 0 {
		return m, true, nil
	}

	existing, err := r.getByExternalURI(ctx, appt.ExternalEventURI)
	if err != nil {
		return domain.Appointment{}, false, err
	}
	return existing, false, nil
}

func (r *AppointmentRepo) CancelByExternalURI(ctx context.Context, uri string) (domain.Appointment, bool, error) {
	var m domain.Appointment
	err := r.db.NewUpdate().
		Model(&m).
		Set("status = ?", domain.StatusCancelled).
		Set("updated_at = ?", time.Now().UTC()).
		Where("external_event_uri = ?", uri).
		Where("status = ?", domain.StatusBooked).
		Returning("*").
		Scan(ctx)
	if err == nil {
		return m, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Appointment{}, false, err
	}

	existing, err := r.getByExternalURI(ctx, uri)
	if err != nil {
		return domain.Appointment{}, false, err
	}
	return existing, false, nil
}

func (r *AppointmentRepo) getByExternalURI(ctx context.Context, uri string) (domain.Appointment, error) {
	var m domain.Appointment
	err := r.db.NewSelect().
		Model(&m).
		Where("external_event_uri = ?", uri).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Appointment{}, mapError(err)
	}
	return m, nil
}

func (r *AppointmentRepo) GetDetail(ctx context.Context, id uuid.UUID) (domain.AppointmentDetail, error) {
	var out domain.AppointmentDetail
	err := r.db.NewSelect().
		Model(&out.Appointment).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.AppointmentDetail{}, mapError(err)
	}

	err = r.db.NewSelect().
		Model((*domain.Service)(nil)).
		Column("barber_id").
		Where("id = ?", out.ServiceID).
		Limit(1).
		Scan(ctx, &out.BarberID)
	if err != nil {
		return domain.AppointmentDetail{}, mapError(err)
	}
	return out, nil
}

type appointmentViewRow struct {
	ID              uuid.UUID                `bun:"id"`
	ScheduledAt     time.Time                `bun:"scheduled_at"`
	Status          domain.AppointmentStatus `bun:"status"`
	CancellationURL sql.NullString           `bun:"cancellation_url"`
	RescheduleURL   sql.NullString           `bun:"reschedule_url"`
	ServiceID       uuid.UUID                `bun:"service_id"`
	ServiceName     string                   `bun:"service_name"`
	ServicePrice    int64                    `bun:"service_price_cents"`
	OtherUserID     uuid.UUID                `bun:"other_user_id"`
	OtherUserName   string                   `bun:"other_user_name"`
	OtherUserEmail  string                   `bun:"other_user_email"`
}

func (r *AppointmentRepo) ListForClient(ctx context.Context, clientID uuid.UUID) ([]domain.AppointmentView, error) {
	return r.listViews(ctx, "u.id = s.barber_id", "a.client_id = ?", clientID)
}

func (r *AppointmentRepo) ListForBarber(ctx context.Context, barberID uuid.UUID) ([]domain.AppointmentView, error) {
	return r.listViews(ctx, "u.id = a.client_id", "s.barber_id = ?", barberID)
}

func (r *AppointmentRepo) listViews(ctx context.Context, otherJoin, where string, id uuid.UUID) ([]domain.AppointmentView, error) {
	var rows []appointmentViewRow
	err := r.db.NewSelect().
		TableExpr("appointments AS a").
		ColumnExpr("a.id, a.scheduled_at, a.status, a.cancellation_url, a.reschedule_url").
		ColumnExpr("s.id AS service_id, s.name AS service_name, s.price_cents AS service_price_cents").
		ColumnExpr("u.id AS other_user_id, u.name AS other_user_name, u.email AS other_user_email").
		Join("JOIN services AS s ON s.id = a.service_id").
		Join("JOIN users AS u ON "+otherJoin).
		Where(where, id).
		OrderExpr("a.scheduled_at ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	out := make([]domain.AppointmentView, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.AppointmentView{
			ID:              row.ID,
			ScheduledAt:     row.ScheduledAt,
			Status:          row.Status,
			CancellationURL: row.CancellationURL.String,
			RescheduleURL:   row.RescheduleURL.String,
			Service: domain.ServiceSummary{
				ID:         row.ServiceID,
				Name:       row.ServiceName,
				PriceCents: row.ServicePrice,
			},
			OtherUser: domain.UserSummary{
				ID:    row.OtherUserID,
				Name:  row.OtherUserName,
				Email: row.OtherUserEmail,
			},
		})
	}
	return out, nil
}
