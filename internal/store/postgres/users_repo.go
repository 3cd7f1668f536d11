package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"barberbook/backend/internal/domain"
	"barberbook/backend/internal/store"
)

var _ store.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	db bun.IDB
}

func NewUserRepo(db bun.IDB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a user. A row left behind by a webhook booking, which has
// no password, is claimed by the registration instead of conflicting; any
// other existing email yields store.ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	u.Email = normalizeEmail(u.Email)
	err := r.db.NewInsert().
		Model(&u).
		On("CONFLICT (email) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("password_hash = EXCLUDED.password_hash").
		Set("role = EXCLUDED.role").
		Set("calendly_link = EXCLUDED.calendly_link").
		Set("updated_at = EXCLUDED.updated_at").
		Where("?TableAlias.password_hash = ''").
		Returning("*").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, store.ErrConflict
	}
	if err != nil {
		return domain.User{}, mapError(err)
	}
	return u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	var u domain.User
	err := r.db.NewSelect().
		Model(&u).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.User{}, mapError(err)
	}
	return u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := r.db.NewSelect().
		Model(&u).
		Where("email = ?", normalizeEmail(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.User{}, mapError(err)
	}
	return u, nil
}

// UpsertClientByEmail inserts a client keyed by email or refreshes the display
// name of the existing client row. An email held by a barber is left untouched
// and reported as store.ErrConflict.
func (r *UserRepo) UpsertClientByEmail(ctx context.Context, email, name string) (domain.User, error) {
	u := domain.User{
		Email: normalizeEmail(email),
		Name:  name,
		Role:  domain.RoleClient,
	}
	err := r.db.NewInsert().
		Model(&u).
		On("CONFLICT (email) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("updated_at = EXCLUDED.updated_at").
		Where("?TableAlias.role = ?", domain.RoleClient).
		Returning("*").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, store.ErrConflict
	}
	if err != nil {
		return domain.User{}, mapError(err)
	}
	return u, nil
}

func (r *UserRepo) UpdateCalendlyLink(ctx context.Context, id uuid.UUID, link string) (domain.User, error) {
	var u domain.User
	err := r.db.NewUpdate().
		Model(&u).
		Set("calendly_link = ?", link).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Returning("*").
		Scan(ctx)
	if err != nil {
		return domain.User{}, mapError(err)
	}
	return u, nil
}

func (r *UserRepo) ListBarbers(ctx context.Context) ([]domain.User, error) {
	var rows []domain.User
	err := r.db.NewSelect().
		Model(&rows).
		Where("role = ?", domain.RoleBarber).
		OrderExpr("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *UserRepo) GetCredential(ctx context.Context, userID uuid.UUID) (domain.Credential, bool, error) {
	u, err := r.GetByID(ctx, userID)
	if err != nil {
		return domain.Credential{}, false, err
	}
	cred, ok := u.Credential()
	return cred, ok, nil
}

func (r *UserRepo) UpdateCredential(ctx context.Context, userID uuid.UUID, cred domain.Credential) error {
	res, err := r.db.NewUpdate().
		Model((*domain.User)(nil)).
		Set("access_token = ?", cred.AccessToken).
		Set("refresh_token = ?", cred.RefreshToken).
		Set("token_expires_at = ?", cred.ExpiresAt).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return err
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

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
