package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"barberbook/backend/internal/domain"
	"barberbook/backend/internal/store"
)

func TestPostgresIntegration_WebhookReconciliationLifecycle(t *testing.T) {
	withTestSchema(t, func(ctx context.Context, tx bun.Tx) error {
		users := NewUserRepo(tx)
		services := NewServiceRepo(tx)
		appts := NewAppointmentRepo(tx)

		barber, err := users.Create(ctx, domain.User{
			Name:         "Sam",
			Email:        "Sam@Example.com",
			PasswordHash: "x",
			Role:         domain.RoleBarber,
		})
		if err != nil {
			return err
		}
		if barber.Email != "sam@example.com" {
			return fmt.Errorf("email = %q, want normalized", barber.Email)
		}

		svc, err := services.Create(ctx, domain.Service{
			BarberID:     barber.ID,
			Name:         "Fade",
			PriceCents:   2500,
			EventTypeURI: "https://api.calendly.com/event_types/FADE",
		})
		if err != nil {
			return err
		}

		found, err := services.FindByEventTypeURI(ctx, "https://api.calendly.com/event_types/FADE")
		if err != nil {
			return err
		}
		if found.ID != svc.ID {
			return fmt.Errorf("found service = %s, want %s", found.ID, svc.ID)
		}
		if _, err := services.FindByEventTypeURI(ctx, "https://api.calendly.com/event_types/NOPE"); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("unknown event type err = %v, want %v", err, store.ErrNotFound)
		}

		c1, err := users.UpsertClientByEmail(ctx, "ana@example.com", "Ana")
		if err != nil {
			return err
		}
		c2, err := users.UpsertClientByEmail(ctx, "ANA@example.com", "Ana Maria")
		if err != nil {
			return err
		}
		if c1.ID != c2.ID {
			return fmt.Errorf("upsert created a second client: %s vs %s", c1.ID, c2.ID)
		}
		if c2.Name != "Ana Maria" || c2.Role != domain.RoleClient {
			return fmt.Errorf("upserted client = %+v", c2)
		}

		if _, err := users.UpsertClientByEmail(ctx, "sam@example.com", "Sam B"); !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("upsert over barber err = %v, want %v", err, store.ErrConflict)
		}
		same, err := users.GetByEmail(ctx, "sam@example.com")
		if err != nil {
			return err
		}
		if same.Role != domain.RoleBarber || same.Name != "Sam" {
			return fmt.Errorf("upsert touched barber row: %+v", same)
		}

		claimed, err := users.Create(ctx, domain.User{Name: "Ana M", Email: "Ana@Example.com", PasswordHash: "hash", Role: domain.RoleClient})
		if err != nil {
			return fmt.Errorf("register over webhook client: %w", err)
		}
		if claimed.ID != c1.ID || claimed.PasswordHash != "hash" || claimed.Name != "Ana M" {
			return fmt.Errorf("claimed = %+v, want id %s with password set", claimed, c1.ID)
		}
		if _, err := users.Create(ctx, domain.User{Name: "Again", Email: "ana@example.com", PasswordHash: "other", Role: domain.RoleClient}); !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("second register err = %v, want %v", err, store.ErrConflict)
		}
		if _, err := users.Create(ctx, domain.User{Name: "Sam", Email: "sam@example.com", PasswordHash: "other", Role: domain.RoleClient}); !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("register over barber err = %v, want %v", err, store.ErrConflict)
		}

		start := time.Date(2026, 5, 1, 15, 0, 0, 0, time.UTC)
		in := domain.Appointment{
			ClientID:         c1.ID,
			ServiceID:        svc.ID,
			ScheduledAt:      start,
			ExternalEventURI: "https://api.calendly.com/scheduled_events/E1/invitees/I1",
			CancellationURL:  "https://calendly.com/cancellations/I1",
			RescheduleURL:    "https://calendly.com/reschedulings/I1",
		}
		a1, created, err := appts.CreateFromWebhook(ctx, in)
		if err != nil {
			return err
		}
		if !created || a1.Status != domain.StatusBooked {
			return fmt.Errorf("first delivery created=%v status=%q", created, a1.Status)
		}
		a2, created, err := appts.CreateFromWebhook(ctx, in)
		if err != nil {
			return err
		}
		if created || a2.ID != a1.ID {
			return fmt.Errorf("duplicate delivery created=%v id=%s want %s", created, a2.ID, a1.ID)
		}

		var count int
		if err := tx.NewSelect().Model((*domain.Appointment)(nil)).ColumnExpr("count(*)").Scan(ctx, &count); err != nil {
			return err
		}
		if count != 1 {
			return fmt.Errorf("appointment rows = %d, want 1", count)
		}

		detail, err := appts.GetDetail(ctx, a1.ID)
		if err != nil {
			return err
		}
		if detail.BarberID != barber.ID || detail.ClientID != c1.ID {
			return fmt.Errorf("detail = %+v", detail)
		}

		clientViews, err := appts.ListForClient(ctx, c1.ID)
		if err != nil {
			return err
		}
		if len(clientViews) != 1 || clientViews[0].OtherUser.ID != barber.ID || clientViews[0].Service.Name != "Fade" {
			return fmt.Errorf("client views = %+v", clientViews)
		}
		barberViews, err := appts.ListForBarber(ctx, barber.ID)
		if err != nil {
			return err
		}
		if len(barberViews) != 1 || barberViews[0].OtherUser.ID != c1.ID {
			return fmt.Errorf("barber views = %+v", barberViews)
		}

		cancelled, changed, err := appts.CancelByExternalURI(ctx, in.ExternalEventURI)
		if err != nil {
			return err
		}
		if !changed || cancelled.Status != domain.StatusCancelled {
			return fmt.Errorf("first cancel changed=%v status=%q", changed, cancelled.Status)
		}
		again, changed, err := appts.CancelByExternalURI(ctx, in.ExternalEventURI)
		if err != nil {
			return err
		}
		if changed || again.Status != domain.StatusCancelled {
			return fmt.Errorf("second cancel changed=%v status=%q", changed, again.Status)
		}
		if _, _, err := appts.CancelByExternalURI(ctx, "https://api.calendly.com/scheduled_events/E9/invitees/I9"); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("cancel unknown err = %v, want %v", err, store.ErrNotFound)
		}

		return nil
	})
}

func TestPostgresIntegration_CredentialAndServiceOwnership(t *testing.T) {
	withTestSchema(t, func(ctx context.Context, tx bun.Tx) error {
		users := NewUserRepo(tx)
		services := NewServiceRepo(tx)

		barber, err := users.Create(ctx, domain.User{Name: "B", Email: "b@example.com", PasswordHash: "x", Role: domain.RoleBarber})
		if err != nil {
			return err
		}
		other, err := users.Create(ctx, domain.User{Name: "O", Email: "o@example.com", PasswordHash: "x", Role: domain.RoleBarber})
		if err != nil {
			return err
		}

		if _, ok, err := users.GetCredential(ctx, barber.ID); err != nil || ok {
			return fmt.Errorf("GetCredential before connect ok=%v err=%v", ok, err)
		}

		exp := time.Date(2026, 5, 1, 16, 0, 0, 0, time.UTC)
		if err := users.UpdateCredential(ctx, barber.ID, domain.Credential{AccessToken: "at", RefreshToken: "rt", ExpiresAt: &exp}); err != nil {
			return err
		}
		cred, ok, err := users.GetCredential(ctx, barber.ID)
		if err != nil {
			return err
		}
		if !ok || cred.AccessToken != "at" || cred.RefreshToken != "rt" || cred.ExpiresAt == nil || !cred.ExpiresAt.Equal(exp) {
			return fmt.Errorf("credential = %+v ok=%v", cred, ok)
		}

		svc, err := services.Create(ctx, domain.Service{BarberID: barber.ID, Name: "Cut", PriceCents: 1500})
		if err != nil {
			return err
		}
		if _, err := services.Update(ctx, domain.Service{ID: svc.ID, BarberID: other.ID, Name: "Stolen", PriceCents: 1}); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("foreign update err = %v, want %v", err, store.ErrNotFound)
		}
		updated, err := services.Update(ctx, domain.Service{ID: svc.ID, BarberID: barber.ID, Name: "Cut & Wash", PriceCents: 2000})
		if err != nil {
			return err
		}
		if updated.Name != "Cut & Wash" || updated.PriceCents != 2000 {
			return fmt.Errorf("updated = %+v", updated)
		}

		listed, err := services.ListByBarbers(ctx, []uuid.UUID{barber.ID, other.ID})
		if err != nil {
			return err
		}
		if len(listed) != 1 || listed[0].ID != svc.ID {
			return fmt.Errorf("listed = %+v", listed)
		}

		if err := services.Delete(ctx, other.ID, svc.ID); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("foreign delete err = %v, want %v", err, store.ErrNotFound)
		}
		return services.Delete(ctx, barber.ID, svc.ID)
	})
}

func withTestSchema(t *testing.T, fn func(ctx context.Context, tx bun.Tx) error) {
	t.Helper()

	databaseURL := strings.TrimSpace(os.Getenv("BARBERBOOK_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("BARBERBOOK_TEST_DATABASE_URL not set")
	}

	db, err := Open(context.Background(), databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	schema := "barberbook_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = db.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(ctx)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewRaw("SET LOCAL search_path TO " + schema).Exec(ctx); err != nil {
			return err
		}
		if err := applyMigrations(ctx, tx); err != nil {
			return err
		}
		return fn(ctx, tx)
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}

type rawExecutor interface {
	NewRaw(query string, args ...any) *bun.RawQuery
}

func applyMigrations(ctx context.Context, exec rawExecutor) error {
	dir, err := migrationsDir()
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		upSQL, err := extractGooseUp(string(b))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for _, stmt := range splitSQLStatements(upSQL) {
			if _, err := exec.NewRaw(stmt).Exec(ctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}

func migrationsDir() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("runtime.Caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")), nil
}

func extractGooseUp(sql string) (string, error) {
	const upMarker = "-- +goose Up"
	const downMarker = "-- +goose Down"

	upIdx := strings.Index(sql, upMarker)
	if upIdx < 0 {
		return "", fmt.Errorf("missing goose up marker")
	}
	afterUp := strings.TrimLeft(sql[upIdx+len(upMarker):], "\r\n")

	if downIdx := strings.Index(afterUp, downMarker); downIdx >= 0 {
		afterUp = afterUp[:downIdx]
	}
	return strings.TrimSpace(afterUp), nil
}

func splitSQLStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
