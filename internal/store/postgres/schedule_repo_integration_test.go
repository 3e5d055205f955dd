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

	"agendou/backend/internal/domain"
	"agendou/backend/internal/store"
)

func TestPostgresIntegration_ScheduleOverlapAndBlocks(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("AGENDOU_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("AGENDOU_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// One connection so the session search_path applies to every query.
	db, err := Open(ctx, databaseURL, PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	schema := "agendou_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = db.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(ctx)
	})

	if _, err := db.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if _, err := db.NewRaw("SET search_path TO " + schema + ", public").Exec(ctx); err != nil {
		t.Fatalf("set search_path: %v", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	unitID := uuid.New()
	professionalID := uuid.New()
	clientID := uuid.New()
	serviceID := uuid.New()

	if _, err := db.NewRaw(
		"INSERT INTO clients (id, unit_id, name) VALUES (?, ?, ?)",
		clientID, unitID, "Maria Souza",
	).Exec(ctx); err != nil {
		t.Fatalf("insert client: %v", err)
	}

	repo := NewScheduleRepo(db)
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	insert := func(s, e time.Time) (domain.Appointment, error) {
		var out domain.Appointment
		err := repo.InProfessionalTransaction(ctx, unitID, professionalID, func(ctx context.Context, tx store.ScheduleTx) error {
			appt, err := tx.InsertAppointment(ctx, domain.Appointment{
				UnitID:         unitID,
				ProfessionalID: professionalID,
				ClientID:       clientID,
				ServiceID:      serviceID,
				StartTime:      s,
				EndTime:        e,
				Status:         domain.AppointmentStatusScheduled,
			})
			if err != nil {
				return err
			}
			out = appt
			return nil
		})
		return out, err
	}

	a1, err := insert(start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if a1.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}

	// The exclusion constraint rejects the overlap even without a prior
	// conflict check.
	_, err = insert(start.Add(30*time.Minute), start.Add(90*time.Minute))
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("overlap err = %v, want %v", err, store.ErrConflict)
	}

	// Back-to-back is not an overlap under half-open semantics.
	a2, err := insert(start.Add(time.Hour), start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("back-to-back insert: %v", err)
	}

	found, err := repo.FindOverlappingAppointments(ctx, unitID, professionalID,
		domain.Interval{Start: start.Add(30 * time.Minute), End: start.Add(90 * time.Minute)}, uuid.Nil)
	if err != nil {
		t.Fatalf("FindOverlappingAppointments: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("len(found) = %d, want 2", len(found))
	}
	if found[0].ClientName != "Maria Souza" {
		t.Fatalf("client_name = %q, want joined name", found[0].ClientName)
	}

	// Excluding one id drops it from the result.
	found, err = repo.FindOverlappingAppointments(ctx, unitID, professionalID,
		domain.Interval{Start: start.Add(30 * time.Minute), End: start.Add(90 * time.Minute)}, a2.ID)
	if err != nil {
		t.Fatalf("FindOverlappingAppointments with exclude: %v", err)
	}
	if len(found) != 1 || found[0].ID != a1.ID {
		t.Fatalf("exclusion filter failed: %+v", found)
	}

	block, err := repo.CreateBlock(ctx, domain.Block{
		UnitID:         unitID,
		ProfessionalID: professionalID,
		StartTime:      start.Add(3 * time.Hour),
		EndTime:        start.Add(4 * time.Hour),
		Reason:         "Almoço",
	})
	if err != nil {
		t.Fatalf("CreateBlock: %v", err)
	}
	if block.Kind != domain.BlockKindManual {
		t.Fatalf("kind = %q, want default manual", block.Kind)
	}

	blocks, err := repo.FindOverlappingBlocks(ctx, unitID, professionalID,
		domain.Interval{Start: start.Add(3*time.Hour + 30*time.Minute), End: start.Add(5 * time.Hour)})
	if err != nil {
		t.Fatalf("FindOverlappingBlocks: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Reason != "Almoço" {
		t.Fatalf("blocks = %+v, want lunch block", blocks)
	}

	// A window touching the block boundary only does not match.
	blocks, err = repo.FindOverlappingBlocks(ctx, unitID, professionalID,
		domain.Interval{Start: start.Add(4 * time.Hour), End: start.Add(5 * time.Hour)})
	if err != nil {
		t.Fatalf("FindOverlappingBlocks at boundary: %v", err)
	}
	if len(blocks) != 0 {
		t.Fatalf("boundary touch matched: %+v", blocks)
	}

	appts, dayBlocks, err := repo.ListDay(ctx, unitID, professionalID, start.Add(-time.Hour), start.Add(23*time.Hour))
	if err != nil {
		t.Fatalf("ListDay: %v", err)
	}
	if len(appts) != 2 || len(dayBlocks) != 1 {
		t.Fatalf("ListDay = %d appointments, %d blocks; want 2 and 1", len(appts), len(dayBlocks))
	}

	if err := repo.DeleteBlock(ctx, unitID, block.ID); err != nil {
		t.Fatalf("DeleteBlock: %v", err)
	}
	if err := repo.DeleteBlock(ctx, unitID, block.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second DeleteBlock err = %v, want %v", err, store.ErrNotFound)
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

	type mig struct {
		name string
		path string
	}
	migs := make([]mig, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		migs = append(migs, mig{name: e.Name(), path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(migs, func(i, j int) bool { return migs[i].name < migs[j].name })

	for _, m := range migs {
		b, err := os.ReadFile(m.path)
		if err != nil {
			return err
		}
		upSQL, err := extractGooseUp(string(b))
		if err != nil {
			return err
		}
		for _, stmt := range splitSQLStatements(upSQL) {
			if normalized, ok := normalizeExtensionStatement(stmt); ok {
				stmt = normalized
			}
			if _, err := exec.NewRaw(stmt).Exec(ctx); err != nil {
				return err
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
	base := filepath.Dir(file)
	return filepath.Clean(filepath.Join(base, "..", "..", "..", "migrations")), nil
}

func extractGooseUp(sql string) (string, error) {
	upMarker := "-- +goose Up"
	downMarker := "-- +goose Down"

	upIdx := strings.Index(sql, upMarker)
	if upIdx < 0 {
		return "", fmt.Errorf("missing goose up marker")
	}
	afterUp := sql[upIdx+len(upMarker):]
	afterUp = strings.TrimLeft(afterUp, "\r\n")

	downIdx := strings.Index(afterUp, downMarker)
	if downIdx < 0 {
		return strings.TrimSpace(afterUp), nil
	}
	return strings.TrimSpace(afterUp[:downIdx]), nil
}

// btree_gist must land in a real schema even when the tables live in a
// throwaway one.
func normalizeExtensionStatement(stmt string) (string, bool) {
	s := strings.TrimSpace(stmt)
	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, "CREATE EXTENSION") {
		return "", false
	}
	if !strings.Contains(upper, "BTREE_GIST") {
		return "", false
	}
	if strings.Contains(upper, " SCHEMA ") {
		return "", false
	}
	return s + " SCHEMA public", true
}

func splitSQLStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
