package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"agendou/backend/internal/domain"
	"agendou/backend/internal/store"
)

type ScheduleRepo struct {
	db *bun.DB
}

func NewScheduleRepo(db *bun.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

type scheduleTx struct {
	tx bun.Tx
}

func (r *ScheduleRepo) FindOverlappingAppointments(ctx context.Context, unitID, professionalID uuid.UUID, candidate domain.Interval, excludeID uuid.UUID) ([]domain.Appointment, error) {
	return findOverlappingAppointments(ctx, r.db, unitID, professionalID, candidate, excludeID)
}

func (r *ScheduleRepo) FindOverlappingBlocks(ctx context.Context, unitID, professionalID uuid.UUID, candidate domain.Interval) ([]domain.Block, error) {
	return findOverlappingBlocks(ctx, r.db, unitID, professionalID, candidate)
}

func (r *ScheduleRepo) InProfessionalTransaction(ctx context.Context, unitID, professionalID uuid.UUID, fn func(ctx context.Context, tx store.ScheduleTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockProfessionalAgenda(ctx, tx, unitID, professionalID); err != nil {
			return err
		}
		return fn(ctx, scheduleTx{tx: tx})
	})
}

func lockProfessionalAgenda(ctx context.Context, tx bun.Tx, unitID, professionalID uuid.UUID) error {
	_, err := tx.NewRaw(
		"SELECT pg_advisory_xact_lock(hashtext(?))",
		unitID.String()+":"+professionalID.String(),
	).Exec(ctx)
	return err
}

func (r *ScheduleRepo) ListDay(ctx context.Context, unitID, professionalID uuid.UUID, dayStart, dayEnd time.Time) ([]domain.Appointment, []domain.Block, error) {
	window := domain.Interval{Start: dayStart, End: dayEnd}
	appts, err := findOverlappingAppointments(ctx, r.db, unitID, professionalID, window, uuid.Nil)
	if err != nil {
		return nil, nil, err
	}
	blocks, err := findOverlappingBlocks(ctx, r.db, unitID, professionalID, window)
	if err != nil {
		return nil, nil, err
	}
	return appts, blocks, nil
}

func (r *ScheduleRepo) CreateBlock(ctx context.Context, block domain.Block) (domain.Block, error) {
	m := block
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Block{}, err
	}
	return m, nil
}

func (r *ScheduleRepo) ListBlocks(ctx context.Context, unitID, professionalID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Block, error) {
	return findOverlappingBlocks(ctx, r.db, unitID, professionalID, domain.Interval{Start: windowStart, End: windowEnd})
}

func (r *ScheduleRepo) DeleteBlock(ctx context.Context, unitID, blockID uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.Block)(nil)).
		Where("b.unit_id = ?", unitID).
		Where("b.id = ?", blockID).
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

func (t scheduleTx) FindOverlappingAppointments(ctx context.Context, unitID, professionalID uuid.UUID, candidate domain.Interval, excludeID uuid.UUID) ([]domain.Appointment, error) {
	return findOverlappingAppointments(ctx, t.tx, unitID, professionalID, candidate, excludeID)
}

func (t scheduleTx) FindOverlappingBlocks(ctx context.Context, unitID, professionalID uuid.UUID, candidate domain.Interval) ([]domain.Block, error) {
	return findOverlappingBlocks(ctx, t.tx, unitID, professionalID, candidate)
}

func (t scheduleTx) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	if _, err := t.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Appointment{}, mapInsertError(err)
	}
	return m, nil
}

// mapInsertError turns the appointments_no_overlap exclusion constraint
// (the database-level backstop behind the advisory lock) into
// store.ErrConflict. Duplicate ids map the same way.
func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.Code == "23P01" && pgErr.ConstraintName == "appointments_no_overlap" {
		return store.ErrConflict
	}
	if pgErr.Code == "23505" {
		return store.ErrConflict
	}
	return err
}

func findOverlappingAppointments(ctx context.Context, db bun.IDB, unitID, professionalID uuid.UUID, candidate domain.Interval, excludeID uuid.UUID) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	q := db.NewSelect().
		Model(&rows).
		ColumnExpr("a.*").
		ColumnExpr("c.name AS client_name").
		Join("LEFT JOIN clients AS c ON c.id = a.client_id").
		Where("a.unit_id = ?", unitID).
		Where("a.professional_id = ?", professionalID).
		Where("a.status IN (?)", bun.In(domain.BlockingStatuses)).
		Where("a.start_time < ?", candidate.End).
		Where("a.end_time > ?", candidate.Start).
		OrderExpr("a.start_time ASC")
	if excludeID != uuid.Nil {
		q = q.Where("a.id != ?", excludeID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func findOverlappingBlocks(ctx context.Context, db bun.IDB, unitID, professionalID uuid.UUID, candidate domain.Interval) ([]domain.Block, error) {
	var rows []domain.Block
	err := db.NewSelect().
		Model(&rows).
		Where("b.unit_id = ?", unitID).
		Where("b.professional_id = ?", professionalID).
		Where("b.start_time < ?", candidate.End).
		Where("b.end_time > ?", candidate.Start).
		OrderExpr("b.start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
