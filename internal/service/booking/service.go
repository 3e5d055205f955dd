package booking

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"agendou/backend/internal/domain"
	"agendou/backend/internal/store"
)

// User-facing messages are Portuguese; logs stay English.
const (
	msgMissingFields = "Preencha todos os campos obrigatórios"
	msgStartInPast   = "Data de início deve ser no futuro"
	msgInvertedRange = "Data de término deve ser posterior à data de início"
	msgConflict      = "Horário indisponível: o profissional já possui compromissos neste intervalo"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// ConflictError carries the agenda entries that collide with the requested
// slot, so callers can show what is in the way.
type ConflictError struct {
	Conflicts []domain.ConflictRecord
}

func (e *ConflictError) Error() string {
	return msgConflict
}

// Invalidator tells presentation layers a cached view is stale. Fired only
// after a successful write.
type Invalidator interface {
	Invalidate(ctx context.Context, view string) error
}

// AppointmentsView is the view path invalidated after a successful booking.
const AppointmentsView = "/appointments"

type Service struct {
	repo  store.ScheduleRepository
	cache Invalidator
	log   *slog.Logger
	now   func() time.Time
}

func NewService(repo store.ScheduleRepository, cache Invalidator, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log.With(slog.String("component", "booking")),
		now:   time.Now,
	}
}

type CreateInput struct {
	UnitID         uuid.UUID
	ProfessionalID uuid.UUID
	ClientID       uuid.UUID
	ServiceID      uuid.UUID
	StartTime      time.Time
	EndTime        time.Time
	Notes          string
}

// Create runs the booking pipeline: structural validation, temporal
// validation, conflict check, insert, view invalidation. Each stage gates
// the next and a failure leaves no side effects. The conflict check and the
// insert run inside the per-professional transaction, so two concurrent
// requests for the same professional cannot both see a free slot.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Appointment, error) {
	if in.UnitID == uuid.Nil || in.ProfessionalID == uuid.Nil || in.ClientID == uuid.Nil || in.ServiceID == uuid.Nil {
		return domain.Appointment{}, validationError(msgMissingFields)
	}

	candidate := domain.NewInterval(in.StartTime, in.EndTime)
	if err := candidate.ValidateForBooking(s.now().UTC()); err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingField):
			return domain.Appointment{}, validationError(msgMissingFields)
		case errors.Is(err, domain.ErrNonFutureStart):
			return domain.Appointment{}, validationError(msgStartInPast)
		default:
			return domain.Appointment{}, validationError(msgInvertedRange)
		}
	}

	var out domain.Appointment
	err := s.repo.InProfessionalTransaction(ctx, in.UnitID, in.ProfessionalID, func(ctx context.Context, tx store.ScheduleTx) error {
		conflicts, err := findConflicts(ctx, tx, in.UnitID, in.ProfessionalID, candidate, uuid.Nil)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &ConflictError{Conflicts: conflicts}
		}

		appt, err := tx.InsertAppointment(ctx, domain.Appointment{
			UnitID:         in.UnitID,
			ProfessionalID: in.ProfessionalID,
			ClientID:       in.ClientID,
			ServiceID:      in.ServiceID,
			StartTime:      candidate.Start,
			EndTime:        candidate.End,
			Status:         domain.AppointmentStatusScheduled,
			Notes:          strings.TrimSpace(in.Notes),
		})
		if err != nil {
			return err
		}
		out = appt
		return nil
	})
	if err != nil {
		// The exclusion constraint can still fire under lock loss; report
		// it as a conflict with no records rather than an internal error.
		if errors.Is(err, store.ErrConflict) {
			return domain.Appointment{}, &ConflictError{}
		}
		return domain.Appointment{}, err
	}

	if err := s.cache.Invalidate(ctx, AppointmentsView); err != nil {
		// The booking is committed; a stale view heals on the next write.
		s.log.Warn("view invalidation failed",
			slog.String("view", AppointmentsView),
			slog.String("appointment_id", out.ID.String()),
			slog.Any("err", err),
		)
	}

	s.log.Info("appointment created",
		slog.String("appointment_id", out.ID.String()),
		slog.String("professional_id", out.ProfessionalID.String()),
		slog.Time("start_time", out.StartTime),
		slog.Time("end_time", out.EndTime),
	)
	return out, nil
}

// FindConflicts is the read-only availability probe. It reads outside any
// transaction, so the answer can go stale before a later Create; Create
// re-checks under the professional lock.
func (s *Service) FindConflicts(ctx context.Context, unitID, professionalID uuid.UUID, candidate domain.Interval, excludeID uuid.UUID) ([]domain.ConflictRecord, error) {
	if unitID == uuid.Nil || professionalID == uuid.Nil || candidate.IsZero() {
		return nil, validationError(msgMissingFields)
	}
	if !candidate.End.After(candidate.Start) {
		return nil, validationError(msgInvertedRange)
	}
	return findConflicts(ctx, s.repo, unitID, professionalID, candidate, excludeID)
}

func findConflicts(ctx context.Context, reader store.ScheduleReader, unitID, professionalID uuid.UUID, candidate domain.Interval, excludeID uuid.UUID) ([]domain.ConflictRecord, error) {
	appts, err := reader.FindOverlappingAppointments(ctx, unitID, professionalID, candidate, excludeID)
	if err != nil {
		return nil, err
	}
	blocks, err := reader.FindOverlappingBlocks(ctx, unitID, professionalID, candidate)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ConflictRecord, 0, len(appts)+len(blocks))
	for _, a := range appts {
		out = append(out, domain.ConflictFromAppointment(a))
	}
	for _, b := range blocks {
		out = append(out, domain.ConflictFromBlock(b))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

// DayAgenda reads one professional's day and returns the laid-out calendar
// column. dayStart is the render origin (e.g. 08:00 local); the fetch
// window is the 24h from it.
func (s *Service) DayAgenda(ctx context.Context, unitID, professionalID uuid.UUID, dayStart time.Time, pixelsPerMinute float64) ([]domain.LaidOutEvent, error) {
	if unitID == uuid.Nil || professionalID == uuid.Nil || dayStart.IsZero() {
		return nil, validationError(msgMissingFields)
	}
	if pixelsPerMinute <= 0 {
		pixelsPerMinute = 1
	}

	appts, blocks, err := s.repo.ListDay(ctx, unitID, professionalID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	events := make([]domain.ScheduledEvent, 0, len(appts)+len(blocks))
	for _, a := range appts {
		title := a.ClientName
		if title == "" {
			title = "Agendamento"
		}
		events = append(events, domain.ScheduledEvent{
			ID:    a.ID.String(),
			Kind:  domain.EventKindAppointment,
			Title: title,
			Start: a.StartTime,
			End:   a.EndTime,
		})
	}
	for _, b := range blocks {
		kind := domain.EventKindBlock
		if b.Kind == domain.BlockKindUnavailable {
			kind = domain.EventKindUnavailable
		}
		events = append(events, domain.ScheduledEvent{
			ID:    b.ID.String(),
			Kind:  kind,
			Title: b.Reason,
			Start: b.StartTime,
			End:   b.EndTime,
		})
	}

	return domain.LayoutDay(events, dayStart, pixelsPerMinute), nil
}

type CreateBlockInput struct {
	UnitID         uuid.UUID
	ProfessionalID uuid.UUID
	StartTime      time.Time
	EndTime        time.Time
	Reason         string
	Kind           domain.BlockKind
}

// CreateBlock records professional unavailability. Blocks are not gated by
// the conflict detector: staff may block over existing bookings on purpose.
func (s *Service) CreateBlock(ctx context.Context, in CreateBlockInput) (domain.Block, error) {
	reason := strings.TrimSpace(in.Reason)
	if in.UnitID == uuid.Nil || in.ProfessionalID == uuid.Nil || reason == "" {
		return domain.Block{}, validationError(msgMissingFields)
	}

	interval := domain.NewInterval(in.StartTime, in.EndTime)
	if interval.IsZero() {
		return domain.Block{}, validationError(msgMissingFields)
	}
	if !interval.End.After(interval.Start) {
		return domain.Block{}, validationError(msgInvertedRange)
	}

	kind := in.Kind
	if kind == "" {
		kind = domain.BlockKindManual
	}

	block, err := s.repo.CreateBlock(ctx, domain.Block{
		UnitID:         in.UnitID,
		ProfessionalID: in.ProfessionalID,
		StartTime:      interval.Start,
		EndTime:        interval.End,
		Reason:         reason,
		Kind:           kind,
	})
	if err != nil {
		return domain.Block{}, err
	}

	if err := s.cache.Invalidate(ctx, AppointmentsView); err != nil {
		s.log.Warn("view invalidation failed",
			slog.String("view", AppointmentsView),
			slog.String("block_id", block.ID.String()),
			slog.Any("err", err),
		)
	}
	return block, nil
}

func (s *Service) ListBlocks(ctx context.Context, unitID, professionalID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Block, error) {
	if unitID == uuid.Nil || professionalID == uuid.Nil {
		return nil, validationError(msgMissingFields)
	}
	if !windowEnd.After(windowStart) {
		return nil, validationError(msgInvertedRange)
	}
	return s.repo.ListBlocks(ctx, unitID, professionalID, windowStart.UTC(), windowEnd.UTC())
}

func (s *Service) DeleteBlock(ctx context.Context, unitID, blockID uuid.UUID) error {
	if unitID == uuid.Nil || blockID == uuid.Nil {
		return validationError(msgMissingFields)
	}
	if err := s.repo.DeleteBlock(ctx, unitID, blockID); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, AppointmentsView); err != nil {
		s.log.Warn("view invalidation failed",
			slog.String("view", AppointmentsView),
			slog.String("block_id", blockID.String()),
			slog.Any("err", err),
		)
	}
	return nil
}
