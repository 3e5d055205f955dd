package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"agendou/backend/internal/domain"
)

// ScheduleReader is the read surface of a professional's agenda, satisfied
// both by the repository (dirty reads for the availability probe) and by
// the serialized transaction used during booking.
type ScheduleReader interface {
	// FindOverlappingAppointments returns scheduled/attended appointments
	// for (unit, professional) whose interval overlaps the candidate,
	// ascending by start. excludeID, when non-nil, drops that appointment
	// from the result (reschedule probes).
	FindOverlappingAppointments(ctx context.Context, unitID, professionalID uuid.UUID, candidate domain.Interval, excludeID uuid.UUID) ([]domain.Appointment, error)
	// FindOverlappingBlocks returns blocks for (unit, professional) whose
	// interval overlaps the candidate, ascending by start.
	FindOverlappingBlocks(ctx context.Context, unitID, professionalID uuid.UUID, candidate domain.Interval) ([]domain.Block, error)
}

// ScheduleTx is the per-professional serialized view a booking runs in:
// the conflict re-check and the insert see the same locked agenda.
type ScheduleTx interface {
	ScheduleReader
	InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
}

type ScheduleRepository interface {
	ScheduleReader

	// InProfessionalTransaction runs fn while holding an exclusive lock on
	// the (unit, professional) agenda, so concurrent bookings for the same
	// professional cannot interleave between check and insert.
	InProfessionalTransaction(ctx context.Context, unitID, professionalID uuid.UUID, fn func(ctx context.Context, tx ScheduleTx) error) error

	// ListDay returns the agenda-occupying appointments and all blocks for
	// one professional inside [dayStart, dayEnd).
	ListDay(ctx context.Context, unitID, professionalID uuid.UUID, dayStart, dayEnd time.Time) ([]domain.Appointment, []domain.Block, error)

	CreateBlock(ctx context.Context, block domain.Block) (domain.Block, error)
	ListBlocks(ctx context.Context, unitID, professionalID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Block, error)
	DeleteBlock(ctx context.Context, unitID, blockID uuid.UUID) error
}
