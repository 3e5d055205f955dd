package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusAttended  AppointmentStatus = "attended"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// OccupiesAgenda reports whether a row with this status blocks the
// professional's time. Cancelled and no-show rows stay in the table but are
// inert for conflict checks.
func (s AppointmentStatus) OccupiesAgenda() bool {
	return s == AppointmentStatusScheduled || s == AppointmentStatusAttended
}

// BlockingStatuses is the status filter used by every overlap query.
var BlockingStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusAttended,
}

type Appointment struct {
	bun.BaseModel `bun:"table:appointments,alias:a"`

	ID             uuid.UUID         `bun:"id,pk,type:uuid"`
	UnitID         uuid.UUID         `bun:"unit_id,notnull,type:uuid"`
	ProfessionalID uuid.UUID         `bun:"professional_id,notnull,type:uuid"`
	ClientID       uuid.UUID         `bun:"client_id,notnull,type:uuid"`
	ServiceID      uuid.UUID         `bun:"service_id,notnull,type:uuid"`
	StartTime      time.Time         `bun:"start_time,notnull"`
	EndTime        time.Time         `bun:"end_time,notnull"`
	Status         AppointmentStatus `bun:"status,notnull"`
	Notes          string            `bun:"notes"`
	CreatedAt      time.Time         `bun:"created_at,notnull"`
	UpdatedAt      time.Time         `bun:"updated_at,notnull"`

	// ClientName is joined in by agenda queries for display labels.
	ClientName string `bun:"client_name,scanonly"`
}

func (a *Appointment) Interval() Interval {
	return Interval{Start: a.StartTime, End: a.EndTime}
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}
