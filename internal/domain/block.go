package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BlockKind string

const (
	// BlockKindManual is staff-declared unavailability, e.g. lunch.
	BlockKindManual BlockKind = "manual_block"
	// BlockKindUnavailable is system-derived unavailability, e.g. outside
	// working hours.
	BlockKindUnavailable BlockKind = "unavailable"
)

// Block is a window of professional unavailability. It occupies the agenda
// exactly like an appointment but is never itself bookable.
type Block struct {
	bun.BaseModel `bun:"table:blocks,alias:b"`

	ID             uuid.UUID `bun:"id,pk,type:uuid"`
	UnitID         uuid.UUID `bun:"unit_id,notnull,type:uuid"`
	ProfessionalID uuid.UUID `bun:"professional_id,notnull,type:uuid"`
	StartTime      time.Time `bun:"start_time,notnull"`
	EndTime        time.Time `bun:"end_time,notnull"`
	Reason         string    `bun:"reason,notnull"`
	Kind           BlockKind `bun:"kind,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
}

func (b *Block) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

func (b *Block) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.Kind == "" {
			b.Kind = BlockKindManual
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}
