package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConflictKind tags what an existing agenda entry is. The set is closed;
// the detector's merge handles every case explicitly.
type ConflictKind string

const (
	ConflictKindAppointment ConflictKind = "appointment"
	ConflictKindBlock       ConflictKind = "block"
	ConflictKindUnavailable ConflictKind = "unavailable"
)

// ConflictRecord reports one existing entry that overlaps a candidate
// booking. It is transient: produced by the conflict detector, shown to the
// caller, never persisted.
type ConflictRecord struct {
	Kind  ConflictKind `json:"kind"`
	ID    uuid.UUID    `json:"id"`
	Start time.Time    `json:"start"`
	End   time.Time    `json:"end"`
	Label string       `json:"label"`
}

func ConflictFromAppointment(a Appointment) ConflictRecord {
	label := a.ClientName
	if label == "" {
		label = "Agendamento"
	}
	return ConflictRecord{
		Kind:  ConflictKindAppointment,
		ID:    a.ID,
		Start: a.StartTime,
		End:   a.EndTime,
		Label: label,
	}
}

func ConflictFromBlock(b Block) ConflictRecord {
	kind := ConflictKindBlock
	if b.Kind == BlockKindUnavailable {
		kind = ConflictKindUnavailable
	}
	return ConflictRecord{
		Kind:  kind,
		ID:    b.ID,
		Start: b.StartTime,
		End:   b.EndTime,
		Label: b.Reason,
	}
}
