package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agendou/backend/internal/domain"
	"agendou/backend/internal/service/booking"
	"agendou/backend/internal/store"
)

const (
	msgInvalidPayload  = "Requisição inválida: verifique os dados enviados"
	msgMissingUnit     = "Cabeçalho X-Unit-ID é obrigatório"
	msgInvalidID       = "Identificador inválido"
	msgInvalidDate     = "Data inválida: use o formato AAAA-MM-DD"
	msgBlockNotFound   = "Bloqueio não encontrado"
	msgInternalFailure = "Erro interno. Tente novamente"
)

// unitID reads the tenant header. Every route under /api/v1 is unit-scoped.
func unitID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader("X-Unit-ID")
	if raw == "" {
		respondError(c, http.StatusBadRequest, msgMissingUnit)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError translates booking-layer errors into the envelope. The
// fallback hides internals behind a generic message; details go to the log.
func (s *Server) writeServiceError(c *gin.Context, err error) {
	var vErr *booking.ValidationError
	if errors.As(err, &vErr) {
		respondError(c, http.StatusBadRequest, vErr.Error())
		return
	}
	var cErr *booking.ConflictError
	if errors.As(err, &cErr) {
		respondConflict(c, cErr.Error(), cErr.Conflicts)
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, msgBlockNotFound)
		return
	}
	s.log.Error("request failed",
		slog.String("path", c.Request.URL.Path),
		slog.Any("err", err),
	)
	respondError(c, http.StatusInternalServerError, msgInternalFailure)
}

type appointmentResponse struct {
	ID             uuid.UUID `json:"id"`
	UnitID         uuid.UUID `json:"unit_id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	ClientID       uuid.UUID `json:"client_id"`
	ServiceID      uuid.UUID `json:"service_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Status         string    `json:"status"`
	Notes          string    `json:"notes,omitempty"`
}

func toAppointmentResponse(a domain.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:             a.ID,
		UnitID:         a.UnitID,
		ProfessionalID: a.ProfessionalID,
		ClientID:       a.ClientID,
		ServiceID:      a.ServiceID,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
		Status:         string(a.Status),
		Notes:          a.Notes,
	}
}

type blockResponse struct {
	ID             uuid.UUID `json:"id"`
	UnitID         uuid.UUID `json:"unit_id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Reason         string    `json:"reason"`
	Kind           string    `json:"kind"`
}

func toBlockResponse(b domain.Block) blockResponse {
	return blockResponse{
		ID:             b.ID,
		UnitID:         b.UnitID,
		ProfessionalID: b.ProfessionalID,
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		Reason:         b.Reason,
		Kind:           string(b.Kind),
	}
}

type createAppointmentRequest struct {
	ProfessionalID uuid.UUID `json:"professional_id" binding:"required"`
	ClientID       uuid.UUID `json:"client_id" binding:"required"`
	ServiceID      uuid.UUID `json:"service_id" binding:"required"`
	StartTime      time.Time `json:"start_time" binding:"required"`
	EndTime        time.Time `json:"end_time" binding:"required"`
	Notes          string    `json:"notes"`
}

func (s *Server) createAppointment(c *gin.Context) {
	unit, ok := unitID(c)
	if !ok {
		return
	}

	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	appt, err := s.booking.Create(c.Request.Context(), booking.CreateInput{
		UnitID:         unit,
		ProfessionalID: req.ProfessionalID,
		ClientID:       req.ClientID,
		ServiceID:      req.ServiceID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Notes:          req.Notes,
	})
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	respondCreated(c, toAppointmentResponse(appt))
}

func (s *Server) findConflicts(c *gin.Context) {
	unit, ok := unitID(c)
	if !ok {
		return
	}

	professionalID, err := uuid.Parse(c.Query("professional_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidID)
		return
	}
	start, err := time.Parse(time.RFC3339, c.Query("start_time"))
	if err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end_time"))
	if err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	excludeID := uuid.Nil
	if raw := c.Query("exclude_id"); raw != "" {
		excludeID, err = uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, msgInvalidID)
			return
		}
	}

	conflicts, err := s.booking.FindConflicts(c.Request.Context(), unit, professionalID, domain.NewInterval(start, end), excludeID)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	respondOK(c, gin.H{
		"available": len(conflicts) == 0,
		"conflicts": conflicts,
	})
}

func (s *Server) dayAgenda(c *gin.Context) {
	unit, ok := unitID(c)
	if !ok {
		return
	}

	professionalID, err := uuid.Parse(c.Param("professionalID"))
	if err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidID)
		return
	}
	day, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidDate)
		return
	}

	dayStartClock := c.DefaultQuery("day_start", "00:00")
	clock, err := time.Parse("15:04", dayStartClock)
	if err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC)

	pixelsPerMinute := 1.0
	if raw := c.Query("pixels_per_minute"); raw != "" {
		pixelsPerMinute, err = strconv.ParseFloat(raw, 64)
		if err != nil || pixelsPerMinute <= 0 {
			respondError(c, http.StatusBadRequest, msgInvalidPayload)
			return
		}
	}

	events, err := s.booking.DayAgenda(c.Request.Context(), unit, professionalID, dayStart, pixelsPerMinute)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	respondOK(c, gin.H{
		"day_start": dayStart,
		"events":    events,
	})
}

type createBlockRequest struct {
	ProfessionalID uuid.UUID `json:"professional_id" binding:"required"`
	StartTime      time.Time `json:"start_time" binding:"required"`
	EndTime        time.Time `json:"end_time" binding:"required"`
	Reason         string    `json:"reason" binding:"required"`
	Kind           string    `json:"kind"`
}

func (s *Server) createBlock(c *gin.Context) {
	unit, ok := unitID(c)
	if !ok {
		return
	}

	var req createBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	block, err := s.booking.CreateBlock(c.Request.Context(), booking.CreateBlockInput{
		UnitID:         unit,
		ProfessionalID: req.ProfessionalID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Reason:         req.Reason,
		Kind:           domain.BlockKind(req.Kind),
	})
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	respondCreated(c, toBlockResponse(block))
}

func (s *Server) listBlocks(c *gin.Context) {
	unit, ok := unitID(c)
	if !ok {
		return
	}

	professionalID, err := uuid.Parse(c.Query("professional_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidID)
		return
	}
	start, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	blocks, err := s.booking.ListBlocks(c.Request.Context(), unit, professionalID, start, end)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	out := make([]blockResponse, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, toBlockResponse(b))
	}
	respondOK(c, out)
}

func (s *Server) deleteBlock(c *gin.Context) {
	unit, ok := unitID(c)
	if !ok {
		return
	}

	blockID, err := uuid.Parse(c.Param("blockID"))
	if err != nil {
		respondError(c, http.StatusBadRequest, msgInvalidID)
		return
	}

	if err := s.booking.DeleteBlock(c.Request.Context(), unit, blockID); err != nil {
		s.writeServiceError(c, err)
		return
	}
	respondOK(c, nil)
}
