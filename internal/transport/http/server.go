package httpapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agendou/backend/internal/domain"
	"agendou/backend/internal/service/booking"
)

// BookingService is what the transport needs from the booking layer.
type BookingService interface {
	Create(ctx context.Context, in booking.CreateInput) (domain.Appointment, error)
	FindConflicts(ctx context.Context, unitID, professionalID uuid.UUID, candidate domain.Interval, excludeID uuid.UUID) ([]domain.ConflictRecord, error)
	DayAgenda(ctx context.Context, unitID, professionalID uuid.UUID, dayStart time.Time, pixelsPerMinute float64) ([]domain.LaidOutEvent, error)
	CreateBlock(ctx context.Context, in booking.CreateBlockInput) (domain.Block, error)
	ListBlocks(ctx context.Context, unitID, professionalID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Block, error)
	DeleteBlock(ctx context.Context, unitID, blockID uuid.UUID) error
}

type Server struct {
	booking BookingService
	log     *slog.Logger
}

func NewServer(svc BookingService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		booking: svc,
		log:     log.With(slog.String("component", "http")),
	}
}

// Router builds the gin engine with all routes mounted under /api/v1.
func (s *Server) Router(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.log))
	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "X-Unit-ID", "X-User-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/appointments", s.createAppointment)
		api.GET("/appointments/conflicts", s.findConflicts)
		api.POST("/blocks", s.createBlock)
		api.GET("/blocks", s.listBlocks)
		api.DELETE("/blocks/:blockID", s.deleteBlock)
		api.GET("/professionals/:professionalID/agenda", s.dayAgenda)
	}
	return r
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		args := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		}
		if actor := c.GetHeader("X-User-ID"); actor != "" {
			args = append(args, slog.String("user_id", actor))
		}
		log.Info("request", args...)
	}
}
