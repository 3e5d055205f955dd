package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agendou/backend/internal/domain"
)

// ActionResult is the envelope every endpoint answers with. Failed actions
// carry a user-facing message in Error; conflict rejections additionally
// carry the colliding agenda entries.
type ActionResult struct {
	Success   bool                    `json:"success"`
	Data      interface{}             `json:"data,omitempty"`
	Error     string                  `json:"error,omitempty"`
	Conflicts []domain.ConflictRecord `json:"conflicts,omitempty"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, ActionResult{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, ActionResult{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ActionResult{Success: false, Error: message})
}

func respondConflict(c *gin.Context, message string, conflicts []domain.ConflictRecord) {
	c.JSON(http.StatusConflict, ActionResult{
		Success:   false,
		Error:     message,
		Conflicts: conflicts,
	})
}
