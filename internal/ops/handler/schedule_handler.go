package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keibalab/autobet/internal/schedule"
)

// ScheduleStore is the handler's view of the scheduling subsystem.
type ScheduleStore interface {
	Get(name string) (schedule.Entry, error)
	Delete(name string) error
}

// ScheduleHandler lets operators inspect and cancel pending race schedules.
type ScheduleHandler struct {
	schedules ScheduleStore
}

// NewScheduleHandler creates a ScheduleHandler.
func NewScheduleHandler(schedules ScheduleStore) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// Get handles GET /api/schedules/:name.
func (h *ScheduleHandler) Get(c *gin.Context) {
	entry, err := h.schedules.Get(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":    entry.Name,
		"fire_at": entry.FireAt,
		"payload": entry.Payload,
	})
}

// Delete handles DELETE /api/schedules/:name. Cancelling a schedule is the
// operator's kill switch for a single race.
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.schedules.Delete(c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("name")})
}
