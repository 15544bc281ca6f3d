package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keibalab/autobet/internal/domain"
	"github.com/keibalab/autobet/internal/executor"
)

// RaceExecutor is the handler's view of the bet executor.
type RaceExecutor interface {
	Run(ctx context.Context, raceID string) (executor.Result, error)
}

// ExecuteHandler lets operators fire the bet pipeline for a race by hand,
// e.g. after a missed schedule. It bypasses the orchestrator's at-most-once
// guard, so it sits behind auth.
type ExecuteHandler struct {
	executor RaceExecutor
}

// NewExecuteHandler creates an ExecuteHandler.
func NewExecuteHandler(exec RaceExecutor) *ExecuteHandler {
	return &ExecuteHandler{executor: exec}
}

// Execute handles POST /api/races/:race_id/execute.
func (h *ExecuteHandler) Execute(c *gin.Context) {
	raceID := c.Param("race_id")

	result, err := h.executor.Run(c.Request.Context(), raceID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRaceID):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrSubmissionFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			respondError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, result)
}
