package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keibalab/autobet/internal/domain"
)

// respondError translates domain errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
