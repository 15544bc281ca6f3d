package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/keibalab/autobet/internal/domain"
)

// CredentialsSource retrieves the gateway credential tuple for a user.
type CredentialsSource interface {
	Get(ctx context.Context, userID string) (domain.Credentials, error)
}

// BalanceGateway queries the pari-mutuel account balance.
type BalanceGateway interface {
	GetBalance(ctx context.Context, creds domain.Credentials) (domain.Balance, error)
}

// BalanceHandler lets operators check the betting account's funds before a
// race day. Credentials stay inside the request scope and are wiped after
// the gateway call.
type BalanceHandler struct {
	credentials CredentialsSource
	gateway     BalanceGateway
	userID      string
}

// NewBalanceHandler creates a BalanceHandler for the auto-bet target account.
func NewBalanceHandler(credentials CredentialsSource, gateway BalanceGateway, userID string) *BalanceHandler {
	return &BalanceHandler{credentials: credentials, gateway: gateway, userID: userID}
}

// Get handles GET /api/balance.
func (h *BalanceHandler) Get(c *gin.Context) {
	creds, err := h.credentials.Get(c.Request.Context(), h.userID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer creds.Zero()

	balance, err := h.gateway.GetBalance(c.Request.Context(), creds)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, balance)
}
