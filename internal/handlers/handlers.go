package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/earnspherex/earnsphere-golang/internal/cache"
	"github.com/earnspherex/earnsphere-golang/internal/ledger"
	"github.com/gin-gonic/gin"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB     *sql.DB         // read connection for list/detail queries
	Ledger *ledger.Service // the lifecycle coordinator; owns all writes
	Cache  *cache.Cache    // optional Redis cache for aggregates
}

// currentActor builds the ledger.Actor for the authenticated request.
// The token only carries the user id; email and role come from the DB so
// revoked or re-roled accounts are reflected immediately.
func (h *Handlers) currentActor(c *gin.Context) (ledger.Actor, error) {
	userIDRaw, _ := c.Get("userID")
	userID, _ := userIDRaw.(int64)

	actor := ledger.Actor{ID: userID}
	err := h.DB.QueryRow(
		"SELECT email, role FROM users WHERE id = ?", userID,
	).Scan(&actor.Email, &actor.Role)
	if err != nil {
		if err == sql.ErrNoRows {
			return actor, ledger.ErrNotFound
		}
		return actor, err
	}
	return actor, nil
}

// respondLedgerError maps the core error kinds onto HTTP statuses.
// Unknown errors become an opaque 500 — internals never leak to clients.
func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, ledger.ErrBelowMinimum):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrAlreadyDecided), errors.Is(err, ledger.ErrInsufficientFunds):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
