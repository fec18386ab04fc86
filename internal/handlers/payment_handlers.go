package handlers

import (
	"net/http"

	"github.com/earnspherex/earnsphere-golang/internal/ledger"
	"github.com/earnspherex/earnsphere-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Coin Purchase Handlers ---
//

// GetCoinPackages is the handler for GET /v1/coin-packages.
func (h *Handlers) GetCoinPackages(c *gin.Context) {
	c.JSON(http.StatusOK, ledger.CoinPackages)
}

// PurchaseCoinsInput is the JSON for POST /v1/payments. GatewayRef is
// whatever opaque reference the external payment gateway returned after
// capturing the charge.
type PurchaseCoinsInput struct {
	Coins      int64  `json:"coins" binding:"required,gt=0"`
	GatewayRef string `json:"gatewayRef" binding:"required"`
}

// PurchaseCoins is the handler for POST /v1/payments.
func (h *Handlers) PurchaseCoins(c *gin.Context) {
	var input PurchaseCoinsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, err := h.currentActor(c)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	payment, err := h.Ledger.PurchaseCoins(actor, input.Coins, input.GatewayRef)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Payment recorded and coins credited",
		"payment": payment,
	})
}

// GetPaymentHistory is the handler for GET /v1/payments.
func (h *Handlers) GetPaymentHistory(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	query := `
		SELECT id, user_id, coins, amount_usd, transaction_id, gateway_ref, created_at
		FROM payments
		WHERE user_id = ?
		ORDER BY created_at DESC`

	rows, err := h.DB.Query(query, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Coins, &p.AmountUSD,
			&p.TransactionID, &p.GatewayRef, &p.CreatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan payment row"})
			return
		}
		payments = append(payments, &p)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating payment rows"})
		return
	}

	c.JSON(http.StatusOK, payments)
}

// GetCoinTransactions is the handler for GET /v1/coin-transactions —
// the caller's audit trail of balance changes, newest first.
func (h *Handlers) GetCoinTransactions(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	query := `
		SELECT id, user_id, type, amount, balance_after, notes, created_at
		FROM coin_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT 100`

	rows, err := h.DB.Query(query, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	var entries []*models.CoinTransaction
	for rows.Next() {
		var entry models.CoinTransaction
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Type, &entry.Amount,
			&entry.BalanceAfter, &entry.Notes, &entry.CreatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan transaction row"})
			return
		}
		entries = append(entries, &entry)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating transaction rows"})
		return
	}

	c.JSON(http.StatusOK, entries)
}
