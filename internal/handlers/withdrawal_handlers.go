package handlers

import (
	"net/http"
	"strconv"

	"github.com/earnspherex/earnsphere-golang/internal/ledger"
	"github.com/earnspherex/earnsphere-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Worker: Withdrawal Handlers ---
//

// RequestWithdrawalInput is the JSON for POST /v1/withdrawals.
type RequestWithdrawalInput struct {
	WithdrawalCoin int64  `json:"withdrawal_coin" binding:"required,gt=0"`
	PaymentSystem  string `json:"payment_system" binding:"required"`
	AccountNumber  string `json:"account_number" binding:"required"`
}

// RequestWithdrawal is the handler for POST /v1/withdrawals.
func (h *Handlers) RequestWithdrawal(c *gin.Context) {
	var input RequestWithdrawalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, err := h.currentActor(c)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	request, err := h.Ledger.RequestWithdrawal(actor, ledger.RequestWithdrawalInput{
		WithdrawalCoin: input.WithdrawalCoin,
		PaymentSystem:  input.PaymentSystem,
		AccountNumber:  input.AccountNumber,
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Withdrawal request submitted successfully",
		"request": request,
	})
}

// GetMyWithdrawals is the handler for GET /v1/withdrawals — the worker's
// own request history, newest first.
func (h *Handlers) GetMyWithdrawals(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	query := `
		SELECT id, worker_id, withdrawal_coin, withdraw_amount,
		       payment_system, account_number, status, created_at, updated_at
		FROM withdrawal_requests
		WHERE worker_id = ?
		ORDER BY created_at DESC`

	rows, err := h.DB.Query(query, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	var requests []*models.WithdrawalRequest
	for rows.Next() {
		var req models.WithdrawalRequest
		if err := rows.Scan(
			&req.ID, &req.WorkerID, &req.WithdrawalCoin, &req.WithdrawAmount,
			&req.PaymentSystem, &req.AccountNumber, &req.Status,
			&req.CreatedAt, &req.UpdatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan withdrawal request"})
			return
		}
		requests = append(requests, &req)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating rows"})
		return
	}

	c.JSON(http.StatusOK, requests)
}

//
// --- Admin: Withdrawal Handlers ---
//

// GetWithdrawalRequests is the handler for GET /v1/withdrawal-requests.
// It retrieves all pending requests for admins to review, oldest first.
func (h *Handlers) GetWithdrawalRequests(c *gin.Context) {
	query := `
		SELECT wr.id, wr.worker_id, wr.withdrawal_coin, wr.withdraw_amount,
		       wr.payment_system, wr.account_number, wr.status,
		       wr.created_at, wr.updated_at,
		       u.full_name, u.email
		FROM withdrawal_requests wr
		JOIN users u ON wr.worker_id = u.id
		WHERE wr.status = ?
		ORDER BY wr.created_at ASC`

	rows, err := h.DB.Query(query, models.WithdrawalPending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	var requests []*models.WithdrawalRequest
	for rows.Next() {
		var req models.WithdrawalRequest
		if err := rows.Scan(
			&req.ID, &req.WorkerID, &req.WithdrawalCoin, &req.WithdrawAmount,
			&req.PaymentSystem, &req.AccountNumber, &req.Status,
			&req.CreatedAt, &req.UpdatedAt,
			&req.WorkerName, &req.WorkerEmail,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan withdrawal request"})
			return
		}
		requests = append(requests, &req)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating rows"})
		return
	}

	c.JSON(http.StatusOK, requests)
}

// ApproveWithdrawal is the handler for PATCH /v1/approve-withdrawal/:id.
// The ledger re-checks the worker's balance before debiting.
func (h *Handlers) ApproveWithdrawal(c *gin.Context) {
	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return
	}

	actor, err := h.currentActor(c)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	if err := h.Ledger.ApproveWithdrawal(actor, requestID); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Withdrawal approved successfully"})
}
