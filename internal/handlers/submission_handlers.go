package handlers

import (
	"net/http"
	"strconv"

	"github.com/earnspherex/earnsphere-golang/internal/ledger"
	"github.com/earnspherex/earnsphere-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Submission Handlers ---
//

// SubmitTaskInput is the JSON for POST /v1/task-submissions.
type SubmitTaskInput struct {
	TaskID            int64  `json:"task_id" binding:"required"`
	SubmissionDetails string `json:"submission_details" binding:"required"`
	SubmissionImage   string `json:"submission_image"`
}

// SubmitTask is the handler for POST /v1/task-submissions.
func (h *Handlers) SubmitTask(c *gin.Context) {
	var input SubmitTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, err := h.currentActor(c)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	submission, err := h.Ledger.SubmitTask(actor, ledger.SubmitTaskInput{
		TaskID:   input.TaskID,
		Details:  input.SubmissionDetails,
		ProofURL: input.SubmissionImage,
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Submission received, pending review",
		"submission": submission,
	})
}

// GetMySubmissions is the handler for GET /v1/worker-submissions.
// Paginated: ?page=1&limit=10.
func (h *Handlers) GetMySubmissions(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	var total int
	err := h.DB.QueryRow(
		"SELECT COUNT(*) FROM submissions WHERE worker_id = ?", userID,
	).Scan(&total)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	// Buyer name/email come off the users table; the submission row keeps
	// working even if the buyer account is later removed (LEFT JOIN).
	query := `
		SELECT s.id, s.task_id, s.worker_id, s.buyer_id, s.task_title,
		       s.payable_amount, s.details, s.proof_url, s.status, s.created_at,
		       COALESCE(u.full_name, ''), COALESCE(u.email, '')
		FROM submissions s
		LEFT JOIN users u ON s.buyer_id = u.id
		WHERE s.worker_id = ?
		ORDER BY s.created_at DESC
		LIMIT ? OFFSET ?`

	rows, err := h.DB.Query(query, userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	var submissions []*models.Submission
	for rows.Next() {
		var sub models.Submission
		if err := rows.Scan(
			&sub.ID, &sub.TaskID, &sub.WorkerID, &sub.BuyerID, &sub.TaskTitle,
			&sub.PayableAmount, &sub.Details, &sub.ProofURL, &sub.Status, &sub.CreatedAt,
			&sub.BuyerName, &sub.BuyerEmail,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan submission row"})
			return
		}
		submissions = append(submissions, &sub)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating submission rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": submissions,
		"total":       total,
		"page":        page,
		"limit":       limit,
	})
}

// GetApprovedSubmissions is the handler for GET /v1/approved-submissions —
// the worker's earnings history.
func (h *Handlers) GetApprovedSubmissions(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	query := `
		SELECT s.id, s.task_id, s.worker_id, s.buyer_id, s.task_title,
		       s.payable_amount, s.details, s.proof_url, s.status, s.created_at,
		       COALESCE(u.full_name, ''), COALESCE(u.email, '')
		FROM submissions s
		LEFT JOIN users u ON s.buyer_id = u.id
		WHERE s.worker_id = ? AND s.status = ?
		ORDER BY s.created_at DESC`

	rows, err := h.DB.Query(query, userID, models.SubmissionApproved)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	var submissions []*models.Submission
	for rows.Next() {
		var sub models.Submission
		if err := rows.Scan(
			&sub.ID, &sub.TaskID, &sub.WorkerID, &sub.BuyerID, &sub.TaskTitle,
			&sub.PayableAmount, &sub.Details, &sub.ProofURL, &sub.Status, &sub.CreatedAt,
			&sub.BuyerName, &sub.BuyerEmail,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan submission row"})
			return
		}
		submissions = append(submissions, &sub)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating submission rows"})
		return
	}

	c.JSON(http.StatusOK, submissions)
}

// GetPendingSubmissions is the handler for GET /v1/pending-submissions —
// the buyer's review queue, oldest first.
func (h *Handlers) GetPendingSubmissions(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	query := `
		SELECT s.id, s.task_id, s.worker_id, s.buyer_id, s.task_title,
		       s.payable_amount, s.details, s.proof_url, s.status, s.created_at,
		       u.full_name, u.email
		FROM submissions s
		JOIN users u ON s.worker_id = u.id
		WHERE s.buyer_id = ? AND s.status = ?
		ORDER BY s.created_at ASC`

	rows, err := h.DB.Query(query, userID, models.SubmissionPending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	var submissions []*models.Submission
	for rows.Next() {
		var sub models.Submission
		if err := rows.Scan(
			&sub.ID, &sub.TaskID, &sub.WorkerID, &sub.BuyerID, &sub.TaskTitle,
			&sub.PayableAmount, &sub.Details, &sub.ProofURL, &sub.Status, &sub.CreatedAt,
			&sub.WorkerName, &sub.WorkerEmail,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan submission row"})
			return
		}
		submissions = append(submissions, &sub)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating submission rows"})
		return
	}

	c.JSON(http.StatusOK, submissions)
}

// ApproveSubmission is the handler for PATCH /v1/approve-submission/:id.
func (h *Handlers) ApproveSubmission(c *gin.Context) {
	submissionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission id"})
		return
	}

	actor, err := h.currentActor(c)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	if err := h.Ledger.ApproveSubmission(actor, submissionID); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Submission approved and worker paid"})
}

// RejectSubmission is the handler for PATCH /v1/reject-submission/:id.
func (h *Handlers) RejectSubmission(c *gin.Context) {
	submissionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission id"})
		return
	}

	actor, err := h.currentActor(c)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	if err := h.Ledger.RejectSubmission(actor, submissionID); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Submission rejected"})
}
