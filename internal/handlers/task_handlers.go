package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/earnspherex/earnsphere-golang/internal/ledger"
	"github.com/earnspherex/earnsphere-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Task Handlers ---
//

// CreateTaskInput is the JSON a buyer posts to create a task.
type CreateTaskInput struct {
	TaskTitle       string `json:"task_title" binding:"required"`
	TaskDetail      string `json:"task_detail" binding:"required"`
	SubmissionInfo  string `json:"submission_info"`
	PayableAmount   int64  `json:"payable_amount" binding:"required,gt=0"`
	RequiredWorkers int64  `json:"required_workers" binding:"required,gt=0"`
	TaskImageURL    string `json:"task_image_url"`
	CompletionDate  string `json:"completion_date" binding:"required"`
}

// CreateTask is the handler for POST /v1/tasks. The escrow debit happens
// server-side inside the ledger — the client never patches coin balances.
func (h *Handlers) CreateTask(c *gin.Context) {
	var input CreateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	completionDate, err := time.Parse(time.RFC3339, input.CompletionDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "completion_date must be RFC3339"})
		return
	}

	actor, err := h.currentActor(c)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	task, err := h.Ledger.CreateTask(actor, ledger.CreateTaskInput{
		Title:           input.TaskTitle,
		Detail:          input.TaskDetail,
		SubmissionInfo:  input.SubmissionInfo,
		PayableAmount:   input.PayableAmount,
		RequiredWorkers: input.RequiredWorkers,
		TaskImageURL:    input.TaskImageURL,
		CompletionDate:  completionDate,
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"task":    task,
	})
}

// scanTaskRows scans a task list query that JOINs the buyer.
func scanTaskRows(rows *sql.Rows) ([]*models.Task, error) {
	var tasks []*models.Task
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(
			&task.ID,
			&task.BuyerID,
			&task.Title,
			&task.Detail,
			&task.SubmissionInfo,
			&task.PayableAmount,
			&task.RequiredWorkers,
			&task.NoOfCompleted,
			&task.TotalPayable,
			&task.TaskImageURL,
			&task.CompletionDate,
			&task.CreatedAt,
			&task.UpdatedAt,
			&task.BuyerName,
			&task.BuyerEmail,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, &task)
	}
	return tasks, rows.Err()
}

const taskSelectColumns = `
	t.id, t.buyer_id, t.title, t.detail, t.submission_info,
	t.payable_amount, t.required_workers, t.no_of_completed,
	t.total_payable, t.task_image_url, t.completion_date,
	t.created_at, t.updated_at,
	u.full_name, u.email`

// GetOpenTasks is the handler for GET /v1/tasks.
// Workers browse tasks that still have open slots, newest first.
func (h *Handlers) GetOpenTasks(c *gin.Context) {
	query := `
		SELECT ` + taskSelectColumns + `
		FROM tasks t
		JOIN users u ON t.buyer_id = u.id
		WHERE t.required_workers > 0
		ORDER BY t.created_at DESC`

	rows, err := h.DB.Query(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	tasks, err := scanTaskRows(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan task rows"})
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// GetMyTasks is the handler for GET /v1/tasks/mine (buyer's own tasks).
func (h *Handlers) GetMyTasks(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	query := `
		SELECT ` + taskSelectColumns + `
		FROM tasks t
		JOIN users u ON t.buyer_id = u.id
		WHERE t.buyer_id = ?
		ORDER BY t.created_at DESC`

	rows, err := h.DB.Query(query, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	tasks, err := scanTaskRows(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan task rows"})
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// GetTaskDetails is the handler for GET /v1/tasks/work/:id.
func (h *Handlers) GetTaskDetails(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task id"})
		return
	}

	query := `
		SELECT ` + taskSelectColumns + `
		FROM tasks t
		JOIN users u ON t.buyer_id = u.id
		WHERE t.id = ?`

	var task models.Task
	err = h.DB.QueryRow(query, taskID).Scan(
		&task.ID,
		&task.BuyerID,
		&task.Title,
		&task.Detail,
		&task.SubmissionInfo,
		&task.PayableAmount,
		&task.RequiredWorkers,
		&task.NoOfCompleted,
		&task.TotalPayable,
		&task.TaskImageURL,
		&task.CompletionDate,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.BuyerName,
		&task.BuyerEmail,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	c.JSON(http.StatusOK, task)
}

// UpdateTaskInput is the JSON for PATCH /v1/tasks/:id. Only descriptive
// fields — budget fields are rejected by omission.
type UpdateTaskInput struct {
	TaskTitle      string `json:"task_title" binding:"required"`
	TaskDetail     string `json:"task_detail" binding:"required"`
	SubmissionInfo string `json:"submission_info"`
}

// UpdateTask is the handler for PATCH /v1/tasks/:id.
func (h *Handlers) UpdateTask(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task id"})
		return
	}

	var input UpdateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, err := h.currentActor(c)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	err = h.Ledger.UpdateTask(actor, taskID, ledger.UpdateTaskInput{
		Title:          input.TaskTitle,
		Detail:         input.TaskDetail,
		SubmissionInfo: input.SubmissionInfo,
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task updated successfully"})
}

// DeleteTask is the handler for DELETE /v1/tasks/:id (buyer) and
// DELETE /v1/admin/tasks/:id (admin) — the ledger authorizes either.
func (h *Handlers) DeleteTask(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task id"})
		return
	}

	actor, err := h.currentActor(c)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	refund, err := h.Ledger.DeleteTask(actor, taskID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Task deleted successfully",
		"refundAmount": refund,
	})
}

// AdminGetTasks is the handler for GET /v1/admin/tasks — every task on
// the platform, including ones with no open slots.
func (h *Handlers) AdminGetTasks(c *gin.Context) {
	query := `
		SELECT ` + taskSelectColumns + `
		FROM tasks t
		JOIN users u ON t.buyer_id = u.id
		ORDER BY t.created_at DESC`

	rows, err := h.DB.Query(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	tasks, err := scanTaskRows(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan task rows"})
		return
	}

	c.JSON(http.StatusOK, tasks)
}
