package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/earnspherex/earnsphere-golang/internal/models"
)

//
// --- Task Store ---
//

// CreateTaskInput is everything a buyer supplies for a new task. Budget
// fields are validated here and frozen forever after.
type CreateTaskInput struct {
	Title           string
	Detail          string
	SubmissionInfo  string
	PayableAmount   int64
	RequiredWorkers int64
	TaskImageURL    string
	CompletionDate  time.Time
}

// CreateTask escrows payable_amount * required_workers from the buyer and
// persists the task, in one transaction. The debit and the insert commit
// together or not at all.
func (s *Service) CreateTask(actor Actor, in CreateTaskInput) (*models.Task, error) {
	if actor.Role != models.RoleBuyer {
		return nil, fmt.Errorf("%w: only buyers create tasks", ErrForbidden)
	}
	if in.PayableAmount <= 0 {
		return nil, fmt.Errorf("%w: payable_amount must be positive", ErrValidation)
	}
	if in.RequiredWorkers <= 0 {
		return nil, fmt.Errorf("%w: required_workers must be positive", ErrValidation)
	}
	if in.Title == "" || in.Detail == "" {
		return nil, fmt.Errorf("%w: title and detail are required", ErrValidation)
	}

	totalPayable := in.PayableAmount * in.RequiredWorkers

	tx, err := s.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// 1. --- Escrow the full budget up front ---
	notes := fmt.Sprintf("Escrow for task %q", in.Title)
	if err := s.debit(tx, actor.ID, totalPayable, "escrow", notes); err != nil {
		return nil, err
	}

	// 2. --- Persist the task ---
	now := time.Now()
	var imageURL sql.NullString
	if in.TaskImageURL != "" {
		imageURL = sql.NullString{String: in.TaskImageURL, Valid: true}
	}
	res, err := tx.Exec(`
		INSERT INTO tasks
		(buyer_id, title, detail, submission_info, payable_amount,
		 required_workers, no_of_completed, total_payable, task_image_url,
		 completion_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?)`,
		actor.ID, in.Title, in.Detail, in.SubmissionInfo, in.PayableAmount,
		in.RequiredWorkers, totalPayable, imageURL,
		in.CompletionDate, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	taskID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:              taskID,
		BuyerID:         actor.ID,
		Title:           in.Title,
		Detail:          in.Detail,
		SubmissionInfo:  in.SubmissionInfo,
		PayableAmount:   in.PayableAmount,
		RequiredWorkers: in.RequiredWorkers,
		TotalPayable:    totalPayable,
		CompletionDate:  in.CompletionDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return task, nil
}

// UpdateTaskInput holds the only fields a buyer may change after creation.
// payable_amount and required_workers are deliberately absent: the budget
// was escrowed at creation and editing it would break the accounting.
type UpdateTaskInput struct {
	Title          string
	Detail         string
	SubmissionInfo string
}

// UpdateTask edits the descriptive fields of a task. Only the owning buyer
// may update; admins manage tasks via deletion, not edits.
func (s *Service) UpdateTask(actor Actor, taskID int64, in UpdateTaskInput) error {
	if in.Title == "" || in.Detail == "" {
		return fmt.Errorf("%w: title and detail are required", ErrValidation)
	}

	var buyerID int64
	err := s.DB.QueryRow("SELECT buyer_id FROM tasks WHERE id = ?", taskID).Scan(&buyerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
		}
		return err
	}
	if buyerID != actor.ID {
		return fmt.Errorf("%w: you do not own this task", ErrForbidden)
	}

	_, err = s.DB.Exec(`
		UPDATE tasks
		SET title = ?, detail = ?, submission_info = ?, updated_at = ?
		WHERE id = ?`,
		in.Title, in.Detail, in.SubmissionInfo, time.Now(), taskID,
	)
	return err
}

// DeleteTask removes a task and returns the unused escrow to its buyer:
//
//	refund = payable_amount * (required_workers + pending submissions)
//
// required_workers already reflects every approval, and each pending
// submission was pre-funded by the escrow but can no longer be approved
// once the task is gone — so both slots come back. The pending count, the
// refund, the orphan rejection and the delete all happen inside one
// transaction, so the count can never race the deletion.
//
// Allowed for the owning buyer or an admin. Returns the refunded amount.
func (s *Service) DeleteTask(actor Actor, taskID int64) (int64, error) {
	tx, err := s.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// 1. --- Load the task and check ownership ---
	var (
		buyerID         int64
		payableAmount   int64
		requiredWorkers int64
		title           string
	)
	err = tx.QueryRow(
		"SELECT buyer_id, payable_amount, required_workers, title FROM tasks WHERE id = ?",
		taskID,
	).Scan(&buyerID, &payableAmount, &requiredWorkers, &title)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("task %d: %w", taskID, ErrNotFound)
		}
		return 0, err
	}
	if buyerID != actor.ID && actor.Role != models.RoleAdmin {
		return 0, fmt.Errorf("%w: you do not own this task", ErrForbidden)
	}

	// 2. --- Collect still-pending submissions (transactionally) ---
	rows, err := tx.Query(
		"SELECT worker_id FROM submissions WHERE task_id = ? AND status = ?",
		taskID, models.SubmissionPending,
	)
	if err != nil {
		return 0, err
	}
	var pendingWorkers []int64
	for rows.Next() {
		var workerID int64
		if err := rows.Scan(&workerID); err != nil {
			rows.Close()
			return 0, err
		}
		pendingWorkers = append(pendingWorkers, workerID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	// 3. --- Close the orphans ---
	// A submission against a deleted task can never be approved, so it is
	// rejected here rather than left dangling.
	_, err = tx.Exec(
		"UPDATE submissions SET status = ? WHERE task_id = ? AND status = ?",
		models.SubmissionRejected, taskID, models.SubmissionPending,
	)
	if err != nil {
		return 0, err
	}

	// 4. --- Refund the unused escrow ---
	refund := payableAmount * (requiredWorkers + int64(len(pendingWorkers)))
	notes := fmt.Sprintf("Refund for deleted task %q", title)
	if err := s.credit(tx, buyerID, refund, "refund", notes); err != nil {
		return 0, err
	}

	// 5. --- Remove the task ---
	if _, err := tx.Exec("DELETE FROM tasks WHERE id = ?", taskID); err != nil {
		return 0, err
	}

	// 6. --- Tell the affected workers ---
	for _, workerID := range pendingWorkers {
		msg := fmt.Sprintf("The task %q was deleted by its buyer. Your pending submission has been closed.", title)
		if err := s.addNotification(tx, workerID, msg, "/dashboard/my-submission"); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return refund, nil
}
