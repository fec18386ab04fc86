package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/earnspherex/earnsphere-golang/internal/models"
)

//
// --- Submission Store ---
//

// SubmitTaskInput is a worker's claim of completed work.
type SubmitTaskInput struct {
	TaskID   int64
	Details  string
	ProofURL string
}

// SubmitTask creates a pending submission. The task's title, payable
// amount and buyer are snapshotted onto the row: later task edits must not
// change what this worker will be paid, and the row must outlive the task.
// No coins move here — payment is deferred until approval.
func (s *Service) SubmitTask(actor Actor, in SubmitTaskInput) (*models.Submission, error) {
	if actor.Role != models.RoleWorker {
		return nil, fmt.Errorf("%w: only workers submit tasks", ErrForbidden)
	}
	if in.Details == "" {
		return nil, fmt.Errorf("%w: submission details are required", ErrValidation)
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// 1. --- Load the task snapshot fields ---
	var (
		buyerID         int64
		title           string
		payableAmount   int64
		requiredWorkers int64
	)
	err = tx.QueryRow(
		"SELECT buyer_id, title, payable_amount, required_workers FROM tasks WHERE id = ?",
		in.TaskID,
	).Scan(&buyerID, &title, &payableAmount, &requiredWorkers)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("task %d: %w", in.TaskID, ErrNotFound)
		}
		return nil, err
	}
	if requiredWorkers <= 0 {
		return nil, fmt.Errorf("%w: this task has no open worker slots", ErrValidation)
	}

	// 2. --- Insert the pending submission ---
	var proofURL sql.NullString
	if in.ProofURL != "" {
		proofURL = sql.NullString{String: in.ProofURL, Valid: true}
	}
	now := time.Now()
	res, err := tx.Exec(`
		INSERT INTO submissions
		(task_id, worker_id, buyer_id, task_title, payable_amount,
		 details, proof_url, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.TaskID, actor.ID, buyerID, title, payableAmount,
		in.Details, proofURL, models.SubmissionPending, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert submission: %w", err)
	}
	submissionID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.Submission{
		ID:            submissionID,
		TaskID:        in.TaskID,
		WorkerID:      actor.ID,
		BuyerID:       buyerID,
		TaskTitle:     title,
		PayableAmount: payableAmount,
		Details:       in.Details,
		ProofURL:      proofURL,
		Status:        models.SubmissionPending,
		CreatedAt:     now,
	}, nil
}

// submissionForReview is the slice of a submission row a decision needs.
type submissionForReview struct {
	ID            int64
	TaskID        int64
	WorkerID      int64
	BuyerID       int64
	TaskTitle     string
	PayableAmount int64
	Status        string
}

// loadForReview fetches a submission inside tx and checks that the actor
// may decide on it (the task's buyer or an admin).
func loadForReview(tx *sql.Tx, actor Actor, submissionID int64) (*submissionForReview, error) {
	var sub submissionForReview
	err := tx.QueryRow(`
		SELECT id, task_id, worker_id, buyer_id, task_title, payable_amount, status
		FROM submissions WHERE id = ?`,
		submissionID,
	).Scan(&sub.ID, &sub.TaskID, &sub.WorkerID, &sub.BuyerID,
		&sub.TaskTitle, &sub.PayableAmount, &sub.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("submission %d: %w", submissionID, ErrNotFound)
		}
		return nil, err
	}
	if actor.ID != sub.BuyerID && actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: this submission is not yours to review", ErrForbidden)
	}
	return &sub, nil
}

// decide flips a submission from pending to the given status with a
// compare-and-set UPDATE. Zero rows affected means somebody decided first:
// concurrent approve/reject calls race here and exactly one wins.
func decide(tx *sql.Tx, submissionID int64, status string) error {
	res, err := tx.Exec(
		"UPDATE submissions SET status = ? WHERE id = ? AND status = ?",
		status, submissionID, models.SubmissionPending,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("submission %d: %w", submissionID, ErrAlreadyDecided)
	}
	return nil
}

// ApproveSubmission is the only path by which a worker is ever paid.
// In one transaction it flips the submission to approved, pays the worker
// the snapshotted payable_amount, and moves one escrow slot off the task
// (required_workers-1, no_of_completed+1). If any step fails the whole
// approval rolls back: a paid worker with an undecremented slot count
// cannot exist.
func (s *Service) ApproveSubmission(actor Actor, submissionID int64) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sub, err := loadForReview(tx, actor, submissionID)
	if err != nil {
		return err
	}
	if sub.Status != models.SubmissionPending {
		return fmt.Errorf("submission %d: %w", submissionID, ErrAlreadyDecided)
	}

	// 1. --- Claim the decision (CAS) ---
	if err := decide(tx, submissionID, models.SubmissionApproved); err != nil {
		return err
	}

	// 2. --- Consume one escrow slot on the task ---
	// The required_workers > 0 guard means a task whose slots are all used
	// up cannot approve further submissions; the buyer can only reject.
	res, err := tx.Exec(`
		UPDATE tasks
		SET required_workers = required_workers - 1,
		    no_of_completed = no_of_completed + 1,
		    updated_at = ?
		WHERE id = ? AND required_workers > 0`,
		time.Now(), sub.TaskID,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: task has no remaining worker slots", ErrValidation)
	}

	// 3. --- Pay the worker the snapshotted amount ---
	notes := fmt.Sprintf("Payout for approved submission on %q", sub.TaskTitle)
	if err := s.credit(tx, sub.WorkerID, sub.PayableAmount, "payout", notes); err != nil {
		return err
	}

	// 4. --- Notify the worker ---
	msg := fmt.Sprintf("You have earned %d coins for completing %q.", sub.PayableAmount, sub.TaskTitle)
	if err := s.addNotification(tx, sub.WorkerID, msg, "/dashboard/approved-tasks"); err != nil {
		return err
	}

	return tx.Commit()
}

// RejectSubmission flips a pending submission to rejected. No coins move:
// the escrowed slot stays with the task, available to a future worker or
// refunded when the task is deleted.
func (s *Service) RejectSubmission(actor Actor, submissionID int64) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sub, err := loadForReview(tx, actor, submissionID)
	if err != nil {
		return err
	}
	if sub.Status != models.SubmissionPending {
		return fmt.Errorf("submission %d: %w", submissionID, ErrAlreadyDecided)
	}

	if err := decide(tx, submissionID, models.SubmissionRejected); err != nil {
		return err
	}

	msg := fmt.Sprintf("Your submission for %q was rejected.", sub.TaskTitle)
	if err := s.addNotification(tx, sub.WorkerID, msg, "/dashboard/my-submission"); err != nil {
		return err
	}

	return tx.Commit()
}
