package models

import (
	"database/sql"
	"time"
)

// Submission statuses. Pending submissions are the only ones a
// buyer can act on; approved/rejected are terminal.
const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// Submission is the model for the 'submissions' table.
//
// TaskTitle, PayableAmount and BuyerID are snapshots taken when the worker
// submits. They survive later task edits (title changes never alter what a
// worker is owed) and task deletion (the row must stay renderable in the
// worker's history after the task is gone).
type Submission struct {
	ID            int64          `json:"id" db:"id"`
	TaskID        int64          `json:"task_id" db:"task_id"`
	WorkerID      int64          `json:"workerId" db:"worker_id"`
	BuyerID       int64          `json:"buyerId" db:"buyer_id"`
	TaskTitle     string         `json:"task_title" db:"task_title"`
	PayableAmount int64          `json:"payable_amount" db:"payable_amount"`
	Details       string         `json:"submission_details" db:"details"`
	ProofURL      sql.NullString `json:"submission_image,omitempty" db:"proof_url"`
	Status        string         `json:"status" db:"status"`
	CreatedAt     time.Time      `json:"current_date" db:"created_at"`

	// Populated by JOINs in list handlers.
	WorkerName  string `json:"worker_name,omitempty" db:"-"`
	WorkerEmail string `json:"worker_email,omitempty" db:"-"`
	BuyerName   string `json:"buyer_name,omitempty" db:"-"`
	BuyerEmail  string `json:"buyer_email,omitempty" db:"-"`
}
