package models

import "time"

// Task is the model for the 'tasks' table.
//
// PayableAmount and RequiredWorkers are fixed at creation: together they
// define TotalPayable, the escrow debited from the buyer up front. Each
// approval decrements RequiredWorkers and increments NoOfCompleted, so
// PayableAmount * RequiredWorkers is always the escrow still reserved.
type Task struct {
	ID              int64     `json:"id" db:"id"`
	BuyerID         int64     `json:"buyerId" db:"buyer_id"`
	Title           string    `json:"task_title" db:"title"`
	Detail          string    `json:"task_detail" db:"detail"`
	SubmissionInfo  string    `json:"submission_info" db:"submission_info"`
	PayableAmount   int64     `json:"payable_amount" db:"payable_amount"`
	RequiredWorkers int64     `json:"required_workers" db:"required_workers"`
	NoOfCompleted   int64     `json:"no_of_completed" db:"no_of_completed"`
	TotalPayable    int64     `json:"total_payable" db:"total_payable"`
	TaskImageURL    *string   `json:"task_image_url,omitempty" db:"task_image_url"`
	CompletionDate  time.Time `json:"completion_date" db:"completion_date"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`

	// Populated by JOINs in list handlers, not stored on the row.
	BuyerName  string `json:"buyer_name,omitempty" db:"-"`
	BuyerEmail string `json:"created_by,omitempty" db:"-"`
}
