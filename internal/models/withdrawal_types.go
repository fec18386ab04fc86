package models

import "time"

// Withdrawal request statuses.
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
)

// Withdrawal terms: 20 coins = $1, and nothing under 200 coins
// may be requested.
const (
	CoinsPerDollar     = 20
	MinWithdrawalCoins = 200
)

// WithdrawalRequest is the model for the 'withdrawal_requests' table.
//
// Coins stay in the worker's balance until an admin approves; the request
// row is only a claim. WithdrawAmount is the dollar value, computed once
// at request time from WithdrawalCoin.
type WithdrawalRequest struct {
	ID             int64     `json:"id" db:"id"`
	WorkerID       int64     `json:"workerId" db:"worker_id"`
	WithdrawalCoin int64     `json:"withdrawal_coin" db:"withdrawal_coin"`
	WithdrawAmount float64   `json:"withdraw_amount" db:"withdraw_amount"`
	PaymentSystem  string    `json:"payment_system" db:"payment_system"`
	AccountNumber  string    `json:"account_number" db:"account_number"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`

	// Populated by JOINs in the admin queue view.
	WorkerName  string `json:"worker_name,omitempty" db:"-"`
	WorkerEmail string `json:"worker_email,omitempty" db:"-"`
}
