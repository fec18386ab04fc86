package models

import (
	"database/sql"
	"time"
)

// CoinTransaction is the model for the 'coin_transactions' table, the
// append-only audit trail behind every balance change. Amount is positive
// for credits and negative for debits; BalanceAfter is the user's balance
// once this row applied.
type CoinTransaction struct {
	ID           int64          `json:"id" db:"id"`
	UserID       int64          `json:"userId" db:"user_id"`
	Type         string         `json:"type" db:"type"` // e.g. escrow, payout, refund, withdrawal, purchase
	Amount       int64          `json:"amount" db:"amount"`
	BalanceAfter int64          `json:"balanceAfter" db:"balance_after"`
	Notes        sql.NullString `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
}

// Payment is the model for the 'payments' table: one row per completed
// coin purchase. The gateway capture happens outside this system; we store
// the opaque reference it returned plus our own receipt id.
type Payment struct {
	ID            int64     `json:"id" db:"id"`
	UserID        int64     `json:"userId" db:"user_id"`
	Coins         int64     `json:"coins" db:"coins"`
	AmountUSD     float64   `json:"amount" db:"amount_usd"`
	TransactionID string    `json:"transactionId" db:"transaction_id"`
	GatewayRef    string    `json:"gatewayRef,omitempty" db:"gateway_ref"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// CoinPackage is a purchasable bundle. The catalogue is fixed in code.
type CoinPackage struct {
	Coins    int64   `json:"coins"`
	PriceUSD float64 `json:"price"`
}
