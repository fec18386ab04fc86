// Package ledger implements the task/coin lifecycle core: the coin ledger,
// the task, submission and withdrawal stores, and the coordinator that keeps
// them consistent.
//
// Every mutating operation is one method on Service. Each method opens a
// transaction, performs its authorization check, applies the paired ledger
// and counter updates, writes any notifications, and commits — or rolls the
// whole thing back. Coins are never created or destroyed inside an
// operation: a buyer's escrow debit is always matched by worker payouts plus
// the refund at deletion.
package ledger

import (
	"database/sql"

	"github.com/earnspherex/earnsphere-golang/internal/models"
)

// Service is the lifecycle coordinator. All balance mutations in the
// system go through its unexported credit/debit helpers.
type Service struct {
	DB *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// Actor identifies who is performing an operation. It is built from the
// authenticated request by the HTTP layer and passed explicitly — the
// service holds no ambient session state.
type Actor struct {
	ID    int64
	Email string
	Role  models.Role
}

// Querier is the common subset of *sql.DB and *sql.Tx we need for reads,
// so balance lookups work both inside and outside a transaction.
type Querier interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Balance returns a user's current coin balance.
func (s *Service) Balance(q Querier, userID int64) (int64, error) {
	var coins int64
	err := q.QueryRow("SELECT coins FROM users WHERE id = ?", userID).Scan(&coins)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return coins, nil
}
