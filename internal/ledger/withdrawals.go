package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/earnspherex/earnsphere-golang/internal/models"
)

//
// --- Withdrawal Store ---
//

// RequestWithdrawalInput is a worker's claim on their earned coins.
type RequestWithdrawalInput struct {
	WithdrawalCoin int64
	PaymentSystem  string
	AccountNumber  string
}

// RequestWithdrawal records a pending withdrawal request. The coins are
// NOT debited here — they stay in the worker's balance until an admin
// approves. That means overlapping requests can together exceed the
// balance; ApproveWithdrawal re-validates funds for exactly this reason.
func (s *Service) RequestWithdrawal(actor Actor, in RequestWithdrawalInput) (*models.WithdrawalRequest, error) {
	if actor.Role != models.RoleWorker {
		return nil, fmt.Errorf("%w: only workers withdraw coins", ErrForbidden)
	}
	if in.WithdrawalCoin < models.MinWithdrawalCoins {
		return nil, fmt.Errorf("%w: minimum withdrawal is %d coins", ErrBelowMinimum, models.MinWithdrawalCoins)
	}
	if in.PaymentSystem == "" || in.AccountNumber == "" {
		return nil, fmt.Errorf("%w: payment system and account number are required", ErrValidation)
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// The request-time funds check. This is a courtesy check, not the
	// guarantee — the authoritative check is the approval-time debit.
	balance, err := s.Balance(tx, actor.ID)
	if err != nil {
		return nil, err
	}
	if in.WithdrawalCoin > balance {
		return nil, ErrInsufficientFunds
	}

	withdrawAmount := float64(in.WithdrawalCoin) / models.CoinsPerDollar

	now := time.Now()
	res, err := tx.Exec(`
		INSERT INTO withdrawal_requests
		(worker_id, withdrawal_coin, withdraw_amount, payment_system,
		 account_number, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		actor.ID, in.WithdrawalCoin, withdrawAmount, in.PaymentSystem,
		in.AccountNumber, models.WithdrawalPending, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert withdrawal request: %w", err)
	}
	requestID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.WithdrawalRequest{
		ID:             requestID,
		WorkerID:       actor.ID,
		WithdrawalCoin: in.WithdrawalCoin,
		WithdrawAmount: withdrawAmount,
		PaymentSystem:  in.PaymentSystem,
		AccountNumber:  in.AccountNumber,
		Status:         models.WithdrawalPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ApproveWithdrawal flips a pending request to approved and debits the
// worker, in one transaction. The debit re-validates the balance: if the
// worker spent the coins (or another overlapping request was approved
// first), the debit fails with ErrInsufficientFunds and the whole approval
// rolls back, leaving the request pending.
func (s *Service) ApproveWithdrawal(actor Actor, requestID int64) error {
	if actor.Role != models.RoleAdmin {
		return fmt.Errorf("%w: only admins approve withdrawals", ErrForbidden)
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 1. --- Load the request ---
	var (
		workerID       int64
		withdrawalCoin int64
		withdrawAmount float64
		status         string
	)
	err = tx.QueryRow(`
		SELECT worker_id, withdrawal_coin, withdraw_amount, status
		FROM withdrawal_requests WHERE id = ?`,
		requestID,
	).Scan(&workerID, &withdrawalCoin, &withdrawAmount, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("withdrawal request %d: %w", requestID, ErrNotFound)
		}
		return err
	}
	if status != models.WithdrawalPending {
		return fmt.Errorf("withdrawal request %d: %w", requestID, ErrAlreadyDecided)
	}

	// 2. --- Claim the decision (CAS) ---
	res, err := tx.Exec(
		"UPDATE withdrawal_requests SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		models.WithdrawalApproved, time.Now(), requestID, models.WithdrawalPending,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("withdrawal request %d: %w", requestID, ErrAlreadyDecided)
	}

	// 3. --- Debit the worker (approval-time funds check) ---
	notes := fmt.Sprintf("Withdrawal of %d coins ($%.2f)", withdrawalCoin, withdrawAmount)
	if err := s.debit(tx, workerID, withdrawalCoin, "withdrawal", notes); err != nil {
		return err
	}

	// 4. --- Notify the worker ---
	msg := fmt.Sprintf("Your withdrawal of $%.2f has been approved.", withdrawAmount)
	if err := s.addNotification(tx, workerID, msg, "/dashboard/withdrawals"); err != nil {
		return err
	}

	return tx.Commit()
}
