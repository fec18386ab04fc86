package ledger

import (
	"database/sql"
	"fmt"
	"time"
)

//
// --- Coin Ledger Core ---
//
// credit and debit are the only two functions in the codebase that touch
// the users.coins column. Both MUST be called from within a transaction
// owned by a lifecycle operation, and both append an audit row to
// coin_transactions so every balance can be replayed from its history.
//

// credit atomically increments a user's balance. A zero amount is a no-op,
// not an error; a negative amount is a validation failure (debits must be
// explicit).
func (s *Service) credit(tx *sql.Tx, userID int64, amount int64, txType, notes string) error {
	if amount < 0 {
		return fmt.Errorf("%w: credit amount must be >= 0", ErrValidation)
	}
	if amount == 0 {
		return nil
	}

	res, err := tx.Exec(
		"UPDATE users SET coins = coins + ?, updated_at = ? WHERE id = ?",
		amount, time.Now(), userID,
	)
	if err != nil {
		return fmt.Errorf("credit user %d: %w", userID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("credit user %d: %w", userID, ErrNotFound)
	}

	return s.recordEntry(tx, userID, txType, amount, notes)
}

// debit atomically decrements a user's balance. The conditional UPDATE is
// the guarantee that a balance can never go negative: if the user lacks the
// coins, zero rows match and nothing is written.
func (s *Service) debit(tx *sql.Tx, userID int64, amount int64, txType, notes string) error {
	if amount < 0 {
		return fmt.Errorf("%w: debit amount must be >= 0", ErrValidation)
	}
	if amount == 0 {
		return nil
	}

	res, err := tx.Exec(
		"UPDATE users SET coins = coins - ?, updated_at = ? WHERE id = ? AND coins >= ?",
		amount, time.Now(), userID, amount,
	)
	if err != nil {
		return fmt.Errorf("debit user %d: %w", userID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Distinguish a missing user from a short balance.
		if _, err := s.Balance(tx, userID); err != nil {
			return fmt.Errorf("debit user %d: %w", userID, err)
		}
		return ErrInsufficientFunds
	}

	return s.recordEntry(tx, userID, txType, -amount, notes)
}

// recordEntry appends the audit row for a balance change that has already
// been applied inside tx. Amount is signed: positive credit, negative debit.
func (s *Service) recordEntry(tx *sql.Tx, userID int64, txType string, amount int64, notes string) error {
	balanceAfter, err := s.Balance(tx, userID)
	if err != nil {
		return fmt.Errorf("record entry for user %d: %w", userID, err)
	}

	var nullNotes sql.NullString
	if notes != "" {
		nullNotes = sql.NullString{String: notes, Valid: true}
	}

	_, err = tx.Exec(`
		INSERT INTO coin_transactions
		(user_id, type, amount, balance_after, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, txType, amount, balanceAfter, nullNotes, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record coin transaction: %w", err)
	}
	return nil
}
