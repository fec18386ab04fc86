package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/earnspherex/earnsphere-golang/internal/models"
)

//
// --- Registration & Coin Adjustments ---
//
// User creation lives in the ledger because the signup bonus is a real
// balance change and must leave an audit trail like every other one.
//

// RegisterUserInput carries a validated registration. PasswordHash is
// already bcrypt-hashed by the caller.
type RegisterUserInput struct {
	FullName     string
	Email        string
	PasswordHash string
	PhotoURL     string
	Role         models.Role
}

// RegisterUser inserts the account and seeds its starting coins
// (worker 10, buyer 50) through the ledger. Admin accounts cannot be
// self-registered; they are promoted by an existing admin.
func (s *Service) RegisterUser(in RegisterUserInput) (*models.User, error) {
	if in.Role != models.RoleWorker && in.Role != models.RoleBuyer {
		return nil, fmt.Errorf("%w: role must be worker or buyer", ErrValidation)
	}
	if in.Email == "" || in.FullName == "" || in.PasswordHash == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}

	initialCoins := int64(models.InitialWorkerCoins)
	if in.Role == models.RoleBuyer {
		initialCoins = models.InitialBuyerCoins
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var photoURL sql.NullString
	if in.PhotoURL != "" {
		photoURL = sql.NullString{String: in.PhotoURL, Valid: true}
	}

	now := time.Now()
	res, err := tx.Exec(`
		INSERT INTO users
		(role, email, password_hash, full_name, photo_url, coins, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		string(in.Role), in.Email, in.PasswordHash, in.FullName, photoURL, now, now,
	)
	if err != nil {
		// Unique index violation on email — surface it as a validation
		// failure instead of a 500.
		if strings.Contains(strings.ToLower(err.Error()), "unique") ||
			strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			return nil, fmt.Errorf("%w: an account with this email already exists", ErrValidation)
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := s.credit(tx, userID, initialCoins, "signup", "Welcome bonus"); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:        userID,
		Role:      in.Role,
		Email:     in.Email,
		FullName:  in.FullName,
		Coins:     initialCoins,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.PhotoURL != "" {
		user.PhotoURL = &in.PhotoURL
	}
	return user, nil
}

// AdminAdjustCoins applies a manual signed balance change to a user.
// Positive delta credits, negative debits (which can still fail with
// ErrInsufficientFunds — an admin cannot push a balance negative either).
// Returns the new balance.
func (s *Service) AdminAdjustCoins(actor Actor, userID int64, delta int64, note string) (int64, error) {
	if actor.Role != models.RoleAdmin {
		return 0, fmt.Errorf("%w: only admins adjust balances", ErrForbidden)
	}
	if delta == 0 {
		return 0, fmt.Errorf("%w: adjustment amount must be non-zero", ErrValidation)
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if note == "" {
		note = fmt.Sprintf("Manual adjustment by admin %s", actor.Email)
	}
	if delta > 0 {
		err = s.credit(tx, userID, delta, "adjustment", note)
	} else {
		err = s.debit(tx, userID, -delta, "adjustment", note)
	}
	if err != nil {
		return 0, err
	}

	balance, err := s.Balance(tx, userID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}
