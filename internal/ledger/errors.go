package ledger

import "errors"

// Error kinds for the lifecycle core. Handlers translate these into HTTP
// statuses with errors.Is; the service never hides one behind a success.
var (
	// ErrInsufficientFunds: a debit would push a balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotFound: the referenced task/submission/withdrawal/user is gone.
	ErrNotFound = errors.New("not found")

	// ErrForbidden: the actor is not the owner and not an admin.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyDecided: the submission/withdrawal is no longer pending.
	ErrAlreadyDecided = errors.New("already decided")

	// ErrBelowMinimum: withdrawal requested under the 200 coin floor.
	ErrBelowMinimum = errors.New("below minimum withdrawal")

	// ErrValidation: malformed input (non-positive amounts, bad role, ...).
	ErrValidation = errors.New("validation failed")
)
