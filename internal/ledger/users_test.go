package ledger

import (
	"testing"

	"github.com/earnspherex/earnsphere-golang/internal/models"
	"github.com/stretchr/testify/require"
)

func TestRegisterUserSeedsStartingCoins(t *testing.T) {
	s := newTestService(t)

	worker, err := s.RegisterUser(RegisterUserInput{
		FullName:     "Ayesha Rahman",
		Email:        "ayesha@example.com",
		PasswordHash: "bcrypt-hash",
		Role:         models.RoleWorker,
	})
	require.NoError(t, err)
	require.Equal(t, int64(models.InitialWorkerCoins), worker.Coins)
	require.Equal(t, int64(10), balanceOf(t, s, worker.ID))

	buyer, err := s.RegisterUser(RegisterUserInput{
		FullName:     "Tanvir Hasan",
		Email:        "tanvir@example.com",
		PasswordHash: "bcrypt-hash",
		Role:         models.RoleBuyer,
	})
	require.NoError(t, err)
	require.Equal(t, int64(50), balanceOf(t, s, buyer.ID))

	// The signup bonus is audited like any other balance change.
	var txType string
	var amount int64
	require.NoError(t, s.DB.QueryRow(
		"SELECT type, amount FROM coin_transactions WHERE user_id = ?", worker.ID,
	).Scan(&txType, &amount))
	require.Equal(t, "signup", txType)
	require.Equal(t, int64(10), amount)
}

func TestRegisterUserRejectsAdminRole(t *testing.T) {
	s := newTestService(t)

	_, err := s.RegisterUser(RegisterUserInput{
		FullName:     "Sneaky",
		Email:        "sneaky@example.com",
		PasswordHash: "bcrypt-hash",
		Role:         models.RoleAdmin,
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestRegisterUserDuplicateEmail(t *testing.T) {
	s := newTestService(t)

	in := RegisterUserInput{
		FullName:     "First",
		Email:        "dup@example.com",
		PasswordHash: "bcrypt-hash",
		Role:         models.RoleWorker,
	}
	_, err := s.RegisterUser(in)
	require.NoError(t, err)

	in.FullName = "Second"
	_, err = s.RegisterUser(in)
	require.ErrorIs(t, err, ErrValidation)
}

func TestAdminAdjustCoins(t *testing.T) {
	s := newTestService(t)
	admin := createTestUser(t, s, models.RoleAdmin, 0)
	worker := createTestUser(t, s, models.RoleWorker, 100)

	balance, err := s.AdminAdjustCoins(admin, worker.ID, 50, "compensation")
	require.NoError(t, err)
	require.Equal(t, int64(150), balance)

	balance, err = s.AdminAdjustCoins(admin, worker.ID, -30, "clawback")
	require.NoError(t, err)
	require.Equal(t, int64(120), balance)

	// A debit past zero fails the same way any other debit does.
	_, err = s.AdminAdjustCoins(admin, worker.ID, -500, "too much")
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Equal(t, int64(120), balanceOf(t, s, worker.ID))

	_, err = s.AdminAdjustCoins(admin, worker.ID, 0, "noop")
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.AdminAdjustCoins(worker, worker.ID, 50, "self-serve")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestPurchaseCoins(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 50)
	worker := createTestUser(t, s, models.RoleWorker, 50)

	payment, err := s.PurchaseCoins(buyer, 150, "gw-ref-123")
	require.NoError(t, err)
	require.Equal(t, int64(150), payment.Coins)
	require.Equal(t, float64(10), payment.AmountUSD)
	require.NotEmpty(t, payment.TransactionID)

	require.Equal(t, int64(200), balanceOf(t, s, buyer.ID))

	// Only the fixed packages exist; arbitrary amounts are rejected.
	_, err = s.PurchaseCoins(buyer, 123, "gw-ref-456")
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.PurchaseCoins(worker, 150, "gw-ref-789")
	require.ErrorIs(t, err, ErrForbidden)
}
