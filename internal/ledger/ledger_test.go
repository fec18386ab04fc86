package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/earnspherex/earnsphere-golang/internal/database"
	"github.com/earnspherex/earnsphere-golang/internal/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

var userSeq atomic.Int64

// newTestService opens a per-test in-memory database and runs the real
// migrations against it. MaxOpenConns(1) serializes transactions the way
// a row-locking MySQL would, so concurrency tests are deterministic.
func newTestService(t *testing.T) *Service {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, "sqlite3"))
	return NewService(db)
}

// createTestUser inserts a user row directly with the given balance and
// returns its Actor. Tests that exercise registration itself use
// RegisterUser instead.
func createTestUser(t *testing.T, s *Service, role models.Role, coins int64) Actor {
	t.Helper()
	email := fmt.Sprintf("%s-%d@example.com", role, userSeq.Add(1))
	now := time.Now()
	res, err := s.DB.Exec(`
		INSERT INTO users (role, email, password_hash, full_name, coins, created_at, updated_at)
		VALUES (?, ?, 'not-a-real-hash', 'Test User', ?, ?, ?)`,
		string(role), email, coins, now, now,
	)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return Actor{ID: id, Email: email, Role: role}
}

func balanceOf(t *testing.T, s *Service, userID int64) int64 {
	t.Helper()
	balance, err := s.Balance(s.DB, userID)
	require.NoError(t, err)
	return balance
}

// totalCoins is the conservation metric: every coin is either in a user's
// balance or reserved as escrow on a live task.
func totalCoins(t *testing.T, s *Service) int64 {
	t.Helper()
	var balances, escrow int64
	require.NoError(t, s.DB.QueryRow("SELECT COALESCE(SUM(coins), 0) FROM users").Scan(&balances))
	require.NoError(t, s.DB.QueryRow("SELECT COALESCE(SUM(payable_amount * required_workers), 0) FROM tasks").Scan(&escrow))
	return balances + escrow
}

func TestDebitInsufficientFunds(t *testing.T) {
	s := newTestService(t)
	user := createTestUser(t, s, models.RoleBuyer, 20)

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	err = s.debit(tx, user.ID, 50, "escrow", "test")
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.NoError(t, tx.Rollback())

	require.Equal(t, int64(20), balanceOf(t, s, user.ID))
}

func TestDebitUnknownUser(t *testing.T) {
	s := newTestService(t)

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()
	err = s.debit(tx, 9999, 10, "escrow", "test")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreditZeroIsNoOp(t *testing.T) {
	s := newTestService(t)
	user := createTestUser(t, s, models.RoleWorker, 10)

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, s.credit(tx, user.ID, 0, "payout", "test"))
	require.NoError(t, tx.Commit())

	require.Equal(t, int64(10), balanceOf(t, s, user.ID))

	// A zero credit writes no audit row either.
	var count int
	require.NoError(t, s.DB.QueryRow(
		"SELECT COUNT(*) FROM coin_transactions WHERE user_id = ?", user.ID,
	).Scan(&count))
	require.Equal(t, 0, count)
}

func TestCreditNegativeRejected(t *testing.T) {
	s := newTestService(t)
	user := createTestUser(t, s, models.RoleWorker, 10)

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()
	err = s.credit(tx, user.ID, -5, "payout", "test")
	require.ErrorIs(t, err, ErrValidation)
}

func TestLedgerAuditTrail(t *testing.T) {
	s := newTestService(t)
	user := createTestUser(t, s, models.RoleWorker, 100)

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, s.debit(tx, user.ID, 30, "withdrawal", "cash out"))
	require.NoError(t, s.credit(tx, user.ID, 5, "payout", "task done"))
	require.NoError(t, tx.Commit())

	rows, err := s.DB.Query(
		"SELECT type, amount, balance_after FROM coin_transactions WHERE user_id = ? ORDER BY id ASC",
		user.ID,
	)
	require.NoError(t, err)
	defer rows.Close()

	type entry struct {
		txType       string
		amount       int64
		balanceAfter int64
	}
	var entries []entry
	for rows.Next() {
		var e entry
		require.NoError(t, rows.Scan(&e.txType, &e.amount, &e.balanceAfter))
		entries = append(entries, e)
	}
	require.NoError(t, rows.Err())

	require.Equal(t, []entry{
		{"withdrawal", -30, 70},
		{"payout", 5, 75},
	}, entries)
	require.Equal(t, int64(75), balanceOf(t, s, user.ID))
}

func TestBalanceUnknownUser(t *testing.T) {
	s := newTestService(t)
	_, err := s.Balance(s.DB, 12345)
	require.ErrorIs(t, err, ErrNotFound)
}
