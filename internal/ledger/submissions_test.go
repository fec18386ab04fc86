package ledger

import (
	"sync"
	"testing"

	"github.com/earnspherex/earnsphere-golang/internal/models"
	"github.com/stretchr/testify/require"
)

func TestSubmitTaskSnapshotsPayout(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 100)
	worker := createTestUser(t, s, models.RoleWorker, 0)
	task := createTaskFor(t, s, buyer, 10, 5)

	sub := submitFor(t, s, worker, task.ID)
	require.Equal(t, task.Title, sub.TaskTitle)
	require.Equal(t, int64(10), sub.PayableAmount)
	require.Equal(t, buyer.ID, sub.BuyerID)

	// Renaming the task after the fact changes nothing about the pending
	// submission: the worker is paid what the task promised at submit time.
	require.NoError(t, s.UpdateTask(buyer, task.ID, UpdateTaskInput{
		Title:  "Renamed task",
		Detail: "new detail",
	}))

	require.NoError(t, s.ApproveSubmission(buyer, sub.ID))
	require.Equal(t, int64(10), balanceOf(t, s, worker.ID))

	var title string
	require.NoError(t, s.DB.QueryRow(
		"SELECT task_title FROM submissions WHERE id = ?", sub.ID,
	).Scan(&title))
	require.Equal(t, task.Title, title)
}

func TestSubmitTaskGuards(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 100)
	worker := createTestUser(t, s, models.RoleWorker, 0)
	task := createTaskFor(t, s, buyer, 10, 1)

	_, err := s.SubmitTask(buyer, SubmitTaskInput{TaskID: task.ID, Details: "d"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = s.SubmitTask(worker, SubmitTaskInput{TaskID: 9999, Details: "d"})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.SubmitTask(worker, SubmitTaskInput{TaskID: task.ID, Details: ""})
	require.ErrorIs(t, err, ErrValidation)
}

func TestSubmitTaskNoOpenSlots(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 100)
	worker1 := createTestUser(t, s, models.RoleWorker, 0)
	worker2 := createTestUser(t, s, models.RoleWorker, 0)
	task := createTaskFor(t, s, buyer, 10, 1)

	sub := submitFor(t, s, worker1, task.ID)
	require.NoError(t, s.ApproveSubmission(buyer, sub.ID))

	// The single slot is used up; the task no longer accepts submissions.
	_, err := s.SubmitTask(worker2, SubmitTaskInput{TaskID: task.ID, Details: "d"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestApproveSubmissionMovesOneSlot(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 100)
	worker := createTestUser(t, s, models.RoleWorker, 0)
	task := createTaskFor(t, s, buyer, 10, 5)

	sub := submitFor(t, s, worker, task.ID)
	require.NoError(t, s.ApproveSubmission(buyer, sub.ID))

	require.Equal(t, int64(10), balanceOf(t, s, worker.ID))

	var required, completed int64
	require.NoError(t, s.DB.QueryRow(
		"SELECT required_workers, no_of_completed FROM tasks WHERE id = ?", task.ID,
	).Scan(&required, &completed))
	require.Equal(t, int64(4), required)
	require.Equal(t, int64(1), completed)

	// The payout left an audit row and a notification.
	var audits, notes int
	require.NoError(t, s.DB.QueryRow(
		"SELECT COUNT(*) FROM coin_transactions WHERE user_id = ? AND type = 'payout'", worker.ID,
	).Scan(&audits))
	require.Equal(t, 1, audits)
	require.NoError(t, s.DB.QueryRow(
		"SELECT COUNT(*) FROM notifications WHERE user_id = ?", worker.ID,
	).Scan(&notes))
	require.Equal(t, 1, notes)
}

func TestRejectSubmissionMovesNoCoins(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 100)
	worker := createTestUser(t, s, models.RoleWorker, 0)
	task := createTaskFor(t, s, buyer, 10, 5)

	sub := submitFor(t, s, worker, task.ID)
	require.NoError(t, s.RejectSubmission(buyer, sub.ID))

	require.Equal(t, int64(0), balanceOf(t, s, worker.ID))

	// The escrowed slot stays with the task for a future worker.
	var required int64
	require.NoError(t, s.DB.QueryRow(
		"SELECT required_workers FROM tasks WHERE id = ?", task.ID,
	).Scan(&required))
	require.Equal(t, int64(5), required)
}

func TestDecideIsExactlyOnce(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 100)
	worker := createTestUser(t, s, models.RoleWorker, 0)
	task := createTaskFor(t, s, buyer, 10, 5)

	sub := submitFor(t, s, worker, task.ID)
	require.NoError(t, s.ApproveSubmission(buyer, sub.ID))

	// Every later decision on the same submission loses.
	require.ErrorIs(t, s.ApproveSubmission(buyer, sub.ID), ErrAlreadyDecided)
	require.ErrorIs(t, s.RejectSubmission(buyer, sub.ID), ErrAlreadyDecided)

	// The worker was paid exactly once.
	require.Equal(t, int64(10), balanceOf(t, s, worker.ID))
}

func TestConcurrentApproveRejectOneWins(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 100)
	worker := createTestUser(t, s, models.RoleWorker, 0)
	task := createTaskFor(t, s, buyer, 10, 5)

	sub := submitFor(t, s, worker, task.ID)

	var wg sync.WaitGroup
	wg.Add(2)
	var approveErr, rejectErr error
	go func() {
		defer wg.Done()
		approveErr = s.ApproveSubmission(buyer, sub.ID)
	}()
	go func() {
		defer wg.Done()
		rejectErr = s.RejectSubmission(buyer, sub.ID)
	}()
	wg.Wait()

	// Exactly one of the two racing decisions succeeds.
	if approveErr == nil {
		require.ErrorIs(t, rejectErr, ErrAlreadyDecided)
		require.Equal(t, int64(10), balanceOf(t, s, worker.ID))
	} else {
		require.ErrorIs(t, approveErr, ErrAlreadyDecided)
		require.NoError(t, rejectErr)
		require.Equal(t, int64(0), balanceOf(t, s, worker.ID))
	}
}

func TestReviewAuthorization(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 100)
	otherBuyer := createTestUser(t, s, models.RoleBuyer, 100)
	worker := createTestUser(t, s, models.RoleWorker, 0)
	admin := createTestUser(t, s, models.RoleAdmin, 0)
	task := createTaskFor(t, s, buyer, 10, 5)

	sub := submitFor(t, s, worker, task.ID)

	// Only the task's buyer or an admin may decide.
	require.ErrorIs(t, s.ApproveSubmission(otherBuyer, sub.ID), ErrForbidden)
	require.ErrorIs(t, s.RejectSubmission(worker, sub.ID), ErrForbidden)

	require.NoError(t, s.ApproveSubmission(admin, sub.ID))
	require.Equal(t, int64(10), balanceOf(t, s, worker.ID))
}
