package ledger

import (
	"testing"
	"time"

	"github.com/earnspherex/earnsphere-golang/internal/models"
	"github.com/stretchr/testify/require"
)

func createTaskFor(t *testing.T, s *Service, buyer Actor, payable, workers int64) *models.Task {
	t.Helper()
	task, err := s.CreateTask(buyer, CreateTaskInput{
		Title:           "Watch my video",
		Detail:          "Watch the full video and leave a comment",
		SubmissionInfo:  "Paste the comment link",
		PayableAmount:   payable,
		RequiredWorkers: workers,
		CompletionDate:  time.Now().Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)
	return task
}

func submitFor(t *testing.T, s *Service, worker Actor, taskID int64) *models.Submission {
	t.Helper()
	sub, err := s.SubmitTask(worker, SubmitTaskInput{
		TaskID:  taskID,
		Details: "Done, see the linked comment",
	})
	require.NoError(t, err)
	return sub
}

func TestCreateTaskEscrowsBudget(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 100)

	before := totalCoins(t, s)

	task := createTaskFor(t, s, buyer, 10, 5)
	require.Equal(t, int64(50), task.TotalPayable)
	require.Equal(t, int64(5), task.RequiredWorkers)

	// 10 * 5 = 50 coins move from the buyer into escrow on the task.
	require.Equal(t, int64(50), balanceOf(t, s, buyer.ID))
	require.Equal(t, before, totalCoins(t, s))
}

func TestCreateTaskInsufficientFunds(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 20)

	_, err := s.CreateTask(buyer, CreateTaskInput{
		Title:           "Too expensive",
		Detail:          "detail",
		PayableAmount:   10,
		RequiredWorkers: 5,
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// Nothing was debited and no task row exists.
	require.Equal(t, int64(20), balanceOf(t, s, buyer.ID))
	var count int
	require.NoError(t, s.DB.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&count))
	require.Equal(t, 0, count)
}

func TestCreateTaskValidation(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 100)
	worker := createTestUser(t, s, models.RoleWorker, 100)

	_, err := s.CreateTask(buyer, CreateTaskInput{
		Title: "t", Detail: "d", PayableAmount: 0, RequiredWorkers: 5,
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.CreateTask(buyer, CreateTaskInput{
		Title: "t", Detail: "d", PayableAmount: 10, RequiredWorkers: -1,
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.CreateTask(worker, CreateTaskInput{
		Title: "t", Detail: "d", PayableAmount: 10, RequiredWorkers: 5,
	})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateTaskOwnerOnly(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 100)
	other := createTestUser(t, s, models.RoleBuyer, 100)
	task := createTaskFor(t, s, buyer, 10, 5)

	err := s.UpdateTask(other, task.ID, UpdateTaskInput{Title: "stolen", Detail: "d"})
	require.ErrorIs(t, err, ErrForbidden)

	err = s.UpdateTask(buyer, task.ID, UpdateTaskInput{Title: "New title", Detail: "New detail"})
	require.NoError(t, err)

	// Edits never touch the escrowed budget.
	var title string
	var payable, required int64
	require.NoError(t, s.DB.QueryRow(
		"SELECT title, payable_amount, required_workers FROM tasks WHERE id = ?", task.ID,
	).Scan(&title, &payable, &required))
	require.Equal(t, "New title", title)
	require.Equal(t, int64(10), payable)
	require.Equal(t, int64(5), required)
}

func TestDeleteTaskRefundsRemainingAndPending(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 100)
	worker1 := createTestUser(t, s, models.RoleWorker, 0)
	worker2 := createTestUser(t, s, models.RoleWorker, 0)

	// 10 coins x 5 workers: 50 escrowed, buyer drops to 50.
	task := createTaskFor(t, s, buyer, 10, 5)
	require.Equal(t, int64(50), balanceOf(t, s, buyer.ID))

	// One approval pays worker1 and consumes a slot (required drops to 4).
	sub1 := submitFor(t, s, worker1, task.ID)
	require.NoError(t, s.ApproveSubmission(buyer, sub1.ID))
	require.Equal(t, int64(10), balanceOf(t, s, worker1.ID))

	// worker2's submission is still pending when the task goes away.
	sub2 := submitFor(t, s, worker2, task.ID)

	refund, err := s.DeleteTask(buyer, task.ID)
	require.NoError(t, err)

	// 10 * (4 remaining + 1 pending) = 50 back to the buyer.
	require.Equal(t, int64(50), refund)
	require.Equal(t, int64(100), balanceOf(t, s, buyer.ID))

	// The orphaned pending submission was rejected, not left dangling.
	var status string
	require.NoError(t, s.DB.QueryRow(
		"SELECT status FROM submissions WHERE id = ?", sub2.ID,
	).Scan(&status))
	require.Equal(t, models.SubmissionRejected, status)

	// The approved one is untouched and worker1 keeps the payout.
	require.NoError(t, s.DB.QueryRow(
		"SELECT status FROM submissions WHERE id = ?", sub1.ID,
	).Scan(&status))
	require.Equal(t, models.SubmissionApproved, status)
	require.Equal(t, int64(10), balanceOf(t, s, worker1.ID))

	// worker2 was told why their submission closed.
	var notes int
	require.NoError(t, s.DB.QueryRow(
		"SELECT COUNT(*) FROM notifications WHERE user_id = ?", worker2.ID,
	).Scan(&notes))
	require.Equal(t, 1, notes)

	var tasks int
	require.NoError(t, s.DB.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&tasks))
	require.Equal(t, 0, tasks)
}

func TestDeleteTaskForbiddenForStrangers(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 100)
	other := createTestUser(t, s, models.RoleBuyer, 100)
	task := createTaskFor(t, s, buyer, 10, 2)

	_, err := s.DeleteTask(other, task.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = s.DeleteTask(buyer, 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTaskByAdminRefundsBuyer(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 100)
	admin := createTestUser(t, s, models.RoleAdmin, 0)
	task := createTaskFor(t, s, buyer, 10, 2)

	refund, err := s.DeleteTask(admin, task.ID)
	require.NoError(t, err)
	require.Equal(t, int64(20), refund)

	// The refund goes to the owner, never to the admin who deleted.
	require.Equal(t, int64(100), balanceOf(t, s, buyer.ID))
	require.Equal(t, int64(0), balanceOf(t, s, admin.ID))
}

// Coins are never created or destroyed by the task lifecycle: the sum of
// all balances plus all live escrow is constant across create, approve,
// reject and delete.
func TestCoinConservation(t *testing.T) {
	s := newTestService(t)
	buyer := createTestUser(t, s, models.RoleBuyer, 200)
	worker1 := createTestUser(t, s, models.RoleWorker, 10)
	worker2 := createTestUser(t, s, models.RoleWorker, 10)

	before := totalCoins(t, s)

	task := createTaskFor(t, s, buyer, 15, 3)
	require.Equal(t, before, totalCoins(t, s))

	sub1 := submitFor(t, s, worker1, task.ID)
	sub2 := submitFor(t, s, worker2, task.ID)
	require.Equal(t, before, totalCoins(t, s))

	require.NoError(t, s.ApproveSubmission(buyer, sub1.ID))
	require.Equal(t, before, totalCoins(t, s))

	require.NoError(t, s.RejectSubmission(buyer, sub2.ID))
	require.Equal(t, before, totalCoins(t, s))

	_, err := s.DeleteTask(buyer, task.ID)
	require.NoError(t, err)
	require.Equal(t, before, totalCoins(t, s))
}
