package handlers

import (
	"net/http"
	"time"

	"github.com/earnspherex/earnsphere-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Worker Dashboard Stats ---
//

type WorkerStats struct {
	TotalSubmissions    int   `json:"totalTasks"`
	PendingSubmissions  int   `json:"pendingTasks"`
	ApprovedSubmissions int   `json:"approvedTasks"`
	RejectedSubmissions int   `json:"rejectedTasks"`
	TotalEarned         int64 `json:"totalPayableAmount"`
}

// GetWorkerStats returns KPI data for the worker dashboard.
// GET /v1/worker/stats
func (h *Handlers) GetWorkerStats(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	stats := WorkerStats{}

	counts := []struct {
		status string
		dest   *int
	}{
		{models.SubmissionPending, &stats.PendingSubmissions},
		{models.SubmissionApproved, &stats.ApprovedSubmissions},
		{models.SubmissionRejected, &stats.RejectedSubmissions},
	}
	for _, cnt := range counts {
		err := h.DB.QueryRow(
			"SELECT COUNT(*) FROM submissions WHERE worker_id = ? AND status = ?",
			userID, cnt.status,
		).Scan(cnt.dest)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count submissions"})
			return
		}
	}
	stats.TotalSubmissions = stats.PendingSubmissions + stats.ApprovedSubmissions + stats.RejectedSubmissions

	err := h.DB.QueryRow(
		"SELECT COALESCE(SUM(payable_amount), 0) FROM submissions WHERE worker_id = ? AND status = ?",
		userID, models.SubmissionApproved,
	).Scan(&stats.TotalEarned)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sum earnings"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

//
// --- Buyer Dashboard Stats ---
//

type BuyerStats struct {
	TotalTasks     int   `json:"totalTasks"`
	PendingReviews int   `json:"pendingReviews"`
	TotalPaidOut   int64 `json:"totalPaidOut"`
	EscrowReserved int64 `json:"escrowReserved"`
}

// GetBuyerStats returns KPI data for the buyer dashboard.
// GET /v1/buyer/stats
func (h *Handlers) GetBuyerStats(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	stats := BuyerStats{}

	err := h.DB.QueryRow(
		"SELECT COUNT(*) FROM tasks WHERE buyer_id = ?", userID,
	).Scan(&stats.TotalTasks)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count tasks"})
		return
	}

	err = h.DB.QueryRow(
		"SELECT COUNT(*) FROM submissions WHERE buyer_id = ? AND status = ?",
		userID, models.SubmissionPending,
	).Scan(&stats.PendingReviews)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count pending reviews"})
		return
	}

	err = h.DB.QueryRow(
		"SELECT COALESCE(SUM(payable_amount), 0) FROM submissions WHERE buyer_id = ? AND status = ?",
		userID, models.SubmissionApproved,
	).Scan(&stats.TotalPaidOut)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sum payouts"})
		return
	}

	// Escrow still reserved on live tasks: payable * remaining slots.
	err = h.DB.QueryRow(
		"SELECT COALESCE(SUM(payable_amount * required_workers), 0) FROM tasks WHERE buyer_id = ?",
		userID,
	).Scan(&stats.EscrowReserved)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sum escrow"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

//
// --- Best Worker Leaderboard (public) ---
//

type BestWorker struct {
	FullName string  `json:"worker_name"`
	PhotoURL *string `json:"worker_photoURL,omitempty"`
	Coins    int64   `json:"coins"`
}

const bestWorkerCacheKey = "stats:best-worker"

// GetBestWorkers is the handler for GET /v1/best-worker — the top workers
// by coin balance, served from the cache when one is configured.
func (h *Handlers) GetBestWorkers(c *gin.Context) {
	ctx := c.Request.Context()

	var workers []BestWorker
	if h.Cache.GetJSON(ctx, bestWorkerCacheKey, &workers) {
		c.JSON(http.StatusOK, workers)
		return
	}

	query := `
		SELECT full_name, photo_url, coins
		FROM users
		WHERE role = ?
		ORDER BY coins DESC
		LIMIT 6`

	rows, err := h.DB.Query(query, string(models.RoleWorker))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	for rows.Next() {
		var w BestWorker
		if err := rows.Scan(&w.FullName, &w.PhotoURL, &w.Coins); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan worker row"})
			return
		}
		workers = append(workers, w)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating worker rows"})
		return
	}

	h.Cache.SetJSON(ctx, bestWorkerCacheKey, workers, 30*time.Second)
	c.JSON(http.StatusOK, workers)
}
