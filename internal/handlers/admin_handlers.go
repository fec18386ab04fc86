package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/earnspherex/earnsphere-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Admin: Platform Stats ---
//

type AdminStats struct {
	TotalWorkers  int   `json:"totalWorkers"`
	TotalBuyers   int   `json:"totalBuyers"`
	TotalCoins    int64 `json:"totalCoins"`
	TotalPayments int   `json:"totalPayments"`
}

const adminStatsCacheKey = "stats:admin"

// GetAdminStats is the handler for GET /v1/admin/stats.
func (h *Handlers) GetAdminStats(c *gin.Context) {
	ctx := c.Request.Context()

	var stats AdminStats
	if h.Cache.GetJSON(ctx, adminStatsCacheKey, &stats) {
		c.JSON(http.StatusOK, stats)
		return
	}

	err := h.DB.QueryRow(
		"SELECT COUNT(*) FROM users WHERE role = ?", string(models.RoleWorker),
	).Scan(&stats.TotalWorkers)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count workers"})
		return
	}

	err = h.DB.QueryRow(
		"SELECT COUNT(*) FROM users WHERE role = ?", string(models.RoleBuyer),
	).Scan(&stats.TotalBuyers)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count buyers"})
		return
	}

	err = h.DB.QueryRow("SELECT COALESCE(SUM(coins), 0) FROM users").Scan(&stats.TotalCoins)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sum coins"})
		return
	}

	err = h.DB.QueryRow("SELECT COUNT(*) FROM payments").Scan(&stats.TotalPayments)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count payments"})
		return
	}

	h.Cache.SetJSON(ctx, adminStatsCacheKey, stats, 30*time.Second)
	c.JSON(http.StatusOK, stats)
}

//
// --- Admin: User Management ---
//

// GetAllUsers is the handler for GET /v1/admin/users.
func (h *Handlers) GetAllUsers(c *gin.Context) {
	query := `
		SELECT id, role, email, full_name, photo_url, coins, created_at, updated_at
		FROM users
		ORDER BY created_at DESC`

	rows, err := h.DB.Query(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID, &user.Role, &user.Email, &user.FullName,
			&user.PhotoURL, &user.Coins, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan user row"})
			return
		}
		users = append(users, &user)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating user rows"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// DeleteUser is the handler for DELETE /v1/admin/users/:id.
// Admins cannot delete themselves; that would orphan the admin console.
func (h *Handlers) DeleteUser(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	userIDRaw, _ := c.Get("userID")
	if targetID == userIDRaw.(int64) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	result, err := h.DB.Exec("DELETE FROM users WHERE id = ?", targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check affected rows"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// UpdateUserRoleInput is the JSON for PATCH /v1/admin/users/:id/role.
type UpdateUserRoleInput struct {
	Role string `json:"role" binding:"required,oneof=worker buyer admin"`
}

// UpdateUserRole is the handler for PATCH /v1/admin/users/:id/role.
// This is the only way an admin account comes into existence.
func (h *Handlers) UpdateUserRole(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var input UpdateUserRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.DB.Exec(
		"UPDATE users SET role = ?, updated_at = ? WHERE id = ?",
		input.Role, time.Now(), targetID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check affected rows"})
		return
	}
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User role updated successfully"})
}

// AdjustUserCoinsInput is the JSON for PATCH /v1/admin/users/:id/coins.
// Amount is signed: positive credits, negative debits.
type AdjustUserCoinsInput struct {
	Amount int64  `json:"amount" binding:"required"`
	Note   string `json:"note"`
}

// AdjustUserCoins is the handler for PATCH /v1/admin/users/:id/coins.
// The change goes through the ledger so it is audited like any other.
func (h *Handlers) AdjustUserCoins(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var input AdjustUserCoinsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, err := h.currentActor(c)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	balance, err := h.Ledger.AdminAdjustCoins(actor, targetID, input.Amount, input.Note)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	// Both cached aggregates include coin totals.
	h.Cache.Invalidate(c.Request.Context(), adminStatsCacheKey, bestWorkerCacheKey)

	c.JSON(http.StatusOK, gin.H{
		"message": "User coins updated successfully",
		"coins":   balance,
	})
}
