package middleware

import (
	"database/sql"
	"net/http"

	"github.com/earnspherex/earnsphere-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Role-Based Middleware ---
//
// These run AFTER AuthMiddleware. They read the userID from the context,
// load the user's role and email from the DB (the token only carries the
// id, so a role change takes effect on the next request), and enforce the
// route's required role.
//

// requireRole builds a middleware that admits exactly the given role.
// There is no implicit admin bypass: admin-capable operations take the
// actor's role into account in the service layer, and admin routes are
// mounted separately.
func requireRole(db *sql.DB, required models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDRaw, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context (AuthMiddleware must run first)"})
			c.Abort()
			return
		}
		userID := userIDRaw.(int64)

		var (
			role  models.Role
			email string
		)
		err := db.QueryRow("SELECT role, email FROM users WHERE id = ?", userID).Scan(&role, &email)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking role"})
			}
			c.Abort()
			return
		}

		if role != required {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied: " + string(required) + " role required"})
			c.Abort()
			return
		}

		c.Set("userRole", role)
		c.Set("userEmail", email)
		c.Next()
	}
}

// WorkerMiddleware admits workers only.
func WorkerMiddleware(db *sql.DB) gin.HandlerFunc {
	return requireRole(db, models.RoleWorker)
}

// BuyerMiddleware admits buyers only.
func BuyerMiddleware(db *sql.DB) gin.HandlerFunc {
	return requireRole(db, models.RoleBuyer)
}

// AdminMiddleware admits admins only.
func AdminMiddleware(db *sql.DB) gin.HandlerFunc {
	return requireRole(db, models.RoleAdmin)
}
