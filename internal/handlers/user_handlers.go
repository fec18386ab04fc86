package handlers

import (
	"database/sql"
	"net/http"

	"github.com/earnspherex/earnsphere-golang/internal/auth"
	"github.com/earnspherex/earnsphere-golang/internal/ledger"
	"github.com/earnspherex/earnsphere-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Registration & Login ---
//

// RegisterUserInput is the accepted registration payload. Role is limited
// to worker/buyer at the binding level; admins are promoted, never signed
// up.
type RegisterUserInput struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=worker buyer"`
	PhotoURL string `json:"photoUrl"`
}

// Register is the handler for POST /v1/register.
// New workers start with 10 coins, new buyers with 50.
func (h *Handlers) Register(c *gin.Context) {
	var input RegisterUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user, err := h.Ledger.RegisterUser(ledger.RegisterUserInput{
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: password.Hash,
		PhotoURL:     input.PhotoURL,
		Role:         models.Role(input.Role),
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user":    user,
		"token":   token,
	})
}

// LoginInput is the accepted login payload.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /v1/login.
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err := h.DB.QueryRow(`
		SELECT id, role, email, password_hash, full_name, coins
		FROM users WHERE email = ?`,
		input.Email,
	).Scan(&user.ID, &user.Role, &user.Email, &user.PasswordHash, &user.FullName, &user.Coins)
	if err != nil {
		// Same response for unknown email and wrong password.
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	password := models.Password{Hash: user.PasswordHash}
	match, err := password.Matches(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify password"})
		return
	}
	if !match {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"email":    user.Email,
			"fullName": user.FullName,
			"role":     user.Role,
			"coins":    user.Coins,
		},
	})
}

//
// --- Profile ---
//

// GetMe is the handler for GET /v1/users/me.
// Returns the caller's profile including the live coin balance.
func (h *Handlers) GetMe(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	var user models.User
	err := h.DB.QueryRow(`
		SELECT id, role, email, full_name, photo_url, coins, created_at, updated_at
		FROM users WHERE id = ?`,
		userID,
	).Scan(&user.ID, &user.Role, &user.Email, &user.FullName,
		&user.PhotoURL, &user.Coins, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUserRole is the handler for GET /v1/users/role/:email.
// The client uses it to pick the right dashboard after sign-in.
func (h *Handlers) GetUserRole(c *gin.Context) {
	email := c.Param("email")

	var role models.Role
	err := h.DB.QueryRow("SELECT role FROM users WHERE email = ?", email).Scan(&role)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": role})
}
