package handlers

import (
	"errors"

	"github.com/chachabrian/carpool-backend/internal/middleware"
	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// sessionMaxAge matches the token expiry set in utils.GenerateToken.
const sessionMaxAge = 7 * 24 * 60 * 60

// RegisterForm describes the registration payload for clients that GET the
// route before posting (the old server rendered a form here).
func RegisterForm() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"action": "/register",
			"method": "POST",
			"fields": []string{"name", "email", "password"},
		})
	}
}

// Register creates a new user account
func Register(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		// Reject duplicate emails up front for a friendly message; the
		// unique column catches the race.
		var existing models.User
		if err := db.Where("email = ?", input.Email).First(&existing).Error; err == nil {
			c.JSON(409, gin.H{"error": "Email already exists"})
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(500, gin.H{"error": "Failed to create user"})
			return
		}

		user := models.User{
			Name:  input.Name,
			Email: input.Email,
		}
		if err := user.SetPassword(input.Password); err != nil {
			c.JSON(500, gin.H{"error": "Failed to hash password"})
			return
		}

		if result := db.Create(&user); result.Error != nil {
			// Losing the race to the unique column lands here too.
			c.JSON(409, gin.H{"error": "Failed to create user: " + result.Error.Error()})
			return
		}

		c.JSON(201, gin.H{
			"message": "Registration successful! You can now log in.",
			"user": gin.H{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
			},
		})
	}
}

// LoginForm mirrors RegisterForm for the login route.
func LoginForm() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"action": "/login",
			"method": "POST",
			"fields": []string{"email", "password"},
		})
	}
}

// Login verifies credentials and establishes a session
func Login(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if result := db.Where("email = ?", input.Email).First(&user); result.Error != nil {
			c.JSON(401, gin.H{"error": "Invalid credentials"})
			return
		}

		if err := user.CheckPassword(input.Password); err != nil {
			c.JSON(401, gin.H{"error": "Invalid credentials"})
			return
		}

		token, err := utils.GenerateToken(&user)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate token"})
			return
		}

		c.SetCookie(middleware.SessionCookie, token, sessionMaxAge, "/", "", false, true)
		c.JSON(200, gin.H{
			"message": "Logged in successfully!",
			"token":   token,
			"user": gin.H{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
			},
		})
	}
}

// Logout clears the session cookie; it always succeeds.
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
		c.JSON(200, gin.H{"message": "Logged out successfully.", "redirect": "/login"})
	}
}
