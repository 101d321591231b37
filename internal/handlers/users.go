package handlers

import (
	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetProfile retrieves the logged-in user's profile
func GetProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		profilePicture := ""
		if user.ProfilePicture != "" {
			profilePicture = services.GetImageURL(user.ProfilePicture)
		}

		c.JSON(200, gin.H{
			"id":             user.ID,
			"name":           user.Name,
			"email":          user.Email,
			"profilePicture": profilePicture,
			"welcome":        "Welcome, " + user.Name + "!",
		})
	}
}

// UploadAvatar stores a profile picture for the logged-in user
func UploadAvatar(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		file, err := c.FormFile("avatar")
		if err != nil {
			c.JSON(400, gin.H{"error": "Avatar file is required"})
			return
		}

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		imagePath, err := services.UploadImage(file, "avatars")
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to upload avatar: " + err.Error()})
			return
		}

		user.ProfilePicture = imagePath
		if err := db.Save(&user).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update profile"})
			return
		}

		c.JSON(200, gin.H{
			"message":        "Avatar updated",
			"profilePicture": services.GetImageURL(imagePath),
		})
	}
}
