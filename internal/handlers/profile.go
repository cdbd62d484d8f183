package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradehub-dev/tradehub/db"
	"github.com/tradehub-dev/tradehub/internal/models"
	"github.com/tradehub-dev/tradehub/internal/utils"
	"gorm.io/gorm"
)

type UpdateProfileRequest struct {
	Trade     string `json:"trade"`
	Region    string `json:"region"`
	Phone     string `json:"phone"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

type ProfileResponse struct {
	UserID    uint   `json:"user_id"`
	Name      string `json:"name"`
	Trade     string `json:"trade"`
	Region    string `json:"region"`
	Phone     string `json:"phone"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

func GetProfile(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var profile models.Profile

	if err := db.DB.Where("user_id = ?", currentUser.ID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		log.Printf("Failed to fetch profile for user %d: %v", currentUser.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, ProfileResponse{
		UserID:    currentUser.ID,
		Name:      currentUser.Name,
		Trade:     profile.Trade,
		Region:    profile.Region,
		Phone:     profile.Phone,
		Bio:       profile.Bio,
		AvatarURL: profile.AvatarURL,
	})
}

func UpdateProfile(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateProfileRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var profile models.Profile

	if err := db.DB.Where(models.Profile{UserID: currentUser.ID}).FirstOrCreate(&profile).Error; err != nil {
		log.Printf("Failed to load profile for user %d: %v", currentUser.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	profile.Trade = req.Trade
	profile.Region = req.Region
	profile.Phone = req.Phone
	profile.Bio = req.Bio
	profile.AvatarURL = req.AvatarURL

	if err := db.DB.Save(&profile).Error; err != nil {
		log.Printf("Failed to update profile for user %d: %v", currentUser.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, ProfileResponse{
		UserID:    currentUser.ID,
		Name:      currentUser.Name,
		Trade:     profile.Trade,
		Region:    profile.Region,
		Phone:     profile.Phone,
		Bio:       profile.Bio,
		AvatarURL: profile.AvatarURL,
	})
}
