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

type FavouriteRequest struct {
	TargetType string `json:"target_type" binding:"required"`
	TargetID   uint   `json:"target_id" binding:"required"`
}

type FavouriteResponse struct {
	ID         uint   `json:"id"`
	TargetType string `json:"target_type"`
	TargetID   uint   `json:"target_id"`
}

var favouriteTargets = map[string]bool{
	"ad":      true,
	"listing": true,
}

func AddFavourite(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req FavouriteRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !favouriteTargets[req.TargetType] {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown target type"})
		return
	}

	// The target must exist before it can be favourited.
	var targetErr error

	switch req.TargetType {
	case "ad":
		targetErr = db.DB.First(&models.Ad{}, req.TargetID).Error
	case "listing":
		targetErr = db.DB.First(&models.Listing{}, req.TargetID).Error
	}

	if targetErr != nil {
		if errors.Is(targetErr, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Target not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	var existing models.Favourite

	err = db.DB.Where("user_id = ? AND target_type = ? AND target_id = ?", userID, req.TargetType, req.TargetID).First(&existing).Error

	if err == nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": "Already favourited"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking favourite: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	favourite := models.Favourite{
		UserID:     userID,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
	}

	if err := db.DB.Create(&favourite).Error; err != nil {
		log.Printf("Failed to create favourite: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add favourite"})
		return
	}

	ctx.JSON(http.StatusCreated, FavouriteResponse{
		ID:         favourite.ID,
		TargetType: favourite.TargetType,
		TargetID:   favourite.TargetID,
	})
}

func ListFavourites(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var favourites []models.Favourite

	if err := db.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&favourites).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve favourites"})
		return
	}

	responses := make([]FavouriteResponse, 0, len(favourites))

	for _, favourite := range favourites {
		responses = append(responses, FavouriteResponse{
			ID:         favourite.ID,
			TargetType: favourite.TargetType,
			TargetID:   favourite.TargetID,
		})
	}

	ctx.JSON(http.StatusOK, responses)
}

func RemoveFavourite(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	favouriteID, err := utils.GetIDParam(ctx, "favourite_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var favourite models.Favourite

	if err := db.DB.Where("id = ? AND user_id = ?", favouriteID, userID).First(&favourite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Favourite not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if err := db.DB.Delete(&favourite).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove favourite"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
