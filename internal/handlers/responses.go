package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/tradehub-dev/tradehub/db"
	"github.com/tradehub-dev/tradehub/internal/models"
	"github.com/tradehub-dev/tradehub/internal/types"
	"github.com/tradehub-dev/tradehub/internal/utils"
	"gorm.io/gorm"
)

type RespondToAdRequest struct {
	Message string `json:"message" binding:"required"`
}

type AdResponseSummary struct {
	ID          uint   `json:"id"`
	AdID        uint   `json:"ad_id"`
	UserID      uint   `json:"user_id"`
	UserName    string `json:"user_name"`
	Message     string `json:"message"`
	EmailStatus string `json:"email_status"`
}

func RespondToAd(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	adID, err := utils.GetIDParam(ctx, "ad_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req RespondToAdRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	if utf8.RuneCountInString(req.Message) > types.MaxMessageLength {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Message exceeds %d characters", types.MaxMessageLength)})
		return
	}

	var ad models.Ad

	if err := db.DB.Preload("Owner").First(&ad, adID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Ad not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve ad"})
		}
		return
	}

	if ad.OwnerID == currentUser.ID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "You cannot respond to your own ad"})
		return
	}

	if ad.Status != "open" {
		ctx.JSON(http.StatusConflict, gin.H{"error": "Ad is closed"})
		return
	}

	var existing models.AdResponse

	err = db.DB.Where("ad_id = ? AND user_id = ?", ad.ID, currentUser.ID).First(&existing).Error

	if err == nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": "You have already responded to this ad"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking existing response: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	decision, err := Gate.Check(currentUser.ID, types.ActionAdResponse)

	if err != nil {
		log.Printf("Entitlement check failed for user %d: %v", currentUser.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !decision.Allowed {
		ctx.JSON(http.StatusForbidden, gin.H{
			"error": "Plan limit reached for ad responses",
			"count": decision.Count,
			"limit": decision.Limit,
		})
		return
	}

	response := models.AdResponse{
		AdID:        ad.ID,
		UserID:      currentUser.ID,
		Message:     req.Message,
		EmailStatus: "pending",
	}

	if err := db.DB.Create(&response).Error; err != nil {
		log.Printf("Failed to create ad response: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create response"})
		return
	}

	if err := Gate.Increment(currentUser.ID, types.ActionAdResponse); err != nil {
		log.Printf("Failed to increment ad_response counter for user %d: %v", currentUser.ID, err)
	}

	// The response row is already persisted; from here on a failure is a
	// warning on the reply, not a request failure.
	emailWarning := ""

	if Mail != nil {
		if err := Mail.SendAdResponse(ad.Owner.Email, ad.Owner.Name, ad.Title, currentUser.Name, req.Message); err != nil {
			emailWarning = "Response saved, but the notification email could not be delivered"
			db.DB.Model(&response).Update("email_status", "failed")
		} else {
			db.DB.Model(&response).Update("email_status", "sent")
		}
	}

	notifyUser(ad.OwnerID, "ad_response", fmt.Sprintf("%s responded to your ad %q", currentUser.Name, ad.Title))

	body := gin.H{
		"response_id": response.ID,
		"ad_id":       ad.ID,
	}

	if emailWarning != "" {
		body["warning"] = emailWarning
	}

	ctx.JSON(http.StatusCreated, body)
}

// ListAdResponses returns the responses to one of the caller's own ads.
func ListAdResponses(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	adID, err := utils.GetIDParam(ctx, "ad_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ad models.Ad

	if err := db.DB.Where("id = ? AND owner_id = ?", adID, userID).First(&ad).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Ad not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve ad"})
		}
		return
	}

	var responses []models.AdResponse

	if err := db.DB.Preload("User").Where("ad_id = ?", ad.ID).Order("created_at DESC").Find(&responses).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve responses"})
		return
	}

	summaries := make([]AdResponseSummary, 0, len(responses))

	for _, response := range responses {
		summaries = append(summaries, AdResponseSummary{
			ID:          response.ID,
			AdID:        response.AdID,
			UserID:      response.UserID,
			UserName:    response.User.Name,
			Message:     response.Message,
			EmailStatus: response.EmailStatus,
		})
	}

	ctx.JSON(http.StatusOK, summaries)
}

// CheckEntitlement exposes the gate decision for client display.
func CheckEntitlement(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	action := ctx.Param("action")

	decision, err := Gate.Check(userID, action)

	if err != nil {
		log.Printf("Entitlement check failed for user %d: %v", userID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, decision)
}
