package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradehub-dev/tradehub/db"
	"github.com/tradehub-dev/tradehub/internal/models"
	"github.com/tradehub-dev/tradehub/internal/types"
	"github.com/tradehub-dev/tradehub/internal/utils"
	"gorm.io/gorm"
)

type AdRequest struct {
	Kind        string                 `json:"kind" binding:"required"`
	Title       string                 `json:"title" binding:"required"`
	Description string                 `json:"description" binding:"required"`
	Region      string                 `json:"region"`
	BusinessID  *uint                  `json:"business_id"`
	Details     map[string]interface{} `json:"details"`
}

type AdResponseBody struct {
	ID          uint                   `json:"id"`
	OwnerID     uint                   `json:"owner_id"`
	BusinessID  *uint                  `json:"business_id"`
	Kind        string                 `json:"kind"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Region      string                 `json:"region"`
	Status      string                 `json:"status"`
	Details     map[string]interface{} `json:"details"`
}

func adResponseBody(ad models.Ad) AdResponseBody {
	var details map[string]interface{}
	if len(ad.Details) > 0 {
		if err := json.Unmarshal(ad.Details, &details); err != nil {
			details = make(map[string]interface{})
		}
	}

	return AdResponseBody{
		ID:          ad.ID,
		OwnerID:     ad.OwnerID,
		BusinessID:  ad.BusinessID,
		Kind:        ad.Kind,
		Title:       ad.Title,
		Description: ad.Description,
		Region:      ad.Region,
		Status:      ad.Status,
		Details:     details,
	}
}

func CreateAd(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req AdRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !types.AdKinds[req.Kind] {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown ad kind"})
		return
	}

	decision, err := Gate.Check(userID, types.ActionOpenAd)

	if err != nil {
		log.Printf("Entitlement check failed for user %d: %v", userID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !decision.Allowed {
		ctx.JSON(http.StatusForbidden, gin.H{
			"error": "Plan limit reached for open ads",
			"count": decision.Count,
			"limit": decision.Limit,
		})
		return
	}

	if req.BusinessID != nil {
		var business models.Business
		if err := db.DB.Where("id = ? AND owner_id = ?", *req.BusinessID, userID).First(&business).Error; err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Business not found"})
			return
		}
	}

	detailsJSON, err := json.Marshal(req.Details)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid details format"})
		return
	}

	ad := models.Ad{
		OwnerID:     userID,
		BusinessID:  req.BusinessID,
		Kind:        req.Kind,
		Title:       req.Title,
		Description: req.Description,
		Region:      req.Region,
		Status:      "open",
		Details:     detailsJSON,
	}

	if err := db.DB.Create(&ad).Error; err != nil {
		log.Printf("Failed to create ad: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ad"})
		return
	}

	if err := Gate.Increment(userID, types.ActionOpenAd); err != nil {
		log.Printf("Failed to increment open_ad counter for user %d: %v", userID, err)
	}

	ctx.JSON(http.StatusCreated, adResponseBody(ad))
}

func ListAds(ctx *gin.Context) {
	query := db.DB.Model(&models.Ad{}).Where("status = ?", "open")

	if kind := ctx.Query("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}

	if region := ctx.Query("region"); region != "" {
		query = query.Where("region = ?", region)
	}

	var ads []models.Ad

	if err := query.Order("created_at DESC").Limit(100).Find(&ads).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve ads"})
		return
	}

	responses := make([]AdResponseBody, 0, len(ads))
	for _, ad := range ads {
		responses = append(responses, adResponseBody(ad))
	}

	ctx.JSON(http.StatusOK, responses)
}

func ListMyAds(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var ads []models.Ad

	if err := db.DB.Where("owner_id = ?", userID).Order("created_at DESC").Find(&ads).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve ads"})
		return
	}

	responses := make([]AdResponseBody, 0, len(ads))
	for _, ad := range ads {
		responses = append(responses, adResponseBody(ad))
	}

	ctx.JSON(http.StatusOK, responses)
}

func GetAd(ctx *gin.Context) {
	adID, err := utils.GetIDParam(ctx, "ad_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ad models.Ad

	if err := db.DB.First(&ad, adID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Ad not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve ad"})
		}
		return
	}

	ctx.JSON(http.StatusOK, adResponseBody(ad))
}

func UpdateAd(ctx *gin.Context) {
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

	var req AdRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !types.AdKinds[req.Kind] {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown ad kind"})
		return
	}

	detailsJSON, err := json.Marshal(req.Details)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid details format"})
		return
	}

	ad.Kind = req.Kind
	ad.Title = req.Title
	ad.Description = req.Description
	ad.Region = req.Region
	ad.Details = detailsJSON

	if err := db.DB.Save(&ad).Error; err != nil {
		log.Printf("Failed to update ad %d: %v", ad.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update ad"})
		return
	}

	ctx.JSON(http.StatusOK, adResponseBody(ad))
}

func CloseAd(ctx *gin.Context) {
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

	if err := db.DB.Model(&ad).Update("status", "closed").Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to close ad"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Ad closed", "ad_id": ad.ID})
}

func DeleteAd(ctx *gin.Context) {
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

	if err := db.DB.Delete(&ad).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete ad"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
