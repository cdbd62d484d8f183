package handlers

import (
	"encoding/json"
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

type ListingRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Region      string   `json:"region"`
	PriceCents  int64    `json:"price_cents" binding:"required"`
	Status      string   `json:"status"` // Update only; creates always start "active"
	Photos      []string `json:"photos"`
}

var listingStatuses = map[string]bool{
	"active":    true,
	"sold":      true,
	"withdrawn": true,
}

type ListingResponse struct {
	ID          uint     `json:"id"`
	SellerID    uint     `json:"seller_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Region      string   `json:"region"`
	PriceCents  int64    `json:"price_cents"`
	Status      string   `json:"status"`
	Photos      []string `json:"photos"`
}

type ContactSellerRequest struct {
	Message string `json:"message" binding:"required"`
}

func listingResponse(listing models.Listing) ListingResponse {
	var photos []string
	if len(listing.Photos) > 0 {
		if err := json.Unmarshal(listing.Photos, &photos); err != nil {
			photos = nil
		}
	}

	return ListingResponse{
		ID:          listing.ID,
		SellerID:    listing.SellerID,
		Title:       listing.Title,
		Description: listing.Description,
		Category:    listing.Category,
		Region:      listing.Region,
		PriceCents:  listing.PriceCents,
		Status:      listing.Status,
		Photos:      photos,
	}
}

func CreateListing(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req ListingRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.PriceCents < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Price cannot be negative"})
		return
	}

	decision, err := Gate.Check(userID, types.ActionListing)

	if err != nil {
		log.Printf("Entitlement check failed for user %d: %v", userID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !decision.Allowed {
		ctx.JSON(http.StatusForbidden, gin.H{
			"error": "Plan limit reached for listings",
			"count": decision.Count,
			"limit": decision.Limit,
		})
		return
	}

	photosJSON, err := json.Marshal(req.Photos)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid photos format"})
		return
	}

	listing := models.Listing{
		SellerID:    userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Region:      req.Region,
		PriceCents:  req.PriceCents,
		Status:      "active",
		Photos:      photosJSON,
	}

	if err := db.DB.Create(&listing).Error; err != nil {
		log.Printf("Failed to create listing: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create listing"})
		return
	}

	if err := Gate.Increment(userID, types.ActionListing); err != nil {
		log.Printf("Failed to increment listing counter for user %d: %v", userID, err)
	}

	ctx.JSON(http.StatusCreated, listingResponse(listing))
}

func ListListings(ctx *gin.Context) {
	query := db.DB.Model(&models.Listing{}).Where("status = ?", "active")

	if category := ctx.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	if region := ctx.Query("region"); region != "" {
		query = query.Where("region = ?", region)
	}

	var listings []models.Listing

	if err := query.Order("created_at DESC").Limit(100).Find(&listings).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve listings"})
		return
	}

	responses := make([]ListingResponse, 0, len(listings))
	for _, listing := range listings {
		responses = append(responses, listingResponse(listing))
	}

	ctx.JSON(http.StatusOK, responses)
}

func GetListing(ctx *gin.Context) {
	listingID, err := utils.GetIDParam(ctx, "listing_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var listing models.Listing

	if err := db.DB.First(&listing, listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve listing"})
		}
		return
	}

	ctx.JSON(http.StatusOK, listingResponse(listing))
}

func UpdateListing(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	listingID, err := utils.GetIDParam(ctx, "listing_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var listing models.Listing

	if err := db.DB.Where("id = ? AND seller_id = ?", listingID, userID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve listing"})
		}
		return
	}

	var req ListingRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Status != "" && !listingStatuses[req.Status] {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown listing status"})
		return
	}

	photosJSON, err := json.Marshal(req.Photos)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid photos format"})
		return
	}

	listing.Title = req.Title
	listing.Description = req.Description
	listing.Category = req.Category
	listing.Region = req.Region
	listing.PriceCents = req.PriceCents
	listing.Photos = photosJSON

	if req.Status != "" {
		listing.Status = req.Status
	}

	if err := db.DB.Save(&listing).Error; err != nil {
		log.Printf("Failed to update listing %d: %v", listing.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update listing"})
		return
	}

	ctx.JSON(http.StatusOK, listingResponse(listing))
}

func DeleteListing(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	listingID, err := utils.GetIDParam(ctx, "listing_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var listing models.Listing

	if err := db.DB.Where("id = ? AND seller_id = ?", listingID, userID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve listing"})
		}
		return
	}

	if err := db.DB.Delete(&listing).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete listing"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// ContactSeller relays a message about a listing to its seller by email.
// Nothing is persisted beyond a notification row, so every rejection here
// happens before any write.
func ContactSeller(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	listingID, err := utils.GetIDParam(ctx, "listing_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req ContactSellerRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	if utf8.RuneCountInString(req.Message) > types.MaxMessageLength {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Message exceeds %d characters", types.MaxMessageLength)})
		return
	}

	var listing models.Listing

	if err := db.DB.Preload("Seller").First(&listing, listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve listing"})
		}
		return
	}

	if listing.SellerID == currentUser.ID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "You cannot contact yourself about your own listing"})
		return
	}

	if listing.Status != "active" {
		ctx.JSON(http.StatusConflict, gin.H{"error": "Listing is no longer active"})
		return
	}

	if Mail == nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Email is not configured"})
		return
	}

	if err := Mail.SendListingContact(listing.Seller.Email, listing.Seller.Name, listing.Title, currentUser.Name, currentUser.Email, req.Message); err != nil {
		log.Printf("Failed to send listing contact email: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	notifyUser(listing.SellerID, "listing_contact", fmt.Sprintf("%s enquired about your listing %q", currentUser.Name, listing.Title))

	ctx.JSON(http.StatusOK, gin.H{"message": "Message sent to seller"})
}
