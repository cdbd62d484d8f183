package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradehub-dev/tradehub/db"
	"github.com/tradehub-dev/tradehub/internal/geocode"
	"github.com/tradehub-dev/tradehub/internal/models"
	"github.com/tradehub-dev/tradehub/internal/utils"
	"gorm.io/gorm"
)

type BusinessRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
	Email       string `json:"email" binding:"omitempty,email"`
	Website     string `json:"website"`
	LogoURL     string `json:"logo_url"`
	Street      string `json:"street"`
	Suburb      string `json:"suburb"`
	City        string `json:"city" binding:"required"`
	Region      string `json:"region"`
	PostalCode  string `json:"postal_code"`
}

type BusinessResponse struct {
	ID               uint     `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Phone            string   `json:"phone"`
	Email            string   `json:"email"`
	Website          string   `json:"website"`
	LogoURL          string   `json:"logo_url"`
	Street           string   `json:"street"`
	Suburb           string   `json:"suburb"`
	City             string   `json:"city"`
	Region           string   `json:"region"`
	PostalCode       string   `json:"postal_code"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	FormattedAddress string   `json:"formatted_address"`
	GeocodingStatus  string   `json:"geocoding_status"`
}

func businessResponse(b models.Business) BusinessResponse {
	return BusinessResponse{
		ID:               b.ID,
		Name:             b.Name,
		Description:      b.Description,
		Phone:            b.Phone,
		Email:            b.Email,
		Website:          b.Website,
		LogoURL:          b.LogoURL,
		Street:           b.Street,
		Suburb:           b.Suburb,
		City:             b.City,
		Region:           b.Region,
		PostalCode:       b.PostalCode,
		Latitude:         b.Latitude,
		Longitude:        b.Longitude,
		FormattedAddress: b.FormattedAddress,
		GeocodingStatus:  b.GeocodingStatus,
	}
}

// geocodeBusiness resolves the business address in place. Failures are
// recorded on the record, never returned: a business with a bad address
// still exists, just without map coordinates.
func geocodeBusiness(ctx *gin.Context, business *models.Business) {
	if Resolver == nil {
		business.GeocodingStatus = "failed"
		business.GeocodingError = "geocoding not configured"
		return
	}

	result := Resolver.Resolve(ctx.Request.Context(), geocode.Address{
		Street:     business.Street,
		Suburb:     business.Suburb,
		City:       business.City,
		Region:     business.Region,
		PostalCode: business.PostalCode,
	})

	if result.Success {
		business.Latitude = &result.Latitude
		business.Longitude = &result.Longitude
		business.FormattedAddress = result.FormattedAddress
		business.GeocodingStatus = "ok"
		business.GeocodingError = ""
		return
	}

	log.Printf("Geocoding failed for business %q: %s", business.Name, result.Reason)
	business.Latitude = nil
	business.Longitude = nil
	business.FormattedAddress = ""
	business.GeocodingStatus = "failed"
	business.GeocodingError = string(result.Reason)
}

func CreateBusiness(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req BusinessRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	business := models.Business{
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
		LogoURL:     req.LogoURL,
		Street:      req.Street,
		Suburb:      req.Suburb,
		City:        req.City,
		Region:      req.Region,
		PostalCode:  req.PostalCode,
	}

	geocodeBusiness(ctx, &business)

	if err := db.DB.Create(&business).Error; err != nil {
		log.Printf("Failed to create business: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create business"})
		return
	}

	ctx.JSON(http.StatusCreated, businessResponse(business))
}

func GetBusiness(ctx *gin.Context) {
	businessID, err := utils.GetIDParam(ctx, "business_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var business models.Business

	if err := db.DB.First(&business, businessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Business not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve business"})
		}
		return
	}

	ctx.JSON(http.StatusOK, businessResponse(business))
}

func ListBusinesses(ctx *gin.Context) {
	query := db.DB.Model(&models.Business{})

	if region := ctx.Query("region"); region != "" {
		query = query.Where("region = ?", region)
	}

	if city := ctx.Query("city"); city != "" {
		query = query.Where("city = ?", city)
	}

	var businesses []models.Business

	if err := query.Order("created_at DESC").Limit(100).Find(&businesses).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve businesses"})
		return
	}

	responses := make([]BusinessResponse, 0, len(businesses))
	for _, business := range businesses {
		responses = append(responses, businessResponse(business))
	}

	ctx.JSON(http.StatusOK, responses)
}

func UpdateBusiness(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	businessID, err := utils.GetIDParam(ctx, "business_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var business models.Business

	if err := db.DB.Where("id = ? AND owner_id = ?", businessID, userID).First(&business).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Business not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve business"})
		}
		return
	}

	var req BusinessRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	addressChanged := business.Street != req.Street ||
		business.Suburb != req.Suburb ||
		business.City != req.City ||
		business.Region != req.Region ||
		business.PostalCode != req.PostalCode

	business.Name = req.Name
	business.Description = req.Description
	business.Phone = req.Phone
	business.Email = req.Email
	business.Website = req.Website
	business.LogoURL = req.LogoURL
	business.Street = req.Street
	business.Suburb = req.Suburb
	business.City = req.City
	business.Region = req.Region
	business.PostalCode = req.PostalCode

	if addressChanged {
		geocodeBusiness(ctx, &business)
	}

	if err := db.DB.Save(&business).Error; err != nil {
		log.Printf("Failed to update business %d: %v", business.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update business"})
		return
	}

	ctx.JSON(http.StatusOK, businessResponse(business))
}

func DeleteBusiness(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	businessID, err := utils.GetIDParam(ctx, "business_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var business models.Business

	if err := db.DB.Where("id = ? AND owner_id = ?", businessID, userID).First(&business).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Business not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve business"})
		}
		return
	}

	if err := db.DB.Delete(&business).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete business"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
