package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradehub-dev/tradehub/db"
	"github.com/tradehub-dev/tradehub/internal/entitlement"
	"github.com/tradehub-dev/tradehub/internal/geocode"
	"github.com/tradehub-dev/tradehub/internal/middleware"
	"github.com/tradehub-dev/tradehub/internal/models"
	"github.com/tradehub-dev/tradehub/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeMailer struct {
	adResponseCalls     int
	listingContactCalls int
	lastRecipient       string
	err                 error
}

func (m *fakeMailer) SendAdResponse(toEmail, toName, adTitle, responderName, message string) error {
	m.adResponseCalls++
	m.lastRecipient = toEmail
	return m.err
}

func (m *fakeMailer) SendListingContact(toEmail, toName, listingTitle, senderName, senderEmail, message string) error {
	m.listingContactCalls++
	m.lastRecipient = toEmail
	return m.err
}

type fakeResolver struct {
	result geocode.Result
	calls  int
}

func (r *fakeResolver) Resolve(ctx context.Context, addr geocode.Address) geocode.Result {
	r.calls++
	return r.result
}

func setupTest(t *testing.T) (*fakeMailer, *fakeResolver) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Business{},
		&models.Ad{},
		&models.AdResponse{},
		&models.Listing{},
		&models.Favourite{},
		&models.Notification{},
		&models.Subscription{},
		&models.UsageCounter{},
	))

	db.DB = gdb
	Gate = entitlement.NewGate(gdb)

	Payments = nil

	mailer := &fakeMailer{}
	Mail = mailer

	resolver := &fakeResolver{result: geocode.Result{
		Success:          true,
		Latitude:         -36.8485,
		Longitude:        174.7633,
		FormattedAddress: "Auckland, New Zealand",
	}}
	Resolver = resolver

	return mailer, resolver
}

func createUser(t *testing.T, name, email string) models.User {
	t.Helper()

	user := models.User{Name: name, Email: email, PasswordHash: "x"}
	require.NoError(t, db.DB.Create(&user).Error)
	require.NoError(t, db.DB.Create(&models.Subscription{UserID: user.ID, Plan: "free", Status: "active"}).Error)
	return user
}

// authAs injects an authenticated user, standing in for the JWT
// middleware.
func authAs(user models.User) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(types.ContextUserKey, middleware.AuthenticatedUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		})
		ctx.Next()
	}
}

func performJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRespondToOwnAdRejected(t *testing.T) {
	mailer, _ := setupTest(t)

	owner := createUser(t, "Owner", "owner@example.com")
	ad := models.Ad{OwnerID: owner.ID, Kind: "project", Title: "Deck build", Description: "Backyard deck", Status: "open"}
	require.NoError(t, db.DB.Create(&ad).Error)

	r := gin.New()
	r.POST("/api/ads/:ad_id/responses", authAs(owner), RespondToAd)

	w := performJSON(t, r, http.MethodPost, fmt.Sprintf("/api/ads/%d/responses", ad.ID), gin.H{"message": "I can do this"})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, db.DB.Model(&models.AdResponse{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "rejected before any write")
	assert.Equal(t, 0, mailer.adResponseCalls)
}

func TestRespondAtLimitDenied(t *testing.T) {
	mailer, _ := setupTest(t)

	owner := createUser(t, "Owner", "owner@example.com")
	responder := createUser(t, "Responder", "responder@example.com")

	ad := models.Ad{OwnerID: owner.ID, Kind: "position", Title: "Qualified sparky", Description: "Full time", Status: "open"}
	require.NoError(t, db.DB.Create(&ad).Error)

	require.NoError(t, db.DB.Create(&models.UsageCounter{
		UserID:      responder.ID,
		Action:      types.ActionAdResponse,
		PeriodStart: entitlement.PeriodStart(time.Now()),
		Count:       5,
	}).Error)

	r := gin.New()
	r.POST("/api/ads/:ad_id/responses", authAs(responder), RespondToAd)

	w := performJSON(t, r, http.MethodPost, fmt.Sprintf("/api/ads/%d/responses", ad.ID), gin.H{"message": "Pick me"})

	assert.Equal(t, http.StatusForbidden, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(5), body["count"])
	assert.Equal(t, float64(5), body["limit"])

	var count int64
	require.NoError(t, db.DB.Model(&models.AdResponse{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, 0, mailer.adResponseCalls)
}

func TestRespondSuccess(t *testing.T) {
	mailer, _ := setupTest(t)

	owner := createUser(t, "Owner", "owner@example.com")
	responder := createUser(t, "Responder", "responder@example.com")

	ad := models.Ad{OwnerID: owner.ID, Kind: "project", Title: "Kitchen reno", Description: "Full refit", Status: "open"}
	require.NoError(t, db.DB.Create(&ad).Error)

	r := gin.New()
	r.POST("/api/ads/:ad_id/responses", authAs(responder), RespondToAd)

	w := performJSON(t, r, http.MethodPost, fmt.Sprintf("/api/ads/%d/responses", ad.ID), gin.H{"message": "Happy to quote"})

	assert.Equal(t, http.StatusCreated, w.Code)

	var response models.AdResponse
	require.NoError(t, db.DB.Where("ad_id = ? AND user_id = ?", ad.ID, responder.ID).First(&response).Error)
	assert.Equal(t, "sent", response.EmailStatus)

	assert.Equal(t, 1, mailer.adResponseCalls)
	assert.Equal(t, "owner@example.com", mailer.lastRecipient)

	var counter models.UsageCounter
	require.NoError(t, db.DB.Where("user_id = ? AND action = ?", responder.ID, types.ActionAdResponse).First(&counter).Error)
	assert.Equal(t, 1, counter.Count)

	var notifications int64
	require.NoError(t, db.DB.Model(&models.Notification{}).Where("user_id = ?", owner.ID).Count(&notifications).Error)
	assert.Equal(t, int64(1), notifications)
}

func TestRespondEmailFailureIsPartialSuccess(t *testing.T) {
	mailer, _ := setupTest(t)
	mailer.err = fmt.Errorf("provider down")

	owner := createUser(t, "Owner", "owner@example.com")
	responder := createUser(t, "Responder", "responder@example.com")

	ad := models.Ad{OwnerID: owner.ID, Kind: "personnel", Title: "Available builder", Description: "20 years experience", Status: "open"}
	require.NoError(t, db.DB.Create(&ad).Error)

	r := gin.New()
	r.POST("/api/ads/:ad_id/responses", authAs(responder), RespondToAd)

	w := performJSON(t, r, http.MethodPost, fmt.Sprintf("/api/ads/%d/responses", ad.ID), gin.H{"message": "Keen"})

	assert.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.Contains(t, body, "warning")

	var response models.AdResponse
	require.NoError(t, db.DB.Where("ad_id = ?", ad.ID).First(&response).Error)
	assert.Equal(t, "failed", response.EmailStatus)
}

func TestRespondMessageTooLong(t *testing.T) {
	setupTest(t)

	owner := createUser(t, "Owner", "owner@example.com")
	responder := createUser(t, "Responder", "responder@example.com")

	ad := models.Ad{OwnerID: owner.ID, Kind: "project", Title: "Fence", Description: "Boundary fence", Status: "open"}
	require.NoError(t, db.DB.Create(&ad).Error)

	long := make([]byte, types.MaxMessageLength+1)
	for i := range long {
		long[i] = 'a'
	}

	r := gin.New()
	r.POST("/api/ads/:ad_id/responses", authAs(responder), RespondToAd)

	w := performJSON(t, r, http.MethodPost, fmt.Sprintf("/api/ads/%d/responses", ad.ID), gin.H{"message": string(long)})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, db.DB.Model(&models.AdResponse{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRespondMessageLengthCountsRunes(t *testing.T) {
	setupTest(t)

	owner := createUser(t, "Owner", "owner@example.com")
	responder := createUser(t, "Responder", "responder@example.com")

	ad := models.Ad{OwnerID: owner.ID, Kind: "project", Title: "Wharenui repair", Description: "Carving restoration", Status: "open"}
	require.NoError(t, db.DB.Create(&ad).Error)

	// 1500 characters but 3000 bytes; the limit is on characters.
	message := strings.Repeat("ā", 1500)

	r := gin.New()
	r.POST("/api/ads/:ad_id/responses", authAs(responder), RespondToAd)

	w := performJSON(t, r, http.MethodPost, fmt.Sprintf("/api/ads/%d/responses", ad.ID), gin.H{"message": message})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRespondToClosedAdConflicts(t *testing.T) {
	setupTest(t)

	owner := createUser(t, "Owner", "owner@example.com")
	responder := createUser(t, "Responder", "responder@example.com")

	ad := models.Ad{OwnerID: owner.ID, Kind: "project", Title: "Old job", Description: "Done", Status: "closed"}
	require.NoError(t, db.DB.Create(&ad).Error)

	r := gin.New()
	r.POST("/api/ads/:ad_id/responses", authAs(responder), RespondToAd)

	w := performJSON(t, r, http.MethodPost, fmt.Sprintf("/api/ads/%d/responses", ad.ID), gin.H{"message": "Too late?"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestContactOwnListingRejected(t *testing.T) {
	mailer, _ := setupTest(t)

	seller := createUser(t, "Seller", "seller@example.com")
	listing := models.Listing{SellerID: seller.ID, Title: "Ute", Description: "2015 Hilux", Category: "vehicle", PriceCents: 2500000, Status: "active"}
	require.NoError(t, db.DB.Create(&listing).Error)

	r := gin.New()
	r.POST("/api/listings/:listing_id/contact", authAs(seller), ContactSeller)

	w := performJSON(t, r, http.MethodPost, fmt.Sprintf("/api/listings/%d/contact", listing.ID), gin.H{"message": "Is this available?"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, mailer.listingContactCalls)

	var notifications int64
	require.NoError(t, db.DB.Model(&models.Notification{}).Count(&notifications).Error)
	assert.Equal(t, int64(0), notifications, "rejected before any write")
}

func TestContactSellerSendsEmail(t *testing.T) {
	mailer, _ := setupTest(t)

	seller := createUser(t, "Seller", "seller@example.com")
	buyer := createUser(t, "Buyer", "buyer@example.com")

	listing := models.Listing{SellerID: seller.ID, Title: "Scaffolding", Description: "Full set", Category: "equipment", PriceCents: 120000, Status: "active"}
	require.NoError(t, db.DB.Create(&listing).Error)

	r := gin.New()
	r.POST("/api/listings/:listing_id/contact", authAs(buyer), ContactSeller)

	w := performJSON(t, r, http.MethodPost, fmt.Sprintf("/api/listings/%d/contact", listing.ID), gin.H{"message": "Still for sale?"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, mailer.listingContactCalls)
	assert.Equal(t, "seller@example.com", mailer.lastRecipient)

	var notifications int64
	require.NoError(t, db.DB.Model(&models.Notification{}).Where("user_id = ?", seller.ID).Count(&notifications).Error)
	assert.Equal(t, int64(1), notifications)
}

func TestUpdateListingMarksSold(t *testing.T) {
	setupTest(t)

	seller := createUser(t, "Seller", "seller@example.com")
	listing := models.Listing{SellerID: seller.ID, Title: "Nail gun", Description: "Paslode framing nailer", Category: "tools", PriceCents: 45000, Status: "active"}
	require.NoError(t, db.DB.Create(&listing).Error)

	r := gin.New()
	r.PUT("/api/listings/:listing_id", authAs(seller), UpdateListing)

	w := performJSON(t, r, http.MethodPut, fmt.Sprintf("/api/listings/%d", listing.ID), gin.H{
		"title":       listing.Title,
		"description": listing.Description,
		"category":    listing.Category,
		"price_cents": listing.PriceCents,
		"status":      "sold",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Listing
	require.NoError(t, db.DB.First(&updated, listing.ID).Error)
	assert.Equal(t, "sold", updated.Status)
}

func TestUpdateListingRejectsUnknownStatus(t *testing.T) {
	setupTest(t)

	seller := createUser(t, "Seller", "seller@example.com")
	listing := models.Listing{SellerID: seller.ID, Title: "Nail gun", Description: "Paslode framing nailer", Category: "tools", PriceCents: 45000, Status: "active"}
	require.NoError(t, db.DB.Create(&listing).Error)

	r := gin.New()
	r.PUT("/api/listings/:listing_id", authAs(seller), UpdateListing)

	w := performJSON(t, r, http.MethodPut, fmt.Sprintf("/api/listings/%d", listing.ID), gin.H{
		"title":       listing.Title,
		"description": listing.Description,
		"category":    listing.Category,
		"price_cents": listing.PriceCents,
		"status":      "lost",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var unchanged models.Listing
	require.NoError(t, db.DB.First(&unchanged, listing.ID).Error)
	assert.Equal(t, "active", unchanged.Status)
}

func TestCreateBusinessPersistsGeocodeFailure(t *testing.T) {
	_, resolver := setupTest(t)
	resolver.result = geocode.Result{Success: false, Reason: geocode.ReasonServiceUnavailable}

	owner := createUser(t, "Owner", "owner@example.com")

	r := gin.New()
	r.POST("/api/businesses", authAs(owner), CreateBusiness)

	w := performJSON(t, r, http.MethodPost, "/api/businesses", gin.H{
		"name": "Smith Plumbing",
		"city": "Hamilton",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var business models.Business
	require.NoError(t, db.DB.Where("owner_id = ?", owner.ID).First(&business).Error)
	assert.Equal(t, "failed", business.GeocodingStatus)
	assert.NotEmpty(t, business.GeocodingError)
	assert.Nil(t, business.Latitude)
	assert.Nil(t, business.Longitude)
}

func TestCreateBusinessGeocodeSuccess(t *testing.T) {
	_, resolver := setupTest(t)

	owner := createUser(t, "Owner", "owner@example.com")

	r := gin.New()
	r.POST("/api/businesses", authAs(owner), CreateBusiness)

	w := performJSON(t, r, http.MethodPost, "/api/businesses", gin.H{
		"name":   "Auckland Roofing",
		"street": "12 Queen St",
		"city":   "Auckland",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, resolver.calls)

	var business models.Business
	require.NoError(t, db.DB.Where("owner_id = ?", owner.ID).First(&business).Error)
	assert.Equal(t, "ok", business.GeocodingStatus)
	require.NotNil(t, business.Latitude)
	assert.Equal(t, -36.8485, *business.Latitude)
	assert.Equal(t, "Auckland, New Zealand", business.FormattedAddress)
}

func TestCreateAdAtLimitDenied(t *testing.T) {
	setupTest(t)

	owner := createUser(t, "Owner", "owner@example.com")

	require.NoError(t, db.DB.Create(&models.UsageCounter{
		UserID:      owner.ID,
		Action:      types.ActionOpenAd,
		PeriodStart: entitlement.PeriodStart(time.Now()),
		Count:       3,
	}).Error)

	r := gin.New()
	r.POST("/api/ads", authAs(owner), CreateAd)

	w := performJSON(t, r, http.MethodPost, "/api/ads", gin.H{
		"kind":        "project",
		"title":       "Bathroom reno",
		"description": "Tiling and plumbing",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(3), body["count"])
	assert.Equal(t, float64(3), body["limit"])
}

func TestDuplicateResponseConflicts(t *testing.T) {
	setupTest(t)

	owner := createUser(t, "Owner", "owner@example.com")
	responder := createUser(t, "Responder", "responder@example.com")

	ad := models.Ad{OwnerID: owner.ID, Kind: "project", Title: "Garage build", Description: "Double garage", Status: "open"}
	require.NoError(t, db.DB.Create(&ad).Error)

	r := gin.New()
	r.POST("/api/ads/:ad_id/responses", authAs(responder), RespondToAd)

	first := performJSON(t, r, http.MethodPost, fmt.Sprintf("/api/ads/%d/responses", ad.ID), gin.H{"message": "First"})
	assert.Equal(t, http.StatusCreated, first.Code)

	second := performJSON(t, r, http.MethodPost, fmt.Sprintf("/api/ads/%d/responses", ad.ID), gin.H{"message": "Second"})
	assert.Equal(t, http.StatusConflict, second.Code)
}
