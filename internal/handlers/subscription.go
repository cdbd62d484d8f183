package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v81"
	"github.com/tradehub-dev/tradehub/db"
	"github.com/tradehub-dev/tradehub/internal/models"
	"github.com/tradehub-dev/tradehub/internal/types"
	"github.com/tradehub-dev/tradehub/internal/utils"
	"gorm.io/gorm"
)

type UsageSummary struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
	Limit  int    `json:"limit"`
}

type SubscriptionResponse struct {
	Plan             string         `json:"plan"`
	Status           string         `json:"status"`
	CurrentPeriodEnd *time.Time     `json:"current_period_end"`
	Usage            []UsageSummary `json:"usage"`
}

func GetSubscription(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	subscription := models.Subscription{Plan: "free", Status: "active"}

	err = db.DB.Where("user_id = ?", userID).First(&subscription).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Failed to fetch subscription for user %d: %v", userID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	actions := []string{types.ActionAdResponse, types.ActionOpenAd, types.ActionListing}
	usage := make([]UsageSummary, 0, len(actions))

	for _, action := range actions {
		decision, err := Gate.Check(userID, action)

		if err != nil {
			log.Printf("Usage check failed for user %d action %s: %v", userID, action, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		usage = append(usage, UsageSummary{
			Action: action,
			Count:  decision.Count,
			Limit:  decision.Limit,
		})
	}

	ctx.JSON(http.StatusOK, SubscriptionResponse{
		Plan:             subscription.Plan,
		Status:           subscription.Status,
		CurrentPeriodEnd: subscription.CurrentPeriodEnd,
		Usage:            usage,
	})
}

func CreateCheckout(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var subscription models.Subscription

	err = db.DB.Where("user_id = ?", currentUser.ID).First(&subscription).Error

	if err == nil && subscription.Plan == "pro" && subscription.Status == "active" {
		ctx.JSON(http.StatusConflict, gin.H{"error": "Already subscribed to the pro plan"})
		return
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Failed to fetch subscription for user %d: %v", currentUser.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if Payments == nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Billing is not configured"})
		return
	}

	checkoutURL, err := Payments.CreateCheckoutSession(currentUser.Email, currentUser.ID)

	if err != nil {
		log.Printf("Failed to create checkout session for user %d: %v", currentUser.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start checkout"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"checkout_url": checkoutURL})
}

func CancelSubscription(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var subscription models.Subscription

	if err := db.DB.Where("user_id = ?", userID).First(&subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if subscription.ProviderSubscriptionID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No paid subscription to cancel"})
		return
	}

	if Payments == nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Billing is not configured"})
		return
	}

	if err := Payments.CancelSubscription(subscription.ProviderSubscriptionID); err != nil {
		log.Printf("Failed to cancel subscription %s: %v", subscription.ProviderSubscriptionID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel subscription"})
		return
	}

	if err := db.DB.Model(&subscription).Update("status", "canceled").Error; err != nil {
		log.Printf("Failed to mark subscription canceled for user %d: %v", userID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Subscription canceled"})
}

// BillingWebhook ingests provider events and keeps the subscription row
// in sync. The provider retries on non-2xx, so unknown events are acked.
func BillingWebhook(ctx *gin.Context) {
	if Payments == nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Billing is not configured"})
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, 65536))

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read payload"})
		return
	}

	event, err := Payments.ConstructWebhookEvent(payload, ctx.GetHeader("Stripe-Signature"))

	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession

		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			log.Printf("Failed to parse checkout session event: %v", err)
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload"})
			return
		}

		handleCheckoutCompleted(ctx, session)
	case "customer.subscription.updated":
		var providerSub stripe.Subscription

		if err := json.Unmarshal(event.Data.Raw, &providerSub); err != nil {
			log.Printf("Failed to parse subscription event: %v", err)
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload"})
			return
		}

		handleSubscriptionUpdated(ctx, providerSub)
	case "customer.subscription.deleted":
		var providerSub stripe.Subscription

		if err := json.Unmarshal(event.Data.Raw, &providerSub); err != nil {
			log.Printf("Failed to parse subscription event: %v", err)
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload"})
			return
		}

		handleSubscriptionDeleted(ctx, providerSub)
	default:
		ctx.JSON(http.StatusOK, gin.H{"message": "Event ignored"})
	}
}

func handleCheckoutCompleted(ctx *gin.Context, session stripe.CheckoutSession) {
	userID, err := strconv.ParseUint(session.ClientReferenceID, 10, 32)

	if err != nil {
		log.Printf("Checkout session %s has invalid client reference %q", session.ID, session.ClientReferenceID)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client reference"})
		return
	}

	subscription := models.Subscription{UserID: uint(userID)}

	if err := db.DB.Where(models.Subscription{UserID: uint(userID)}).FirstOrCreate(&subscription).Error; err != nil {
		log.Printf("Failed to load subscription for user %d: %v", userID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	subscription.Plan = "pro"
	subscription.Status = "active"

	if session.Customer != nil {
		subscription.ProviderCustomerID = session.Customer.ID
	}

	if session.Subscription != nil {
		subscription.ProviderSubscriptionID = session.Subscription.ID
	}

	if err := db.DB.Save(&subscription).Error; err != nil {
		log.Printf("Failed to upgrade subscription for user %d: %v", userID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	notifyUser(uint(userID), "billing", "Your pro subscription is now active")

	ctx.JSON(http.StatusOK, gin.H{"message": "Subscription activated"})
}

func handleSubscriptionUpdated(ctx *gin.Context, providerSub stripe.Subscription) {
	var subscription models.Subscription

	if err := db.DB.Where("provider_subscription_id = ?", providerSub.ID).First(&subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Event arrived before checkout completion was processed.
			ctx.JSON(http.StatusOK, gin.H{"message": "Subscription not yet known"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	status := "active"

	switch providerSub.Status {
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		status = "past_due"
	case stripe.SubscriptionStatusCanceled:
		status = "canceled"
	}

	periodEnd := time.Unix(providerSub.CurrentPeriodEnd, 0).UTC()

	updates := map[string]interface{}{
		"status":             status,
		"current_period_end": &periodEnd,
	}

	if err := db.DB.Model(&subscription).Updates(updates).Error; err != nil {
		log.Printf("Failed to update subscription %s: %v", providerSub.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Subscription updated"})
}

func handleSubscriptionDeleted(ctx *gin.Context, providerSub stripe.Subscription) {
	var subscription models.Subscription

	if err := db.DB.Where("provider_subscription_id = ?", providerSub.ID).First(&subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusOK, gin.H{"message": "Subscription not known"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	updates := map[string]interface{}{
		"plan":                     "free",
		"status":                   "active",
		"provider_subscription_id": "",
		"current_period_end":       nil,
	}

	if err := db.DB.Model(&subscription).Updates(updates).Error; err != nil {
		log.Printf("Failed to downgrade subscription %s: %v", providerSub.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	notifyUser(subscription.UserID, "billing", "Your subscription has ended; you are back on the free plan")

	ctx.JSON(http.StatusOK, gin.H{"message": "Subscription downgraded"})
}
