package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tradehub-dev/tradehub/internal/handlers"
	"github.com/tradehub-dev/tradehub/internal/middleware"
	"github.com/tradehub-dev/tradehub/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/notifications", middleware.AuthMiddleware(), handlers.NotificationSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
			auth.POST("/logout", handlers.Logout)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
			auth.DELETE("/account", middleware.AuthMiddleware(), handlers.DeleteAccount)
		}

		profile := api.Group("/profile", middleware.AuthMiddleware())
		{
			profile.GET("", handlers.GetProfile)
			profile.PUT("", handlers.UpdateProfile)
		}

		// Public browse endpoints
		api.GET("/businesses", handlers.ListBusinesses)
		api.GET("/businesses/:business_id", handlers.GetBusiness)
		api.GET("/ads", handlers.ListAds)
		api.GET("/ads/:ad_id", handlers.GetAd)
		api.GET("/listings", handlers.ListListings)
		api.GET("/listings/:listing_id", handlers.GetListing)

		businesses := api.Group("/businesses", middleware.AuthMiddleware())
		{
			businesses.POST("", handlers.CreateBusiness)
			businesses.PUT("/:business_id", handlers.UpdateBusiness)
			businesses.DELETE("/:business_id", handlers.DeleteBusiness)
		}

		ads := api.Group("/ads", middleware.AuthMiddleware())
		{
			ads.POST("", handlers.CreateAd)
			ads.GET("/mine", handlers.ListMyAds)
			ads.PUT("/:ad_id", handlers.UpdateAd)
			ads.POST("/:ad_id/close", handlers.CloseAd)
			ads.DELETE("/:ad_id", handlers.DeleteAd)
			ads.POST("/:ad_id/responses", handlers.RespondToAd)
			ads.GET("/:ad_id/responses", handlers.ListAdResponses)
		}

		listings := api.Group("/listings", middleware.AuthMiddleware())
		{
			listings.POST("", handlers.CreateListing)
			listings.PUT("/:listing_id", handlers.UpdateListing)
			listings.DELETE("/:listing_id", handlers.DeleteListing)
			listings.POST("/:listing_id/contact", handlers.ContactSeller)
		}

		favourites := api.Group("/favourites", middleware.AuthMiddleware())
		{
			favourites.POST("", handlers.AddFavourite)
			favourites.GET("", handlers.ListFavourites)
			favourites.DELETE("/:favourite_id", handlers.RemoveFavourite)
		}

		notifications := api.Group("/notifications", middleware.AuthMiddleware())
		{
			notifications.GET("", handlers.ListNotifications)
			notifications.POST("/:notification_id/read", handlers.MarkNotificationRead)
		}

		subscription := api.Group("/subscription", middleware.AuthMiddleware())
		{
			subscription.GET("", handlers.GetSubscription)
			subscription.POST("/checkout", handlers.CreateCheckout)
			subscription.POST("/cancel", handlers.CancelSubscription)
		}

		api.GET("/entitlements/:action", middleware.AuthMiddleware(), handlers.CheckEntitlement)
		api.POST("/uploads", middleware.AuthMiddleware(), handlers.UploadImage)

		// Signature-verified; no session auth.
		api.POST("/billing/webhook", handlers.BillingWebhook)
	}

	return r
}
