package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tradehub-dev/tradehub/db"
	"github.com/tradehub-dev/tradehub/internal/models"
	"github.com/tradehub-dev/tradehub/internal/utils"
	"gorm.io/gorm"
)

type NotificationResponse struct {
	ID        uint       `json:"id"`
	Kind      string     `json:"kind"`
	Message   string     `json:"message"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// notifyUser records a notification and pushes it to the user's open
// websocket connections. Failures are logged only; notifications never
// fail the request that produced them.
func notifyUser(userID uint, kind, message string) {
	notification := models.Notification{
		UserID:  userID,
		Kind:    kind,
		Message: message,
	}

	if err := db.DB.Create(&notification).Error; err != nil {
		log.Printf("Failed to create notification for user %d: %v", userID, err)
		return
	}

	PushNotification(userID, NotificationResponse{
		ID:        notification.ID,
		Kind:      notification.Kind,
		Message:   notification.Message,
		CreatedAt: notification.CreatedAt,
	})
}

func ListNotifications(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var notifications []models.Notification

	if err := db.DB.Where("user_id = ?", userID).Order("created_at DESC").Limit(50).Find(&notifications).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notifications"})
		return
	}

	responses := make([]NotificationResponse, 0, len(notifications))

	for _, notification := range notifications {
		responses = append(responses, NotificationResponse{
			ID:        notification.ID,
			Kind:      notification.Kind,
			Message:   notification.Message,
			ReadAt:    notification.ReadAt,
			CreatedAt: notification.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, responses)
}

func MarkNotificationRead(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	notificationID, err := utils.GetIDParam(ctx, "notification_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var notification models.Notification

	if err := db.DB.Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	now := time.Now()

	if err := db.DB.Model(&notification).Update("read_at", &now).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}
