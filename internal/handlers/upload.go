package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tradehub-dev/tradehub/internal/utils"
)

const maxUploadBytes = 5 << 20 // 5 MB

// UploadImage accepts a multipart image and stores it in object storage,
// returning the public URL.
func UploadImage(ctx *gin.Context) {
	if _, err := utils.GetCurrentUserID(ctx); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if Storage == nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Storage is not configured"})
		return
	}

	header, err := ctx.FormFile("image")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}

	if header.Size > maxUploadBytes {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Image exceeds the 5 MB limit"})
		return
	}

	contentType := header.Header.Get("Content-Type")

	if !strings.HasPrefix(contentType, "image/") {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only image uploads are accepted"})
		return
	}

	file, err := header.Open()

	if err != nil {
		log.Printf("Failed to open uploaded file: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	defer file.Close()

	url, err := Storage.UploadImage(ctx.Request.Context(), file, contentType)

	if err != nil {
		log.Printf("Failed to upload image: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"url": url})
}
