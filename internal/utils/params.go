package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetIDParam parses a numeric path parameter such as :business_id.
func GetIDParam(ctx *gin.Context, name string) (uint, error) {
	idStr := ctx.Param(name)

	if idStr == "" {
		return 0, errors.New("Missing " + name)
	}

	id, err := strconv.ParseUint(idStr, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid " + name)
	}

	return uint(id), nil
}
