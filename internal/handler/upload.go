package handler

import (
	"errors"

	"tour_booking/internal/apperror"
	"tour_booking/internal/images"

	"github.com/gin-gonic/gin"
)

// respondUploadError maps image processing failures onto the error envelope
func respondUploadError(c *gin.Context, err error) {
	if errors.Is(err, images.ErrNotAnImage) {
		apperror.Respond(c, apperror.Validation(err.Error()))
		return
	}
	apperror.Respond(c, err)
}
