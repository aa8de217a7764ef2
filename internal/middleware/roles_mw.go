package middleware

import (
	"tour_booking/internal/apperror"

	"github.com/gin-gonic/gin"
)

// RestrictTo gates a route to the given roles. Must run after Protect.
func RestrictTo(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			apperror.Abort(c, apperror.Auth("you are not logged in, please log in to get access"))
			return
		}

		for _, role := range allowedRoles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		apperror.Abort(c, apperror.Forbidden("you do not have permission to perform this action"))
	}
}
