package middleware

import (
	"strings"

	"tour_booking/internal/apperror"
	"tour_booking/internal/model"
	"tour_booking/internal/repository"
	"tour_booking/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	// AuthUserKey is the context key holding the resolved account.
	AuthUserKey = "authUser"

	// LogoutSentinel is what the jwt cookie is overwritten with on logout.
	LogoutSentinel = "loggedout"
)

// extractToken pulls the access token from the bearer header or, failing
// that, the jwt cookie.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie("jwt"); err == nil {
		return cookie
	}
	return ""
}

// Protect guards routes behind a valid access token. It verifies the token,
// loads the account, rejects tokens issued before the account's last password
// change, and attaches the account to the request context.
func Protect(jwtUtil *utils.JWTUtil, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" || tokenString == LogoutSentinel {
			apperror.Abort(c, apperror.Auth("you are not logged in, please log in to get access"))
			return
		}

		claims, err := jwtUtil.ValidateToken(tokenString)
		if err != nil {
			apperror.Abort(c, apperror.Auth("invalid or expired token"))
			return
		}

		userID, err := claims.SubjectID()
		if err != nil {
			apperror.Abort(c, apperror.Auth("invalid or expired token"))
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			apperror.Abort(c, err)
			return
		}
		if user == nil {
			apperror.Abort(c, apperror.Auth("the account belonging to this token no longer exists"))
			return
		}

		// A password change invalidates every token issued before it
		if user.PasswordChangedAt != nil && claims.IssuedAt != nil &&
			user.PasswordChangedAt.After(claims.IssuedAt.Time) {
			apperror.Abort(c, apperror.Auth("password recently changed, please log in again"))
			return
		}

		c.Set(AuthUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the account Protect attached to the context
func CurrentUser(c *gin.Context) (*model.User, bool) {
	val, exists := c.Get(AuthUserKey)
	if !exists {
		return nil, false
	}
	user, ok := val.(*model.User)
	return user, ok
}
