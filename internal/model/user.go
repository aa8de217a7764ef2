package model

import "time"

const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// ValidRole reports whether r is one of the known account roles.
func ValidRole(r string) bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account
type User struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	Photo                *string    `json:"photo,omitempty"`
	Role                 string     `json:"role"`
	PasswordHash         string     `json:"-"` // Never expose the password hash in JSON responses
	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetToken   *string    `json:"-"` // sha256 hex of the reset token, not the token itself
	PasswordResetExpires *time.Time `json:"-"`
	RefreshTokenHash     *string    `json:"-"` // sha256 hex of the current refresh token
	Active               bool       `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
}

// SignupRequest is the payload for account creation
type SignupRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" binding:"required"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// UpdateMeRequest is the self-service profile update payload. Password fields
// are bound only so the handler can reject them with a helpful message.
type UpdateMeRequest struct {
	Name            *string `json:"name" form:"name"`
	Email           *string `json:"email" form:"email" binding:"omitempty,email"`
	Password        *string `json:"password" form:"password"`
	PasswordConfirm *string `json:"passwordConfirm" form:"passwordConfirm"`
}

// AdminUpdateUserRequest allows partial updates by administrators.
// Passwords are never updated through this path.
type AdminUpdateUserRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email" binding:"omitempty,email"`
	Role   *string `json:"role" binding:"omitempty,oneof=user guide lead-guide admin"`
	Active *bool   `json:"active"`
}
