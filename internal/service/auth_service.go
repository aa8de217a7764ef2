package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tour_booking/internal/apperror"
	"tour_booking/internal/mail"
	"tour_booking/internal/model"
	"tour_booking/internal/repository"
	"tour_booking/internal/utils"
)

const resetTokenTTL = 10 * time.Minute

// Session is the result of a successful authentication: the account plus a
// fresh access/refresh token pair.
type Session struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

// AuthService owns the account authentication lifecycle: signup, login,
// token refresh, and the password flows.
type AuthService interface {
	Signup(ctx context.Context, req model.SignupRequest) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
	ForgotPassword(ctx context.Context, email, resetURLBase string) error
	ResetPassword(ctx context.Context, token, password, passwordConfirm string) (*Session, error)
	UpdatePassword(ctx context.Context, user *model.User, current, password, passwordConfirm string) (*Session, error)
}

type authService struct {
	users  repository.UserRepository
	jwt    *utils.JWTUtil
	mailer mail.Mailer
}

// NewAuthService creates a new AuthService
func NewAuthService(users repository.UserRepository, jwtUtil *utils.JWTUtil, mailer mail.Mailer) AuthService {
	return &authService{users: users, jwt: jwtUtil, mailer: mailer}
}

// issueSession mints an access token and rotates the refresh token,
// overwriting whatever refresh token the account held before.
func (s *authService) issueSession(ctx context.Context, user *model.User) (*Session, error) {
	accessToken, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.NewRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refreshHash := utils.HashToken(refreshToken)
	if err := s.users.SetRefreshToken(ctx, user.ID, &refreshHash); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &Session{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Signup creates a new account and issues its first session. The welcome
// email is best-effort: a delivery failure is logged, never surfaced.
func (s *authService) Signup(ctx context.Context, req model.SignupRequest) (*Session, error) {
	if req.Password != req.PasswordConfirm {
		return nil, apperror.Validation("passwords do not match")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Role:         model.RoleUser,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.Validation("email already in use")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendWelcome(ctx, user.Email, user.Name); err != nil {
		log.Printf("Failed to send welcome email to %s: %v", user.Email, err)
	}

	return session, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password produce the identical error so neither case is distinguishable.
func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperror.Auth("invalid credentials")
	}

	return s.issueSession(ctx, user)
}

// RefreshAccessToken exchanges a valid refresh token for a new access token.
// The refresh token itself is not rotated here; it is replaced only by the
// session-issuing flows.
func (s *authService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperror.Auth("invalid refresh token")
	}

	user, err := s.users.FindByRefreshTokenHash(ctx, utils.HashToken(refreshToken))
	if err != nil {
		return "", fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if user == nil {
		return "", apperror.Auth("invalid refresh token")
	}

	accessToken, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return accessToken, nil
}

// ForgotPassword stores a hashed reset token with a 10 minute expiry and
// mails the plaintext token. If the mail cannot be delivered the reset
// fields are cleared again before the failure is reported.
func (s *authService) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return apperror.NotFound("there is no account with that email address")
	}

	token, err := utils.NewRandomToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	tokenHash := utils.HashToken(token)
	expires := time.Now().Add(resetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, &tokenHash, &expires); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := resetURLBase + "/" + token
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, resetURL); err != nil {
		log.Printf("Failed to send password reset email to %s: %v", user.Email, err)
		if clearErr := s.users.SetResetToken(ctx, user.ID, nil, nil); clearErr != nil {
			log.Printf("Failed to clear reset token for user %d: %v", user.ID, clearErr)
		}
		return apperror.Delivery("there was an error sending the email, try again later")
	}

	return nil
}

// ResetPassword completes the forgot-password flow with the mailed token
func (s *authService) ResetPassword(ctx context.Context, token, password, passwordConfirm string) (*Session, error) {
	if password != passwordConfirm {
		return nil, apperror.Validation("passwords do not match")
	}

	user, err := s.users.FindByResetTokenHash(ctx, utils.HashToken(token), time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to look up reset token: %w", err)
	}
	if user == nil {
		return nil, apperror.Validation("token invalid or expired")
	}

	if err := s.setNewPassword(ctx, user, password); err != nil {
		return nil, err
	}
	if err := s.users.SetResetToken(ctx, user.ID, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to clear reset token: %w", err)
	}

	return s.issueSession(ctx, user)
}

// UpdatePassword changes the password of an authenticated account after
// verifying the current one
func (s *authService) UpdatePassword(ctx context.Context, user *model.User, current, password, passwordConfirm string) (*Session, error) {
	if !utils.CheckPasswordHash(current, user.PasswordHash) {
		return nil, apperror.Auth("current password incorrect")
	}
	if password != passwordConfirm {
		return nil, apperror.Validation("passwords do not match")
	}

	if err := s.setNewPassword(ctx, user, password); err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user)
}

// setNewPassword hashes and stores the password. The change timestamp is
// backdated by a second so a token minted in the same second still fails the
// stale check.
func (s *authService) setNewPassword(ctx context.Context, user *model.User, password string) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	changedAt := time.Now().Add(-time.Second)
	if err := s.users.UpdatePassword(ctx, user.ID, hash, changedAt); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	user.PasswordHash = hash
	user.PasswordChangedAt = &changedAt
	return nil
}
