package handler

import (
	"net/http"

	"tour_booking/internal/apperror"
	"tour_booking/internal/config"
	"tour_booking/internal/middleware"
	"tour_booking/internal/model"
	"tour_booking/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.AuthService
	cfg     *config.Config
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{service: s, cfg: cfg}
}

func (h *AuthHandler) cookieSecure(c *gin.Context) bool {
	return h.cfg.CookieSecure || c.Request.TLS != nil
}

// sendSession sets the jwt and refreshToken cookies and writes the session
// response
func (h *AuthHandler) sendSession(c *gin.Context, session *service.Session, status int) {
	maxAge := h.cfg.CookieExpiresDays * 24 * 60 * 60
	secure := h.cookieSecure(c)

	c.SetCookie("jwt", session.AccessToken, maxAge, "/", "", secure, true)
	if session.RefreshToken != "" {
		c.SetCookie("refreshToken", session.RefreshToken, maxAge, "/", "", secure, true)
	}

	c.JSON(status, gin.H{
		"status": "success",
		"token":  session.AccessToken,
		"data":   gin.H{"user": session.User},
	})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.Respond(c, apperror.Validation("invalid request: "+err.Error()))
		return
	}

	session, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	h.sendSession(c, session, http.StatusCreated)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.Respond(c, apperror.Validation("please provide email and password"))
		return
	}

	session, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	h.sendSession(c, session, http.StatusOK)
}

// Logout overwrites the jwt cookie with a sentinel that expires in 10
// seconds. Idempotent.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie("jwt", middleware.LogoutSentinel, 10, "/", "", h.cookieSecure(c), true)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// RefreshToken mints a new access token from a refresh token supplied in the
// body or the refreshToken cookie
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req model.RefreshTokenRequest
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken == "" {
		if cookie, err := c.Cookie("refreshToken"); err == nil {
			req.RefreshToken = cookie
		}
	}

	accessToken, err := h.service.RefreshAccessToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	maxAge := h.cfg.CookieExpiresDays * 24 * 60 * 60
	c.SetCookie("jwt", accessToken, maxAge, "/", "", h.cookieSecure(c), true)
	c.JSON(http.StatusOK, gin.H{"status": "success", "token": accessToken})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.Respond(c, apperror.Validation("please provide a valid email address"))
		return
	}

	scheme := "http"
	if h.cookieSecure(c) {
		scheme = "https"
	}
	resetURLBase := scheme + "://" + c.Request.Host + "/api/v1/users/resetPassword"

	if err := h.service.ForgotPassword(c.Request.Context(), req.Email, resetURLBase); err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "token sent to email"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.Respond(c, apperror.Validation("invalid request: "+err.Error()))
		return
	}

	session, err := h.service.ResetPassword(c.Request.Context(), c.Param("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	h.sendSession(c, session, http.StatusOK)
}

func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apperror.Respond(c, apperror.Auth("you are not logged in, please log in to get access"))
		return
	}

	var req model.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.Respond(c, apperror.Validation("invalid request: "+err.Error()))
		return
	}

	session, err := h.service.UpdatePassword(c.Request.Context(), user, req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	h.sendSession(c, session, http.StatusOK)
}

// RegisterAuthRoutes registers the authentication routes under /users
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, protectMW gin.HandlerFunc) {
	users := rg.Group("/users")
	{
		users.POST("/signup", h.Signup)
		users.POST("/login", h.Login)
		users.POST("/forgotPassword", h.ForgotPassword)
		users.PATCH("/resetPassword/:token", h.ResetPassword)
		users.POST("/refreshToken", h.RefreshToken)
	}

	protected := rg.Group("/users")
	protected.Use(protectMW)
	{
		protected.GET("/logout", h.Logout)
		protected.PATCH("/updateMyPassword", h.UpdatePassword)
	}
}
