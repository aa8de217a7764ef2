package handler

import (
	"net/http"
	"strconv"

	"tour_booking/internal/apperror"
	"tour_booking/internal/images"
	"tour_booking/internal/middleware"
	"tour_booking/internal/model"
	"tour_booking/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler handles user profile and admin user management requests
type UserHandler struct {
	service    service.UserService
	uploadsDir string
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(s service.UserService, uploadsDir string) *UserHandler {
	return &UserHandler{service: s, uploadsDir: uploadsDir}
}

func (h *UserHandler) Me(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": user}})
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req model.UpdateMeRequest
	if err := c.ShouldBind(&req); err != nil {
		apperror.Respond(c, apperror.Validation("invalid request: "+err.Error()))
		return
	}
	if req.Password != nil || req.PasswordConfirm != nil {
		apperror.Respond(c, apperror.Validation("this route is not for password updates, please use /updateMyPassword"))
		return
	}

	var photo *string
	if file, err := c.FormFile("photo"); err == nil {
		filename, err := images.SaveUserPhoto(file, user.ID, h.uploadsDir)
		if err != nil {
			respondUploadError(c, err)
			return
		}
		photo = &filename
	}

	updated, err := h.service.UpdateMe(c.Request.Context(), user.ID, req, photo)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": updated}})
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	if err := h.service.DeleteMe(c.Request.Context(), user.ID); err != nil {
		apperror.Respond(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(users),
		"data":    gin.H{"users": users},
	})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apperror.Respond(c, apperror.Validation("invalid user id"))
		return
	}

	user, err := h.service.AdminGet(c.Request.Context(), id)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": user}})
}

func (h *UserHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apperror.Respond(c, apperror.Validation("invalid user id"))
		return
	}

	var req model.AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.Respond(c, apperror.Validation("invalid request: "+err.Error()))
		return
	}

	user, err := h.service.AdminUpdate(c.Request.Context(), id, req)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": user}})
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apperror.Respond(c, apperror.Validation("invalid user id"))
		return
	}

	if err := h.service.AdminDelete(c.Request.Context(), id); err != nil {
		apperror.Respond(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterUserRoutes registers profile routes and admin user management
// routes under /users
func (h *UserHandler) RegisterUserRoutes(rg *gin.RouterGroup, protectMW gin.HandlerFunc) {
	me := rg.Group("/users")
	me.Use(protectMW)
	{
		me.GET("/me", h.Me)
		me.PATCH("/updateMe", h.UpdateMe)
		me.DELETE("/deleteMe", h.DeleteMe)
	}

	admin := rg.Group("/users")
	admin.Use(protectMW, middleware.RestrictTo(model.RoleAdmin))
	{
		admin.GET("", h.List)
		admin.GET("/:id", h.Get)
		admin.PATCH("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}
