package handler

import (
	"net/http"
	"strconv"

	"tour_booking/internal/apperror"
	"tour_booking/internal/middleware"
	"tour_booking/internal/model"
	"tour_booking/internal/service"

	"github.com/gin-gonic/gin"
)

// ReviewHandler handles review requests, both the flat /reviews routes and
// the routes nested under a tour
type ReviewHandler struct {
	service service.ReviewService
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(s service.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: s}
}

func (h *ReviewHandler) list(c *gin.Context, tourID *int64) {
	reviews, err := h.service.List(c.Request.Context(), c.Request.URL.Query(), tourID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(reviews),
		"data":    gin.H{"reviews": reviews},
	})
}

func (h *ReviewHandler) List(c *gin.Context) {
	h.list(c, nil)
}

func (h *ReviewHandler) ListForTour(c *gin.Context) {
	tourID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apperror.Respond(c, apperror.Validation("invalid tour id"))
		return
	}
	h.list(c, &tourID)
}

func (h *ReviewHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apperror.Respond(c, apperror.Validation("invalid review id"))
		return
	}

	review, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"review": review}})
}

// Create posts a review on the tour named in the path. The author is always
// the logged in user.
func (h *ReviewHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req model.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.Respond(c, apperror.Validation("invalid request: "+err.Error()))
		return
	}

	if req.TourID == 0 {
		if tourID, err := strconv.ParseInt(c.Param("id"), 10, 64); err == nil {
			req.TourID = tourID
		}
	}

	review, err := h.service.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": gin.H{"review": review}})
}

func (h *ReviewHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apperror.Respond(c, apperror.Validation("invalid review id"))
		return
	}

	var req model.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.Respond(c, apperror.Validation("invalid request: "+err.Error()))
		return
	}

	review, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"review": review}})
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apperror.Respond(c, apperror.Validation("invalid review id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		apperror.Respond(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterReviewRoutes registers /reviews and the routes nested under a
// tour. Every review route requires a logged in user.
func (h *ReviewHandler) RegisterReviewRoutes(rg *gin.RouterGroup, protectMW gin.HandlerFunc) {
	nested := rg.Group("/tours/:id/reviews")
	nested.Use(protectMW)
	{
		nested.GET("", h.ListForTour)
		nested.POST("", middleware.RestrictTo(model.RoleUser), h.Create)
	}

	reviews := rg.Group("/reviews")
	reviews.Use(protectMW)
	{
		reviews.GET("", h.List)
		reviews.POST("", middleware.RestrictTo(model.RoleUser), h.Create)
		reviews.GET("/:id", h.Get)
		reviews.PATCH("/:id", middleware.RestrictTo(model.RoleUser, model.RoleAdmin), h.Update)
		reviews.DELETE("/:id", middleware.RestrictTo(model.RoleUser, model.RoleAdmin), h.Delete)
	}
}
