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

const maxTourImages = 3

// TourHandler handles tour requests
type TourHandler struct {
	service    service.TourService
	uploadsDir string
}

// NewTourHandler creates a new TourHandler
func NewTourHandler(s service.TourService, uploadsDir string) *TourHandler {
	return &TourHandler{service: s, uploadsDir: uploadsDir}
}

func (h *TourHandler) List(c *gin.Context) {
	tours, err := h.service.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(tours),
		"data":    gin.H{"tours": tours},
	})
}

// TopCheap presets the query string for the five best-rated cheap tours
// before delegating to List
func (h *TourHandler) TopCheap(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Set("limit", "5")
	q.Set("sort", "-ratingsAverage,price")
	q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
	c.Request.URL.RawQuery = q.Encode()
	h.List(c)
}

func (h *TourHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apperror.Respond(c, apperror.Validation("invalid tour id"))
		return
	}

	tour, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"tour": tour}})
}

func (h *TourHandler) Create(c *gin.Context) {
	var req model.CreateTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.Respond(c, apperror.Validation("invalid request: "+err.Error()))
		return
	}

	tour, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": gin.H{"tour": tour}})
}

func (h *TourHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apperror.Respond(c, apperror.Validation("invalid tour id"))
		return
	}

	var req model.UpdateTourRequest
	if err := c.ShouldBind(&req); err != nil {
		apperror.Respond(c, apperror.Validation("invalid request: "+err.Error()))
		return
	}

	if file, ferr := c.FormFile("imageCover"); ferr == nil {
		filename, err := images.SaveTourCover(file, id, h.uploadsDir)
		if err != nil {
			respondUploadError(c, err)
			return
		}
		req.ImageCover = &filename
	}
	if form, ferr := c.MultipartForm(); ferr == nil {
		files := form.File["images"]
		if len(files) > maxTourImages {
			files = files[:maxTourImages]
		}
		for i, file := range files {
			filename, err := images.SaveTourImage(file, id, i, h.uploadsDir)
			if err != nil {
				respondUploadError(c, err)
				return
			}
			req.Images = append(req.Images, filename)
		}
	}

	tour, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"tour": tour}})
}

func (h *TourHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apperror.Respond(c, apperror.Validation("invalid tour id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		apperror.Respond(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TourHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"stats": stats}})
}

func (h *TourHandler) Within(c *gin.Context) {
	tours, err := h.service.Within(c.Request.Context(), c.Param("distance"), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(tours),
		"data":    gin.H{"tours": tours},
	})
}

func (h *TourHandler) Distances(c *gin.Context) {
	distances, err := h.service.Distances(c.Request.Context(), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"distances": distances}})
}

// RegisterTourRoutes registers the tour routes under /tours
func (h *TourHandler) RegisterTourRoutes(rg *gin.RouterGroup, protectMW gin.HandlerFunc) {
	tours := rg.Group("/tours")
	{
		tours.GET("", h.List)
		tours.GET("/top-5-cheap", h.TopCheap)
		tours.GET("/tour-stats", h.Stats)
		tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", h.Within)
		tours.GET("/distances/:latlng/unit/:unit", h.Distances)
		tours.GET("/:id", h.Get)
	}

	managed := rg.Group("/tours")
	managed.Use(protectMW, middleware.RestrictTo(model.RoleAdmin, model.RoleLeadGuide))
	{
		managed.POST("", h.Create)
		managed.PATCH("/:id", h.Update)
		managed.DELETE("/:id", h.Delete)
	}
}
