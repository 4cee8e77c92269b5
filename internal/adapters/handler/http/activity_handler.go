package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hearthschool/goaltrack/internal/adapters/handler/http/middleware"
	"github.com/hearthschool/goaltrack/internal/core/domain"
	"github.com/hearthschool/goaltrack/internal/core/services"
)

type ActivityHandler struct {
	svc *services.ActivityService
}

func NewActivityHandler(svc *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		svc: svc,
	}
}

type activityRequest struct {
	Name            string `json:"name" binding:"required"`
	TrackPercentage bool   `json:"track_percentage"`
	TrackTime       bool   `json:"track_time"`
	TrackCount      bool   `json:"track_count"`
}

func (h *ActivityHandler) RegisterRoutes(router *gin.RouterGroup) {
	activities := router.Group("/activities")
	{
		activities.POST("", h.Create)
		activities.GET("", h.List)
		activities.GET("/:id", h.Get)
		activities.PUT("/:id", h.Update)
		activities.DELETE("/:id", h.Delete)
	}
}

func (h *ActivityHandler) Create(c *gin.Context) {
	homeschoolID, ok := middleware.GetHomeschoolID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "homeschool context missing"})
		return
	}

	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	activity, err := h.svc.Create(c.Request.Context(), services.CreateActivityInput{
		HomeschoolID:    homeschoolID,
		Name:            req.Name,
		TrackPercentage: req.TrackPercentage,
		TrackTime:       req.TrackTime,
		TrackCount:      req.TrackCount,
	})
	if err != nil {
		if errors.Is(err, domain.ErrActivityNameEmpty) || errors.Is(err, domain.ErrActivityNameTooLong) || errors.Is(err, domain.ErrActivityNoStyle) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, activity)
}

func (h *ActivityHandler) List(c *gin.Context) {
	homeschoolID, ok := middleware.GetHomeschoolID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "homeschool context missing"})
		return
	}

	list, err := h.svc.ListByHomeschool(c.Request.Context(), homeschoolID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *ActivityHandler) Get(c *gin.Context) {
	homeschoolID, ok := middleware.GetHomeschoolID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "homeschool context missing"})
		return
	}

	activity, err := h.svc.GetByID(c.Request.Context(), c.Param("id"), homeschoolID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}

func (h *ActivityHandler) Update(c *gin.Context) {
	homeschoolID, ok := middleware.GetHomeschoolID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "homeschool context missing"})
		return
	}

	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	activity, err := h.svc.Update(c.Request.Context(), services.UpdateActivityInput{
		ID:              c.Param("id"),
		HomeschoolID:    homeschoolID,
		Name:            req.Name,
		TrackPercentage: req.TrackPercentage,
		TrackTime:       req.TrackTime,
		TrackCount:      req.TrackCount,
	})
	if err != nil {
		if errors.Is(err, domain.ErrActivityNameEmpty) || errors.Is(err, domain.ErrActivityNameTooLong) || errors.Is(err, domain.ErrActivityNoStyle) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}

func (h *ActivityHandler) Delete(c *gin.Context) {
	homeschoolID, ok := middleware.GetHomeschoolID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "homeschool context missing"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), homeschoolID); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
