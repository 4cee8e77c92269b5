package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hearthschool/goaltrack/internal/adapters/handler/http/middleware"
	"github.com/hearthschool/goaltrack/internal/core/domain"
	"github.com/hearthschool/goaltrack/internal/core/services"
)

type GoalHandler struct {
	svc *services.GoalService
}

func NewGoalHandler(svc *services.GoalService) *GoalHandler {
	return &GoalHandler{
		svc: svc,
	}
}

type createGoalRequest struct {
	ActivityID string   `json:"activity_id" binding:"required"`
	Name       string   `json:"name"`
	StudentIDs []string `json:"student_ids" binding:"required"`

	TimesPerWeek            *int     `json:"times_per_week"`
	MinutesPerSession       *float64 `json:"minutes_per_session"`
	DailyPercentageIncrease *float64 `json:"daily_percentage_increase"`
	PercentageGoal          *float64 `json:"percentage_goal"`
	ProgressCount           *int     `json:"progress_count"`

	StartDate *time.Time `json:"start_date"`
}

type updateGoalRequest struct {
	Name       *string  `json:"name"`
	StudentIDs []string `json:"student_ids"`

	TimesPerWeek            *int     `json:"times_per_week"`
	MinutesPerSession       *float64 `json:"minutes_per_session"`
	DailyPercentageIncrease *float64 `json:"daily_percentage_increase"`
	PercentageGoal          *float64 `json:"percentage_goal"`
	ProgressCount           *int     `json:"progress_count"`

	StartDate *time.Time `json:"start_date"`
	Version   int        `json:"version"`
}

type completeGoalRequest struct {
	StudentID      string    `json:"student_id" binding:"required"`
	CompletionDate time.Time `json:"completion_date" binding:"required"`
	Grade          string    `json:"grade"`
}

func (h *GoalHandler) RegisterRoutes(router *gin.RouterGroup) {
	goals := router.Group("/goals")
	{
		goals.POST("", h.Create)
		goals.GET("", h.List)
		goals.GET("/:id", h.Get)
		goals.PUT("/:id", h.Update)
		goals.POST("/:id/complete", h.Complete)
		goals.DELETE("/:id", h.Delete)
	}
}

func (h *GoalHandler) Create(c *gin.Context) {
	homeschoolID, ok := middleware.GetHomeschoolID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "homeschool context missing"})
		return
	}

	var req createGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.CreateGoalInput{
		HomeschoolID:            homeschoolID,
		ActivityID:              req.ActivityID,
		Name:                    req.Name,
		StudentIDs:              req.StudentIDs,
		TimesPerWeek:            req.TimesPerWeek,
		MinutesPerSession:       req.MinutesPerSession,
		DailyPercentageIncrease: req.DailyPercentageIncrease,
		PercentageGoal:          req.PercentageGoal,
		ProgressCount:           req.ProgressCount,
		StartDate:               req.StartDate,
	}

	goal, err := h.svc.Create(c.Request.Context(), input)
	if err != nil {
		if isGoalValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, goal)
}

func (h *GoalHandler) List(c *gin.Context) {
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

func (h *GoalHandler) Get(c *gin.Context) {
	homeschoolID, ok := middleware.GetHomeschoolID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "homeschool context missing"})
		return
	}

	goal, err := h.svc.GetByID(c.Request.Context(), c.Param("id"), homeschoolID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, goal)
}

func (h *GoalHandler) Update(c *gin.Context) {
	homeschoolID, ok := middleware.GetHomeschoolID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "homeschool context missing"})
		return
	}

	var req updateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.UpdateGoalInput{
		ID:                      c.Param("id"),
		HomeschoolID:            homeschoolID,
		Name:                    req.Name,
		StudentIDs:              req.StudentIDs,
		TimesPerWeek:            req.TimesPerWeek,
		MinutesPerSession:       req.MinutesPerSession,
		DailyPercentageIncrease: req.DailyPercentageIncrease,
		PercentageGoal:          req.PercentageGoal,
		ProgressCount:           req.ProgressCount,
		StartDate:               req.StartDate,
		Version:                 req.Version,
	}

	goal, err := h.svc.Update(c.Request.Context(), input)
	if err != nil {
		if isGoalValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, goal)
}

func (h *GoalHandler) Complete(c *gin.Context) {
	homeschoolID, ok := middleware.GetHomeschoolID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "homeschool context missing"})
		return
	}

	var req completeGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	goal, err := h.svc.Complete(c.Request.Context(), c.Param("id"), homeschoolID, req.StudentID, req.CompletionDate, req.Grade)
	if err != nil {
		if errors.Is(err, domain.ErrGoalAlreadyCompleted) || errors.Is(err, domain.ErrStudentNotAssigned) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, goal)
}

func (h *GoalHandler) Delete(c *gin.Context) {
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

func isGoalValidationError(err error) bool {
	return errors.Is(err, domain.ErrGoalNameTooLong) ||
		errors.Is(err, domain.ErrGoalNoActivity) ||
		errors.Is(err, domain.ErrGoalNoStudents) ||
		errors.Is(err, domain.ErrGoalInvalidHomeschool) ||
		errors.Is(err, domain.ErrInvalidTimesPerWeek) ||
		errors.Is(err, domain.ErrInvalidMinutes) ||
		errors.Is(err, domain.ErrInvalidPercentage) ||
		errors.Is(err, domain.ErrInvalidProgressTarget)
}
