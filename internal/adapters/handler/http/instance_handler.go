package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hearthschool/goaltrack/internal/core/domain"
	"github.com/hearthschool/goaltrack/internal/core/schedule"
	"github.com/hearthschool/goaltrack/internal/core/services"
	"github.com/hearthschool/goaltrack/internal/logger"
)

type InstanceHandler struct {
	svc *services.RecordService
}

func NewInstanceHandler(svc *services.RecordService) *InstanceHandler {
	return &InstanceHandler{
		svc: svc,
	}
}

type recordInstanceRequest struct {
	GoalID    string `json:"goal_id" binding:"required"`
	StudentID string `json:"student_id" binding:"required"`

	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Timezone  string `json:"timezone"`

	Duration            *float64 `json:"duration"`
	StartingPercentage  *float64 `json:"starting_percentage"`
	EndingPercentage    *float64 `json:"ending_percentage"`
	PercentageCompleted *float64 `json:"percentage_completed"`
	CountCompleted      *int     `json:"count_completed"`
}

type updateInstanceRequest struct {
	StudentID string `json:"student_id" binding:"required"`

	Duration            *float64 `json:"duration"`
	StartingPercentage  *float64 `json:"starting_percentage"`
	EndingPercentage    *float64 `json:"ending_percentage"`
	PercentageCompleted *float64 `json:"percentage_completed"`
	CountCompleted      *int     `json:"count_completed"`

	Version int `json:"version" binding:"required"`
}

func (h *InstanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	instances := router.Group("/instances")
	{
		instances.POST("", h.Record)
		instances.GET("", h.ListByGoal)
		instances.GET("/existing", h.ProbeExisting)
		instances.PUT("/:id", h.Update)
		instances.DELETE("/:id", h.Delete)
	}
}

// Record creates a completion record, or updates the day's existing one when
// the single-record-per-day policy is active. 201 means a new record was
// created, 200 means an existing one absorbed the write.
func (h *InstanceHandler) Record(c *gin.Context) {
	var req recordInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	input := services.RecordInstanceInput{
		GoalID:              req.GoalID,
		StudentID:           req.StudentID,
		Date:                req.Date,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		Timezone:            req.Timezone,
		Duration:            req.Duration,
		StartingPercentage:  req.StartingPercentage,
		EndingPercentage:    req.EndingPercentage,
		PercentageCompleted: req.PercentageCompleted,
		CountCompleted:      req.CountCompleted,
	}

	inst, created, err := h.svc.Record(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	if created {
		c.JSON(http.StatusCreated, inst)
		return
	}
	c.JSON(http.StatusOK, inst)
}

// ProbeExisting answers whether a record already exists for the selected
// goal, student and local day. A probe superseded by a newer one returns 204
// so the client applies nothing.
func (h *InstanceHandler) ProbeExisting(c *gin.Context) {
	goalID := c.Query("goal_id")
	studentID := c.Query("student_id")
	date := c.Query("date")
	if goalID == "" || studentID == "" || date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "goal_id, student_id and date are required"})
		return
	}

	inst, err := h.svc.ProbeDuplicate(c.Request.Context(), goalID, studentID, date, c.Query("timezone"))
	if err != nil {
		if errors.Is(err, services.ErrStaleProbe) {
			c.Status(http.StatusNoContent)
			return
		}
		handleError(c, err)
		return
	}

	if inst == nil {
		c.JSON(http.StatusOK, gin.H{"found": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"found": true, "instance": inst})
}

func (h *InstanceHandler) ListByGoal(c *gin.Context) {
	goalID := c.Query("goal_id")
	studentID := c.Query("student_id")
	if goalID == "" || studentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "goal_id and student_id are required"})
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)

	if t := c.Query("to"); t != "" {
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			to = parsed
		}
	}
	if f := c.Query("from"); f != "" {
		if parsed, err := time.Parse(time.RFC3339, f); err == nil {
			from = parsed
		}
	}

	list, err := h.svc.ListByGoal(c.Request.Context(), goalID, studentID, from, to)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *InstanceHandler) Update(c *gin.Context) {
	id := c.Param("id")
	var req updateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	input := services.UpdateInstanceInput{
		ID:                  id,
		StudentID:           req.StudentID,
		Duration:            req.Duration,
		StartingPercentage:  req.StartingPercentage,
		EndingPercentage:    req.EndingPercentage,
		PercentageCompleted: req.PercentageCompleted,
		CountCompleted:      req.CountCompleted,
		Version:             req.Version,
	}

	inst, err := h.svc.Update(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, inst)
}

func (h *InstanceHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	studentID := c.Query("student_id")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_id is required"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, studentID); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized access"})

	case errors.Is(err, domain.ErrInstanceNotFound) ||
		errors.Is(err, domain.ErrGoalNotFound) ||
		errors.Is(err, domain.ErrActivityNotFound) ||
		errors.Is(err, domain.ErrPersonNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})

	case errors.Is(err, domain.ErrInstanceConflict) || errors.Is(err, domain.ErrGoalConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "version conflict",
			"message": "data has been modified elsewhere, please refresh",
		})

	case errors.Is(err, domain.ErrInvalidInstance) ||
		errors.Is(err, schedule.ErrInvalidDate) ||
		errors.Is(err, schedule.ErrInvalidTime) ||
		errors.Is(err, schedule.ErrInvalidTimezone):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("request failed")

		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
