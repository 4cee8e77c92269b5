package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hearthschool/goaltrack/internal/adapters/handler/http/middleware"
	"github.com/hearthschool/goaltrack/internal/core/services"
)

type ProgressHandler struct {
	svc *services.ProgressService
}

func NewProgressHandler(svc *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		svc: svc,
	}
}

func (h *ProgressHandler) RegisterRoutes(router *gin.RouterGroup) {
	progress := router.Group("/progress")
	{
		progress.GET("/overview", h.Overview)
		progress.GET("/goals/:id", h.GoalProgress)
		progress.GET("/calendar", h.Calendar)
	}
}

// Overview returns the student's visible goals with fresh snapshots and
// statuses, sorted for display. The snapshot is computed at request time;
// "at" overrides the clock for testing and backdated views.
func (h *ProgressHandler) Overview(c *gin.Context) {
	homeschoolID, ok := middleware.GetHomeschoolID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "homeschool context missing"})
		return
	}

	studentID := c.Query("student_id")
	if studentID == "" {
		studentID, _ = middleware.GetPersonID(c)
	}
	if studentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_id is required"})
		return
	}

	now, ok := parseAt(c)
	if !ok {
		return
	}

	rows, err := h.svc.StudentOverview(c.Request.Context(), homeschoolID, studentID, now)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"goals":     rows,
		"timestamp": now,
	})
}

func (h *ProgressHandler) GoalProgress(c *gin.Context) {
	studentID := c.Query("student_id")
	if studentID == "" {
		studentID, _ = middleware.GetPersonID(c)
	}
	if studentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_id is required"})
		return
	}

	now, ok := parseAt(c)
	if !ok {
		return
	}

	snap, status, err := h.svc.ComputeProgress(c.Request.Context(), c.Param("id"), studentID, now)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshot": snap,
		"status":   status,
	})
}

// Calendar resolves the local day and week bounds for a timezone and
// week-start convention, defaulting to the configured ones.
func (h *ProgressHandler) Calendar(c *gin.Context) {
	now, ok := parseAt(c)
	if !ok {
		return
	}

	weekStart := h.svc.WeekStartDay()
	if ws := c.Query("week_start"); ws != "" {
		n, err := strconv.Atoi(ws)
		if err != nil || n < 0 || n > 6 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "week_start must be 0 (Sunday) through 6 (Saturday)"})
			return
		}
		weekStart = time.Weekday(n)
	}

	view := h.svc.ResolveCalendar(now, c.Query("timezone"), weekStart)
	c.JSON(http.StatusOK, view)
}

func parseAt(c *gin.Context) (time.Time, bool) {
	now := time.Now().UTC()
	if at := c.Query("at"); at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid at format, use RFC3339"})
			return time.Time{}, false
		}
		now = parsed
	}
	return now, true
}
