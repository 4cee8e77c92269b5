package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hearthschool/goaltrack/internal/adapters/handler/http/middleware"
	"github.com/hearthschool/goaltrack/internal/core/domain"
	"github.com/hearthschool/goaltrack/internal/core/services"
)

type PersonHandler struct {
	svc *services.PersonService
}

func NewPersonHandler(svc *services.PersonService) *PersonHandler {
	return &PersonHandler{
		svc: svc,
	}
}

type createPersonRequest struct {
	Name  string `json:"name" binding:"required"`
	Role  string `json:"role" binding:"required"`
	Email string `json:"email"`
}

func (h *PersonHandler) RegisterRoutes(router *gin.RouterGroup) {
	people := router.Group("/people")
	{
		people.POST("", h.Create)
		people.GET("", h.List)
		people.GET("/:id", h.Get)
	}
}

func (h *PersonHandler) Create(c *gin.Context) {
	homeschoolID, ok := middleware.GetHomeschoolID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "homeschool context missing"})
		return
	}

	var req createPersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	person, err := h.svc.Create(c.Request.Context(), services.CreatePersonInput{
		HomeschoolID: homeschoolID,
		Name:         req.Name,
		Role:         req.Role,
		Email:        req.Email,
	})
	if err != nil {
		if errors.Is(err, domain.ErrPersonNameEmpty) ||
			errors.Is(err, domain.ErrInvalidPersonRole) ||
			errors.Is(err, domain.ErrInvalidEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, person)
}

func (h *PersonHandler) List(c *gin.Context) {
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

func (h *PersonHandler) Get(c *gin.Context) {
	homeschoolID, ok := middleware.GetHomeschoolID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "homeschool context missing"})
		return
	}

	person, err := h.svc.GetByID(c.Request.Context(), c.Param("id"), homeschoolID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, person)
}
