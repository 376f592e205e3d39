package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/services"
)

type ActivityHandler struct {
	svc *services.ActivityService
}

func NewActivityHandler(svc *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		svc: svc,
	}
}

type createActivityRequest struct {
	ActivityType string  `json:"activity_type" binding:"required"`
	Description  string  `json:"description" binding:"required"`
	Quantity     float64 `json:"quantity" binding:"gte=0"`
	Unit         string  `json:"unit"`
	Date         string  `json:"date"`
	Location     string  `json:"location"`
	Notes        string  `json:"notes"`
}

// Omitted fields keep their stored value.
type updateActivityRequest struct {
	Location *string `json:"location"`
	Notes    *string `json:"notes"`
	Version  int     `json:"version"`
}

func (h *ActivityHandler) RegisterRoutes(router *gin.RouterGroup) {
	activities := router.Group("/activities")
	{
		activities.POST("", h.Create)
		activities.GET("", h.List)
		activities.GET("/:id", h.Get)
		activities.PATCH("/:id", h.Update)
	}
	router.GET("/activity-types", h.Types)
}

// Create godoc
// @Summary Log an activity
// @Description Stores the activity with an estimated kg CO2e impact. Estimation failures record zero.
// @Tags activities
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param payload body createActivityRequest true "Activity"
// @Success 201 {object} domain.CarbonActivity
// @Failure 400 {object} errorResponse
// @Router /activities [post]
func (h *ActivityHandler) Create(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	var req createActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid date format, use YYYY-MM-DD or RFC3339"})
			return
		}
		date = parsed
	}

	activity, err := h.svc.Create(c.Request.Context(), services.CreateActivityInput{
		UserID:       userID,
		ActivityType: req.ActivityType,
		Description:  req.Description,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		Date:         date,
		Location:     req.Location,
		Notes:        req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, activity)
}

// List godoc
// @Summary List activities
// @Tags activities
// @Security ApiKeyAuth
// @Produce json
// @Param sort query string false "date, carbon_impact or created_date; prefix with - for descending" default(-date)
// @Param limit query int false "Page size, at most 500" default(50)
// @Success 200 {array} domain.CarbonActivity
// @Failure 400 {object} errorResponse
// @Router /activities [get]
func (h *ActivityHandler) List(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	list, err := h.svc.List(c.Request.Context(), userID, c.Query("sort"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// Get godoc
// @Summary Get one activity
// @Tags activities
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} domain.CarbonActivity
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /activities/{id} [get]
func (h *ActivityHandler) Get(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	activity, err := h.svc.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}

// Update godoc
// @Summary Annotate an activity
// @Description Only location and notes can change, and omitted fields are left as they are. Send the version you read to detect concurrent edits.
// @Tags activities
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body updateActivityRequest true "Annotation"
// @Success 200 {object} domain.CarbonActivity
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /activities/{id} [patch]
func (h *ActivityHandler) Update(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	var req updateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	activity, err := h.svc.Update(c.Request.Context(), services.UpdateActivityInput{
		ID:       c.Param("id"),
		UserID:   userID,
		Location: req.Location,
		Notes:    req.Notes,
		Version:  req.Version,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}

// Types godoc
// @Summary Activity categories and their units
// @Tags activities
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} domain.ActivityTypeInfo
// @Router /activity-types [get]
func (h *ActivityHandler) Types(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ActivityTypes())
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(domain.DateLayout, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
