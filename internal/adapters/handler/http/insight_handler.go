package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/services"
)

type InsightHandler struct {
	svc *services.InsightService
}

func NewInsightHandler(svc *services.InsightService) *InsightHandler {
	return &InsightHandler{svc: svc}
}

type createSuggestionRequest struct {
	Title              string  `json:"title" binding:"required"`
	Description        string  `json:"description"`
	Category           string  `json:"category" binding:"required"`
	PotentialReduction float64 `json:"potential_reduction" binding:"gte=0"`
	Difficulty         string  `json:"difficulty"`
	Priority           string  `json:"priority"`
	CostImpact         string  `json:"cost_impact"`
}

// RegisterRoutes mounts the insight endpoints. heavy runs before every
// endpoint that calls the inference backend.
func (h *InsightHandler) RegisterRoutes(router *gin.RouterGroup, heavy ...gin.HandlerFunc) {
	insights := router.Group("/insights")
	{
		insights.GET("/predictions", chain(heavy, h.Predict)...)
		insights.GET("/history", h.History)
	}

	suggestions := router.Group("/suggestions")
	{
		suggestions.GET("", h.ListSuggestions)
		suggestions.POST("", h.CreateSuggestion)
		suggestions.POST("/generate", chain(heavy, h.GenerateSuggestions)...)
		suggestions.POST("/:id/implement", h.ImplementSuggestion)
	}
}

// Predict godoc
// @Summary Monthly and yearly footprint prediction
// @Description Falls back to the last stored prediction, flagged stale, when generation fails.
// @Tags insights
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} domain.PredictionReport
// @Failure 422 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /insights/predictions [get]
func (h *InsightHandler) Predict(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	report, err := h.svc.Predict(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// History godoc
// @Summary Previously generated predictions, newest first
// @Tags insights
// @Security ApiKeyAuth
// @Produce json
// @Param limit query int false "Number of reports" default(10)
// @Success 200 {array} domain.PredictionReport
// @Router /insights/history [get]
func (h *InsightHandler) History(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	reports, err := h.svc.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

// ListSuggestions godoc
// @Summary List suggestions
// @Tags suggestions
// @Security ApiKeyAuth
// @Produce json
// @Param sort query string false "created_date or potential_reduction; prefix with - for descending" default(-created_date)
// @Success 200 {array} domain.Suggestion
// @Router /suggestions [get]
func (h *InsightHandler) ListSuggestions(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	list, err := h.svc.ListSuggestions(c.Request.Context(), userID, c.Query("sort"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// CreateSuggestion godoc
// @Summary Add a suggestion manually
// @Tags suggestions
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param payload body createSuggestionRequest true "Suggestion"
// @Success 201 {object} domain.Suggestion
// @Failure 400 {object} errorResponse
// @Router /suggestions [post]
func (h *InsightHandler) CreateSuggestion(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	var req createSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	suggestion, err := h.svc.CreateSuggestion(c.Request.Context(), services.CreateSuggestionInput{
		UserID:             userID,
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		PotentialReduction: req.PotentialReduction,
		Difficulty:         req.Difficulty,
		Priority:           req.Priority,
		CostImpact:         req.CostImpact,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, suggestion)
}

// GenerateSuggestions godoc
// @Summary Generate personalized suggestions from recent activities
// @Tags suggestions
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} domain.Suggestion
// @Failure 422 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /suggestions/generate [post]
func (h *InsightHandler) GenerateSuggestions(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	list, err := h.svc.GenerateSuggestions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// ImplementSuggestion godoc
// @Summary Mark a suggestion as implemented
// @Tags suggestions
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Suggestion ID"
// @Success 200 {object} domain.Suggestion
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /suggestions/{id}/implement [post]
func (h *InsightHandler) ImplementSuggestion(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	suggestion, err := h.svc.ImplementSuggestion(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, suggestion)
}

func chain(before []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(before)+1)
	out = append(out, before...)
	return append(out, handler)
}
