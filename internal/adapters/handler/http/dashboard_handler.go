package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/services"
)

type DashboardHandler struct {
	svc *services.DashboardService
}

func NewDashboardHandler(svc *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard", h.Get)
}

// Get godoc
// @Summary Footprint statistics, chart and latest insight
// @Tags dashboard
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} domain.Dashboard
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		return
	}

	dashboard, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
