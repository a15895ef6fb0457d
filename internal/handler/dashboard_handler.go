package handler

import (
	"net/http"
	"strconv"

	"procurement-backend/internal/middleware"
	"procurement-backend/internal/service"
	"procurement-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/dashboard", middleware.RequireRole("admin", "requester"), h.Overview)
}

// Overview returns the per-status pipeline counts and budget position for the
// caller's organization.
func (h *DashboardHandler) Overview(c *gin.Context) {
	orgID := c.GetUint("orgID")
	role, _ := c.Get("userRole")
	if role == "admin" {
		if orgParam, err := strconv.ParseUint(c.Query("organization_id"), 10, 64); err == nil {
			orgID = uint(orgParam)
		}
	}

	result, err := h.dashboardService.Overview(c.Request.Context(), orgID, resolveYear(c))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
