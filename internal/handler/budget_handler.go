package handler

import (
	"net/http"
	"strconv"
	"time"

	"procurement-backend/internal/middleware"
	"procurement-backend/internal/service"
	"procurement-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type BudgetHandler struct {
	budgetService service.BudgetService
}

func NewBudgetHandler(budgetService service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

func (h *BudgetHandler) RegisterRoutes(router *gin.RouterGroup) {
	budgets := router.Group("/api/budgets")
	{
		budgets.GET("", middleware.RequireRole("admin", "requester"), h.GetBudget)
		budgets.GET("/history", middleware.RequireRole("admin"), h.ListBudgets)
		budgets.PUT("", middleware.RequireRole("admin"), h.UpdateBudget)
	}
}

// GetBudget returns the caller organization's account for the requested year,
// creating a zero account on first lookup.
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	orgID := h.resolveOrg(c)
	year := resolveYear(c)

	result, err := h.budgetService.GetOrCreate(c.Request.Context(), orgID, year)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *BudgetHandler) ListBudgets(c *gin.Context) {
	orgID := h.resolveOrg(c)

	results, err := h.budgetService.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, results))
}

// UpdateBudget sets a new yearly total; the remaining amount is re-derived
// from the delta so committed spend is preserved.
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	var req service.UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	orgID := h.resolveOrg(c)
	result, err := h.budgetService.Allocate(c.Request.Context(), actorID(c), orgID, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// resolveOrg lets admins act on any organization via query param, everyone
// else on their own.
func (h *BudgetHandler) resolveOrg(c *gin.Context) uint {
	role, _ := c.Get("userRole")
	if role == "admin" {
		if orgParam, err := strconv.ParseUint(c.Query("organization_id"), 10, 64); err == nil {
			return uint(orgParam)
		}
	}
	return c.GetUint("orgID")
}

func resolveYear(c *gin.Context) int {
	if year, err := strconv.Atoi(c.Query("year")); err == nil && year >= 2000 {
		return year
	}
	return time.Now().Year()
}
