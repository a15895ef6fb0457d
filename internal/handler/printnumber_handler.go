package handler

import (
	"net/http"

	"procurement-backend/internal/middleware"
	"procurement-backend/internal/service"
	"procurement-backend/pkg/pagination"
	"procurement-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PrintNumberHandler struct {
	printNumberService service.PrintNumberService
}

func NewPrintNumberHandler(printNumberService service.PrintNumberService) *PrintNumberHandler {
	return &PrintNumberHandler{printNumberService: printNumberService}
}

func (h *PrintNumberHandler) RegisterRoutes(router *gin.RouterGroup) {
	printNumbers := router.Group("/api/print-numbers")
	{
		printNumbers.GET("", middleware.RequireRole("admin"), h.List)
		printNumbers.GET("/:id", middleware.RequireRole("admin"), h.GetByID)
		printNumbers.POST("/associate", middleware.RequireRole("admin"), h.Associate)
		printNumbers.PUT("/:id/receipt", middleware.RequireRole("admin"), h.ConfirmReceipt)
	}
}

// Associate links a batch of procurements to a print-number code, creating or
// reusing the code, and hands them all over together — or not at all.
func (h *PrintNumberHandler) Associate(c *gin.Context) {
	var req service.AssociateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.printNumberService.Associate(c.Request.Context(), actorID(c), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *PrintNumberHandler) ConfirmReceipt(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.ConfirmReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.printNumberService.ConfirmReceipt(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *PrintNumberHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := h.printNumberService.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *PrintNumberHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	results, total, err := h.printNumberService.List(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   results,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}
