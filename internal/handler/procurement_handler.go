package handler

import (
	"net/http"
	"strconv"
	"time"

	"procurement-backend/internal/middleware"
	"procurement-backend/internal/model"
	"procurement-backend/internal/repository"
	"procurement-backend/internal/service"
	"procurement-backend/pkg/pagination"
	"procurement-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProcurementHandler struct {
	procurementService service.ProcurementService
}

func NewProcurementHandler(procurementService service.ProcurementService) *ProcurementHandler {
	return &ProcurementHandler{procurementService: procurementService}
}

func (h *ProcurementHandler) RegisterRoutes(router *gin.RouterGroup) {
	procurements := router.Group("/api/procurements")
	{
		procurements.POST("", middleware.RequireRole("admin", "requester"), h.Create)
		procurements.GET("", middleware.RequireRole("admin", "requester"), h.List)
		procurements.GET("/:id", middleware.RequireRole("admin", "requester"), h.GetByID)

		procurements.POST("/:id/items", middleware.RequireRole("admin"), h.AddItem)
		procurements.POST("/:id/link-item", middleware.RequireRole("admin"), h.LinkItem)

		procurements.PUT("/:id/confirm-price", middleware.RequireRole("admin"), h.ConfirmPriceMatch)
		procurements.PUT("/:id/approve", middleware.RequireRole("admin"), h.Approve)
		procurements.PUT("/:id/reject", middleware.RequireRole("admin"), h.Reject)
		procurements.PUT("/:id/purchase-order", middleware.RequireRole("admin"), h.CreatePurchaseOrder)
		procurements.PUT("/:id/delivery-estimate", middleware.RequireRole("admin"), h.EstimateDelivery)
		procurements.PUT("/:id/delivery", middleware.RequireRole("admin"), h.RecordDelivery)
		procurements.PUT("/:id/complete", middleware.RequireRole("admin"), h.Complete)
	}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid id"))
		return 0, false
	}
	return uint(id), true
}

func actorID(c *gin.Context) string {
	userID, _ := c.Get("userID")
	s, _ := userID.(string)
	return s
}

// Create submits a new purchase request in PENGAJUAN for the caller's
// organization.
func (h *ProcurementHandler) Create(c *gin.Context) {
	var req service.CreateProcurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	orgID := c.GetUint("orgID")
	result, err := h.procurementService.Create(c.Request.Context(), actorID(c), orgID, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

func (h *ProcurementHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	filter := repository.ProcurementFilter{
		Status: model.ProcurementStatus(c.Query("status")),
	}
	// Requesters only see their own organization; admins may query any via
	// the organization_id parameter.
	role, _ := c.Get("userRole")
	if role == "admin" {
		if orgParam, err := strconv.ParseUint(c.Query("organization_id"), 10, 64); err == nil {
			filter.OrganizationID = uint(orgParam)
		}
	} else {
		filter.OrganizationID = c.GetUint("orgID")
	}

	procurements, total, err := h.procurementService.List(c.Request.Context(), filter, params.Page, params.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   procurements,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

func (h *ProcurementHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := h.procurementService.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// AddItem creates a catalog item and attaches it while the procurement is
// still in PENGAJUAN.
func (h *ProcurementHandler) AddItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.procurementService.AddItem(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *ProcurementHandler) LinkItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.LinkItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.procurementService.LinkItem(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *ProcurementHandler) ConfirmPriceMatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := h.procurementService.ConfirmPriceMatch(c.Request.Context(), actorID(c), id)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Approve advances a verified procurement and deducts its cost from the
// organization's budget for the current year, as one unit.
func (h *ProcurementHandler) Approve(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Notes are optional on approval
		req.Notes = ""
	}

	// The ledger year is resolved here, not inside the ledger, so services
	// stay testable with fixed dates.
	year := time.Now().Year()

	result, err := h.procurementService.Approve(c.Request.Context(), actorID(c), id, year, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *ProcurementHandler) Reject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Rejection notes are required"))
		return
	}

	result, err := h.procurementService.Reject(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *ProcurementHandler) CreatePurchaseOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.PurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.procurementService.CreatePurchaseOrder(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *ProcurementHandler) EstimateDelivery(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.DeliveryEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.procurementService.EstimateDelivery(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *ProcurementHandler) RecordDelivery(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.RecordDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// BAST document is optional
		req.Document = ""
	}

	result, err := h.procurementService.RecordDelivery(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *ProcurementHandler) Complete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "final_note is required"))
		return
	}

	result, err := h.procurementService.Complete(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
