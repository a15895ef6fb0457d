package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"procurement-backend/internal/apperr"
	"procurement-backend/internal/model"
	"procurement-backend/internal/repository"
	ws "procurement-backend/internal/websocket"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProcurementRequest struct {
	Reference      string `json:"reference" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,gte=1"`
	EstimatedPrice string `json:"estimated_price"` // Decimal string, optional until an item is linked
}

type AddItemRequest struct {
	Name  string `json:"name" binding:"required"`
	Price string `json:"price" binding:"required"` // Decimal string
	Unit  string `json:"unit"`
}

type LinkItemRequest struct {
	ItemID uint `json:"item_id" binding:"required"`
}

type ApproveRequest struct {
	Notes string `json:"notes"`
}

type RejectRequest struct {
	Notes string `json:"notes" binding:"required"`
}

type PurchaseOrderRequest struct {
	Document string `json:"document" binding:"required"` // stored document URL
	Date     string `json:"date" binding:"required"`     // YYYY-MM-DD
}

type DeliveryEstimateRequest struct {
	Estimate string `json:"estimate" binding:"required"`
}

type RecordDeliveryRequest struct {
	Document string `json:"document"` // BAST document URL, optional
}

type CompleteRequest struct {
	FinalNote string `json:"final_note" binding:"required"`
}

type ProcurementResponse struct {
	ID               uint    `json:"id"`
	RequesterID      string  `json:"requester_id"`
	RequesterName    string  `json:"requester_name,omitempty"`
	OrganizationID   uint    `json:"organization_id"`
	OrganizationName string  `json:"organization_name,omitempty"`
	Status           string  `json:"status"`
	Reference        string  `json:"reference"`
	ItemID           *uint   `json:"item_id"`
	ItemName         string  `json:"item_name,omitempty"`
	EstimatedPrice   string  `json:"estimated_price"`
	Quantity         int     `json:"quantity"`
	VerificationNote string  `json:"verification_note"`
	PODocument       *string `json:"po_document"`
	PODate           *string `json:"po_date"`
	TimeEstimation   *string `json:"time_estimation"`
	BASTDocument     *string `json:"bast_document"`
	BASTDate         *string `json:"bast_date"`
	FinalNote        string  `json:"final_note"`
	CreatedAt        string  `json:"created_at"`
}

// Websocket payload
type ProcurementEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// --- Interface ---

// ProcurementService owns the procurement lifecycle. Every transition is a
// conditional write gated on the procurement's current status: the row only
// moves if it still holds the status the operation requires, and a lost race
// surfaces as apperr.ErrStateConflict with no mutation.
type ProcurementService interface {
	Create(ctx context.Context, requesterID string, organizationID uint, req CreateProcurementRequest) (ProcurementResponse, error)
	GetByID(ctx context.Context, id uint) (ProcurementResponse, error)
	List(ctx context.Context, filter repository.ProcurementFilter, page, limit int) ([]ProcurementResponse, int64, error)

	// Item linking, only while the procurement is still in PENGAJUAN.
	AddItem(ctx context.Context, actorID string, id uint, req AddItemRequest) (ProcurementResponse, error)
	LinkItem(ctx context.Context, actorID string, id uint, req LinkItemRequest) (ProcurementResponse, error)

	// Transitions, in pipeline order.
	ConfirmPriceMatch(ctx context.Context, actorID string, id uint) (ProcurementResponse, error)
	Approve(ctx context.Context, actorID string, id uint, year int, req ApproveRequest) (ProcurementResponse, error)
	Reject(ctx context.Context, actorID string, id uint, req RejectRequest) (ProcurementResponse, error)
	CreatePurchaseOrder(ctx context.Context, actorID string, id uint, req PurchaseOrderRequest) (ProcurementResponse, error)
	EstimateDelivery(ctx context.Context, actorID string, id uint, req DeliveryEstimateRequest) (ProcurementResponse, error)
	RecordDelivery(ctx context.Context, actorID string, id uint, req RecordDeliveryRequest) (ProcurementResponse, error)
	Complete(ctx context.Context, actorID string, id uint, req CompleteRequest) (ProcurementResponse, error)
}

type procurementService struct {
	procurementRepo repository.ProcurementRepository
	itemRepo        repository.ItemRepository
	auditRepo       repository.AuditRepository
	budgetService   BudgetService
	txManager       repository.TransactionManager
	hub             *ws.Hub
}

func NewProcurementService(
	procurementRepo repository.ProcurementRepository,
	itemRepo repository.ItemRepository,
	auditRepo repository.AuditRepository,
	budgetService BudgetService,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ProcurementService {
	return &procurementService{
		procurementRepo: procurementRepo,
		itemRepo:        itemRepo,
		auditRepo:       auditRepo,
		budgetService:   budgetService,
		txManager:       txManager,
		hub:             hub,
	}
}

// --- Implementation ---

func toProcurementResponse(p *model.Procurement) ProcurementResponse {
	resp := ProcurementResponse{
		ID:               p.ID,
		RequesterID:      p.RequesterID.String(),
		OrganizationID:   p.OrganizationID,
		Status:           string(p.Status),
		Reference:        p.Reference,
		ItemID:           p.ItemID,
		EstimatedPrice:   p.EstimatedPrice.StringFixed(2),
		Quantity:         p.Quantity,
		VerificationNote: p.VerificationNote,
		PODocument:       p.PODocument,
		TimeEstimation:   p.TimeEstimation,
		BASTDocument:     p.BASTDocument,
		FinalNote:        p.FinalNote,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}
	if p.Requester != nil {
		resp.RequesterName = p.Requester.Username
	}
	if p.Organization != nil {
		resp.OrganizationName = p.Organization.Name
	}
	if p.Item != nil {
		resp.ItemName = p.Item.Name
	}
	if p.PODate != nil {
		s := p.PODate.Format("2006-01-02")
		resp.PODate = &s
	}
	if p.BASTDate != nil {
		s := p.BASTDate.Format("2006-01-02")
		resp.BASTDate = &s
	}
	return resp
}

func (s *procurementService) Create(ctx context.Context, requesterID string, organizationID uint, req CreateProcurementRequest) (ProcurementResponse, error) {
	requester := parseActorID(requesterID)
	if requester == nil {
		return ProcurementResponse{}, fmt.Errorf("%w: invalid requester id", apperr.ErrValidation)
	}

	estimatedPrice := decimal.Zero
	if req.EstimatedPrice != "" {
		parsed, err := decimal.NewFromString(req.EstimatedPrice)
		if err != nil {
			return ProcurementResponse{}, fmt.Errorf("%w: invalid estimated_price %q", apperr.ErrValidation, req.EstimatedPrice)
		}
		estimatedPrice = parsed
	}

	procurement := model.Procurement{
		RequesterID:    *requester,
		OrganizationID: organizationID,
		Status:         model.StatusPengajuan,
		Reference:      req.Reference,
		Quantity:       req.Quantity,
		EstimatedPrice: estimatedPrice,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.procurementRepo.Create(txCtx, &procurement); createErr != nil {
			return fmt.Errorf("failed to create procurement: %w", createErr)
		}
		return s.writeAudit(txCtx, requesterID, model.ActionCreateProcurement, procurement.ID, map[string]interface{}{
			"reference": req.Reference,
			"quantity":  req.Quantity,
		})
	})
	if err != nil {
		return ProcurementResponse{}, err
	}

	return toProcurementResponse(&procurement), nil
}

func (s *procurementService) GetByID(ctx context.Context, id uint) (ProcurementResponse, error) {
	procurement, err := s.procurementRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProcurementResponse{}, fmt.Errorf("%w: procurement %d", apperr.ErrNotFound, id)
		}
		return ProcurementResponse{}, fmt.Errorf("failed to load procurement: %w", err)
	}
	return toProcurementResponse(procurement), nil
}

func (s *procurementService) List(ctx context.Context, filter repository.ProcurementFilter, page, limit int) ([]ProcurementResponse, int64, error) {
	procurements, total, err := s.procurementRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list procurements: %w", err)
	}

	responses := make([]ProcurementResponse, 0, len(procurements))
	for i := range procurements {
		responses = append(responses, toProcurementResponse(&procurements[i]))
	}
	return responses, total, nil
}

// AddItem creates a catalog item and links it to a procurement still in
// PENGAJUAN, fixing the price the approval deduction will use.
func (s *procurementService) AddItem(ctx context.Context, actorID string, id uint, req AddItemRequest) (ProcurementResponse, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return ProcurementResponse{}, fmt.Errorf("%w: invalid price %q", apperr.ErrValidation, req.Price)
	}
	if price.IsNegative() {
		return ProcurementResponse{}, fmt.Errorf("%w: price must not be negative", apperr.ErrValidation)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, checkErr := s.requireStatus(txCtx, id, model.StatusPengajuan); checkErr != nil {
			return checkErr
		}

		item := model.Item{Name: req.Name, Price: price, Unit: req.Unit}
		if createErr := s.itemRepo.Create(txCtx, &item); createErr != nil {
			return fmt.Errorf("failed to create item: %w", createErr)
		}

		return s.linkItemLocked(txCtx, id, &item)
	})
	if err != nil {
		return ProcurementResponse{}, err
	}

	return s.GetByID(ctx, id)
}

// LinkItem attaches an existing catalog item to a procurement still in
// PENGAJUAN.
func (s *procurementService) LinkItem(ctx context.Context, actorID string, id uint, req LinkItemRequest) (ProcurementResponse, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, checkErr := s.requireStatus(txCtx, id, model.StatusPengajuan); checkErr != nil {
			return checkErr
		}

		item, findErr := s.itemRepo.FindByID(txCtx, req.ItemID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: item %d", apperr.ErrNotFound, req.ItemID)
			}
			return fmt.Errorf("failed to load item: %w", findErr)
		}

		return s.linkItemLocked(txCtx, id, item)
	})
	if err != nil {
		return ProcurementResponse{}, err
	}

	return s.GetByID(ctx, id)
}

// linkItemLocked writes the item reference while re-asserting the PENGAJUAN
// gate in the same statement; the status itself does not change.
func (s *procurementService) linkItemLocked(ctx context.Context, id uint, item *model.Item) error {
	rows, err := s.procurementRepo.UpdateTransition(ctx, id, model.StatusPengajuan, map[string]interface{}{
		"item_id":         item.ID,
		"estimated_price": item.Price,
	})
	if err != nil {
		return fmt.Errorf("failed to link item: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: procurement %d left PENGAJUAN", apperr.ErrStateConflict, id)
	}
	return nil
}

func (s *procurementService) ConfirmPriceMatch(ctx context.Context, actorID string, id uint) (ProcurementResponse, error) {
	return s.transition(ctx, actorID, id, model.StatusPengajuan, model.StatusVerifikasiPengajuan,
		model.ActionConfirmPrice, nil, nil)
}

func (s *procurementService) Reject(ctx context.Context, actorID string, id uint, req RejectRequest) (ProcurementResponse, error) {
	if req.Notes == "" {
		return ProcurementResponse{}, fmt.Errorf("%w: rejection notes are required", apperr.ErrValidation)
	}
	return s.transition(ctx, actorID, id, model.StatusVerifikasiPengajuan, model.StatusPengajuanDitolak,
		model.ActionReject,
		map[string]interface{}{"verification_note": req.Notes},
		map[string]interface{}{"notes": req.Notes})
}

func (s *procurementService) CreatePurchaseOrder(ctx context.Context, actorID string, id uint, req PurchaseOrderRequest) (ProcurementResponse, error) {
	poDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return ProcurementResponse{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", apperr.ErrValidation, req.Date)
	}
	return s.transition(ctx, actorID, id, model.StatusPengirimanOrder, model.StatusPengirimanBarang,
		model.ActionCreatePO,
		map[string]interface{}{"po_document": req.Document, "po_date": poDate},
		map[string]interface{}{"document": req.Document, "date": req.Date})
}

func (s *procurementService) EstimateDelivery(ctx context.Context, actorID string, id uint, req DeliveryEstimateRequest) (ProcurementResponse, error) {
	if req.Estimate == "" {
		return ProcurementResponse{}, fmt.Errorf("%w: estimate is required", apperr.ErrValidation)
	}
	now := time.Now()
	return s.transition(ctx, actorID, id, model.StatusPengirimanBarang, model.StatusPenerimaanBarang,
		model.ActionEstimateDelivery,
		map[string]interface{}{"time_estimation": req.Estimate, "time_estimation_date": now},
		map[string]interface{}{"estimate": req.Estimate})
}

func (s *procurementService) RecordDelivery(ctx context.Context, actorID string, id uint, req RecordDeliveryRequest) (ProcurementResponse, error) {
	now := time.Now()
	fields := map[string]interface{}{"bast_date": now}
	if req.Document != "" {
		fields["bast_document"] = req.Document
	}
	return s.transition(ctx, actorID, id, model.StatusPenerimaanBarang, model.StatusPenyerahanBarang,
		model.ActionRecordDelivery, fields,
		map[string]interface{}{"document": req.Document})
}

func (s *procurementService) Complete(ctx context.Context, actorID string, id uint, req CompleteRequest) (ProcurementResponse, error) {
	if req.FinalNote == "" {
		return ProcurementResponse{}, fmt.Errorf("%w: final_note is required", apperr.ErrValidation)
	}
	return s.transition(ctx, actorID, id, model.StatusPenyerahanBarang, model.StatusSelesai,
		model.ActionComplete,
		map[string]interface{}{"final_note": req.FinalNote},
		map[string]interface{}{"final_note": req.FinalNote})
}

// Approve is the orchestrator coupling the state machine to the budget
// ledger: the deduction and the status advance commit together or not at all.
func (s *procurementService) Approve(ctx context.Context, actorID string, id uint, year int, req ApproveRequest) (ProcurementResponse, error) {
	var amount decimal.Decimal
	var organizationID uint

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		procurement, checkErr := s.requireStatus(txCtx, id, model.StatusVerifikasiPengajuan)
		if checkErr != nil {
			return checkErr
		}

		if procurement.ItemID == nil {
			return fmt.Errorf("%w: procurement %d has no linked item, confirm the price first", apperr.ErrPreconditionFailed, id)
		}

		item, findErr := s.itemRepo.FindByID(txCtx, *procurement.ItemID)
		if findErr != nil {
			return fmt.Errorf("failed to load item %d: %w", *procurement.ItemID, findErr)
		}

		organizationID = procurement.OrganizationID
		amount = item.Price.Mul(decimal.NewFromInt(int64(procurement.Quantity)))

		budget, deductErr := s.budgetService.Deduct(txCtx, procurement.OrganizationID, year, amount)
		if deductErr != nil {
			return deductErr
		}

		rows, updateErr := s.procurementRepo.UpdateTransition(txCtx, id, model.StatusVerifikasiPengajuan, map[string]interface{}{
			"status":            model.StatusPengirimanOrder,
			"verification_note": req.Notes,
		})
		if updateErr != nil {
			return fmt.Errorf("failed to advance procurement: %w", updateErr)
		}
		if rows == 0 {
			return fmt.Errorf("%w: procurement %d left VERIFIKASI_PENGAJUAN", apperr.ErrStateConflict, id)
		}

		if auditErr := s.writeAudit(txCtx, actorID, model.ActionApprove, id, map[string]interface{}{
			"notes":  req.Notes,
			"amount": amount.StringFixed(2),
		}); auditErr != nil {
			return auditErr
		}
		return s.writeAudit(txCtx, actorID, model.ActionDeductBudget, budget.ID, map[string]interface{}{
			"organization_id": procurement.OrganizationID,
			"year":            year,
			"amount":          amount.StringFixed(2),
			"remaining":       budget.RemainingBudget.StringFixed(2),
		})
	})
	if err != nil {
		return ProcurementResponse{}, err
	}

	s.broadcast("procurement_status_changed", map[string]interface{}{
		"id":     id,
		"status": string(model.StatusPengirimanOrder),
	})
	s.broadcast("budget_deducted", map[string]interface{}{
		"organization_id": organizationID,
		"year":            year,
		"amount":          amount.StringFixed(2),
	})

	return s.GetByID(ctx, id)
}

// --- helpers ---

// requireStatus loads the procurement under its row lock and checks the gate.
// NotFound and StateConflict come out of here so every operation reports them
// the same way.
func (s *procurementService) requireStatus(ctx context.Context, id uint, required model.ProcurementStatus) (*model.Procurement, error) {
	procurement, err := s.procurementRepo.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: procurement %d", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load procurement: %w", err)
	}
	if procurement.Status != required {
		return nil, fmt.Errorf("%w: procurement %d is %s, operation requires %s",
			apperr.ErrStateConflict, id, procurement.Status, required)
	}
	return procurement, nil
}

// transition runs one single-step state-machine operation: gate check, the
// conditional status write, and the audit row, in one transaction.
func (s *procurementService) transition(
	ctx context.Context,
	actorID string,
	id uint,
	required, next model.ProcurementStatus,
	action string,
	fields map[string]interface{},
	auditDetails map[string]interface{},
) (ProcurementResponse, error) {
	if !required.CanTransitionTo(next) {
		return ProcurementResponse{}, fmt.Errorf("%w: %s cannot move to %s", apperr.ErrStateConflict, required, next)
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, checkErr := s.requireStatus(txCtx, id, required); checkErr != nil {
			return checkErr
		}

		updates := map[string]interface{}{"status": next}
		for k, v := range fields {
			updates[k] = v
		}

		rows, updateErr := s.procurementRepo.UpdateTransition(txCtx, id, required, updates)
		if updateErr != nil {
			return fmt.Errorf("failed to update procurement: %w", updateErr)
		}
		if rows == 0 {
			return fmt.Errorf("%w: procurement %d left %s", apperr.ErrStateConflict, id, required)
		}

		return s.writeAudit(txCtx, actorID, action, id, auditDetails)
	})
	if err != nil {
		return ProcurementResponse{}, err
	}

	s.broadcast("procurement_status_changed", map[string]interface{}{
		"id":     id,
		"status": string(next),
	})

	return s.GetByID(ctx, id)
}

func (s *procurementService) writeAudit(ctx context.Context, actorID, action string, entityID uint, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	audit := model.AuditLog{
		UserID:   parseActorID(actorID),
		Action:   action,
		EntityID: fmt.Sprintf("%d", entityID),
		Details:  string(payload),
	}
	if err := s.auditRepo.Create(ctx, &audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *procurementService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(ProcurementEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}
