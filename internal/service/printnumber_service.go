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

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type AssociateRequest struct {
	Code             string `json:"code" binding:"required"`
	ProcurementIDs   []uint `json:"procurement_ids" binding:"required,min=1"`
	PersonInChargeID string `json:"person_in_charge_id" binding:"required"`
}

type AssociateResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	PrintNumberID uint   `json:"print_number_id"`
}

type ConfirmReceiptRequest struct {
	ProofPhoto  string `json:"proof_photo" binding:"required"` // stored photo URL
	ReceiveDate string `json:"receive_date"`                   // YYYY-MM-DD, defaults to today
}

type PrintNumberResponse struct {
	ID                 uint    `json:"id"`
	Code               string  `json:"code"`
	PersonInChargeID   string  `json:"person_in_charge_id"`
	PersonInChargeName string  `json:"person_in_charge_name,omitempty"`
	ProofPhoto         *string `json:"proof_photo"`
	ReceiveDate        *string `json:"receive_date"`
	IsActive           bool    `json:"is_active"`
	Procurements       []uint  `json:"procurements,omitempty"`
	CreatedAt          string  `json:"created_at"`
}

// --- Interface ---

// PrintNumberService owns the batch hand-off grouping. Associate is a single
// atomic unit: create-or-reuse the code, append the junction rows, and fan the
// status out to PENYERAHAN_BARANG — or commit nothing.
type PrintNumberService interface {
	Associate(ctx context.Context, actorID string, req AssociateRequest) (AssociateResponse, error)
	ConfirmReceipt(ctx context.Context, actorID string, id uint, req ConfirmReceiptRequest) (PrintNumberResponse, error)
	GetByID(ctx context.Context, id uint) (PrintNumberResponse, error)
	List(ctx context.Context, page, limit int) ([]PrintNumberResponse, int64, error)
}

type printNumberService struct {
	printNumberRepo repository.PrintNumberRepository
	procurementRepo repository.ProcurementRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
}

func NewPrintNumberService(
	printNumberRepo repository.PrintNumberRepository,
	procurementRepo repository.ProcurementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) PrintNumberService {
	return &printNumberService{
		printNumberRepo: printNumberRepo,
		procurementRepo: procurementRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
	}
}

// --- Implementation ---

func (s *printNumberService) Associate(ctx context.Context, actorID string, req AssociateRequest) (AssociateResponse, error) {
	if len(req.ProcurementIDs) == 0 {
		return AssociateResponse{}, fmt.Errorf("%w: procurement_ids must not be empty", apperr.ErrValidation)
	}
	personInCharge, err := uuid.Parse(req.PersonInChargeID)
	if err != nil {
		return AssociateResponse{}, fmt.Errorf("%w: invalid person_in_charge_id", apperr.ErrValidation)
	}
	seen := make(map[uint]bool, len(req.ProcurementIDs))
	for _, id := range req.ProcurementIDs {
		if seen[id] {
			return AssociateResponse{}, fmt.Errorf("%w: procurement %d listed twice", apperr.ErrDuplicateAssociation, id)
		}
		seen[id] = true
	}

	var result AssociateResponse
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		created := false
		printNumber, findErr := s.printNumberRepo.FindByCode(txCtx, req.Code)
		switch {
		case findErr == nil:
			// Reuse: the same code hands over another batch, possibly to a
			// different person in charge.
			if updateErr := s.printNumberRepo.UpdatePersonInCharge(txCtx, printNumber.ID, personInCharge); updateErr != nil {
				return fmt.Errorf("failed to reassign person in charge: %w", updateErr)
			}
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			printNumber = &model.PrintNumber{
				Code:             req.Code,
				PersonInChargeID: personInCharge,
				IsActive:         true,
			}
			if createErr := s.printNumberRepo.Create(txCtx, printNumber); createErr != nil {
				return fmt.Errorf("failed to create print number: %w", createErr)
			}
			created = true
		default:
			return fmt.Errorf("failed to look up print number: %w", findErr)
		}

		existing, countErr := s.printNumberRepo.CountLinks(txCtx, printNumber.ID, req.ProcurementIDs)
		if countErr != nil {
			return fmt.Errorf("failed to check existing associations: %w", countErr)
		}
		if existing > 0 {
			return fmt.Errorf("%w: %d of the procurements are already on print number %s",
				apperr.ErrDuplicateAssociation, existing, req.Code)
		}

		links := make([]model.ProcurementPrintNumber, 0, len(req.ProcurementIDs))
		for _, procurementID := range req.ProcurementIDs {
			links = append(links, model.ProcurementPrintNumber{
				PrintNumberID: printNumber.ID,
				ProcurementID: procurementID,
			})
		}
		if linkErr := s.printNumberRepo.CreateLinks(txCtx, links); linkErr != nil {
			return fmt.Errorf("failed to create associations: %w", linkErr)
		}

		// Fan the status out, asserting every row is still in the
		// pre-handover state. A shortfall means at least one procurement was
		// not eligible; the whole batch rolls back.
		rows, bulkErr := s.procurementRepo.BulkTransition(txCtx, req.ProcurementIDs,
			model.StatusPenerimaanBarang, model.StatusPenyerahanBarang)
		if bulkErr != nil {
			return fmt.Errorf("failed to update procurement statuses: %w", bulkErr)
		}
		if rows != int64(len(req.ProcurementIDs)) {
			return fmt.Errorf("%w: %d of %d procurements are not in %s",
				apperr.ErrStateConflict, int64(len(req.ProcurementIDs))-rows, len(req.ProcurementIDs), model.StatusPenerimaanBarang)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"code":            req.Code,
			"procurement_ids": req.ProcurementIDs,
			"created":         created,
		})
		audit := model.AuditLog{
			UserID:     parseActorID(actorID),
			Action:     model.ActionAssociatePrintNum,
			EntityID:   fmt.Sprintf("%d", printNumber.ID),
			EntityName: req.Code,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Create(txCtx, &audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		message := fmt.Sprintf("reused existing print number %s", req.Code)
		if created {
			message = fmt.Sprintf("created new print number %s", req.Code)
		}
		result = AssociateResponse{
			Success:       true,
			Message:       message,
			PrintNumberID: printNumber.ID,
		}
		return nil
	})
	if err != nil {
		return AssociateResponse{}, err
	}

	return result, nil
}

func (s *printNumberService) ConfirmReceipt(ctx context.Context, actorID string, id uint, req ConfirmReceiptRequest) (PrintNumberResponse, error) {
	receiveDate := time.Now()
	if req.ReceiveDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ReceiveDate)
		if err != nil {
			return PrintNumberResponse{}, fmt.Errorf("%w: invalid receive_date %q, expected YYYY-MM-DD", apperr.ErrValidation, req.ReceiveDate)
		}
		receiveDate = parsed
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		printNumber, findErr := s.printNumberRepo.FindByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: print number %d", apperr.ErrNotFound, id)
			}
			return fmt.Errorf("failed to load print number: %w", findErr)
		}
		if !printNumber.IsActive {
			return fmt.Errorf("%w: print number %s is already received", apperr.ErrStateConflict, printNumber.Code)
		}

		if updateErr := s.printNumberRepo.UpdateReceipt(txCtx, id, req.ProofPhoto, receiveDate); updateErr != nil {
			return fmt.Errorf("failed to confirm receipt: %w", updateErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"code":         printNumber.Code,
			"receive_date": receiveDate.Format("2006-01-02"),
		})
		audit := model.AuditLog{
			UserID:     parseActorID(actorID),
			Action:     model.ActionConfirmPrintNumber,
			EntityID:   fmt.Sprintf("%d", id),
			EntityName: printNumber.Code,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Create(txCtx, &audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return PrintNumberResponse{}, err
	}

	return s.GetByID(ctx, id)
}

func (s *printNumberService) GetByID(ctx context.Context, id uint) (PrintNumberResponse, error) {
	printNumber, err := s.printNumberRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PrintNumberResponse{}, fmt.Errorf("%w: print number %d", apperr.ErrNotFound, id)
		}
		return PrintNumberResponse{}, fmt.Errorf("failed to load print number: %w", err)
	}

	resp := toPrintNumberResponse(printNumber)

	links, err := s.printNumberRepo.ListLinks(ctx, id)
	if err != nil {
		return PrintNumberResponse{}, fmt.Errorf("failed to list associations: %w", err)
	}
	for _, link := range links {
		resp.Procurements = append(resp.Procurements, link.ProcurementID)
	}

	return resp, nil
}

func (s *printNumberService) List(ctx context.Context, page, limit int) ([]PrintNumberResponse, int64, error) {
	printNumbers, total, err := s.printNumberRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list print numbers: %w", err)
	}

	responses := make([]PrintNumberResponse, 0, len(printNumbers))
	for i := range printNumbers {
		responses = append(responses, toPrintNumberResponse(&printNumbers[i]))
	}
	return responses, total, nil
}

func toPrintNumberResponse(pn *model.PrintNumber) PrintNumberResponse {
	resp := PrintNumberResponse{
		ID:               pn.ID,
		Code:             pn.Code,
		PersonInChargeID: pn.PersonInChargeID.String(),
		ProofPhoto:       pn.ProofPhoto,
		IsActive:         pn.IsActive,
		CreatedAt:        pn.CreatedAt.Format(time.RFC3339),
	}
	if pn.PersonInCharge != nil {
		resp.PersonInChargeName = pn.PersonInCharge.Username
	}
	if pn.ReceiveDate != nil {
		s := pn.ReceiveDate.Format("2006-01-02")
		resp.ReceiveDate = &s
	}
	return resp
}
