package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"procurement-backend/internal/apperr"
	"procurement-backend/internal/model"
	"procurement-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type UpdateBudgetRequest struct {
	Year        int    `json:"year" binding:"required,gte=2000"`
	TotalBudget string `json:"total_budget" binding:"required"` // Decimal string
}

type BudgetResponse struct {
	ID              uint   `json:"id"`
	OrganizationID  uint   `json:"organization_id"`
	Year            int    `json:"year"`
	TotalBudget     string `json:"total_budget"`
	RemainingBudget string `json:"remaining_budget"`
}

// --- Interface ---

// BudgetService owns the per-(organization, year) money ledger. Deduct is the
// only operation that enforces the floor-zero invariant; Allocate re-derives
// the remaining amount and is allowed to push it negative so admins can
// correct an over-allocated budget.
type BudgetService interface {
	GetOrCreate(ctx context.Context, organizationID uint, year int) (BudgetResponse, error)
	ListByOrganization(ctx context.Context, organizationID uint) ([]BudgetResponse, error)
	Allocate(ctx context.Context, actorID string, organizationID uint, req UpdateBudgetRequest) (BudgetResponse, error)
	// Deduct decrements the remaining budget, failing with
	// apperr.ErrInsufficientBudget (and writing nothing) if the result would
	// be negative. It locks the account row, so concurrent deductions
	// serialize; run it inside the caller's transaction scope.
	Deduct(ctx context.Context, organizationID uint, year int, amount decimal.Decimal) (*model.Budget, error)
}

type budgetService struct {
	budgetRepo repository.BudgetRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewBudgetService(
	budgetRepo repository.BudgetRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) BudgetService {
	return &budgetService{
		budgetRepo: budgetRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
	}
}

// --- Implementation ---

func toBudgetResponse(b *model.Budget) BudgetResponse {
	return BudgetResponse{
		ID:              b.ID,
		OrganizationID:  b.OrganizationID,
		Year:            b.Year,
		TotalBudget:     b.TotalBudget.StringFixed(2),
		RemainingBudget: b.RemainingBudget.StringFixed(2),
	}
}

func (s *budgetService) GetOrCreate(ctx context.Context, organizationID uint, year int) (BudgetResponse, error) {
	budget, err := s.budgetRepo.GetOrCreate(ctx, organizationID, year)
	if err != nil {
		return BudgetResponse{}, fmt.Errorf("failed to load budget: %w", err)
	}
	return toBudgetResponse(budget), nil
}

func (s *budgetService) ListByOrganization(ctx context.Context, organizationID uint) ([]BudgetResponse, error) {
	budgets, err := s.budgetRepo.ListByOrganization(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	responses := make([]BudgetResponse, 0, len(budgets))
	for i := range budgets {
		responses = append(responses, toBudgetResponse(&budgets[i]))
	}
	return responses, nil
}

func (s *budgetService) Allocate(ctx context.Context, actorID string, organizationID uint, req UpdateBudgetRequest) (BudgetResponse, error) {
	newTotal, err := decimal.NewFromString(req.TotalBudget)
	if err != nil {
		return BudgetResponse{}, fmt.Errorf("%w: invalid total_budget %q", apperr.ErrValidation, req.TotalBudget)
	}
	if newTotal.LessThanOrEqual(decimal.Zero) {
		return BudgetResponse{}, fmt.Errorf("%w: total_budget must be greater than 0", apperr.ErrValidation)
	}

	var updated *model.Budget
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		budget, findErr := s.budgetRepo.FindForUpdate(txCtx, organizationID, req.Year)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no budget for organization %d year %d", apperr.ErrNotFound, organizationID, req.Year)
			}
			return fmt.Errorf("failed to load budget: %w", findErr)
		}

		// Re-derive instead of resetting, so committed spend survives edits:
		// newRemaining = remaining + (newTotal - total).
		newRemaining := budget.RemainingBudget.Add(newTotal.Sub(budget.TotalBudget))

		if updateErr := s.budgetRepo.UpdateAmounts(txCtx, budget.ID, newTotal, newRemaining); updateErr != nil {
			return fmt.Errorf("failed to update budget: %w", updateErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"organization_id": organizationID,
			"year":            budget.Year,
			"old_total":       budget.TotalBudget.StringFixed(2),
			"new_total":       newTotal.StringFixed(2),
			"new_remaining":   newRemaining.StringFixed(2),
		})
		audit := model.AuditLog{
			UserID:   parseActorID(actorID),
			Action:   model.ActionUpdateBudget,
			EntityID: fmt.Sprintf("%d", budget.ID),
			Details:  string(details),
		}
		if auditErr := s.auditRepo.Create(txCtx, &audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		budget.TotalBudget = newTotal
		budget.RemainingBudget = newRemaining
		updated = budget
		return nil
	})
	if err != nil {
		return BudgetResponse{}, err
	}

	return toBudgetResponse(updated), nil
}

func (s *budgetService) Deduct(ctx context.Context, organizationID uint, year int, amount decimal.Decimal) (*model.Budget, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: deduction amount must not be negative", apperr.ErrValidation)
	}

	budget, err := s.budgetRepo.FindForUpdate(ctx, organizationID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no budget for organization %d year %d", apperr.ErrNotFound, organizationID, year)
		}
		return nil, fmt.Errorf("failed to load budget: %w", err)
	}

	newRemaining := budget.RemainingBudget.Sub(amount)
	if newRemaining.IsNegative() {
		return nil, fmt.Errorf("%w: remaining %s, requested %s",
			apperr.ErrInsufficientBudget, budget.RemainingBudget.StringFixed(2), amount.StringFixed(2))
	}

	if err := s.budgetRepo.UpdateAmounts(ctx, budget.ID, budget.TotalBudget, newRemaining); err != nil {
		return nil, fmt.Errorf("failed to deduct budget: %w", err)
	}

	budget.RemainingBudget = newRemaining
	return budget, nil
}

// parseActorID tolerates missing/invalid actor ids — audit rows allow a null
// user for automated actions.
func parseActorID(id string) *uuid.UUID {
	if id == "" {
		return nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	return &parsed
}
