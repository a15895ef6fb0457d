package repository

import (
	"context"
	"errors"

	"procurement-backend/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BudgetRepository interface {
	// GetOrCreate returns the (organization, year) account, inserting a zero
	// account on first lookup.
	GetOrCreate(ctx context.Context, organizationID uint, year int) (*model.Budget, error)
	Find(ctx context.Context, organizationID uint, year int) (*model.Budget, error)
	// FindForUpdate takes the account row's write lock so concurrent
	// deductions serialize; callers must be inside a RunInTx scope.
	FindForUpdate(ctx context.Context, organizationID uint, year int) (*model.Budget, error)
	UpdateAmounts(ctx context.Context, id uint, total, remaining decimal.Decimal) error
	ListByOrganization(ctx context.Context, organizationID uint) ([]model.Budget, error)
}

type budgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) BudgetRepository {
	return &budgetRepository{db: db}
}

func (r *budgetRepository) GetOrCreate(ctx context.Context, organizationID uint, year int) (*model.Budget, error) {
	var budget model.Budget
	err := GetDB(ctx, r.db).
		Where("organization_id = ? AND year = ?", organizationID, year).
		First(&budget).Error
	if err == nil {
		return &budget, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	budget = model.Budget{
		OrganizationID:  organizationID,
		Year:            year,
		TotalBudget:     decimal.Zero,
		RemainingBudget: decimal.Zero,
	}
	if err := GetDB(ctx, r.db).Create(&budget).Error; err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *budgetRepository) Find(ctx context.Context, organizationID uint, year int) (*model.Budget, error) {
	var budget model.Budget
	if err := GetDB(ctx, r.db).
		Where("organization_id = ? AND year = ?", organizationID, year).
		First(&budget).Error; err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *budgetRepository) FindForUpdate(ctx context.Context, organizationID uint, year int) (*model.Budget, error) {
	var budget model.Budget
	if err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("organization_id = ? AND year = ?", organizationID, year).
		First(&budget).Error; err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *budgetRepository) UpdateAmounts(ctx context.Context, id uint, total, remaining decimal.Decimal) error {
	return GetDB(ctx, r.db).
		Model(&model.Budget{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_budget":     total,
			"remaining_budget": remaining,
		}).Error
}

func (r *budgetRepository) ListByOrganization(ctx context.Context, organizationID uint) ([]model.Budget, error) {
	var budgets []model.Budget
	if err := GetDB(ctx, r.db).
		Where("organization_id = ?", organizationID).
		Order("year DESC").
		Find(&budgets).Error; err != nil {
		return nil, err
	}
	return budgets, nil
}
