package repository

import (
	"context"

	"procurement-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProcurementFilter narrows List results.
type ProcurementFilter struct {
	Status         model.ProcurementStatus
	OrganizationID uint
}

type ProcurementRepository interface {
	Create(ctx context.Context, p *model.Procurement) error
	FindByID(ctx context.Context, id uint) (*model.Procurement, error)
	// FindByIDForUpdate takes the row's write lock; callers must be inside a
	// RunInTx scope.
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Procurement, error)
	// UpdateTransition writes fields (including the new status) only when the
	// row still holds the expected status, and reports rows affected. Zero
	// rows means the status moved underneath us.
	UpdateTransition(ctx context.Context, id uint, expected model.ProcurementStatus, fields map[string]interface{}) (int64, error)
	// BulkTransition moves every listed procurement from expected to next in
	// one statement, reporting rows affected.
	BulkTransition(ctx context.Context, ids []uint, expected, next model.ProcurementStatus) (int64, error)
	List(ctx context.Context, filter ProcurementFilter, page, limit int) ([]model.Procurement, int64, error)
}

type procurementRepository struct {
	db *gorm.DB
}

func NewProcurementRepository(db *gorm.DB) ProcurementRepository {
	return &procurementRepository{db: db}
}

func (r *procurementRepository) Create(ctx context.Context, p *model.Procurement) error {
	return GetDB(ctx, r.db).Create(p).Error
}

func (r *procurementRepository) FindByID(ctx context.Context, id uint) (*model.Procurement, error) {
	var p model.Procurement
	if err := GetDB(ctx, r.db).
		Preload("Item").
		Preload("Requester").
		Preload("Organization").
		First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *procurementRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Procurement, error) {
	var p model.Procurement
	if err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *procurementRepository) UpdateTransition(ctx context.Context, id uint, expected model.ProcurementStatus, fields map[string]interface{}) (int64, error) {
	res := GetDB(ctx, r.db).
		Model(&model.Procurement{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *procurementRepository) BulkTransition(ctx context.Context, ids []uint, expected, next model.ProcurementStatus) (int64, error) {
	res := GetDB(ctx, r.db).
		Model(&model.Procurement{}).
		Where("id IN ? AND status = ?", ids, expected).
		Update("status", next)
	return res.RowsAffected, res.Error
}

func (r *procurementRepository) List(ctx context.Context, filter ProcurementFilter, page, limit int) ([]model.Procurement, int64, error) {
	var procurements []model.Procurement
	var total int64

	applyFilter := func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		if filter.OrganizationID != 0 {
			db = db.Where("organization_id = ?", filter.OrganizationID)
		}
		return db
	}

	if err := applyFilter(GetDB(ctx, r.db).Model(&model.Procurement{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := applyFilter(GetDB(ctx, r.db)).
		Preload("Item").
		Preload("Requester").
		Preload("Organization").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&procurements).Error; err != nil {
		return nil, 0, err
	}

	return procurements, total, nil
}
