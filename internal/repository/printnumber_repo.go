package repository

import (
	"context"
	"time"

	"procurement-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrintNumberRepository interface {
	FindByCode(ctx context.Context, code string) (*model.PrintNumber, error)
	FindByID(ctx context.Context, id uint) (*model.PrintNumber, error)
	Create(ctx context.Context, pn *model.PrintNumber) error
	UpdatePersonInCharge(ctx context.Context, id uint, personInChargeID uuid.UUID) error
	// CountLinks reports how many of the given procurements are already
	// linked to the print number; used to refuse duplicate associations
	// before inserting.
	CountLinks(ctx context.Context, printNumberID uint, procurementIDs []uint) (int64, error)
	CreateLinks(ctx context.Context, links []model.ProcurementPrintNumber) error
	ListLinks(ctx context.Context, printNumberID uint) ([]model.ProcurementPrintNumber, error)
	UpdateReceipt(ctx context.Context, id uint, proofPhoto string, receiveDate time.Time) error
	List(ctx context.Context, page, limit int) ([]model.PrintNumber, int64, error)
}

type printNumberRepository struct {
	db *gorm.DB
}

func NewPrintNumberRepository(db *gorm.DB) PrintNumberRepository {
	return &printNumberRepository{db: db}
}

func (r *printNumberRepository) FindByCode(ctx context.Context, code string) (*model.PrintNumber, error) {
	var pn model.PrintNumber
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&pn).Error; err != nil {
		return nil, err
	}
	return &pn, nil
}

func (r *printNumberRepository) FindByID(ctx context.Context, id uint) (*model.PrintNumber, error) {
	var pn model.PrintNumber
	if err := GetDB(ctx, r.db).
		Preload("PersonInCharge").
		First(&pn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pn, nil
}

func (r *printNumberRepository) Create(ctx context.Context, pn *model.PrintNumber) error {
	return GetDB(ctx, r.db).Create(pn).Error
}

func (r *printNumberRepository) UpdatePersonInCharge(ctx context.Context, id uint, personInChargeID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Model(&model.PrintNumber{}).
		Where("id = ?", id).
		Update("person_in_charge_id", personInChargeID).Error
}

func (r *printNumberRepository) CountLinks(ctx context.Context, printNumberID uint, procurementIDs []uint) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.ProcurementPrintNumber{}).
		Where("print_number_id = ? AND procurement_id IN ?", printNumberID, procurementIDs).
		Count(&count).Error
	return count, err
}

func (r *printNumberRepository) CreateLinks(ctx context.Context, links []model.ProcurementPrintNumber) error {
	return GetDB(ctx, r.db).Create(&links).Error
}

func (r *printNumberRepository) ListLinks(ctx context.Context, printNumberID uint) ([]model.ProcurementPrintNumber, error) {
	var links []model.ProcurementPrintNumber
	if err := GetDB(ctx, r.db).
		Preload("Procurement").
		Where("print_number_id = ?", printNumberID).
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *printNumberRepository) UpdateReceipt(ctx context.Context, id uint, proofPhoto string, receiveDate time.Time) error {
	return GetDB(ctx, r.db).
		Model(&model.PrintNumber{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"proof_photo":  proofPhoto,
			"receive_date": receiveDate,
			"is_active":    false,
		}).Error
}

func (r *printNumberRepository) List(ctx context.Context, page, limit int) ([]model.PrintNumber, int64, error) {
	var printNumbers []model.PrintNumber
	var total int64

	if err := GetDB(ctx, r.db).Model(&model.PrintNumber{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := GetDB(ctx, r.db).
		Preload("PersonInCharge").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&printNumbers).Error; err != nil {
		return nil, 0, err
	}

	return printNumbers, total, nil
}
