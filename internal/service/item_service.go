package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"procurement-backend/internal/apperr"
	"procurement-backend/internal/model"
	"procurement-backend/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateItemRequest struct {
	Name  string `json:"name" binding:"required"`
	Price string `json:"price" binding:"required"` // Decimal string
	Unit  string `json:"unit"`
}

type ItemResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Unit      string `json:"unit"`
	CreatedAt string `json:"created_at"`
}

// --- Interface ---

// ItemService manages the catalog of priced items procurements link against.
type ItemService interface {
	Create(ctx context.Context, req CreateItemRequest) (ItemResponse, error)
	GetByID(ctx context.Context, id uint) (ItemResponse, error)
	List(ctx context.Context, page, limit int) ([]ItemResponse, int64, error)
}

type itemService struct {
	itemRepo repository.ItemRepository
}

func NewItemService(itemRepo repository.ItemRepository) ItemService {
	return &itemService{itemRepo: itemRepo}
}

// --- Implementation ---

func toItemResponse(item *model.Item) ItemResponse {
	return ItemResponse{
		ID:        item.ID,
		Name:      item.Name,
		Price:     item.Price.StringFixed(2),
		Unit:      item.Unit,
		CreatedAt: item.CreatedAt.Format(time.RFC3339),
	}
}

func (s *itemService) Create(ctx context.Context, req CreateItemRequest) (ItemResponse, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return ItemResponse{}, fmt.Errorf("%w: invalid price %q", apperr.ErrValidation, req.Price)
	}
	if price.IsNegative() {
		return ItemResponse{}, fmt.Errorf("%w: price must not be negative", apperr.ErrValidation)
	}

	item := model.Item{Name: req.Name, Price: price, Unit: req.Unit}
	if err := s.itemRepo.Create(ctx, &item); err != nil {
		return ItemResponse{}, fmt.Errorf("failed to create item: %w", err)
	}

	return toItemResponse(&item), nil
}

func (s *itemService) GetByID(ctx context.Context, id uint) (ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ItemResponse{}, fmt.Errorf("%w: item %d", apperr.ErrNotFound, id)
		}
		return ItemResponse{}, fmt.Errorf("failed to load item: %w", err)
	}
	return toItemResponse(item), nil
}

func (s *itemService) List(ctx context.Context, page, limit int) ([]ItemResponse, int64, error) {
	items, total, err := s.itemRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}

	responses := make([]ItemResponse, 0, len(items))
	for i := range items {
		responses = append(responses, toItemResponse(&items[i]))
	}
	return responses, total, nil
}
