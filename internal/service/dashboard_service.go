package service

import (
	"context"
	"fmt"

	"procurement-backend/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type DashboardResponse struct {
	StatusCounts    []StatusCount `json:"status_counts"`
	TotalBudget     string        `json:"total_budget"`
	RemainingBudget string        `json:"remaining_budget"`
	CommittedSpend  string        `json:"committed_spend"`
	Year            int           `json:"year"`
}

// DashboardService serves the read-only aggregates for the admin overview.
// Aggregation queries go straight to the DB, mirroring how the rest of the
// app treats reporting as a thin projection over the archival records.
type DashboardService interface {
	Overview(ctx context.Context, organizationID uint, year int) (DashboardResponse, error)
}

type dashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) DashboardService {
	return &dashboardService{db: db}
}

func (s *dashboardService) Overview(ctx context.Context, organizationID uint, year int) (DashboardResponse, error) {
	var counts []StatusCount
	err := s.db.WithContext(ctx).
		Model(&model.Procurement{}).
		Select("status, COUNT(*) AS count").
		Where("organization_id = ?", organizationID).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count procurements: %w", err)
	}

	var budget model.Budget
	err = s.db.WithContext(ctx).
		Where("organization_id = ? AND year = ?", organizationID, year).
		First(&budget).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return DashboardResponse{}, fmt.Errorf("failed to load budget: %w", err)
	}

	total := decimal.Zero
	remaining := decimal.Zero
	if err == nil {
		total = budget.TotalBudget
		remaining = budget.RemainingBudget
	}

	return DashboardResponse{
		StatusCounts:    counts,
		TotalBudget:     total.StringFixed(2),
		RemainingBudget: remaining.StringFixed(2),
		CommittedSpend:  total.Sub(remaining).StringFixed(2),
		Year:            year,
	}, nil
}
