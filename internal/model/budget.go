package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is the per-(organization, year) ledger account procurement costs are
// charged against. Rows are auto-created with zero amounts on first lookup and
// never deleted. RemainingBudget must stay >= 0 under deduction; allocation
// re-derives it and may legitimately push it negative when an admin shrinks a
// budget below already-committed spend.
type Budget struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrganizationID  uint            `gorm:"not null;uniqueIndex:idx_budget_org_year" json:"organization_id"`
	Organization    *Organization   `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Year            int             `gorm:"not null;uniqueIndex:idx_budget_org_year" json:"year"`
	TotalBudget     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_budget"`
	RemainingBudget decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"remaining_budget"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
