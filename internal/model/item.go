package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a catalog entry with a confirmed unit price. Linking an item to a
// procurement is what fixes the price used by the approval deduction.
type Item struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	Unit      string          `gorm:"type:varchar(50)" json:"unit"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
