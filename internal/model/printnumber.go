package model

import (
	"time"

	"github.com/google/uuid"
)

// PrintNumber is a human-assigned batch code grouping procurements for
// physical hand-off to a person in charge. Created the first time a code is
// submitted; resubmitting the same code reassigns the person in charge.
type PrintNumber struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Code             string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	PersonInChargeID uuid.UUID  `gorm:"type:uuid;not null" json:"person_in_charge_id"`
	PersonInCharge   *User      `gorm:"foreignKey:PersonInChargeID" json:"person_in_charge,omitempty"`
	ProofPhoto       *string    `gorm:"type:text" json:"proof_photo"`
	ReceiveDate      *time.Time `json:"receive_date"`
	IsActive         bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProcurementPrintNumber is the append-only junction between print numbers and
// procurements. The composite primary key forbids linking the same procurement
// to the same print number twice.
type ProcurementPrintNumber struct {
	PrintNumberID uint         `gorm:"primaryKey;autoIncrement:false" json:"print_number_id"`
	ProcurementID uint         `gorm:"primaryKey;autoIncrement:false" json:"procurement_id"`
	PrintNumber   *PrintNumber `gorm:"foreignKey:PrintNumberID" json:"print_number,omitempty"`
	Procurement   *Procurement `gorm:"foreignKey:ProcurementID" json:"procurement,omitempty"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
}
