package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateProcurement = "CREATE_PROCUREMENT"
	ActionConfirmPrice      = "CONFIRM_PRICE_MATCH"
	ActionApprove           = "APPROVE_PROCUREMENT"
	ActionReject            = "REJECT_PROCUREMENT"
	ActionCreatePO          = "CREATE_PURCHASE_ORDER"
	ActionEstimateDelivery  = "ESTIMATE_DELIVERY"
	ActionRecordDelivery    = "RECORD_DELIVERY"
	ActionComplete          = "COMPLETE_PROCUREMENT"

	ActionUpdateBudget       = "UPDATE_BUDGET"
	ActionDeductBudget       = "DEDUCT_BUDGET"
	ActionAssociatePrintNum  = "ASSOCIATE_PRINT_NUMBER"
	ActionConfirmPrintNumber = "CONFIRM_PRINT_NUMBER_RECEIPT"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (numeric id/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
