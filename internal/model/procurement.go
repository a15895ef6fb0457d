package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProcurementStatus is the closed set of lifecycle states. The string values
// are part of the external API contract and are case-sensitive.
type ProcurementStatus string

const (
	StatusPengajuan           ProcurementStatus = "PENGAJUAN"
	StatusVerifikasiPengajuan ProcurementStatus = "VERIFIKASI_PENGAJUAN"
	StatusPengajuanDitolak    ProcurementStatus = "PENGAJUAN_DITOLAK"
	StatusPengirimanOrder     ProcurementStatus = "PENGIRIMAN_ORDER"
	StatusPengirimanBarang    ProcurementStatus = "PENGIRIMAN_BARANG"
	StatusPenerimaanBarang    ProcurementStatus = "PENERIMAAN_BARANG"
	StatusPenyerahanBarang    ProcurementStatus = "PENYERAHAN_BARANG"
	StatusSelesai             ProcurementStatus = "SELESAI"
)

// transitions is the explicit one-directional transition table. Terminal
// states (PENGAJUAN_DITOLAK, SELESAI) have no outgoing edges.
var transitions = map[ProcurementStatus][]ProcurementStatus{
	StatusPengajuan:           {StatusVerifikasiPengajuan},
	StatusVerifikasiPengajuan: {StatusPengirimanOrder, StatusPengajuanDitolak},
	StatusPengirimanOrder:     {StatusPengirimanBarang},
	StatusPengirimanBarang:    {StatusPenerimaanBarang},
	StatusPenerimaanBarang:    {StatusPenyerahanBarang},
	StatusPenyerahanBarang:    {StatusSelesai},
}

// Valid reports whether s is a known status value.
func (s ProcurementStatus) Valid() bool {
	switch s {
	case StatusPengajuan, StatusVerifikasiPengajuan, StatusPengajuanDitolak,
		StatusPengirimanOrder, StatusPengirimanBarang, StatusPenerimaanBarang,
		StatusPenyerahanBarang, StatusSelesai:
		return true
	}
	return false
}

// IsTerminal reports whether s accepts no further transitions.
func (s ProcurementStatus) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s ProcurementStatus) CanTransitionTo(next ProcurementStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Procurement is the archival purchase-request record. It is created in
// PENGAJUAN and mutated exclusively through state-machine operations; rows are
// never deleted. Later-stage fields stay null until their stage is reached.
type Procurement struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	RequesterID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"requester_id"`
	Requester      *User             `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	OrganizationID uint              `gorm:"not null;index" json:"organization_id"`
	Organization   *Organization     `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Status         ProcurementStatus `gorm:"type:varchar(30);not null;default:'PENGAJUAN';index" json:"status"`

	Reference      string          `gorm:"type:text" json:"reference"` // free text until a catalog item is linked
	ItemID         *uint           `gorm:"index" json:"item_id"`
	Item           *Item           `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	EstimatedPrice decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"estimated_price"`
	Quantity       int             `gorm:"not null" json:"quantity"`

	VerificationNote string `gorm:"type:text" json:"verification_note"`

	PODocument *string    `gorm:"type:text" json:"po_document"`
	PODate     *time.Time `json:"po_date"`

	TimeEstimation     *string    `gorm:"type:text" json:"time_estimation"`
	TimeEstimationDate *time.Time `json:"time_estimation_date"`

	BASTDocument *string    `gorm:"column:bast_document;type:text" json:"bast_document"`
	BASTDate     *time.Time `gorm:"column:bast_date" json:"bast_date"`

	FinalNote string `gorm:"type:text" json:"final_note"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
