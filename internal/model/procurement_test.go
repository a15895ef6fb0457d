package model_test

import (
	"testing"

	"procurement-backend/internal/model"
)

func TestStatusValid(t *testing.T) {
	valid := []model.ProcurementStatus{
		model.StatusPengajuan,
		model.StatusVerifikasiPengajuan,
		model.StatusPengajuanDitolak,
		model.StatusPengirimanOrder,
		model.StatusPengirimanBarang,
		model.StatusPenerimaanBarang,
		model.StatusPenyerahanBarang,
		model.StatusSelesai,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}

	for _, s := range []model.ProcurementStatus{"", "pengajuan", "UNKNOWN", "DONE"} {
		if s.Valid() {
			t.Errorf("%q should not be valid", s)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	terminal := map[model.ProcurementStatus]bool{
		model.StatusPengajuanDitolak: true,
		model.StatusSelesai:          true,
	}

	for _, s := range []model.ProcurementStatus{
		model.StatusPengajuan,
		model.StatusVerifikasiPengajuan,
		model.StatusPengajuanDitolak,
		model.StatusPengirimanOrder,
		model.StatusPengirimanBarang,
		model.StatusPenerimaanBarang,
		model.StatusPenyerahanBarang,
		model.StatusSelesai,
	} {
		if got := s.IsTerminal(); got != terminal[s] {
			t.Errorf("%s: IsTerminal() = %v, want %v", s, got, terminal[s])
		}
	}

	if model.ProcurementStatus("UNKNOWN").IsTerminal() {
		t.Error("an unknown status must not report as terminal")
	}
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from model.ProcurementStatus
		to   model.ProcurementStatus
		ok   bool
	}{
		{model.StatusPengajuan, model.StatusVerifikasiPengajuan, true},
		{model.StatusVerifikasiPengajuan, model.StatusPengirimanOrder, true},
		{model.StatusVerifikasiPengajuan, model.StatusPengajuanDitolak, true},
		{model.StatusPengirimanOrder, model.StatusPengirimanBarang, true},
		{model.StatusPengirimanBarang, model.StatusPenerimaanBarang, true},
		{model.StatusPenerimaanBarang, model.StatusPenyerahanBarang, true},
		{model.StatusPenyerahanBarang, model.StatusSelesai, true},

		// No skipping ahead.
		{model.StatusPengajuan, model.StatusPengirimanOrder, false},
		{model.StatusVerifikasiPengajuan, model.StatusSelesai, false},

		// No moving backwards.
		{model.StatusPengirimanBarang, model.StatusPengirimanOrder, false},
		{model.StatusPenyerahanBarang, model.StatusPenerimaanBarang, false},

		// Rejection only out of verification.
		{model.StatusPengajuan, model.StatusPengajuanDitolak, false},
		{model.StatusPengirimanOrder, model.StatusPengajuanDitolak, false},

		// Terminal states go nowhere.
		{model.StatusSelesai, model.StatusPengajuan, false},
		{model.StatusPengajuanDitolak, model.StatusVerifikasiPengajuan, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.ok {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}
