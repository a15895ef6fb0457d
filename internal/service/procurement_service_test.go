package service_test

import (
	"context"
	"errors"
	"testing"

	"procurement-backend/internal/apperr"
	"procurement-backend/internal/model"
	"procurement-backend/internal/service"

	"github.com/google/uuid"
)

// createVerified drives a procurement through Create, AddItem and
// ConfirmPriceMatch so it sits in VERIFIKASI_PENGAJUAN with a linked item.
func createVerified(t *testing.T, env *testEnv, quantity int, price string) uint {
	t.Helper()
	ctx := context.Background()
	requester := uuid.New().String()

	created, err := env.procurements.Create(ctx, requester, 1, service.CreateProcurementRequest{
		Reference: "laptop untuk tim pengadaan",
		Quantity:  quantity,
	})
	requireNoErr(t, err)

	_, err = env.procurements.AddItem(ctx, actor, created.ID, service.AddItemRequest{
		Name:  "Laptop",
		Price: price,
		Unit:  "unit",
	})
	requireNoErr(t, err)

	_, err = env.procurements.ConfirmPriceMatch(ctx, actor, created.ID)
	requireNoErr(t, err)

	return created.ID
}

func TestLifecycleHappyPath(t *testing.T) {
	env := newTestEnv()
	env.seedBudget(1, 2026, "1000000", "1000000")
	ctx := context.Background()

	id := createVerified(t, env, 2, "300000")

	// Approval deducts price*quantity and advances in the same transaction.
	resp, err := env.procurements.Approve(ctx, actor, id, 2026, service.ApproveRequest{Notes: "harga sesuai"})
	requireNoErr(t, err)
	if resp.Status != string(model.StatusPengirimanOrder) {
		t.Fatalf("expected %s after approval, got %s", model.StatusPengirimanOrder, resp.Status)
	}
	if resp.VerificationNote != "harga sesuai" {
		t.Fatalf("expected verification note recorded, got %q", resp.VerificationNote)
	}
	budget := env.store.budgets[budgetKey{1, 2026}]
	if budget.RemainingBudget.StringFixed(2) != "400000.00" {
		t.Fatalf("expected remaining 400000.00 after 2x300000 deduction, got %s",
			budget.RemainingBudget.StringFixed(2))
	}

	resp, err = env.procurements.CreatePurchaseOrder(ctx, actor, id, service.PurchaseOrderRequest{
		Document: "/uploads/po/po-001.pdf",
		Date:     "2026-08-28",
	})
	requireNoErr(t, err)
	if resp.Status != string(model.StatusPengirimanBarang) {
		t.Fatalf("expected %s, got %s", model.StatusPengirimanBarang, resp.Status)
	}
	if resp.PODocument == nil || *resp.PODocument != "/uploads/po/po-001.pdf" {
		t.Fatalf("expected PO document recorded, got %v", resp.PODocument)
	}

	resp, err = env.procurements.EstimateDelivery(ctx, actor, id, service.DeliveryEstimateRequest{Estimate: "3 hari"})
	requireNoErr(t, err)
	if resp.Status != string(model.StatusPenerimaanBarang) {
		t.Fatalf("expected %s, got %s", model.StatusPenerimaanBarang, resp.Status)
	}

	resp, err = env.procurements.RecordDelivery(ctx, actor, id, service.RecordDeliveryRequest{Document: "/uploads/bast/bast-001.pdf"})
	requireNoErr(t, err)
	if resp.Status != string(model.StatusPenyerahanBarang) {
		t.Fatalf("expected %s, got %s", model.StatusPenyerahanBarang, resp.Status)
	}

	resp, err = env.procurements.Complete(ctx, actor, id, service.CompleteRequest{FinalNote: "barang diterima lengkap"})
	requireNoErr(t, err)
	if resp.Status != string(model.StatusSelesai) {
		t.Fatalf("expected %s, got %s", model.StatusSelesai, resp.Status)
	}

	// SELESAI is terminal.
	_, err = env.procurements.Complete(ctx, actor, id, service.CompleteRequest{FinalNote: "lagi"})
	if !errors.Is(err, apperr.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict on a terminal procurement, got %v", err)
	}
}

func TestApproveInsufficientBudgetLeavesEverythingUntouched(t *testing.T) {
	env := newTestEnv()
	env.seedBudget(1, 2026, "1000000", "400000")
	ctx := context.Background()

	id := createVerified(t, env, 1, "500000")

	_, err := env.procurements.Approve(ctx, actor, id, 2026, service.ApproveRequest{Notes: "disetujui"})
	if !errors.Is(err, apperr.ErrInsufficientBudget) {
		t.Fatalf("expected ErrInsufficientBudget, got %v", err)
	}

	stored := env.store.procurements[id]
	if stored.Status != model.StatusVerifikasiPengajuan {
		t.Fatalf("failed approval must not advance the status, got %s", stored.Status)
	}
	if stored.VerificationNote != "" {
		t.Fatalf("failed approval must not record notes, got %q", stored.VerificationNote)
	}
	budget := env.store.budgets[budgetKey{1, 2026}]
	if budget.RemainingBudget.StringFixed(2) != "400000.00" {
		t.Fatalf("failed approval must not touch the budget, remaining is %s",
			budget.RemainingBudget.StringFixed(2))
	}
}

func TestApproveWithoutLinkedItem(t *testing.T) {
	env := newTestEnv()
	env.seedBudget(1, 2026, "1000000", "1000000")
	ctx := context.Background()

	created, err := env.procurements.Create(ctx, uuid.New().String(), 1, service.CreateProcurementRequest{
		Reference: "printer ruang arsip",
		Quantity:  1,
	})
	requireNoErr(t, err)
	_, err = env.procurements.ConfirmPriceMatch(ctx, actor, created.ID)
	requireNoErr(t, err)

	_, err = env.procurements.Approve(ctx, actor, created.ID, 2026, service.ApproveRequest{})
	if !errors.Is(err, apperr.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
	if got := env.store.procurements[created.ID].Status; got != model.StatusVerifikasiPengajuan {
		t.Fatalf("status must not move, got %s", got)
	}
}

func TestRejectedProcurementCannotBeApproved(t *testing.T) {
	env := newTestEnv()
	env.seedBudget(1, 2026, "1000000", "1000000")
	ctx := context.Background()

	id := createVerified(t, env, 1, "100000")

	resp, err := env.procurements.Reject(ctx, actor, id, service.RejectRequest{Notes: "anggaran ditunda"})
	requireNoErr(t, err)
	if resp.Status != string(model.StatusPengajuanDitolak) {
		t.Fatalf("expected %s, got %s", model.StatusPengajuanDitolak, resp.Status)
	}

	_, err = env.procurements.Approve(ctx, actor, id, 2026, service.ApproveRequest{})
	if !errors.Is(err, apperr.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}
	budget := env.store.budgets[budgetKey{1, 2026}]
	if budget.RemainingBudget.StringFixed(2) != "1000000.00" {
		t.Fatalf("budget must be untouched, remaining is %s", budget.RemainingBudget.StringFixed(2))
	}
}

func TestRejectRequiresNotes(t *testing.T) {
	env := newTestEnv()
	id := env.seedProcurement(model.StatusVerifikasiPengajuan)

	_, err := env.procurements.Reject(context.Background(), actor, id, service.RejectRequest{})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTransitionsGateOnCurrentStatus(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	id := env.seedProcurement(model.StatusPengajuan)

	// None of the later-stage operations may fire from PENGAJUAN.
	if _, err := env.procurements.CreatePurchaseOrder(ctx, actor, id, service.PurchaseOrderRequest{
		Document: "/uploads/po/x.pdf", Date: "2026-01-15",
	}); !errors.Is(err, apperr.ErrStateConflict) {
		t.Fatalf("purchase order from PENGAJUAN: expected ErrStateConflict, got %v", err)
	}
	if _, err := env.procurements.RecordDelivery(ctx, actor, id, service.RecordDeliveryRequest{}); !errors.Is(err, apperr.ErrStateConflict) {
		t.Fatalf("delivery from PENGAJUAN: expected ErrStateConflict, got %v", err)
	}
	if _, err := env.procurements.Complete(ctx, actor, id, service.CompleteRequest{FinalNote: "selesai"}); !errors.Is(err, apperr.ErrStateConflict) {
		t.Fatalf("complete from PENGAJUAN: expected ErrStateConflict, got %v", err)
	}

	if got := env.store.procurements[id].Status; got != model.StatusPengajuan {
		t.Fatalf("rejected operations must not move the status, got %s", got)
	}
}

func TestItemLinkingOnlyInPengajuan(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	id := env.seedProcurement(model.StatusVerifikasiPengajuan)

	_, err := env.procurements.AddItem(ctx, actor, id, service.AddItemRequest{Name: "Kursi", Price: "250000"})
	if !errors.Is(err, apperr.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}
	// The rolled-back transaction must not leave the catalog item behind.
	if len(env.store.items) != 0 {
		t.Fatalf("expected no items after rollback, got %d", len(env.store.items))
	}
}

func TestGetByIDUnknown(t *testing.T) {
	env := newTestEnv()

	_, err := env.procurements.GetByID(context.Background(), 42)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
