package service_test

import (
	"context"
	"errors"
	"testing"

	"procurement-backend/internal/apperr"
	"procurement-backend/internal/service"
)

const actor = "8f14e45f-ceea-467f-abcd-0123456789ab"

func updateBudget(year int, total string) service.UpdateBudgetRequest {
	return service.UpdateBudgetRequest{Year: year, TotalBudget: total}
}

func TestGetOrCreateStartsAtZero(t *testing.T) {
	env := newTestEnv()

	budget, err := env.budgets.GetOrCreate(context.Background(), 1, 2026)
	requireNoErr(t, err)

	if budget.TotalBudget != "0.00" || budget.RemainingBudget != "0.00" {
		t.Fatalf("new budget should start at zero, got total=%s remaining=%s",
			budget.TotalBudget, budget.RemainingBudget)
	}

	// A second call returns the same account, not a new one.
	again, err := env.budgets.GetOrCreate(context.Background(), 1, 2026)
	requireNoErr(t, err)
	if again.ID != budget.ID {
		t.Fatalf("expected same budget row, got %d then %d", budget.ID, again.ID)
	}
}

func TestAllocateRederivesRemaining(t *testing.T) {
	env := newTestEnv()
	// 600,000 already committed out of 1,000,000.
	env.seedBudget(1, 2026, "1000000", "400000")

	budget, err := env.budgets.Allocate(context.Background(), actor, 1, updateBudget(2026, "1500000"))
	requireNoErr(t, err)
	if budget.RemainingBudget != "900000.00" {
		t.Fatalf("raising total by 500,000 should raise remaining to 900,000.00, got %s", budget.RemainingBudget)
	}

	// Shrinking below committed spend drives remaining negative; that is the
	// admin's signal to fix the over-allocation, not an error.
	budget, err = env.budgets.Allocate(context.Background(), actor, 1, updateBudget(2026, "500000"))
	requireNoErr(t, err)
	if budget.RemainingBudget != "-100000.00" {
		t.Fatalf("expected remaining -100000.00, got %s", budget.RemainingBudget)
	}
	if budget.TotalBudget != "500000.00" {
		t.Fatalf("expected total 500000.00, got %s", budget.TotalBudget)
	}
}

func TestAllocateUnknownBudget(t *testing.T) {
	env := newTestEnv()

	_, err := env.budgets.Allocate(context.Background(), actor, 7, updateBudget(2026, "100000"))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAllocateRejectsInvalidTotal(t *testing.T) {
	env := newTestEnv()
	env.seedBudget(1, 2026, "1000", "1000")

	for _, total := range []string{"abc", "0", "-50"} {
		_, err := env.budgets.Allocate(context.Background(), actor, 1, updateBudget(2026, total))
		if !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("total %q: expected ErrValidation, got %v", total, err)
		}
	}
}

func TestDeductFloorsAtZero(t *testing.T) {
	env := newTestEnv()
	env.seedBudget(1, 2026, "1000000", "1000000")

	budget, err := env.budgets.Deduct(context.Background(), 1, 2026, mustDecimal("600000"))
	requireNoErr(t, err)
	if budget.RemainingBudget.StringFixed(2) != "400000.00" {
		t.Fatalf("expected remaining 400000.00, got %s", budget.RemainingBudget.StringFixed(2))
	}

	// Overdraw fails and writes nothing.
	_, err = env.budgets.Deduct(context.Background(), 1, 2026, mustDecimal("500000"))
	if !errors.Is(err, apperr.ErrInsufficientBudget) {
		t.Fatalf("expected ErrInsufficientBudget, got %v", err)
	}
	stored := env.store.budgets[budgetKey{1, 2026}]
	if stored.RemainingBudget.StringFixed(2) != "400000.00" {
		t.Fatalf("failed deduction must not touch the ledger, remaining is %s",
			stored.RemainingBudget.StringFixed(2))
	}

	// Deducting exactly the remainder is allowed.
	budget, err = env.budgets.Deduct(context.Background(), 1, 2026, mustDecimal("400000"))
	requireNoErr(t, err)
	if !budget.RemainingBudget.IsZero() {
		t.Fatalf("expected remaining 0, got %s", budget.RemainingBudget.StringFixed(2))
	}
}

func TestDeductRejectsNegativeAmount(t *testing.T) {
	env := newTestEnv()
	env.seedBudget(1, 2026, "1000", "1000")

	_, err := env.budgets.Deduct(context.Background(), 1, 2026, mustDecimal("-1"))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDeductUnknownBudget(t *testing.T) {
	env := newTestEnv()

	_, err := env.budgets.Deduct(context.Background(), 9, 2026, mustDecimal("10"))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
