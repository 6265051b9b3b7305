package memory

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestMemoryStoreUpsertAndDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	e := core.Expense{
		ID:       "01HZXEXP",
		User:     "user-1",
		Title:    "Groceries",
		Amount:   12.5,
		Category: core.Food,
		Date:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}

	ref, err := s.UpsertExpense(ctx, e)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected upsert: ref=%q err=%v", ref, err)
	}

	e.Amount = 20
	ref, err = s.UpsertExpense(ctx, e)
	if err != nil || ref != "mem:1" {
		t.Fatalf("second upsert should replace row 1: ref=%q err=%v", ref, err)
	}
	if got, _ := s.Get(e.ID); got.Amount != 20 {
		t.Errorf("Amount = %v, want 20", got.Amount)
	}

	if err := s.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if err := s.DeleteExpense(ctx, "missing"); err != nil {
		t.Errorf("deleting a missing row should not fail: %v", err)
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	if _, err := New().UpsertExpense(context.Background(), core.Expense{ID: "x"}); err == nil {
		t.Fatal("expected validation error")
	}
}
