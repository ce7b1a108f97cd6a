package squares

import (
	"context"
	"testing"

	"github.com/mattzapanta/squares/internal/models"
)

func TestBalance_ScopesByPool(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 10, 100)
	other := createTestPool(t, e, 2500, 10, 100)
	p := createTestPlayer(t, db, "balances", false)
	joinPool(t, e, pool.ID, p.ID)
	joinPool(t, e, other.ID, p.ID)
	admin := Actor{PlayerID: 99, Admin: true}

	if _, err := e.RecordPoolPayment(context.Background(), pool.ID, p.ID, 2*2500, true, admin); err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	if _, err := e.RecordPoolPayment(context.Background(), other.ID, p.ID, 3*2500, true, admin); err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	if err := e.AddCredit(context.Background(), p.ID, 1000, "", admin); err != nil {
		t.Fatalf("AddCredit failed: %v", err)
	}

	got, err := e.Balance(context.Background(), p.ID, &pool.ID)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if got != -2*2500 {
		t.Errorf("pool balance = %d, want %d", got, -2*2500)
	}

	got, err = e.Balance(context.Background(), p.ID, &other.ID)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if got != -3*2500 {
		t.Errorf("other pool balance = %d, want %d", got, -3*2500)
	}

	// nil pool scope sees only the wallet entries
	got, err = e.Balance(context.Background(), p.ID, nil)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if got != 1000 {
		t.Errorf("wallet balance = %d, want 1000", got)
	}
}

func TestUnassignedCredit_IgnoresOtherEntryTypes(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 10, 100)
	p := createTestPlayer(t, db, "mixed", false)
	joinPool(t, e, pool.ID, p.ID)
	admin := Actor{PlayerID: 99, Admin: true}

	if err := e.AddCredit(context.Background(), p.ID, 5000, "", admin); err != nil {
		t.Fatalf("AddCredit failed: %v", err)
	}
	if _, err := e.RecordPoolPayment(context.Background(), pool.ID, p.ID, 2500, true, admin); err != nil {
		t.Fatalf("payment failed: %v", err)
	}

	// the pool-scoped buy_in does not dilute the wallet
	wallet, err := e.UnassignedCredit(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("UnassignedCredit failed: %v", err)
	}
	if wallet != 5000 {
		t.Errorf("wallet = %d, want 5000", wallet)
	}
}

func TestEntries_NewestFirst(t *testing.T) {
	e, db := setupTestEngine(t)
	p := createTestPlayer(t, db, "history", false)
	admin := Actor{PlayerID: 99, Admin: true}

	if err := e.AddCredit(context.Background(), p.ID, 100, "first", admin); err != nil {
		t.Fatalf("AddCredit failed: %v", err)
	}
	if err := e.AddCredit(context.Background(), p.ID, 200, "second", admin); err != nil {
		t.Fatalf("AddCredit failed: %v", err)
	}

	entries, err := e.Entries(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Description != "second" || entries[1].Description != "first" {
		t.Errorf("order = %q, %q; want newest first",
			entries[0].Description, entries[1].Description)
	}
	for _, entry := range entries {
		if entry.Type != models.EntryCredit {
			t.Errorf("entry type = %q, want credit", entry.Type)
		}
	}
}
