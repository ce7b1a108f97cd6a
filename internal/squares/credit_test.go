package squares

import (
	"context"
	"testing"

	"github.com/mattzapanta/squares/internal/models"
)

func TestAddCredit_AndApply(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 10, 100)
	p := createTestPlayer(t, db, "creditor", false)
	joinPool(t, e, pool.ID, p.ID)
	admin := Actor{PlayerID: 99, Admin: true}

	if err := e.AddCredit(context.Background(), p.ID, 10000, "season deposit", admin); err != nil {
		t.Fatalf("AddCredit failed: %v", err)
	}
	wallet, err := e.UnassignedCredit(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("UnassignedCredit failed: %v", err)
	}
	if wallet != 10000 {
		t.Errorf("wallet = %d, want 10000", wallet)
	}

	res, err := e.ApplyCredit(context.Background(), pool.ID, p.ID, 10000, admin)
	if err != nil {
		t.Fatalf("ApplyCredit failed: %v", err)
	}
	if res.AssignedCells != 4 {
		t.Errorf("assigned = %d, want 4", res.AssignedCells)
	}
	if res.DebitCent != 10000 {
		t.Errorf("debit = %d, want 10000", res.DebitCent)
	}

	// the wallet was fully consumed
	wallet, err = e.UnassignedCredit(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("UnassignedCredit failed: %v", err)
	}
	if wallet != 0 {
		t.Errorf("wallet = %d, want 0 after applying", wallet)
	}
}

func TestApplyCredit_InsufficientWallet(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 10, 100)
	p := createTestPlayer(t, db, "broke", false)
	joinPool(t, e, pool.ID, p.ID)
	admin := Actor{PlayerID: 99, Admin: true}

	if err := e.AddCredit(context.Background(), p.ID, 2000, "", admin); err != nil {
		t.Fatalf("AddCredit failed: %v", err)
	}

	_, err := e.ApplyCredit(context.Background(), pool.ID, p.ID, 5000, admin)
	if KindOf(err) != KindInsufficientCredit {
		t.Fatalf("kind = %q, want %q", KindOf(err), KindInsufficientCredit)
	}

	// the failed attempt must not have touched the wallet
	wallet, err := e.UnassignedCredit(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("UnassignedCredit failed: %v", err)
	}
	if wallet != 2000 {
		t.Errorf("wallet = %d, want 2000 untouched", wallet)
	}
}

func TestCombinedPayment_CreditPlusNewMoney(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 10, 100)
	p := createTestPlayer(t, db, "combo", false)
	joinPool(t, e, pool.ID, p.ID)
	admin := Actor{PlayerID: 99, Admin: true}

	if err := e.AddCredit(context.Background(), p.ID, 5000, "", admin); err != nil {
		t.Fatalf("AddCredit failed: %v", err)
	}

	// 5000 credit + 5000 new buys 4 squares
	res, err := e.CombinedPayment(context.Background(), pool.ID, p.ID, 5000, 5000, admin)
	if err != nil {
		t.Fatalf("CombinedPayment failed: %v", err)
	}
	if res.AssignedCells != 4 {
		t.Errorf("assigned = %d, want 4", res.AssignedCells)
	}
	if res.DebitCent != 10000 {
		t.Errorf("debit = %d, want 10000", res.DebitCent)
	}

	wallet, err := e.UnassignedCredit(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("UnassignedCredit failed: %v", err)
	}
	if wallet != 0 {
		t.Errorf("wallet = %d, want 0", wallet)
	}
}

func TestRemovePlayer_RefundsAndFrees(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 10, 100)
	p := createTestPlayer(t, db, "leaver", false)
	joinPool(t, e, pool.ID, p.ID)
	admin := Actor{PlayerID: 99, Admin: true}

	if _, err := e.RecordPoolPayment(context.Background(), pool.ID, p.ID, 4*2500, true, admin); err != nil {
		t.Fatalf("payment failed: %v", err)
	}

	res, err := e.RemovePlayer(context.Background(), pool.ID, p.ID, admin)
	if err != nil {
		t.Fatalf("RemovePlayer failed: %v", err)
	}
	if res.Released != 4 {
		t.Errorf("released = %d, want 4", res.Released)
	}
	if res.RefundCent != 4*2500 {
		t.Errorf("refund = %d, want %d", res.RefundCent, 4*2500)
	}

	// squares are free again and the membership is gone
	var held int64
	db.Model(&models.Square{}).Where("pool_id = ? AND player_id = ?", pool.ID, p.ID).Count(&held)
	if held != 0 {
		t.Errorf("player still holds %d squares after removal", held)
	}
	var memberships int64
	db.Model(&models.Membership{}).Where("pool_id = ? AND player_id = ?", pool.ID, p.ID).Count(&memberships)
	if memberships != 0 {
		t.Error("membership survived removal")
	}

	// the refund lands in the wallet as unassigned credit
	wallet, err := e.UnassignedCredit(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("UnassignedCredit failed: %v", err)
	}
	if wallet != 4*2500 {
		t.Errorf("wallet = %d, want %d", wallet, 4*2500)
	}

	// the original buy_in stays in the ledger; history is append-only
	var buyIns int64
	db.Model(&models.LedgerEntry{}).
		Where("player_id = ? AND type = ?", p.ID, models.EntryBuyIn).
		Count(&buyIns)
	if buyIns != 1 {
		t.Errorf("buy_in entries = %d, want 1 preserved", buyIns)
	}
}

func TestRemovePlayer_NothingPaidNoRefund(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 10, 100)
	p := createTestPlayer(t, db, "freeloader", false)
	joinPool(t, e, pool.ID, p.ID)
	admin := Actor{PlayerID: 99, Admin: true}

	if _, err := e.Claim(context.Background(), pool.ID, 0, 0, p.ID, Actor{PlayerID: p.ID}); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	res, err := e.RemovePlayer(context.Background(), pool.ID, p.ID, admin)
	if err != nil {
		t.Fatalf("RemovePlayer failed: %v", err)
	}
	if res.Released != 1 {
		t.Errorf("released = %d, want 1", res.Released)
	}
	if res.RefundCent != 0 {
		t.Errorf("refund = %d, want 0", res.RefundCent)
	}

	var credits int64
	db.Model(&models.LedgerEntry{}).
		Where("player_id = ? AND type = ?", p.ID, models.EntryCredit).
		Count(&credits)
	if credits != 0 {
		t.Errorf("credit entries = %d, want none without payment", credits)
	}
}
