package squares

import (
	"context"
	"testing"

	"github.com/mattzapanta/squares/internal/models"
)

func TestClaim_BelowThresholdIsClaimed(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 10, 4)
	p := createTestPlayer(t, db, "claimer", false)
	joinPool(t, e, pool.ID, p.ID)

	res, err := e.Claim(context.Background(), pool.ID, 1, 1, p.ID, Actor{PlayerID: p.ID})
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if res.Status != models.SquareClaimed {
		t.Errorf("status = %q, want %q", res.Status, models.SquareClaimed)
	}
}

// TestClaim_ThresholdForcesPending covers the worked example: threshold 4,
// the fifth claim of a player with 4 claimed squares lands as pending.
func TestClaim_ThresholdForcesPending(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 10, 4)
	p := createTestPlayer(t, db, "heavy", false)
	joinPool(t, e, pool.ID, p.ID)
	actor := Actor{PlayerID: p.ID}

	for i := 0; i < 4; i++ {
		res, err := e.Claim(context.Background(), pool.ID, 0, i, p.ID, actor)
		if err != nil {
			t.Fatalf("claim %d failed: %v", i, err)
		}
		if res.Status != models.SquareClaimed {
			t.Fatalf("claim %d status = %q, want claimed", i, res.Status)
		}
	}

	res, err := e.Claim(context.Background(), pool.ID, 0, 4, p.ID, actor)
	if err != nil {
		t.Fatalf("fifth claim failed: %v", err)
	}
	if res.Status != models.SquarePending {
		t.Errorf("fifth claim status = %q, want %q", res.Status, models.SquarePending)
	}

	// approve flips to claimed with a claim timestamp
	approved, err := e.Approve(context.Background(), pool.ID, 0, 4, Actor{PlayerID: 99, Admin: true})
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != models.SquareClaimed {
		t.Errorf("approved status = %q, want claimed", approved.Status)
	}
	var sq models.Square
	if err := db.Where("pool_id = ? AND row = 0 AND col = 4", pool.ID).First(&sq).Error; err != nil {
		t.Fatalf("load square failed: %v", err)
	}
	if sq.ClaimedAt == nil {
		t.Error("approved square has no claim timestamp")
	}
}

func TestReject_ReturnsSquareToAvailable(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 10, 0) // threshold 0: everything pends
	p := createTestPlayer(t, db, "pender", false)
	joinPool(t, e, pool.ID, p.ID)

	res, err := e.Claim(context.Background(), pool.ID, 5, 5, p.ID, Actor{PlayerID: p.ID})
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if res.Status != models.SquarePending {
		t.Fatalf("status = %q, want pending", res.Status)
	}

	if _, err := e.Reject(context.Background(), pool.ID, 5, 5, Actor{PlayerID: 99, Admin: true}); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	var sq models.Square
	if err := db.Where("pool_id = ? AND row = 5 AND col = 5", pool.ID).First(&sq).Error; err != nil {
		t.Fatalf("load square failed: %v", err)
	}
	if sq.Status != models.SquareAvailable {
		t.Errorf("status = %q, want available", sq.Status)
	}
	if sq.PlayerID != nil {
		t.Error("rejected square still has an occupant")
	}
	if sq.RequestedAt != nil {
		t.Error("rejected square still has a request timestamp")
	}
}

func TestCancelPending_OnlyRequesterMayCancel(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 10, 0)
	owner := createTestPlayer(t, db, "owner", false)
	other := createTestPlayer(t, db, "other", false)
	joinPool(t, e, pool.ID, owner.ID)
	joinPool(t, e, pool.ID, other.ID)

	if _, err := e.Claim(context.Background(), pool.ID, 2, 2, owner.ID, Actor{PlayerID: owner.ID}); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	_, err := e.CancelPending(context.Background(), pool.ID, 2, 2, other.ID)
	if KindOf(err) != KindNotRequester {
		t.Errorf("cancel by stranger: kind = %q, want %q", KindOf(err), KindNotRequester)
	}

	if _, err := e.CancelPending(context.Background(), pool.ID, 2, 2, owner.ID); err != nil {
		t.Fatalf("cancel by requester failed: %v", err)
	}
}

func TestClaim_MaxPerPlayerLimit(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 3, 100)
	p := createTestPlayer(t, db, "limited", false)
	joinPool(t, e, pool.ID, p.ID)
	actor := Actor{PlayerID: p.ID}

	for i := 0; i < 3; i++ {
		if _, err := e.Claim(context.Background(), pool.ID, 1, i, p.ID, actor); err != nil {
			t.Fatalf("claim %d failed: %v", i, err)
		}
	}

	_, err := e.Claim(context.Background(), pool.ID, 1, 3, p.ID, actor)
	if KindOf(err) != KindLimitReached {
		t.Errorf("over-limit claim: kind = %q, want %q", KindOf(err), KindLimitReached)
	}

	// admin is not subject to the cap
	if _, err := e.Claim(context.Background(), pool.ID, 1, 3, p.ID, Actor{PlayerID: 99, Admin: true}); err != nil {
		t.Errorf("admin claim past limit failed: %v", err)
	}
}

func TestClaim_Preconditions(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 10, 100)
	member := createTestPlayer(t, db, "member", false)
	stranger := createTestPlayer(t, db, "stranger", false)
	banned := createTestPlayer(t, db, "banned", false)
	joinPool(t, e, pool.ID, member.ID)
	joinPool(t, e, pool.ID, banned.ID)
	db.Model(banned).Update("banned", true)

	ctx := context.Background()

	if _, err := e.Claim(ctx, 9999, 0, 0, member.ID, Actor{PlayerID: member.ID}); KindOf(err) != KindPoolNotFound {
		t.Errorf("missing pool: kind = %q, want %q", KindOf(err), KindPoolNotFound)
	}
	if _, err := e.Claim(ctx, pool.ID, 0, 0, stranger.ID, Actor{PlayerID: stranger.ID}); KindOf(err) != KindNotMember {
		t.Errorf("non-member: kind = %q, want %q", KindOf(err), KindNotMember)
	}
	if _, err := e.Claim(ctx, pool.ID, 0, 0, banned.ID, Actor{PlayerID: banned.ID}); KindOf(err) != KindBanned {
		t.Errorf("banned: kind = %q, want %q", KindOf(err), KindBanned)
	}
	if _, err := e.Claim(ctx, pool.ID, 11, 0, member.ID, Actor{PlayerID: member.ID}); KindOf(err) != KindSquareNotFound {
		t.Errorf("out of range: kind = %q, want %q", KindOf(err), KindSquareNotFound)
	}

	// taken square
	if _, err := e.Claim(ctx, pool.ID, 0, 0, member.ID, Actor{PlayerID: member.ID}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if _, err := e.Claim(ctx, pool.ID, 0, 0, member.ID, Actor{PlayerID: member.ID}); KindOf(err) != KindNotAvailable {
		t.Errorf("taken square: kind = %q, want %q", KindOf(err), KindNotAvailable)
	}
}

// TestClaim_AdminOverrideOnLockedPool checks admins bypass the open-status
// check and the resulting claim carries the override flag.
func TestClaim_AdminOverrideOnLockedPool(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 10, 100)
	p := createTestPlayer(t, db, "late", false)
	joinPool(t, e, pool.ID, p.ID)
	admin := Actor{PlayerID: 99, Admin: true}

	if _, err := e.Lock(context.Background(), pool.ID, admin); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	// player is refused
	_, err := e.Claim(context.Background(), pool.ID, 4, 4, p.ID, Actor{PlayerID: p.ID})
	if KindOf(err) != KindPoolNotOpen {
		t.Errorf("player claim on locked pool: kind = %q, want %q", KindOf(err), KindPoolNotOpen)
	}

	// admin goes through with the override flag set
	res, err := e.Claim(context.Background(), pool.ID, 4, 4, p.ID, admin)
	if err != nil {
		t.Fatalf("admin claim failed: %v", err)
	}
	if !res.Override {
		t.Error("admin claim on locked pool did not set the override flag")
	}
}

// TestClaim_FreshTenancyClearsOverride walks a square through a locked-pool
// release and back: the override stamped at release time must not survive
// onto the next occupant's plain open-pool claim.
func TestClaim_FreshTenancyClearsOverride(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 10, 100)
	p := createTestPlayer(t, db, "tenant", false)
	next := createTestPlayer(t, db, "successor", false)
	joinPool(t, e, pool.ID, p.ID)
	joinPool(t, e, pool.ID, next.ID)
	admin := Actor{PlayerID: 99, Admin: true}

	if _, err := e.Claim(context.Background(), pool.ID, 7, 7, p.ID, Actor{PlayerID: p.ID}); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if _, err := e.Lock(context.Background(), pool.ID, admin); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	// releasing while locked stamps the override on the freed square
	rel, err := e.Release(context.Background(), pool.ID, 7, 7, admin)
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if !rel.Override {
		t.Fatal("release on a locked pool did not report an override")
	}

	if err := e.Unlock(context.Background(), pool.ID, admin); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	res, err := e.Claim(context.Background(), pool.ID, 7, 7, next.ID, Actor{PlayerID: next.ID})
	if err != nil {
		t.Fatalf("re-claim failed: %v", err)
	}
	if res.Override {
		t.Error("plain open-pool claim reported an override")
	}

	var sq models.Square
	if err := db.Where("pool_id = ? AND row = 7 AND col = 7", pool.ID).First(&sq).Error; err != nil {
		t.Fatalf("load square failed: %v", err)
	}
	if sq.AdminOverride {
		t.Error("override flag survived onto the new tenancy")
	}
	if sq.ReleasedAt != nil {
		t.Error("release timestamp survived onto the new tenancy")
	}
}

func TestBulkApproveReject(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 10, 0)
	p := createTestPlayer(t, db, "bulk", false)
	joinPool(t, e, pool.ID, p.ID)
	admin := Actor{PlayerID: 99, Admin: true}

	for i := 0; i < 3; i++ {
		if _, err := e.Claim(context.Background(), pool.ID, 6, i, p.ID, Actor{PlayerID: p.ID}); err != nil {
			t.Fatalf("claim %d failed: %v", i, err)
		}
	}

	n, err := e.BulkApprove(context.Background(), pool.ID, p.ID, admin)
	if err != nil {
		t.Fatalf("BulkApprove failed: %v", err)
	}
	if n != 3 {
		t.Errorf("approved = %d, want 3", n)
	}

	var claimed int64
	db.Model(&models.Square{}).
		Where("pool_id = ? AND player_id = ? AND status = ?", pool.ID, p.ID, models.SquareClaimed).
		Count(&claimed)
	if claimed != 3 {
		t.Errorf("claimed squares = %d, want 3", claimed)
	}

	// nothing pending now
	if _, err := e.BulkReject(context.Background(), pool.ID, p.ID, admin); KindOf(err) != KindNothingPending {
		t.Errorf("bulk reject with none pending: kind = %q, want %q", KindOf(err), KindNothingPending)
	}
}

func TestReleaseAll_FreesEverySquare(t *testing.T) {
	e, db := setupTestEngine(t)
	pool := createTestPool(t, e, 2500, 10, 2)
	p := createTestPlayer(t, db, "depart", false)
	joinPool(t, e, pool.ID, p.ID)

	// two claimed, one pending
	for i := 0; i < 3; i++ {
		if _, err := e.Claim(context.Background(), pool.ID, 8, i, p.ID, Actor{PlayerID: p.ID}); err != nil {
			t.Fatalf("claim %d failed: %v", i, err)
		}
	}

	n, err := e.ReleaseAll(context.Background(), pool.ID, p.ID, Actor{PlayerID: 99, Admin: true})
	if err != nil {
		t.Fatalf("ReleaseAll failed: %v", err)
	}
	if n != 3 {
		t.Errorf("released = %d, want 3", n)
	}

	var held int64
	db.Model(&models.Square{}).
		Where("pool_id = ? AND player_id = ?", pool.ID, p.ID).
		Count(&held)
	if held != 0 {
		t.Errorf("player still holds %d squares", held)
	}
}
