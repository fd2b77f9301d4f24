package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/lumen-store/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupGuestCartRepoTest(t *testing.T, name string) (*gorm.DB, *GormGuestCartRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.GuestCartItem{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db, NewGuestCartRepository(db)
}

func guestLine(token string, productID uint, quantity int) *models.GuestCartItem {
	now := time.Now()
	return &models.GuestCartItem{
		GuestToken:  token,
		ProductID:   productID,
		DisplayName: fmt.Sprintf("product %d", productID),
		Quantity:    quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestGuestCartAddQuantityAccumulates(t *testing.T) {
	_, repo := setupGuestCartRepoTest(t, "guest_repo_add")

	if err := repo.AddQuantity(guestLine("tok", 1, 2)); err != nil {
		t.Fatalf("first add error: %v", err)
	}
	if err := repo.AddQuantity(guestLine("tok", 1, 3)); err != nil {
		t.Fatalf("second add error: %v", err)
	}

	items, err := repo.ListByToken("tok")
	if err != nil {
		t.Fatalf("ListByToken error: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 5 {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestGuestCartMarkMergedClaimsOnce(t *testing.T) {
	_, repo := setupGuestCartRepoTest(t, "guest_repo_mark_merged")

	if err := repo.AddQuantity(guestLine("tok", 1, 1)); err != nil {
		t.Fatalf("add error: %v", err)
	}
	if err := repo.AddQuantity(guestLine("tok", 2, 1)); err != nil {
		t.Fatalf("add error: %v", err)
	}

	items, err := repo.ListUnmergedByToken("tok")
	if err != nil {
		t.Fatalf("ListUnmergedByToken error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 unmerged items, got %d", len(items))
	}

	ids := []uint{items[0].ID, items[1].ID}
	claimed, err := repo.MarkMerged(ids, time.Now())
	if err != nil {
		t.Fatalf("MarkMerged error: %v", err)
	}
	if claimed != 2 {
		t.Fatalf("expected 2 rows claimed, got %d", claimed)
	}

	// 二次标记认领不到任何行
	claimed, err = repo.MarkMerged(ids, time.Now())
	if err != nil {
		t.Fatalf("second MarkMerged error: %v", err)
	}
	if claimed != 0 {
		t.Fatalf("expected replay to claim 0 rows, got %d", claimed)
	}

	remaining, err := repo.ListUnmergedByToken("tok")
	if err != nil {
		t.Fatalf("ListUnmergedByToken error: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no unmerged items, got %d", len(remaining))
	}
}

func TestGuestCartAddAfterMergeResetsMergedAt(t *testing.T) {
	_, repo := setupGuestCartRepoTest(t, "guest_repo_remerge")

	if err := repo.AddQuantity(guestLine("tok", 1, 1)); err != nil {
		t.Fatalf("add error: %v", err)
	}
	items, err := repo.ListUnmergedByToken("tok")
	if err != nil {
		t.Fatalf("ListUnmergedByToken error: %v", err)
	}
	if _, err := repo.MarkMerged([]uint{items[0].ID}, time.Now()); err != nil {
		t.Fatalf("MarkMerged error: %v", err)
	}

	// 合并后继续加购，该行重新参与下一次合并，
	// 但数量只包含新加的部分，已并入的数量不得复活
	if err := repo.AddQuantity(guestLine("tok", 1, 1)); err != nil {
		t.Fatalf("add after merge error: %v", err)
	}
	unmerged, err := repo.ListUnmergedByToken("tok")
	if err != nil {
		t.Fatalf("ListUnmergedByToken error: %v", err)
	}
	if len(unmerged) != 1 || unmerged[0].Quantity != 1 {
		t.Fatalf("unexpected unmerged items: %+v", unmerged)
	}
	if unmerged[0].MergedAt != nil {
		t.Fatalf("expected merged_at reset, got %v", unmerged[0].MergedAt)
	}

	// 未合并的行继续累加
	if err := repo.AddQuantity(guestLine("tok", 1, 2)); err != nil {
		t.Fatalf("accumulate error: %v", err)
	}
	unmerged, err = repo.ListUnmergedByToken("tok")
	if err != nil {
		t.Fatalf("ListUnmergedByToken error: %v", err)
	}
	if len(unmerged) != 1 || unmerged[0].Quantity != 3 {
		t.Fatalf("unexpected unmerged items after accumulate: %+v", unmerged)
	}
}

func TestGuestCartClearByToken(t *testing.T) {
	_, repo := setupGuestCartRepoTest(t, "guest_repo_clear")

	if err := repo.AddQuantity(guestLine("tok-a", 1, 1)); err != nil {
		t.Fatalf("add error: %v", err)
	}
	if err := repo.AddQuantity(guestLine("tok-b", 1, 1)); err != nil {
		t.Fatalf("add error: %v", err)
	}

	if err := repo.ClearByToken("tok-a"); err != nil {
		t.Fatalf("ClearByToken error: %v", err)
	}

	cleared, err := repo.ListByToken("tok-a")
	if err != nil {
		t.Fatalf("ListByToken error: %v", err)
	}
	if len(cleared) != 0 {
		t.Fatalf("expected tok-a cleared, got %d items", len(cleared))
	}
	kept, err := repo.ListByToken("tok-b")
	if err != nil {
		t.Fatalf("ListByToken error: %v", err)
	}
	if len(kept) != 1 {
		t.Fatalf("expected tok-b untouched, got %d items", len(kept))
	}
}
