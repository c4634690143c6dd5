package services

import (
	"context"
	"testing"
	"time"

	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/store"
)

func newItemFixture(t *testing.T) (*ItemService, *store.Memory, models.Identity) {
	t.Helper()
	m := store.NewMemory()
	t.Cleanup(func() { m.Close() })
	svc := NewItemService(m, NewCategorizerService(m))
	actor := models.Identity{UserID: "u1", Email: "u1@example.com", Name: "Anna"}
	return svc, m, actor
}

func TestCreateItemDefaults(t *testing.T) {
	svc, _, actor := newItemFixture(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, "l1", actor, models.CreateItemRequest{Name: "Milk"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if item.Quantity != 1 {
		t.Errorf("Quantity = %d, want 1", item.Quantity)
	}
	if item.Status != models.ItemPending {
		t.Errorf("Status = %q, want %q", item.Status, models.ItemPending)
	}
	if item.Category != "Dairy" {
		t.Errorf("Category = %q, want %q", item.Category, "Dairy")
	}
	if item.AddedBy != "u1" {
		t.Errorf("AddedBy = %q, want %q", item.AddedBy, "u1")
	}

	if _, err := svc.Create(ctx, "l1", actor, models.CreateItemRequest{}); models.CodeOf(err) != models.CodeValidationFailed {
		t.Errorf("Create without name = %v, want validation failure", err)
	}
	if _, err := svc.Create(ctx, "l1", actor, models.CreateItemRequest{Name: "x", Quantity: -1}); models.CodeOf(err) != models.CodeValidationFailed {
		t.Errorf("Create with negative quantity = %v, want validation failure", err)
	}
}

func TestToggleCompletionRoundTrip(t *testing.T) {
	svc, _, actor := newItemFixture(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, "l1", actor, models.CreateItemRequest{Name: "Bread"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	completed, err := svc.ToggleCompletion(ctx, item.ID, actor, ptr(2.5))
	if err != nil {
		t.Fatalf("ToggleCompletion failed: %v", err)
	}
	if !completed.IsCompleted {
		t.Error("IsCompleted = false after completing")
	}
	if completed.Status != models.ItemCompleted {
		t.Errorf("Status = %q, want %q", completed.Status, models.ItemCompleted)
	}
	if completed.CompletedBy == nil || *completed.CompletedBy != "u1" {
		t.Errorf("CompletedBy = %v, want u1", completed.CompletedBy)
	}
	if completed.Price == nil || *completed.Price != 2.5 {
		t.Errorf("Price = %v, want 2.5", completed.Price)
	}

	// Un-completing clears the completion fields but keeps status and price.
	uncompleted, err := svc.ToggleCompletion(ctx, item.ID, actor, nil)
	if err != nil {
		t.Fatalf("ToggleCompletion failed: %v", err)
	}
	if uncompleted.IsCompleted {
		t.Error("IsCompleted = true after un-completing")
	}
	if uncompleted.CompletedBy != nil || uncompleted.CompletedAt != nil {
		t.Errorf("completion fields not cleared: %v %v", uncompleted.CompletedBy, uncompleted.CompletedAt)
	}
	if uncompleted.Status != models.ItemCompleted {
		t.Errorf("Status after un-complete = %q, want %q", uncompleted.Status, models.ItemCompleted)
	}
	if uncompleted.Price == nil || *uncompleted.Price != 2.5 {
		t.Errorf("Price after un-complete = %v, want 2.5", uncompleted.Price)
	}
}

func TestClaimLifecycle(t *testing.T) {
	svc, m, actor := newItemFixture(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, "l1", actor, models.CreateItemRequest{Name: "Rice"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Starting an unclaimed item is rejected.
	if err := svc.StartProgress(ctx, item.ID); models.CodeOf(err) != models.CodeValidationFailed {
		t.Errorf("StartProgress on pending item = %v, want validation failure", err)
	}

	if err := svc.Claim(ctx, item.ID, actor); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	got := fetchItem(t, m, item.ID)
	if got.Status != models.ItemClaimed {
		t.Errorf("Status = %q, want %q", got.Status, models.ItemClaimed)
	}
	if got.ClaimedBy == nil || *got.ClaimedBy != "u1" {
		t.Errorf("ClaimedBy = %v, want u1", got.ClaimedBy)
	}

	if err := svc.StartProgress(ctx, item.ID); err != nil {
		t.Fatalf("StartProgress failed: %v", err)
	}
	if got := fetchItem(t, m, item.ID); got.Status != models.ItemInProgress {
		t.Errorf("Status = %q, want %q", got.Status, models.ItemInProgress)
	}

	if err := svc.Unclaim(ctx, item.ID); err != nil {
		t.Fatalf("Unclaim failed: %v", err)
	}
	got = fetchItem(t, m, item.ID)
	if got.Status != models.ItemPending {
		t.Errorf("Status after unclaim = %q, want %q", got.Status, models.ItemPending)
	}
	if got.ClaimedBy != nil || got.ClaimedByName != nil || got.ClaimedAt != nil {
		t.Errorf("claim fields not cleared: %v %v %v", got.ClaimedBy, got.ClaimedByName, got.ClaimedAt)
	}
}

func TestAssignValidation(t *testing.T) {
	svc, m, actor := newItemFixture(t)
	ctx := context.Background()

	item, _ := svc.Create(ctx, "l1", actor, models.CreateItemRequest{Name: "Tea"})

	if err := svc.Assign(ctx, item.ID, ptr("u2"), nil); models.CodeOf(err) != models.CodeValidationFailed {
		t.Errorf("Assign with id only = %v, want validation failure", err)
	}

	if err := svc.Assign(ctx, item.ID, ptr("u2"), ptr("Ben")); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	got := fetchItem(t, m, item.ID)
	if got.AssignedTo == nil || *got.AssignedTo != "u2" {
		t.Errorf("AssignedTo = %v, want u2", got.AssignedTo)
	}
	// Assignment never drives the lifecycle.
	if got.Status != models.ItemPending {
		t.Errorf("Status after assign = %q, want %q", got.Status, models.ItemPending)
	}

	if err := svc.Assign(ctx, item.ID, nil, nil); err != nil {
		t.Fatalf("Assign clear failed: %v", err)
	}
	got = fetchItem(t, m, item.ID)
	if got.AssignedTo != nil || got.AssignedToName != nil {
		t.Errorf("assignment not cleared: %v %v", got.AssignedTo, got.AssignedToName)
	}
}

func TestPatchMissingItem(t *testing.T) {
	svc, _, _ := newItemFixture(t)
	ctx := context.Background()

	if err := svc.UpdatePrice(ctx, "nope", 1); models.CodeOf(err) != models.CodeNotFound {
		t.Errorf("UpdatePrice on missing item = %v, want not found", err)
	}
	if _, err := svc.ToggleCompletion(ctx, "nope", models.Identity{}, nil); models.CodeOf(err) != models.CodeNotFound {
		t.Errorf("ToggleCompletion on missing item = %v, want not found", err)
	}
}

func TestDeleteCompleted(t *testing.T) {
	svc, _, actor := newItemFixture(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, "l1", actor, models.CreateItemRequest{Name: "Milk"})
	svc.Create(ctx, "l1", actor, models.CreateItemRequest{Name: "Bread"})
	other, _ := svc.Create(ctx, "l2", actor, models.CreateItemRequest{Name: "Milk"})

	svc.ToggleCompletion(ctx, a.ID, actor, nil)
	svc.ToggleCompletion(ctx, other.ID, actor, nil)

	count, err := svc.DeleteCompleted(ctx, "l1")
	if err != nil {
		t.Fatalf("DeleteCompleted failed: %v", err)
	}
	if count != 1 {
		t.Errorf("deleted %d items, want 1", count)
	}

	remaining, err := svc.ListFor(ctx, "l1")
	if err != nil {
		t.Fatalf("ListFor failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Name != "Bread" {
		t.Errorf("remaining items = %v, want just Bread", remaining)
	}

	// Other lists are untouched.
	if others, _ := svc.ListFor(ctx, "l2"); len(others) != 1 {
		t.Errorf("list l2 has %d items, want 1", len(others))
	}
}

func TestSortItems(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	items := []models.Item{
		{ID: "1", Category: "Dairy", CreatedAt: base},
		{ID: "2", Category: "Produce", CreatedAt: base.Add(time.Minute)},
		{ID: "3", Category: "Dairy", IsCompleted: true, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "4", Category: "Dairy", CreatedAt: base.Add(3 * time.Minute)},
	}

	sorted := SortItems(items)
	order := make([]string, len(sorted))
	for i, item := range sorted {
		order[i] = item.ID
	}

	// Dairy first (first appearance), incomplete before completed, newest
	// first within a group.
	want := []string{"4", "1", "3", "2"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	// The input slice is left alone.
	if items[0].ID != "1" {
		t.Error("SortItems mutated its input")
	}
}

func fetchItem(t *testing.T, m *store.Memory, id string) models.Item {
	t.Helper()
	doc, err := m.Get(context.Background(), store.Items, id)
	if err != nil {
		t.Fatalf("Get item %s failed: %v", id, err)
	}
	var item models.Item
	if err := doc.Decode(&item); err != nil {
		t.Fatalf("Decode item failed: %v", err)
	}
	return item
}
