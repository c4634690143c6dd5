package services

import (
	"context"
	"testing"

	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/store"
)

func TestInsightsForList(t *testing.T) {
	m := store.NewMemory()
	defer m.Close()
	ctx := context.Background()

	lists := NewListService(m)
	items := NewItemService(m, NewCategorizerService(m))
	svc := NewInsightsService(m, lists)

	list, _ := lists.Create(ctx, owner, models.CreateListRequest{Name: "Groceries"})
	lists.SetBudget(ctx, list.ID, ptr(10.0))

	milk, _ := items.Create(ctx, list.ID, owner, models.CreateItemRequest{Name: "Milk", Quantity: 2, Price: ptr(1.5)})
	cheese, _ := items.Create(ctx, list.ID, owner, models.CreateItemRequest{Name: "Cheese", Price: ptr(4.0)})
	apple, _ := items.Create(ctx, list.ID, owner, models.CreateItemRequest{Name: "Apple", Price: ptr(2.0)})
	items.Create(ctx, list.ID, owner, models.CreateItemRequest{Name: "Bread", Price: ptr(99.0)})

	items.ToggleCompletion(ctx, milk.ID, owner, nil)
	items.ToggleCompletion(ctx, cheese.ID, owner, nil)
	items.ToggleCompletion(ctx, apple.ID, owner, nil)

	insights, err := svc.ForList(ctx, list.ID, owner.UserID)
	if err != nil {
		t.Fatalf("ForList failed: %v", err)
	}
	// Only completed items count: 2x1.5 + 4 + 2. The pending bread does not.
	if insights.TotalSpent != 9.0 {
		t.Errorf("TotalSpent = %v, want 9", insights.TotalSpent)
	}
	if insights.BudgetStatus != models.BudgetWarning {
		t.Errorf("BudgetStatus = %q, want %q", insights.BudgetStatus, models.BudgetWarning)
	}
	if len(insights.Categories) != 2 {
		t.Fatalf("Categories = %v, want Dairy and Produce", insights.Categories)
	}
	// Largest spend first.
	if insights.Categories[0].Category != "Dairy" || insights.Categories[0].Spent != 7.0 {
		t.Errorf("Categories[0] = %+v, want Dairy with 7", insights.Categories[0])
	}
	if insights.Categories[0].Items != 2 {
		t.Errorf("Dairy items = %d, want 2", insights.Categories[0].Items)
	}
	if insights.Categories[1].Category != "Produce" || insights.Categories[1].Spent != 2.0 {
		t.Errorf("Categories[1] = %+v, want Produce with 2", insights.Categories[1])
	}

	if _, err := svc.ForList(ctx, list.ID, friend.UserID); models.CodeOf(err) != models.CodeForbidden {
		t.Errorf("ForList as non-member = %v, want forbidden", err)
	}
}
