package services

import (
	"context"
	"sort"
	"time"

	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/store"

	"github.com/google/uuid"
)

// ItemService implements the item lifecycle: pending, claimed, in progress,
// completed, plus the orthogonal assignment fields. Every mutation refreshes
// updatedAt; list aggregates are never written here, the live subscription
// drives the aggregator instead.
type ItemService struct {
	store       store.Store
	categorizer *CategorizerService
}

func NewItemService(st store.Store, categorizer *CategorizerService) *ItemService {
	return &ItemService{store: st, categorizer: categorizer}
}

func (s *ItemService) getItem(ctx context.Context, itemID string) (*models.Item, error) {
	doc, err := s.store.Get(ctx, store.Items, itemID)
	if err == store.ErrNotFound {
		return nil, models.NotFound("item")
	}
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}
	var item models.Item
	if err := doc.Decode(&item); err != nil {
		return nil, models.StoreUnavailable(err)
	}
	return &item, nil
}

// Create adds an item to a list. A blank category is resolved by the
// categorizer; a caller-supplied category is remembered as a custom rule.
func (s *ItemService) Create(ctx context.Context, listID string, actor models.Identity, req models.CreateItemRequest) (*models.Item, error) {
	if req.Name == "" {
		return nil, models.ValidationFailed("item name is required")
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, models.ValidationFailed("quantity must be positive")
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, models.ValidationFailed("price must not be negative")
	}

	category := req.Category
	if category == "" {
		category = s.categorizer.GetCategory(ctx, req.Name)
	} else {
		s.categorizer.RegisterCustomCategory(req.Name, category)
	}

	now := time.Now()
	item := &models.Item{
		ID:             uuid.New().String(),
		ListID:         listID,
		Name:           req.Name,
		Quantity:       quantity,
		Unit:           req.Unit,
		Category:       category,
		Notes:          req.Notes,
		AddedBy:        actor.UserID,
		AddedByEmail:   actor.Email,
		Status:         models.ItemPending,
		Price:          req.Price,
		EstimatedPrice: req.EstimatedPrice,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Set(ctx, store.Items, item.ID, item); err != nil {
		return nil, models.StoreUnavailable(err)
	}
	return item, nil
}

// Update edits the descriptive fields of an item. Status, claim, assignment
// and completion have their own operations.
func (s *ItemService) Update(ctx context.Context, itemID string, req models.UpdateItemRequest) error {
	patch := store.Patch{"updatedAt": store.Set(time.Now())}
	if req.Name != nil {
		if *req.Name == "" {
			return models.ValidationFailed("item name is required")
		}
		patch["name"] = store.Set(*req.Name)
	}
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return models.ValidationFailed("quantity must be positive")
		}
		patch["quantity"] = store.Set(*req.Quantity)
	}
	if req.Unit != nil {
		patch["unit"] = store.Set(*req.Unit)
	}
	if req.Category != nil {
		patch["category"] = store.Set(*req.Category)
	}
	if req.Notes != nil {
		patch["notes"] = store.Set(*req.Notes)
	}

	return s.patchItem(ctx, itemID, patch)
}

// ToggleCompletion flips the completion flag. Completing sets completedBy,
// completedAt and status, and can capture the purchase price in the same
// write. Un-completing clears the completion fields but leaves status and
// price untouched, so an accidental uncheck keeps the price history.
func (s *ItemService) ToggleCompletion(ctx context.Context, itemID string, actor models.Identity, price *float64) (*models.Item, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var patch store.Patch
	if !item.IsCompleted {
		if price != nil && *price < 0 {
			return nil, models.ValidationFailed("price must not be negative")
		}
		patch = store.Patch{
			"isCompleted": store.Set(true),
			"completedBy": store.Set(actor.UserID),
			"completedAt": store.Set(now),
			"status":      store.Set(models.ItemCompleted),
			"updatedAt":   store.Set(now),
		}
		if price != nil {
			patch["price"] = store.Set(*price)
		}
		item.IsCompleted = true
		item.CompletedBy = &actor.UserID
		item.CompletedAt = &now
		item.Status = models.ItemCompleted
		if price != nil {
			item.Price = price
		}
	} else {
		patch = store.Patch{
			"isCompleted": store.Set(false),
			"completedBy": store.Set(nil),
			"completedAt": store.Set(nil),
			"updatedAt":   store.Set(now),
		}
		item.IsCompleted = false
		item.CompletedBy = nil
		item.CompletedAt = nil
	}
	item.UpdatedAt = now

	if err := s.patchItem(ctx, itemID, patch); err != nil {
		return nil, err
	}
	return item, nil
}

// Claim marks the actor as intending to buy the item.
func (s *ItemService) Claim(ctx context.Context, itemID string, actor models.Identity) error {
	now := time.Now()
	return s.patchItem(ctx, itemID, store.Patch{
		"claimedBy":     store.Set(actor.UserID),
		"claimedByName": store.Set(actor.Name),
		"claimedAt":     store.Set(now),
		"status":        store.Set(models.ItemClaimed),
		"updatedAt":     store.Set(now),
	})
}

// Unclaim releases a claim and returns the item to pending.
func (s *ItemService) Unclaim(ctx context.Context, itemID string) error {
	return s.patchItem(ctx, itemID, store.Patch{
		"claimedBy":     store.Set(nil),
		"claimedByName": store.Set(nil),
		"claimedAt":     store.Set(nil),
		"status":        store.Set(models.ItemPending),
		"updatedAt":     store.Set(time.Now()),
	})
}

// StartProgress moves a claimed item to in progress.
func (s *ItemService) StartProgress(ctx context.Context, itemID string) error {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.Status != models.ItemClaimed {
		return models.ValidationFailed("only a claimed item can be started")
	}
	return s.patchItem(ctx, itemID, store.Patch{
		"status":    store.Set(models.ItemInProgress),
		"updatedAt": store.Set(time.Now()),
	})
}

// Assign sets or clears the responsible member. Assignment is a hint with
// no status coupling; both fields must be set or cleared together.
func (s *ItemService) Assign(ctx context.Context, itemID string, userID, name *string) error {
	if (userID == nil) != (name == nil) {
		return models.ValidationFailed("assignment needs both user id and name, or neither")
	}
	patch := store.Patch{"updatedAt": store.Set(time.Now())}
	if userID == nil {
		patch["assignedTo"] = store.Set(nil)
		patch["assignedToName"] = store.Set(nil)
	} else {
		patch["assignedTo"] = store.Set(*userID)
		patch["assignedToName"] = store.Set(*name)
	}
	return s.patchItem(ctx, itemID, patch)
}

// UpdatePrice sets the unit price without touching status.
func (s *ItemService) UpdatePrice(ctx context.Context, itemID string, price float64) error {
	if price < 0 {
		return models.ValidationFailed("price must not be negative")
	}
	return s.patchItem(ctx, itemID, store.Patch{
		"price":     store.Set(price),
		"updatedAt": store.Set(time.Now()),
	})
}

// ListFor returns a list's items one-shot, in presentation order. Live
// consumers use the projector's ListItems view.
func (s *ItemService) ListFor(ctx context.Context, listID string) ([]models.Item, error) {
	docs, err := s.store.Query(ctx, store.Query{
		Collection: store.Items,
		Conds:      []store.Cond{store.Where("listId", store.Eq, listID)},
	})
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}

	items := make([]models.Item, 0, len(docs))
	for _, doc := range docs {
		var item models.Item
		if err := doc.Decode(&item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return SortItems(items), nil
}

// Delete removes an item permanently.
func (s *ItemService) Delete(ctx context.Context, itemID string) error {
	if err := s.store.Delete(ctx, store.Items, itemID); err != nil {
		return models.StoreUnavailable(err)
	}
	return nil
}

// DeleteCompleted removes every completed item of a list in one batch and
// returns how many were removed.
func (s *ItemService) DeleteCompleted(ctx context.Context, listID string) (int, error) {
	docs, err := s.store.Query(ctx, store.Query{
		Collection: store.Items,
		Conds: []store.Cond{
			store.Where("listId", store.Eq, listID),
			store.Where("isCompleted", store.Eq, true),
		},
	})
	if err != nil {
		return 0, models.StoreUnavailable(err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	batch := s.store.Batch()
	for _, doc := range docs {
		batch.Delete(store.Items, doc.ID)
	}
	if err := batch.Commit(ctx); err != nil {
		return 0, models.StoreUnavailable(err)
	}
	return len(docs), nil
}

func (s *ItemService) patchItem(ctx context.Context, itemID string, patch store.Patch) error {
	err := s.store.Update(ctx, store.Items, itemID, patch)
	if err == store.ErrNotFound {
		return models.NotFound("item")
	}
	if err != nil {
		return models.StoreUnavailable(err)
	}
	return nil
}

// SortItems orders items for presentation: categories in order of first
// appearance, incomplete before completed within a category, ties broken
// by newest first.
func SortItems(items []models.Item) []models.Item {
	sorted := make([]models.Item, len(items))
	copy(sorted, items)

	categoryRank := make(map[string]int)
	for _, item := range items {
		if _, seen := categoryRank[item.Category]; !seen {
			categoryRank[item.Category] = len(categoryRank)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if categoryRank[a.Category] != categoryRank[b.Category] {
			return categoryRank[a.Category] < categoryRank[b.Category]
		}
		if a.IsCompleted != b.IsCompleted {
			return !a.IsCompleted
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return sorted
}
