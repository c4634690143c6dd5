package services

import (
	"context"
	"time"

	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/store"

	"github.com/google/uuid"
)

type ListService struct {
	store store.Store
}

func NewListService(st store.Store) *ListService {
	return &ListService{store: st}
}

// Create makes a new list owned by the actor, with the actor as its only
// member. Derived counters start at zero and belong to the aggregator from
// here on.
func (s *ListService) Create(ctx context.Context, actor models.Identity, req models.CreateListRequest) (*models.ShoppingList, error) {
	if req.Name == "" {
		return nil, models.ValidationFailed("list name is required")
	}
	currency := req.Currency
	if currency == "" {
		currency = "€"
	}

	now := time.Now()
	list := &models.ShoppingList{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Description:  req.Description,
		OwnerID:      actor.UserID,
		OwnerEmail:   actor.Email,
		Members:      []string{actor.UserID},
		MemberEmails: []string{actor.Email},
		Currency:     currency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Set(ctx, store.Lists, list.ID, list); err != nil {
		return nil, models.StoreUnavailable(err)
	}
	return list, nil
}

// Get returns a list the actor is a member of.
func (s *ListService) Get(ctx context.Context, listID, userID string) (*models.ShoppingList, error) {
	list, err := s.getList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if !list.IsMember(userID) {
		return nil, models.Forbidden("you are not a member of this list")
	}
	return list, nil
}

// GetUserLists returns every list the user belongs to, one-shot. Live
// consumers use the projector's UserLists view instead.
func (s *ListService) GetUserLists(ctx context.Context, userID string) ([]models.ShoppingList, error) {
	docs, err := s.store.Query(ctx, store.Query{
		Collection: store.Lists,
		Conds:      []store.Cond{store.Where("members", store.ArrayContains, userID)},
	})
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}

	lists := make([]models.ShoppingList, 0, len(docs))
	for _, doc := range docs {
		var list models.ShoppingList
		if err := doc.Decode(&list); err != nil {
			continue
		}
		lists = append(lists, list)
	}
	return sortListsNewestFirst(lists), nil
}

// AllIDs returns every list id in the store, used to resume aggregation
// watches at startup.
func (s *ListService) AllIDs(ctx context.Context) ([]string, error) {
	docs, err := s.store.Query(ctx, store.Query{Collection: store.Lists})
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

// Update edits name, description or currency via field patch.
func (s *ListService) Update(ctx context.Context, listID string, req models.UpdateListRequest) error {
	patch := store.Patch{"updatedAt": store.Set(time.Now())}
	if req.Name != nil {
		if *req.Name == "" {
			return models.ValidationFailed("list name is required")
		}
		patch["name"] = store.Set(*req.Name)
	}
	if req.Description != nil {
		patch["description"] = store.Set(*req.Description)
	}
	if req.Currency != nil {
		patch["currency"] = store.Set(*req.Currency)
	}
	return s.patchList(ctx, listID, patch)
}

// SetBudget sets or clears the list budget. The budget is member-editable;
// only the derived totals are aggregator-owned.
func (s *ListService) SetBudget(ctx context.Context, listID string, budget *float64) error {
	if budget != nil && *budget <= 0 {
		return models.ValidationFailed("budget must be positive")
	}
	return s.patchList(ctx, listID, store.Patch{
		"budget":    store.Set(budget),
		"updatedAt": store.Set(time.Now()),
	})
}

// Delete removes a list and all of its items in one batch. Owner only.
func (s *ListService) Delete(ctx context.Context, listID, userID string) error {
	list, err := s.getList(ctx, listID)
	if err != nil {
		return err
	}
	if list.OwnerID != userID {
		return models.Forbidden("only the owner can delete a list")
	}

	items, err := s.store.Query(ctx, store.Query{
		Collection: store.Items,
		Conds:      []store.Cond{store.Where("listId", store.Eq, listID)},
	})
	if err != nil {
		return models.StoreUnavailable(err)
	}

	batch := s.store.Batch()
	for _, item := range items {
		batch.Delete(store.Items, item.ID)
	}
	batch.Delete(store.Lists, listID)
	if err := batch.Commit(ctx); err != nil {
		return models.StoreUnavailable(err)
	}
	return nil
}

// AddMember unions the identity and email into the member sets in one
// combined field update.
func (s *ListService) AddMember(ctx context.Context, listID, userID, email string) error {
	return s.patchList(ctx, listID, store.Patch{
		"members":      store.ArrayUnion(userID),
		"memberEmails": store.ArrayUnion(email),
		"updatedAt":    store.Set(time.Now()),
	})
}

// RemoveMember removes the identity and email from the member sets. The
// owner cannot be removed; delete the list instead.
func (s *ListService) RemoveMember(ctx context.Context, listID, userID, email string) error {
	list, err := s.getList(ctx, listID)
	if err != nil {
		return err
	}
	if list.OwnerID == userID {
		return models.Forbidden("the list owner cannot be removed")
	}
	return s.patchList(ctx, listID, store.Patch{
		"members":      store.ArrayRemove(userID),
		"memberEmails": store.ArrayRemove(email),
		"updatedAt":    store.Set(time.Now()),
	})
}

// Duplicate copies a list and its items from a point-in-time snapshot. The
// copy is owned by the actor with membership reset to the actor alone;
// completion, claim and assignment state is cleared and item identities are
// regenerated. The copied item count is written onto the new list so it is
// correct before the aggregator's first pass.
func (s *ListService) Duplicate(ctx context.Context, sourceListID, newName string, actor models.Identity) (*models.ShoppingList, error) {
	if newName == "" {
		return nil, models.ValidationFailed("list name is required")
	}
	source, err := s.Get(ctx, sourceListID, actor.UserID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.Query(ctx, store.Query{
		Collection: store.Items,
		Conds:      []store.Cond{store.Where("listId", store.Eq, sourceListID)},
	})
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}

	now := time.Now()
	copied := &models.ShoppingList{
		ID:           uuid.New().String(),
		Name:         newName,
		Description:  source.Description,
		OwnerID:      actor.UserID,
		OwnerEmail:   actor.Email,
		Members:      []string{actor.UserID},
		MemberEmails: []string{actor.Email},
		Budget:       source.Budget,
		Currency:     source.Currency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	batch := s.store.Batch()
	count := 0
	for _, doc := range items {
		var item models.Item
		if err := doc.Decode(&item); err != nil {
			continue
		}
		item.ID = uuid.New().String()
		item.ListID = copied.ID
		item.IsCompleted = false
		item.CompletedBy = nil
		item.CompletedAt = nil
		item.ClaimedBy = nil
		item.ClaimedByName = nil
		item.ClaimedAt = nil
		item.AssignedTo = nil
		item.AssignedToName = nil
		item.Status = models.ItemPending
		item.CreatedAt = now
		item.UpdatedAt = now
		batch.Set(store.Items, item.ID, item)
		count++
	}
	copied.ItemCount = count
	batch.Set(store.Lists, copied.ID, copied)

	if err := batch.Commit(ctx); err != nil {
		return nil, models.StoreUnavailable(err)
	}
	return copied, nil
}

func (s *ListService) patchList(ctx context.Context, listID string, patch store.Patch) error {
	err := s.store.Update(ctx, store.Lists, listID, patch)
	if err == store.ErrNotFound {
		return models.NotFound("list")
	}
	if err != nil {
		return models.StoreUnavailable(err)
	}
	return nil
}

func (s *ListService) getList(ctx context.Context, listID string) (*models.ShoppingList, error) {
	doc, err := s.store.Get(ctx, store.Lists, listID)
	if err == store.ErrNotFound {
		return nil, models.NotFound("list")
	}
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}
	var list models.ShoppingList
	if err := doc.Decode(&list); err != nil {
		return nil, models.StoreUnavailable(err)
	}
	return &list, nil
}
