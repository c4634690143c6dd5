package services

import (
	"context"
	"sort"

	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/store"
)

// CategorySpend is the completed spend attributed to one item category.
type CategorySpend struct {
	Category string  `json:"category"`
	Spent    float64 `json:"spent"`
	Items    int     `json:"items"`
}

// SpendInsights summarizes where a list's money went, plus the budget
// verdict derived from the aggregator's rules.
type SpendInsights struct {
	ListID       string              `json:"listId"`
	TotalSpent   float64             `json:"totalSpent"`
	Budget       *float64            `json:"budget"`
	BudgetStatus models.BudgetStatus `json:"budgetStatus"`
	Categories   []CategorySpend     `json:"categories"`
}

type InsightsService struct {
	store store.Store
	lists *ListService
}

func NewInsightsService(st store.Store, lists *ListService) *InsightsService {
	return &InsightsService{store: st, lists: lists}
}

// ForList breaks down completed spend per category for one list the actor
// is a member of. Computed from a point-in-time item snapshot, read-only.
func (s *InsightsService) ForList(ctx context.Context, listID, userID string) (*SpendInsights, error) {
	list, err := s.lists.Get(ctx, listID, userID)
	if err != nil {
		return nil, err
	}

	docs, err := s.store.Query(ctx, store.Query{
		Collection: store.Items,
		Conds: []store.Cond{
			store.Where("listId", store.Eq, listID),
			store.Where("isCompleted", store.Eq, true),
		},
	})
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}

	byCategory := make(map[string]*CategorySpend)
	total := 0.0
	for _, doc := range docs {
		var item models.Item
		if err := doc.Decode(&item); err != nil {
			continue
		}
		entry := byCategory[item.Category]
		if entry == nil {
			entry = &CategorySpend{Category: item.Category}
			byCategory[item.Category] = entry
		}
		entry.Items++
		if price := item.TotalPrice(); price != nil {
			entry.Spent += *price
			total += *price
		}
	}

	categories := make([]CategorySpend, 0, len(byCategory))
	for _, entry := range byCategory {
		categories = append(categories, *entry)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Spent != categories[j].Spent {
			return categories[i].Spent > categories[j].Spent
		}
		return categories[i].Category < categories[j].Category
	})

	return &SpendInsights{
		ListID:       listID,
		TotalSpent:   total,
		Budget:       list.Budget,
		BudgetStatus: BudgetStatus(list.Budget, total),
		Categories:   categories,
	}, nil
}
