package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/store"
)

// ListTotals are the derived fields the aggregator owns on a list document.
// No other component writes them.
type ListTotals struct {
	ItemCount      int
	CompletedCount int
	TotalSpent     float64
	EstimatedTotal float64
}

// Aggregator keeps list-level counters and spend totals consistent with the
// live item set of every watched list. It overwrites the derived fields from
// each fresh snapshot instead of incrementing prior values, so repeated
// delivery of the same snapshot converges on the same document state.
type Aggregator struct {
	store     store.Store
	projector *Projector

	mu      sync.Mutex
	watches map[string]*View[models.Item]
	wg      sync.WaitGroup
	closed  bool
}

func NewAggregator(st store.Store, projector *Projector) *Aggregator {
	return &Aggregator{
		store:     st,
		projector: projector,
		watches:   make(map[string]*View[models.Item]),
	}
}

// WatchList starts recomputing aggregates for a list on every item change.
// Watching an already-watched list is a no-op.
func (a *Aggregator) WatchList(listID string) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return store.ErrClosed
	}
	if _, ok := a.watches[listID]; ok {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	view, err := a.projector.ListItems(listID)
	if err != nil {
		return err
	}

	a.mu.Lock()
	if a.closed || a.watches[listID] != nil {
		a.mu.Unlock()
		view.Cancel()
		return nil
	}
	a.watches[listID] = view
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for items := range view.C {
			a.writeTotals(listID, Recompute(items))
		}
	}()
	return nil
}

// UnwatchList stops aggregation for a list, typically after its deletion.
func (a *Aggregator) UnwatchList(listID string) {
	a.mu.Lock()
	view := a.watches[listID]
	delete(a.watches, listID)
	a.mu.Unlock()
	if view != nil {
		view.Cancel()
	}
}

// Close cancels every watch and waits for in-flight recomputations.
func (a *Aggregator) Close() {
	a.mu.Lock()
	a.closed = true
	views := make([]*View[models.Item], 0, len(a.watches))
	for _, v := range a.watches {
		views = append(views, v)
	}
	a.watches = make(map[string]*View[models.Item])
	a.mu.Unlock()

	for _, v := range views {
		v.Cancel()
	}
	a.wg.Wait()
}

// writeTotals overwrites the derived fields on the list. A failed write is
// logged and dropped: the next item change repeats the computation, so
// staleness is bounded by the next mutation.
func (a *Aggregator) writeTotals(listID string, totals ListTotals) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := a.store.Update(ctx, store.Lists, listID, store.Patch{
		"itemCount":      store.Set(totals.ItemCount),
		"completedCount": store.Set(totals.CompletedCount),
		"totalSpent":     store.Set(totals.TotalSpent),
		"estimatedTotal": store.Set(totals.EstimatedTotal),
		"updatedAt":      store.Set(time.Now()),
	})
	if err != nil && err != store.ErrNotFound {
		log.Printf("⚠️ Aggregate write for list %s failed, retrying on next change: %v", listID, err)
	}
}

// Recompute derives list totals from an item snapshot. totalSpent counts
// only completed items with a price; estimatedTotal counts every priced
// item. Both multiply unit price by quantity.
func Recompute(items []models.Item) ListTotals {
	totals := ListTotals{ItemCount: len(items)}
	for _, item := range items {
		if item.IsCompleted {
			totals.CompletedCount++
		}
		price := item.TotalPrice()
		if price == nil {
			continue
		}
		totals.EstimatedTotal += *price
		if item.IsCompleted {
			totals.TotalSpent += *price
		}
	}
	return totals
}

// BudgetStatus classifies spend against an optional budget.
func BudgetStatus(budget *float64, totalSpent float64) models.BudgetStatus {
	if budget == nil || *budget <= 0 {
		return models.BudgetNone
	}
	percentage := totalSpent / *budget * 100
	switch {
	case percentage >= 100:
		return models.BudgetExceeded
	case percentage >= 80:
		return models.BudgetWarning
	default:
		return models.BudgetGood
	}
}
