package services

import (
	"context"
	"log"
	"strings"

	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/store"

	"github.com/google/uuid"
)

// CatalogService serves product suggestions for the add-item flow. The
// catalog is stored lowercase-keyed so prefix search can run as a range
// query against the store.
type CatalogService struct {
	store store.Store
}

func NewCatalogService(st store.Store) *CatalogService {
	return &CatalogService{store: st}
}

// Search returns catalog entries whose name starts with the given prefix,
// capped at limit. The range trick: names in [prefix, prefix+"￿"]
// are exactly the prefix matches.
func (s *CatalogService) Search(ctx context.Context, prefix string, limit int) ([]models.CatalogItem, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if len(prefix) < 2 {
		return nil, models.ValidationFailed("search needs at least two characters")
	}
	if limit <= 0 || limit > 25 {
		limit = 10
	}

	docs, err := s.store.Query(ctx, store.Query{
		Collection: store.Catalog,
		Conds: []store.Cond{
			store.Where("name", store.Gte, prefix),
			store.Where("name", store.Lte, prefix+"￿"),
		},
		Limit: limit,
	})
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}

	items := make([]models.CatalogItem, 0, len(docs))
	for _, doc := range docs {
		var item models.CatalogItem
		if err := doc.Decode(&item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// RecordUse bumps the popularity counter of a catalog entry. Best effort.
func (s *CatalogService) RecordUse(ctx context.Context, catalogID string) {
	err := s.store.Update(ctx, store.Catalog, catalogID, store.Patch{
		"popularity": store.Increment(1),
	})
	if err != nil && err != store.ErrNotFound {
		log.Printf("⚠️ Failed to bump catalog popularity for %s: %v", catalogID, err)
	}
}

var seedCatalog = []models.CatalogItem{
	{Name: "milk", Category: "Dairy", DefaultUnit: "l"},
	{Name: "eggs", Category: "Dairy", DefaultUnit: "pcs"},
	{Name: "butter", Category: "Dairy", DefaultUnit: "g"},
	{Name: "cheese", Category: "Dairy", DefaultUnit: "g"},
	{Name: "yogurt", Category: "Dairy", DefaultUnit: "pcs"},
	{Name: "bread", Category: "Bakery", DefaultUnit: "pcs"},
	{Name: "baguette", Category: "Bakery", DefaultUnit: "pcs"},
	{Name: "apples", Category: "Produce", DefaultUnit: "kg"},
	{Name: "bananas", Category: "Produce", DefaultUnit: "kg"},
	{Name: "tomatoes", Category: "Produce", DefaultUnit: "kg"},
	{Name: "potatoes", Category: "Produce", DefaultUnit: "kg"},
	{Name: "onions", Category: "Produce", DefaultUnit: "kg"},
	{Name: "chicken breast", Category: "Meat & Fish", DefaultUnit: "kg"},
	{Name: "ground beef", Category: "Meat & Fish", DefaultUnit: "kg"},
	{Name: "salmon", Category: "Meat & Fish", DefaultUnit: "kg"},
	{Name: "pasta", Category: "Pantry", DefaultUnit: "g"},
	{Name: "rice", Category: "Pantry", DefaultUnit: "kg"},
	{Name: "olive oil", Category: "Pantry", DefaultUnit: "l"},
	{Name: "sugar", Category: "Pantry", DefaultUnit: "kg"},
	{Name: "flour", Category: "Pantry", DefaultUnit: "kg"},
	{Name: "coffee", Category: "Beverages", DefaultUnit: "g"},
	{Name: "orange juice", Category: "Beverages", DefaultUnit: "l"},
	{Name: "sparkling water", Category: "Beverages", DefaultUnit: "l"},
	{Name: "toilet paper", Category: "Household", DefaultUnit: "pcs"},
	{Name: "dish soap", Category: "Household", DefaultUnit: "pcs"},
	{Name: "laundry detergent", Category: "Household", DefaultUnit: "l"},
}

// Seed loads the built-in catalog if the collection is still empty.
// Intended to run once at startup, in the background.
func (s *CatalogService) Seed(ctx context.Context) error {
	existing, err := s.store.Query(ctx, store.Query{Collection: store.Catalog, Limit: 1})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	batch := s.store.Batch()
	for _, entry := range seedCatalog {
		entry.ID = uuid.New().String()
		batch.Set(store.Catalog, entry.ID, entry)
	}
	if err := batch.Commit(ctx); err != nil {
		return err
	}
	log.Printf("✅ Seeded catalog with %d entries", len(seedCatalog))
	return nil
}
