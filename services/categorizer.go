package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/store"
)

type CategorizerService struct {
	store store.Store
}

func NewCategorizerService(st store.Store) *CategorizerService {
	return &CategorizerService{store: st}
}

var staticRules = map[string]string{
	// PRODUCE
	"apple": "Produce", "banana": "Produce", "orange": "Produce", "tomato": "Produce",
	"potato": "Produce", "onion": "Produce", "lettuce": "Produce", "carrot": "Produce",
	"cucumber": "Produce", "pepper": "Produce", "avocado": "Produce", "lemon": "Produce",

	// DAIRY
	"milk": "Dairy", "cheese": "Dairy", "yogurt": "Dairy", "butter": "Dairy",
	"cream": "Dairy", "egg": "Dairy",

	// MEAT & FISH
	"chicken": "Meat & Fish", "beef": "Meat & Fish", "pork": "Meat & Fish",
	"salmon": "Meat & Fish", "tuna": "Meat & Fish", "turkey": "Meat & Fish",
	"sausage": "Meat & Fish", "bacon": "Meat & Fish",

	// BAKERY
	"bread": "Bakery", "baguette": "Bakery", "croissant": "Bakery", "bagel": "Bakery",
	"roll": "Bakery", "cake": "Bakery",

	// PANTRY
	"pasta": "Pantry", "rice": "Pantry", "flour": "Pantry", "sugar": "Pantry",
	"salt": "Pantry", "oil": "Pantry", "cereal": "Pantry", "beans": "Pantry",
	"sauce": "Pantry", "honey": "Pantry",

	// BEVERAGES
	"water": "Beverages", "juice": "Beverages", "coffee": "Beverages", "tea": "Beverages",
	"soda": "Beverages", "beer": "Beverages", "wine": "Beverages",

	// FROZEN
	"ice cream": "Frozen", "frozen": "Frozen", "pizza": "Frozen",

	// HOUSEHOLD
	"detergent": "Household", "soap": "Household", "shampoo": "Household",
	"toilet paper": "Household", "paper towel": "Household", "sponge": "Household",
	"toothpaste": "Household",
}

// GetCategory resolves a category for an item name: static keyword rules
// first, then custom categories previously registered by members.
func (s *CategorizerService) GetCategory(ctx context.Context, rawName string) string {
	normalized := strings.ToLower(strings.TrimSpace(rawName))
	if normalized == "" {
		return "Other"
	}

	if category, exists := staticRules[normalized]; exists {
		return category
	}
	for key, category := range staticRules {
		if strings.Contains(normalized, key) {
			return category
		}
	}

	docs, err := s.store.Query(ctx, store.Query{
		Collection: store.Categories,
		Conds:      []store.Cond{store.Where("keyword", store.Eq, normalized)},
		Limit:      1,
	})
	if err == nil && len(docs) > 0 {
		var mapping models.CategoryMapping
		if err := docs[0].Decode(&mapping); err == nil && mapping.Category != "" {
			return mapping.Category
		}
	}

	return "Other"
}

// RegisterCustomCategory remembers a member-supplied keyword-to-category
// mapping so future items with the same name land in the same group.
// Failures are logged and dropped; categorization is best effort.
func (s *CategorizerService) RegisterCustomCategory(keyword, category string) {
	normalized := strings.ToLower(strings.TrimSpace(keyword))
	if normalized == "" || category == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		mapping := models.CategoryMapping{
			ID:        normalized,
			Keyword:   normalized,
			Category:  category,
			CreatedAt: time.Now(),
		}
		if err := s.store.Set(ctx, store.Categories, mapping.ID, mapping); err != nil {
			log.Printf("⚠️ Failed to save custom category %q: %v", normalized, err)
		}
	}()
}
