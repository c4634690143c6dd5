package models

import "time"

// ItemStatus is the item lifecycle state. Claiming and completion drive it;
// assignment never does.
type ItemStatus string

const (
	ItemPending    ItemStatus = "pending"
	ItemClaimed    ItemStatus = "claimed"
	ItemInProgress ItemStatus = "in_progress"
	ItemCompleted  ItemStatus = "completed"
)

type Item struct {
	ID             string     `json:"id"`
	ListID         string     `json:"listId"`
	Name           string     `json:"name"`
	Quantity       int        `json:"quantity"`
	Unit           string     `json:"unit"`
	Category       string     `json:"category"`
	Notes          string     `json:"notes"`
	IsCompleted    bool       `json:"isCompleted"`
	CompletedBy    *string    `json:"completedBy"`
	CompletedAt    *time.Time `json:"completedAt"`
	AddedBy        string     `json:"addedBy"`
	AddedByEmail   string     `json:"addedByEmail"`
	AssignedTo     *string    `json:"assignedTo"`
	AssignedToName *string    `json:"assignedToName"`
	ClaimedBy      *string    `json:"claimedBy"`
	ClaimedByName  *string    `json:"claimedByName"`
	ClaimedAt      *time.Time `json:"claimedAt"`
	Status         ItemStatus `json:"status"`
	Price          *float64   `json:"price"`
	EstimatedPrice *float64   `json:"estimatedPrice"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// TotalPrice returns price x quantity, or nil when no price is set.
func (i *Item) TotalPrice() *float64 {
	if i.Price == nil {
		return nil
	}
	total := *i.Price * float64(i.Quantity)
	return &total
}

type CreateItemRequest struct {
	Name           string   `json:"name" binding:"required"`
	Quantity       int      `json:"quantity"`
	Unit           string   `json:"unit"`
	Category       string   `json:"category"`
	Notes          string   `json:"notes"`
	Price          *float64 `json:"price"`
	EstimatedPrice *float64 `json:"estimated_price"`
}

type UpdateItemRequest struct {
	Name     *string `json:"name"`
	Quantity *int    `json:"quantity"`
	Unit     *string `json:"unit"`
	Category *string `json:"category"`
	Notes    *string `json:"notes"`
}

type ToggleItemRequest struct {
	// Optional purchase price captured at the moment of completion.
	Price *float64 `json:"price"`
}

type AssignItemRequest struct {
	// Both null clears the assignment; both set assigns.
	UserID *string `json:"user_id"`
	Name   *string `json:"name"`
}

type UpdatePriceRequest struct {
	Price float64 `json:"price"`
}

// CategoryMapping is a member-supplied keyword-to-category rule used by
// auto-categorization when the built-in dictionary has no match.
type CategoryMapping struct {
	ID        string    `json:"id"`
	Keyword   string    `json:"keyword"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}

// CatalogItem is a product suggestion used for prefix search when adding items.
type CatalogItem struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	DefaultUnit    string   `json:"defaultUnit"`
	EstimatedPrice *float64 `json:"estimatedPrice"`
	Popularity     int      `json:"popularity"`
}
