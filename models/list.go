package models

import "time"

// ShoppingList is the shared list aggregate. The derived fields itemCount,
// completedCount, totalSpent and estimatedTotal are owned by the aggregation
// engine and must never be written by any other component.
type ShoppingList struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	OwnerID        string    `json:"ownerId"`
	OwnerEmail     string    `json:"ownerEmail"`
	Members        []string  `json:"members"`
	MemberEmails   []string  `json:"memberEmails"`
	ItemCount      int       `json:"itemCount"`
	CompletedCount int       `json:"completedCount"`
	Budget         *float64  `json:"budget"`
	TotalSpent     float64   `json:"totalSpent"`
	EstimatedTotal float64   `json:"estimatedTotal"`
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// IsMember reports whether the given user id is in the member set.
func (l *ShoppingList) IsMember(userID string) bool {
	for _, m := range l.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// BudgetStatus classifies spend against a budget. Derived, never stored.
type BudgetStatus string

const (
	BudgetNone     BudgetStatus = "NO_BUDGET"
	BudgetGood     BudgetStatus = "GOOD"
	BudgetWarning  BudgetStatus = "WARNING"
	BudgetExceeded BudgetStatus = "EXCEEDED"
)

type CreateListRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
}

type UpdateListRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Currency    *string `json:"currency"`
}

type SetBudgetRequest struct {
	// Null clears the budget.
	Budget *float64 `json:"budget"`
}

type DuplicateListRequest struct {
	Name string `json:"name" binding:"required"`
}

type MemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
}
