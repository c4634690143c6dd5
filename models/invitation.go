package models

import "time"

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// Invitation is a request to join a list's membership. pending -> accepted or
// declined exactly once; terminal states are never reverted.
type Invitation struct {
	ID           string           `json:"id"`
	ListID       string           `json:"listId"`
	ListName     string           `json:"listName"`
	InviterID    string           `json:"inviterId"`
	InviterEmail string           `json:"inviterEmail"`
	InviterName  string           `json:"inviterName"`
	InviteeEmail string           `json:"inviteeEmail"`
	Status       InvitationStatus `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
}

type InvitationRequest struct {
	Email string `json:"email" binding:"required,email"`
}
