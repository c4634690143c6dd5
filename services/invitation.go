package services

import (
	"context"
	"log"
	"time"

	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/store"

	"github.com/google/uuid"
)

// InvitationService runs the invitation lifecycle. Pending uniqueness per
// (list, invitee) is enforced by a query before the write, not by a store
// constraint, so two concurrent sends can still both land as pending; the
// check only rejects a second send once the first is observable.
type InvitationService struct {
	store store.Store
	lists *ListService
	email *EmailService
}

func NewInvitationService(st store.Store, lists *ListService, email *EmailService) *InvitationService {
	return &InvitationService{store: st, lists: lists, email: email}
}

// Send creates a pending invitation for an email address. Fails when the
// invitee already belongs to the list or already has a pending invitation.
// The notification email goes out in the background; delivery failures do
// not fail the invitation.
func (s *InvitationService) Send(ctx context.Context, listID string, inviter models.Identity, inviteeEmail string) (*models.Invitation, error) {
	if inviteeEmail == "" {
		return nil, models.ValidationFailed("invitee email is required")
	}

	list, err := s.lists.Get(ctx, listID, inviter.UserID)
	if err != nil {
		return nil, err
	}
	for _, email := range list.MemberEmails {
		if email == inviteeEmail {
			return nil, models.ValidationFailed("this user is already a member")
		}
	}

	pending, err := s.store.Query(ctx, store.Query{
		Collection: store.Invitations,
		Conds: []store.Cond{
			store.Where("listId", store.Eq, listID),
			store.Where("inviteeEmail", store.Eq, inviteeEmail),
			store.Where("status", store.Eq, string(models.InvitationPending)),
		},
		Limit: 1,
	})
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}
	if len(pending) > 0 {
		return nil, models.DuplicatePending()
	}

	invitation := &models.Invitation{
		ID:           uuid.New().String(),
		ListID:       listID,
		ListName:     list.Name,
		InviterID:    inviter.UserID,
		InviterEmail: inviter.Email,
		InviterName:  inviter.Name,
		InviteeEmail: inviteeEmail,
		Status:       models.InvitationPending,
		CreatedAt:    time.Now(),
	}
	if err := s.store.Set(ctx, store.Invitations, invitation.ID, invitation); err != nil {
		return nil, models.StoreUnavailable(err)
	}

	go func() {
		if err := s.email.SendInvitation(inviteeEmail, inviter.Name, list.Name); err != nil {
			log.Printf("⚠️ Invitation email to %s failed: %v", inviteeEmail, err)
		}
	}()

	return invitation, nil
}

// Accept marks the invitation accepted and returns it so the caller can
// grant membership. Acceptance and the membership write are two separate
// operations; a crash in between leaves an accepted invitation without
// access, resolved by re-inviting.
func (s *InvitationService) Accept(ctx context.Context, invitationID, inviteeEmail string) (*models.Invitation, error) {
	invitation, err := s.getPending(ctx, invitationID, inviteeEmail)
	if err != nil {
		return nil, err
	}
	if err := s.setStatus(ctx, invitationID, models.InvitationAccepted); err != nil {
		return nil, err
	}
	invitation.Status = models.InvitationAccepted
	return invitation, nil
}

// Decline marks the invitation declined. Terminal, no further effect.
func (s *InvitationService) Decline(ctx context.Context, invitationID, inviteeEmail string) error {
	if _, err := s.getPending(ctx, invitationID, inviteeEmail); err != nil {
		return err
	}
	return s.setStatus(ctx, invitationID, models.InvitationDeclined)
}

func (s *InvitationService) getPending(ctx context.Context, invitationID, inviteeEmail string) (*models.Invitation, error) {
	doc, err := s.store.Get(ctx, store.Invitations, invitationID)
	if err == store.ErrNotFound {
		return nil, models.NotFound("invitation")
	}
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}
	var invitation models.Invitation
	if err := doc.Decode(&invitation); err != nil {
		return nil, models.StoreUnavailable(err)
	}
	if invitation.InviteeEmail != inviteeEmail {
		return nil, models.Forbidden("this invitation is not addressed to you")
	}
	if invitation.Status != models.InvitationPending {
		return nil, models.ValidationFailed("invitation has already been resolved")
	}
	return &invitation, nil
}

func (s *InvitationService) setStatus(ctx context.Context, invitationID string, status models.InvitationStatus) error {
	err := s.store.Update(ctx, store.Invitations, invitationID, store.Patch{
		"status": store.Set(status),
	})
	if err == store.ErrNotFound {
		return models.NotFound("invitation")
	}
	if err != nil {
		return models.StoreUnavailable(err)
	}
	return nil
}
