package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/idesign4u1/ShoppingListApp/middleware"
	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/services"
	"github.com/idesign4u1/ShoppingListApp/store"
	"github.com/idesign4u1/ShoppingListApp/utils"
)

type InvitationHandler struct {
	Invitations *services.InvitationService
	Lists       *services.ListService
	Users       *services.UserService
	Store       store.Store
	WS          *WSHandler
}

func (h *InvitationHandler) Send(c *gin.Context) {
	var req models.InvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inviter, err := h.Users.Identity(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	invitation, err := h.Invitations.Send(c.Request.Context(), c.Param("id"), inviter, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("send_invitation").Inc()
	utils.SafeInfo("Invitation sent to %s for list %s", req.Email, invitation.ListID)
	c.JSON(http.StatusCreated, invitation)
}

// GetMyPending returns the caller's pending invitations, newest first.
func (h *InvitationHandler) GetMyPending(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	docs, err := h.Store.Query(c.Request.Context(), store.Query{
		Collection: store.Invitations,
		Conds: []store.Cond{
			store.Where("inviteeEmail", store.Eq, identity.Email),
			store.Where("status", store.Eq, string(models.InvitationPending)),
		},
	})
	if err != nil {
		respondError(c, models.StoreUnavailable(err))
		return
	}

	invitations := make([]models.Invitation, 0, len(docs))
	for _, doc := range docs {
		var invitation models.Invitation
		if err := doc.Decode(&invitation); err != nil {
			continue
		}
		invitations = append(invitations, invitation)
	}
	c.JSON(http.StatusOK, invitations)
}

// Accept resolves the invitation, then grants membership as a second
// write. A failure between the two leaves an accepted invitation without
// access; the inviter resolves it by re-inviting.
func (h *InvitationHandler) Accept(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	invitation, err := h.Invitations.Accept(c.Request.Context(), c.Param("id"), identity.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.Lists.AddMember(c.Request.Context(), invitation.ListID, identity.UserID, identity.Email); err != nil {
		utils.SafeError("Membership grant after acceptance failed for list %s: %v", invitation.ListID, err)
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("accept_invitation").Inc()
	h.WS.BroadcastUpdate(invitation.ListID, "member_added", identity.UserID)
	c.JSON(http.StatusOK, gin.H{"message": "Invitation accepted", "list_id": invitation.ListID})
}

func (h *InvitationHandler) Decline(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	if err := h.Invitations.Decline(c.Request.Context(), c.Param("id"), identity.Email); err != nil {
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("decline_invitation").Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Invitation declined"})
}
