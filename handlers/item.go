package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/idesign4u1/ShoppingListApp/middleware"
	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/services"
)

type ItemHandler struct {
	Items *services.ItemService
	Lists *services.ListService
	Users *services.UserService
	WS    *WSHandler
}

// requireMember checks list membership before any item mutation. Item
// routes are nested under /lists/:id.
func (h *ItemHandler) requireMember(c *gin.Context) (string, bool) {
	listID := c.Param("id")
	if _, err := h.Lists.Get(c.Request.Context(), listID, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return "", false
	}
	return listID, true
}

func (h *ItemHandler) GetAll(c *gin.Context) {
	listID, ok := h.requireMember(c)
	if !ok {
		return
	}

	items, err := h.Items.ListFor(c.Request.Context(), listID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *ItemHandler) Create(c *gin.Context) {
	listID, ok := h.requireMember(c)
	if !ok {
		return
	}

	var req models.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, err := h.Users.Identity(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := h.Items.Create(c.Request.Context(), listID, actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("create_item").Inc()
	h.WS.BroadcastUpdate(listID, "item_created", actor.UserID)
	c.JSON(http.StatusCreated, item)
}

func (h *ItemHandler) Update(c *gin.Context) {
	listID, ok := h.requireMember(c)
	if !ok {
		return
	}

	var req models.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Items.Update(c.Request.Context(), c.Param("itemId"), req); err != nil {
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("update_item").Inc()
	h.WS.BroadcastUpdate(listID, "item_updated", middleware.GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Item updated successfully"})
}

func (h *ItemHandler) Toggle(c *gin.Context) {
	listID, ok := h.requireMember(c)
	if !ok {
		return
	}

	var req models.ToggleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, err := h.Users.Identity(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := h.Items.ToggleCompletion(c.Request.Context(), c.Param("itemId"), actor, req.Price)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("toggle_item").Inc()
	h.WS.BroadcastUpdate(listID, "item_toggled", actor.UserID)
	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) Claim(c *gin.Context) {
	listID, ok := h.requireMember(c)
	if !ok {
		return
	}

	actor, err := h.Users.Identity(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.Items.Claim(c.Request.Context(), c.Param("itemId"), actor); err != nil {
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("claim_item").Inc()
	h.WS.BroadcastUpdate(listID, "item_claimed", actor.UserID)
	c.JSON(http.StatusOK, gin.H{"message": "Item claimed"})
}

func (h *ItemHandler) Unclaim(c *gin.Context) {
	listID, ok := h.requireMember(c)
	if !ok {
		return
	}

	if err := h.Items.Unclaim(c.Request.Context(), c.Param("itemId")); err != nil {
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("unclaim_item").Inc()
	h.WS.BroadcastUpdate(listID, "item_unclaimed", middleware.GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Claim released"})
}

func (h *ItemHandler) StartProgress(c *gin.Context) {
	listID, ok := h.requireMember(c)
	if !ok {
		return
	}

	if err := h.Items.StartProgress(c.Request.Context(), c.Param("itemId")); err != nil {
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("start_item").Inc()
	h.WS.BroadcastUpdate(listID, "item_started", middleware.GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Item in progress"})
}

func (h *ItemHandler) Assign(c *gin.Context) {
	listID, ok := h.requireMember(c)
	if !ok {
		return
	}

	var req models.AssignItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Items.Assign(c.Request.Context(), c.Param("itemId"), req.UserID, req.Name); err != nil {
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("assign_item").Inc()
	h.WS.BroadcastUpdate(listID, "item_assigned", middleware.GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Assignment updated"})
}

func (h *ItemHandler) UpdatePrice(c *gin.Context) {
	listID, ok := h.requireMember(c)
	if !ok {
		return
	}

	var req models.UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Items.UpdatePrice(c.Request.Context(), c.Param("itemId"), req.Price); err != nil {
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("update_price").Inc()
	h.WS.BroadcastUpdate(listID, "price_updated", middleware.GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Price updated"})
}

func (h *ItemHandler) Delete(c *gin.Context) {
	listID, ok := h.requireMember(c)
	if !ok {
		return
	}

	if err := h.Items.Delete(c.Request.Context(), c.Param("itemId")); err != nil {
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("delete_item").Inc()
	h.WS.BroadcastUpdate(listID, "item_deleted", middleware.GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}

func (h *ItemHandler) DeleteCompleted(c *gin.Context) {
	listID, ok := h.requireMember(c)
	if !ok {
		return
	}

	count, err := h.Items.DeleteCompleted(c.Request.Context(), listID)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("delete_completed").Inc()
	h.WS.BroadcastUpdate(listID, "completed_cleared", middleware.GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}
