package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/idesign4u1/ShoppingListApp/middleware"
	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/services"
	"github.com/idesign4u1/ShoppingListApp/utils"
)

type ListHandler struct {
	Lists      *services.ListService
	Users      *services.UserService
	Insights   *services.InsightsService
	Aggregator *services.Aggregator
	WS         *WSHandler
}

func (h *ListHandler) Create(c *gin.Context) {
	var req models.CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, err := h.Users.Identity(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	list, err := h.Lists.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.Aggregator.WatchList(list.ID); err != nil {
		utils.SafeWarn("Failed to watch new list %s: %v", list.ID, err)
	}
	middleware.ListMutations.WithLabelValues("create_list").Inc()
	utils.LogListAction("create", list.ID, actor.UserID)
	c.JSON(http.StatusCreated, list)
}

func (h *ListHandler) GetAll(c *gin.Context) {
	lists, err := h.Lists.GetUserLists(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

func (h *ListHandler) Get(c *gin.Context) {
	list, err := h.Lists.Get(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"list":          list,
		"budget_status": services.BudgetStatus(list.Budget, list.TotalSpent),
	})
}

func (h *ListHandler) Update(c *gin.Context) {
	listID := c.Param("id")
	userID := middleware.GetUserID(c)
	if _, err := h.Lists.Get(c.Request.Context(), listID, userID); err != nil {
		respondError(c, err)
		return
	}

	var req models.UpdateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Lists.Update(c.Request.Context(), listID, req); err != nil {
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("update_list").Inc()
	h.WS.BroadcastUpdate(listID, "list_updated", userID)
	c.JSON(http.StatusOK, gin.H{"message": "List updated successfully"})
}

func (h *ListHandler) SetBudget(c *gin.Context) {
	listID := c.Param("id")
	userID := middleware.GetUserID(c)
	if _, err := h.Lists.Get(c.Request.Context(), listID, userID); err != nil {
		respondError(c, err)
		return
	}

	var req models.SetBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Lists.SetBudget(c.Request.Context(), listID, req.Budget); err != nil {
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("set_budget").Inc()
	h.WS.BroadcastUpdate(listID, "budget_updated", userID)
	c.JSON(http.StatusOK, gin.H{"message": "Budget updated successfully"})
}

func (h *ListHandler) Delete(c *gin.Context) {
	listID := c.Param("id")
	userID := middleware.GetUserID(c)

	if err := h.Lists.Delete(c.Request.Context(), listID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.Aggregator.UnwatchList(listID)
	middleware.ListMutations.WithLabelValues("delete_list").Inc()
	utils.LogListAction("delete", listID, userID)
	h.WS.BroadcastUpdate(listID, "list_deleted", userID)
	c.JSON(http.StatusOK, gin.H{"message": "List deleted successfully"})
}

func (h *ListHandler) AddMember(c *gin.Context) {
	listID := c.Param("id")
	userID := middleware.GetUserID(c)
	if _, err := h.Lists.Get(c.Request.Context(), listID, userID); err != nil {
		respondError(c, err)
		return
	}

	var req models.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Lists.AddMember(c.Request.Context(), listID, req.UserID, req.Email); err != nil {
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("add_member").Inc()
	h.WS.BroadcastUpdate(listID, "member_added", userID)
	c.JSON(http.StatusOK, gin.H{"message": "Member added successfully"})
}

func (h *ListHandler) RemoveMember(c *gin.Context) {
	listID := c.Param("id")
	userID := middleware.GetUserID(c)
	if _, err := h.Lists.Get(c.Request.Context(), listID, userID); err != nil {
		respondError(c, err)
		return
	}

	var req models.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Lists.RemoveMember(c.Request.Context(), listID, req.UserID, req.Email); err != nil {
		respondError(c, err)
		return
	}

	middleware.ListMutations.WithLabelValues("remove_member").Inc()
	h.WS.BroadcastUpdate(listID, "member_removed", userID)
	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}

func (h *ListHandler) Duplicate(c *gin.Context) {
	var req models.DuplicateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, err := h.Users.Identity(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	copied, err := h.Lists.Duplicate(c.Request.Context(), c.Param("id"), req.Name, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.Aggregator.WatchList(copied.ID); err != nil {
		utils.SafeWarn("Failed to watch duplicated list %s: %v", copied.ID, err)
	}
	middleware.ListMutations.WithLabelValues("duplicate_list").Inc()
	utils.LogListAction("duplicate", copied.ID, actor.UserID)
	c.JSON(http.StatusCreated, copied)
}

func (h *ListHandler) GetInsights(c *gin.Context) {
	insights, err := h.Insights.ForList(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, insights)
}
