package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/idesign4u1/ShoppingListApp/middleware"
	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/services"
)

type ChatHandler struct {
	Chat  *services.ChatService
	Users *services.UserService
	WS    *WSHandler
}

// conversationID maps the route parameter to a conversation: a list id,
// or the shared global room.
func conversationID(c *gin.Context) string {
	id := c.Param("id")
	if id == "" || id == models.GlobalConversation {
		return models.GlobalConversation
	}
	return id
}

func (h *ChatHandler) Send(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sender, err := h.Users.Identity(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	message, err := h.Chat.Send(c.Request.Context(), conversationID(c), sender, req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(message.ListID, "chat_message", sender.UserID)
	c.JSON(http.StatusCreated, message)
}

func (h *ChatHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.Chat.History(c.Request.Context(), conversationID(c), middleware.GetUserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}
