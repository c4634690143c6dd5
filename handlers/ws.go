package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"

	"github.com/idesign4u1/ShoppingListApp/utils"
)

type WSHandler struct {
	M *melody.Melody
}

func NewWSHandler() *WSHandler {
	m := melody.New()

	m.Config.MaxMessageSize = 1024 * 1024

	// Keep-Alive Configuration (Critical for cloud hosting behind proxies)
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		listID, _ := s.Get("list_id")
		userID, _ := s.Get("user_id")
		utils.LogWebSocket("connect", toString(listID), toString(userID))
	})

	m.HandleDisconnect(func(s *melody.Session) {
		listID, _ := s.Get("list_id")
		userID, _ := s.Get("user_id")
		utils.LogWebSocket("disconnect", toString(listID), toString(userID))
	})

	m.HandleError(func(s *melody.Session, err error) {
		utils.SafeError("WebSocket error: %v", err)
	})

	return &WSHandler{M: m}
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// HandleWS upgrades the request and scopes the session to one list room.
func (h *WSHandler) HandleWS(c *gin.Context) {
	keys := map[string]interface{}{
		"list_id": c.Param("id"),
		"user_id": c.Query("user_id"),
	}

	if err := h.M.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		utils.SafeError("Failed to upgrade websocket: %v", err)
	}
}

// BroadcastUpdate signals every client watching the given list that its
// state changed; clients refetch through the projector views.
func (h *WSHandler) BroadcastUpdate(listID string, updateType string, userWhoUpdated string) {
	msg := []byte(`{"type": "` + updateType + `", "user": "` + userWhoUpdated + `"}`)

	err := h.M.BroadcastFilter(msg, func(q *melody.Session) bool {
		id, exists := q.Get("list_id")
		return exists && id == listID
	})
	if err != nil {
		utils.SafeWarn("Error broadcasting to list %s: %v", listID, err)
	}
}
