package handlers

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestBroadcastScopedToList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewWSHandler()
	defer h.M.Close()

	router := gin.New()
	router.GET("/ws/lists/:id", h.HandleWS)
	srv := httptest.NewServer(router)
	defer srv.Close()

	base := "ws" + strings.TrimPrefix(srv.URL, "http")

	// Concurrent upgrades must each keep their own list scope.
	conns := make([]*websocket.Conn, 2)
	var wg sync.WaitGroup
	for i, path := range []string{"/ws/lists/l1?user_id=u1", "/ws/lists/l2?user_id=u2"} {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			conn, _, err := websocket.DefaultDialer.Dial(base+path, nil)
			if err != nil {
				t.Errorf("dial %s: %v", path, err)
				return
			}
			conns[i] = conn
		}(i, path)
	}
	wg.Wait()
	if conns[0] == nil || conns[1] == nil {
		t.Fatal("dial failed")
	}
	defer conns[0].Close()
	defer conns[1].Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.M.Len() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("sessions registered = %d, want 2", h.M.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}

	h.BroadcastUpdate("l1", "item_added", "u1")

	conns[0].SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conns[0].ReadMessage()
	if err != nil {
		t.Fatalf("l1 client got no broadcast: %v", err)
	}
	if !strings.Contains(string(msg), "item_added") {
		t.Errorf("broadcast = %s, want item_added", msg)
	}

	conns[1].SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, msg, err := conns[1].ReadMessage(); err == nil {
		t.Errorf("l2 client received a broadcast for l1: %s", msg)
	}
}
