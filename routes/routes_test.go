package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/idesign4u1/ShoppingListApp/handlers"
	"github.com/idesign4u1/ShoppingListApp/middleware"
	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/services"
	"github.com/idesign4u1/ShoppingListApp/store"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	m := store.NewMemory()
	t.Cleanup(func() { m.Close() })

	lists := services.NewListService(m)
	projector := services.NewProjector(m)
	aggregator := services.NewAggregator(m, projector)
	t.Cleanup(aggregator.Close)

	d := Deps{
		Store:       m,
		Users:       services.NewUserService(m),
		Lists:       lists,
		Items:       services.NewItemService(m, services.NewCategorizerService(m)),
		Invitations: services.NewInvitationService(m, lists, services.NewEmailService("", "", "http://localhost:3000")),
		Chat:        services.NewChatService(m, lists),
		Catalog:     services.NewCatalogService(m),
		Insights:    services.NewInsightsService(m, lists),
		Aggregator:  aggregator,
		WS:          handlers.NewWSHandler(),
	}

	router := gin.New()
	api := router.Group("/api/v1")
	SetupAuthRoutes(api, d)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	SetupListRoutes(protected, d)
	SetupUserRoutes(protected, d)
	SetupInvitationRoutes(protected, d)
	SetupChatRoutes(protected, d)
	SetupCatalogRoutes(protected, d)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func signup(t *testing.T, router *gin.Engine, email, name string) (token string, userID string) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"email": email, "password": "secret123", "name": name,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup returned %d: %s", w.Code, w.Body.String())
	}
	var resp models.AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	return resp.AccessToken, resp.User.ID
}

func TestAuthFlow(t *testing.T) {
	router := newTestRouter(t)

	token, _ := signup(t, router, "anna@example.com", "Anna")
	if token == "" {
		t.Fatal("signup returned no access token")
	}

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "anna@example.com", "password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", w.Code, w.Body.String())
	}
	var resp models.AuthResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.RefreshToken == "" {
		t.Error("login returned no refresh token")
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "anna@example.com", "password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad login returned %d, want 401", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{
		"refresh_token": resp.RefreshToken,
	})
	if w.Code != http.StatusOK {
		t.Errorf("refresh returned %d: %s", w.Code, w.Body.String())
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/lists", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated GET /lists returned %d, want 401", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/lists", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token returned %d, want 401", w.Code)
	}
}

func TestListAndItemFlow(t *testing.T) {
	router := newTestRouter(t)
	token, _ := signup(t, router, "anna@example.com", "Anna")

	w := doJSON(t, router, http.MethodPost, "/api/v1/lists", token, gin.H{"name": "Groceries"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create list returned %d: %s", w.Code, w.Body.String())
	}
	var list models.ShoppingList
	json.Unmarshal(w.Body.Bytes(), &list)

	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/v1/lists/%s/budget", list.ID), token, gin.H{"budget": 50.0})
	if w.Code != http.StatusOK {
		t.Fatalf("set budget returned %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/lists/%s/items", list.ID), token, gin.H{
		"name": "Milk", "quantity": 2, "price": 1.5,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create item returned %d: %s", w.Code, w.Body.String())
	}
	var item models.Item
	json.Unmarshal(w.Body.Bytes(), &item)
	if item.Category != "Dairy" {
		t.Errorf("item category = %q, want auto-resolved Dairy", item.Category)
	}

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/lists/%s/items/%s/toggle", list.ID, item.ID), token, gin.H{})
	if w.Code != http.StatusOK {
		t.Fatalf("toggle returned %d: %s", w.Code, w.Body.String())
	}
	var toggled models.Item
	json.Unmarshal(w.Body.Bytes(), &toggled)
	if !toggled.IsCompleted {
		t.Error("item not completed after toggle")
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/lists/"+list.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get list returned %d: %s", w.Code, w.Body.String())
	}
	var detail struct {
		List         models.ShoppingList `json:"list"`
		BudgetStatus models.BudgetStatus `json:"budget_status"`
	}
	json.Unmarshal(w.Body.Bytes(), &detail)
	if detail.List.ID != list.ID {
		t.Errorf("detail list id = %q, want %q", detail.List.ID, list.ID)
	}

	// A second account cannot see the list.
	otherToken, _ := signup(t, router, "ben@example.com", "Ben")
	w = doJSON(t, router, http.MethodGet, "/api/v1/lists/"+list.ID, otherToken, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("foreign get returned %d, want 403", w.Code)
	}
}

func TestInvitationFlow(t *testing.T) {
	router := newTestRouter(t)
	annaToken, _ := signup(t, router, "anna@example.com", "Anna")
	benToken, _ := signup(t, router, "ben@example.com", "Ben")

	w := doJSON(t, router, http.MethodPost, "/api/v1/lists", annaToken, gin.H{"name": "Groceries"})
	var list models.ShoppingList
	json.Unmarshal(w.Body.Bytes(), &list)

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/lists/%s/invite", list.ID), annaToken, gin.H{
		"email": "ben@example.com",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("invite returned %d: %s", w.Code, w.Body.String())
	}
	var invitation models.Invitation
	json.Unmarshal(w.Body.Bytes(), &invitation)

	// The duplicate is rejected with a conflict.
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/lists/%s/invite", list.ID), annaToken, gin.H{
		"email": "ben@example.com",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate invite returned %d, want 409", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/invitations", benToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pending invitations returned %d: %s", w.Code, w.Body.String())
	}
	var pending []models.Invitation
	json.Unmarshal(w.Body.Bytes(), &pending)
	if len(pending) != 1 {
		t.Fatalf("pending invitations = %d, want 1", len(pending))
	}

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/invitations/%s/accept", invitation.ID), benToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept returned %d: %s", w.Code, w.Body.String())
	}

	// Ben is a member now.
	w = doJSON(t, router, http.MethodGet, "/api/v1/lists/"+list.ID, benToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("get after accept returned %d: %s", w.Code, w.Body.String())
	}
}
