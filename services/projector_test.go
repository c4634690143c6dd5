package services

import (
	"context"
	"testing"
	"time"

	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/store"
)

func TestListItemsView(t *testing.T) {
	m := store.NewMemory()
	defer m.Close()
	ctx := context.Background()

	projector := NewProjector(m)
	view, err := projector.ListItems("l1")
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	defer view.Cancel()

	if snapshot := recvView(t, view); len(snapshot) != 0 {
		t.Fatalf("initial snapshot has %d items, want 0", len(snapshot))
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.Set(ctx, store.Items, "i1", models.Item{ID: "i1", ListID: "l1", Name: "Milk", Category: "Dairy", CreatedAt: base})
	if snapshot := recvView(t, view); len(snapshot) != 1 || snapshot[0].Name != "Milk" {
		t.Fatalf("snapshot = %v, want just Milk", snapshot)
	}

	// A newer item in the same category sorts first.
	m.Set(ctx, store.Items, "i2", models.Item{ID: "i2", ListID: "l1", Name: "Cheese", Category: "Dairy", CreatedAt: base.Add(time.Minute)})
	snapshot := recvView(t, view)
	if len(snapshot) != 2 || snapshot[0].Name != "Cheese" {
		t.Fatalf("snapshot = %v, want Cheese first", snapshot)
	}

	// Items of other lists never show up.
	m.Set(ctx, store.Items, "i3", models.Item{ID: "i3", ListID: "l2", Name: "Soap"})
	if snapshot := recvView(t, view); len(snapshot) != 2 {
		t.Fatalf("snapshot has %d items after unrelated write, want 2", len(snapshot))
	}

	last, ok := view.Last()
	if !ok {
		t.Error("Last reports stale on a live view")
	}
	if len(last) != 2 {
		t.Errorf("Last = %v, want 2 items", last)
	}
}

func TestViewDropsUndecodableAndDedupes(t *testing.T) {
	m := store.NewMemory()
	defer m.Close()
	ctx := context.Background()

	m.Set(ctx, store.Items, "good", models.Item{ID: "good", ListID: "l1", Name: "Milk"})
	// Wrong type for quantity; the document decodes into models.Item with an error.
	m.Set(ctx, store.Items, "bad", map[string]any{"id": "bad", "listId": "l1", "quantity": "three"})
	// Two documents carrying the same logical id collapse to one.
	m.Set(ctx, store.Items, "dup", models.Item{ID: "good", ListID: "l1", Name: "Milk"})

	view, err := NewProjector(m).ListItems("l1")
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	defer view.Cancel()

	snapshot := recvView(t, view)
	if len(snapshot) != 1 {
		t.Fatalf("snapshot = %v, want the single decodable item", snapshot)
	}
	if snapshot[0].ID != "good" {
		t.Errorf("snapshot[0].ID = %q, want %q", snapshot[0].ID, "good")
	}
}

func TestUserListsView(t *testing.T) {
	m := store.NewMemory()
	defer m.Close()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.Set(ctx, store.Lists, "l1", models.ShoppingList{ID: "l1", Name: "Old", Members: []string{"u1"}, UpdatedAt: base})
	m.Set(ctx, store.Lists, "l2", models.ShoppingList{ID: "l2", Name: "Fresh", Members: []string{"u1", "u2"}, UpdatedAt: base.Add(time.Hour)})
	m.Set(ctx, store.Lists, "l3", models.ShoppingList{ID: "l3", Name: "Foreign", Members: []string{"u2"}, UpdatedAt: base})

	view, err := NewProjector(m).UserLists("u1")
	if err != nil {
		t.Fatalf("UserLists failed: %v", err)
	}
	defer view.Cancel()

	snapshot := recvView(t, view)
	if len(snapshot) != 2 {
		t.Fatalf("snapshot has %d lists, want 2", len(snapshot))
	}
	if snapshot[0].Name != "Fresh" || snapshot[1].Name != "Old" {
		t.Errorf("order = %q, %q; want newest first", snapshot[0].Name, snapshot[1].Name)
	}
}

func TestPendingInvitationsView(t *testing.T) {
	m := store.NewMemory()
	defer m.Close()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.Set(ctx, store.Invitations, "i1", models.Invitation{ID: "i1", InviteeEmail: "ben@example.com", Status: models.InvitationPending, CreatedAt: base})
	m.Set(ctx, store.Invitations, "i2", models.Invitation{ID: "i2", InviteeEmail: "ben@example.com", Status: models.InvitationPending, CreatedAt: base.Add(time.Hour)})
	m.Set(ctx, store.Invitations, "i3", models.Invitation{ID: "i3", InviteeEmail: "ben@example.com", Status: models.InvitationDeclined, CreatedAt: base})
	m.Set(ctx, store.Invitations, "i4", models.Invitation{ID: "i4", InviteeEmail: "other@example.com", Status: models.InvitationPending, CreatedAt: base})

	view, err := NewProjector(m).PendingInvitations("ben@example.com")
	if err != nil {
		t.Fatalf("PendingInvitations failed: %v", err)
	}
	defer view.Cancel()

	snapshot := recvView(t, view)
	if len(snapshot) != 2 {
		t.Fatalf("snapshot has %d invitations, want 2", len(snapshot))
	}
	if snapshot[0].ID != "i2" || snapshot[1].ID != "i1" {
		t.Errorf("order = %q, %q; want newest first", snapshot[0].ID, snapshot[1].ID)
	}
}

func TestConversationView(t *testing.T) {
	m := store.NewMemory()
	defer m.Close()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.Set(ctx, store.Chats, "m2", models.ChatMessage{ID: "m2", ListID: "l1", Text: "second", Timestamp: base.Add(time.Minute)})
	m.Set(ctx, store.Chats, "m1", models.ChatMessage{ID: "m1", ListID: "l1", Text: "first", Timestamp: base})

	view, err := NewProjector(m).Conversation("l1")
	if err != nil {
		t.Fatalf("Conversation failed: %v", err)
	}
	defer view.Cancel()

	snapshot := recvView(t, view)
	if len(snapshot) != 2 || snapshot[0].Text != "first" || snapshot[1].Text != "second" {
		t.Errorf("snapshot = %v, want oldest first", snapshot)
	}
}

func TestViewGoesStaleOnStoreClose(t *testing.T) {
	m := store.NewMemory()

	view, err := NewProjector(m).ListItems("l1")
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	recvView(t, view)

	m.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := view.Last(); !ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("view never went stale after the store closed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func recvView[T any](t *testing.T, view *View[T]) []T {
	t.Helper()
	select {
	case snapshot, ok := <-view.C:
		if !ok {
			t.Fatal("view channel closed unexpectedly")
		}
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a view snapshot")
		return nil
	}
}
