package services

import (
	"log"
	"sort"
	"sync"

	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/store"
)

// View is a live, decoded projection of a store query. Every change to the
// underlying collection delivers a fresh snapshot on C; only the latest
// snapshot is kept when the consumer lags. Callers must Cancel the view
// when they are done with it.
type View[T any] struct {
	C <-chan []T

	sub *store.Subscription
	out chan []T

	mu    sync.Mutex
	last  []T
	stale bool
}

// Last returns the most recently delivered snapshot. ok is false once the
// underlying stream has failed, meaning the snapshot may be stale.
func (v *View[T]) Last() (items []T, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last, !v.stale
}

// Cancel stops the view and releases its store subscription.
func (v *View[T]) Cancel() {
	v.sub.Cancel()
}

// project opens a live view over q. Raw documents are decoded into T;
// documents that fail to decode are dropped with a log line rather than
// poisoning the snapshot. key dedupes by document identity, sort (optional)
// orders the snapshot for presentation.
func project[T any](st store.Store, q store.Query, key func(T) string, sort func([]T) []T) (*View[T], error) {
	sub, err := st.Subscribe(q)
	if err != nil {
		return nil, err
	}

	v := &View[T]{sub: sub, out: make(chan []T, 1)}
	v.C = v.out

	go func() {
		defer close(v.out)
		for docs := range sub.C {
			snapshot := decodeAll[T](q.Collection, docs, key)
			if sort != nil {
				snapshot = sort(snapshot)
			}

			v.mu.Lock()
			v.last = snapshot
			v.mu.Unlock()

			// Replace a pending snapshot instead of blocking the stream.
			for {
				select {
				case v.out <- snapshot:
				default:
					select {
					case <-v.out:
					default:
					}
					continue
				}
				break
			}
		}
		if sub.Err() != nil {
			v.mu.Lock()
			v.stale = true
			v.mu.Unlock()
			log.Printf("⚠️ View on %s went stale: %v", q.Collection, sub.Err())
		}
	}()

	return v, nil
}

func decodeAll[T any](collection string, docs []store.Document, key func(T) string) []T {
	out := make([]T, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		var item T
		if err := doc.Decode(&item); err != nil {
			log.Printf("⚠️ Dropping undecodable %s document %s: %v", collection, doc.ID, err)
			continue
		}
		k := key(item)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, item)
	}
	return out
}

// Projector builds client-ready live views over the raw document streams.
type Projector struct {
	store store.Store
}

func NewProjector(st store.Store) *Projector {
	return &Projector{store: st}
}

// ListItems projects the live item set of a list, in presentation order.
func (p *Projector) ListItems(listID string) (*View[models.Item], error) {
	q := store.Query{
		Collection: store.Items,
		Conds:      []store.Cond{store.Where("listId", store.Eq, listID)},
	}
	return project(p.store, q,
		func(i models.Item) string { return i.ID },
		SortItems)
}

// UserLists projects every list the user is a member of.
func (p *Projector) UserLists(userID string) (*View[models.ShoppingList], error) {
	q := store.Query{
		Collection: store.Lists,
		Conds:      []store.Cond{store.Where("members", store.ArrayContains, userID)},
	}
	return project(p.store, q,
		func(l models.ShoppingList) string { return l.ID },
		sortListsNewestFirst)
}

// PendingInvitations projects the pending invitations addressed to an email.
func (p *Projector) PendingInvitations(email string) (*View[models.Invitation], error) {
	q := store.Query{
		Collection: store.Invitations,
		Conds: []store.Cond{
			store.Where("inviteeEmail", store.Eq, email),
			store.Where("status", store.Eq, string(models.InvitationPending)),
		},
	}
	return project(p.store, q,
		func(i models.Invitation) string { return i.ID },
		sortInvitationsNewestFirst)
}

// Conversation projects the chat history of a list, oldest first. Pass
// models.GlobalConversation for the shared global room.
func (p *Projector) Conversation(listID string) (*View[models.ChatMessage], error) {
	q := store.Query{
		Collection: store.Chats,
		Conds:      []store.Cond{store.Where("listId", store.Eq, listID)},
	}
	return project(p.store, q,
		func(m models.ChatMessage) string { return m.ID },
		sortMessagesOldestFirst)
}

func sortListsNewestFirst(lists []models.ShoppingList) []models.ShoppingList {
	sorted := make([]models.ShoppingList, len(lists))
	copy(sorted, lists)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})
	return sorted
}

func sortInvitationsNewestFirst(invitations []models.Invitation) []models.Invitation {
	sorted := make([]models.Invitation, len(invitations))
	copy(sorted, invitations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}

func sortMessagesOldestFirst(messages []models.ChatMessage) []models.ChatMessage {
	sorted := make([]models.ChatMessage, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}
