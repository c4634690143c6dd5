package store

import (
	"fmt"
	"sync"
)

// Collection names used across the app.
const (
	Lists       = "lists"
	Items       = "items"
	Invitations = "invitations"
	Chats       = "chats"
	Users       = "users"
	Sessions    = "sessions"
	Catalog     = "catalog"
	Categories  = "categories"
)

var (
	schemaMu sync.RWMutex
	schemas  = map[string]map[string]struct{}{}
)

// RegisterSchema declares the writable fields of a collection. Patches
// against unregistered collections or unknown fields are rejected.
func RegisterSchema(collection string, fields ...string) {
	schemaMu.Lock()
	defer schemaMu.Unlock()
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	schemas[collection] = set
}

func validatePatch(collection string, p Patch) error {
	schemaMu.RLock()
	defer schemaMu.RUnlock()
	fields, ok := schemas[collection]
	if !ok {
		return fmt.Errorf("store: no schema registered for collection %q", collection)
	}
	for f := range p {
		if _, ok := fields[f]; !ok {
			return fmt.Errorf("store: field %q is not in the %q schema", f, collection)
		}
	}
	return nil
}

func init() {
	RegisterSchema(Lists,
		"id", "name", "description", "ownerId", "ownerEmail",
		"members", "memberEmails", "itemCount", "completedCount",
		"budget", "totalSpent", "estimatedTotal", "currency",
		"createdAt", "updatedAt")
	RegisterSchema(Items,
		"id", "listId", "name", "quantity", "unit", "category", "notes",
		"isCompleted", "completedBy", "completedAt",
		"addedBy", "addedByEmail",
		"assignedTo", "assignedToName",
		"claimedBy", "claimedByName", "claimedAt",
		"status", "price", "estimatedPrice",
		"createdAt", "updatedAt")
	RegisterSchema(Invitations,
		"id", "listId", "listName", "inviterId", "inviterEmail",
		"inviterName", "inviteeEmail", "status", "createdAt")
	RegisterSchema(Chats,
		"id", "listId", "senderId", "senderName", "text", "imageUrl", "timestamp")
	RegisterSchema(Users,
		"id", "email", "name", "avatar", "passwordHash",
		"totpSecret", "totpEnabled", "createdAt", "updatedAt")
	RegisterSchema(Sessions,
		"id", "userId", "refreshToken", "expiresAt", "createdAt")
	RegisterSchema(Catalog,
		"id", "name", "category", "defaultUnit", "estimatedPrice", "popularity")
	RegisterSchema(Categories,
		"id", "keyword", "category", "createdAt")
}
