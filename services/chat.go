package services

import (
	"context"
	"time"

	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/store"

	"github.com/google/uuid"
)

type ChatService struct {
	store store.Store
	lists *ListService
}

func NewChatService(st store.Store, lists *ListService) *ChatService {
	return &ChatService{store: st, lists: lists}
}

// Send appends a message to a list conversation or the global room. List
// conversations require membership; the global room is open to everyone.
func (s *ChatService) Send(ctx context.Context, listID string, sender models.Identity, req models.SendMessageRequest) (*models.ChatMessage, error) {
	if req.Text == "" && req.ImageURL == nil {
		return nil, models.ValidationFailed("message needs text or an image")
	}
	if listID != models.GlobalConversation {
		if _, err := s.lists.Get(ctx, listID, sender.UserID); err != nil {
			return nil, err
		}
	}

	message := &models.ChatMessage{
		ID:         uuid.New().String(),
		ListID:     listID,
		SenderID:   sender.UserID,
		SenderName: sender.Name,
		Text:       req.Text,
		ImageURL:   req.ImageURL,
		Timestamp:  time.Now(),
	}
	if err := s.store.Set(ctx, store.Chats, message.ID, message); err != nil {
		return nil, models.StoreUnavailable(err)
	}
	return message, nil
}

// History returns the conversation one-shot, oldest first. Live consumers
// use the projector's Conversation view.
func (s *ChatService) History(ctx context.Context, listID, userID string, limit int) ([]models.ChatMessage, error) {
	if listID != models.GlobalConversation {
		if _, err := s.lists.Get(ctx, listID, userID); err != nil {
			return nil, err
		}
	}

	docs, err := s.store.Query(ctx, store.Query{
		Collection: store.Chats,
		Conds:      []store.Cond{store.Where("listId", store.Eq, listID)},
	})
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}

	messages := make([]models.ChatMessage, 0, len(docs))
	for _, doc := range docs {
		var message models.ChatMessage
		if err := doc.Decode(&message); err != nil {
			continue
		}
		messages = append(messages, message)
	}
	messages = sortMessagesOldestFirst(messages)
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}
