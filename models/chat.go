package models

import "time"

// GlobalConversation is the reserved conversation id shared by all users.
// It lives in the same id space as list ids so chat handling stays uniform.
const GlobalConversation = "global"

// ChatMessage is append-only; messages are never mutated or deleted.
type ChatMessage struct {
	ID         string    `json:"id"`
	ListID     string    `json:"listId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	ImageURL   *string   `json:"imageUrl"`
	Timestamp  time.Time `json:"timestamp"`
}

type SendMessageRequest struct {
	Text     string  `json:"text"`
	ImageURL *string `json:"image_url"`
}
