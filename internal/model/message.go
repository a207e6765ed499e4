package model

import (
	"time"
)

// Message is a single text item owned by a thread. The sender must be one
// of the thread's two participants. is_read starts false and can only be
// flipped to true, by the receiver.
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread"`
	SenderID  string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}

// CreateMessageRequest is the request body to create a message.
type CreateMessageRequest struct {
	ThreadID string `json:"thread"`
	SenderID string `json:"sender"`
	Text     string `json:"text"`
}

// ListMessagesResponse is the response for listing a thread's messages.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}

// MarkReadRequest is the request body to mark messages as read.
type MarkReadRequest struct {
	MessageIDs []string `json:"message_ids"`
}

// MarkReadResponse reports how many messages were updated.
type MarkReadResponse struct {
	UpdatedMessagesAmount int `json:"updated_messages_amount"`
}

// UnreadAmountRequest asks for a user's unread message count.
type UnreadAmountRequest struct {
	UserID string `json:"user_id"`
}

// UnreadAmountResponse carries a user's unread message count.
type UnreadAmountResponse struct {
	UserID               string `json:"user_id"`
	UnreadMessagesAmount int    `json:"unread_messages_amount"`
}
