package model

import (
	"time"
)

// Thread is a conversation container with exactly two participants.
// Participants are fixed at creation; the only later mutation is the
// updated_at touch when a message is written.
type Thread struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastMessage  *Message  `json:"last_message,omitempty"`
}

// ThreadRequest is the request body for thread find-or-create and delete.
type ThreadRequest struct {
	Participants []string `json:"participants"`
}

// ListThreadsResponse is the response for listing a user's threads.
type ListThreadsResponse struct {
	Threads []Thread `json:"threads"`
	Total   int      `json:"total"`
}
