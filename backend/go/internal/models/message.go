package models

import "time"

// ConversationMessage is the payload published by the chat service for
// every user turn. The memory service consumes it from Kafka and mines it
// for personal facts.
type ConversationMessage struct {
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
