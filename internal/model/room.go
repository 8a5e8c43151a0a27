package model

import "time"

// Room is a cached aggregate over messages, recomputed per query.
type Room struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Platform     Platform  `json:"platform"`
	LastSeen     time.Time `json:"last_seen"`
	MessageCount int       `json:"message_count"`
	SenderCount  int       `json:"sender_count"`
}
