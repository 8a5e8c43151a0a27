package model

import "time"

// RoomStats is the per-room activity breakdown for the stats dashboard.
type RoomStats struct {
	RoomID   string    `json:"room_id"`
	RoomName string    `json:"room_name"`
	Platform Platform  `json:"platform"`
	Messages int       `json:"messages"`
	People   int       `json:"people"`
	LastSeen time.Time `json:"last_seen"`
}

// PlatformStats is the per-source breakdown.
type PlatformStats struct {
	Platform Platform `json:"platform"`
	Messages int      `json:"messages"`
	Rooms    int      `json:"rooms"`
}

// StatsSnapshot is the volume/activity view over a long window.
type StatsSnapshot struct {
	Days          int             `json:"days"`
	GeneratedAt   time.Time       `json:"generated_at"`
	TotalMessages int             `json:"total_messages"`
	TotalRooms    int             `json:"total_rooms"`
	TotalPeople   int             `json:"total_people"`
	Rooms         []RoomStats     `json:"rooms"`
	Platforms     []PlatformStats `json:"platforms"`
}
