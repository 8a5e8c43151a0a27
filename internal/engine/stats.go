package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"vibez.app/engine/internal/model"
)

// Stats builds the volume dashboard over the lookback window ending at
// now. days <= 0 means all time. An empty store yields a snapshot with
// zero totals, never an error.
func (e *Engine) Stats(ctx context.Context, now time.Time, days int) (*model.StatsSnapshot, error) {
	w := NewWindow(days, now)

	rooms, err := e.rooms.List(ctx, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("loading room aggregates: %w", err)
	}

	snapshot := &model.StatsSnapshot{
		Days:        days,
		GeneratedAt: now,
		Rooms:       make([]model.RoomStats, 0, len(rooms)),
		Platforms:   []model.PlatformStats{},
	}

	platformIndex := make(map[model.Platform]int)
	for _, room := range rooms {
		snapshot.TotalMessages += room.MessageCount
		snapshot.Rooms = append(snapshot.Rooms, model.RoomStats{
			RoomID:   room.ID,
			RoomName: room.Name,
			Platform: room.Platform,
			Messages: room.MessageCount,
			People:   room.SenderCount,
			LastSeen: room.LastSeen,
		})

		i, ok := platformIndex[room.Platform]
		if !ok {
			i = len(snapshot.Platforms)
			platformIndex[room.Platform] = i
			snapshot.Platforms = append(snapshot.Platforms, model.PlatformStats{Platform: room.Platform})
		}
		snapshot.Platforms[i].Messages += room.MessageCount
		snapshot.Platforms[i].Rooms++
	}
	snapshot.TotalRooms = len(rooms)

	// Per-room sender counts overlap across rooms, so the people total
	// comes from a distinct count over the same window.
	if snapshot.TotalMessages > 0 {
		people, err := e.messages.DistinctSenders(ctx, w.Start, w.End)
		if err != nil {
			return nil, fmt.Errorf("counting people: %w", err)
		}
		snapshot.TotalPeople = people
	}

	sort.Slice(snapshot.Platforms, func(i, j int) bool {
		if snapshot.Platforms[i].Messages != snapshot.Platforms[j].Messages {
			return snapshot.Platforms[i].Messages > snapshot.Platforms[j].Messages
		}
		return snapshot.Platforms[i].Platform < snapshot.Platforms[j].Platform
	})
	return snapshot, nil
}
