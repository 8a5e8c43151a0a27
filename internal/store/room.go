package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"vibez.app/engine/internal/model"
)

type roomStore struct {
	pool *pgxpool.Pool
}

func newRoomStore(pool *pgxpool.Pool) RoomStore {
	return &roomStore{pool: pool}
}

// List recomputes room aggregates from the messages table. No incremental
// index: correctness over speed, callers cache if they need to.
func (s *roomStore) List(ctx context.Context, from, to time.Time) ([]model.Room, error) {
	query := `
		SELECT room_id,
		       MAX(room_name)              AS room_name,
		       MAX(platform)               AS platform,
		       MAX(ts)                     AS last_seen,
		       COUNT(*)                    AS message_count,
		       COUNT(DISTINCT sender_name) AS sender_count
		FROM messages
		WHERE ts >= $1 AND ts < $2
		GROUP BY room_id
		ORDER BY message_count DESC, room_name ASC`

	rows, err := s.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer rows.Close()

	var rooms []model.Room
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(
			&room.ID,
			&room.Name,
			&room.Platform,
			&room.LastSeen,
			&room.MessageCount,
			&room.SenderCount,
		); err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	return rooms, nil
}
