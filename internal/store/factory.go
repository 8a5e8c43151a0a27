package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Stores provides access to all store implementations over one pool.
type Stores struct {
	pool *pgxpool.Pool
}

func NewStores(pool *pgxpool.Pool) *Stores {
	return &Stores{pool: pool}
}

func (s *Stores) Messages() MessageStore {
	return newMessageStore(s.pool)
}

func (s *Stores) Rooms() RoomStore {
	return newRoomStore(s.pool)
}

func (s *Stores) Reports() ReportStore {
	return newReportStore(s.pool)
}
