package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vibez.app/engine/internal/model"
)

type messageStore struct {
	pool *pgxpool.Pool
}

func newMessageStore(pool *pgxpool.Pool) MessageStore {
	return &messageStore{pool: pool}
}

const messageColumns = `id, room_id, room_name, platform, sender_name, body, ts, relevance_score, topics, axis, need, contribution_flag`

func (s *messageStore) List(ctx context.Context, filter MessageFilter, limit, offset int) ([]model.Message, error) {
	where, args := buildMessageWhere(filter)

	order := "ts DESC, id ASC"
	if filter.OrderByRelevance {
		order = "relevance_score DESC NULLS LAST, ts DESC, id ASC"
	}

	query := fmt.Sprintf(
		"SELECT %s FROM messages %s ORDER BY %s LIMIT $%d OFFSET $%d",
		messageColumns, where, order, len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return messages, nil
}

func (s *messageStore) Count(ctx context.Context, filter MessageFilter) (int, error) {
	where, args := buildMessageWhere(filter)

	var count int
	query := "SELECT COUNT(*) FROM messages " + where
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return count, nil
}

func (s *messageStore) DistinctSenders(ctx context.Context, from, to time.Time) (int, error) {
	where, args := buildMessageWhere(MessageFilter{From: from, To: to})

	var count int
	query := "SELECT COUNT(DISTINCT sender_name) FROM messages " + where
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting senders: %w", err)
	}
	return count, nil
}

func buildMessageWhere(filter MessageFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.From.IsZero() {
		conds = append(conds, "ts >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "ts < "+arg(filter.To))
	}
	if filter.Room != nil {
		conds = append(conds, "room_id = "+arg(*filter.Room))
	}
	if filter.MinRelevance != nil {
		conds = append(conds, "relevance_score >= "+arg(*filter.MinRelevance))
	}
	if filter.ContributionOnly {
		conds = append(conds, "contribution_flag = TRUE")
	}
	if len(filter.TextKeywords) > 0 {
		var kwConds []string
		for _, kw := range filter.TextKeywords {
			pattern := arg("%" + strings.ToLower(kw) + "%")
			kwConds = append(kwConds,
				fmt.Sprintf("(LOWER(body) LIKE %s OR LOWER(sender_name) LIKE %s OR LOWER(room_name) LIKE %s)",
					pattern, pattern, pattern))
		}
		conds = append(conds, "("+strings.Join(kwConds, " OR ")+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func scanMessage(rows pgx.Rows) (model.Message, error) {
	var (
		msg       model.Message
		topicsRaw []byte
	)
	if err := rows.Scan(
		&msg.ID,
		&msg.RoomID,
		&msg.RoomName,
		&msg.Platform,
		&msg.SenderName,
		&msg.Body,
		&msg.Timestamp,
		&msg.RelevanceScore,
		&topicsRaw,
		&msg.Axis,
		&msg.Need,
		&msg.ContributionFlag,
	); err != nil {
		return model.Message{}, fmt.Errorf("scanning message: %w", err)
	}
	if len(topicsRaw) > 0 {
		if err := json.Unmarshal(topicsRaw, &msg.Topics); err != nil {
			return model.Message{}, fmt.Errorf("decoding topics for message %s: %w", msg.ID, err)
		}
	}
	return msg, nil
}
