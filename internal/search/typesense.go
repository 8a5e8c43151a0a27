// Package search holds the Typesense-backed message index: a searcher
// for query serving and an indexer the worker uses to keep the
// collection in step with the message store.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"
	"github.com/typesense/typesense-go/v4/typesense/api/pointer"

	"vibez.app/engine/internal/engine"
	"vibez.app/engine/internal/model"
)

type Typesense struct {
	client     *typesense.Client
	collection string
}

func New(url, apiKey, collection string) *Typesense {
	if collection == "" {
		collection = "messages"
	}
	client := typesense.NewClient(
		typesense.WithServer(url),
		typesense.WithAPIKey(apiKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)
	return &Typesense{client: client, collection: collection}
}

// EnsureCollection creates the message collection if it does not exist.
func (t *Typesense) EnsureCollection(ctx context.Context) error {
	if _, err := t.client.Collection(t.collection).Retrieve(ctx); err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: t.collection,
		Fields: []api.Field{
			{Name: "room_id", Type: "string", Facet: pointer.True()},
			{Name: "room_name", Type: "string"},
			{Name: "platform", Type: "string", Facet: pointer.True()},
			{Name: "sender_name", Type: "string"},
			{Name: "body", Type: "string"},
			{Name: "ts", Type: "int64", Sort: pointer.True()},
			{Name: "relevance_score", Type: "int32", Optional: pointer.True()},
			{Name: "topics", Type: "string[]", Optional: pointer.True()},
			{Name: "contribution_flag", Type: "bool"},
		},
		DefaultSortingField: pointer.String("ts"),
	}
	if _, err := t.client.Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("creating %s collection: %w", t.collection, err)
	}
	return nil
}

type document struct {
	ID               string   `json:"id"`
	RoomID           string   `json:"room_id"`
	RoomName         string   `json:"room_name"`
	Platform         string   `json:"platform"`
	SenderName       string   `json:"sender_name"`
	Body             string   `json:"body"`
	TS               int64    `json:"ts"`
	RelevanceScore   int      `json:"relevance_score"`
	Topics           []string `json:"topics"`
	ContributionFlag bool     `json:"contribution_flag"`
}

// Index upserts a batch of messages into the collection.
func (t *Typesense) Index(ctx context.Context, messages []model.Message) error {
	if len(messages) == 0 {
		return nil
	}

	docs := make([]any, 0, len(messages))
	for _, msg := range messages {
		docs = append(docs, document{
			ID:               msg.ID,
			RoomID:           msg.RoomID,
			RoomName:         msg.RoomName,
			Platform:         string(msg.Platform),
			SenderName:       msg.SenderName,
			Body:             msg.Body,
			TS:               msg.Timestamp.Unix(),
			RelevanceScore:   msg.Relevance(),
			Topics:           msg.Topics,
			ContributionFlag: msg.ContributionFlag,
		})
	}

	action := api.Upsert
	_, err := t.client.Collection(t.collection).Documents().Import(ctx, docs, &api.ImportDocumentsParams{
		Action: &action,
	})
	if err != nil {
		return fmt.Errorf("indexing %d messages: %w", len(messages), err)
	}
	slog.InfoContext(ctx, "indexed messages", "count", len(messages))
	return nil
}

// Search implements engine.Searcher with full-text relevance ranking.
func (t *Typesense) Search(ctx context.Context, query string, w engine.Window, limit int) ([]model.Message, error) {
	filter := fmt.Sprintf("ts:<%d", w.End.Unix())
	if !w.Start.IsZero() {
		filter = fmt.Sprintf("ts:>=%d && ts:<%d", w.Start.Unix(), w.End.Unix())
	}

	params := &api.SearchCollectionParams{
		Q:        pointer.String(query),
		QueryBy:  pointer.String("body,sender_name,room_name"),
		FilterBy: pointer.String(filter),
		SortBy:   pointer.String("_text_match:desc,ts:desc"),
		PerPage:  pointer.Int(limit),
	}
	result, err := t.client.Collection(t.collection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", t.collection, err)
	}
	if result.Hits == nil {
		return []model.Message{}, nil
	}

	messages := make([]model.Message, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		messages = append(messages, fromDocument(*hit.Document))
	}
	return messages, nil
}

func fromDocument(doc map[string]any) model.Message {
	msg := model.Message{
		ID:         str(doc["id"]),
		RoomID:     str(doc["room_id"]),
		RoomName:   str(doc["room_name"]),
		Platform:   model.Platform(str(doc["platform"])),
		SenderName: str(doc["sender_name"]),
		Body:       str(doc["body"]),
	}
	if ts, ok := doc["ts"].(float64); ok {
		msg.Timestamp = time.Unix(int64(ts), 0).UTC()
	}
	if score, ok := doc["relevance_score"].(float64); ok {
		n := int(score)
		msg.RelevanceScore = &n
	}
	if topics, ok := doc["topics"].([]any); ok {
		for _, topic := range topics {
			msg.Topics = append(msg.Topics, str(topic))
		}
	}
	if flag, ok := doc["contribution_flag"].(bool); ok {
		msg.ContributionFlag = flag
	}
	return msg
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
