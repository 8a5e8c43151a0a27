package dto

import (
	"time"

	"vibez.app/engine/internal/model"
)

type MessageResponse struct {
	ID               string    `json:"id"`
	RoomID           string    `json:"room_id"`
	RoomName         string    `json:"room_name"`
	Platform         string    `json:"platform"`
	SenderName       string    `json:"sender_name"`
	Body             string    `json:"body"`
	Timestamp        time.Time `json:"timestamp"`
	RelevanceScore   int       `json:"relevance_score"`
	Topics           []string  `json:"topics,omitempty"`
	ContributionFlag bool      `json:"contribution_flag"`
}

func ToMessageResponse(m model.Message) MessageResponse {
	return MessageResponse{
		ID:               m.ID,
		RoomID:           m.RoomID,
		RoomName:         m.RoomName,
		Platform:         string(m.Platform),
		SenderName:       m.SenderName,
		Body:             m.Body,
		Timestamp:        m.Timestamp,
		RelevanceScore:   m.Relevance(),
		Topics:           m.Topics,
		ContributionFlag: m.ContributionFlag,
	}
}

type SearchResponse struct {
	Query   string            `json:"query"`
	Count   int               `json:"count"`
	Results []MessageResponse `json:"results"`
}

func ToSearchResponse(query string, messages []model.Message) SearchResponse {
	results := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		results = append(results, ToMessageResponse(m))
	}
	return SearchResponse{Query: query, Count: len(results), Results: results}
}
