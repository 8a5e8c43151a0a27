package model

import "time"

// Platform identifies the source a message was synced from.
type Platform string

const (
	PlatformMatrix       Platform = "matrix"
	PlatformGoogleGroups Platform = "google_groups"
	PlatformOther        Platform = "other"
)

// Message is one group-chat message plus the classifier signal attached to
// it during ingestion. Immutable once ingested; the engine only reads.
type Message struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	RoomName   string    `json:"room_name"`
	Platform   Platform  `json:"platform"`
	SenderName string    `json:"sender_name"`
	Body       string    `json:"body"`
	Timestamp  time.Time `json:"timestamp"`

	// Classifier signal. Nil score means the message was never classified.
	RelevanceScore   *int     `json:"relevance_score,omitempty"`
	Topics           []string `json:"topics,omitempty"`
	Axis             *string  `json:"axis,omitempty"`
	Need             *string  `json:"need,omitempty"`
	ContributionFlag bool     `json:"contribution_flag"`
}

// Relevance returns the classifier score, 0 when unclassified.
func (m Message) Relevance() int {
	if m.RelevanceScore == nil {
		return 0
	}
	return *m.RelevanceScore
}

// AxisTag returns the contribution axis, "" when untagged.
func (m Message) AxisTag() string {
	if m.Axis == nil {
		return ""
	}
	return *m.Axis
}

// NeedTag returns the contribution need, "" when untagged.
func (m Message) NeedTag() string {
	if m.Need == nil {
		return ""
	}
	return *m.Need
}
