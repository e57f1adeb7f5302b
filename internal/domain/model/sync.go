package model

import (
	"encoding/json"
	"time"
)

// EntryKind discriminates sync queue payloads.
type EntryKind string

// Queue entry kinds.
const (
	KindItemScore    EntryKind = "item-score-update"
	KindGlobalRating EntryKind = "global-rating-update"
	KindAPICall      EntryKind = "generic-api-call"
)

// SyncQueueEntry is one durable, not-yet-confirmed mutation awaiting
// remote replay. Entries are replayed in insertion order and removed
// only after confirmed acceptance or retry exhaustion.
type SyncQueueEntry struct {
	ID        int64           `json:"id"`
	Kind      EntryKind       `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	CreatedAt time.Time       `json:"created_at"`
}

// ItemScorePayload is the value-semantics snapshot enqueued for a single
// checklist item mark.
type ItemScorePayload struct {
	StationID       string  `json:"station_id"`
	StudentID       string  `json:"student_id"`
	StationScoreID  string  `json:"station_score_id"`
	ChecklistItemID string  `json:"checklist_item_id"`
	Score           float64 `json:"score"`
	MaxPoints       float64 `json:"max_points"`
}

// GlobalRatingPayload is the snapshot enqueued for a global rating change.
type GlobalRatingPayload struct {
	StationID      string `json:"station_id"`
	StudentID      string `json:"student_id"`
	StationScoreID string `json:"station_score_id"`
	Rating         int    `json:"rating"`
}

// APICallPayload is the snapshot enqueued for a generic replayable call,
// e.g. a final submit.
type APICallPayload struct {
	Method string          `json:"method"`
	Path   string          `json:"path"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// DeadLetter preserves an abandoned queue entry for manual recovery.
// Entries land here after exhausting the retry ceiling, immediately
// before removal from the queue.
type DeadLetter struct {
	ID          int64           `json:"id"`
	EntryID     int64           `json:"entry_id"`
	Kind        EntryKind       `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	LastError   string          `json:"last_error"`
	AbandonedAt time.Time       `json:"abandoned_at"`
}
