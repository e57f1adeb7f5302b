// Package model contains domain models passed between layers.
package model

import "time"

// ScoreKey identifies the single score record for a student at a station.
type ScoreKey struct {
	StationID string
	StudentID string
}

// ItemScore holds the marked state of one checklist item.
type ItemScore struct {
	Score      float64   `json:"score"`
	MaxPoints  float64   `json:"max_points"`
	IsCritical bool      `json:"is_critical"`
	MarkedAt   time.Time `json:"marked_at"`
}

// ScoreRecord is the examiner's working record for one (station, student)
// pair. There is at most one record per pair; mutations always clear
// Synced and refresh UpdatedAt. Records are never deleted locally.
type ScoreRecord struct {
	StationID string `json:"station_id"`
	StudentID string `json:"student_id"`

	// Items maps checklist item ids to their marked state. Last write
	// per item wins.
	Items map[string]ItemScore `json:"items"`

	// GlobalRating is the examiner's ordinal overall rating, nil until set.
	GlobalRating *int `json:"global_rating,omitempty"`

	// LocalUUID identifies this record to the server across replays.
	LocalUUID string `json:"local_uuid"`
	// ClientID identifies the device the record was marked on.
	ClientID string `json:"client_id"`

	Synced    bool      `json:"synced"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the record's identity.
func (r *ScoreRecord) Key() ScoreKey {
	return ScoreKey{StationID: r.StationID, StudentID: r.StudentID}
}

// Clone returns a deep copy. Queue payloads are snapshots, never live
// references to the working record.
func (r *ScoreRecord) Clone() *ScoreRecord {
	cp := *r
	cp.Items = make(map[string]ItemScore, len(r.Items))
	for id, item := range r.Items {
		cp.Items[id] = item
	}
	if r.GlobalRating != nil {
		v := *r.GlobalRating
		cp.GlobalRating = &v
	}
	return &cp
}
