package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/FawziYas/osce-project/internal/domain/model"
)

// RecordScore loads-or-creates the score record for (stationID,
// studentID), applies the item mutation and enqueues the matching sync
// entry. Both writes share one transaction: if the process dies
// mid-call, either both are persisted or neither is.
func (s *Store) RecordScore(ctx context.Context, stationID, studentID, itemID string, score, maxPoints float64, isCritical bool) (rec *model.ScoreRecord, err error) {
	defer func(start time.Time) { err = observe("record_score", start, err) }(s.clock.Now())

	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	rec, err = s.loadOrCreate(ctx, tx, stationID, studentID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	rec.Items[itemID] = model.ItemScore{
		Score:      score,
		MaxPoints:  maxPoints,
		IsCritical: isCritical,
		MarkedAt:   now,
	}
	rec.Synced = false
	rec.UpdatedAt = now

	if err = s.upsertRecord(ctx, tx, rec); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(model.ItemScorePayload{
		StationID:       stationID,
		StudentID:       studentID,
		StationScoreID:  rec.LocalUUID,
		ChecklistItemID: itemID,
		Score:           score,
		MaxPoints:       maxPoints,
	})
	if err != nil {
		return nil, storageErr("marshal payload", err)
	}
	if err = s.enqueue(ctx, tx, model.KindItemScore, payload); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, storageErr("commit record score", err)
	}
	return rec, nil
}

// RecordGlobalRating sets the examiner's overall rating, with the same
// single-transaction shape as RecordScore.
func (s *Store) RecordGlobalRating(ctx context.Context, stationID, studentID string, rating int) (rec *model.ScoreRecord, err error) {
	defer func(start time.Time) { err = observe("record_global_rating", start, err) }(s.clock.Now())

	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	rec, err = s.loadOrCreate(ctx, tx, stationID, studentID)
	if err != nil {
		return nil, err
	}

	rec.GlobalRating = &rating
	rec.Synced = false
	rec.UpdatedAt = s.clock.Now()

	if err = s.upsertRecord(ctx, tx, rec); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(model.GlobalRatingPayload{
		StationID:      stationID,
		StudentID:      studentID,
		StationScoreID: rec.LocalUUID,
		Rating:         rating,
	})
	if err != nil {
		return nil, storageErr("marshal payload", err)
	}
	if err = s.enqueue(ctx, tx, model.KindGlobalRating, payload); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, storageErr("commit global rating", err)
	}
	return rec, nil
}

// PutScore upserts a whole record as-is, without queueing anything.
// Used to seed or restore records whose state is already confirmed.
// The store keeps a snapshot; the caller's record is not mutated.
func (s *Store) PutScore(ctx context.Context, rec *model.ScoreRecord) (err error) {
	defer func(start time.Time) { err = observe("put_score", start, err) }(s.clock.Now())

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	cp := rec.Clone()
	if cp.LocalUUID == "" {
		cp.LocalUUID = uuid.NewString()
	}
	if cp.ClientID == "" {
		cp.ClientID = s.clientID
	}
	if err = s.upsertRecord(ctx, tx, cp); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return storageErr("commit put score", err)
	}
	return nil
}

// DeleteScore removes the record under key. Deleting an absent record
// is a no-op.
func (s *Store) DeleteScore(ctx context.Context, key model.ScoreKey) (err error) {
	defer func(start time.Time) { err = observe("delete_score", start, err) }(s.clock.Now())

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM score_records WHERE station_id = ? AND student_id = ?`,
		key.StationID, key.StudentID)
	if err != nil {
		return storageErr("delete score", err)
	}
	return nil
}

// GetScore returns the record under key, or ErrNotFound.
func (s *Store) GetScore(ctx context.Context, key model.ScoreKey) (rec *model.ScoreRecord, err error) {
	defer func(start time.Time) { err = observe("get_score", start, err) }(s.clock.Now())

	var payload string
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM score_records WHERE station_id = ? AND student_id = ?`,
		key.StationID, key.StudentID)
	if err = row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: score %s/%s", ErrNotFound, key.StationID, key.StudentID)
		}
		return nil, storageErr("get score", err)
	}
	return decodeRecord(payload)
}

// ListScores returns every score record, unordered.
func (s *Store) ListScores(ctx context.Context) (recs []*model.ScoreRecord, err error) {
	defer func(start time.Time) { err = observe("list_scores", start, err) }(s.clock.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM score_records`)
	if err != nil {
		return nil, storageErr("list scores", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err = rows.Scan(&payload); err != nil {
			return nil, storageErr("scan score", err)
		}
		rec, decErr := decodeRecord(payload)
		if decErr != nil {
			return nil, decErr
		}
		recs = append(recs, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, storageErr("list scores", err)
	}
	return recs, nil
}

// MarkSynced flips synced=true on the record under key without altering
// item data or the mutation timestamp.
func (s *Store) MarkSynced(ctx context.Context, key model.ScoreKey) (err error) {
	defer func(start time.Time) { err = observe("mark_synced", start, err) }(s.clock.Now())

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var payload string
	row := tx.QueryRowContext(ctx,
		`SELECT payload FROM score_records WHERE station_id = ? AND student_id = ?`,
		key.StationID, key.StudentID)
	if err = row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: score %s/%s", ErrNotFound, key.StationID, key.StudentID)
		}
		return storageErr("mark synced", err)
	}

	rec, err := decodeRecord(payload)
	if err != nil {
		return err
	}
	rec.Synced = true

	encoded, err := json.Marshal(rec)
	if err != nil {
		return storageErr("marshal record", err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE score_records SET payload = ?, synced = 1 WHERE station_id = ? AND student_id = ?`,
		string(encoded), key.StationID, key.StudentID); err != nil {
		return storageErr("mark synced", err)
	}
	if err = tx.Commit(); err != nil {
		return storageErr("commit mark synced", err)
	}
	return nil
}

func (s *Store) loadOrCreate(ctx context.Context, tx *sql.Tx, stationID, studentID string) (*model.ScoreRecord, error) {
	var payload string
	row := tx.QueryRowContext(ctx,
		`SELECT payload FROM score_records WHERE station_id = ? AND student_id = ?`,
		stationID, studentID)
	err := row.Scan(&payload)
	switch {
	case err == nil:
		return decodeRecord(payload)
	case errors.Is(err, sql.ErrNoRows):
		return &model.ScoreRecord{
			StationID: stationID,
			StudentID: studentID,
			Items:     make(map[string]model.ItemScore),
			LocalUUID: uuid.NewString(),
			ClientID:  s.clientID,
		}, nil
	default:
		return nil, storageErr("load score", err)
	}
}

func (s *Store) upsertRecord(ctx context.Context, tx *sql.Tx, rec *model.ScoreRecord) error {
	encoded, err := json.Marshal(rec)
	if err != nil {
		return storageErr("marshal record", err)
	}
	synced := 0
	if rec.Synced {
		synced = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO score_records (station_id, student_id, payload, synced, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (station_id, student_id)
		DO UPDATE SET payload = excluded.payload, synced = excluded.synced, updated_at = excluded.updated_at`,
		rec.StationID, rec.StudentID, string(encoded), synced, rec.UpdatedAt.UnixNano())
	if err != nil {
		return storageErr("upsert score", err)
	}
	return nil
}

func decodeRecord(payload string) (*model.ScoreRecord, error) {
	var rec model.ScoreRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, storageErr("decode record", err)
	}
	if rec.Items == nil {
		rec.Items = make(map[string]model.ItemScore)
	}
	return &rec, nil
}
