package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/FawziYas/osce-project/internal/domain/model"
	"github.com/FawziYas/osce-project/pkg/metrics"
)

// Enqueue appends a generic replayable API call to the sync queue.
// Item-score and rating entries are enqueued by RecordScore and
// RecordGlobalRating inside their own transactions.
func (s *Store) Enqueue(ctx context.Context, kind model.EntryKind, payload json.RawMessage) (err error) {
	defer func(start time.Time) { err = observe("enqueue", start, err) }(s.clock.Now())

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err = s.enqueue(ctx, tx, kind, payload); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return storageErr("commit enqueue", err)
	}
	return nil
}

func (s *Store) enqueue(ctx context.Context, tx *sql.Tx, kind model.EntryKind, payload json.RawMessage) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO sync_queue (kind, payload, attempts, created_at) VALUES (?, ?, 0, ?)`,
		string(kind), string(payload), s.clock.Now().UnixNano())
	if err != nil {
		return storageErr("enqueue", err)
	}
	return nil
}

// SnapshotQueue returns a copy of all queue entries in insertion order.
// Entries are not removed; the sync engine removes them after confirmed
// replay via RemoveQueueEntries.
func (s *Store) SnapshotQueue(ctx context.Context) (entries []model.SyncQueueEntry, err error) {
	defer func(start time.Time) { err = observe("snapshot_queue", start, err) }(s.clock.Now())

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, payload, attempts, created_at FROM sync_queue ORDER BY id ASC`)
	if err != nil {
		return nil, storageErr("snapshot queue", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e       model.SyncQueueEntry
			kind    string
			payload string
			created int64
		)
		if err = rows.Scan(&e.ID, &kind, &payload, &e.Attempts, &created); err != nil {
			return nil, storageErr("scan queue entry", err)
		}
		e.Kind = model.EntryKind(kind)
		e.Payload = json.RawMessage(payload)
		e.CreatedAt = time.Unix(0, created)
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, storageErr("snapshot queue", err)
	}

	metrics.UpdateQueueLength(len(entries))
	return entries, nil
}

// QueueLength returns the current number of pending entries.
func (s *Store) QueueLength(ctx context.Context) (n int, err error) {
	defer func(start time.Time) { err = observe("queue_length", start, err) }(s.clock.Now())

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`)
	if err = row.Scan(&n); err != nil {
		return 0, storageErr("queue length", err)
	}
	metrics.UpdateQueueLength(n)
	return n, nil
}

// RemoveQueueEntries deletes entries by id in one statement. Batching
// bounds I/O and avoids partial-removal races if a drain cycle is
// interrupted mid-loop.
func (s *Store) RemoveQueueEntries(ctx context.Context, ids []int64) (err error) {
	defer func(start time.Time) { err = observe("remove_queue_entries", start, err) }(s.clock.Now())

	if len(ids) == 0 {
		return nil
	}
	query, args := idList(`DELETE FROM sync_queue WHERE id IN`, ids)
	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		return storageErr("remove queue entries", err)
	}
	return nil
}

// BumpAttempts increments the attempts counter for the given entries in
// one statement, after a drain cycle in which their replays failed.
func (s *Store) BumpAttempts(ctx context.Context, ids []int64) (err error) {
	defer func(start time.Time) { err = observe("bump_attempts", start, err) }(s.clock.Now())

	if len(ids) == 0 {
		return nil
	}
	query, args := idList(`UPDATE sync_queue SET attempts = attempts + 1 WHERE id IN`, ids)
	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		return storageErr("bump attempts", err)
	}
	return nil
}

// AddDeadLetter preserves an abandoned entry for manual recovery.
func (s *Store) AddDeadLetter(ctx context.Context, entry model.SyncQueueEntry, lastError string) (err error) {
	defer func(start time.Time) { err = observe("add_dead_letter", start, err) }(s.clock.Now())

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO dead_letters (entry_id, kind, payload, last_error, abandoned_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, string(entry.Kind), string(entry.Payload), lastError, s.clock.Now().UnixNano())
	if err != nil {
		return storageErr("add dead letter", err)
	}
	return nil
}

// ListDeadLetters returns every abandoned entry, oldest first. These
// represent data-loss risk and back a persistent warning surface, not a
// transient toast.
func (s *Store) ListDeadLetters(ctx context.Context) (letters []model.DeadLetter, err error) {
	defer func(start time.Time) { err = observe("list_dead_letters", start, err) }(s.clock.Now())

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entry_id, kind, payload, last_error, abandoned_at FROM dead_letters ORDER BY id ASC`)
	if err != nil {
		return nil, storageErr("list dead letters", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			dl        model.DeadLetter
			kind      string
			payload   string
			abandoned int64
		)
		if err = rows.Scan(&dl.ID, &dl.EntryID, &kind, &payload, &dl.LastError, &abandoned); err != nil {
			return nil, storageErr("scan dead letter", err)
		}
		dl.Kind = model.EntryKind(kind)
		dl.Payload = json.RawMessage(payload)
		dl.AbandonedAt = time.Unix(0, abandoned)
		letters = append(letters, dl)
	}
	if err = rows.Err(); err != nil {
		return nil, storageErr("list dead letters", err)
	}
	return letters, nil
}

// idList expands prefix into "prefix (?, ?, ...)" with matching args.
func idList(prefix string, ids []int64) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return prefix + " (" + strings.Join(placeholders, ", ") + ")", args
}
