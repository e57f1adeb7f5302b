package sync_test

import (
	"context"
	"encoding/json"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	syncengine "github.com/FawziYas/osce-project/internal/adapters/sync"
	"github.com/FawziYas/osce-project/internal/domain/model"
	"github.com/FawziYas/osce-project/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

type fakeQueue struct {
	mu      stdsync.Mutex
	entries []model.SyncQueueEntry
	dead    []model.DeadLetter
	nextID  int64
}

func (q *fakeQueue) add(kind model.EntryKind, payload string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	q.entries = append(q.entries, model.SyncQueueEntry{
		ID:      q.nextID,
		Kind:    kind,
		Payload: json.RawMessage(payload),
	})
}

func (q *fakeQueue) SnapshotQueue(context.Context) ([]model.SyncQueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]model.SyncQueueEntry, len(q.entries))
	copy(out, q.entries)
	return out, nil
}

func (q *fakeQueue) RemoveQueueEntries(_ context.Context, ids []int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := q.entries[:0]
	for _, e := range q.entries {
		if !drop[e.ID] {
			kept = append(kept, e)
		}
	}
	q.entries = kept
	return nil
}

func (q *fakeQueue) BumpAttempts(_ context.Context, ids []int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	bump := make(map[int64]bool, len(ids))
	for _, id := range ids {
		bump[id] = true
	}
	for i := range q.entries {
		if bump[q.entries[i].ID] {
			q.entries[i].Attempts++
		}
	}
	return nil
}

func (q *fakeQueue) AddDeadLetter(_ context.Context, entry model.SyncQueueEntry, lastError string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, model.DeadLetter{
		EntryID:   entry.ID,
		Kind:      entry.Kind,
		Payload:   entry.Payload,
		LastError: lastError,
	})
	return nil
}

func (q *fakeQueue) length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *fakeQueue) entry(i int) model.SyncQueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.entries[i]
}

type fakeReplayer struct {
	mu      stdsync.Mutex
	calls   []int64
	failIDs map[int64]bool
	failAll bool
	entered chan struct{}
	block   chan struct{}
}

func (r *fakeReplayer) Replay(_ context.Context, entry model.SyncQueueEntry) error {
	if r.entered != nil {
		select {
		case r.entered <- struct{}{}:
		default:
		}
	}
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.calls = append(r.calls, entry.ID)
	fail := r.failAll || r.failIDs[entry.ID]
	r.mu.Unlock()
	if fail {
		return errors.New("replay refused")
	}
	return nil
}

func (r *fakeReplayer) callLog() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, len(r.calls))
	copy(out, r.calls)
	return out
}

func TestDrainFIFO(t *testing.T) {
	Convey("Given three pending entries and a healthy network", t, func() {
		queue := &fakeQueue{}
		queue.add(model.KindItemScore, `{}`)
		queue.add(model.KindItemScore, `{}`)
		queue.add(model.KindGlobalRating, `{}`)
		replayer := &fakeReplayer{}
		engine := syncengine.New(queue, replayer)
		engine.SetOnline(true)

		Convey("When one drain cycle runs", func() {
			res := engine.Drain(context.Background())

			Convey("Then every entry replays in insertion order", func() {
				So(replayer.callLog(), ShouldResemble, []int64{1, 2, 3})
				So(res.Synced, ShouldEqual, 3)
				So(res.Failed, ShouldEqual, 0)
				So(queue.length(), ShouldEqual, 0)
			})
		})
	})
}

func TestDrainPartialFailure(t *testing.T) {
	Convey("Given three entries of which the middle one is refused", t, func() {
		queue := &fakeQueue{}
		queue.add(model.KindItemScore, `{}`)
		queue.add(model.KindItemScore, `{}`)
		queue.add(model.KindItemScore, `{}`)
		replayer := &fakeReplayer{failIDs: map[int64]bool{2: true}}
		engine := syncengine.New(queue, replayer)
		engine.SetOnline(true)

		Convey("When one drain cycle runs", func() {
			res := engine.Drain(context.Background())

			Convey("Then the failure does not block later entries", func() {
				So(replayer.callLog(), ShouldResemble, []int64{1, 2, 3})
				So(res.Synced, ShouldEqual, 2)
				So(res.Failed, ShouldEqual, 1)
				So(res.Errors, ShouldHaveLength, 1)
				So(res.Errors[0].ID, ShouldEqual, 2)
			})

			Convey("And only the refused entry stays queued, with one attempt recorded", func() {
				So(queue.length(), ShouldEqual, 1)
				So(queue.entry(0).ID, ShouldEqual, 2)
				So(queue.entry(0).Attempts, ShouldEqual, 1)
			})
		})
	})
}

func TestRetryCeiling(t *testing.T) {
	Convey("Given an entry whose replay always fails", t, func() {
		queue := &fakeQueue{}
		queue.add(model.KindAPICall, `{"method":"POST","path":"/score/x/submit"}`)
		replayer := &fakeReplayer{failAll: true}
		engine := syncengine.New(queue, replayer)
		engine.SetOnline(true)

		Convey("When four drain cycles run", func() {
			var results []syncengine.Result
			for i := 0; i < 4; i++ {
				results = append(results, engine.Drain(context.Background()))
			}

			Convey("Then the entry is still queued and nothing is abandoned", func() {
				So(queue.length(), ShouldEqual, 1)
				So(queue.entry(0).Attempts, ShouldEqual, 4)
				for _, res := range results {
					So(res.Failed, ShouldEqual, 1)
					So(res.Abandoned, ShouldEqual, 0)
				}
			})

			Convey("And the fifth cycle abandons it into the dead letters", func() {
				res := engine.Drain(context.Background())
				So(res.Failed, ShouldEqual, 1)
				So(res.Abandoned, ShouldEqual, 1)
				So(queue.length(), ShouldEqual, 0)
				So(queue.dead, ShouldHaveLength, 1)
				So(queue.dead[0].EntryID, ShouldEqual, 1)
				So(queue.dead[0].LastError, ShouldContainSubstring, "replay refused")
			})
		})
	})
}

func TestDrainGuards(t *testing.T) {
	Convey("Given an offline engine", t, func() {
		engine := syncengine.New(&fakeQueue{}, &fakeReplayer{})

		Convey("Then a drain skips with the offline reason", func() {
			res := engine.Drain(context.Background())
			So(res.Skipped, ShouldBeTrue)
			So(res.Reason, ShouldEqual, syncengine.ReasonOffline)
		})
	})

	Convey("Given a drain cycle already in flight", t, func() {
		queue := &fakeQueue{}
		queue.add(model.KindItemScore, `{}`)
		replayer := &fakeReplayer{
			entered: make(chan struct{}, 1),
			block:   make(chan struct{}),
		}
		engine := syncengine.New(queue, replayer)
		engine.SetOnline(true)

		started := make(chan syncengine.Result, 1)
		go func() {
			started <- engine.Drain(context.Background())
		}()
		// The first cycle holds the guard while its replay is parked.
		<-replayer.entered

		Convey("Then a second drain skips without touching the queue", func() {
			res := engine.Drain(context.Background())
			So(res.Skipped, ShouldBeTrue)
			So(res.Reason, ShouldEqual, syncengine.ReasonAlreadySyncing)

			close(replayer.block)
			first := <-started
			So(first.Synced, ShouldEqual, 1)
		})
	})
}

func TestRunDrainsOnReconnect(t *testing.T) {
	Convey("Given a running engine with a long tick interval and a queued entry", t, func() {
		queue := &fakeQueue{}
		queue.add(model.KindItemScore, `{}`)
		replayer := &fakeReplayer{}
		engine := syncengine.New(queue, replayer, syncengine.WithInterval(time.Hour))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			engine.Run(ctx)
			close(done)
		}()
		Reset(func() {
			cancel()
			<-done
		})

		Convey("When connectivity comes back", func() {
			engine.SetOnline(true)

			Convey("Then a drain fires without waiting for the ticker", func() {
				So(waitFor(func() bool { return queue.length() == 0 }), ShouldBeTrue)
				So(replayer.callLog(), ShouldResemble, []int64{1})
				So(engine.LastSync().IsZero(), ShouldBeFalse)
			})
		})
	})
}

func TestRunDrainsOnTick(t *testing.T) {
	Convey("Given a running engine with a short tick interval", t, func() {
		queue := &fakeQueue{}
		replayer := &fakeReplayer{}
		engine := syncengine.New(queue, replayer, syncengine.WithInterval(20*time.Millisecond))
		engine.SetOnline(true)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			engine.Run(ctx)
			close(done)
		}()
		Reset(func() {
			cancel()
			<-done
		})

		Convey("When an entry lands after the reconnect drain has passed", func() {
			So(waitFor(func() bool { return !engine.LastSync().IsZero() }), ShouldBeTrue)
			queue.add(model.KindItemScore, `{}`)

			Convey("Then a later tick picks it up", func() {
				So(waitFor(func() bool { return queue.length() == 0 }), ShouldBeTrue)
				So(replayer.callLog(), ShouldResemble, []int64{1})
			})
		})
	})
}

func TestTransitionCallbacks(t *testing.T) {
	Convey("Given registered transition and result callbacks", t, func() {
		queue := &fakeQueue{}
		queue.add(model.KindItemScore, `{}`)
		engine := syncengine.New(queue, &fakeReplayer{})

		var transitions []bool
		engine.OnTransition(func(online bool) { transitions = append(transitions, online) })
		var summaries []syncengine.Result
		engine.OnResult(func(res syncengine.Result) { summaries = append(summaries, res) })

		Convey("When connectivity flips and a drain runs", func() {
			engine.SetOnline(true)
			engine.SetOnline(true) // no change, no callback
			engine.Drain(context.Background())
			engine.SetOnline(false)

			Convey("Then callbacks fire once per actual change and per cycle", func() {
				So(transitions, ShouldResemble, []bool{true, false})
				So(summaries, ShouldHaveLength, 1)
				So(summaries[0].Synced, ShouldEqual, 1)
				So(engine.LastSync().IsZero(), ShouldBeFalse)
			})
		})
	})
}

type fakeAPI struct {
	itemCalls []model.ItemScorePayload
	rawCalls  []string
	bodies    []string
}

func (a *fakeAPI) PostItemScore(_ context.Context, stationScoreID, checklistItemID string, score, maxPoints float64) error {
	a.itemCalls = append(a.itemCalls, model.ItemScorePayload{
		StationScoreID:  stationScoreID,
		ChecklistItemID: checklistItemID,
		Score:           score,
		MaxPoints:       maxPoints,
	})
	return nil
}

func (a *fakeAPI) Call(_ context.Context, method, path string, body []byte) error {
	a.rawCalls = append(a.rawCalls, method+" "+path)
	a.bodies = append(a.bodies, string(body))
	return nil
}

func TestReplayerDispatch(t *testing.T) {
	Convey("Given the API-backed replayer", t, func() {
		api := &fakeAPI{}
		replayer := syncengine.NewReplayer(api)
		ctx := context.Background()

		Convey("Then item score entries hit the typed endpoint", func() {
			payload, _ := json.Marshal(model.ItemScorePayload{
				StationScoreID: "ss-1", ChecklistItemID: "i-1", Score: 1, MaxPoints: 2,
			})
			err := replayer.Replay(ctx, model.SyncQueueEntry{Kind: model.KindItemScore, Payload: payload})
			So(err, ShouldBeNil)
			So(api.itemCalls, ShouldHaveLength, 1)
			So(api.itemCalls[0].StationScoreID, ShouldEqual, "ss-1")
			So(api.itemCalls[0].MaxPoints, ShouldEqual, 2)
		})

		Convey("Then global rating entries post to the rating endpoint", func() {
			payload, _ := json.Marshal(model.GlobalRatingPayload{StationScoreID: "ss-2", Rating: 4})
			err := replayer.Replay(ctx, model.SyncQueueEntry{Kind: model.KindGlobalRating, Payload: payload})
			So(err, ShouldBeNil)
			So(api.rawCalls, ShouldResemble, []string{"POST /score/ss-2/rating"})
			So(api.bodies[0], ShouldEqual, `{"rating":4}`)
		})

		Convey("Then generic entries replay verbatim", func() {
			payload, _ := json.Marshal(model.APICallPayload{Method: "POST", Path: "/score/ss-3/submit"})
			err := replayer.Replay(ctx, model.SyncQueueEntry{Kind: model.KindAPICall, Payload: payload})
			So(err, ShouldBeNil)
			So(api.rawCalls, ShouldResemble, []string{"POST /score/ss-3/submit"})
		})

		Convey("Then an unknown kind is an error", func() {
			err := replayer.Replay(ctx, model.SyncQueueEntry{Kind: "mystery", Payload: json.RawMessage(`{}`)})
			So(err, ShouldNotBeNil)
		})
	})
}
