// Package service wires the durable store, remote client, and sync
// engine into the single object the UI layer depends on.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	stdsync "sync"
	"time"

	"github.com/FawziYas/osce-project/internal/adapters/remote"
	"github.com/FawziYas/osce-project/internal/adapters/store"
	syncengine "github.com/FawziYas/osce-project/internal/adapters/sync"
	"github.com/FawziYas/osce-project/internal/domain/model"
	"github.com/FawziYas/osce-project/internal/domain/report"
	"github.com/FawziYas/osce-project/internal/domain/scoring"
	"github.com/FawziYas/osce-project/pkg/logger"
)

// Service owns the offline scoring pipeline: every mutation lands in
// the durable store first, the sync engine replays it to the remote
// API when connectivity allows.
type Service struct {
	mu stdsync.RWMutex

	// Core components
	store  *store.Store
	remote *remote.Client
	engine *syncengine.Engine

	// Configuration
	dbPath         string
	baseURL        string
	clientID       string
	syncInterval   time.Duration
	requestTimeout time.Duration
	retryLimit     int
	cacheTTL       time.Duration
	pageHeight     int

	// State
	started         bool
	cancel          context.CancelFunc
	wg              stdsync.WaitGroup
	transitionHooks []func(online bool)

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDBPath sets the SQLite database location.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithBaseURL sets the remote API base URL.
func WithBaseURL(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.baseURL = url
		}
	}
}

// WithClientID sets the device identity stamped on score records.
func WithClientID(id string) Option {
	return func(s *Service) {
		s.clientID = id
	}
}

// WithSyncInterval sets the periodic drain interval.
func WithSyncInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.syncInterval = d
		}
	}
}

// WithRequestTimeout bounds API calls and replay attempts.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithRetryLimit sets the per-entry replay ceiling.
func WithRetryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.retryLimit = n
		}
	}
}

// WithCacheTTL sets the response cache lifetime.
func WithCacheTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.cacheTTL = d
		}
	}
}

// WithReportPageHeight sets the pagination height for rendered reports.
func WithReportPageHeight(h int) Option {
	return func(s *Service) {
		if h > 0 {
			s.pageHeight = h
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Service with the given options. Components are built
// on Start so construction never touches disk or network.
func New(opts ...Option) *Service {
	s := &Service{
		dbPath:         "osce.db",
		baseURL:        "http://localhost:8000/api",
		syncInterval:   30 * time.Second,
		requestTimeout: 15 * time.Second,
		retryLimit:     5,
		cacheTTL:       5 * time.Minute,
		pageHeight:     40,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store, builds the remote client and sync engine,
// probes connectivity, and launches the periodic drain loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	var storeOpts []store.Option
	if s.clientID != "" {
		storeOpts = append(storeOpts, store.WithClientID(s.clientID))
	}
	st, err := store.Open(s.dbPath, storeOpts...)
	if err != nil {
		return err
	}
	s.store = st

	s.remote = remote.New(s.baseURL,
		remote.WithTimeout(s.requestTimeout),
		remote.WithCache(st, s.cacheTTL),
	)

	s.engine = syncengine.New(st, syncengine.NewReplayer(s.remote),
		syncengine.WithMaxAttempts(s.retryLimit),
		syncengine.WithAttemptTimeout(s.requestTimeout),
		syncengine.WithInterval(s.syncInterval),
		syncengine.WithLogger(s.logger.Named("sync")),
	)
	s.engine.OnResult(s.settleRecords)
	for _, hook := range s.transitionHooks {
		s.engine.OnTransition(hook)
	}

	// A failed probe just means we start offline; the queue holds
	// everything until the UI reports connectivity.
	if err := s.remote.Ping(ctx); err == nil {
		s.engine.SetOnline(true)
	} else {
		s.logger.Info(ctx, "starting offline", logger.Error(err))
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.engine.Run(runCtx)
	}()

	s.started = true
	s.logger.Info(ctx, "service started", logger.String("db", s.dbPath))
	return nil
}

// Stop halts the drain loop and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}

	s.cancel()
	s.wg.Wait()
	err := s.store.Close()
	s.started = false
	s.logger.Info(ctx, "service stopped")
	return err
}

// RecordScore persists one checklist item mark and queues its upload.
func (s *Service) RecordScore(ctx context.Context, stationID, studentID, itemID string, score, maxPoints float64, isCritical bool) (*model.ScoreRecord, error) {
	st, err := s.components()
	if err != nil {
		return nil, err
	}
	return st.RecordScore(ctx, stationID, studentID, itemID, score, maxPoints, isCritical)
}

// RecordGlobalRating persists a global rating and queues its upload.
func (s *Service) RecordGlobalRating(ctx context.Context, stationID, studentID string, rating int) (*model.ScoreRecord, error) {
	st, err := s.components()
	if err != nil {
		return nil, err
	}
	return st.RecordGlobalRating(ctx, stationID, studentID, rating)
}

// SubmitStationScore queues the final submit call for a station score.
// Like every mutation it goes through the queue, so submitting while
// offline is safe.
func (s *Service) SubmitStationScore(ctx context.Context, stationScoreID string) error {
	st, err := s.components()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(model.APICallPayload{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/score/%s/submit", stationScoreID),
	})
	if err != nil {
		return err
	}
	return st.Enqueue(ctx, model.KindAPICall, payload)
}

// Sync triggers one guarded drain cycle.
func (s *Service) Sync(ctx context.Context) (syncengine.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return syncengine.Result{}, ErrNotStarted
	}
	return s.engine.Drain(ctx), nil
}

// SetOnline feeds a connectivity change from the UI layer into the
// engine; the offline to online transition drains immediately.
func (s *Service) SetOnline(online bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.started {
		s.engine.SetOnline(online)
	}
}

// OnConnectivityChange registers a UI callback for online/offline
// transitions. Call before Start.
func (s *Service) OnConnectivityChange(cb func(online bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitionHooks = append(s.transitionHooks, cb)
}

// Status is the observable sync state for the UI layer.
type Status struct {
	Online      bool
	Syncing     bool
	QueueLength int
	LastSync    time.Time
	DeadLetters int
}

// SyncStatus reports queue length, last sync time, and abandoned-entry
// count.
func (s *Service) SyncStatus(ctx context.Context) (Status, error) {
	st, err := s.components()
	if err != nil {
		return Status{}, err
	}

	n, err := st.QueueLength(ctx)
	if err != nil {
		return Status{}, err
	}
	letters, err := st.ListDeadLetters(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Online:      s.engine.Online(),
		QueueLength: n,
		LastSync:    s.engine.LastSync(),
		DeadLetters: len(letters),
	}, nil
}

// DeadLetters lists abandoned queue entries for the persistent
// data-loss warning surface.
func (s *Service) DeadLetters(ctx context.Context) ([]model.DeadLetter, error) {
	st, err := s.components()
	if err != nil {
		return nil, err
	}
	return st.ListDeadLetters(ctx)
}

// GenerateReport fetches session data, folds local score records into
// per-student results, and composes the report document. Fetch
// failures surface directly: without session data nothing useful can
// be produced.
func (s *Service) GenerateReport(ctx context.Context, sessionID, sessionName string) (report.Document, error) {
	st, err := s.components()
	if err != nil {
		return report.Document{}, err
	}

	paths, err := s.remote.SessionPaths(ctx, sessionID)
	if err != nil {
		return report.Document{}, err
	}
	assignments, err := s.remote.SessionAssignments(ctx, sessionID)
	if err != nil {
		return report.Document{}, err
	}
	examiners, err := s.remote.Examiners(ctx)
	if err != nil {
		return report.Document{}, err
	}

	data := model.SessionData{
		SessionID:   sessionID,
		SessionName: sessionName,
		Paths:       paths,
		Assignments: assignments,
		Examiners:   examiners,
	}

	recs, err := st.ListScores(ctx)
	if err != nil {
		return report.Document{}, err
	}
	return report.Compose(data, studentResults(data, recs)), nil
}

// RenderMarkup generates the report and renders it as a markup tree.
// Shaping is left to the host rendering engine.
func (s *Service) RenderMarkup(ctx context.Context, sessionID, sessionName string) (string, error) {
	doc, err := s.GenerateReport(ctx, sessionID, sessionName)
	if err != nil {
		return "", err
	}
	return report.NewMarkupBackend().Render(doc), nil
}

// RenderPaint generates the report as a paint program with Arabic text
// shaped for direct glyph placement.
func (s *Service) RenderPaint(ctx context.Context, sessionID, sessionName string) ([]report.PaintOp, error) {
	doc, err := s.GenerateReport(ctx, sessionID, sessionName)
	if err != nil {
		return nil, err
	}
	return report.NewPaintBackend(s.pageHeight).Render(doc), nil
}

// settleRecords marks local records synced after a drain cycle that
// confirmed every pending entry. With the queue empty, nothing
// unconfirmed remains for any record.
func (s *Service) settleRecords(res syncengine.Result) {
	if res.Skipped || res.Synced == 0 || res.Failed > 0 {
		return
	}
	ctx := context.Background()
	recs, err := s.store.ListScores(ctx)
	if err != nil {
		s.logger.Error(ctx, "list records after drain", logger.Error(err))
		return
	}
	for _, rec := range recs {
		if rec.Synced {
			continue
		}
		if err := s.store.MarkSynced(ctx, rec.Key()); err != nil {
			s.logger.Error(ctx, "mark record synced",
				logger.String("station", rec.StationID),
				logger.String("student", rec.StudentID),
				logger.Error(err))
		}
	}
}

// components guards access to started-state dependencies.
func (s *Service) components() (*store.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// studentResults folds local score records into per-student totals,
// joining names through the session roster by student number.
func studentResults(data model.SessionData, recs []*model.ScoreRecord) []scoring.StudentResult {
	names := make(map[string]string)
	var order []string
	for _, p := range data.Paths {
		for _, st := range p.Students {
			if _, ok := names[st.StudentNumber]; !ok {
				names[st.StudentNumber] = st.FullName
				order = append(order, st.StudentNumber)
			}
		}
	}

	totals := make(map[string]scoring.Totals)
	for _, rec := range recs {
		t := scoring.Aggregate(rec)
		sum := totals[rec.StudentID]
		sum.TotalScore += t.TotalScore
		sum.MaxScore += t.MaxScore
		totals[rec.StudentID] = sum
	}

	results := make([]scoring.StudentResult, 0, len(order))
	for _, num := range order {
		t := totals[num]
		r := scoring.StudentResult{
			StudentNumber: num,
			FullName:      names[num],
			TotalScore:    t.TotalScore,
			MaxScore:      t.MaxScore,
		}
		if t.MaxScore > 0 {
			r.Percentage = t.TotalScore / t.MaxScore * 100
			r.Passed = r.Percentage >= scoring.PassThreshold
		}
		results = append(results, r)
	}
	return results
}
