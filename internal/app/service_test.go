package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	stdsync "sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/FawziYas/osce-project/internal/app"
	"github.com/FawziYas/osce-project/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// examAPI is a minimal in-memory stand-in for the exam web application.
type examAPI struct {
	mu       stdsync.Mutex
	requests []string
	refuse   bool
}

func (a *examAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.requests = append(a.requests, r.Method+" "+r.URL.Path)
		refuse := a.refuse
		a.mu.Unlock()

		if refuse && r.Method == http.MethodPost {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/paths"):
			w.Write([]byte(`{"data":[
				{"id":"p1","name":"A","rotation_minutes":8,"student_count":2,
				 "stations":[{"id":"st1","name":"History","station_number":1,"duration_minutes":8}],
				 "students":[{"full_name":"Sara","student_number":"1","status":"active"},
				             {"full_name":"Omar","student_number":"2","status":"active"}]}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/assignments"):
			w.Write([]byte(`{"data":[
				{"station_id":"st1","examiner_id":"e1","examiner_name":"Dr. Ward","station_name":"History","station_number":1}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/examiners"):
			w.Write([]byte(`{"data":[{"id":"e1","full_name":"Dr. Ward"}]}`))
		default:
			w.Write([]byte(`{"success": true}`))
		}
	})
}

func (a *examAPI) setRefuse(refuse bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refuse = refuse
}

func (a *examAPI) posts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, req := range a.requests {
		if strings.HasPrefix(req, "POST ") {
			out = append(out, req)
		}
	}
	return out
}

func newTestService(t *testing.T, baseURL string) *service.Service {
	t.Helper()
	return service.New(
		service.WithDBPath(filepath.Join(t.TempDir(), "osce.db")),
		service.WithBaseURL(baseURL),
		service.WithClientID("device-test"),
		service.WithRequestTimeout(2*time.Second),
		service.WithReportPageHeight(40),
	)
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service against a healthy API", t, func() {
		api := &examAPI{}
		srv := httptest.NewServer(api.handler())
		defer srv.Close()
		svc := newTestService(t, srv.URL)
		ctx := context.Background()

		Convey("Then operations before Start are refused", func() {
			_, err := svc.RecordScore(ctx, "st1", "1", "i1", 1, 1, false)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When started", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop(ctx) //nolint:errcheck

			Convey("Then a second Start is refused", func() {
				So(errors.Is(svc.Start(ctx), service.ErrAlreadyStarted), ShouldBeTrue)
			})

			Convey("And Stop then refuses further stops", func() {
				So(svc.Stop(ctx), ShouldBeNil)
				So(errors.Is(svc.Stop(ctx), service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestScoreAndSync(t *testing.T) {
	Convey("Given a started service against a healthy API", t, func() {
		api := &examAPI{}
		srv := httptest.NewServer(api.handler())
		defer srv.Close()
		svc := newTestService(t, srv.URL)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx) //nolint:errcheck

		Convey("When a score is recorded and a drain runs", func() {
			rec, err := svc.RecordScore(ctx, "st1", "1", "i1", 1, 1, true)
			So(err, ShouldBeNil)
			So(rec.Synced, ShouldBeFalse)

			res, err := svc.Sync(ctx)
			So(err, ShouldBeNil)

			Convey("Then the entry replays and the queue empties", func() {
				So(res.Synced, ShouldEqual, 1)
				So(res.Failed, ShouldEqual, 0)

				status, err := svc.SyncStatus(ctx)
				So(err, ShouldBeNil)
				So(status.QueueLength, ShouldEqual, 0)
				So(status.Online, ShouldBeTrue)
				So(status.LastSync.IsZero(), ShouldBeFalse)

				posts := api.posts()
				So(posts, ShouldHaveLength, 1)
				So(posts[0], ShouldEndWith, "/item")
			})

			Convey("And the local record is settled as synced", func() {
				again, err := svc.RecordGlobalRating(ctx, "st1", "1", 4)
				So(err, ShouldBeNil)
				So(again.Items["i1"].Score, ShouldEqual, 1.0)
			})
		})

		Convey("When the API refuses writes", func() {
			_, err := svc.RecordScore(ctx, "st1", "1", "i1", 1, 1, false)
			So(err, ShouldBeNil)
			api.setRefuse(true)

			res, err := svc.Sync(ctx)
			So(err, ShouldBeNil)

			Convey("Then the entry stays queued for the next cycle", func() {
				So(res.Synced, ShouldEqual, 0)
				So(res.Failed, ShouldEqual, 1)

				status, err := svc.SyncStatus(ctx)
				So(err, ShouldBeNil)
				So(status.QueueLength, ShouldEqual, 1)
			})

			Convey("And it replays once the API recovers", func() {
				api.setRefuse(false)
				res, err := svc.Sync(ctx)
				So(err, ShouldBeNil)
				So(res.Synced, ShouldEqual, 1)
			})
		})

		Convey("When a submit is queued", func() {
			So(svc.SubmitStationScore(ctx, "ss-final"), ShouldBeNil)
			res, err := svc.Sync(ctx)
			So(err, ShouldBeNil)
			So(res.Synced, ShouldEqual, 1)
			So(api.posts(), ShouldContain, "POST /score/ss-final/submit")
		})
	})
}

func TestOfflineQueueing(t *testing.T) {
	Convey("Given a service whose API is unreachable", t, func() {
		svc := newTestService(t, "http://127.0.0.1:1")
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx) //nolint:errcheck

		Convey("Then scores queue locally and drains skip offline", func() {
			_, err := svc.RecordScore(ctx, "st1", "1", "i1", 1, 1, false)
			So(err, ShouldBeNil)

			res, err := svc.Sync(ctx)
			So(err, ShouldBeNil)
			So(res.Skipped, ShouldBeTrue)

			status, err := svc.SyncStatus(ctx)
			So(err, ShouldBeNil)
			So(status.Online, ShouldBeFalse)
			So(status.QueueLength, ShouldEqual, 1)
		})
	})
}

func TestGenerateReport(t *testing.T) {
	Convey("Given a started service with local scores", t, func() {
		api := &examAPI{}
		srv := httptest.NewServer(api.handler())
		defer srv.Close()
		svc := newTestService(t, srv.URL)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx) //nolint:errcheck

		_, err := svc.RecordScore(ctx, "st1", "1", "i1", 4, 5, false)
		So(err, ShouldBeNil)

		Convey("When the report document is generated", func() {
			doc, err := svc.GenerateReport(ctx, "s1", "Spring OSCE")
			So(err, ShouldBeNil)

			Convey("Then it carries the session sections", func() {
				So(doc.Title, ShouldContainSubstring, "Spring OSCE")
				So(len(doc.Sections), ShouldBeGreaterThanOrEqualTo, 4)
			})
		})

		Convey("When rendered as markup", func() {
			out, err := svc.RenderMarkup(ctx, "s1", "Spring OSCE")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Sara")
			So(out, ShouldContainSubstring, "Dr. Ward")
		})

		Convey("When rendered as a paint program", func() {
			ops, err := svc.RenderPaint(ctx, "s1", "Spring OSCE")
			So(err, ShouldBeNil)
			So(len(ops), ShouldBeGreaterThan, 0)
		})
	})
}
