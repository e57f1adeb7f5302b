package remote_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/FawziYas/osce-project/internal/adapters/remote"
	. "github.com/smartystreets/goconvey/convey"
)

// memCache is a map-backed Cache for tests.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) CacheGet(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data, ok := c.entries[key]; ok {
		return data, nil
	}
	return nil, errors.New("miss")
}

func (c *memCache) CachePut(_ context.Context, key string, data []byte, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func TestSessionPaths(t *testing.T) {
	Convey("Given an API serving paths under a data envelope", t, func(c C) {
		hits := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			c.So(r.URL.Path, ShouldEqual, "/sessions/s1/paths")
			w.Write([]byte(`{"success": true, "data": [
				{"id":"p1","name":"A","rotation_minutes":8,"student_count":1,
				 "stations":[{"id":"st1","name":"History","station_number":1,"duration_minutes":8}],
				 "students":[{"full_name":"Sara","student_number":"3","status":"active"}]}
			]}`))
		}))
		defer srv.Close()

		cache := newMemCache()
		client := remote.New(srv.URL, remote.WithCache(cache, time.Minute))

		Convey("When fetching twice", func() {
			paths, err := client.SessionPaths(context.Background(), "s1")
			So(err, ShouldBeNil)
			_, err = client.SessionPaths(context.Background(), "s1")
			So(err, ShouldBeNil)

			Convey("Then the payload decodes through the envelope", func() {
				So(len(paths), ShouldEqual, 1)
				So(paths[0].Name, ShouldEqual, "A")
				So(len(paths[0].Stations), ShouldEqual, 1)
				So(paths[0].Stations[0].StationNumber, ShouldEqual, 1)
				So(paths[0].Students[0].FullName, ShouldEqual, "Sara")
			})

			Convey("And the second read is served from the cache", func() {
				So(hits, ShouldEqual, 1)
			})
		})
	})

	Convey("Given an API serving a bare list", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id":"e1","full_name":"Dr. Ward"}]`))
		}))
		defer srv.Close()

		Convey("Then the list decodes without an envelope", func() {
			examiners, err := remote.New(srv.URL).Examiners(context.Background())
			So(err, ShouldBeNil)
			So(len(examiners), ShouldEqual, 1)
			So(examiners[0].FullName, ShouldEqual, "Dr. Ward")
		})
	})
}

func TestPostItemScore(t *testing.T) {
	Convey("Given an API accepting item scores", t, func(c C) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			c.So(r.Method, ShouldEqual, http.MethodPost)
			c.So(r.Header.Get("Content-Type"), ShouldEqual, "application/json")
			w.Write([]byte(`{"success": true}`))
		}))
		defer srv.Close()

		Convey("Then the call succeeds against the score endpoint", func() {
			err := remote.New(srv.URL).PostItemScore(context.Background(), "ss-9", "item-1", 1, 1)
			So(err, ShouldBeNil)
			So(gotPath, ShouldEqual, "/score/ss-9/item")
		})
	})
}

func TestCallErrorClassification(t *testing.T) {
	Convey("Given a server returning HTTP errors", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		Convey("Then a non-2xx status maps to ErrRemoteRejected", func() {
			err := remote.New(srv.URL).SubmitScore(context.Background(), "ss-1")
			So(errors.Is(err, remote.ErrRemoteRejected), ShouldBeTrue)
		})
	})

	Convey("Given a 200 with a success=false envelope", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success": false, "error": "score already submitted"}`))
		}))
		defer srv.Close()

		Convey("Then it still maps to ErrRemoteRejected with the message", func() {
			err := remote.New(srv.URL).SubmitScore(context.Background(), "ss-1")
			So(errors.Is(err, remote.ErrRemoteRejected), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "score already submitted")
		})
	})

	Convey("Given no server at all", t, func() {
		client := remote.New("http://127.0.0.1:1", remote.WithTimeout(time.Second))

		Convey("Then the transport failure maps to ErrOffline", func() {
			err := client.Ping(context.Background())
			So(errors.Is(err, remote.ErrOffline), ShouldBeTrue)
		})
	})
}
