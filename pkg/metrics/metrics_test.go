package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/globwatch/pkg/logger"
	"github.com/0xmhha/globwatch/pkg/watcher"
)

func TestObserve(t *testing.T) {
	m := New()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.Observe(watcher.Event{Kind: watcher.KindAdd, Filename: "a.txt", Time: at})
	m.Observe(watcher.Event{Kind: watcher.KindAdd, Filename: "b.txt", Time: at})
	m.Observe(watcher.Event{Kind: watcher.KindDelete, Filename: "a.txt", Time: at})

	assert.Equal(t, float64(2), testutil.ToFloat64(m.EventsTotal.WithLabelValues("add")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsTotal.WithLabelValues("delete")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.EventsTotal.WithLabelValues("change")))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.LastEvent))
}

func TestObserveErrorAndWatchers(t *testing.T) {
	m := New()

	m.ObserveError()
	m.ObserveError()
	m.SetWatchers(3)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ErrorsTotal))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.Watchers))
}

func TestIndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveError()

	assert.Equal(t, float64(1), testutil.ToFloat64(a.ErrorsTotal))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.ErrorsTotal))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Observe(watcher.Event{Kind: watcher.KindChange, Filename: "a.txt"})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	t.Run("metrics", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `globwatch_events_total{kind="change"} 1`)
		assert.Contains(t, string(body), "globwatch_watchers 0")
	})

	t.Run("healthz", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok\n", string(body))
	})

	t.Run("unknown path", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/nope")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/metrics", "text/plain", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestServeShutsDownOnCancel(t *testing.T) {
	m := New()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.serve(ctx, ln, logger.Noop())
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServeInvalidAddr(t *testing.T) {
	err := New().Serve(context.Background(), "not-an-address", logger.Noop())
	assert.Error(t, err)
}
