package wikipedia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"wikistats/internal/structures"
	"wikistats/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, upstream *httptest.Server) (*Client, *testutil.MockMetrics, *[]time.Duration) {
	t.Helper()
	conf := &structures.Config{
		Wikipedia: structures.WikipediaConfig{
			ApiBaseUrl:     upstream.URL,
			RestBaseUrl:    upstream.URL,
			UserAgent:      "WikiStats/1.0 (test)",
			RequestTimeout: 5 * time.Second,
			MaxAttempts:    3,
		},
	}
	metrics := &testutil.MockMetrics{}
	client := NewClient(conf, &testutil.MockLogger{}, metrics).(*Client)

	var waits []time.Duration
	client.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return client, metrics, &waits
}

func revisionsBody() string {
	return `{"batchcomplete":true,"query":{"pages":[{"pageid":1,"title":"Earth","revisions":[` +
		`{"revid":10,"timestamp":"2020-01-10T12:00:00Z","size":100,"user":"alice"}]}]}}`
}

func TestClient_GetRevisions_Success(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		assert.Equal(t, "/w/api.php", r.URL.Path)
		assert.Equal(t, "WikiStats/1.0 (test)", r.Header.Get("User-Agent"))
		w.Write([]byte(revisionsBody()))
	}))
	defer srv.Close()

	client, metrics, _ := newTestClient(t, srv)
	resp, err := client.GetRevisions(context.Background(), RevisionsRequest{Title: "Earth", Limit: 500})

	require.NoError(t, err)
	require.Len(t, resp.Revisions(), 1)
	assert.Equal(t, int64(10), resp.Revisions()[0].RevId)
	assert.Equal(t, []string{"Earth"}, gotQuery["titles"])
	assert.Equal(t, []string{"500"}, gotQuery["rvlimit"])
	assert.Equal(t, []string{"older"}, gotQuery["rvdir"])
	assert.Empty(t, gotQuery["rvcontinue"])
	assert.Equal(t, 1, metrics.UpstreamRequests)
}

func TestClient_GetRevisions_ContinuationOmitsBounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20200110|99", r.URL.Query().Get("rvcontinue"))
		assert.Equal(t, "||", r.URL.Query().Get("continue"))
		assert.Empty(t, r.URL.Query().Get("rvstart"))
		w.Write([]byte(revisionsBody()))
	}))
	defer srv.Close()

	client, _, _ := newTestClient(t, srv)
	_, err := client.GetRevisions(context.Background(), RevisionsRequest{
		Title: "Earth", Limit: 500, ContinueToken: "20200110|99", ContinueParam: "||",
	})
	require.NoError(t, err)
}

func TestClient_RetryAfterHeaderHonored(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(revisionsBody()))
	}))
	defer srv.Close()

	client, metrics, waits := newTestClient(t, srv)
	_, err := client.GetRevisions(context.Background(), RevisionsRequest{Title: "Earth", Limit: 500})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, *waits, 1)
	assert.GreaterOrEqual(t, (*waits)[0], 2*time.Second)
	assert.Equal(t, 1, metrics.UpstreamRetries)
}

func TestClient_RetryAfterWaitClampedToMaxBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, _, waits := newTestClient(t, srv)
	_, err := client.GetRevisions(context.Background(), RevisionsRequest{Title: "Earth", Limit: 500})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Len(t, *waits, 2)
	for _, d := range *waits {
		assert.LessOrEqual(t, d, maxBackoff)
	}
}

func TestClient_CooldownKeepsFullRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, _, waits := newTestClient(t, srv)
	_, err := client.GetRevisions(context.Background(), RevisionsRequest{Title: "Earth", Limit: 500})

	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	// The armed cooldown carries the whole Retry-After even though every
	// single wait stayed within the cap.
	assert.Greater(t, client.CooldownRemaining(), maxBackoff)
	for _, d := range *waits {
		assert.LessOrEqual(t, d, maxBackoff)
	}
}

func TestClient_QuadraticBackoffOn503(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, _, waits := newTestClient(t, srv)
	_, err := client.GetRevisions(context.Background(), RevisionsRequest{Title: "Earth", Limit: 500})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, 3, calls)
	require.Len(t, *waits, 2)
	assert.Equal(t, 500*time.Millisecond, (*waits)[0])
	assert.Equal(t, 2*time.Second, (*waits)[1])
}

func TestClient_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, _, waits := newTestClient(t, srv)
	_, err := client.GetRevisions(context.Background(), RevisionsRequest{Title: "Earth", Limit: 500})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *waits)
}

func TestClient_ServerErrorMapsToBadGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, _, _ := newTestClient(t, srv)
	_, err := client.GetRevisions(context.Background(), RevisionsRequest{Title: "Earth", Limit: 500})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
}

func TestClient_RateLimitArmsCooldown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, metrics, _ := newTestClient(t, srv)
	_, err := client.GetRevisions(context.Background(), RevisionsRequest{Title: "Earth", Limit: 500})

	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Greater(t, rateErr.RetryAfter, time.Duration(0))
	assert.Greater(t, client.CooldownRemaining(), time.Duration(0))

	// While the cooldown is armed every call short-circuits without
	// touching upstream.
	before := metrics.UpstreamRequests
	_, err = client.GetRevisions(context.Background(), RevisionsRequest{Title: "Earth", Limit: 500})
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, before, metrics.UpstreamRequests)
	assert.Equal(t, 1, metrics.RateLimited)
}

func TestClient_MediaWikiBodyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"code":"maxlag","info":"Waiting for a database server"}}`))
	}))
	defer srv.Close()

	client, _, _ := newTestClient(t, srv)
	_, err := client.GetRevisions(context.Background(), RevisionsRequest{Title: "Earth", Limit: 500})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.Contains(t, statusErr.Message, "maxlag")
}

func TestClient_NetworkErrorRetriesLinearly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	client, _, waits := newTestClient(t, srv)
	_, err := client.GetRevisions(context.Background(), RevisionsRequest{Title: "Earth", Limit: 500})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	require.Len(t, *waits, 2)
	assert.Equal(t, 300*time.Millisecond, (*waits)[0])
	assert.Equal(t, 600*time.Millisecond, (*waits)[1])
}

func TestClient_GetSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/page/summary/Earth", r.URL.Path)
		w.Write([]byte(`{"title":"Earth","description":"Third planet","extract":"Earth is...",` +
			`"thumbnail":{"source":"https://img/earth.png"},` +
			`"content_urls":{"desktop":{"page":"https://en.wikipedia.org/wiki/Earth"}}}`))
	}))
	defer srv.Close()

	client, _, _ := newTestClient(t, srv)
	summary, err := client.GetSummary(context.Background(), "Earth")

	require.NoError(t, err)
	assert.Equal(t, "Earth", summary.Title)
	assert.Equal(t, "https://img/earth.png", summary.Thumbnail.Source)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Earth", summary.ContentUrls.Desktop.Page)
}

func TestClient_ContextCancellationPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client, _, _ := newTestClient(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GetRevisions(ctx, RevisionsRequest{Title: "Earth", Limit: 500})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
}
