package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/careerscout/internal/model"
	"github.com/amishk599/careerscout/internal/ratelimit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFetcher(renderer Renderer, minDelay time.Duration) *Fetcher {
	return NewFetcher(NewHTTPClient(5*time.Second), ratelimit.NewHostLimiter(minDelay, minDelay), renderer, "", discardLogger())
}

func TestFetch_HTTPModeReturnsAbsoluteLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<a href="/careers">Careers</a>`))
	}))
	defer srv.Close()

	page, err := newTestFetcher(nil, time.Millisecond).Fetch(context.Background(), srv.URL, model.FetchHTTP)
	require.NoError(t, err)
	require.Len(t, page.Links, 1)
	assert.Equal(t, srv.URL+"/careers", page.Links[0].Href)
	assert.Equal(t, srv.URL, page.FinalURL)
}

func TestFetch_FollowsRedirectAndReportsFinalURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/careers", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusFound)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<p>home</p>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page, err := newTestFetcher(nil, time.Millisecond).Fetch(context.Background(), srv.URL+"/careers", model.FetchHTTP)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/", page.FinalURL)
}

func TestFetch_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   model.FetchErrorKind
	}{
		{http.StatusNotFound, model.FetchNotFound},
		{http.StatusForbidden, model.FetchBlocked},
		{http.StatusServiceUnavailable, model.FetchTransient},
		{http.StatusTooManyRequests, model.FetchTransient},
	}
	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			_, err := newTestFetcher(nil, time.Millisecond).Fetch(context.Background(), srv.URL, model.FetchHTTP)
			var fe *model.FetchError
			require.True(t, errors.As(err, &fe), "expected FetchError, got %v", err)
			assert.Equal(t, tc.want, fe.Kind)
		})
	}
}

func TestFetch_RetryAfterCarried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "4")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestFetcher(nil, time.Millisecond).Fetch(context.Background(), srv.URL, model.FetchHTTP)
	assert.Equal(t, 4*time.Second, model.RetryAfter(err))
}

func TestFetch_UnreachableHostIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestFetcher(nil, time.Millisecond).Fetch(context.Background(), url, model.FetchHTTP)
	var fe *model.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, model.FetchTransient, fe.Kind)
}

func TestFetch_PolitenessDelayBetweenSameHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	f := newTestFetcher(nil, 100*time.Millisecond)
	_, err := f.Fetch(context.Background(), srv.URL+"/a", model.FetchHTTP)
	require.NoError(t, err)

	start := time.Now()
	_, err = f.Fetch(context.Background(), srv.URL+"/b", model.FetchHTTP)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

type stubRenderer struct {
	calls int
	html  string
}

func (r *stubRenderer) Render(_ context.Context, url string) (string, string, error) {
	r.calls++
	return r.html, url, nil
}

func TestFetch_BrowserModeUsesRenderer(t *testing.T) {
	r := &stubRenderer{html: `<a href="/jobs/7">Apply</a>`}
	page, err := newTestFetcher(r, time.Millisecond).Fetch(context.Background(), "https://spa.acme.test/careers", model.FetchBrowser)
	require.NoError(t, err)
	assert.Equal(t, 1, r.calls)
	require.Len(t, page.Links, 1)
	assert.Equal(t, "https://spa.acme.test/jobs/7", page.Links[0].Href)
}

func TestFetch_BrowserModeWithoutRendererFallsBackToHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="/x">X</a>`))
	}))
	defer srv.Close()

	page, err := newTestFetcher(nil, time.Millisecond).Fetch(context.Background(), srv.URL, model.FetchBrowser)
	require.NoError(t, err)
	assert.Len(t, page.Links, 1)
}

func TestFetch_CancelledContextNotClassified(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher(nil, time.Millisecond).Fetch(ctx, "https://acme.test", model.FetchHTTP)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, model.IsTransient(err))
}

func TestStatusError(t *testing.T) {
	assert.NoError(t, statusError("https://acme.test", http.StatusOK))
	assert.NoError(t, statusError("https://acme.test", http.StatusFound))

	tests := []struct {
		status int
		want   model.FetchErrorKind
	}{
		{http.StatusNotFound, model.FetchNotFound},
		{http.StatusForbidden, model.FetchBlocked},
		{http.StatusBadGateway, model.FetchTransient},
	}
	for _, tc := range tests {
		err := statusError("https://acme.test/careers", tc.status)
		var fe *model.FetchError
		require.True(t, errors.As(err, &fe), "status %d: got %v", tc.status, err)
		assert.Equal(t, tc.want, fe.Kind)
		var he *model.HTTPError
		require.True(t, errors.As(err, &he))
		assert.Equal(t, tc.status, he.StatusCode)
	}
}

type statusRenderer struct{ status int }

func (r statusRenderer) Render(_ context.Context, url string) (string, string, error) {
	if err := statusError(url, r.status); err != nil {
		return "", "", err
	}
	return "<html></html>", url, nil
}

func TestFetch_BrowserModeNotFoundKeepsKind(t *testing.T) {
	_, err := newTestFetcher(statusRenderer{status: http.StatusNotFound}, time.Millisecond).
		Fetch(context.Background(), "https://spa.acme.test/careers", model.FetchBrowser)
	var fe *model.FetchError
	require.True(t, errors.As(err, &fe), "got %v", err)
	assert.Equal(t, model.FetchNotFound, fe.Kind)
}
