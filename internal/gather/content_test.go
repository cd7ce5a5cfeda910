package gather_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hackvision/vision/internal/config"
	"github.com/hackvision/vision/internal/gather"
)

func newContentFetcher(t *testing.T) *gather.ContentFetcher {
	t.Helper()
	cfg, err := config.New()
	require.NoError(t, err)
	return gather.NewContentFetcher(cfg)
}

func TestContentFetcherCountsSignals(t *testing.T) {
	page := `<html><body>
		<form><input type="text"><input type="password"><button>Go</button></form>
		<script src="react.development.js"></script>
		<div class="tailwind bg-blue-500"></div>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	evidence, err := newContentFetcher(t).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, 1, evidence.Forms)
	require.Equal(t, 1, evidence.Buttons)
	require.Equal(t, 2, evidence.Inputs)
	require.Equal(t, 1, evidence.Scripts)
	require.Contains(t, evidence.Frameworks, "React")
	require.Empty(t, evidence.FetchError)
}

func TestContentFetcherTruncatesLongPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 20000)))
	}))
	defer srv.Close()

	evidence, err := newContentFetcher(t).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.LessOrEqual(t, len(evidence.Content), 8000)
}

func TestContentFetcherSoftFailsOnHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	evidence, err := newContentFetcher(t).Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var softErr *gather.SoftFetchError
	require.ErrorAs(t, err, &softErr)
	require.NotEmpty(t, evidence.FetchError)
	require.Empty(t, evidence.Content)
}

func TestContentFetcherSoftFailsOnUnreachableHost(t *testing.T) {
	evidence, err := newContentFetcher(t).Fetch(context.Background(), "http://127.0.0.1:1")
	require.Error(t, err)

	var softErr *gather.SoftFetchError
	require.ErrorAs(t, err, &softErr)
	require.NotEmpty(t, evidence.FetchError)
}
