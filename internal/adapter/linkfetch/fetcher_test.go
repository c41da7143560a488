package linkfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	long := strings.Repeat("The statute of limitations bars claims filed too late. ", 4)
	mux := http.NewServeMux()
	mux.HandleFunc("/meta", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title> Breach of Contract </title>
<meta name="Description" content="An overview of breach of contract remedies."></head>
<body><p>` + long + `</p></body></html>`))
	})
	mux.HandleFunc("/para", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Limitations</title><script>var p = "<p>nope</p>";</script></head>
<body><p>Too short.</p><p><b>The statute</b> ` + long + `</p></body></html>`))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>short</p></body></html>`))
	})
	mux.HandleFunc("/long", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><meta name="description" content="` + strings.Repeat("x", 300) + `"></head></html>`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSummarizeMetaDescription(t *testing.T) {
	srv := newServer(t)
	f := New(Options{}, nil)

	got := f.Summarize(context.Background(), srv.URL+"/meta")
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, "Breach of Contract", got.Title)
	assert.Equal(t, "An overview of breach of contract remedies.", got.Summary)
	assert.Equal(t, srv.URL+"/meta", got.URL)
}

func TestSummarizeFirstLongParagraph(t *testing.T) {
	srv := newServer(t)
	f := New(Options{}, nil)

	got := f.Summarize(context.Background(), srv.URL+"/para")
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, "Limitations", got.Title)
	assert.True(t, strings.HasPrefix(got.Summary, "The statute The statute of limitations"), got.Summary)
}

func TestSummarizeFallbacks(t *testing.T) {
	srv := newServer(t)
	f := New(Options{}, nil)

	got := f.Summarize(context.Background(), srv.URL+"/empty")
	assert.Equal(t, noTitle, got.Title)
	assert.Equal(t, noSummary, got.Summary)
}

func TestSummarizeTruncates(t *testing.T) {
	srv := newServer(t)
	f := New(Options{PreviewChars: 250}, nil)

	got := f.Summarize(context.Background(), srv.URL+"/long")
	assert.Equal(t, strings.Repeat("x", 250)+"...", got.Summary)
}

func TestSummarizeErrors(t *testing.T) {
	srv := newServer(t)
	f := New(Options{}, nil)

	got := f.Summarize(context.Background(), srv.URL+"/missing")
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, "Error", got.Title)
	assert.Equal(t, "Failed to fetch with status: 404", got.Summary)

	got = f.Summarize(context.Background(), "http://127.0.0.1:1/unreachable")
	assert.Equal(t, StatusError, got.Status)
	assert.Contains(t, got.Summary, "An exception occurred")
}

func TestSummarizeAllCapsAndKeepsOrder(t *testing.T) {
	srv := newServer(t)
	f := New(Options{MaxLinks: 2}, nil)

	got := f.SummarizeAll(context.Background(), []string{srv.URL + "/missing", srv.URL + "/meta", srv.URL + "/para"})
	require.Len(t, got, 2)
	assert.Equal(t, StatusError, got[0].Status)
	assert.Equal(t, "Breach of Contract", got[1].Title)
}

func TestSummarizeAllEmpty(t *testing.T) {
	f := New(Options{MaxLinks: 5}, nil)
	assert.Empty(t, f.SummarizeAll(context.Background(), nil))
}
