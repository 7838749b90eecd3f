package shellcache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gearitforward/gearscout-sync/internal/database"
	"github.com/gearitforward/gearscout-sync/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned responses and counts requests per path.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]Response
	failPath  string
	calls     map[string]int
}

func newFakeFetcher(paths ...string) *fakeFetcher {
	f := &fakeFetcher{responses: make(map[string]Response), calls: make(map[string]int)}
	for _, p := range paths {
		f.responses[p] = Response{Status: http.StatusOK, Header: http.Header{"Content-Type": {"text/html"}}, Body: []byte("body of " + p)}
	}
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, path string) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[path]++
	if path == f.failPath {
		return Response{}, errors.New("network down")
	}
	if r, ok := f.responses[path]; ok {
		return r, nil
	}
	return Response{Status: http.StatusNotFound, Body: []byte("not found")}, nil
}

func (f *fakeFetcher) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	msgs []string
}

func (b *recordingBroadcaster) Broadcast(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
}

func (b *recordingBroadcaster) messages() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.msgs...)
}

func newTestStorage(t *testing.T) CacheStorage {
	t.Helper()
	db, teardown, err := database.InitDB(t.TempDir()+"/shell.db", "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)
	return NewStorage(db)
}

func manifest(version string) Manifest {
	return Manifest{Prefix: "gs-quant", Version: version, URLs: []string{"assets/app.js", "/assets/app.css"}}
}

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte("prefix: gs-quant\nversion: \"1.2\"\nurls:\n  - assets/app.js\n  - manifest.webmanifest\n"))
	require.NoError(t, err)
	assert.Equal(t, "gs-quant_1.2", m.CacheName())
	assert.Equal(t, []string{"/assets/app.js", "/manifest.webmanifest", "/"}, m.PrecachePaths())

	_, err = ParseManifest([]byte("prefix: gs-quant\n"))
	assert.Error(t, err)
	_, err = ParseManifest([]byte("version: 1\n"))
	assert.Error(t, err)
}

func TestStorageRoundTripsHeaders(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	cache, err := s.Open(ctx, "gs-quant_1.0")
	require.NoError(t, err)
	require.NoError(t, cache.Put(ctx, "/", Response{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": {"text/html"}, "Etag": {"abc"}},
		Body:   []byte("<html>"),
	}))

	got, ok, err := cache.Match(ctx, "/")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "text/html", got.Header.Get("Content-Type"))
	assert.Equal(t, "abc", got.Header.Get("Etag"))
	assert.Equal(t, []byte("<html>"), got.Body)

	_, ok, err = cache.Match(ctx, "/missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddAllIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	cache, err := s.Open(ctx, "gs-quant_1.0")
	require.NoError(t, err)

	f := newFakeFetcher("/", "/assets/app.js")
	err = cache.AddAll(ctx, []string{"/", "/assets/app.js", "/assets/missing.css"}, f)
	require.Error(t, err)

	_, ok, err := cache.Match(ctx, "/")
	require.NoError(t, err)
	assert.False(t, ok, "nothing is stored when any path fails")
}

func TestWorkerInstallAndFetch(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	f := newFakeFetcher("/", "/assets/app.js", "/assets/app.css")
	metr := metrics.NewMock()

	w := NewWorker(manifest("1.0"), s, f, metr)
	assert.Equal(t, StateInstalling, w.State())
	require.NoError(t, w.Install(ctx))
	assert.Equal(t, StateWaiting, w.State())
	assert.Equal(t, 1, f.count("/assets/app.js"))

	assert.True(t, w.Handles("/assets/app.js"))
	assert.True(t, w.Handles("/"))
	assert.False(t, w.Handles("/api/matches"))

	resp, err := w.Fetch(ctx, "/assets/app.js")
	require.NoError(t, err)
	assert.Equal(t, []byte("body of /assets/app.js"), resp.Body)
	assert.Equal(t, 1, f.count("/assets/app.js"), "served from cache")
	assert.Equal(t, 1, metr.ShellCache("hit"))
}

func TestWorkerFetchCachesOnlyOKResponses(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	f := newFakeFetcher("/", "/assets/app.js", "/assets/app.css")
	w := NewWorker(manifest("1.0"), s, f, metrics.NewMock())
	require.NoError(t, w.Install(ctx))

	cache, err := s.Open(ctx, w.CacheName())
	require.NoError(t, err)
	// Simulate an entry evicted after install.
	_, err = s.Delete(ctx, w.CacheName())
	require.NoError(t, err)

	resp, err := w.Fetch(ctx, "/assets/app.js")
	require.NoError(t, err)
	assert.True(t, resp.OK())
	_, ok, err := cache.Match(ctx, "/assets/app.js")
	require.NoError(t, err)
	assert.True(t, ok, "OK network responses are stored")

	f.mu.Lock()
	f.responses["/assets/app.css"] = Response{Status: http.StatusServiceUnavailable}
	f.mu.Unlock()
	resp, err = w.Fetch(ctx, "/assets/app.css")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	_, ok, err = cache.Match(ctx, "/assets/app.css")
	require.NoError(t, err)
	assert.False(t, ok, "error responses are not stored")
}

func TestWorkerInstallFailureIsRedundant(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	f := newFakeFetcher("/", "/assets/app.js", "/assets/app.css")
	f.failPath = "/assets/app.css"

	w := NewWorker(manifest("1.0"), s, f, metrics.NewMock())
	require.Error(t, w.Install(ctx))
	assert.Equal(t, StateRedundant, w.State())

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestActivateDeletesOldVersionsOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	for _, name := range []string{"gs-quant_1.0", "gs-quantum_1.0", "other_app"} {
		_, err := s.Open(ctx, name)
		require.NoError(t, err)
	}

	w := NewWorker(manifest("1.1"), s, newFakeFetcher("/", "/assets/app.js", "/assets/app.css"), metrics.NewMock())
	require.NoError(t, w.Install(ctx))
	require.NoError(t, w.Activate(ctx))
	assert.Equal(t, StateActivated, w.State())

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"gs-quant_1.1", "gs-quantum_1.0", "other_app"}, keys,
		"a cache whose name only shares the prefix belongs to another app")
}

func TestContainerUpdateHandshake(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	f := newFakeFetcher("/", "/assets/app.js", "/assets/app.css")
	b := &recordingBroadcaster{}
	c := NewContainer(s, f, metrics.NewMock(), b)

	require.NoError(t, c.Register(ctx, manifest("1.0")))
	st := c.Status()
	assert.Equal(t, "1.0", st.ActiveVersion)
	assert.Equal(t, StateActivated, st.ActiveState)
	assert.False(t, st.UpdateAvailable)
	assert.Empty(t, b.messages(), "the first install activates silently")

	// Same version again is a no-op.
	require.NoError(t, c.Register(ctx, manifest("1.0")))
	assert.Equal(t, 1, f.count("/assets/app.js"))

	require.NoError(t, c.Register(ctx, manifest("1.1")))
	st = c.Status()
	assert.Equal(t, "1.0", st.ActiveVersion)
	assert.Equal(t, "1.1", st.WaitingVersion)
	assert.True(t, st.UpdateAvailable)
	assert.Equal(t, []string{MsgUpdateAvailable}, b.messages())

	// Both caches exist while the update waits.
	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"gs-quant_1.0", "gs-quant_1.1"}, keys)

	require.NoError(t, c.HandleMessage(ctx, MsgSkipWaiting))
	st = c.Status()
	assert.Equal(t, "1.1", st.ActiveVersion)
	assert.False(t, st.UpdateAvailable)
	assert.Equal(t, []string{MsgUpdateAvailable, MsgUpdated}, b.messages())

	keys, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"gs-quant_1.1"}, keys)

	// Nothing waiting: skip is a no-op.
	require.NoError(t, c.HandleMessage(ctx, MsgSkipWaiting))
	require.NoError(t, c.HandleMessage(ctx, "HELLO"))
	assert.Len(t, b.messages(), 2)
}

func TestContainerHandler(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	f := newFakeFetcher("/", "/assets/app.js", "/assets/app.css")
	c := NewContainer(s, f, metrics.NewMock(), nil)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := c.Handler(next)

	// Before registration everything passes through.
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)

	require.NoError(t, c.Register(ctx, manifest("1.0")))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "body of /assets/app.js", rr.Body.String())
	assert.Equal(t, "text/html", rr.Header().Get("Content-Type"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/matches/pending", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code, "non-manifest paths pass through")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code, "only GET and HEAD are intercepted")
}

func TestHandlerFetcher(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/app.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/javascript")
		_, _ = w.Write([]byte("console.log(1)"))
	})

	resp, err := HandlerFetcher{Handler: mux}.Fetch(context.Background(), "/app.js")
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "text/javascript", resp.Header.Get("Content-Type"))
	assert.Equal(t, "console.log(1)", string(resp.Body))

	resp, err = HandlerFetcher{Handler: mux}.Fetch(context.Background(), "/missing")
	require.NoError(t, err)
	assert.False(t, resp.OK())
}
