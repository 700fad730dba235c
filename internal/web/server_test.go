package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homelink/internal/bus"
	"homelink/internal/clock"
	"homelink/internal/nas"
)

type fixture struct {
	srv   *httptest.Server
	store *nas.Store
	clk   *clock.Mock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	b := bus.New(zerolog.Nop(), clock.RealClock{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = b.Run(ctx) }()

	store, err := nas.NewStore(filepath.Join(t.TempDir(), "share"))
	require.NoError(t, err)
	plug := nas.New(b, store, nas.NewTransport(time.Second), "server_node", 8080)

	clk := clock.NewMock(time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))
	s := New(":0", "server_node", "3.0.6", plug, zerolog.Nop(), clk)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return &fixture{srv: ts, store: store, clk: clk}
}

// post sends a {"data": req} envelope and decodes {"data": out} when
// out is non-nil, returning the status code.
func (f *fixture) post(t *testing.T, path string, req, out any) int {
	t.Helper()
	body, err := json.Marshal(map[string]any{"data": req})
	require.NoError(t, err)

	resp, err := http.Post(f.srv.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil && resp.StatusCode == http.StatusOK {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
	return resp.StatusCode
}

func (f *fixture) seed(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(f.store.Root(), name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// TestRootAndStatus covers the health surface.
func TestRootAndStatus(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.srv.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	f.clk.Advance(90 * time.Second)
	st, err := http.Get(f.srv.URL + "/status")
	require.NoError(t, err)
	defer func() { _ = st.Body.Close() }()

	var status struct {
		Node    string `json:"node"`
		Version string `json:"version"`
		Uptime  string `json:"uptime"`
		State   string `json:"sync_state"`
	}
	require.NoError(t, json.NewDecoder(st.Body).Decode(&status))
	assert.Equal(t, "server_node", status.Node)
	assert.Equal(t, "3.0.6", status.Version)
	assert.Equal(t, "1m30s", status.Uptime)
	assert.Equal(t, "Unsync", status.State)
}

// TestCheckHash verifies the match and mismatch answers.
func TestCheckHash(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "music/a.mp3", "aaa")

	manifest, err := f.store.Manifest()
	require.NoError(t, err)

	var resp struct {
		Result   int           `json:"result"`
		FileList *nas.FileList `json:"file_list"`
	}
	code := f.post(t, "/check_hash", map[string]string{"name": "pi5", "hash_str": manifest.Hash}, &resp)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, resp.Result)
	assert.Nil(t, resp.FileList)

	code = f.post(t, "/check_hash", map[string]string{"name": "pi5", "hash_str": "stale"}, &resp)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, resp.Result)
	require.NotNil(t, resp.FileList)
	require.Len(t, resp.FileList.Files, 1)
	assert.Equal(t, "music/a.mp3", resp.FileList.Files[0].Filename)
}

// TestDownloadUploadRemove round-trips a file through the sync API.
func TestDownloadUploadRemove(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "doc.txt", "hello")

	var file nas.FilePayload
	code := f.post(t, "/download", map[string]string{"filename": "doc.txt"}, &file)
	require.Equal(t, http.StatusOK, code)
	raw, err := base64.StdEncoding.DecodeString(file.Content)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(raw))

	up := nas.FilePayload{
		Filename: "new/copy.txt",
		Content:  base64.StdEncoding.EncodeToString([]byte("world")),
		MTime:    time.Now().UTC().Format(time.RFC3339),
	}
	code = f.post(t, "/upload", up, nil)
	require.Equal(t, http.StatusOK, code)
	data, err := os.ReadFile(filepath.Join(f.store.Root(), "new", "copy.txt"))
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))

	code = f.post(t, "/remove", map[string]string{"filename": "doc.txt"}, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NoFileExists(t, filepath.Join(f.store.Root(), "doc.txt"))
}

// TestErrorMapping verifies store failures surface as proper HTTP
// statuses.
func TestErrorMapping(t *testing.T) {
	f := newFixture(t)

	code := f.post(t, "/download", map[string]string{"filename": "missing.txt"}, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code = f.post(t, "/download", map[string]string{"filename": "../outside.txt"}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	resp, err := http.Post(f.srv.URL+"/check_hash", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
