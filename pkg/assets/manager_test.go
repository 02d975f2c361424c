// pkg/assets/manager_test.go
package assets

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/kamisoel/gait-analyzer/pkg/manifest"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager(Config{
		AssetDir: filepath.Join(dir, "assets"),
		CacheDir: filepath.Join(dir, "cache"),
		LockPath: filepath.Join(dir, "assets.lock.yaml"),
	})
	require.NoError(t, err)
	return m
}

func parseManifest(t *testing.T, text string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse(strings.NewReader(text))
	require.NoError(t, err)
	return m
}

func TestPlan(t *testing.T) {
	m := newTestManager(t)
	man := parseManifest(t, `
-f https://example.com/weights/
videopose3d==1.1.0
lpn @ git+https://github.com/kamisoel/lpn.git@v0.3
`)

	assets, err := m.Plan(man)
	require.NoError(t, err)
	require.Len(t, assets, 2)

	vp := assets[0]
	assert.Equal(t, "videopose3d", vp.Name)
	assert.Equal(t, "1.1.0", vp.Version)
	require.NotEmpty(t, vp.Sources)
	assert.Equal(t, "https://example.com/weights/videopose3d-1.1.0.bin", vp.Sources[0])

	lpn := assets[1]
	require.NotNil(t, lpn.Git)
	assert.Equal(t, "https://github.com/kamisoel/lpn.git", lpn.Git.URL)
	assert.Equal(t, "v0.3", lpn.Git.Rev)
}

func TestPlanErrors(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Plan(parseManifest(t, "-f https://example.com/\nvideopose3d>=1.0\n"))
	assert.ErrorIs(t, err, ErrNotPinned)

	_, err = m.Plan(parseManifest(t, "videopose3d==1.0.0\n"))
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestSyncDownloadsAndLocks(t *testing.T) {
	payload := []byte("fake model weights")
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weights/videopose3d-1.1.0.bin" {
			http.NotFound(w, r)
			return
		}
		hits++
		w.Write(payload)
	}))
	defer srv.Close()

	m := newTestManager(t)
	man := parseManifest(t, "-f "+srv.URL+"/weights/\nvideopose3d==1.1.0\n")

	require.NoError(t, m.Sync(context.Background(), man))
	assert.Equal(t, 1, hits)

	installed := filepath.Join(m.cfg.AssetDir, "videopose3d-1.1.0.bin")
	got, err := os.ReadFile(installed)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	lock, err := LoadLock(m.cfg.LockPath)
	require.NoError(t, err)
	entry, ok := lock.Assets["videopose3d"]
	require.True(t, ok)
	assert.Equal(t, "1.1.0", entry.Version)
	assert.NotEmpty(t, entry.SHA256)

	// Second sync: verified against the lock, no re-download.
	require.NoError(t, m.Sync(context.Background(), man))
	assert.Equal(t, 1, hits)

	// Tampering is detected and repaired on sync.
	require.NoError(t, os.WriteFile(installed, []byte("corrupted"), 0o644))
	require.NoError(t, m.Sync(context.Background(), man))
	assert.Equal(t, 2, hits)
	got, err = os.ReadFile(installed)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Force re-fetches even a verified install.
	m.cfg.Force = true
	require.NoError(t, m.Sync(context.Background(), man))
	assert.Equal(t, 3, hits)

	installedList, err := m.Installed()
	require.NoError(t, err)
	require.Contains(t, installedList, "videopose3d")
	assert.Equal(t, "1.1.0", installedList["videopose3d"].Version)
}

func TestSyncDecompressesXZ(t *testing.T) {
	payload := []byte("compressed weights payload")
	var buf bytes.Buffer
	zw, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".bin.xz") {
			w.Write(buf.Bytes())
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	m := newTestManager(t)
	man := parseManifest(t, "-f "+srv.URL+"/\nlpn==0.3.0\n")

	require.NoError(t, m.Sync(context.Background(), man))

	got, err := os.ReadFile(filepath.Join(m.cfg.AssetDir, "lpn-0.3.0.bin"))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestSyncHashMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("unexpected content"))
	}))
	defer srv.Close()

	m := newTestManager(t)
	man := parseManifest(t, "-f "+srv.URL+"/\nvideopose3d==1.1.0\n")

	lock := NewLock()
	lock.Assets["videopose3d"] = LockEntry{
		Version: "1.1.0",
		SHA256:  strings.Repeat("ab", 32),
		File:    "videopose3d-1.1.0.bin",
	}
	require.NoError(t, lock.Save(m.cfg.LockPath))

	err := m.Sync(context.Background(), man)
	assert.ErrorIs(t, err, ErrHashMismatch)
}

func TestVerify(t *testing.T) {
	m := newTestManager(t)
	man := parseManifest(t, "-f https://example.com/\nvideopose3d==1.1.0\n")

	statuses, err := m.Verify(man)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, StateMissing, statuses[0].State)
}

func TestLoadLockMissing(t *testing.T) {
	lock, err := LoadLock(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, lock.Assets)
}
