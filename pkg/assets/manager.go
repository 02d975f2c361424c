// pkg/assets/manager.go
package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	"github.com/ulikunitz/xz"

	"github.com/kamisoel/gait-analyzer/internal/log"
	"github.com/kamisoel/gait-analyzer/pkg/manifest"
)

// Config configures the asset manager.
type Config struct {
	AssetDir string        // where installed assets live
	CacheDir string        // download staging area
	LockPath string        // lock file (default: <AssetDir>/assets.lock.yaml)
	Timeout  time.Duration // per-download timeout
	Force    bool          // re-fetch assets even when they verify
}

// Manager installs and verifies the assets a manifest declares: model
// checkpoints from find-links locations and repositories from
// source-control references.
type Manager struct {
	client *Client
	cfg    Config
	log    zerolog.Logger
}

// NewManager creates an asset manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AssetDir == "" {
		return nil, fmt.Errorf("asset directory is required")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(cfg.AssetDir, ".cache")
	}
	if cfg.LockPath == "" {
		cfg.LockPath = filepath.Join(cfg.AssetDir, "assets.lock.yaml")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Manager{
		client: NewClientWithTimeout(timeout),
		cfg:    cfg,
		log:    log.WithComponent("assets"),
	}, nil
}

// Plan resolves every requirement of the manifest into an installable asset
// without touching the network. Registry requirements must carry an exact
// pin or a lock entry; candidate URLs come from the find-links locations in
// effect on the requirement's line.
func (m *Manager) Plan(man *manifest.Manifest) ([]Asset, error) {
	lock, err := LoadLock(m.cfg.LockPath)
	if err != nil {
		return nil, err
	}

	assets := make([]Asset, 0, len(man.Requirements))
	for _, req := range man.Requirements {
		asset, err := m.resolve(req, lock)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func (m *Manager) resolve(req *manifest.Requirement, lock *Lock) (Asset, error) {
	entry, locked := lock.Assets[req.Key()]

	if req.Source != nil {
		return Asset{Name: req.Name, Git: req.Source, SHA256: entry.SHA256}, nil
	}

	version, pinned := req.Pinned()
	if !pinned {
		if !locked || entry.Version == "" {
			return Asset{}, fmt.Errorf("%w: %s", ErrNotPinned, req.Name)
		}
		ok, err := req.Matches(entry.Version)
		if err != nil {
			return Asset{}, fmt.Errorf("resolving %s: %w", req.Name, err)
		}
		if !ok {
			return Asset{}, fmt.Errorf("resolving %s: locked version %s no longer satisfies %s",
				req.Name, entry.Version, req.Specifier())
		}
		version = entry.Version
	}

	asset := Asset{Name: req.Name, Version: version, SHA256: entry.SHA256}
	if locked && entry.Source != "" && entry.Version == version {
		asset.Sources = append(asset.Sources, entry.Source)
	}
	for _, base := range req.FindLinks {
		base = strings.TrimSuffix(base, "/")
		for _, ext := range []string{".bin", ".pth", ".bin.xz", ".pth.xz", ".tar.xz"} {
			asset.Sources = append(asset.Sources, fmt.Sprintf("%s/%s-%s%s", base, req.Name, version, ext))
		}
	}
	if len(asset.Sources) == 0 {
		return Asset{}, fmt.Errorf("%w: %s", ErrNoSource, req.Name)
	}
	return asset, nil
}

// Sync installs every asset of the manifest that is missing or fails
// verification. Digests of first-time downloads are recorded in the lock
// file; later syncs verify against it.
func (m *Manager) Sync(ctx context.Context, man *manifest.Manifest) error {
	assets, err := m.Plan(man)
	if err != nil {
		return err
	}
	lock, err := LoadLock(m.cfg.LockPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(m.cfg.AssetDir, 0o755); err != nil {
		return fmt.Errorf("creating asset directory: %w", err)
	}
	if err := os.MkdirAll(m.cfg.CacheDir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	for _, asset := range assets {
		if err := m.syncOne(ctx, asset, lock); err != nil {
			return fmt.Errorf("syncing %s: %w", asset.Name, err)
		}
	}
	return lock.Save(m.cfg.LockPath)
}

func (m *Manager) syncOne(ctx context.Context, asset Asset, lock *Lock) error {
	key := manifest.Normalize(asset.Name)

	if asset.Git != nil {
		dest := filepath.Join(m.cfg.AssetDir, key)
		if _, err := os.Stat(dest); err == nil {
			if !m.cfg.Force {
				m.log.Debug().Str("asset", asset.Name).Msg("repository present, skipping")
				return nil
			}
			if err := os.RemoveAll(dest); err != nil {
				return fmt.Errorf("removing %s: %w", dest, err)
			}
		}
		m.log.Info().Str("asset", asset.Name).Str("url", asset.Git.URL).Msg("cloning")
		if err := cloneRef(ctx, asset.Git, dest); err != nil {
			return err
		}
		lock.Assets[key] = LockEntry{Source: asset.Git.String(), File: key}
		return nil
	}

	dest := filepath.Join(m.cfg.AssetDir, installName(asset))
	if state := m.verifyFile(dest, asset.SHA256); state == StateOK && !m.cfg.Force {
		m.log.Debug().Str("asset", asset.Name).Msg("up to date")
		return nil
	}

	var lastErr error
	for _, url := range asset.Sources {
		sum, err := m.fetch(ctx, url, dest)
		if err != nil {
			m.log.Debug().Str("url", url).Err(err).Msg("source failed")
			lastErr = err
			continue
		}
		if asset.SHA256 != "" && sum != asset.SHA256 {
			return fmt.Errorf("%w: got %s, want %s", ErrHashMismatch, sum, asset.SHA256)
		}
		m.log.Info().Str("asset", asset.Name).Str("version", asset.Version).Msg("installed")
		lock.Assets[key] = LockEntry{
			Version: asset.Version,
			SHA256:  sum,
			Source:  url,
			File:    installName(asset),
		}
		return nil
	}
	if lastErr == nil {
		lastErr = ErrNoSource
	}
	return fmt.Errorf("no usable source: %w", lastErr)
}

// fetch downloads a URL into the cache, decompresses xz payloads and moves
// the result into place atomically. It returns the installed file's sha256.
func (m *Manager) fetch(ctx context.Context, url, dest string) (string, error) {
	cacheFile := filepath.Join(m.cfg.CacheDir, filepath.Base(dest)+".part")
	f, err := os.Create(cacheFile)
	if err != nil {
		return "", fmt.Errorf("creating cache file: %w", err)
	}
	if err := m.client.Download(ctx, url, f); err != nil {
		f.Close()
		os.Remove(cacheFile)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing cache file: %w", err)
	}
	defer os.Remove(cacheFile)

	if strings.HasSuffix(url, ".xz") {
		decompressed := strings.TrimSuffix(cacheFile, ".part") + ".raw"
		if err := decompressXZ(cacheFile, decompressed); err != nil {
			return "", err
		}
		defer os.Remove(decompressed)
		cacheFile = decompressed
	}

	sum, err := fileSHA256(cacheFile)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(cacheFile)
	if err != nil {
		return "", fmt.Errorf("reading cache file: %w", err)
	}
	if err := renameio.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("installing asset: %w", err)
	}
	return sum, nil
}

// Verify checks every installed registry asset against the lock file.
func (m *Manager) Verify(man *manifest.Manifest) ([]Status, error) {
	assets, err := m.Plan(man)
	if err != nil {
		return nil, err
	}
	lock, err := LoadLock(m.cfg.LockPath)
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(assets))
	for _, asset := range assets {
		key := manifest.Normalize(asset.Name)
		entry, locked := lock.Assets[key]

		var state State
		switch {
		case asset.Git != nil:
			if _, err := os.Stat(filepath.Join(m.cfg.AssetDir, key)); err != nil {
				state = StateMissing
			} else {
				state = StateOK
			}
		case !locked:
			state = StateMissing
		default:
			state = m.verifyFile(filepath.Join(m.cfg.AssetDir, entry.File), entry.SHA256)
		}
		statuses = append(statuses, Status{Asset: asset, State: state})
	}
	return statuses, nil
}

// Installed returns the lock file's record of synced assets, keyed by
// normalized name.
func (m *Manager) Installed() (map[string]LockEntry, error) {
	lock, err := LoadLock(m.cfg.LockPath)
	if err != nil {
		return nil, err
	}
	return lock.Assets, nil
}

func (m *Manager) verifyFile(path, wantSum string) State {
	if _, err := os.Stat(path); err != nil {
		return StateMissing
	}
	if wantSum == "" {
		return StateOK
	}
	sum, err := fileSHA256(path)
	if err != nil || sum != wantSum {
		return StateModified
	}
	return StateOK
}

func installName(asset Asset) string {
	return fmt.Sprintf("%s-%s.bin", manifest.Normalize(asset.Name), asset.Version)
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// decompressXZ decompresses an xz file using the native Go implementation.
func decompressXZ(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source file: %w", err)
	}
	defer in.Close()

	r, err := xz.NewReader(in)
	if err != nil {
		return fmt.Errorf("creating xz reader: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("decompressing data: %w", err)
	}
	return nil
}
