// pkg/assets/types.go
package assets

import (
	"errors"

	"github.com/kamisoel/gait-analyzer/pkg/manifest"
)

var (
	// ErrNotPinned indicates a requirement without an exact version pin
	// and no lock entry to fall back on.
	ErrNotPinned = errors.New("requirement is not pinned")

	// ErrHashMismatch indicates a checksum verification failure.
	ErrHashMismatch = errors.New("hash mismatch")

	// ErrNoSource indicates a requirement with no find-links location to
	// resolve against.
	ErrNoSource = errors.New("no index location for requirement")

	// ErrNotInstalled indicates a verify of an asset that was never
	// synced.
	ErrNotInstalled = errors.New("asset not installed")
)

// Asset is a resolved installable unit of the manifest.
type Asset struct {
	Name    string
	Version string              // empty for source-control references
	Sources []string            // candidate download URLs, tried in order
	Git     *manifest.SourceRef // set for source-control references
	SHA256  string              // expected digest, empty before first sync
}

// State describes an asset's installation status.
type State string

const (
	StateMissing  State = "missing"
	StateOK       State = "ok"
	StateModified State = "modified"
)

// Status pairs an asset with its on-disk state.
type Status struct {
	Asset Asset
	State State
}
