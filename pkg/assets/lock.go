// pkg/assets/lock.go
package assets

import (
	"fmt"
	"os"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// LockEntry records the resolved state of one asset.
type LockEntry struct {
	Version string `yaml:"version,omitempty"`
	SHA256  string `yaml:"sha256"`
	Source  string `yaml:"source"` // URL or source-control reference
	File    string `yaml:"file"`   // installed file or directory, relative to the asset dir
}

// Lock pins the manifest's requirements to exact artifacts.
type Lock struct {
	Assets map[string]LockEntry `yaml:"assets"`
}

// NewLock returns an empty lock.
func NewLock() *Lock {
	return &Lock{Assets: make(map[string]LockEntry)}
}

// LoadLock reads a lock file, returning an empty lock if the file does not
// exist.
func LoadLock(path string) (*Lock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewLock(), nil
		}
		return nil, fmt.Errorf("reading lock file: %w", err)
	}
	lock := NewLock()
	if err := yaml.Unmarshal(data, lock); err != nil {
		return nil, fmt.Errorf("parsing lock file: %w", err)
	}
	if lock.Assets == nil {
		lock.Assets = make(map[string]LockEntry)
	}
	return lock, nil
}

// Save writes the lock file atomically.
func (l *Lock) Save(path string) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing lock file: %w", err)
	}
	return nil
}
