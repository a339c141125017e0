// Package data persists what Caelum remembers between runs: the history
// of executed commands, kept in a SQLite file under the data directory.
package data

import (
	"os"
	"path/filepath"
	"sync"
)

var (
	dirMu   sync.RWMutex
	dataDir = "."
)

// SetDataDir sets the directory for all data files.
func SetDataDir(dir string) {
	dirMu.Lock()
	defer dirMu.Unlock()
	dataDir = dir
}

// DataDir returns the current data directory.
func DataDir() string {
	dirMu.RLock()
	defer dirMu.RUnlock()
	return dataDir
}

// Path resolves name against the data directory. Absolute names are
// returned unchanged.
func Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(DataDir(), name)
}

// EnsureDir creates the data directory if it does not exist.
func EnsureDir() error {
	return os.MkdirAll(DataDir(), 0o755)
}
