package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const localFile = "state.json"

type localState struct {
	DistinctID string `json:"distinct_id"`
	Verified   bool   `json:"verified"`
}

// Local is the cross-session namespace: a small state file under the user's
// home directory holding the stable anonymous identifier and the access-gate
// flag. Unlike the session backup it persists across sessions.
type Local struct {
	mu    sync.Mutex
	path  string
	state localState
}

// DefaultLocalDir returns the per-user state directory.
func DefaultLocalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".facefortune"), nil
}

// OpenLocal loads (or lazily creates) the local state under dir.
func OpenLocal(dir string) (*Local, error) {
	l := &Local{path: filepath.Join(dir, localFile)}

	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &l.state); err != nil {
		// A corrupt state file is replaced on the next save.
		l.state = localState{}
	}
	return l, nil
}

// DistinctID returns the stable anonymous identifier, minting and persisting
// one on first use.
func (l *Local) DistinctID() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.DistinctID == "" {
		l.state.DistinctID = uuid.NewString()
		_ = l.save()
	}
	return l.state.DistinctID
}

// Verified reports whether the access gate has been passed on this install.
func (l *Local) Verified() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Verified
}

// SetVerified persists the access-gate flag.
func (l *Local) SetVerified(v bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Verified = v
	return l.save()
}

func (l *Local) save() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(l.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0644)
}
