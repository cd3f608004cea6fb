package tasks

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Key derives the dedup identity of a clean event from its title and
// start instant. The same logical event recomputed on a later run yields
// the same key, so re-running the pipeline never re-creates a task.
func Key(title string, start time.Time) string {
	sum := sha256.Sum256([]byte(title + "|" + start.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(sum[:8])
}

// KeyRecord is the persisted marker for one synced key. The readable
// title/start ride along purely for debugging the state file.
type KeyRecord struct {
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	SyncedAt time.Time `json:"synced_at"`
}

// keySetFile is the on-disk JSON shape.
type keySetFile struct {
	Keys map[string]KeyRecord `json:"keys"`
}

// KeySet is the process-durable set of already-synced keys. Loaded at
// run start, appended to after each confirmed external action, and saved
// atomically. Single-writer, single-process; no locking.
type KeySet struct {
	path string
	keys map[string]KeyRecord
}

// LoadKeySet reads the key set at path. A missing file yields an empty
// set (first run); any other read or decode error is returned.
func LoadKeySet(path string) (*KeySet, error) {
	if path == "" {
		return nil, errors.New("key set path is empty")
	}

	s := &KeySet{path: path, keys: make(map[string]KeyRecord)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}

	var file keySetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if file.Keys != nil {
		s.keys = file.Keys
	}
	return s, nil
}

// Has reports whether key has already been acted upon.
func (s *KeySet) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Add records key. The caller must Save afterwards to make it durable.
func (s *KeySet) Add(key string, rec KeyRecord) {
	s.keys[key] = rec
}

// Len returns the number of recorded keys.
func (s *KeySet) Len() int {
	return len(s.keys)
}

// Save writes the set to disk atomically (temp file + rename, 0600), the
// same way the config layer persists its file. Every key round-trips
// exactly across a save/load cycle.
func (s *KeySet) Save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(keySetFile{Keys: s.keys}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".kurskal-synced-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
