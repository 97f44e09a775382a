package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// RecordVersion is the only ResumeRecord layout this client understands.
const RecordVersion = 1

// ResumeRecord is the progress a client persists on every join and tick so a
// later connection can rejoin with the accumulated duration.
type ResumeRecord struct {
	Version     int    `json:"version"`
	RoomID      string `json:"roomId"`
	DisplayName string `json:"displayName"`
	IsActive    bool   `json:"isActive"`
	Duration    int64  `json:"duration"`
}

// ResumeStore is one persisted slot. Concurrent writers to the same slot are
// not coordinated: the last Save wins.
type ResumeStore interface {
	// Load reports ok=false when nothing usable is stored.
	Load() (rec ResumeRecord, ok bool, err error)
	Save(rec ResumeRecord) error
	Clear() error
}

type MemoryStore struct {
	mu  sync.Mutex
	rec *ResumeRecord
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load() (ResumeRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil || m.rec.Version != RecordVersion {
		return ResumeRecord{}, false, nil
	}
	return *m.rec, true, nil
}

func (m *MemoryStore) Save(rec ResumeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &rec
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}

// FileStore keeps the record as JSON in a single file.
type FileStore struct {
	fs   afero.Fs
	path string
}

func NewFileStore(fsys afero.Fs, path string) *FileStore {
	return &FileStore{fs: fsys, path: path}
}

func (f *FileStore) Load() (ResumeRecord, bool, error) {
	data, err := afero.ReadFile(f.fs, f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ResumeRecord{}, false, nil
	}
	if err != nil {
		return ResumeRecord{}, false, fmt.Errorf("read resume record: %w", err)
	}
	var rec ResumeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ResumeRecord{}, false, fmt.Errorf("decode resume record: %w", err)
	}
	if rec.Version != RecordVersion {
		return ResumeRecord{}, false, nil
	}
	return rec, true, nil
}

// Save writes to a temp file and renames it over the record.
func (f *FileStore) Save(rec ResumeRecord) error {
	rec.Version = RecordVersion
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode resume record: %w", err)
	}
	if err := f.fs.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create resume dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("write resume record: %w", err)
	}
	if err := f.fs.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace resume record: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	if err := f.fs.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove resume record: %w", err)
	}
	return nil
}
