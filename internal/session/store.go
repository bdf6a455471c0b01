package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	metadataFilename = "metadata.json"
	imageExtension   = ".png"
)

// renameFile is swapped out by tests to inject a metadata-write failure
// between the image write and the metadata rewrite.
var renameFile = os.Rename

// Store owns every filesystem and metadata operation for sessions under a
// single root directory. Operations against the same session are serialized
// with a per-session mutex; different sessions proceed independently.
type Store struct {
	root string
	log  *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore returns a Store rooted at dir, creating it if needed.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "init", Path: dir, Err: err}
	}
	return &Store{root: dir, log: logger, locks: make(map[string]*sync.Mutex)}, nil
}

// Root returns the sessions root directory.
func (st *Store) Root() string { return st.root }

// sessionLock returns the mutex serializing metadata read-modify-write
// cycles for one session.
func (st *Store) sessionLock(id string) *sync.Mutex {
	st.mu.Lock()
	defer st.mu.Unlock()
	l, ok := st.locks[id]
	if !ok {
		l = &sync.Mutex{}
		st.locks[id] = l
	}
	return l
}

func (st *Store) sessionDir(id string) string {
	return filepath.Join(st.root, id)
}

func (st *Store) metadataPath(id string) string {
	return filepath.Join(st.sessionDir(id), metadataFilename)
}

// Create makes a new session directory and metadata file and returns the
// fresh session. A partially created directory is removed on failure so no
// half-written session is ever loadable.
func (st *Store) Create(name string) (*Session, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}

	s := &Session{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: Now(),
		Evidence:  []Evidence{},
	}

	dir := st.sessionDir(s.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "create session", Path: dir, Err: err}
	}
	if err := st.writeMetadata(s); err != nil {
		// Don't leave valid-looking remains behind.
		os.RemoveAll(dir)
		return nil, err
	}

	st.log.Info("session created", "id", s.ID, "name", name)
	return s, nil
}

// Load reads a session snapshot. Returns ErrNotFound when the directory or
// metadata file is absent and a CorruptError when the metadata exists but
// cannot be parsed.
func (st *Store) Load(id string) (*Session, error) {
	path := st.metadataPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "load session", Path: path, Err: err}
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}
	if s.Evidence == nil {
		s.Evidence = []Evidence{}
	}
	return &s, nil
}

// List returns all loadable sessions ordered by creation time, newest first.
// Sessions whose metadata is missing or unparseable are skipped with a
// warning; partial visibility beats failing the whole listing.
func (st *Store) List() ([]*Session, error) {
	entries, err := os.ReadDir(st.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &StorageError{Op: "list sessions", Path: st.root, Err: err}
	}

	var sessions []*Session
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		s, err := st.Load(entry.Name())
		if err != nil {
			st.log.Warn("skipping unreadable session", "id", entry.Name(), "err", err)
			continue
		}
		sessions = append(sessions, s)
	}

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}

// AddEvidence writes the image file and then rewrites the session metadata
// with the new record appended. The image write completes before the metadata
// references it; if the metadata rewrite fails, the image file is removed so
// a successful call is the only way a reference becomes durable.
func (st *Store) AddEvidence(sessionID string, img PNGEncoder, note string) (*Evidence, error) {
	lock := st.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s, err := st.Load(sessionID)
	if err != nil {
		return nil, err
	}

	ev := Evidence{
		ID:        uuid.New().String(),
		Filename:  generateImageFilename(),
		Timestamp: Now(),
		Note:      note,
	}

	imagePath := filepath.Join(st.sessionDir(sessionID), ev.Filename)
	if err := writeImageFile(imagePath, img); err != nil {
		return nil, err
	}

	s.Evidence = append(s.Evidence, ev)
	if err := st.writeMetadata(s); err != nil {
		if rmErr := os.Remove(imagePath); rmErr != nil {
			st.log.Warn("orphaned image after failed metadata write", "path", imagePath, "err", rmErr)
		}
		return nil, err
	}

	st.log.Info("evidence added", "session", sessionID, "evidence", ev.ID, "file", ev.Filename)
	return &ev, nil
}

// DeleteEvidence removes one evidence record and its image file. The image
// delete is best-effort: a missing file is logged, not fatal. Returns false
// when the session or evidence id does not exist, so a repeated delete is an
// idempotent no-op.
func (st *Store) DeleteEvidence(sessionID, evidenceID string) (bool, error) {
	lock := st.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s, err := st.Load(sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	idx := -1
	for i := range s.Evidence {
		if s.Evidence[i].ID == evidenceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	imagePath := filepath.Join(st.sessionDir(sessionID), s.Evidence[idx].Filename)
	if err := os.Remove(imagePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		st.log.Warn("failed to delete evidence image", "path", imagePath, "err", err)
	}

	s.Evidence = append(s.Evidence[:idx], s.Evidence[idx+1:]...)
	if err := st.writeMetadata(s); err != nil {
		return false, err
	}

	st.log.Info("evidence deleted", "session", sessionID, "evidence", evidenceID)
	return true, nil
}

// Delete removes an entire session directory tree. The metadata file goes
// first: if the tree removal then fails partway, what remains reads as
// not-found rather than corrupt, and listings skip it.
func (st *Store) Delete(sessionID string) (bool, error) {
	lock := st.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	dir := st.sessionDir(sessionID)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, &StorageError{Op: "delete session", Path: dir, Err: err}
	}

	if err := os.Remove(st.metadataPath(sessionID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, &StorageError{Op: "delete session", Path: st.metadataPath(sessionID), Err: err}
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, &StorageError{Op: "delete session", Path: dir, Err: err}
	}

	st.log.Info("session deleted", "id", sessionID)
	return true, nil
}

// Rename changes a session's display name.
func (st *Store) Rename(sessionID, name string) (*Session, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}

	lock := st.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s, err := st.Load(sessionID)
	if err != nil {
		return nil, err
	}
	s.Name = name
	if err := st.writeMetadata(s); err != nil {
		return nil, err
	}
	return s.clone(), nil
}

// SetNote replaces the note on one evidence record.
func (st *Store) SetNote(sessionID, evidenceID, note string) (*Evidence, error) {
	lock := st.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s, err := st.Load(sessionID)
	if err != nil {
		return nil, err
	}
	ev := s.EvidenceByID(evidenceID)
	if ev == nil {
		return nil, ErrNotFound
	}
	ev.Note = note
	if err := st.writeMetadata(s); err != nil {
		return nil, err
	}
	dup := *ev
	return &dup, nil
}

// ImagePath resolves an evidence id to its image file path.
func (st *Store) ImagePath(sessionID, evidenceID string) (string, error) {
	s, err := st.Load(sessionID)
	if err != nil {
		return "", err
	}
	ev := s.EvidenceByID(evidenceID)
	if ev == nil {
		return "", ErrNotFound
	}
	return filepath.Join(st.sessionDir(sessionID), ev.Filename), nil
}

// ReadImage returns the raw image bytes for an evidence record. This is the
// read surface the exporter consumes; it never exposes a write path.
func (st *Store) ReadImage(sessionID, evidenceID string) ([]byte, error) {
	path, err := st.ImagePath(sessionID, evidenceID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Op: "read image", Path: path, Err: err}
	}
	return data, nil
}

// writeMetadata rewrites a session's metadata file atomically via a temp
// file in the same directory plus rename.
func (st *Store) writeMetadata(s *Session) error {
	path := st.metadataPath(s.ID)
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return &StorageError{Op: "write metadata", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), metadataFilename+".*.tmp")
	if err != nil {
		return &StorageError{Op: "write metadata", Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Op: "write metadata", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "write metadata", Path: path, Err: err}
	}
	if err := renameFile(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "write metadata", Path: path, Err: err}
	}
	return nil
}

// PNGEncoder is the image surface the store needs: anything that can write
// itself as PNG.
type PNGEncoder interface {
	EncodePNG(w io.Writer) error
}

// writeImageFile persists an image atomically next to the metadata file.
func writeImageFile(path string, img PNGEncoder) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "capture.*.tmp")
	if err != nil {
		return &StorageError{Op: "write image", Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if err := img.EncodePNG(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Op: "write image", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "write image", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "write image", Path: path, Err: err}
	}
	return nil
}

// generateImageFilename builds a time-based, collision-resistant image
// filename. The millisecond prefix keeps directory listings in capture
// order; the random suffix covers captures landing in the same millisecond.
func generateImageFilename() string {
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.New().String()[:8], imageExtension)
}
