package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/navihq/navi/internal/fileutil"
)

// Store persists sessions and their message history.
type Store interface {
	Create(s *Session) error
	Get(id string) (*Session, error)
	Update(s *Session) error
	AppendMessage(sessionID string, m *Message) error
	ReadMessages(sessionID string) ([]*Message, error)
	// RewriteMessages replaces the whole message log, used by pruning.
	RewriteMessages(sessionID string, msgs []*Message) error
	List() ([]*Session, error)
	Delete(id string) error
	// Fork copies a session and its messages under a new id.
	Fork(id, title string) (*Session, error)
	// CleanupArchived deletes archived sessions older than the retention.
	CleanupArchived(retention time.Duration) (int, error)
}

const (
	metaFileName     = "session.json"
	messagesFileName = "messages.jsonl"
)

// FileStore keeps one directory per session under root, with session.json
// for metadata and messages.jsonl for the append-only message log.
type FileStore struct {
	mu   sync.Mutex
	root string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}
	return &FileStore{root: root}, nil
}

func (fs *FileStore) dir(id string) string {
	return filepath.Join(fs.root, id)
}

// Create persists a new session. A missing ID is assigned.
func (fs *FileStore) Create(s *Session) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	dir := fs.dir(s.ID)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	return fileutil.WriteJSONAtomic(filepath.Join(dir, metaFileName), s, 0o600)
}

// Get loads session metadata. os.ErrNotExist is wrapped for missing ids.
func (fs *FileStore) Get(id string) (*Session, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.getLocked(id)
}

func (fs *FileStore) getLocked(id string) (*Session, error) {
	var s Session
	if err := fileutil.ReadJSON(filepath.Join(fs.dir(id), metaFileName), &s); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session %s: %w", id, os.ErrNotExist)
		}
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	return &s, nil
}

// Update rewrites session metadata atomically.
func (fs *FileStore) Update(s *Session) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	dir := fs.dir(s.ID)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("session %s: %w", s.ID, err)
	}
	s.UpdatedAt = time.Now().UTC()
	return fileutil.WriteJSONAtomic(filepath.Join(dir, metaFileName), s, 0o600)
}

// AppendMessage appends one message to the session's JSONL log.
func (fs *FileStore) AppendMessage(sessionID string, m *Message) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	line, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	path := filepath.Join(fs.dir(sessionID), messagesFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open message log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return f.Sync()
}

// ReadMessages loads the full message log in order. Corrupt lines are
// skipped rather than failing the whole read.
func (fs *FileStore) ReadMessages(sessionID string) ([]*Message, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.readMessagesLocked(sessionID)
}

func (fs *FileStore) readMessagesLocked(sessionID string) ([]*Message, error) {
	path := filepath.Join(fs.dir(sessionID), messagesFileName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open message log: %w", err)
	}
	defer f.Close()

	var msgs []*Message
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var m Message
		if err := json.Unmarshal(line, &m); err != nil {
			continue
		}
		msgs = append(msgs, &m)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read message log: %w", err)
	}
	return msgs, nil
}

// RewriteMessages replaces the message log atomically.
func (fs *FileStore) RewriteMessages(sessionID string, msgs []*Message) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.rewriteMessagesLocked(sessionID, msgs)
}

func (fs *FileStore) rewriteMessagesLocked(sessionID string, msgs []*Message) error {
	dir := fs.dir(sessionID)
	tmp, err := os.CreateTemp(dir, messagesFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("rewrite message log: %w", err)
	}
	tmpName := tmp.Name()
	w := bufio.NewWriter(tmp)
	for _, m := range msgs {
		line, err := json.Marshal(m)
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("encode message: %w", err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("rewrite message log: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("rewrite message log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("rewrite message log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rewrite message log: %w", err)
	}
	return os.Rename(tmpName, filepath.Join(dir, messagesFileName))
}

// List returns all sessions, newest first by UpdatedAt. Directories with
// unreadable metadata are skipped.
func (fs *FileStore) List() ([]*Session, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	entries, err := os.ReadDir(fs.root)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var out []*Session
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		s, err := fs.getLocked(e.Name())
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Delete removes a session and its messages.
func (fs *FileStore) Delete(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return os.RemoveAll(fs.dir(id))
}

// Fork copies a session's metadata and message log under a fresh id. The
// fork starts unarchived with counters reset; the backend session binding is
// not carried over.
func (fs *FileStore) Fork(id, title string) (*Session, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	src, err := fs.getLocked(id)
	if err != nil {
		return nil, err
	}
	msgs, err := fs.readMessagesLocked(id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	forked := &Session{
		ID:         uuid.NewString(),
		Title:      title,
		ProjectID:  src.ProjectID,
		Model:      src.Model,
		CreatedAt:  now,
		UpdatedAt:  now,
		ForkedFrom: src.ID,
	}
	if forked.Title == "" {
		forked.Title = src.Title + " (fork)"
	}
	dir := fs.dir(forked.ID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create fork dir: %w", err)
	}
	if err := fileutil.WriteJSONAtomic(filepath.Join(dir, metaFileName), forked, 0o600); err != nil {
		return nil, err
	}
	for i := range msgs {
		msgs[i].SessionID = forked.ID
	}
	if err := fs.rewriteMessagesLocked(forked.ID, msgs); err != nil {
		return nil, err
	}
	return forked, nil
}

// CleanupArchived removes archived sessions whose ArchivedAt is older than
// retention. A zero retention disables cleanup.
func (fs *FileStore) CleanupArchived(retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, nil
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	entries, err := os.ReadDir(fs.root)
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}
	cutoff := time.Now().UTC().Add(-retention)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		s, err := fs.getLocked(e.Name())
		if err != nil {
			continue
		}
		if !s.Archived || s.ArchivedAt.IsZero() || s.ArchivedAt.After(cutoff) {
			continue
		}
		if err := os.RemoveAll(fs.dir(s.ID)); err != nil {
			return removed, fmt.Errorf("remove archived session %s: %w", s.ID, err)
		}
		removed++
	}
	return removed, nil
}
