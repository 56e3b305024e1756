// Package history persists conversation history and session state in
// SQLite. The engine itself only ever reads an ordered, timestamped
// message list and appends to it; this package keeps that list across
// process restarts.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/dandytbermillo/annotation-backup-sub000/internal/chat"
)

// Store is the SQLite-backed conversation store.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	log  *zap.Logger
	path string
}

// SessionState is the persisted per-session bookkeeping.
type SessionState struct {
	SessionID    string
	StartedAt    time.Time
	LastActiveAt time.Time
	TurnCount    int
}

// Open initializes the database at path, creating directories and schema
// as needed. Use ":memory:" for tests.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	s := &Store{db: db, log: logger.Named("history"), path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id     TEXT PRIMARY KEY,
	started_at     INTEGER NOT NULL,
	last_active_at INTEGER NOT NULL,
	turn_count     INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS messages (
	id           TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL,
	role         TEXT NOT NULL,
	content      TEXT NOT NULL,
	created_at   INTEGER NOT NULL,
	options_json TEXT,
	suggestion_json TEXT,
	preview_json TEXT,
	opened_panel TEXT NOT NULL DEFAULT '',
	from_context INTEGER NOT NULL DEFAULT 0,
	is_error     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate history schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendMessage stores one message. Duplicate IDs are ignored so replays
// after a crash stay idempotent.
func (s *Store) AppendMessage(sessionID string, msg chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	optionsJSON, err := marshalOrNull(msg.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	suggestionJSON, err := marshalOrNull(msg.Suggestion)
	if err != nil {
		return fmt.Errorf("encode suggestion: %w", err)
	}
	previewJSON, err := marshalOrNull(msg.Preview)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR IGNORE INTO messages
		 (id, session_id, role, content, created_at, options_json, suggestion_json, preview_json, opened_panel, from_context, is_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, sessionID, string(msg.Role), msg.Content, msg.CreatedAt.UnixMilli(),
		optionsJSON, suggestionJSON, previewJSON, msg.OpenedPanel,
		boolToInt(msg.FromContext), boolToInt(msg.IsError),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// RecentMessages loads the newest `limit` messages for a session, oldest
// first, with their structured payloads intact.
func (s *Store) RecentMessages(sessionID string, limit int) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 200
	}

	rows, err := s.db.Query(
		`SELECT id, role, content, created_at, options_json, suggestion_json, preview_json, opened_panel, from_context, is_error
		 FROM (
			SELECT * FROM messages WHERE session_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?
		 ) ORDER BY created_at ASC, rowid ASC`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	var out []chat.Message
	for rows.Next() {
		var msg chat.Message
		var role, openedPanel string
		var createdAt int64
		var optionsJSON, suggestionJSON, previewJSON sql.NullString
		var fromContext, isError int
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &createdAt,
			&optionsJSON, &suggestionJSON, &previewJSON, &openedPanel,
			&fromContext, &isError); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = chat.Role(role)
		msg.CreatedAt = time.UnixMilli(createdAt)
		msg.OpenedPanel = openedPanel
		msg.FromContext = fromContext != 0
		msg.IsError = isError != 0

		if optionsJSON.Valid {
			if err := json.Unmarshal([]byte(optionsJSON.String), &msg.Options); err != nil {
				s.log.Warn("dropping undecodable options payload", zap.String("message", msg.ID), zap.Error(err))
			}
		}
		if suggestionJSON.Valid {
			if err := json.Unmarshal([]byte(suggestionJSON.String), &msg.Suggestion); err != nil {
				s.log.Warn("dropping undecodable suggestion payload", zap.String("message", msg.ID), zap.Error(err))
			}
		}
		if previewJSON.Valid {
			if err := json.Unmarshal([]byte(previewJSON.String), &msg.Preview); err != nil {
				s.log.Warn("dropping undecodable preview payload", zap.String("message", msg.ID), zap.Error(err))
			}
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// SaveSession upserts the session bookkeeping row.
func (s *Store) SaveSession(state SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, started_at, last_active_at, turn_count)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
			last_active_at = excluded.last_active_at,
			turn_count = excluded.turn_count`,
		state.SessionID, state.StartedAt.UnixMilli(), state.LastActiveAt.UnixMilli(), state.TurnCount,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LatestSession returns the most recently active session, or nil when the
// store is empty.
func (s *Store) LatestSession() (*SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		`SELECT session_id, started_at, last_active_at, turn_count
		 FROM sessions ORDER BY last_active_at DESC LIMIT 1`,
	)

	var state SessionState
	var startedAt, lastActive int64
	err := row.Scan(&state.SessionID, &startedAt, &lastActive, &state.TurnCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest session: %w", err)
	}
	state.StartedAt = time.UnixMilli(startedAt)
	state.LastActiveAt = time.UnixMilli(lastActive)
	return &state, nil
}

// ListSessions returns all stored sessions, most recently active first.
func (s *Store) ListSessions() ([]SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT session_id, started_at, last_active_at, turn_count
		 FROM sessions ORDER BY last_active_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionState
	for rows.Next() {
		var state SessionState
		var startedAt, lastActive int64
		if err := rows.Scan(&state.SessionID, &startedAt, &lastActive, &state.TurnCount); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		state.StartedAt = time.UnixMilli(startedAt)
		state.LastActiveAt = time.UnixMilli(lastActive)
		out = append(out, state)
	}
	return out, rows.Err()
}

// CountMessages returns how many messages a session holds.
func (s *Store) CountMessages(sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// TrimRetained deletes everything but the newest `keep` messages of a
// session, mirroring the in-memory retained window.
func (s *Store) TrimRetained(sessionID string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep <= 0 {
		return fmt.Errorf("trim: keep must be positive")
	}
	_, err := s.db.Exec(
		`DELETE FROM messages WHERE session_id = ? AND rowid NOT IN (
			SELECT rowid FROM messages WHERE session_id = ?
			ORDER BY created_at DESC, rowid DESC LIMIT ?
		 )`,
		sessionID, sessionID, keep,
	)
	if err != nil {
		return fmt.Errorf("trim messages: %w", err)
	}
	return nil
}

// DeleteSession removes a session and its messages ("clear chat").
func (s *Store) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session messages: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func marshalOrNull(v any) (any, error) {
	switch t := v.(type) {
	case []chat.PendingOption:
		if len(t) == 0 {
			return nil, nil
		}
	case *chat.SuggestionPayload:
		if t == nil {
			return nil, nil
		}
	case *chat.PreviewSummary:
		if t == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
