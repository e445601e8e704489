package internal

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// SessionKey is the record key of the default session profile
const SessionKey = "ga4AiAnalystSession_v2"

// SessionKeyFor returns the record key for a named profile
func SessionKeyFor(profile string) string {
	profile = strings.TrimSpace(profile)
	if profile == "" || profile == "default" {
		return SessionKey
	}
	return SessionKey + ":" + profile
}

// ProfileFromKey is the inverse of SessionKeyFor
func ProfileFromKey(key string) string {
	if key == SessionKey {
		return "default"
	}
	return strings.TrimPrefix(key, SessionKey+":")
}

// SessionStore persists one snapshot under a fixed key. Its methods
// never return persistence errors; they are logged.
type SessionStore struct {
	kv  KVStore
	key string
	now func() time.Time
}

// NewSessionStore creates a store for profile on kv
func NewSessionStore(kv KVStore, profile string) *SessionStore {
	return &SessionStore{kv: kv, key: SessionKeyFor(profile), now: time.Now}
}

// Key returns the record key
func (s *SessionStore) Key() string {
	return s.key
}

// Save writes snap. When the full snapshot does not fit the quota it
// retries without dataset payloads so summaries survive.
func (s *SessionStore) Save(snap *SessionSnapshot) {
	if s == nil || s.kv == nil || snap == nil {
		return
	}
	cp := *snap
	cp.SavedAt = s.now()

	data, err := json.Marshal(&cp)
	if err != nil {
		LogError("Error serializing session: %v", err)
		return
	}

	err = s.kv.Set(s.key, string(data))
	if err == nil {
		return
	}
	if !errors.Is(err, ErrQuotaExceeded) {
		LogError("Error saving session: %v", err)
		return
	}

	LogWarn("Session exceeds storage quota, saving without dataset payloads")
	slim, err := json.Marshal(cp.WithoutPayloads())
	if err != nil {
		LogError("Error serializing session: %v", err)
		return
	}
	if err := s.kv.Set(s.key, string(slim)); err != nil {
		LogError("Error saving session summary: %v", err)
	}
}

// Load reads the stored snapshot. A missing record yields (nil, false).
// A corrupt or invalid record is removed and also yields (nil, false).
func (s *SessionStore) Load() (*SessionSnapshot, bool) {
	if s == nil || s.kv == nil {
		return nil, false
	}
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		LogError("Error loading session: %v", err)
		return nil, false
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, false
	}

	snap, err := DecodeSnapshot(raw)
	if err != nil {
		LogError("Error loading state from storage: %v", err)
		s.Clear()
		return nil, false
	}
	return snap, true
}

// Clear removes the stored record
func (s *SessionStore) Clear() {
	if s == nil || s.kv == nil {
		return
	}
	if err := s.kv.Remove(s.key); err != nil {
		LogError("Error clearing session: %v", err)
	}
}

// DecodeSnapshot parses and validates a stored snapshot
func DecodeSnapshot(raw string) (*SessionSnapshot, error) {
	var snap SessionSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, &ParseError{Source: "session", Key: SessionKey, Err: err}
	}
	if err := snap.Validate(); err != nil {
		return nil, &ParseError{Source: "session", Key: SessionKey, Err: err}
	}
	return &snap, nil
}
