package storage

import (
    "errors"
    "sync"
    "time"

    "github.com/google/uuid"
    "golang.org/x/crypto/bcrypt"

    "ads-dashboard/internal/daterange"
)

var (
    ErrSessionNotFound = errors.New("session not found")
    ErrUnauthorized    = errors.New("invalid password")
)

// Session is the per-visitor state of the dashboard: whether the password
// gate has been passed and the last client and window that were selected.
type Session struct {
    ID            string
    Authenticated bool
    Client        string
    Preset        string
    Range         *daterange.Range
    CreatedAt     time.Time
    ExpiresAt     time.Time
}

// MemoryStore keeps sessions in process memory until logout or expiry.
type MemoryStore struct {
    mu           sync.RWMutex
    sessions     map[string]*Session
    ttl          time.Duration
    passwordHash []byte
    now          func() time.Time
}

// NewMemoryStore creates a store whose sessions live for ttl. An empty
// passwordHash disables the gate and every session starts authenticated.
func NewMemoryStore(ttl time.Duration, passwordHash string) *MemoryStore {
    return &MemoryStore{
        sessions:     make(map[string]*Session),
        ttl:          ttl,
        passwordHash: []byte(passwordHash),
        now:          time.Now,
    }
}

func (s *MemoryStore) GateEnabled() bool {
    return len(s.passwordHash) > 0
}

// Create starts a new session.
func (s *MemoryStore) Create() Session {
    s.mu.Lock()
    defer s.mu.Unlock()

    now := s.now()
    session := &Session{
        ID:            uuid.NewString(),
        Authenticated: !s.GateEnabled(),
        CreatedAt:     now,
        ExpiresAt:     now.Add(s.ttl),
    }
    s.sessions[session.ID] = session
    return *session
}

// Get returns a live session. Expired sessions are removed on access.
func (s *MemoryStore) Get(id string) (Session, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    session, ok := s.sessions[id]
    if !ok {
        return Session{}, ErrSessionNotFound
    }
    if !s.now().Before(session.ExpiresAt) {
        delete(s.sessions, id)
        return Session{}, ErrSessionNotFound
    }
    return *session, nil
}

// GetOrCreate returns the session for id, or a fresh one when id is unknown or expired.
func (s *MemoryStore) GetOrCreate(id string) Session {
    if session, err := s.Get(id); err == nil {
        return session
    }
    return s.Create()
}

// Authenticate checks password against the configured hash and marks the session.
func (s *MemoryStore) Authenticate(id, password string) error {
    if s.GateEnabled() {
        if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
            return ErrUnauthorized
        }
    }

    s.mu.Lock()
    defer s.mu.Unlock()

    session, ok := s.sessions[id]
    if !ok || !s.now().Before(session.ExpiresAt) {
        return ErrSessionNotFound
    }
    session.Authenticated = true
    return nil
}

// Remember stores the latest client and window selection of a session.
func (s *MemoryStore) Remember(id, client, preset string, window daterange.Range) {
    s.mu.Lock()
    defer s.mu.Unlock()

    if session, ok := s.sessions[id]; ok {
        session.Client = client
        session.Preset = preset
        session.Range = &window
    }
}

// Delete clears a session (logout).
func (s *MemoryStore) Delete(id string) {
    s.mu.Lock()
    defer s.mu.Unlock()
    delete(s.sessions, id)
}

// PurgeExpired drops every expired session and returns how many were removed.
func (s *MemoryStore) PurgeExpired() int {
    s.mu.Lock()
    defer s.mu.Unlock()

    now := s.now()
    removed := 0
    for id, session := range s.sessions {
        if !now.Before(session.ExpiresAt) {
            delete(s.sessions, id)
            removed++
        }
    }
    return removed
}

func (s *MemoryStore) Len() int {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return len(s.sessions)
}
