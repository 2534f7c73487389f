package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mealquest/backend/internal/domain"
)

// SessionManagerConfig holds configuration shared by every session
type SessionManagerConfig struct {
	PageSize         int
	PersistFavorites bool
	IdleTTL          time.Duration // 0 keeps sessions until they are closed
	Logger           *slog.Logger
}

// session is a live controller and the last time a request reached it
type session struct {
	ctrl     *Controller
	lastUsed atomic.Int64 // unix nanoseconds
}

func (s *session) touch(now time.Time) {
	s.lastUsed.Store(now.UnixNano())
}

func (s *session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastUsed.Load()))
}

// SessionManager maps session ids to live controllers. Each session's
// history and favorites live in their own slots of the shared store.
type SessionManager struct {
	client domain.RecipeClient
	store  domain.KeyValueStore
	config SessionManagerConfig
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewSessionManager creates a session manager with dependencies
func NewSessionManager(client domain.RecipeClient, store domain.KeyValueStore, config SessionManagerConfig) *SessionManager {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		client:   client,
		store:    store,
		config:   config,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Open returns the controller for id, creating it if needed. An empty id
// starts a new session. Reopening a known id after Close or eviction
// restores its persisted history.
func (m *SessionManager) Open(ctx context.Context, id string) (string, *Controller, error) {
	if id == "" {
		id = uuid.NewString()
	} else {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return "", nil, fmt.Errorf("%w: session id must be a UUID", domain.ErrInvalidRequest)
		}
		id = parsed.String()
	}

	if c, err := m.Get(id); err == nil {
		return id, c, nil
	}

	// slots are read without holding mu; a slow backend must not stall other sessions
	logger := m.logger.With("session_id", id)
	history := LoadHistory(ctx, m.store, HistoryKey(id), logger)

	var favoritesStore domain.KeyValueStore
	if m.config.PersistFavorites {
		favoritesStore = m.store
	}
	favorites := LoadFavorites(ctx, favoritesStore, FavoritesKey(id), logger)

	c := NewController(m.client, history, favorites, ControllerConfig{
		PageSize: m.config.PageSize,
		Logger:   logger,
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	// a concurrent Open of the same id may have won the race
	if s, ok := m.sessions[id]; ok {
		s.touch(m.now())
		return id, s.ctrl, nil
	}
	s := &session{ctrl: c}
	s.touch(m.now())
	m.sessions[id] = s

	logger.Info("session opened", "history", len(history.Terms()), "favorites", len(favorites.Items()))
	return id, c, nil
}

// Get returns the live controller for id and marks the session as used
func (m *SessionManager) Get(id string) (*Controller, error) {
	id = normalizeSessionID(id)

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.touch(m.now())
	return s.ctrl, nil
}

// Close evicts the session. Its persisted slots are kept.
func (m *SessionManager) Close(id string) error {
	id = normalizeSessionID(id)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.sessions, id)

	m.logger.Info("session closed", "session_id", id)
	return nil
}

// Forget evicts the session if it is live and deletes its persisted slots.
// Forgetting a session that only exists in the store is allowed.
func (m *SessionManager) Forget(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: session id must be a UUID", domain.ErrInvalidRequest)
	}
	id = parsed.String()

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	for _, key := range []string{HistoryKey(id), FavoritesKey(id)} {
		if err := m.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("%w: deleting %s: %w", domain.ErrPersistenceWriteFailure, key, err)
		}
	}

	m.logger.Info("session forgotten", "session_id", id)
	return nil
}

// EvictIdle drops sessions unused for longer than the idle TTL. Sessions with
// an open event stream are kept. Returns the number of evicted sessions.
func (m *SessionManager) EvictIdle() int {
	if m.config.IdleTTL <= 0 {
		return 0
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		if s.idleSince(now) <= m.config.IdleTTL || s.ctrl.subscriberCount() > 0 {
			continue
		}
		delete(m.sessions, id)
		evicted++
	}
	if evicted > 0 {
		m.logger.Info("idle sessions evicted", "count", evicted, "live", len(m.sessions))
	}
	return evicted
}

// RunSweeper evicts idle sessions every interval until ctx is done
func (m *SessionManager) RunSweeper(ctx context.Context, interval time.Duration) {
	if m.config.IdleTTL <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle()
		}
	}
}

// Len returns the number of live sessions
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func normalizeSessionID(id string) string {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return id
}

// HistoryKey is the slot holding a session's search history
func HistoryKey(sessionID string) string {
	return "session:" + sessionID + ":searchHistory"
}

// FavoritesKey is the slot holding a session's favorites when they are persisted
func FavoritesKey(sessionID string) string {
	return "session:" + sessionID + ":favorites"
}
