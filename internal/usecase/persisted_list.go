package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mealquest/backend/internal/domain"
)

// PersistedList is an ordered collection mirrored into a single key-value slot.
// It is read once when loaded and written in full after every mutation.
// A nil store keeps the list in memory only.
type PersistedList[T any] struct {
	mu     sync.Mutex
	store  domain.KeyValueStore
	key    string
	items  []T
	logger *slog.Logger
}

// LoadPersistedList reads the slot at key. A missing, unreadable or malformed
// slot yields an empty list; the failure is logged, never returned.
func LoadPersistedList[T any](ctx context.Context, store domain.KeyValueStore, key string, logger *slog.Logger) *PersistedList[T] {
	if logger == nil {
		logger = slog.Default()
	}
	l := &PersistedList[T]{
		store:  store,
		key:    key,
		items:  []T{},
		logger: logger,
	}
	if store == nil {
		return l
	}

	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		logger.Warn("persisted list unreadable, starting empty", "key", key,
			"error", fmt.Errorf("%w: %v", domain.ErrPersistenceReadFailure, err))
		return l
	}
	if !ok || raw == "" {
		return l
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.Warn("persisted list malformed, starting empty", "key", key,
			"error", fmt.Errorf("%w: %v", domain.ErrPersistenceReadFailure, err))
		return l
	}
	if items != nil {
		l.items = items
	}

	logger.Debug("persisted list loaded", "key", key, "count", len(l.items))
	return l
}

// Items returns a copy of the current contents
func (l *PersistedList[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.items...)
}

// Len returns the number of items
func (l *PersistedList[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Update applies fn to a copy of the items. When fn reports a change the result
// becomes the new contents and is written to the slot before Update returns.
// Updates are serialized, so every write carries all earlier mutations.
func (l *PersistedList[T]) Update(ctx context.Context, fn func(items []T) ([]T, bool)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next, changed := fn(append([]T(nil), l.items...))
	if !changed {
		return
	}
	if next == nil {
		next = []T{}
	}
	l.items = next
	l.persist(ctx)
}

// persist writes the full collection. Failures are logged and swallowed.
func (l *PersistedList[T]) persist(ctx context.Context) {
	if l.store == nil {
		return
	}

	data, err := json.Marshal(l.items)
	if err != nil {
		l.logger.Warn("persisted list not encodable", "key", l.key,
			"error", fmt.Errorf("%w: %v", domain.ErrPersistenceWriteFailure, err))
		return
	}
	if err := l.store.Set(ctx, l.key, string(data)); err != nil {
		l.logger.Warn("persisted list write failed", "key", l.key,
			"error", fmt.Errorf("%w: %v", domain.ErrPersistenceWriteFailure, err))
	}
}

// History is the append-only list of submitted search terms. Duplicates are kept.
type History struct {
	list *PersistedList[string]
}

// LoadHistory loads the history stored at key
func LoadHistory(ctx context.Context, store domain.KeyValueStore, key string, logger *slog.Logger) *History {
	return &History{list: LoadPersistedList[string](ctx, store, key, logger)}
}

// Append records a term at the end of the history
func (h *History) Append(ctx context.Context, term string) {
	h.list.Update(ctx, func(terms []string) ([]string, bool) {
		return append(terms, term), true
	})
}

// Terms returns the history, oldest first
func (h *History) Terms() []string {
	return h.list.Items()
}

// Favorites is the set of saved recipes, unique by id, in insertion order
type Favorites struct {
	list *PersistedList[domain.RecipeSummary]
}

// LoadFavorites loads the favorites stored at key. A nil store keeps them session-local.
func LoadFavorites(ctx context.Context, store domain.KeyValueStore, key string, logger *slog.Logger) *Favorites {
	return &Favorites{list: LoadPersistedList[domain.RecipeSummary](ctx, store, key, logger)}
}

// Add appends recipe unless its id is already present. Reports whether it was added.
func (f *Favorites) Add(ctx context.Context, recipe domain.RecipeSummary) bool {
	added := false
	f.list.Update(ctx, func(items []domain.RecipeSummary) ([]domain.RecipeSummary, bool) {
		if indexOfRecipe(items, recipe.ID) >= 0 {
			return items, false
		}
		added = true
		return append(items, recipe), true
	})
	return added
}

// Remove deletes the recipe with id if present. Reports whether it was removed.
func (f *Favorites) Remove(ctx context.Context, id int) bool {
	removed := false
	f.list.Update(ctx, func(items []domain.RecipeSummary) ([]domain.RecipeSummary, bool) {
		i := indexOfRecipe(items, id)
		if i < 0 {
			return items, false
		}
		removed = true
		return append(items[:i], items[i+1:]...), true
	})
	return removed
}

// Toggle removes recipe if present, adds it otherwise, and returns the new membership
func (f *Favorites) Toggle(ctx context.Context, recipe domain.RecipeSummary) bool {
	member := false
	f.list.Update(ctx, func(items []domain.RecipeSummary) ([]domain.RecipeSummary, bool) {
		if i := indexOfRecipe(items, recipe.ID); i >= 0 {
			return append(items[:i], items[i+1:]...), true
		}
		member = true
		return append(items, recipe), true
	})
	return member
}

// Find returns the favorite with id
func (f *Favorites) Find(id int) (domain.RecipeSummary, bool) {
	items := f.list.Items()
	if i := indexOfRecipe(items, id); i >= 0 {
		return items[i], true
	}
	return domain.RecipeSummary{}, false
}

// Items returns the favorites in insertion order
func (f *Favorites) Items() []domain.RecipeSummary {
	return f.list.Items()
}

// Titles returns the favorite titles in insertion order
func (f *Favorites) Titles() []string {
	items := f.list.Items()
	titles := make([]string, 0, len(items))
	for _, r := range items {
		titles = append(titles, r.Title)
	}
	return titles
}
