package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"planneat/internal/logger"
	"planneat/internal/recipe"
	"planneat/internal/storage"

	"go.uber.org/zap"
)

// StorageKey is the KV key holding the persisted favorites.
const StorageKey = "favorites"

// Stats summarizes the favorites collection.
type Stats struct {
	Count           int
	VegetarianCount int
	AverageCalories int
}

// Store keeps favorite recipes in insertion order, at most one per id.
type Store struct {
	mu      sync.Mutex
	kv      storage.KV
	entries []recipe.ClassifiedRecipe
	logger  *zap.Logger
}

// NewStore loads persisted favorites. Missing, unreadable or corrupt data
// yields an empty collection.
func NewStore(ctx context.Context, kv storage.KV, l *zap.Logger) *Store {
	s := &Store{kv: kv, logger: logger.OrNop(l)}
	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		s.logger.Warn("failed to read favorites, starting empty", zap.Error(err))
		return
	}
	if !ok {
		return
	}

	var entries []recipe.ClassifiedRecipe
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.logger.Warn("corrupt favorites, starting empty", zap.Error(err))
		return
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		s.entries = append(s.entries, e)
	}
}

// save must be called with mu held.
func (s *Store) save(ctx context.Context) error {
	entries := s.entries
	if entries == nil {
		entries = []recipe.ClassifiedRecipe{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal favorites: %w", storage.ErrWriteFailed, err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(data)); err != nil {
		s.logger.Error("failed to save favorites", zap.Error(err))
		return fmt.Errorf("%w: failed to save favorites: %w", storage.ErrWriteFailed, err)
	}
	return nil
}

func (s *Store) index(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Add appends r unless a favorite with the same id exists; the first
// insert wins and a duplicate add does not write.
func (s *Store) Add(ctx context.Context, r recipe.ClassifiedRecipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index(r.ID) >= 0 {
		return nil
	}
	s.entries = append(s.entries, r.Clone())
	return s.save(ctx)
}

// Remove deletes the favorite with id. Removing an unknown id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return nil
	}
	s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
	return s.save(ctx)
}

// IsFavorite reports whether id is saved.
func (s *Store) IsFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index(id) >= 0
}

// All returns a copy of the favorites in insertion order.
func (s *Store) All() []recipe.ClassifiedRecipe {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]recipe.ClassifiedRecipe, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

// Stats returns count, vegetarian count and rounded average calories.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Count: len(s.entries)}
	if st.Count == 0 {
		return st
	}
	total := 0
	for _, e := range s.entries {
		if e.IsVegetarian {
			st.VegetarianCount++
		}
		total += e.EstimatedCalories
	}
	st.AverageCalories = int(math.Round(float64(total) / float64(st.Count)))
	return st
}
