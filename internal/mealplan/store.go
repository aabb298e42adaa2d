package mealplan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"planneat/internal/logger"
	"planneat/internal/recipe"
	"planneat/internal/storage"

	"go.uber.org/zap"
)

// StorageKey is the KV key holding the persisted plan.
const StorageKey = "mealPlan"

// ErrInvalidSlot is returned for a slot outside breakfast, lunch, dinner, snack.
var ErrInvalidSlot = errors.New("invalid meal slot")

// Store owns the meal plan and writes it through to a KV on every mutation.
type Store struct {
	mu     sync.Mutex
	kv     storage.KV
	plan   Plan
	logger *zap.Logger
}

// NewStore loads the persisted plan. A missing blob yields an empty plan; an
// unreadable or corrupt one is logged and also yields an empty plan.
func NewStore(ctx context.Context, kv storage.KV, l *zap.Logger) *Store {
	s := &Store{kv: kv, plan: Plan{}, logger: logger.OrNop(l)}
	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		s.logger.Warn("failed to read meal plan, starting empty", zap.Error(err))
		return
	}
	if !ok {
		return
	}

	var plan Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		s.logger.Warn("corrupt meal plan, starting empty", zap.Error(err))
		return
	}
	if plan == nil {
		s.logger.Warn("empty meal plan blob, starting empty")
		return
	}

	for key, day := range plan {
		if _, err := ParseDateKey(key); err != nil {
			s.logger.Warn("dropping meal plan day with bad date", zap.String("date", key))
			delete(plan, key)
			continue
		}
		for slot := range day {
			if !slot.Valid() {
				s.logger.Warn("dropping unknown meal slot", zap.String("date", key), zap.String("slot", string(slot)))
				delete(day, slot)
			}
		}
		if len(day) == 0 {
			delete(plan, key)
		}
	}
	s.plan = plan
}

// save must be called with mu held.
func (s *Store) save(ctx context.Context) error {
	data, err := json.Marshal(s.plan)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal meal plan: %w", storage.ErrWriteFailed, err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(data)); err != nil {
		s.logger.Error("failed to save meal plan", zap.Error(err))
		return fmt.Errorf("%w: failed to save meal plan: %w", storage.ErrWriteFailed, err)
	}
	return nil
}

// AddMeal places r in the slot on date, replacing whatever was there.
// If the write fails the in-memory plan keeps the change.
func (s *Store) AddMeal(ctx context.Context, date time.Time, slot Slot, r recipe.ClassifiedRecipe) error {
	if !slot.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := DateKey(date)
	day, ok := s.plan[key]
	if !ok {
		day = make(map[Slot]recipe.ClassifiedRecipe)
		s.plan[key] = day
	}
	day[slot] = r.Clone()

	logger.FromContext(ctx, s.logger).Debug("meal planned",
		zap.String("date", key), zap.String("slot", string(slot)), zap.String("recipe_id", r.ID))
	return s.save(ctx)
}

// RemoveMeal clears the slot on date and drops the day once it is empty.
// Clearing an empty slot still rewrites the plan.
func (s *Store) RemoveMeal(ctx context.Context, date time.Time, slot Slot) error {
	if !slot.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := DateKey(date)
	if day, ok := s.plan[key]; ok {
		delete(day, slot)
		if len(day) == 0 {
			delete(s.plan, key)
		}
	}
	return s.save(ctx)
}

// GetMeal returns the recipe in the slot on date.
func (s *Store) GetMeal(date time.Time, slot Slot) (recipe.ClassifiedRecipe, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.plan[DateKey(date)][slot]
	if !ok {
		return recipe.ClassifiedRecipe{}, false
	}
	return r.Clone(), true
}

// WeekProjection returns seven consecutive days starting on weekStart's
// calendar day, whatever weekday that is.
func (s *Store) WeekProjection(weekStart time.Time) Week {
	s.mu.Lock()
	defer s.mu.Unlock()

	week := make(Week, 0, DaysPerWeek)
	for i := range DaysPerWeek {
		date := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day()+i, 0, 0, 0, 0, weekStart.Location())
		key := DateKey(date)
		week = append(week, Day{
			Date:    date,
			DateKey: key,
			Meals:   cloneDay(s.plan[key]),
		})
	}
	return week
}

// Snapshot returns a deep copy of the whole plan.
func (s *Store) Snapshot() Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan.clone()
}

// Count returns the number of filled slots.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan.Count()
}
