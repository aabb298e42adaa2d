package mealplan

import (
	"fmt"
	"strings"
	"time"

	"planneat/internal/recipe"
)

// Slot is a meal position within a day.
type Slot string

const (
	Breakfast Slot = "breakfast"
	Lunch     Slot = "lunch"
	Dinner    Slot = "dinner"
	Snack     Slot = "snack"
)

// Slots lists every slot in display order.
var Slots = []Slot{Breakfast, Lunch, Dinner, Snack}

// Valid reports whether s is one of the four known slots.
func (s Slot) Valid() bool {
	switch s {
	case Breakfast, Lunch, Dinner, Snack:
		return true
	}
	return false
}

// Title is the capitalized slot name, e.g. "Breakfast".
func (s Slot) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// ParseSlot accepts a slot name in any case.
func ParseSlot(name string) (Slot, error) {
	s := Slot(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlot, name)
	}
	return s, nil
}

// DateLayout is the calendar date format used for plan keys.
const DateLayout = "2006-01-02"

// DateKey returns the YYYY-MM-DD key for t's calendar day in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateKey parses a YYYY-MM-DD key as local midnight.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(key), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", key, err)
	}
	return t, nil
}

// StartOfWeek returns midnight of the Monday on or before t.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

// Plan maps a date key to the recipes planned for that day.
// A date key is present only while it has at least one slot.
type Plan map[string]map[Slot]recipe.ClassifiedRecipe

// Count returns the number of filled slots.
func (p Plan) Count() int {
	n := 0
	for _, day := range p {
		n += len(day)
	}
	return n
}

func (p Plan) clone() Plan {
	out := make(Plan, len(p))
	for key, day := range p {
		out[key] = cloneDay(day)
	}
	return out
}

func cloneDay(day map[Slot]recipe.ClassifiedRecipe) map[Slot]recipe.ClassifiedRecipe {
	out := make(map[Slot]recipe.ClassifiedRecipe, len(day))
	for slot, r := range day {
		out[slot] = r.Clone()
	}
	return out
}

// Day is one entry of a week projection. Meals is never nil.
type Day struct {
	Date    time.Time
	DateKey string
	Meals   map[Slot]recipe.ClassifiedRecipe
}

// Week is a projection of seven consecutive days.
type Week []Day

// DaysPerWeek is the length of every projection.
const DaysPerWeek = 7

// Start returns the first day's date, or the zero time for an empty week.
func (w Week) Start() time.Time {
	if len(w) == 0 {
		return time.Time{}
	}
	return w[0].Date
}

// MealCount returns the number of filled slots across the week.
func (w Week) MealCount() int {
	n := 0
	for _, d := range w {
		n += len(d.Meals)
	}
	return n
}
