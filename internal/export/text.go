package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"planneat/internal/mealplan"
)

const (
	weekHeaderLayout = "Jan 02, 2006"
	dayHeaderLayout  = "Monday, Jan 02"
	notPlanned       = "Not planned"
)

var dayRule = strings.Repeat("─", 30)

// Text writes the week as the plain-text meal plan:
//
//	PlannEat Meal Plan for Week of Mar 11, 2024
//
//	Monday, Mar 11
//	──────────────────────────────
//	BREAKFAST: Porridge
//	LUNCH: Not planned
//	...
func Text(w io.Writer, week mealplan.Week) error {
	var b strings.Builder
	fmt.Fprintf(&b, "PlannEat Meal Plan for Week of %s\n\n", week.Start().Format(weekHeaderLayout))

	for _, day := range week {
		b.WriteString(day.Date.Format(dayHeaderLayout))
		b.WriteString("\n")
		b.WriteString(dayRule)
		b.WriteString("\n")
		for _, slot := range mealplan.Slots {
			name := notPlanned
			if meal, ok := day.Meals[slot]; ok {
				name = meal.Name
			}
			fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(string(slot)), name)
		}
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write meal plan: %w", err)
	}
	return nil
}

// FileName is the suggested download name for an export of the week
// starting at start, e.g. "planneat-meal-plan-2024-03-11.txt".
func FileName(start time.Time, ext string) string {
	return fmt.Sprintf("planneat-meal-plan-%s.%s", start.Format(mealplan.DateLayout), ext)
}
