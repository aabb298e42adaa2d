package shopping

import (
	"planneat/internal/mealplan"
)

// Aggregate reduces a week into one line per distinct ingredient name.
//
// Days are walked in order and slots in mealplan.Slots order. Names are
// grouped by exact match; Quantity counts occurrences and Measure keeps the
// first one seen, so differing measures for the same ingredient are not
// merged. Items come out in first-seen order.
func Aggregate(week mealplan.Week) []Item {
	items := []Item{}
	index := make(map[string]int)

	for _, day := range week {
		for _, slot := range mealplan.Slots {
			meal, ok := day.Meals[slot]
			if !ok {
				continue
			}
			for _, ing := range meal.Ingredients {
				if i, seen := index[ing.Name]; seen {
					items[i].Quantity++
					continue
				}
				index[ing.Name] = len(items)
				items = append(items, Item{Name: ing.Name, Measure: ing.Measure, Quantity: 1})
			}
		}
	}
	return items
}

// ForWeek builds the List for a week projection.
func ForWeek(week mealplan.Week) List {
	return List{WeekStart: week.Start(), Items: Aggregate(week)}
}
