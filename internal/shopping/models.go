package shopping

import "time"

// Item is one consolidated ingredient line.
type Item struct {
	Name     string `json:"name"`
	Measure  string `json:"measure"`
	Quantity int    `json:"quantity"`
}

// List is the shopping list for one week projection.
type List struct {
	WeekStart time.Time `json:"week_start"`
	Items     []Item    `json:"items"`
}
