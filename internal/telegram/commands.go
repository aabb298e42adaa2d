package telegram

import (
	"fmt"
	"strings"
	"time"

	"planneat/internal/mealplan"
)

// Command is a parsed chat message.
type Command struct {
	Name string
	Args string
}

// ParseCommand splits "/name@bot args" into its parts. Plain text is a
// name search.
func ParseCommand(text string) Command {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Command{Name: "search", Args: text}
	}
	name, args, _ := strings.Cut(text[1:], " ")
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	return Command{Name: strings.ToLower(name), Args: strings.TrimSpace(args)}
}

// Fields splits the arguments on whitespace.
func (c Command) Fields() []string {
	return strings.Fields(c.Args)
}

// parseDate accepts YYYY-MM-DD, "today" and "tomorrow" relative to now.
func parseDate(s string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch strings.ToLower(s) {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}
	return mealplan.ParseDateKey(s)
}

// planArgs is the parsed form of "/plan <date> <slot> <recipe>".
type planArgs struct {
	Date   time.Time
	Slot   mealplan.Slot
	Recipe string
}

func parsePlanArgs(fields []string, now time.Time, needRecipe bool) (planArgs, error) {
	want := 2
	usage := "usage: /unplan <date> <slot>"
	if needRecipe {
		want = 3
		usage = "usage: /plan <date> <slot> <recipe id or result number>"
	}
	if len(fields) != want {
		return planArgs{}, fmt.Errorf("%s", usage)
	}

	date, err := parseDate(fields[0], now)
	if err != nil {
		return planArgs{}, err
	}
	slot, err := mealplan.ParseSlot(fields[1])
	if err != nil {
		return planArgs{}, err
	}
	args := planArgs{Date: date, Slot: slot}
	if needRecipe {
		args.Recipe = fields[2]
	}
	return args, nil
}

// parseWeekStart maps an optional date to the Monday of its week; none
// means the current week.
func parseWeekStart(fields []string, now time.Time) (time.Time, error) {
	if len(fields) == 0 {
		return time.Time{}, nil
	}
	d, err := parseDate(fields[0], now)
	if err != nil {
		return time.Time{}, err
	}
	return mealplan.StartOfWeek(d), nil
}
