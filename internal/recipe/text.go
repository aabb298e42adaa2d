package recipe

import (
	"fmt"
	"regexp"
	"strings"
)

var stepSeparator = regexp.MustCompile(`\.\s+|\n+|\d+\.?\s+`)

// minStepLength drops fragments such as "STEP" headings or stray numbers.
const minStepLength = 10

// ParseInstructions splits free-text instructions into steps.
func ParseInstructions(instructions string) []string {
	if strings.TrimSpace(instructions) == "" {
		return nil
	}
	var steps []string
	for _, part := range stepSeparator.Split(instructions, -1) {
		step := strings.TrimSpace(part)
		if len(step) > minStepLength {
			steps = append(steps, step)
		}
	}
	return steps
}

// FormatCookingTime renders minutes as "45 min", "1h" or "1h 15m".
func FormatCookingTime(minutes int) string {
	if minutes <= 0 {
		return "N/A"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours, rest := minutes/60, minutes%60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, rest)
}

// Truncate shortens text to maxLength runes, appending "..." when cut.
func Truncate(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength]) + "..."
}
