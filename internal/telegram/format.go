package telegram

import (
	"errors"
	"fmt"
	"strings"

	"planneat/internal/favorites"
	"planneat/internal/mealplan"
	"planneat/internal/metrics"
	"planneat/internal/recipe"
	"planneat/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxListed caps result lists so a reply stays under Telegram's message limit.
const maxListed = 15

// maxNames caps name lists; the ingredient catalogue runs to hundreds.
const maxNames = 150

const helpText = `🍽 *PlannEat*

Send any text to search recipes by name.

/ingredient <name> - recipes using an ingredient
/random - a random recipe
/category <name>, /area <name>, /diet <preference> - browse
/categories, /areas, /ingredients - list filter values
/recipe <id or #> - recipe details
/fav <id or #>, /unfav <id or #>, /favorites
/plan <date> <slot> <id or #> - date is YYYY-MM-DD, today or tomorrow
/unplan <date> <slot>
/week [date], /shopping [date], /export [date] [text|pdf]
/stats - usage and health report`

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatRecipeList(title string, recipes []recipe.ClassifiedRecipe) string {
	if len(recipes) == 0 {
		return fmt.Sprintf("🔍 *%s*\n\n_No recipes found._", esc(title))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔍 *%s* (%d)\n\n", esc(title), len(recipes)))
	for i, r := range recipes {
		if i == maxListed {
			sb.WriteString(fmt.Sprintf("_…and %d more_\n", len(recipes)-maxListed))
			break
		}
		sb.WriteString(fmt.Sprintf("%d. %s%s `%s`\n", i+1, esc(r.Name), vegMark(r), r.ID))
	}
	sb.WriteString("\nUse /recipe <number> for details.")
	return sb.String()
}

func vegMark(r recipe.ClassifiedRecipe) string {
	if r.IsVegetarian {
		return " 🌱"
	}
	return ""
}

func formatRecipe(r recipe.ClassifiedRecipe, favorite bool) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🍲 *%s*%s\n", esc(r.Name), vegMark(r)))
	if favorite {
		sb.WriteString("⭐ In your favorites\n")
	}
	sb.WriteString(fmt.Sprintf("_%s · %s_\n", esc(r.Category), esc(r.Area)))
	sb.WriteString(fmt.Sprintf("⏱ %s · 🔥 ~%d kcal\n\n",
		recipe.FormatCookingTime(r.EstimatedPrepTime), r.EstimatedCalories))

	sb.WriteString("*Ingredients*\n")
	for _, ing := range r.Ingredients {
		if ing.Measure != "" {
			sb.WriteString(fmt.Sprintf("• %s %s\n", esc(ing.Measure), esc(ing.Name)))
		} else {
			sb.WriteString(fmt.Sprintf("• %s\n", esc(ing.Name)))
		}
	}

	if steps := recipe.ParseInstructions(r.Instructions); len(steps) > 0 {
		sb.WriteString("\n*Steps*\n")
		for i, s := range steps {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, esc(recipe.Truncate(s, 300))))
		}
	}
	if r.YouTube != "" {
		sb.WriteString(fmt.Sprintf("\n▶️ %s\n", esc(r.YouTube)))
	}
	return sb.String()
}

func formatWeek(week mealplan.Week) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Week of %s*\n\n", week.Start().Format("Jan 2, 2006")))
	for _, day := range week {
		sb.WriteString(fmt.Sprintf("*%s*\n", day.Date.Format("Monday, Jan 2")))
		for _, slot := range mealplan.Slots {
			meal, ok := day.Meals[slot]
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf("• %s: %s\n", slot.Title(), esc(meal.Name)))
		}
		if len(day.Meals) == 0 {
			sb.WriteString("_Nothing planned_\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("%d meals planned", week.MealCount()))
	return sb.String()
}

func formatShoppingList(list shopping.List) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🛒 *Shopping List* (week of %s)\n\n", list.WeekStart.Format("Jan 2")))
	if len(list.Items) == 0 {
		sb.WriteString("_Plan some meals first._")
		return sb.String()
	}
	for _, item := range list.Items {
		line := esc(item.Name)
		if item.Measure != "" {
			line = fmt.Sprintf("%s (%s)", line, esc(item.Measure))
		}
		if item.Quantity > 1 {
			line = fmt.Sprintf("%s ×%d", line, item.Quantity)
		}
		sb.WriteString("• " + line + "\n")
	}
	return sb.String()
}

func formatFavorites(all []recipe.ClassifiedRecipe, stats favorites.Stats) string {
	if len(all) == 0 {
		return "⭐ *Favorites*\n\n_No favorites yet. Use /fav <id or #>._"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⭐ *Favorites* (%d, %d vegetarian, ~%d kcal avg)\n\n",
		stats.Count, stats.VegetarianCount, stats.AverageCalories))
	for i, r := range all {
		sb.WriteString(fmt.Sprintf("%d. %s%s `%s`\n", i+1, esc(r.Name), vegMark(r), r.ID))
	}
	return sb.String()
}

func formatNames(title string, names []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 *%s*\n\n", esc(title)))
	if len(names) > maxNames {
		sb.WriteString(esc(strings.Join(names[:maxNames], ", ")))
		sb.WriteString(fmt.Sprintf("\n_…and %d more_", len(names)-maxNames))
		return sb.String()
	}
	sb.WriteString(esc(strings.Join(names, ", ")))
	return sb.String()
}

func formatStats(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Recipe Lookups*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d calls (%d failed, %dms avg)\n",
			d.Date, d.TotalCalls, d.FailedCalls, d.AvgLatencyMS))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	sb.WriteString(fmt.Sprintf("• Cached Lookups: %d\n", health.CachedEntries))
	return sb.String()
}

func formatError(action string, err error) string {
	switch {
	case errors.Is(err, recipe.ErrNotFound):
		return "🤷 Recipe not found."
	case errors.Is(err, recipe.ErrRequestFailed):
		return fmt.Sprintf("❌ *Error %s.* TheMealDB did not answer, please try again.", esc(action))
	default:
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		return fmt.Sprintf("❌ *Error %s:*\n```\n%s\n```", esc(action), safeErr)
	}
}
