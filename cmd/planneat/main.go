package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"planneat/internal/app"
	"planneat/internal/config"
	"planneat/internal/dietary"
	"planneat/internal/logger"
	"planneat/internal/mealplan"
	"planneat/internal/recipe"
	"planneat/internal/search"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := logger.WithRequestID(context.Background(), logger.GenerateRequestID())

	application, err := app.Bootstrap(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	if err := run(ctx, application, os.Args[1], os.Args[2:]); err != nil {
		log.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		application.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, command string, args []string) error {
	switch command {
	case "search", "ingredient":
		mode := search.ByName
		if command == "ingredient" {
			mode = search.ByIngredient
		}
		query := strings.Join(args, " ")
		if query == "" {
			return fmt.Errorf("usage: planneat %s <text>", command)
		}
		results, err := a.Search(ctx, query, mode)
		if err != nil {
			return err
		}
		printRecipes(results)
	case "filter":
		fs := flag.NewFlagSet("filter", flag.ExitOnError)
		category := fs.String("category", "", "Filter by category")
		area := fs.String("area", "", "Filter by area (cuisine)")
		diet := fs.String("diet", "", "Dietary preference, e.g. vegetarian")
		fs.Parse(args)
		if *diet != "" && !dietary.Known(*diet) {
			return fmt.Errorf("unknown dietary preference %q, try one of: %s", *diet, strings.Join(dietary.Names(), ", "))
		}
		results, err := a.Browse(ctx, search.Filters{Category: *category, Area: *area, DietaryPreference: *diet})
		if err != nil {
			return err
		}
		printRecipes(results)
	case "random":
		r, ok, err := a.Random(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("No recipe returned, try again.")
			return nil
		}
		printRecipe(r, a.IsFavorite(r.ID))
	case "show":
		if len(args) != 1 {
			return fmt.Errorf("usage: planneat show <recipe id>")
		}
		r, err := a.Recipe(ctx, args[0])
		if err != nil {
			return err
		}
		printRecipe(r, a.IsFavorite(r.ID))
	case "categories", "areas", "ingredients":
		list := a.Categories
		switch command {
		case "areas":
			list = a.Areas
		case "ingredients":
			list = a.Ingredients
		}
		names, err := list(ctx)
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(names, "\n"))
	case "fav":
		return runFavorites(ctx, a, args)
	case "plan":
		return runPlan(ctx, a, args)
	case "week", "shopping":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		startFlag := fs.String("start", "", "Any date in the week (YYYY-MM-DD); defaults to this week")
		fs.Parse(args)
		start, err := weekStart(*startFlag)
		if err != nil {
			return err
		}
		if command == "week" {
			return a.ExportWeek(os.Stdout, start, app.FormatText)
		}
		for _, item := range a.ShoppingList(start).Items {
			fmt.Printf("- %s %s (x%d)\n", item.Name, item.Measure, item.Quantity)
		}
	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		format := fs.String("format", app.FormatText, "Export format: text or pdf")
		week := fs.String("start", "", "Any date in the week to export (YYYY-MM-DD); defaults to this week")
		out := fs.String("out", "", "Output file; defaults to the suggested file name")
		fs.Parse(args)
		return runExport(a, *format, *week, *out)
	case "stats":
		return runStats(ctx, a)
	case "metrics-cleanup":
		fs := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := fs.Int("days", 30, "Keep records for the last N days")
		fs.Parse(args)
		affected, err := a.CleanupMetrics(ctx, *days)
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
	return nil
}

func runFavorites(ctx context.Context, a *app.App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: planneat fav add|remove <id> | list")
	}
	switch args[0] {
	case "add":
		if len(args) != 2 {
			return fmt.Errorf("usage: planneat fav add <id>")
		}
		r, err := a.AddFavorite(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Added %q to favorites.\n", r.Name)
	case "remove":
		if len(args) != 2 {
			return fmt.Errorf("usage: planneat fav remove <id>")
		}
		return a.RemoveFavorite(ctx, args[1])
	case "list":
		printRecipes(a.Favorites())
		st := a.FavoriteStats()
		fmt.Printf("\n%d favorites, %d vegetarian, %d kcal on average\n", st.Count, st.VegetarianCount, st.AverageCalories)
	default:
		return fmt.Errorf("unknown fav action: %s", args[0])
	}
	return nil
}

func runPlan(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: planneat plan add <date> <slot> <id> | remove <date> <slot>")
	}
	date, err := mealplan.ParseDateKey(args[1])
	if err != nil {
		return err
	}
	slot, err := mealplan.ParseSlot(args[2])
	if err != nil {
		return err
	}

	switch args[0] {
	case "add":
		if len(args) != 4 {
			return fmt.Errorf("usage: planneat plan add <date> <slot> <id>")
		}
		r, err := a.PlanMeal(ctx, date, slot, args[3])
		if err != nil {
			return err
		}
		fmt.Printf("Planned %q for %s %s.\n", r.Name, mealplan.DateKey(date), slot.Title())
		return nil
	case "remove":
		return a.UnplanMeal(ctx, date, slot)
	default:
		return fmt.Errorf("unknown plan action: %s", args[0])
	}
}

func runExport(a *app.App, format, week, out string) error {
	start, err := weekStart(week)
	if err != nil {
		return err
	}
	if out == "" {
		out = a.ExportFileName(start, format)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := a.ExportWeek(f, start, format); err != nil {
		f.Close()
		os.Remove(out)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Printf("Exported meal plan to %s\n", out)
	return nil
}

func runStats(ctx context.Context, a *app.App) error {
	usage, err := a.Usage(ctx, 7)
	if err != nil {
		return fmt.Errorf("failed to fetch usage: %w", err)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tCALLS\tFAILED\tAVG LATENCY")
	for _, d := range usage {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%dms\n", d.Date, d.TotalCalls, d.FailedCalls, d.AvgLatencyMS)
	}
	tw.Flush()

	h := a.Health()
	fmt.Printf("\nRAM %dMB alloc / %dMB sys, %d goroutines, data %s, %d cached lookups\n",
		h.AllocMB, h.SysMB, h.Goroutines, h.DataDiskSize, h.CachedEntries)
	return nil
}

// weekStart maps any date to its Monday; empty means the current week.
func weekStart(date string) (time.Time, error) {
	if date == "" {
		return time.Time{}, nil
	}
	d, err := mealplan.ParseDateKey(date)
	if err != nil {
		return time.Time{}, err
	}
	return mealplan.StartOfWeek(d), nil
}

func printRecipes(recipes []recipe.ClassifiedRecipe) {
	if len(recipes) == 0 {
		fmt.Println("No recipes found.")
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tAREA\tVEG\tKCAL\tPREP")
	for _, r := range recipes {
		veg := ""
		if r.IsVegetarian {
			veg = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n", r.ID, recipe.Truncate(r.Name, 40), r.Category, r.Area,
			veg, r.EstimatedCalories, recipe.FormatCookingTime(r.EstimatedPrepTime))
	}
	tw.Flush()
}

func printRecipe(r recipe.ClassifiedRecipe, favorite bool) {
	fmt.Printf("%s (#%s)\n", r.Name, r.ID)
	if favorite {
		fmt.Println("* favorite")
	}
	fmt.Printf("%s, %s | %s | ~%d kcal | vegetarian: %t\n\n",
		r.Category, r.Area, recipe.FormatCookingTime(r.EstimatedPrepTime), r.EstimatedCalories, r.IsVegetarian)

	fmt.Println("Ingredients:")
	for _, ing := range r.Ingredients {
		fmt.Printf("  - %s %s\n", ing.Measure, ing.Name)
	}
	if steps := recipe.ParseInstructions(r.Instructions); len(steps) > 0 {
		fmt.Println("\nSteps:")
		for i, s := range steps {
			fmt.Printf("  %d. %s\n", i+1, s)
		}
	}
	if r.YouTube != "" {
		fmt.Printf("\nVideo: %s\n", r.YouTube)
	}
}

func printUsage() {
	fmt.Println("Usage: planneat <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  search <text>                 Search recipes by name")
	fmt.Println("  ingredient <name>             Search recipes by main ingredient")
	fmt.Println("  filter -category|-area|-diet  Browse recipes")
	fmt.Println("  random                        Show a random recipe")
	fmt.Println("  show <id>                     Show a recipe")
	fmt.Println("  categories | areas            List filter values")
	fmt.Println("  ingredients                   List known ingredients")
	fmt.Println("  fav add|remove <id> | list    Manage favorites")
	fmt.Println("  plan add <date> <slot> <id>   Plan a meal")
	fmt.Println("  plan remove <date> <slot>     Clear a planned meal")
	fmt.Println("  week [-start date]            Print the week's plan")
	fmt.Println("  shopping [-start date]        Print the week's shopping list")
	fmt.Println("  export [-start date] [-format text|pdf] [-out file]")
	fmt.Println("                                Export the week's plan to a file")
	fmt.Println("  stats                         Usage and health report")
	fmt.Println("  metrics-cleanup -days N       Remove old call history")
}
