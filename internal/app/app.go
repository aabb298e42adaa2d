package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"planneat/internal/export"
	"planneat/internal/favorites"
	"planneat/internal/logger"
	"planneat/internal/mealdb"
	"planneat/internal/mealplan"
	"planneat/internal/metrics"
	"planneat/internal/recipe"
	"planneat/internal/search"
	"planneat/internal/shopping"
	"planneat/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Export formats
const (
	FormatText = "text"
	FormatPDF  = "pdf"
)

// ErrUnknownFormat is returned by ExportWeek for a format other than text or pdf.
var ErrUnknownFormat = errors.New("unknown export format")

// Deps are the collaborators an App is built from. Source and KV are
// required; the rest may be left nil.
type Deps struct {
	Source       recipe.Source
	KV           storage.KV
	Logger       *zap.Logger
	Recorder     *metrics.Recorder
	MetricsStore *metrics.Store
	Cache        *mealdb.CachedSource
	Registry     *prometheus.Registry
	DataPath     string
	Now          func() time.Time
}

// App holds the application's dependencies and exposes the use cases
// shared by the CLI and the Telegram bot.
type App struct {
	search       *search.Orchestrator
	favorites    *favorites.Store
	plans        *mealplan.Store
	kv           storage.KV
	recorder     *metrics.Recorder
	metricsStore *metrics.Store
	cache        *mealdb.CachedSource
	registry     *prometheus.Registry
	dataPath     string
	logger       *zap.Logger
	now          func() time.Time
	closers      []io.Closer
}

// NewApp creates an App and loads the persisted favorites and meal plan.
func NewApp(ctx context.Context, d Deps) *App {
	l := logger.OrNop(d.Logger)
	now := d.Now
	if now == nil {
		now = time.Now
	}
	registry := d.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	a := &App{
		search:       search.NewOrchestrator(d.Source, nil, l.Named("search")),
		favorites:    favorites.NewStore(ctx, d.KV, l.Named("favorites")),
		plans:        mealplan.NewStore(ctx, d.KV, l.Named("mealplan")),
		kv:           d.KV,
		recorder:     d.Recorder,
		metricsStore: d.MetricsStore,
		cache:        d.Cache,
		registry:     registry,
		dataPath:     d.DataPath,
		logger:       l,
		now:          now,
	}
	a.publishCollections()
	return a
}

// Now returns the app clock's current time.
func (a *App) Now() time.Time { return a.now() }

// Close releases databases and connections opened by Bootstrap.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Registry is the Prometheus registry holding the app's collectors.
func (a *App) Registry() *prometheus.Registry { return a.registry }

// KV is the key-value store favorites and plans persist to.
func (a *App) KV() storage.KV { return a.kv }

// Recorder returns the metrics recorder, which may be nil.
func (a *App) Recorder() *metrics.Recorder { return a.recorder }

func (a *App) publishCollections() {
	if a.recorder != nil {
		a.recorder.SetCollections(len(a.favorites.All()), a.plans.Count())
	}
}

// Search runs a text search by name or ingredient.
func (a *App) Search(ctx context.Context, query string, mode search.Mode) ([]recipe.ClassifiedRecipe, error) {
	results, err := a.search.SearchByText(ctx, query, mode)
	if err != nil {
		return nil, err
	}
	return recipe.ClassifyAll(results), nil
}

// Browse runs a category, area or dietary-preference query.
func (a *App) Browse(ctx context.Context, f search.Filters) ([]recipe.ClassifiedRecipe, error) {
	results, err := a.search.FilterBy(ctx, f)
	if err != nil {
		return nil, err
	}
	return recipe.ClassifyAll(results), nil
}

// Random fetches one random recipe.
func (a *App) Random(ctx context.Context) (recipe.ClassifiedRecipe, bool, error) {
	r, ok, err := a.search.RandomOne(ctx)
	if err != nil || !ok {
		return recipe.ClassifiedRecipe{}, ok, err
	}
	return recipe.Classify(r), true, nil
}

// Recipe fetches and classifies the full record for id.
func (a *App) Recipe(ctx context.Context, id string) (recipe.ClassifiedRecipe, error) {
	r, err := a.search.Lookup(ctx, id)
	if err != nil {
		return recipe.ClassifiedRecipe{}, err
	}
	return recipe.Classify(r), nil
}

// Categories lists recipe categories.
func (a *App) Categories(ctx context.Context) ([]string, error) { return a.search.Categories(ctx) }

// Areas lists cuisine areas.
func (a *App) Areas(ctx context.Context) ([]string, error) { return a.search.Areas(ctx) }

// Ingredients lists the ingredients the catalogue knows about.
func (a *App) Ingredients(ctx context.Context) ([]string, error) { return a.search.Ingredients(ctx) }

// AddFavorite looks up id and saves it as a favorite.
func (a *App) AddFavorite(ctx context.Context, id string) (recipe.ClassifiedRecipe, error) {
	r, err := a.Recipe(ctx, id)
	if err != nil {
		return recipe.ClassifiedRecipe{}, err
	}
	err = a.favorites.Add(ctx, r)
	a.publishCollections()
	return r, err
}

// RemoveFavorite drops id from the favorites.
func (a *App) RemoveFavorite(ctx context.Context, id string) error {
	err := a.favorites.Remove(ctx, id)
	a.publishCollections()
	return err
}

// IsFavorite reports whether id is saved.
func (a *App) IsFavorite(id string) bool { return a.favorites.IsFavorite(id) }

// Favorites returns the saved recipes in the order they were added.
func (a *App) Favorites() []recipe.ClassifiedRecipe { return a.favorites.All() }

// FavoriteStats summarizes the favorites.
func (a *App) FavoriteStats() favorites.Stats { return a.favorites.Stats() }

// PlanMeal looks up id and places it in the slot on date.
func (a *App) PlanMeal(ctx context.Context, date time.Time, slot mealplan.Slot, id string) (recipe.ClassifiedRecipe, error) {
	if !slot.Valid() {
		return recipe.ClassifiedRecipe{}, fmt.Errorf("%w: %q", mealplan.ErrInvalidSlot, slot)
	}
	r, err := a.Recipe(ctx, id)
	if err != nil {
		return recipe.ClassifiedRecipe{}, err
	}
	err = a.plans.AddMeal(ctx, date, slot, r)
	a.publishCollections()
	return r, err
}

// UnplanMeal clears the slot on date.
func (a *App) UnplanMeal(ctx context.Context, date time.Time, slot mealplan.Slot) error {
	err := a.plans.RemoveMeal(ctx, date, slot)
	a.publishCollections()
	return err
}

// Week projects seven days from start. A zero start means the current
// Monday-based week.
func (a *App) Week(start time.Time) mealplan.Week {
	if start.IsZero() {
		start = mealplan.StartOfWeek(a.now())
	}
	return a.plans.WeekProjection(start)
}

// ShoppingList aggregates the ingredients of the week starting at start.
func (a *App) ShoppingList(start time.Time) shopping.List {
	return shopping.ForWeek(a.Week(start))
}

// ExportWeek writes the week starting at start as text or PDF.
func (a *App) ExportWeek(w io.Writer, start time.Time, format string) error {
	week := a.Week(start)
	switch format {
	case FormatText, "":
		return export.Text(w, week)
	case FormatPDF:
		return export.PDF(w, week, shopping.Aggregate(week))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ExportFileName suggests a file name for an export of the week at start.
func (a *App) ExportFileName(start time.Time, format string) string {
	if start.IsZero() {
		start = mealplan.StartOfWeek(a.now())
	}
	ext := "txt"
	if format == FormatPDF {
		ext = "pdf"
	}
	return export.FileName(start, ext)
}

// Usage returns per-day recipe source call totals. It is empty when call
// history is not persisted.
func (a *App) Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	if a.metricsStore == nil {
		return nil, nil
	}
	return a.metricsStore.GetDailyUsage(ctx, days)
}

// CleanupMetrics deletes call history older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	if a.metricsStore == nil {
		return 0, nil
	}
	return a.metricsStore.Cleanup(ctx, days)
}

// Health reports process and data health.
func (a *App) Health() metrics.SysHealth {
	cached := 0
	if a.cache != nil {
		cached = a.cache.Len()
	}
	return metrics.GetSysHealth(a.dataPath, cached)
}
