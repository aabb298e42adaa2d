package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"planneat/internal/app"
	"planneat/internal/config"
	"planneat/internal/dietary"
	"planneat/internal/logger"
	"planneat/internal/recipe"
	"planneat/internal/search"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// sessionTTL is how long "/recipe 2" keeps pointing at the last list shown.
const sessionTTL = 30 * time.Minute

// Sender is the part of the Telegram API the bot talks to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot serves PlannEat over a Telegram webhook.
type Bot struct {
	api      Sender
	app      *app.App
	cfg      *config.Config
	sessions *SessionRepository
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, l *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	l = logger.OrNop(l)
	l.Info("authorized on account", zap.String("username", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook for %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	l.Info("webhook set", zap.String("response", resp.Description))

	return newBot(api, cfg, a, l), nil
}

func newBot(api Sender, cfg *config.Config, a *app.App, l *zap.Logger) *Bot {
	return &Bot{
		api:      api,
		app:      a,
		cfg:      cfg,
		sessions: NewSessionRepository(a.KV(), sessionTTL),
		logger:   logger.OrNop(l),
	}
}

// RegisterHandlers registers the webhook, health and metrics handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(b.app.Registry(), promhttp.HandlerOpts{}))
}

// Wait blocks until every in-flight message has been answered.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("error parsing update", zap.Error(err))
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}

	if !b.cfg.IsUserAllowed(msg.From.ID) {
		b.logger.Warn("unauthorized access attempt",
			zap.Int64("user_id", msg.From.ID),
			zap.String("username", msg.From.UserName))
		return
	}

	ctx := logger.WithRequestID(context.Background(), logger.GenerateRequestID())
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.processMessage(ctx, msg)
	}()
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	cmd := ParseCommand(msg.Text)
	log := logger.FromContext(ctx, b.logger).With(
		zap.Int64("chat_id", msg.Chat.ID),
		zap.String("command", cmd.Name))
	log.Info("handling message")

	label := cmd.Name
	if !knownCommands[label] {
		label = "unknown"
	}
	b.app.Recorder().CountCommand(label)

	r := b.respond(ctx, msg.Chat.ID, cmd)
	if err := b.send(msg.Chat.ID, r); err != nil {
		log.Error("failed to send reply", zap.Error(err))
	}
}

// reply is the answer to one message: Markdown text, or a document with
// the text as caption.
type reply struct {
	text     string
	document *tgbotapi.FileBytes
}

func (b *Bot) send(chatID int64, r reply) error {
	if r.document != nil {
		doc := tgbotapi.NewDocument(chatID, *r.document)
		doc.Caption = r.text
		_, err := b.api.Send(doc)
		return err
	}
	msg := tgbotapi.NewMessage(chatID, r.text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.api.Send(msg)
	return err
}

var knownCommands = map[string]bool{
	"start": true, "help": true, "search": true, "ingredient": true,
	"random": true, "category": true, "area": true, "diet": true,
	"categories": true, "areas": true, "ingredients": true, "recipe": true, "fav": true,
	"unfav": true, "favorites": true, "plan": true, "unplan": true,
	"week": true, "shopping": true, "export": true, "stats": true,
}

func (b *Bot) respond(ctx context.Context, chatID int64, cmd Command) reply {
	switch cmd.Name {
	case "start", "help":
		return reply{text: helpText}
	case "search":
		return b.textSearch(ctx, chatID, cmd, search.ByName)
	case "ingredient":
		return b.textSearch(ctx, chatID, cmd, search.ByIngredient)
	case "category":
		return b.browse(ctx, chatID, search.Filters{Category: cmd.Args}, cmd.Args)
	case "area":
		return b.browse(ctx, chatID, search.Filters{Area: cmd.Args}, cmd.Args)
	case "diet":
		if cmd.Args != "" && !dietary.Known(cmd.Args) {
			return reply{text: fmt.Sprintf("🤷 Unknown diet %s. Try one of: %s",
				esc(fmt.Sprintf("%q", cmd.Args)), esc(strings.Join(dietary.Names(), ", ")))}
		}
		return b.browse(ctx, chatID, search.Filters{DietaryPreference: cmd.Args}, cmd.Args)
	case "categories":
		names, err := b.app.Categories(ctx)
		if err != nil {
			return reply{text: formatError("listing categories", err)}
		}
		return reply{text: formatNames("Categories", names)}
	case "areas":
		names, err := b.app.Areas(ctx)
		if err != nil {
			return reply{text: formatError("listing areas", err)}
		}
		return reply{text: formatNames("Areas", names)}
	case "ingredients":
		names, err := b.app.Ingredients(ctx)
		if err != nil {
			return reply{text: formatError("listing ingredients", err)}
		}
		return reply{text: formatNames("Ingredients", names)}
	case "random":
		return b.random(ctx, chatID)
	case "recipe":
		return b.showRecipe(ctx, chatID, cmd.Args)
	case "fav":
		return b.addFavorite(ctx, chatID, cmd.Args)
	case "unfav":
		return b.removeFavorite(ctx, chatID, cmd.Args)
	case "favorites":
		all := b.app.Favorites()
		b.remember(ctx, chatID, all)
		return reply{text: formatFavorites(all, b.app.FavoriteStats())}
	case "plan":
		return b.plan(ctx, chatID, cmd.Fields())
	case "unplan":
		return b.unplan(ctx, cmd.Fields())
	case "week":
		start, err := parseWeekStart(cmd.Fields(), b.app.Now())
		if err != nil {
			return reply{text: formatError("reading the date", err)}
		}
		return reply{text: formatWeek(b.app.Week(start))}
	case "shopping":
		start, err := parseWeekStart(cmd.Fields(), b.app.Now())
		if err != nil {
			return reply{text: formatError("reading the date", err)}
		}
		return reply{text: formatShoppingList(b.app.ShoppingList(start))}
	case "export":
		return b.export(cmd.Fields())
	case "stats":
		usage, err := b.app.Usage(ctx, 7)
		if err != nil {
			return reply{text: "❌ Error fetching metrics."}
		}
		return reply{text: formatStats(usage, b.app.Health())}
	default:
		return reply{text: "🤔 Unknown command. Send /help for the list."}
	}
}

func (b *Bot) textSearch(ctx context.Context, chatID int64, cmd Command, mode search.Mode) reply {
	query := cmd.Args
	if query == "" {
		return reply{text: fmt.Sprintf("usage: /%s <text>", cmd.Name)}
	}
	results, err := b.app.Search(ctx, query, mode)
	if err != nil {
		return reply{text: formatError("searching recipes", err)}
	}
	b.remember(ctx, chatID, results)
	return reply{text: formatRecipeList(fmt.Sprintf("Results for %q", query), results)}
}

func (b *Bot) browse(ctx context.Context, chatID int64, f search.Filters, label string) reply {
	if label == "" {
		return reply{text: "usage: /category <name>, /area <name> or /diet <preference>"}
	}
	results, err := b.app.Browse(ctx, f)
	if err != nil {
		return reply{text: formatError("browsing recipes", err)}
	}
	b.remember(ctx, chatID, results)
	return reply{text: formatRecipeList(label, results)}
}

func (b *Bot) random(ctx context.Context, chatID int64) reply {
	r, ok, err := b.app.Random(ctx)
	if err != nil {
		return reply{text: formatError("fetching a random recipe", err)}
	}
	if !ok {
		return reply{text: "🤷 No recipe this time, try again."}
	}
	b.remember(ctx, chatID, []recipe.ClassifiedRecipe{r})
	return reply{text: formatRecipe(r, b.app.IsFavorite(r.ID))}
}

func (b *Bot) showRecipe(ctx context.Context, chatID int64, ref string) reply {
	if ref == "" {
		return reply{text: "usage: /recipe <id or result number>"}
	}
	r, err := b.app.Recipe(ctx, b.sessions.Resolve(ctx, chatID, ref))
	if err != nil {
		return reply{text: formatError("loading the recipe", err)}
	}
	return reply{text: formatRecipe(r, b.app.IsFavorite(r.ID))}
}

func (b *Bot) addFavorite(ctx context.Context, chatID int64, ref string) reply {
	if ref == "" {
		return reply{text: "usage: /fav <id or result number>"}
	}
	r, err := b.app.AddFavorite(ctx, b.sessions.Resolve(ctx, chatID, ref))
	if err != nil {
		return reply{text: formatError("saving the favorite", err)}
	}
	return reply{text: fmt.Sprintf("⭐ Added *%s* to favorites.", esc(r.Name))}
}

func (b *Bot) removeFavorite(ctx context.Context, chatID int64, ref string) reply {
	if ref == "" {
		return reply{text: "usage: /unfav <id or result number>"}
	}
	if err := b.app.RemoveFavorite(ctx, b.sessions.Resolve(ctx, chatID, ref)); err != nil {
		return reply{text: formatError("removing the favorite", err)}
	}
	return reply{text: "🗑 Removed from favorites."}
}

func (b *Bot) plan(ctx context.Context, chatID int64, fields []string) reply {
	args, err := parsePlanArgs(fields, b.app.Now(), true)
	if err != nil {
		return reply{text: esc(err.Error())}
	}
	r, err := b.app.PlanMeal(ctx, args.Date, args.Slot, b.sessions.Resolve(ctx, chatID, args.Recipe))
	if err != nil {
		return reply{text: formatError("planning the meal", err)}
	}
	return reply{text: fmt.Sprintf("📅 *%s* planned for %s (%s).",
		esc(r.Name), args.Date.Format("Monday, Jan 2"), args.Slot.Title())}
}

func (b *Bot) unplan(ctx context.Context, fields []string) reply {
	args, err := parsePlanArgs(fields, b.app.Now(), false)
	if err != nil {
		return reply{text: esc(err.Error())}
	}
	if err := b.app.UnplanMeal(ctx, args.Date, args.Slot); err != nil {
		return reply{text: formatError("updating the plan", err)}
	}
	return reply{text: fmt.Sprintf("🗑 Cleared %s on %s.", args.Slot.Title(), args.Date.Format("Monday, Jan 2"))}
}

func (b *Bot) export(fields []string) reply {
	format := app.FormatText
	var dateArgs []string
	for _, f := range fields {
		switch strings.ToLower(f) {
		case app.FormatText, app.FormatPDF:
			format = strings.ToLower(f)
		default:
			dateArgs = append(dateArgs, f)
		}
	}
	start, err := parseWeekStart(dateArgs, b.app.Now())
	if err != nil {
		return reply{text: formatError("reading the date", err)}
	}

	var buf bytes.Buffer
	if err := b.app.ExportWeek(&buf, start, format); err != nil {
		return reply{text: formatError("exporting the plan", err)}
	}
	return reply{
		text: "📄 Your meal plan",
		document: &tgbotapi.FileBytes{
			Name:  b.app.ExportFileName(start, format),
			Bytes: buf.Bytes(),
		},
	}
}

// remember stores the ids of a result list so follow-ups can use positions.
// remember stores the ids behind the list just shown. An empty list clears
// the session so numbers stop pointing at an older list.
func (b *Bot) remember(ctx context.Context, chatID int64, results []recipe.ClassifiedRecipe) {
	if len(results) == 0 {
		if err := b.sessions.Delete(ctx, chatID); err != nil {
			logger.FromContext(ctx, b.logger).Warn("failed to clear chat session", zap.Error(err))
		}
		return
	}
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	if err := b.sessions.Save(ctx, chatID, ids); err != nil {
		logger.FromContext(ctx, b.logger).Warn("failed to save chat session", zap.Error(err))
	}
}
