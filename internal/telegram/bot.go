package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grocify/internal/clipper"
	"grocify/internal/config"
	"grocify/internal/list"
	"grocify/internal/recipes"
)

// Bot wraps the Telegram API around the shopping list.
type Bot struct {
	api     *tgbotapi.BotAPI
	proj    *list.Projector
	recipes *recipes.Service
	clipper *clipper.Clipper
	cfg     *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, proj *list.Projector, recipeSvc *recipes.Service, clip *clipper.Clipper) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{api: bot, proj: proj, recipes: recipeSvc, clipper: clip, cfg: cfg}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}
	if update.Message == nil {
		return
	}

	if b.cfg.TelegramAllowUserID != 0 && update.Message.From.ID != b.cfg.TelegramAllowUserID {
		log.Printf("Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)

	// A bare URL is treated as a recipe to clip.
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClipRequest(msg.Chat.ID, text)
		return
	}

	cmd, arg := splitCommand(text)
	ctx := context.Background()

	switch cmd {
	case "/start", "/help":
		b.reply(msg.Chat.ID, helpText)
	case "/list":
		b.reply(msg.Chat.ID, formatList(b.proj.View()))
	case "/add":
		b.handleAdd(ctx, msg.Chat.ID, arg)
	case "/check":
		b.handleCheck(ctx, msg.Chat.ID, arg, true)
	case "/uncheck":
		b.handleCheck(ctx, msg.Chat.ID, arg, false)
	case "/meal":
		b.handleMeal(ctx, msg.Chat.ID, arg)
	case "/recipes":
		b.handleRecipes(ctx, msg.Chat.ID)
	case "/clear":
		b.handleClear(ctx, msg.Chat.ID)
	default:
		// Plain text defaults to adding an item.
		b.handleAdd(ctx, msg.Chat.ID, text)
	}
}

const helpText = `🛒 *Boodschappenlijst*

/list - toon de lijst
/add <regel> - voeg toe, bv. "2x melk" of "500g rijst"
/check <naam> - vink af
/uncheck <naam> - vink uit
/meal <naam> - (de)activeer een maaltijd
/recipes - toon recepten
/clear - maak de lijst leeg

Stuur een recept-URL om die als recept op te slaan.`

func (b *Bot) handleAdd(ctx context.Context, chatID int64, arg string) {
	draft := list.ParseDraft(arg)
	if draft == nil {
		b.reply(chatID, "⚠️ Niets om toe te voegen.")
		return
	}
	qty, err := b.proj.AddDraft(ctx, draft)
	if err != nil {
		b.replyError(chatID, "toevoegen mislukt", err)
		return
	}
	label := draft.Name
	if draft.Unit != "" {
		label = fmt.Sprintf("%s (%g %s)", draft.Name, qty, draft.Unit)
	} else if qty != 1 {
		label = fmt.Sprintf("%s (%gx)", draft.Name, qty)
	}
	b.reply(chatID, fmt.Sprintf("✅ *%s* toegevoegd bij _%s_", label, draft.Section))
}

func (b *Bot) handleCheck(ctx context.Context, chatID int64, name string, checked bool) {
	if name == "" {
		b.reply(chatID, "⚠️ Welk item?")
		return
	}
	if err := b.proj.ToggleChecked(ctx, name, checked); err != nil {
		b.replyError(chatID, "afvinken mislukt", err)
		return
	}
	mark := "✅"
	if !checked {
		mark = "↩️"
	}
	b.reply(chatID, fmt.Sprintf("%s *%s*", mark, name))
}

func (b *Bot) handleMeal(ctx context.Context, chatID int64, name string) {
	if name == "" {
		view := b.proj.View()
		b.reply(chatID, formatMeals(view))
		return
	}
	if b.proj.IsMealActive(name) {
		if err := b.proj.DeactivateMeal(ctx, name); err != nil {
			b.replyError(chatID, "deactiveren mislukt", err)
			return
		}
		b.reply(chatID, fmt.Sprintf("🍽 *%s* gedeactiveerd", name))
		return
	}
	if err := b.proj.ActivateMeal(ctx, name); err != nil {
		b.replyError(chatID, "activeren mislukt", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("🍽 *%s* geactiveerd", name))
}

func (b *Bot) handleRecipes(ctx context.Context, chatID int64) {
	defs, err := b.recipes.List(ctx)
	if err != nil {
		b.replyError(chatID, "recepten laden mislukt", err)
		return
	}
	if len(defs) == 0 {
		b.reply(chatID, "_Nog geen eigen recepten._")
		return
	}
	var sb strings.Builder
	sb.WriteString("📖 *Eigen recepten*\n\n")
	for _, d := range defs {
		sb.WriteString(fmt.Sprintf("*%s*: %s\n", d.Name, strings.Join(d.Items, ", ")))
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) handleClear(ctx context.Context, chatID int64) {
	snap, err := b.proj.ClearList(ctx)
	if err != nil {
		b.replyError(chatID, "leegmaken mislukt", err)
		return
	}
	if snap.Empty() {
		b.reply(chatID, "_De lijst was al leeg._")
		return
	}
	b.reply(chatID, "🗑 Lijst leeggemaakt.")
}

func (b *Bot) handleClipRequest(chatID int64, url string) {
	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, "✂️ Recept knippen..."))
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	clipped, err := b.clipper.ClipURL(url)
	var finalText string
	if err != nil {
		log.Printf("Error clipping recipe: %v", err)
		finalText = fmt.Sprintf("❌ Knippen mislukt: %v", err)
	} else {
		def, saveErr := b.recipes.Save(context.Background(), clipped.Title, strings.Join(clipped.Ingredients, "\n"))
		if saveErr != nil {
			finalText = fmt.Sprintf("❌ Opslaan mislukt: %v", saveErr)
		} else {
			finalText = fmt.Sprintf("✅ Recept *%s* opgeslagen (%d ingrediënten)", def.Name, len(def.Items))
		}
	}
	edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, finalText)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

func (b *Bot) replyError(chatID int64, what string, err error) {
	log.Printf("Error: %s: %v", what, err)
	b.reply(chatID, fmt.Sprintf("❌ Fout: %s.", what))
}

func splitCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	parts := strings.SplitN(text, " ", 2)
	cmd := parts[0]
	// Strip a bot-name suffix like /list@grocify_bot
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}
	arg := ""
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}
	return cmd, arg
}

func formatList(view list.View) string {
	if len(view.Sections) == 0 {
		return "_De lijst is leeg._ 🎉"
	}
	var sb strings.Builder
	sb.WriteString("🛒 *Boodschappenlijst*\n")
	for _, sec := range view.Sections {
		sb.WriteString(fmt.Sprintf("\n*%s* (%d/%d)\n", sec.Section, sec.Total-sec.Unchecked, sec.Total))
		for _, item := range sec.Items {
			mark := "☐"
			if item.Checked {
				mark = "☑"
			}
			sb.WriteString(fmt.Sprintf("%s %s", mark, item.Name))
			if item.Unit != "" {
				sb.WriteString(fmt.Sprintf(" (%g %s)", item.Quantity, item.Unit))
			} else if item.Quantity != 1 {
				sb.WriteString(fmt.Sprintf(" (%gx)", item.Quantity))
			}
			sb.WriteString("\n")
		}
	}
	if view.Complete {
		sb.WriteString("\nAlles afgevinkt! ✅")
	}
	return sb.String()
}

func formatMeals(view list.View) string {
	var sb strings.Builder
	sb.WriteString("🍽 *Maaltijden*\n\n")
	names := make([]string, 0, len(view.Meals))
	for name := range view.Meals {
		names = append(names, name)
	}
	active := make(map[string]bool, len(view.ActiveMeals))
	for _, name := range view.ActiveMeals {
		active[name] = true
	}
	sort.Strings(names)
	for _, name := range names {
		if active[name] {
			sb.WriteString(fmt.Sprintf("🔥 *%s*\n", name))
		} else {
			sb.WriteString(fmt.Sprintf("• %s\n", name))
		}
	}
	return sb.String()
}
