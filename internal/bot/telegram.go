package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/soundseek/soundseek/internal/download"
	"github.com/soundseek/soundseek/internal/registry"
	"github.com/soundseek/soundseek/internal/search"
	"github.com/soundseek/soundseek/internal/stats"
)

const (
	welcomeText = "🎵 Welcome to Music Search Bot!\n\n" +
		"I can help you find and download your favorite songs from YouTube.\n\n" +
		"Available commands:\n" +
		"🔍 /search - Search for a song\n" +
		"📊 /stats - Show usage statistics\n" +
		"❓ /help - Show detailed help\n\n" +
		"Example:\n" +
		"/search Sunflower Post Malone\n\n" +
		"Just send me a song name and I'll find it for you! 🎧"

	helpText = "🎵 Music Search Bot Help\n\n" +
		"Commands:\n" +
		"🔍 /search - Search for a song\n" +
		"Example: /search Sunflower Post Malone\n\n" +
		"Features:\n" +
		"• High-quality audio downloads\n" +
		"• Fast and reliable search\n" +
		"• Easy to use interface\n\n" +
		"Tips:\n" +
		"• Be specific in your search\n" +
		"• Include artist name for better results\n" +
		"• Wait for download to complete"

	searchUsageText = "🔍 How to search:\n\n" +
		"Use the command followed by the song name:\n" +
		"/search <song name>\n\n" +
		"Examples:\n" +
		"• /search Sunflower Post Malone\n" +
		"• /search Shape of You\n" +
		"• /search Blinding Lights The Weeknd"

	selectSongText  = "🎵 Select a song:"
	downloadingText = "⏬ Downloading your song..."
)

// StatsReader is the read side of the statistics aggregator.
type StatsReader interface {
	Snapshot() stats.Snapshot
	TopQueries(k int) []stats.Entry
	TopArtists(k int) []stats.Entry
}

// API is the subset of the Telegram client the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram transport over Service. It renders outcomes; the
// interaction policy lives in Service.
type Bot struct {
	api     API
	service *Service
	stats   StatsReader
}

func NewBot(api API, service *Service, statsReader StatsReader) *Bot {
	return &Bot{api: api, service: service, stats: statsReader}
}

// Run polls for updates until ctx is cancelled. Each update is handled on
// its own goroutine so a slow download never blocks other users.
func (b *Bot) Run(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message == nil || update.Message.From == nil:
		// Ignore edits, channel posts, and other update kinds.
	case update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message.Text != "":
		// Bare text is treated as a search query.
		b.handleSearch(ctx, update.Message, update.Message.Text)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.reply(msg.Chat.ID, welcomeText)
	case "help":
		b.reply(msg.Chat.ID, helpText)
	case "stats":
		b.reply(msg.Chat.ID, statsMessage(b.stats))
	case "search":
		query := msg.CommandArguments()
		if strings.TrimSpace(query) == "" {
			b.reply(msg.Chat.ID, searchUsageText)
			return
		}
		b.handleSearch(ctx, msg, query)
	default:
		b.reply(msg.Chat.ID, helpText)
	}
}

func (b *Bot) handleSearch(ctx context.Context, msg *tgbotapi.Message, query string) {
	bindings, err := b.service.Search(ctx, msg.From.ID, query)
	if err != nil {
		b.reply(msg.Chat.ID, userFacingSearchError(err))
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(bindings))
	for _, binding := range bindings {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(buttonLabel(binding), binding.Token),
		))
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, selectSongText)
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(reply); err != nil {
		slog.Error("Failed to send search results", "chatId", msg.Chat.ID, "error", err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		slog.Warn("Failed to answer callback", "error", err)
	}

	// Telegram omits the source message for callbacks on old messages;
	// without it there is nowhere to report progress or deliver audio.
	if callback.Message == nil {
		slog.Warn("Callback without source message, ignoring", "data", callback.Data)
		return
	}

	chatID := callback.Message.Chat.ID
	statusID := callback.Message.MessageID

	b.edit(chatID, statusID, downloadingText)

	artifact, err := b.service.Download(ctx, callback.From.ID, callback.Data)
	if err != nil {
		b.edit(chatID, statusID, userFacingDownloadError(err))
		return
	}
	defer artifact.Close()

	audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(artifact.Path))
	audio.Title = artifact.Title
	audio.Performer = artifact.Artist
	if _, err := b.api.Send(audio); err != nil {
		slog.Error("Failed to send audio", "chatId", chatID, "error", err)
		b.edit(chatID, statusID, "❌ Error: could not deliver the audio file, please try again")
		return
	}

	// The status message has served its purpose.
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, statusID)); err != nil {
		slog.Warn("Failed to delete status message", "chatId", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Error("Failed to send message", "chatId", chatID, "error", err)
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	if _, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		slog.Warn("Failed to edit message", "chatId", chatID, "error", err)
	}
}

// buttonLabel renders one candidate as an inline keyboard label. Telegram
// truncates long labels itself.
func buttonLabel(binding registry.Binding) string {
	c := binding.Candidate
	label := c.Title
	if c.Artist != "" {
		label = fmt.Sprintf("%s - %s", c.Title, c.Artist)
	}
	if c.DurationSeconds > 0 {
		label = fmt.Sprintf("%s (%s)", label, c.DurationDisplay)
	}
	return label
}

func statsMessage(reader StatsReader) string {
	snapshot := reader.Snapshot()

	var sb strings.Builder
	sb.WriteString("📊 Usage statistics\n\n")
	fmt.Fprintf(&sb, "Searches: %d\n", snapshot.TotalSearches)
	fmt.Fprintf(&sb, "Downloads: %d\n", snapshot.TotalDownloads)
	fmt.Fprintf(&sb, "Errors: %d\n", snapshot.TotalErrors)

	if queries := reader.TopQueries(5); len(queries) > 0 {
		sb.WriteString("\nTop queries:\n")
		for _, entry := range queries {
			fmt.Fprintf(&sb, "• %s (%d)\n", entry.Key, entry.Count)
		}
	}
	if artists := reader.TopArtists(5); len(artists) > 0 {
		sb.WriteString("\nTop artists:\n")
		for _, entry := range artists {
			fmt.Fprintf(&sb, "• %s (%d)\n", entry.Key, entry.Count)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func userFacingSearchError(err error) string {
	switch {
	case errors.Is(err, search.ErrEmptyQuery), errors.Is(err, search.ErrInvalidQuery):
		return searchUsageText
	case errors.Is(err, search.ErrNoResults):
		return "⚠️ No results found. Try a different search, and include the artist name for better results."
	default:
		return "⚠️ Error: the search failed, please try again in a moment"
	}
}

func userFacingDownloadError(err error) string {
	switch {
	case errors.Is(err, registry.ErrTokenExpired):
		return "⚠️ This result has expired. Please search again."
	case errors.Is(err, download.ErrArtifactMissing):
		return "❌ Error: the audio file could not be produced, please try another result"
	default:
		return "❌ Error: the download failed, please try again"
	}
}
