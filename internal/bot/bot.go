package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/stash-bot/internal/archive"
	"github.com/xaenox/stash-bot/internal/classifier"
	"github.com/xaenox/stash-bot/internal/models"
	"go.uber.org/zap"
)

// Bot is the Telegram transport: it extracts provider file metadata
// from inbound updates and delegates every decision to the archive
// facade.
type Bot struct {
	api       *tgbotapi.BotAPI
	facade    *archive.Facade
	suggester classifier.Suggester
	logger    *zap.Logger
}

func New(token string, facade *archive.Facade, suggester classifier.Suggester, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:       api,
		facade:    facade,
		suggester: suggester,
		logger:    logger,
	}, nil
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			go b.handleCallback(update.CallbackQuery)
		case update.Message != nil:
			go b.handleMessage(update.Message)
		}
	}

	return nil
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	ctx := context.Background()

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	fileID, kind, ok := extractMedia(message)
	if !ok {
		b.sendMessage(message.Chat.ID, "Send me a photo, video, audio, document or sticker and I'll archive it. Use /help for commands.")
		return
	}

	// Without an explicit label the caption's hashtags (and the GPT
	// suggester, when enabled) supply one.
	label := ""
	if b.suggester != nil && message.Caption != "" {
		if suggested, err := b.suggester.SuggestTags(ctx, message.Caption); err == nil {
			label = strings.Join(suggested, " ")
		}
	}

	item, err := b.facade.SaveItem(ctx, message.From.ID, message.From.UserName, fileID, kind, message.Caption, label)
	if err != nil {
		b.logger.Error("Failed to save item",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, err)
		return
	}

	reply := fmt.Sprintf("Saved #%d (%s)\nTags: %s", item.ID, item.Kind, strings.Join(item.Tags, ", "))
	msg := tgbotapi.NewMessage(message.Chat.ID, reply)
	msg.ReplyToMessageID = message.MessageID
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send save confirmation",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

// extractMedia pulls the provider file id and media kind out of a
// Telegram message. Voice notes count as audio, animations as video.
func extractMedia(message *tgbotapi.Message) (string, models.MediaKind, bool) {
	switch {
	case len(message.Photo) > 0:
		// Telegram sends every thumbnail size; the last one is the
		// original.
		return message.Photo[len(message.Photo)-1].FileID, models.MediaPhoto, true
	case message.Video != nil:
		return message.Video.FileID, models.MediaVideo, true
	case message.Animation != nil:
		return message.Animation.FileID, models.MediaVideo, true
	case message.Audio != nil:
		return message.Audio.FileID, models.MediaAudio, true
	case message.Voice != nil:
		return message.Voice.FileID, models.MediaAudio, true
	case message.Document != nil:
		return message.Document.FileID, models.MediaDocument, true
	case message.Sticker != nil:
		return message.Sticker.FileID, models.MediaSticker, true
	}
	return "", models.MediaOther, false
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "list":
		b.handleList(ctx, message)
	case "search":
		b.handleSearch(ctx, message)
	case "delete":
		b.handleDelete(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome to StashBot! 🗃
Forward or send me any media — photos, videos, documents, audio, stickers — and I'll archive it for you.

Add a caption with #hashtags to tag an item; otherwise it lands in a default category by type.
Use /help to see all available commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the bot
/help - Show this help message
/list [category] - List your saved items, newest first
/search <words> - Find items by caption or tag
/delete <id> - Remove a saved item

Send any media to archive it. Re-sending the same file updates its tags instead of saving a copy.`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleList(ctx context.Context, message *tgbotapi.Message) {
	category := strings.TrimSpace(message.CommandArguments())

	page, err := b.facade.ListItems(ctx, message.From.ID, category, "", 0)
	if err != nil {
		b.logger.Error("Failed to list items",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, err)
		return
	}
	b.sendPage(message.Chat.ID, page, "l", category)
}

func (b *Bot) handleSearch(ctx context.Context, message *tgbotapi.Message) {
	keywords := strings.TrimSpace(message.CommandArguments())

	page, err := b.facade.SearchItems(ctx, message.From.ID, keywords, "", 0)
	if err != nil {
		b.logger.Error("Failed to search items",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, err)
		return
	}
	if len(page.Items) == 0 {
		b.sendMessage(message.Chat.ID, "No items match that search.")
		return
	}
	b.sendPage(message.Chat.ID, page, "s", keywords)
}

func (b *Bot) handleDelete(ctx context.Context, message *tgbotapi.Message) {
	arg := strings.TrimSpace(message.CommandArguments())
	itemID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		b.sendMessage(message.Chat.ID, "Usage: /delete <item id>")
		return
	}

	err = b.facade.DeleteItem(ctx, message.From.ID, itemID)
	switch {
	case err == nil:
		b.sendMessage(message.Chat.ID, fmt.Sprintf("Item #%d deleted.", itemID))
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrForbidden):
		// Identical wording keeps other users' items invisible.
		b.sendMessage(message.Chat.ID, "Nothing to delete with that id.")
	default:
		b.logger.Error("Failed to delete item",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID),
			zap.Int64("item_id", itemID))
		b.sendErrorMessage(message.Chat.ID, err)
	}
}

// sendPage renders one page of items with a "More" button carrying
// the next cursor. The callback data format is "<op>|<cursor>|<arg>";
// Telegram caps callback data at 64 bytes, so long search queries
// simply lose their button.
func (b *Bot) sendPage(chatID int64, page *models.Page, op, arg string) {
	if len(page.Items) == 0 {
		b.sendMessage(chatID, "Your archive is empty.")
		return
	}

	var sb strings.Builder
	for _, item := range page.Items {
		fmt.Fprintf(&sb, "#%d  %s  [%s]\n", item.ID, item.Kind, strings.Join(item.Tags, ", "))
		if item.Caption != "" {
			fmt.Fprintf(&sb, "    %s\n", item.Caption)
		}
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	if page.NextCursor != "" {
		data := op + "|" + page.NextCursor + "|" + arg
		if len(data) <= 64 {
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("More ▸", data),
				),
			)
		}
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send page",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) handleCallback(query *tgbotapi.CallbackQuery) {
	ctx := context.Background()

	parts := strings.SplitN(query.Data, "|", 3)
	if len(parts) != 3 || query.Message == nil {
		return
	}
	op, cursor, arg := parts[0], parts[1], parts[2]

	var (
		page *models.Page
		err  error
	)
	switch op {
	case "l":
		page, err = b.facade.ListItems(ctx, query.From.ID, arg, cursor, 0)
	case "s":
		page, err = b.facade.SearchItems(ctx, query.From.ID, arg, cursor, 0)
	default:
		return
	}

	if _, ackErr := b.api.Request(tgbotapi.NewCallback(query.ID, "")); ackErr != nil {
		b.logger.Error("Failed to answer callback", zap.Error(ackErr))
	}

	if err != nil {
		b.logger.Error("Failed to load next page",
			zap.Error(err),
			zap.Int64("user_id", query.From.ID))
		b.sendErrorMessage(query.Message.Chat.ID, err)
		return
	}
	b.sendPage(query.Message.Chat.ID, page, op, arg)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

// sendErrorMessage maps an engine error kind to a user-facing message.
func (b *Bot) sendErrorMessage(chatID int64, err error) {
	var text string
	switch {
	case errors.Is(err, models.ErrInvalidCursor):
		text = "That page has expired. Run the command again."
	case errors.Is(err, models.ErrInvalidInput):
		text = "I couldn't process that: " + err.Error()
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrForbidden):
		text = "Nothing found for that request."
	case errors.Is(err, models.ErrTransient), errors.Is(err, models.ErrConstraintViolation):
		text = "Something went wrong on my side. Please try again."
	default:
		text = "Sorry, I couldn't complete that. Please try again."
	}
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
