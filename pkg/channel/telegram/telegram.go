package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"dyebot/pkg/channel"
	"dyebot/pkg/config"
	"dyebot/pkg/dialog"
	"dyebot/pkg/reply"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const channelName = "telegram"
const messagePreviewLimit = 240

// Adapter bridges Telegram updates into dyebot events. Text messages become
// free-text events; callback queries from inline keyboards become selection
// events carrying the row or button id.
type Adapter struct {
	cfg       config.TelegramConfig
	allowFrom map[string]struct{}
	log       *slog.Logger
}

// NewAdapter validates Telegram configuration and constructs an adapter.
func NewAdapter(cfg config.TelegramConfig, log *slog.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("channels.telegram.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Adapter{
		cfg:       cfg,
		allowFrom: allowFromSet(cfg.AllowFrom),
		log:       log.With("component", "channel.telegram"),
	}, nil
}

// Name returns the channel identifier used in session keys and logs.
func (a *Adapter) Name() string {
	return channelName
}

// Run starts Telegram long polling and forwards updates through the handler.
func (a *Adapter) Run(ctx context.Context, handler channel.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	bot, err := telego.NewBot(strings.TrimSpace(a.cfg.Token))
	if err != nil {
		return fmt.Errorf("initialize telegram bot: %w", err)
	}

	updates, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	a.log.Info("Telegram channel started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("telegram updates channel closed")
			}

			switch {
			case update.CallbackQuery != nil:
				a.handleCallback(ctx, bot, handler, update.CallbackQuery)
			case update.Message != nil:
				a.handleMessage(ctx, bot, handler, update.Message)
			}
		}
	}
}

func (a *Adapter) handleMessage(ctx context.Context, bot *telego.Bot, handler channel.Handler, message *telego.Message) {
	content := strings.TrimSpace(message.Text)
	if content == "" || message.From == nil {
		return
	}

	senderID := strconv.FormatInt(message.From.ID, 10)
	if !a.senderAllowed(senderID) {
		a.log.Debug("Ignoring message from unauthorized sender", "sender_id", senderID)
		return
	}

	chatID := strconv.FormatInt(message.Chat.ID, 10)
	a.dispatch(ctx, bot, handler, message.Chat.ID, channel.Inbound{
		Channel:  channelName,
		SenderID: sessionKey(chatID),
		ChatID:   chatID,
		Event:    dialog.TextEvent(content),
	})
}

func (a *Adapter) handleCallback(ctx context.Context, bot *telego.Bot, handler channel.Handler, query *telego.CallbackQuery) {
	selection := strings.TrimSpace(query.Data)
	if selection == "" || query.Message == nil {
		return
	}

	senderID := strconv.FormatInt(query.From.ID, 10)
	if !a.senderAllowed(senderID) {
		a.log.Debug("Ignoring callback from unauthorized sender", "sender_id", senderID)
		return
	}

	// Stop the client-side loading spinner before processing.
	if err := bot.AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID)); err != nil {
		a.log.Debug("Failed to answer callback query", "error", err)
	}

	chat := query.Message.GetChat()
	chatID := strconv.FormatInt(chat.ID, 10)
	a.dispatch(ctx, bot, handler, chat.ID, channel.Inbound{
		Channel:  channelName,
		SenderID: sessionKey(chatID),
		ChatID:   chatID,
		Event:    dialog.SelectionEvent(selection),
	})
}

func (a *Adapter) dispatch(ctx context.Context, bot *telego.Bot, handler channel.Handler, chatID int64, inbound channel.Inbound) {
	a.log.Info("Received message",
		"chat_id", inbound.ChatID,
		"selection_id", inbound.Event.SelectionID,
		"text", previewText(inbound.Event.Text),
	)

	messages, err := handler(ctx, inbound)
	if err != nil {
		a.log.Error("Failed to process inbound message", "error", err)
		messages = []reply.Message{reply.RetryText()}
	}

	for _, message := range messages {
		if err := a.send(ctx, bot, chatID, message); err != nil {
			a.log.Error("Failed to send telegram message", "chat_id", inbound.ChatID, "error", err)
		}
	}
}

// send renders one reply message in Telegram terms: button prompts and
// option lists both become inline keyboards.
func (a *Adapter) send(ctx context.Context, bot *telego.Bot, chatID int64, message reply.Message) error {
	switch m := message.(type) {
	case reply.Text:
		_, err := bot.SendMessage(ctx, tu.Message(tu.ID(chatID), m.Body).WithParseMode(telego.ModeMarkdown))
		return err

	case reply.ButtonPrompt:
		params := tu.Message(tu.ID(chatID), promptBody(m.Header, m.Body))
		_, err := bot.SendMessage(ctx, params.WithReplyMarkup(buttonKeyboard(m)))
		return err

	case reply.OptionList:
		params := tu.Message(tu.ID(chatID), promptBody(m.Header, m.Body))
		_, err := bot.SendMessage(ctx, params.WithReplyMarkup(listKeyboard(m)))
		return err

	default:
		return fmt.Errorf("unsupported message type %T", message)
	}
}

func promptBody(header string, body string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return body
	}
	return header + "\n\n" + body
}

func buttonKeyboard(prompt reply.ButtonPrompt) *telego.InlineKeyboardMarkup {
	buttons := make([]telego.InlineKeyboardButton, 0, len(prompt.Buttons))
	for _, b := range prompt.Buttons {
		buttons = append(buttons, tu.InlineKeyboardButton(b.Title).WithCallbackData(b.ID))
	}
	return tu.InlineKeyboard(tu.InlineKeyboardRow(buttons...))
}

func listKeyboard(list reply.OptionList) *telego.InlineKeyboardMarkup {
	var rows [][]telego.InlineKeyboardButton
	for _, section := range list.Sections {
		for _, row := range section.Rows {
			button := tu.InlineKeyboardButton(row.Title).WithCallbackData(row.ID)
			rows = append(rows, tu.InlineKeyboardRow(button))
		}
	}
	return tu.InlineKeyboard(rows...)
}

// senderAllowed checks the allow_from config; an empty list accepts everyone.
func (a *Adapter) senderAllowed(senderID string) bool {
	if len(a.allowFrom) == 0 {
		return true
	}

	_, ok := a.allowFrom[strings.TrimSpace(senderID)]
	return ok
}

// sessionKey maps one Telegram chat to one dialog session.
func sessionKey(chatID string) string {
	return "telegram:" + strings.TrimSpace(chatID)
}

func allowFromSet(allowFrom []string) map[string]struct{} {
	if len(allowFrom) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(allowFrom))
	for _, value := range allowFrom {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}

	if len(allowed) == 0 {
		return nil
	}

	return allowed
}

func previewText(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= messagePreviewLimit {
		return trimmed
	}

	return trimmed[:messagePreviewLimit] + "..."
}
