// Package telegram runs debrief sessions in Telegram chats, one session per chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/aretw0/debrief/internal/logging"
	"github.com/aretw0/debrief/pkg/domain"
	"github.com/aretw0/debrief/pkg/ports"
	"github.com/aretw0/debrief/pkg/runner"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
)

// Callback data carried by the inline Yes/No keyboard.
const (
	CallbackYes = "yes"
	CallbackNo  = "no"
)

// Messages sent by the bot outside the scripted conversation.
const (
	UnavailableText = "I can't reach the coach right now. Send /retry to try again."
	EndedText       = "This session has ended. Send /start to begin a new one."
	ReminderText    = "Time to reflect on your day. Send /start when you're ready."
	HelpText        = "/start begins a reflection, /end finishes it, /retry repeats a failed turn, /mute stops reminders."
)

// SessionID maps a chat onto its session.
func SessionID(chatID int64) string {
	return "tg-" + strconv.FormatInt(chatID, 10)
}

// Adapter relays Telegram updates to a ports.Conversation.
type Adapter struct {
	conv     ports.Conversation
	bot      Bot
	allow    map[int64]bool
	reminder string
	logger   *slog.Logger

	mu         sync.Mutex
	subscribed map[int64]bool
	cron       *cron.Cron
}

// Option configures the Adapter.
type Option func(*Adapter)

// WithAllow restricts the bot to the given user IDs. No IDs means everyone.
func WithAllow(ids ...int64) Option {
	return func(a *Adapter) {
		for _, id := range ids {
			a.allow[id] = true
		}
	}
}

// WithReminder nudges subscribed chats on a standard five-field cron schedule.
func WithReminder(spec string) Option {
	return func(a *Adapter) {
		a.reminder = spec
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// New creates the adapter. It fails on an invalid reminder schedule.
func New(conv ports.Conversation, bot Bot, opts ...Option) (*Adapter, error) {
	a := &Adapter{
		conv:       conv,
		bot:        bot,
		allow:      map[int64]bool{},
		logger:     logging.NewNop(),
		subscribed: map[int64]bool{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.reminder != "" {
		if _, err := cron.ParseStandard(a.reminder); err != nil {
			return nil, fmt.Errorf("invalid reminder schedule %q: %w", a.reminder, err)
		}
	}
	return a, nil
}

// Run polls for updates until ctx is cancelled.
func (a *Adapter) Run(ctx context.Context) error {
	if a.reminder != "" {
		a.cron = cron.New()
		if _, err := a.cron.AddFunc(a.reminder, func() { a.Remind(ctx) }); err != nil {
			return err
		}
		a.cron.Start()
		defer a.cron.Stop()
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := a.bot.GetUpdatesChan(u)
	defer a.bot.StopReceivingUpdates()

	a.logger.Info("telegram polling started", "bot", a.bot.GetSelf().UserName)
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			a.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one message or button press.
func (a *Adapter) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		a.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		a.handleMessage(ctx, update.Message)
	}
}

// Remind nudges every subscribed chat whose session is not in progress.
func (a *Adapter) Remind(ctx context.Context) {
	a.mu.Lock()
	chats := make([]int64, 0, len(a.subscribed))
	for id := range a.subscribed {
		chats = append(chats, id)
	}
	a.mu.Unlock()

	for _, chatID := range chats {
		if view, err := a.conv.Get(ctx, SessionID(chatID)); err == nil && view.Active {
			continue
		}
		a.send(chatID, ReminderText, false)
	}
}

func (a *Adapter) allowed(userID int64) bool {
	return len(a.allow) == 0 || a.allow[userID]
}

func (a *Adapter) subscribe(chatID int64, on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if on {
		a.subscribed[chatID] = true
	} else {
		delete(a.subscribed, chatID)
	}
}

func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	if !a.allowed(msg.From.ID) {
		a.logger.Warn("telegram: rejected message", "user_id", msg.From.ID)
		return
	}
	chatID := msg.Chat.ID
	id := SessionID(chatID)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			a.subscribe(chatID, true)
			a.start(ctx, chatID)
		case "end":
			view, err := a.conv.End(ctx, id)
			a.reply(ctx, chatID, view, err, false)
		case "retry":
			view, err := a.conv.Retry(ctx, id)
			a.reply(ctx, chatID, view, err, true)
		case "mute":
			a.subscribe(chatID, false)
			a.send(chatID, "Reminders are off. Send /start to turn them back on.", false)
		default:
			a.send(chatID, HelpText, false)
		}
		return
	}

	text, err := runner.SanitizeInput(msg.Text)
	if err != nil {
		a.send(chatID, "I couldn't read that message: "+err.Error(), false)
		return
	}
	current, err := a.conv.Get(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		a.start(ctx, chatID)
		return
	}
	if err == nil && !current.Active {
		a.send(chatID, EndedText, false)
		return
	}
	view, err := a.conv.Send(ctx, id, text)
	a.reply(ctx, chatID, view, err, true)
}

func (a *Adapter) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if _, err := a.bot.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		a.logger.Debug("telegram: answer callback failed", "err", err)
	}
	if q.From == nil || q.Message == nil || q.Message.Chat == nil || !a.allowed(q.From.ID) {
		return
	}
	chatID := q.Message.Chat.ID

	// Buttons only belong to the latest question.
	strip := tgbotapi.NewEditMessageReplyMarkup(chatID, q.Message.MessageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := a.bot.Request(strip); err != nil {
		a.logger.Debug("telegram: clear keyboard failed", "err", err)
	}

	id := SessionID(chatID)
	if current, err := a.conv.Get(ctx, id); err == nil && !current.Active {
		a.send(chatID, EndedText, false)
		return
	}
	view, err := a.conv.Answer(ctx, id, q.Data == CallbackYes)
	a.reply(ctx, chatID, view, err, true)
}

// start opens the chat's session, replacing one that already ended.
func (a *Adapter) start(ctx context.Context, chatID int64) {
	id := SessionID(chatID)
	if view, err := a.conv.Get(ctx, id); err == nil && !view.Active {
		if err := a.conv.Delete(ctx, id); err != nil {
			a.reply(ctx, chatID, nil, err, false)
			return
		}
	}
	view, err := a.conv.Open(ctx, id)
	a.reply(ctx, chatID, view, err, true)
}

// reply reports a turn: the coach messages that closed it when echo is set,
// then the summary once the session is over.
func (a *Adapter) reply(ctx context.Context, chatID int64, view *domain.View, err error, echo bool) {
	if err != nil {
		a.logger.Warn("telegram: turn failed", "chat_id", chatID, "err", err)
		switch {
		case errors.Is(err, domain.ErrModelUnavailable):
			a.send(chatID, UnavailableText, false)
		case errors.Is(err, domain.ErrSessionNotFound):
			a.send(chatID, "No session yet. Send /start to begin.", false)
		default:
			a.send(chatID, "Something went wrong: "+err.Error(), false)
		}
		return
	}

	if echo {
		fresh := trailingAssistant(view.Transcript)
		for i, content := range fresh {
			a.send(chatID, content, view.ShowYesNo && i == len(fresh)-1)
		}
	}

	if view.Active {
		return
	}
	reader, ok := a.conv.(ports.SummaryReader)
	if !ok {
		a.send(chatID, EndedText, false)
		return
	}
	summary, err := reader.Summary(ctx, view.SessionID)
	if err != nil {
		a.send(chatID, EndedText, false)
		return
	}
	a.send(chatID, summary.Markdown(), false)
}

func (a *Adapter) send(chatID int64, text string, yesNo bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	if yesNo {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes", CallbackYes),
			tgbotapi.NewInlineKeyboardButtonData("No", CallbackNo),
		))
	}
	if _, err := a.bot.Send(msg); err != nil {
		a.logger.Warn("telegram: send failed", "chat_id", chatID, "err", err)
	}
}

// trailingAssistant returns the coach messages after the last user message.
func trailingAssistant(transcript []domain.Message) []string {
	start := len(transcript)
	for start > 0 && transcript[start-1].Role == domain.RoleAssistant {
		start--
	}
	out := make([]string, 0, len(transcript)-start)
	for _, m := range transcript[start:] {
		out = append(out, m.Content)
	}
	return out
}
