package telegram_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/debrief"
	"github.com/aretw0/debrief/internal/testutils"
	"github.com/aretw0/debrief/pkg/adapters/telegram"
	"github.com/aretw0/debrief/pkg/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatID int64 = 42

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	updates  chan tgbotapi.Update
	stopped  bool
}

func newFakeBot() *fakeBot {
	return &fakeBot{updates: make(chan tgbotapi.Update, 8)}
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) StopReceivingUpdates() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, msg)
	}
	return tgbotapi.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: "debrief_bot"}
}

func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.sent))
	for _, m := range b.sent {
		out = append(out, m.Text)
	}
	return out
}

func (b *fakeBot) last() tgbotapi.MessageConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent[len(b.sent)-1]
}

func (b *fakeBot) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = nil
}

func shortScript() domain.Script {
	return domain.Script{
		Questions:          []string{"How was today?", "Anything else?"},
		TransitionQuestion: "Move on?",
		Listening:          "Go ahead.",
		Farewell:           "Bye for now.",
	}
}

func setup(t *testing.T, gw *testutils.MockGateway, opts ...telegram.Option) (*telegram.Adapter, *fakeBot, *debrief.Coach) {
	t.Helper()
	coach, err := debrief.New(gw, debrief.WithScript(shortScript()))
	require.NoError(t, err)
	bot := newFakeBot()
	a, err := telegram.New(coach, bot, opts...)
	require.NoError(t, err)
	return a, bot, coach
}

func text(from int64, s string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		Text:      s,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: from},
	}
	if len(s) > 0 && s[0] == '/' {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(s)}}
	}
	return tgbotapi.Update{Message: msg}
}

func press(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		From:    &tgbotapi.User{ID: chatID},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func hasKeyboard(msg tgbotapi.MessageConfig) bool {
	_, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	return ok
}

func TestAdapter_FullSession(t *testing.T) {
	ctx := context.Background()
	gw := testutils.NewMockGateway().
		QueueTransition(true).
		QueueSummary(domain.Summary{Goals: []string{"Rest more"}})
	a, bot, coach := setup(t, gw)

	a.HandleUpdate(ctx, text(chatID, "/start"))
	assert.Equal(t, []string{"How was today?"}, bot.texts())
	assert.False(t, hasKeyboard(bot.last()))

	a.HandleUpdate(ctx, text(chatID, "Good"))
	assert.Equal(t, "Move on?", bot.last().Text)
	assert.True(t, hasKeyboard(bot.last()))

	a.HandleUpdate(ctx, press(telegram.CallbackYes))
	assert.Equal(t, "Anything else?", bot.last().Text)
	require.Len(t, bot.requests, 2, "callback answered and keyboard cleared")
	_, ok := bot.requests[0].(tgbotapi.CallbackConfig)
	assert.True(t, ok)

	bot.reset()
	a.HandleUpdate(ctx, press(telegram.CallbackNo))
	got := bot.texts()
	require.Len(t, got, 2)
	assert.Equal(t, "Bye for now.", got[0])
	assert.Contains(t, got[1], "- Rest more")

	view, err := coach.Get(ctx, telegram.SessionID(chatID))
	require.NoError(t, err)
	assert.False(t, view.Active)
}

func TestAdapter_RetryAfterModelFailure(t *testing.T) {
	ctx := context.Background()
	gw := testutils.NewMockGateway().
		Fail(domain.OpShouldTransition, errors.New("connection refused")).
		QueueTransition(true)
	a, bot, _ := setup(t, gw)

	a.HandleUpdate(ctx, text(chatID, "/start"))
	a.HandleUpdate(ctx, text(chatID, "Good"))
	assert.Equal(t, telegram.UnavailableText, bot.last().Text)

	a.HandleUpdate(ctx, text(chatID, "/retry"))
	assert.Equal(t, "Move on?", bot.last().Text)
	assert.True(t, hasKeyboard(bot.last()))
}

func TestAdapter_Commands(t *testing.T) {
	ctx := context.Background()

	t.Run("Text Before Start Opens Session", func(t *testing.T) {
		a, bot, _ := setup(t, testutils.NewMockGateway())
		a.HandleUpdate(ctx, text(chatID, "hello"))
		assert.Equal(t, []string{"How was today?"}, bot.texts())
	})

	t.Run("End Sends Summary", func(t *testing.T) {
		a, bot, _ := setup(t, testutils.NewMockGateway())
		a.HandleUpdate(ctx, text(chatID, "/start"))
		a.HandleUpdate(ctx, text(chatID, "/end"))
		assert.Contains(t, bot.last().Text, "## Conversation Summary")
	})

	t.Run("Start After End Begins Fresh Session", func(t *testing.T) {
		a, bot, coach := setup(t, testutils.NewMockGateway())
		a.HandleUpdate(ctx, text(chatID, "/start"))
		a.HandleUpdate(ctx, text(chatID, "/end"))
		a.HandleUpdate(ctx, text(chatID, "/start"))
		assert.Equal(t, "How was today?", bot.last().Text)

		view, err := coach.Get(ctx, telegram.SessionID(chatID))
		require.NoError(t, err)
		assert.True(t, view.Active)
		assert.Len(t, view.Transcript, 1)
	})

	t.Run("Unknown Command Shows Help", func(t *testing.T) {
		a, bot, _ := setup(t, testutils.NewMockGateway())
		a.HandleUpdate(ctx, text(chatID, "/help"))
		assert.Equal(t, telegram.HelpText, bot.last().Text)
	})

	t.Run("Retry Without Session", func(t *testing.T) {
		a, bot, _ := setup(t, testutils.NewMockGateway())
		a.HandleUpdate(ctx, text(chatID, "/retry"))
		assert.Contains(t, bot.last().Text, "/start")
	})
}

func TestAdapter_AllowList(t *testing.T) {
	a, bot, _ := setup(t, testutils.NewMockGateway(), telegram.WithAllow(7))

	a.HandleUpdate(context.Background(), text(99, "/start"))
	assert.Empty(t, bot.texts())

	a.HandleUpdate(context.Background(), text(7, "/start"))
	assert.Equal(t, []string{"How was today?"}, bot.texts())
}

func TestAdapter_Remind(t *testing.T) {
	ctx := context.Background()
	a, bot, _ := setup(t, testutils.NewMockGateway(), telegram.WithReminder("0 21 * * *"))

	a.Remind(ctx)
	assert.Empty(t, bot.texts(), "nobody subscribed yet")

	a.HandleUpdate(ctx, text(chatID, "/start"))
	bot.reset()
	a.Remind(ctx)
	assert.Empty(t, bot.texts(), "session in progress")

	a.HandleUpdate(ctx, text(chatID, "/end"))
	bot.reset()
	a.Remind(ctx)
	assert.Equal(t, []string{telegram.ReminderText}, bot.texts())

	a.HandleUpdate(ctx, text(chatID, "/mute"))
	bot.reset()
	a.Remind(ctx)
	assert.Empty(t, bot.texts())
}

func TestNew_InvalidReminder(t *testing.T) {
	_, err := telegram.New(nil, newFakeBot(), telegram.WithReminder("not a schedule"))
	assert.Error(t, err)
}

func TestAdapter_Run(t *testing.T) {
	a, bot, _ := setup(t, testutils.NewMockGateway())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	bot.updates <- text(chatID, "/start")
	require.Eventually(t, func() bool { return len(bot.texts()) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	bot.mu.Lock()
	defer bot.mu.Unlock()
	assert.True(t, bot.stopped)
}
