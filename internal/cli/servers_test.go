package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/debrief/internal/config"
	"github.com/aretw0/debrief/pkg/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPHandler(t *testing.T) {
	app := newTestApp(t, testConfig(t, config.DriverMemory))
	srv := httptest.NewServer(NewHTTPHandler(app))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/sessions", "application/json", strings.NewReader(`{"session_id":"h1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var view domain.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, "h1", view.SessionID)
	assert.True(t, view.Active)

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	assert.Equal(t, http.StatusOK, metrics.StatusCode)
}

func TestServe_Shutdown(t *testing.T) {
	app := newTestApp(t, testConfig(t, config.DriverMemory))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, app, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeMCP_UnknownTransport(t *testing.T) {
	app := newTestApp(t, testConfig(t, config.DriverMemory))
	err := ServeMCP(context.Background(), app, "carrier-pigeon", 0)
	assert.ErrorContains(t, err, "unknown transport")
}

type nopBot struct{}

func (nopBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return nil }
func (nopBot) StopReceivingUpdates() {}
func (nopBot) Send(tgbotapi.Chattable) (tgbotapi.Message, error) { return tgbotapi.Message{}, nil }
func (nopBot) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}
func (nopBot) GetSelf() tgbotapi.User { return tgbotapi.User{} }

func TestNewTelegramAdapter(t *testing.T) {
	app := newTestApp(t, testConfig(t, config.DriverMemory))

	_, err := NewTelegramAdapter(app, config.TelegramConfig{Reminder: "0 21 * * *", Allow: []int64{1}}, nopBot{})
	assert.NoError(t, err)

	_, err = NewTelegramAdapter(app, config.TelegramConfig{Reminder: "every evening"}, nopBot{})
	assert.Error(t, err)

	err = RunTelegram(context.Background(), app, config.TelegramConfig{})
	assert.ErrorContains(t, err, "token is required")
}
