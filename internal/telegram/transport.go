package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/askuser/askuser/internal/interact"
	"github.com/askuser/askuser/internal/metrics"
	"github.com/askuser/askuser/internal/registry"
)

// botAPI is the slice of the Telegram Bot API the transport uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// Transport drives one channel endpoint over the Telegram Bot API. It is
// bound to the endpoint snapshot taken at routing time and implements
// interact.Transport.
type Transport struct {
	api     botAPI
	chatID  int64
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a transport for an endpoint. The token is validated against
// the API during construction.
func New(ep registry.Endpoint, m *metrics.Metrics) (*Transport, error) {
	if ep.Token == "" {
		return nil, fmt.Errorf("endpoint %q has no token", ep.Name)
	}

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(ep.Token, ep.BaseURL()+"/bot%s/%s")
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API for endpoint %q: %w", ep.Name, err)
	}

	t := &Transport{
		api:     api,
		chatID:  ep.ChatID,
		metrics: m,
		logger: log.With().
			Str("component", "telegram").
			Str("endpoint", ep.Name).
			Logger(),
	}

	t.logger.Debug().
		Str("username", api.Self.UserName).
		Int64("chat_id", ep.ChatID).
		Msg("Telegram transport ready")

	return t, nil
}

// ChatID returns the target conversation id.
func (t *Transport) ChatID() int64 {
	return t.chatID
}

// SendMessage posts a text message and returns its id.
func (t *Transport) SendMessage(_ context.Context, text string, markdown bool) (int, error) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	return t.send(msg)
}

// SendOptionsMessage posts the prompt with one toggle button per option.
func (t *Transport) SendOptionsMessage(_ context.Context, text string, options []string, markdown bool) (int, error) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if len(options) > 0 {
		msg.ReplyMarkup = optionsKeyboard(options, nil)
	}
	return t.send(msg)
}

// SendOperationMessage posts the commit controls as a reply keyboard.
func (t *Transport) SendOperationMessage(_ context.Context, continueEnabled bool) (int, error) {
	msg := tgbotapi.NewMessage(t.chatID, "Reply with any notes, then press a button to finish:")
	msg.ReplyMarkup = operationKeyboard(continueEnabled)
	return t.send(msg)
}

// UpdateOptionsMarkup re-renders the toggle buttons with current selection.
func (t *Transport) UpdateOptionsMarkup(_ context.Context, messageID int, options, selected []string) error {
	edit := tgbotapi.NewEditMessageReplyMarkup(t.chatID, messageID, optionsKeyboard(options, selected))
	if _, err := t.api.Send(edit); err != nil {
		if t.metrics != nil {
			t.metrics.TelegramErrorsTotal.Inc()
		}
		return fmt.Errorf("failed to edit message markup: %w", err)
	}
	return nil
}

// Poll long-polls for updates with ids >= offset. Button presses are
// acknowledged immediately so the client stops its loading spinner; the
// caller decides what, if anything, they mean.
func (t *Transport) Poll(_ context.Context, offset int, timeout time.Duration) ([]interact.Update, error) {
	cfg := tgbotapi.NewUpdate(offset)
	cfg.Timeout = int(timeout / time.Second)

	raw, err := t.api.GetUpdates(cfg)
	if err != nil {
		if t.metrics != nil {
			t.metrics.PollErrorsTotal.Inc()
		}
		return nil, fmt.Errorf("failed to poll updates: %w", err)
	}

	updates := make([]interact.Update, 0, len(raw))
	for _, u := range raw {
		converted, ok := t.convertUpdate(u)
		if !ok {
			continue
		}
		updates = append(updates, converted)
	}
	if t.metrics != nil {
		t.metrics.UpdatesReceivedTotal.Add(float64(len(updates)))
	}
	return updates, nil
}

// TestConnection sends a probe message through the endpoint.
func (t *Transport) TestConnection(ctx context.Context) error {
	_, err := t.SendMessage(ctx, "Connection test: this channel endpoint is reachable.", false)
	return err
}

func (t *Transport) send(msg tgbotapi.MessageConfig) (int, error) {
	sent, err := t.api.Send(msg)
	if err != nil {
		if t.metrics != nil {
			t.metrics.TelegramErrorsTotal.Inc()
		}
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	if t.metrics != nil {
		t.metrics.MessagesSentTotal.Inc()
	}
	t.logger.Debug().Int("message_id", sent.MessageID).Msg("Message sent")
	return sent.MessageID, nil
}

// convertUpdate maps a raw API update onto the bridge's update shape.
// Updates that are neither button presses nor messages are dropped here;
// their ids still reach the caller through later updates, and Telegram's
// offset semantics skip them regardless.
func (t *Transport) convertUpdate(u tgbotapi.Update) (interact.Update, bool) {
	if cq := u.CallbackQuery; cq != nil {
		t.answerCallback(cq.ID)

		out := interact.Update{
			ID:    u.UpdateID,
			Press: &interact.ButtonPress{Payload: cq.Data},
		}
		if cq.Message != nil {
			out.ChatID = cq.Message.Chat.ID
			out.Press.MessageID = cq.Message.MessageID
		}
		return out, true
	}

	if msg := u.Message; msg != nil {
		return interact.Update{
			ID:     u.UpdateID,
			ChatID: msg.Chat.ID,
			Message: &interact.IncomingMessage{
				MessageID:       msg.MessageID,
				Text:            msg.Text,
				HasToggleMarkup: hasToggleMarkup(msg.ReplyMarkup),
			},
		}, true
	}

	return interact.Update{}, false
}

func (t *Transport) answerCallback(callbackID string) {
	callback := tgbotapi.NewCallback(callbackID, "")
	if _, err := t.api.Request(callback); err != nil {
		t.logger.Warn().Err(err).Str("callback_id", callbackID).Msg("Failed to answer callback")
	}
}
