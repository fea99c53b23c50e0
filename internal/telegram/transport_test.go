package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askuser/askuser/internal/interact"
	"github.com/askuser/askuser/internal/metrics"
)

const testChatID int64 = 777000

// fakeBotAPI is an in-memory botAPI that records traffic and replays
// scripted updates.
type fakeBotAPI struct {
	sent      []tgbotapi.Chattable
	requested []tgbotapi.Chattable

	updates    []tgbotapi.Update
	updatesErr error
	lastOffset int

	sendErr    error
	nextMsgID  int
}

func (f *fakeBotAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	f.nextMsgID++
	return tgbotapi.Message{MessageID: f.nextMsgID}, nil
}

func (f *fakeBotAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requested = append(f.requested, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBotAPI) GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.lastOffset = config.Offset
	if f.updatesErr != nil {
		return nil, f.updatesErr
	}
	return f.updates, nil
}

func newTestTransport(api *fakeBotAPI) *Transport {
	return &Transport{
		api:     api,
		chatID:  testChatID,
		logger:  zerolog.Nop(),
		metrics: metrics.NewMetrics(),
	}
}

func callbackUpdate(updateID int, payload string, messageID int) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: updateID,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			Data: payload,
			Message: &tgbotapi.Message{
				MessageID: messageID,
				Chat:      &tgbotapi.Chat{ID: testChatID},
			},
		},
	}
}

func textUpdate(updateID int, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: updateID,
		Message: &tgbotapi.Message{
			MessageID: 50,
			Text:      text,
			Chat:      &tgbotapi.Chat{ID: testChatID},
		},
	}
}

func TestSendMessage(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		api := &fakeBotAPI{}
		tr := newTestTransport(api)

		id, err := tr.SendMessage(context.Background(), "hello", false)
		require.NoError(t, err)
		assert.Equal(t, 1, id)

		require.Len(t, api.sent, 1)
		msg, ok := api.sent[0].(tgbotapi.MessageConfig)
		require.True(t, ok)
		assert.Equal(t, testChatID, msg.ChatID)
		assert.Equal(t, "hello", msg.Text)
		assert.Empty(t, msg.ParseMode)
	})

	t.Run("markdown parse mode", func(t *testing.T) {
		api := &fakeBotAPI{}
		tr := newTestTransport(api)

		_, err := tr.SendMessage(context.Background(), "*bold*", true)
		require.NoError(t, err)

		msg := api.sent[0].(tgbotapi.MessageConfig)
		assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)
	})

	t.Run("send failure", func(t *testing.T) {
		api := &fakeBotAPI{sendErr: errors.New("forbidden")}
		tr := newTestTransport(api)

		_, err := tr.SendMessage(context.Background(), "hello", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send message")
	})
}

func TestSendOptionsMessage(t *testing.T) {
	t.Run("with options", func(t *testing.T) {
		api := &fakeBotAPI{}
		tr := newTestTransport(api)

		id, err := tr.SendOptionsMessage(context.Background(), "Pick one:", []string{"A", "B"}, false)
		require.NoError(t, err)
		assert.Equal(t, 1, id)

		msg := api.sent[0].(tgbotapi.MessageConfig)
		kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		require.True(t, ok)
		assert.Len(t, kb.InlineKeyboard, 2)
	})

	t.Run("without options no keyboard is attached", func(t *testing.T) {
		api := &fakeBotAPI{}
		tr := newTestTransport(api)

		_, err := tr.SendOptionsMessage(context.Background(), "Free-form question", nil, false)
		require.NoError(t, err)

		msg := api.sent[0].(tgbotapi.MessageConfig)
		assert.Nil(t, msg.ReplyMarkup)
	})
}

func TestSendOperationMessage(t *testing.T) {
	api := &fakeBotAPI{}
	tr := newTestTransport(api)

	_, err := tr.SendOperationMessage(context.Background(), true)
	require.NoError(t, err)

	msg := api.sent[0].(tgbotapi.MessageConfig)
	kb, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.Keyboard[0], 2)
}

func TestUpdateOptionsMarkup(t *testing.T) {
	api := &fakeBotAPI{}
	tr := newTestTransport(api)

	err := tr.UpdateOptionsMarkup(context.Background(), 12, []string{"A", "B"}, []string{"A"})
	require.NoError(t, err)

	require.Len(t, api.sent, 1)
	edit, ok := api.sent[0].(tgbotapi.EditMessageReplyMarkupConfig)
	require.True(t, ok)
	assert.Equal(t, 12, edit.MessageID)
	assert.Equal(t, testChatID, edit.ChatID)
	require.NotNil(t, edit.ReplyMarkup)
	assert.Equal(t, selectedMark+"A", edit.ReplyMarkup.InlineKeyboard[0][0].Text)
}

func TestPoll(t *testing.T) {
	t.Run("converts button presses and answers the callback", func(t *testing.T) {
		api := &fakeBotAPI{updates: []tgbotapi.Update{callbackUpdate(100, interact.TogglePrefix+"A", 12)}}
		tr := newTestTransport(api)

		updates, err := tr.Poll(context.Background(), 42, 10*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 42, api.lastOffset)

		require.Len(t, updates, 1)
		u := updates[0]
		assert.Equal(t, 100, u.ID)
		assert.Equal(t, testChatID, u.ChatID)
		require.NotNil(t, u.Press)
		assert.Equal(t, interact.TogglePrefix+"A", u.Press.Payload)
		assert.Equal(t, 12, u.Press.MessageID)

		// Callback was acknowledged
		require.Len(t, api.requested, 1)
		cb, ok := api.requested[0].(tgbotapi.CallbackConfig)
		require.True(t, ok)
		assert.Equal(t, "cb-1", cb.CallbackQueryID)
	})

	t.Run("converts text messages", func(t *testing.T) {
		api := &fakeBotAPI{updates: []tgbotapi.Update{textUpdate(101, "some notes")}}
		tr := newTestTransport(api)

		updates, err := tr.Poll(context.Background(), 0, time.Second)
		require.NoError(t, err)

		require.Len(t, updates, 1)
		require.NotNil(t, updates[0].Message)
		assert.Equal(t, "some notes", updates[0].Message.Text)
		assert.False(t, updates[0].Message.HasToggleMarkup)
	})

	t.Run("flags messages echoing the toggle keyboard", func(t *testing.T) {
		kb := optionsKeyboard([]string{"A"}, nil)
		upd := textUpdate(102, "")
		upd.Message.ReplyMarkup = &kb

		api := &fakeBotAPI{updates: []tgbotapi.Update{upd}}
		tr := newTestTransport(api)

		updates, err := tr.Poll(context.Background(), 0, time.Second)
		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.True(t, updates[0].Message.HasToggleMarkup)
	})

	t.Run("drops updates that are neither presses nor messages", func(t *testing.T) {
		api := &fakeBotAPI{updates: []tgbotapi.Update{
			{UpdateID: 103, EditedMessage: &tgbotapi.Message{MessageID: 9, Chat: &tgbotapi.Chat{ID: testChatID}}},
			textUpdate(104, "kept"),
		}}
		tr := newTestTransport(api)

		updates, err := tr.Poll(context.Background(), 0, time.Second)
		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.Equal(t, 104, updates[0].ID)
	})

	t.Run("poll error is wrapped", func(t *testing.T) {
		api := &fakeBotAPI{updatesErr: errors.New("gateway timeout")}
		tr := newTestTransport(api)

		_, err := tr.Poll(context.Background(), 0, time.Second)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to poll updates")
	})
}

func TestTestConnection(t *testing.T) {
	api := &fakeBotAPI{}
	tr := newTestTransport(api)

	require.NoError(t, tr.TestConnection(context.Background()))
	require.Len(t, api.sent, 1)

	api.sendErr = errors.New("unauthorized")
	require.Error(t, tr.TestConnection(context.Background()))
}
