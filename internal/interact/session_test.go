package interact

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pollResult struct {
	updates []Update
	err     error
}

type markupEdit struct {
	messageID int
	selected  []string
}

// fakeTransport scripts poll results and records everything the session
// sends through it.
type fakeTransport struct {
	chatID int64

	mu              sync.Mutex
	queue           []pollResult
	offsets         []int
	sent            []string
	edits           []markupEdit
	failOptions     bool
	failOperation   bool
	operationCalls  int
	continueEnabled bool
}

func newFakeTransport(queue ...pollResult) *fakeTransport {
	return &fakeTransport{chatID: testChatID, queue: queue}
}

func (f *fakeTransport) ChatID() int64 { return f.chatID }

func (f *fakeTransport) SendMessage(_ context.Context, text string, _ bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return 900 + len(f.sent), nil
}

func (f *fakeTransport) SendOptionsMessage(_ context.Context, _ string, _ []string, _ bool) (int, error) {
	if f.failOptions {
		return 0, errors.New("send failed")
	}
	return 100, nil
}

func (f *fakeTransport) SendOperationMessage(_ context.Context, continueEnabled bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOperation {
		return 0, errors.New("send failed")
	}
	f.operationCalls++
	f.continueEnabled = continueEnabled
	return 101, nil
}

func (f *fakeTransport) UpdateOptionsMarkup(_ context.Context, messageID int, _, selected []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, markupEdit{messageID: messageID, selected: selected})
	return nil
}

func (f *fakeTransport) Poll(_ context.Context, offset int, _ time.Duration) ([]Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offsets = append(f.offsets, offset)
	if len(f.queue) == 0 {
		return nil, nil
	}
	next := f.queue[0]
	f.queue = f.queue[1:]
	return next.updates, next.err
}

func fastSettings() Settings {
	return Settings{
		PollTimeout: time.Millisecond,
		RetryDelay:  time.Millisecond,
		CycleDelay:  time.Millisecond,
		PostGap:     time.Millisecond,
	}
}

func TestSessionSendFlow(t *testing.T) {
	tr := newFakeTransport(
		// Baseline: stale history already queued before the session posts.
		pollResult{updates: []Update{
			messageUpdate(10, testChatID, "old chatter"),
			messageUpdate(11, testChatID, SendButtonLabel),
		}},
		pollResult{updates: []Update{
			pressUpdate(12, testChatID, "toggle:A"),
			pressUpdate(13, testChatID, "toggle:B"),
		}},
		pollResult{updates: []Update{
			messageUpdate(14, testChatID, "first note"),
			messageUpdate(15, testChatID, "final note"),
			pressUpdate(16, testChatID, "toggle:A"),
		}},
		pollResult{updates: []Update{messageUpdate(17, testChatID, SendButtonLabel)}},
	)

	var events []EventKind
	s := NewSession("req-1", "What now?", []string{"A", "B"}, true, tr, fastSettings())
	s.OnEvent(func(ev Event) { events = append(events, ev.Kind) })

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	// A was toggled on then off; the text buffer is latest-wins.
	assert.Equal(t, []string{"B"}, result.SelectedOptions)
	require.NotNil(t, result.UserInput)
	assert.Equal(t, "final note", *result.UserInput)
	assert.Equal(t, "req-1", result.Metadata.RequestID)

	// Stale history was baselined away, not interpreted as a commit.
	assert.GreaterOrEqual(t, tr.offsets[1], 12)

	// Every toggle refreshed the live markup on the anchor message.
	require.Len(t, tr.edits, 3)
	assert.Equal(t, 100, tr.edits[0].messageID)
	assert.Equal(t, []string{"B"}, tr.edits[2].selected)

	// Feedback line echoed to the channel.
	require.Len(t, tr.sent, 1)
	assert.Contains(t, tr.sent[0], "Recorded")
	assert.Contains(t, tr.sent[0], "B")
	assert.Contains(t, tr.sent[0], "final note")

	assert.Equal(t, []EventKind{
		EventOptionToggled,
		EventOptionToggled,
		EventTextUpdated,
		EventTextUpdated,
		EventOptionToggled,
		EventSendPressed,
	}, events)
}

func TestSessionTogglePairRestoresSet(t *testing.T) {
	tr := newFakeTransport(
		pollResult{},
		pollResult{updates: []Update{
			pressUpdate(1, testChatID, "toggle:A"),
			pressUpdate(2, testChatID, "toggle:A"),
			messageUpdate(3, testChatID, SendButtonLabel),
		}},
	)

	s := NewSession("req-1", "pick", []string{"A"}, false, tr, fastSettings())
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.SelectedOptions)
	assert.Nil(t, result.UserInput)
}

func TestSessionContinueDiscardsState(t *testing.T) {
	tr := newFakeTransport(
		pollResult{},
		pollResult{updates: []Update{
			pressUpdate(1, testChatID, "toggle:A"),
			pressUpdate(2, testChatID, "toggle:B"),
			messageUpdate(3, testChatID, "hello"),
			messageUpdate(4, testChatID, ContinueButtonLabel),
		}},
	)

	settings := fastSettings()
	settings.ContinueEnabled = true
	settings.ContinuePrompt = "keep going"

	s := NewSession("req-1", "pick", []string{"A", "B"}, false, tr, settings)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.SelectedOptions)
	require.NotNil(t, result.UserInput)
	assert.Equal(t, "keep going", *result.UserInput)
	assert.Equal(t, SourceContinue, result.Metadata.Source)

	assert.True(t, tr.continueEnabled)
	require.Len(t, tr.sent, 1)
	assert.Contains(t, tr.sent[0], "Continuing")
}

func TestSessionPollErrorRetries(t *testing.T) {
	tr := newFakeTransport(
		pollResult{},
		pollResult{updates: []Update{pressUpdate(20, testChatID, "toggle:A")}},
		pollResult{err: errors.New("network down")},
		pollResult{err: errors.New("network down")},
		pollResult{updates: []Update{messageUpdate(21, testChatID, SendButtonLabel)}},
	)

	s := NewSession("req-1", "pick", []string{"A"}, false, tr, fastSettings())
	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, result.SelectedOptions)

	// The cursor never rewound, including across the failed polls.
	for i := 1; i < len(tr.offsets); i++ {
		assert.GreaterOrEqual(t, tr.offsets[i], tr.offsets[i-1])
	}
}

func TestSessionDuplicateDeliveryAppliesOnce(t *testing.T) {
	tr := newFakeTransport(
		pollResult{},
		pollResult{updates: []Update{pressUpdate(20, testChatID, "toggle:A")}},
		// A transport hiccup redelivers the same update.
		pollResult{updates: []Update{
			pressUpdate(20, testChatID, "toggle:A"),
			messageUpdate(21, testChatID, SendButtonLabel),
		}},
	)

	s := NewSession("req-1", "pick", []string{"A"}, false, tr, fastSettings())
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, result.SelectedOptions)
}

func TestSessionIgnoresForeignAndUnknown(t *testing.T) {
	tr := newFakeTransport(
		pollResult{},
		pollResult{updates: []Update{
			pressUpdate(1, 999, "toggle:A"),
			messageUpdate(2, 999, "intruder text"),
			pressUpdate(3, testChatID, "toggle:Z"),
			messageUpdate(4, testChatID, SendButtonLabel),
		}},
	)

	s := NewSession("req-1", "pick", []string{"A"}, false, tr, fastSettings())
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.SelectedOptions)
	assert.Nil(t, result.UserInput)
	assert.Empty(t, tr.edits)
}

func TestSessionPostFailureIsFatal(t *testing.T) {
	tr := newFakeTransport()
	tr.failOptions = true

	s := NewSession("req-1", "pick", []string{"A"}, false, tr, fastSettings())
	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive message")
	assert.Zero(t, tr.operationCalls)
}

func TestSessionOperationPostFailureIsFatal(t *testing.T) {
	tr := newFakeTransport()
	tr.failOperation = true

	s := NewSession("req-1", "pick", []string{"A"}, false, tr, fastSettings())
	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operation message")
}

func TestSessionCancellation(t *testing.T) {
	tr := newFakeTransport() // never produces a commit

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := NewSession("req-1", "pick", []string{"A"}, false, tr, fastSettings())
	result, err := s.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Result{}, result)
	assert.Empty(t, tr.sent)
}
