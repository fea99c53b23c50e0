package interact

import (
	"context"
	"time"
)

// Canonical labels on the operation message's reply buttons. A commit arrives
// as a plain text message matching one of these exactly; the option label in a
// toggle payload must likewise round-trip verbatim.
const (
	SendButtonLabel     = "✅ Send"
	ContinueButtonLabel = "➡️ Continue"

	// TogglePrefix prefixes the callback payload of every option button.
	TogglePrefix = "toggle:"
)

// ButtonPress is a button-press update: the payload string plus the id of the
// message carrying the button.
type ButtonPress struct {
	Payload   string
	MessageID int
}

// IncomingMessage is a plain message update.
type IncomingMessage struct {
	MessageID int
	Text      string

	// HasToggleMarkup reports whether the message carries reply markup with
	// our toggle-button schema. Such a message re-identifies the interactive
	// message for edit targeting and is never treated as a text event.
	HasToggleMarkup bool
}

// Update is one raw item returned from a transport poll, either a button
// press or an incoming message. ID is the provider's update ordinal; the
// session's cursor advances past it whether or not the update is acted on.
type Update struct {
	ID     int
	ChatID int64

	Press   *ButtonPress
	Message *IncomingMessage
}

// Transport is the one-endpoint channel capability a session drives: sending
// the interactive and operation messages, live-editing toggle markup, and
// long-polling for updates. Implementations are bound to a single endpoint
// snapshot taken at routing time.
type Transport interface {
	// ChatID returns the target conversation id the transport posts into.
	ChatID() int64

	// SendMessage posts plain (or Markdown) text and returns the message id.
	SendMessage(ctx context.Context, text string, markdown bool) (int, error)

	// SendOptionsMessage posts the prompt with one toggle button per option
	// and returns the message id, the session's edit anchor.
	SendOptionsMessage(ctx context.Context, text string, options []string, markdown bool) (int, error)

	// SendOperationMessage posts the commit controls (Send, and Continue when
	// enabled) and returns the message id.
	SendOperationMessage(ctx context.Context, continueEnabled bool) (int, error)

	// UpdateOptionsMarkup re-renders the toggle buttons on the options
	// message so the human sees the live selection state.
	UpdateOptionsMarkup(ctx context.Context, messageID int, options, selected []string) error

	// Poll long-polls for updates with ids >= offset, blocking up to timeout.
	Poll(ctx context.Context, offset int, timeout time.Duration) ([]Update, error)
}
