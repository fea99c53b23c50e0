package interact

import (
	"fmt"
	"strings"
	"time"
)

// Source tags distinguish this channel from other interaction channels in
// result metadata.
const (
	SourceSend     = "telegram"
	SourceContinue = "telegram_continue"
)

// DefaultContinuePrompt is the free-text payload of a continue result when no
// configuration override exists.
const DefaultContinuePrompt = "Please continue following best practices"

// ImageAttachment is a placeholder for image delivery, which this channel
// does not carry; results always hold an empty list.
type ImageAttachment struct {
	Data      string `json:"data"`
	MediaType string `json:"media_type"`
	Filename  string `json:"filename,omitempty"`
}

// Metadata describes the origin of a result.
type Metadata struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
	Source    string `json:"source"`
}

// Result is the structured answer handed back to the protocol caller.
// SelectedOptions carries set semantics; its order is not part of the
// contract.
type Result struct {
	UserInput       *string           `json:"user_input"`
	SelectedOptions []string          `json:"selected_options"`
	Images          []ImageAttachment `json:"images"`
	Metadata        Metadata          `json:"metadata"`
}

func newMetadata(requestID, source string) Metadata {
	return Metadata{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
		Source:    source,
	}
}

// NewSendResult builds the answered-result shape: the free text is present
// only when non-empty, the selection is whatever the human toggled.
func NewSendResult(userInput string, selected []string, requestID string) Result {
	var input *string
	if userInput != "" {
		input = &userInput
	}
	if selected == nil {
		selected = []string{}
	}
	return Result{
		UserInput:       input,
		SelectedOptions: selected,
		Images:          []ImageAttachment{},
		Metadata:        newMetadata(requestID, SourceSend),
	}
}

// NewContinueResult builds the continue-result shape. Continue short-circuits
// the interaction: the configured continue prompt becomes the input and any
// prior selection is discarded.
func NewContinueResult(continuePrompt, requestID string) Result {
	if continuePrompt == "" {
		continuePrompt = DefaultContinuePrompt
	}
	return Result{
		UserInput:       &continuePrompt,
		SelectedOptions: []string{},
		Images:          []ImageAttachment{},
		Metadata:        newMetadata(requestID, SourceContinue),
	}
}

// FeedbackLine builds the one-line confirmation echoed back to the channel
// after a commit. On the continue path the selection and text are ignored.
func FeedbackLine(selected []string, text string, continued bool) string {
	if continued {
		return "➡️ Continuing without further input."
	}

	joined := strings.Join(selected, ", ")
	switch {
	case len(selected) > 0 && text != "":
		return fmt.Sprintf("✅ Recorded: %s — %s", joined, text)
	case text != "":
		return "✅ Recorded: " + text
	case len(selected) > 0:
		return "✅ Recorded: " + joined
	default:
		return "✅ Recorded."
	}
}
