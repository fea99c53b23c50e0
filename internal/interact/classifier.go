package interact

import "strings"

// ClassifyInput is the session-side context classification needs: the target
// conversation and the fixed option list posted for this request.
type ClassifyInput struct {
	ChatID  int64
	Options []string
}

// Classify converts one raw update into a domain event. It is pure: given the
// same update and input it always yields the same event, and it never touches
// session state.
func Classify(u Update, in ClassifyInput) Event {
	if u.ChatID != in.ChatID {
		return Ignored
	}

	if u.Press != nil {
		return classifyPress(*u.Press, in.Options)
	}
	if u.Message != nil {
		return classifyMessage(*u.Message)
	}
	return Ignored
}

func classifyPress(press ButtonPress, options []string) Event {
	// A session with no predefined options posted no toggle buttons; any
	// press reaching it comes from stale markup of an earlier session.
	if len(options) == 0 {
		return Ignored
	}

	label, ok := strings.CutPrefix(press.Payload, TogglePrefix)
	if !ok {
		return Ignored
	}
	for _, opt := range options {
		if opt == label {
			return Event{Kind: EventOptionToggled, Option: label}
		}
	}
	return Ignored
}

func classifyMessage(msg IncomingMessage) Event {
	// Markup-bearing messages only re-identify the options message; the
	// session reads HasToggleMarkup itself before classifying.
	if msg.HasToggleMarkup {
		return Ignored
	}

	switch msg.Text {
	case SendButtonLabel:
		return Event{Kind: EventSendPressed}
	case ContinueButtonLabel:
		return Event{Kind: EventContinuePressed}
	case "":
		return Ignored
	default:
		return Event{Kind: EventTextUpdated, Text: msg.Text}
	}
}
