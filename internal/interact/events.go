package interact

// EventKind discriminates the closed set of domain events a raw channel
// update can classify into.
type EventKind int

const (
	// EventIgnored marks noise: foreign chats, stale buttons, empty text.
	EventIgnored EventKind = iota

	// EventOptionToggled is a button press on one of the session's options.
	EventOptionToggled

	// EventTextUpdated is free text that replaces the session's input buffer.
	EventTextUpdated

	// EventSendPressed commits the current selection and text.
	EventSendPressed

	// EventContinuePressed commits the continue path, discarding selection.
	EventContinuePressed
)

// String returns the event kind name for logs.
func (k EventKind) String() string {
	switch k {
	case EventOptionToggled:
		return "option_toggled"
	case EventTextUpdated:
		return "text_updated"
	case EventSendPressed:
		return "send_pressed"
	case EventContinuePressed:
		return "continue_pressed"
	default:
		return "ignored"
	}
}

// Event is the classified form of one channel update.
type Event struct {
	Kind EventKind

	// Option is set for EventOptionToggled.
	Option string

	// Selected reports the option's membership after the toggle is applied.
	// The classifier leaves it false; the session fills it in when it flips
	// the selection set.
	Selected bool

	// Text is set for EventTextUpdated.
	Text string
}

// Ignored is the zero event.
var Ignored = Event{Kind: EventIgnored}
