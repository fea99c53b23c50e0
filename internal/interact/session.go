package interact

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Settings tunes a session's posting and polling behavior. Zero values take
// the defaults below.
type Settings struct {
	// ContinueEnabled adds the Continue button to the operation message.
	ContinueEnabled bool

	// ContinuePrompt overrides the free text of a continue result.
	ContinuePrompt string

	// PollTimeout is the long-poll wait per cycle.
	PollTimeout time.Duration

	// RetryDelay is the backoff after a failed poll.
	RetryDelay time.Duration

	// CycleDelay is the pause between successful poll cycles.
	CycleDelay time.Duration

	// PostGap separates the options message from the operation message so
	// they arrive in order.
	PostGap time.Duration
}

const (
	defaultPollTimeout = 10 * time.Second
	defaultRetryDelay  = 5 * time.Second
	defaultCycleDelay  = time.Second
	defaultPostGap     = 500 * time.Millisecond
)

func (s *Settings) applyDefaults() {
	if s.PollTimeout <= 0 {
		s.PollTimeout = defaultPollTimeout
	}
	if s.RetryDelay <= 0 {
		s.RetryDelay = defaultRetryDelay
	}
	if s.CycleDelay <= 0 {
		s.CycleDelay = defaultCycleDelay
	}
	if s.PostGap <= 0 {
		s.PostGap = defaultPostGap
	}
}

// Session owns one request's lifecycle: it posts the interactive message,
// long-polls the transport, reconciles toggle and text events against local
// state, and produces the final result on commit. All session state is
// written only by Run's goroutine, so no locking is needed inside.
type Session struct {
	requestID string
	prompt    string
	options   []string
	markdown  bool
	transport Transport
	settings  Settings
	logger    zerolog.Logger

	// onEvent, when set, receives every non-ignored event for observability.
	onEvent func(Event)

	selected map[string]bool
	text     string
	anchorID int
	cursor   int
}

// NewSession creates a session for one routed request.
func NewSession(requestID, prompt string, options []string, markdown bool, tr Transport, settings Settings) *Session {
	settings.applyDefaults()
	return &Session{
		requestID: requestID,
		prompt:    prompt,
		options:   options,
		markdown:  markdown,
		transport: tr,
		settings:  settings,
		logger: log.With().
			Str("component", "session").
			Str("request_id", requestID).
			Logger(),
		selected: make(map[string]bool),
	}
}

// OnEvent registers an observer for classified events. Must be called before
// Run.
func (s *Session) OnEvent(fn func(Event)) {
	s.onEvent = fn
}

// Run executes the session to completion: post, poll, commit. It returns the
// structured result after a Send or Continue press. A failure while posting
// is returned immediately; the human never saw the prompt, so nothing is
// lost and a retry could double-post. Poll failures are retried indefinitely.
// When ctx is cancelled the session ends cleanly with no result.
func (s *Session) Run(ctx context.Context) (Result, error) {
	s.baselineCursor(ctx)

	anchor, err := s.transport.SendOptionsMessage(ctx, s.prompt, s.options, s.markdown)
	if err != nil {
		return Result{}, fmt.Errorf("failed to post interactive message: %w", err)
	}
	s.anchorID = anchor

	if err := s.sleep(ctx, s.settings.PostGap); err != nil {
		return Result{}, err
	}

	if _, err := s.transport.SendOperationMessage(ctx, s.settings.ContinueEnabled); err != nil {
		return Result{}, fmt.Errorf("failed to post operation message: %w", err)
	}

	s.logger.Info().
		Int("options", len(s.options)).
		Int("anchor_id", s.anchorID).
		Msg("Interactive message posted, polling for response")

	return s.poll(ctx)
}

// baselineCursor advances the cursor past any updates already queued so
// stale chat history is never interpreted as input for this session.
func (s *Session) baselineCursor(ctx context.Context) {
	updates, err := s.transport.Poll(ctx, 0, 0)
	if err != nil || len(updates) == 0 {
		return
	}
	last := updates[len(updates)-1]
	s.cursor = last.ID + 1
}

func (s *Session) poll(ctx context.Context) (Result, error) {
	for {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}

		updates, err := s.transport.Poll(ctx, s.cursor, s.settings.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			s.logger.Warn().Err(err).Msg("Poll failed, retrying")
			if err := s.sleep(ctx, s.settings.RetryDelay); err != nil {
				return Result{}, err
			}
			continue
		}

		for _, u := range updates {
			// Replays of already-consumed updates are dropped outright, so
			// a transport that redelivers after a transient error cannot
			// double-apply a toggle or commit.
			if u.ID < s.cursor && s.cursor > 0 {
				continue
			}
			// The cursor moves past every update seen, ignored or not,
			// and never rewinds.
			s.cursor = u.ID + 1

			s.rediscoverAnchor(u)

			ev := Classify(u, ClassifyInput{
				ChatID:  s.transport.ChatID(),
				Options: s.options,
			})

			switch ev.Kind {
			case EventOptionToggled:
				s.applyToggle(ctx, ev)

			case EventTextUpdated:
				s.text = ev.Text
				s.emit(ev)

			case EventSendPressed:
				s.emit(ev)
				return s.commitSend(ctx), nil

			case EventContinuePressed:
				s.emit(ev)
				return s.commitContinue(ctx), nil
			}
		}

		if err := s.sleep(ctx, s.settings.CycleDelay); err != nil {
			return Result{}, err
		}
	}
}

// rediscoverAnchor re-learns the options-message id for edit targeting, from
// a markup-bearing message echo or from the message a button press landed on.
func (s *Session) rediscoverAnchor(u Update) {
	if len(s.options) == 0 || u.ChatID != s.transport.ChatID() {
		return
	}
	if u.Message != nil && u.Message.HasToggleMarkup {
		s.anchorID = u.Message.MessageID
	}
	if u.Press != nil && s.anchorID == 0 {
		s.anchorID = u.Press.MessageID
	}
}

func (s *Session) applyToggle(ctx context.Context, ev Event) {
	s.selected[ev.Option] = !s.selected[ev.Option]
	ev.Selected = s.selected[ev.Option]

	if s.anchorID != 0 {
		if err := s.transport.UpdateOptionsMarkup(ctx, s.anchorID, s.options, s.selectedList()); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to refresh toggle markup")
		}
	}

	s.logger.Debug().
		Str("option", ev.Option).
		Bool("selected", ev.Selected).
		Msg("Option toggled")
	s.emit(ev)
}

func (s *Session) commitSend(ctx context.Context) Result {
	selected := s.selectedList()
	result := NewSendResult(s.text, selected, s.requestID)

	s.sendFeedback(ctx, FeedbackLine(selected, s.text, false))
	s.logger.Info().
		Strs("selected", selected).
		Bool("has_text", s.text != "").
		Msg("Session completed")
	return result
}

func (s *Session) commitContinue(ctx context.Context) Result {
	result := NewContinueResult(s.settings.ContinuePrompt, s.requestID)

	s.sendFeedback(ctx, FeedbackLine(nil, "", true))
	s.logger.Info().Msg("Session completed via continue")
	return result
}

// sendFeedback echoes the commit summary back to the channel. The result is
// already final; a delivery failure only costs the confirmation line.
func (s *Session) sendFeedback(ctx context.Context, line string) {
	if _, err := s.transport.SendMessage(ctx, line, false); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to send feedback message")
	}
}

// selectedList renders the selection set in the option list's order.
func (s *Session) selectedList() []string {
	out := make([]string, 0, len(s.selected))
	for _, opt := range s.options {
		if s.selected[opt] {
			out = append(out, opt)
		}
	}
	return out
}

func (s *Session) emit(ev Event) {
	if s.onEvent != nil {
		s.onEvent(ev)
	}
}

func (s *Session) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
