package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/askuser/askuser/internal/interact"
	"github.com/askuser/askuser/internal/observability"
	"github.com/askuser/askuser/internal/registry"
)

// AskUserInput is the ask_user tool argument schema.
type AskUserInput struct {
	Message           string   `json:"message" jsonschema:"the question to present to the user"`
	PredefinedOptions []string `json:"predefined_options,omitempty" jsonschema:"options the user can toggle before answering"`
	IsMarkdown        *bool    `json:"is_markdown,omitempty" jsonschema:"render the message as Markdown, on unless disabled"`
	ChannelName       string   `json:"channel_name,omitempty" jsonschema:"route to this named channel instead of resolving one"`
	WorkingDirectory  string   `json:"working_directory,omitempty" jsonschema:"caller working directory, used as the session identity"`
}

// createAskUserHandler creates the handler for the ask_user tool.
func (s *Server) createAskUserHandler() mcp.ToolHandlerFor[AskUserInput, interact.Result] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in AskUserInput) (*mcp.CallToolResult, interact.Result, error) {
		if strings.TrimSpace(in.Message) == "" {
			return nil, interact.Result{}, fmt.Errorf("message is required")
		}

		sessionID := DeriveSessionID(in.WorkingDirectory)

		ep, routedVia, err := s.route(in.ChannelName, sessionID)
		if err != nil {
			return nil, interact.Result{}, err
		}

		transport, err := s.newTransport(ep)
		if err != nil {
			return nil, interact.Result{}, fmt.Errorf("failed to open channel %q: %w", ep.Name, err)
		}

		markdown := in.IsMarkdown == nil || *in.IsMarkdown
		requestID := uuid.NewString()
		s.logger.Info().
			Str("request_id", requestID).
			Str("session_id", sessionID).
			Str("channel", ep.Name).
			Str("routed_via", routedVia).
			Int("options", len(in.PredefinedOptions)).
			Msg("Asking user")

		session := interact.NewSession(requestID, in.Message, in.PredefinedOptions, markdown, transport, interact.Settings{
			ContinueEnabled: s.cfg.Reply.EnableContinue,
			ContinuePrompt:  s.cfg.Reply.ContinuePrompt,
		})

		s.metrics.SessionsTotal.Inc()
		s.metrics.SessionsActive.Inc()
		defer s.metrics.SessionsActive.Dec()

		result, err := session.Run(ctx)
		if err != nil {
			s.metrics.SessionsCompletedTotal.WithLabelValues("error").Inc()
			observability.RecordInteractionAudit(sessionID, ep.Name, "failure", map[string]interface{}{
				"request_id": requestID,
			})
			return nil, interact.Result{}, fmt.Errorf("interaction failed: %w", err)
		}

		outcome := "answered"
		if result.Metadata.Source == interact.SourceContinue {
			outcome = "continued"
		}
		s.metrics.SessionsCompletedTotal.WithLabelValues(outcome).Inc()
		observability.RecordInteractionAudit(sessionID, ep.Name, outcome, map[string]interface{}{
			"request_id": requestID,
			"selected":   len(result.SelectedOptions),
		})

		s.logger.Info().
			Str("request_id", requestID).
			Str("outcome", outcome).
			Msg("Interaction completed")

		return nil, result, nil
	}
}

// route resolves the target endpoint and reports how it was chosen. Routing
// for an unbound session records it as pending and persists the queue so
// the CLI can list it.
func (s *Server) route(channelName, sessionID string) (registry.Endpoint, string, error) {
	var via string
	switch {
	case channelName != "":
		via = "explicit"
	default:
		if _, bound := s.reg.ResolveSession(sessionID); bound {
			via = "binding"
		} else {
			via = "default"
		}
	}

	pendingBefore := len(s.reg.PendingSessions())

	ep, err := s.router.Route(channelName, sessionID)
	if err != nil {
		return registry.Endpoint{}, via, err
	}
	s.metrics.RequestsRoutedTotal.WithLabelValues(via).Inc()

	if len(s.reg.PendingSessions()) != pendingBefore {
		s.metrics.PendingSessionsTotal.Inc()
		s.persist()
	}

	return ep, via, nil
}
