package registry

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrUnknownChannel is returned when a request names a channel that is not
// registered. An explicit target is never silently substituted.
var ErrUnknownChannel = errors.New("unknown channel")

// Router resolves which channel endpoint a request should use. Priority:
// explicit channel name, then session binding, then the default endpoint.
// An unbound session does not fail the request; it is recorded as pending and
// degrades to default-channel delivery.
type Router struct {
	reg    *Registry
	logger zerolog.Logger
}

// NewRouter creates a router over a shared registry.
func NewRouter(reg *Registry) *Router {
	return &Router{
		reg:    reg,
		logger: log.With().Str("component", "router").Logger(),
	}
}

// Route resolves the endpoint for a request. Either argument may be empty.
func (r *Router) Route(explicitName, sessionID string) (Endpoint, error) {
	if explicitName != "" {
		ep, err := r.reg.Get(explicitName)
		if err != nil {
			return Endpoint{}, fmt.Errorf("%w: %q", ErrUnknownChannel, explicitName)
		}
		r.logger.Debug().
			Str("channel", ep.Name).
			Str("via", "explicit").
			Msg("Request routed")
		return ep, nil
	}

	if sessionID != "" {
		if ep, ok := r.reg.ResolveSession(sessionID); ok {
			r.logger.Debug().
				Str("channel", ep.Name).
				Str("session_id", sessionID).
				Str("via", "session").
				Msg("Request routed")
			return ep, nil
		}

		// First contact from an unbound session: queue it for manual
		// binding and answer through the default channel meanwhile.
		r.reg.RecordPending(sessionID)
		r.logger.Info().
			Str("session_id", sessionID).
			Msg("Session has no channel binding, recorded as pending")
	}

	ep, err := r.reg.Default()
	if err != nil {
		return Endpoint{}, err
	}
	r.logger.Debug().
		Str("channel", ep.Name).
		Str("via", "default").
		Msg("Request routed")
	return ep, nil
}
