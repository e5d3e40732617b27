package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"theseus/llm"
	"theseus/logger"
)

// Gateway is the only component that talks to the reasoning service. It
// renders the session into a prompt, issues one request, and parses the
// structured decision out of the reply.
//
// Decide never returns an error: rate-limit rejections, transport failures,
// and unparseable replies all come back as a synthetic stop decision with a
// diagnostic, so the loop has a single handling path.
type Gateway struct {
	provider     llm.Provider
	limiter      *rate.Limiter
	clock        clockwork.Clock
	capabilities string
	timeout      time.Duration
	log          zerolog.Logger
}

// GatewayConfig wires a Gateway.
type GatewayConfig struct {
	Provider llm.Provider

	// Capabilities is the rendered action list embedded in every prompt.
	Capabilities string

	// MinInterval spaces consecutive reasoning calls. A call arriving
	// before the interval elapses fails immediately rather than
	// blocking. Zero disables the limit.
	MinInterval time.Duration

	// RequestTimeout bounds one reasoning request.
	RequestTimeout time.Duration

	Clock clockwork.Clock
	Log   zerolog.Logger
}

// NewGateway creates a gateway over the given provider.
func NewGateway(cfg GatewayConfig) *Gateway {
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Gateway{
		provider:     cfg.Provider,
		limiter:      rate.NewLimiter(limit, 1),
		clock:        cfg.Clock,
		capabilities: cfg.Capabilities,
		timeout:      cfg.RequestTimeout,
		log:          cfg.Log,
	}
}

// Decide issues one reasoning call for the session's current state.
func (g *Gateway) Decide(ctx context.Context, s *Session) Decision {
	if !g.limiter.AllowN(g.clock.Now(), 1) {
		g.log.Warn().Str(logger.ProviderField, g.provider.Name()).Msg("reasoning call rejected by rate limit")
		return StopDecision("Reasoning request rejected: minimum request interval not elapsed.")
	}

	prompt, err := RenderDecisionPrompt(PromptFields{
		Objective:    s.Objective,
		Context:      s.CurrentContext,
		History:      s.ExecutionHistory,
		Capabilities: g.capabilities,
	})
	if err != nil {
		return StopDecision(fmt.Sprintf("Planning aborted: %v", err))
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.provider.Chat(reqCtx, []llm.ChatMessage{llm.UserMessage(prompt)})
	if err != nil {
		g.log.Warn().Err(err).Str(logger.ProviderField, g.provider.Name()).Msg("reasoning request failed")
		return StopDecision(fmt.Sprintf("Reasoning request failed: %v", err))
	}

	decision, err := ParseDecision(resp.Content)
	if err != nil {
		g.log.Warn().Err(err).Str(logger.ProviderField, g.provider.Name()).Msg("reasoning reply unparseable")
		return StopDecision(fmt.Sprintf("Reasoning reply unparseable: %v", err))
	}

	g.log.Debug().
		Int("actions", len(decision.Actions)).
		Bool("continue", decision.ContinuePlanning).
		Bool("complete", decision.ObjectiveComplete).
		Msg("decision parsed")
	return decision
}
