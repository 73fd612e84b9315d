package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"paperdeck/internal/ai"
	"paperdeck/internal/domain"
)

// Config is the immutable sampling setup of one generation step.
type Config struct {
	Name            string
	ModelID         string
	Temperature     float64
	MaxOutputTokens int
	TopP            float64
	SystemPrompt    string
	Timeout         time.Duration
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return domain.InvalidConfig("agent name is empty", nil)
	}
	if strings.TrimSpace(c.ModelID) == "" {
		return domain.InvalidConfig(fmt.Sprintf("agent %s: model id is empty", c.Name), nil)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return domain.InvalidConfig(fmt.Sprintf("agent %s: temperature %v outside [0,1]", c.Name, c.Temperature), nil)
	}
	if c.TopP < 0 || c.TopP > 1 {
		return domain.InvalidConfig(fmt.Sprintf("agent %s: top_p %v outside [0,1]", c.Name, c.TopP), nil)
	}
	if c.MaxOutputTokens <= 0 {
		return domain.InvalidConfig(fmt.Sprintf("agent %s: max output tokens must be positive", c.Name), nil)
	}
	return nil
}

// Agent sends one stateless request per call: no history, no retries.
type Agent struct {
	backend  ai.Backend
	endpoint ai.Endpoint
	cfg      Config
}

func New(backend ai.Backend, endpoint ai.Endpoint, cfg Config) (*Agent, error) {
	if backend == nil {
		return nil, domain.InvalidConfig("agent backend is nil", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Agent{backend: backend, endpoint: endpoint, cfg: cfg}, nil
}

func (a *Agent) Name() string {
	return a.cfg.Name
}

func (a *Agent) Config() Config {
	return a.cfg
}

// Respond returns the model's text verbatim.
func (a *Agent) Respond(ctx context.Context, userMessage string) (string, error) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	messages := []ai.ChatMessage{
		{Role: ai.RoleSystem, Content: a.cfg.SystemPrompt},
		{Role: ai.RoleUser, Content: userMessage},
	}
	out, err := a.backend.Complete(ctx, ai.ChatConfig{
		Endpoint:    a.endpoint,
		Model:       a.cfg.ModelID,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxOutputTokens,
		TopP:        a.cfg.TopP,
	}, messages)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", domain.GenerationError(a.cfg.Name, "model call aborted", fmt.Errorf("%w: %v", ctxErr, err))
		}
		return "", domain.GenerationError(a.cfg.Name, "model call failed", err)
	}
	return out, nil
}
