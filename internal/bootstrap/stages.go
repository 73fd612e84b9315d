package bootstrap

import (
	"context"
	"fmt"
	"time"

	"paperdeck/internal/agent"
	"paperdeck/internal/ai"
	"paperdeck/internal/config"
	"paperdeck/internal/pipeline"
	"paperdeck/internal/prompt"
)

// NewBackend picks the generation backend named by llm.provider.
func NewBackend(ctx context.Context, cfg *config.Config) (ai.Backend, func() error, error) {
	switch cfg.LLM.Provider {
	case "", "openai":
		return ai.NewOpenAICompatibleClient(), func() error { return nil }, nil
	case "vertex":
		client, err := ai.NewVertexClient(ctx, cfg.Vertex.ProjectID, cfg.Vertex.Region)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// BuildStages reads the agent definitions, resolves every system prompt once
// and returns the ordered stage list.
func BuildStages(cfg *config.Config, backend ai.Backend) ([]pipeline.Stage, error) {
	specs, err := config.LoadAgentSettings(cfg.Paths.AgentSettingsPath, cfg.LLM, cfg.Paths)
	if err != nil {
		return nil, err
	}

	fragments := map[string]string{
		prompt.MarkdownTemplate: cfg.Paths.MarpTemplatePath,
		prompt.CSSTemplate:      cfg.Paths.CSSTemplatePath,
	}
	endpoint := ai.Endpoint{BaseURL: cfg.LLM.BaseURL, APIKey: cfg.LLM.APIKey}

	stages := make([]pipeline.Stage, 0, len(specs))
	for _, spec := range specs {
		var systemPrompt string
		if spec.SystemPromptPath != "" {
			systemPrompt, err = prompt.Load(spec.SystemPromptPath, fragments)
		} else {
			systemPrompt, err = prompt.Resolve(spec.BuiltinPrompt, fragments)
		}
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", spec.Name, err)
		}

		a, err := agent.New(backend, endpoint, agent.Config{
			Name:            spec.Name,
			ModelID:         spec.Model,
			Temperature:     spec.Temperature,
			MaxOutputTokens: spec.MaxTokens,
			TopP:            spec.TopP,
			SystemPrompt:    systemPrompt,
			Timeout:         cfg.GenerationTimeout(),
		})
		if err != nil {
			return nil, err
		}
		stages = append(stages, pipeline.Stage{Name: spec.Name, Agent: a, Caption: spec.Caption})
	}
	return stages, nil
}

func RetryPolicy(llm config.LLMConfig) pipeline.RetryPolicy {
	return pipeline.RetryPolicy{
		MaxAttempts:    llm.MaxAttempts,
		InitialBackoff: time.Duration(llm.InitialBackoffMS) * time.Millisecond,
		MaxBackoff:     time.Duration(llm.MaxBackoffMS) * time.Millisecond,
	}
}
