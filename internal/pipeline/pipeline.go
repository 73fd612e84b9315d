package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"paperdeck/internal/domain"
)

// Responder is the capability a stage needs: turn a message into text.
type Responder interface {
	Respond(ctx context.Context, userMessage string) (string, error)
}

type Stage struct {
	Name    string
	Agent   Responder
	Caption string
}

// Transition records what one stage received and produced.
type Transition struct {
	Stage  string
	Input  string
	Output string
}

type Result struct {
	Transitions []Transition
}

// Output is the text produced by the last stage.
func (r *Result) Output() string {
	if r == nil || len(r.Transitions) == 0 {
		return ""
	}
	return r.Transitions[len(r.Transitions)-1].Output
}

// StageError reports the stage that aborted a run.
type StageError struct {
	Stage    string
	Attempts int
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed after %d attempt(s): %v", e.Stage, e.Attempts, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type options struct {
	retry  RetryPolicy
	logger zerolog.Logger
}

type Option func(*options)

func WithRetry(policy RetryPolicy) Option {
	return func(o *options) {
		o.retry = policy
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Run feeds seed through the stages in order. Stage k receives its caption
// followed by the output of stage k-1 (the seed for the first stage). Any
// stage failure aborts the run with no partial result.
func Run(ctx context.Context, stages []Stage, seed string, opts ...Option) (*Result, error) {
	if len(stages) == 0 {
		return nil, domain.InvalidConfig("pipeline has no stages", nil)
	}
	o := options{retry: NoRetry(), logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	result := &Result{Transitions: make([]Transition, 0, len(stages))}
	current := seed
	for _, stage := range stages {
		if stage.Agent == nil {
			return nil, domain.InvalidConfig(fmt.Sprintf("stage %s has no agent", stage.Name), nil)
		}
		input := stage.Caption + current

		log := o.logger.With().Str("stage", stage.Name).Logger()
		log.Debug().Int("input_chars", len(input)).Msg("stage started")

		var output string
		attempts, err := o.retry.do(ctx, log, func(ctx context.Context) error {
			var callErr error
			output, callErr = stage.Agent.Respond(ctx, input)
			return callErr
		})
		if err != nil {
			return nil, &StageError{Stage: stage.Name, Attempts: attempts, Err: err}
		}

		log.Debug().Int("output_chars", len(output)).Int("attempts", attempts).Msg("stage finished")
		result.Transitions = append(result.Transitions, Transition{Stage: stage.Name, Input: input, Output: output})
		current = output
	}
	return result, nil
}
