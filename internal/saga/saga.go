// Package saga runs multi-step workflows that span the database and external systems,
// undoing completed steps when a later one fails.
package saga

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// SagaStep represents a single step in a saga with execute and compensate actions.
// Compensate may be nil for steps with nothing to undo.
type SagaStep struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// StepError is returned by Execute when a step fails. Compensation failures are
// kept alongside so callers can tell a clean rollback from a partial one.
type StepError struct {
	Saga               string
	Step               string
	Err                error
	CompensationErrors []error
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("saga '%s' failed at step '%s': %v", e.Saga, e.Step, e.Err)
	if len(e.CompensationErrors) > 0 {
		msg += fmt.Sprintf(" (%d compensation(s) failed)", len(e.CompensationErrors))
	}
	return msg
}

func (e *StepError) Unwrap() error { return e.Err }

// Compensated reports whether every executed step was undone.
func (e *StepError) Compensated() bool { return len(e.CompensationErrors) == 0 }

// Saga orchestrates a sequence of steps with compensating transactions on failure.
type Saga struct {
	name   string
	steps  []SagaStep
	logger *zap.Logger
}

// NewSaga creates a new saga orchestrator.
func NewSaga(name string, logger *zap.Logger) *Saga {
	return &Saga{name: name, logger: logger}
}

// AddStep appends a step to the saga.
func (s *Saga) AddStep(step SagaStep) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs the steps in order. When one fails, the steps that already ran are
// compensated in reverse order and a *StepError is returned.
func (s *Saga) Execute(ctx context.Context) error {
	s.logger.Debug("saga started", zap.String("saga", s.name), zap.Int("steps", len(s.steps)))

	for i, step := range s.steps {
		err := step.Execute(ctx)
		if err == nil {
			continue
		}

		s.logger.Error("saga step failed, compensating",
			zap.String("saga", s.name),
			zap.String("step", step.Name),
			zap.Error(err),
		)
		return &StepError{
			Saga:               s.name,
			Step:               step.Name,
			Err:                err,
			CompensationErrors: s.compensate(ctx, s.steps[:i]),
		}
	}

	s.logger.Info("saga completed", zap.String("saga", s.name))
	return nil
}

func (s *Saga) compensate(ctx context.Context, done []SagaStep) []error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error("compensation failed",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
		}
	}
	return errs
}

// FailedStep returns the name of the step that failed, or "" when err did not come from a saga.
func FailedStep(err error) string {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step
	}
	return ""
}
