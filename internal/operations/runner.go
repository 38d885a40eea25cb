package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"natgascli/internal/infrastructure"
)

// StageAll selects every registered stage
const StageAll = "all"

// Runner executes registered stages one after another
type Runner struct {
	stages []Stage
	tracer *StageTracer
	logger *slog.Logger
}

// NewRunner creates a runner. A nil tracer disables telemetry.
func NewRunner(tracer *StageTracer, logger *slog.Logger) *Runner {
	if tracer == nil {
		tracer = NewStageTracer(nil, nil)
	}
	return &Runner{
		tracer: tracer,
		logger: infrastructure.WithComponent(logger, "runner"),
	}
}

// Register appends a stage; IDs must be unique
func (r *Runner) Register(stage Stage) error {
	if stage == nil || stage.ID() == "" {
		return NewValidationError("", "stage must have an id")
	}
	if stage.ID() == StageAll {
		return NewValidationError(stage.ID(), "stage id is reserved")
	}
	for _, s := range r.stages {
		if s.ID() == stage.ID() {
			return NewValidationError(stage.ID(), "stage already registered")
		}
	}
	r.stages = append(r.stages, stage)
	return nil
}

// StageIDs returns the registered stage IDs in execution order
func (r *Runner) StageIDs() []string {
	ids := make([]string, 0, len(r.stages))
	for _, s := range r.stages {
		ids = append(ids, s.ID())
	}
	return ids
}

// Run executes the selected stage, or all of them for StageAll or "".
// The first failing stage stops the run; later stages are marked skipped.
// The returned state is non-nil whenever the selection is valid.
func (r *Runner) Run(ctx context.Context, runID, selection string) (*RunState, error) {
	if selection == "" {
		selection = StageAll
	}
	if selection != StageAll && !r.has(selection) {
		return nil, NewValidationError(selection, fmt.Sprintf("unknown stage, expected one of %v or %q", r.StageIDs(), StageAll))
	}

	state := NewRunState(runID)
	for _, s := range r.stages {
		state.AddStage(NewStepState(s.ID(), s.Name()))
	}

	ctx, span := r.tracer.TraceRun(ctx, runID, selection)
	state.Start()
	r.logger.InfoContext(ctx, "Run started",
		slog.String("run_id", runID),
		slog.String("selection", selection))

	var runErr error
	for _, stage := range r.stages {
		step := state.GetStage(stage.ID())

		switch {
		case runErr != nil:
			step.Skip("previous stage failed")
			continue
		case selection != StageAll && stage.ID() != selection:
			step.Skip("not selected")
			continue
		}

		if err := ctx.Err(); err != nil {
			step.Skip("run cancelled")
			runErr = NewCancellationError(stage.ID(), err)
			continue
		}

		runErr = r.runStage(ctx, stage, state, step)
	}

	switch {
	case runErr == nil:
		state.Complete()
	case GetErrorType(runErr) == ErrorTypeCancellation:
		state.Cancel(runErr)
	default:
		state.Fail(runErr)
	}
	r.tracer.RecordRunCompletion(ctx, span, state.GetStatus(), runErr)

	r.logger.InfoContext(ctx, "Run finished",
		slog.Any("summary", state),
		slog.Duration("duration", state.Duration()))

	return state, runErr
}

func (r *Runner) runStage(ctx context.Context, stage Stage, state *RunState, step *StepState) error {
	stageCtx, span := r.tracer.TraceStage(ctx, state.ID, stage.ID())
	logger := r.logger.With(slog.String("stage", stage.ID()))

	logger.InfoContext(stageCtx, "Stage started", slog.String("name", stage.Name()))
	step.Start()

	err := stage.Execute(stageCtx, state)
	if err != nil {
		step.Fail(err)
		r.tracer.RecordStageCompletion(stageCtx, span, stage.ID(), StepStatusFailed, step.Duration(), err)
		logger.ErrorContext(stageCtx, "Stage failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", step.Duration()))

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return NewCancellationError(stage.ID(), err)
		}
		return NewExecutionError(stage.ID(), err)
	}

	step.Complete()
	r.tracer.RecordStageCompletion(stageCtx, span, stage.ID(), StepStatusCompleted, step.Duration(), nil)
	logger.InfoContext(stageCtx, "Stage completed",
		slog.Duration("duration", step.Duration()),
		slog.String("message", step.GetMessage()))

	return nil
}

func (r *Runner) has(id string) bool {
	for _, s := range r.stages {
		if s.ID() == id {
			return true
		}
	}
	return false
}
