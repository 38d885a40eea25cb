// Package operations runs the price pipeline as a fixed sequence of stages.
//
// Core Components:
//
// Runner: executes registered stages in registration order. A run either
// covers every stage (StageAll) or a single stage selected by ID, in which
// case the others are reported as skipped. The first failing stage ends the
// run and later stages are skipped.
//
// Stage: one unit of work (fetch, transform, visualize, package). Stages hand
// values to each other through RunState, e.g. the path of the workbook the
// fetch stage downloaded.
//
// RunState and StepState: runtime state of the run and of each stage, logged
// as the run summary when the run ends.
//
// StageTracer: one OpenTelemetry span per run and per stage, plus the stage
// duration and outcome metrics.
//
// Example usage:
//
//	runner := operations.NewRunner(operations.NewStageTracer(tracer, metrics), logger)
//	runner.Register(operations.NewFetchStage(f, cfg.Fetch.IndexURL, paths, os.Stdout, logger))
//	runner.Register(operations.NewTransformStage(t, exp, paths, metrics, os.Stdout, logger))
//	state, err := runner.Run(ctx, runID, operations.StageAll)
package operations
