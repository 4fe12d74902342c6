package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/model"
	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

// Executor runs a validated stage graph level by level, recording every
// outcome into the run context. A failed stage never crashes the run:
// required dependents are skipped, independent branches keep going.
type Executor struct {
	pool chan struct{}
	log  *logger.Logger
}

// NewExecutor creates an executor with a bounded worker pool for stages
// that share a level.
func NewExecutor(parallel int, log *logger.Logger) *Executor {
	if parallel <= 0 {
		parallel = 4
	}
	return &Executor{pool: make(chan struct{}, parallel), log: log}
}

// Execute runs every stage of the graph in topological order. It always
// returns: each stage ends up recorded in rc as success, failed, or
// skipped, including when ctx is cancelled mid-run.
func (e *Executor) Execute(ctx context.Context, rc *model.RunContext, graph *Graph) {
	for _, level := range graph.Levels {
		var wg sync.WaitGroup

		for _, stageID := range level {
			node := graph.Nodes[stageID]
			stage := node.Stage

			if res := e.preflight(ctx, rc, stage); res != nil {
				rc.Record(res)
				continue
			}

			wg.Add(1)
			go func(stage Stage) {
				defer wg.Done()
				e.pool <- struct{}{}
				defer func() { <-e.pool }()
				rc.Record(e.runStage(ctx, rc, stage))
			}(stage)
		}

		wg.Wait()
	}
}

// preflight decides whether a stage can run at all. Returns a terminal
// result for stages that must be skipped, nil otherwise.
func (e *Executor) preflight(ctx context.Context, rc *model.RunContext, stage Stage) *model.StageResult {
	if ctx.Err() != nil {
		return &model.StageResult{
			Stage:     stage.Name(),
			Status:    model.StatusSkipped,
			Message:   "run cancelled before stage started",
			Timestamp: time.Now(),
		}
	}

	var blocked []string
	for _, dep := range stage.Requires() {
		res, ok := rc.Result(dep)
		if !ok || !res.Succeeded() {
			blocked = append(blocked, dep)
		}
	}
	if len(blocked) > 0 {
		return &model.StageResult{
			Stage:     stage.Name(),
			Status:    model.StatusSkipped,
			Category:  briefingerrors.CategoryUpstreamFailed,
			Message:   fmt.Sprintf("required input unavailable: %s", strings.Join(blocked, ", ")),
			Timestamp: time.Now(),
		}
	}
	return nil
}

func (e *Executor) runStage(ctx context.Context, rc *model.RunContext, stage Stage) *model.StageResult {
	log := e.log.WithStage(rc.ID, stage.Name())
	log.Debug("stage starting")

	stageCtx := ctx
	var cancel context.CancelFunc
	if timeout := stage.Timeout(); timeout > 0 {
		stageCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		payload any
		err     error
	}

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		payload, err := e.invoke(stageCtx, rc, stage)
		done <- outcome{payload: payload, err: err}
	}()

	var payload any
	var err error
	select {
	case out := <-done:
		payload, err = out.payload, out.err
	case <-stageCtx.Done():
		// The stage goroutine is abandoned; the run moves on rather than
		// hanging on a stage that ignores its context.
		category := briefingerrors.CategoryInternal
		if errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
			category = briefingerrors.CategoryTimeout
		}
		err = briefingerrors.NewStageError(stage.Name(), category, stageCtx.Err())
	}
	duration := time.Since(start)

	res := &model.StageResult{
		Stage:     stage.Name(),
		Duration:  duration,
		Timestamp: time.Now(),
	}

	if err != nil {
		res.Status = model.StatusFailed
		res.Error = err
		res.Message = err.Error()
		res.Category = briefingerrors.CategoryOf(err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
			res.Category = briefingerrors.CategoryTimeout
			res.Message = "timeout exceeded"
		}
		log.Error(err, "stage failed")
		return res
	}

	res.Status = model.StatusSuccess
	res.Message = "completed"
	res.Payload = payload
	log.WithFields(map[string]any{"duration": duration.String()}).Info("stage complete")
	return res
}

// invoke calls the stage behind a panic boundary so an internal fault is
// converted to a StageResult instead of crashing the orchestrator.
func (e *Executor) invoke(ctx context.Context, rc *model.RunContext, stage Stage) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			err = briefingerrors.NewStageError(stage.Name(), briefingerrors.CategoryInternal, fmt.Errorf("panic: %v", r))
		}
	}()
	return stage.Run(ctx, rc)
}
