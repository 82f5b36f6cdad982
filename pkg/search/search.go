package search

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/limaJavier/squadplanner/internal/metrics"
	"github.com/limaJavier/squadplanner/pkg/ilp"
	"github.com/limaJavier/squadplanner/pkg/model"
	"github.com/limaJavier/squadplanner/pkg/schedule"
	"github.com/sirupsen/logrus"
)

// Result is one accepted solution
type Result struct {
	Iteration int
	Objective float64
	Tensor    schedule.Tensor
	Schedule  schedule.Schedule
}

type Outcome struct {
	Results []Result
	// Exhausted is set when a later iteration proved that no further distinct assignment exists
	Exhausted bool
}

type Option func(*Search)

func WithLogger(logger *logrus.Entry) Option {
	return func(search *Search) {
		search.logger = logger
	}
}

func WithRecorder(recorder *metrics.Recorder) Option {
	return func(search *Search) {
		search.recorder = recorder
	}
}

// WithHandler registers a callback invoked with every accepted result before its no-good cut
// is added. A handler error aborts the search.
func WithHandler(handler func(Result) error) Option {
	return func(search *Search) {
		search.handler = handler
	}
}

// Search enumerates distinct assignments of a model: each accepted solution is forbidden
// with a no-good cut before the next solve. It owns the model exclusively.
type Search struct {
	model    *model.Model
	solver   ilp.Solver
	logger   *logrus.Entry
	recorder *metrics.Recorder
	handler  func(Result) error
}

func New(model *model.Model, solver ilp.Solver, options ...Option) *Search {
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	search := &Search{
		model:  model,
		solver: solver,
		logger: logrus.NewEntry(silent),
	}
	for _, option := range options {
		option(search)
	}
	return search
}

// Run solves up to n times. Infeasibility at the first iteration yields ErrNoFeasibleSchedule;
// later it ends the search with Exhausted set. Any other failure aborts the search and is
// returned together with the results accepted so far.
func (search *Search) Run(n int) (Outcome, error) {
	if n < 1 {
		return Outcome{}, fmt.Errorf("%w: %v", ErrInvalidSolutionCount, n)
	}

	outcome := Outcome{Results: []Result{}}
	for iteration := 0; iteration < n; iteration++ {
		//** Solve running formulation
		start := time.Now()
		solution, err := search.solver.Solve(*search.model.Problem())
		elapsed := time.Since(start)

		logger := search.logger.WithFields(logrus.Fields{
			"iteration": iteration,
			"duration":  elapsed,
			"cuts":      search.model.Cuts(),
		})

		if err != nil {
			search.recorder.ObserveSolve("error", elapsed)
			logger.WithError(err).Error("Solver failed")
			return outcome, &SolverError{Iteration: iteration, Status: ilp.NotSolved, Err: err}
		}
		search.recorder.ObserveSolve(solution.Status.String(), elapsed)
		logger = logger.WithField("status", solution.Status)

		switch solution.Status {
		case ilp.Optimal:
		case ilp.Infeasible:
			if iteration == 0 {
				logger.Warn("Formulation is infeasible")
				return outcome, ErrNoFeasibleSchedule
			}
			logger.Info("No further distinct assignment exists")
			outcome.Exhausted = true
			return outcome, nil
		default:
			logger.Error("Solver returned an unusable status")
			return outcome, &SolverError{Iteration: iteration, Status: solution.Status}
		}

		//** Accept solution
		result, err := search.accept(iteration, solution)
		if err != nil {
			return outcome, err
		}
		outcome.Results = append(outcome.Results, result)

		//** Forbid it
		cuts := search.model.Forbid(result.Tensor)
		search.recorder.ObserveSolution(result.Objective, cuts)

		fields := logrus.Fields{
			"objective":     result.Objective,
			"substitutions": len(result.Schedule.Substitutions),
			"cuts":          cuts,
		}
		if !math.IsNaN(solution.Bound) {
			gap := solution.Bound - solution.Objective
			fields["bound"], fields["gap"] = solution.Bound, gap
			search.recorder.ObserveGap(gap)
		}
		logger.WithFields(fields).Info("Solution accepted")
	}

	return outcome, nil
}

func (search *Search) accept(iteration int, solution ilp.Solution) (Result, error) {
	tensor, err := search.model.Tensor(solution)
	if err != nil {
		return Result{}, fmt.Errorf("cannot read solution %v: %w", iteration, err)
	}

	if err := search.model.Verify(tensor); err != nil {
		return Result{}, fmt.Errorf("solution %v failed verification: %w", iteration, err)
	}

	decoded, err := schedule.Decode(search.model.Table(), tensor)
	if err != nil {
		return Result{}, fmt.Errorf("cannot decode solution %v: %w", iteration, err)
	}

	result := Result{
		Iteration: iteration,
		Objective: solution.Objective,
		Tensor:    tensor,
		Schedule:  decoded,
	}

	if search.handler != nil {
		if err := search.handler(result); err != nil {
			return Result{}, fmt.Errorf("cannot handle solution %v: %w", iteration, err)
		}
	}

	return result, nil
}
