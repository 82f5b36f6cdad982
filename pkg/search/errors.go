package search

import (
	"errors"
	"fmt"

	"github.com/limaJavier/squadplanner/pkg/ilp"
)

var (
	ErrNoFeasibleSchedule   = errors.New("no feasible schedule")
	ErrInvalidSolutionCount = errors.New("invalid solution count")
)

// SolverError reports an iteration whose solve neither succeeded nor proved infeasibility.
// Err is nil when the backend ran but returned an unusable status.
type SolverError struct {
	Iteration int
	Status    ilp.Status
	Err       error
}

func (err *SolverError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("solver failed at iteration %v: %v", err.Iteration, err.Err)
	}
	return fmt.Sprintf("solver returned status %v at iteration %v", err.Status, err.Iteration)
}

func (err *SolverError) Unwrap() error {
	return err.Err
}
