package ilp

import "fmt"

type Status int

const (
	NotSolved Status = iota
	Optimal
	Infeasible
	Unbounded
)

func (status Status) String() string {
	switch status {
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	case NotSolved:
		return "not solved"
	}
	return fmt.Sprintf("Status(%d)", int(status))
}

type Solution struct {
	Status    Status
	Objective float64
	Values    []bool  // Set only when Status is Optimal
	Bound     float64 // Best known bound on the objective, NaN if the backend does not report one
}

type Solver interface {
	Solve(problem ILP) (Solution, error) // A nil error with a non-optimal status is a valid outcome (e.g. the problem is infeasible); errors are reserved for backend failures
}
