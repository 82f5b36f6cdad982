package ilp

import (
	"math"
)

const (
	defaultRelaxationLimit = 1024
	objectiveTolerance     = 1e-9
)

type BranchAndBoundOption func(*branchAndBoundSolver)

// WithNodeLimit caps the number of explored nodes; when the cap is reached before optimality
// is proven the solver reports NotSolved. Zero means no cap.
func WithNodeLimit(nodes int) BranchAndBoundOption {
	return func(solver *branchAndBoundSolver) {
		solver.nodeLimit = nodes
	}
}

// WithRelaxationLimit sets the largest problem (in variables) for which the root LP relaxation
// is solved to obtain an upper bound. Zero disables the relaxation.
func WithRelaxationLimit(variables uint64) BranchAndBoundOption {
	return func(solver *branchAndBoundSolver) {
		solver.relaxationLimit = variables
	}
}

type branchAndBoundSolver struct {
	nodeLimit       int
	relaxationLimit uint64
}

// NewBranchAndBoundSolver returns an in-process depth-first solver meant for small instances
func NewBranchAndBoundSolver(options ...BranchAndBoundOption) Solver {
	solver := &branchAndBoundSolver{
		relaxationLimit: defaultRelaxationLimit,
	}
	for _, option := range options {
		option(solver)
	}
	return solver
}

type occurrence struct {
	row         int
	coefficient float64
}

type rowState struct {
	relation Relation
	rhs      float64
	fixed    float64 // Activity of the variables fixed to one
	minFree  float64 // Sum of the negative coefficients of free variables
	maxFree  float64 // Sum of the positive coefficients of free variables
}

func (row *rowState) feasible() bool {
	low, high := row.fixed+row.minFree, row.fixed+row.maxFree
	switch row.relation {
	case LessEqual:
		return low <= row.rhs+feasibilityTolerance
	case GreaterEqual:
		return high >= row.rhs-feasibilityTolerance
	default:
		return low <= row.rhs+feasibilityTolerance && high >= row.rhs-feasibilityTolerance
	}
}

type branchState struct {
	weights     []float64 // Objective in maximization form
	occurrences [][]occurrence
	rows        []rowState
	values      []bool

	freeGain float64 // Sum of the positive weights of free variables
	bound    float64 // Root bound, +Inf when unknown

	incumbent      []bool
	incumbentValue float64

	nodes     int
	nodeLimit int
	aborted   bool
	proven    bool
}

func (solver *branchAndBoundSolver) Solve(problem ILP) (Solution, error) {
	state := newBranchState(problem, solver.nodeLimit)

	//** Check rows before branching (e.g. rows without variables)
	for i := range state.rows {
		if !state.rows[i].feasible() {
			return statusSolution(Infeasible), nil
		}
	}

	//** Root bound
	if relaxationFits(problem, solver.relaxationLimit) {
		if bound, ok := relaxationBound(problem, state.weights); ok {
			state.bound = math.Min(state.bound, bound)
		}
	}

	state.branch(0, 0)

	if state.incumbent == nil {
		if state.aborted {
			return statusSolution(NotSolved), nil
		}
		return statusSolution(Infeasible), nil
	} else if state.aborted && !state.proven {
		return statusSolution(NotSolved), nil
	}

	solution := optimalSolution(problem, state.incumbent)
	if !math.IsInf(state.bound, 1) {
		solution.Bound = state.bound
		if problem.Sense == Minimize {
			solution.Bound = -state.bound
		}
	}
	return solution, nil
}

func newBranchState(problem ILP, nodeLimit int) *branchState {
	variables := int(problem.Variables)
	state := &branchState{
		weights:     make([]float64, variables),
		occurrences: make([][]occurrence, variables),
		rows:        make([]rowState, len(problem.Constraints)),
		values:      make([]bool, variables),
		bound:       math.Inf(1),
		nodeLimit:   nodeLimit,
	}

	sign := 1.0
	if problem.Sense == Minimize {
		sign = -1
	}
	for _, term := range problem.Objective {
		state.weights[term.Variable] += sign * term.Coefficient
	}
	for _, weight := range state.weights {
		state.freeGain += math.Max(0, weight)
	}

	for i, constraint := range problem.Constraints {
		// Merge repeated variables so that every variable occurs at most once per row
		coefficients := make(map[uint64]float64)
		order := make([]uint64, 0, len(constraint.Terms))
		for _, term := range constraint.Terms {
			if _, ok := coefficients[term.Variable]; !ok {
				order = append(order, term.Variable)
			}
			coefficients[term.Variable] += term.Coefficient
		}

		row := rowState{relation: constraint.Relation, rhs: constraint.Rhs}
		for _, variable := range order {
			coefficient := coefficients[variable]
			if coefficient == 0 {
				continue
			}
			if coefficient > 0 {
				row.maxFree += coefficient
			} else {
				row.minFree += coefficient
			}
			state.occurrences[variable] = append(state.occurrences[variable], occurrence{row: i, coefficient: coefficient})
		}
		state.rows[i] = row
	}

	return state
}

func (state *branchState) branch(variable int, value float64) {
	if state.nodeLimit > 0 && state.nodes >= state.nodeLimit {
		state.aborted = true
		return
	}
	state.nodes++

	if state.incumbent != nil {
		// No strictly better solution below this node
		if value+state.freeGain <= state.incumbentValue+objectiveTolerance {
			return
		}
	}

	if variable == len(state.values) {
		// Every row was checked when its last variable was fixed, so the point is feasible
		state.incumbent = append([]bool(nil), state.values...)
		state.incumbentValue = value
		if value >= state.bound-objectiveTolerance {
			state.proven = true
		}
		return
	}

	weight := state.weights[variable]
	order := [2]bool{false, true}
	if weight > 0 {
		order = [2]bool{true, false}
	}

	for _, assigned := range order {
		feasible := state.fix(variable, assigned)
		if feasible {
			next := value
			if assigned {
				next += weight
			}
			state.branch(variable+1, next)
		}
		state.unfix(variable, assigned)

		if state.aborted || state.proven {
			return
		}
	}
}

func (state *branchState) fix(variable int, assigned bool) bool {
	state.values[variable] = assigned
	state.freeGain -= math.Max(0, state.weights[variable])

	feasible := true
	for _, occurrence := range state.occurrences[variable] {
		row := &state.rows[occurrence.row]
		if occurrence.coefficient > 0 {
			row.maxFree -= occurrence.coefficient
		} else {
			row.minFree -= occurrence.coefficient
		}
		if assigned {
			row.fixed += occurrence.coefficient
		}
		// Keep updating the remaining rows so that unfix can revert symmetrically
		feasible = feasible && row.feasible()
	}
	return feasible
}

func (state *branchState) unfix(variable int, assigned bool) {
	state.values[variable] = false
	state.freeGain += math.Max(0, state.weights[variable])

	for _, occurrence := range state.occurrences[variable] {
		row := &state.rows[occurrence.row]
		if occurrence.coefficient > 0 {
			row.maxFree += occurrence.coefficient
		} else {
			row.minFree += occurrence.coefficient
		}
		if assigned {
			row.fixed -= occurrence.coefficient
		}
	}
}
