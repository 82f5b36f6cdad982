package ilp

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	simplexTolerance = 1e-10
	// relaxationCellLimit caps the dense standard-form matrix handed to the simplex
	relaxationCellLimit = 1 << 21
)

// relaxationShape returns the dimensions of the standard form built by relaxationBound
func relaxationShape(problem ILP) (rows, columns int) {
	variables := int(problem.Variables)

	inequalities := 0
	for _, constraint := range problem.Constraints {
		if constraint.Relation != Equal {
			inequalities++
		}
	}

	return len(problem.Constraints) + variables, variables + inequalities + variables
}

// relaxationFits reports whether the root relaxation of problem is within both the variable
// limit and the dense matrix budget
func relaxationFits(problem ILP, variableLimit uint64) bool {
	if problem.Variables > variableLimit {
		return false
	}
	rows, columns := relaxationShape(problem)
	return rows*columns <= relaxationCellLimit
}

// relaxationBound solves the linear relaxation (0 <= x <= 1) of a maximization problem given by
// its objective weights and returns its optimum, which bounds every integral solution from above.
// The relaxation is written in standard form with one slack per inequality and per upper bound:
//
//	[A_eq   0   0] [x]   [b_eq]
//	[A_in  ±I   0] [s] = [b_in]
//	[ I     0   I] [u]   [ 1  ]
func relaxationBound(problem ILP, weights []float64) (bound float64, ok bool) {
	defer func() {
		// lp.Simplex panics on dimension mismatches instead of returning an error
		if recover() != nil {
			bound, ok = 0, false
		}
	}()

	variables := int(problem.Variables)
	rows, columns := relaxationShape(problem)
	inequalities := columns - 2*variables
	if rows > columns {
		return 0, false
	}

	a := mat.NewDense(rows, columns, nil)
	b := make([]float64, rows)
	c := make([]float64, columns)
	for variable, weight := range weights {
		c[variable] = -weight // Simplex minimizes
	}

	slack := variables
	for row, constraint := range problem.Constraints {
		if len(constraint.Terms) == 0 {
			return 0, false // A zero row makes the standard form singular
		}
		for _, term := range constraint.Terms {
			a.Set(row, int(term.Variable), a.At(row, int(term.Variable))+term.Coefficient)
		}
		switch constraint.Relation {
		case LessEqual:
			a.Set(row, slack, 1)
			slack++
		case GreaterEqual:
			a.Set(row, slack, -1)
			slack++
		}
		b[row] = constraint.Rhs
	}

	for variable := 0; variable < variables; variable++ {
		row := len(problem.Constraints) + variable
		a.Set(row, variable, 1)
		a.Set(row, variables+inequalities+variable, 1)
		b[row] = 1
	}

	optimum, _, err := lp.Simplex(c, a, b, simplexTolerance, nil)
	if err != nil {
		// Singular or degenerate relaxations are not an error for the caller: the bound is simply unknown
		return 0, false
	}
	return -optimum, true
}
