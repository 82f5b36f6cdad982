package ilp

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
)

const feasibilityTolerance = 1e-9

type Sense int

const (
	Maximize Sense = iota
	Minimize
)

type Relation int

const (
	LessEqual Relation = iota
	Equal
	GreaterEqual
)

func (relation Relation) String() string {
	switch relation {
	case LessEqual:
		return "<="
	case Equal:
		return "="
	case GreaterEqual:
		return ">="
	}
	return fmt.Sprintf("Relation(%d)", int(relation))
}

type Term struct {
	Variable    uint64
	Coefficient float64
}

type Constraint struct {
	Name     string
	Terms    []Term
	Relation Relation
	Rhs      float64
}

// ILP is a 0/1 integer program. Variables are numbered 0..Variables-1 and all of them are binary.
type ILP struct {
	Name        string
	Sense       Sense
	Variables   uint64
	Objective   []Term
	Constraints []Constraint
}

func (problem *ILP) AddConstraint(constraint Constraint) {
	problem.Constraints = append(problem.Constraints, constraint)
}

func (problem ILP) Evaluate(values []bool) float64 {
	return activity(problem.Objective, values)
}

// Satisfied reports whether values is a feasible point of the problem
func (problem ILP) Satisfied(values []bool) bool {
	if uint64(len(values)) != problem.Variables {
		return false
	}
	for _, constraint := range problem.Constraints {
		if !constraint.holds(activity(constraint.Terms, values)) {
			return false
		}
	}
	return true
}

// Holds reports whether values satisfy the constraint
func (constraint Constraint) Holds(values []bool) bool {
	return constraint.holds(activity(constraint.Terms, values))
}

func (constraint Constraint) holds(lhs float64) bool {
	switch constraint.Relation {
	case LessEqual:
		return lhs <= constraint.Rhs+feasibilityTolerance
	case GreaterEqual:
		return lhs >= constraint.Rhs-feasibilityTolerance
	default:
		return math.Abs(lhs-constraint.Rhs) <= feasibilityTolerance
	}
}

func activity(terms []Term, values []bool) float64 {
	sum := 0.0
	for _, term := range terms {
		if values[term.Variable] {
			sum += term.Coefficient
		}
	}
	return sum
}

func VariableName(variable uint64) string {
	return fmt.Sprintf("x%d", variable)
}

// ToLP renders the problem in CPLEX LP format
func (problem ILP) ToLP() string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "\\* %v *\\\n", problem.Name)
	if problem.Sense == Maximize {
		builder.WriteString("Maximize\n")
	} else {
		builder.WriteString("Minimize\n")
	}
	// Every variable is listed in id order so that backends number columns as x0, x1, ...
	coefficients := make([]float64, problem.Variables)
	for _, term := range problem.Objective {
		coefficients[term.Variable] += term.Coefficient
	}
	builder.WriteString(" obj:")
	writeTerms(&builder, lo.Map(coefficients, func(coefficient float64, variable int) Term {
		return Term{Variable: uint64(variable), Coefficient: coefficient}
	}))
	builder.WriteString("\n")

	builder.WriteString("Subject To\n")
	for i, constraint := range problem.Constraints {
		name := constraint.Name
		if name == "" {
			name = fmt.Sprintf("c%d", i)
		}
		fmt.Fprintf(&builder, " %v:", name)
		if len(constraint.Terms) == 0 {
			// The format has no empty left-hand side; a zero-weighted variable keeps the row valid
			builder.WriteString(" 0 x0")
		}
		writeTerms(&builder, constraint.Terms)
		fmt.Fprintf(&builder, " %v %v\n", constraint.Relation, formatNumber(constraint.Rhs))
	}

	builder.WriteString("Binary\n")
	for variable := uint64(0); variable < problem.Variables; variable++ {
		fmt.Fprintf(&builder, " %v\n", VariableName(variable))
	}
	builder.WriteString("End\n")

	return builder.String()
}

func writeTerms(builder *strings.Builder, terms []Term) {
	for _, term := range terms {
		sign := "+"
		coefficient := term.Coefficient
		if coefficient < 0 {
			sign, coefficient = "-", -coefficient
		}
		fmt.Fprintf(builder, " %v %v %v", sign, formatNumber(coefficient), VariableName(term.Variable))
	}
}

func formatNumber(value float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.12g", value), ".")
}
