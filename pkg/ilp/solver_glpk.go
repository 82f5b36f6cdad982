package ilp

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type glpkSolver struct {
	path      string
	timeLimit time.Duration
}

func NewGlpkSolver(path string, timeLimit time.Duration) Solver {
	return &glpkSolver{
		path:      path,
		timeLimit: timeLimit,
	}
}

func (solver *glpkSolver) Solve(problem ILP) (Solution, error) {
	files, cleanup, err := createLPFiles(problem, "glpsol")
	if err != nil {
		return Solution{}, err
	}
	defer cleanup() // Ensure the files are removed after execution

	args := []string{"--lp", files.model, "-w", files.solution}
	if solver.timeLimit > 0 {
		args = append(args, "--tmlim", strconv.Itoa(int(solver.timeLimit.Seconds())))
	}

	stdOut, err := run("glpsol", solver.path, args...)
	if err != nil {
		return Solution{}, err
	}
	// glpsol leaves the MIP status undefined when the relaxation is already infeasible
	if strings.Contains(stdOut, "HAS NO PRIMAL FEASIBLE SOLUTION") || strings.Contains(stdOut, "HAS NO INTEGER FEASIBLE SOLUTION") {
		return statusSolution(Infeasible), nil
	}

	output, err := os.ReadFile(files.solution) // Read the solution file
	if err != nil {
		return Solution{}, fmt.Errorf("failed to read solution file: %v", err)
	}
	return parseGlpkSolution(problem, string(output))
}

// parseGlpkSolution reads the plain-text solution format: "s mip rows cols status objective"
// followed by "j column value" rows, where column k holds variable k-1
func parseGlpkSolution(problem ILP, solverOutput string) (Solution, error) {
	var values []bool

	for _, line := range strings.Split(solverOutput, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "s":
			if len(fields) < 5 || fields[1] != "mip" {
				return Solution{}, fmt.Errorf("invalid status line in glpsol solution: %q", line)
			}
			switch fields[4] {
			case "o":
				values = make([]bool, problem.Variables)
			case "n":
				return statusSolution(Infeasible), nil
			default:
				return statusSolution(NotSolved), nil
			}
		case "j":
			if values == nil {
				return Solution{}, fmt.Errorf("column before status line in glpsol solution: %q", line)
			} else if len(fields) < 3 {
				return Solution{}, fmt.Errorf("invalid column line in glpsol solution: %q", line)
			}
			column, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil || column == 0 || column > problem.Variables {
				return Solution{}, fmt.Errorf("unknown column in glpsol solution: %q", fields[1])
			}
			value, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return Solution{}, fmt.Errorf("invalid value in glpsol solution: %q", fields[2])
			}
			values[column-1] = toBinary(value)
		}
	}

	if values == nil {
		return Solution{}, fmt.Errorf("glpsol solution has no status line")
	}
	return optimalSolution(problem, values), nil
}
