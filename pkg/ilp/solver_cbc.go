package ilp

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

type cbcSolver struct {
	path      string
	timeLimit time.Duration
}

func NewCbcSolver(path string, timeLimit time.Duration) Solver {
	return &cbcSolver{
		path:      path,
		timeLimit: timeLimit,
	}
}

func (solver *cbcSolver) Solve(problem ILP) (Solution, error) {
	files, cleanup, err := createLPFiles(problem, "cbc")
	if err != nil {
		return Solution{}, err
	}
	defer cleanup() // Ensure the files are removed after execution

	args := []string{files.model}
	if solver.timeLimit > 0 {
		args = append(args, "sec", strconv.Itoa(int(solver.timeLimit.Seconds())))
	}
	args = append(args, "solve", "solu", files.solution)

	if _, err := run("cbc", solver.path, args...); err != nil {
		return Solution{}, err
	}

	output, err := os.ReadFile(files.solution) // Read the solution file
	if err != nil {
		return Solution{}, fmt.Errorf("failed to read solution file: %v", err)
	}
	return parseCbcSolution(problem, string(output))
}

// parseCbcSolution reads a solution file as written by "solu": a status line followed by
// "index name value reduced-cost" rows, where rows may be prefixed by "**" for infeasibilities
func parseCbcSolution(problem ILP, solverOutput string) (Solution, error) {
	lines := lo.Filter(strings.Split(solverOutput, "\n"), func(line string, _ int) bool {
		return strings.TrimSpace(line) != ""
	})
	if len(lines) == 0 {
		return Solution{}, fmt.Errorf("empty cbc solution file")
	}

	status := strings.ToLower(strings.TrimSpace(lines[0]))
	switch {
	case strings.HasPrefix(status, "optimal"):
	case strings.Contains(status, "infeasible"):
		return statusSolution(Infeasible), nil
	case strings.Contains(status, "unbounded"):
		return statusSolution(Unbounded), nil
	default:
		return statusSolution(NotSolved), nil
	}

	values := make([]bool, problem.Variables)
	for _, line := range lines[1:] {
		fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "**"))
		if len(fields) < 3 {
			return Solution{}, fmt.Errorf("invalid row in cbc solution: %q", line)
		}

		variable, err := strconv.ParseUint(strings.TrimPrefix(fields[1], "x"), 10, 64)
		if err != nil || !strings.HasPrefix(fields[1], "x") || variable >= problem.Variables {
			return Solution{}, fmt.Errorf("unknown variable in cbc solution: %q", fields[1])
		}
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Solution{}, fmt.Errorf("invalid value in cbc solution: %q", fields[2])
		}
		values[variable] = toBinary(value)
	}

	return optimalSolution(problem, values), nil
}
