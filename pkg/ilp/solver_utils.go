package ilp

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"os/exec"
)

// lpFiles holds the temporary model and solution files of an external solver run
type lpFiles struct {
	model    string
	solution string
}

func createLPFiles(problem ILP, prefix string) (lpFiles, func(), error) {
	// Create a temporary file to hold the LP content
	modelFile, err := os.CreateTemp("", prefix+"-*.lp")
	if err != nil {
		return lpFiles{}, nil, fmt.Errorf("failed to create temporary file: %v", err)
	}

	// Write the LP content to the temporary file
	if _, err := modelFile.WriteString(problem.ToLP()); err != nil {
		modelFile.Close()
		os.Remove(modelFile.Name())
		return lpFiles{}, nil, fmt.Errorf("failed to write LP to temporary file: %v", err)
	}
	if err := modelFile.Close(); err != nil {
		os.Remove(modelFile.Name())
		return lpFiles{}, nil, fmt.Errorf("failed to close temporary file: %v", err)
	}

	solutionFile, err := os.CreateTemp("", prefix+"-*.sol")
	if err != nil {
		os.Remove(modelFile.Name())
		return lpFiles{}, nil, fmt.Errorf("failed to create temporary file: %v", err)
	}
	solutionFile.Close()

	cleanup := func() {
		os.Remove(modelFile.Name())
		os.Remove(solutionFile.Name())
	}
	return lpFiles{model: modelFile.Name(), solution: solutionFile.Name()}, cleanup, nil
}

func run(name string, path string, args ...string) (string, error) {
	cmd := exec.Command(path, args...)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("an error occurred during %v execution: %v : %v", name, err.Error(), stderr.String())
	}
	return stdOut.String(), nil
}

// toBinary rounds solver values to 0/1, the solvers report integral values with floating point noise
func toBinary(value float64) bool {
	return math.Round(value) >= 1
}

func optimalSolution(problem ILP, values []bool) Solution {
	return Solution{
		Status:    Optimal,
		Objective: problem.Evaluate(values),
		Values:    values,
		Bound:     math.NaN(),
	}
}

func statusSolution(status Status) Solution {
	return Solution{Status: status, Bound: math.NaN()}
}
