package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/limaJavier/squadplanner/internal/logging"
	"github.com/limaJavier/squadplanner/pkg/skill"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	executablePath = "../../bin/squadplanner"
	skillFile      = "../../data/skillmatrix.csv"
	resultsFile    = "benchmark_results.csv"
	solutions      = 3
	// branchNodeLimit keeps the in-process backend from exploring the full tree
	branchNodeLimit = 500000
)

type ResultType int

const (
	solved ResultType = iota
	infeasible
	limited
	failed
)

var resultTypes = map[ResultType]string{
	solved:     "solved",
	infeasible: "infeasible",
	limited:    "limited",
	failed:     "failed",
}

type Case struct {
	Solver               string
	Windows              int
	MinWindowsBetweenSub int
}

type BenchmarkResult struct {
	Case          Case
	Players       int
	Positions     int
	Duration      int64
	Memory        float32
	CpuPercentage int64
	Result        ResultType
}

var log = logging.Component(logging.New("info"), "benchmark", "")

func main() {
	table, err := skill.TableFromFile(skillFile)
	if err != nil {
		log.Fatalf("cannot parse skill file: %v", err)
	}

	cases := grid([]string{"cbc", "glpk", "branch"}, []int{4, 6, 10}, []int{0, 1, 2, 3})
	results := make([]BenchmarkResult, 0, len(cases))

	for _, benchmarkCase := range cases {
		log.WithFields(logrus.Fields{
			"solver":      benchmarkCase.Solver,
			"windows":     benchmarkCase.Windows,
			"min_windows": benchmarkCase.MinWindowsBetweenSub,
		}).Info("Benchmarking")

		duration, maxMemory, cpuPercentage, result := measure(benchmarkCase)
		results = append(results, BenchmarkResult{
			Case:          benchmarkCase,
			Players:       table.PlayerCount(),
			Positions:     table.PositionCount(),
			Duration:      duration,
			Memory:        maxMemory,
			CpuPercentage: cpuPercentage,
			Result:        result,
		})
	}

	file, err := os.Create(resultsFile)
	if err != nil {
		log.Fatalf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	if err := toCsv(file, results); err != nil {
		log.Fatalf("cannot write CSV file: %v", err)
	}
}

func grid(solvers []string, windows []int, minWindows []int) []Case {
	cases := make([]Case, 0, len(solvers)*len(windows)*len(minWindows))
	for _, solver := range solvers {
		for _, w := range windows {
			for _, k := range minWindows {
				if k >= w {
					continue
				}
				cases = append(cases, Case{Solver: solver, Windows: w, MinWindowsBetweenSub: k})
			}
		}
	}
	return cases
}

func arguments(benchmarkCase Case, outDir string) []string {
	return []string{
		"-v", executablePath,
		"-file", skillFile,
		"-solver", benchmarkCase.Solver,
		"-windows", strconv.Itoa(benchmarkCase.Windows),
		"-min-windows", strconv.Itoa(benchmarkCase.MinWindowsBetweenSub),
		"-solutions", strconv.Itoa(solutions),
		"-out", outDir,
		"-log-level", "warn",
	}
}

// environment returns the variables added to the inherited environment of a run
func environment(benchmarkCase Case) []string {
	if benchmarkCase.Solver != "branch" {
		return nil
	}
	return []string{"SQUAD_SOLVER_NODE_LIMIT=" + strconv.Itoa(branchNodeLimit)}
}

func resultOf(exitCode int) ResultType {
	switch exitCode {
	case 10:
		return solved
	case 20:
		return infeasible
	case 30:
		return limited
	}
	return failed
}

func measure(benchmarkCase Case) (duration int64, maxMemory float32, cpuPercentage int64, result ResultType) {
	outDir, err := os.MkdirTemp("", "squadplanner-benchmark-")
	if err != nil {
		log.Fatalf("cannot create output directory: %v", err)
	}
	defer os.RemoveAll(outDir)

	cmd := exec.Command("/usr/bin/time", arguments(benchmarkCase, outDir)...)
	cmd.Env = append(os.Environ(), environment(benchmarkCase)...)

	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	cmd.Run()
	result = resultOf(cmd.ProcessState.ExitCode())
	if result == failed {
		log.WithField("case", benchmarkCase).Errorf("squadplanner failed: %v", stdErr.String())
	}

	splits := strings.Split(stdErr.String(), "\n")
	getLine := func(substr string) string {
		line, ok := lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		if !ok {
			log.Fatalf("substring %q could not be found", substr)
		}
		return line
	}

	duration = parseDurationLine(getLine("wall clock"))
	maxMemory = parseMemoryLine(getLine("maximum resident set size"))
	cpuPercentage = parseCpuPercentageLine(getLine("percent of cpu"))

	return duration, maxMemory, cpuPercentage, result
}

func toCsv(output io.Writer, results []BenchmarkResult) error {
	writer := csv.NewWriter(output)

	header := []string{"Solver", "Players", "Positions", "Windows", "MinWindowsBetweenSub", "Duration(ms)", "Memory(MB)", "CPU(%)", "Result"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, result := range results {
		record := []string{
			result.Case.Solver,
			strconv.Itoa(result.Players),
			strconv.Itoa(result.Positions),
			strconv.Itoa(result.Case.Windows),
			strconv.Itoa(result.Case.MinWindowsBetweenSub),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.1f", result.Memory),
			fmt.Sprintf("%d", result.CpuPercentage),
			resultTypes[result.Result],
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func parseDurationLine(line string) int64 {
	durationStr := strings.Split(line, "(h:mm:ss or m:ss):")[1][1:]
	return parseDuration(durationStr)
}

func parseDuration(durationStr string) int64 {
	parts := strings.Split(durationStr, ":")
	secondsStr := parts[len(parts)-1]
	secondsParts := strings.Split(secondsStr, ".")

	var duration int64
	if len(parts) == 3 { // h:mm:ss
		hours := lo.Must(strconv.Atoi(parts[0]))
		minutes := lo.Must(strconv.Atoi(parts[1]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(hours*3600+minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else if len(parts) == 2 { // m:ss
		minutes := lo.Must(strconv.Atoi(parts[0]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else {
		log.Fatalf("unexpected duration format: %v", durationStr)
	}
	return duration
}

func parseMemoryLine(line string) float32 {
	memoryStr := strings.TrimSpace(strings.Split(line, ":")[1])
	return float32(lo.Must(strconv.ParseFloat(memoryStr, 32))) / 1024
}

func parseCpuPercentageLine(line string) int64 {
	percentageStr := strings.TrimSpace(strings.Split(line, ":")[1])
	percentageStr = strings.TrimSuffix(percentageStr, "%")
	return int64(lo.Must(strconv.Atoi(percentageStr)))
}
