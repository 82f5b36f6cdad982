package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/google/uuid"
	"github.com/limaJavier/squadplanner/internal/config"
	"github.com/limaJavier/squadplanner/internal/logging"
	"github.com/limaJavier/squadplanner/internal/metrics"
	"github.com/limaJavier/squadplanner/pkg/ilp"
	"github.com/limaJavier/squadplanner/pkg/model"
	"github.com/limaJavier/squadplanner/pkg/report"
	"github.com/limaJavier/squadplanner/pkg/schedule"
	"github.com/limaJavier/squadplanner/pkg/search"
	"github.com/limaJavier/squadplanner/pkg/skill"
	"github.com/sirupsen/logrus"
)

const (
	exitSolved     = 10
	exitInfeasible = 20
	// exitLimited reports a backend that stopped at its node or time limit without an answer
	exitLimited = 30
)

var solvers = map[string]func(cfg *config.Config) ilp.Solver{
	"cbc": func(cfg *config.Config) ilp.Solver {
		return ilp.NewCbcSolver(cfg.CbcPath, cfg.SolverTimeLimit())
	},
	"glpk": func(cfg *config.Config) ilp.Solver {
		return ilp.NewGlpkSolver(cfg.GlpsolPath, cfg.SolverTimeLimit())
	},
	"branch": func(cfg *config.Config) ilp.Solver {
		return ilp.NewBranchAndBoundSolver(ilp.WithNodeLimit(cfg.SolverNodeLimit))
	},
}

// flagKeys maps every flag onto the config key it overrides
var flagKeys = map[string]string{
	"file":        "skill_file",
	"windows":     "windows",
	"minutes":     "match_minutes",
	"min-windows": "min_windows_between_sub",
	"solutions":   "solutions",
	"solver":      "solver",
	"out":         "output_dir",
	"bucket":      "output_bucket",
	"metrics":     "metrics_file",
	"log-level":   "log_level",
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file; SQUAD_CONFIG is used when empty")
	flag.String("file", "", "Path to the skill table (.csv or .json)")
	flag.Int("windows", 0, "Number of equal time windows the match is split into")
	flag.Int("minutes", 0, "Match length in minutes")
	flag.Int("min-windows", 0, "Minimum consecutive on-field windows around a substitution")
	flag.Int("solutions", 0, "Maximum number of distinct schedules to produce")
	flag.String("solver", "", `ILP backend. Allowed values are: "cbc", "glpk", "branch"`)
	flag.String("out", "", "Directory the artifacts are written to")
	flag.String("bucket", "", "S3 bucket the artifacts are written to instead of the directory")
	flag.String("metrics", "", "Path of the Prometheus textfile written at exit")
	flag.String("log-level", "", "Log level (debug, info, warn, error)")
	flag.Parse()

	// Only flags given on the command line override the lower layers
	overrides := map[string]any{}
	flag.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			overrides[key] = f.Value.(flag.Getter).Get()
		}
	})

	cfg, err := config.Load(*configPath, overrides)
	if err != nil {
		logrus.Fatalf("cannot load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	log := logging.Component(logger, "cli", uuid.NewString())

	code, err := run(context.Background(), cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Planning failed")
	}
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Entry) (int, error) {
	recorder := metrics.NewRecorder()
	defer func() {
		if cfg.MetricsFile == "" {
			return
		}
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			log.WithError(err).Warn("Cannot write metrics textfile")
		}
	}()

	// Extract input
	table, err := skill.TableFromFile(cfg.SkillFile)
	if err != nil {
		return 1, err
	}
	log.WithFields(logrus.Fields{
		"players":   table.PlayerCount(),
		"positions": table.PositionCount(),
		"file":      cfg.SkillFile,
	}).Info("Skill table loaded")

	params := cfg.ModelParams()
	store, err := newStore(ctx, cfg)
	if err != nil {
		return 1, err
	}
	timeline := schedule.Timeline{Windows: params.Windows, MatchMinutes: params.MatchMinutes}
	publisher := report.NewPublisher(store, table, timeline, log.WithField("store", store.Location("")))

	// Build formulation
	squad, err := model.New(table, params)
	if err != nil {
		return 1, err
	}
	problem := squad.Problem()
	log.WithFields(logrus.Fields{
		"variables":   problem.Variables,
		"constraints": len(problem.Constraints),
		"solver":      cfg.Solver,
	}).Info("Formulation built")

	// Enumerate schedules
	planner := search.New(squad, solvers[cfg.Solver](cfg),
		search.WithLogger(log.WithField("component", "search")),
		search.WithRecorder(recorder),
		search.WithHandler(func(result search.Result) error {
			return publisher.Publish(ctx, result)
		}),
	)

	outcome, err := planner.Run(cfg.Solutions)
	if errors.Is(err, search.ErrNoFeasibleSchedule) {
		if err := publisher.PublishInfeasible(ctx, params); err != nil {
			return 1, err
		}
		return exitInfeasible, nil
	}

	var solverError *search.SolverError
	if errors.As(err, &solverError) && solverError.Err == nil && solverError.Status == ilp.NotSolved {
		log.WithFields(logrus.Fields{
			"iteration": solverError.Iteration,
			"solutions": len(outcome.Results),
		}).Warn("Solver stopped at its limits")
		return exitLimited, nil
	} else if err != nil {
		return 1, err
	}

	log.WithFields(logrus.Fields{
		"solutions": len(outcome.Results),
		"exhausted": outcome.Exhausted,
	}).Info("Planning finished")
	return exitSolved, nil
}

func newStore(ctx context.Context, cfg *config.Config) (report.Store, error) {
	if cfg.OutputBucket != "" {
		return report.NewS3Store(ctx, cfg.OutputBucket, cfg.OutputPrefix)
	}
	return report.NewDirStore(cfg.OutputDir)
}
