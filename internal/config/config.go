// Package config defines the planner configuration and its layered loading.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/limaJavier/squadplanner/pkg/model"
)

var ErrInvalidConfig = errors.New("invalid config")

// Solvers lists the accepted values of the solver key
var Solvers = []string{"cbc", "glpk", "branch"}

type Config struct {
	// SkillFile is the CSV or JSON skill table.
	SkillFile string `koanf:"skill_file"`

	Windows              int `koanf:"windows"`
	MatchMinutes         int `koanf:"match_minutes"`
	MinWindowsBetweenSub int `koanf:"min_windows_between_sub"`
	Solutions            int `koanf:"solutions"`

	Solver                 string `koanf:"solver"`
	SolverTimeLimitSeconds int    `koanf:"solver_time_limit_seconds"`
	SolverNodeLimit        int    `koanf:"solver_node_limit"`
	CbcPath                string `koanf:"cbc_path"`
	GlpsolPath             string `koanf:"glpsol_path"`

	// OutputBucket switches artifact storage from OutputDir to S3.
	OutputDir    string `koanf:"output_dir"`
	OutputBucket string `koanf:"output_bucket"`
	OutputPrefix string `koanf:"output_prefix"`

	// MetricsFile enables the Prometheus textfile export when set.
	MetricsFile string `koanf:"metrics_file"`
	LogLevel    string `koanf:"log_level"`
}

// New returns the defaults
func New() *Config {
	return &Config{
		SkillFile:            "data/skillmatrix.csv",
		Windows:              10,
		MatchMinutes:         90,
		MinWindowsBetweenSub: 2,
		Solutions:            10,
		Solver:               "cbc",
		CbcPath:              "cbc",
		GlpsolPath:           "glpsol",
		OutputDir:            "results",
		LogLevel:             "info",
	}
}

func (config *Config) Validate() error {
	switch {
	case config.SkillFile == "":
		return fmt.Errorf("%w: skill_file must not be empty", ErrInvalidConfig)
	case config.Windows < 2:
		return fmt.Errorf("%w: windows must be at least 2, got %v", ErrInvalidConfig, config.Windows)
	case config.MatchMinutes <= 0:
		return fmt.Errorf("%w: match_minutes must be positive, got %v", ErrInvalidConfig, config.MatchMinutes)
	case config.MinWindowsBetweenSub < 0:
		return fmt.Errorf("%w: min_windows_between_sub must not be negative, got %v", ErrInvalidConfig, config.MinWindowsBetweenSub)
	case config.Solutions < 1:
		return fmt.Errorf("%w: solutions must be at least 1, got %v", ErrInvalidConfig, config.Solutions)
	case !slices.Contains(Solvers, config.Solver):
		return fmt.Errorf("%w: unknown solver %q, expected one of %v", ErrInvalidConfig, config.Solver, Solvers)
	case config.SolverTimeLimitSeconds < 0 || config.SolverNodeLimit < 0:
		return fmt.Errorf("%w: solver limits must not be negative", ErrInvalidConfig)
	case config.OutputBucket == "" && config.OutputDir == "":
		return fmt.Errorf("%w: output_dir must not be empty without output_bucket", ErrInvalidConfig)
	}
	return nil
}

func (config *Config) ModelParams() model.Params {
	return model.Params{
		Windows:              config.Windows,
		MatchMinutes:         config.MatchMinutes,
		MinWindowsBetweenSub: config.MinWindowsBetweenSub,
	}
}

func (config *Config) SolverTimeLimit() time.Duration {
	return time.Duration(config.SolverTimeLimitSeconds) * time.Second
}
