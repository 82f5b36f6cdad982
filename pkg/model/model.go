package model

import (
	"errors"
	"fmt"

	"github.com/limaJavier/squadplanner/pkg/ilp"
	"github.com/limaJavier/squadplanner/pkg/schedule"
	"github.com/limaJavier/squadplanner/pkg/skill"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidParams = errors.New("invalid model parameters")

type Params struct {
	Windows              int
	MatchMinutes         int
	MinWindowsBetweenSub int
}

func (params Params) Validate() error {
	if params.Windows < 2 {
		return fmt.Errorf("%w: at least 2 windows are required, got %v", ErrInvalidParams, params.Windows)
	} else if params.MatchMinutes <= 0 {
		return fmt.Errorf("%w: match minutes must be positive, got %v", ErrInvalidParams, params.MatchMinutes)
	} else if params.MinWindowsBetweenSub < 0 {
		return fmt.Errorf("%w: minimum windows between substitutions must not be negative, got %v", ErrInvalidParams, params.MinWindowsBetweenSub)
	}
	return nil
}

// Model owns the running formulation of a squad: the base program built by New plus every
// no-good cut added through Forbid. It is not safe for concurrent use.
type Model struct {
	table   *skill.Table
	params  Params
	indexer indexer
	problem ilp.ILP

	fairMin, fairMax int
	cuts             []ilp.Constraint
}

func New(table *skill.Table, params Params) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	//** Extract attributes's domains
	players, positions, windows := uint64(table.PlayerCount()), uint64(table.PositionCount()), uint64(params.Windows)
	fairMin, fairMax := fairnessBand(table.PlayerCount(), table.PositionCount(), params.Windows)

	//** Initialize dependencies
	indexer := newIndexer(players, positions, windows)

	//** Build objective
	variables := players * positions * windows
	objective := make([]ilp.Term, 0, variables)
	for variable := uint64(0); variable < variables; variable++ {
		player, position, _ := indexer.Attributes(variable)
		objective = append(objective, ilp.Term{Variable: variable, Coefficient: table.Score(int(player), int(position))})
	}

	// Constraints functions
	families := []func(state constraintState) []ilp.Constraint{
		coverageConstraints,
		occupancyConstraints,
		fairnessConstraints,
		repositioningConstraints,
		rotationConstraints,
	}

	state := constraintState{
		indexer:              indexer,
		players:              players,
		positions:            positions,
		windows:              windows,
		fairMin:              fairMin,
		fairMax:              fairMax,
		minWindowsBetweenSub: uint64(params.MinWindowsBetweenSub),
	}

	constraints, err := buildConstraints(families, state)
	if err != nil {
		return nil, err
	}

	return &Model{
		table:   table,
		params:  params,
		indexer: indexer,
		problem: ilp.ILP{
			Name:        "squad",
			Sense:       ilp.Maximize,
			Variables:   variables,
			Objective:   objective,
			Constraints: constraints,
		},
		fairMin: fairMin,
		fairMax: fairMax,
	}, nil
}

// buildConstraints runs every family on its own goroutine and concatenates the results in
// family order, so the formulation does not depend on scheduling
func buildConstraints(families []func(state constraintState) []ilp.Constraint, state constraintState) ([]ilp.Constraint, error) {
	generated := make([][]ilp.Constraint, len(families))

	var group errgroup.Group
	for i, family := range families {
		i, family := i, family
		group.Go(func() error {
			generated[i] = family(state)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	constraints := []ilp.Constraint{}
	for _, family := range generated {
		constraints = append(constraints, family...)
	}
	return constraints, nil
}

func fairnessBand(players, positions, windows int) (int, int) {
	slots := windows * positions
	return slots / players, (slots + players - 1) / players
}

// Problem returns the running formulation. Callers must not modify it.
func (model *Model) Problem() *ilp.ILP {
	return &model.problem
}

func (model *Model) Table() *skill.Table {
	return model.table
}

func (model *Model) Params() Params {
	return model.params
}

// FairnessBand returns the inclusive range of on-field windows every player must get
func (model *Model) FairnessBand() (int, int) {
	return model.fairMin, model.fairMax
}

// Cuts returns the number of no-good cuts added so far
func (model *Model) Cuts() int {
	return len(model.cuts)
}

func (model *Model) Variable(player, position, window int) uint64 {
	return model.indexer.Index(uint64(player), uint64(position), uint64(window))
}

func (model *Model) Attributes(variable uint64) (player, position, window int) {
	p, q, w := model.indexer.Attributes(variable)
	return int(p), int(q), int(w)
}

// Tensor reads the variable values of an optimal solution into a new tensor
func (model *Model) Tensor(solution ilp.Solution) (schedule.Tensor, error) {
	if uint64(len(solution.Values)) != model.problem.Variables {
		return schedule.Tensor{}, fmt.Errorf("solution has %v values, the formulation has %v variables", len(solution.Values), model.problem.Variables)
	}

	tensor := schedule.NewTensor(model.table.PlayerCount(), model.table.PositionCount(), model.params.Windows)
	for variable, value := range solution.Values {
		if value {
			player, position, window := model.Attributes(uint64(variable))
			tensor.Set(player, position, window, true)
		}
	}
	return tensor, nil
}

// Forbid adds the no-good cut that excludes exactly tensor from the formulation:
// sum(+x for cells set, -x for cells unset) <= T - 1 where T is the number of cells set.
// It returns the number of cuts in the formulation.
func (model *Model) Forbid(tensor schedule.Tensor) int {
	terms := make([]ilp.Term, 0, model.problem.Variables)
	for variable := uint64(0); variable < model.problem.Variables; variable++ {
		player, position, window := model.Attributes(variable)
		coefficient := -1.0
		if tensor.At(player, position, window) {
			coefficient = 1
		}
		terms = append(terms, ilp.Term{Variable: variable, Coefficient: coefficient})
	}

	cut := ilp.Constraint{
		Name:     fmt.Sprintf("nogood_%d", len(model.cuts)),
		Terms:    terms,
		Relation: ilp.LessEqual,
		Rhs:      float64(tensor.Count() - 1),
	}
	model.cuts = append(model.cuts, cut)
	model.problem.AddConstraint(cut)

	return len(model.cuts)
}
