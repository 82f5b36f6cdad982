package model

import (
	"fmt"
	"strings"

	"github.com/limaJavier/squadplanner/pkg/schedule"
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

const (
	RuleShape         = "shape"
	RuleCoverage      = "coverage"
	RuleOccupancy     = "occupancy"
	RuleFairness      = "fairness"
	RuleRepositioning = "repositioning"
	RuleRotation      = "rotation"
	RuleNoGood        = "nogood"
)

// ViolationError names the first rule a tensor breaks. Player, Position and Window are -1
// when they do not apply.
type ViolationError struct {
	Rule     string
	Player   int
	Position int
	Window   int
	Detail   string
}

func (err *ViolationError) Error() string {
	location := []string{}
	if err.Player >= 0 {
		location = append(location, fmt.Sprintf("player %v", err.Player))
	}
	if err.Position >= 0 {
		location = append(location, fmt.Sprintf("position %v", err.Position))
	}
	if err.Window >= 0 {
		location = append(location, fmt.Sprintf("window %v", err.Window))
	}

	message := "violated " + err.Rule
	if len(location) > 0 {
		message += " (" + strings.Join(location, ", ") + ")"
	}
	if err.Detail != "" {
		message += ": " + err.Detail
	}
	return message
}

func violation(rule string, player, position, window int, format string, args ...any) *ViolationError {
	return &ViolationError{
		Rule:     rule,
		Player:   player,
		Position: position,
		Window:   window,
		Detail:   fmt.Sprintf(format, args...),
	}
}

// Verify checks a tensor against every rule of the formulation, including the no-good cuts
// added so far, independently of the solver that produced it
func (model *Model) Verify(tensor schedule.Tensor) error {
	players, positions, windows := model.table.PlayerCount(), model.table.PositionCount(), model.params.Windows
	if tensor.Players() != players || tensor.Positions() != positions || tensor.Windows() != windows {
		return violation(RuleShape, -1, -1, -1, "tensor is %vx%vx%v, expected %vx%vx%v",
			tensor.Players(), tensor.Positions(), tensor.Windows(), players, positions, windows)
	}

	//** Coverage and single occupancy: every line-up is a perfect matching of positions
	for window := 0; window < windows; window++ {
		if err := verifyLineup(tensor, window); err != nil {
			return err
		}
	}

	//** Fairness band
	for player := 0; player < players; player++ {
		if onField := tensor.OnField(player); onField < model.fairMin || onField > model.fairMax {
			return violation(RuleFairness, player, -1, -1, "%v windows on field, band is [%v, %v]", onField, model.fairMin, model.fairMax)
		}
	}

	//** No in-play repositioning
	for player := 0; player < players; player++ {
		for window := 0; window < windows-1; window++ {
			current, next := tensor.PositionOf(player, window), tensor.PositionOf(player, window+1)
			if current >= 0 && next >= 0 && current != next {
				return violation(RuleRepositioning, player, current, window, "moves to position %v at window %v", next, window+1)
			}
		}
	}

	//** Minimum consecutive duration
	span := model.params.MinWindowsBetweenSub
	if span > 0 {
		for player := 0; player < players; player++ {
			for window := 0; window+span < windows; window++ {
				onField := lo.CountBy(lo.Range(span+1), func(offset int) bool {
					return tensor.PositionOf(player, window+offset) >= 0
				})
				if onField < span {
					return violation(RuleRotation, player, -1, window, "%v windows on field within %v, at least %v required", onField, span+1, span)
				}
			}
		}
	}

	//** No-good cuts
	values := make([]bool, model.problem.Variables)
	for variable := range values {
		player, position, window := model.Attributes(uint64(variable))
		values[variable] = tensor.At(player, position, window)
	}
	for _, cut := range model.cuts {
		if !cut.Holds(values) {
			return violation(RuleNoGood, -1, -1, -1, "%v repeats a forbidden assignment", cut.Name)
		}
	}

	return nil
}

// verifyLineup matches positions to the players holding them at window. A position left free
// by a largest matching is either uncovered or shares its only candidates with other
// positions, which means one of them holds several positions. A perfect matching still
// leaves doubled positions when the window has more cells than positions.
func verifyLineup(tensor schedule.Tensor, window int) error {
	positions := lo.Map(lo.Range(tensor.Positions()), func(position int, _ int) any { return position })
	players := lo.Map(lo.Range(tensor.Players()), func(player int, _ int) any { return player })

	neighbors := func(positionAny any, playerAny any) (bool, error) {
		return tensor.At(playerAny.(int), positionAny.(int), window), nil
	}

	graph, err := bipartitegraph.NewBipartiteGraph(positions, players, neighbors)
	if err != nil {
		return err
	}

	matching := graph.LargestMatching()
	if len(matching) < len(positions) {
		free, _ := graph.FreeLeftRight(matching)
		position := free[0].(int)

		occupants := tensor.Occupant(position, window)
		if len(occupants) == 0 {
			return violation(RuleCoverage, -1, position, window, "0 occupants")
		}

		// Every candidate of a free position is matched elsewhere
		player := occupants[0]
		held := lo.CountBy(lo.Range(tensor.Positions()), func(position int) bool {
			return tensor.At(player, position, window)
		})
		return violation(RuleOccupancy, player, -1, window, "holds %v positions", held)
	}

	for position := 0; position < tensor.Positions(); position++ {
		if occupants := len(tensor.Occupant(position, window)); occupants > 1 {
			return violation(RuleCoverage, -1, position, window, "%v occupants", occupants)
		}
	}
	return nil
}
