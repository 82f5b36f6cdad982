package model

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/limaJavier/squadplanner/pkg/ilp"
	"github.com/limaJavier/squadplanner/pkg/schedule"
	"github.com/limaJavier/squadplanner/pkg/skill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(t *testing.T, players, positions int) *skill.Table {
	random := rand.New(rand.NewSource(int64(players*31 + positions)))

	playerNames := make([]string, players)
	scores := make([][]float64, players)
	for player := 0; player < players; player++ {
		playerNames[player] = fmt.Sprintf("Player%d", player)
		scores[player] = make([]float64, positions)
		for position := 0; position < positions; position++ {
			scores[player][position] = float64(random.Intn(10))
		}
	}
	positionNames := make([]string, positions)
	for position := 0; position < positions; position++ {
		positionNames[position] = fmt.Sprintf("Position%d", position)
	}

	table, err := skill.NewTable(playerNames, positionNames, scores)
	require.NoError(t, err)
	return table
}

// tensorOf builds a tensor from occupants[window][position]
func tensorOf(players int, occupants [][]int) schedule.Tensor {
	tensor := schedule.NewTensor(players, len(occupants[0]), len(occupants))
	for window, line := range occupants {
		for position, player := range line {
			tensor.Set(player, position, window, true)
		}
	}
	return tensor
}

func valuesOf(model *Model, tensor schedule.Tensor) []bool {
	values := make([]bool, model.Problem().Variables)
	for variable := range values {
		player, position, window := model.Attributes(uint64(variable))
		values[variable] = tensor.At(player, position, window)
	}
	return values
}

func TestIndexAndAttributes(t *testing.T) {
	scenarios := [][3]uint64{{1, 1, 2}, {3, 2, 3}, {11, 11, 10}, {16, 7, 4}}

	for _, scenario := range scenarios {
		//** Arrange
		players, positions, windows := scenario[0], scenario[1], scenario[2]
		indexer := newIndexer(players, positions, windows)
		seen := make(map[uint64]bool)

		for player := uint64(0); player < players; player++ {
			for position := uint64(0); position < positions; position++ {
				for window := uint64(0); window < windows; window++ {
					//** Act
					index := indexer.Index(player, position, window)
					p, q, w := indexer.Attributes(index)

					//** Assert
					assert.Less(t, index, players*positions*windows)
					assert.False(t, seen[index])
					assert.Equal(t, [3]uint64{player, position, window}, [3]uint64{p, q, w})
					seen[index] = true
				}
			}
		}
	}
}

func TestNewValidatesParams(t *testing.T) {
	table := newTable(t, 3, 2)

	for _, params := range []Params{
		{Windows: 1, MatchMinutes: 90},
		{Windows: 3, MatchMinutes: 0},
		{Windows: 3, MatchMinutes: 90, MinWindowsBetweenSub: -1},
	} {
		_, err := New(table, params)
		assert.ErrorIs(t, err, ErrInvalidParams)
	}
}

func TestNewBuildsFormulation(t *testing.T) {
	//** Arrange
	table := newTable(t, 3, 2)

	//** Act
	model, err := New(table, Params{Windows: 3, MatchMinutes: 90, MinWindowsBetweenSub: 1})
	require.NoError(t, err)
	problem := model.Problem()

	//** Assert
	assert.Equal(t, ilp.Maximize, problem.Sense)
	assert.Equal(t, uint64(18), problem.Variables)
	assert.Len(t, problem.Objective, 18)
	for _, term := range problem.Objective {
		player, position, _ := model.Attributes(term.Variable)
		assert.Equal(t, table.Score(player, position), term.Coefficient)
	}

	counts := make(map[string]int)
	for _, constraint := range problem.Constraints {
		var family string
		fmt.Sscanf(constraint.Name, "%4s", &family)
		counts[family]++
	}
	assert.Equal(t, map[string]int{"cove": 6, "occu": 9, "fair": 6, "stay": 12, "rota": 6}, counts)

	assert.Equal(t, "cover_q0_w0", problem.Constraints[0].Name)
	assert.Equal(t, "cover_q1_w0", problem.Constraints[1].Name)
	assert.Equal(t, "rotate_p2_w1", problem.Constraints[len(problem.Constraints)-1].Name)

	fairMin, fairMax := model.FairnessBand()
	assert.Equal(t, [2]int{2, 2}, [2]int{fairMin, fairMax})
	assert.Equal(t, 0, model.Cuts())
}

func TestNewIsDeterministic(t *testing.T) {
	table := newTable(t, 5, 3)
	params := Params{Windows: 4, MatchMinutes: 60, MinWindowsBetweenSub: 2}

	first, err := New(table, params)
	require.NoError(t, err)
	second, err := New(table, params)
	require.NoError(t, err)

	assert.Equal(t, first.Problem(), second.Problem())
	assert.Equal(t, first.Problem().ToLP(), second.Problem().ToLP())
}

func TestRotationRows(t *testing.T) {
	table := newTable(t, 3, 2)

	rotationRows := func(k int) int {
		model, err := New(table, Params{Windows: 3, MatchMinutes: 90, MinWindowsBetweenSub: k})
		require.NoError(t, err)

		count := 0
		for _, constraint := range model.Problem().Constraints {
			if strings.HasPrefix(constraint.Name, "rotate_") {
				assert.Equal(t, ilp.GreaterEqual, constraint.Relation)
				assert.Equal(t, float64(k), constraint.Rhs)
				assert.Len(t, constraint.Terms, 2*(k+1))
				count++
			}
		}
		return count
	}

	assert.Equal(t, 0, rotationRows(0))
	assert.Equal(t, 6, rotationRows(1))
	assert.Equal(t, 3, rotationRows(2))
	assert.Equal(t, 0, rotationRows(3))
	assert.Equal(t, 0, rotationRows(7))
}

func TestFairnessBand(t *testing.T) {
	scenarios := []struct {
		players, positions, windows int
		min, max                    int
	}{
		{2, 2, 2, 2, 2},
		{3, 2, 3, 2, 2},
		{4, 2, 3, 1, 2},
		{16, 11, 10, 6, 7},
		{2, 3, 2, 3, 3},
	}

	for _, scenario := range scenarios {
		min, max := fairnessBand(scenario.players, scenario.positions, scenario.windows)
		assert.Equal(t, scenario.min, min)
		assert.Equal(t, scenario.max, max)
	}
}

func TestFormulationAdmitsExactlyTheValidLineUps(t *testing.T) {
	//** Arrange
	table := newTable(t, 2, 2)
	model, err := New(table, Params{Windows: 2, MatchMinutes: 90})
	require.NoError(t, err)
	problem := model.Problem()

	//** Act
	feasible := 0
	for mask := 0; mask < 1<<problem.Variables; mask++ {
		values := make([]bool, problem.Variables)
		for bit := range values {
			values[bit] = mask&(1<<bit) != 0
		}
		if problem.Satisfied(values) {
			feasible++

			tensor, err := model.Tensor(ilp.Solution{Status: ilp.Optimal, Values: values})
			require.NoError(t, err)
			assert.NoError(t, model.Verify(tensor))
		}
	}

	//** Assert
	// Both players play both windows in the same position, either way round
	assert.Equal(t, 2, feasible)
}

func TestSolvedTensorPassesVerification(t *testing.T) {
	//** Arrange
	table := newTable(t, 3, 2)
	model, err := New(table, Params{Windows: 3, MatchMinutes: 90, MinWindowsBetweenSub: 1})
	require.NoError(t, err)

	//** Act
	solution, err := ilp.NewBranchAndBoundSolver().Solve(*model.Problem())
	require.NoError(t, err)
	require.Equal(t, ilp.Optimal, solution.Status)
	tensor, err := model.Tensor(solution)
	require.NoError(t, err)

	//** Assert
	assert.NoError(t, model.Verify(tensor))
	assert.Equal(t, 6, tensor.Count())
	for player := 0; player < 3; player++ {
		assert.Equal(t, 2, tensor.OnField(player))
	}
}

func TestForbid(t *testing.T) {
	//** Arrange
	table := newTable(t, 3, 2)
	model, err := New(table, Params{Windows: 3, MatchMinutes: 90})
	require.NoError(t, err)
	tensor := tensorOf(3, [][]int{{0, 1}, {2, 1}, {2, 0}})
	other := tensorOf(3, [][]int{{0, 1}, {0, 2}, {1, 2}})
	require.NoError(t, model.Verify(tensor))
	require.NoError(t, model.Verify(other))
	constraints := len(model.Problem().Constraints)

	//** Act
	cuts := model.Forbid(tensor)

	//** Assert
	assert.Equal(t, 1, cuts)
	assert.Equal(t, 1, model.Cuts())
	assert.Len(t, model.Problem().Constraints, constraints+1)

	cut := model.Problem().Constraints[constraints]
	assert.Equal(t, "nogood_0", cut.Name)
	assert.Equal(t, ilp.LessEqual, cut.Relation)
	assert.Equal(t, 5.0, cut.Rhs)
	assert.Len(t, cut.Terms, 18)

	assert.False(t, model.Problem().Satisfied(valuesOf(model, tensor)))
	assert.True(t, model.Problem().Satisfied(valuesOf(model, other)))

	var violation *ViolationError
	require.ErrorAs(t, model.Verify(tensor), &violation)
	assert.Equal(t, RuleNoGood, violation.Rule)
	assert.NoError(t, model.Verify(other))

	assert.Equal(t, 2, model.Forbid(other))
	assert.Equal(t, "nogood_1", model.Problem().Constraints[constraints+1].Name)
}

func TestTensorRejectsMismatchedSolutions(t *testing.T) {
	model, err := New(newTable(t, 3, 2), Params{Windows: 3, MatchMinutes: 90})
	require.NoError(t, err)

	_, err = model.Tensor(ilp.Solution{Status: ilp.Optimal, Values: make([]bool, 5)})

	assert.Error(t, err)
}

func TestVerifyReportsViolations(t *testing.T) {
	occupancy := tensorOf(3, [][]int{{0, 1}, {2, 1}, {2, 0}})
	occupancy.Set(1, 1, 0, false)
	occupancy.Set(0, 1, 0, true) // Player 0 holds both positions at window 0

	doubled := tensorOf(3, [][]int{{0, 1}, {2, 1}, {2, 0}})
	doubled.Set(2, 0, 0, true) // Players 0 and 2 share position 0 at window 0

	// Position 1 is shared by players 0 and 1 while position 2 stays empty: only the matching
	// tells that position 2 is the one left uncovered
	uncovered := tensorOf(4, [][]int{{0, 1, 2}, {3, 1, 2}, {3, 0, 2}})
	uncovered.Set(2, 2, 0, false)
	uncovered.Set(0, 1, 0, true)

	scenarios := []struct {
		name                     string
		players, positions       int
		params                   Params
		tensor                   schedule.Tensor
		rule                     string
		player, position, window int
	}{
		{
			name: "Shape", players: 3, positions: 2,
			params: Params{Windows: 3, MatchMinutes: 90},
			tensor: schedule.NewTensor(2, 2, 2),
			rule:   RuleShape, player: -1, position: -1, window: -1,
		},
		{
			name: "Coverage", players: 3, positions: 2,
			params: Params{Windows: 3, MatchMinutes: 90},
			tensor: schedule.NewTensor(3, 2, 3),
			rule:   RuleCoverage, player: -1, position: 0, window: 0,
		},
		{
			name: "Occupancy", players: 3, positions: 2,
			params: Params{Windows: 3, MatchMinutes: 90},
			tensor: occupancy,
			rule:   RuleOccupancy, player: 0, position: -1, window: 0,
		},
		{
			name: "Doubled position", players: 3, positions: 2,
			params: Params{Windows: 3, MatchMinutes: 90},
			tensor: doubled,
			rule:   RuleCoverage, player: -1, position: 0, window: 0,
		},
		{
			name: "Uncovered position behind shared ones", players: 4, positions: 3,
			params: Params{Windows: 3, MatchMinutes: 90},
			tensor: uncovered,
			rule:   RuleCoverage, player: -1, position: 2, window: 0,
		},
		{
			name: "Fairness", players: 3, positions: 2,
			params: Params{Windows: 3, MatchMinutes: 90},
			tensor: tensorOf(3, [][]int{{0, 1}, {0, 1}, {0, 1}}),
			rule:   RuleFairness, player: 0, position: -1, window: -1,
		},
		{
			name: "Repositioning", players: 3, positions: 2,
			params: Params{Windows: 3, MatchMinutes: 90},
			tensor: tensorOf(3, [][]int{{0, 1}, {1, 2}, {2, 0}}),
			rule:   RuleRepositioning, player: 1, position: 1, window: 0,
		},
		{
			name: "Rotation", players: 4, positions: 2,
			params: Params{Windows: 4, MatchMinutes: 90, MinWindowsBetweenSub: 1},
			tensor: tensorOf(4, [][]int{{0, 1}, {0, 1}, {2, 3}, {2, 3}}),
			rule:   RuleRotation, player: 0, position: -1, window: 2,
		},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			//** Arrange
			model, err := New(newTable(t, scenario.players, scenario.positions), scenario.params)
			require.NoError(t, err)

			//** Act
			err = model.Verify(scenario.tensor)

			//** Assert
			var violation *ViolationError
			require.ErrorAs(t, err, &violation)
			assert.Equal(t, scenario.rule, violation.Rule)
			assert.Equal(t, scenario.player, violation.Player)
			assert.Equal(t, scenario.position, violation.Position)
			assert.Equal(t, scenario.window, violation.Window)
			assert.Contains(t, err.Error(), "violated "+scenario.rule)

			if scenario.rule != RuleShape {
				assert.False(t, model.Problem().Satisfied(valuesOf(model, scenario.tensor)))
			}
		})
	}
}
