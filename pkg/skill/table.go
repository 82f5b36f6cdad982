package skill

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"
)

// SubstituteLabel is the position label used for players on the bench.
const SubstituteLabel = "Substitute"

var ErrInvalidTable = errors.New("invalid skill table")

type Player struct {
	Index int
	Name  string
}

type Position struct {
	Index int
	Name  string
}

// Table is an immutable dense lookup of the score of every player on every position
type Table struct {
	players   []Player
	positions []Position
	scores    [][]float64 // scores[player][position]
}

func NewTable(playerNames, positionNames []string, scores [][]float64) (*Table, error) {
	if len(playerNames) == 0 {
		return nil, fmt.Errorf("%w: at least one player is required", ErrInvalidTable)
	} else if len(positionNames) == 0 {
		return nil, fmt.Errorf("%w: at least one position is required", ErrInvalidTable)
	} else if len(scores) != len(playerNames) {
		return nil, fmt.Errorf("%w: %d score rows for %d players", ErrInvalidTable, len(scores), len(playerNames))
	}

	if duplicates := lo.FindDuplicates(playerNames); len(duplicates) > 0 {
		return nil, fmt.Errorf("%w: duplicate players %v", ErrInvalidTable, duplicates)
	} else if duplicates := lo.FindDuplicates(positionNames); len(duplicates) > 0 {
		return nil, fmt.Errorf("%w: duplicate positions %v", ErrInvalidTable, duplicates)
	} else if lo.Contains(positionNames, SubstituteLabel) {
		return nil, fmt.Errorf("%w: \"%v\" is reserved and cannot name a position", ErrInvalidTable, SubstituteLabel)
	}

	table := &Table{
		players:   lo.Map(playerNames, func(name string, i int) Player { return Player{Index: i, Name: name} }),
		positions: lo.Map(positionNames, func(name string, i int) Position { return Position{Index: i, Name: name} }),
		scores:    make([][]float64, len(scores)),
	}

	for i, row := range scores {
		if len(row) != len(positionNames) {
			return nil, fmt.Errorf("%w: player \"%v\" has %d scores for %d positions", ErrInvalidTable, playerNames[i], len(row), len(positionNames))
		}
		for j, score := range row {
			if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
				return nil, fmt.Errorf("%w: score of player \"%v\" on position \"%v\" must be a non-negative number: %v", ErrInvalidTable, playerNames[i], positionNames[j], score)
			}
		}
		// Copy rows so that the caller cannot mutate the table afterwards
		table.scores[i] = append([]float64(nil), row...)
	}

	return table, nil
}

func (table *Table) Players() []Player {
	return append([]Player(nil), table.players...)
}

func (table *Table) Positions() []Position {
	return append([]Position(nil), table.positions...)
}

func (table *Table) PlayerCount() int   { return len(table.players) }
func (table *Table) PositionCount() int { return len(table.positions) }

func (table *Table) Player(index int) Player     { return table.players[index] }
func (table *Table) Position(index int) Position { return table.positions[index] }

func (table *Table) Score(player, position int) float64 {
	return table.scores[player][position]
}
