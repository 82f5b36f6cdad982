package schedule

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// Tensor is the 0/1 assignment of every (player, position, window) triple
type Tensor struct {
	players   int
	positions int
	windows   int
	cells     []bool
}

func NewTensor(players, positions, windows int) Tensor {
	if players < 0 || positions < 0 || windows < 0 {
		panic(fmt.Sprintf("negative tensor dimensions (%v, %v, %v)", players, positions, windows))
	}
	return Tensor{
		players:   players,
		positions: positions,
		windows:   windows,
		cells:     make([]bool, players*positions*windows),
	}
}

func (tensor Tensor) Players() int   { return tensor.players }
func (tensor Tensor) Positions() int { return tensor.positions }
func (tensor Tensor) Windows() int   { return tensor.windows }

func (tensor Tensor) index(player, position, window int) int {
	if player < 0 || player >= tensor.players || position < 0 || position >= tensor.positions || window < 0 || window >= tensor.windows {
		panic(fmt.Sprintf("tensor cell (%v, %v, %v) out of range", player, position, window))
	}
	return position + tensor.positions*window + tensor.positions*tensor.windows*player
}

func (tensor Tensor) At(player, position, window int) bool {
	return tensor.cells[tensor.index(player, position, window)]
}

func (tensor Tensor) Set(player, position, window int, value bool) {
	tensor.cells[tensor.index(player, position, window)] = value
}

// Count returns the number of cells set to one
func (tensor Tensor) Count() int {
	return lo.Count(tensor.cells, true)
}

// OnField returns the number of windows in which player occupies some position
func (tensor Tensor) OnField(player int) int {
	count := 0
	for window := 0; window < tensor.windows; window++ {
		if tensor.PositionOf(player, window) >= 0 {
			count++
		}
	}
	return count
}

// PositionOf returns the first position player occupies at window, or -1 when benched
func (tensor Tensor) PositionOf(player, window int) int {
	for position := 0; position < tensor.positions; position++ {
		if tensor.At(player, position, window) {
			return position
		}
	}
	return -1
}

// Occupant returns the players occupying position at window
func (tensor Tensor) Occupant(position, window int) []int {
	occupants := []int{}
	for player := 0; player < tensor.players; player++ {
		if tensor.At(player, position, window) {
			occupants = append(occupants, player)
		}
	}
	return occupants
}

func (tensor Tensor) Equal(other Tensor) bool {
	if tensor.players != other.players || tensor.positions != other.positions || tensor.windows != other.windows {
		return false
	}
	return slices.Equal(tensor.cells, other.cells)
}

func (tensor Tensor) Clone() Tensor {
	clone := tensor
	clone.cells = append([]bool(nil), tensor.cells...)
	return clone
}
