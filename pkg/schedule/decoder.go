package schedule

import (
	"errors"
	"fmt"
	"slices"

	"github.com/limaJavier/squadplanner/pkg/skill"
	"github.com/samber/lo"
)

var ErrAmbiguousOccupant = errors.New("ambiguous occupant")

type RosterEntry struct {
	Window   int
	Player   skill.Player
	Position skill.Position // Zero value when the player is on the bench
	OnField  bool
	Score    float64
}

// PositionLabel returns the position name, or the substitute label for bench rows
func (entry RosterEntry) PositionLabel() string {
	if !entry.OnField {
		return skill.SubstituteLabel
	}
	return entry.Position.Name
}

type Substitution struct {
	Window   int
	Position skill.Position
	Out      skill.Player
	In       skill.Player
}

type Schedule struct {
	Roster        []RosterEntry
	Substitutions []Substitution
	Occupants     [][]int // Occupants[window][position] is a player index
}

// History returns the roster entries of a player in window order
func (schedule Schedule) History(player int) []RosterEntry {
	return lo.Filter(schedule.Roster, func(entry RosterEntry, _ int) bool {
		return entry.Player.Index == player
	})
}

// OnFieldWindows returns the number of windows a player spends on the field
func (schedule Schedule) OnFieldWindows(player int) int {
	return lo.CountBy(schedule.Roster, func(entry RosterEntry) bool {
		return entry.Player.Index == player && entry.OnField
	})
}

// Decode derives the per-window roster and the substitution plan of a tensor. Every
// (position, window) must have exactly one occupant and no player may hold two positions
// in the same window.
func Decode(table *skill.Table, tensor Tensor) (Schedule, error) {
	if tensor.Players() != table.PlayerCount() || tensor.Positions() != table.PositionCount() {
		return Schedule{}, fmt.Errorf("tensor dimensions (%v, %v) do not match the skill table (%v, %v)",
			tensor.Players(), tensor.Positions(), table.PlayerCount(), table.PositionCount())
	}

	occupants, err := occupantsOf(tensor)
	if err != nil {
		return Schedule{}, err
	}

	return Schedule{
		Roster:        roster(table, occupants),
		Substitutions: substitutions(table, occupants),
		Occupants:     occupants,
	}, nil
}

func occupantsOf(tensor Tensor) ([][]int, error) {
	occupants := make([][]int, tensor.Windows())
	for window := 0; window < tensor.Windows(); window++ {
		occupants[window] = make([]int, tensor.Positions())
		seen := make(map[int]int)

		for position := 0; position < tensor.Positions(); position++ {
			players := tensor.Occupant(position, window)
			if len(players) != 1 {
				return nil, fmt.Errorf("%w: position %v has %v occupants at window %v", ErrAmbiguousOccupant, position, len(players), window)
			}

			player := players[0]
			if other, ok := seen[player]; ok {
				return nil, fmt.Errorf("%w: player %v occupies positions %v and %v at window %v", ErrAmbiguousOccupant, player, other, position, window)
			}
			seen[player] = position
			occupants[window][position] = player
		}
	}
	return occupants, nil
}

func roster(table *skill.Table, occupants [][]int) []RosterEntry {
	entries := make([]RosterEntry, 0, len(occupants)*table.PlayerCount())

	for window, line := range occupants {
		//** On-field rows ordered by position
		for position, player := range line {
			entries = append(entries, RosterEntry{
				Window:   window,
				Player:   table.Player(player),
				Position: table.Position(position),
				OnField:  true,
				Score:    table.Score(player, position),
			})
		}

		//** Bench rows ordered by player
		for player := 0; player < table.PlayerCount(); player++ {
			if slices.Contains(line, player) {
				continue
			}
			entries = append(entries, RosterEntry{
				Window: window,
				Player: table.Player(player),
			})
		}
	}

	return entries
}

func substitutions(table *skill.Table, occupants [][]int) []Substitution {
	events := []Substitution{}

	// Window-major iteration yields events sorted by window and then by position
	for window := 1; window < len(occupants); window++ {
		for position, player := range occupants[window] {
			previous := occupants[window-1][position]
			if previous == player {
				continue
			}
			events = append(events, Substitution{
				Window:   window,
				Position: table.Position(position),
				Out:      table.Player(previous),
				In:       table.Player(player),
			})
		}
	}

	return events
}

// Replay rebuilds the occupants of every window from the window-0 line-up and a
// substitution plan sorted by window
func Replay(initial []int, events []Substitution, windows int) ([][]int, error) {
	if windows < 1 {
		return nil, fmt.Errorf("invalid window count: %v", windows)
	}

	occupants := make([][]int, windows)
	occupants[0] = slices.Clone(initial)
	next := 0

	for window := 1; window < windows; window++ {
		occupants[window] = slices.Clone(occupants[window-1])

		for ; next < len(events) && events[next].Window == window; next++ {
			event := events[next]
			position := event.Position.Index
			if position < 0 || position >= len(initial) {
				return nil, fmt.Errorf("substitution at window %v refers to unknown position %v", window, position)
			} else if occupants[window][position] != event.Out.Index {
				return nil, fmt.Errorf("substitution at window %v takes player %v out of position %v, which is held by player %v",
					window, event.Out.Index, position, occupants[window][position])
			}
			occupants[window][position] = event.In.Index
		}
	}

	if next < len(events) {
		return nil, fmt.Errorf("substitution at window %v is out of order or out of range", events[next].Window)
	}
	return occupants, nil
}
