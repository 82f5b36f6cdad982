package model

import (
	"fmt"

	"github.com/limaJavier/squadplanner/pkg/ilp"
)

type constraintState struct {
	indexer indexer

	players,
	positions,
	windows uint64

	fairMin, fairMax     int
	minWindowsBetweenSub uint64
}

// Every position is held by exactly one player in every window
func coverageConstraints(state constraintState) []ilp.Constraint {
	constraints := make([]ilp.Constraint, 0, state.positions*state.windows)

	for window := uint64(0); window < state.windows; window++ {
		for position := uint64(0); position < state.positions; position++ {
			terms := make([]ilp.Term, 0, state.players)
			for player := uint64(0); player < state.players; player++ {
				terms = append(terms, ilp.Term{Variable: state.indexer.Index(player, position, window), Coefficient: 1})
			}
			constraints = append(constraints, ilp.Constraint{
				Name:     fmt.Sprintf("cover_q%d_w%d", position, window),
				Terms:    terms,
				Relation: ilp.Equal,
				Rhs:      1,
			})
		}
	}

	return constraints
}

// A player holds at most one position in every window
func occupancyConstraints(state constraintState) []ilp.Constraint {
	constraints := make([]ilp.Constraint, 0, state.players*state.windows)

	for player := uint64(0); player < state.players; player++ {
		for window := uint64(0); window < state.windows; window++ {
			constraints = append(constraints, ilp.Constraint{
				Name:     fmt.Sprintf("occupy_p%d_w%d", player, window),
				Terms:    windowTerms(state, player, window),
				Relation: ilp.LessEqual,
				Rhs:      1,
			})
		}
	}

	return constraints
}

// Every player's on-field windows lie within [floor(WQ/P), ceil(WQ/P)]
func fairnessConstraints(state constraintState) []ilp.Constraint {
	constraints := make([]ilp.Constraint, 0, 2*state.players)

	for player := uint64(0); player < state.players; player++ {
		terms := make([]ilp.Term, 0, state.positions*state.windows)
		for window := uint64(0); window < state.windows; window++ {
			terms = append(terms, windowTerms(state, player, window)...)
		}

		constraints = append(constraints,
			ilp.Constraint{
				Name:     fmt.Sprintf("fair_min_p%d", player),
				Terms:    terms,
				Relation: ilp.GreaterEqual,
				Rhs:      float64(state.fairMin),
			},
			ilp.Constraint{
				Name:     fmt.Sprintf("fair_max_p%d", player),
				Terms:    terms,
				Relation: ilp.LessEqual,
				Rhs:      float64(state.fairMax),
			},
		)
	}

	return constraints
}

// A player holding q at w cannot hold any other position at w+1
func repositioningConstraints(state constraintState) []ilp.Constraint {
	if state.windows < 2 {
		return nil
	}
	constraints := make([]ilp.Constraint, 0, state.players*state.positions*(state.windows-1))

	for player := uint64(0); player < state.players; player++ {
		for position := uint64(0); position < state.positions; position++ {
			for window := uint64(0); window < state.windows-1; window++ {
				// x(p,q*,w) + sum_{q != q*} x(p,q,w+1) <= 1
				terms := make([]ilp.Term, 0, state.positions)
				terms = append(terms, ilp.Term{Variable: state.indexer.Index(player, position, window), Coefficient: 1})
				for other := uint64(0); other < state.positions; other++ {
					if other != position {
						terms = append(terms, ilp.Term{Variable: state.indexer.Index(player, other, window+1), Coefficient: 1})
					}
				}

				constraints = append(constraints, ilp.Constraint{
					Name:     fmt.Sprintf("stay_p%d_q%d_w%d", player, position, window),
					Terms:    terms,
					Relation: ilp.LessEqual,
					Rhs:      1,
				})
			}
		}
	}

	return constraints
}

// Within every span of K+1 consecutive windows a player is on the field at least K times
func rotationConstraints(state constraintState) []ilp.Constraint {
	span := state.minWindowsBetweenSub
	if span == 0 || span >= state.windows {
		return nil
	}
	constraints := make([]ilp.Constraint, 0, state.players*(state.windows-span))

	for player := uint64(0); player < state.players; player++ {
		for window := uint64(0); window < state.windows-span; window++ {
			terms := make([]ilp.Term, 0, state.positions*(span+1))
			for offset := uint64(0); offset < span+1; offset++ {
				terms = append(terms, windowTerms(state, player, window+offset)...)
			}

			constraints = append(constraints, ilp.Constraint{
				Name:     fmt.Sprintf("rotate_p%d_w%d", player, window),
				Terms:    terms,
				Relation: ilp.GreaterEqual,
				Rhs:      float64(span),
			})
		}
	}

	return constraints
}

// windowTerms returns the unit terms of every position a player may hold at window
func windowTerms(state constraintState, player, window uint64) []ilp.Term {
	terms := make([]ilp.Term, 0, state.positions)
	for position := uint64(0); position < state.positions; position++ {
		terms = append(terms, ilp.Term{Variable: state.indexer.Index(player, position, window), Coefficient: 1})
	}
	return terms
}
