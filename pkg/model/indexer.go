package model

// indexer gives a unique variable id to every (player, position, window) triple and vice versa
type indexer interface {
	// Returns the variable id of a triple
	Index(player, position, window uint64) uint64
	// Returns the triple of a variable id
	Attributes(index uint64) (player, position, window uint64)
}

func newIndexer(players, positions, windows uint64) indexer {
	return &indexerImplementation{
		players:   players,
		positions: positions,
		windows:   windows,
	}
}
