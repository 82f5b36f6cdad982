package model

type indexerImplementation struct {
	players   uint64
	positions uint64
	windows   uint64
}

// Ids are zero-based and position-major: position + Q*window + Q*W*player
func (indexer *indexerImplementation) Index(player, position, window uint64) uint64 {
	return position + indexer.positions*window + indexer.positions*indexer.windows*player
}

func (indexer *indexerImplementation) Attributes(index uint64) (player, position, window uint64) {
	position = index % indexer.positions
	index = index / indexer.positions

	window = index % indexer.windows
	index = index / indexer.windows

	player = index % indexer.players

	return player, position, window
}
