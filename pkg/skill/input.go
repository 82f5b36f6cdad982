package skill

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

type RawPlayer struct {
	Name   string
	Scores map[string]float64
}

type RawTable struct {
	Positions []string
	Players   []RawPlayer
}

// TableFromFile reads a skill table choosing the format by the file extension
func TableFromFile(file string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(file), ".json") {
		return TableFromJson(file)
	}
	return TableFromCsv(file)
}

func TableFromCsv(file string) (*Table, error) {
	reader, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("cannot open skill table: %w", err)
	}
	defer reader.Close()

	return ReadCsv(reader)
}

// ReadCsv parses a table whose header row holds the position names and whose
// first column holds the player names. The top-left cell is ignored.
func ReadCsv(input io.Reader) (*Table, error) {
	reader := csv.NewReader(input)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse csv: %v", ErrInvalidTable, err)
	} else if len(records) < 2 {
		return nil, fmt.Errorf("%w: a header row and at least one player row are required", ErrInvalidTable)
	}

	header := lo.Map(records[0], func(cell string, _ int) string { return strings.TrimSpace(cell) })
	positions := header[1:]

	players := make([]string, 0, len(records)-1)
	scores := make([][]float64, 0, len(records)-1)
	for line, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvalidTable, line+2, len(record), len(header))
		}

		row := make([]float64, 0, len(positions))
		for column, cell := range record[1:] {
			score, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid score \"%v\" for position \"%v\" at row %d", ErrInvalidTable, cell, positions[column], line+2)
			}
			row = append(row, score)
		}

		players = append(players, strings.TrimSpace(record[0]))
		scores = append(scores, row)
	}

	return NewTable(players, positions, scores)
}

func TableFromJson(file string) (*Table, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("cannot read skill table: %w", err)
	}

	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return nil, fmt.Errorf("%w: cannot parse json: %v", ErrInvalidTable, err)
	}

	var rawTable RawTable
	if err := mapstructure.Decode(inputJson, &rawTable); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	return ProcessRawTable(rawTable)
}

// ProcessRawTable turns name-keyed scores into a dense table following the order of Positions
func ProcessRawTable(rawTable RawTable) (*Table, error) {
	players := lo.Map(rawTable.Players, func(player RawPlayer, _ int) string { return player.Name })

	scores := make([][]float64, 0, len(rawTable.Players))
	for _, player := range rawTable.Players {
		if unknown, _ := lo.Difference(lo.Keys(player.Scores), rawTable.Positions); len(unknown) > 0 {
			return nil, fmt.Errorf("%w: player \"%v\" scores unknown positions %v", ErrInvalidTable, player.Name, unknown)
		}

		row := make([]float64, 0, len(rawTable.Positions))
		for _, position := range rawTable.Positions {
			score, ok := player.Scores[position]
			if !ok {
				return nil, fmt.Errorf("%w: player \"%v\" has no score for position \"%v\"", ErrInvalidTable, player.Name, position)
			}
			row = append(row, score)
		}
		scores = append(scores, row)
	}

	return NewTable(players, rawTable.Positions, scores)
}
