package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/limaJavier/squadplanner/pkg/schedule"
)

var (
	rosterHeader       = []string{"window", "position", "player", "score", "minutes"}
	substitutionHeader = []string{"window", "position", "player_out", "player_in", "minutes"}
)

// WriteRoster writes one row per (window, player), bench rows included
func WriteRoster(writer io.Writer, plan schedule.Schedule, timeline schedule.Timeline) error {
	records := [][]string{rosterHeader}
	for _, entry := range plan.Roster {
		records = append(records, []string{
			strconv.Itoa(entry.Window),
			entry.PositionLabel(),
			entry.Player.Name,
			formatScore(entry.Score),
			timeline.RangeLabel(entry.Window),
		})
	}
	return writeCsv(writer, records)
}

// WriteSubstitutions writes one row per substitution in match order
func WriteSubstitutions(writer io.Writer, plan schedule.Schedule, timeline schedule.Timeline) error {
	records := [][]string{substitutionHeader}
	for _, substitution := range plan.Substitutions {
		records = append(records, []string{
			strconv.Itoa(substitution.Window),
			substitution.Position.Name,
			substitution.Out.Name,
			substitution.In.Name,
			timeline.StartLabel(substitution.Window),
		})
	}
	return writeCsv(writer, records)
}

func writeCsv(writer io.Writer, records [][]string) error {
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.WriteAll(records); err != nil {
		return err
	}
	return csvWriter.Error()
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
