package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/limaJavier/squadplanner/pkg/schedule"
	"github.com/limaJavier/squadplanner/pkg/skill"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// WriteText writes the human readable report of a solution: the objective, the roster and
// substitution tables and the position history of every player
func WriteText(writer io.Writer, table *skill.Table, objective float64, plan schedule.Schedule, timeline schedule.Timeline) error {
	var builder strings.Builder

	fmt.Fprintf(&builder, "Optimal score: %.2f\n\n", objective)

	//** Roster
	roster := newTable(&builder, []string{"Window", "Minutes", "Position", "Player", "Score"})
	for _, entry := range plan.Roster {
		roster.Append([]string{
			strconv.Itoa(entry.Window),
			timeline.RangeLabel(entry.Window),
			entry.PositionLabel(),
			entry.Player.Name,
			formatScore(entry.Score),
		})
	}
	roster.Render()
	builder.WriteString("\n")

	//** Substitutions
	if len(plan.Substitutions) == 0 {
		builder.WriteString("No substitutions\n")
	} else {
		substitutions := newTable(&builder, []string{"Window", "Minutes", "Position", "Out", "In"})
		for _, substitution := range plan.Substitutions {
			substitutions.Append([]string{
				strconv.Itoa(substitution.Window),
				timeline.StartLabel(substitution.Window),
				substitution.Position.Name,
				substitution.Out.Name,
				substitution.In.Name,
			})
		}
		substitutions.Render()
	}

	//** Player histories
	for _, player := range table.Players() {
		history := lo.Map(plan.History(player.Index), func(entry schedule.RosterEntry, _ int) string {
			return fmt.Sprintf("%v (%v)", entry.PositionLabel(), formatScore(entry.Score))
		})
		fmt.Fprintf(&builder, "\n%v: %v\n", player.Name, strings.Join(history, " - "))
	}

	_, err := io.WriteString(writer, builder.String())
	return err
}

func newTable(writer io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(writer)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}
