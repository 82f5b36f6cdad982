package schedule

import "fmt"

// Timeline labels windows with the match minutes they span
type Timeline struct {
	Windows      int
	MatchMinutes int
}

// Bounds returns the minute at which window starts and ends
func (timeline Timeline) Bounds(window int) (float64, float64) {
	length := float64(timeline.MatchMinutes) / float64(timeline.Windows)
	return float64(window) * length, float64(window+1) * length
}

func (timeline Timeline) RangeLabel(window int) string {
	start, end := timeline.Bounds(window)
	return fmt.Sprintf("%4.1f - %4.1f", start, end)
}

func (timeline Timeline) StartLabel(window int) string {
	start, _ := timeline.Bounds(window)
	return fmt.Sprintf("%4.1f", start)
}
