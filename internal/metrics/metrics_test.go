package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRecorder(t *testing.T) {
	Convey("Given a recorder", t, func() {
		recorder := NewRecorder()

		Convey("When solves and solutions are observed", func() {
			recorder.ObserveSolve("optimal", 20*time.Millisecond)
			recorder.ObserveSolve("optimal", 30*time.Millisecond)
			recorder.ObserveSolve("infeasible", 10*time.Millisecond)
			recorder.ObserveSolution(42.5, 1)
			recorder.ObserveSolution(40, 2)
			recorder.ObserveGap(1.5)

			Convey("Then the textfile export contains them", func() {
				path := filepath.Join(t.TempDir(), "squad.prom")
				So(recorder.WriteTextfile(path), ShouldBeNil)

				content, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				text := string(content)
				So(text, ShouldContainSubstring, `squadplanner_search_solves_total{status="optimal"} 2`)
				So(text, ShouldContainSubstring, `squadplanner_search_solves_total{status="infeasible"} 1`)
				So(text, ShouldContainSubstring, "squadplanner_search_solutions_total 2")
				So(text, ShouldContainSubstring, "squadplanner_search_nogood_cuts 2")
				So(text, ShouldContainSubstring, "squadplanner_search_best_objective 42.5")
				So(text, ShouldContainSubstring, "squadplanner_search_solve_duration_seconds_count 3")
				So(text, ShouldContainSubstring, "squadplanner_search_bound_gap 1.5")
			})

			Convey("Then the registry gathers every collector", func() {
				families, err := recorder.registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldHaveLength, 6)
			})
		})
	})

	Convey("Given a nil recorder", t, func() {
		var recorder *Recorder

		Convey("Then observing is a no-op", func() {
			So(func() {
				recorder.ObserveSolve("optimal", time.Second)
				recorder.ObserveSolution(1, 1)
				recorder.ObserveGap(0)
			}, ShouldNotPanic)
			So(recorder.WriteTextfile(filepath.Join(t.TempDir(), "none.prom")), ShouldBeNil)
		})
	})
}
