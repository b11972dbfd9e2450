package stress

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// Report renders stress results as a table.
func Report(out io.Writer, results []Result) error {
	w := tablewriter.NewWriter(out).Options(tablewriter.WithHeader(
		[]string{"Lock", "Reads", "Writes", "Upgrades", "Downgrades", "Try misses", "Mops/s"},
	))
	for _, r := range results {
		rate := 0.0
		if s := r.Elapsed.Seconds(); s > 0 {
			rate = float64(r.Ops()) / s / 1e6
		}
		if err := w.Append(
			r.Lock,
			strconv.FormatUint(r.Reads, 10),
			strconv.FormatUint(r.Writes, 10),
			strconv.FormatUint(r.Upgrades, 10),
			strconv.FormatUint(r.Downgrades, 10),
			strconv.FormatUint(r.TryMisses, 10),
			fmt.Sprintf("%0.2f", rate),
		); err != nil {
			return err
		}
	}
	return w.Render()
}

// ReportExplore renders interleaving results as a table.
func ReportExplore(out io.Writer, results []ExploreResult) error {
	w := tablewriter.NewWriter(out).Options(tablewriter.WithHeader(
		[]string{"Lock", "Program", "Runs", "Steps", "Max depth"},
	))
	for _, r := range results {
		if err := w.Append(
			r.Lock,
			r.Program,
			strconv.Itoa(r.Stats.Runs),
			strconv.Itoa(r.Stats.Steps),
			strconv.Itoa(r.Stats.MaxDepth),
		); err != nil {
			return err
		}
	}
	return w.Render()
}
