// Package export writes run reports as JSON, CSV or a plain text table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/kilianp07/warehouse/core/report"
)

// Write renders s in format: "json", "csv" or "text".
func Write(w io.Writer, format string, s report.Summary) error {
	switch format {
	case "json":
		return WriteJSON(w, s)
	case "csv":
		return WriteCSV(w, s)
	case "text", "":
		return WriteText(w, s)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteJSON writes the summary to w in JSON format.
func WriteJSON(w io.Writer, s report.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteCSV writes one row per schedule entry.
func WriteCSV(w io.Writer, s report.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"run_id", "robot_id", "task_id", "program", "status", "steps", "battery_before", "battery_after", "charged", "row", "col", "reason"}); err != nil {
		return err
	}
	for _, l := range s.Lines {
		rec := []string{
			s.RunID,
			l.RobotID,
			l.TaskID,
			l.Program,
			l.Status,
			strconv.Itoa(l.Steps),
			strconv.Itoa(l.BatteryBefore),
			strconv.Itoa(l.BatteryAfter),
			strconv.FormatBool(l.Charged),
			strconv.Itoa(l.Position.Row),
			strconv.Itoa(l.Position.Col),
			l.Reason,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText writes an aligned table followed by the run totals.
func WriteText(w io.Writer, s report.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROBOT\tTASK\tPROGRAM\tSTATUS\tSTEPS\tBATTERY\tPOSITION")
	for _, l := range s.Lines {
		status := l.Status
		if l.Reason != "" {
			status += " (" + l.Reason + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d -> %d\t%s\n",
			l.RobotID, l.TaskID, l.Program, status, l.Steps, l.BatteryBefore, l.BatteryAfter, l.Position)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nsettled=%d skipped=%d aborted=%d steps=%d cancelled=%t battery_cost=%.2f±%.2f\n",
		s.Settled, s.Skipped, s.Aborted, s.Steps, s.Cancelled, s.MeanCost, s.StdCost)
	return err
}
