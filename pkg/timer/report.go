package timer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// Fixed decimal precision of the export format. Existing consumers parse
// these widths; do not change them.
const (
	exportFilePermissions = 0o644

	headerFormat = "%12s, %12s, %12s, %12s, %12s, %12s, %12s\n"
	rowFormat    = "%12s, %12.6f, %12.6f, %12.4f, %12.6f, %12.6f, %12.4f\n"

	csvHeaderFormat = "%s,%s,%s,%s,%s,%s,%s\n"
	csvRowFormat    = "%s,%.6f,%.6f,%.4f,%.6f,%.6f,%.4f\n"
)

// percentScale converts a ratio to a percentage.
const percentScale = 100.0

// exportColumns are the export format's column names, in order.
var exportColumns = []string{
	"label", "seconds", "minutes", "rel_percent",
	"cumul_sec", "cumul_min", "cumul_percent",
}

// Row is one line of the session report.
type Row struct {
	Label string

	// Seconds and Minutes are the interval's own elapsed time.
	Seconds float64
	Minutes float64

	// RelPercent is the interval's share of the summed elapsed time of
	// all completed intervals. Nested children each count individually:
	// the report answers "time spent inside each labeled block", not
	// exclusive time.
	RelPercent float64

	// Cumulative fields are running sums in tic order.
	CumulativeSeconds float64
	CumulativeMinutes float64
	CumulativePercent float64
}

// Report returns one row per completed interval, in tic order, with
// relative and cumulative percentages derived from the grand total.
func (s *Session) Report() []Row {
	var grandTotal float64

	for _, iv := range s.slots {
		if iv != nil {
			grandTotal += iv.Seconds()
		}
	}

	rows := make([]Row, 0, len(s.slots))

	var cumSec, cumMin float64

	for _, iv := range s.slots {
		if iv == nil {
			continue
		}

		sec := iv.Seconds()
		minutes := iv.Minutes()
		cumSec += sec
		cumMin += minutes

		row := Row{
			Label:             iv.Label,
			Seconds:           sec,
			Minutes:           minutes,
			CumulativeSeconds: cumSec,
			CumulativeMinutes: cumMin,
		}

		if grandTotal != 0 {
			row.RelPercent = sec / grandTotal * percentScale
			row.CumulativePercent = cumSec / grandTotal * percentScale
		}

		rows = append(rows, row)
	}

	return rows
}

// String renders the report in the export format: a header line followed
// by one fixed-precision, column-aligned line per completed interval.
func (s *Session) String() string {
	var b strings.Builder

	cols := make([]any, len(exportColumns))
	for i, c := range exportColumns {
		cols[i] = c
	}

	fmt.Fprintf(&b, headerFormat, cols...)

	for _, row := range s.Report() {
		fmt.Fprintf(&b, rowFormat, row.Label,
			row.Seconds, row.Minutes, row.RelPercent,
			row.CumulativeSeconds, row.CumulativeMinutes, row.CumulativePercent)
	}

	return b.String()
}

// WriteTo writes the report as compact CSV (same columns and precision
// as String, without alignment padding).
func (s *Session) WriteTo(w io.Writer) (int64, error) {
	var written int64

	cols := make([]any, len(exportColumns))
	for i, c := range exportColumns {
		cols[i] = c
	}

	n, err := fmt.Fprintf(w, csvHeaderFormat, cols...)
	written += int64(n)

	if err != nil {
		return written, errors.Wrap(err, "writing report header")
	}

	for _, row := range s.Report() {
		n, err := fmt.Fprintf(w, csvRowFormat, row.Label,
			row.Seconds, row.Minutes, row.RelPercent,
			row.CumulativeSeconds, row.CumulativeMinutes, row.CumulativePercent)
		written += int64(n)

		if err != nil {
			return written, errors.Wrap(err, "writing report row")
		}
	}

	return written, nil
}

// ExportFile writes the CSV report to path, appending when appendMode is
// set. An empty path defaults to the session name with a .txt extension
// (kept as-is when the name already has one).
func (s *Session) ExportFile(path string, appendMode bool) error {
	if path == "" {
		path = s.name
		if !strings.Contains(path, ".") {
			path += ".txt"
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	//nolint:gosec // Path is caller-controlled export destination
	f, err := os.OpenFile(path, flags, exportFilePermissions)
	if err != nil {
		return errors.Wrapf(err, "opening export file %q", path)
	}

	if _, err := s.WriteTo(f); err != nil {
		_ = f.Close()

		return err
	}

	return errors.Wrapf(f.Close(), "closing export file %q", path)
}
