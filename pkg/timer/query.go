package timer

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Labels returns the labels of all completed intervals in tic order.
func (s *Session) Labels() []string {
	labels := make([]string, 0, len(s.slots))

	for _, iv := range s.slots {
		if iv != nil {
			labels = append(labels, iv.Label)
		}
	}

	return labels
}

// ActiveLabels returns the labels of open marks, oldest first.
func (s *Session) ActiveLabels() []string {
	labels := make([]string, len(s.stack))
	for i, m := range s.stack {
		labels[i] = m.label
	}

	return labels
}

// Seconds returns the elapsed time of completed intervals in fractional
// seconds, tic-ordered.
func (s *Session) Seconds() []float64 {
	out := make([]float64, 0, len(s.slots))

	for _, iv := range s.slots {
		if iv != nil {
			out = append(out, iv.Seconds())
		}
	}

	return out
}

// Minutes returns the elapsed time of completed intervals in fractional
// minutes, tic-ordered.
func (s *Session) Minutes() []float64 {
	out := make([]float64, 0, len(s.slots))

	for _, iv := range s.slots {
		if iv != nil {
			out = append(out, iv.Minutes())
		}
	}

	return out
}

// Times returns (label, elapsed) pairs for completed intervals,
// tic-ordered.
func (s *Session) Times() []LabelTime {
	out := make([]LabelTime, 0, len(s.slots))

	for _, iv := range s.slots {
		if iv != nil {
			out = append(out, LabelTime{Label: iv.Label, Elapsed: iv.Elapsed})
		}
	}

	return out
}

// Interval returns the completed interval recorded under label. When the
// label was measured more than once, the most recently opened instance
// wins, mirroring the LIFO rule used for label-paired tocs.
func (s *Session) Interval(label string) (Interval, error) {
	for i := len(s.slots) - 1; i >= 0; i-- {
		if iv := s.slots[i]; iv != nil && iv.Label == label {
			return *iv, nil
		}
	}

	return Interval{}, errors.Wrapf(ErrUnknownLabel, "no completed interval labeled %q", label)
}

// Remove discards all completed intervals whose label equals label and
// returns how many were removed. Open marks are unaffected.
func (s *Session) Remove(label string) int {
	return s.dropSlots(func(iv *Interval) bool {
		return iv != nil && iv.Label == label
	})
}

// Measurement is a single quantity reported in both fractional seconds
// and fractional minutes.
type Measurement struct {
	Seconds float64
	Minutes float64
}

// Stats aggregates elapsed times over a set of completed intervals.
type Stats struct {
	Avg   Measurement
	Min   Measurement
	Max   Measurement
	Total Measurement
}

// Stats computes aggregate statistics over completed intervals whose
// label contains filter as a substring; an empty filter selects all.
// The second return is false when no interval matched — an empty query
// is routine, not an error, so callers check the bool instead of
// unwrapping a failure.
func (s *Session) Stats(filter string) (Stats, bool) {
	var (
		seconds []float64
		stats   Stats
	)

	for _, iv := range s.slots {
		if iv == nil || !strings.Contains(iv.Label, filter) {
			continue
		}

		seconds = append(seconds, iv.Seconds())
	}

	if len(seconds) == 0 {
		return Stats{}, false
	}

	minSec, maxSec, total := seconds[0], seconds[0], 0.0

	for _, sec := range seconds {
		total += sec

		if sec < minSec {
			minSec = sec
		}

		if sec > maxSec {
			maxSec = sec
		}
	}

	stats.Total = asMeasurement(total)
	stats.Min = asMeasurement(minSec)
	stats.Max = asMeasurement(maxSec)
	stats.Avg = asMeasurement(total / float64(len(seconds)))

	return stats, true
}

// Walltime returns the elapsed time between the first tic and the most
// recent toc, in fractional seconds and minutes. It is always at least
// the sum of the individual intervals' wall coverage. Zero when nothing
// has completed yet.
func (s *Session) Walltime() (float64, float64) {
	if !s.hasTic || !s.hasToc {
		return 0, 0
	}

	wall := (s.lastToc - s.firstTic).Seconds()

	return wall, wall / secondsPerMinute
}

func asMeasurement(seconds float64) Measurement {
	return Measurement{Seconds: seconds, Minutes: seconds / secondsPerMinute}
}
