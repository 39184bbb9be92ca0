package timer

import "time"

// secondsPerMinute converts fractional seconds to fractional minutes.
const secondsPerMinute = 60.0

// Interval is one completed measurement. It is immutable once the
// closing toc resolves it.
type Interval struct {
	// Label identifies the measured block. Auto-generated when the tic
	// did not supply one.
	Label string

	// Start and End are the raw clock readings bounding the block. Both
	// come from the session's clock.
	Start time.Duration
	End   time.Duration

	// Elapsed is End - Start.
	Elapsed time.Duration

	// ClockAdjusted is true when Elapsed came out negative on an
	// adjustable clock. The measurement is kept but flagged, never
	// silently accepted.
	ClockAdjusted bool
}

// Seconds returns the elapsed time in fractional seconds.
func (iv Interval) Seconds() float64 {
	return iv.Elapsed.Seconds()
}

// Minutes returns the elapsed time in fractional minutes.
func (iv Interval) Minutes() float64 {
	return iv.Elapsed.Seconds() / secondsPerMinute
}

// LabelTime pairs a label with its elapsed time, in tic order.
type LabelTime struct {
	Label   string
	Elapsed time.Duration
}
