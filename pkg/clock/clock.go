// Package clock provides monotonic time sources for the timing session.
//
// A Clock yields scalar readings measured from an arbitrary per-clock
// origin. Readings from two clocks may only be combined when the clocks
// are compatible, meaning they share the same identity and semantics.
// Clocks are resolved by ID through an explicit Registry rather than a
// process-global table, so test code can inject deterministic sources.
package clock

//go:generate mockgen -source=clock.go -destination=clock_mock.go -package=clock

import (
	"time"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnsupportedClock is returned when a clock ID is not registered.
	ErrUnsupportedClock = errors.New("unsupported clock")

	// ErrInvalidClock is returned when a clock registration is structurally
	// invalid (empty ID or nil clock).
	ErrInvalidClock = errors.New("invalid clock")
)

// Built-in clock IDs.
const (
	// Monotonic reads the runtime's monotonic clock. It never goes
	// backwards and is the default for timing sessions.
	Monotonic = "monotonic"

	// Wall reads the wall clock. It can be adjusted (NTP, manual step),
	// so elapsed times across an adjustment are a caller-visible risk.
	Wall = "wall"

	// Process reads the per-process CPU time (user + system).
	Process = "process"
)

// DefaultID is the clock used when a session does not select one.
const DefaultID = Monotonic

// Clock is a single time source.
//
// Now returns the current reading as an offset from the clock's own
// origin. For monotonic clocks the reading never decreases across calls;
// for adjustable clocks it may, and callers combining readings must
// handle that explicitly.
type Clock interface {
	// Now returns the current reading.
	Now() time.Duration

	// Info describes the clock's static attributes.
	Info() Info
}

// Info describes a clock's identity and semantics. Two clocks with equal
// Info values are interchangeable for the purpose of combining readings.
type Info struct {
	// Implementation names the underlying time source.
	Implementation string

	// Resolution is the smallest reading increment the source reports.
	Resolution time.Duration

	// Monotonic is true when readings never decrease.
	Monotonic bool

	// Adjustable is true when the source can be stepped externally.
	Adjustable bool
}

// Compatible reports whether readings from the two clocks may be
// combined into a single elapsed duration.
func Compatible(a, b Clock) bool {
	return a.Info() == b.Info()
}

// monotonicClock reads the runtime monotonic clock relative to a fixed
// origin captured at construction.
type monotonicClock struct {
	origin time.Time
}

// NewMonotonic returns the default monotonic clock.
func NewMonotonic() Clock {
	return &monotonicClock{origin: time.Now()}
}

func (c *monotonicClock) Now() time.Duration {
	return time.Since(c.origin)
}

func (c *monotonicClock) Info() Info {
	return Info{
		Implementation: "runtime monotonic",
		Resolution:     time.Nanosecond,
		Monotonic:      true,
		Adjustable:     false,
	}
}

// wallClock reads the system wall clock as nanoseconds since the Unix
// epoch. Wall time can step backwards under clock adjustment.
type wallClock struct{}

// NewWall returns the wall clock.
func NewWall() Clock {
	return wallClock{}
}

func (wallClock) Now() time.Duration {
	return time.Duration(time.Now().UnixNano())
}

func (wallClock) Info() Info {
	return Info{
		Implementation: "system wall clock",
		Resolution:     time.Nanosecond,
		Monotonic:      false,
		Adjustable:     true,
	}
}
