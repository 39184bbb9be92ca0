package clock

import "time"

// Stepped is a manually-advanced clock for deterministic tests. It only
// moves when the test advances it, so elapsed times are exact.
type Stepped struct {
	reading    time.Duration
	adjustable bool
}

// NewStepped returns a stepped clock that behaves like a monotonic
// source: tests advance it forward with Advance.
func NewStepped() *Stepped {
	return &Stepped{}
}

// NewSteppedAdjustable returns a stepped clock that reports itself as
// adjustable, for exercising clock-adjustment edge cases (readings may
// be set backwards with Set).
func NewSteppedAdjustable() *Stepped {
	return &Stepped{adjustable: true}
}

// Now returns the current reading.
func (s *Stepped) Now() time.Duration {
	return s.reading
}

// Advance moves the reading forward by d.
func (s *Stepped) Advance(d time.Duration) {
	s.reading += d
}

// Set replaces the reading. Setting a reading lower than the current one
// models an external clock step and is only meaningful on adjustable
// stepped clocks.
func (s *Stepped) Set(d time.Duration) {
	s.reading = d
}

// Info describes the stepped clock.
func (s *Stepped) Info() Info {
	return Info{
		Implementation: "stepped test clock",
		Resolution:     time.Nanosecond,
		Monotonic:      !s.adjustable,
		Adjustable:     s.adjustable,
	}
}
