// Package timer implements the tic/toc pairing engine. A Session
// consumes interleaved Tic and Toc calls, resolves them into completed
// intervals ordered by Tic call order, and derives per-label statistics
// and a percentage report.
//
// Supported timing schemes, all resolved uniformly per call with no
// upfront declaration:
//
//	Consecutive:  Tic("A"), Toc(), Tic("B"), Toc()
//	Nested:       Tic("A"), Tic("B"), Toc(), Toc()
//	Cascade:      Tic("A"), Tic("B"), Tic("C"), Toc(), Toc(), Toc()
//	Label-paired: Tic("A"), Tic("B"), Toc("A"), Toc("B")
//	Mixed:        any combination of the above
//
// A Session is not goroutine-safe: use one per goroutine or serialize
// access externally.
package timer

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/joosthooz/smarttimers/pkg/clock"
	"github.com/joosthooz/smarttimers/pkg/logger"
)

var (
	// ErrUnknownLabel is returned when a Toc or lookup names a label with
	// no matching open tic, or when Toc is called with nothing open.
	ErrUnknownLabel = errors.New("no matching tic")

	// ErrIncompatibleClocks is returned when measurements from sessions
	// on incompatible clocks would be combined.
	ErrIncompatibleClocks = errors.New("incompatible clocks")

	// ErrInvalidName is returned for an empty session name.
	ErrInvalidName = errors.New("session name must be non-empty")

	// ErrNegativeElapsed is returned when a toc produces a negative
	// elapsed time on a clock that is not adjustable.
	ErrNegativeElapsed = errors.New("negative elapsed time")
)

// DefaultName is the session name used when none is configured. It only
// labels exported output; it carries no identity semantics.
const DefaultName = "smarttimers"

// pendingMark is an open tic awaiting its resolving toc.
type pendingMark struct {
	label string
	start time.Duration

	// slot is the index reserved in Session.slots at tic time, so the
	// finished interval lands in tic order no matter when it closes.
	slot int
}

// Session owns an ordered collection of completed intervals and a stack
// of pending marks. Interval order always reflects Tic call order, not
// completion order.
type Session struct {
	name    string
	clockID string
	clk     clock.Clock
	log     logger.Logger

	// slots holds one entry per tic, nil until the owning mark closes.
	slots []*Interval

	// stack holds open marks in tic order; the top is the last element.
	stack []pendingMark

	autoSeq  int
	firstTic time.Duration
	lastToc  time.Duration
	hasTic   bool
	hasToc   bool
}

// Option configures a Session.
type Option func(*Session) error

// WithName sets the session name used to label exported output.
func WithName(name string) Option {
	return func(s *Session) error {
		if name == "" {
			return ErrInvalidName
		}

		s.name = name

		return nil
	}
}

// WithClock resolves clockID from the registry and uses it for all
// readings.
func WithClock(registry *clock.Registry, clockID string) Option {
	return func(s *Session) error {
		c, err := registry.Resolve(clockID)
		if err != nil {
			return err
		}

		s.clk = c
		s.clockID = clockID

		return nil
	}
}

// WithClockSource injects a clock directly, bypassing the registry.
// Intended for tests that need a deterministic source.
func WithClockSource(c clock.Clock) Option {
	return func(s *Session) error {
		if c == nil {
			return errors.Wrap(clock.ErrInvalidClock, "nil clock source")
		}

		s.clk = c
		s.clockID = c.Info().Implementation

		return nil
	}
}

// WithLogger attaches a logger that records tic/toc events at debug
// level.
func WithLogger(log logger.Logger) Option {
	return func(s *Session) error {
		s.log = log

		return nil
	}
}

// New creates an empty session. Without options it is named DefaultName
// and reads the default registry's monotonic clock.
func New(opts ...Option) (*Session, error) {
	s := &Session{
		name: DefaultName,
		log:  logger.NewNoOpLogger(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, errors.Wrap(err, "configuring session")
		}
	}

	if s.clk == nil {
		c, err := clock.DefaultRegistry().Resolve(clock.DefaultID)
		if err != nil {
			return nil, err
		}

		s.clk = c
		s.clockID = clock.DefaultID
	}

	return s, nil
}

// Name returns the session name.
func (s *Session) Name() string {
	return s.name
}

// ClockID returns the ID or description of the session's clock.
func (s *Session) ClockID() string {
	return s.clockID
}

// ClockInfo returns the session clock's metadata.
func (s *Session) ClockInfo() clock.Info {
	return s.clk.Info()
}

// Tic starts measuring a code block and returns the label assigned to
// it. An empty label gets an auto-generated one, unique among the open
// marks. The clock is read as late as possible to keep bookkeeping
// noise out of the measurement.
func (s *Session) Tic(label string) string {
	if label == "" {
		label = s.nextAutoLabel()
	}

	slot := len(s.slots)
	s.slots = append(s.slots, nil)
	s.stack = append(s.stack, pendingMark{label: label, slot: slot})

	s.log.Debug("tic", "label", label, "depth", len(s.stack))

	start := s.clk.Now()
	s.stack[len(s.stack)-1].start = start

	if !s.hasTic {
		s.hasTic = true
		s.firstTic = start
	}

	return label
}

// Toc stops measuring a code block and returns the completed interval.
// The clock is read first, before any resolution work.
//
// Resolution order:
//  1. A non-empty label matching an open mark anywhere in the stack
//     closes that mark (the most recently opened instance when the
//     label is open more than once), splicing the interval into its
//     original tic-order position.
//  2. An empty label pops the top of the stack (LIFO), which covers
//     nested and cascade schemes uniformly.
//  3. Otherwise the call fails with ErrUnknownLabel. In particular, a
//     Toc with nothing open is a hard error, not a no-op: every
//     interval must come from a resolved tic.
func (s *Session) Toc(label string) (Interval, error) {
	end := s.clk.Now()

	idx, err := s.findMark(label)
	if err != nil {
		return Interval{}, err
	}

	mark := s.stack[idx]

	elapsed := end - mark.start
	adjusted := false

	if elapsed < 0 {
		if !s.clk.Info().Adjustable {
			return Interval{}, errors.Wrapf(ErrNegativeElapsed,
				"label %q elapsed %v on non-adjustable clock %q",
				mark.label, elapsed, s.clockID)
		}

		adjusted = true
	}

	s.stack = append(s.stack[:idx], s.stack[idx+1:]...)

	iv := Interval{
		Label:         mark.label,
		Start:         mark.start,
		End:           end,
		Elapsed:       elapsed,
		ClockAdjusted: adjusted,
	}
	s.slots[mark.slot] = &iv

	s.lastToc = end
	s.hasToc = true

	s.log.Debug("toc", "label", mark.label, "elapsed", elapsed, "depth", len(s.stack))

	return iv, nil
}

// nextAutoLabel generates a label for an unlabeled tic. Candidates
// already used by an open mark are skipped, so a label-paired toc can
// never close an auto block in place of a caller-named one.
func (s *Session) nextAutoLabel() string {
	for {
		label := fmt.Sprintf("block%d", s.autoSeq)
		s.autoSeq++

		if !s.labelOpen(label) {
			return label
		}
	}
}

// labelOpen reports whether an open mark carries label.
func (s *Session) labelOpen(label string) bool {
	for _, m := range s.stack {
		if m.label == label {
			return true
		}
	}

	return false
}

// findMark locates the pending mark a toc resolves. Label lookups scan
// from the top so a re-opened label resolves to its most recent tic.
func (s *Session) findMark(label string) (int, error) {
	if label != "" {
		for i := len(s.stack) - 1; i >= 0; i-- {
			if s.stack[i].label == label {
				return i, nil
			}
		}

		return 0, errors.Wrapf(ErrUnknownLabel, "label %q is not open", label)
	}

	if len(s.stack) == 0 {
		return 0, errors.Wrap(ErrUnknownLabel, "toc without open tic")
	}

	return len(s.stack) - 1, nil
}

// Merge appends another session's completed intervals, preserving their
// order after this session's own. It fails when the two sessions read
// incompatible clocks, since their elapsed times would not be
// comparable.
func (s *Session) Merge(other *Session) error {
	if !clock.Compatible(s.clk, other.clk) {
		return errors.Wrapf(ErrIncompatibleClocks, "%q and %q", s.clockID, other.clockID)
	}

	for _, iv := range other.slots {
		if iv == nil {
			continue
		}

		merged := *iv
		s.slots = append(s.slots, &merged)
	}

	return nil
}

// Reset discards all completed intervals and pending marks. The clock
// configuration is untouched.
func (s *Session) Reset() {
	s.slots = nil
	s.stack = nil
	s.autoSeq = 0
	s.hasTic = false
	s.hasToc = false
	s.firstTic = 0
	s.lastToc = 0
}

// ClearPending discards unresolved marks without error. Use it to
// recover when a panic or early return escaped a measured block before
// its toc. Completed intervals are kept.
func (s *Session) ClearPending() {
	if len(s.stack) == 0 {
		return
	}

	s.stack = nil
	s.dropSlots(func(iv *Interval) bool { return iv == nil })
}

// dropSlots removes every slot matching pred and remaps the slot index
// of any mark still open.
func (s *Session) dropSlots(pred func(*Interval) bool) int {
	oldToNew := make([]int, len(s.slots))
	kept := make([]*Interval, 0, len(s.slots))
	removed := 0

	for i, iv := range s.slots {
		if pred(iv) {
			oldToNew[i] = -1
			removed++

			continue
		}

		oldToNew[i] = len(kept)
		kept = append(kept, iv)
	}

	s.slots = kept

	for j := range s.stack {
		s.stack[j].slot = oldToNew[s.stack[j].slot]
	}

	return removed
}
