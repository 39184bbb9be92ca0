package clock

import (
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// processClockResolution is the granularity of CPU time accounting on
// common platforms (one scheduler tick).
const processClockResolution = 10 * time.Millisecond

// processClock reads the calling process's consumed CPU time (user +
// system) via gopsutil. When the underlying read fails, the last good
// reading is returned so the clock never appears to go backwards.
type processClock struct {
	mu   sync.Mutex
	proc *process.Process
	last time.Duration
}

// NewProcessCPU returns a clock measuring per-process CPU time.
func NewProcessCPU() Clock {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		proc = nil
	}

	return &processClock{proc: proc}
}

func (c *processClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.proc == nil {
		return c.last
	}

	times, err := c.proc.Times()
	if err != nil {
		return c.last
	}

	reading := time.Duration((times.User + times.System) * float64(time.Second))
	if reading > c.last {
		c.last = reading
	}

	return c.last
}

func (c *processClock) Info() Info {
	return Info{
		Implementation: "process CPU time (gopsutil)",
		Resolution:     processClockResolution,
		Monotonic:      true,
		Adjustable:     false,
	}
}
