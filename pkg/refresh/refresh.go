// Package refresh keeps a motor command asserted by reissuing it at a
// fixed cadence. Some control modes do not latch a command
// indefinitely: a target that is not refreshed times out, loses bus
// arbitration, or simply stops being tracked. Hold compensates by
// reissuing the command for a bounded session, draining the bus
// between issuances so status frames keep flowing.
package refresh

import (
	"fmt"
	"math"
	"time"
)

// Swapped out in tests.
var (
	timeNow   = time.Now
	timeSleep = time.Sleep
)

// Session holds the temporal parameters of one refresh run. A Session
// is constructed per run and holds no state between runs.
type Session struct {
	// Duration is the total time the command is held.
	Duration time.Duration

	// Rate is the number of command issuances per second.
	Rate int

	// PollTimeout bounds each per-cycle receive drain. Zero means
	// one period, so polling never starves the next issuance.
	PollTimeout time.Duration
}

// Steps returns the number of command issuances for the session:
// max(1, round(duration * rate)). A rate of zero or below clamps to a
// single issuance.
func (s Session) Steps() int {
	if s.Rate <= 0 {
		return 1
	}
	n := int(math.Round(s.Duration.Seconds() * float64(s.Rate)))
	if n < 1 {
		n = 1
	}
	return n
}

// Period returns the interval between issuances, zero when the rate is
// not positive.
func (s Session) Period() time.Duration {
	if s.Rate <= 0 {
		return 0
	}
	return time.Second / time.Duration(s.Rate)
}

func (s Session) pollTimeout() time.Duration {
	if s.PollTimeout > 0 {
		return s.PollTimeout
	}
	return s.Period()
}

// Target is one motor command plus the receive drain that follows it.
type Target interface {
	// Issue sends the command once.
	Issue() error

	// Poll drains pending status frames for at most timeout.
	Poll(timeout time.Duration) error
}

// Hold reissues the target's command for the whole session: issue,
// poll, then sleep to the next period boundary. The sleep is computed
// from the previous deadline rather than a full period, so poll
// latency does not accumulate as cadence drift.
//
// The first error from Issue or Poll aborts the run and propagates;
// there is no retry. Hold returns the number of completed issuances.
func Hold(t Target, s Session) (int, error) {
	steps := s.Steps()
	period := s.Period()
	timeout := s.pollTimeout()

	next := timeNow()
	for i := 0; i < steps; i++ {
		if err := t.Issue(); err != nil {
			return i, fmt.Errorf("issue command %d/%d: %w", i+1, steps, err)
		}
		if err := t.Poll(timeout); err != nil {
			return i + 1, fmt.Errorf("poll after command %d/%d: %w", i+1, steps, err)
		}

		next = next.Add(period)
		if d := next.Sub(timeNow()); d > 0 {
			timeSleep(d)
		}
	}

	return steps, nil
}

// Setter is a continuously positionable target.
type Setter interface {
	// Set commands an intermediate value.
	Set(value float64) error

	// Poll drains pending status frames for at most timeout.
	Poll(timeout time.Duration) error
}

// defaultRampPoll bounds the per-step receive drain when the session
// does not set one.
const defaultRampPoll = 50 * time.Millisecond

// RampSession holds the parameters of one stepwise ramp.
type RampSession struct {
	// Steps is the number of intermediate issuances. Zero or below
	// falls back to a single step.
	Steps int

	// PollTimeout bounds each per-step receive drain. Zero means
	// 50ms, so an unset session still collects status between steps.
	PollTimeout time.Duration

	// StepDelay is an extra sleep between steps, stretching the
	// motion out.
	StepDelay time.Duration
}

func (s RampSession) pollTimeout() time.Duration {
	if s.PollTimeout > 0 {
		return s.PollTimeout
	}
	return defaultRampPoll
}

// Ramp moves the target from start to end in equal increments,
// polling and pausing between steps. The value issued on the final
// step is exactly the target (start + delta*steps == target). The
// first error aborts the ramp and propagates. Ramp returns the number
// of completed issuances.
func Ramp(t Setter, start, target float64, s RampSession) (int, error) {
	steps := s.Steps
	if steps <= 0 {
		steps = 1
	}
	delta := (target - start) / float64(steps)
	timeout := s.pollTimeout()

	for i := 1; i <= steps; i++ {
		v := start + delta*float64(i)
		if err := t.Set(v); err != nil {
			return i - 1, fmt.Errorf("set %.4f (step %d/%d): %w", v, i, steps, err)
		}
		if err := t.Poll(timeout); err != nil {
			return i, fmt.Errorf("poll (step %d/%d): %w", i, steps, err)
		}
		if s.StepDelay > 0 {
			timeSleep(s.StepDelay)
		}
	}

	return steps, nil
}
