package queue

import (
	"time"

	"github.com/hatchline/recruitpulse/errors"
)

// retryCheckInterval is the re-check hint reported when the rolling-hour cap
// is hit mid-window.
const retryCheckInterval = 10 * time.Minute

// GateConfig bounds dispatching: a rolling-hour call cap inside a
// working-hour window [StartHour, EndHour) in local time.
type GateConfig struct {
	MaxCallsPerHour int
	StartHour       int
	EndHour         int
}

// Verdict is a rate gate decision.
type Verdict struct {
	Allowed         bool
	Reason          string
	NextEligibleAt  time.Time
	CallsInLastHour int
	RemainingSlots  int
}

// RateGate decides whether a call may be dispatched right now. It is a pure
// function of the queue store and the clock; it holds no state of its own.
type RateGate struct {
	store   *Store
	config  GateConfig
	timeNow func() time.Time // Injectable for testing
}

// NewRateGate creates a rate gate with real time
func NewRateGate(store *Store, config GateConfig) *RateGate {
	return NewRateGateWithClock(store, config, time.Now)
}

// NewRateGateWithClock creates a rate gate with injectable clock (for testing)
func NewRateGateWithClock(store *Store, config GateConfig, timeNow func() time.Time) *RateGate {
	return &RateGate{store: store, config: config, timeNow: timeNow}
}

// CanDispatch reports whether a call may go out now. Denials carry the next
// eligible time: the next window start when outside working hours, or a
// fixed re-check interval when the rolling-hour cap is hit.
func (g *RateGate) CanDispatch() (*Verdict, error) {
	now := g.timeNow()

	if !g.inWindow(now) {
		return &Verdict{
			Allowed:        false,
			Reason:         "outside working hours",
			NextEligibleAt: g.NextWindowStart(now),
		}, nil
	}

	calls, err := g.store.CountCompletedSince(now.Add(-time.Hour))
	if err != nil {
		return nil, errors.Wrap(err, "failed to count calls in window")
	}

	if calls >= g.config.MaxCallsPerHour {
		return &Verdict{
			Allowed:         false,
			Reason:          "hourly call limit reached",
			NextEligibleAt:  now.Add(retryCheckInterval),
			CallsInLastHour: calls,
		}, nil
	}

	return &Verdict{
		Allowed:         true,
		CallsInLastHour: calls,
		RemainingSlots:  g.config.MaxCallsPerHour - calls,
	}, nil
}

func (g *RateGate) inWindow(t time.Time) bool {
	return t.Hour() >= g.config.StartHour && t.Hour() < g.config.EndHour
}

// NextWindowStart returns the start of the current window when t is before
// it, otherwise the start of tomorrow's window.
func (g *RateGate) NextWindowStart(t time.Time) time.Time {
	start := time.Date(t.Year(), t.Month(), t.Day(), g.config.StartHour, 0, 0, 0, t.Location())
	if t.Hour() < g.config.StartHour {
		return start
	}
	return start.AddDate(0, 0, 1)
}
