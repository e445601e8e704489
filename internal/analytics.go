package internal

import (
	"context"
	"time"
)

// Defaults for the simulated analytics connection
const (
	SimulatedUser          = "simulated.user@example.com"
	DefaultSimulatedDelay  = 700 * time.Millisecond
	simulatedConnectedText = "Successfully 'connected' to Google Analytics (Simulated)."
)

// SimulatedAnalytics stands in for a live analytics account. It never
// touches the network.
type SimulatedAnalytics struct {
	Delay time.Duration
	User  string
}

// NewSimulatedAnalytics returns a connector with the default delay and user
func NewSimulatedAnalytics() *SimulatedAnalytics {
	return &SimulatedAnalytics{Delay: DefaultSimulatedDelay, User: SimulatedUser}
}

// Connect waits out the simulated handshake and returns the dataset
// marker for ga4 mode
func (s *SimulatedAnalytics) Connect(ctx context.Context) (*Dataset, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	user := s.User
	if user == "" {
		user = SimulatedUser
	}
	return &Dataset{Mode: ModeGA4, User: user}, nil
}
