package coreaudio

import (
	"log/slog"
	"time"
)

// Default reconfiguration timing.
const (
	DefaultConvergenceTimeout = time.Second
	DefaultPollInterval       = 100 * time.Millisecond
)

// confirmationBuffer sizes the channel a reconfiguration waits on. The
// listener never blocks the platform thread, so a burst larger than this is
// dropped and reported.
const confirmationBuffer = 16

// System is the entry point for device enumeration and reconfiguration on
// one HAL.
type System struct {
	hal                HAL
	logger             *slog.Logger
	observer           Observer
	convergenceTimeout time.Duration
	pollInterval       time.Duration
}

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *System) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver installs an observer for reconfiguration and listener events.
func WithObserver(observer Observer) Option {
	return func(s *System) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithConvergenceTimeout bounds how long a reconfiguration waits for the
// device to confirm. Default is one second.
func WithConvergenceTimeout(d time.Duration) Option {
	return func(s *System) {
		if d > 0 {
			s.convergenceTimeout = d
		}
	}
}

// WithPollInterval sets the per-attempt receive timeout inside the
// convergence wait. Default is 100ms.
func WithPollInterval(d time.Duration) Option {
	return func(s *System) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// NewSystem wraps hal.
func NewSystem(hal HAL, opts ...Option) *System {
	s := &System{
		hal:                hal,
		logger:             slog.Default(),
		observer:           nopObserver{},
		convergenceTimeout: DefaultConvergenceTimeout,
		pollInterval:       DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HAL returns the underlying property service.
func (s *System) HAL() HAL {
	return s.hal
}
