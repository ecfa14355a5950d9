// Package cmd holds the audiohal subcommands.
package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/smazurov/audiohal/internal/events"
	"github.com/smazurov/audiohal/internal/logging"
	"github.com/smazurov/audiohal/internal/metrics"
	"github.com/smazurov/audiohal/pkg/coreaudio"
)

// Backends accepted by Session.Backend.
const (
	BackendAuto      = "auto"
	BackendCoreAudio = "coreaudio"
	BackendSim       = "sim"
)

// ErrNoDefaultDevice is returned when a command falls back to the default
// device and the system has none.
var ErrNoDefaultDevice = errors.New("no default device")

// Session carries the parsed HAL settings from the root command to the
// subcommands and opens the HAL on first use.
type Session struct {
	Backend            string
	ConvergenceTimeout time.Duration
	PollInterval       time.Duration
	Bus                *events.Bus

	once sync.Once
	hal  coreaudio.HAL
	sys  *coreaudio.System
	err  error
}

// NewSession creates a session publishing on bus.
func NewSession(bus *events.Bus) *Session {
	return &Session{
		Backend:            BackendAuto,
		ConvergenceTimeout: coreaudio.DefaultConvergenceTimeout,
		PollInterval:       coreaudio.DefaultPollInterval,
		Bus:                bus,
	}
}

// System opens the configured backend once and returns the shared System.
func (s *Session) System() (*coreaudio.System, error) {
	s.once.Do(func() {
		if s.hal == nil {
			s.hal, s.err = openHAL(s.Backend)
			if s.err != nil {
				return
			}
		}
		observers := coreaudio.MultiObserver{metrics.Observer{}}
		if s.Bus != nil {
			observers = append(observers, events.NewObserver(s.Bus))
		}
		s.sys = coreaudio.NewSystem(s.hal,
			coreaudio.WithLogger(logging.GetLogger("coreaudio")),
			coreaudio.WithObserver(observers),
			coreaudio.WithConvergenceTimeout(s.ConvergenceTimeout),
			coreaudio.WithPollInterval(s.PollInterval),
		)
	})
	return s.sys, s.err
}

func openHAL(backend string) (coreaudio.HAL, error) {
	logger := logging.GetLogger("coreaudio")
	switch backend {
	case BackendCoreAudio:
		return coreaudio.NewPlatformHAL()
	case BackendSim:
		logger.Info("Using simulated HAL")
		return coreaudio.NewDemoHAL(), nil
	case BackendAuto, "":
		hal, err := coreaudio.NewPlatformHAL()
		if errors.Is(err, coreaudio.ErrPlatformUnsupported) {
			logger.Warn("Core Audio unavailable, falling back to simulated HAL")
			return coreaudio.NewDemoHAL(), nil
		}
		return hal, err
	default:
		return nil, fmt.Errorf("unknown backend %q (want auto, coreaudio or sim)", backend)
	}
}

// resolveDevice maps a command argument to a device. Empty or "output"
// selects the default output, "input" the default input, a number is taken
// as a device ID and anything else as an exact device name.
func resolveDevice(sys *coreaudio.System, arg string) (coreaudio.DeviceID, error) {
	switch arg {
	case "", "output", "input":
		id, ok := sys.DefaultDeviceID(arg == "input")
		if !ok {
			return coreaudio.UnknownObject, ErrNoDefaultDevice
		}
		return id, nil
	}

	if n, err := strconv.ParseUint(arg, 10, 32); err == nil {
		return coreaudio.DeviceID(n), nil
	}

	id, ok, err := sys.FindDevice(arg)
	if err != nil {
		return coreaudio.UnknownObject, err
	}
	if !ok {
		return coreaudio.UnknownObject, fmt.Errorf("no device named %q", arg)
	}
	return id, nil
}

func deviceArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
