package coreaudio

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// SetSampleRate changes the nominal sample rate of a device and blocks until
// the device confirms the change, the convergence timeout expires or ctx is
// done.
//
// Requesting the current rate returns immediately without touching the
// device. Rates that are not finite, below 1 Hz or at least 2^32 Hz are
// rejected before the device is read. Only rates the device lists as discrete values are accepted;
// others fail with ErrUnsupportedSampleRate before anything is written. A
// device that never confirms yields a *ConvergenceError. The device is left
// wherever it settled; nothing is rolled back.
func (s *System) SetSampleRate(ctx context.Context, device DeviceID, rate float64) (err error) {
	res := ReconfigureResult{Kind: KindSampleRate, Device: device, Target: fmt.Sprintf("%g Hz", rate)}
	start := time.Now()
	defer func() { s.finish(&res, start, err) }()

	if !validSampleRate(rate) {
		res.Outcome = OutcomeRejected
		return fmt.Errorf("%w: %g Hz is out of range", ErrUnsupportedSampleRate, rate)
	}

	current, err := s.NominalSampleRate(device)
	if err != nil {
		return err
	}
	if RatesEqual(current, rate) {
		res.Outcome = OutcomeUnchanged
		return nil
	}

	ranges, err := s.AvailableSampleRates(device)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(ranges, func(r ValueRange) bool { return r.IsDiscrete(rate) })
	if i < 0 {
		res.Outcome = OutcomeRejected
		return fmt.Errorf("%w: %g Hz is not offered by device %d", ErrUnsupportedSampleRate, rate, device)
	}

	confirmations := make(chan float64, confirmationBuffer)
	listener := NewRateListener(s, device, confirmations)
	if err = listener.Register(); err != nil {
		return err
	}
	defer listener.Close()

	s.logger.Debug("Requesting sample rate change", "device", device, "from", current, "to", rate)
	if err = SetProperty(s.hal, device, nominalSampleRateAddress, ranges[i].Minimum); err != nil {
		return err
	}

	last, seen, err := awaitConvergence(ctx, s, confirmations, func(v float64) bool { return RatesEqual(v, rate) })
	res.Notifications = seen
	if errors.Is(err, ErrNotConverged) {
		return &ConvergenceError{
			Kind:          KindSampleRate,
			Device:        device,
			Target:        res.Target,
			Last:          fmt.Sprintf("%g Hz", last),
			Notifications: seen,
			Waited:        time.Since(start),
		}
	}
	return err
}

// SetPhysicalFormat changes the physical stream format of a device and
// blocks until the device reports an equal format (see FormatsEqual), the
// convergence timeout expires or ctx is done. Incomplete descriptors are
// rejected before any HAL call.
func (s *System) SetPhysicalFormat(ctx context.Context, device DeviceID, format StreamFormat) (err error) {
	res := ReconfigureResult{Kind: KindPhysicalFormat, Device: device, Target: format.String()}
	start := time.Now()
	defer func() { s.finish(&res, start, err) }()

	if err = format.Validate(); err != nil {
		res.Outcome = OutcomeRejected
		return err
	}

	current, err := s.PhysicalFormat(device)
	if err != nil {
		return err
	}
	if FormatsEqual(current, format) {
		res.Outcome = OutcomeUnchanged
		return nil
	}

	confirmations := make(chan StreamFormat, confirmationBuffer)
	listener := NewFormatListener(s, device, confirmations)
	if err = listener.Register(); err != nil {
		return err
	}
	defer listener.Close()

	s.logger.Debug("Requesting physical format change", "device", device, "from", current.String(), "to", format.String())
	if err = SetProperty(s.hal, device, physicalFormatAddress, format); err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			res.Outcome = OutcomeRejected
		}
		return err
	}

	last, seen, err := awaitConvergence(ctx, s, confirmations, func(v StreamFormat) bool { return FormatsEqual(v, format) })
	res.Notifications = seen
	if errors.Is(err, ErrNotConverged) {
		return &ConvergenceError{
			Kind:          KindPhysicalFormat,
			Device:        device,
			Target:        res.Target,
			Last:          last.String(),
			Notifications: seen,
			Waited:        time.Since(start),
		}
	}
	return err
}

// awaitConvergence receives confirmations until one matches. Each receive
// waits at most the poll interval; the overall deadline is checked after
// every attempt, so irrelevant notifications and silence are both
// tolerated.
func awaitConvergence[T any](ctx context.Context, s *System, confirmations <-chan T, match func(T) bool) (last T, seen int, err error) {
	deadline := time.Now().Add(s.convergenceTimeout)
	poll := time.NewTimer(s.pollInterval)
	defer poll.Stop()

	for {
		select {
		case v := <-confirmations:
			last = v
			seen++
			if match(v) {
				return last, seen, nil
			}
		case <-poll.C:
		case <-ctx.Done():
			return last, seen, ctx.Err()
		}

		if !time.Now().Before(deadline) {
			return last, seen, ErrNotConverged
		}
		poll.Reset(s.pollInterval)
	}
}

// finish classifies the result and reports it to the observer.
func (s *System) finish(res *ReconfigureResult, start time.Time, err error) {
	res.Duration = time.Since(start)
	res.Err = err
	if res.Outcome == "" {
		var convergence *ConvergenceError
		switch {
		case err == nil:
			res.Outcome = OutcomeConverged
		case errors.As(err, &convergence):
			res.Outcome = OutcomeTimeout
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			res.Outcome = OutcomeCanceled
		default:
			res.Outcome = OutcomeFailed
		}
	}

	logger := s.logger.With("kind", string(res.Kind), "device", res.Device, "target", res.Target,
		"outcome", string(res.Outcome), "duration", res.Duration)
	switch res.Outcome {
	case OutcomeConverged:
		logger.Info("Device reconfigured", "notifications", res.Notifications)
	case OutcomeUnchanged:
		logger.Debug("Device already configured")
	default:
		logger.Warn("Device reconfiguration failed", "error", err)
	}
	s.observer.ReconfigureFinished(*res)
}
