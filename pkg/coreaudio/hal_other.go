//go:build !darwin || !cgo

package coreaudio

// NewPlatformHAL reports ErrPlatformUnsupported; use a SimulatedHAL instead.
func NewPlatformHAL() (HAL, error) {
	return nil, ErrPlatformUnsupported
}
