package radio

import "github.com/pkg/errors"

// Error kinds returned by the driver. Match them with errors.Is.
var (
	// ErrNotInitialized is returned when the device state cannot be trusted,
	// either because the reset/probe sequence failed or because the device
	// was never powered up.
	ErrNotInitialized = errors.New("si4709: device not initialized")

	// ErrBus is returned when a burst transfer was short or failed.
	ErrBus = errors.New("si4709: bus transfer failed")

	// ErrBadArgument is returned for values outside the supported presets.
	ErrBadArgument = errors.New("si4709: bad argument")

	// ErrTimeout is returned when RDS data did not arrive in time.
	ErrTimeout = errors.New("si4709: timed out waiting for RDS data")

	// ErrHardwareStuck is returned when the seek/tune complete bit did not
	// clear within the configured number of polls.
	ErrHardwareStuck = errors.New("si4709: seek/tune complete bit did not clear")
)
