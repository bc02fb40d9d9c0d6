// Package radio implements the driver for the Silicon Labs Si4709 FM
// receiver.
//
// The driver keeps an in-memory mirror of the sixteen chip registers and
// talks to the chip in burst transfers: writes always start at POWERCFG,
// reads always start at STATUSRSSI, and both wrap around the end of the
// register bank. Every exported operation holds the driver lock for its
// whole duration, so at most one power, settings, seek, tune or RDS
// operation touches the chip at a time.
//
// Seek, tune and RDS acquisition block until the chip raises its
// STC/RDS interrupt. The interrupt source (see InterruptDriver, or any other
// code watching the GPIO2 line) resolves the wait through the
// CompletionSignal returned by Signal, without taking the driver lock.
//
// The main implementation is under the Si4709Driver and it requires
// some additional configuration via Si4709Config structure.
//
// To read about the specifications of the receiver, read the following documents:
// https://www.silabs.com/documents/public/data-sheets/Si4702-03-C19.pdf
// https://www.silabs.com/documents/public/application-notes/AN230.pdf
package radio

import (
	"fmt"
	"sync"
	"time"

	"gobot.io/x/gobot"
	"gobot.io/x/gobot/drivers/gpio"
	"gobot.io/x/gobot/drivers/i2c"
)

const (
	low  = 0x0
	high = 0x1
)

// Misc constants.
//
//goland:noinspection GoUnusedConst,GoUnnecessarilyExportedIdentifiers
const (
	// Address is the device I2C address.
	Address = 0x10

	// DefaultRDSTimeout is the RDS wait used until SetRDSTimeout is called.
	DefaultRDSTimeout = 100 * time.Millisecond

	// PopDelay is how long to wait before powering down to avoid an
	// audible pop. PowerDown does not wait; Halt does.
	PopDelay = 500 * time.Millisecond

	// powerUpDelay is the oscillator/power-up settle time (datasheet table 7).
	powerUpDelay = 110 * time.Millisecond
)

// PowerState is the power state of the chip.
type PowerState uint8

// Power states.
const (
	PoweredDown PowerState = iota
	PowerOn
)

func (p PowerState) String() string {
	if p == PowerOn {
		return "on"
	}
	return "powered down"
}

// SeekState tells whether a seek or tune is in progress.
type SeekState uint8

// Seek states.
const (
	SeekOff SeekState = iota
	SeekOn
)

func (s SeekState) String() string {
	if s == SeekOn {
		return "seeking"
	}
	return "idle"
}

// State is the externally observable device state.
type State struct {
	Power PowerState
	Seek  SeekState
}

// Si4709Driver holds the implementation to talk to the
// Si4709 FM receiver.
//
//goland:noinspection GoUnnecessarilyExportedIdentifiers
type Si4709Driver struct {
	name     string
	resetPin string

	i2cAddr      int
	i2cConnector i2c.Connector
	i2c.Config
	resetLine gpio.DigitalWriter

	debugMode          bool
	debugLog           func(format string, v ...interface{})
	log                func(format string, v ...interface{})
	strictStationCheck bool
	maxBusyPolls       int
	sleep              func(time.Duration)

	// mtx guards every field below. signal is the one exception: it is
	// shared with the interrupt source, which must never take mtx.
	mtx         sync.Mutex
	conn        Transport
	regs        RegisterFile
	settings    Settings
	state       State
	clientValid bool
	valid       bool

	signal *CompletionSignal
}

// Name of our device.
func (s *Si4709Driver) Name() string {
	return s.name
}

// SetName set the name of our device.
func (s *Si4709Driver) SetName(name string) {
	s.name = name
}

// Start opens the i2c connection, resets and probes the chip and powers it
// up with the default configuration.
func (s *Si4709Driver) Start() error {
	bus := s.GetBusOrDefault(s.i2cConnector.GetDefaultBus())
	conn, err := s.i2cConnector.GetConnection(s.GetAddressOrDefault(s.i2cAddr), bus)
	if err != nil {
		return err
	}

	if err = s.Initialize(conn); err != nil {
		return err
	}

	if err = s.PowerUp(); err != nil {
		return err
	}

	if s.debugMode {
		s.debugLog("Si4709 on bus %d powered up\n", bus)
	}
	return nil
}

// Halt stops the device in a graceful way.
func (s *Si4709Driver) Halt() error {
	s.mtx.Lock()
	valid := s.valid
	s.mtx.Unlock()
	if !valid {
		return nil
	}

	s.sleep(PopDelay)
	return s.PowerDown()
}

// Connection retrieves the i2c connection to the device.
func (s *Si4709Driver) Connection() gobot.Connection {
	return s.i2cConnector.(gobot.Connection)
}

// Signal returns the completion signal that the interrupt source must
// resolve. It is safe to use from any goroutine.
func (s *Si4709Driver) Signal() *CompletionSignal {
	return s.signal
}

// Interrupt reports the chip STC/RDS interrupt.
func (s *Si4709Driver) Interrupt() {
	s.signal.Interrupt()
}

// CancelSeek aborts a seek in progress. The seek returns frequency 0.
func (s *Si4709Driver) CancelSeek() {
	s.signal.CancelSeek()
}

// pulseReset toggles the reset line low then high, holding each level for
// the given durations.
func (s *Si4709Driver) pulseReset(lowFor, highFor time.Duration) error {
	if s.resetLine == nil {
		return fmt.Errorf("i2c connector does not have a digital writer capability")
	}

	if err := s.resetLine.DigitalWrite(s.resetPin, low); err != nil {
		return err
	}
	if lowFor > 0 {
		s.sleep(lowFor)
	}

	if err := s.resetLine.DigitalWrite(s.resetPin, high); err != nil {
		return err
	}
	if highFor > 0 {
		s.sleep(highFor)
	}
	return nil
}

// Si4709Config holds the additional configuration needed for Si4709Driver.
type Si4709Config struct {
	ResetPin  string
	DebugMode bool

	// ResetLine drives the reset pin. When nil the i2c connector is used,
	// if it can write digital pins.
	ResetLine gpio.DigitalWriter

	// StrictStationCheck accepts a seek result only when the chip reports
	// seek/tune complete without a seek failure or band limit.
	StrictStationCheck bool

	// MaxBusyPolls bounds the status polling after a seek or tune. Zero
	// polls until the chip clears its complete bit.
	MaxBusyPolls int

	// Sleep replaces time.Sleep for the reset and power-up delays.
	Sleep func(time.Duration)

	DebugLog func(format string, v ...interface{})
	Log      func(format string, v ...interface{})
}

// Validate ensures that our Si4709Driver configuration is valid.
//noinspection GoUnnecessarilyExportedIdentifiers
func (c *Si4709Config) Validate() error {
	if c.Log == nil {
		panic("logging function cannot be nil. Use something like log.Printf or an empty function instead")
	}
	if c.DebugMode && c.DebugLog == nil {
		panic("cannot use debugging mode without configuring a DebugLog function, e.g. log.Printf")
	}
	if c.DebugLog == nil {
		c.DebugLog = func(string, ...interface{}) {}
	}

	if c.ResetPin == "" {
		c.ResetPin = "29"
	}

	if c.MaxBusyPolls < 0 {
		return fmt.Errorf("max busy polls %d must not be negative", c.MaxBusyPolls)
	}

	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}

	return nil
}

// NewSi4709Driver creates a new GoBot driver for our FM receiver.
func NewSi4709Driver(connector i2c.Connector, cfg Si4709Config, options ...func(i2c.Config)) (*Si4709Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := &Si4709Driver{
		name:         gobot.DefaultName("Si4709Driver"),
		i2cConnector: connector,
		Config:       i2c.NewConfig(),
		i2cAddr:      Address,
		resetLine:    cfg.ResetLine,

		resetPin:           cfg.ResetPin,
		debugMode:          cfg.DebugMode,
		strictStationCheck: cfg.StrictStationCheck,
		maxBusyPolls:       cfg.MaxBusyPolls,
		sleep:              cfg.Sleep,
		log:                cfg.Log,
		debugLog:           cfg.DebugLog,

		settings: Settings{RDSTimeout: DefaultRDSTimeout},
		signal:   NewCompletionSignal(),
	}

	if res.resetLine == nil {
		if dw, ok := connector.(gpio.DigitalWriter); ok {
			res.resetLine = dw
		}
	}

	for _, option := range options {
		option(res)
	}

	return res, nil
}
