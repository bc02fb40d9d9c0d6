package radio

import (
	"fmt"
	"time"

	"gobot.io/x/gobot"
	"gobot.io/x/gobot/drivers/gpio"
)

// DefaultInterruptPin is the header pin wired to GPIO2 of the tuner.
const DefaultInterruptPin = "31"

// DefaultInterruptPoll is how often InterruptDriver samples the pin.
const DefaultInterruptPoll = time.Millisecond

// InterruptDriver watches the GPIO2 line of the tuner. The chip pulls the
// line low when a seek or tune completes or an RDS group is ready; every
// falling edge is reported to the completion signal.
type InterruptDriver struct {
	name       string
	pin        string
	interval   time.Duration
	connection gpio.DigitalReader
	signal     *CompletionSignal
	halt       chan struct{}
	last       int
}

// NewInterruptDriver creates a watcher on pin that resolves signal.
func NewInterruptDriver(reader gpio.DigitalReader, pin string, signal *CompletionSignal, interval ...time.Duration) *InterruptDriver {
	d := &InterruptDriver{
		name:       gobot.DefaultName("Si4709Interrupt"),
		pin:        pin,
		interval:   DefaultInterruptPoll,
		connection: reader,
		signal:     signal,
		halt:       make(chan struct{}),
		last:       high,
	}

	if len(interval) > 0 {
		d.interval = interval[0]
	}
	return d
}

// Name of our device.
func (d *InterruptDriver) Name() string { return d.name }

// SetName set the name of our device.
func (d *InterruptDriver) SetName(n string) { d.name = n }

// Pin returns the watched pin.
func (d *InterruptDriver) Pin() string { return d.pin }

// Connection returns the pin reader.
func (d *InterruptDriver) Connection() gobot.Connection {
	return d.connection.(gobot.Connection)
}

// Start begins polling the pin.
func (d *InterruptDriver) Start() error {
	if d.signal == nil {
		return fmt.Errorf("interrupt driver on pin %s has no completion signal", d.pin)
	}

	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-d.halt:
				return
			case <-ticker.C:
				d.sample()
			}
		}
	}()
	return nil
}

// Halt stops polling the pin.
func (d *InterruptDriver) Halt() error {
	close(d.halt)
	return nil
}

func (d *InterruptDriver) sample() {
	val, err := d.connection.DigitalRead(d.pin)
	if err != nil {
		return
	}
	if d.last == high && val == low {
		d.signal.Interrupt()
	}
	d.last = val
}
