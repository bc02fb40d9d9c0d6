// Package display drives the SunFounder LCD1602 I2C character display used
// as the receiver status panel.
package display

import (
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gobot.io/x/gobot"
	"gobot.io/x/gobot/drivers/i2c"
)

const (
	// Address is the default I2C address of the display backpack.
	Address = 0x27

	// Columns and Rows of the display.
	Columns = 16
	Rows    = 2
)

// Backpack control bits, sent in the low nibble of every byte.
const (
	bitRS        = 0x01
	bitEnable    = 0x04
	bitBacklight = 0x08

	modeCommand = bitEnable
	modeData    = bitEnable | bitRS
)

// HD44780 commands.
const (
	cmdClear       = 0x01
	cmdSetDDRAM    = 0x80
	secondRowDDRAM = 0x40
)

var initSequence = []byte{0x33, 0x32, 0x28, 0x0C}

// LCD1602Driver controls the LCD1602 from SunFounder through its PCF8574
// backpack, in 4-bit mode.
//
//goland:noinspection GoUnnecessarilyExportedIdentifiers
type LCD1602Driver struct {
	name         string
	i2cConnector i2c.Connector
	i2c.Config

	i2cAddr int
	sleep   func(time.Duration)

	mtx       sync.Mutex
	conn      i2c.Connection
	backlight bool
}

// Name of our device
func (lcd *LCD1602Driver) Name() string {
	return lcd.name
}

// SetName set the name of our device
func (lcd *LCD1602Driver) SetName(name string) {
	lcd.name = name
}

// Start opens the connection and switches the controller to 4-bit mode.
func (lcd *LCD1602Driver) Start() error {
	lcd.mtx.Lock()
	defer lcd.mtx.Unlock()

	bus := lcd.GetBusOrDefault(lcd.i2cConnector.GetDefaultBus())

	var err error
	lcd.conn, err = lcd.i2cConnector.GetConnection(lcd.GetAddressOrDefault(lcd.i2cAddr), bus)
	if err != nil {
		return errors.Wrap(err, "lcd connection")
	}

	for _, cmd := range initSequence {
		if err = lcd.send(modeCommand, cmd); err != nil {
			return errors.Wrap(err, "lcd init")
		}
		lcd.sleep(5 * time.Millisecond)
	}

	return lcd.clear()
}

// Halt turns the backlight off and clears the screen.
func (lcd *LCD1602Driver) Halt() error {
	lcd.mtx.Lock()
	defer lcd.mtx.Unlock()

	if lcd.conn == nil {
		return nil
	}
	lcd.backlight = false
	return lcd.clear()
}

// Connection retrieves the i2c connection to the device
func (lcd *LCD1602Driver) Connection() gobot.Connection {
	return lcd.i2cConnector.(gobot.Connection)
}

// write puts one byte on the backpack port, with the backlight bit.
func (lcd *LCD1602Driver) write(b byte) error {
	if lcd.backlight {
		b |= bitBacklight
	} else {
		b &^= bitBacklight
	}
	return lcd.conn.WriteByte(b)
}

// send clocks b into the controller as two nibbles, high first.
func (lcd *LCD1602Driver) send(mode byte, b byte) error {
	for _, nibble := range [2]byte{b & 0xF0, b << 4} {
		if err := lcd.write(nibble | mode); err != nil {
			return err
		}
		lcd.sleep(2 * time.Millisecond)

		if err := lcd.write((nibble | mode) &^ bitEnable); err != nil {
			return err
		}
	}
	return nil
}

// SetBacklight turns the screen backlight on or off.
func (lcd *LCD1602Driver) SetBacklight(on bool) error {
	lcd.mtx.Lock()
	defer lcd.mtx.Unlock()

	lcd.backlight = on
	err := lcd.write(0)
	lcd.sleep(2 * time.Millisecond)
	return err
}

// Clear removes any text from the screen.
func (lcd *LCD1602Driver) Clear() error {
	lcd.mtx.Lock()
	defer lcd.mtx.Unlock()

	return lcd.clear()
}

func (lcd *LCD1602Driver) clear() error {
	if err := lcd.send(modeCommand, cmdClear); err != nil {
		return err
	}
	lcd.sleep(2 * time.Millisecond)
	return nil
}

// PrintAt writes text from column x of row y. Coordinates are clamped to the
// screen and the text is cut at the end of the row.
func (lcd *LCD1602Driver) PrintAt(x, y int, text string) error {
	lcd.mtx.Lock()
	defer lcd.mtx.Unlock()

	x, y = clamp(x, 0, Columns-1), clamp(y, 0, Rows-1)
	if len(text) > Columns-x {
		text = text[:Columns-x]
	}
	return lcd.printAt(x, y, text)
}

// Show replaces both rows, padding or cutting each to the screen width.
func (lcd *LCD1602Driver) Show(top, bottom string) error {
	lcd.mtx.Lock()
	defer lcd.mtx.Unlock()

	for y, line := range [Rows]string{top, bottom} {
		if err := lcd.printAt(0, y, fit(line)); err != nil {
			return err
		}
	}
	return nil
}

func (lcd *LCD1602Driver) printAt(x, y int, text string) error {
	if err := lcd.send(modeCommand, byte(cmdSetDDRAM+secondRowDDRAM*y+x)); err != nil {
		return err
	}

	for i := 0; i < len(text); i++ {
		if err := lcd.send(modeData, text[i]); err != nil {
			return err
		}
	}
	return nil
}

func fit(line string) string {
	if len(line) > Columns {
		return line[:Columns]
	}
	return line + strings.Repeat(" ", Columns-len(line))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NewLCD1602Driver creates a new GoBot driver for the status display.
func NewLCD1602Driver(connector i2c.Connector, options ...func(i2c.Config)) (*LCD1602Driver, error) {
	lcd := &LCD1602Driver{
		name:         gobot.DefaultName("LCD1602Driver"),
		i2cConnector: connector,
		Config:       i2c.NewConfig(),
		i2cAddr:      Address,
		sleep:        time.Sleep,
		backlight:    true,
	}

	for _, option := range options {
		option(lcd)
	}

	return lcd, nil
}
