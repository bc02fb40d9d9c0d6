package radio

import (
	"testing"

	"github.com/pkg/errors"
	"gobot.io/x/gobot/gobottest"
)

func TestInitializeProbeFailure(t *testing.T) {
	d, a := initTestSi4709Driver(Si4709Config{})
	a.failReads = true

	err := d.Initialize(a)
	gobottest.Assert(t, errors.Is(err, ErrBus), true)
	gobottest.Assert(t, d.clientValid, false)

	// the chip is energized, but nothing else is trusted
	err = d.PowerUp()
	gobottest.Assert(t, errors.Is(err, ErrNotInitialized), true)
	gobottest.Assert(t, d.state.Power, PowerOn)
	gobottest.Assert(t, a.chipReg(PowerCfgReg)&POWERCFG_ENABLE != 0, true)
	gobottest.Assert(t, d.valid, false)

	transfers := a.transfers()
	gobottest.Assert(t, errors.Is(d.SetVolume(3), ErrNotInitialized), true)
	gobottest.Assert(t, a.transfers(), transfers)
}

func TestPowerUpEnableFailure(t *testing.T) {
	d, a := initTestSi4709Driver(Si4709Config{})
	a.failWriteAt = 1

	err := d.Start()
	gobottest.Assert(t, errors.Is(err, ErrBus), true)
	gobottest.Assert(t, d.state.Power, PoweredDown)
	gobottest.Assert(t, d.valid, false)
}

func TestPowerUpConfigurationFailure(t *testing.T) {
	d, a := initTestSi4709Driver(Si4709Config{})
	a.failWriteAt = 2

	err := d.Start()
	gobottest.Assert(t, errors.Is(err, ErrBus), true)
	gobottest.Assert(t, d.state.Power, PoweredDown)
	gobottest.Assert(t, d.valid, false)
	gobottest.Assert(t, d.settings.ChannelSpacing, ChannelSpacing(0))

	_, err = d.State()
	gobottest.Assert(t, errors.Is(err, ErrNotInitialized), true)
}

func TestPowerUpTwice(t *testing.T) {
	d, a := startTestSi4709Driver(t, Si4709Config{})
	writes := a.writes()

	gobottest.Assert(t, d.PowerUp(), nil)
	gobottest.Assert(t, a.writes(), writes)
}

func TestPowerDownTwice(t *testing.T) {
	d, a := startTestSi4709Driver(t, Si4709Config{})

	gobottest.Assert(t, d.PowerDown(), nil)
	writes := a.writes()
	gobottest.Assert(t, d.PowerDown(), nil)
	gobottest.Assert(t, a.writes(), writes)
}

func TestPowerDownWriteFailure(t *testing.T) {
	d, a := startTestSi4709Driver(t, Si4709Config{})
	before := d.regs
	resets := a.resets
	a.failWriteAt = a.writes() + 1

	err := d.PowerDown()
	gobottest.Assert(t, errors.Is(err, ErrBus), true)
	gobottest.Assert(t, d.regs, before)
	gobottest.Assert(t, d.state.Power, PowerOn)
	gobottest.Assert(t, a.resets, resets+1)
}

func TestPowerDownWritesThroughTest1(t *testing.T) {
	d, a := startTestSi4709Driver(t, Si4709Config{})

	gobottest.Assert(t, d.PowerDown(), nil)
	gobottest.Assert(t, len(a.written[len(a.written)-1]), 12)
}

func TestPowerCycle(t *testing.T) {
	d, _ := startTestSi4709Driver(t, Si4709Config{})
	gobottest.Assert(t, d.SetVolume(4), nil)

	gobottest.Assert(t, d.PowerDown(), nil)
	gobottest.Assert(t, d.PowerUp(), nil)

	vol, err := d.Volume()
	gobottest.Assert(t, err, nil)
	gobottest.Assert(t, vol, uint8(defaultVolume))
}

func TestSuspendResumeExit(t *testing.T) {
	d, a := initTestSi4709Driver(Si4709Config{})
	gobottest.Assert(t, errors.Is(d.Suspend(), ErrNotInitialized), true)
	gobottest.Assert(t, errors.Is(d.Resume(), ErrNotInitialized), true)

	gobottest.Assert(t, d.Initialize(a), nil)
	transfers := a.transfers()
	gobottest.Assert(t, d.Suspend(), nil)
	gobottest.Assert(t, d.Resume(), nil)
	gobottest.Assert(t, d.Exit(), nil)
	gobottest.Assert(t, a.transfers(), transfers)
	gobottest.Assert(t, d.clientValid, true)
}
