package radio

import (
	"testing"

	"github.com/pkg/errors"
	"gobot.io/x/gobot/gobottest"
)

func TestRDSData(t *testing.T) {
	d, a := startTestSi4709Driver(t, Si4709Config{})
	gobottest.Assert(t, d.SelectChannel(testContext(t), 101100), nil)

	a.setChipReg(ReadChanReg, 0x4000|136)
	a.rdsReady = true
	a.rdsBlocks = [4]uint16{0x3104, 0x0408, 0x4142, 0x4344}

	data, err := d.RDSData(testContext(t))
	gobottest.Assert(t, err, nil)
	gobottest.Assert(t, data, RDSData{
		BlockA:       0x3104,
		BlockB:       0x0408,
		BlockC:       0x4142,
		BlockD:       0x4344,
		Frequency:    101100,
		RSSI:         40,
		BlockBErrors: 1,
	})

	gobottest.Assert(t, a.chipReg(SysConfig1Reg)&SYSCONFIG1_RDSIEN, uint16(0))
	gobottest.Assert(t, d.Signal().Load(), NoWait)
}

func TestRDSDataTimeout(t *testing.T) {
	d, a := startTestSi4709Driver(t, Si4709Config{})
	gobottest.Assert(t, d.SetRDSTimeout(5), nil)
	sysconfig1 := d.regs[SysConfig1Reg]

	_, err := d.RDSData(testContext(t))
	gobottest.Assert(t, errors.Is(err, ErrTimeout), true)
	gobottest.Assert(t, d.regs[SysConfig1Reg], sysconfig1)
	gobottest.Assert(t, a.chipReg(SysConfig1Reg)&SYSCONFIG1_RDSIEN, uint16(0))
	gobottest.Assert(t, d.Signal().Load(), NoWait)
}

func TestRDSDataTimeoutRestoreFailure(t *testing.T) {
	d, a := startTestSi4709Driver(t, Si4709Config{})
	gobottest.Assert(t, d.SetRDSTimeout(5), nil)
	a.failWriteAt = a.writes() + 2

	_, err := d.RDSData(testContext(t))
	gobottest.Assert(t, errors.Is(err, ErrTimeout), true)
	gobottest.Assert(t, errors.Is(err, ErrBus), true)

	// the chip still has the interrupt enabled, and so does the cache
	gobottest.Assert(t, d.regs[SysConfig1Reg]&SYSCONFIG1_RDSIEN != 0, true)
	gobottest.Assert(t, d.Signal().Load(), NoWait)
}

func TestRDSDataEnableFailure(t *testing.T) {
	d, a := startTestSi4709Driver(t, Si4709Config{})
	sysconfig1 := d.regs[SysConfig1Reg]
	a.failWriteAt = a.writes() + 1

	_, err := d.RDSData(testContext(t))
	gobottest.Assert(t, errors.Is(err, ErrBus), true)
	gobottest.Assert(t, d.regs[SysConfig1Reg], sysconfig1)
	gobottest.Assert(t, d.Signal().Load(), NoWait)
}

func TestRDSDataReadFailure(t *testing.T) {
	d, a := startTestSi4709Driver(t, Si4709Config{})
	a.rdsReady = true
	a.failReads = true

	_, err := d.RDSData(testContext(t))
	gobottest.Assert(t, errors.Is(err, ErrBus), true)
	gobottest.Assert(t, a.chipReg(SysConfig1Reg)&SYSCONFIG1_RDSIEN, uint16(0))
}
