package radio

import (
	"errors"
	"fmt"
	"sync"

	"gobot.io/x/gobot/drivers/i2c"
)

var errInjected = errors.New("injected bus failure")

// simStation is a station the simulated chip stops on during a seek.
type simStation struct {
	channel uint16
	rssi    uint8
}

// I2CTestAdaptor simulates an Si4709 behind an i2c connection. Burst writes
// land in the chip bank from POWERCFG on, burst reads are served from
// STATUSRSSI on, both wrapping at the end of the bank.
type I2CTestAdaptor struct {
	name          string
	mtx           sync.Mutex
	i2cConnectErr bool

	chip    RegisterFile
	written [][]byte
	reads   int
	resets  int
	pins    map[string]byte

	// failWriteAt makes the n-th write (1-based) fail; 0 never fails.
	failWriteAt int
	failReads   bool
	shortWrites bool

	// signal is resolved when a write starts a tune, seek or RDS wait.
	signal      *CompletionSignal
	cancelSeek  bool
	stations    []simStation
	seekChannel uint16
	seekFail    bool
	rssi        uint8
	rdsReady    bool
	rdsBlocks   [4]uint16
	stuck       bool

	i2cReadImpl  func(*I2CTestAdaptor, []byte) (int, error)
	i2cWriteImpl func(*I2CTestAdaptor, []byte) (int, error)
}

func (t *I2CTestAdaptor) DigitalWrite(pin string, val byte) (err error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.pins == nil {
		t.pins = map[string]byte{}
	}
	if val == low {
		t.resets++
	}
	t.pins[pin] = val
	return nil
}

func (t *I2CTestAdaptor) Read(b []byte) (count int, err error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.reads++
	return t.i2cReadImpl(t, b)
}

func (t *I2CTestAdaptor) Write(b []byte) (count int, err error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	buf := make([]byte, len(b))
	copy(buf, b)
	t.written = append(t.written, buf)
	return t.i2cWriteImpl(t, b)
}

func (t *I2CTestAdaptor) Close() error {
	return nil
}

func (t *I2CTestAdaptor) ReadByte() (val byte, err error) {
	bytes := []byte{0}
	bytesRead, err := t.Read(bytes)
	if err != nil {
		return 0, err
	}
	if bytesRead != 1 {
		return 0, fmt.Errorf("buffer underrun")
	}
	return bytes[0], nil
}

func (t *I2CTestAdaptor) ReadByteData( /* reg */ uint8) (val uint8, err error) {
	return t.ReadByte()
}

func (t *I2CTestAdaptor) ReadWordData( /* reg */ uint8) (val uint16, err error) {
	bytes := []byte{0, 0}
	bytesRead, err := t.Read(bytes)
	if err != nil {
		return 0, err
	}
	if bytesRead != 2 {
		return 0, fmt.Errorf("buffer underrun")
	}
	return uint16(bytes[0])<<8 | uint16(bytes[1]), nil
}

func (t *I2CTestAdaptor) WriteByte(val byte) (err error) {
	_, err = t.Write([]byte{val})
	return
}

func (t *I2CTestAdaptor) WriteByteData(reg uint8, val uint8) (err error) {
	_, err = t.Write([]byte{reg, val})
	return
}

func (t *I2CTestAdaptor) WriteWordData(reg uint8, val uint16) (err error) {
	_, err = t.Write([]byte{reg, byte(val >> 8), byte(val)})
	return
}

func (t *I2CTestAdaptor) WriteBlockData(reg uint8, b []byte) (err error) {
	_, err = t.Write(append([]byte{reg}, b...))
	return
}

func (t *I2CTestAdaptor) GetConnection( /* address */ int /* bus */, int) (connection i2c.Connection, err error) {
	if t.i2cConnectErr {
		return nil, errors.New("invalid i2c connection")
	}
	return t, nil
}

func (t *I2CTestAdaptor) GetDefaultBus() int {
	return 0
}

func (t *I2CTestAdaptor) Name() string          { return t.name }
func (t *I2CTestAdaptor) SetName(n string)      { t.name = n }
func (t *I2CTestAdaptor) Connect() (err error)  { return }
func (t *I2CTestAdaptor) Finalize() (err error) { return }

// writes returns the number of burst writes seen so far.
func (t *I2CTestAdaptor) writes() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return len(t.written)
}

// transfers returns the number of reads and writes seen so far.
func (t *I2CTestAdaptor) transfers() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return len(t.written) + t.reads
}

// lastWrite decodes the last burst write into register values.
func (t *I2CTestAdaptor) lastWrite() map[Register]uint16 {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	res := map[Register]uint16{}
	if len(t.written) == 0 {
		return res
	}
	b := t.written[len(t.written)-1]
	reg := PowerCfgReg
	for i := 0; i+1 < len(b); i += 2 {
		res[reg] = uint16(b[i])<<8 | uint16(b[i+1])
		reg = reg.next()
	}
	return res
}

func (t *I2CTestAdaptor) chipReg(reg Register) uint16 {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.chip[reg]
}

func (t *I2CTestAdaptor) setChipReg(reg Register, v uint16) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.chip[reg] = v
}

// NewI2cTestAdaptor returns a simulated chip with a plausible device and
// chip id.
func NewI2cTestAdaptor() *I2CTestAdaptor {
	val := &I2CTestAdaptor{
		i2cConnectErr: false,
		rssi:          40,
	}
	val.chip[DeviceIDReg] = 0x1242
	val.chip[ChipIDReg] = 0x0A09

	val.i2cReadImpl = func(t *I2CTestAdaptor, buff []byte) (int, error) {
		if t.failReads {
			return 0, errInjected
		}
		reg := StatusRSSIReg
		for i := 0; i+1 < len(buff); i += 2 {
			buff[i] = byte(t.chip[reg] >> 8)
			buff[i+1] = byte(t.chip[reg])
			reg = reg.next()
		}
		return len(buff), nil
	}

	val.i2cWriteImpl = func(t *I2CTestAdaptor, buff []byte) (int, error) {
		if t.failWriteAt > 0 && len(t.written) == t.failWriteAt {
			return 0, errInjected
		}
		if t.shortWrites {
			return len(buff) - 1, nil
		}

		prevPower, prevChannel, prevSys1 := t.chip[PowerCfgReg], t.chip[ChannelReg], t.chip[SysConfig1Reg]
		reg := PowerCfgReg
		for i := 0; i+1 < len(buff); i += 2 {
			t.chip[reg] = uint16(buff[i])<<8 | uint16(buff[i+1])
			reg = reg.next()
		}
		t.react(prevPower, prevChannel, prevSys1)
		return len(buff), nil
	}

	return val
}

// react emulates the chip answering a tune, seek or RDS request.
func (t *I2CTestAdaptor) react(prevPower, prevChannel, prevSys1 uint16) {
	power, channel, sys1 := t.chip[PowerCfgReg], t.chip[ChannelReg], t.chip[SysConfig1Reg]

	switch {
	case channel&CHANNEL_TUNE != 0 && prevChannel&CHANNEL_TUNE == 0:
		t.chip[StatusRSSIReg] = STATUSRSSI_STC | uint16(t.rssi)
		t.chip[ReadChanReg] = channel & CHANNEL_CHAN
		t.fire()

	case power&POWERCFG_SEEK != 0 && prevPower&POWERCFG_SEEK == 0:
		if t.cancelSeek {
			if t.signal != nil {
				t.signal.CancelSeek()
			}
			return
		}
		if len(t.stations) > 0 {
			t.seekChannel, t.rssi = t.stations[0].channel, t.stations[0].rssi
			t.stations = t.stations[1:]
		}
		status := STATUSRSSI_STC | uint16(t.rssi)
		if t.seekFail {
			status |= STATUSRSSI_SFBL
		}
		t.chip[StatusRSSIReg] = status
		t.chip[ReadChanReg] = t.seekChannel
		t.fire()

	case sys1&SYSCONFIG1_RDSIEN != 0 && prevSys1&SYSCONFIG1_RDSIEN == 0:
		if !t.rdsReady {
			return
		}
		t.chip[StatusRSSIReg] |= STATUSRSSI_RDSR
		t.chip[RDSAReg] = t.rdsBlocks[0]
		t.chip[RDSBReg] = t.rdsBlocks[1]
		t.chip[RDSCReg] = t.rdsBlocks[2]
		t.chip[RDSDReg] = t.rdsBlocks[3]
		t.fire()

	case channel&CHANNEL_TUNE == 0 && power&POWERCFG_SEEK == 0 && !t.stuck:
		t.chip[StatusRSSIReg] &^= STATUSRSSI_STC
	}
}

func (t *I2CTestAdaptor) fire() {
	if t.signal != nil {
		t.signal.Interrupt()
	}
}
