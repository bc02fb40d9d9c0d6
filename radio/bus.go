package radio

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Transport is the raw byte channel to the chip. A gobot i2c.Connection
// satisfies it.
type Transport interface {
	io.Reader
	io.Writer
}

// writeThrough sends the cached registers from POWERCFG up to target in one
// burst. The cache is not rolled back on failure; callers restore whatever
// they backed up.
func (s *Si4709Driver) writeThrough(target Register) error {
	regs := window(PowerCfgReg, target)
	data := make([]byte, 0, len(regs)*2)
	for _, reg := range regs {
		data = append(data, byte(s.regs[reg]>>8), byte(s.regs[reg]&0xFF))
	}

	if s.debugMode {
		s.debugLog("write through %s: %s\n", target, s.sliceToString(data))
	}

	n, err := s.conn.Write(data)
	if err != nil {
		return errors.Wrapf(ErrBus, "write through %s: %v", target, err)
	}
	if n != len(data) {
		return errors.Wrapf(ErrBus, "write through %s: wrote %d of %d bytes", target, n, len(data))
	}
	return nil
}

// readThrough reads the registers from STATUSRSSI up to target in one burst
// and stores them in the cache.
func (s *Si4709Driver) readThrough(target Register) error {
	regs := window(StatusRSSIReg, target)
	data := make([]byte, len(regs)*2)

	n, err := s.conn.Read(data)
	if err != nil {
		return errors.Wrapf(ErrBus, "read through %s: %v", target, err)
	}
	if n != len(data) {
		return errors.Wrapf(ErrBus, "read through %s: read %d of %d bytes", target, n, len(data))
	}

	for i, reg := range regs {
		s.regs[reg] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}

	if s.debugMode {
		s.debugLog("read through %s: %s\n", target, s.sliceToString(data))
	}
	return nil
}

func (s *Si4709Driver) sliceToString(val []byte) string {
	res := ""
	for idx := range val {
		res += fmt.Sprintf("[%d]=0x%x(%d) ", idx, val[idx], val[idx])
	}
	return res
}
