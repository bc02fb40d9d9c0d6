package radio

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// RDSData is one RDS group as read from the chip, with the reception
// quality at the time it was read.
type RDSData struct {
	BlockA, BlockB, BlockC, BlockD uint16

	// Frequency is the tuned frequency in kHz.
	Frequency uint32
	RSSI      uint8

	// Block error rates, 0 (none) to 3 (uncorrectable).
	BlockAErrors uint8
	BlockBErrors uint8
	BlockCErrors uint8
	BlockDErrors uint8
}

// RDSData enables the RDS interrupt and waits at most the configured RDS
// timeout for a group. It returns ErrTimeout when no group arrived.
func (s *Si4709Driver) RDSData(ctx context.Context) (RDSData, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return RDSData{}, errors.Wrap(ErrNotInitialized, "rds data")
	}

	defer s.signal.reset()

	sysconfig1 := s.regs[SysConfig1Reg]
	s.regs[SysConfig1Reg] = encodeSysConfig1(s.regs[SysConfig1Reg], SYSCONFIG1_RDSIEN, true)

	s.signal.arm(RDSWaiting)
	if err := s.writeThrough(SysConfig1Reg); err != nil {
		s.regs[SysConfig1Reg] = sysconfig1
		s.log("Si4709 rds interrupt enable failed: %v\n", err)
		return RDSData{}, err
	}

	resolved := s.signal.awaitTimeout(ctx, RDSWaiting, s.settings.RDSTimeout)

	if resolved != WaitOver {
		var result error = errors.Wrapf(ErrTimeout, "after %s", s.settings.RDSTimeout)
		enabled := s.regs[SysConfig1Reg]
		s.regs[SysConfig1Reg] = sysconfig1
		if err := s.writeThrough(SysConfig1Reg); err != nil {
			s.regs[SysConfig1Reg] = enabled
			result = multierror.Append(result, err)
		}
		if s.debugMode {
			s.debugLog("RDS wait ended without data: %v\n", result)
		}
		return RDSData{}, result
	}

	enabled := s.regs[SysConfig1Reg]
	s.regs[SysConfig1Reg] = encodeSysConfig1(s.regs[SysConfig1Reg], SYSCONFIG1_RDSIEN, false)
	if err := s.writeThrough(SysConfig1Reg); err != nil {
		s.regs[SysConfig1Reg] = enabled
		s.log("Si4709 rds interrupt disable failed: %v\n", err)
		return RDSData{}, err
	}

	if err := s.readThrough(RDSDReg); err != nil {
		s.log("Si4709 rds read failed: %v\n", err)
		return RDSData{}, err
	}

	status := decodeStatusRSSI(s.regs[StatusRSSIReg])
	readchan := s.regs[ReadChanReg]
	data := RDSData{
		BlockA:       s.regs[RDSAReg],
		BlockB:       s.regs[RDSBReg],
		BlockC:       s.regs[RDSCReg],
		BlockD:       s.regs[RDSDReg],
		Frequency:    s.settings.channelToFrequency(readChannel(readchan)),
		RSSI:         status.RSSI,
		BlockAErrors: status.BlockAErrors,
	}
	data.BlockBErrors, data.BlockCErrors, data.BlockDErrors = blockErrors(readchan)

	if s.debugMode {
		s.debugLog("RDS %04x %04x %04x %04x on %d kHz, rssi %d\n",
			data.BlockA, data.BlockB, data.BlockC, data.BlockD, data.Frequency, data.RSSI)
	}
	return data, nil
}
