package radio

import (
	"context"

	"github.com/pkg/errors"
)

// SelectChannel tunes to freq, in kHz. It blocks until the chip reports
// the tune complete. The achieved frequency is read back with Channel.
// Tuning cannot be cancelled.
func (s *Si4709Driver) SelectChannel(ctx context.Context, freq uint32) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return errors.Wrap(ErrNotInitialized, "select channel")
	}

	s.state.Seek = SeekOn
	defer func() { s.state.Seek = SeekOff }()

	return s.tune(ctx, freq)
}

// SeekUp scans up for the next station and returns its frequency in kHz.
// The scan wraps at the band edge. A frequency of 0 means no valid station
// was found or the seek was cancelled.
func (s *Si4709Driver) SeekUp(ctx context.Context) (uint32, error) {
	return s.seekLocked(ctx, true)
}

// SeekDown scans down for the next station; see SeekUp.
func (s *Si4709Driver) SeekDown(ctx context.Context) (uint32, error) {
	return s.seekLocked(ctx, false)
}

func (s *Si4709Driver) seekLocked(ctx context.Context, up bool) (uint32, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return 0, errors.Wrap(ErrNotInitialized, "seek")
	}

	s.state.Seek = SeekOn
	defer func() { s.state.Seek = SeekOff }()

	return s.seek(ctx, up)
}

// tune runs the tune sequence: set TUNE, wait for the interrupt, clear TUNE
// and wait for the chip to drop STC.
func (s *Si4709Driver) tune(ctx context.Context, freq uint32) error {
	ch, err := s.settings.frequencyToChannel(freq)
	if err != nil {
		return err
	}

	channel := s.regs[ChannelReg]
	s.regs[ChannelReg] = encodeChannel(ch, true)

	s.signal.arm(TuneWaiting)
	if err = s.writeThrough(ChannelReg); err != nil {
		s.signal.reset()
		s.regs[ChannelReg] = channel
		s.log("Si4709 tune to %d kHz failed: %v\n", freq, err)
		return err
	}

	if s.debugMode {
		s.debugLog("Tuning into %d kHz (channel %d)\n", freq, ch)
	}

	s.signal.await(ctx, TuneWaiting)
	s.signal.reset()

	if s.strictStationCheck && s.debugMode {
		if err = s.readThrough(StatusRSSIReg); err == nil {
			s.debugLog("Tune complete: %t\n", s.regs[StatusRSSIReg]&STATUSRSSI_STC != 0)
		}
	}

	channel = s.regs[ChannelReg]
	s.regs[ChannelReg] = encodeTune(s.regs[ChannelReg], false)
	if err = s.writeThrough(ChannelReg); err != nil {
		s.regs[ChannelReg] = channel
		s.log("Si4709 tune to %d kHz failed: %v\n", freq, err)
		return err
	}

	return s.waitSeekTuneClear()
}

// seek runs the seek sequence and returns the frequency found, or 0.
func (s *Si4709Driver) seek(ctx context.Context, up bool) (uint32, error) {
	if s.settings.ChannelSpacing == 0 {
		return 0, errors.Wrap(ErrBadArgument, "channel spacing is zero")
	}

	powercfg := s.regs[PowerCfgReg]
	s.regs[PowerCfgReg] = encodePowerCfg(s.regs[PowerCfgReg], POWERCFG_SEEKUP, up)
	s.regs[PowerCfgReg] = encodePowerCfg(s.regs[PowerCfgReg], POWERCFG_SKMODE, false)
	s.regs[PowerCfgReg] = encodePowerCfg(s.regs[PowerCfgReg], POWERCFG_SEEK, true)

	s.signal.arm(SeekWaiting)
	if err := s.writeThrough(PowerCfgReg); err != nil {
		s.signal.reset()
		s.regs[PowerCfgReg] = powercfg
		s.log("Si4709 seek failed: %v\n", err)
		return 0, err
	}

	if s.debugMode {
		s.debugLog("Seeking %s\n", direction(up))
	}

	resolved := s.signal.await(ctx, SeekWaiting)
	s.signal.reset()

	if resolved == SeekCancel {
		if s.debugMode {
			s.debugLog("Seek cancelled\n")
		}
		return 0, s.clearSeek()
	}

	if err := s.readThrough(StatusRSSIReg); err != nil {
		s.log("Si4709 seek status read failed: %v\n", err)
		return 0, err
	}

	found := true
	if s.strictStationCheck {
		status := decodeStatusRSSI(s.regs[StatusRSSIReg])
		found = status.SeekTuneDone && !status.SeekFailBandLm
		if s.debugMode {
			s.debugLog("Seek complete: %t, fail/band limit: %t\n", status.SeekTuneDone, status.SeekFailBandLm)
		}
	}

	if err := s.clearSeek(); err != nil {
		return 0, err
	}

	if err := s.waitSeekTuneClear(); err != nil {
		return 0, err
	}

	if !found {
		if s.debugMode {
			s.debugLog("Valid station not found\n")
		}
		return 0, nil
	}

	if err := s.readThrough(ReadChanReg); err != nil {
		s.log("Si4709 seek channel read failed: %v\n", err)
		return 0, err
	}

	freq := s.settings.channelToFrequency(readChannel(s.regs[ReadChanReg]))
	if s.debugMode {
		s.debugLog("Frequency after seek %s is %d kHz\n", direction(up), freq)
	}
	return freq, nil
}

// clearSeek drops the seek request bit.
func (s *Si4709Driver) clearSeek() error {
	powercfg := s.regs[PowerCfgReg]
	s.regs[PowerCfgReg] = encodePowerCfg(s.regs[PowerCfgReg], POWERCFG_SEEK, false)
	if err := s.writeThrough(PowerCfgReg); err != nil {
		s.regs[PowerCfgReg] = powercfg
		s.log("Si4709 seek clear failed: %v\n", err)
		return err
	}
	return nil
}

// waitSeekTuneClear polls STATUSRSSI until the chip clears STC.
func (s *Si4709Driver) waitSeekTuneClear() error {
	for polls := 1; ; polls++ {
		if err := s.readThrough(StatusRSSIReg); err != nil {
			return err
		}
		if s.regs[StatusRSSIReg]&STATUSRSSI_STC == 0 {
			return nil
		}
		if s.maxBusyPolls > 0 && polls >= s.maxBusyPolls {
			return errors.Wrapf(ErrHardwareStuck, "after %d polls", polls)
		}
	}
}

func direction(up bool) string {
	if up {
		return "up"
	}
	return "down"
}
