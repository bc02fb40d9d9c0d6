package radio

import (
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Initial configuration written by PowerUp.
const (
	defaultSeekRSSI = 0x00
	defaultSeekSNR  = 0x01
	defaultSeekFMID = 0x00
	defaultVolume   = 0x0F
	defaultBand     = Band87500To108000
	defaultSpacing  = Spacing100kHz
	initResetLow    = 1 * time.Millisecond
	initResetHigh   = 2 * time.Millisecond
)

// Initialize stores the bus handle, resets the chip and probes it with a
// full register read. On success the client state becomes valid; the device
// still has to be powered up before any other operation is accepted.
func (s *Si4709Driver) Initialize(conn Transport) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.conn = conn

	if err := s.pulseReset(initResetLow, initResetHigh); err != nil {
		return err
	}

	s.state = State{Power: PoweredDown, Seek: SeekOff}

	if err := s.readThrough(BootConfigReg); err != nil {
		s.log("Si4709 probe failed: %v\n", err)
		return err
	}
	s.clientValid = true

	if s.debugMode {
		s.debugLog("Si4709 probed, device id 0x%04x chip id 0x%04x\n", s.regs[DeviceIDReg], s.regs[ChipIDReg])
	}
	return nil
}

// Exit is the teardown hook. It intentionally leaves the handle and the
// validity flags untouched.
func (s *Si4709Driver) Exit() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.log("Si4709 exit requested, keeping device state\n")
	return nil
}

// PowerUp enables the chip and commits the initial configuration: 50 µs
// de-emphasis, seek thresholds, the 87.5-108 MHz band, 100 kHz spacing,
// RDS on with its interrupt off, and full volume.
//
// If the chip was never probed, PowerUp still energizes it but returns
// ErrNotInitialized, as the register cache cannot be trusted.
func (s *Si4709Driver) PowerUp() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.state.Power == PowerOn {
		if s.debugMode {
			s.debugLog("Si4709 already powered on\n")
		}
		return nil
	}

	if err := s.powerUp(); err != nil {
		return err
	}

	if !s.clientValid {
		return errors.Wrap(ErrNotInitialized, "power up before a successful probe")
	}

	prevRegs, prevSettings := s.regs, s.settings

	s.regs[PowerCfgReg] = encodePowerCfg(s.regs[PowerCfgReg], POWERCFG_RDSM, true)
	s.regs[PowerCfgReg] = encodePowerCfg(s.regs[PowerCfgReg], POWERCFG_SKMODE, false)

	s.regs[SysConfig1Reg] = encodeSysConfig1(s.regs[SysConfig1Reg], SYSCONFIG1_STCIEN, true)
	s.regs[SysConfig1Reg] = encodeSysConfig1(s.regs[SysConfig1Reg], SYSCONFIG1_RDSIEN, false)
	s.regs[SysConfig1Reg] = encodeSysConfig1(s.regs[SysConfig1Reg], SYSCONFIG1_RDS, true)
	s.regs[SysConfig1Reg] = encodeDeEmphasis(s.regs[SysConfig1Reg], true)
	s.regs[SysConfig1Reg] = encodeGPIO(s.regs[SysConfig1Reg], gpioHighZ, true)

	spaceCode, _ := defaultSpacing.code()
	bottom, _ := defaultBand.bottom()
	s.regs[SysConfig2Reg] = encodeSeekThreshold(s.regs[SysConfig2Reg], defaultSeekRSSI)
	s.regs[SysConfig2Reg] = encodeVolume(s.regs[SysConfig2Reg], defaultVolume)
	s.regs[SysConfig2Reg] = encodeBand(s.regs[SysConfig2Reg], defaultBand)
	s.regs[SysConfig2Reg] = encodeSpacing(s.regs[SysConfig2Reg], spaceCode)

	s.regs[SysConfig3Reg] = encodeSeekSNR(s.regs[SysConfig3Reg], defaultSeekSNR)
	s.regs[SysConfig3Reg] = encodeSeekCount(s.regs[SysConfig3Reg], defaultSeekFMID)

	s.settings.Band = defaultBand
	s.settings.BottomOfBand = bottom
	s.settings.ChannelSpacing = defaultSpacing
	s.settings.RDSTimeout = DefaultRDSTimeout
	s.settings.SeekSNR = defaultSeekSNR
	s.settings.SeekRSSI = defaultSeekRSSI

	if err := s.writeThrough(SysConfig3Reg); err != nil {
		// The chip is enabled with an unknown configuration: put it back
		// in reset so the cache and the power state tell the truth.
		s.regs, s.settings = prevRegs, prevSettings
		s.state.Power = PoweredDown
		if rerr := s.pulseReset(0, 0); rerr != nil {
			err = multierror.Append(err, rerr)
		}
		s.log("Si4709 initial configuration failed: %v\n", err)
		return err
	}

	s.valid = true
	return nil
}

// powerUp resets the chip, clears the cache and sets the enable bit.
func (s *Si4709Driver) powerUp() error {
	powercfg := s.regs[PowerCfgReg]

	if err := s.pulseReset(0, 0); err != nil {
		return err
	}

	s.regs = RegisterFile{}

	s.regs[PowerCfgReg] = encodePowerCfg(s.regs[PowerCfgReg], POWERCFG_DMUTE, true)
	s.regs[PowerCfgReg] = encodePowerCfg(s.regs[PowerCfgReg], POWERCFG_ENABLE, true)
	s.regs[PowerCfgReg] = encodePowerCfg(s.regs[PowerCfgReg], POWERCFG_DISABLE, false)

	if err := s.writeThrough(PowerCfgReg); err != nil {
		s.regs[PowerCfgReg] = powercfg
		s.log("Si4709 power up failed: %v\n", err)
		return err
	}

	s.sleep(powerUpDelay)
	s.state.Power = PowerOn
	return nil
}

// PowerDown disables RDS, mutes and disables the chip, then pulses reset.
// Callers should wait PopDelay before calling it to avoid an audible pop.
func (s *Si4709Driver) PowerDown() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return errors.Wrap(ErrNotInitialized, "power down")
	}

	if s.state.Power == PoweredDown {
		if s.debugMode {
			s.debugLog("Si4709 already powered down\n")
		}
		return nil
	}

	test1, sysconfig1, powercfg := s.regs[Test1Reg], s.regs[SysConfig1Reg], s.regs[PowerCfgReg]

	s.regs[SysConfig1Reg] = encodeGPIO(s.regs[SysConfig1Reg], gpioLow, false)
	s.regs[SysConfig1Reg] = encodeSysConfig1(s.regs[SysConfig1Reg], SYSCONFIG1_RDS, false)

	s.regs[PowerCfgReg] = encodePowerCfg(s.regs[PowerCfgReg], POWERCFG_DMUTE, false)
	s.regs[PowerCfgReg] = encodePowerCfg(s.regs[PowerCfgReg], POWERCFG_ENABLE, true)
	s.regs[PowerCfgReg] = encodePowerCfg(s.regs[PowerCfgReg], POWERCFG_DISABLE, true)

	var result error
	if err := s.writeThrough(Test1Reg); err != nil {
		s.regs[SysConfig1Reg] = sysconfig1
		s.regs[PowerCfgReg] = powercfg
		s.regs[Test1Reg] = test1
		result = multierror.Append(result, err)
	} else {
		s.state.Power = PoweredDown
	}

	if err := s.pulseReset(0, 0); err != nil {
		result = multierror.Append(result, err)
	}

	if result != nil {
		s.log("Si4709 power down failed: %v\n", result)
	}
	return result
}

// Suspend only checks that the client state is valid. Powering down on
// suspend is disabled.
func (s *Si4709Driver) Suspend() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.clientValid {
		return errors.Wrap(ErrNotInitialized, "suspend")
	}
	return nil
}

// Resume only checks that the client state is valid. Powering up on resume
// is disabled.
func (s *Si4709Driver) Resume() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.clientValid {
		return errors.Wrap(ErrNotInitialized, "resume")
	}
	return nil
}
