package radio

import "github.com/pkg/errors"

// RSSIInfo is the current signal strength with the active seek thresholds.
type RSSIInfo struct {
	RSSI          uint8
	RSSIThreshold uint8
	SNRThreshold  uint8
}

// readReg reads the bus up to reg and returns its fresh value.
func (s *Si4709Driver) readReg(op string, reg Register) (uint16, error) {
	if !s.valid {
		return 0, errors.Wrap(ErrNotInitialized, op)
	}
	if err := s.readThrough(reg); err != nil {
		s.log("Si4709 %s failed: %v\n", op, err)
		return 0, err
	}
	return s.regs[reg], nil
}

// DeviceID reads the part and manufacturer numbers.
func (s *Si4709Driver) DeviceID() (DeviceID, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	w, err := s.readReg("device id", DeviceIDReg)
	if err != nil {
		return DeviceID{}, err
	}
	return decodeDeviceID(w), nil
}

// ChipID reads the chip revision, device and firmware versions.
func (s *Si4709Driver) ChipID() (ChipID, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	w, err := s.readReg("chip id", ChipIDReg)
	if err != nil {
		return ChipID{}, err
	}
	return decodeChipID(w), nil
}

// SysConfig2 reads the SYSCONFIG2 register.
func (s *Si4709Driver) SysConfig2() (SysConfig2, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	w, err := s.readReg("sysconfig2", SysConfig2Reg)
	if err != nil {
		return SysConfig2{}, err
	}
	return decodeSysConfig2(w), nil
}

// SysConfig3 reads the SYSCONFIG3 register.
func (s *Si4709Driver) SysConfig3() (SysConfig3, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	w, err := s.readReg("sysconfig3", SysConfig3Reg)
	if err != nil {
		return SysConfig3{}, err
	}
	return decodeSysConfig3(w), nil
}

// PowerConfig reads the POWERCFG register.
func (s *Si4709Driver) PowerConfig() (PowerConfig, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	w, err := s.readReg("power config", PowerCfgReg)
	if err != nil {
		return PowerConfig{}, err
	}
	return decodePowerConfig(w), nil
}

// StatusRSSI reads the STATUSRSSI register.
func (s *Si4709Driver) StatusRSSI() (StatusRSSI, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	w, err := s.readReg("status rssi", StatusRSSIReg)
	if err != nil {
		return StatusRSSI{}, err
	}
	return decodeStatusRSSI(w), nil
}

// CurrentRSSI reads the received signal strength.
func (s *Si4709Driver) CurrentRSSI() (RSSIInfo, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	w, err := s.readReg("current rssi", StatusRSSIReg)
	if err != nil {
		return RSSIInfo{}, err
	}
	return RSSIInfo{
		RSSI:          uint8(field(w, STATUSRSSI_RSSI)),
		RSSIThreshold: s.settings.SeekRSSI,
		SNRThreshold:  s.settings.SeekSNR,
	}, nil
}

// AFCRailed tells whether the AFC is railed, i.e. the tuned channel is
// invalid.
func (s *Si4709Driver) AFCRailed() (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	w, err := s.readReg("afc rail", StatusRSSIReg)
	if err != nil {
		return false, err
	}
	return w&STATUSRSSI_AFCRL != 0, nil
}

// Channel reads the tuned frequency in kHz.
func (s *Si4709Driver) Channel() (uint32, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	w, err := s.readReg("channel", ReadChanReg)
	if err != nil {
		return 0, err
	}
	return s.settings.channelToFrequency(readChannel(w)), nil
}

// State returns the power and seek state.
func (s *Si4709Driver) State() (State, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return State{}, errors.Wrap(ErrNotInitialized, "state")
	}
	return s.state, nil
}
