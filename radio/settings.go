package radio

import (
	"time"

	"github.com/pkg/errors"
)

// Limits of the seek threshold fields.
const (
	MaxSeekRSSI = 0x7F
	MaxSeekSNR  = 0x0F
	MaxSeekFMID = 0x0F
	MaxVolume   = 0x0F
)

// DeEmphasis is the de-emphasis time constant in µs.
type DeEmphasis uint8

// Supported de-emphasis time constants.
const (
	DeEmphasis50 DeEmphasis = 50 // Europe, Japan, Australia
	DeEmphasis75 DeEmphasis = 75 // USA
)

// update rewrites one cached register through fn, and optionally the
// settings through settle, then writes the register through. If the write
// fails both are restored to their previous values.
func (s *Si4709Driver) update(op string, reg Register, fn func(uint16) uint16, settle func(*Settings)) error {
	if !s.valid {
		return errors.Wrap(ErrNotInitialized, op)
	}

	prevReg, prevSettings := s.regs[reg], s.settings

	s.regs[reg] = fn(s.regs[reg])
	if settle != nil {
		settle(&s.settings)
	}

	if err := s.writeThrough(reg); err != nil {
		s.regs[reg] = prevReg
		s.settings = prevSettings
		s.log("Si4709 %s failed: %v\n", op, err)
		return err
	}
	return nil
}

// SetBand selects one of the band presets.
func (s *Si4709Driver) SetBand(band Band) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	bottom, ok := band.bottom()
	if !s.valid {
		return errors.Wrap(ErrNotInitialized, "set band")
	}
	if !ok {
		return errors.Wrapf(ErrBadArgument, "band %d", band)
	}

	return s.update("set band", SysConfig2Reg,
		func(w uint16) uint16 { return encodeBand(w, band) },
		func(st *Settings) {
			st.Band = band
			st.BottomOfBand = bottom
		})
}

// Band returns the selected band.
func (s *Si4709Driver) Band() (Band, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return 0, errors.Wrap(ErrNotInitialized, "band")
	}
	return s.settings.Band, nil
}

// SetChannelSpacing selects one of the channel spacing presets.
func (s *Si4709Driver) SetChannelSpacing(spacing ChannelSpacing) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	code, ok := spacing.code()
	if !s.valid {
		return errors.Wrap(ErrNotInitialized, "set channel spacing")
	}
	if !ok {
		return errors.Wrapf(ErrBadArgument, "channel spacing %d kHz", spacing)
	}

	return s.update("set channel spacing", SysConfig2Reg,
		func(w uint16) uint16 { return encodeSpacing(w, code) },
		func(st *Settings) { st.ChannelSpacing = spacing })
}

// ChannelSpacing returns the selected channel spacing.
func (s *Si4709Driver) ChannelSpacing() (ChannelSpacing, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return 0, errors.Wrap(ErrNotInitialized, "channel spacing")
	}
	return s.settings.ChannelSpacing, nil
}

// SetSeekRSSIThreshold sets the minimum RSSI for a seek to stop.
func (s *Si4709Driver) SetSeekRSSIThreshold(rssi uint8) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return errors.Wrap(ErrNotInitialized, "set seek rssi threshold")
	}
	if rssi > MaxSeekRSSI {
		return errors.Wrapf(ErrBadArgument, "seek rssi threshold %d", rssi)
	}

	return s.update("set seek rssi threshold", SysConfig2Reg,
		func(w uint16) uint16 { return encodeSeekThreshold(w, rssi) },
		func(st *Settings) { st.SeekRSSI = rssi })
}

// SetSeekSNRThreshold sets the minimum SNR for a seek to stop. Zero
// disables the check, 1 gives the most stops and 15 the fewest.
func (s *Si4709Driver) SetSeekSNRThreshold(snr uint8) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return errors.Wrap(ErrNotInitialized, "set seek snr threshold")
	}
	if snr > MaxSeekSNR {
		return errors.Wrapf(ErrBadArgument, "seek snr threshold %d", snr)
	}

	return s.update("set seek snr threshold", SysConfig3Reg,
		func(w uint16) uint16 { return encodeSeekSNR(w, snr) },
		func(st *Settings) { st.SeekSNR = snr })
}

// SetSeekFMIDThreshold sets the FM impulse detection count for a seek.
// Zero disables the check, 1 gives the most stops and 15 the fewest.
func (s *Si4709Driver) SetSeekFMIDThreshold(cnt uint8) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return errors.Wrap(ErrNotInitialized, "set seek fm-id threshold")
	}
	if cnt > MaxSeekFMID {
		return errors.Wrapf(ErrBadArgument, "seek fm-id threshold %d", cnt)
	}

	return s.update("set seek fm-id threshold", SysConfig3Reg,
		func(w uint16) uint16 { return encodeSeekCount(w, cnt) }, nil)
}

// SeekThresholds holds the seek stop criteria.
type SeekThresholds struct {
	RSSI uint8
	SNR  uint8
	FMID uint8
}

// SeekThresholds returns the configured seek thresholds.
func (s *Si4709Driver) SeekThresholds() (SeekThresholds, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return SeekThresholds{}, errors.Wrap(ErrNotInitialized, "seek thresholds")
	}
	return SeekThresholds{
		RSSI: s.settings.SeekRSSI,
		SNR:  s.settings.SeekSNR,
		FMID: uint8(field(s.regs[SysConfig3Reg], SYSCONFIG3_SKCNT)),
	}, nil
}

// SetVolume sets the volume, 0 (mute) to 15.
func (s *Si4709Driver) SetVolume(volume uint8) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return errors.Wrap(ErrNotInitialized, "set volume")
	}
	if volume > MaxVolume {
		return errors.Wrapf(ErrBadArgument, "volume %d", volume)
	}

	return s.update("set volume", SysConfig2Reg,
		func(w uint16) uint16 { return encodeVolume(w, volume) }, nil)
}

// Volume returns the cached volume without touching the bus.
func (s *Si4709Driver) Volume() (uint8, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return 0, errors.Wrap(ErrNotInitialized, "volume")
	}
	return uint8(field(s.regs[SysConfig2Reg], SYSCONFIG2_VOLUME)), nil
}

// EnableVolumeExt extends the volume range down by 30 dB.
func (s *Si4709Driver) EnableVolumeExt() error {
	return s.setVolumeExt(true)
}

// DisableVolumeExt restores the normal volume range.
func (s *Si4709Driver) DisableVolumeExt() error {
	return s.setVolumeExt(false)
}

func (s *Si4709Driver) setVolumeExt(on bool) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.update("set volume extension", SysConfig3Reg,
		func(w uint16) uint16 { return encodeVolExt(w, on) }, nil)
}

// MuteOn mutes the audio output.
func (s *Si4709Driver) MuteOn() error {
	return s.setPowerCfgBit("mute on", POWERCFG_DMUTE, false)
}

// MuteOff unmutes the audio output.
func (s *Si4709Driver) MuteOff() error {
	return s.setPowerCfgBit("mute off", POWERCFG_DMUTE, true)
}

// SetMono forces mono output.
func (s *Si4709Driver) SetMono() error {
	return s.setPowerCfgBit("set mono", POWERCFG_MONO, true)
}

// SetStereo lets the chip blend to stereo.
func (s *Si4709Driver) SetStereo() error {
	return s.setPowerCfgBit("set stereo", POWERCFG_MONO, false)
}

func (s *Si4709Driver) setPowerCfgBit(op string, mask uint16, on bool) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.update(op, PowerCfgReg,
		func(w uint16) uint16 { return encodePowerCfg(w, mask, on) }, nil)
}

// EnableRDS turns RDS decoding on.
func (s *Si4709Driver) EnableRDS() error {
	return s.setSysConfig1Bit("enable rds", SYSCONFIG1_RDS, true)
}

// DisableRDS turns RDS decoding off.
func (s *Si4709Driver) DisableRDS() error {
	return s.setSysConfig1Bit("disable rds", SYSCONFIG1_RDS, false)
}

func (s *Si4709Driver) setSysConfig1Bit(op string, mask uint16, on bool) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.update(op, SysConfig1Reg,
		func(w uint16) uint16 { return encodeSysConfig1(w, mask, on) }, nil)
}

// SetDeEmphasis selects the de-emphasis time constant.
func (s *Si4709Driver) SetDeEmphasis(de DeEmphasis) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return errors.Wrap(ErrNotInitialized, "set de-emphasis")
	}
	if de != DeEmphasis50 && de != DeEmphasis75 {
		return errors.Wrapf(ErrBadArgument, "de-emphasis %d µs", de)
	}

	return s.update("set de-emphasis", SysConfig1Reg,
		func(w uint16) uint16 { return encodeDeEmphasis(w, de == DeEmphasis50) }, nil)
}

// SetRDSTimeout sets how long RDSData waits for a group, in milliseconds.
func (s *Si4709Driver) SetRDSTimeout(ms uint32) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return errors.Wrap(ErrNotInitialized, "set rds timeout")
	}
	s.settings.RDSTimeout = time.Duration(ms) * time.Millisecond
	return nil
}

// SetSysConfig2 writes every field of SYSCONFIG2 at once. Band and spacing
// must be valid preset codes; the settings follow the register.
func (s *Si4709Driver) SetSysConfig2(c SysConfig2) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return errors.Wrap(ErrNotInitialized, "set sysconfig2")
	}

	band := Band(c.Band)
	bottom, ok := band.bottom()
	if !ok {
		return errors.Wrapf(ErrBadArgument, "band code %d", c.Band)
	}
	spacing, ok := spacingFromCode(uint16(c.ChannelSpacing))
	if !ok {
		return errors.Wrapf(ErrBadArgument, "channel spacing code %d", c.ChannelSpacing)
	}
	if c.Volume > MaxVolume || c.RSSIThreshold > MaxSeekRSSI {
		return errors.Wrapf(ErrBadArgument, "sysconfig2 %+v", c)
	}

	return s.update("set sysconfig2", SysConfig2Reg,
		func(uint16) uint16 { return encodeSysConfig2(c) },
		func(st *Settings) {
			st.Band = band
			st.BottomOfBand = bottom
			st.ChannelSpacing = spacing
			st.SeekRSSI = c.RSSIThreshold
		})
}

// SetSysConfig3 writes every field of SYSCONFIG3 at once.
func (s *Si4709Driver) SetSysConfig3(c SysConfig3) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return errors.Wrap(ErrNotInitialized, "set sysconfig3")
	}
	if c.SoftMuteRate > 3 || c.SoftMuteAtten > 3 || c.VolumeExt > 1 ||
		c.SeekSNRThreshold > MaxSeekSNR || c.SeekFMIDThreshold > MaxSeekFMID {
		return errors.Wrapf(ErrBadArgument, "sysconfig3 %+v", c)
	}

	return s.update("set sysconfig3", SysConfig3Reg,
		func(uint16) uint16 { return encodeSysConfig3(c) },
		func(st *Settings) { st.SeekSNR = c.SeekSNRThreshold })
}

func spacingFromCode(code uint16) (ChannelSpacing, bool) {
	for _, sp := range []ChannelSpacing{Spacing200kHz, Spacing100kHz, Spacing50kHz} {
		if c, _ := sp.code(); c == code {
			return sp, true
		}
	}
	return 0, false
}
