package radio

import (
	"time"

	"github.com/pkg/errors"
)

// Band selects one of the three band presets of the chip. The value is the
// BAND field code of SYSCONFIG2.
type Band uint8

// Supported bands.
const (
	// Band87500To108000 is the US/Europe band, 87.5-108 MHz.
	Band87500To108000 Band = iota
	// Band76000To108000 is the wide Japan band, 76-108 MHz.
	Band76000To108000
	// Band76000To90000 is the Japan band, 76-90 MHz.
	Band76000To90000
)

// Band bottom frequencies in kHz.
const (
	Freq87500kHz uint32 = 87500
	Freq76000kHz uint32 = 76000
)

// bottom returns the lowest frequency of the band. Two presets share a
// bottom, so this is a table and not arithmetic.
func (b Band) bottom() (uint32, bool) {
	switch b {
	case Band87500To108000:
		return Freq87500kHz, true
	case Band76000To108000:
		return Freq76000kHz, true
	case Band76000To90000:
		return Freq76000kHz, true
	}
	return 0, false
}

func (b Band) String() string {
	switch b {
	case Band87500To108000:
		return "87.5-108MHz"
	case Band76000To108000:
		return "76-108MHz"
	case Band76000To90000:
		return "76-90MHz"
	}
	return "unknown band"
}

// ChannelSpacing is the distance between two channels, in kHz.
type ChannelSpacing uint32

// Supported channel spacings.
const (
	Spacing200kHz ChannelSpacing = 200
	Spacing100kHz ChannelSpacing = 100
	Spacing50kHz  ChannelSpacing = 50
)

// code returns the SPACE field code of SYSCONFIG2.
func (c ChannelSpacing) code() (uint16, bool) {
	switch c {
	case Spacing200kHz:
		return 0x0, true
	case Spacing100kHz:
		return 0x1, true
	case Spacing50kHz:
		return 0x2, true
	}
	return 0, false
}

// NumSeekPresets is the number of stations kept by ScanPresets.
const NumSeekPresets = 20

// Settings holds the tuner settings that live next to the register cache.
type Settings struct {
	Band           Band
	BottomOfBand   uint32
	ChannelSpacing ChannelSpacing
	RDSTimeout     time.Duration
	SeekSNR        uint8
	SeekRSSI       uint8
	Presets        [NumSeekPresets]uint32
}

// frequencyToChannel converts a frequency in kHz to a channel index using
// the current band and spacing. Frequencies below the band are clamped to
// its bottom.
func (s *Settings) frequencyToChannel(freq uint32) (uint16, error) {
	if s.ChannelSpacing == 0 {
		return 0, errors.Wrap(ErrBadArgument, "channel spacing is zero")
	}
	if freq < s.BottomOfBand {
		freq = s.BottomOfBand
	}
	return uint16((freq - s.BottomOfBand) / uint32(s.ChannelSpacing)), nil
}

// channelToFrequency converts a channel index to a frequency in kHz.
func (s *Settings) channelToFrequency(channel uint16) uint32 {
	return s.BottomOfBand + uint32(s.ChannelSpacing)*uint32(channel)
}
