package radio

import "fmt"

// Register identifies one of the sixteen 16-bit registers of the Si4709.
type Register uint8

// The Si4709 register bank. Burst writes always start at POWERCFG and burst
// reads always start at STATUSRSSI; both wrap from RDSD back to DEVICEID.
const (
	DeviceIDReg Register = iota
	ChipIDReg
	PowerCfgReg
	ChannelReg
	SysConfig1Reg
	SysConfig2Reg
	SysConfig3Reg
	Test1Reg
	Test2Reg
	BootConfigReg
	StatusRSSIReg
	ReadChanReg
	RDSAReg
	RDSBReg
	RDSCReg
	RDSDReg

	// NumRegisters is the size of the register bank.
	NumRegisters = 16
)

var registerNames = [NumRegisters]string{
	"DEVICEID", "CHIPID", "POWERCFG", "CHANNEL",
	"SYSCONFIG1", "SYSCONFIG2", "SYSCONFIG3", "TEST1",
	"TEST2", "BOOTCONFIG", "STATUSRSSI", "READCHAN",
	"RDSA", "RDSB", "RDSC", "RDSD",
}

func (r Register) String() string {
	if int(r) < NumRegisters {
		return registerNames[r]
	}
	return fmt.Sprintf("REG(0x%02x)", uint8(r))
}

// next returns the register that follows r in a burst transfer.
func (r Register) next() Register {
	return (r + 1) % NumRegisters
}

// window returns the registers of a burst transfer that starts at from and
// ends at to inclusive, wrapping around the end of the bank.
func window(from, to Register) []Register {
	regs := make([]Register, 0, NumRegisters)
	for r := from; ; r = r.next() {
		regs = append(regs, r)
		if r == to {
			return regs
		}
	}
}

// RegisterFile mirrors the register bank of the chip.
type RegisterFile [NumRegisters]uint16

// Register bit fields.
//
//goland:noinspection GoSnakeCaseUsage
const (
	// POWERCFG
	POWERCFG_DSMUTE   = 1 << 15
	POWERCFG_DMUTE    = 1 << 14
	POWERCFG_MONO     = 1 << 13
	POWERCFG_RDSM     = 1 << 11
	POWERCFG_SKMODE   = 1 << 10
	POWERCFG_SEEKUP   = 1 << 9
	POWERCFG_SEEK     = 1 << 8
	POWERCFG_DISABLE  = 1 << 6
	POWERCFG_ENABLE   = 1 << 0
	POWERCFG_RESERVED = 0xEF41

	// CHANNEL
	CHANNEL_TUNE     = 1 << 15
	CHANNEL_CHAN     = 0x03FF
	CHANNEL_RESERVED = 0x83FF

	// SYSCONFIG1
	SYSCONFIG1_RDSIEN   = 1 << 15
	SYSCONFIG1_STCIEN   = 1 << 14
	SYSCONFIG1_RDS      = 1 << 12
	SYSCONFIG1_DE       = 1 << 11
	SYSCONFIG1_GPIO     = 0x003F
	SYSCONFIG1_RESERVED = 0xDCFF

	// SYSCONFIG2
	SYSCONFIG2_SEEKTH = 0xFF00
	SYSCONFIG2_BAND   = 0x00C0
	SYSCONFIG2_SPACE  = 0x0030
	SYSCONFIG2_VOLUME = 0x000F

	// SYSCONFIG3
	SYSCONFIG3_SMUTER   = 0xC000
	SYSCONFIG3_SMUTEA   = 0x3000
	SYSCONFIG3_VOLEXT   = 1 << 8
	SYSCONFIG3_SKSNR    = 0x00F0
	SYSCONFIG3_SKCNT    = 0x000F
	SYSCONFIG3_RESERVED = 0xF1FF

	// STATUSRSSI
	STATUSRSSI_RDSR  = 1 << 15
	STATUSRSSI_STC   = 1 << 14
	STATUSRSSI_SFBL  = 1 << 13
	STATUSRSSI_AFCRL = 1 << 12
	STATUSRSSI_RDSS  = 1 << 11
	STATUSRSSI_BLERA = 0x0600
	STATUSRSSI_ST    = 1 << 8
	STATUSRSSI_RSSI  = 0x00FF

	// READCHAN
	READCHAN_BLERB = 0xC000
	READCHAN_BLERC = 0x3000
	READCHAN_BLERD = 0x0C00
	READCHAN_CHAN  = 0x03FF
)

// GPIO pin modes of SYSCONFIG1, applied to GPIO1..GPIO3.
const (
	gpioHighZ     = 0x0
	gpioInterrupt = 0x1
	gpioLow       = 0x2
)

// setBits returns w with mask set or cleared.
func setBits(w, mask uint16, on bool) uint16 {
	if on {
		return w | mask
	}
	return w &^ mask
}

// setField stores v into the field described by mask.
func setField(w, mask, v uint16) uint16 {
	return w&^mask | (v<<shiftOf(mask))&mask
}

// field extracts the field described by mask.
func field(w, mask uint16) uint16 {
	return (w & mask) >> shiftOf(mask)
}

func shiftOf(mask uint16) uint {
	var s uint
	for mask != 0 && mask&1 == 0 {
		mask >>= 1
		s++
	}
	return s
}

// encodePowerCfg applies the flags to a POWERCFG word and clears the
// reserved bits.
func encodePowerCfg(w uint16, mask uint16, on bool) uint16 {
	return setBits(w, mask, on) & POWERCFG_RESERVED
}

// encodeChannel returns a CHANNEL word selecting ch, with the tune bit.
func encodeChannel(ch uint16, tune bool) uint16 {
	w := ch & CHANNEL_CHAN
	return setBits(w, CHANNEL_TUNE, tune) & CHANNEL_RESERVED
}

// encodeTune sets or clears the tune bit of a CHANNEL word.
func encodeTune(w uint16, tune bool) uint16 {
	return setBits(w, CHANNEL_TUNE, tune) & CHANNEL_RESERVED
}

// encodeSysConfig1 applies the flags to a SYSCONFIG1 word and clears the
// reserved bits.
func encodeSysConfig1(w uint16, mask uint16, on bool) uint16 {
	return setBits(w, mask, on) & SYSCONFIG1_RESERVED
}

// encodeGPIO sets the three GPIO pins. GPIO2 carries the STC/RDS interrupt
// when irq is set, otherwise every pin takes mode.
func encodeGPIO(w uint16, mode uint16, irq bool) uint16 {
	pins := mode<<4 | mode<<2 | mode
	if irq {
		pins = gpioHighZ<<4 | gpioInterrupt<<2 | gpioHighZ
	}
	return setField(w, SYSCONFIG1_GPIO, pins) & SYSCONFIG1_RESERVED
}

// encodeDeEmphasis selects the 50 µs time constant when de50 is set,
// 75 µs otherwise.
func encodeDeEmphasis(w uint16, de50 bool) uint16 {
	return setBits(w, SYSCONFIG1_DE, de50) & SYSCONFIG1_RESERVED
}

func encodeSeekThreshold(w uint16, rssi uint8) uint16 {
	return setField(w, SYSCONFIG2_SEEKTH, uint16(rssi))
}

func encodeBand(w uint16, b Band) uint16 {
	return setField(w, SYSCONFIG2_BAND, uint16(b))
}

func encodeSpacing(w uint16, code uint16) uint16 {
	return setField(w, SYSCONFIG2_SPACE, code)
}

func encodeVolume(w uint16, volume uint8) uint16 {
	return setField(w, SYSCONFIG2_VOLUME, uint16(volume))
}

func encodeSeekSNR(w uint16, snr uint8) uint16 {
	return setField(w, SYSCONFIG3_SKSNR, uint16(snr)) & SYSCONFIG3_RESERVED
}

func encodeSeekCount(w uint16, cnt uint8) uint16 {
	return setField(w, SYSCONFIG3_SKCNT, uint16(cnt)) & SYSCONFIG3_RESERVED
}

func encodeVolExt(w uint16, on bool) uint16 {
	return setBits(w, SYSCONFIG3_VOLEXT, on) & SYSCONFIG3_RESERVED
}

// DeviceID is the decoded DEVICEID register.
type DeviceID struct {
	PartNumber         uint8
	ManufacturerNumber uint16
}

// ChipID is the decoded CHIPID register.
type ChipID struct {
	ChipVersion     uint8
	Device          uint8
	FirmwareVersion uint8
}

// SysConfig2 is the decoded SYSCONFIG2 register.
type SysConfig2 struct {
	RSSIThreshold  uint8
	Band           uint8
	ChannelSpacing uint8
	Volume         uint8
}

// SysConfig3 is the decoded SYSCONFIG3 register.
type SysConfig3 struct {
	SoftMuteRate      uint8
	SoftMuteAtten     uint8
	VolumeExt         uint8
	SeekSNRThreshold  uint8
	SeekFMIDThreshold uint8
}

// PowerConfig is the decoded POWERCFG register.
type PowerConfig struct {
	SoftMuteDisabled bool
	MuteDisabled     bool
	Mono             bool
	RDSVerbose       bool
	SeekStopAtLimit  bool
	SeekUp           bool
	Seek             bool
	Disable          bool
	Enable           bool
}

// StatusRSSI is the decoded STATUSRSSI register.
type StatusRSSI struct {
	RDSReady       bool
	SeekTuneDone   bool
	SeekFailBandLm bool
	AFCRailed      bool
	RDSSynced      bool
	BlockAErrors   uint8
	Stereo         bool
	RSSI           uint8
}

func decodeDeviceID(w uint16) DeviceID {
	return DeviceID{
		PartNumber:         uint8(field(w, 0xF000)),
		ManufacturerNumber: field(w, 0x0FFF),
	}
}

func decodeChipID(w uint16) ChipID {
	return ChipID{
		ChipVersion:     uint8(field(w, 0xFC00)),
		Device:          uint8(field(w, 0x03C0)),
		FirmwareVersion: uint8(field(w, 0x003F)),
	}
}

func decodeSysConfig2(w uint16) SysConfig2 {
	return SysConfig2{
		RSSIThreshold:  uint8(field(w, SYSCONFIG2_SEEKTH)),
		Band:           uint8(field(w, SYSCONFIG2_BAND)),
		ChannelSpacing: uint8(field(w, SYSCONFIG2_SPACE)),
		Volume:         uint8(field(w, SYSCONFIG2_VOLUME)),
	}
}

func encodeSysConfig2(c SysConfig2) uint16 {
	var w uint16
	w = setField(w, SYSCONFIG2_SEEKTH, uint16(c.RSSIThreshold))
	w = setField(w, SYSCONFIG2_BAND, uint16(c.Band))
	w = setField(w, SYSCONFIG2_SPACE, uint16(c.ChannelSpacing))
	return setField(w, SYSCONFIG2_VOLUME, uint16(c.Volume))
}

func decodeSysConfig3(w uint16) SysConfig3 {
	return SysConfig3{
		SoftMuteRate:      uint8(field(w, SYSCONFIG3_SMUTER)),
		SoftMuteAtten:     uint8(field(w, SYSCONFIG3_SMUTEA)),
		VolumeExt:         uint8(field(w, SYSCONFIG3_VOLEXT)),
		SeekSNRThreshold:  uint8(field(w, SYSCONFIG3_SKSNR)),
		SeekFMIDThreshold: uint8(field(w, SYSCONFIG3_SKCNT)),
	}
}

func encodeSysConfig3(c SysConfig3) uint16 {
	var w uint16
	w = setField(w, SYSCONFIG3_SMUTER, uint16(c.SoftMuteRate))
	w = setField(w, SYSCONFIG3_SMUTEA, uint16(c.SoftMuteAtten))
	w = setField(w, SYSCONFIG3_VOLEXT, uint16(c.VolumeExt))
	w = setField(w, SYSCONFIG3_SKSNR, uint16(c.SeekSNRThreshold))
	return setField(w, SYSCONFIG3_SKCNT, uint16(c.SeekFMIDThreshold)) & SYSCONFIG3_RESERVED
}

func decodePowerConfig(w uint16) PowerConfig {
	return PowerConfig{
		SoftMuteDisabled: w&POWERCFG_DSMUTE != 0,
		MuteDisabled:     w&POWERCFG_DMUTE != 0,
		Mono:             w&POWERCFG_MONO != 0,
		RDSVerbose:       w&POWERCFG_RDSM != 0,
		SeekStopAtLimit:  w&POWERCFG_SKMODE != 0,
		SeekUp:           w&POWERCFG_SEEKUP != 0,
		Seek:             w&POWERCFG_SEEK != 0,
		Disable:          w&POWERCFG_DISABLE != 0,
		Enable:           w&POWERCFG_ENABLE != 0,
	}
}

func decodeStatusRSSI(w uint16) StatusRSSI {
	return StatusRSSI{
		RDSReady:       w&STATUSRSSI_RDSR != 0,
		SeekTuneDone:   w&STATUSRSSI_STC != 0,
		SeekFailBandLm: w&STATUSRSSI_SFBL != 0,
		AFCRailed:      w&STATUSRSSI_AFCRL != 0,
		RDSSynced:      w&STATUSRSSI_RDSS != 0,
		BlockAErrors:   uint8(field(w, STATUSRSSI_BLERA)),
		Stereo:         w&STATUSRSSI_ST != 0,
		RSSI:           uint8(field(w, STATUSRSSI_RSSI)),
	}
}

// readChannel extracts the channel index from a READCHAN word.
func readChannel(w uint16) uint16 {
	return w & READCHAN_CHAN
}

// blockErrors extracts BLERB, BLERC and BLERD from a READCHAN word.
func blockErrors(w uint16) (b, c, d uint8) {
	return uint8(field(w, READCHAN_BLERB)), uint8(field(w, READCHAN_BLERC)), uint8(field(w, READCHAN_BLERD))
}
