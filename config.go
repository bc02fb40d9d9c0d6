package main

import (
	"io/ioutil"
	"os"
	"strconv"

	"fmreceiver/radio"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is the receiver program configuration.
type Config struct {
	Radio    RadioConfig    `yaml:"radio"`
	Controls ControlsConfig `yaml:"controls"`
	Display  DisplayConfig  `yaml:"display"`
	Log      LogConfig      `yaml:"log"`
}

// RadioConfig holds the tuner wiring and its startup settings.
type RadioConfig struct {
	Bus          int    `yaml:"bus"`
	ResetPin     string `yaml:"resetPin"`
	InterruptPin string `yaml:"interruptPin"`

	FrequencyKHz uint32 `yaml:"frequencyKHz"`
	Band         string `yaml:"band"`
	SpacingKHz   uint32 `yaml:"spacingKHz"`
	Volume       uint8  `yaml:"volume"`
	DeEmphasisUs uint8  `yaml:"deEmphasisUs"`
	Mono         bool   `yaml:"mono"`

	SeekRSSI uint8 `yaml:"seekRssi"`
	SeekSNR  uint8 `yaml:"seekSnr"`
	SeekFMID uint8 `yaml:"seekFmid"`

	RDSTimeoutMs uint32 `yaml:"rdsTimeoutMs"`
	RDSPollMs    int    `yaml:"rdsPollMs"`

	StrictStationCheck bool `yaml:"strictStationCheck"`
	MaxBusyPolls       int  `yaml:"maxBusyPolls"`
	ScanPresets        bool `yaml:"scanPresets"`
}

// ControlsConfig holds the push button pins.
type ControlsConfig struct {
	SeekUpPin   string `yaml:"seekUpPin"`
	SeekDownPin string `yaml:"seekDownPin"`
	CancelPin   string `yaml:"cancelPin"`
}

// DisplayConfig holds the status panel wiring.
type DisplayConfig struct {
	Enabled bool `yaml:"enabled"`
	Bus     int  `yaml:"bus"`
	Address int  `yaml:"address"`
}

// LogConfig holds the logging settings. An empty File logs to stderr only.
type LogConfig struct {
	Debug      bool   `yaml:"debug"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

var bands = map[string]radio.Band{
	"87.5-108": radio.Band87500To108000,
	"76-108":   radio.Band76000To108000,
	"76-90":    radio.Band76000To90000,
}

// LoadConfig reads the configuration from path over the defaults, then
// applies the environment overrides. An empty path uses the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, errors.Wrapf(err, "failed to load config from %s", path)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Radio: RadioConfig{
			Bus:          1,
			ResetPin:     "29",
			InterruptPin: radio.DefaultInterruptPin,
			FrequencyKHz: 101100,
			Band:         "87.5-108",
			SpacingKHz:   100,
			Volume:       radio.MaxVolume,
			DeEmphasisUs: 50,
			SeekRSSI:     0,
			SeekSNR:      1,
			SeekFMID:     0,
			RDSTimeoutMs: 100,
			RDSPollMs:    250,
		},
		Controls: ControlsConfig{
			SeekUpPin:   "11",
			SeekDownPin: "13",
			CancelPin:   "15",
		},
		Display: DisplayConfig{
			Enabled: true,
			Bus:     1,
			Address: 0x27,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

func loadFromFile(cfg *Config, filename string) error {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.UnmarshalStrict(data, cfg)
}

func applyEnvOverrides(cfg *Config) error {
	if freq := os.Getenv("FMRECEIVER_FREQUENCY_KHZ"); freq != "" {
		v, err := strconv.ParseUint(freq, 10, 32)
		if err != nil {
			return errors.Wrapf(err, "invalid FMRECEIVER_FREQUENCY_KHZ %q", freq)
		}
		cfg.Radio.FrequencyKHz = uint32(v)
	}

	if vol := os.Getenv("FMRECEIVER_VOLUME"); vol != "" {
		v, err := strconv.ParseUint(vol, 10, 8)
		if err != nil {
			return errors.Wrapf(err, "invalid FMRECEIVER_VOLUME %q", vol)
		}
		cfg.Radio.Volume = uint8(v)
	}

	if file := os.Getenv("FMRECEIVER_LOG_FILE"); file != "" {
		cfg.Log.File = file
	}

	if os.Getenv("FMRECEIVER_DEBUG") == "1" {
		cfg.Log.Debug = true
	}
	return nil
}

// Validate checks the settings against what the tuner supports.
func (c *Config) Validate() error {
	band, ok := bands[c.Radio.Band]
	if !ok {
		return errors.Errorf("unknown band %q, must be one of 87.5-108, 76-108, 76-90", c.Radio.Band)
	}

	switch radio.ChannelSpacing(c.Radio.SpacingKHz) {
	case radio.Spacing200kHz, radio.Spacing100kHz, radio.Spacing50kHz:
	default:
		return errors.Errorf("channel spacing %d kHz must be 200, 100 or 50", c.Radio.SpacingKHz)
	}

	low, high := bandLimits(band)
	if c.Radio.FrequencyKHz < low || c.Radio.FrequencyKHz > high {
		return errors.Errorf("frequency %d kHz is outside the %s band", c.Radio.FrequencyKHz, band)
	}

	if c.Radio.Volume > radio.MaxVolume {
		return errors.Errorf("volume %d is above %d", c.Radio.Volume, radio.MaxVolume)
	}
	if c.Radio.DeEmphasisUs != uint8(radio.DeEmphasis50) && c.Radio.DeEmphasisUs != uint8(radio.DeEmphasis75) {
		return errors.Errorf("de-emphasis %d µs must be 50 or 75", c.Radio.DeEmphasisUs)
	}
	if c.Radio.SeekRSSI > radio.MaxSeekRSSI || c.Radio.SeekSNR > radio.MaxSeekSNR || c.Radio.SeekFMID > radio.MaxSeekFMID {
		return errors.Errorf("seek thresholds rssi=%d snr=%d fmid=%d out of range",
			c.Radio.SeekRSSI, c.Radio.SeekSNR, c.Radio.SeekFMID)
	}

	if c.Radio.RDSTimeoutMs == 0 || c.Radio.RDSTimeoutMs > 10000 {
		return errors.Errorf("rds timeout %d ms is outside [1, 10000]", c.Radio.RDSTimeoutMs)
	}
	if c.Radio.RDSPollMs <= 0 {
		return errors.Errorf("rds poll interval %d ms must be positive", c.Radio.RDSPollMs)
	}
	if c.Radio.MaxBusyPolls < 0 {
		return errors.Errorf("max busy polls %d must not be negative", c.Radio.MaxBusyPolls)
	}
	if c.Radio.ResetPin == "" || c.Radio.InterruptPin == "" {
		return errors.New("reset and interrupt pins are required")
	}

	if c.Display.Enabled && (c.Display.Address <= 0 || c.Display.Address > 0x7F) {
		return errors.Errorf("display address 0x%x is not a 7-bit i2c address", c.Display.Address)
	}

	return nil
}

// band returns the configured band; Validate must have passed.
func (c *Config) band() radio.Band {
	return bands[c.Radio.Band]
}

func bandLimits(b radio.Band) (uint32, uint32) {
	switch b {
	case radio.Band76000To108000:
		return 76000, 108000
	case radio.Band76000To90000:
		return 76000, 90000
	}
	return 87500, 108000
}
