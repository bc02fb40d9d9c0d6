package main

import (
	"context"
	"os"
	"sync"
	"time"

	"fmreceiver/display"
	"fmreceiver/radio"

	"github.com/pkg/errors"
	"gobot.io/x/gobot"
	"gobot.io/x/gobot/drivers/gpio"
	"gobot.io/x/gobot/drivers/i2c"
	"gobot.io/x/gobot/platforms/raspi"
	"go.uber.org/zap"
)

// receiver ties the tuner to the status panel.
type receiver struct {
	log  *zap.SugaredLogger
	rdio *radio.Si4709Driver
	lcd  *display.LCD1602Driver
	term *statusLog

	mtx sync.Mutex
	ps  display.ProgramService
}

func main() {
	parseArgs()

	cfg, err := LoadConfig(configFile)
	if err == nil {
		err = applyArgs(cfg)
	}
	if err != nil {
		newLogger(LogConfig{}).Fatal(err)
	}

	logger := newLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	if err = run(cfg, logger); err != nil {
		logger.Error(err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *Config, logger *zap.SugaredLogger) error {
	adaptor := raspi.NewAdaptor()

	radioConfig := radio.Si4709Config{
		ResetPin:           cfg.Radio.ResetPin,
		DebugMode:          cfg.Log.Debug,
		StrictStationCheck: cfg.Radio.StrictStationCheck,
		MaxBusyPolls:       cfg.Radio.MaxBusyPolls,
		Log:                logger.Infof,
		DebugLog:           logger.Debugf,
	}
	rdio, err := radio.NewSi4709Driver(adaptor, radioConfig, i2c.WithBus(cfg.Radio.Bus))
	if err != nil {
		return errors.Wrap(err, "failed to create the receiver driver")
	}

	rcv := &receiver{log: logger, rdio: rdio}

	irq := radio.NewInterruptDriver(adaptor, cfg.Radio.InterruptPin, rdio.Signal())
	devices := []gobot.Device{irq, rdio}

	if cfg.Display.Enabled {
		rcv.lcd, err = display.NewLCD1602Driver(adaptor,
			i2c.WithBus(cfg.Display.Bus),
			i2c.WithAddress(cfg.Display.Address),
		)
		if err != nil {
			return errors.Wrap(err, "failed to create the display driver")
		}
		devices = append(devices, rcv.lcd)
	} else {
		rcv.term = newStatusLog()
	}

	devices = append(devices, rcv.buttons(adaptor, cfg.Controls)...)

	work := func() {
		if err := rcv.setup(cfg); err != nil {
			logger.Fatal(err)
		}

		gobot.Every(time.Duration(cfg.Radio.RDSPollMs)*time.Millisecond, rcv.poll)
	}

	robot := gobot.NewRobot("FM Receiver",
		[]gobot.Connection{adaptor},
		devices,
		work,
	)

	return robot.Start()
}

// buttons wires the front panel push buttons. A pin left empty in the
// configuration has no button.
func (r *receiver) buttons(reader gpio.DigitalReader, cfg ControlsConfig) []gobot.Device {
	var res []gobot.Device

	add := func(pin string, fn func()) {
		if pin == "" {
			return
		}
		btn := gpio.NewButtonDriver(reader, pin)
		_ = btn.On(gpio.ButtonPush, func(interface{}) { go fn() })
		res = append(res, btn)
	}

	add(cfg.SeekUpPin, func() { r.seek(true) })
	add(cfg.SeekDownPin, func() { r.seek(false) })
	add(cfg.CancelPin, r.rdio.CancelSeek)

	return res
}

func (r *receiver) setup(cfg *Config) error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"band", func() error { return r.rdio.SetBand(cfg.band()) }},
		{"spacing", func() error { return r.rdio.SetChannelSpacing(radio.ChannelSpacing(cfg.Radio.SpacingKHz)) }},
		{"de-emphasis", func() error { return r.rdio.SetDeEmphasis(radio.DeEmphasis(cfg.Radio.DeEmphasisUs)) }},
		{"seek rssi", func() error { return r.rdio.SetSeekRSSIThreshold(cfg.Radio.SeekRSSI) }},
		{"seek snr", func() error { return r.rdio.SetSeekSNRThreshold(cfg.Radio.SeekSNR) }},
		{"seek fmid", func() error { return r.rdio.SetSeekFMIDThreshold(cfg.Radio.SeekFMID) }},
		{"rds timeout", func() error { return r.rdio.SetRDSTimeout(cfg.Radio.RDSTimeoutMs) }},
		{"rds", r.rdio.EnableRDS},
		{"volume", func() error { return r.rdio.SetVolume(cfg.Radio.Volume) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return errors.Wrapf(err, "failed to set %s", step.name)
		}
	}
	if cfg.Radio.Mono {
		if err := r.rdio.SetMono(); err != nil {
			return errors.Wrap(err, "failed to force mono")
		}
	}

	if id, err := r.rdio.ChipID(); err == nil {
		r.log.Infow("receiver ready", "version", id.ChipVersion, "device", id.Device, "firmware", id.FirmwareVersion)
	}

	ctx := context.Background()
	if cfg.Radio.ScanPresets {
		r.show(func(lcd *display.LCD1602Driver) error { return lcd.Show("Scanning...", "") })
		presets, err := r.rdio.ScanPresets(ctx)
		if err != nil {
			return errors.Wrap(err, "preset scan failed")
		}
		r.log.Infow("preset scan done", "presets", presets)
	}

	if err := r.rdio.SelectChannel(ctx, cfg.Radio.FrequencyKHz); err != nil {
		return errors.Wrapf(err, "failed to tune to %d kHz", cfg.Radio.FrequencyKHz)
	}
	r.log.Infof("tuned to %d kHz", cfg.Radio.FrequencyKHz)
	return nil
}

func (r *receiver) seek(up bool) {
	r.show(func(lcd *display.LCD1602Driver) error { return lcd.ShowSeeking(up) })

	var (
		freq uint32
		err  error
	)
	if up {
		freq, err = r.rdio.SeekUp(context.Background())
	} else {
		freq, err = r.rdio.SeekDown(context.Background())
	}
	if err != nil {
		r.log.Errorw("seek failed", "up", up, "error", err)
		return
	}
	if freq == 0 {
		r.log.Info("seek found no station")
		return
	}

	r.mtx.Lock()
	r.ps.Reset()
	r.mtx.Unlock()
	r.log.Infof("seek stopped at %d kHz", freq)
}

// poll reads one RDS group and refreshes the panel.
func (r *receiver) poll() {
	data, err := r.rdio.RDSData(context.Background())
	switch {
	case err == nil:
		if data.BlockBErrors < 3 && data.BlockDErrors < 3 {
			r.mtx.Lock()
			if r.ps.Update(data.BlockB, data.BlockD) {
				r.log.Infow("station name", "name", r.ps.Name(), "frequency", data.Frequency)
			}
			r.mtx.Unlock()
		}
	case errors.Is(err, radio.ErrTimeout):
		r.log.Debug("no RDS group")
	default:
		r.log.Warnw("RDS read failed", "error", err)
		return
	}

	status, err := r.rdio.StatusRSSI()
	if err != nil {
		r.log.Warnw("status read failed", "error", err)
		return
	}
	freq, err := r.rdio.Channel()
	if err != nil {
		r.log.Warnw("channel read failed", "error", err)
		return
	}

	r.mtx.Lock()
	st := display.Station{Frequency: freq, RSSI: status.RSSI, Stereo: status.Stereo, Name: r.ps.Name()}
	r.mtx.Unlock()

	r.showStation(st)
}

func (r *receiver) showStation(st display.Station) {
	if r.term != nil {
		r.term.print(st)
	}
	r.show(func(lcd *display.LCD1602Driver) error { return lcd.ShowStation(st) })
}

func (r *receiver) show(fn func(*display.LCD1602Driver) error) {
	if r.lcd == nil {
		return
	}
	if err := fn(r.lcd); err != nil {
		r.log.Warnw("display update failed", "error", err)
	}
}
