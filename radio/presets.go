package radio

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

// maxScanSeeks bounds the number of seeks of one preset scan.
const maxScanSeeks = 30

type station struct {
	freq uint32
	rssi uint8
}

// ScanPresets tunes to the bottom of the band and seeks up through it,
// keeping the strongest stations as presets, strongest first. The scan
// stops when the seek wraps onto a station already found, finds nothing,
// or is cancelled.
func (s *Si4709Driver) ScanPresets(ctx context.Context) ([]uint32, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return nil, errors.Wrap(ErrNotInitialized, "scan presets")
	}

	s.state.Seek = SeekOn
	defer func() { s.state.Seek = SeekOff }()

	if err := s.tune(ctx, s.settings.BottomOfBand); err != nil {
		return nil, err
	}

	var found []station
	seen := make(map[uint32]bool)
	for i := 0; i < maxScanSeeks; i++ {
		if ctx.Err() != nil {
			break
		}

		freq, err := s.seek(ctx, true)
		if err != nil {
			return nil, err
		}
		if freq == 0 || seen[freq] {
			break
		}
		seen[freq] = true

		if err = s.readThrough(StatusRSSIReg); err != nil {
			return nil, err
		}
		found = append(found, station{freq: freq, rssi: uint8(field(s.regs[StatusRSSIReg], STATUSRSSI_RSSI))})

		if s.debugMode {
			s.debugLog("Preset candidate %d kHz rssi %d\n", freq, found[len(found)-1].rssi)
		}
	}

	var presets [NumSeekPresets]uint32
	var rssi [NumSeekPresets]uint8
	for _, st := range found {
		insertPreset(&presets, &rssi, st)
	}
	s.settings.Presets = presets

	return s.presets(), nil
}

// Presets returns the stations kept by the last ScanPresets.
func (s *Si4709Driver) Presets() ([]uint32, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.valid {
		return nil, errors.Wrap(ErrNotInitialized, "presets")
	}
	return s.presets(), nil
}

func (s *Si4709Driver) presets() []uint32 {
	res := make([]uint32, 0, NumSeekPresets)
	for _, f := range s.settings.Presets {
		if f != 0 {
			res = append(res, f)
		}
	}
	return res
}

// insertPreset adds st to the presets ordered by RSSI, strongest first.
// When the table is full the weakest entry is dropped, unless st is weaker
// than all of them.
func insertPreset(presets *[NumSeekPresets]uint32, rssi *[NumSeekPresets]uint8, st station) bool {
	n := 0
	for n < NumSeekPresets && presets[n] != 0 {
		n++
	}
	if n == NumSeekPresets && st.rssi <= rssi[n-1] {
		return false
	}
	if n == NumSeekPresets {
		n--
	}

	// n is the first free slot; shift weaker entries down to make room.
	pos := sort.Search(n, func(i int) bool { return rssi[i] < st.rssi })
	copy(presets[pos+1:n+1], presets[pos:n])
	copy(rssi[pos+1:n+1], rssi[pos:n])
	presets[pos], rssi[pos] = st.freq, st.rssi
	return true
}
