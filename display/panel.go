package display

import "fmt"

// Station is what the status panel shows about the tuned station.
type Station struct {
	// Frequency in kHz.
	Frequency uint32
	RSSI      uint8
	Stereo    bool
	// Name is the RDS program service name, empty when none was received.
	Name string
}

// Lines formats st for the two rows of the display, e.g.
//
//	101.10MHz ST  40
//	RADIO 1
func (st Station) Lines() (string, string) {
	mode := "MO"
	if st.Stereo {
		mode = "ST"
	}
	top := fmt.Sprintf("%6.2fMHz %s %3d", float64(st.Frequency)/1000, mode, st.RSSI)

	bottom := st.Name
	if bottom == "" {
		bottom = "no RDS"
	}
	return top, bottom
}

// ShowStation renders the station on the panel.
func (lcd *LCD1602Driver) ShowStation(st Station) error {
	top, bottom := st.Lines()
	return lcd.Show(top, bottom)
}

// ShowSeeking tells a seek is in progress.
func (lcd *LCD1602Driver) ShowSeeking(up bool) error {
	if up {
		return lcd.Show("Seeking up...", "")
	}
	return lcd.Show("Seeking down...", "")
}

// ProgramService assembles the eight character station name carried two
// characters at a time by RDS groups 0A and 0B. A name is published only
// after it was received complete twice in a row.
type ProgramService struct {
	cur  [8]byte
	prev [8]byte
	name string
}

// Update feeds one RDS group. It reports whether the published name changed.
func (ps *ProgramService) Update(blockB, blockD uint16) bool {
	if blockB>>12 != 0 {
		return false
	}

	idx := int(blockB&0x3) * 2
	ps.cur[idx] = byte(blockD>>8) & 0x7F
	ps.cur[idx+1] = byte(blockD) & 0x7F

	if idx != 6 {
		return false
	}

	changed := false
	if ps.cur == ps.prev && string(ps.cur[:]) != ps.name {
		ps.name = string(ps.cur[:])
		changed = true
	}
	ps.prev = ps.cur
	return changed
}

// Name returns the last published name.
func (ps *ProgramService) Name() string {
	return ps.name
}

// Reset forgets the name, e.g. after tuning to another station.
func (ps *ProgramService) Reset() {
	*ps = ProgramService{}
}
