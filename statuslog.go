package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"fmreceiver/display"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// statusLog prints the tuned station on the console. On a terminal the
// line is redrawn in place, otherwise one line is written per change.
type statusLog struct {
	mutex    sync.Mutex
	out      io.Writer
	realtime bool
	last     string

	preGenerated struct {
		stereo string
		mono   string

		weakColor   *color.Color
		strongColor *color.Color
		nameColor   *color.Color
	}
}

// strongRSSI is the level above which the signal is shown as good.
const strongRSSI = 30

func newStatusLog() *statusLog {
	s := &statusLog{
		out:      os.Stdout,
		realtime: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}

	c := color.New(color.FgHiWhite)
	c.Add(color.BgGreen)
	s.preGenerated.stereo = c.Sprint(" ST ")

	c = color.New(color.FgHiWhite)
	c.Add(color.BgWhite)
	s.preGenerated.mono = c.Sprint(" MO ")

	s.preGenerated.weakColor = color.New(color.FgHiRed)
	s.preGenerated.strongColor = color.New(color.FgHiGreen)
	s.preGenerated.nameColor = color.New(color.FgHiMagenta, color.Bold)
	return s
}

func (s *statusLog) format(st display.Station) string {
	mode := s.preGenerated.mono
	if st.Stereo {
		mode = s.preGenerated.stereo
	}

	rssi := s.preGenerated.weakColor
	if st.RSSI >= strongRSSI {
		rssi = s.preGenerated.strongColor
	}

	name := st.Name
	if name == "" {
		name = "--------"
	}

	return fmt.Sprintf("%6.2f MHz %s rssi %s %s",
		float64(st.Frequency)/1000, mode, rssi.Sprintf("%3d", st.RSSI), s.preGenerated.nameColor.Sprint(name))
}

func (s *statusLog) print(st display.Station) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	line := s.format(st)
	if line == s.last {
		return
	}
	s.last = line

	if s.realtime {
		// erase the line and return the cursor to column 0
		fmt.Fprintf(s.out, "\r\033[K%s", line)
		return
	}
	fmt.Fprintln(s.out, line)
}
