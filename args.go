package main

import (
	"fmt"
	"os"

	"github.com/pborman/getopt"
)

var (
	configFile   string
	verboseLog   bool
	scanOnStart  bool
	frequencyKHz uint32
)

func parseArgs() {
	h := getopt.BoolLong("help", 'h', "display help")
	c := getopt.StringLong("config", 'c', "", "Load settings from this YAML file")
	v := getopt.BoolLong("verbose", 'v', "Enable verbose (debug) logging")
	s := getopt.BoolLong("scan", 's', "Scan the band for presets after tuning")
	f := getopt.IntLong("frequency", 'f', 0, "Tune to this frequency in kHz, overrides the config file")

	getopt.Parse()

	if *h || *f < 0 {
		fmt.Println(getAboutStr())
		getopt.Usage()
		os.Exit(1)
	}

	configFile = *c
	verboseLog = *v
	scanOnStart = *s
	frequencyKHz = uint32(*f)
}

func getAboutStr() string {
	return "fmreceiver - Si4709 FM receiver controller"
}

// applyArgs lays the command line over the loaded configuration.
func applyArgs(cfg *Config) error {
	if verboseLog {
		cfg.Log.Debug = true
	}
	if scanOnStart {
		cfg.Radio.ScanPresets = true
	}
	if frequencyKHz != 0 {
		cfg.Radio.FrequencyKHz = frequencyKHz
		return cfg.Validate()
	}
	return nil
}
