package radio_test

import (
	"context"
	"log"
	"time"

	"fmreceiver/radio"

	"gobot.io/x/gobot"
	"gobot.io/x/gobot/platforms/raspi"
)

func ExampleSi4709Driver() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	adaptor := raspi.NewAdaptor()

	radioConfig := radio.Si4709Config{
		ResetPin:  "29",
		DebugMode: false,
		Log:       log.Printf,
		DebugLog:  nil,
	}
	rdio, err := radio.NewSi4709Driver(adaptor, radioConfig)
	if err != nil {
		log.Fatalln(err)
	}

	irq := radio.NewInterruptDriver(adaptor, radio.DefaultInterruptPin, rdio.Signal())

	work := func() {
		if err = rdio.SelectChannel(context.Background(), 101100); err != nil {
			log.Fatalln(err)
		}

		gobot.Every(1*time.Second, func() {
			data, err := rdio.RDSData(context.Background())
			if err != nil {
				log.Println(err)
				return
			}
			log.Printf("%d kHz: %04x %04x %04x %04x\n", data.Frequency, data.BlockA, data.BlockB, data.BlockC, data.BlockD)
		})
	}

	robot := gobot.NewRobot("FM Receiver demo",
		[]gobot.Connection{adaptor},
		[]gobot.Device{irq, rdio},
		work,
	)

	if err = robot.Start(); err != nil {
		log.Fatalln(err)
	}
}
