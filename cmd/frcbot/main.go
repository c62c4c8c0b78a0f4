package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Config  string `short:"c" long:"config" default:"frcbot.json" description:"Configuration file"`
	Verbose bool   `short:"v" long:"verbose" description:"Log every step and region change"`

	Setup    SetupCommand    `command:"setup" description:"Find the bench rig, calibrate it and choose the autonomous routine"`
	Simulate SimulateCommand `command:"simulate" alias:"sim" description:"Run the autonomous period against the simulated robot"`
	Run      RunCommand      `command:"run" description:"Run the autonomous period on the bench rig"`
	Catalog  CatalogCommand  `command:"catalog" description:"List the autonomous routines"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "frcbot - autonomous sequencer for the competition robot"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
