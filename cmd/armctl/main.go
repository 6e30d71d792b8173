package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Config string `short:"c" long:"config" default:"armctl.json" description:"Configuration file"`

	Setup SetupCommand `command:"setup" description:"Scan for arms and calibrate them"`
	Run   RunCommand   `command:"run" alias:"teleop" description:"Run the control loop (teleoperation or autonomous)"`
	Solve SolveCommand `command:"solve" description:"Evaluate the arm kinematics without hardware"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "armctl - kinematics and control loop for SO-101 arms"

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
