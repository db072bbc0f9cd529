// Command ssautomation drives the automation control plane against a
// fake emulator for protocol smoke-testing, grounded on
// github.com/beevik/go6502's app/main.go: stdlib flag parsing, no CLI
// framework, Ctrl-C handled through os/signal.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/ssdbg/automation/automation"
	"github.com/ssdbg/automation/automation/automationtest"
)

func main() {
	baseDir := flag.String("base-dir", ".", "directory containing the action/ack files")
	pollInterval := flag.Duration("poll-interval", 10*time.Millisecond, "spin-wait poll cadence")
	selftest := flag.Bool("selftest", false, "run 60 frames of the fake emulator and exit instead of running until interrupted")
	flag.Parse()

	if *pollInterval <= 0 {
		exitOnError(fmt.Errorf("-poll-interval must be positive"))
	}

	emu := automationtest.New(256, 224)
	ctrl := automation.NewController(*baseDir, emu)
	ctrl.SetPollInterval(*pollInterval)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		ctrl.Shutdown()
		os.Exit(0)
	}()

	ctrl.Init()

	if *selftest {
		runSelftest(ctrl, emu)
		ctrl.Shutdown()
		return
	}

	for {
		ctrl.Tick()
		emu.Step(emu.MasterPC() + 2)
	}
}

// runSelftest drives a handful of frames so the action/ack protocol can
// be observed end to end without a real Saturn core attached.
func runSelftest(ctrl *automation.Controller, emu *automationtest.Fake) {
	for i := 0; i < 60; i++ {
		ctrl.Tick()
		emu.Step(emu.MasterPC() + 2)
	}
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
