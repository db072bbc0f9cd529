package automation

import (
	"fmt"
	"os"
	"time"
)

// defaultPollInterval is the spin-wait cadence used by both suspension
// points (spec §5): the frame-level spin-wait (§4.D step 6) and the
// instruction-level spin-wait (§4.E step 7).
const defaultPollInterval = 10 * time.Millisecond

// Controller owns ControlState and is the single entry point an
// emulator embeds. It has no background threads: every method is
// expected to be called from the single emulator thread (spec §5).
type Controller struct {
	state      *ControlState
	emu        Emulator
	dispatcher *Dispatcher

	pollInterval time.Duration

	runToCycle struct {
		armed  bool
		target uint64
	}

	log *os.File // nil means "use stderr"
}

// NewController constructs a Controller for baseDir without activating
// it. Call Init to engage the control plane.
func NewController(baseDir string, emu Emulator) *Controller {
	return &Controller{
		state:        newControlState(baseDir),
		emu:          emu,
		dispatcher:   newDispatcher(),
		pollInterval: defaultPollInterval,
	}
}

// SetPollInterval overrides the spin-wait cadence used by both
// suspension points; primarily useful for tests and for tuning how
// promptly the control plane notices a new action-file header over a
// slow filesystem bridge. Non-positive durations are ignored.
func (c *Controller) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.pollInterval = d
	}
}

// Init activates the control plane: it derives the action/ack/log
// paths, writes the initial ready ack, and starts in frame_mode=Paused
// (spec §6 "Startup"; §9 open question (a) resolves the historical
// free-running-vs-paused ambiguity in favor of paused).
func (c *Controller) Init() {
	c.state.Active = true
	c.state.frameCounter = 0
	c.state.frame = frameMode{kind: framePaused}
	c.state.ackSeq = 0
	c.state.lastActionHeader = ""

	c.logf("automation: initialized\n")
	c.logf("  action file: %s\n", c.state.actionPath)
	c.logf("  ack file:    %s\n", c.state.ackPath)

	c.writeAck(c.emu.MasterCycle(), "ready frame=0")
}

// shutdown is the equivalent of the original driver's Automation_Kill:
// it is reached once, either from the quit command or from the
// embedding process's own teardown path, and always emits the shutdown
// ack exactly once (spec §3 invariant 5).
func (c *Controller) shutdown() {
	if !c.state.Active {
		return
	}
	c.state.recorders.closeAll()
	c.emu.DisableCPUHook()
	c.state.hookEnabled = false
	c.ackf("shutdown frame=%d", c.state.frameCounter)
	c.state.Active = false
}

// Shutdown is the public teardown entry point for the embedding
// process, used when the orchestrator disconnects without sending
// quit.
func (c *Controller) Shutdown() {
	c.shutdown()
}

// recoverHook stops a panic from escaping back across a callback
// boundary into the emulator (spec §7: "the control plane never throws
// past a callback boundary back into the emulator"). It is deferred at
// the top of Tick, onInstruction and OnWrite.
func (c *Controller) recoverHook(site string) {
	if r := recover(); r != nil {
		c.ackf("error %s: %v", site, r)
	}
}

func (c *Controller) logf(format string, args ...interface{}) {
	fmt.Fprintf(c.logWriter(), format, args...)
}

func (c *Controller) logWriter() *os.File {
	if c.log != nil {
		return c.log
	}
	return os.Stderr
}

// spinPoll sleeps in pollInterval increments, checking the action file
// each time, for as long as cond returns true and the control plane
// remains active. Commands processed during this loop run on the same
// thread and may freely mutate state: there is nothing to lock (spec
// §5 "Suspension points").
func (c *Controller) spinPoll(cond func() bool) {
	for c.state.Active && cond() {
		time.Sleep(c.pollInterval)
		c.checkActionFile()
	}
}

// SuppressRaise reports whether the window-management collaborator
// should suppress focus-raise behavior while automation is active
// (automation.h's Automation_SuppressRaise).
func (c *Controller) SuppressRaise() bool {
	return c.state.Active
}

// ConsumePendingShowWindow and ConsumePendingHideWindow let the window
// collaborator poll for and consume queued show_window/hide_window
// requests once per frame.
func (c *Controller) ConsumePendingShowWindow() bool {
	v := c.state.pendingWindowShow
	c.state.pendingWindowShow = false
	return v
}

func (c *Controller) ConsumePendingHideWindow() bool {
	v := c.state.pendingWindowHide
	c.state.pendingWindowHide = false
	return v
}

// LogSystemCommand appends a non-automation system event (screenshot,
// save state, etc.) to the input trace, mirroring
// Automation_LogSystemCommand in the original driver.
func (c *Controller) LogSystemCommand(name string) {
	c.state.recorders.logInputEvent(c.state.frameCounter, "system "+name)
}
