package automation

import (
	"strconv"

	"github.com/beevik/cmd"
)

// Tick drives the four frame modes (spec §4.D). The embedding emulator
// calls it exactly once per emulated frame; a queued screenshot is
// resolved from the view returned by Emulator.Framebuffer.
func (c *Controller) Tick() {
	defer c.recoverHook("frame tick")

	if !c.state.Active {
		return
	}

	// 1. Increment frame_counter.
	c.state.frameCounter++

	// 2. Resolve a pending screenshot if one is queued.
	c.resolveScreenshot()

	// 3. run_to_frame / run_to_cycle transition to Paused once reached.
	if c.state.frame.kind == frameRunToFrame && c.state.frameCounter >= c.state.frame.n {
		c.state.frame = frameMode{kind: framePaused}
		c.ackf("done run_to_frame frame=%d", c.state.frameCounter)
	}
	c.checkRunToCycle()

	// 4. AdvanceRemaining countdown.
	if c.state.frame.kind == frameAdvanceRemaining {
		c.state.frame.n--
		if c.state.frame.n == 0 {
			wasTrace := c.state.frame.advanceIsTraceFrame
			c.state.frame = frameMode{kind: framePaused}
			if wasTrace {
				c.state.recorders.finishPCTraceFrame()
				c.recompute()
				c.ackf("done pc_trace_frame frame=%d", c.state.frameCounter)
			} else {
				c.ackf("done frame_advance frame=%d", c.state.frameCounter)
			}
		}
	}

	// 5. Poll the action file.
	c.checkActionFile()

	// 6. Spin while paused.
	c.spinPoll(func() bool { return c.state.frame.kind == framePaused })
}

func (c *Controller) checkRunToCycle() {
	if !c.runToCycle.armed {
		return
	}
	if c.emu.MasterCycle() < c.runToCycle.target {
		return
	}
	c.runToCycle.armed = false
	c.state.frame = frameMode{kind: framePaused}
	c.ackf("done run_to_cycle cycle=%d frame=%d", c.emu.MasterCycle(), c.state.frameCounter)
}

func (c *Controller) resolveScreenshot() {
	path := c.state.pendingScreenshotPath
	if path == "" {
		return
	}
	c.state.pendingScreenshotPath = ""

	fb, ok := c.emu.Framebuffer()
	if !ok {
		c.ackf("error screenshot: no framebuffer available")
		return
	}
	if err := c.emu.EncodeScreenshot(path, fb); err != nil {
		c.ackf("error screenshot: %s", err.Error())
		return
	}
	c.ackf("ok screenshot %s", path)
}

func cmdFrameAdvance(c *Controller, sel cmd.Selection) error {
	n := int64(1)
	if len(sel.Args) > 0 {
		if v, err := strconv.ParseInt(sel.Args[0], 10, 64); err == nil {
			n = v
		}
	}
	if n < 1 {
		n = 1
	}
	c.state.frame = frameMode{kind: frameAdvanceRemaining, n: uint64(n)}
	c.ackf("ok frame_advance %d", n)
	return nil
}

func cmdRunToFrame(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		return errf("run_to_frame", "missing frame number")
	}
	n, err := strconv.ParseUint(sel.Args[0], 10, 64)
	if err != nil {
		return errf("run_to_frame", "invalid frame number")
	}
	c.state.frame = frameMode{kind: frameRunToFrame, n: n}
	c.ackf("ok run_to_frame %d", n)
	return nil
}

func cmdRun(c *Controller, sel cmd.Selection) error {
	c.state.frame = frameMode{kind: frameFree}
	c.state.step.kind = stepDisarmed
	c.recompute()
	c.ack("ok run")
	return nil
}

func cmdPause(c *Controller, sel cmd.Selection) error {
	c.state.frame = frameMode{kind: framePaused}
	c.ackf("ok pause frame=%d", c.state.frameCounter)
	return nil
}

func cmdDumpCycle(c *Controller, sel cmd.Selection) error {
	c.ackf("ok dump_cycle value=%d", c.emu.MasterCycle())
	return nil
}

func cmdRunToCycle(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		return errf("run_to_cycle", "missing target")
	}
	n, err := strconv.ParseUint(sel.Args[0], 10, 64)
	if err != nil {
		return errf("run_to_cycle", "invalid target")
	}
	c.runToCycle.armed = true
	c.runToCycle.target = n
	c.state.frame = frameMode{kind: frameFree}
	c.ackf("ok run_to_cycle target=%d", n)
	return nil
}

func cmdDeterministic(c *Controller, sel cmd.Selection) error {
	c.emu.SetDeterministic()
	c.ack("ok deterministic")
	return nil
}

func cmdShowWindow(c *Controller, sel cmd.Selection) error {
	c.state.pendingWindowShow = true
	c.ack("ok show_window")
	return nil
}

func cmdHideWindow(c *Controller, sel cmd.Selection) error {
	c.state.pendingWindowHide = true
	c.ack("ok hide_window")
	return nil
}

func cmdQuit(c *Controller, sel cmd.Selection) error {
	return errQuit
}

func cmdStatus(c *Controller, sel cmd.Selection) error {
	paused := c.state.frame.kind == framePaused
	instPaused := c.state.step.kind == stepPaused
	c.ackf("status frame=%d paused=%t inst_paused=%t breakpoints=%d input=0x%02X",
		c.state.frameCounter, paused, instPaused, len(c.state.breakpoints.addrs), c.state.inputMask)
	return nil
}
