package automation

import (
	"fmt"
	"strings"

	"github.com/beevik/cmd"
)

// onInstruction is installed via Emulator.EnableCPUHook and invoked once
// per master-CPU instruction while the hook is armed (spec §4.E). It
// never panics across the callback boundary: recoverHook turns a panic
// into an error ack, and trace write errors are ignored.
func (c *Controller) onInstruction(decodePC uint32) {
	defer c.recoverHook("instruction hook")

	s := c.state

	// 1. Feed per-instruction trace recorders first, so a trace still
	// captures the instruction that triggers the pause below.
	s.recorders.onInstruction(decodePC, s.frameCounter)

	bpHit := s.breakpoints.matches(decodePC)

	stepDone := false
	if s.step.kind == stepCountingDown {
		s.step.n--
		if s.step.n == 0 {
			stepDone = true
		}
	}

	if !bpHit && !stepDone {
		return
	}

	s.step.kind = stepPaused

	if bpHit {
		c.ackf("break pc=0x%08X addr=0x%08X frame=%d", decodePC, decodePC, s.frameCounter)
	} else {
		fetchPC := c.emu.MasterPC()
		c.ackf("done step pc=0x%08X frame=%d", fetchPC, s.frameCounter)
	}

	c.spinPoll(func() bool { return c.state.step.kind == stepPaused })
}

func cmdStep(c *Controller, sel cmd.Selection) error {
	n := int64(1)
	if len(sel.Args) > 0 {
		if v, err := parseUintArg(sel.Args[0]); err == nil {
			n = int64(v)
		}
	}
	if n < 1 {
		n = 1
	}
	c.state.step = stepState{kind: stepCountingDown, n: uint64(n)}
	c.recompute()
	c.ackf("ok step %d", n)
	return nil
}

func cmdContinue(c *Controller, sel cmd.Selection) error {
	c.state.step.kind = stepDisarmed
	// Resume frame-granularity execution too: continue is the canonical
	// way out of a breakpoint/step pause reached from any frame_mode,
	// including Paused (spec §8 scenario 2's run-from-a-frame-pause
	// case), so it must release both suspension points, not just the
	// instruction one.
	c.state.frame = frameMode{kind: frameFree}
	c.recompute()
	c.ack("ok continue")
	return nil
}

func cmdBreakpoint(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		return errf("breakpoint", "missing address")
	}
	addr, err := parseHexArg(sel.Args[0])
	if err != nil {
		return errf("breakpoint", "invalid address")
	}
	total := c.state.breakpoints.add(addr)
	c.recompute()
	c.ackf("ok breakpoint 0x%08X total=%d", addr, total)
	return nil
}

func cmdBreakpointClear(c *Controller, sel cmd.Selection) error {
	removed := c.state.breakpoints.clear()
	c.recompute()
	c.ackf("ok breakpoint_clear removed=%d", removed)
	return nil
}

func cmdBreakpointList(c *Controller, sel cmd.Selection) error {
	addrs := c.state.breakpoints.list()
	var b strings.Builder
	fmt.Fprintf(&b, "breakpoints count=%d", len(addrs))
	for _, a := range addrs {
		fmt.Fprintf(&b, " 0x%08X", a)
	}
	c.ack(b.String())
	return nil
}
