package automation

import (
	"bufio"
	"fmt"
	"os"

	"github.com/beevik/cmd"
)

// OnWrite is the single funnel both physical write-observation paths
// (the CPU store path and the SCU-DMA engine's write path) forward
// into (spec §4.G). It is non-blocking: watchpoint hits never spin-wait,
// so storms of DMA writes cannot stall the emulator thread.
func (c *Controller) OnWrite(source WriteSource, pc, pr, addr, old, new uint32) {
	defer c.recoverHook("watchpoint callback")

	w := &c.state.watch
	switch w.kind {
	case watchSingle:
		if addr != w.addr {
			return
		}
		c.ackf("hit watchpoint pc=0x%08X pr=0x%08X old=0x%08X new=0x%08X frame=%d",
			pc, pr, old, new, c.state.frameCounter)
		c.appendWatchHit(pc, pr, addr, old, new)
	case watchRange:
		if addr < w.lo || addr > w.hi {
			return
		}
		c.appendRangeWatchLine(w.logPath, pc, pr, addr, old, new)
	}
}

func (c *Controller) appendWatchHit(pc, pr, addr, old, new uint32) {
	line := fmt.Sprintf("pc=0x%08X pr=0x%08X addr=0x%08X old=0x%08X new=0x%08X frame=%d\n",
		pc, pr, addr, old, new, c.state.frameCounter)
	appendLine(c.state.wpLogPath, line)
}

func (c *Controller) appendRangeWatchLine(path string, pc, pr, addr, old, new uint32) {
	line := fmt.Sprintf("pc=0x%08X pr=0x%08X addr=0x%08X old=0x%08X new=0x%08X frame=%d\n",
		pc, pr, addr, old, new, c.state.frameCounter)
	appendLine(path, line)
}

// appendLine opens path for append (creating it on first hit) and
// writes one line. The file stays closed between hits: watchpoint
// storms are rate-limited by the OS page cache, not by this package
// holding a descriptor open across the whole session.
func appendLine(path, line string) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	w.WriteString(line)
	w.Flush()
}

func cmdWatchpoint(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		return errf("watchpoint", "missing address")
	}
	addr, err := parseHexArg(sel.Args[0])
	if err != nil {
		return errf("watchpoint", "invalid address")
	}
	c.state.watch = watchpointState{kind: watchSingle, addr: addr}
	c.ackf("ok watchpoint 0x%08X", addr)
	return nil
}

func cmdWatchpointClear(c *Controller, sel cmd.Selection) error {
	c.state.watch = watchpointState{kind: watchOff}
	c.ack("ok watchpoint_clear")
	return nil
}

func cmdVDP2Watchpoint(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 3 {
		return errf("vdp2_watchpoint", "usage: vdp2_watchpoint <lo> <hi> <path>")
	}
	lo, err := parseHexArg(sel.Args[0])
	if err != nil {
		return errf("vdp2_watchpoint", "invalid lo address")
	}
	hi, err := parseHexArg(sel.Args[1])
	if err != nil {
		return errf("vdp2_watchpoint", "invalid hi address")
	}
	c.state.watch = watchpointState{kind: watchRange, lo: lo, hi: hi, logPath: sel.Args[2]}
	c.ackf("ok vdp2_watchpoint 0x%08X 0x%08X %s", lo, hi, sel.Args[2])
	return nil
}

func cmdVDP2WatchpointClear(c *Controller, sel cmd.Selection) error {
	c.state.watch = watchpointState{kind: watchOff}
	c.ack("ok vdp2_watchpoint_clear")
	return nil
}
