package automation

import (
	"fmt"
	"os"
)

// writeAck truncates ackPath and writes a single response message, with
// " cycle=<C> seq=<S>" appended. Every call bumps ackSeq so that seq
// strictly increases across the file's lifetime (spec §3 invariant 4,
// §8 property 1). It is safe to call from the frame tick, the command
// dispatcher, the instruction hook and the watchpoint callback: they
// all run on the single emulator thread (spec §5).
func (c *Controller) writeAck(cycle uint64, msg string) {
	c.state.ackSeq++
	line := fmt.Sprintf("%s cycle=%d seq=%d\n", msg, cycle, c.state.ackSeq)

	f, err := os.Create(c.state.ackPath)
	if err != nil {
		// There is nowhere left to report this failure to; the ack
		// path itself is unwritable. Drop it rather than panic across
		// a callback boundary.
		return
	}
	defer f.Close()
	_, _ = f.WriteString(line)
}

// ack writes an ack using the emulator's current master cycle.
func (c *Controller) ack(msg string) {
	c.writeAck(c.emu.MasterCycle(), msg)
}

func (c *Controller) ackf(format string, args ...interface{}) {
	c.ack(fmt.Sprintf(format, args...))
}
