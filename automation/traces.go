package automation

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/beevik/cmd"
)

// recorderSet owns every trace recorder of spec §4.F. Each recorder is
// independently armed/disarmed; arming opens its file, disarming closes
// it. Every recorder is single-producer (the emulator thread), so none
// of this needs locking, matching ControlState's own discipline.
type recorderSet struct {
	pcTrace          fileRecorder // per-frame PC trace; auto-disarms at frame end
	callTrace        fileRecorder
	insnTrace        lineWindowRecorder
	insnTraceUnified lineWindowRecorder // shares unifiedTrace's file, own window
	unifiedTrace     fileRecorder
	scdqTrace        fileRecorder
	cdbTrace         fileRecorder
	inputTrace       fileRecorder

	lineCounter uint64 // unified instruction-event line counter
}

type fileRecorder struct {
	armed bool
	path  string
	file  *os.File
	w     *bufio.Writer
}

type lineWindowRecorder struct {
	fileRecorder
	startLine, stopLine uint64
}

func (r *fileRecorder) open(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	r.file = f
	r.w = bufio.NewWriter(f)
	r.path = path
	r.armed = true
	return nil
}

func (r *fileRecorder) close() {
	if !r.armed {
		return
	}
	if r.w != nil {
		r.w.Flush()
	}
	if r.file != nil {
		r.file.Close()
	}
	r.armed = false
	r.file = nil
	r.w = nil
}

func (r *fileRecorder) writeLine(line string) {
	if !r.armed || r.w == nil {
		return
	}
	fmt.Fprintln(r.w, line)
	r.w.Flush()
}

func (rs *recorderSet) anyInstructionTraceArmed() bool {
	return rs.pcTrace.armed || rs.insnTrace.armed || rs.insnTraceUnified.armed
}

func (rs *recorderSet) closeAll() {
	rs.pcTrace.close()
	rs.callTrace.close()
	rs.insnTrace.close()
	rs.insnTraceUnified.close()
	rs.unifiedTrace.close()
	rs.scdqTrace.close()
	rs.cdbTrace.close()
	rs.inputTrace.close()
}

// onInstruction feeds the per-instruction trace recorders (spec §4.E
// step 1, §4.F rows 1/3/4). It must run before breakpoint/step logic so
// that a trace captures the instruction that triggers a pause too.
func (rs *recorderSet) onInstruction(decodePC uint32, frame uint64) {
	if rs.pcTrace.armed {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], decodePC)
		rs.pcTrace.w.Write(buf[:])
	}

	rs.lineCounter++
	line := rs.lineCounter

	if rs.insnTrace.armed && line >= rs.insnTrace.startLine && line <= rs.insnTrace.stopLine {
		rs.insnTrace.writeLine(fmt.Sprintf("m pc=0x%08X frame=%d line=%d", decodePC, frame, line))
	}
	if rs.insnTraceUnified.armed && line >= rs.insnTraceUnified.startLine && line <= rs.insnTraceUnified.stopLine {
		rs.unifiedTrace.writeLine(fmt.Sprintf("m pc=0x%08X frame=%d", decodePC, frame))
	}
}

// finishPCTraceFrame closes the per-frame PC trace at the end of its one
// armed frame (spec §4.D step 4).
func (rs *recorderSet) finishPCTraceFrame() {
	rs.pcTrace.close()
}

func (rs *recorderSet) recordCall(ev CallEvent) {
	tag := "S"
	if ev.Master {
		tag = "M"
	}
	line := fmt.Sprintf("%d %s %#x %#x", ev.Cycle, tag, ev.CallerPCMin4, ev.Target)
	rs.callTrace.writeLine(line)
	if rs.unifiedTrace.armed {
		rs.unifiedTrace.writeLine(line)
	}
}

func (rs *recorderSet) recordCDBlock(ev CDBlockEvent) {
	line := fmt.Sprintf("%s %s", ev.Kind, ev.Payload)
	rs.cdbTrace.writeLine(line)
	if rs.unifiedTrace.armed {
		rs.unifiedTrace.writeLine(line)
	}
}

// recordSCDQ feeds the SCDQ trace (spec §4.F): the CD Block's sector
// command/data queue, an event stream distinct from the CD-block trace
// even though both originate from the same collaborator callback.
func (rs *recorderSet) recordSCDQ(payload string) {
	rs.scdqTrace.writeLine(payload)
}

func (rs *recorderSet) logInputEvent(frame uint64, line string) {
	rs.inputTrace.writeLine(fmt.Sprintf("frame=%d %s", frame, line))
}

// RecordCall is called by the emulator's control-flow instrumentation
// (JSR/BSR/BSRF or equivalent) on either CPU, feeding the call trace and,
// if armed, the unified trace (spec §4.F).
func (c *Controller) RecordCall(ev CallEvent) {
	c.state.recorders.recordCall(ev)
}

// RecordCDBlockEvent is called by the CD Block collaborator for each of
// its CMD/DRV/IRQ/BUF events, feeding the CD-block trace and, if armed,
// the unified trace (spec §4.F).
func (c *Controller) RecordCDBlockEvent(ev CDBlockEvent) {
	c.state.recorders.recordCDBlock(ev)
}

// RecordSCDQEvent is called by the CD Block collaborator for each sector
// command/data queue event, feeding the SCDQ trace (spec §4.F).
func (c *Controller) RecordSCDQEvent(payload string) {
	c.state.recorders.recordSCDQ(payload)
}

// Command handlers -----------------------------------------------------

func cmdPCTraceFrame(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		return errf("pc_trace_frame", "missing path")
	}
	if err := c.state.recorders.pcTrace.open(sel.Args[0]); err != nil {
		return errf("pc_trace_frame", err.Error())
	}
	c.state.frame = frameMode{kind: frameAdvanceRemaining, n: 1, advanceIsTraceFrame: true}
	c.recompute()
	c.ack("ok pc_trace_frame_started")
	return nil
}

func cmdCallTrace(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		return errf("call_trace", "missing path")
	}
	if err := c.state.recorders.callTrace.open(sel.Args[0]); err != nil {
		return errf("call_trace", err.Error())
	}
	c.ackf("ok call_trace %s", sel.Args[0])
	return nil
}

func cmdCallTraceStop(c *Controller, sel cmd.Selection) error {
	c.state.recorders.callTrace.close()
	c.ack("ok call_trace_stop")
	return nil
}

func cmdInsnTrace(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 3 {
		return errf("insn_trace", "usage: insn_trace <path> <start> <stop>")
	}
	start, stop, err := parseLineWindow(sel.Args[1], sel.Args[2])
	if err != nil {
		return errf("insn_trace", err.Error())
	}
	if err := c.state.recorders.insnTrace.open(sel.Args[0]); err != nil {
		return errf("insn_trace", err.Error())
	}
	c.state.recorders.insnTrace.startLine = start
	c.state.recorders.insnTrace.stopLine = stop
	c.recompute()
	c.ackf("ok insn_trace %s", sel.Args[0])
	return nil
}

func cmdInsnTraceStop(c *Controller, sel cmd.Selection) error {
	c.state.recorders.insnTrace.close()
	c.recompute()
	c.ack("ok insn_trace_stop")
	return nil
}

func cmdInsnTraceUnified(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 2 {
		return errf("insn_trace_unified", "usage: insn_trace_unified <start> <stop>")
	}
	// insn_trace_unified takes no path of its own: its events are
	// written into the already-open unified trace stream (spec §4.F),
	// so arming it before unified_trace would silently produce no
	// output despite an "ok" ack.
	if !c.state.recorders.unifiedTrace.armed {
		return errf("insn_trace_unified", "unified_trace is not open")
	}
	start, stop, err := parseLineWindow(sel.Args[0], sel.Args[1])
	if err != nil {
		return errf("insn_trace_unified", err.Error())
	}
	c.state.recorders.insnTraceUnified.armed = true
	c.state.recorders.insnTraceUnified.startLine = start
	c.state.recorders.insnTraceUnified.stopLine = stop
	c.recompute()
	c.ack("ok insn_trace_unified")
	return nil
}

func cmdUnifiedTrace(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		return errf("unified_trace", "missing path")
	}
	if err := c.state.recorders.unifiedTrace.open(sel.Args[0]); err != nil {
		return errf("unified_trace", err.Error())
	}
	c.ackf("ok unified_trace %s", sel.Args[0])
	return nil
}

func cmdUnifiedTraceStop(c *Controller, sel cmd.Selection) error {
	c.state.recorders.unifiedTrace.close()
	c.state.recorders.insnTraceUnified.armed = false
	c.recompute()
	c.ack("ok unified_trace_stop")
	return nil
}

func cmdSCDQTrace(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		return errf("scdq_trace", "missing path")
	}
	if err := c.state.recorders.scdqTrace.open(sel.Args[0]); err != nil {
		return errf("scdq_trace", err.Error())
	}
	c.ackf("ok scdq_trace %s", sel.Args[0])
	return nil
}

func cmdSCDQTraceStop(c *Controller, sel cmd.Selection) error {
	c.state.recorders.scdqTrace.close()
	c.ack("ok scdq_trace_stop")
	return nil
}

func cmdCDBTrace(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		return errf("cdb_trace", "missing path")
	}
	if err := c.state.recorders.cdbTrace.open(sel.Args[0]); err != nil {
		return errf("cdb_trace", err.Error())
	}
	c.ackf("ok cdb_trace %s", sel.Args[0])
	return nil
}

func cmdCDBTraceStop(c *Controller, sel cmd.Selection) error {
	c.state.recorders.cdbTrace.close()
	c.ack("ok cdb_trace_stop")
	return nil
}

func cmdInputTrace(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		return errf("input_trace", "missing path")
	}
	if err := c.state.recorders.inputTrace.open(sel.Args[0]); err != nil {
		return errf("input_trace", err.Error())
	}
	c.ackf("ok input_trace %s", sel.Args[0])
	return nil
}

func cmdInputTraceStop(c *Controller, sel cmd.Selection) error {
	c.state.recorders.inputTrace.close()
	c.ack("ok input_trace_stop")
	return nil
}

func parseLineWindow(a, b string) (uint64, uint64, error) {
	start, err := parseUintArg(a)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start line")
	}
	stop, err := parseUintArg(b)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid stop line")
	}
	return start, stop, nil
}
