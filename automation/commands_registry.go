package automation

import "github.com/beevik/cmd"

// buildCommandTree registers the flat command vocabulary of spec §6 as
// a single-level github.com/beevik/cmd tree (component K), the same
// construction host.go uses for its interactive commands, minus any
// subcommand nesting: every wire command is a top-level entry whose
// Param holds its cmdHandler.
func buildCommandTree() *cmd.Tree {
	return cmd.NewTree("automation commands", []cmd.Command{
		{Name: "frame_advance", Description: "advance N frames (default 1)", Param: cmdHandler(cmdFrameAdvance)},
		{Name: "run_to_frame", Description: "run until frame N", Param: cmdHandler(cmdRunToFrame)},
		{Name: "run", Description: "resume free-running", Param: cmdHandler(cmdRun)},
		{Name: "pause", Description: "pause at the next frame boundary", Param: cmdHandler(cmdPause)},
		{Name: "quit", Description: "terminate the control plane", Param: cmdHandler(cmdQuit)},
		{Name: "status", Description: "report current control state", Param: cmdHandler(cmdStatus)},

		{Name: "input", Description: "press a button", Param: cmdHandler(cmdInput)},
		{Name: "input_release", Description: "release a button", Param: cmdHandler(cmdInputRelease)},
		{Name: "input_clear", Description: "release every button", Param: cmdHandler(cmdInputClear)},

		{Name: "dump_regs", Description: "dump master CPU registers as text", Param: cmdHandler(cmdDumpRegs)},
		{Name: "dump_slave_regs", Description: "dump slave CPU registers as text", Param: cmdHandler(cmdDumpSlaveRegs)},
		{Name: "dump_regs_bin", Description: "dump master CPU registers as binary", Param: cmdHandler(cmdDumpRegsBin)},
		{Name: "dump_slave_regs_bin", Description: "dump slave CPU registers as binary", Param: cmdHandler(cmdDumpSlaveRegsBin)},
		{Name: "dump_mem", Description: "hex dump of memory", Param: cmdHandler(cmdDumpMem)},
		{Name: "dump_mem_bin", Description: "raw dump of memory", Param: cmdHandler(cmdDumpMemBin)},
		{Name: "dump_vdp2_regs", Description: "dump VDP2 register file", Param: cmdHandler(cmdDumpVDP2Regs)},
		{Name: "screenshot", Description: "queue a PNG screenshot", Param: cmdHandler(cmdScreenshot)},

		{Name: "step", Description: "step N instructions (default 1)", Param: cmdHandler(cmdStep)},
		{Name: "breakpoint", Description: "arm a PC breakpoint", Param: cmdHandler(cmdBreakpoint)},
		{Name: "breakpoint_clear", Description: "clear all breakpoints", Param: cmdHandler(cmdBreakpointClear)},
		{Name: "breakpoint_list", Description: "list armed breakpoints", Param: cmdHandler(cmdBreakpointList)},
		{Name: "continue", Description: "disarm step and resume", Param: cmdHandler(cmdContinue)},

		{Name: "dump_cycle", Description: "report the current master cycle", Param: cmdHandler(cmdDumpCycle)},
		{Name: "run_to_cycle", Description: "run until master cycle N", Param: cmdHandler(cmdRunToCycle)},
		{Name: "deterministic", Description: "install a fixed PRNG seed", Param: cmdHandler(cmdDeterministic)},

		{Name: "pc_trace_frame", Description: "record decode PCs for one frame", Param: cmdHandler(cmdPCTraceFrame)},
		{Name: "call_trace", Description: "start the call trace", Param: cmdHandler(cmdCallTrace)},
		{Name: "call_trace_stop", Description: "stop the call trace", Param: cmdHandler(cmdCallTraceStop)},
		{Name: "insn_trace", Description: "start the windowed instruction trace", Param: cmdHandler(cmdInsnTrace)},
		{Name: "insn_trace_stop", Description: "stop the windowed instruction trace", Param: cmdHandler(cmdInsnTraceStop)},
		{Name: "insn_trace_unified", Description: "start instruction events into the unified trace", Param: cmdHandler(cmdInsnTraceUnified)},
		{Name: "unified_trace", Description: "start the unified trace", Param: cmdHandler(cmdUnifiedTrace)},
		{Name: "unified_trace_stop", Description: "stop the unified trace", Param: cmdHandler(cmdUnifiedTraceStop)},
		{Name: "scdq_trace", Description: "start the SCDQ trace", Param: cmdHandler(cmdSCDQTrace)},
		{Name: "scdq_trace_stop", Description: "stop the SCDQ trace", Param: cmdHandler(cmdSCDQTraceStop)},
		{Name: "cdb_trace", Description: "start the CD-Block trace", Param: cmdHandler(cmdCDBTrace)},
		{Name: "cdb_trace_stop", Description: "stop the CD-Block trace", Param: cmdHandler(cmdCDBTraceStop)},
		{Name: "input_trace", Description: "start the input trace", Param: cmdHandler(cmdInputTrace)},
		{Name: "input_trace_stop", Description: "stop the input trace", Param: cmdHandler(cmdInputTraceStop)},

		{Name: "watchpoint", Description: "arm a single-address watchpoint", Param: cmdHandler(cmdWatchpoint)},
		{Name: "watchpoint_clear", Description: "disarm the watchpoint", Param: cmdHandler(cmdWatchpointClear)},
		{Name: "vdp2_watchpoint", Description: "arm a range watchpoint", Param: cmdHandler(cmdVDP2Watchpoint)},
		{Name: "vdp2_watchpoint_clear", Description: "disarm the range watchpoint", Param: cmdHandler(cmdVDP2WatchpointClear)},

		{Name: "show_window", Description: "request the host window be shown", Param: cmdHandler(cmdShowWindow)},
		{Name: "hide_window", Description: "request the host window be hidden", Param: cmdHandler(cmdHideWindow)},
	})
}
