package automation

import "path/filepath"

// frameModeKind is the tag of the frame-granularity tagged union
// described by spec: Free, Paused, AdvanceRemaining(n), RunToFrame(t).
type frameModeKind int

const (
	frameFree frameModeKind = iota
	framePaused
	frameAdvanceRemaining
	frameRunToFrame
)

// frameMode is a tagged union: n is the remaining advance count when
// kind is frameAdvanceRemaining, and the target frame when kind is
// frameRunToFrame. It is meaningless for the other two kinds.
type frameMode struct {
	kind frameModeKind
	n    uint64

	// advanceIsTraceFrame is set when the current AdvanceRemaining was
	// started by pc_trace_frame rather than frame_advance, so that the
	// frame scheduler knows which "done" message to emit and which
	// recorder to close when the countdown reaches zero.
	advanceIsTraceFrame bool
}

// stepKind is the tag of the instruction-granularity tagged union:
// Disarmed, CountingDown(n), Paused.
type stepKind int

const (
	stepDisarmed stepKind = iota
	stepCountingDown
	stepPaused
)

type stepState struct {
	kind stepKind
	n    uint64
}

// watchpointKind is the tag of the mutually exclusive watchpoint union:
// Off, Single(addr), Range(lo, hi, log_path).
type watchpointKind int

const (
	watchOff watchpointKind = iota
	watchSingle
	watchRange
)

type watchpointState struct {
	kind    watchpointKind
	addr    uint32 // watchSingle
	lo, hi  uint32 // watchRange
	logPath string // watchRange
}

// WriteSource distinguishes the two independent physical write paths a
// watchpoint must observe (spec §4.G): the CPU store path and the
// SCU-DMA engine's write path.
type WriteSource int

const (
	WriteSourceCPU WriteSource = iota
	WriteSourceDMA
)

// breakpointSet is an insertion-ordered multiset of PC addresses.
// Duplicates are allowed and are reported as multiplicity in the total
// count (spec §3), so this is a slice, not a map.
type breakpointSet struct {
	addrs []uint32
}

func (b *breakpointSet) add(addr uint32) int {
	b.addrs = append(b.addrs, addr)
	return len(b.addrs)
}

func (b *breakpointSet) clear() int {
	n := len(b.addrs)
	b.addrs = nil
	return n
}

func (b *breakpointSet) matches(pc uint32) bool {
	for _, a := range b.addrs {
		if a == pc {
			return true
		}
	}
	return false
}

func (b *breakpointSet) list() []uint32 {
	return b.addrs
}

// ControlState is the single record owning every piece of mutable
// control-plane state. It is exclusively accessed from the emulator
// thread: the frame tick, the instruction hook, the write-observer
// callback and the command dispatcher all run interleaved on that one
// thread, so ControlState carries no mutex (spec §5, §9).
type ControlState struct {
	Active bool

	baseDir     string
	actionPath  string
	ackPath     string
	wpLogPath   string

	frameCounter uint64
	frame        frameMode
	step         stepState

	breakpoints breakpointSet
	watch       watchpointState

	inputMask     uint16
	inputOverride bool

	pendingScreenshotPath string
	pendingWindowShow     bool
	pendingWindowHide     bool

	hookEnabled bool

	ackSeq           uint64
	lastActionHeader string

	recorders recorderSet
}

func newControlState(baseDir string) *ControlState {
	return &ControlState{
		baseDir:    baseDir,
		actionPath: filepath.Join(baseDir, "mednafen_action.txt"),
		ackPath:    filepath.Join(baseDir, "mednafen_ack.txt"),
		wpLogPath:  filepath.Join(baseDir, "watchpoint_hits.txt"),
		frame:      frameMode{kind: framePaused},
		step:       stepState{kind: stepDisarmed},
	}
}

// hookShouldBeEnabled implements the invariant of spec §3(1): the
// per-instruction hook is armed iff step is armed, or breakpoints are
// non-empty, or any per-instruction trace is armed. Watchpoints alone
// never arm it.
func (s *ControlState) hookShouldBeEnabled() bool {
	return s.step.kind != stepDisarmed ||
		len(s.breakpoints.addrs) > 0 ||
		s.recorders.anyInstructionTraceArmed()
}
