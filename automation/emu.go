package automation

// Emulator is the interface the control plane requires of its host
// emulator. It mirrors the four hook surfaces named in the package
// purpose: an instruction-level callback the emulator invokes (via
// EnableCPUHook/DisableCPUHook installing Controller.onInstruction), a
// memory-write callback (the emulator calls Controller.OnWrite
// directly, from both the CPU store path and the DMA path), a
// frame-boundary tick (Controller.Tick), and these read-only
// accessors.
//
// The emulator's CPU, video and DMA semantics are out of scope for this
// package; Emulator is the seam, not an implementation.
type Emulator interface {
	// EnableCPUHook and DisableCPUHook install or remove the
	// per-instruction callback. When disabled the emulator must not pay
	// any per-instruction cost for automation (spec §4.J, §9).
	EnableCPUHook(fn InstructionHookFunc)
	DisableCPUHook()

	// MasterPC returns the fetch PC of the master CPU: the address the
	// fetch unit is currently reading, which differs from the decode PC
	// passed into the instruction hook by the pipeline depth.
	MasterPC() uint32

	// MasterCycle returns the master CPU's monotonic cycle counter,
	// reported in every ack.
	MasterCycle() uint64

	// ReadMem8Cached performs a cache-aware byte read: it first probes
	// the SH-2 instruction cache (4-way, tag match) and falls back to
	// RAM, because code loaded from optical media may only exist in
	// cache.
	ReadMem8Cached(addr uint32) uint8

	// DumpRegs and DumpSlaveRegs format the 23 named register values
	// (R0-R15, PC, SR, PR, GBR, VBR, MACH, MACL) for the master/slave
	// CPU as text.
	DumpRegs() string
	DumpSlaveRegs() string

	// RegsBin and SlaveRegsBin return the 22 little-endian u32 values
	// R0-R15, PC, SR, PR, GBR, VBR, MACH (MACL deliberately omitted).
	RegsBin() [22]uint32
	SlaveRegsBin() [22]uint32

	// VDP2RegsBin returns the raw binary snapshot of the video chip's
	// registers; its layout is owned by the collaborator.
	VDP2RegsBin() []byte

	// Framebuffer returns the current frame's pixel view, or ok=false
	// if none is available yet (e.g. before the first frame).
	Framebuffer() (fb FramebufferView, ok bool)

	// EncodeScreenshot writes the current framebuffer to path in PNG
	// form. PNG encoding itself is out of scope; the emulator performs
	// it.
	EncodeScreenshot(path string, fb FramebufferView) error

	// SetDeterministic installs a fixed PRNG seed; the control plane
	// only forwards the request.
	SetDeterministic()
}

// InstructionHookFunc is invoked once per master-CPU instruction while
// the hook is enabled. decodePC is the address of the instruction
// currently being decoded.
type InstructionHookFunc func(decodePC uint32)

// FramebufferView is an opaque, read-only handle to the current frame's
// pixels; the core never interprets its contents, only forwards it to
// the PNG encoder.
type FramebufferView struct {
	Width, Height int
	Pixels        []byte
}

// CallEvent describes a subroutine control-flow event (JSR/BSR/BSRF or
// equivalent) on either CPU, for the call trace recorder (spec §4.F).
type CallEvent struct {
	Cycle        uint64
	Master       bool // true for M, false for S
	CallerPCMin4 uint32
	Target       uint32
}

// CDBlockEvent is an opaque CD Block trace event; its payload is owned
// by the collaborator and recorded verbatim.
type CDBlockEvent struct {
	Kind    string // "CMD", "DRV", "IRQ", "BUF"
	Payload string
}
