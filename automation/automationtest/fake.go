// Package automationtest provides a minimal, deterministic Emulator
// implementation for exercising the automation package's protocol
// without a real Saturn core, in the same spirit as go6502's in-memory
// test CPU harness.
package automationtest

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/ssdbg/automation/automation"
)

// Fake implements automation.Emulator over a flat byte-addressable
// memory and a synthetic register file. It has no pipeline, so
// MasterPC always reports the address one instruction past the last
// one handed to the hook.
type Fake struct {
	mem   [1 << 20]byte
	regs  [22]uint32 // R0-R15, PC, SR, PR, GBR, VBR, MACH
	sregs [22]uint32
	macl  uint32 // master MACL, reported in DumpRegs text but not RegsBin
	smacl uint32 // slave MACL

	cycle uint64
	hook  automation.InstructionHookFunc

	deterministic bool

	fbWidth, fbHeight int
	fb                []byte
}

// New returns a Fake with the framebuffer sized w x h RGBA.
func New(w, h int) *Fake {
	return &Fake{fbWidth: w, fbHeight: h, fb: make([]byte, w*h*4)}
}

func (f *Fake) EnableCPUHook(fn automation.InstructionHookFunc) { f.hook = fn }
func (f *Fake) DisableCPUHook()                                 { f.hook = nil }

// Step feeds one instruction through the hook, advancing PC and cycle
// count as a caller-controlled test driver, mirroring how a real core
// would call the hook once per fetched instruction.
func (f *Fake) Step(nextPC uint32) {
	decodePC := f.regs[16] // PC register slot
	f.regs[16] = nextPC
	f.cycle++
	if f.hook != nil {
		f.hook(decodePC)
	}
}

func (f *Fake) MasterPC() uint32    { return f.regs[16] }
func (f *Fake) MasterCycle() uint64 { return f.cycle }

func (f *Fake) ReadMem8Cached(addr uint32) uint8 {
	if int(addr) >= len(f.mem) {
		return 0
	}
	return f.mem[addr]
}

// WriteMem8 is a test-only helper simulating the CPU store path; it is
// not part of the Emulator interface.
func (f *Fake) WriteMem8(addr uint32, v uint8) {
	if int(addr) < len(f.mem) {
		f.mem[addr] = v
	}
}

// DumpRegs and DumpSlaveRegs report all 23 named values (spec §4.H),
// unlike RegsBin/SlaveRegsBin which deliberately omit MACL.
func (f *Fake) DumpRegs() string      { return dumpRegsText(f.regs, f.macl) }
func (f *Fake) DumpSlaveRegs() string { return dumpRegsText(f.sregs, f.smacl) }

var regNames = []string{
	"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7",
	"R8", "R9", "R10", "R11", "R12", "R13", "R14", "R15",
	"PC", "SR", "PR", "GBR", "VBR", "MACH",
}

func dumpRegsText(regs [22]uint32, macl uint32) string {
	s := ""
	for i, name := range regNames {
		s += fmt.Sprintf("%-4s = 0x%08X\n", name, regs[i])
	}
	s += fmt.Sprintf("%-4s = 0x%08X\n", "MACL", macl)
	return s
}

func (f *Fake) RegsBin() [22]uint32      { return f.regs }
func (f *Fake) SlaveRegsBin() [22]uint32 { return f.sregs }

func (f *Fake) VDP2RegsBin() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(f.cycle))
	return buf
}

func (f *Fake) Framebuffer() (fb automation.FramebufferView, ok bool) {
	if f.fb == nil {
		return automation.FramebufferView{}, false
	}
	return automation.FramebufferView{Width: f.fbWidth, Height: f.fbHeight, Pixels: f.fb}, true
}

// EncodeScreenshot writes a trivial placeholder file rather than a real
// PNG: this fake exists to exercise the protocol, not image codecs.
func (f *Fake) EncodeScreenshot(path string, fb automation.FramebufferView) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("PNG-PLACEHOLDER %dx%d\n", fb.Width, fb.Height)), 0644)
}

func (f *Fake) SetDeterministic() { f.deterministic = true }

// Deterministic reports whether SetDeterministic has been called.
func (f *Fake) Deterministic() bool { return f.deterministic }

// SetReg sets register i (0..21, same order as RegsBin) for test setup.
func (f *Fake) SetReg(i int, v uint32) { f.regs[i] = v }
