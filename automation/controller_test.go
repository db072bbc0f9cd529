package automation

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ssdbg/automation/automation/automationtest"
)

// newTestController builds a Controller wired to a Fake emulator. Most
// tests in this file call checkActionFile directly rather than Tick, so that
// dispatch can be exercised without engaging the frame-level spin-wait
// that Init's Paused starting state would otherwise trigger.
func newTestController(t *testing.T) (*Controller, *automationtest.Fake, string) {
	dir := t.TempDir()
	emu := automationtest.New(4, 4)
	ctrl := NewController(dir, emu)
	ctrl.Init()
	return ctrl, emu, dir
}

func writeAction(t *testing.T, dir string, seq int, lines ...string) {
	path := filepath.Join(dir, "mednafen_action.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	f.WriteString("# " + strconv.Itoa(seq) + "\n")
	for _, l := range lines {
		f.WriteString(l + "\n")
	}
}

func readAck(t *testing.T, dir string) string {
	path := filepath.Join(dir, "mednafen_ack.txt")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.TrimRight(string(data), "\n")
}

func ackSeq(t *testing.T, line string) int {
	idx := strings.LastIndex(line, "seq=")
	if idx < 0 {
		t.Fatalf("ack %q has no seq=", line)
	}
	n := 0
	for _, r := range line[idx+4:] {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func TestReadyAckOnInit(t *testing.T) {
	_, _, dir := newTestController(t)
	ack := readAck(t, dir)
	if !strings.HasPrefix(ack, "ready frame=0") {
		t.Errorf("unexpected initial ack: %q", ack)
	}
}

func TestUnknownCommand(t *testing.T) {
	ctrl, _, dir := newTestController(t)
	writeAction(t, dir, 1, "zorkmid 42")
	ctrl.checkActionFile()
	ack := readAck(t, dir)
	if !strings.HasPrefix(ack, "error unknown command: zorkmid") {
		t.Errorf("unexpected ack: %q", ack)
	}
}

func TestIdempotentHeader(t *testing.T) {
	ctrl, _, dir := newTestController(t)
	writeAction(t, dir, 1, "status")
	ctrl.checkActionFile()
	first := ackSeq(t, readAck(t, dir))

	// Same header again: must not re-dispatch.
	ctrl.checkActionFile()
	second := ackSeq(t, readAck(t, dir))
	if first != second {
		t.Errorf("identical header re-dispatched: seq %d -> %d", first, second)
	}

	// Changing only the padding after the sequence number still counts
	// as a new header (spec §8 property 6).
	os.WriteFile(filepath.Join(dir, "mednafen_action.txt"), []byte("# 1   \nstatus\n"), 0644)
	ctrl.checkActionFile()
	third := ackSeq(t, readAck(t, dir))
	if third <= second {
		t.Errorf("padded header should re-dispatch: seq %d -> %d", second, third)
	}
}

func TestBreakpointHitUsesDecodePC(t *testing.T) {
	ctrl, emu, dir := newTestController(t)
	emu.SetReg(16, 0x1000) // PC slot
	writeAction(t, dir, 1, "breakpoint 0x1000", "run")
	ctrl.checkActionFile()

	hitAck := make(chan string, 1)
	go func() {
		emu.Step(0x1002) // hook fires with decodePC=0x1000, then spins paused
		hitAck <- "returned"
	}()

	var ack string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ack = readAck(t, dir)
		if strings.HasPrefix(ack, "break ") {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !strings.HasPrefix(ack, "break pc=0x00001000 addr=0x00001000") {
		t.Fatalf("unexpected breakpoint ack: %q", ack)
	}

	writeAction(t, dir, 2, "continue") // release the instruction-level spin-wait
	select {
	case <-hitAck:
	case <-time.After(2 * time.Second):
		t.Fatal("instruction-level spin-wait never released")
	}
}

func TestContinueResumesFrameFromPaused(t *testing.T) {
	ctrl, emu, dir := newTestController(t)
	emu.SetReg(16, 0x06004000)

	// Arm a breakpoint while the control plane is still in its initial
	// Paused frame_mode (spec §8 scenario 2: breakpoint armed, then
	// continue, with no intervening "run").
	writeAction(t, dir, 1, "breakpoint 0x06004000", "continue")
	ctrl.checkActionFile()
	if ctrl.state.frame.kind != frameFree {
		t.Fatalf("continue must resume frame-granularity execution, got frame_mode=%v", ctrl.state.frame.kind)
	}

	hitAck := make(chan struct{})
	go func() {
		emu.Step(0x06004002) // hook fires with decodePC=0x06004000
		close(hitAck)
	}()

	var ack string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ack = readAck(t, dir)
		if strings.HasPrefix(ack, "break ") {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !strings.HasPrefix(ack, "break pc=0x06004000 addr=0x06004000") {
		t.Fatalf("expected breakpoint hit after continue-from-paused, got %q", ack)
	}

	writeAction(t, dir, 2, "continue")
	select {
	case <-hitAck:
	case <-time.After(2 * time.Second):
		t.Fatal("instruction-level spin-wait never released")
	}
}

func TestWatchpointHitBothSources(t *testing.T) {
	ctrl, _, dir := newTestController(t)
	writeAction(t, dir, 1, "watchpoint 0x2000")
	ctrl.checkActionFile()

	ctrl.OnWrite(WriteSourceCPU, 0x10, 0x20, 0x2000, 1, 2)
	cpuAck := readAck(t, dir)
	if !strings.HasPrefix(cpuAck, "hit watchpoint") {
		t.Fatalf("expected CPU watchpoint hit, got %q", cpuAck)
	}

	ctrl.OnWrite(WriteSourceDMA, 0x10, 0x20, 0x2000, 2, 3)
	dmaAck := readAck(t, dir)
	if !strings.HasPrefix(dmaAck, "hit watchpoint") {
		t.Fatalf("expected DMA watchpoint hit, got %q", dmaAck)
	}

	hits, err := os.Open(filepath.Join(dir, "watchpoint_hits.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer hits.Close()
	scanner := bufio.NewScanner(hits)
	count := 0
	for scanner.Scan() {
		count++
	}
	if count != 2 {
		t.Errorf("expected 2 watchpoint_hits.txt lines, got %d", count)
	}
}

func TestDumpRegsBinSize(t *testing.T) {
	ctrl, _, dir := newTestController(t)
	path := filepath.Join(dir, "regs.bin")
	writeAction(t, dir, 1, "dump_regs_bin "+path)
	ctrl.checkActionFile()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 88 {
		t.Errorf("expected 88 bytes (22 u32), got %d", info.Size())
	}
}

func TestInputMaskRoundTrip(t *testing.T) {
	ctrl, _, dir := newTestController(t)
	writeAction(t, dir, 1, "input up", "input a")
	ctrl.checkActionFile()

	masked := ctrl.GetInput(0, 0)
	if masked&(1<<4) == 0 || masked&(1<<10) == 0 {
		t.Errorf("expected UP and A bits set, got 0x%04X", masked)
	}
	if other := ctrl.GetInput(1, 0x00FF); other != 0x00FF {
		t.Errorf("port 1 must be untouched, got 0x%04X", other)
	}
}

func TestHookActivationMonotoneRule(t *testing.T) {
	ctrl, _, dir := newTestController(t)

	writeAction(t, dir, 1, "breakpoint 0x4000")
	ctrl.checkActionFile()
	if !ctrl.state.hookEnabled {
		t.Fatal("hook should be enabled once a breakpoint is armed")
	}

	writeAction(t, dir, 2, "breakpoint_clear")
	ctrl.checkActionFile()
	if ctrl.state.hookEnabled {
		t.Fatal("hook should be disabled once breakpoints, step and traces are all clear")
	}

	writeAction(t, dir, 3, "watchpoint 0x5000")
	ctrl.checkActionFile()
	if ctrl.state.hookEnabled {
		t.Fatal("a watchpoint alone must never arm the hook")
	}
}

func TestQuitShutsDownAfterTwoAcks(t *testing.T) {
	ctrl, _, dir := newTestController(t)
	writeAction(t, dir, 1, "quit")
	ctrl.checkActionFile()
	ack := readAck(t, dir)
	if !strings.HasPrefix(ack, "shutdown frame=") {
		t.Errorf("expected final shutdown ack, got %q", ack)
	}
	if ctrl.state.Active {
		t.Error("quit must deactivate the control plane")
	}
}

func TestFrameAdvanceCompletesAfterNTicks(t *testing.T) {
	ctrl, emu, dir := newTestController(t)

	writeAction(t, dir, 1, "frame_advance 3")
	ctrl.Tick() // frame=1, arms AdvanceRemaining(3)
	ok := readAck(t, dir)
	if !strings.HasPrefix(ok, "ok frame_advance 3") {
		t.Fatalf("expected ok frame_advance 3, got %q", ok)
	}
	okSeq := ackSeq(t, ok)

	ctrl.Tick() // frame=2, 3->2 (not yet Paused, so this returns promptly)
	emu.Step(0)
	ctrl.Tick() // frame=3, 2->1
	emu.Step(0)

	tickDone := make(chan struct{})
	go func() {
		ctrl.Tick() // frame=4, 1->0: emits done, then spins Paused
		close(tickDone)
	}()

	var done string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		done = readAck(t, dir)
		if strings.HasPrefix(done, "done frame_advance") {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !strings.HasPrefix(done, "done frame_advance frame=4") {
		t.Fatalf("expected done frame_advance frame=4, got %q", done)
	}
	if ackSeq(t, done) <= okSeq {
		t.Errorf("done seq %d must exceed ok seq %d", ackSeq(t, done), okSeq)
	}

	writeAction(t, dir, 2, "run") // release the frame-level spin-wait
	select {
	case <-tickDone:
	case <-time.After(2 * time.Second):
		t.Fatal("frame-level spin-wait never released")
	}
}

func TestCallAndCDBlockEventsFeedUnifiedTrace(t *testing.T) {
	ctrl, _, dir := newTestController(t)
	unifiedPath := filepath.Join(dir, "unified.txt")
	callPath := filepath.Join(dir, "call.txt")
	cdbPath := filepath.Join(dir, "cdb.txt")
	scdqPath := filepath.Join(dir, "scdq.txt")
	writeAction(t, dir, 1,
		"unified_trace "+unifiedPath,
		"call_trace "+callPath,
		"cdb_trace "+cdbPath,
		"scdq_trace "+scdqPath,
	)
	ctrl.checkActionFile()

	ctrl.RecordCall(CallEvent{Cycle: 10, Master: true, CallerPCMin4: 0x1000, Target: 0x2000})
	ctrl.RecordCDBlockEvent(CDBlockEvent{Kind: "CMD", Payload: "play"})
	ctrl.RecordSCDQEvent("queued sector 0")

	call, err := os.ReadFile(callPath)
	if err != nil || !strings.Contains(string(call), "M 0x1000 0x2000") {
		t.Fatalf("call trace missing event: %q err=%v", call, err)
	}
	cdb, err := os.ReadFile(cdbPath)
	if err != nil || !strings.Contains(string(cdb), "CMD play") {
		t.Fatalf("cdb trace missing event: %q err=%v", cdb, err)
	}
	scdq, err := os.ReadFile(scdqPath)
	if err != nil || !strings.Contains(string(scdq), "queued sector 0") {
		t.Fatalf("scdq trace missing event: %q err=%v", scdq, err)
	}
	unified, err := os.ReadFile(unifiedPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(unified), "M 0x1000 0x2000") || !strings.Contains(string(unified), "CMD play") {
		t.Fatalf("unified trace missing merged events: %q", unified)
	}
}

func TestInsnTraceUnifiedRequiresUnifiedTraceOpen(t *testing.T) {
	ctrl, emu, dir := newTestController(t)

	writeAction(t, dir, 1, "insn_trace_unified 0 10")
	ctrl.checkActionFile()
	ack := readAck(t, dir)
	if !strings.HasPrefix(ack, "error insn_trace_unified:") {
		t.Fatalf("expected error without an open unified_trace, got %q", ack)
	}

	unifiedPath := filepath.Join(dir, "unified.txt")
	writeAction(t, dir, 2, "unified_trace "+unifiedPath, "insn_trace_unified 1 1")
	ctrl.checkActionFile()
	ack = readAck(t, dir)
	if !strings.HasPrefix(ack, "ok insn_trace_unified") {
		t.Fatalf("expected success once unified_trace is open, got %q", ack)
	}

	emu.SetReg(16, 0x3000)
	emu.Step(0x3002) // onInstruction fires at line 1, within [1,1]

	unified, err := os.ReadFile(unifiedPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(unified), "m pc=0x00003000") {
		t.Fatalf("expected instruction event in unified trace, got %q", unified)
	}
}
