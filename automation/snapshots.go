package automation

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/beevik/cmd"
)

const (
	maxDumpMemSize    = 64 * 1024
	maxDumpMemBinSize = 1024 * 1024
)

func cmdDumpRegs(c *Controller, sel cmd.Selection) error {
	c.ack(c.emu.DumpRegs())
	return nil
}

func cmdDumpSlaveRegs(c *Controller, sel cmd.Selection) error {
	c.ack(c.emu.DumpSlaveRegs())
	return nil
}

func cmdDumpRegsBin(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		return errf("dump_regs_bin", "missing path")
	}
	if err := writeRegsBin(sel.Args[0], c.emu.RegsBin()); err != nil {
		return errf("dump_regs_bin", err.Error())
	}
	c.ackf("ok dump_regs_bin %s", sel.Args[0])
	return nil
}

func cmdDumpSlaveRegsBin(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		return errf("dump_slave_regs_bin", "missing path")
	}
	if err := writeRegsBin(sel.Args[0], c.emu.SlaveRegsBin()); err != nil {
		return errf("dump_slave_regs_bin", err.Error())
	}
	c.ackf("ok dump_slave_regs_bin %s", sel.Args[0])
	return nil
}

// writeRegsBin emits the 22 consecutive little-endian u32s of spec §6's
// binary register file layout: R0-R15, PC, SR, PR, GBR, VBR, MACH. MACL
// is deliberately absent (spec §9 open question (c)).
func writeRegsBin(path string, regs [22]uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var buf [4]byte
	w := bufio.NewWriter(f)
	for _, r := range regs {
		binary.LittleEndian.PutUint32(buf[:], r)
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return w.Flush()
}

func cmdDumpMem(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 2 {
		return errf("dump_mem", "usage: dump_mem <addr> <size>")
	}
	addr, err := parseHexArg(sel.Args[0])
	if err != nil {
		return errf("dump_mem", "invalid address")
	}
	size, err := parseHexArg(sel.Args[1])
	if err != nil {
		return errf("dump_mem", "invalid size")
	}
	if size > maxDumpMemSize {
		size = maxDumpMemSize
	}

	var b strings.Builder
	fmt.Fprintf(&b, "mem %08X\n", addr)
	for row := uint32(0); row < size; row += 16 {
		fmt.Fprintf(&b, "%08X:", addr+row)
		for i := uint32(0); i < 16 && row+i < size; i++ {
			fmt.Fprintf(&b, " %02X", c.emu.ReadMem8Cached(addr+row+i))
		}
		b.WriteByte('\n')
	}
	c.ack(strings.TrimSuffix(b.String(), "\n"))
	return nil
}

func cmdDumpMemBin(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 3 {
		return errf("dump_mem_bin", "usage: dump_mem_bin <addr> <size> <path>")
	}
	addr, err := parseHexArg(sel.Args[0])
	if err != nil {
		return errf("dump_mem_bin", "invalid address")
	}
	size, err := parseHexArg(sel.Args[1])
	if err != nil {
		return errf("dump_mem_bin", "invalid size")
	}
	if size > maxDumpMemBinSize {
		size = maxDumpMemBinSize
	}
	path := sel.Args[2]

	f, err := os.Create(path)
	if err != nil {
		return errf("dump_mem_bin", err.Error())
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for i := uint32(0); i < size; i++ {
		w.WriteByte(c.emu.ReadMem8Cached(addr + i))
	}
	if err := w.Flush(); err != nil {
		return errf("dump_mem_bin", err.Error())
	}
	c.ackf("ok dump_mem_bin 0x%08X 0x%X", addr, size)
	return nil
}

func cmdDumpVDP2Regs(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		return errf("dump_vdp2_regs", "missing path")
	}
	path := sel.Args[0]
	if err := os.WriteFile(path, c.emu.VDP2RegsBin(), 0644); err != nil {
		return errf("dump_vdp2_regs", err.Error())
	}
	c.ackf("ok dump_vdp2_regs %s", path)
	return nil
}

func cmdScreenshot(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		return errf("screenshot", "missing path")
	}
	c.state.pendingScreenshotPath = sel.Args[0]
	c.ackf("ok screenshot_queued %s", sel.Args[0])
	return nil
}
