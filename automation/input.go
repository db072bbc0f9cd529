package automation

import (
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/prefixtree/v2"
)

// buttonBit names one bit of the input word (spec §6 "Input bit
// layout"); buttonTree resolves a button name to its bit, the same way
// host/settings.go's settingsTree resolves a field name to its
// reflect.Kind.
type buttonBit struct {
	name string
	bit  uint16
}

var (
	buttonTree = prefixtree.New[*buttonBit]()
	buttonBits = []buttonBit{
		{"Z", 0}, {"Y", 1}, {"X", 2}, {"R", 3},
		{"UP", 4}, {"DOWN", 5}, {"LEFT", 6}, {"RIGHT", 7},
		{"B", 8}, {"C", 9}, {"A", 10}, {"START", 11},
		{"L", 15},
	}
)

func init() {
	for i := range buttonBits {
		buttonTree.Add(strings.ToLower(buttonBits[i].name), &buttonBits[i])
	}
}

// GetInput ORs the current input_mask into data's port-0 word, leaving
// every other port untouched (spec §4.I).
func (c *Controller) GetInput(port int, data uint16) uint16 {
	if port != 0 || !c.state.inputOverride {
		return data
	}
	return data | c.state.inputMask
}

func cmdInput(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		return errf("input", "missing button name")
	}
	b, err := buttonTree.FindValue(strings.ToLower(sel.Args[0]))
	if err != nil {
		return errf("input", "unknown button "+sel.Args[0])
	}
	c.state.inputMask |= 1 << b.bit
	c.state.inputOverride = c.state.inputMask != 0
	c.state.recorders.logInputEvent(c.state.frameCounter, "input "+sel.Args[0])
	c.ackf("ok input %s", sel.Args[0])
	return nil
}

func cmdInputRelease(c *Controller, sel cmd.Selection) error {
	if len(sel.Args) < 1 {
		return errf("input_release", "missing button name")
	}
	b, err := buttonTree.FindValue(strings.ToLower(sel.Args[0]))
	if err != nil {
		return errf("input_release", "unknown button "+sel.Args[0])
	}
	c.state.inputMask &^= 1 << b.bit
	c.state.inputOverride = c.state.inputMask != 0
	c.state.recorders.logInputEvent(c.state.frameCounter, "input_release "+sel.Args[0])
	c.ackf("ok input_release %s", sel.Args[0])
	return nil
}

func cmdInputClear(c *Controller, sel cmd.Selection) error {
	c.state.inputMask = 0
	c.state.inputOverride = false
	c.state.recorders.logInputEvent(c.state.frameCounter, "input_clear")
	c.ack("ok input_clear")
	return nil
}
