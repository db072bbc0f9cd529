package automation

import (
	"github.com/beevik/cmd"
)

// Dispatcher turns one action-file line into exactly one (or, for
// frame_advance/run_to_frame/pc_trace_frame and quit, two) acks. It is built
// once, over the full command vocabulary of spec §6, following the
// teacher's host.cmds construction (github.com/beevik/go6502
// host/host.go): a flat github.com/beevik/cmd command tree keyed by
// exact command name, with each command's Param holding the handler.
//
// Unlike the teacher's interactive tree, this one has no subcommands:
// the wire protocol is one flat token per line, so "breakpoint_clear"
// and "breakpoint_list" are registered as distinct top-level commands
// rather than "breakpoint clear"/"breakpoint list".
type Dispatcher struct {
	tree *cmd.Tree
}

type cmdHandler func(*Controller, cmd.Selection) error

func newDispatcher() *Dispatcher {
	return &Dispatcher{tree: buildCommandTree()}
}

// dispatchLine parses and executes a single command line, always
// producing at least one ack (spec §5 ordering guarantee).
func (c *Controller) dispatchLine(line string) {
	sel, err := c.dispatcher.tree.Lookup(line)
	switch err {
	case cmd.ErrNotFound:
		tok := firstToken(line)
		c.ackf("error unknown command: %s", tok)
		return
	case cmd.ErrAmbiguous:
		tok := firstToken(line)
		c.ackf("error unknown command: %s", tok)
		return
	}
	if err != nil {
		c.ackf("error unknown command: %s", firstToken(line))
		return
	}
	if sel.Command == nil {
		return
	}

	handler, ok := sel.Command.Param.(cmdHandler)
	if !ok {
		c.ackf("error unknown command: %s", firstToken(line))
		return
	}

	if herr := handler(c, sel); herr != nil {
		if herr == errQuit {
			c.ack("ok quit")
			c.shutdown()
			return
		}
		c.ackf("error %s: %s", sel.Command.Name, herr.Error())
	}
}

func firstToken(line string) string {
	for i, r := range line {
		if r == ' ' || r == '\t' {
			return line[:i]
		}
	}
	return line
}
