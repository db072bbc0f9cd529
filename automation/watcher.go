package automation

import (
	"bufio"
	"os"
	"strings"
)

// checkActionFile implements the content-based change detection of
// spec §4.B. stat(2) mtime has only second-level resolution over the
// filesystem bridge this protocol is designed to survive, so detection
// is content-based: the first line must be a "# <seq>" header, and
// commands are only dispatched when that header differs, byte for
// byte, from the last one accepted. This means changing only the
// padding after the sequence number still registers as a new header
// (spec §8 property 6), which is why the comparison is a literal
// string compare and not a parsed-sequence-number compare.
func (c *Controller) checkActionFile() {
	f, err := os.Open(c.state.actionPath)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return
	}
	header := stripCR(scanner.Text())
	if !strings.HasPrefix(header, "#") {
		return
	}
	if header == c.state.lastActionHeader {
		return
	}
	c.state.lastActionHeader = header

	for scanner.Scan() {
		line := stripCR(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c.dispatchLine(line)
		if !c.state.Active {
			return
		}
	}
}

func stripCR(s string) string {
	return strings.TrimSuffix(s, "\r")
}
