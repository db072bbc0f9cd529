package automation

// recompute is the hook activation manager (spec §4.J): the writer of
// the emulator's per-instruction callback pointer (apart from shutdown,
// which removes the hook unconditionally), called after any
// state change that could alter the invariant in §3(1). It is
// idempotent, so call sites never need to know whether the hook is
// already in the desired state.
func (c *Controller) recompute() {
	want := c.state.hookShouldBeEnabled()
	if want == c.state.hookEnabled {
		return
	}
	if want {
		c.emu.EnableCPUHook(c.onInstruction)
	} else {
		c.emu.DisableCPUHook()
	}
	c.state.hookEnabled = want
}
