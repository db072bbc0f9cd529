package automation

import "errors"

// errQuit is returned by the quit command handler to unwind the
// dispatcher loop. It is not itself reported as an error ack; quit
// always succeeds.
var errQuit = errors.New("automation: quit requested")

// protoError is a protocol- or resource-level failure surfaced to the
// orchestrator as "error <cmd>: <reason>". Bounds failures (clamped
// sizes, coerced counts) are not errors and never produce one. The
// dispatcher (dispatch.go) prepends the command name itself, so Error
// reports only the reason.
type protoError struct {
	cmd    string
	reason string
}

func (e *protoError) Error() string {
	return e.reason
}

func errf(cmd, reason string) error {
	return &protoError{cmd: cmd, reason: reason}
}
