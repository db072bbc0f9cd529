// Package automation implements a file-based debug and automation
// control plane for a cycle-accurate emulator. An external orchestrator
// process drives the emulator by writing whitespace-tokenized commands
// to an action file and reading sequence-numbered acknowledgements from
// an ack file; see Controller for the entry point an emulator embeds.
package automation
