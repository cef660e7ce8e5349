// Package protocol implements the pipe-delimited wire protocol clients
// use to control a running engine, grounded on original_source's
// `handle_command` taxonomy and, for its line-parsing idiom, on the
// teacher's debug_commands.ParseCommand trim-and-split style.
package protocol

import "strings"

// Line is one decoded inbound command: a name plus its pipe-delimited
// arguments. The final argument may itself contain further pipes (a
// JSON trailer) — callers that expect a trailing JSON payload should
// use SplitN(raw, n) to recover it uncut instead of relying on Args.
type Line struct {
	Name string
	Args []string
	Raw  string
}

// ParseLine splits a raw inbound line on '|', matching
// audio_processor.rs's `command.split('|')`. Trailing JSON payloads
// that happen to contain '|' are not a concern here since callers needing
// the verbatim trailer use SplitN against Raw instead of Args.
func ParseLine(raw string) Line {
	raw = strings.TrimRight(raw, "\r\n")
	parts := strings.Split(raw, "|")
	name := ""
	args := parts
	if len(parts) > 0 {
		name = parts[0]
		args = parts[1:]
	}
	return Line{Name: name, Args: args, Raw: raw}
}

// SplitN recovers the first n pipe-delimited fields plus everything
// after the nth pipe verbatim (the JSON trailer), the Go equivalent of
// the original's pointer-arithmetic slice into the source string.
func SplitN(raw string, n int) []string {
	return strings.SplitN(raw, "|", n)
}

// EncodeLine appends a trailing newline, the framing every outbound
// event and inbound command uses over the TCP connection.
func EncodeLine(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
