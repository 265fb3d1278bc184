// Package hookio implements the shared stdin/stdout contract for the
// three hook binaries: parsing the incoming tool-call event (with a
// defined fallback for malformed JSON) and writing exactly one JSON
// or plain-text object to standard output.
//
// Grounded on the teacher's cmd/nerd command entrypoints, which read a
// single JSON payload from stdin and always produce exactly one
// terminal write to stdout regardless of internal failure — the
// pattern kept here is "never interleave diagnostics with stdout,
// always emit something".
package hookio

import (
	"encoding/json"
	"io"
	"os"

	"github.com/hookguard/hookguard/internal/logging"
)

// ToolInput is the tool_input payload's fields used by the core.
type ToolInput struct {
	FilePath  string `json:"file_path"`
	Content   string `json:"content"`
	OldString string `json:"old_string"`
	NewString string `json:"new_string"`
}

// Event is the hook input event, all fields optional per §6.
type Event struct {
	ToolName       string          `json:"tool_name"`
	ToolInput      ToolInput       `json:"tool_input"`
	ToolResponse   json.RawMessage `json:"tool_response"`
	Cwd            string          `json:"cwd"`
	TranscriptPath string          `json:"transcript_path"`
	SessionID      string          `json:"session_id"`
	HookEventName  string          `json:"hook_event_name"`
}

// ReadEvent parses one JSON event from r. Invalid JSON is not an
// error here: the contract requires synthesizing defaults
// (tool_name="UserPromptSubmit", empty tool_input, cwd=".") rather
// than failing the hook.
func ReadEvent(r io.Reader) Event {
	data, err := io.ReadAll(r)
	if err != nil {
		logging.Warnf(logging.CategoryHookIO, "reading stdin: %v", err)
		return defaultEvent()
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		logging.Warnf(logging.CategoryHookIO, "malformed hook input, using defaults: %v", err)
		return defaultEvent()
	}
	if ev.Cwd == "" {
		ev.Cwd = "."
	}
	if ev.ToolName == "" {
		ev.ToolName = "UserPromptSubmit"
	}
	return ev
}

func defaultEvent() Event {
	return Event{ToolName: "UserPromptSubmit", Cwd: "."}
}

// WriteJSON marshals v and writes it to w followed by a newline. A
// write failure here is the contract's one fatal error kind
// (IOError on stdout write); callers should exit non-zero on error.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(v)
}

// WritePlainText writes s verbatim (UserPromptSubmit's unwrapped
// snapshot output).
func WritePlainText(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}

// Stdout returns os.Stdout; split out so callers have a single,
// greppable write site and never touch os.Stdout directly elsewhere.
func Stdout() io.Writer { return os.Stdout }

// Stdin returns os.Stdin, mirroring Stdout.
func Stdin() io.Reader { return os.Stdin }
