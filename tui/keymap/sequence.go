package keymap

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// SequenceResult classifies buffered input against the tracked sequences.
type SequenceResult int

const (
	// SequenceNone means the buffer matches nothing; callers fall through
	// to single-key dispatch.
	SequenceNone SequenceResult = iota
	// SequencePending means the buffer is an unfinished sequence.
	SequencePending
	// SequenceMatch means the buffer completed a sequence.
	SequenceMatch
)

// SequenceState buffers keystrokes so multi-key bindings like vim's gg can
// coexist with single-key ones. A stale buffer expires lazily on the next
// keypress rather than on a timer, so an abandoned prefix costs nothing.
type SequenceState struct {
	buffer  string
	last    time.Time
	timeout time.Duration
}

// NewSequenceState returns a tracker with a one-second expiry.
func NewSequenceState() *SequenceState {
	return NewSequenceStateWithTimeout(time.Second)
}

// NewSequenceStateWithTimeout returns a tracker with a custom expiry.
// timeout <= 0 disables expiry.
func NewSequenceStateWithTimeout(timeout time.Duration) *SequenceState {
	return &SequenceState{timeout: timeout}
}

// Clear drops any buffered prefix. Callers invoke it after a match, and
// before single-key dispatch so a dead prefix never lingers.
func (s *SequenceState) Clear() {
	s.buffer = ""
}

// Pending reports whether a prefix is buffered.
func (s *SequenceState) Pending() bool {
	return s.buffer != ""
}

// Process folds one key into the buffer and classifies the result against
// the given bindings. On SequenceMatch the second return value is the index
// of the completed binding; otherwise it is -1.
func (s *SequenceState) Process(msg tea.KeyMsg, bindings ...key.Binding) (SequenceResult, int) {
	return s.ProcessKey(msg.String(), bindings...)
}

// ProcessKey is Process for callers that already hold the key string.
func (s *SequenceState) ProcessKey(keyStr string, bindings ...key.Binding) (SequenceResult, int) {
	if s.timeout > 0 && time.Since(s.last) > s.timeout {
		s.buffer = ""
	}
	s.last = time.Now()
	s.buffer += keyStr

	pending := false
	for i, b := range bindings {
		for _, k := range b.Keys() {
			if k == s.buffer {
				return SequenceMatch, i
			}
			if len(s.buffer) < len(k) && strings.HasPrefix(k, s.buffer) {
				pending = true
			}
		}
	}
	if pending {
		return SequencePending, -1
	}
	return SequenceNone, -1
}

// CommonSequenceBindings lists the sequences fed to Process by kiln's
// pickers. Only gg is bound.
func CommonSequenceBindings(base Base) []key.Binding {
	return []key.Binding{
		base.Top,
	}
}
