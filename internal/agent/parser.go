package agent

import (
	"regexp"
	"strings"
)

// EventKind tags the directive parsed out of a model completion.
type EventKind int

const (
	// EventNoOp means the completion carried no recognized directive;
	// the loop proceeds to the next iteration with no new prompt.
	EventNoOp EventKind = iota
	// EventAnswer terminates the loop with a final answer.
	EventAnswer
	// EventObservation records a diagnostic observation note.
	EventObservation
	// EventAction requests a tool invocation.
	EventAction
)

// Event is the parsed directive of one completion. Kind is resolved with
// precedence Answer > Action > Observation > NoOp. A completion can carry
// an Observation line alongside an Action; the line is surfaced through
// Note/HasNote regardless of Kind so the loop can record it before
// dispatching.
type Event struct {
	Kind EventKind

	// Text is the answer or observation text, depending on Kind.
	Text string

	// Tool and Args are set when Kind == EventAction.
	Tool string
	Args string

	// Note carries the completion's Observation line whenever one is
	// present, independent of Kind.
	Note    string
	HasNote bool
}

var (
	// Everything after the answer marker, across lines.
	answerRe = regexp.MustCompile(`(?is)(?:\*\*answer\*\*|answer)\s*:\s*(.*)`)
	// Everything after the observation marker, across lines.
	observationRe = regexp.MustCompile(`(?is)observation\s*:\s*(.*)`)
	// Tool name and single-line args. The surrounding completion must
	// also contain the literal PAUSE token for the action to fire.
	actionRe = regexp.MustCompile(`(?i)Action: ([a-z_]+): (.+)`)
)

// Parse extracts the protocol directive from a raw model completion.
func Parse(completion string) Event {
	var ev Event

	if m := answerRe.FindStringSubmatch(completion); m != nil {
		ev.Kind = EventAnswer
		ev.Text = strings.TrimSpace(m[1])
		return ev
	}

	if m := observationRe.FindStringSubmatch(completion); m != nil {
		ev.Note = strings.TrimSpace(m[1])
		ev.HasNote = true
	}

	if strings.Contains(completion, "PAUSE") && strings.Contains(completion, "Action") {
		if m := actionRe.FindStringSubmatch(completion); m != nil {
			ev.Kind = EventAction
			// The name is dispatched as written; a miscased tool fails
			// downstream as unrecognized.
			ev.Tool = m[1]
			ev.Args = strings.TrimSpace(m[2])
			return ev
		}
	}

	if ev.HasNote {
		ev.Kind = EventObservation
		ev.Text = ev.Note
	}

	return ev
}
