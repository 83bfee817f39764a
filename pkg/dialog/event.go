package dialog

import "strings"

// Event is one normalized inbound message: either free text or a selection
// event carrying the opaque id of a tapped button or list row. Selections are
// matched by id only; display titles never participate in matching.
type Event struct {
	Text        string
	SelectionID string
}

// TextEvent wraps free text in an event.
func TextEvent(text string) Event {
	return Event{Text: text}
}

// SelectionEvent wraps a tapped button/row id in an event.
func SelectionEvent(id string) Event {
	return Event{SelectionID: id}
}

// token is the single lowercase command string the transition rules match
// against. Selection ids take precedence over text.
func (ev Event) token() string {
	if sel := strings.ToLower(strings.TrimSpace(ev.SelectionID)); sel != "" {
		return sel
	}
	return strings.ToLower(strings.TrimSpace(ev.Text))
}

// isText reports whether the event is free text rather than a selection.
func (ev Event) isText() bool {
	return strings.TrimSpace(ev.SelectionID) == ""
}
