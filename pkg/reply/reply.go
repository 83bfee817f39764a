package reply

// Message is one outbound payload for a messaging channel. The concrete
// variants are Text, ButtonPrompt and OptionList; channel adapters type-switch
// to render them in their platform's wire format.
type Message interface {
	isMessage()
}

// Platform structural limits. Interactive replies beyond these are silently
// truncated, never rejected.
const (
	MaxButtons        = 3
	MaxRowsPerSection = 10
)

// Text is a plain text message.
type Text struct {
	Body string
}

// Button is one tappable reply button.
type Button struct {
	ID    string
	Title string
}

// ButtonPrompt is a short prompt with up to MaxButtons reply buttons.
type ButtonPrompt struct {
	Header  string
	Body    string
	Buttons []Button
}

// Row is one selectable row in an option list section.
type Row struct {
	ID          string
	Title       string
	Description string
}

// Section groups rows under an optional title.
type Section struct {
	Title string
	Rows  []Row
}

// OptionList is a selectable list with up to MaxRowsPerSection rows per
// section.
type OptionList struct {
	Header   string
	Body     string
	Sections []Section
}

func (Text) isMessage()         {}
func (ButtonPrompt) isMessage() {}
func (OptionList) isMessage()   {}

// NewText wraps a body in a Text message.
func NewText(body string) Text {
	return Text{Body: body}
}

// NewButtonPrompt builds a button prompt, truncating to the platform button
// limit.
func NewButtonPrompt(header string, body string, buttons ...Button) ButtonPrompt {
	if len(buttons) > MaxButtons {
		buttons = buttons[:MaxButtons]
	}
	return ButtonPrompt{Header: header, Body: body, Buttons: buttons}
}

// NewOptionList builds an option list, truncating each section to the
// platform row limit.
func NewOptionList(header string, body string, sections ...Section) OptionList {
	bounded := make([]Section, len(sections))
	for i, section := range sections {
		if len(section.Rows) > MaxRowsPerSection {
			section.Rows = section.Rows[:MaxRowsPerSection]
		}
		bounded[i] = section
	}
	return OptionList{Header: header, Body: body, Sections: bounded}
}
