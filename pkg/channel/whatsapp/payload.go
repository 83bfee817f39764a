package whatsapp

import "dyebot/pkg/reply"

// Inbound webhook shapes, reduced to the fields the bot consumes.

type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Type        string              `json:"type"`
	Text        *inboundText        `json:"text,omitempty"`
	Interactive *inboundInteractive `json:"interactive,omitempty"`
}

type inboundText struct {
	Body string `json:"body"`
}

type inboundInteractive struct {
	Type        string         `json:"type"`
	ButtonReply *inboundReply  `json:"button_reply,omitempty"`
	ListReply   *inboundReply  `json:"list_reply,omitempty"`
}

type inboundReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Outbound send API shapes.

type sendRequest struct {
	MessagingProduct string              `json:"messaging_product"`
	RecipientType    string              `json:"recipient_type"`
	To               string              `json:"to"`
	Type             string              `json:"type"`
	Text             *textPayload        `json:"text,omitempty"`
	Interactive      *interactivePayload `json:"interactive,omitempty"`
}

type textPayload struct {
	Body string `json:"body"`
}

type interactivePayload struct {
	Type   string         `json:"type"`
	Header *headerPayload `json:"header,omitempty"`
	Body   bodyPayload    `json:"body"`
	Action actionPayload  `json:"action"`
}

type headerPayload struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type bodyPayload struct {
	Text string `json:"text"`
}

type actionPayload struct {
	Buttons  []buttonPayload  `json:"buttons,omitempty"`
	Button   string           `json:"button,omitempty"`
	Sections []sectionPayload `json:"sections,omitempty"`
}

type buttonPayload struct {
	Type  string       `json:"type"`
	Reply replyPayload `json:"reply"`
}

type replyPayload struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type sectionPayload struct {
	Title string       `json:"title,omitempty"`
	Rows  []rowPayload `json:"rows"`
}

type rowPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// encodeMessage maps one reply message onto the Cloud API wire format.
func encodeMessage(to string, message reply.Message) sendRequest {
	request := sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
	}

	switch m := message.(type) {
	case reply.Text:
		request.Type = "text"
		request.Text = &textPayload{Body: m.Body}

	case reply.ButtonPrompt:
		buttons := make([]buttonPayload, 0, len(m.Buttons))
		for _, b := range m.Buttons {
			buttons = append(buttons, buttonPayload{
				Type:  "reply",
				Reply: replyPayload{ID: b.ID, Title: b.Title},
			})
		}

		request.Type = "interactive"
		request.Interactive = &interactivePayload{
			Type:   "button",
			Header: optionalHeader(m.Header),
			Body:   bodyPayload{Text: m.Body},
			Action: actionPayload{Buttons: buttons},
		}

	case reply.OptionList:
		sections := make([]sectionPayload, 0, len(m.Sections))
		for _, section := range m.Sections {
			rows := make([]rowPayload, 0, len(section.Rows))
			for _, row := range section.Rows {
				rows = append(rows, rowPayload{ID: row.ID, Title: row.Title, Description: row.Description})
			}
			sections = append(sections, sectionPayload{Title: section.Title, Rows: rows})
		}

		request.Type = "interactive"
		request.Interactive = &interactivePayload{
			Type:   "list",
			Header: optionalHeader(m.Header),
			Body:   bodyPayload{Text: m.Body},
			Action: actionPayload{Button: "Select", Sections: sections},
		}
	}

	return request
}

func optionalHeader(text string) *headerPayload {
	if text == "" {
		return nil
	}
	return &headerPayload{Type: "text", Text: text}
}
