package channel

import (
	"context"

	"dyebot/pkg/dialog"
	"dyebot/pkg/reply"
)

// Inbound is one normalized message arriving from a transport adapter.
type Inbound struct {
	Channel  string
	SenderID string
	ChatID   string
	Event    dialog.Event
	Metadata map[string]string
}

// Handler processes one inbound message and returns the ordered replies to
// deliver on the same chat.
type Handler func(context.Context, Inbound) ([]reply.Message, error)

// Adapter bridges one external transport (for example WhatsApp) into dyebot.
type Adapter interface {
	Name() string
	Run(context.Context, Handler) error
}
