package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dyebot/pkg/channel"
	"dyebot/pkg/config"
	"dyebot/pkg/dialog"
	"dyebot/pkg/reply"
)

const channelName = "whatsapp"
const defaultBaseURL = "https://graph.facebook.com/v19.0"

// Adapter bridges the WhatsApp Cloud API into dyebot: it runs the webhook
// endpoint (verify-token challenge plus message delivery) and sends replies
// through the Graph send API.
type Adapter struct {
	cfg    config.WhatsAppConfig
	client *http.Client
	log    *slog.Logger
}

// NewAdapter validates WhatsApp configuration and constructs an adapter.
func NewAdapter(cfg config.WhatsAppConfig, log *slog.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("channels.whatsapp.access_token is required")
	}
	if strings.TrimSpace(cfg.VerifyToken) == "" {
		return nil, errors.New("channels.whatsapp.verify_token is required")
	}
	if strings.TrimSpace(cfg.PhoneNumberID) == "" {
		return nil, errors.New("channels.whatsapp.phone_number_id is required")
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return nil, errors.New("channels.whatsapp.listen_addr is required")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log.With("component", "channel.whatsapp"),
	}, nil
}

// Name returns the channel identifier used in session keys and logs.
func (a *Adapter) Name() string {
	return channelName
}

// Run serves the webhook endpoint until the context is canceled.
func (a *Adapter) Run(ctx context.Context, handler channel.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	router.Get("/webhook", a.handleVerify)
	router.Post("/webhook", func(w http.ResponseWriter, r *http.Request) {
		a.handleWebhook(w, r, handler)
	})

	server := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	a.log.Info("WhatsApp webhook started", "address", a.cfg.ListenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve whatsapp webhook: %w", err)
	}
	return nil
}

// handleVerify answers the platform's subscription handshake.
func (a *Adapter) handleVerify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("hub.mode") == "subscribe" && query.Get("hub.verify_token") == a.cfg.VerifyToken {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(query.Get("hub.challenge")))
		return
	}

	a.log.Warn("Webhook verification rejected", "mode", query.Get("hub.mode"))
	w.WriteHeader(http.StatusForbidden)
}

// handleWebhook processes delivered messages. The platform retries on
// non-200 responses, so unparseable payloads are acknowledged and dropped.
func (a *Adapter) handleWebhook(w http.ResponseWriter, r *http.Request, handler channel.Handler) {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.log.Warn("Dropping unparseable webhook payload", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	for _, inbound := range extractInbound(payload) {
		a.dispatch(r.Context(), handler, inbound)
	}

	w.WriteHeader(http.StatusOK)
}

// extractInbound flattens the webhook envelope into normalized events.
// Non-text, non-interactive message types are ignored.
func extractInbound(payload webhookPayload) []channel.Inbound {
	var result []channel.Inbound
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, message := range change.Value.Messages {
				event, ok := messageEvent(message)
				if !ok {
					continue
				}

				result = append(result, channel.Inbound{
					Channel:  channelName,
					SenderID: sessionKey(message.From),
					ChatID:   message.From,
					Event:    event,
					Metadata: map[string]string{"message_id": message.ID},
				})
			}
		}
	}
	return result
}

// messageEvent maps one platform message onto a dialog event. Interactive
// replies carry the tapped id; the human-readable title is ignored on
// purpose so matching never depends on display text.
func messageEvent(message inboundMessage) (dialog.Event, bool) {
	switch {
	case message.Interactive != nil && message.Interactive.ButtonReply != nil:
		return dialog.SelectionEvent(message.Interactive.ButtonReply.ID), true
	case message.Interactive != nil && message.Interactive.ListReply != nil:
		return dialog.SelectionEvent(message.Interactive.ListReply.ID), true
	case message.Text != nil && strings.TrimSpace(message.Text.Body) != "":
		return dialog.TextEvent(message.Text.Body), true
	default:
		return dialog.Event{}, false
	}
}

func (a *Adapter) dispatch(ctx context.Context, handler channel.Handler, inbound channel.Inbound) {
	a.log.Info("Received message",
		"chat_id", inbound.ChatID,
		"selection_id", inbound.Event.SelectionID,
	)

	messages, err := handler(ctx, inbound)
	if err != nil {
		a.log.Error("Failed to process inbound message", "error", err)
		messages = []reply.Message{reply.RetryText()}
	}

	for _, message := range messages {
		if err := a.send(ctx, inbound.ChatID, message); err != nil {
			a.log.Error("Failed to send whatsapp message", "chat_id", inbound.ChatID, "error", err)
		}
	}
}

// send posts one message to the Cloud API send endpoint.
func (a *Adapter) send(ctx context.Context, to string, message reply.Message) error {
	body, err := json.Marshal(encodeMessage(to, message))
	if err != nil {
		return fmt.Errorf("encode send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", a.baseURL(), a.cfg.PhoneNumberID)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+a.cfg.AccessToken)

	response, err := a.client.Do(request)
	if err != nil {
		return fmt.Errorf("call send api: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, 2048))
		return fmt.Errorf("send api returned %d: %s", response.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

func (a *Adapter) baseURL() string {
	if url := strings.TrimSpace(a.cfg.BaseURL); url != "" {
		return strings.TrimRight(url, "/")
	}
	return defaultBaseURL
}

// sessionKey maps one WhatsApp sender to one dialog session.
func sessionKey(from string) string {
	return "whatsapp:" + strings.TrimSpace(from)
}
