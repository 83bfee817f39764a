package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dyebot/pkg/bus"
	"dyebot/pkg/channel"
	"dyebot/pkg/config"
	"dyebot/pkg/dialog"
	"dyebot/pkg/reply"
)

const (
	defaultStatusHost = "0.0.0.0"
	defaultStatusPort = 18790
)

// Service supervises the channel adapters, routes their inbound messages
// through the dialog engine, and serves the status endpoints.
type Service struct {
	cfg      *config.Config
	log      *slog.Logger
	engine   *dialog.Engine
	events   *bus.Bus
	channels []channel.Adapter

	mu            sync.RWMutex
	startedAt     time.Time
	handledCount  int64
	failedCount   int64
	channelStates map[string]channelState
}

type channelState struct {
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Status        string                  `json:"status"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	Handled       int64                   `json:"messages_handled"`
	Failed        int64                   `json:"messages_failed"`
	Channels      map[string]channelState `json:"channels"`
}

// NewService wires the gateway together.
func NewService(cfg *config.Config, engine *dialog.Engine, adapters []channel.Adapter, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if engine == nil {
		return nil, errors.New("dialog engine is required")
	}
	if len(adapters) == 0 {
		return nil, errors.New("at least one channel adapter is required")
	}
	if log == nil {
		log = slog.Default()
	}

	channelStates := make(map[string]channelState, len(adapters))
	for _, adapter := range adapters {
		channelStates[adapter.Name()] = channelState{}
	}

	return &Service{
		cfg:           cfg,
		log:           log.With("component", "gateway.service"),
		engine:        engine,
		events:        bus.NewBus(),
		channels:      adapters,
		channelStates: channelStates,
	}, nil
}

// Run serves until the context ends, a channel fails, or the status server
// fails.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	defer s.events.Close()

	// Subscribe before the adapters start so no processing event is missed.
	events, unsubscribe := s.events.SubscribeEvents(ctx, 64)
	defer unsubscribe()
	go s.consumeEvents(events)

	serverErrors := make(chan error, 1)
	go s.runStatusServer(ctx, serverErrors)

	errCh := make(chan error, len(s.channels))
	for _, adapter := range s.channels {
		adapter := adapter
		s.setChannelState(adapter.Name(), channelState{Running: true})

		go func() {
			err := adapter.Run(ctx, s.handleInbound)
			s.setChannelState(adapter.Name(), channelState{Running: false, Error: errorString(err)})
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("run %s channel: %w", adapter.Name(), err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErrors:
		return err
	case err := <-errCh:
		return err
	}
}

// handleInbound is the channel.Handler shared by every adapter. The engine
// commits session changes before this returns, so adapters can fail to send
// without losing a transition.
func (s *Service) handleInbound(ctx context.Context, inbound channel.Inbound) ([]reply.Message, error) {
	s.events.PublishEvent(ctx, bus.Event{
		Type:     bus.EventMessageReceived,
		Channel:  inbound.Channel,
		SenderID: inbound.SenderID,
	})

	messages, err := s.engine.ProcessEvent(ctx, inbound.SenderID, inbound.Event)
	if err != nil {
		s.events.PublishEvent(ctx, bus.Event{
			Type:     bus.EventMessageFailed,
			Channel:  inbound.Channel,
			SenderID: inbound.SenderID,
			Error:    err.Error(),
		})
		return nil, err
	}

	s.events.PublishEvent(ctx, bus.Event{
		Type:     bus.EventMessageHandled,
		Channel:  inbound.Channel,
		SenderID: inbound.SenderID,
	})
	return messages, nil
}

// consumeEvents folds processing events into the status counters.
func (s *Service) consumeEvents(events <-chan bus.Event) {
	for event := range events {
		switch event.Type {
		case bus.EventMessageHandled:
			s.mu.Lock()
			s.handledCount++
			s.mu.Unlock()
		case bus.EventMessageFailed:
			s.mu.Lock()
			s.failedCount++
			s.mu.Unlock()
			s.log.Warn("Message processing failed", "channel", event.Channel, "sender_id", event.SenderID, "error", event.Error)
		}
	}
}

func (s *Service) runStatusServer(ctx context.Context, errCh chan<- error) {
	host := strings.TrimSpace(s.cfg.Gateway.Host)
	if host == "" {
		host = defaultStatusHost
	}

	port := s.cfg.Gateway.Port
	if port <= 0 {
		port = defaultStatusPort
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RealIP)
	router.Get("/healthz", s.handleHealth)
	router.Get("/readyz", s.handleReady)

	server := &http.Server{
		Addr:              host + ":" + strconv.Itoa(port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Gateway status server started", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- fmt.Errorf("start status server: %w", err)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondStatus(w, http.StatusOK, "ok")
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respondStatus(w, statusCode, status)
}

func (s *Service) respondStatus(w http.ResponseWriter, statusCode int, status string) {
	payload := s.currentStatus(status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Service) currentStatus(status string) statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	channels := make(map[string]channelState, len(s.channelStates))
	for name, state := range s.channelStates {
		channels[name] = state
	}

	return statusResponse{
		Status:        status,
		UptimeSeconds: uptime,
		Handled:       s.handledCount,
		Failed:        s.failedCount,
		Channels:      channels,
	}
}

// isReady requires at least one running channel.
func (s *Service) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, state := range s.channelStates {
		if state.Running {
			return true
		}
	}
	return false
}

func (s *Service) setChannelState(name string, state channelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelStates[name] = state
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
