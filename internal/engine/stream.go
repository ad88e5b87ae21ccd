package engine

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/latentflow/internal/ctxlog"
	"github.com/vk/latentflow/internal/job"
)

// Stream is the long-lived progress-event subscription. It connects to
// the engine's socket.io endpoint over websocket, decodes the three event
// shapes into job.Event, and fans them out to subscribers. It implements
// job.EventSource.
//
// The stream is shared: events for every job the engine is running come
// through it. Filtering by job id is the consumer's concern.
type Stream struct {
	manager *socket.Manager
	io      *socket.Socket

	mu      sync.Mutex
	subs    map[int]func(job.Event)
	nextSub int
}

// StreamOptions configures Dial.
type StreamOptions struct {
	// Namespace is the socket.io namespace to join; empty means the root
	// namespace.
	Namespace string

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
}

// Dial connects the progress stream. The returned Stream is live until
// Close.
func Dial(ctx context.Context, rawURL string, streamOpts StreamOptions) (*Stream, error) {
	logger := ctxlog.FromContext(ctx).With("url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stream URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if streamOpts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	s := &Stream{
		manager: socket.NewManager(baseURL, opts),
		subs:    make(map[int]func(job.Event)),
	}
	s.io = s.manager.Socket(streamOpts.Namespace, opts)

	s.io.On(types.EventName("connect"), func(...any) {
		logger.Info("Progress stream connected", "sid", s.io.Id())
	})
	s.io.On(types.EventName("connect_error"), func(errs ...any) {
		logger.Warn("Progress stream connection error", "error", fmt.Sprint(errs...))
	})

	s.io.On(types.EventName("progress"), func(data ...any) {
		s.handleProgress(logger, data)
	})
	s.io.On(types.EventName("executed"), func(data ...any) {
		s.handleExecuted(logger, data)
	})
	s.io.On(types.EventName("execution_error"), func(data ...any) {
		s.handleExecutionError(logger, data)
	})

	s.io.Connect()
	return s, nil
}

// Subscribe registers a handler for every decoded event. The returned
// function releases the registration.
func (s *Stream) Subscribe(fn func(job.Event)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close disconnects the stream. Pending handlers may still fire while the
// transport drains.
func (s *Stream) Close() {
	s.io.Disconnect()
}

func (s *Stream) emit(ev job.Event) {
	s.mu.Lock()
	handlers := make([]func(job.Event), 0, len(s.subs))
	for _, fn := range s.subs {
		handlers = append(handlers, fn)
	}
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// The engine emits loosely-typed JSON payloads; each handler remarshals
// the first data element into its expected shape and drops anything that
// does not decode.

type progressPayload struct {
	PromptID string           `json:"prompt_id"`
	Value    int              `json:"value"`
	Max      int              `json:"max"`
	Preview  *job.ArtifactRef `json:"preview,omitempty"`
}

func (s *Stream) handleProgress(logger *slog.Logger, data []any) {
	var p progressPayload
	if !decodePayload(logger, "progress", data, &p) {
		return
	}
	s.emit(job.Event{
		JobID:      p.PromptID,
		Kind:       job.EventProgress,
		Step:       p.Value,
		TotalSteps: p.Max,
		Preview:    p.Preview,
	})
}

type executedPayload struct {
	PromptID string            `json:"prompt_id"`
	Outputs  []job.ArtifactRef `json:"outputs,omitempty"`
}

func (s *Stream) handleExecuted(logger *slog.Logger, data []any) {
	var p executedPayload
	if !decodePayload(logger, "executed", data, &p) {
		return
	}
	s.emit(job.Event{
		JobID:   p.PromptID,
		Kind:    job.EventComplete,
		Outputs: p.Outputs,
	})
}

type executionErrorPayload struct {
	PromptID string `json:"prompt_id"`
	Message  string `json:"message"`
	NodeID   string `json:"node_id,omitempty"`
}

func (s *Stream) handleExecutionError(logger *slog.Logger, data []any) {
	var p executionErrorPayload
	if !decodePayload(logger, "execution_error", data, &p) {
		return
	}
	s.emit(job.Event{
		JobID:   p.PromptID,
		Kind:    job.EventError,
		Message: p.Message,
		Stage:   p.NodeID,
	})
}

func decodePayload(logger *slog.Logger, event string, data []any, target any) bool {
	if len(data) == 0 {
		logger.Warn("Dropping empty stream event", "event", event)
		return false
	}
	raw, err := json.Marshal(data[0])
	if err != nil {
		logger.Warn("Dropping undecodable stream event", "event", event, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, target); err != nil {
		logger.Warn("Dropping malformed stream event", "event", event, "error", err)
		return false
	}
	return true
}
