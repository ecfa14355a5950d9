package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/audiohal/internal/events"
)

// ConnectedEvent is the first message on every event stream.
type ConnectedEvent struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of sample rate changes, reconfigurations and profile enforcement",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"connected":           ConnectedEvent{},
		"sample-rate-changed": events.SampleRateChangedEvent{},
		"format-changed":      events.FormatChangedEvent{},
		"reconfigure":         events.ReconfigureEvent{},
		"delivery-dropped":    events.DeliveryDroppedEvent{},
		"profile-applied":     events.ProfileAppliedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		unsubscribers := []func(){
			events.ForwardToChannel[events.SampleRateChangedEvent](s.eventBus, eventCh),
			events.ForwardToChannel[events.FormatChangedEvent](s.eventBus, eventCh),
			events.ForwardToChannel[events.ReconfigureEvent](s.eventBus, eventCh),
			events.ForwardToChannel[events.DeliveryDroppedEvent](s.eventBus, eventCh),
			events.ForwardToChannel[events.ProfileAppliedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		if err := send.Data(ConnectedEvent{
			Message:   "SSE connection established",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
