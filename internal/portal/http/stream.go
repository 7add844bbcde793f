package http

import (
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/portal/internal/portal/events"
	"github.com/aussiebroadwan/portal/pkg/httpx"
)

// EventsHandler streams bus messages to the UI as server-sent events. The
// SSE event name is the bus topic.
type EventsHandler struct {
	Bus *events.Bus
}

// ServeHTTP handles GET /session/events
//
//	@Summary		Session event stream
//	@Description	Server-sent events. The event name is the topic: portal.session, portal.toast, portal.navigate or portal.host.
//	@Tags			Session
//	@Produce		text/event-stream
//	@Success		200	{string}	string	"event stream"
//	@Failure		503	{object}	httpx.ErrorBody
//	@Router			/session/events [get].
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ch, err := h.Bus.Subscribe(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable", "event stream unavailable")
		return
	}

	rc := http.NewResponseController(w)
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	for env := range ch {
		if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", env.ID, env.Topic, env.Payload); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
