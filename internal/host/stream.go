package host

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nhle/todo-board/internal/events"
)

// keepAliveInterval is how often an idle event stream gets a comment line.
const keepAliveInterval = 25 * time.Second

// publishRequest is the body of POST /events.
type publishRequest struct {
	Name    string          `json:"name" validate:"required,oneof=todos-updated categories-updated calendar-assignments-updated"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// publishEvent lets a client announce a change it made through other
// routes, such as a calendar save.
func (s *Server) publishEvent(c echo.Context) error {
	var req publishRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var payload any
	if len(req.Payload) > 0 && string(req.Payload) != "null" {
		payload = req.Payload
	}
	ev := s.bus.Emit(c.Request().Header.Get(OriginHeader), req.Name, payload)
	return c.JSON(http.StatusAccepted, map[string]string{"id": ev.ID})
}

// streamEvents writes bus events as server-sent events until the client
// disconnects or the host shuts down. Events whose origin matches the
// caller's origin header are skipped.
func (s *Server) streamEvents(c echo.Context) error {
	origin := c.Request().Header.Get(OriginHeader)
	sub := s.bus.Listen()
	defer sub.Close()

	s.metrics.streams.Inc()
	defer s.metrics.streams.Dec()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			if origin != "" && ev.Origin == origin {
				continue
			}
			if err := writeEvent(w, ev); err != nil {
				s.log.WithError(err).Debugw("event stream closed")
				return nil
			}
			w.Flush()
			s.metrics.published.WithLabelValues(ev.Name).Inc()
		}
	}
}

func writeEvent(w *echo.Response, ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Name, data)
	return err
}
