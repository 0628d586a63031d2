package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// handleRunEvents streams a run's events as server-sent events. The
// full history replays first, then live events follow until the client
// disconnects or the run closes.
func (s *Server) handleRunEvents(c echo.Context) error {
	run := s.host.Get(c.Param("id"))
	if run == nil {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	events, unsubscribe := run.Orchestrator.Subscribe(true)
	defer unsubscribe()

	s.logger.Debug("sse stream opened", zap.String("run_id", run.ID))

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(event)
			if err != nil {
				s.logger.Warn("sse marshal failed", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
