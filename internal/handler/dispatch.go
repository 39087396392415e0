package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// OutboxDispatcher drains the email queue. *outbox.Dispatcher
// satisfies it.
type OutboxDispatcher interface {
	Dispatch(ctx context.Context, queueID *uuid.UUID) (int, error)
}

// DispatchHandler triggers outbox processing over HTTP. The endpoint
// exists for the booking and assignment flows' best-effort kicks and
// for operators; the cron schedule covers everything else.
//
// Routes handled:
// - POST /api/email/dispatch -> Dispatch
type DispatchHandler struct {
	dispatcher OutboxDispatcher
	logger     *slog.Logger
}

// NewDispatchHandler creates the dispatch handler.
func NewDispatchHandler(dispatcher OutboxDispatcher, logger *slog.Logger) *DispatchHandler {
	return &DispatchHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

type dispatchRequest struct {
	QueueID string `json:"queueId"`
}

// Dispatch handles POST /api/email/dispatch. With a queueId it targets
// one job; without, it drains a batch.
func (h *DispatchHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	// An empty or absent body means a batch pass
	_ = json.NewDecoder(r.Body).Decode(&req)

	var queueID *uuid.UUID
	if req.QueueID != "" {
		id, err := uuid.Parse(req.QueueID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid queue id."})
			return
		}
		queueID = &id
	}

	processed, err := h.dispatcher.Dispatch(r.Context(), queueID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "processed": processed})
}
