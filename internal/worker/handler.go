package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"devconnector/internal/cache"
	"devconnector/internal/logging"
	"devconnector/internal/queue"
)

// Handler applies post events to the timeline cache.
type Handler struct {
	timeline cache.TimelineCache
	log      zerolog.Logger
}

// NewHandler creates a new event handler.
func NewHandler(timeline cache.TimelineCache) *Handler {
	return &Handler{timeline: timeline, log: logging.Component("Worker")}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.Event) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventPostCreated:
		err = h.handlePostCreated(ctx, event)
	case queue.EventPostDeleted:
		err = h.timeline.RemovePosts(ctx, event.PostID)
	case queue.EventAccountDeleted:
		err = h.timeline.RemovePosts(ctx, event.PostIDs...)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		h.log.Error().Err(err).Str("type", event.Type).Dur("duration", time.Since(startTime)).Msg("HandleEvent failed")
		// The event is acked regardless; drop the timeline so it is rebuilt
		// from the store instead of missing this change.
		if ierr := h.timeline.Invalidate(ctx); ierr != nil {
			h.log.Error().Err(ierr).Msg("timeline invalidate failed")
		}
		return err
	}

	h.log.Debug().Str("type", event.Type).Dur("duration", time.Since(startTime)).Msg("HandleEvent ok")
	return nil
}

// handlePostCreated adds the post only to a warm timeline. A missing key means
// the next reader rebuilds it from the store, and a lone entry would hide the rest.
func (h *Handler) handlePostCreated(ctx context.Context, event queue.Event) error {
	exists, err := h.timeline.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check timeline: %w", err)
	}
	if !exists {
		h.log.Debug().Int64("post", event.PostID).Msg("timeline cold, skipping add")
		return nil
	}
	return h.timeline.AddPost(ctx, event.PostID, event.Timestamp)
}
