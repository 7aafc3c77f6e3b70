package http

import (
	"context"
	"strconv"

	nethttp "net/http"

	"github.com/mind-engage/mindengage-gradebook/internal/httpjson"
	"github.com/mind-engage/mindengage-gradebook/internal/srvcerror"
	syncx "github.com/mind-engage/mindengage-gradebook/internal/sync"
)

// EventSource is the read side of the event log. *syncx.EventRepo
// satisfies it.
type EventSource interface {
	Since(ctx context.Context, after int64, limit int) ([]syncx.Event, error)
}

// GET /events?after=<seq>&limit=<n>
// Replicas pull gradebook changes from here, oldest first. next is the seq
// to pass as after on the following call.
func EventsHandler(src EventSource) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		q := r.URL.Query()
		var after int64
		if v := q.Get("after"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				handleError(w, r, srvcerror.InvalidInput("after must be a non-negative integer"))
				return
			}
			after = n
		}
		limit := 0
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				handleError(w, r, srvcerror.InvalidInput("limit must be an integer"))
				return
			}
			limit = n
		}

		evs, err := src.Since(r.Context(), after, limit)
		if err != nil {
			handleError(w, r, err)
			return
		}
		next := after
		if len(evs) > 0 {
			next = evs[len(evs)-1].Seq
		}
		if evs == nil {
			evs = []syncx.Event{}
		}
		httpjson.WriteSuccessJson(w, map[string]any{"events": evs, "next": next})
	}
}
