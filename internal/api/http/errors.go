package http

import (
	"encoding/json"
	"errors"

	nethttp "net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"

	"github.com/mind-engage/mindengage-gradebook/internal/course"
	"github.com/mind-engage/mindengage-gradebook/internal/httpjson"
	"github.com/mind-engage/mindengage-gradebook/internal/logger"
	"github.com/mind-engage/mindengage-gradebook/internal/srvcerror"
	"github.com/mind-engage/mindengage-gradebook/internal/validation"
)

// ContextLogger makes the request logger set up by httplog available to
// code that only sees the context.
func ContextLogger(next nethttp.Handler) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx := logger.WithLogger(r.Context(), httplog.LogEntry(r.Context()))
		if id := middleware.GetReqID(ctx); id != "" {
			ctx = logger.WithRequestID(ctx, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func handleError(w nethttp.ResponseWriter, r *nethttp.Request, err error) {
	switch {
	case errors.Is(err, course.ErrCourseNotFound):
		err = srvcerror.NotFound("course").SetDebug(err)
	case errors.Is(err, course.ErrItemNotFound):
		err = srvcerror.NotFound("item").SetDebug(err)
	case errors.Is(err, course.ErrEntryNotFound):
		err = srvcerror.NotFound("entry").SetDebug(err)
	case errors.Is(err, course.ErrNotEnrolled):
		err = srvcerror.NotFound("student").SetDebug(err)
	case errors.Is(err, course.ErrCourseExists):
		err = srvcerror.New(srvcerror.ErrCodeConflict, "course already exists").
			SetHttpStatusCode(nethttp.StatusConflict).SetDebug(err)
	case errors.Is(err, course.ErrStaleVersion):
		err = srvcerror.New(srvcerror.ErrCodeStaleVersion, "entry was changed by someone else; reload and retry").
			SetHttpStatusCode(nethttp.StatusConflict).SetDebug(err)
	}
	httpjson.HandleError(logger.FromContext(r.Context()), w, err)
}

// decode reads a JSON body into v and runs struct validation on it.
func decode(r *nethttp.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return srvcerror.InvalidInput("bad json").SetDebug(err)
	}
	return validation.Struct(v)
}
