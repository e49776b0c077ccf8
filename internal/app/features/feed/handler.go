// internal/app/features/feed/handler.go
package feed

import (
	"net/http"
	"strconv"

	feedsvc "github.com/dalemusser/collabhub/internal/app/services/feed"
	"github.com/dalemusser/collabhub/internal/app/system/apperr"
	"github.com/dalemusser/collabhub/internal/app/system/authz"
	"github.com/dalemusser/collabhub/internal/app/system/httpjson"
	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// Handler serves the unified feed.
type Handler struct {
	Feed *feedsvc.Service
	Log  *zap.Logger
}

func NewHandler(svc *feedsvc.Service, logger *zap.Logger) *Handler {
	return &Handler{Feed: svc, Log: logger}
}

// Serve handles GET /feed?limit=N.
//
// Anonymous callers and sessions whose member no longer exists get the same
// feed without the viewer block:
//
//	{ "viewer": {...}, "items": [ {"kind":"announcement", ...}, {"kind":"update", ...} ] }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := query.Get(r, "limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpjson.Error(w, h.Log, apperr.Validation("limit must be a positive integer"))
			return
		}
		limit = n
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "build feed")
	defer cancel()

	f, err := h.Feed.Build(ctx, authz.Viewer(r), limit)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, f)
}
