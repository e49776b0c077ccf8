// internal/app/features/updates/handler.go
package updates

import (
	"github.com/dalemusser/collabhub/internal/app/services/engagement"
	"go.uber.org/zap"
)

// Handler owns the update (short post) endpoints.
type Handler struct {
	Engagement *engagement.Service
	Log        *zap.Logger
}

func NewHandler(eng *engagement.Service, logger *zap.Logger) *Handler {
	return &Handler{Engagement: eng, Log: logger}
}
