// internal/app/features/announcements/handler.go
package announcements

import (
	"github.com/dalemusser/collabhub/internal/app/services/engagement"
	"github.com/dalemusser/collabhub/internal/app/services/teamflow"
	"go.uber.org/zap"
)

// Handler owns the announcement endpoints.
type Handler struct {
	Engagement *engagement.Service
	Team       *teamflow.Service
	Log        *zap.Logger
}

// NewHandler constructs an announcements Handler.
func NewHandler(eng *engagement.Service, team *teamflow.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Engagement: eng,
		Team:       team,
		Log:        logger,
	}
}
