package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	supplyapp "github.com/stockpile/backend/internal/application/supply"
)

// AdminHandler exposes operational endpoints outside the team scope
type AdminHandler struct {
	BaseHandler
	autoArchiveService *supplyapp.AutoArchiveService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(autoArchiveService *supplyapp.AutoArchiveService) *AdminHandler {
	return &AdminHandler{
		autoArchiveService: autoArchiveService,
	}
}

// RegisterRoutes registers admin routes
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	{
		admin.POST("/auto-archive/run", h.RunAutoArchive)
	}
}

// AutoArchiveErrorPayload describes one supply a sweep could not archive
type AutoArchiveErrorPayload struct {
	SupplyID string `json:"supply_id"`
	TeamID   string `json:"team_id"`
	Reason   string `json:"reason"`
}

// AutoArchiveRunPayload summarizes a manually triggered sweep
type AutoArchiveRunPayload struct {
	Candidates int                       `json:"candidates"`
	Archived   []string                  `json:"archived"`
	Skipped    int                       `json:"skipped"`
	Errors     []AutoArchiveErrorPayload `json:"errors"`
	SweptAt    time.Time                 `json:"swept_at"`
}

// RunAutoArchive triggers one auto-archive sweep and reports what it did.
// Failures on individual supplies do not fail the request; they are listed
// in the errors field.
func (h *AdminHandler) RunAutoArchive(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	stats, err := h.autoArchiveService.Sweep(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	payload := AutoArchiveRunPayload{
		Candidates: stats.Candidates,
		Archived:   make([]string, 0, len(stats.Archived)),
		Skipped:    stats.Skipped,
		Errors:     make([]AutoArchiveErrorPayload, 0, len(stats.Failed)),
		SweptAt:    stats.SweptAt,
	}
	for _, id := range stats.Archived {
		payload.Archived = append(payload.Archived, id.String())
	}
	for _, f := range stats.Failed {
		payload.Errors = append(payload.Errors, AutoArchiveErrorPayload{
			SupplyID: f.SupplyID.String(),
			TeamID:   f.TeamID.String(),
			Reason:   f.Reason,
		})
	}

	h.Success(c, payload)
}
