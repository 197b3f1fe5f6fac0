package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	historyapp "github.com/stockpile/backend/internal/application/history"
)

// HistoryHandler serves the team's archived supply records
type HistoryHandler struct {
	BaseHandler
	historyService *historyapp.Service
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(historyService *historyapp.Service) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
	}
}

// RegisterRoutes registers history routes on the team-scoped group
func (h *HistoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	histories := rg.Group("/history")
	{
		histories.GET("", h.List)
		histories.GET("/:id", h.GetByID)
	}
}

// List returns the team's history records with pagination
func (h *HistoryHandler) List(c *gin.Context) {
	teamID, err := getTeamID(c)
	if err != nil {
		h.Unauthorized(c, "Team scope not resolved")
		return
	}

	var query historyapp.ListHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid list parameters")
		return
	}

	records, total, err := h.historyService.List(c.Request.Context(), teamID, query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, records, total, page, pageSize)
}

// GetByID retrieves one history record
func (h *HistoryHandler) GetByID(c *gin.Context) {
	teamID, err := getTeamID(c)
	if err != nil {
		h.Unauthorized(c, "Team scope not resolved")
		return
	}

	historyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid history ID format")
		return
	}

	resp, err := h.historyService.GetByID(c.Request.Context(), teamID, historyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
