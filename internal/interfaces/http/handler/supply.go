package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	supplyapp "github.com/stockpile/backend/internal/application/supply"
)

// SupplyHandler handles supply HTTP requests. All routes are nested under a
// team scope resolved by the team access middleware.
type SupplyHandler struct {
	BaseHandler
	supplyService *supplyapp.Service
}

// NewSupplyHandler creates a new SupplyHandler
func NewSupplyHandler(supplyService *supplyapp.Service) *SupplyHandler {
	return &SupplyHandler{
		supplyService: supplyService,
	}
}

// RegisterRoutes registers supply routes on the team-scoped group
func (h *SupplyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	supplies := rg.Group("/supplies")
	{
		supplies.GET("", h.List)
		supplies.POST("", h.Create)
		supplies.GET("/:id", h.GetByID)
		supplies.PUT("/:id", h.Update)
		supplies.DELETE("/:id", h.Delete)
		supplies.POST("/:id/consume", h.Consume)
		supplies.POST("/:id/restock", h.Restock)
		supplies.POST("/:id/archive", h.Archive)
		supplies.GET("/:id/reviews", h.ListReviews)
		supplies.POST("/:id/reviews", h.AddReview)
	}
}

// List returns the team's supplies with pagination
func (h *SupplyHandler) List(c *gin.Context) {
	teamID, err := getTeamID(c)
	if err != nil {
		h.Unauthorized(c, "Team scope not resolved")
		return
	}

	var query supplyapp.ListSuppliesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "Invalid list parameters")
		return
	}

	supplies, total, err := h.supplyService.List(c.Request.Context(), teamID, query)
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
	h.SuccessWithMeta(c, supplies, total, page, pageSize)
}

// Create registers a new supply for the team
func (h *SupplyHandler) Create(c *gin.Context) {
	teamID, err := getTeamID(c)
	if err != nil {
		h.Unauthorized(c, "Team scope not resolved")
		return
	}

	var req supplyapp.CreateSupplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	resp, err := h.supplyService.Create(c.Request.Context(), teamID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetByID retrieves one supply
func (h *SupplyHandler) GetByID(c *gin.Context) {
	teamID, supplyID, ok := h.teamAndSupplyID(c)
	if !ok {
		return
	}

	resp, err := h.supplyService.GetByID(c.Request.Context(), teamID, supplyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Update patches a supply's descriptive fields
func (h *SupplyHandler) Update(c *gin.Context) {
	teamID, supplyID, ok := h.teamAndSupplyID(c)
	if !ok {
		return
	}

	var req supplyapp.UpdateSupplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	resp, err := h.supplyService.Update(c.Request.Context(), teamID, supplyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete permanently removes a supply without archiving it
func (h *SupplyHandler) Delete(c *gin.Context) {
	teamID, supplyID, ok := h.teamAndSupplyID(c)
	if !ok {
		return
	}

	if err := h.supplyService.Delete(c.Request.Context(), teamID, supplyID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Consume takes stock from the supply in earliest-expiry-first order
func (h *SupplyHandler) Consume(c *gin.Context) {
	teamID, supplyID, ok := h.teamAndSupplyID(c)
	if !ok {
		return
	}

	var req supplyapp.ConsumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	resp, err := h.supplyService.Consume(c.Request.Context(), teamID, supplyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Restock adds a purchased batch to the supply
func (h *SupplyHandler) Restock(c *gin.Context) {
	teamID, supplyID, ok := h.teamAndSupplyID(c)
	if !ok {
		return
	}

	var req supplyapp.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	resp, err := h.supplyService.Restock(c.Request.Context(), teamID, supplyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Archive retires the supply and folds it into the team's history
func (h *SupplyHandler) Archive(c *gin.Context) {
	teamID, supplyID, ok := h.teamAndSupplyID(c)
	if !ok {
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	resp, err := h.supplyService.Archive(c.Request.Context(), teamID, supplyID, userID.String())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListReviews returns all reviews for a supply
func (h *SupplyHandler) ListReviews(c *gin.Context) {
	teamID, supplyID, ok := h.teamAndSupplyID(c)
	if !ok {
		return
	}

	reviews, err := h.supplyService.ListReviews(c.Request.Context(), teamID, supplyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, reviews)
}

// AddReview records the caller's review of a supply
func (h *SupplyHandler) AddReview(c *gin.Context) {
	teamID, supplyID, ok := h.teamAndSupplyID(c)
	if !ok {
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req supplyapp.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	resp, err := h.supplyService.AddReview(c.Request.Context(), teamID, supplyID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// teamAndSupplyID resolves the team scope and the :id path parameter,
// writing the error response itself on failure
func (h *SupplyHandler) teamAndSupplyID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	teamID, err := getTeamID(c)
	if err != nil {
		h.Unauthorized(c, "Team scope not resolved")
		return uuid.Nil, uuid.Nil, false
	}

	supplyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid supply ID format")
		return uuid.Nil, uuid.Nil, false
	}

	return teamID, supplyID, true
}
