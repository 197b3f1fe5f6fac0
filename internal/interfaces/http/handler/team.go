package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	teamapp "github.com/stockpile/backend/internal/application/team"
)

// TeamHandler handles team management requests. These routes sit outside the
// team-scoped group since membership is what they establish in the first place.
type TeamHandler struct {
	BaseHandler
	teamService *teamapp.Service
}

// NewTeamHandler creates a new TeamHandler
func NewTeamHandler(teamService *teamapp.Service) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// RegisterRoutes registers team routes
func (h *TeamHandler) RegisterRoutes(rg *gin.RouterGroup) {
	teams := rg.Group("/teams")
	{
		teams.GET("", h.List)
		teams.POST("", h.Create)
		teams.GET("/:teamId", h.GetByID)
		teams.POST("/:teamId/members", h.AddMember)
		teams.DELETE("/:teamId/members/:userId", h.RemoveMember)
	}
}

// List returns every team the caller belongs to
func (h *TeamHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	teams, err := h.teamService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, teams)
}

// Create registers a new team owned by the caller
func (h *TeamHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req teamapp.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	resp, err := h.teamService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetByID retrieves one team the caller is a member of
func (h *TeamHandler) GetByID(c *gin.Context) {
	userID, teamID, ok := h.callerAndTeamID(c)
	if !ok {
		return
	}

	resp, err := h.teamService.GetByID(c.Request.Context(), userID, teamID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// AddMember adds a user to the team's member or admin list
func (h *TeamHandler) AddMember(c *gin.Context) {
	callerID, teamID, ok := h.callerAndTeamID(c)
	if !ok {
		return
	}

	var req teamapp.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	resp, err := h.teamService.AddMember(c.Request.Context(), callerID, teamID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RemoveMember removes a user from the team. The owner cannot be removed.
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	callerID, teamID, ok := h.callerAndTeamID(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	resp, err := h.teamService.RemoveMember(c.Request.Context(), callerID, teamID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

func (h *TeamHandler) callerAndTeamID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}

	teamID, err := uuid.Parse(c.Param("teamId"))
	if err != nil {
		h.BadRequest(c, "Invalid team ID format")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, teamID, true
}
