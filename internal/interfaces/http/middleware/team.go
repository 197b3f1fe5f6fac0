package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stockpile/backend/internal/domain/shared"
	"github.com/stockpile/backend/internal/infrastructure/logger"
	"github.com/stockpile/backend/internal/interfaces/http/dto"
)

// Team context keys
const (
	TeamIDKey = "team_id"
)

// TeamAuthorizer decides whether a user may act within a team
type TeamAuthorizer interface {
	Authorize(ctx context.Context, userID, teamID uuid.UUID) error
}

// TeamAccess resolves the :teamId path parameter, verifies the authenticated
// user belongs to that team, and stores the team ID for downstream handlers.
// Every supply and history route is scoped by this middleware.
func TeamAccess(authorizer TeamAuthorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")

		teamID, err := uuid.Parse(c.Param("teamId"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeValidationFormat, "Invalid team ID", requestID))
			return
		}

		userIDStr := GetJWTUserID(c)
		if userIDStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", requestID))
			return
		}
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Invalid user identity", requestID))
			return
		}

		if err := authorizer.Authorize(c.Request.Context(), userID, teamID); err != nil {
			status := http.StatusForbidden
			code := dto.ErrCodeForbidden
			message := "You are not a member of this team"
			if errors.Is(err, shared.ErrNotFound) {
				status = http.StatusNotFound
				code = dto.ErrCodeNotFound
				message = "Team not found"
			}
			c.AbortWithStatusJSON(status,
				dto.NewErrorResponseWithRequestID(code, message, requestID))
			return
		}

		c.Set(TeamIDKey, teamID)

		// Propagate the team to the request-scoped logger
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		ctx, _ = logger.WithTeamID(ctx, log, teamID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetTeamID retrieves the resolved team ID from gin.Context
func GetTeamID(c *gin.Context) (uuid.UUID, bool) {
	if v, exists := c.Get(TeamIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id, true
		}
	}
	return uuid.Nil, false
}
