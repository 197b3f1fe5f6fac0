package team

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/stockpile/backend/internal/domain/shared"
	"github.com/stockpile/backend/internal/domain/team"
)

// CreateTeamRequest carries the fields for creating a team
type CreateTeamRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// AddMemberRequest carries a membership change
type AddMemberRequest struct {
	UserID uuid.UUID `json:"userId" binding:"required"`
	Admin  bool      `json:"admin"`
}

// TeamResponse is the API view of a team
type TeamResponse struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	OwnerID   uuid.UUID      `json:"ownerId"`
	Admins    pq.StringArray `json:"admins"`
	Members   pq.StringArray `json:"members"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ToTeamResponse maps a team to its API representation
func ToTeamResponse(tm *team.Team) *TeamResponse {
	return &TeamResponse{
		ID:        tm.ID,
		Name:      tm.Name,
		OwnerID:   tm.OwnerID,
		Admins:    tm.Admins,
		Members:   tm.Members,
		CreatedAt: tm.CreatedAt,
	}
}

// Service implements team management
type Service struct {
	repo   team.Repository
	logger *zap.Logger
}

// NewService creates a new team service
func NewService(repo team.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Create creates a team owned by the calling user
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req CreateTeamRequest) (*TeamResponse, error) {
	tm, err := team.NewTeam(req.Name, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, tm); err != nil {
		return nil, fmt.Errorf("failed to save team: %w", err)
	}

	s.logger.Info("team created",
		zap.String("team_id", tm.ID.String()),
		zap.String("owner_id", ownerID.String()),
	)
	return ToTeamResponse(tm), nil
}

// GetByID returns a team the user belongs to
func (s *Service) GetByID(ctx context.Context, userID, teamID uuid.UUID) (*TeamResponse, error) {
	tm, err := s.repo.FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !tm.HasMember(userID) {
		return nil, shared.ErrNotFound
	}
	return ToTeamResponse(tm), nil
}

// ListForUser returns all teams the user belongs to
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]TeamResponse, error) {
	teams, err := s.repo.FindByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	out := make([]TeamResponse, 0, len(teams))
	for i := range teams {
		out = append(out, *ToTeamResponse(&teams[i]))
	}
	return out, nil
}

// AddMember adds a user to the team. Only admins and the owner may do this.
func (s *Service) AddMember(ctx context.Context, callerID, teamID uuid.UUID, req AddMemberRequest) (*TeamResponse, error) {
	tm, err := s.repo.FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !tm.IsAdmin(callerID) {
		return nil, shared.ErrForbidden
	}

	if req.Admin {
		tm.AddAdmin(req.UserID)
	} else {
		tm.AddMember(req.UserID)
	}
	if err := s.repo.Save(ctx, tm); err != nil {
		return nil, fmt.Errorf("failed to save team: %w", err)
	}
	return ToTeamResponse(tm), nil
}

// RemoveMember removes a user from the team. Admins may remove members; the
// owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, callerID, teamID, userID uuid.UUID) (*TeamResponse, error) {
	tm, err := s.repo.FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !tm.IsAdmin(callerID) && callerID != userID {
		return nil, shared.ErrForbidden
	}
	if err := tm.RemoveMember(userID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, tm); err != nil {
		return nil, fmt.Errorf("failed to save team: %w", err)
	}
	return ToTeamResponse(tm), nil
}

// Authorize reports whether the user may act on the team
func (s *Service) Authorize(ctx context.Context, userID, teamID uuid.UUID) error {
	tm, err := s.repo.FindByID(ctx, teamID)
	if err != nil {
		return err
	}
	if !tm.HasMember(userID) {
		return shared.ErrForbidden
	}
	return nil
}
