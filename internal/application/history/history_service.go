package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/stockpile/backend/internal/domain/history"
	"github.com/stockpile/backend/internal/domain/shared"
)

// HistoryResponse is the API view of an archived supply's lifetime record
type HistoryResponse struct {
	ID                uuid.UUID      `json:"id"`
	TeamID            uuid.UUID      `json:"teamId"`
	Name              string         `json:"name"`
	Category          string         `json:"category"`
	Unit              string         `json:"unit"`
	TotalConsumed     int            `json:"totalConsumed"`
	AverageStock      float64        `json:"averageStock"`
	PurchaseLocations pq.StringArray `json:"purchaseLocations"`
	LastUsedAt        time.Time      `json:"lastUsedAt"`
	FirstRegisteredAt time.Time      `json:"firstRegisteredAt"`
	HasReviews        bool           `json:"hasReviews"`
	ReviewCount       int            `json:"reviewCount"`
	ArchivedAt        time.Time      `json:"archivedAt"`
	ArchivedBy        string         `json:"archivedBy"`
}

// ListHistoryQuery captures the supported listing parameters
type ListHistoryQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// ToHistoryResponse maps a history record to its API representation
func ToHistoryResponse(h *history.SupplyHistory) *HistoryResponse {
	return &HistoryResponse{
		ID:                h.ID,
		TeamID:            h.TeamID,
		Name:              h.Name,
		Category:          h.Category,
		Unit:              h.Unit,
		TotalConsumed:     h.TotalConsumed,
		AverageStock:      h.AverageStock,
		PurchaseLocations: h.PurchaseLocations,
		LastUsedAt:        h.LastUsedAt,
		FirstRegisteredAt: h.FirstRegisteredAt,
		HasReviews:        h.HasReviews,
		ReviewCount:       h.ReviewCount,
		ArchivedAt:        h.ArchivedAt,
		ArchivedBy:        h.ArchivedBy,
	}
}

// Service exposes read access to a team's supply history
type Service struct {
	repo   history.Repository
	logger *zap.Logger
}

// NewService creates a new history service
func NewService(repo history.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// List returns the team's history records, most recently archived first
func (s *Service) List(ctx context.Context, teamID uuid.UUID, query ListHistoryQuery) ([]HistoryResponse, int64, error) {
	filter := shared.DefaultFilter()
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.PageSize > 0 {
		filter.PageSize = query.PageSize
	}
	filter.OrderBy = "archived_at"
	filter.OrderDir = "desc"

	records, err := s.repo.FindAllForTeam(ctx, teamID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list history: %w", err)
	}
	total, err := s.repo.CountForTeam(ctx, teamID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count history: %w", err)
	}

	out := make([]HistoryResponse, 0, len(records))
	for i := range records {
		out = append(out, *ToHistoryResponse(&records[i]))
	}
	return out, total, nil
}

// GetByID returns a single history record owned by the team
func (s *Service) GetByID(ctx context.Context, teamID, id uuid.UUID) (*HistoryResponse, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.TeamID != teamID {
		return nil, shared.ErrNotFound
	}
	return ToHistoryResponse(record), nil
}
