package supply

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockpile/backend/internal/domain/shared"
	"github.com/stockpile/backend/internal/domain/supply"
)

// CreateSupplyRequest carries the fields for registering a new supply
type CreateSupplyRequest struct {
	Name             string `json:"name" binding:"required,max=200"`
	Category         string `json:"category" binding:"required,max=100"`
	Unit             string `json:"unit" binding:"required,max=50"`
	Quantity         int    `json:"quantity" binding:"gte=0"`
	ExpiryDate       string `json:"expiryDate" binding:"omitempty,lotdate"`
	PurchaseLocation string `json:"purchaseLocation" binding:"max=200"`
}

// UpdateSupplyRequest carries the mutable descriptive fields of a supply
type UpdateSupplyRequest struct {
	Name             *string `json:"name" binding:"omitempty,max=200"`
	Category         *string `json:"category" binding:"omitempty,max=100"`
	Unit             *string `json:"unit" binding:"omitempty,max=50"`
	PurchaseLocation *string `json:"purchaseLocation" binding:"omitempty,max=200"`
}

// ConsumeRequest asks to take stock out of a supply
type ConsumeRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// RestockRequest asks to add stock to a supply
type RestockRequest struct {
	Quantity      int              `json:"quantity" binding:"required,gt=0"`
	ExpiryDate    string           `json:"expiryDate" binding:"required,lotdate"`
	PurchasePrice *decimal.Decimal `json:"purchasePrice"`
}

// CreateReviewRequest carries a new review for a supply
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// ListSuppliesQuery captures the supported list filters
type ListSuppliesQuery struct {
	Page               int    `form:"page"`
	PageSize           int    `form:"pageSize"`
	Archived           *bool  `form:"archived"`
	ZeroStock          bool   `form:"zeroStock"`
	ExpiringWithinDays int    `form:"expiringWithinDays" binding:"gte=0"`
	OrderBy            string `form:"orderBy"`
	OrderDir           string `form:"orderDir"`
}

// LotResponse is the API view of a single stock lot
type LotResponse struct {
	ID            uuid.UUID        `json:"id"`
	ExpiryDate    string           `json:"expiryDate"`
	Quantity      int              `json:"quantity"`
	AddedAt       time.Time        `json:"addedAt"`
	PurchasePrice *decimal.Decimal `json:"purchasePrice,omitempty"`
}

// SupplyResponse is the API view of a supply aggregate
type SupplyResponse struct {
	ID               uuid.UUID     `json:"id"`
	TeamID           uuid.UUID     `json:"teamId"`
	Name             string        `json:"name"`
	Category         string        `json:"category"`
	Unit             string        `json:"unit"`
	Quantity         int           `json:"quantity"`
	ExpiryDate       string        `json:"expiryDate,omitempty"`
	PurchaseLocation string        `json:"purchaseLocation,omitempty"`
	ConsumptionCount int           `json:"consumptionCount"`
	LastConsumedAt   *time.Time    `json:"lastConsumedAt,omitempty"`
	ZeroStockSince   *time.Time    `json:"zeroStockSince,omitempty"`
	IsArchived       bool          `json:"isArchived"`
	RegisteredAt     time.Time     `json:"registeredAt"`
	Lots             []LotResponse `json:"lots"`
	Version          int           `json:"version"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// LotConsumptionResponse records how much one lot contributed to a consumption
type LotConsumptionResponse struct {
	ExpiryDate string `json:"expiryDate"`
	Quantity   int    `json:"quantity"`
}

// ConsumeResponse reports the outcome of a consumption
type ConsumeResponse struct {
	Requested   int                      `json:"requested"`
	Fulfilled   int                      `json:"fulfilled"`
	Unfulfilled int                      `json:"unfulfilled"`
	Remaining   int                      `json:"remaining"`
	Consumed    []LotConsumptionResponse `json:"consumed"`
	Supply      *SupplyResponse          `json:"supply"`
}

// RestockResponse reports the outcome of a restock
type RestockResponse struct {
	ExpiryDate string          `json:"expiryDate"`
	Added      int             `json:"added"`
	Merged     bool            `json:"merged"`
	Total      int             `json:"total"`
	Supply     *SupplyResponse `json:"supply"`
}

// ReviewResponse is the API view of a supply review
type ReviewResponse struct {
	ID        uuid.UUID `json:"id"`
	SupplyID  uuid.UUID `json:"supplyId"`
	AuthorID  uuid.UUID `json:"authorId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToSupplyResponse maps a supply aggregate to its API representation
func ToSupplyResponse(s *supply.Supply) *SupplyResponse {
	lots := make([]LotResponse, 0, len(s.Lots))
	for _, lot := range s.Lots {
		lots = append(lots, LotResponse{
			ID:            lot.ID,
			ExpiryDate:    lot.ExpiryDate,
			Quantity:      lot.Quantity,
			AddedAt:       lot.AddedAt,
			PurchasePrice: lot.PurchasePrice,
		})
	}
	return &SupplyResponse{
		ID:               s.ID,
		TeamID:           s.TeamID,
		Name:             s.Name,
		Category:         s.Category,
		Unit:             s.Unit,
		Quantity:         s.Quantity,
		ExpiryDate:       s.ExpiryDate,
		PurchaseLocation: s.PurchaseLocation,
		ConsumptionCount: s.ConsumptionCount,
		LastConsumedAt:   s.LastConsumedAt,
		ZeroStockSince:   s.ZeroStockSince,
		IsArchived:       s.IsArchived,
		RegisteredAt:     s.RegisteredAt,
		Lots:             lots,
		Version:          s.Version,
		UpdatedAt:        s.UpdatedAt,
	}
}

// ToSupplyResponses maps a slice of supplies
func ToSupplyResponses(supplies []supply.Supply) []SupplyResponse {
	out := make([]SupplyResponse, 0, len(supplies))
	for i := range supplies {
		out = append(out, *ToSupplyResponse(&supplies[i]))
	}
	return out
}

// ToConsumeResponse maps a domain consumption result to its API representation
func ToConsumeResponse(result *supply.ConsumptionResult, s *supply.Supply) *ConsumeResponse {
	consumed := make([]LotConsumptionResponse, 0, len(result.Consumed))
	for _, c := range result.Consumed {
		consumed = append(consumed, LotConsumptionResponse{
			ExpiryDate: c.ExpiryDate,
			Quantity:   c.Quantity,
		})
	}
	return &ConsumeResponse{
		Requested:   result.Requested,
		Fulfilled:   result.Fulfilled,
		Unfulfilled: result.Unfulfilled,
		Remaining:   result.Remaining,
		Consumed:    consumed,
		Supply:      ToSupplyResponse(s),
	}
}

// ToRestockResponse maps a domain restock result to its API representation
func ToRestockResponse(result *supply.RestockResult, s *supply.Supply) *RestockResponse {
	return &RestockResponse{
		ExpiryDate: result.ExpiryDate,
		Added:      result.Added,
		Merged:     result.Merged,
		Total:      result.Total,
		Supply:     ToSupplyResponse(s),
	}
}

// ToReviewResponse maps a review entity to its API representation
func ToReviewResponse(r *supply.Review) *ReviewResponse {
	return &ReviewResponse{
		ID:        r.ID,
		SupplyID:  r.SupplyID,
		AuthorID:  r.AuthorID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

// ToReviewResponses maps a slice of reviews
func ToReviewResponses(reviews []supply.Review) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, *ToReviewResponse(&reviews[i]))
	}
	return out
}

// toFilter converts the list query to a domain filter
func (q ListSuppliesQuery) toFilter() supply.SupplyFilter {
	base := shared.DefaultFilter()
	if q.Page > 0 {
		base.Page = q.Page
	}
	if q.PageSize > 0 {
		base.PageSize = q.PageSize
	}
	if q.OrderBy != "" {
		base.OrderBy = q.OrderBy
	}
	if q.OrderDir != "" {
		base.OrderDir = q.OrderDir
	}
	return supply.SupplyFilter{
		Filter:             base,
		Archived:           q.Archived,
		ZeroStock:          q.ZeroStock,
		ExpiringWithinDays: q.ExpiringWithinDays,
	}
}
