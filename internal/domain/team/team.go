package team

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/stockpile/backend/internal/domain/shared"
)

// Role is a member's permission level within a team
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Team is the sharing and authorization boundary for all supply data.
// Membership management (invites, role changes) happens elsewhere; the core
// only consults a team as an authorization predicate.
type Team struct {
	shared.BaseAggregateRoot
	Name    string         `gorm:"not null"`
	OwnerID uuid.UUID      `gorm:"type:uuid;not null;index"`
	Admins  pq.StringArray `gorm:"type:text[]"`
	Members pq.StringArray `gorm:"type:text[]"`
}

// TableName returns the table name for GORM
func (Team) TableName() string {
	return "teams"
}

// NewTeam creates a new team owned by the given user
func NewTeam(name string, ownerID uuid.UUID) (*Team, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Team name cannot be empty")
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	return &Team{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		OwnerID:           ownerID,
		Admins:            pq.StringArray{},
		Members:           pq.StringArray{},
	}, nil
}

// HasMember returns true if the user belongs to the team in any role
func (t *Team) HasMember(userID uuid.UUID) bool {
	if userID == t.OwnerID {
		return true
	}
	id := userID.String()
	return contains(t.Admins, id) || contains(t.Members, id)
}

// IsAdmin returns true if the user is the owner or an admin
func (t *Team) IsAdmin(userID uuid.UUID) bool {
	if userID == t.OwnerID {
		return true
	}
	return contains(t.Admins, userID.String())
}

// RoleOf returns the user's role, or an empty role for non-members
func (t *Team) RoleOf(userID uuid.UUID) Role {
	switch {
	case userID == t.OwnerID:
		return RoleOwner
	case contains(t.Admins, userID.String()):
		return RoleAdmin
	case contains(t.Members, userID.String()):
		return RoleMember
	default:
		return ""
	}
}

// AddMember adds a user in the member role. Adding an existing member is a no-op.
func (t *Team) AddMember(userID uuid.UUID) {
	if t.HasMember(userID) {
		return
	}
	t.Members = append(t.Members, userID.String())
	t.IncrementVersion()
}

// AddAdmin adds a user in the admin role, promoting an existing member
func (t *Team) AddAdmin(userID uuid.UUID) {
	if t.IsAdmin(userID) {
		return
	}
	id := userID.String()
	t.Members = remove(t.Members, id)
	t.Admins = append(t.Admins, id)
	t.IncrementVersion()
}

// RemoveMember removes a user from any role. The owner cannot be removed.
func (t *Team) RemoveMember(userID uuid.UUID) error {
	if userID == t.OwnerID {
		return shared.NewDomainError("OWNER_IMMUTABLE", "Team owner cannot be removed")
	}
	if !t.HasMember(userID) {
		return shared.ErrNotFound
	}
	id := userID.String()
	t.Admins = remove(t.Admins, id)
	t.Members = remove(t.Members, id)
	t.IncrementVersion()
	return nil
}

// Touch updates the modification timestamp
func (t *Team) Touch() {
	t.UpdatedAt = time.Now()
}

func remove(list pq.StringArray, value string) pq.StringArray {
	out := make(pq.StringArray, 0, len(list))
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}

func contains(list pq.StringArray, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
