package team

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTeam(t *testing.T) {
	owner := uuid.New()

	tm, err := NewTeam("Household", owner)
	require.NoError(t, err)
	assert.Equal(t, owner, tm.OwnerID)

	_, err = NewTeam("", owner)
	require.Error(t, err)

	_, err = NewTeam("Household", uuid.Nil)
	require.Error(t, err)
}

func TestTeam_Membership(t *testing.T) {
	owner := uuid.New()
	admin := uuid.New()
	member := uuid.New()
	outsider := uuid.New()

	tm, err := NewTeam("Household", owner)
	require.NoError(t, err)
	tm.Admins = pq.StringArray{admin.String()}
	tm.Members = pq.StringArray{member.String()}

	assert.True(t, tm.HasMember(owner))
	assert.True(t, tm.HasMember(admin))
	assert.True(t, tm.HasMember(member))
	assert.False(t, tm.HasMember(outsider))

	assert.True(t, tm.IsAdmin(owner))
	assert.True(t, tm.IsAdmin(admin))
	assert.False(t, tm.IsAdmin(member))

	assert.Equal(t, RoleOwner, tm.RoleOf(owner))
	assert.Equal(t, RoleAdmin, tm.RoleOf(admin))
	assert.Equal(t, RoleMember, tm.RoleOf(member))
	assert.Equal(t, Role(""), tm.RoleOf(outsider))
}

func TestTeam_AddAndRemoveMembers(t *testing.T) {
	owner := uuid.New()
	user := uuid.New()

	tm, err := NewTeam("Household", owner)
	require.NoError(t, err)

	tm.AddMember(user)
	assert.True(t, tm.HasMember(user))
	assert.False(t, tm.IsAdmin(user))

	// adding twice does not duplicate
	tm.AddMember(user)
	assert.Len(t, tm.Members, 1)

	tm.AddAdmin(user)
	assert.True(t, tm.IsAdmin(user))
	assert.Empty(t, tm.Members)
	assert.Len(t, tm.Admins, 1)

	require.NoError(t, tm.RemoveMember(user))
	assert.False(t, tm.HasMember(user))
}

func TestTeam_OwnerCannotBeRemoved(t *testing.T) {
	owner := uuid.New()
	tm, err := NewTeam("Household", owner)
	require.NoError(t, err)

	require.Error(t, tm.RemoveMember(owner))
	assert.True(t, tm.HasMember(owner))
}

func TestTeam_RemoveUnknownMember(t *testing.T) {
	tm, err := NewTeam("Household", uuid.New())
	require.NoError(t, err)

	require.Error(t, tm.RemoveMember(uuid.New()))
}
