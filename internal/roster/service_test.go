package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/arcticflow-dispatch/internal/docstore"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

func TestEnlistAndToggle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(docstore.NewMemoryStore(), logging.Discard())

	member, err := svc.Enlist(ctx, EnlistRequest{Name: " Ava Cool ", TeamType: TeamRepair})
	require.NoError(t, err)
	assert.Equal(t, "Ava Cool", member.Name)
	assert.Equal(t, RoleStaff, member.Role)
	assert.True(t, member.Active)
	assert.Equal(t, StatusAvailable, member.Status)

	toggled, err := svc.Toggle(ctx, member.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1, "deactivation must not remove the member")
	assert.False(t, list[0].Active)

	again, err := svc.SetActive(ctx, member.ID, true)
	require.NoError(t, err)
	assert.True(t, again.Active)
}

func TestEnlistValidation(t *testing.T) {
	svc := NewService(docstore.NewMemoryStore(), logging.Discard())
	_, err := svc.Enlist(context.Background(), EnlistRequest{TeamType: TeamRepair})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = svc.Enlist(context.Background(), EnlistRequest{Name: "X", TeamType: "Plumbing"})
	assert.ErrorIs(t, err, ErrInvalidTeam)

	_, err = svc.Enlist(context.Background(), EnlistRequest{Name: "X", TeamType: TeamRepair, Role: "Owner"})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestGetUnknownMember(t *testing.T) {
	svc := NewService(docstore.NewMemoryStore(), logging.Discard())
	_, err := svc.Get(context.Background(), "missing")
	if !errors.Is(err, ErrStaffNotFound) {
		t.Fatalf("expected ErrStaffNotFound, got %v", err)
	}
	_, err = svc.Toggle(context.Background(), "missing")
	if !errors.Is(err, ErrStaffNotFound) {
		t.Fatalf("expected ErrStaffNotFound from toggle, got %v", err)
	}
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	svc := NewService(docstore.NewMemoryStore(), logging.Discard())

	seeded, err := svc.Seed(ctx, DemoStaff())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = svc.Seed(ctx, []StaffMember{{ID: "other"}})
	require.NoError(t, err)
	assert.False(t, seeded)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestDispatchable(t *testing.T) {
	staff := DemoStaff()
	assert.False(t, staff[0].Dispatchable(TeamRepair), "admins are never dispatched")
	assert.True(t, staff[1].Dispatchable(TeamRepair))
	assert.False(t, staff[1].Dispatchable(TeamInstallation))
	staff[1].Active = false
	assert.False(t, staff[1].Dispatchable(TeamRepair))
}

func TestParseTeamType(t *testing.T) {
	team, ok := ParseTeamType(" installation ")
	assert.True(t, ok)
	assert.Equal(t, TeamInstallation, team)
	_, ok = ParseTeamType("ducting")
	assert.False(t, ok)
}
