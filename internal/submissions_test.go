package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionsVisibleTo_OwnerSeesAll(t *testing.T) {
	ct := Contest{ID: 1, OwnerID: 10}
	subs := []Submission{
		{ID: 1, DesignerID: 20},
		{ID: 2, DesignerID: 21},
		{ID: 3, DesignerID: 20},
	}

	visible := submissionsVisibleTo(Actor{ID: 10, Role: RoleUser}, ct, subs)
	assert.Len(t, visible, 3)
}

func TestSubmissionsVisibleTo_DesignerSeesOnlyOwn(t *testing.T) {
	ct := Contest{ID: 1, OwnerID: 10}
	subs := []Submission{
		{ID: 1, DesignerID: 20},
		{ID: 2, DesignerID: 21},
		{ID: 3, DesignerID: 20},
	}

	visible := submissionsVisibleTo(Actor{ID: 20, Role: RoleDesigner}, ct, subs)
	require.Len(t, visible, 2)
	assert.Equal(t, 1, visible[0].ID)
	assert.Equal(t, 3, visible[1].ID)

	// a designer with no submissions sees an empty list, not nil
	visible = submissionsVisibleTo(Actor{ID: 99, Role: RoleDesigner}, ct, subs)
	assert.NotNil(t, visible)
	assert.Empty(t, visible)
}

func TestContestParty(t *testing.T) {
	ct := Contest{ID: 1, OwnerID: 10}
	sub := Submission{ID: 5, ContestID: 1, DesignerID: 20}

	assert.True(t, contestParty(Actor{ID: 10}, sub, ct))
	assert.True(t, contestParty(Actor{ID: 20}, sub, ct))
	assert.False(t, contestParty(Actor{ID: 30}, sub, ct))
}
