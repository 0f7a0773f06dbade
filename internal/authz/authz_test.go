package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"admin_backoffice/internal/common"
)

func TestCanActOn(t *testing.T) {
	assert.True(t, CanActOn(0, 5))
	assert.True(t, CanActOn(SystemAdminLevel, 0))
	assert.False(t, CanActOn(5, 5), "cùng level không được thao tác")
	assert.False(t, CanActOn(5, 3))
}

func TestCanAssignLevel_NeverBelowZero(t *testing.T) {
	for actor := -1; actor <= 10; actor++ {
		for level := -3; level <= 12; level++ {
			got := CanAssignLevel(actor, level)
			if level <= actor || level < 0 {
				assert.False(t, got, "actor %d không được gán level %d", actor, level)
			} else {
				assert.True(t, got, "actor %d được gán level %d", actor, level)
			}
		}
	}
}

type fakeLookup struct {
	taken map[int]primitive.ObjectID
	err   error
}

func (f fakeLookup) LevelTaken(_ context.Context, level int, excludingID primitive.ObjectID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	id, ok := f.taken[level]
	return ok && id != excludingID, nil
}

func TestLevelIsAvailable(t *testing.T) {
	owner := primitive.NewObjectID()
	lookup := fakeLookup{taken: map[int]primitive.ObjectID{5: owner}}
	ctx := context.Background()

	ok, err := LevelIsAvailable(ctx, lookup, 5, primitive.NilObjectID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = LevelIsAvailable(ctx, lookup, 5, owner)
	require.NoError(t, err)
	assert.True(t, ok, "chính vai trò đang giữ level thì vẫn coi là còn trống")

	ok, err = LevelIsAvailable(ctx, lookup, 6, primitive.NilObjectID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = LevelIsAvailable(ctx, fakeLookup{err: errors.New("down")}, 1, primitive.NilObjectID)
	assert.Error(t, err)
}

func TestAuthorize(t *testing.T) {
	assert.ErrorIs(t, Authorize(nil, PermRolesRead), common.ErrUnauthenticated)

	editor := &Actor{Permissions: []string{PermRolesRead, PermRolesUpdate}}
	assert.NoError(t, Authorize(editor, PermRolesRead))
	assert.NoError(t, Authorize(editor, PermRolesRead, PermRolesUpdate))

	err := Authorize(editor, PermRolesRead, PermRolesDelete)
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.Equal(t, common.TokenForbidden, common.TokenOf(err))

	admin := &Actor{Permissions: []string{Wildcard}}
	assert.NoError(t, Authorize(admin, AllPermissions...))
}

func TestAuthorize_NoRequirementPassesForAuthenticated(t *testing.T) {
	assert.NoError(t, Authorize(&Actor{}))
}
