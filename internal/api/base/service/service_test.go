package basesvc

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basemodels "admin_backoffice/internal/api/base/models"
	"admin_backoffice/internal/authz"
	"admin_backoffice/internal/common"
	"admin_backoffice/internal/database"
	"admin_backoffice/internal/database/memstore"
	"admin_backoffice/internal/logger"
	"admin_backoffice/internal/utility"
)

type widget struct {
	ID       primitive.ObjectID  `bson:"_id"`
	Name     string              `bson:"name"`
	Level    int                 `bson:"level"`
	Note     *string             `bson:"note"`
	Secret   string              `bson:"secret"`
	Metadata basemodels.Metadata `bson:"metadata"`
}

func (w *widget) GetID() primitive.ObjectID { return w.ID }
func (w *widget) SetID(id primitive.ObjectID) { w.ID = id }
func (w *widget) GetMetadata() *basemodels.Metadata { return &w.Metadata }

type fixture struct {
	store   *memstore.Store
	sink    *logger.MemoryAuditSink
	audit   *logger.AuditLogger
	service *LifecycleService[widget, *widget]
	panicOn string
}

var errNameTaken = common.ErrConflict.WithDetails("name")

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memstore.New(), sink: logger.NewMemoryAuditSink()}
	f.audit = logger.NewAuditLogger(100, f.sink)

	policy := Policy[widget]{
		Kind: "widget",
		UniqueKeys: []UniqueKey[widget]{
			{Field: "name", Value: func(w *widget) interface{} { return w.Name }, Conflict: errNameTaken},
		},
		PatchableFields:  []string{"name", "level", "note", "secret"},
		NullableFields:   []string{"note"},
		RedactedFields:   []string{"secret"},
		SearchableFields: []string{"name"},
		TargetLevel: func(_ context.Context, w *widget) (int, error) {
			if w.Name == f.panicOn {
				panic("boom")
			}
			return w.Level, nil
		},
		OnDelete: func(w *widget, now int64) map[string]interface{} {
			w.Secret = ""
			return map[string]interface{}{"secret": RedactedValue}
		},
	}
	runner := database.NewTransactionRunner(f.store, database.RetryPolicy{
		MaxRetries:   3,
		BaseInterval: time.Millisecond,
		Multiplier:   2,
		MaxInterval:  5 * time.Millisecond,
	}, f.audit, nil)
	repo := NewBaseServiceMemory[widget](f.store.Collection("widgets"))
	f.service = NewLifecycleService[widget, *widget](repo, runner, policy, f.audit, nil)
	return f
}

// entries đóng audit logger để chắc chắn mọi entry đã tới sink
func (f *fixture) entries(level logger.AuditLevel, source string) []logger.AuditEntry {
	f.audit.Close()
	return f.sink.Filter(level, source)
}

func actorAt(level int) *authz.Actor {
	return &authz.Actor{ID: primitive.NewObjectID(), RoleLevel: level, Permissions: []string{authz.Wildcard}}
}

func TestCreate_SeedsMetadata(t *testing.T) {
	f := newFixture(t)
	actor := actorAt(0)

	w, err := f.service.Create(context.Background(), actor, &widget{Name: "a", Level: 5}, nil)
	require.NoError(t, err)
	assert.False(t, w.ID.IsZero())
	assert.Equal(t, basemodels.CurrentDocumentVersion, w.Metadata.DocumentVersion)
	assert.Equal(t, basemodels.StatusActive, w.Metadata.Status)
	assert.False(t, w.Metadata.Deleted)
	assert.Empty(t, w.Metadata.UpdateHistory)
	require.NotNil(t, w.Metadata.CreatedBy)
	assert.Equal(t, actor.ID, *w.Metadata.CreatedBy)

	stored, err := f.service.Get(context.Background(), actor, w.ID, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "a", stored.Name)

	assert.Len(t, f.entries(logger.AuditInfo, "widget.create"), 1)
}

func TestCreate_HierarchyBeforeUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.Create(ctx, actorAt(0), &widget{Name: "a", Level: 1}, nil)
	require.NoError(t, err)

	_, err = f.service.Create(ctx, actorAt(2), &widget{Name: "a", Level: 1}, nil)
	assert.ErrorIs(t, err, common.ErrLevelTooHigh)

	_, err = f.service.Create(ctx, actorAt(0), &widget{Name: "a", Level: 3}, nil)
	assert.ErrorIs(t, err, errNameTaken)

	_, err = f.service.Create(ctx, actorAt(authz.SystemAdminLevel), &widget{Name: "root", Level: -1}, nil)
	assert.ErrorIs(t, err, common.ErrLevelTooHigh)

	assert.Len(t, f.entries(logger.AuditWarning, "widget.create"), 3)
}

func TestCreate_NoActor(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Create(context.Background(), nil, &widget{Name: "a", Level: 1}, nil)
	assert.Equal(t, common.TokenUnauthenticated, common.TokenOf(err))
}

func TestUpdate_RecordsOnlyChangedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := actorAt(0)
	w, err := f.service.Create(ctx, actor, &widget{Name: "a", Level: 3, Secret: "s1"}, nil)
	require.NoError(t, err)

	patch := NewPatch().Set("name", "a").Set("level", 4).Set("secret", "s2").Set("note", "hello")
	updated, err := f.service.Update(ctx, actor, w.ID, patch, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, updated.Level)
	assert.Equal(t, "s2", updated.Secret)
	require.NotNil(t, updated.Note)
	assert.Equal(t, "hello", *updated.Note)
	require.Len(t, updated.Metadata.UpdateHistory, 1)

	changes := updated.Metadata.UpdateHistory[0].Changes
	assert.NotContains(t, changes, "name")
	assert.Contains(t, changes, "level")
	assert.Equal(t, RedactedValue, changes["secret"])
	assert.Equal(t, "hello", changes["note"])
	require.NotNil(t, updated.Metadata.UpdatedBy)
	assert.Equal(t, actor.ID, *updated.Metadata.UpdatedBy)

	cleared, err := f.service.Update(ctx, actor, w.ID, NewPatch().Clear("note"), nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.Note)
	assert.Len(t, cleared.Metadata.UpdateHistory, 2)
}

func TestUpdate_NoopWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := actorAt(0)
	w, err := f.service.Create(ctx, actor, &widget{Name: "a", Level: 3}, nil)
	require.NoError(t, err)

	same, err := f.service.Update(ctx, actor, w.ID, NewPatch().Set("name", "a").Set("level", 3), nil)
	require.NoError(t, err)
	assert.Empty(t, same.Metadata.UpdateHistory)
	assert.Nil(t, same.Metadata.UpdatedAt)
}

func TestUpdate_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := actorAt(1)
	w, err := f.service.Create(ctx, actor, &widget{Name: "a", Level: 3}, nil)
	require.NoError(t, err)
	_, err = f.service.Create(ctx, actor, &widget{Name: "b", Level: 4}, nil)
	require.NoError(t, err)

	_, err = f.service.Update(ctx, actor, primitive.NewObjectID(), NewPatch().Set("name", "z"), nil)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.service.Update(ctx, actor, w.ID, NewPatch().Set("metadata.deleted", true), nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = f.service.Update(ctx, actor, w.ID, NewPatch().Clear("name"), nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = f.service.Update(ctx, actor, w.ID, NewPatch().Set("level", 1), nil)
	assert.ErrorIs(t, err, common.ErrLevelTooHigh)

	_, err = f.service.Update(ctx, actor, w.ID, NewPatch().Set("name", "b"), nil)
	assert.ErrorIs(t, err, errNameTaken)

	_, err = f.service.Update(ctx, actorAt(3), w.ID, NewPatch().Set("name", "c"), nil)
	assert.ErrorIs(t, err, common.ErrLevelTooHigh)
}

func TestDeleteAndRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := actorAt(0)
	w, err := f.service.Create(ctx, actor, &widget{Name: "a", Level: 3, Secret: "s"}, nil)
	require.NoError(t, err)

	deleted, err := f.service.Delete(ctx, actor, w.ID, DeleteOptions{}, nil)
	require.NoError(t, err)
	assert.True(t, deleted.Metadata.Deleted)
	assert.Equal(t, basemodels.StatusDeleted, deleted.Metadata.Status)
	require.NotNil(t, deleted.Metadata.DeletedBy)
	assert.Equal(t, actor.ID, *deleted.Metadata.DeletedBy)
	assert.Empty(t, deleted.Secret)
	require.Len(t, deleted.Metadata.UpdateHistory, 1)

	_, err = f.service.Get(ctx, actor, w.ID, nil, false)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = f.service.Delete(ctx, actor, w.ID, DeleteOptions{}, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// tên đã giải phóng cho thực thể khác
	other, err := f.service.Create(ctx, actor, &widget{Name: "a", Level: 4}, nil)
	require.NoError(t, err)

	_, err = f.service.Restore(ctx, actor, w.ID, nil)
	assert.ErrorIs(t, err, errNameTaken)

	_, err = f.service.Delete(ctx, actor, other.ID, DeleteOptions{}, nil)
	require.NoError(t, err)

	restored, err := f.service.Restore(ctx, actor, w.ID, nil)
	require.NoError(t, err)
	assert.False(t, restored.Metadata.Deleted)
	assert.Nil(t, restored.Metadata.DeletedAt)
	assert.Nil(t, restored.Metadata.DeletedBy)
	assert.Equal(t, basemodels.StatusActive, restored.Metadata.Status)
	assert.Len(t, restored.Metadata.UpdateHistory, 2)

	_, err = f.service.Restore(ctx, actor, w.ID, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.Len(t, f.entries(logger.AuditImportant, ""), 3)
}

func TestDelete_SelfAndHierarchy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, err := f.service.Create(ctx, actorAt(0), &widget{Name: "a", Level: 3}, nil)
	require.NoError(t, err)

	self := &authz.Actor{ID: w.ID, RoleLevel: 3}
	_, err = f.service.Delete(ctx, self, w.ID, DeleteOptions{}, nil)
	assert.ErrorIs(t, err, common.ErrCannotDeleteSelf)

	_, err = f.service.Delete(ctx, actorAt(3), w.ID, DeleteOptions{}, nil)
	assert.ErrorIs(t, err, common.ErrCannotDeleteDueToRoleLevel)

	_, err = f.service.Delete(ctx, self, w.ID, DeleteOptions{AllowDeleteSelf: true}, nil)
	assert.NoError(t, err)
}

func TestList_SearchIsEscapedAndPaginated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := actorAt(0)
	for i, name := range []string{"Alpha", "alpha.beta", "alphaXbeta", "gamma"} {
		_, err := f.service.Create(ctx, actor, &widget{Name: name, Level: i + 1}, nil)
		require.NoError(t, err)
	}

	res, err := f.service.List(ctx, actor, basemodels.ListQuery{Search: "ALPHA"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, int64(1), res.Page)
	assert.Equal(t, DefaultPageLimit, res.Limit)

	res, err = f.service.List(ctx, actor, basemodels.ListQuery{Search: "a.b"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "alpha.beta", res.Items[0].Name)

	res, err = f.service.List(ctx, actor, basemodels.ListQuery{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Total)
	assert.Equal(t, int64(2), res.TotalPage)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "gamma", res.Items[0].Name)

	res, err = f.service.List(ctx, actor, basemodels.ListQuery{Projection: []string{"name"}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Alpha", res.Items[0].Name)
	assert.Zero(t, res.Items[0].Level)
}

func TestList_IncludeDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := actorAt(0)
	w, err := f.service.Create(ctx, actor, &widget{Name: "a", Level: 1}, nil)
	require.NoError(t, err)
	_, err = f.service.Delete(ctx, actor, w.ID, DeleteOptions{}, nil)
	require.NoError(t, err)

	res, err := f.service.List(ctx, actor, basemodels.ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, res.Total)

	res, err = f.service.List(ctx, actor, basemodels.ListQuery{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
}

func TestList_PageBeyondRangeIsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := actorAt(0)
	_, err := f.service.Create(ctx, actor, &widget{Name: "a", Level: 1}, nil)
	require.NoError(t, err)

	for _, page := range []int64{5, 1 << 62, math.MaxInt64} {
		res, err := f.service.List(ctx, actor, basemodels.ListQuery{Page: page, Limit: MaxPageLimit})
		require.NoError(t, err, "page %d", page)
		assert.Equal(t, int64(1), res.Total)
		assert.Empty(t, res.Items)
		assert.Equal(t, page, res.Page)
	}
	assert.Empty(t, f.entries(logger.AuditCritical, "widget.list"))
}

func TestPanicIsRecoveredAsCritical(t *testing.T) {
	f := newFixture(t)
	f.panicOn = "bad"

	_, err := f.service.Create(context.Background(), actorAt(0), &widget{Name: "bad", Level: 1}, nil)
	assert.Equal(t, common.TokenInternalError, common.TokenOf(err))
	assert.Len(t, f.entries(logger.AuditCritical, "widget.create"), 1)

	// scope đã được abort, store vẫn dùng được
	res, err := f.service.List(context.Background(), actorAt(0), basemodels.ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestTransientFailureIsRetried(t *testing.T) {
	f := newFixture(t)
	f.store.FailNextCommits(errors.New("connection reset"))

	w, err := f.service.Create(context.Background(), actorAt(0), &widget{Name: "a", Level: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", w.Name)
	assert.Len(t, f.entries(logger.AuditWarning, "transaction.retry"), 1)
}

func TestInfrastructureErrorIsCollapsed(t *testing.T) {
	f := newFixture(t)
	f.store.FailNextCommits(errors.New("e1"), errors.New("e2"), errors.New("e3"), errors.New("e4"))

	_, err := f.service.Create(context.Background(), actorAt(0), &widget{Name: "a", Level: 1}, nil)
	assert.ErrorIs(t, err, common.ErrInternal)
	assert.Len(t, f.entries(logger.AuditError, "widget.create"), 1)
}

func TestApplyPatch_EmptyPatch(t *testing.T) {
	w := &widget{Name: "a"}
	after, changes, err := applyPatch(w, nil, patchRules{})
	require.NoError(t, err)
	assert.Same(t, w, after)
	assert.Empty(t, changes)
	assert.True(t, NewPatch().IsEmpty())
	assert.Equal(t, []string{"name", "note"}, NewPatch().Set("name", 1).Clear("note").Fields())
}

func TestSetOptional(t *testing.T) {
	p := NewPatch()
	SetOptional(p, "a", utility.Optional[string]{})
	SetOptional(p, "b", utility.Null[string]())
	SetOptional(p, "c", utility.Some("x"))
	assert.Equal(t, []string{"b", "c"}, p.Fields())
	assert.True(t, p.ops[0].clear)
	assert.Equal(t, "x", p.ops[1].value)
}
