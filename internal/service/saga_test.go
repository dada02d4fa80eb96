package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/storykeep/storykeep-server/internal/errors"
	"github.com/storykeep/storykeep-server/internal/id"
	"github.com/storykeep/storykeep-server/internal/store/sqlite"
)

func newSagaService(t *testing.T) (*SagaService, *sqlite.Store) {
	t.Helper()
	st := newTestStore(t)
	return NewSagaService(st, testLogger()), st
}

func TestCreateSaga(t *testing.T) {
	svc, _ := newSagaService(t)

	saga, err := svc.CreateSaga(context.Background(), "The Long Arc", "", "a synopsis")
	require.NoError(t, err)

	assert.Len(t, saga.ID, id.ShortLen)
	assert.Equal(t, "long arc", saga.SortName)
	assert.False(t, saga.CreatedAt.IsZero())
}

func TestCreateSaga_RequiresName(t *testing.T) {
	svc, _ := newSagaService(t)

	_, err := svc.CreateSaga(context.Background(), "  ", "", "")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestUpdateSaga(t *testing.T) {
	svc, _ := newSagaService(t)
	ctx := context.Background()

	saga, err := svc.CreateSaga(ctx, "Before", "", "")
	require.NoError(t, err)

	updated, err := svc.UpdateSaga(ctx, saga.ID, "The After", "", "new synopsis")
	require.NoError(t, err)
	assert.Equal(t, "The After", updated.Name)
	assert.Equal(t, "after", updated.SortName)
}

func TestAddStory_AppendsInOrder(t *testing.T) {
	svc, st := newSagaService(t)
	ctx := context.Background()

	saga, err := svc.CreateSaga(ctx, "Arc", "", "")
	require.NoError(t, err)
	first := seedStory(t, st, "first")
	second := seedStory(t, st, "second")

	e1, err := svc.AddStory(ctx, saga.ID, first.ID)
	require.NoError(t, err)
	e2, err := svc.AddStory(ctx, saga.ID, second.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, e1.Order)
	assert.Equal(t, 2, e2.Order)
}

func TestAddStory_DuplicateConflicts(t *testing.T) {
	svc, st := newSagaService(t)
	ctx := context.Background()

	saga, err := svc.CreateSaga(ctx, "Arc", "", "")
	require.NoError(t, err)
	story := seedStory(t, st, "only")

	_, err = svc.AddStory(ctx, saga.ID, story.ID)
	require.NoError(t, err)
	_, err = svc.AddStory(ctx, saga.ID, story.ID)
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestAddStory_UnknownRefs(t *testing.T) {
	svc, st := newSagaService(t)
	ctx := context.Background()

	saga, err := svc.CreateSaga(ctx, "Arc", "", "")
	require.NoError(t, err)
	story := seedStory(t, st, "real")

	_, err = svc.AddStory(ctx, "missing1", story.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = svc.AddStory(ctx, saga.ID, "story_missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestRemoveStory_ClosesGap(t *testing.T) {
	svc, st := newSagaService(t)
	ctx := context.Background()

	saga, err := svc.CreateSaga(ctx, "Arc", "", "")
	require.NoError(t, err)
	a := seedStory(t, st, "a")
	b := seedStory(t, st, "b")
	c := seedStory(t, st, "c")
	for _, s := range []string{a.ID, b.ID, c.ID} {
		_, err := svc.AddStory(ctx, saga.ID, s)
		require.NoError(t, err)
	}

	require.NoError(t, svc.RemoveStory(ctx, saga.ID, b.ID))

	entries, err := st.SagaEntries(ctx, saga.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, a.ID, entries[0].StoryID)
	assert.Equal(t, 1, entries[0].Order)
	assert.Equal(t, c.ID, entries[1].StoryID)
	assert.Equal(t, 2, entries[1].Order)
}

func TestRemoveStory_NotInSaga(t *testing.T) {
	svc, st := newSagaService(t)
	ctx := context.Background()

	saga, err := svc.CreateSaga(ctx, "Arc", "", "")
	require.NoError(t, err)
	story := seedStory(t, st, "outside")

	err = svc.RemoveStory(ctx, saga.ID, story.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestDeleteSaga(t *testing.T) {
	svc, _ := newSagaService(t)
	ctx := context.Background()

	saga, err := svc.CreateSaga(ctx, "Arc", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSaga(ctx, saga.ID))
	assert.ErrorIs(t, svc.DeleteSaga(ctx, saga.ID), domainerrors.ErrNotFound)
}
