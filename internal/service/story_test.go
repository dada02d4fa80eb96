package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storykeep/storykeep-server/internal/domain"
	domainerrors "github.com/storykeep/storykeep-server/internal/errors"
	"github.com/storykeep/storykeep-server/internal/store/sqlite"
)

func newStoryService(t *testing.T) (*StoryService, *sqlite.Store) {
	t.Helper()
	st := newTestStore(t)
	authors := NewAuthorService(st, testLogger(), "|")
	return NewStoryService(st, authors, newTestValidator(), testLogger()), st
}

func TestCreateStory_DerivesFields(t *testing.T) {
	svc, _ := newStoryService(t)
	pub := date(2024, time.March, 1)

	story, err := svc.CreateStory(context.Background(), StoryInput{
		Title:     "The Winter Station",
		Published: &pub,
	})
	require.NoError(t, err)

	assert.Equal(t, "winter station", story.SortTitle)
	assert.Equal(t, "The-Winter-Station", story.Slug)
	require.NotNil(t, story.Updated)
	assert.True(t, story.Updated.Equal(pub), "updated defaults to published")
}

func TestCreateStory_KeepsExplicitFields(t *testing.T) {
	svc, _ := newStoryService(t)
	pub := date(2024, time.March, 1)
	upd := date(2024, time.April, 2)

	story, err := svc.CreateStory(context.Background(), StoryInput{
		Title:     "The Winter Station",
		SortTitle: "custom key",
		Slug:      "custom-slug",
		Published: &pub,
		Updated:   &upd,
	})
	require.NoError(t, err)

	assert.Equal(t, "custom key", story.SortTitle)
	assert.Equal(t, "custom-slug", story.Slug)
	assert.True(t, story.Updated.Equal(upd))
}

func TestCreateStory_RequiresTitle(t *testing.T) {
	svc, _ := newStoryService(t)

	_, err := svc.CreateStory(context.Background(), StoryInput{})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestCreateStory_SlugConflict(t *testing.T) {
	svc, _ := newStoryService(t)
	ctx := context.Background()

	_, err := svc.CreateStory(ctx, StoryInput{Title: "Duplicate"})
	require.NoError(t, err)

	_, err = svc.CreateStory(ctx, StoryInput{Title: "Duplicate"})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestCreateStory_UnknownSlantRejected(t *testing.T) {
	svc, _ := newStoryService(t)

	_, err := svc.CreateStory(context.Background(), StoryInput{
		Title:   "Story",
		SlantID: "slant_missing",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestCreateStory_CreditsAuthorsAndCodes(t *testing.T) {
	svc, st := newStoryService(t)
	ctx := context.Background()

	require.NoError(t, st.CreateCode(ctx, &domain.Code{Abbr: "dr", CreatedAt: time.Now().UTC()}))

	story, err := svc.CreateStory(ctx, StoryInput{
		Title:     "Credited",
		Authors:   []string{"Second Author", "First Author"},
		CodeAbbrs: []string{"dr"},
	})
	require.NoError(t, err)
	require.Len(t, story.Authors, 2)
	assert.Equal(t, []string{"dr"}, story.CodeAbbrs)

	byStory, err := st.AuthorsByStory(ctx, []string{story.ID})
	require.NoError(t, err)
	require.Len(t, byStory[story.ID], 2)
	assert.Equal(t, "First Author", byStory[story.ID][0].Name)
}

func TestCreateStory_UnknownCodeRejected(t *testing.T) {
	svc, _ := newStoryService(t)

	_, err := svc.CreateStory(context.Background(), StoryInput{
		Title:     "Story",
		CodeAbbrs: []string{"zz"},
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestUpdateStory(t *testing.T) {
	svc, _ := newStoryService(t)
	ctx := context.Background()

	story, err := svc.CreateStory(ctx, StoryInput{Title: "Before"})
	require.NoError(t, err)

	updated, err := svc.UpdateStory(ctx, story.ID, StoryInput{
		Title:    "After",
		Synopsis: "now with a synopsis",
	})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Title)
	assert.Equal(t, "after", updated.SortTitle)
	assert.Equal(t, "After", updated.Slug)
}

func TestUpdateStory_NotFound(t *testing.T) {
	svc, _ := newStoryService(t)

	_, err := svc.UpdateStory(context.Background(), "story_missing", StoryInput{Title: "X"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestRemoveStory(t *testing.T) {
	svc, st := newStoryService(t)
	ctx := context.Background()

	story, err := svc.CreateStory(ctx, StoryInput{Title: "Doomed"})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveStory(ctx, story.ID, date(2024, time.June, 1)))

	// Still reachable by id, gone from slug lookup.
	got, err := svc.GetStory(ctx, story.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRemoved())

	_, err = st.GetStoryBySlug(ctx, story.Slug)
	assert.Error(t, err)
}

func TestRemoveStory_NotFound(t *testing.T) {
	svc, _ := newStoryService(t)

	err := svc.RemoveStory(context.Background(), "story_missing", date(2024, time.June, 1))
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
