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

type pageFixture struct {
	pages   *PageService
	stories *StoryService
	inst    *InstallmentService
	lists   *ListService
	sagas   *SagaService
	store   *sqlite.Store
}

func newPageFixture(t *testing.T) *pageFixture {
	t.Helper()
	st := newTestStore(t)
	authors := NewAuthorService(st, testLogger(), "|")
	return &pageFixture{
		pages:   NewPageService(st, testLogger()),
		stories: NewStoryService(st, authors, newTestValidator(), testLogger()),
		inst:    NewInstallmentService(st, newMemProvider(), authors, testLogger()),
		lists:   NewListService(st, newTestValidator(), testLogger()),
		sagas:   NewSagaService(st, testLogger()),
		store:   st,
	}
}

func (f *pageFixture) publish(t *testing.T, storyID string, ordinal int, day time.Time) {
	t.Helper()
	_, err := f.inst.Publish(context.Background(), PublishInput{
		StoryID:   storyID,
		Ordinal:   ordinal,
		Published: day,
		Body:      []byte("body of the installment"),
	})
	require.NoError(t, err)
}

func TestStoryPage(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.CreateCode(ctx, &domain.Code{Abbr: "ws", CreatedAt: time.Now().UTC()}))
	story, err := f.stories.CreateStory(ctx, StoryInput{
		Title:     "The Winter Station",
		Authors:   []string{"Jane Scrivener"},
		CodeAbbrs: []string{"ws"},
	})
	require.NoError(t, err)
	f.publish(t, story.ID, 1, date(2024, time.March, 1))
	f.publish(t, story.ID, 2, date(2024, time.April, 1))

	page, err := f.pages.StoryPage(ctx, story.Slug)
	require.NoError(t, err)

	assert.Equal(t, story.ID, page.Story.ID)
	require.Len(t, page.Authors, 1)
	assert.Equal(t, "Jane Scrivener", page.Authors[0].Name)
	assert.Equal(t, "ws", page.CodeAbbrs)
	assert.Len(t, page.Installments, 2)
	assert.Len(t, page.Dates, 2)
}

func TestStoryPage_UnknownSlug(t *testing.T) {
	f := newPageFixture(t)

	_, err := f.pages.StoryPage(context.Background(), "nope")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestStoryPage_RemovedStoryIsNotFound(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	story, err := f.stories.CreateStory(ctx, StoryInput{Title: "Gone"})
	require.NoError(t, err)
	require.NoError(t, f.stories.RemoveStory(ctx, story.ID, date(2024, time.June, 1)))

	_, err = f.pages.StoryPage(ctx, story.Slug)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestInstallmentPage(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	story, err := f.stories.CreateStory(ctx, StoryInput{Title: "Serial"})
	require.NoError(t, err)
	f.publish(t, story.ID, 1, date(2024, time.March, 1))
	f.publish(t, story.ID, 2, date(2024, time.April, 1))
	f.publish(t, story.ID, 3, date(2024, time.May, 1))

	page, err := f.pages.InstallmentPage(ctx, story.Slug, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, page.Installment.Ordinal)
	require.NotNil(t, page.Neighbors.Prev)
	require.NotNil(t, page.Neighbors.Next)
	assert.Equal(t, 1, *page.Neighbors.Prev)
	assert.Equal(t, 3, *page.Neighbors.Next)
	assert.Len(t, page.Revisions, 1)
}

func TestInstallmentPage_UnknownOrdinal(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	story, err := f.stories.CreateStory(ctx, StoryInput{Title: "Serial"})
	require.NoError(t, err)

	_, err = f.pages.InstallmentPage(ctx, story.Slug, 7)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestAuthorPage(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	_, err := f.stories.CreateStory(ctx, StoryInput{
		Title:   "Zeta Story",
		Authors: []string{"Shared Pen"},
	})
	require.NoError(t, err)
	_, err = f.stories.CreateStory(ctx, StoryInput{
		Title:   "Alpha Story",
		Authors: []string{"Shared Pen"},
	})
	require.NoError(t, err)

	page, err := f.pages.AuthorPage(ctx, "Shared-Pen")
	require.NoError(t, err)

	require.Len(t, page.Stories, 2)
	assert.Equal(t, "Alpha Story", page.Stories[0].Story.Title)
	require.Len(t, page.Stories[0].Authors, 1)
	assert.Equal(t, "Shared Pen", page.Stories[0].Authors[0].Name)
}

func TestAuthorPage_UnknownSlug(t *testing.T) {
	f := newPageFixture(t)

	_, err := f.pages.AuthorPage(context.Background(), "ghost-writer")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCodePage(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.CreateCode(ctx, &domain.Code{Abbr: "dr", CreatedAt: time.Now().UTC()}))
	_, err := f.stories.CreateStory(ctx, StoryInput{Title: "Coded", CodeAbbrs: []string{"dr"}})
	require.NoError(t, err)
	_, err = f.stories.CreateStory(ctx, StoryInput{Title: "Uncoded"})
	require.NoError(t, err)

	page, err := f.pages.CodePage(ctx, "dr")
	require.NoError(t, err)
	require.Len(t, page.Stories, 1)
	assert.Equal(t, "Coded", page.Stories[0].Story.Title)
}

func TestCodePage_UnknownAbbr(t *testing.T) {
	f := newPageFixture(t)

	_, err := f.pages.CodePage(context.Background(), "zz")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestLetterPage(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	_, err := f.stories.CreateStory(ctx, StoryInput{Title: "Winter Tale"})
	require.NoError(t, err)
	_, err = f.stories.CreateStory(ctx, StoryInput{Title: "Autumn Tale"})
	require.NoError(t, err)

	page, err := f.pages.LetterPage(ctx, "W")
	require.NoError(t, err)
	require.Len(t, page.Stories, 1)
	assert.Equal(t, "Winter Tale", page.Stories[0].Story.Title)

	_, err = f.pages.LetterPage(ctx, "Q")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestLetterIndex(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	_, err := f.stories.CreateStory(ctx, StoryInput{Title: "Winter Tale"})
	require.NoError(t, err)
	_, err = f.stories.CreateStory(ctx, StoryInput{Title: "Wind Song"})
	require.NoError(t, err)
	_, err = f.stories.CreateStory(ctx, StoryInput{Title: "9 Lives", SortTitle: "9 lives"})
	require.NoError(t, err)

	buckets, err := f.pages.LetterIndex(ctx)
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "W", buckets[0].Letter)
	assert.Equal(t, 2, buckets[0].Count)
	assert.Equal(t, "_", buckets[1].Letter)
	assert.Equal(t, 1, buckets[1].Count)
}

func TestListPage(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	list, err := f.lists.CreateList(ctx, "user_1", ListInput{Name: "Mine", Color: "teal"})
	require.NoError(t, err)
	story, err := f.stories.CreateStory(ctx, StoryInput{Title: "Listed"})
	require.NoError(t, err)
	_, err = f.lists.ToggleStory(ctx, "user_1", list.ID, story.ID)
	require.NoError(t, err)

	page, err := f.pages.ListPage(ctx, "user_1", list.ID)
	require.NoError(t, err)
	require.Len(t, page.Stories, 1)
	assert.Equal(t, story.ID, page.Stories[0].Story.ID)

	_, err = f.pages.ListPage(ctx, "user_2", list.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSagaPage(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.CreateCode(ctx, &domain.Code{Abbr: "aa", CreatedAt: time.Now().UTC()}))
	require.NoError(t, f.store.CreateCode(ctx, &domain.Code{Abbr: "dr", CreatedAt: time.Now().UTC()}))

	saga, err := f.sagas.CreateSaga(ctx, "Arc", "", "")
	require.NoError(t, err)
	first, err := f.stories.CreateStory(ctx, StoryInput{Title: "Part One", CodeAbbrs: []string{"aa"}})
	require.NoError(t, err)
	second, err := f.stories.CreateStory(ctx, StoryInput{Title: "Part Two", CodeAbbrs: []string{"dr"}})
	require.NoError(t, err)
	_, err = f.sagas.AddStory(ctx, saga.ID, first.ID)
	require.NoError(t, err)
	_, err = f.sagas.AddStory(ctx, saga.ID, second.ID)
	require.NoError(t, err)

	page, err := f.pages.SagaPage(ctx, saga.ID)
	require.NoError(t, err)

	require.Len(t, page.Stories, 2)
	assert.Equal(t, first.ID, page.Stories[0].Story.ID)
	assert.Equal(t, 1, page.Stories[0].Entry.Order)
	assert.Equal(t, "aa dr", page.CodeAbbrs)
}

func TestSagaPage_RemovedMemberLeftOut(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.CreateCode(ctx, &domain.Code{Abbr: "aa", CreatedAt: time.Now().UTC()}))
	require.NoError(t, f.store.CreateCode(ctx, &domain.Code{Abbr: "dr", CreatedAt: time.Now().UTC()}))

	saga, err := f.sagas.CreateSaga(ctx, "Arc", "", "")
	require.NoError(t, err)
	kept, err := f.stories.CreateStory(ctx, StoryInput{Title: "Part One", CodeAbbrs: []string{"aa"}})
	require.NoError(t, err)
	gone, err := f.stories.CreateStory(ctx, StoryInput{Title: "Part Two", CodeAbbrs: []string{"dr"}})
	require.NoError(t, err)
	_, err = f.sagas.AddStory(ctx, saga.ID, kept.ID)
	require.NoError(t, err)
	_, err = f.sagas.AddStory(ctx, saga.ID, gone.ID)
	require.NoError(t, err)

	require.NoError(t, f.stories.RemoveStory(ctx, gone.ID, date(2024, time.June, 1)))

	page, err := f.pages.SagaPage(ctx, saga.ID)
	require.NoError(t, err)

	require.Len(t, page.Stories, 1)
	assert.Equal(t, kept.ID, page.Stories[0].Story.ID)
	assert.Equal(t, "aa", page.CodeAbbrs)
}

func TestSagaPlacement(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	saga, err := f.sagas.CreateSaga(ctx, "Arc", "", "")
	require.NoError(t, err)
	first, err := f.stories.CreateStory(ctx, StoryInput{Title: "Part One"})
	require.NoError(t, err)
	second, err := f.stories.CreateStory(ctx, StoryInput{Title: "Part Two"})
	require.NoError(t, err)
	_, err = f.sagas.AddStory(ctx, saga.ID, first.ID)
	require.NoError(t, err)
	_, err = f.sagas.AddStory(ctx, saga.ID, second.ID)
	require.NoError(t, err)

	placement, err := f.pages.SagaPlacement(ctx, saga.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, placement.Index)
	assert.Equal(t, 2, placement.Total)
	assert.Nil(t, placement.Prev)
	require.NotNil(t, placement.Next)
	assert.Equal(t, second.ID, placement.Next.StoryID)

	_, err = f.pages.SagaPlacement(ctx, saga.ID, "story_missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestWhatsNew(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	marFirst := date(2024, time.March, 1)
	aprFirst := date(2024, time.April, 1)

	older, err := f.stories.CreateStory(ctx, StoryInput{Title: "Older", Published: &marFirst})
	require.NoError(t, err)
	f.publish(t, older.ID, 1, marFirst)

	newer, err := f.stories.CreateStory(ctx, StoryInput{Title: "Newer", Published: &aprFirst})
	require.NoError(t, err)
	f.publish(t, newer.ID, 1, aprFirst)

	days, err := f.pages.WhatsNew(ctx)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.True(t, days[0].Date.After(days[1].Date))
	require.Len(t, days[0].Stories, 1)
	assert.Equal(t, "Newer", days[0].Stories[0].Story.Title)
	assert.Equal(t, 1, days[0].Stories[0].NewOrdinals)
}

func TestWhatWasNew(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	pub := date(2023, time.February, 6)
	story, err := f.stories.CreateStory(ctx, StoryInput{Title: "Yearly", Published: &pub})
	require.NoError(t, err)
	f.publish(t, story.ID, 1, pub)

	weeks, err := f.pages.WhatWasNew(ctx, 2023)
	require.NoError(t, err)
	require.Len(t, weeks, 1)
	assert.Equal(t, 2023, weeks[0].Year)
	require.Len(t, weeks[0].Added, 1)
	assert.Equal(t, story.ID, weeks[0].Added[0].Story.ID)

	_, err = f.pages.WhatWasNew(ctx, 1999)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
