package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/storykeep/storykeep-server/internal/domain"
	domainerrors "github.com/storykeep/storykeep-server/internal/errors"
	"github.com/storykeep/storykeep-server/internal/store"
	"github.com/storykeep/storykeep-server/internal/store/sqlite"
)

// PageService composes read-path views. Each page issues its independent
// aggregate queries concurrently and resolves its key to a not-found error
// rather than an empty page.
type PageService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewPageService creates a new page service.
func NewPageService(st *sqlite.Store, logger *slog.Logger) *PageService {
	return &PageService{store: st, logger: logger}
}

// StorySummary is a story annotated with the aggregates a listing row shows.
type StorySummary struct {
	Story     *domain.Story
	Authors   []domain.AuthorRef
	CodeAbbrs string
	Stats     store.InstallmentStats
}

// StoryPage is the full view of one story.
type StoryPage struct {
	Story        *domain.Story
	Authors      []domain.AuthorRef
	CodeAbbrs    string
	Installments []*domain.Installment
	Dates        []store.InstallmentDateRange
	Sagas        []*domain.Saga
}

// StoryPage builds the story view for a slug. Removed stories resolve as
// not found.
func (s *PageService) StoryPage(ctx context.Context, slug string) (*StoryPage, error) {
	story, err := s.store.GetStoryBySlug(ctx, slug)
	if err != nil {
		return nil, mapStoreErr(err, "story")
	}

	page := &StoryPage{Story: story}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		byStory, err := s.store.AuthorsByStory(gctx, []string{story.ID})
		if err != nil {
			return fmt.Errorf("story authors: %w", err)
		}
		page.Authors = byStory[story.ID]
		return nil
	})
	g.Go(func() error {
		byStory, err := s.store.CodeAbbrsByStory(gctx, []string{story.ID})
		if err != nil {
			return fmt.Errorf("story codes: %w", err)
		}
		page.CodeAbbrs = byStory[story.ID]
		return nil
	})
	g.Go(func() error {
		installments, err := s.store.CurrentInstallments(gctx, story.ID)
		if err != nil {
			return fmt.Errorf("current installments: %w", err)
		}
		page.Installments = installments
		return nil
	})
	g.Go(func() error {
		dates, err := s.store.InstallmentDates(gctx, story.ID)
		if err != nil {
			return fmt.Errorf("installment dates: %w", err)
		}
		page.Dates = dates
		return nil
	})
	g.Go(func() error {
		sagas, err := s.store.SagasForStory(gctx, story.ID)
		if err != nil {
			return fmt.Errorf("story sagas: %w", err)
		}
		page.Sagas = sagas
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return page, nil
}

// InstallmentPage is the reading view of one ordinal of a story.
type InstallmentPage struct {
	Story       *domain.Story
	Installment *domain.Installment
	Authors     []domain.AuthorRef
	Neighbors   *store.OrdinalNeighbors
	Revisions   []*domain.Installment
}

// InstallmentPage builds the reading view for one ordinal of a story.
func (s *PageService) InstallmentPage(ctx context.Context, slug string, ordinal int) (*InstallmentPage, error) {
	story, err := s.store.GetStoryBySlug(ctx, slug)
	if err != nil {
		return nil, mapStoreErr(err, "story")
	}
	inst, err := s.store.CurrentInstallment(ctx, story.ID, ordinal)
	if err != nil {
		return nil, mapStoreErr(err, "installment")
	}

	page := &InstallmentPage{Story: story, Installment: inst}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		authors, err := s.store.InstallmentAuthors(gctx, inst.ID)
		if err != nil {
			return fmt.Errorf("installment authors: %w", err)
		}
		page.Authors = authors
		return nil
	})
	g.Go(func() error {
		neighbors, err := s.store.PrevNextOrdinal(gctx, story.ID, ordinal)
		if err != nil {
			return fmt.Errorf("ordinal neighbors: %w", err)
		}
		page.Neighbors = neighbors
		return nil
	})
	g.Go(func() error {
		revs, err := s.store.InstallmentRevisions(gctx, story.ID, ordinal)
		if err != nil {
			return fmt.Errorf("installment revisions: %w", err)
		}
		page.Revisions = revs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return page, nil
}

// AuthorPage is an author and their listed stories.
type AuthorPage struct {
	Author  *domain.Author
	Stories []StorySummary
}

// AuthorPage builds the view for an author slug.
func (s *PageService) AuthorPage(ctx context.Context, slug string) (*AuthorPage, error) {
	author, err := s.store.GetAuthorBySlug(ctx, slug)
	if err != nil {
		return nil, mapStoreErr(err, "author")
	}
	stories, err := s.store.StoriesByAuthor(ctx, author.ID)
	if err != nil {
		return nil, fmt.Errorf("stories by author: %w", err)
	}
	summaries, err := s.annotate(ctx, stories)
	if err != nil {
		return nil, err
	}
	return &AuthorPage{Author: author, Stories: summaries}, nil
}

// CodePage is a code and the listed stories carrying it.
type CodePage struct {
	Code    *domain.Code
	Stories []StorySummary
}

// CodePage builds the view for a code abbreviation.
func (s *PageService) CodePage(ctx context.Context, abbr string) (*CodePage, error) {
	code, err := s.store.GetCode(ctx, abbr)
	if err != nil {
		return nil, mapStoreErr(err, "code")
	}
	stories, err := s.store.StoriesByCode(ctx, code.Abbr)
	if err != nil {
		return nil, fmt.Errorf("stories by code: %w", err)
	}
	summaries, err := s.annotate(ctx, stories)
	if err != nil {
		return nil, err
	}
	return &CodePage{Code: code, Stories: summaries}, nil
}

// LetterPage is one letter bucket of the alphabetical index.
type LetterPage struct {
	Letter  string
	Stories []StorySummary
}

// LetterPage builds the view for one letter bucket ("A".."Z" or "_").
func (s *PageService) LetterPage(ctx context.Context, letter string) (*LetterPage, error) {
	stories, err := s.store.StoriesByLetter(ctx, letter)
	if err != nil {
		return nil, fmt.Errorf("stories by letter: %w", err)
	}
	if len(stories) == 0 {
		return nil, domainerrors.NotFoundf("no stories under %q", letter)
	}
	summaries, err := s.annotate(ctx, stories)
	if err != nil {
		return nil, err
	}
	return &LetterPage{Letter: letter, Stories: summaries}, nil
}

// LetterIndex returns per-letter story counts for the index page.
func (s *PageService) LetterIndex(ctx context.Context) ([]store.LetterBucket, error) {
	return s.store.LetterIndex(ctx)
}

// ListPage is a reading list and its member stories.
type ListPage struct {
	List    *domain.List
	Stories []StorySummary
}

// ListPage builds the view for one of an owner's lists. Removed stories
// are excluded; auto-sorted lists come back in sort-title order, others
// in insertion order.
func (s *PageService) ListPage(ctx context.Context, ownerID, listID string) (*ListPage, error) {
	list, err := s.store.GetList(ctx, ownerID, listID)
	if err != nil {
		return nil, mapStoreErr(err, "list")
	}
	stories, err := s.store.StoriesInList(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("stories in list: %w", err)
	}
	summaries, err := s.annotate(ctx, stories)
	if err != nil {
		return nil, err
	}
	return &ListPage{List: list, Stories: summaries}, nil
}

// SagaStory pairs a saga entry with its annotated story.
type SagaStory struct {
	Entry *domain.SagaEntry
	StorySummary
}

// SagaPage is a saga with its stories in reading order.
type SagaPage struct {
	Saga      *domain.Saga
	Stories   []SagaStory
	CodeAbbrs string // distinct codes across the whole saga
}

// SagaPage builds the view for a saga id.
func (s *PageService) SagaPage(ctx context.Context, sagaID string) (*SagaPage, error) {
	saga, err := s.store.GetSaga(ctx, sagaID)
	if err != nil {
		return nil, mapStoreErr(err, "saga")
	}
	entries, err := s.store.SagaEntries(ctx, sagaID)
	if err != nil {
		return nil, fmt.Errorf("saga entries: %w", err)
	}

	storyIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		storyIDs = append(storyIDs, e.StoryID)
	}

	// One batch fetch. Removed members are absent from the map and drop
	// out of the page entirely, codes and annotations included.
	stories, err := s.store.StoriesByIDs(ctx, storyIDs)
	if err != nil {
		return nil, fmt.Errorf("saga stories: %w", err)
	}

	listedIDs := make([]string, 0, len(stories))
	summaries := make(map[string]StorySummary, len(stories))
	for _, e := range entries {
		if story, ok := stories[e.StoryID]; ok {
			listedIDs = append(listedIDs, e.StoryID)
			summaries[e.StoryID] = StorySummary{Story: story}
		}
	}

	page := &SagaPage{Saga: saga}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		abbrs, err := s.store.DistinctCodeAbbrs(gctx, listedIDs)
		if err != nil {
			return fmt.Errorf("saga codes: %w", err)
		}
		page.CodeAbbrs = abbrs
		return nil
	})
	g.Go(func() error {
		return s.fillAnnotations(gctx, listedIDs, summaries)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, e := range entries {
		summary, ok := summaries[e.StoryID]
		if !ok {
			continue
		}
		page.Stories = append(page.Stories, SagaStory{Entry: e, StorySummary: summary})
	}
	return page, nil
}

// SagaPlacement reports a story's position in a saga with its neighbors.
func (s *PageService) SagaPlacement(ctx context.Context, sagaID, storyID string) (*store.SagaPlacement, error) {
	placement, err := s.store.SagaPlacement(ctx, sagaID, storyID)
	if err != nil {
		return nil, mapStoreErr(err, "saga entry")
	}
	return placement, nil
}

// WhatsNew reports the two most recent update days with their stories.
func (s *PageService) WhatsNew(ctx context.Context) ([]store.UpdateDay, error) {
	days, err := s.store.LatestUpdateDays(ctx, 2)
	if err != nil {
		return nil, fmt.Errorf("latest update days: %w", err)
	}
	return days, nil
}

// WhatWasNew reports a year's publish events bucketed by ISO week, newest
// week first. A year with no events resolves as not found.
func (s *PageService) WhatWasNew(ctx context.Context, year int) ([]store.WeekBucket, error) {
	weeks, err := s.store.WhatWasNew(ctx, year)
	if err != nil {
		return nil, mapStoreErr(err, "year")
	}
	return weeks, nil
}

// annotate wraps stories in summaries and fills their aggregates.
func (s *PageService) annotate(ctx context.Context, stories []*domain.Story) ([]StorySummary, error) {
	if len(stories) == 0 {
		return nil, nil
	}

	storyIDs := make([]string, 0, len(stories))
	summaries := make(map[string]StorySummary, len(stories))
	for _, story := range stories {
		storyIDs = append(storyIDs, story.ID)
		summaries[story.ID] = StorySummary{Story: story}
	}

	if err := s.fillAnnotations(ctx, storyIDs, summaries); err != nil {
		return nil, err
	}

	out := make([]StorySummary, 0, len(stories))
	for _, story := range stories {
		out = append(out, summaries[story.ID])
	}
	return out, nil
}

// fillAnnotations runs the batch aggregates for a story id set concurrently
// and merges them into the summary map.
func (s *PageService) fillAnnotations(ctx context.Context, storyIDs []string, summaries map[string]StorySummary) error {
	if len(storyIDs) == 0 {
		return nil
	}

	var (
		authors map[string][]domain.AuthorRef
		codes   map[string]string
		stats   map[string]store.InstallmentStats
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m, err := s.store.AuthorsByStory(gctx, storyIDs)
		if err != nil {
			return fmt.Errorf("authors by story: %w", err)
		}
		authors = m
		return nil
	})
	g.Go(func() error {
		m, err := s.store.CodeAbbrsByStory(gctx, storyIDs)
		if err != nil {
			return fmt.Errorf("codes by story: %w", err)
		}
		codes = m
		return nil
	})
	g.Go(func() error {
		m, err := s.store.InstallmentStatsByStory(gctx, storyIDs)
		if err != nil {
			return fmt.Errorf("installment stats: %w", err)
		}
		stats = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for id, summary := range summaries {
		summary.Authors = authors[id]
		summary.CodeAbbrs = codes[id]
		summary.Stats = stats[id]
		summaries[id] = summary
	}
	return nil
}
