package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/storykeep/storykeep-server/internal/domain"
	domainerrors "github.com/storykeep/storykeep-server/internal/errors"
	"github.com/storykeep/storykeep-server/internal/id"
	"github.com/storykeep/storykeep-server/internal/normalize"
	"github.com/storykeep/storykeep-server/internal/store"
	"github.com/storykeep/storykeep-server/internal/store/sqlite"
	"github.com/storykeep/storykeep-server/internal/validation"
)

// StoryService manages story records and their author/code credits.
type StoryService struct {
	store     *sqlite.Store
	authors   *AuthorService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewStoryService creates a new story service.
func NewStoryService(st *sqlite.Store, authors *AuthorService, v *validation.Validator, logger *slog.Logger) *StoryService {
	return &StoryService{store: st, authors: authors, validator: v, logger: logger}
}

// StoryInput carries the writable fields of a story.
type StoryInput struct {
	Title     string     `json:"title" validate:"required,max=500"`
	SortTitle string     `json:"sort_title" validate:"max=500"`
	Slug      string     `json:"slug" validate:"max=200"`
	Synopsis  string     `json:"synopsis"`
	SlantID   string     `json:"slant_id"`
	SourceID  string     `json:"source_id"`
	Published *time.Time `json:"published"`
	Updated   *time.Time `json:"updated"`
	Authors   []string   `json:"authors"` // author display names
	CodeAbbrs []string   `json:"code_abbrs"`
}

// CreateStory creates a story. The sort title and slug are derived from
// the title when left empty, and updated defaults to published.
func (s *StoryService) CreateStory(ctx context.Context, input StoryInput) (*domain.Story, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	story := &domain.Story{
		Title:     strings.TrimSpace(input.Title),
		SortTitle: input.SortTitle,
		Slug:      input.Slug,
		Synopsis:  input.Synopsis,
		SlantID:   input.SlantID,
		SourceID:  input.SourceID,
		Published: input.Published,
		Updated:   input.Updated,
	}
	if err := s.deriveStoryFields(ctx, story); err != nil {
		return nil, err
	}

	storyID, err := id.Generate("story")
	if err != nil {
		return nil, fmt.Errorf("generate story id: %w", err)
	}
	story.ID = storyID
	story.InitTimestamps()

	if err := s.store.CreateStory(ctx, story); err != nil {
		if isAlreadyExists(err) {
			return nil, domainerrors.Conflictf("slug %q is already in use", story.Slug)
		}
		return nil, fmt.Errorf("create story: %w", err)
	}

	if err := s.setCredits(ctx, story, input.Authors, input.CodeAbbrs); err != nil {
		return nil, err
	}

	s.logger.Info("story created", "story_id", storyID, "slug", story.Slug)
	return story, nil
}

// UpdateStory applies new field values to an existing story. Credits are
// replaced wholesale when the input lists authors or codes.
func (s *StoryService) UpdateStory(ctx context.Context, storyID string, input StoryInput) (*domain.Story, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	story, err := s.store.GetStory(ctx, storyID)
	if err != nil {
		return nil, mapStoreErr(err, "story")
	}

	story.Title = strings.TrimSpace(input.Title)
	story.SortTitle = input.SortTitle
	story.Slug = input.Slug
	story.Synopsis = input.Synopsis
	story.SlantID = input.SlantID
	story.SourceID = input.SourceID
	story.Published = input.Published
	story.Updated = input.Updated
	if err := s.deriveStoryFields(ctx, story); err != nil {
		return nil, err
	}
	story.Touch()

	if err := s.store.UpdateStory(ctx, story); err != nil {
		if isAlreadyExists(err) {
			return nil, domainerrors.Conflictf("slug %q is already in use", story.Slug)
		}
		return nil, mapStoreErr(err, "story")
	}

	if err := s.setCredits(ctx, story, input.Authors, input.CodeAbbrs); err != nil {
		return nil, err
	}

	s.logger.Info("story updated", "story_id", storyID, "slug", story.Slug)
	return story, nil
}

// RemoveStory soft-removes a story as of the given date. A removed story
// stays retrievable by id but vanishes from every public listing.
func (s *StoryService) RemoveStory(ctx context.Context, storyID string, date time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.store.RemoveStory(ctx, storyID, date); err != nil {
		return mapStoreErr(err, "story")
	}

	s.logger.Info("story removed", "story_id", storyID, "date", date.Format("2006-01-02"))
	return nil
}

// GetStory fetches a story by id, including removed ones.
func (s *StoryService) GetStory(ctx context.Context, storyID string) (*domain.Story, error) {
	story, err := s.store.GetStory(ctx, storyID)
	if err != nil {
		return nil, mapStoreErr(err, "story")
	}
	return story, nil
}

// ListStories returns a page of listed stories in sort-title order.
func (s *StoryService) ListStories(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Story], error) {
	result, err := s.store.ListStories(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return result, nil
}

// deriveStoryFields fills sort title and slug from the title when absent,
// defaults updated to published, and checks slant/source references.
func (s *StoryService) deriveStoryFields(ctx context.Context, story *domain.Story) error {
	if story.SortTitle == "" {
		story.SortTitle = normalize.SortKey(story.Title)
	}
	if story.Slug == "" {
		story.Slug = normalize.Slug(story.Title)
	}
	if story.Slug == "" {
		return domainerrors.FieldError("title", "title yields an empty slug")
	}
	if story.Updated == nil {
		story.Updated = story.Published
	}

	if story.SlantID != "" {
		if _, err := s.store.GetSlant(ctx, story.SlantID); err != nil {
			if isNotFound(err) {
				return domainerrors.FieldError("slant_id", "unknown slant")
			}
			return fmt.Errorf("check slant: %w", err)
		}
	}
	if story.SourceID != "" {
		if _, err := s.store.GetSource(ctx, story.SourceID); err != nil {
			if isNotFound(err) {
				return domainerrors.FieldError("source_id", "unknown source")
			}
			return fmt.Errorf("check source: %w", err)
		}
	}
	return nil
}

// setCredits replaces the story's author and code links, creating missing
// authors and rejecting unknown code abbreviations.
func (s *StoryService) setCredits(ctx context.Context, story *domain.Story, authorNames, codeAbbrs []string) error {
	if authorNames != nil {
		authorIDs := make([]string, 0, len(authorNames))
		refs := make([]domain.AuthorRef, 0, len(authorNames))
		for _, name := range authorNames {
			author, err := s.authors.EnsureAuthor(ctx, name)
			if err != nil {
				return err
			}
			authorIDs = append(authorIDs, author.ID)
			refs = append(refs, domain.AuthorRef{Name: author.Name, Slug: author.Slug})
		}
		if err := s.store.SetStoryAuthors(ctx, story.ID, authorIDs); err != nil {
			return fmt.Errorf("set story authors: %w", err)
		}
		story.Authors = refs
	}

	if codeAbbrs != nil {
		for _, abbr := range codeAbbrs {
			if _, err := s.store.GetCode(ctx, abbr); err != nil {
				if isNotFound(err) {
					return domainerrors.FieldError("code_abbrs", fmt.Sprintf("unknown code %q", abbr))
				}
				return fmt.Errorf("check code: %w", err)
			}
		}
		if err := s.store.SetStoryCodes(ctx, story.ID, codeAbbrs); err != nil {
			return fmt.Errorf("set story codes: %w", err)
		}
		story.CodeAbbrs = codeAbbrs
	}
	return nil
}
