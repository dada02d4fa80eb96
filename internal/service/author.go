// Package service implements the write-path invariants and read-path view
// composition on top of the catalog store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/storykeep/storykeep-server/internal/domain"
	domainerrors "github.com/storykeep/storykeep-server/internal/errors"
	"github.com/storykeep/storykeep-server/internal/id"
	"github.com/storykeep/storykeep-server/internal/normalize"
	"github.com/storykeep/storykeep-server/internal/store/sqlite"
)

// AuthorService manages author records and name parsing.
type AuthorService struct {
	store  *sqlite.Store
	logger *slog.Logger
	sep    string
}

// NewAuthorService creates a new author service. sep is the separator used
// by delimited author strings at import boundaries.
func NewAuthorService(st *sqlite.Store, logger *slog.Logger, sep string) *AuthorService {
	if sep == "" {
		sep = "|"
	}
	return &AuthorService{store: st, logger: logger, sep: sep}
}

// CreateAuthor creates a new author. The slug is derived from the name when
// left empty. A slug that matches an existing author's, ignoring case,
// rejects the save with a conflict naming that author.
func (s *AuthorService) CreateAuthor(ctx context.Context, name, slug string) (*domain.Author, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.FieldError("name", "name is required")
	}
	if slug == "" {
		slug = normalize.Slug(name)
	}
	if slug == "" {
		return nil, domainerrors.FieldError("name", "name yields an empty slug")
	}

	if existing, err := s.store.GetAuthorBySlug(ctx, slug); err == nil {
		return nil, domainerrors.Conflict(
			fmt.Sprintf("slug %q already belongs to author %q", existing.Slug, existing.Name))
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("check author slug: %w", err)
	}

	authorID, err := id.Generate("auth")
	if err != nil {
		return nil, fmt.Errorf("generate author id: %w", err)
	}

	author := &domain.Author{Name: name, Slug: slug}
	author.ID = authorID
	author.InitTimestamps()

	if err := s.store.CreateAuthor(ctx, author); err != nil {
		return nil, fmt.Errorf("create author: %w", err)
	}

	s.logger.Info("author created", "author_id", authorID, "slug", slug)
	return author, nil
}

// EnsureAuthor returns the author matching the name's slug, creating one
// when absent. An existing author with the same slug but a different name
// is a conflict, not a silent merge.
func (s *AuthorService) EnsureAuthor(ctx context.Context, name string) (*domain.Author, error) {
	name = strings.TrimSpace(name)
	slug := normalize.Slug(name)
	if slug == "" {
		return nil, domainerrors.FieldError("name", "name yields an empty slug")
	}

	existing, err := s.store.GetAuthorBySlug(ctx, slug)
	if err == nil {
		if !strings.EqualFold(existing.Name, name) {
			return nil, domainerrors.Conflict(
				fmt.Sprintf("slug %q already belongs to author %q", existing.Slug, existing.Name))
		}
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("lookup author: %w", err)
	}

	return s.CreateAuthor(ctx, name, slug)
}

// RenameAuthor updates an author's name and re-derives the slug.
func (s *AuthorService) RenameAuthor(ctx context.Context, authorID, name string) (*domain.Author, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.FieldError("name", "name is required")
	}

	author, err := s.store.GetAuthor(ctx, authorID)
	if err != nil {
		return nil, mapStoreErr(err, "author")
	}

	slug := normalize.Slug(name)
	if existing, err := s.store.GetAuthorBySlug(ctx, slug); err == nil && existing.ID != authorID {
		return nil, domainerrors.Conflict(
			fmt.Sprintf("slug %q already belongs to author %q", existing.Slug, existing.Name))
	} else if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("check author slug: %w", err)
	}

	author.Name = name
	author.Slug = slug
	author.Touch()

	if err := s.store.UpdateAuthor(ctx, author); err != nil {
		return nil, fmt.Errorf("update author: %w", err)
	}

	s.logger.Info("author renamed", "author_id", authorID, "slug", slug)
	return author, nil
}

// ParseAuthors turns a delimited author string ("Name|Other Name") into
// name+slug refs, trimmed, de-duplicated ignoring case, and sorted
// case-insensitively by name. Empty segments are dropped.
func (s *AuthorService) ParseAuthors(raw string) []domain.AuthorRef {
	seen := make(map[string]bool)
	var refs []domain.AuthorRef

	for _, part := range strings.Split(raw, s.sep) {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		refs = append(refs, domain.AuthorRef{
			Name: name,
			Slug: normalize.Slug(name),
		})
	}

	sort.Slice(refs, func(i, j int) bool {
		return strings.ToLower(refs[i].Name) < strings.ToLower(refs[j].Name)
	})
	return refs
}
