package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/storykeep/storykeep-server/internal/domain"
	domainerrors "github.com/storykeep/storykeep-server/internal/errors"
	"github.com/storykeep/storykeep-server/internal/id"
	"github.com/storykeep/storykeep-server/internal/normalize"
	"github.com/storykeep/storykeep-server/internal/storage"
	"github.com/storykeep/storykeep-server/internal/store/sqlite"
)

// InstallmentService manages installment revisions and their body files.
type InstallmentService struct {
	store   *sqlite.Store
	content storage.Provider
	authors *AuthorService
	logger  *slog.Logger
}

// NewInstallmentService creates a new installment service.
func NewInstallmentService(st *sqlite.Store, content storage.Provider, authors *AuthorService, logger *slog.Logger) *InstallmentService {
	return &InstallmentService{store: st, content: content, authors: authors, logger: logger}
}

// PublishInput carries everything needed to publish one installment revision.
type PublishInput struct {
	StoryID    string
	Ordinal    int
	Title      string
	Published  time.Time
	Body       []byte
	LengthUnit domain.LengthUnit
	Authors    []string // per-installment credits, display names
}

// Publish records a new current revision for (story, ordinal) on the given
// date and stores its body. The revision's file path is derived from the
// story slug, and body writes are checksum-gated: when the content matches
// the prior current revision, no storage write happens. Prior current rows
// for the ordinal are superseded in the same transaction as the insert.
func (s *InstallmentService) Publish(ctx context.Context, input PublishInput) (*domain.Installment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input.Ordinal < 1 {
		return nil, domainerrors.FieldError("ordinal", "must be at least 1")
	}
	if len(input.Body) == 0 {
		return nil, domainerrors.FieldError("body", "body is required")
	}
	unit := input.LengthUnit
	if unit == "" {
		unit = domain.UnitWords
	}
	if !unit.IsValid() {
		return nil, domainerrors.FieldError("length_unit", "must be words or chars")
	}

	story, err := s.store.GetStory(ctx, input.StoryID)
	if err != nil {
		return nil, mapStoreErr(err, "story")
	}

	checksum := normalize.ChecksumBytes(input.Body)
	path := normalize.InstallmentPath(story.Slug, input.Ordinal, input.Published)

	unchanged := false
	if prior, err := s.store.CurrentInstallment(ctx, input.StoryID, input.Ordinal); err == nil {
		if prior.Checksum == checksum {
			// Same content as the standing revision: keep pointing at its
			// body file instead of writing an identical copy.
			unchanged = true
			path = prior.FilePath
		}
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("lookup current installment: %w", err)
	}

	instID, err := id.Generate("inst")
	if err != nil {
		return nil, fmt.Errorf("generate installment id: %w", err)
	}

	inst := &domain.Installment{
		StoryID:    input.StoryID,
		Ordinal:    input.Ordinal,
		IsCurrent:  true,
		Title:      input.Title,
		Published:  input.Published,
		Length:     bodyLength(input.Body, unit),
		LengthUnit: unit,
		FilePath:   path,
		Checksum:   checksum,
	}
	inst.ID = instID
	inst.InitTimestamps()

	if err := s.store.CreateInstallment(ctx, inst); err != nil {
		if isAlreadyExists(err) {
			return nil, domainerrors.Conflictf(
				"installment %d of %s already has a revision dated %s",
				input.Ordinal, story.Slug, input.Published.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("create installment: %w", err)
	}

	if unchanged {
		s.logger.Debug("installment body unchanged, skipping write",
			"story", story.Slug, "ordinal", input.Ordinal)
	} else {
		if err := s.content.Write(path, input.Body); err != nil {
			return nil, fmt.Errorf("write installment body: %w", err)
		}
	}

	if input.Authors != nil {
		if err := s.setAuthors(ctx, inst, input.Authors); err != nil {
			return nil, err
		}
	}

	s.logger.Info("installment published",
		"story", story.Slug,
		"ordinal", input.Ordinal,
		"published", input.Published.Format("2006-01-02"),
		"length", inst.Length)
	return inst, nil
}

// RegisterMissing records a current revision with no body for an ordinal
// that is known to exist but whose content has not been recovered.
func (s *InstallmentService) RegisterMissing(ctx context.Context, storyID string, ordinal int, published time.Time) (*domain.Installment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ordinal < 1 {
		return nil, domainerrors.FieldError("ordinal", "must be at least 1")
	}

	if _, err := s.store.GetStory(ctx, storyID); err != nil {
		return nil, mapStoreErr(err, "story")
	}

	instID, err := id.Generate("inst")
	if err != nil {
		return nil, fmt.Errorf("generate installment id: %w", err)
	}

	inst := &domain.Installment{
		StoryID:   storyID,
		Ordinal:   ordinal,
		IsCurrent: true,
		Published: published,
	}
	inst.ID = instID
	inst.InitTimestamps()

	if err := s.store.CreateInstallment(ctx, inst); err != nil {
		return nil, mapStoreErr(err, "installment")
	}

	s.logger.Info("missing installment registered", "story_id", storyID, "ordinal", ordinal)
	return inst, nil
}

// Body reads the stored body of an installment revision. A revision with
// an empty checksum has no body and reads as not found.
func (s *InstallmentService) Body(ctx context.Context, installmentID string) ([]byte, error) {
	inst, err := s.store.GetInstallment(ctx, installmentID)
	if err != nil {
		return nil, mapStoreErr(err, "installment")
	}
	if !inst.HasBody() {
		return nil, domainerrors.NotFound("installment has no stored body")
	}

	body, err := s.content.Read(inst.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, domainerrors.NotFound("installment body file is missing")
		}
		return nil, fmt.Errorf("read installment body: %w", err)
	}
	return body, nil
}

// Revisions lists every dated revision of one ordinal, oldest first.
func (s *InstallmentService) Revisions(ctx context.Context, storyID string, ordinal int) ([]*domain.Installment, error) {
	revs, err := s.store.InstallmentRevisions(ctx, storyID, ordinal)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	if len(revs) == 0 {
		return nil, domainerrors.NotFound("installment not found")
	}
	return revs, nil
}

// setAuthors resolves display names and replaces the revision's credits.
func (s *InstallmentService) setAuthors(ctx context.Context, inst *domain.Installment, names []string) error {
	authorIDs := make([]string, 0, len(names))
	refs := make([]domain.AuthorRef, 0, len(names))
	for _, name := range names {
		author, err := s.authors.EnsureAuthor(ctx, name)
		if err != nil {
			return err
		}
		authorIDs = append(authorIDs, author.ID)
		refs = append(refs, domain.AuthorRef{Name: author.Name, Slug: author.Slug})
	}
	if err := s.store.SetInstallmentAuthors(ctx, inst.ID, authorIDs); err != nil {
		return fmt.Errorf("set installment authors: %w", err)
	}
	inst.Authors = refs
	return nil
}

// bodyLength measures the body in the revision's declared unit.
func bodyLength(body []byte, unit domain.LengthUnit) int {
	if unit == domain.UnitChars {
		return utf8.RuneCount(body)
	}
	return len(strings.Fields(string(body)))
}
