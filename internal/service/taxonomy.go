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
	"github.com/storykeep/storykeep-server/internal/store/sqlite"
	"github.com/storykeep/storykeep-server/internal/validation"
)

// TaxonomyService manages codes, slants, and sources.
type TaxonomyService struct {
	store     *sqlite.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTaxonomyService creates a new taxonomy service.
func NewTaxonomyService(st *sqlite.Store, v *validation.Validator, logger *slog.Logger) *TaxonomyService {
	return &TaxonomyService{store: st, validator: v, logger: logger}
}

// CodeInput carries the writable fields of a code.
type CodeInput struct {
	Abbr string `json:"abbr" validate:"required,min=1,max=4"`
	Name string `json:"name" validate:"max=100"`
}

// CreateCode registers a new classification code.
func (s *TaxonomyService) CreateCode(ctx context.Context, input CodeInput) (*domain.Code, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	input.Abbr = strings.ToLower(strings.TrimSpace(input.Abbr))
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	code := &domain.Code{
		Abbr:      input.Abbr,
		Name:      input.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateCode(ctx, code); err != nil {
		return nil, mapStoreErr(err, "code")
	}

	s.logger.Info("code created", "abbr", code.Abbr)
	return code, nil
}

// DeleteCode removes a code and its story links.
func (s *TaxonomyService) DeleteCode(ctx context.Context, abbr string) error {
	if err := s.store.DeleteCode(ctx, abbr); err != nil {
		return mapStoreErr(err, "code")
	}
	s.logger.Info("code deleted", "abbr", abbr)
	return nil
}

// ListCodes returns every code in abbreviation order.
func (s *TaxonomyService) ListCodes(ctx context.Context) ([]*domain.Code, error) {
	return s.store.ListCodes(ctx)
}

// SlantInput carries the writable fields of a slant.
type SlantInput struct {
	Name         string `json:"name" validate:"required,max=100"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
	CodeAbbr     string `json:"code_abbr" validate:"max=4"`
}

// CreateSlant registers a new editorial slant. A non-empty affinity code
// must already exist.
func (s *TaxonomyService) CreateSlant(ctx context.Context, input SlantInput) (*domain.Slant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}
	if input.CodeAbbr != "" {
		if _, err := s.store.GetCode(ctx, input.CodeAbbr); err != nil {
			if isNotFound(err) {
				return nil, domainerrors.FieldError("code_abbr", fmt.Sprintf("unknown code %q", input.CodeAbbr))
			}
			return nil, fmt.Errorf("check code: %w", err)
		}
	}

	slantID, err := id.Generate("slant")
	if err != nil {
		return nil, fmt.Errorf("generate slant id: %w", err)
	}

	slant := &domain.Slant{
		Name:         input.Name,
		DisplayOrder: input.DisplayOrder,
		CodeAbbr:     input.CodeAbbr,
	}
	slant.ID = slantID
	slant.InitTimestamps()

	if err := s.store.CreateSlant(ctx, slant); err != nil {
		return nil, mapStoreErr(err, "slant")
	}

	s.logger.Info("slant created", "slant_id", slantID, "name", slant.Name)
	return slant, nil
}

// UpdateSlant applies new field values to an existing slant.
func (s *TaxonomyService) UpdateSlant(ctx context.Context, slantID string, input SlantInput) (*domain.Slant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	slant, err := s.store.GetSlant(ctx, slantID)
	if err != nil {
		return nil, mapStoreErr(err, "slant")
	}

	slant.Name = input.Name
	slant.DisplayOrder = input.DisplayOrder
	slant.CodeAbbr = input.CodeAbbr
	slant.Touch()

	if err := s.store.UpdateSlant(ctx, slant); err != nil {
		return nil, mapStoreErr(err, "slant")
	}
	return slant, nil
}

// ListSlants returns every slant in display order.
func (s *TaxonomyService) ListSlants(ctx context.Context) ([]*domain.Slant, error) {
	return s.store.ListSlants(ctx)
}

// SourceInput carries the writable fields of a source.
type SourceInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Abbr    string `json:"abbr" validate:"max=20"`
	Website string `json:"website" validate:"omitempty,url"`
}

// CreateSource registers an external archive.
func (s *TaxonomyService) CreateSource(ctx context.Context, input SourceInput) (*domain.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	sourceID, err := id.Generate("src")
	if err != nil {
		return nil, fmt.Errorf("generate source id: %w", err)
	}

	source := &domain.Source{
		Name:    input.Name,
		Abbr:    input.Abbr,
		Website: input.Website,
	}
	source.ID = sourceID
	source.InitTimestamps()

	if err := s.store.CreateSource(ctx, source); err != nil {
		return nil, mapStoreErr(err, "source")
	}

	s.logger.Info("source created", "source_id", sourceID, "name", source.Name)
	return source, nil
}

// UpdateSource applies new field values to an existing source.
func (s *TaxonomyService) UpdateSource(ctx context.Context, sourceID string, input SourceInput) (*domain.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	source, err := s.store.GetSource(ctx, sourceID)
	if err != nil {
		return nil, mapStoreErr(err, "source")
	}

	source.Name = input.Name
	source.Abbr = input.Abbr
	source.Website = input.Website
	source.Touch()

	if err := s.store.UpdateSource(ctx, source); err != nil {
		return nil, mapStoreErr(err, "source")
	}
	return source, nil
}

// ListSources returns every source in name order.
func (s *TaxonomyService) ListSources(ctx context.Context) ([]*domain.Source, error) {
	return s.store.ListSources(ctx)
}
