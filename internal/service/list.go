package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/storykeep/storykeep-server/internal/color"
	"github.com/storykeep/storykeep-server/internal/domain"
	domainerrors "github.com/storykeep/storykeep-server/internal/errors"
	"github.com/storykeep/storykeep-server/internal/id"
	"github.com/storykeep/storykeep-server/internal/store/sqlite"
	"github.com/storykeep/storykeep-server/internal/validation"
)

// ListService manages reader-owned reading lists. Every operation is
// scoped to the owning user; a list id under the wrong owner reads as
// not found.
type ListService struct {
	store     *sqlite.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewListService creates a new list service.
func NewListService(st *sqlite.Store, v *validation.Validator, logger *slog.Logger) *ListService {
	return &ListService{store: st, validator: v, logger: logger}
}

// ListInput carries the writable fields of a reading list.
type ListInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Color    string `json:"color" validate:"omitempty,csscolor"`
	Priority int    `json:"priority"`
	AutoSort bool   `json:"auto_sort"`
}

// CreateList creates a list for the owner. Names are unique per owner.
// An empty color gets a deterministic badge color derived from the owner
// and name.
func (s *ListService) CreateList(ctx context.Context, ownerID string, input ListInput) (*domain.List, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ownerID == "" {
		return nil, domainerrors.FieldError("owner_id", "owner is required")
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}
	if input.Color == "" {
		input.Color = color.ForBadge(ownerID, input.Name)
	}

	listID, err := id.Generate("list")
	if err != nil {
		return nil, fmt.Errorf("generate list id: %w", err)
	}

	list := &domain.List{
		OwnerID:  ownerID,
		Name:     input.Name,
		Color:    input.Color,
		Priority: input.Priority,
		AutoSort: input.AutoSort,
	}
	list.ID = listID
	list.InitTimestamps()

	if err := s.store.CreateList(ctx, list); err != nil {
		if isAlreadyExists(err) {
			return nil, domainerrors.Conflictf("a list named %q already exists", input.Name)
		}
		return nil, fmt.Errorf("create list: %w", err)
	}

	s.logger.Info("list created", "list_id", listID, "owner_id", ownerID, "name", input.Name)
	return list, nil
}

// UpdateList applies new field values to an owner's list.
func (s *ListService) UpdateList(ctx context.Context, ownerID, listID string, input ListInput) (*domain.List, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}
	if input.Color == "" {
		input.Color = color.ForBadge(ownerID, input.Name)
	}

	list, err := s.store.GetList(ctx, ownerID, listID)
	if err != nil {
		return nil, mapStoreErr(err, "list")
	}

	list.Name = input.Name
	list.Color = input.Color
	list.Priority = input.Priority
	list.AutoSort = input.AutoSort
	list.Touch()

	if err := s.store.UpdateList(ctx, list); err != nil {
		if isAlreadyExists(err) {
			return nil, domainerrors.Conflictf("a list named %q already exists", input.Name)
		}
		return nil, mapStoreErr(err, "list")
	}
	return list, nil
}

// DeleteList removes an owner's list and its entries.
func (s *ListService) DeleteList(ctx context.Context, ownerID, listID string) error {
	if err := s.store.DeleteList(ctx, ownerID, listID); err != nil {
		return mapStoreErr(err, "list")
	}
	s.logger.Info("list deleted", "list_id", listID, "owner_id", ownerID)
	return nil
}

// ListsByOwner returns the owner's lists, highest priority first.
func (s *ListService) ListsByOwner(ctx context.Context, ownerID string) ([]*domain.List, error) {
	return s.store.ListsByOwner(ctx, ownerID)
}

// ToggleStory flips a story's membership in an owner's list and reports
// the resulting state: true when the story is now on the list.
func (s *ListService) ToggleStory(ctx context.Context, ownerID, listID, storyID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := s.store.GetList(ctx, ownerID, listID); err != nil {
		return false, mapStoreErr(err, "list")
	}
	if _, err := s.store.GetStory(ctx, storyID); err != nil {
		return false, mapStoreErr(err, "story")
	}

	on, err := s.store.ToggleListEntry(ctx, listID, storyID)
	if err != nil {
		return false, fmt.Errorf("toggle list entry: %w", err)
	}

	s.logger.Info("list membership toggled",
		"list_id", listID, "story_id", storyID, "on", on)
	return on, nil
}
