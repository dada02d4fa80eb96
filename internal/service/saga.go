package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storykeep/storykeep-server/internal/domain"
	domainerrors "github.com/storykeep/storykeep-server/internal/errors"
	"github.com/storykeep/storykeep-server/internal/id"
	"github.com/storykeep/storykeep-server/internal/normalize"
	"github.com/storykeep/storykeep-server/internal/store/sqlite"
)

// sagaIDAttempts bounds the short-id regeneration loop on create.
const sagaIDAttempts = 5

// SagaService manages sagas and their ordered story entries.
type SagaService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewSagaService creates a new saga service.
func NewSagaService(st *sqlite.Store, logger *slog.Logger) *SagaService {
	return &SagaService{store: st, logger: logger}
}

// CreateSaga creates a saga under a fresh 8-character short id. The sort
// name is derived from the name when left empty. An id collision triggers
// regeneration, bounded at five attempts.
func (s *SagaService) CreateSaga(ctx context.Context, name, sortName, synopsis string) (*domain.Saga, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.FieldError("name", "name is required")
	}
	if sortName == "" {
		sortName = normalize.SortKey(name)
	}

	for attempt := 0; attempt < sagaIDAttempts; attempt++ {
		sagaID, err := id.Short()
		if err != nil {
			return nil, fmt.Errorf("generate saga id: %w", err)
		}

		now := time.Now().UTC()
		saga := &domain.Saga{
			ID:        sagaID,
			Name:      name,
			SortName:  sortName,
			Synopsis:  synopsis,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err = s.store.CreateSaga(ctx, saga)
		if err == nil {
			s.logger.Info("saga created", "saga_id", sagaID, "name", name)
			return saga, nil
		}
		if !isAlreadyExists(err) {
			return nil, fmt.Errorf("create saga: %w", err)
		}
		s.logger.Warn("saga id collision, regenerating", "saga_id", sagaID, "attempt", attempt+1)
	}

	return nil, domainerrors.Exhausted("could not mint a unique saga id")
}

// UpdateSaga applies new field values to an existing saga.
func (s *SagaService) UpdateSaga(ctx context.Context, sagaID, name, sortName, synopsis string) (*domain.Saga, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	saga, err := s.store.GetSaga(ctx, sagaID)
	if err != nil {
		return nil, mapStoreErr(err, "saga")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.FieldError("name", "name is required")
	}
	if sortName == "" {
		sortName = normalize.SortKey(name)
	}

	saga.Name = name
	saga.SortName = sortName
	saga.Synopsis = synopsis
	saga.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateSaga(ctx, saga); err != nil {
		return nil, mapStoreErr(err, "saga")
	}
	return saga, nil
}

// DeleteSaga removes a saga and its entries.
func (s *SagaService) DeleteSaga(ctx context.Context, sagaID string) error {
	if err := s.store.DeleteSaga(ctx, sagaID); err != nil {
		return mapStoreErr(err, "saga")
	}
	s.logger.Info("saga deleted", "saga_id", sagaID)
	return nil
}

// AddStory appends a story to the end of a saga's reading order.
func (s *SagaService) AddStory(ctx context.Context, sagaID, storyID string) (*domain.SagaEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := s.store.GetSaga(ctx, sagaID); err != nil {
		return nil, mapStoreErr(err, "saga")
	}
	if _, err := s.store.GetStory(ctx, storyID); err != nil {
		return nil, mapStoreErr(err, "story")
	}

	max, err := s.store.MaxSagaPosition(ctx, sagaID)
	if err != nil {
		return nil, fmt.Errorf("max saga position: %w", err)
	}

	entry := &domain.SagaEntry{
		ID:      uuid.New().String(),
		SagaID:  sagaID,
		StoryID: storyID,
		Order:   max + 1,
	}
	if err := s.store.AddSagaEntry(ctx, entry); err != nil {
		if isAlreadyExists(err) {
			return nil, domainerrors.Conflict("story is already in this saga")
		}
		return nil, fmt.Errorf("add saga entry: %w", err)
	}

	s.logger.Info("story added to saga", "saga_id", sagaID, "story_id", storyID, "order", entry.Order)
	return entry, nil
}

// RemoveStory drops a story from a saga and closes the gap in the order.
func (s *SagaService) RemoveStory(ctx context.Context, sagaID, storyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.store.RemoveSagaEntry(ctx, sagaID, storyID); err != nil {
		return mapStoreErr(err, "saga entry")
	}
	if err := s.store.RenumberSaga(ctx, sagaID); err != nil {
		return fmt.Errorf("renumber saga: %w", err)
	}

	s.logger.Info("story removed from saga", "saga_id", sagaID, "story_id", storyID)
	return nil
}

// ListSagas returns every saga in sort-name order.
func (s *SagaService) ListSagas(ctx context.Context) ([]*domain.Saga, error) {
	return s.store.ListSagas(ctx)
}
