package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/storykeep/storykeep-server/internal/domain"
	domainerrors "github.com/storykeep/storykeep-server/internal/errors"
	"github.com/storykeep/storykeep-server/internal/id"
	"github.com/storykeep/storykeep-server/internal/store/sqlite"
)

// ThemeService manages site themes. At most one theme is active.
type ThemeService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewThemeService creates a new theme service.
func NewThemeService(st *sqlite.Store, logger *slog.Logger) *ThemeService {
	return &ThemeService{store: st, logger: logger}
}

// CreateTheme registers a new theme. New themes start inactive.
func (s *ThemeService) CreateTheme(ctx context.Context, name, css string) (*domain.Theme, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.FieldError("name", "name is required")
	}

	themeID, err := id.Generate("theme")
	if err != nil {
		return nil, fmt.Errorf("generate theme id: %w", err)
	}

	theme := &domain.Theme{Name: name, CSS: css}
	theme.ID = themeID
	theme.InitTimestamps()

	if err := s.store.CreateTheme(ctx, theme); err != nil {
		if isAlreadyExists(err) {
			return nil, domainerrors.Conflictf("a theme named %q already exists", name)
		}
		return nil, fmt.Errorf("create theme: %w", err)
	}

	s.logger.Info("theme created", "theme_id", themeID, "name", name)
	return theme, nil
}

// UpdateTheme applies a new name and CSS payload. The active flag is not
// touched here; use Activate.
func (s *ThemeService) UpdateTheme(ctx context.Context, themeID, name, css string) (*domain.Theme, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.FieldError("name", "name is required")
	}

	theme, err := s.store.GetTheme(ctx, themeID)
	if err != nil {
		return nil, mapStoreErr(err, "theme")
	}

	theme.Name = name
	theme.CSS = css
	theme.Touch()

	if err := s.store.UpdateTheme(ctx, theme); err != nil {
		if isAlreadyExists(err) {
			return nil, domainerrors.Conflictf("a theme named %q already exists", name)
		}
		return nil, mapStoreErr(err, "theme")
	}
	return theme, nil
}

// Activate makes the theme the single active one, deactivating every
// other theme in the same transaction.
func (s *ThemeService) Activate(ctx context.Context, themeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.store.ActivateTheme(ctx, themeID); err != nil {
		return mapStoreErr(err, "theme")
	}

	s.logger.Info("theme activated", "theme_id", themeID)
	return nil
}

// Active returns the currently active theme, or a not-found error when no
// theme is active.
func (s *ThemeService) Active(ctx context.Context) (*domain.Theme, error) {
	theme, err := s.store.ActiveTheme(ctx)
	if err != nil {
		return nil, mapStoreErr(err, "active theme")
	}
	return theme, nil
}

// ListThemes returns every theme in name order.
func (s *ThemeService) ListThemes(ctx context.Context) ([]*domain.Theme, error) {
	return s.store.ListThemes(ctx)
}
