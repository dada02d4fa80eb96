package service

import (
	"errors"

	domainerrors "github.com/storykeep/storykeep-server/internal/errors"
	"github.com/storykeep/storykeep-server/internal/store"
)

// isNotFound reports whether err is the store's not-found sentinel.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// isAlreadyExists reports whether err is the store's duplicate sentinel.
func isAlreadyExists(err error) bool {
	return errors.Is(err, store.ErrAlreadyExists)
}

// mapStoreErr converts store sentinels into coded domain errors so callers
// never depend on the store package directly.
func mapStoreErr(err error, what string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(what + " not found")
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExists(what + " already exists")
	case errors.Is(err, store.ErrConflict):
		return domainerrors.Conflict(what + " conflicts with existing data")
	default:
		return err
	}
}
