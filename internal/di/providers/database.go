package providers

import (
	"github.com/samber/do/v2"

	"github.com/storykeep/storykeep-server/internal/config"
	"github.com/storykeep/storykeep-server/internal/logger"
	"github.com/storykeep/storykeep-server/internal/store/sqlite"
)

// StoreHandle wraps the store for lifecycle management.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Store.Close()
}

// ProvideStore opens the catalog database.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := sqlite.Open(cfg.Catalog.DatabasePath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Catalog database opened", "path", cfg.Catalog.DatabasePath)
	return &StoreHandle{Store: st}, nil
}
