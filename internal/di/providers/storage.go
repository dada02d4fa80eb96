package providers

import (
	"github.com/samber/do/v2"

	"github.com/storykeep/storykeep-server/internal/config"
	"github.com/storykeep/storykeep-server/internal/logger"
	"github.com/storykeep/storykeep-server/internal/storage"
)

// ProvideContentStorage provides the installment body store rooted at the
// configured content path.
func ProvideContentStorage(i do.Injector) (storage.Provider, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	fs, err := storage.NewFS(cfg.Catalog.ContentPath)
	if err != nil {
		return nil, err
	}

	log.Info("Content storage ready", "path", cfg.Catalog.ContentPath)
	return fs, nil
}
