// Package di provides dependency injection configuration for storykeep.
package di

import (
	"github.com/samber/do/v2"

	"github.com/storykeep/storykeep-server/internal/config"
	"github.com/storykeep/storykeep-server/internal/di/providers"
	"github.com/storykeep/storykeep-server/internal/logger"
	"github.com/storykeep/storykeep-server/internal/service"
	"github.com/storykeep/storykeep-server/internal/storage"
	"github.com/storykeep/storykeep-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Database and storage
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideContentStorage)

	// Business services
	do.Provide(injector, providers.ProvideAuthorService)
	do.Provide(injector, providers.ProvideStoryService)
	do.Provide(injector, providers.ProvideInstallmentService)
	do.Provide(injector, providers.ProvideTaxonomyService)
	do.Provide(injector, providers.ProvideListService)
	do.Provide(injector, providers.ProvideSagaService)
	do.Provide(injector, providers.ProvideThemeService)
	do.Provide(injector, providers.ProvidePageService)

	return injector
}

// Bootstrap triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[storage.Provider](injector)

	_ = do.MustInvoke[*service.AuthorService](injector)
	_ = do.MustInvoke[*service.StoryService](injector)
	_ = do.MustInvoke[*service.InstallmentService](injector)
	_ = do.MustInvoke[*service.TaxonomyService](injector)
	_ = do.MustInvoke[*service.ListService](injector)
	_ = do.MustInvoke[*service.SagaService](injector)
	_ = do.MustInvoke[*service.ThemeService](injector)
	_ = do.MustInvoke[*service.PageService](injector)

	return nil
}
