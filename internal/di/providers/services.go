package providers

import (
	"github.com/samber/do/v2"

	"github.com/storykeep/storykeep-server/internal/config"
	"github.com/storykeep/storykeep-server/internal/logger"
	"github.com/storykeep/storykeep-server/internal/service"
	"github.com/storykeep/storykeep-server/internal/storage"
	"github.com/storykeep/storykeep-server/internal/validation"
)

// ProvideAuthorService provides the author service.
func ProvideAuthorService(i do.Injector) (*service.AuthorService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	store := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthorService(store.Store, log.Logger, cfg.Catalog.AuthorSep), nil
}

// ProvideStoryService provides the story service.
func ProvideStoryService(i do.Injector) (*service.StoryService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	authors := do.MustInvoke[*service.AuthorService](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStoryService(store.Store, authors, v, log.Logger), nil
}

// ProvideInstallmentService provides the installment service.
func ProvideInstallmentService(i do.Injector) (*service.InstallmentService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	content := do.MustInvoke[storage.Provider](i)
	authors := do.MustInvoke[*service.AuthorService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewInstallmentService(store.Store, content, authors, log.Logger), nil
}

// ProvideTaxonomyService provides the code/slant/source service.
func ProvideTaxonomyService(i do.Injector) (*service.TaxonomyService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTaxonomyService(store.Store, v, log.Logger), nil
}

// ProvideListService provides the reading list service.
func ProvideListService(i do.Injector) (*service.ListService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewListService(store.Store, v, log.Logger), nil
}

// ProvideSagaService provides the saga service.
func ProvideSagaService(i do.Injector) (*service.SagaService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSagaService(store.Store, log.Logger), nil
}

// ProvideThemeService provides the theme service.
func ProvideThemeService(i do.Injector) (*service.ThemeService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewThemeService(store.Store, log.Logger), nil
}

// ProvidePageService provides the read-path page service.
func ProvidePageService(i do.Injector) (*service.PageService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPageService(store.Store, log.Logger), nil
}
