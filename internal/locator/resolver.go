package locator

import (
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Finder is the part of playwright.Page the resolver needs.
type Finder interface {
	Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator
	GetByTestId(testId interface{}) playwright.Locator
	GetByRole(role playwright.AriaRole, options ...playwright.PageGetByRoleOptions) playwright.Locator
	GetByText(text interface{}, options ...playwright.PageGetByTextOptions) playwright.Locator
	GetByLabel(text interface{}, options ...playwright.PageGetByLabelOptions) playwright.Locator
	GetByTitle(text interface{}, options ...playwright.PageGetByTitleOptions) playwright.Locator
	GetByAltText(text interface{}, options ...playwright.PageGetByAltTextOptions) playwright.Locator
	GetByPlaceholder(text interface{}, options ...playwright.PageGetByPlaceholderOptions) playwright.Locator
}

// Resolver turns element keys into locators on one page. It never caches:
// every call re-resolves against the live page.
type Resolver struct {
	finder   Finder
	registry *Registry
	logger   *zap.Logger
}

// NewResolver binds a registry to a page.
func NewResolver(finder Finder, registry *Registry, logger *zap.Logger) *Resolver {
	return &Resolver{
		finder:   finder,
		registry: registry,
		logger:   logger.Named("locator").With(zap.String("page", registry.Page())),
	}
}

// Registry returns the element map the resolver reads.
func (r *Resolver) Registry() *Registry { return r.registry }

// Resolve looks up key and builds its locator.
func (r *Resolver) Resolve(key string) (playwright.Locator, error) {
	d, err := r.registry.Lookup(key)
	if err != nil {
		return nil, err
	}
	return r.Build(key, d)
}

// Build validates d and dispatches on its strategy.
func (r *Resolver) Build(key string, d Descriptor) (playwright.Locator, error) {
	if err := d.Validate(key); err != nil {
		return nil, err
	}

	switch d.Strategy {
	case StrategyTestID:
		return r.finder.GetByTestId(d.Value), nil
	case StrategyRole:
		return r.finder.GetByRole(playwright.AriaRole(d.Role), playwright.PageGetByRoleOptions{Name: d.Value}), nil
	case StrategyText:
		return r.finder.GetByText(d.Value), nil
	case StrategyLabel:
		return r.finder.GetByLabel(d.Value), nil
	case StrategyTitle:
		return r.finder.GetByTitle(d.Value), nil
	case StrategyAlt:
		return r.finder.GetByAltText(d.Value), nil
	case StrategyPlaceholder:
		return r.finder.GetByPlaceholder(d.Value), nil
	case StrategyCSS:
		return r.finder.Locator(d.Value), nil
	default:
		r.logger.Debug("Unsupported locator type, using raw selector",
			zap.String("key", key), zap.String("type", string(d.Strategy)))
		return r.finder.Locator(d.Value), nil
	}
}
