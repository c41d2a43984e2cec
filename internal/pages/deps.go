package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprobe/internal/locator"
)

// Deps carries what every page object is built from.
type Deps struct {
	Page        playwright.Page
	Expect      playwright.PlaywrightAssertions
	ElementsDir string
	Logger      *zap.Logger
	Options     Options
}

// compose loads the element file of pageName, checks that the keys the page
// object uses exist, and wires a resolver into a fresh action layer.
func (d Deps) compose(pageName string, keys ...string) (*Actions, error) {
	registry, err := locator.Load(d.ElementsDir, pageName)
	if err != nil {
		return nil, err
	}
	if err := registry.Require(keys...); err != nil {
		return nil, fmt.Errorf("%s element file is incomplete: %w", pageName, err)
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named(pageName)
	resolver := locator.NewResolver(d.Page, registry, logger)
	return NewActions(d.Page, resolver, d.Expect, logger, d.Options), nil
}
