package session

import (
	"context"

	"github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/uiprobe/internal/browser"
)

// Tab is the browsing context a single test runs in.
type Tab interface {
	Page() playwright.Page
	Close() error
}

// Browser hands out one Tab per test.
type Browser interface {
	NewTab(ctx context.Context, testID string) (Tab, error)
	Shutdown(ctx context.Context) error
}

type managerBrowser struct {
	m *browser.Manager
}

// FromManager adapts a browser manager.
func FromManager(m *browser.Manager) Browser {
	return managerBrowser{m: m}
}

func (b managerBrowser) NewTab(ctx context.Context, testID string) (Tab, error) {
	s, err := b.m.NewSession(ctx, testID)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (b managerBrowser) Shutdown(ctx context.Context) error {
	return b.m.Shutdown(ctx)
}
