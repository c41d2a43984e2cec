package browser

import (
	"sync"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Session is one isolated browsing context with its page, owned by a single test.
type Session struct {
	id      string
	context playwright.BrowserContext
	page    playwright.Page
	logger  *zap.Logger

	closeOnce sync.Once
	closeErr  error
	onClose   func()
}

// ID returns the identifier of the test that owns the session.
func (s *Session) ID() string { return s.id }

// Page returns the page of the session.
func (s *Session) Page() playwright.Page { return s.page }

// Close closes the browsing context. Later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if err := s.context.Close(); err != nil {
			s.logger.Warn("Failed to close browser context.", zap.Error(err))
			s.closeErr = err
		}
		if s.onClose != nil {
			s.onClose()
		}
	})
	return s.closeErr
}
