// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/uiprobe/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// launchFunc starts a browser and returns it with the function that stops its driver.
type launchFunc func(ctx context.Context) (playwright.Browser, func() error, error)

// Manager handles the browser process lifecycle and per-test sessions using Playwright.
// One browser serves the whole run; every test gets its own browsing context.
type Manager struct {
	cfg    *config.Config
	name   string
	logger *zap.Logger
	launch launchFunc

	browser playwright.Browser
	stop    func() error

	sessions map[string]*Session
	mu       sync.Mutex

	// Initialization state management
	initOnce sync.Once
	initErr  error
}

// NewManager creates a new browser manager. The browser starts on the first session request.
// name identifies the run on cloud grids.
func NewManager(cfg *config.Config, name string, logger *zap.Logger) *Manager {
	m := &Manager{
		cfg:      cfg,
		name:     name,
		logger:   logger.Named("browser_manager"),
		sessions: make(map[string]*Session),
	}
	m.launch = m.launchPlaywright
	return m
}

// Start launches or connects the browser. It is safe to call more than once.
func (m *Manager) Start(ctx context.Context) error {
	m.initOnce.Do(func() {
		m.logger.Info("Initializing Playwright browser.",
			zap.String("provider", m.cfg.Cloud.Provider),
			zap.String("engine", m.cfg.Browser.Engine))

		b, stop, err := m.launch(ctx)
		if err != nil {
			m.initErr = err
			return
		}
		m.browser = b
		m.stop = stop
		m.logger.Info("Browser ready.", zap.String("browser_version", b.Version()))
	})
	return m.initErr
}

func (m *Manager) launchPlaywright(ctx context.Context) (playwright.Browser, func() error, error) {
	if m.cfg.Browser.Install && m.cfg.Cloud.Provider == config.CloudLocal {
		if err := Install(ctx, []string{m.cfg.Browser.Engine}, m.cfg.Browser.InstallTimeout, m.logger); err != nil {
			return nil, nil, err
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start playwright driver: %w", err)
	}

	var b playwright.Browser
	if m.cfg.Cloud.Provider == config.CloudLocal {
		b, err = m.launchLocal(pw)
	} else {
		b, err = m.connectGrid(pw)
	}
	if err != nil {
		// Clean up the driver if the browser never came up.
		if stopErr := pw.Stop(); stopErr != nil {
			m.logger.Warn("Failed to stop Playwright driver after launch failure.", zap.Error(stopErr))
		}
		return nil, nil, err
	}
	return b, pw.Stop, nil
}

func (m *Manager) launchLocal(pw *playwright.Playwright) (playwright.Browser, error) {
	var bt playwright.BrowserType
	switch m.cfg.Browser.Engine {
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	default:
		bt = pw.Chromium
	}
	b, err := bt.Launch(m.prepareLaunchOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", m.cfg.Browser.Engine, err)
	}
	return b, nil
}

func (m *Manager) prepareLaunchOptions() playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.cfg.Browser.Headless),
		Timeout:  playwright.Float(float64(m.cfg.Browser.LaunchTimeout.Milliseconds())),
	}
	// Container friendly flags only apply to Chromium.
	if m.cfg.Browser.Engine == "chromium" {
		defaultArgs := []string{"--disable-gpu", "--no-sandbox", "--disable-dev-shm-usage"}
		opts.Args = append(defaultArgs, m.cfg.Browser.Args...)
	} else if len(m.cfg.Browser.Args) > 0 {
		opts.Args = m.cfg.Browser.Args
	}
	return opts
}

func (m *Manager) connectGrid(pw *playwright.Playwright) (playwright.Browser, error) {
	endpoint, err := Endpoint(m.cfg, Capabilities(m.cfg, m.name))
	if err != nil {
		return nil, err
	}
	m.logger.Info("Connecting to cloud grid.", zap.String("endpoint", Redact(endpoint,
		m.cfg.Cloud.BrowserStack.AccessKey, m.cfg.Cloud.LambdaTest.AccessKey)))

	// Grids only serve Chromium over this endpoint.
	b, err := pw.Chromium.Connect(endpoint, playwright.BrowserTypeConnectOptions{
		Timeout: playwright.Float(float64(m.cfg.Browser.LaunchTimeout.Milliseconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", m.cfg.Cloud.Provider, err)
	}
	return b, nil
}

// NewSession opens a fresh browsing context and page for the test id.
func (m *Manager) NewSession(ctx context.Context, id string) (*Session, error) {
	if err := m.Start(ctx); err != nil {
		return nil, err
	}

	bctx, err := m.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  m.cfg.Browser.Viewport.Width,
			Height: m.cfg.Browser.Viewport.Height,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	page.SetDefaultTimeout(float64(m.cfg.App.PageTimeout().Milliseconds()))
	page.SetDefaultNavigationTimeout(float64(m.cfg.Browser.NavigationTimeout.Milliseconds()))

	s := &Session{
		id:      id,
		context: bctx,
		page:    page,
		logger:  m.logger.With(zap.String("session_id", id)),
	}
	s.onClose = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.sessions, id)
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Debug("New session created.", zap.String("session_id", id))
	return s, nil
}

// Shutdown closes the remaining sessions, the browser and the driver.
// Every step runs even when an earlier one fails.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down browser manager.")

	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	closeCtx, cancel := context.WithTimeout(ctx, shutdownGracePeriod)
	defer cancel()

	g := new(errgroup.Group)
	for _, s := range open {
		g.Go(s.Close)
	}
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var errs []string
	select {
	case err := <-done:
		if err != nil {
			errs = append(errs, fmt.Sprintf("close sessions: %v", err))
		}
	case <-closeCtx.Done():
		m.logger.Warn("Timeout waiting for sessions to close. Proceeding with forceful shutdown.", zap.Error(closeCtx.Err()))
	}

	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			m.logger.Error("Failed to close browser instance.", zap.Error(err))
			errs = append(errs, fmt.Sprintf("close browser: %v", err))
		}
	}
	if m.stop != nil {
		if err := m.stop(); err != nil {
			m.logger.Error("Failed to stop Playwright driver.", zap.Error(err))
			errs = append(errs, fmt.Sprintf("stop driver: %v", err))
		}
	}

	m.logger.Info("Browser manager shutdown complete.")
	if len(errs) > 0 {
		return fmt.Errorf("browser shutdown: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Install downloads the Playwright driver and the given browsers, giving up after timeout.
func Install(ctx context.Context, engines []string, timeout time.Duration, logger *zap.Logger) error {
	logger.Info("Verifying Playwright browser installation...", zap.Strings("browsers", engines))
	installCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// The install call blocks and takes no context.
	errCh := make(chan error, 1)
	go func() {
		if err := playwright.Install(&playwright.RunOptions{Browsers: engines}); err != nil {
			errCh <- fmt.Errorf("failed to install playwright browsers: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-installCtx.Done():
		return fmt.Errorf("timeout waiting for Playwright installation: %w", installCtx.Err())
	}
}
