// Package pages holds the action and verification layer shared by page
// objects, and the page objects themselves.
package pages

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Resolver turns an element key into a live locator.
type Resolver interface {
	Resolve(key string) (playwright.Locator, error)
}

// Options tunes implicit waits and artifact locations.
type Options struct {
	// ActionTimeout bounds implicit waits and verifications without an explicit timeout.
	ActionTimeout time.Duration
	// NavigationTimeout bounds navigation and network idle waits.
	NavigationTimeout time.Duration
	ScreenshotsDir    string
}

// DefaultOptions mirrors the runner defaults.
func DefaultOptions() Options {
	return Options{
		ActionTimeout:     10 * time.Second,
		NavigationTimeout: 30 * time.Second,
		ScreenshotsDir:    "screenshots",
	}
}

// Actions performs waits, interactions and verifications against elements
// named by key. Page objects compose it with their own resolver.
type Actions struct {
	page     playwright.Page
	resolver Resolver
	expect   playwright.PlaywrightAssertions
	logger   *zap.Logger
	opts     Options
}

// NewActions creates the action layer. A nil expect uses playwright's assertions.
func NewActions(page playwright.Page, resolver Resolver, expect playwright.PlaywrightAssertions, logger *zap.Logger, opts Options) *Actions {
	if expect == nil {
		expect = playwright.NewPlaywrightAssertions()
	}
	defaults := DefaultOptions()
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = defaults.ActionTimeout
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = defaults.NavigationTimeout
	}
	if opts.ScreenshotsDir == "" {
		opts.ScreenshotsDir = defaults.ScreenshotsDir
	}
	return &Actions{
		page:     page,
		resolver: resolver,
		expect:   expect,
		logger:   logger.Named("actions"),
		opts:     opts,
	}
}

// Page returns the underlying page.
func (a *Actions) Page() playwright.Page { return a.page }

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

// locate resolves key and waits for it to be visible.
func (a *Actions) locate(key string) (playwright.Locator, error) {
	loc, err := a.resolver.Resolve(key)
	if err != nil {
		a.logger.Error("Failed to resolve element", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	err = a.expect.Locator(loc).ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{
		Timeout: millis(a.opts.ActionTimeout),
	})
	if err != nil {
		a.logger.Error("Element not visible", zap.String("key", key), zap.Error(err))
		return nil, &AssertionError{Check: "visible", Key: key, Err: err}
	}
	return loc, nil
}

// perform runs fn against a visible element and logs the outcome.
func (a *Actions) perform(action, key string, fields []zap.Field, fn func(playwright.Locator) error) error {
	loc, err := a.locate(key)
	if err != nil {
		return err
	}
	return a.run(action, key, loc, fields, fn)
}

func (a *Actions) run(action, key string, loc playwright.Locator, fields []zap.Field, fn func(playwright.Locator) error) error {
	logFields := append([]zap.Field{zap.String("action", action), zap.String("key", key)}, fields...)
	if err := fn(loc); err != nil {
		a.logger.Error("Action failed", append(logFields, zap.Error(err))...)
		return &ActionError{Action: action, Key: key, Err: err}
	}
	a.logger.Info("Action completed", logFields...)
	return nil
}

// Navigate loads url and waits for the load event.
func (a *Actions) Navigate(url string) error {
	_, err := a.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   millis(a.opts.NavigationTimeout),
	})
	if err != nil {
		a.logger.Error("Navigation failed", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	a.logger.Info("Navigated", zap.String("url", url))
	return nil
}

// WaitForNetworkIdle waits until there are no network connections for at
// least 500ms. A zero timeout uses the navigation timeout.
func (a *Actions) WaitForNetworkIdle(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = a.opts.NavigationTimeout
	}
	err := a.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: millis(timeout),
	})
	if err != nil {
		return &AssertionError{Check: "network idle", Err: err}
	}
	return nil
}

// TakeScreenshot writes a full page PNG named name into the screenshots directory.
func (a *Actions) TakeScreenshot(name string) (string, error) {
	if err := os.MkdirAll(a.opts.ScreenshotsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshots directory: %w", err)
	}
	path := filepath.Join(a.opts.ScreenshotsDir, name+".png")
	if _, err := a.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		a.logger.Error("Screenshot failed", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("failed to take screenshot: %w", err)
	}
	a.logger.Info("Screenshot saved", zap.String("path", path))
	return path, nil
}

// Click waits for the element to be visible and enabled, then clicks it.
func (a *Actions) Click(key string) error {
	loc, err := a.locate(key)
	if err != nil {
		return err
	}
	err = a.expect.Locator(loc).ToBeEnabled(playwright.LocatorAssertionsToBeEnabledOptions{
		Timeout: millis(a.opts.ActionTimeout),
	})
	if err != nil {
		a.logger.Error("Element not enabled", zap.String("key", key), zap.Error(err))
		return &AssertionError{Check: "enabled", Key: key, Err: err}
	}
	return a.run("click", key, loc, nil, func(l playwright.Locator) error { return l.Click() })
}

// ForceClick clicks without any actionability wait.
func (a *Actions) ForceClick(key string) error {
	loc, err := a.resolver.Resolve(key)
	if err != nil {
		return err
	}
	a.logger.Warn("Force clicking element without waits", zap.String("key", key))
	return a.run("force click", key, loc, nil, func(l playwright.Locator) error {
		return l.Click(playwright.LocatorClickOptions{Force: playwright.Bool(true)})
	})
}

// EnterText fills the element with text.
func (a *Actions) EnterText(key, text string) error {
	return a.perform("fill", key, []zap.Field{zap.String("value", text)}, func(l playwright.Locator) error {
		return l.Fill(text)
	})
}

// TypeText types text one key press at a time.
func (a *Actions) TypeText(key, text string) error {
	return a.perform("type", key, []zap.Field{zap.String("value", text)}, func(l playwright.Locator) error {
		return l.PressSequentially(text)
	})
}

// SelectDropdown selects the option whose value attribute or visible label
// matches value.
func (a *Actions) SelectDropdown(key, value string) error {
	return a.perform("select", key, []zap.Field{zap.String("value", value)}, func(l playwright.Locator) error {
		_, err := l.SelectOption(playwright.SelectOptionValues{ValuesOrLabels: &[]string{value}})
		return err
	})
}

// SelectOption selects the option whose visible label is label.
func (a *Actions) SelectOption(key, label string) error {
	return a.perform("select by label", key, []zap.Field{zap.String("label", label)}, func(l playwright.Locator) error {
		_, err := l.SelectOption(playwright.SelectOptionValues{Labels: &[]string{label}})
		return err
	})
}

// Check ticks a checkbox or radio.
func (a *Actions) Check(key string) error {
	return a.perform("check", key, nil, func(l playwright.Locator) error { return l.Check() })
}

// Uncheck clears a checkbox.
func (a *Actions) Uncheck(key string) error {
	return a.perform("uncheck", key, nil, func(l playwright.Locator) error { return l.Uncheck() })
}

// DoubleClick double clicks the element.
func (a *Actions) DoubleClick(key string) error {
	return a.perform("double click", key, nil, func(l playwright.Locator) error { return l.Dblclick() })
}

// RightClick opens the context menu on the element.
func (a *Actions) RightClick(key string) error {
	return a.perform("right click", key, nil, func(l playwright.Locator) error {
		return l.Click(playwright.LocatorClickOptions{Button: playwright.MouseButtonRight})
	})
}

// PressKey presses a keyboard key such as "Enter" while the element has focus.
func (a *Actions) PressKey(key, keyName string) error {
	return a.perform("press", key, []zap.Field{zap.String("keyboard_key", keyName)}, func(l playwright.Locator) error {
		return l.Press(keyName)
	})
}

// UploadFile sets the files of a file input.
func (a *Actions) UploadFile(key string, paths ...string) error {
	return a.perform("upload", key, []zap.Field{zap.Strings("files", paths)}, func(l playwright.Locator) error {
		return l.SetInputFiles(paths)
	})
}

// Focus focuses the element.
func (a *Actions) Focus(key string) error {
	return a.perform("focus", key, nil, func(l playwright.Locator) error { return l.Focus() })
}

// Hover moves the mouse over the element.
func (a *Actions) Hover(key string) error {
	return a.perform("hover", key, nil, func(l playwright.Locator) error { return l.Hover() })
}

// Clear empties an input.
func (a *Actions) Clear(key string) error {
	return a.perform("clear", key, nil, func(l playwright.Locator) error { return l.Clear() })
}

// DragAndDrop drags source onto target. Both must be visible.
func (a *Actions) DragAndDrop(sourceKey, targetKey string) error {
	target, err := a.locate(targetKey)
	if err != nil {
		return err
	}
	return a.perform("drag and drop", sourceKey, []zap.Field{zap.String("target", targetKey)}, func(l playwright.Locator) error {
		return l.DragTo(target)
	})
}

// ScrollToElement scrolls the element into view without waiting for visibility.
func (a *Actions) ScrollToElement(key string) error {
	loc, err := a.resolver.Resolve(key)
	if err != nil {
		return err
	}
	return a.run("scroll", key, loc, nil, func(l playwright.Locator) error { return l.ScrollIntoViewIfNeeded() })
}
