package pages

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprobe/internal/locator"
)

// enforceStrictness fails when strict is set and loc matches more than one element.
func (a *Actions) enforceStrictness(loc playwright.Locator, strict bool, context string) error {
	if !strict {
		return nil
	}
	count, err := loc.Count()
	if err != nil {
		return fmt.Errorf("failed to count elements for %s: %w", context, err)
	}
	if count > 1 {
		a.logger.Error("Strictness violation", zap.String("context", context), zap.Int("count", count))
		return &locator.StrictnessError{Context: context, Count: count}
	}
	return nil
}

// GetTextContent returns the text content of a visible element.
func (a *Actions) GetTextContent(key string) (string, error) {
	loc, err := a.locate(key)
	if err != nil {
		return "", err
	}
	text, err := loc.TextContent()
	if err != nil {
		return "", &ActionError{Action: "text content", Key: key, Err: err}
	}
	a.logger.Info("Read text content", zap.String("key", key), zap.String("text", text))
	return text, nil
}

// GetElementCount returns how many elements match key right now.
func (a *Actions) GetElementCount(key string) (int, error) {
	loc, err := a.resolver.Resolve(key)
	if err != nil {
		return 0, err
	}
	count, err := loc.Count()
	if err != nil {
		return 0, &ActionError{Action: "count", Key: key, Err: err}
	}
	a.logger.Info("Counted elements", zap.String("key", key), zap.Int("count", count))
	return count, nil
}

// GetListItems returns the trimmed text of every element matching key.
func (a *Actions) GetListItems(key string) ([]string, error) {
	loc, err := a.locate(key)
	if err != nil {
		return nil, err
	}
	texts, err := loc.AllTextContents()
	if err != nil {
		return nil, &ActionError{Action: "list items", Key: key, Err: err}
	}
	items := make([]string, 0, len(texts))
	for _, t := range texts {
		items = append(items, strings.TrimSpace(t))
	}
	return items, nil
}

// ClickListItemByText clicks the list item containing text. With a non-empty
// buttonKey the nested element described by buttonKey is clicked instead.
func (a *Actions) ClickListItemByText(listKey, text, buttonKey string) error {
	list, err := a.locate(listKey)
	if err != nil {
		return err
	}
	item := list.Filter(playwright.LocatorFilterOptions{HasText: text})
	target := item
	if buttonKey != "" {
		button, err := a.resolver.Resolve(buttonKey)
		if err != nil {
			return err
		}
		target = item.Locator(button)
	}
	return a.run("click list item", listKey, target, []zap.Field{zap.String("text", text), zap.String("button", buttonKey)},
		func(l playwright.Locator) error { return l.Click() })
}

// AssertListContainsTexts verifies that every expected text appears in the
// list, ignoring order.
func (a *Actions) AssertListContainsTexts(key string, expected []string) error {
	items, err := a.GetListItems(key)
	if err != nil {
		return err
	}
	remaining := make(map[string]int, len(items))
	for _, it := range items {
		remaining[it]++
	}
	var missing []string
	for _, want := range expected {
		if remaining[want] == 0 {
			missing = append(missing, want)
			continue
		}
		remaining[want]--
	}
	if len(missing) > 0 {
		err := fmt.Errorf("missing %q in %q", missing, items)
		a.logger.Error("List assertion failed", zap.String("key", key), zap.Error(err))
		return &AssertionError{Check: "list contains", Key: key, Err: err}
	}
	a.logger.Info("List contains expected texts", zap.String("key", key), zap.Strings("expected", expected))
	return nil
}

// FilterByText narrows key to elements containing text.
func (a *Actions) FilterByText(key, text string, strict bool) (playwright.Locator, error) {
	loc, err := a.resolver.Resolve(key)
	if err != nil {
		return nil, err
	}
	filtered := loc.Filter(playwright.LocatorFilterOptions{HasText: text})
	if err := a.enforceStrictness(filtered, strict, fmt.Sprintf("filter %s by text %q", key, text)); err != nil {
		return nil, err
	}
	return filtered, nil
}

// FilterByChild narrows key to elements that contain an element matching childKey.
func (a *Actions) FilterByChild(key, childKey string, strict bool) (playwright.Locator, error) {
	loc, err := a.resolver.Resolve(key)
	if err != nil {
		return nil, err
	}
	child, err := a.resolver.Resolve(childKey)
	if err != nil {
		return nil, err
	}
	filtered := loc.Filter(playwright.LocatorFilterOptions{Has: child})
	if err := a.enforceStrictness(filtered, strict, fmt.Sprintf("filter %s by child %s", key, childKey)); err != nil {
		return nil, err
	}
	return filtered, nil
}

// ClickNthElement clicks the zero based nth match of key once it is visible.
// Strictness applies to the nth locator, so a list with many matches is fine.
func (a *Actions) ClickNthElement(key string, n int, strict bool) error {
	loc, err := a.resolver.Resolve(key)
	if err != nil {
		return err
	}
	nth := loc.Nth(n)
	if err := a.enforceStrictness(nth, strict, fmt.Sprintf("clicking element %d of %s", n, key)); err != nil {
		return err
	}
	err = a.expect.Locator(nth).ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{
		Timeout: millis(a.opts.ActionTimeout),
	})
	if err != nil {
		a.logger.Error("Element not visible", zap.String("key", key), zap.Int("index", n), zap.Error(err))
		return &AssertionError{Check: "visible", Key: key, Err: err}
	}
	return a.run("click nth", key, nth, []zap.Field{zap.Int("index", n)},
		func(l playwright.Locator) error { return l.Click() })
}
