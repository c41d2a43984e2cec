package pages

import (
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

type locatorCheck func(e playwright.LocatorAssertions, timeout *float64) error

func (a *Actions) timeoutOf(timeout []time.Duration) *float64 {
	if len(timeout) > 0 && timeout[0] > 0 {
		return millis(timeout[0])
	}
	return millis(a.opts.ActionTimeout)
}

// verify resolves key and runs check against it. Failures become AssertionErrors.
func (a *Actions) verify(check, key string, timeout []time.Duration, fn locatorCheck) error {
	loc, err := a.resolver.Resolve(key)
	if err != nil {
		return err
	}
	if err := fn(a.expect.Locator(loc), a.timeoutOf(timeout)); err != nil {
		a.logger.Error("Verification failed", zap.String("check", check), zap.String("key", key), zap.Error(err))
		return &AssertionError{Check: check, Key: key, Err: err}
	}
	a.logger.Info("Verified", zap.String("check", check), zap.String("key", key))
	return nil
}

// VerifyAttached waits for key to be attached to the DOM.
func (a *Actions) VerifyAttached(key string, timeout ...time.Duration) error {
	return a.verify("attached", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToBeAttached(playwright.LocatorAssertionsToBeAttachedOptions{Timeout: t})
	})
}

// VerifyChecked waits for a checkbox or radio to be checked.
func (a *Actions) VerifyChecked(key string, timeout ...time.Duration) error {
	return a.verify("checked", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToBeChecked(playwright.LocatorAssertionsToBeCheckedOptions{Timeout: t})
	})
}

// VerifyDisabled waits for key to be disabled.
func (a *Actions) VerifyDisabled(key string, timeout ...time.Duration) error {
	return a.verify("disabled", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToBeDisabled(playwright.LocatorAssertionsToBeDisabledOptions{Timeout: t})
	})
}

// VerifyEditable waits for key to accept input.
func (a *Actions) VerifyEditable(key string, timeout ...time.Duration) error {
	return a.verify("editable", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToBeEditable(playwright.LocatorAssertionsToBeEditableOptions{Timeout: t})
	})
}

// VerifyEmpty waits for an input with no value or an element with no text.
func (a *Actions) VerifyEmpty(key string, timeout ...time.Duration) error {
	return a.verify("empty", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToBeEmpty(playwright.LocatorAssertionsToBeEmptyOptions{Timeout: t})
	})
}

// VerifyEnabled waits for key to be enabled.
func (a *Actions) VerifyEnabled(key string, timeout ...time.Duration) error {
	return a.verify("enabled", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToBeEnabled(playwright.LocatorAssertionsToBeEnabledOptions{Timeout: t})
	})
}

// VerifyFocused waits for key to hold focus.
func (a *Actions) VerifyFocused(key string, timeout ...time.Duration) error {
	return a.verify("focused", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToBeFocused(playwright.LocatorAssertionsToBeFocusedOptions{Timeout: t})
	})
}

// VerifyHidden waits for key to be hidden or detached.
func (a *Actions) VerifyHidden(key string, timeout ...time.Duration) error {
	return a.verify("hidden", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToBeHidden(playwright.LocatorAssertionsToBeHiddenOptions{Timeout: t})
	})
}

// VerifyInViewport waits for key to intersect the viewport.
func (a *Actions) VerifyInViewport(key string, timeout ...time.Duration) error {
	return a.verify("in viewport", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToBeInViewport(playwright.LocatorAssertionsToBeInViewportOptions{Timeout: t})
	})
}

// VerifyVisible waits for key to be visible.
func (a *Actions) VerifyVisible(key string, timeout ...time.Duration) error {
	return a.verify("visible", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{Timeout: t})
	})
}

// VerifyContainsText waits for the text of key to contain text.
func (a *Actions) VerifyContainsText(key, text string, timeout ...time.Duration) error {
	return a.verify("contains text", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToContainText(text, playwright.LocatorAssertionsToContainTextOptions{Timeout: t})
	})
}

// VerifyAttribute waits for attribute name of key to equal value.
func (a *Actions) VerifyAttribute(key, name, value string, timeout ...time.Duration) error {
	return a.verify("attribute "+name, key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToHaveAttribute(name, value, playwright.LocatorAssertionsToHaveAttributeOptions{Timeout: t})
	})
}

// VerifyClass waits for the class attribute of key to equal class.
func (a *Actions) VerifyClass(key, class string, timeout ...time.Duration) error {
	return a.verify("class", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToHaveClass(class, playwright.LocatorAssertionsToHaveClassOptions{Timeout: t})
	})
}

// VerifyCount waits for key to match exactly count elements.
func (a *Actions) VerifyCount(key string, count int, timeout ...time.Duration) error {
	return a.verify("count", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToHaveCount(count, playwright.LocatorAssertionsToHaveCountOptions{Timeout: t})
	})
}

// VerifyCSS waits for the computed style property of key to equal value.
func (a *Actions) VerifyCSS(key, property, value string, timeout ...time.Duration) error {
	return a.verify("css "+property, key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToHaveCSS(property, value, playwright.LocatorAssertionsToHaveCSSOptions{Timeout: t})
	})
}

// VerifyID waits for the id of key to equal id.
func (a *Actions) VerifyID(key, id string, timeout ...time.Duration) error {
	return a.verify("id", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToHaveId(id, playwright.LocatorAssertionsToHaveIdOptions{Timeout: t})
	})
}

// VerifyJSProperty waits for a JavaScript property of the element to equal value.
func (a *Actions) VerifyJSProperty(key, property string, value interface{}, timeout ...time.Duration) error {
	return a.verify("js property "+property, key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToHaveJSProperty(property, value, playwright.LocatorAssertionsToHaveJSPropertyOptions{Timeout: t})
	})
}

// VerifyText waits for the text of key to equal text.
func (a *Actions) VerifyText(key, text string, timeout ...time.Duration) error {
	return a.verify("text", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToHaveText(text, playwright.LocatorAssertionsToHaveTextOptions{Timeout: t})
	})
}

// VerifyValue waits for the input value of key to equal value.
func (a *Actions) VerifyValue(key, value string, timeout ...time.Duration) error {
	return a.verify("value", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToHaveValue(value, playwright.LocatorAssertionsToHaveValueOptions{Timeout: t})
	})
}

// VerifyValues checks the selected values of a multi-select.
func (a *Actions) VerifyValues(key string, values []string, timeout ...time.Duration) error {
	expected := make([]interface{}, len(values))
	for i, v := range values {
		expected[i] = v
	}
	return a.verify("values", key, timeout, func(e playwright.LocatorAssertions, t *float64) error {
		return e.ToHaveValues(expected, playwright.LocatorAssertionsToHaveValuesOptions{Timeout: t})
	})
}

// VerifyPageTitle checks the document title.
func (a *Actions) VerifyPageTitle(title string, timeout ...time.Duration) error {
	err := a.expect.Page(a.page).ToHaveTitle(title, playwright.PageAssertionsToHaveTitleOptions{Timeout: a.timeoutOf(timeout)})
	if err != nil {
		a.logger.Error("Page title verification failed", zap.String("expected", title), zap.Error(err))
		return &AssertionError{Check: "page title", Err: err}
	}
	a.logger.Info("Verified page title", zap.String("title", title))
	return nil
}

// VerifyPageURL checks the page URL.
func (a *Actions) VerifyPageURL(url string, timeout ...time.Duration) error {
	err := a.expect.Page(a.page).ToHaveURL(url, playwright.PageAssertionsToHaveURLOptions{Timeout: a.timeoutOf(timeout)})
	if err != nil {
		a.logger.Error("Page URL verification failed", zap.String("expected", url), zap.Error(err))
		return &AssertionError{Check: "page url", Err: err}
	}
	a.logger.Info("Verified page URL", zap.String("url", url))
	return nil
}
