package pages

import (
	"errors"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// -- Test Doubles --
//
// The fakes embed the playwright interfaces so that only the methods the
// action layer calls need an implementation. Every browser touch is appended
// to a shared journal so tests can assert ordering.

type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

var errNotVisible = errors.New("Timeout 10000ms exceeded while waiting for visible")

// pwLocator names the embedded interface so its field does not shadow the Locator method.
type pwLocator = playwright.Locator

type fakeLocator struct {
	pwLocator
	j     *journal
	name  string
	count int
	texts []string
	// failOn makes the named action return an error.
	failOn string
}

func (l *fakeLocator) act(action string) error {
	l.j.add("%s %s", action, l.name)
	if l.failOn == action {
		return fmt.Errorf("%s failed", action)
	}
	return nil
}

func (l *fakeLocator) Click(options ...playwright.LocatorClickOptions) error {
	if len(options) > 0 && options[0].Button != nil {
		return l.act("click:" + string(*options[0].Button))
	}
	if len(options) > 0 && options[0].Force != nil && *options[0].Force {
		return l.act("click:force")
	}
	return l.act("click")
}

func (l *fakeLocator) Fill(value string, _ ...playwright.LocatorFillOptions) error {
	return l.act("fill(" + value + ")")
}

func (l *fakeLocator) PressSequentially(text string, _ ...playwright.LocatorPressSequentiallyOptions) error {
	return l.act("type(" + text + ")")
}

func (l *fakeLocator) SelectOption(values playwright.SelectOptionValues, _ ...playwright.LocatorSelectOptionOptions) ([]string, error) {
	switch {
	case values.ValuesOrLabels != nil:
		return *values.ValuesOrLabels, l.act(fmt.Sprintf("select(valueOrLabel=%s)", (*values.ValuesOrLabels)[0]))
	case values.Values != nil:
		return *values.Values, l.act(fmt.Sprintf("select(value=%s)", (*values.Values)[0]))
	case values.Labels != nil:
		return *values.Labels, l.act(fmt.Sprintf("select(label=%s)", (*values.Labels)[0]))
	}
	return nil, l.act("select()")
}

func (l *fakeLocator) Check(_ ...playwright.LocatorCheckOptions) error     { return l.act("check") }
func (l *fakeLocator) Uncheck(_ ...playwright.LocatorUncheckOptions) error { return l.act("uncheck") }
func (l *fakeLocator) Dblclick(_ ...playwright.LocatorDblclickOptions) error {
	return l.act("dblclick")
}
func (l *fakeLocator) Press(key string, _ ...playwright.LocatorPressOptions) error {
	return l.act("press(" + key + ")")
}
func (l *fakeLocator) SetInputFiles(files interface{}, _ ...playwright.LocatorSetInputFilesOptions) error {
	return l.act(fmt.Sprintf("upload(%v)", files))
}
func (l *fakeLocator) Focus(_ ...playwright.LocatorFocusOptions) error { return l.act("focus") }
func (l *fakeLocator) Hover(_ ...playwright.LocatorHoverOptions) error { return l.act("hover") }
func (l *fakeLocator) Clear(_ ...playwright.LocatorClearOptions) error { return l.act("clear") }
func (l *fakeLocator) DragTo(target playwright.Locator, _ ...playwright.LocatorDragToOptions) error {
	return l.act("drag->" + target.(*fakeLocator).name)
}
func (l *fakeLocator) ScrollIntoViewIfNeeded(_ ...playwright.LocatorScrollIntoViewIfNeededOptions) error {
	return l.act("scroll")
}

func (l *fakeLocator) TextContent(_ ...playwright.LocatorTextContentOptions) (string, error) {
	l.j.add("text %s", l.name)
	if len(l.texts) == 0 {
		return "", nil
	}
	return l.texts[0], nil
}

func (l *fakeLocator) AllTextContents() ([]string, error) {
	l.j.add("texts %s", l.name)
	return l.texts, nil
}

func (l *fakeLocator) Count() (int, error) {
	l.j.add("count %s", l.name)
	return l.count, nil
}

func (l *fakeLocator) Filter(options ...playwright.LocatorFilterOptions) playwright.Locator {
	child := *l
	switch {
	case len(options) > 0 && options[0].HasText != nil:
		child.name = fmt.Sprintf("%s[text=%v]", l.name, options[0].HasText)
	case len(options) > 0 && options[0].Has != nil:
		child.name = fmt.Sprintf("%s[has=%s]", l.name, options[0].Has.(*fakeLocator).name)
	}
	return &child
}

func (l *fakeLocator) Nth(index int) playwright.Locator {
	child := *l
	child.name = fmt.Sprintf("%s[%d]", l.name, index)
	child.count = 0
	if index < l.count {
		child.count = 1
	}
	return &child
}

func (l *fakeLocator) Locator(selectorOrLocator interface{}, _ ...playwright.LocatorLocatorOptions) playwright.Locator {
	child := *l
	child.name = fmt.Sprintf("%s>>%s", l.name, selectorOrLocator.(*fakeLocator).name)
	return &child
}

type fakePage struct {
	playwright.Page
	j        *journal
	locators map[string]*fakeLocator
	gotoErr  error
	shotErr  error
}

func newFakePage(j *journal) *fakePage {
	return &fakePage{j: j, locators: make(map[string]*fakeLocator)}
}

// loc returns the shared fake for a resolution so tests can configure it.
func (p *fakePage) loc(name string) *fakeLocator {
	if l, ok := p.locators[name]; ok {
		return l
	}
	l := &fakeLocator{j: p.j, name: name, count: 1}
	p.locators[name] = l
	return l
}

func (p *fakePage) Locator(selector string, _ ...playwright.PageLocatorOptions) playwright.Locator {
	return p.loc("css=" + selector)
}
func (p *fakePage) GetByTestId(testID interface{}) playwright.Locator {
	return p.loc(fmt.Sprintf("testid=%v", testID))
}
func (p *fakePage) GetByRole(role playwright.AriaRole, options ...playwright.PageGetByRoleOptions) playwright.Locator {
	name := ""
	if len(options) > 0 {
		name = fmt.Sprint(options[0].Name)
	}
	return p.loc(fmt.Sprintf("role=%s[%s]", role, name))
}
func (p *fakePage) GetByText(text interface{}, _ ...playwright.PageGetByTextOptions) playwright.Locator {
	return p.loc(fmt.Sprintf("text=%v", text))
}
func (p *fakePage) GetByLabel(text interface{}, _ ...playwright.PageGetByLabelOptions) playwright.Locator {
	return p.loc(fmt.Sprintf("label=%v", text))
}
func (p *fakePage) GetByTitle(text interface{}, _ ...playwright.PageGetByTitleOptions) playwright.Locator {
	return p.loc(fmt.Sprintf("title=%v", text))
}
func (p *fakePage) GetByAltText(text interface{}, _ ...playwright.PageGetByAltTextOptions) playwright.Locator {
	return p.loc(fmt.Sprintf("alt=%v", text))
}
func (p *fakePage) GetByPlaceholder(text interface{}, _ ...playwright.PageGetByPlaceholderOptions) playwright.Locator {
	return p.loc(fmt.Sprintf("placeholder=%v", text))
}

func (p *fakePage) Goto(url string, _ ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.j.add("goto %s", url)
	return nil, p.gotoErr
}

func (p *fakePage) WaitForLoadState(options ...playwright.PageWaitForLoadStateOptions) error {
	p.j.add("wait networkidle")
	return nil
}

func (p *fakePage) Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error) {
	path := ""
	if len(options) > 0 && options[0].Path != nil {
		path = *options[0].Path
	}
	p.j.add("screenshot %s", path)
	return []byte("png"), p.shotErr
}

// fakeExpect answers assertions from per-locator rules.
type fakeExpect struct {
	playwright.PlaywrightAssertions
	j *journal
	// failing maps "<check> <locator name>" to the error the assertion returns.
	failing  map[string]error
	timeouts []float64
}

func newFakeExpect(j *journal) *fakeExpect {
	return &fakeExpect{j: j, failing: make(map[string]error)}
}

func (e *fakeExpect) Locator(l playwright.Locator) playwright.LocatorAssertions {
	return &fakeLocatorAssertions{e: e, name: l.(*fakeLocator).name}
}

func (e *fakeExpect) Page(_ playwright.Page) playwright.PageAssertions {
	return &fakePageAssertions{e: e}
}

func (e *fakeExpect) check(what, name string, timeout *float64) error {
	e.j.add("expect %s %s", what, name)
	if timeout != nil {
		e.timeouts = append(e.timeouts, *timeout)
	}
	return e.failing[what+" "+name]
}

type fakeLocatorAssertions struct {
	playwright.LocatorAssertions
	e    *fakeExpect
	name string
}

func (a *fakeLocatorAssertions) ToBeVisible(o ...playwright.LocatorAssertionsToBeVisibleOptions) error {
	return a.e.check("visible", a.name, o[0].Timeout)
}
func (a *fakeLocatorAssertions) ToBeEnabled(o ...playwright.LocatorAssertionsToBeEnabledOptions) error {
	return a.e.check("enabled", a.name, o[0].Timeout)
}
func (a *fakeLocatorAssertions) ToBeChecked(o ...playwright.LocatorAssertionsToBeCheckedOptions) error {
	return a.e.check("checked", a.name, o[0].Timeout)
}
func (a *fakeLocatorAssertions) ToBeHidden(o ...playwright.LocatorAssertionsToBeHiddenOptions) error {
	return a.e.check("hidden", a.name, o[0].Timeout)
}
func (a *fakeLocatorAssertions) ToHaveText(expected interface{}, o ...playwright.LocatorAssertionsToHaveTextOptions) error {
	return a.e.check(fmt.Sprintf("text(%v)", expected), a.name, o[0].Timeout)
}
func (a *fakeLocatorAssertions) ToHaveCount(count int, o ...playwright.LocatorAssertionsToHaveCountOptions) error {
	return a.e.check(fmt.Sprintf("count(%d)", count), a.name, o[0].Timeout)
}
func (a *fakeLocatorAssertions) ToHaveValues(values []interface{}, o ...playwright.LocatorAssertionsToHaveValuesOptions) error {
	return a.e.check(fmt.Sprintf("values%v", values), a.name, o[0].Timeout)
}
func (a *fakeLocatorAssertions) ToHaveCSS(name string, value interface{}, o ...playwright.LocatorAssertionsToHaveCSSOptions) error {
	return a.e.check(fmt.Sprintf("css(%s=%v)", name, value), a.name, o[0].Timeout)
}

type fakePageAssertions struct {
	playwright.PageAssertions
	e *fakeExpect
}

func (a *fakePageAssertions) ToHaveTitle(title interface{}, o ...playwright.PageAssertionsToHaveTitleOptions) error {
	return a.e.check(fmt.Sprintf("title(%v)", title), "page", o[0].Timeout)
}

func (a *fakePageAssertions) ToHaveURL(url interface{}, o ...playwright.PageAssertionsToHaveURLOptions) error {
	return a.e.check(fmt.Sprintf("url(%v)", url), "page", o[0].Timeout)
}
