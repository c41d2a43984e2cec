package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprobe/internal/config"
	"github.com/xkilldash9x/uiprobe/internal/pages"
	"github.com/xkilldash9x/uiprobe/internal/testdata"
)

// ErrSkipped marks a test that chose not to run.
var ErrSkipped = errors.New("test skipped")

// TestFunc is the body of a test. A nil return passes.
type TestFunc func(t *T) error

// TestCase is one registered, possibly parametrized, test.
type TestCase struct {
	// ID is unique in a run, e.g. "facebook/test_login[0]".
	ID    string
	Name  string
	Suite string
	Tags  []string
	// XFail, when set, is the reason the test is expected to fail.
	XFail string
	Run   TestFunc
}

// HasTag reports whether the case carries tag.
func (tc TestCase) HasTag(tag string) bool {
	for _, t := range tc.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Select keeps the cases of the given suites that carry any of the tags.
// Empty filters match everything.
func Select(cases []TestCase, suites, tags []string) []TestCase {
	var out []TestCase
	for _, tc := range cases {
		if len(suites) > 0 && !containsFold(suites, tc.Suite) {
			continue
		}
		if len(tags) > 0 {
			matched := false
			for _, tag := range tags {
				if tc.HasTag(tag) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, tc)
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// T is handed to a running test. It exposes the page, the page object
// dependencies and the cleanup registry of the session.
type T struct {
	ctx     context.Context
	id      string
	page    playwright.Page
	deps    pages.Deps
	cfg     *config.Config
	logger  *zap.Logger
	data    *testdata.Loader
	cleanup *Registry
}

func (t *T) Context() context.Context  { return t.ctx }
func (t *T) ID() string                { return t.id }
func (t *T) Page() playwright.Page     { return t.page }
func (t *T) Deps() pages.Deps          { return t.deps }
func (t *T) Config() *config.Config    { return t.cfg }
func (t *T) Logger() *zap.Logger       { return t.logger }
func (t *T) Data() *testdata.Loader    { return t.data }

// AddForCleanup registers records to delete once the test finishes.
func (t *T) AddForCleanup(container, where string) {
	t.logger.Debug("Registered cleanup.", zap.String("container", container), zap.String("where", where))
	t.cleanup.Add(container, where)
}

// Skip returns an error that ends the test as skipped.
func (t *T) Skip(reason string) error {
	return fmt.Errorf("%w: %s", ErrSkipped, reason)
}
