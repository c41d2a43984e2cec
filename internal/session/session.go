// Package session owns a test run: browsing contexts per test, failure
// screenshots, cleanup of test data, retries of failed tests and the
// aggregated report.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprobe/internal/config"
	"github.com/xkilldash9x/uiprobe/internal/pages"
	"github.com/xkilldash9x/uiprobe/internal/results"
	"github.com/xkilldash9x/uiprobe/internal/store"
	"github.com/xkilldash9x/uiprobe/internal/testdata"
)

// Options wires a session. Nil fields get in-process defaults.
type Options struct {
	Config  *config.Config
	Browser Browser
	// Database backs cleanup; nil disables it.
	Database  store.Database
	Ledger    Ledger
	Publisher results.Publisher
	Expect    playwright.PlaywrightAssertions
	Logger    *zap.Logger
	RunID     string
	Now       func() time.Time
}

// Session is the state of one run. It replaces process globals: the retry
// ledger and the cleanup registry live here and nowhere else.
type Session struct {
	runID     string
	cfg       *config.Config
	browser   Browser
	ledger    Ledger
	cleanup   *Registry
	cleaner   *Cleaner
	publisher results.Publisher
	expect    playwright.PlaywrightAssertions
	data      *testdata.Loader
	logger    *zap.Logger
	now       func() time.Time
}

// attempt is the synchronous result of one execution.
type attempt struct {
	outcome    results.Outcome
	err        error
	duration   time.Duration
	screenshot string
	shotPath   string
}

// New creates a session.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	ledger := opts.Ledger
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = results.Nop{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger = logger.Named("session").With(zap.String("run_id", runID))
	return &Session{
		runID:     runID,
		cfg:       opts.Config,
		browser:   opts.Browser,
		ledger:    ledger,
		cleanup:   &Registry{},
		cleaner:   NewCleaner(opts.Database, logger),
		publisher: publisher,
		expect:    opts.Expect,
		data:      testdata.NewLoader(opts.Config.Session.TestDataDir),
		logger:    logger,
		now:       now,
	}
}

// RunID identifies the run in logs, events and the shared ledger.
func (s *Session) RunID() string { return s.runID }

// Run executes every case once, re-executes failures up to the configured
// retry budget, runs session-end cleanup and returns the report. The error is
// non-nil only when ctx ends the run early; the partial report is still returned.
func (s *Session) Run(ctx context.Context, cases []TestCase) (*results.Report, error) {
	started := s.now()
	s.logger.Info("Session started.", zap.Int("tests", len(cases)), zap.Int("retries", s.cfg.Session.Retries))

	final := make([]results.TestResult, len(cases))
	var runErr error
	for i, tc := range cases {
		if err := ctx.Err(); err != nil {
			runErr = err
			final[i] = s.notRun(tc, err)
			continue
		}
		a := s.execute(ctx, tc, 1)
		final[i] = s.newResult(tc, a)
	}

	if runErr == nil {
		runErr = s.retryFailed(ctx, cases, final)
	}

	s.sessionCleanup(ctx)

	meta := results.Metadata{
		ReportID:      s.runID[:min(8, len(s.runID))],
		Title:         s.cfg.Report.Title,
		Project:       s.cfg.Report.Project,
		Version:       s.cfg.Report.Version,
		Environment:   s.cfg.Environment.Name,
		Author:        s.cfg.Report.Author,
		Provider:      s.cfg.Cloud.Provider,
		Engine:        s.cfg.Browser.Engine,
		ExecutionTime: started,
	}
	report := results.NewReport(s.runID, meta, started, s.now(), final)
	s.logger.Info("Session finished.",
		zap.Int("passed", report.Count(results.Passed)),
		zap.Int("failed", report.Count(results.Failed)),
		zap.Int("skipped", report.Count(results.Skipped)),
		zap.Int("xfailed", report.Count(results.XFailed)),
		zap.Duration("duration", report.Duration()))
	return report, runErr
}

// retryFailed re-executes every failed test until it passes or the budget is
// spent. Each decision uses the outcome the attempt just returned.
func (s *Session) retryFailed(ctx context.Context, cases []TestCase, final []results.TestResult) error {
	budget := s.cfg.Session.Retries
	if budget <= 0 {
		return nil
	}
	for i, tc := range cases {
		if final[i].Outcome != results.Failed {
			continue
		}
		for try := 1; try <= budget; try++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := s.ledger.IncrementRetries(ctx, tc.ID)
			if err != nil {
				s.logger.Warn("Failed to record retry.", zap.String("test_id", tc.ID), zap.Error(err))
				n = try
			}
			s.logger.Info("Retrying failed test.", zap.String("test_id", tc.ID), zap.Int("retry", n), zap.Int("budget", budget))

			a := s.execute(ctx, tc, try+1)
			s.merge(&final[i], a)
			if a.outcome != results.Failed {
				break
			}
		}
		final[i].Retries = len(final[i].History) - 1
	}
	return nil
}

// execute runs one attempt and always releases its browsing context and
// cleanup entries.
func (s *Session) execute(ctx context.Context, tc TestCase, n int) attempt {
	logger := s.logger.With(zap.String("test_id", tc.ID), zap.Int("attempt", n))
	logger.Info(fmt.Sprintf("Testcase.....%s.....Start now", tc.ID))
	start := s.now()

	a := attempt{}
	tab, err := s.browser.NewTab(ctx, tc.ID)
	if err != nil {
		a.outcome, a.err = results.Failed, fmt.Errorf("failed to open browser context: %w", err)
	} else {
		a.err = s.invoke(ctx, tc, tab.Page(), logger)
		a.outcome = classify(tc, a.err)
		if a.outcome == results.Failed || a.outcome == results.XFailed {
			a.shotPath, a.screenshot = s.screenshot(tab.Page(), tc.ID, logger)
		}
		if err := tab.Close(); err != nil {
			logger.Warn("Failed to close browser context.", zap.Error(err))
		}
	}

	// Cleanup still runs when the run is being cancelled.
	if deleted := s.cleaner.Clean(context.WithoutCancel(ctx), s.cleanup.Drain()); deleted > 0 {
		logger.Info("Test data cleaned.", zap.Int64("deleted", deleted))
	}

	a.duration = s.now().Sub(start)
	if err := s.ledger.Append(ctx, tc.ID, a.outcome); err != nil {
		logger.Warn("Failed to record outcome.", zap.Error(err))
	}
	s.publish(tc, n, a, logger)

	fields := []zap.Field{zap.String("outcome", string(a.outcome)), zap.Duration("duration", a.duration)}
	if a.err != nil {
		fields = append(fields, zap.Error(a.err))
	}
	logger.Info(fmt.Sprintf("Testcase.....%s.....End now", tc.ID), fields...)
	return a
}

// invoke runs the test body. A panic becomes an error.
func (s *Session) invoke(ctx context.Context, tc TestCase, page playwright.Page, logger *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Test panicked.", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	t := &T{
		ctx:  ctx,
		id:   tc.ID,
		page: page,
		deps: pages.Deps{
			Page:        page,
			Expect:      s.expect,
			ElementsDir: s.cfg.Session.ElementsDir,
			Logger:      logger,
			Options: pages.Options{
				ActionTimeout:     s.cfg.Browser.ActionTimeout,
				NavigationTimeout: s.cfg.Browser.NavigationTimeout,
				ScreenshotsDir:    s.cfg.Session.ScreenshotsDir,
			},
		},
		cfg:     s.cfg,
		logger:  logger,
		data:    s.data,
		cleanup: s.cleanup,
	}
	if tc.Run == nil {
		return fmt.Errorf("test %s has no body", tc.ID)
	}
	return tc.Run(t)
}

func classify(tc TestCase, err error) results.Outcome {
	switch {
	case err == nil:
		return results.Passed
	case errors.Is(err, ErrSkipped):
		return results.Skipped
	case tc.XFail != "":
		return results.XFailed
	default:
		return results.Failed
	}
}

// ScreenshotName maps a test id to its screenshot file name.
func ScreenshotName(testID string) string {
	r := strings.NewReplacer("::", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(testID) + ".png"
}

// screenshot captures the full page. Failures are logged only.
func (s *Session) screenshot(page playwright.Page, testID string, logger *zap.Logger) (string, string) {
	dir := s.cfg.Session.ScreenshotsDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("Screenshot capture failed.", zap.Error(err))
		return "", ""
	}
	path := filepath.Join(dir, ScreenshotName(testID))
	png, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		logger.Warn("Screenshot capture failed.", zap.Error(err))
		return "", ""
	}
	logger.Info("Failure screenshot saved.", zap.String("path", path))
	return path, base64.StdEncoding.EncodeToString(png)
}

func (s *Session) publish(tc TestCase, n int, a attempt, logger *zap.Logger) {
	ev := results.Event{
		RunID:    s.runID,
		TestID:   tc.ID,
		Attempt:  n,
		Outcome:  a.outcome,
		Duration: a.duration,
	}
	if a.err != nil {
		ev.Error = a.err.Error()
	}
	if err := s.publisher.Publish(ev); err != nil {
		logger.Warn("Failed to publish result event.", zap.Error(err))
	}
}

func (s *Session) newResult(tc TestCase, a attempt) results.TestResult {
	r := results.TestResult{
		ID:    tc.ID,
		Name:  tc.Name,
		Suite: tc.Suite,
		Tags:  tc.Tags,
	}
	s.merge(&r, a)
	return r
}

// merge folds an attempt into the result. The latest attempt decides the
// outcome; the screenshot of the last failing attempt is kept.
func (s *Session) merge(r *results.TestResult, a attempt) {
	r.Outcome = a.outcome
	r.History = append(r.History, a.outcome)
	r.Duration += a.duration
	r.Error = ""
	if a.err != nil {
		r.Error = a.err.Error()
	}
	if a.screenshot != "" {
		r.Screenshot = a.screenshot
		r.ScreenshotPath = a.shotPath
	}
}

func (s *Session) notRun(tc TestCase, err error) results.TestResult {
	return results.TestResult{
		ID:      tc.ID,
		Name:    tc.Name,
		Suite:   tc.Suite,
		Tags:    tc.Tags,
		Outcome: results.Skipped,
		History: []results.Outcome{results.Skipped},
		Error:   fmt.Sprintf("not run: %v", err),
	}
}

// sessionCleanup runs the configured session-end cleanup targets once.
func (s *Session) sessionCleanup(ctx context.Context) {
	targets := s.cfg.Database.SessionCleanup
	if len(targets) == 0 {
		return
	}
	entries := make([]CleanupEntry, 0, len(targets))
	for _, t := range targets {
		entries = append(entries, CleanupEntry{Container: t.Container, Where: t.Where})
	}
	deleted := s.cleaner.Clean(context.WithoutCancel(ctx), entries)
	s.logger.Info("Session cleanup finished.", zap.Int("targets", len(entries)), zap.Int64("deleted", deleted))
}
