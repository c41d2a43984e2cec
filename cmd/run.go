package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"github.com/playwright-community/playwright-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprobe/internal/browser"
	"github.com/xkilldash9x/uiprobe/internal/config"
	"github.com/xkilldash9x/uiprobe/internal/observability"
	"github.com/xkilldash9x/uiprobe/internal/reporting"
	"github.com/xkilldash9x/uiprobe/internal/results"
	"github.com/xkilldash9x/uiprobe/internal/session"
	"github.com/xkilldash9x/uiprobe/internal/store"
	"github.com/xkilldash9x/uiprobe/internal/suites"
	"github.com/xkilldash9x/uiprobe/internal/testdata"
)

// ErrTestsFailed is returned when the run completed with failed tests.
var ErrTestsFailed = errors.New("one or more tests failed")

const browserShutdownTimeout = 30 * time.Second

// componentFactory builds the external collaborators of a run. Tests inject
// fakes; production uses defaultFactory.
type componentFactory interface {
	Database(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Database, error)
	Ledger(ctx context.Context, cfg *config.Config, runID string) (session.Ledger, error)
	Publisher(cfg *config.Config, logger *zap.Logger) (results.Publisher, error)
	Browser(cfg *config.Config, runID string, logger *zap.Logger) session.Browser
}

type defaultFactory struct{}

func (defaultFactory) Database(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Database, error) {
	return store.New(ctx, cfg.Database, logger)
}

func (defaultFactory) Ledger(ctx context.Context, cfg *config.Config, runID string) (session.Ledger, error) {
	l := cfg.Ledger
	if l.RedisAddr == "" {
		return session.NewMemoryLedger(), nil
	}
	ledger, err := session.DialRedisLedger(ctx, l.RedisAddr, l.RedisPassword, l.RedisDB, l.KeyPrefix, runID, l.TTL)
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

func (defaultFactory) Publisher(cfg *config.Config, logger *zap.Logger) (results.Publisher, error) {
	if cfg.Notify.NatsURL == "" {
		return results.Nop{}, nil
	}
	publisher, err := results.DialNATS(cfg.Notify.NatsURL, cfg.Notify.Subject, logger)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}

func (defaultFactory) Browser(cfg *config.Config, runID string, logger *zap.Logger) session.Browser {
	return session.FromManager(browser.NewManager(cfg, "uiprobe-"+runID[:min(8, len(runID))], logger))
}

// runFlags are the flags that need more than a plain viper binding.
type runFlags struct {
	headless string
	runID    string
}

// newRunCmd creates and configures the `run` command.
func newRunCmd(factory componentFactory) *cobra.Command {
	flags := &runFlags{}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the registered UI test suites",
		Long: `Loads the environment file, provisions a browser locally or on a cloud grid,
runs the selected suites, retries failures, cleans up test data and writes the reports.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := viperFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return bindRunFlags(cmd, v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := viperFromContext(ctx)
			if err != nil {
				return err
			}
			return runSuites(ctx, v, flags, factory, observability.GetLogger(), cmd.OutOrStdout())
		},
	}

	f := runCmd.Flags()
	f.String("cloud", "", "where browsers run: local, browserstack or lambdatest (default local)")
	f.String("browser-engine", "", "browser engine: chromium, firefox or webkit (default chromium)")
	f.StringVar(&flags.headless, "headless", "", "run browsers headless: true or false (default true)")
	f.String("env", "", "environment file to load: dev, qa or prod (default dev)")
	f.Int("retries", 0, "how many times a failed test is re-run at session end")
	f.StringSlice("suite", nil, "suites to run (default all)")
	f.StringSlice("tags", nil, "only run tests carrying any of these tags")
	f.String("report", "", "HTML report path (default reports/report.html)")
	f.String("junit", "", "JUnit XML report path")
	f.String("json", "", "JSON report path")
	f.StringVar(&flags.runID, "run-id", "", "run id shared by processes using the same Redis ledger (default random)")
	return runCmd
}

// bindRunFlags maps the run flags onto their configuration keys.
func bindRunFlags(cmd *cobra.Command, v *viper.Viper) error {
	bindings := map[string]string{
		"cloud":          "cloud.provider",
		"browser-engine": "browser.engine",
		"env":            "environment.name",
		"retries":        "session.retries",
		"suite":          "session.suites",
		"tags":           "session.tags",
		"report":         "report.html_path",
		"junit":          "report.junit_path",
		"json":           "report.json_path",
	}
	for flag, key := range bindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", flag, err)
		}
	}
	return nil
}

// runSuites is the testable body of the run command.
func runSuites(ctx context.Context, v *viper.Viper, flags *runFlags, factory componentFactory, logger *zap.Logger, out io.Writer) error {
	if flags.headless != "" {
		headless, err := strconv.ParseBool(flags.headless)
		if err != nil {
			return &config.ConfigError{Key: "headless", Err: fmt.Errorf("must be true or false, got %q", flags.headless)}
		}
		v.Set("browser.headless", headless)
	}

	envDir, err := homedir.Expand(v.GetString("environment.dir"))
	if err != nil {
		return &config.ConfigError{Key: "environment.dir", Err: err}
	}
	envFile, err := config.LoadEnvironment(envDir, v.GetString("environment.name"))
	if err != nil {
		return err
	}

	cfg, err := config.NewConfigFromViper(v)
	if err != nil {
		return err
	}

	runID := flags.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger = logger.With(zap.String("run_id", runID))
	logger.Info("Configuration loaded.",
		zap.String("env_file", envFile),
		zap.String("environment", cfg.Environment.Name),
		zap.String("provider", cfg.Cloud.Provider),
		zap.String("engine", cfg.Browser.Engine),
		zap.Bool("headless", cfg.Browser.Headless),
		zap.Int("retries", cfg.Session.Retries))

	cases, err := suites.Load(testdata.NewLoader(cfg.Session.TestDataDir), testdata.NewFaker(0), cfg.Session.Suites...)
	if err != nil {
		return fmt.Errorf("failed to load test suites: %w", err)
	}
	cases = session.Select(cases, nil, cfg.Session.Tags)
	if len(cases) == 0 {
		return fmt.Errorf("no test cases match suites %v and tags %v", cfg.Session.Suites, cfg.Session.Tags)
	}

	db, err := factory.Database(ctx, cfg, logger)
	switch {
	case errors.Is(err, store.ErrDisabled):
		logger.Info("DBUSE is empty; test data cleanup is disabled.")
		db = nil
	case err != nil:
		logger.Error("Failed to connect cleanup database; test data cleanup is disabled.", zap.Error(err))
		db = nil
	default:
		defer closeQuietly(logger, "database", db.Close)
	}

	ledger, err := factory.Ledger(ctx, cfg, runID)
	if err != nil {
		logger.Warn("Failed to open shared retry ledger; keeping it in memory.", zap.Error(err))
		ledger = session.NewMemoryLedger()
	}
	defer closeQuietly(logger, "ledger", ledger.Close)

	publisher, err := factory.Publisher(cfg, logger)
	if err != nil {
		logger.Warn("Failed to connect result publisher; events are not published.", zap.Error(err))
		publisher = results.Nop{}
	}
	defer closeQuietly(logger, "publisher", publisher.Close)

	b := factory.Browser(cfg, runID, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), browserShutdownTimeout)
		defer cancel()
		if err := b.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Browser shutdown reported errors.", zap.Error(err))
		}
	}()

	sess := session.New(session.Options{
		Config:    cfg,
		Browser:   b,
		Database:  db,
		Ledger:    ledger,
		Publisher: publisher,
		Expect:    playwright.NewPlaywrightAssertions(float64(cfg.Browser.ActionTimeout.Milliseconds())),
		Logger:    logger,
		RunID:     runID,
	})

	report, runErr := sess.Run(ctx, cases)
	if err := writeReports(cfg.Report, report, logger); err != nil {
		return err
	}
	printSummary(out, report, cfg.Report)

	if runErr != nil {
		return fmt.Errorf("run aborted: %w", runErr)
	}
	if report.Failed() {
		return fmt.Errorf("%w: %d of %d", ErrTestsFailed, report.Count(results.Failed), report.Summary["total"])
	}
	return nil
}

// writeReports writes every configured report format.
func writeReports(cfg config.ReportConfig, report *results.Report, logger *zap.Logger) error {
	outputs := []struct{ format, path string }{
		{"html", cfg.HTMLPath},
		{"junit", cfg.JUnitPath},
		{"json", cfg.JSONPath},
	}
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if err := writeReport(o.format, o.path, report); err != nil {
			return err
		}
		logger.Info("Report written.", zap.String("format", o.format), zap.String("path", o.path))
	}
	return nil
}

func writeReport(format, path string, report *results.Report) (err error) {
	reporter, err := reporting.New(format, path)
	if err != nil {
		return fmt.Errorf("failed to initialize %s reporter: %w", format, err)
	}
	defer func() {
		if cerr := reporter.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s report: %w", format, cerr)
		}
	}()
	if err := reporter.Write(report); err != nil {
		return fmt.Errorf("failed to write %s report: %w", format, err)
	}
	return nil
}

func printSummary(out io.Writer, report *results.Report, cfg config.ReportConfig) {
	fmt.Fprintf(out, "\n%d passed, %d failed, %d skipped, %d xfailed, %d rerun in %s\n",
		report.Count(results.Passed),
		report.Count(results.Failed),
		report.Count(results.Skipped),
		report.Count(results.XFailed),
		report.Summary["rerun"],
		report.Duration().Round(time.Millisecond))
	if cfg.HTMLPath != "" {
		fmt.Fprintf(out, "HTML report: %s\n", cfg.HTMLPath)
	}
}

func closeQuietly(logger *zap.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Warn("Failed to close "+what+".", zap.Error(err))
	}
}
