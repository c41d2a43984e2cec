package results

import (
	"time"
)

// Outcome is the result of one test attempt.
type Outcome string

const (
	Passed  Outcome = "passed"
	Failed  Outcome = "failed"
	Skipped Outcome = "skipped"
	// XFailed is an expected failure. It counts as skipped.
	XFailed Outcome = "xfailed"
)

// Outcomes lists every outcome in report order.
var Outcomes = []Outcome{Passed, Failed, Skipped, XFailed}

// TestResult is the final state of one test case after all of its attempts.
type TestResult struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Suite    string        `json:"suite"`
	Tags     []string      `json:"tags,omitempty"`
	Outcome  Outcome       `json:"outcome"`
	History  []Outcome     `json:"history"`
	Retries  int           `json:"retries"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	// Screenshot is the base64 PNG of the last failing attempt.
	Screenshot     string `json:"screenshot,omitempty"`
	ScreenshotPath string `json:"screenshot_path,omitempty"`
}

// Metadata describes the run in report headers.
type Metadata struct {
	ReportID      string    `json:"report_id"`
	Title         string    `json:"title"`
	Project       string    `json:"project"`
	Version       string    `json:"version"`
	Environment   string    `json:"environment"`
	Author        string    `json:"author,omitempty"`
	Provider      string    `json:"provider"`
	Engine        string    `json:"engine"`
	ExecutionTime time.Time `json:"execution_time"`
}

// Event is published after every attempt.
type Event struct {
	RunID    string        `json:"run_id"`
	TestID   string        `json:"test_id"`
	Attempt  int           `json:"attempt"`
	Outcome  Outcome       `json:"outcome"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}
