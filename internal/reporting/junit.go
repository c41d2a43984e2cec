package reporting

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/uiprobe/internal/results"
)

// JUnitReporter writes JUnit XML with one testsuite per suite. Expected
// failures are reported as skipped.
type JUnitReporter struct {
	writer io.WriteCloser
}

func NewJUnitReporter(writer io.WriteCloser) *JUnitReporter {
	return &JUnitReporter{writer: writer}
}

type suiteTally struct {
	el                       *etree.Element
	tests, failures, skipped int
	duration                 time.Duration
}

func (r *JUnitReporter) Write(report *results.Report) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("testsuites")
	root.CreateAttr("name", report.Metadata.Title)
	root.CreateAttr("tests", strconv.Itoa(report.Summary["total"]))
	root.CreateAttr("failures", strconv.Itoa(report.Count(results.Failed)))
	root.CreateAttr("skipped", strconv.Itoa(report.Count(results.Skipped)+report.Count(results.XFailed)))
	root.CreateAttr("time", formatSeconds(report.Duration()))

	suites := map[string]*suiteTally{}
	var order []string
	for _, tr := range report.Results {
		name := tr.Suite
		if name == "" {
			name = "default"
		}
		s, ok := suites[name]
		if !ok {
			el := root.CreateElement("testsuite")
			el.CreateAttr("name", name)
			el.CreateAttr("timestamp", report.StartedAt.UTC().Format(time.RFC3339))
			props := el.CreateElement("properties")
			addProperty(props, "run_id", report.RunID)
			addProperty(props, "environment", report.Metadata.Environment)
			addProperty(props, "browser", report.Metadata.Engine)
			s = &suiteTally{el: el}
			suites[name] = s
			order = append(order, name)
		}

		tc := s.el.CreateElement("testcase")
		tc.CreateAttr("classname", name)
		tc.CreateAttr("name", strings.TrimPrefix(tr.ID, tr.Suite+"/"))
		tc.CreateAttr("time", formatSeconds(tr.Duration))
		if tr.Retries > 0 {
			props := tc.CreateElement("properties")
			addProperty(props, "retries", strconv.Itoa(tr.Retries))
		}

		s.tests++
		s.duration += tr.Duration
		switch tr.Outcome {
		case results.Failed:
			s.failures++
			f := tc.CreateElement("failure")
			f.CreateAttr("message", firstLine(tr.Error))
			f.SetText(tr.Error)
		case results.Skipped:
			s.skipped++
			tc.CreateElement("skipped").CreateAttr("message", tr.Error)
		case results.XFailed:
			s.skipped++
			tc.CreateElement("skipped").CreateAttr("message", "expected failure: "+firstLine(tr.Error))
		}
	}

	for _, name := range order {
		s := suites[name]
		s.el.CreateAttr("tests", strconv.Itoa(s.tests))
		s.el.CreateAttr("failures", strconv.Itoa(s.failures))
		s.el.CreateAttr("errors", "0")
		s.el.CreateAttr("skipped", strconv.Itoa(s.skipped))
		s.el.CreateAttr("time", formatSeconds(s.duration))
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(r.writer); err != nil {
		return fmt.Errorf("failed to write junit report: %w", err)
	}
	return nil
}

func (r *JUnitReporter) Close() error {
	return r.writer.Close()
}

func addProperty(props *etree.Element, name, value string) {
	p := props.CreateElement("property")
	p.CreateAttr("name", name)
	p.CreateAttr("value", value)
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
