package reporting

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprobe/internal/observability"
	"github.com/xkilldash9x/uiprobe/internal/results"
)

//go:embed templates/report.html.tmpl
var templates embed.FS

var reportTemplate = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"screenshot": func(b64 string) template.URL {
		return template.URL("data:image/png;base64," + b64)
	},
	"history": func(h []results.Outcome) string {
		parts := make([]string, len(h))
		for i, o := range h {
			parts[i] = string(o)
		}
		return strings.Join(parts, " → ")
	},
	"seconds": func(d time.Duration) string {
		return fmt.Sprintf("%.2fs", d.Seconds())
	},
	"stamp": func(t time.Time) string {
		return t.Format("2006-01-02 15:04:05")
	},
	"count": func(r *results.Report, o string) int {
		return r.Summary[o]
	},
}).ParseFS(templates, "templates/report.html.tmpl"))

// HTMLReporter renders a self contained HTML page: metadata, a summary and
// one row per test with its retry count and inline failure screenshot.
type HTMLReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
}

func NewHTMLReporter(writer io.WriteCloser) *HTMLReporter {
	return &HTMLReporter{writer: writer, logger: observability.GetLogger().Named("html_reporter")}
}

func (r *HTMLReporter) Write(report *results.Report) error {
	if err := reportTemplate.Execute(r.writer, report); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	r.logger.Debug("HTML report rendered", zap.Int("results", len(report.Results)))
	return nil
}

func (r *HTMLReporter) Close() error {
	return r.writer.Close()
}
