// File: cmd/report.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprobe/internal/observability"
)

const serverShutdownTimeout = 5 * time.Second

// newReportCmd creates the `report` command group.
func newReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Work with generated reports",
	}
	reportCmd.AddCommand(newReportServeCmd())
	return reportCmd
}

// newReportServeCmd creates `report serve`, a small HTTP server over the
// reports directory.
func newReportServeCmd() *cobra.Command {
	var dir, addr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reports directory over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := os.Stat(dir)
			if err != nil {
				return fmt.Errorf("reports directory %s: %w", dir, err)
			}
			if !info.IsDir() {
				return fmt.Errorf("reports directory %s is not a directory", dir)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", dir, addr)
			return serveReports(cmd.Context(), addr, dir, observability.GetLogger())
		},
	}

	serveCmd.Flags().StringVar(&dir, "dir", "reports", "directory holding the reports")
	serveCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	return serveCmd
}

// serveReports blocks until ctx ends or the listener fails.
func serveReports(ctx context.Context, addr, dir string, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newReportRouter(dir, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Report server listening.", zap.String("addr", addr), zap.String("dir", dir))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("report server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serverShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("report server shutdown: %w", err)
		}
		logger.Info("Report server stopped.")
		return nil
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8"/><title>uiprobe reports</title></head>
<body><h1>Reports</h1>
<ul id="reports">
{{- range .}}
<li><a href="/reports/{{.Name}}">{{.Name}}</a> <small>{{.Modified.Format "2006-01-02 15:04:05"}}</small></li>
{{- else}}
<li>No reports yet.</li>
{{- end}}
</ul></body></html>
`))

type reportEntry struct {
	Name     string
	Modified time.Time
}

// newReportRouter lists the reports in dir, newest first, and serves the files.
func newReportRouter(dir string, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		entries, err := listReports(dir)
		if err != nil {
			logger.Error("Failed to list reports.", zap.Error(err))
			http.Error(w, "failed to list reports", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTemplate.Execute(w, entries); err != nil {
			logger.Warn("Failed to render report index.", zap.Error(err))
		}
	}).Methods(http.MethodGet)

	r.PathPrefix("/reports/").Handler(
		http.StripPrefix("/reports/", http.FileServer(http.Dir(dir))),
	).Methods(http.MethodGet)

	return r
}

func listReports(dir string) ([]reportEntry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []reportEntry
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(f.Name())) {
		case ".html", ".xml", ".json":
		default:
			continue
		}
		info, err := f.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, reportEntry{Name: f.Name(), Modified: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Modified.After(out[j].Modified) })
	return out, nil
}
