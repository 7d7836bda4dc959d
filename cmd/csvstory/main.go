package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fwojciec/csvstory"
	"github.com/fwojciec/csvstory/fs"
	"github.com/fwojciec/csvstory/html"
	"github.com/fwojciec/csvstory/jsonl"
)

// ErrNoExporter is returned when images are requested but no exporter is set.
var ErrNoExporter = errors.New("image export is not configured")

// App encapsulates the application logic for testing.
type App struct {
	Backend   csvstory.Backend
	Renderer  csvstory.Renderer
	Viewer    csvstory.Viewer
	Exporter  *fs.Exporter                              // Saves gallery images; optional
	Open      func(path string) (csvstory.Upload, error) // Reads a CSV file
	Form      csvstory.Form                              // Initial form values
	Sinks     []csvstory.EventSink
	Logger    *slog.Logger
	Stdout    io.Writer
	Highlight func(language, source string) string // Colours source text; nil prints it plain
	Now       func() time.Time
}

// Request describes a non-interactive run against one file.
type Request struct {
	Path   string
	Action csvstory.Action
	// Tune adjusts the form after the analysis populated it, e.g. to pick
	// another group column.
	Tune func(f *csvstory.Form)
}

// NewWorkbench returns a Workbench wired to the app's backend and sinks.
func (a *App) NewWorkbench() *csvstory.Workbench {
	opts := []csvstory.WorkbenchOption{csvstory.WithForm(a.Form)}
	if a.Logger != nil {
		opts = append(opts, csvstory.WithLogger(a.Logger))
	}
	if a.Now != nil {
		opts = append(opts, csvstory.WithClock(a.Now))
	}
	for _, s := range a.Sinks {
		opts = append(opts, csvstory.WithEventSink(s))
	}
	return csvstory.NewWorkbench(a.Backend, a.Renderer, opts...)
}

// Interactive opens path, if given, and hands the Workbench to the viewer.
func (a *App) Interactive(ctx context.Context, path string) error {
	wb := a.NewWorkbench()
	if path != "" {
		u, err := a.Open(path)
		if err != nil {
			return err
		}
		wb.SelectFile(u)
	}
	return a.Viewer.View(ctx, wb)
}

// Run analyzes the requested file and then performs the requested action.
// The analysis always runs first so the group and metric choices the other
// actions send are the ones the backend reported.
func (a *App) Run(ctx context.Context, req Request) (*csvstory.Workbench, error) {
	u, err := a.Open(req.Path)
	if err != nil {
		return nil, err
	}
	wb := a.NewWorkbench()
	wb.SelectFile(u)

	if err := wb.Run(ctx, csvstory.ActionAnalyze); err != nil {
		return wb, fmt.Errorf("analyze: %w", err)
	}
	if req.Tune != nil {
		wb.UpdateForm(req.Tune)
	}
	if req.Action == "" || req.Action == csvstory.ActionAnalyze {
		return wb, nil
	}
	if err := wb.Run(ctx, req.Action); err != nil {
		return wb, fmt.Errorf("%s: %w", req.Action, err)
	}
	return wb, nil
}

// Print writes every non-empty panel of section with its title.
func (a *App) Print(s csvstory.State, section csvstory.Section) {
	for _, p := range csvstory.SectionPanels[section] {
		body := s.Panels[p]
		if body == "" {
			continue
		}
		fmt.Fprintf(a.Stdout, "%s\n%s\n\n", p.Title(), body)
	}
}

// AnalyzeJSON sends the analysis request for path and prints the raw result
// as indented JSON.
func (a *App) AnalyzeJSON(ctx context.Context, path string) error {
	u, err := a.Open(path)
	if err != nil {
		return err
	}
	if !csvstory.HasCSVExtension(u.Name) {
		return fmt.Errorf("%w: %s", csvstory.ErrInvalidExtension, u.Name)
	}
	res, err := a.Backend.Analyze(ctx, csvstory.Payload{File: u, Fields: a.Form.AnalyzeFields()})
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Stdout, a.highlight("JSON", string(data)))
	return nil
}

// Export saves the images of every gallery of section into dir and returns
// the written paths.
func (a *App) Export(ctx context.Context, wb *csvstory.Workbench, section csvstory.Section, dir string) ([]string, error) {
	if a.Exporter == nil {
		return nil, ErrNoExporter
	}
	var paths []string
	for _, p := range csvstory.SectionPanels[section] {
		if !p.IsGallery() {
			continue
		}
		prefix := strings.TrimSuffix(string(p), "_gallery")
		written, err := a.Exporter.Export(ctx, dir, prefix, wb.Gallery(p))
		if err != nil {
			return paths, err
		}
		paths = append(paths, written...)
	}
	return paths, nil
}

// Report runs every action for path and writes a standalone HTML page.
// Generation failures show up in the report's log panels; only a failed
// analysis aborts it. The app's Renderer must produce HTML fragments.
func (a *App) Report(ctx context.Context, path string, w io.Writer) error {
	wb, err := a.Run(ctx, Request{Path: path, Action: csvstory.ActionAnalyze})
	if err != nil {
		return err
	}

	// A failed section is rendered into the report; the others still run.
	var wg sync.WaitGroup
	for _, action := range []csvstory.Action{csvstory.ActionSequence, csvstory.ActionTemplates, csvstory.ActionStory} {
		wg.Go(func() {
			if err := wb.Run(ctx, action); err != nil {
				a.logger().Warn("report section failed", slog.String("action", string(action)), slog.Any("error", err))
			}
		})
	}
	wg.Wait()

	return html.WriteReport(w, wb.State(), a.now())
}

// Download saves the backend's image archive to dst. A partial file is
// removed on failure.
func (a *App) Download(ctx context.Context, dst string) (int64, error) {
	f, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	n, err := a.NewWorkbench().Download(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("download: %w", err)
	}
	return n, nil
}

// History prints the last limit journal entries as a table. A limit of zero
// prints everything.
func (a *App) History(path string, limit int) error {
	events, err := jsonl.Load(path)
	if err != nil {
		return err
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	rows := make([]csvstory.Row, 0, len(events))
	for _, ev := range events {
		rows = append(rows, csvstory.NewRow(
			"time", ev.Time.Local().Format(time.DateTime),
			"kind", string(ev.Kind),
			"action", string(ev.Action),
			"message", ev.Message,
		))
	}
	fmt.Fprintln(a.Stdout, a.Renderer.Table(rows, 0))
	return nil
}

func (a *App) highlight(language, source string) string {
	if a.Highlight == nil {
		return source
	}
	return a.Highlight(language, source)
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return NewRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
}
