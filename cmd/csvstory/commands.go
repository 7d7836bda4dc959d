package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	lg "github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/csvstory"
	"github.com/fwojciec/csvstory/bubbletea"
	"github.com/fwojciec/csvstory/chroma"
	"github.com/fwojciec/csvstory/clipboard"
	"github.com/fwojciec/csvstory/fs"
	"github.com/fwojciec/csvstory/html"
	csvhttp "github.com/fwojciec/csvstory/http"
	"github.com/fwojciec/csvstory/jsonl"
	"github.com/fwojciec/csvstory/lipgloss"
	"github.com/fwojciec/csvstory/logging"
	"github.com/fwojciec/csvstory/viper"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// cli holds the global flags and everything built from them.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	cfgFile    string
	backendURL string
	timeoutSec int
	logLevel   string
	journal    string
	noJournal  bool
	cache      bool

	cfg    *viper.Config
	client *csvhttp.Client
	theme  *lipgloss.Theme
}

// NewRootCmd builds the csvstory command tree writing to stdout and stderr.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "csvstory [file.csv]",
		Short: "Explore CSV datasets with an analytics backend",
		Long: `csvstory uploads a CSV file to the analytics backend, shows its preview,
schema and anomalies, and generates chart sequences, chart templates and a
narrative with derived charts. Without a subcommand it opens the terminal UI.`,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return c.setup(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return c.tuiApp().Interactive(cmd.Context(), path)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.PersistentFlags()
	f.StringVar(&c.cfgFile, "config", "", "config file (default is ~/.config/csvstory/config.yaml)")
	f.StringVar(&c.backendURL, "backend", "", "backend base URL (overrides config)")
	f.IntVar(&c.timeoutSec, "timeout", 0, "request timeout in seconds, 0 disables it (overrides config)")
	f.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	f.StringVar(&c.journal, "journal", "", "event journal path (overrides config)")
	f.BoolVar(&c.noJournal, "no-journal", false, "do not record events")
	f.BoolVar(&c.cache, "cache", false, "reuse cached analysis results for identical requests")

	root.AddCommand(
		c.analyzeCmd(),
		c.generateCmd("sequence", "Generate the native chart sequence", csvstory.ActionSequence),
		c.generateCmd("templates", "Generate the selected chart templates", csvstory.ActionTemplates),
		c.generateCmd("story", "Generate the narrative and its derived charts", csvstory.ActionStory),
		c.reportCmd(),
		c.downloadCmd(),
		c.historyCmd(),
		c.configCmd(),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds the backend
// client.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := viper.Load(c.cfgFile)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("backend") {
		cfg.BackendURL = c.backendURL
	}
	if f.Changed("timeout") {
		cfg.HTTPTimeoutSec = c.timeoutSec
	}
	if f.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if f.Changed("journal") {
		cfg.JournalPath = c.journal
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.Init(level, cfg.LogFormat, c.stderr)

	theme, err := lipgloss.ThemeByName(cfg.Theme)
	if err != nil {
		return err
	}
	c.theme = theme

	client, err := csvhttp.NewClient(cfg.BackendURL,
		csvhttp.WithTimeout(cfg.HTTPTimeout()),
		csvhttp.WithLogger(logging.New("http")),
	)
	if err != nil {
		return err
	}
	c.client = client
	return nil
}

func (c *cli) backend() csvstory.Backend {
	if !c.cache {
		return c.client
	}
	dir := c.cfg.CacheDir
	if dir == "" {
		dir = fs.DefaultCacheDir()
	}
	return fs.NewCachingBackend(c.client, dir)
}

func (c *cli) journalPath() string {
	if c.cfg.JournalPath != "" {
		return c.cfg.JournalPath
	}
	return fs.DefaultJournalPath()
}

func (c *cli) app(renderer csvstory.Renderer) *App {
	a := &App{
		Backend:  c.backend(),
		Renderer: renderer,
		Exporter: fs.NewExporter(c.client,
			fs.WithWorkers(c.cfg.Workers),
			fs.WithLogger(logging.New("export")),
		),
		Open:      fs.Open,
		Form:      c.cfg.ApplyForm(csvstory.DefaultForm()),
		Logger:    logging.New("workbench"),
		Stdout:    c.stdout,
		Highlight: c.highlighter(),
	}
	if !c.noJournal {
		a.Sinks = append(a.Sinks, jsonl.NewJournal(c.journalPath()))
	}
	return a
}

// terminalApp renders into the terminal with the configured theme.
func (c *cli) terminalApp(opts ...lipgloss.RendererOption) *App {
	base := []lipgloss.RendererOption{
		lipgloss.WithTheme(c.theme),
		lipgloss.WithLipglossRenderer(lg.NewRenderer(c.stdout)),
	}
	return c.app(lipgloss.NewRenderer(append(base, opts...)...))
}

func (c *cli) tuiApp() *App {
	lr := lg.NewRenderer(c.stdout)
	a := c.app(lipgloss.NewRenderer(
		lipgloss.WithTheme(c.theme),
		lipgloss.WithLipglossRenderer(lr),
	))
	a.Viewer = bubbletea.NewViewer(
		bubbletea.WithRenderer(lr),
		bubbletea.WithPalette(c.theme.Palette()),
		bubbletea.WithFileOpener(fs.Open),
		bubbletea.WithClipboard(clipboard.New()),
		bubbletea.WithURLResolver(c.resolveURL),
		bubbletea.WithDownloader(func(ctx context.Context) (string, error) {
			dst := filepath.Join(c.cfg.DownloadDir, "images.zip")
			if _, err := a.Download(ctx, dst); err != nil {
				return "", err
			}
			return dst, nil
		}),
	)
	return a
}

func (c *cli) resolveURL(src string) string {
	u, err := c.client.ResolveURL(src)
	if err != nil {
		return src
	}
	return u
}

// highlighter returns a chroma-backed colouriser when stdout is a terminal.
func (c *cli) highlighter() func(language, source string) string {
	f, ok := c.stdout.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return nil
	}
	tok, err := chroma.NewTokenizer(chroma.StyleFromPalette(c.theme.Palette()))
	if err != nil {
		return nil
	}
	lr := lg.NewRenderer(c.stdout)
	return func(language, source string) string {
		tokens := tok.Tokenize(language, source)
		if tokens == nil {
			return source
		}
		return lipgloss.PaintTokens(lr, tokens)
	}
}

func (c *cli) analyzeCmd() *cobra.Command {
	var (
		format string
		method string
		group  string
		metric string
	)
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Print the preview, schema and anomaly tables of a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var a *App
			switch format {
			case "json":
				a = c.app(lipgloss.NewRenderer())
			case "markdown":
				a = c.terminalApp(lipgloss.WithTableMode(lipgloss.TableMarkdown), lipgloss.WithMarkdownStyle("notty"))
			case "text":
				a = c.terminalApp()
			default:
				return fmt.Errorf("unknown format %q: use text, markdown or json", format)
			}
			if method != "" {
				a.Form.Method = method
			}
			if format == "json" {
				return a.AnalyzeJSON(cmd.Context(), args[0])
			}
			wb, err := a.Run(cmd.Context(), Request{Path: args[0], Action: csvstory.ActionAnalyze, Tune: tune(group, metric)})
			if wb != nil {
				a.Print(wb.State(), csvstory.SectionAnalysis)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, markdown or json")
	cmd.Flags().StringVar(&method, "method", "", "outlier method: iqr, z or mad")
	cmd.Flags().StringVar(&group, "group", "", "group column")
	cmd.Flags().StringVar(&metric, "metric", "", "metric column")
	return cmd
}

func (c *cli) generateCmd(use, short string, action csvstory.Action) *cobra.Command {
	var (
		out    string
		group  string
		metric string
		theme  string
	)
	section := sectionOf(action)
	cmd := &cobra.Command{
		Use:   use + " FILE",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.terminalApp()
			t := tune(group, metric)
			if theme != "" {
				base := t
				t = func(f *csvstory.Form) {
					if base != nil {
						base(f)
					}
					f.Sequence.Theme = theme
					f.Templates.Theme = theme
				}
			}
			wb, err := a.Run(cmd.Context(), Request{Path: args[0], Action: action, Tune: t})
			if wb != nil {
				a.Print(wb.State(), section)
			}
			if err != nil || out == "" {
				return err
			}
			paths, err := a.Export(cmd.Context(), wb, section, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stderr, "Saved %d images to %s\n", len(paths), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "directory to save the generated images to")
	cmd.Flags().StringVar(&group, "group", "", "group column")
	cmd.Flags().StringVar(&metric, "metric", "", "metric column")
	cmd.Flags().StringVar(&theme, "theme", "", "chart theme")
	return cmd
}

func (c *cli) reportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "report FILE",
		Short: "Run every generator and write a standalone HTML report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app(html.NewRenderer(html.WithSourceResolver(c.resolveURL)))
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			err = a.Report(cmd.Context(), args[0], f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(out)
				return err
			}
			fmt.Fprintf(c.stderr, "Report written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "report.html", "report file")
	return cmd
}

func (c *cli) downloadCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the archive of every image the backend generated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dst := out
			if dst == "" {
				dst = filepath.Join(c.cfg.DownloadDir, "images.zip")
			}
			n, err := c.terminalApp().Download(cmd.Context(), dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stderr, "Saved %d bytes to %s\n", n, dst)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "archive path (default is images.zip in download_dir)")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded workbench events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.terminalApp().History(c.journalPath(), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "number of most recent events to show, 0 for all")
	return cmd
}

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or show the configuration file",
		// Config commands must work with a missing or invalid file.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.configPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := viper.Save(viper.Default(), path); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := viper.Load(c.cfgFile)
			if err != nil {
				return err
			}
			data, err := viper.Marshal(cfg)
			if err != nil {
				return err
			}
			path, err := c.configPath()
			if err != nil {
				return err
			}
			c.cfg, c.theme = cfg, lipgloss.DefaultTheme()
			if t, err := lipgloss.ThemeByName(cfg.Theme); err == nil {
				c.theme = t
			}
			out := string(data)
			if h := c.highlighter(); h != nil {
				out = h(chroma.NewDetector().DetectFromPath(path), out)
			}
			fmt.Fprint(c.stdout, out)
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func (c *cli) configPath() (string, error) {
	if c.cfgFile != "" {
		return c.cfgFile, nil
	}
	return viper.DefaultPath()
}

// tune returns a form adjustment selecting group and metric, or nil when
// neither is set.
func tune(group, metric string) func(f *csvstory.Form) {
	if group == "" && metric == "" {
		return nil
	}
	return func(f *csvstory.Form) {
		if group != "" {
			f.GroupCol = group
			f.Templates.GroupCol = group
		}
		if metric != "" {
			f.MetricChoice = metric
			f.Templates.MetricCol = metric
		}
	}
}

func sectionOf(action csvstory.Action) csvstory.Section {
	for s, a := range csvstory.SectionAction {
		if a == action {
			return s
		}
	}
	return csvstory.DefaultSection
}
