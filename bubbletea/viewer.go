// Package bubbletea provides a terminal UI for the csvstory workbench using
// the Bubble Tea framework.
package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/csvstory"
)

// Compile-time interface verification.
var _ csvstory.Viewer = (*Viewer)(nil)

// OpenFunc loads the file at path for upload.
type OpenFunc func(path string) (csvstory.Upload, error)

// DownloadFunc saves the image archive and returns where it was written.
type DownloadFunc func(ctx context.Context) (string, error)

type mode int

const (
	modeBrowse mode = iota
	modeOpen
	modeAlert
	modeLightbox
)

const (
	tabBarHeight    = 3
	statusBarHeight = 1
	helpHeight      = 1
)

type actionDoneMsg struct {
	action csvstory.Action
	err    error
}

type downloadDoneMsg struct {
	path string
	err  error
}

// Model is the Bubble Tea model driving a csvstory.Workbench.
type Model struct {
	ctx   context.Context
	wb    *csvstory.Workbench
	state csvstory.State

	// Collaborators
	clipboard csvstory.Clipboard
	open      OpenFunc
	download  DownloadFunc
	resolve   func(src string) string

	// UI components
	viewport viewport.Model
	spinner  spinner.Model
	input    textinput.Model
	help     help.Model
	keymap   KeyMap

	// UI state
	mode        mode
	alert       string
	status      string
	offsets     map[csvstory.Panel]int
	gallery     csvstory.Panel
	image       int
	chartCursor int
	palette     csvstory.Palette
	renderer    *lipgloss.Renderer
	width       int
	height      int
	ready       bool
	pendingKey  string
	loggedOut   bool
}

// Option configures a Model.
type Option func(*Model)

// WithRenderer sets a custom lipgloss renderer for the model.
func WithRenderer(r *lipgloss.Renderer) Option {
	return func(m *Model) {
		m.renderer = r
	}
}

// WithPalette sets the UI colors.
func WithPalette(p csvstory.Palette) Option {
	return func(m *Model) {
		m.palette = p
	}
}

// WithClipboard enables copying the story and image sources.
func WithClipboard(c csvstory.Clipboard) Option {
	return func(m *Model) {
		m.clipboard = c
	}
}

// WithFileOpener sets how a typed path becomes an upload.
func WithFileOpener(fn OpenFunc) Option {
	return func(m *Model) {
		m.open = fn
	}
}

// WithDownloader enables the download key.
func WithDownloader(fn DownloadFunc) Option {
	return func(m *Model) {
		m.download = fn
	}
}

// WithURLResolver sets how image sources are shown in the lightbox.
func WithURLResolver(fn func(src string) string) Option {
	return func(m *Model) {
		m.resolve = fn
	}
}

// NewModel creates a Model for wb. Backend requests started from the UI run
// under ctx.
func NewModel(ctx context.Context, wb *csvstory.Workbench, opts ...Option) Model {
	input := textinput.New()
	input.Prompt = "CSV file: "
	input.Placeholder = "path/to/data.csv"

	m := Model{
		ctx:      ctx,
		wb:       wb,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		input:    input,
		help:     help.New(),
		keymap:   DefaultKeyMap(),
		palette:  defaultPalette(),
		renderer: lipgloss.DefaultRenderer(),
		resolve:  func(src string) string { return src },
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.state = wb.State()
	m.syncBindings()
	return m
}

// LoggedOut reports whether the session ended through the Logout tab.
func (m Model) LoggedOut() bool {
	return m.loggedOut
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	case tea.MouseMsg:
		if m.mode == modeLightbox {
			if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
				m.wb.ClickLightbox(csvstory.ClickBackdrop)
			}
		} else if m.ready {
			m.viewport, cmd = m.viewport.Update(msg)
		}
	case actionDoneMsg:
		if !errors.Is(msg.err, csvstory.ErrStale) {
			m.status = actionStatus(msg.action, msg.err)
		}
	case downloadDoneMsg:
		if msg.err != nil {
			m.status = "Download failed: " + csvstory.ErrorMessage(msg.err)
		} else {
			m.status = "Images saved to " + msg.path
		}
	case spinner.TickMsg:
		if m.wb.State().Busy() {
			m.spinner, cmd = m.spinner.Update(msg)
		}
	}
	m.sync()
	if m.loggedOut {
		return m, tea.Quit
	}
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	h := max(height-tabBarHeight-statusBarHeight-helpHeight, 1)
	if !m.ready {
		m.viewport = viewport.New(width, h)
		m.ready = true
		return
	}
	m.viewport.Width = width
	m.viewport.Height = h
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.mode {
	case modeAlert:
		switch msg.String() {
		case "enter", "esc", " ", "q":
			m.alert = ""
			m.mode = modeBrowse
		}
		return nil
	case modeOpen:
		return m.handleOpenKey(msg)
	case modeLightbox:
		return m.handleLightboxKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m *Model) handleOpenKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.mode = modeBrowse
		return nil
	case tea.KeyEnter:
		path := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		m.mode = modeBrowse
		if path == "" {
			return nil
		}
		if m.open == nil {
			m.status = "Opening files is not configured"
			return nil
		}
		up, err := m.open(path)
		if err != nil {
			m.alert = fmt.Sprintf("Cannot open %s: %v", path, err)
			m.mode = modeAlert
			return nil
		}
		m.wb.SelectFile(up)
		m.status = "Selected " + up.Name
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleLightboxKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Close), key.Matches(msg, m.keymap.Quit):
		m.wb.ClickLightbox(csvstory.ClickClose)
	case key.Matches(msg, m.keymap.PrevImage):
		m.showImage(m.image - 1)
	case key.Matches(msg, m.keymap.NextImage):
		m.showImage(m.image + 1)
	case key.Matches(msg, m.keymap.Copy):
		m.copy(m.resolve(m.state.Lightbox.Src), "Image URL")
	}
	return nil
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) tea.Cmd {
	// Handle multi-key sequences (gg for go to top)
	if m.pendingKey == "g" && key.Matches(msg, m.keymap.GotoTop) {
		m.viewport.GotoTop()
		m.pendingKey = ""
		return nil
	}
	if key.Matches(msg, m.keymap.GotoTop) {
		m.pendingKey = "g"
		return nil
	}
	m.pendingKey = ""

	active := m.state.View.Active
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit
	case key.Matches(msg, m.keymap.GotoBottom):
		m.viewport.GotoBottom()
	case key.Matches(msg, m.keymap.HalfPageUp):
		m.viewport.HalfPageUp()
	case key.Matches(msg, m.keymap.HalfPageDown):
		m.viewport.HalfPageDown()
	case key.Matches(msg, m.keymap.Up):
		m.viewport.ScrollUp(1)
	case key.Matches(msg, m.keymap.Down):
		m.viewport.ScrollDown(1)
	case key.Matches(msg, m.keymap.NextSection):
		m.switchSection(1)
	case key.Matches(msg, m.keymap.PrevSection):
		m.switchSection(-1)
	case key.Matches(msg, m.keymap.JumpSection):
		i := int(msg.String()[0] - '1')
		m.gotoSection(csvstory.Navigation[i])
	case key.Matches(msg, m.keymap.Open):
		m.input.SetValue("")
		m.mode = modeOpen
		return m.input.Focus()
	case key.Matches(msg, m.keymap.Run):
		return m.start(csvstory.SectionAction[active])
	case key.Matches(msg, m.keymap.Download):
		return m.startDownload()
	case key.Matches(msg, m.keymap.Copy):
		if m.state.Story == "" {
			m.status = "No story to copy yet"
			return nil
		}
		m.copy(m.state.Story, "Story")
	case key.Matches(msg, m.keymap.ViewImage):
		m.openFirstImage()
	case key.Matches(msg, m.keymap.Method):
		m.wb.UpdateForm(func(f *csvstory.Form) {
			f.Method = cycleValue(csvstory.Methods, f.Method, 1)
		})
	case key.Matches(msg, m.keymap.NextGroup):
		m.wb.CycleSelect(csvstory.SelectGroup, 1)
	case key.Matches(msg, m.keymap.PrevGroup):
		m.wb.CycleSelect(csvstory.SelectGroup, -1)
	case key.Matches(msg, m.keymap.NextMetric):
		m.wb.CycleSelect(csvstory.SelectMetric, 1)
	case key.Matches(msg, m.keymap.PrevMetric):
		m.wb.CycleSelect(csvstory.SelectMetric, -1)
	case key.Matches(msg, m.keymap.ChartTheme):
		m.wb.UpdateForm(func(f *csvstory.Form) {
			if opts := chartOptions(f, active); opts != nil {
				opts.Theme = cycleValue(csvstory.Themes, opts.Theme, 1)
			}
		})
	case key.Matches(msg, m.keymap.ToggleSimple):
		m.wb.UpdateForm(func(f *csvstory.Form) {
			if opts := chartOptions(f, active); opts != nil {
				opts.Simple = !opts.Simple
			}
		})
	case key.Matches(msg, m.keymap.ChartCursor):
		if active == csvstory.SectionTemplates {
			m.chartCursor = (m.chartCursor + 1) % len(csvstory.ChartTypes)
		}
	case key.Matches(msg, m.keymap.ToggleChart):
		if active == csvstory.SectionTemplates {
			ct := csvstory.ChartTypes[m.chartCursor]
			m.wb.UpdateForm(func(f *csvstory.Form) { f.ToggleChartType(ct) })
		}
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

// chartOptions returns the chart settings edited from section s, if any.
func chartOptions(f *csvstory.Form, s csvstory.Section) *csvstory.ChartOptions {
	switch s {
	case csvstory.SectionSequence:
		return &f.Sequence
	case csvstory.SectionTemplates:
		return &f.Templates.ChartOptions
	}
	return nil
}

func (m *Model) switchSection(delta int) {
	sections := csvstory.Navigation[:len(csvstory.Navigation)-1] // without Logout
	i := slices.Index(sections, m.state.View.Active)
	i = ((i+delta)%len(sections) + len(sections)) % len(sections)
	m.gotoSection(sections[i])
}

func (m *Model) gotoSection(s csvstory.Section) {
	if err := m.wb.SwitchSection(s); errors.Is(err, csvstory.ErrLogout) {
		m.loggedOut = true
	}
}

func (m *Model) start(a csvstory.Action) tea.Cmd {
	p, err := m.wb.Start(a)
	if err != nil {
		// Precondition failures raise a Workbench alert picked up by sync.
		return nil
	}
	ctx := m.ctx
	m.status = ""
	return tea.Batch(
		func() tea.Msg { return actionDoneMsg{action: a, err: p.Do(ctx)} },
		m.spinner.Tick,
	)
}

func (m *Model) startDownload() tea.Cmd {
	if !m.state.DownloadVisible() {
		return nil
	}
	if m.download == nil {
		m.status = "Download is not configured"
		return nil
	}
	fn, ctx := m.download, m.ctx
	m.status = "Downloading images..."
	return func() tea.Msg {
		path, err := fn(ctx)
		return downloadDoneMsg{path: path, err: err}
	}
}

func (m *Model) copy(text, what string) {
	if m.clipboard == nil {
		m.status = "Clipboard is not available"
		return
	}
	if err := m.clipboard.Copy(text); err != nil {
		m.status = "Copy failed: " + err.Error()
		return
	}
	m.status = what + " copied to clipboard"
}

func (m *Model) openFirstImage() {
	for _, p := range csvstory.SectionPanels[m.state.View.Active] {
		if p.IsGallery() && m.wb.Gallery(p).Len() > 0 {
			m.gallery = p
			m.showImage(0)
			return
		}
	}
	m.status = "No images in this section"
}

func (m *Model) showImage(i int) {
	n := m.wb.Gallery(m.gallery).Len()
	if n == 0 {
		return
	}
	i = (i%n + n) % n
	if err := m.wb.OpenImage(m.gallery, i); err == nil {
		m.image = i
	}
}

// sync refreshes the state snapshot and consumes pending alert and scroll
// requests.
func (m *Model) sync() {
	m.state = m.wb.State()
	if msg, ok := m.wb.TakeAlert(); ok {
		m.alert = msg
		m.mode = modeAlert
	}
	switch {
	case m.mode == modeAlert, m.mode == modeOpen:
	case m.state.Lightbox.Visible:
		m.mode = modeLightbox
	default:
		m.mode = modeBrowse
	}
	m.syncBindings()
	if !m.ready {
		return
	}

	content, offsets := m.renderContent()
	m.viewport.SetContent(content)
	m.offsets = offsets
	if p, ok := m.wb.TakeScroll(); ok {
		if off, found := offsets[p]; found {
			m.viewport.SetYOffset(off)
		} else {
			m.viewport.GotoTop()
		}
	}
}

func (m *Model) syncBindings() {
	m.keymap.Download.SetEnabled(m.state.DownloadVisible() && m.download != nil)
	m.keymap.Copy.SetEnabled(m.state.Story != "" && m.clipboard != nil)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	switch m.mode {
	case modeAlert:
		return m.overlay(m.alertView())
	case modeLightbox:
		return m.overlay(m.lightboxView())
	}

	bottom := m.help.View(m.keymap)
	if m.mode == modeOpen {
		bottom = m.input.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		TabBar(m.state.View.Active, m.palette, m.renderer),
		m.viewport.View(),
		m.statusBarView(),
		bottom,
	)
}

func (m Model) overlay(box string) string {
	return m.renderer.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) color(c csvstory.Color) lipgloss.Style {
	s := m.renderer.NewStyle()
	if c != "" {
		s = s.Foreground(lipgloss.Color(c))
	}
	return s
}

// renderContent renders the active section and returns the line offset of
// each panel shown.
func (m Model) renderContent() (string, map[csvstory.Panel]int) {
	var b strings.Builder
	offsets := make(map[csvstory.Panel]int)
	line := 0
	write := func(s string) {
		b.WriteString(s)
		line += strings.Count(s, "\n")
	}

	active := m.state.View.Active
	muted := m.color(m.palette.Muted).Italic(true)
	heading := m.color(m.palette.Heading).Bold(true)

	write(m.formSummary(active) + "\n")
	write(m.controlLine(active) + "\n\n")
	if !m.state.HasFile {
		write(muted.Render("No file selected. Press o to choose a CSV file.") + "\n\n")
	}

	for _, p := range csvstory.SectionPanels[active] {
		body := m.state.Panels[p]
		if body == "" {
			continue
		}
		offsets[p] = line
		write(heading.Render(p.Title()) + "\n")
		write(ExpandTabs(body, 0) + "\n\n")
	}
	return strings.TrimRight(b.String(), "\n"), offsets
}

func (m Model) formSummary(s csvstory.Section) string {
	f := m.state.Form
	label := m.color(m.palette.Muted)
	value := m.color(m.palette.Accent)
	field := func(name, v string) string {
		return label.Render(name+" ") + value.Render(v)
	}
	sep := label.Render("  ·  ")

	var parts []string
	switch s {
	case csvstory.SectionAnalysis:
		parts = []string{
			field("method", f.Method),
			field("group", f.GroupCol),
			field("metric", f.MetricChoice),
			field("k", fmt.Sprint(f.KIQR)),
			field("z", fmt.Sprint(f.ZThr)),
			field("mad", fmt.Sprint(f.MADThr)),
			field("min n", fmt.Sprint(f.MinN)),
			field("iso", fmt.Sprint(f.IsoFrac)),
		}
	case csvstory.SectionSequence:
		q := f.Sequence
		parts = []string{
			field("theme", q.Theme),
			field("simple", onOff(q.Simple)),
			field("top", fmt.Sprint(q.TopN)),
			field("group", f.GroupCol),
			field("metric", f.MetricChoice),
			field("line", q.LineX+" × "+q.LineY),
			field("heatmap", q.HeatmapRow+" × "+q.HeatmapCol),
		}
	case csvstory.SectionTemplates:
		q := f.Templates
		parts = []string{
			field("theme", q.Theme),
			field("simple", onOff(q.Simple)),
			field("group", q.GroupCol),
			field("metric", q.MetricCol),
		}
		var charts []string
		for i, ct := range csvstory.ChartTypes {
			mark := "[ ]"
			if slices.Contains(q.ChartTypes, ct) {
				mark = "[x]"
			}
			entry := mark + " " + ct
			if i == m.chartCursor {
				entry = value.Underline(true).Render(entry)
			} else {
				entry = label.Render(entry)
			}
			charts = append(charts, entry)
		}
		return strings.Join(parts, sep) + "\n" + strings.Join(charts, "  ")
	case csvstory.SectionInsights:
		parts = []string{
			field("group", f.GroupCol),
			field("metric", f.MetricChoice),
			field("method", f.Method),
			field("top", fmt.Sprint(f.Sequence.TopN)),
		}
	}
	return strings.Join(parts, sep)
}

func (m Model) controlLine(s csvstory.Section) string {
	action := csvstory.SectionAction[s]
	c := m.state.Controls[action]
	var line string
	if c.Disabled {
		line = m.spinner.View() + " " + m.color(m.palette.Warning).Render(c.Label)
	} else {
		line = m.color(m.palette.UIAccent).Bold(true).Render("[enter] " + c.Label)
	}
	if m.state.DownloadVisible() {
		line += "  " + m.color(m.palette.Success).Render("[d] Download images")
	}
	return line
}

func (m Model) alertView() string {
	box := m.renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.palette.Error)).
		Padding(1, 2).
		Width(min(60, max(m.width-4, 20)))
	body := m.color(m.palette.Error).Bold(true).Render("Alert") + "\n\n" +
		m.alert + "\n\n" +
		m.color(m.palette.Muted).Render("enter: dismiss")
	return box.Render(body)
}

func (m Model) lightboxView() string {
	lb := m.state.Lightbox
	n := m.wb.Gallery(m.gallery).Len()
	box := m.renderer.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color(m.palette.UIAccent)).
		Padding(1, 2).
		Width(min(80, max(m.width-4, 20)))
	body := m.color(m.palette.Heading).Bold(true).Render(lb.Caption) + "\n\n" +
		m.resolve(lb.Src) + "\n\n" +
		m.color(m.palette.Muted).Render(fmt.Sprintf("image %d/%d  h/l: previous/next  y: copy url  esc: close", m.image+1, n))
	return box.Render(body)
}

// statusBarView renders the status bar with file and position info.
func (m Model) statusBarView() string {
	barStyle := m.renderer.NewStyle().
		Background(lipgloss.Color(m.palette.UIBackground)).
		Foreground(lipgloss.Color(m.palette.UIForeground))
	sepStyle := barStyle.Foreground(lipgloss.Color(m.palette.Muted))

	file := "no file"
	if m.state.HasFile {
		file = m.state.FileName
	}
	sep := sepStyle.Render(" │ ")
	content := barStyle.Render(" "+file) + sep
	if m.status != "" {
		content += barStyle.Render(m.status) + sep
	}
	content += barStyle.Render(m.scrollPosition() + " ")

	// Pad to full width with background
	if w := lipgloss.Width(content); m.width > w {
		content += barStyle.Render(strings.Repeat(" ", m.width-w))
	}
	return content
}

// scrollPosition returns a string indicating the scroll position.
func (m Model) scrollPosition() string {
	if m.viewport.AtTop() {
		return "Top"
	}
	if m.viewport.AtBottom() {
		return "Bot"
	}
	return fmt.Sprintf("%2d%%", int(m.viewport.ScrollPercent()*100))
}

func actionStatus(a csvstory.Action, err error) string {
	name := strings.ToUpper(string(a[:1])) + string(a[1:])
	if err != nil {
		return name + " failed"
	}
	return name + " finished"
}

func cycleValue(values []string, current string, delta int) string {
	if len(values) == 0 {
		return current
	}
	i := slices.Index(values, current)
	if i < 0 {
		return values[0]
	}
	return values[((i+delta)%len(values)+len(values))%len(values)]
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func defaultPalette() csvstory.Palette {
	return csvstory.Palette{
		Foreground:   "#cdd6f4",
		Success:      "#a6e3a1",
		Error:        "#f38ba8",
		Warning:      "#f9e2af",
		Muted:        "#7f849c",
		Heading:      "#89b4fa",
		Accent:       "#f5c2e7",
		UIBackground: "#313244",
		UIForeground: "#cdd6f4",
		UIAccent:     "#89b4fa",
	}
}

// Viewer implements csvstory.Viewer using a Bubble Tea TUI.
type Viewer struct {
	opts []Option
}

// NewViewer creates a new Viewer whose models are built with opts.
func NewViewer(opts ...Option) *Viewer {
	return &Viewer{opts: opts}
}

// View displays the workbench and blocks until the user exits.
func (v *Viewer) View(ctx context.Context, wb *csvstory.Workbench) error {
	m := NewModel(ctx, wb, v.opts...)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
