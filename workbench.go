package csvstory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"
)

// Action identifies a backend request the user can trigger.
type Action string

// Actions. ActionCharts has no control of its own: it runs only after a
// successful ActionStory.
const (
	ActionAnalyze   Action = "analyze"
	ActionSequence  Action = "sequence"
	ActionStory     Action = "story"
	ActionCharts    Action = "charts"
	ActionTemplates Action = "templates"
)

// Actions lists every action in display order.
var Actions = []Action{ActionAnalyze, ActionSequence, ActionTemplates, ActionStory, ActionCharts}

// Control is the state of an action trigger.
type Control struct {
	Label    string
	Disabled bool
}

// controlLabels holds the idle and working labels of each triggerable action.
var controlLabels = map[Action][2]string{
	ActionAnalyze:   {"Analyze CSV", "Analyzing..."},
	ActionSequence:  {"Generate sequence", "Generating sequence..."},
	ActionTemplates: {"Generate templates", "Generating templates..."},
	ActionStory:     {"Generate insights", "Generating insights..."},
}

func idleControl(a Action) Control {
	return Control{Label: controlLabels[a][0]}
}

// Triggerable reports whether a is started directly by the user.
func (a Action) Triggerable() bool {
	_, ok := controlLabels[a]
	return ok
}

// State is a point-in-time copy of everything the Workbench displays.
type State struct {
	FileName string
	HasFile  bool
	Form     Form
	Groups   Select
	Metrics  Select
	Session  Session
	Panels   map[Panel]string
	Controls map[Action]Control
	View     ViewState
	Lightbox Lightbox
	Alert    string
	Story    string // Narrative text of the last successful story
}

// DownloadVisible reports whether the download action is shown.
func (s State) DownloadVisible() bool {
	return s.View.DownloadVisible()
}

// Busy reports whether any action is waiting for the backend.
func (s State) Busy() bool {
	for _, c := range s.Controls {
		if c.Disabled {
			return true
		}
	}
	return false
}

// Workbench owns the client state: the selected file, the form, the output
// targets, the session and the view. It is safe for concurrent use. Events
// are delivered to sinks after the lock is released, so a sink may call back
// into the Workbench.
type Workbench struct {
	backend  Backend
	renderer Renderer
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	file      *Upload
	form      Form
	groups    Select
	metrics   Select
	session   Session
	panels    map[Panel]string
	galleries map[Panel]*Artifact
	controls  map[Action]Control
	tokens    map[Action]uint64
	active    Section
	lightbox  Lightbox
	alert     string
	story     string
	scroll    Panel
	scrollSet bool
	sinks     []EventSink
	queue     []Event
}

// WorkbenchOption configures a Workbench.
type WorkbenchOption func(*Workbench)

// WithLogger sets the logger used for Workbench events.
func WithLogger(l *slog.Logger) WorkbenchOption {
	return func(w *Workbench) {
		w.logger = l
	}
}

// WithEventSink adds a sink that receives every Workbench event.
func WithEventSink(s EventSink) WorkbenchOption {
	return func(w *Workbench) {
		w.sinks = append(w.sinks, s)
	}
}

// WithClock sets the time source for event timestamps.
func WithClock(now func() time.Time) WorkbenchOption {
	return func(w *Workbench) {
		w.now = now
	}
}

// WithForm sets the initial form values.
func WithForm(f Form) WorkbenchOption {
	return func(w *Workbench) {
		w.form = f
	}
}

// NewWorkbench returns a Workbench in its initial state: no file, default
// form, empty targets, empty session, analysis section active.
func NewWorkbench(backend Backend, renderer Renderer, opts ...WorkbenchOption) *Workbench {
	w := &Workbench{
		backend:   backend,
		renderer:  renderer,
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
		form:      DefaultForm(),
		groups:    Select{Name: SelectGroup, Value: DefaultGroupCol},
		metrics:   Select{Name: SelectMetric, Value: SentinelMetric},
		panels:    make(map[Panel]string),
		galleries: make(map[Panel]*Artifact),
		controls:  make(map[Action]Control),
		tokens:    make(map[Action]uint64),
		active:    DefaultSection,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.session.Reset()
	for a := range controlLabels {
		w.controls[a] = idleControl(a)
	}
	return w
}

// Subscribe adds an event sink after construction.
func (w *Workbench) Subscribe(s EventSink) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sinks = append(w.sinks, s)
}

// SelectFile makes u the selected file and resets every file-dependent
// piece of state. Any extension is accepted here; it is validated when an
// action starts.
func (w *Workbench) SelectFile(u Upload) {
	w.mu.Lock()
	w.file = &u
	w.resetLocked()
	w.emitLocked(Event{Kind: EventFileSelected, Message: u.Name})
	w.mu.Unlock()
	w.flush()
}

// ClearFile drops the selected file and resets file-dependent state.
func (w *Workbench) ClearFile() {
	w.mu.Lock()
	w.file = nil
	w.resetLocked()
	w.mu.Unlock()
	w.flush()
}

// resetLocked restores the state that depends on the selected file. Every
// in-flight response becomes stale and every control is enabled again.
func (w *Workbench) resetLocked() {
	w.form.ResetSelections()
	w.groups.Value = w.form.GroupCol
	w.metrics.Value = w.form.MetricChoice

	clear(w.panels)
	clear(w.galleries)
	w.session.Reset()
	w.story = ""

	for _, a := range Actions {
		w.tokens[a]++
	}
	for a := range controlLabels {
		w.controls[a] = idleControl(a)
	}
	w.lightbox.Close()
	w.emitLocked(Event{Kind: EventReset})
}

// Pending is an action that passed its preconditions and is ready to call
// the backend.
type Pending struct {
	wb      *Workbench
	action  Action
	token   uint64
	payload Payload
}

// Action returns the pending action.
func (p *Pending) Action() Action { return p.action }

// Token returns the fencing token of the request.
func (p *Pending) Token() uint64 { return p.token }

// Payload returns the request payload built at start time.
func (p *Pending) Payload() Payload { return p.payload }

// Run starts action and waits for its response.
func (w *Workbench) Run(ctx context.Context, action Action) error {
	p, err := w.Start(action)
	if err != nil {
		return err
	}
	return p.Do(ctx)
}

// Start checks the preconditions of action, builds its payload from the
// current form, disables its control and shows a working message. The
// returned Pending performs the request.
func (w *Workbench) Start(action Action) (*Pending, error) {
	w.mu.Lock()
	p, err := w.startLocked(action)
	w.mu.Unlock()
	w.flush()
	return p, err
}

func (w *Workbench) startLocked(action Action) (*Pending, error) {
	if !action.Triggerable() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if w.file == nil {
		w.alertLocked("Please choose a CSV file first.")
		return nil, ErrNoFile
	}
	if !HasCSVExtension(w.file.Name) {
		name := w.file.Name
		w.file = nil
		w.resetLocked()
		w.alertLocked(fmt.Sprintf("%s is not a CSV file. Please choose a .csv file.", name))
		return nil, fmt.Errorf("%w: %s", ErrInvalidExtension, name)
	}

	payload := Payload{File: *w.file}
	switch action {
	case ActionAnalyze:
		payload.Fields = w.form.AnalyzeFields()
		w.panels[PanelHead] = w.renderer.Message("Analyzing CSV...")
	case ActionSequence:
		payload.Fields = w.form.SequenceFields()
		w.setGalleryLocked(PanelSequenceGallery, nil, w.renderer.Message("Generating 6 steps (this may take a while)..."))
		w.panels[PanelSequenceLog] = ""
	case ActionTemplates:
		payload.Fields = w.form.TemplateFields()
		w.setGalleryLocked(PanelTemplateGallery, nil, w.renderer.Message("Generating templates..."))
		w.panels[PanelTemplateLog] = ""
	case ActionStory:
		payload.Fields = w.form.StoryFields()
		w.story = ""
		// The new flow owns the chart target; a chained request from an
		// earlier story must not land in it.
		w.tokens[ActionCharts]++
		w.panels[PanelStory] = w.renderer.Message("Generating insights and recommendations...")
		w.setGalleryLocked(PanelChartGallery, nil, w.renderer.Message("Charts will be generated after the insights."))
		w.panels[PanelChartLog] = ""
	}
	return w.beginLocked(action, payload), nil
}

func (w *Workbench) beginLocked(action Action, payload Payload) *Pending {
	w.tokens[action]++
	token := w.tokens[action]
	if action.Triggerable() {
		w.controls[action] = Control{Label: controlLabels[action][1], Disabled: true}
	}
	w.emitLocked(Event{Kind: EventStarted, Action: action, Token: token})
	return &Pending{wb: w, action: action, token: token, payload: payload}
}

// Do sends the request and applies the response if it is still the latest
// for its action. A superseded response is discarded and ErrStale returned.
// A successful story chains the derived chart request before returning.
func (p *Pending) Do(ctx context.Context) error {
	w := p.wb
	switch p.action {
	case ActionAnalyze:
		res, err := w.backend.Analyze(ctx, p.payload)
		return p.finish(err, func() { w.applyAnalysisLocked(res) }, w.failAnalysisLocked)
	case ActionSequence:
		res, err := w.backend.GenerateSequence(ctx, p.payload)
		return p.finish(err, func() {
			w.session.Store(res)
			w.applyArtifactLocked(PanelSequenceGallery, PanelSequenceLog, res)
		}, func(err error) {
			w.failArtifactLocked(PanelSequenceGallery, PanelSequenceLog, "Error generating sequence: ", err)
		})
	case ActionTemplates:
		res, err := w.backend.GenerateTemplates(ctx, p.payload)
		return p.finish(err, func() {
			w.applyArtifactLocked(PanelTemplateGallery, PanelTemplateLog, res)
		}, func(err error) {
			w.failArtifactLocked(PanelTemplateGallery, PanelTemplateLog, "Error generating templates: ", err)
		})
	case ActionStory:
		return p.doStory(ctx)
	case ActionCharts:
		res, err := w.backend.GenerateCharts(ctx, p.payload)
		return p.finish(err, func() {
			w.applyArtifactLocked(PanelChartGallery, PanelChartLog, res)
		}, func(err error) {
			w.failArtifactLocked(PanelChartGallery, PanelChartLog, "Error generating charts: ", err)
		})
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, p.action)
}

func (p *Pending) doStory(ctx context.Context) error {
	w := p.wb
	story, err := w.backend.GenerateStory(ctx, p.payload)
	var charts *Pending
	ferr := p.finish(err, func() {
		var text string
		if story != nil {
			text = story.Text
		}
		w.story = text
		w.panels[PanelStory] = w.renderer.Story(text)
		charts = w.beginLocked(ActionCharts, Payload{File: p.payload.File})
		w.setGalleryLocked(PanelChartGallery, nil, w.renderer.Message("Generating charts..."))
	}, func(err error) {
		w.panels[PanelStory] = w.renderer.Log(failureMessage("Error: ", err), true)
		w.setGalleryLocked(PanelChartGallery, nil, "")
	})
	if ferr != nil || charts == nil {
		return ferr
	}
	return charts.Do(ctx)
}

// finish applies the outcome of p if it is still current and then restores
// the control of its action.
func (p *Pending) finish(err error, onSuccess func(), onError func(error)) error {
	w := p.wb
	defer w.flush()
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.tokens[p.action] != p.token {
		w.emitLocked(Event{Kind: EventStale, Action: p.action, Token: p.token})
		return ErrStale
	}
	if p.action.Triggerable() {
		defer func() { w.controls[p.action] = idleControl(p.action) }()
	}

	if err != nil {
		onError(err)
		w.emitLocked(Event{Kind: EventFailed, Action: p.action, Token: p.token, Message: ErrorMessage(err)})
		return err
	}
	onSuccess()
	w.emitLocked(Event{Kind: EventSucceeded, Action: p.action, Token: p.token})
	return nil
}

func (w *Workbench) applyAnalysisLocked(res *AnalysisResult) {
	if res == nil {
		res = &AnalysisResult{}
	}
	w.panels[PanelHead] = w.renderer.Table(res.Head, 0)
	w.panels[PanelSchema] = w.renderer.Table(res.Schema, 0)
	w.panels[PanelAnom] = w.renderer.Table(res.Anom, AnomalyRowLimit)
	w.panels[PanelIso] = w.renderer.Table(res.Iso, AnomalyRowLimit)

	SyncOptions(&w.groups, res.Groups, w.form.GroupCol)
	if w.groups.Value != "" {
		w.form.GroupCol = w.groups.Value
	}
	SyncOptions(&w.metrics, res.Metrics, w.form.MetricChoice)

	w.form.ApplyAnalysis(res)
	if !w.metrics.Choose(w.form.MetricChoice) && w.metrics.Value != "" {
		w.form.MetricChoice = w.metrics.Value
	}
	w.scroll, w.scrollSet = PanelHead, true
}

func (w *Workbench) failAnalysisLocked(err error) {
	msg := ErrorMessage(err)
	w.panels[PanelHead] = w.renderer.Log("Error: "+msg, true)
	delete(w.panels, PanelSchema)
	delete(w.panels, PanelAnom)
	delete(w.panels, PanelIso)
	w.alertLocked("Error: " + msg)
}

func (w *Workbench) applyArtifactLocked(gallery, log Panel, a *Artifact) {
	if a == nil {
		a = &Artifact{}
	}
	w.setGalleryLocked(gallery, a, w.renderer.Gallery(a))
	w.panels[log] = w.renderer.Log(a.Log, false)
}

func (w *Workbench) failArtifactLocked(gallery, log Panel, prefix string, err error) {
	w.setGalleryLocked(gallery, nil, "")
	w.panels[log] = w.renderer.Log(failureMessage(prefix, err), true)
}

// failureMessage shows application errors as the backend sent them and
// prefixes everything else.
func failureMessage(prefix string, err error) string {
	if IsApplicationError(err) {
		return ErrorMessage(err)
	}
	return prefix + ErrorMessage(err)
}

func (w *Workbench) setGalleryLocked(p Panel, a *Artifact, fragment string) {
	if a == nil {
		delete(w.galleries, p)
	} else {
		w.galleries[p] = a
	}
	w.panels[p] = fragment
}

func (w *Workbench) alertLocked(msg string) {
	w.alert = msg
	w.emitLocked(Event{Kind: EventAlert, Message: msg})
}

// SwitchSection activates s. Selecting SectionLogout returns ErrLogout and
// leaves the view unchanged.
func (w *Workbench) SwitchSection(s Section) error {
	if s == SectionLogout {
		return ErrLogout
	}
	if !s.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSection, s)
	}
	w.mu.Lock()
	w.active = s
	w.scroll, w.scrollSet = "", true
	w.emitLocked(Event{Kind: EventSection, Section: s})
	w.mu.Unlock()
	w.flush()
	return nil
}

// TakeScroll returns the target that should be scrolled into view, if any,
// and clears the request. An empty panel means the top of the page.
func (w *Workbench) TakeScroll() (Panel, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.scroll, w.scrollSet
	w.scroll, w.scrollSet = "", false
	return p, ok
}

// TakeAlert returns the pending blocking alert, if any, and clears it.
func (w *Workbench) TakeAlert() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := w.alert
	w.alert = ""
	return msg, msg != ""
}

// OpenImage shows image i of the gallery in panel p in the lightbox.
func (w *Workbench) OpenImage(p Panel, i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	a := w.galleries[p]
	if i < 0 || i >= a.Len() {
		return fmt.Errorf("no image %d in %s", i, p)
	}
	w.lightbox.Open(a.Images[i], a.Caption(i))
	return nil
}

// ClickLightbox forwards a click inside the lightbox.
func (w *Workbench) ClickLightbox(target ClickTarget) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lightbox.Click(target)
}

// CloseLightbox hides the lightbox.
func (w *Workbench) CloseLightbox() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lightbox.Close()
}

// Gallery returns a copy of the artifact shown in panel p, or nil.
func (w *Workbench) Gallery(p Panel) *Artifact {
	w.mu.Lock()
	defer w.mu.Unlock()
	a := w.galleries[p]
	if a == nil {
		return nil
	}
	return &Artifact{
		Images:   slices.Clone(a.Images),
		Captions: slices.Clone(a.Captions),
		Log:      a.Log,
	}
}

// UpdateForm applies fn to the form. Selection controls follow the group
// and metric choices when fn changes them to an offered value.
func (w *Workbench) UpdateForm(fn func(f *Form)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.form)
	if !w.groups.Choose(w.form.GroupCol) && len(w.groups.Options) == 0 {
		w.groups.Value = w.form.GroupCol
	}
	if !w.metrics.Choose(w.form.MetricChoice) && len(w.metrics.Options) == 0 {
		w.metrics.Value = w.form.MetricChoice
	}
}

// CycleSelect moves the named selection control by delta and copies the
// new value into the form.
func (w *Workbench) CycleSelect(name string, delta int) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch name {
	case SelectGroup:
		w.form.GroupCol = w.groups.Cycle(delta)
		return w.form.GroupCol
	case SelectMetric:
		w.form.MetricChoice = w.metrics.Cycle(delta)
		return w.form.MetricChoice
	}
	return ""
}

// Download streams the archive of every generated image into dst.
func (w *Workbench) Download(ctx context.Context, dst io.Writer) (int64, error) {
	n, err := w.backend.Download(ctx, dst)
	w.mu.Lock()
	if err != nil {
		w.emitLocked(Event{Kind: EventFailed, Message: "download: " + ErrorMessage(err)})
	} else {
		w.emitLocked(Event{Kind: EventDownload, Message: fmt.Sprintf("%d bytes", n)})
	}
	w.mu.Unlock()
	w.flush()
	return n, err
}

// State returns a copy of the current state.
func (w *Workbench) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := State{
		HasFile:  w.file != nil,
		Form:     w.form,
		Groups:   cloneSelect(w.groups),
		Metrics:  cloneSelect(w.metrics),
		Session:  w.session.clone(),
		Panels:   maps.Clone(w.panels),
		Controls: maps.Clone(w.controls),
		View:     ViewState{Active: w.active, ChartItems: w.galleries[PanelChartGallery].Len()},
		Lightbox: w.lightbox,
		Alert:    w.alert,
		Story:    w.story,
	}
	s.Form.Templates.ChartTypes = slices.Clone(w.form.Templates.ChartTypes)
	if w.file != nil {
		s.FileName = w.file.Name
	}
	return s
}

func cloneSelect(s Select) Select {
	s.Options = slices.Clone(s.Options)
	return s
}

func (w *Workbench) emitLocked(ev Event) {
	ev.Time = w.now()
	w.queue = append(w.queue, ev)
}

// flush delivers queued events. It must be called without the lock held.
func (w *Workbench) flush() {
	w.mu.Lock()
	events := w.queue
	w.queue = nil
	sinks := slices.Clone(w.sinks)
	w.mu.Unlock()

	for _, ev := range events {
		w.logger.LogAttrs(context.Background(), ev.level(), "workbench event", ev.attrs()...)
		for _, s := range sinks {
			if err := s.Record(ev); err != nil {
				w.logger.Warn("event sink failed", slog.String("kind", string(ev.Kind)), slog.Any("error", err))
			}
		}
	}
}
