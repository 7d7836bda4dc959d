package csvstory_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/csvstory"
	"github.com/fwojciec/csvstory/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer() *mock.Renderer {
	return &mock.Renderer{
		TableFn: func(rows []csvstory.Row, maxRows int) string {
			return fmt.Sprintf("table(%d,%d)", len(rows), maxRows)
		},
		GalleryFn: func(a *csvstory.Artifact) string {
			return fmt.Sprintf("gallery(%d)", a.Len())
		},
		LogFn: func(msg string, isError bool) string {
			if isError {
				return "error:" + msg
			}
			return "log:" + msg
		},
		StoryFn:   func(markdown string) string { return "story:" + markdown },
		MessageFn: func(msg string) string { return "msg:" + msg },
	}
}

func analysisResult() *csvstory.AnalysisResult {
	return &csvstory.AnalysisResult{
		Head:    []csvstory.Row{csvstory.NewRow("a", 1)},
		Schema:  []csvstory.Row{csvstory.NewRow("column", "a")},
		Anom:    []csvstory.Row{},
		Iso:     nil,
		Groups:  []string{"carrera", "periodo"},
		Metrics: []string{"nota"},
	}
}

func chartArtifact(n int) *csvstory.Artifact {
	a := &csvstory.Artifact{Log: "ok"}
	for i := range n {
		a.Images = append(a.Images, fmt.Sprintf("/static/chart_%d.png", i))
		a.Captions = append(a.Captions, fmt.Sprintf("Chart %d", i))
	}
	return a
}

func csvFile() csvstory.Upload {
	return csvstory.Upload{Name: "grades.csv", Data: []byte("a,b\n1,2\n")}
}

func TestWorkbench_InitialState(t *testing.T) {
	t.Parallel()

	wb := csvstory.NewWorkbench(&mock.Backend{}, newRenderer())
	s := wb.State()

	assert.False(t, s.HasFile)
	assert.Equal(t, csvstory.SectionAnalysis, s.View.Active)
	assert.False(t, s.DownloadVisible())
	assert.True(t, s.Session.Empty())
	assert.Empty(t, s.Panels)
	assert.False(t, s.Busy())
	assert.Equal(t, csvstory.Control{Label: "Analyze CSV"}, s.Controls[csvstory.ActionAnalyze])
	assert.Equal(t, csvstory.DefaultForm(), s.Form)
}

func TestWorkbench_StartRequiresFile(t *testing.T) {
	t.Parallel()

	wb := csvstory.NewWorkbench(&mock.Backend{}, newRenderer())

	_, err := wb.Start(csvstory.ActionAnalyze)
	require.ErrorIs(t, err, csvstory.ErrNoFile)

	msg, ok := wb.TakeAlert()
	assert.True(t, ok)
	assert.NotEmpty(t, msg)

	_, ok = wb.TakeAlert()
	assert.False(t, ok, "alert is consumed")
}

func TestWorkbench_StartRejectsNonCSV(t *testing.T) {
	t.Parallel()

	backend := &mock.Backend{
		AnalyzeFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.AnalysisResult, error) {
			t.Fatal("backend must not be called")
			return nil, nil
		},
	}
	wb := csvstory.NewWorkbench(backend, newRenderer())
	wb.SelectFile(csvstory.Upload{Name: "grades.xlsx"})

	err := wb.Run(context.Background(), csvstory.ActionAnalyze)
	require.ErrorIs(t, err, csvstory.ErrInvalidExtension)

	s := wb.State()
	assert.False(t, s.HasFile, "file is cleared")
	assert.Equal(t, "estructuraalumno", s.Form.GroupCol)
	msg, ok := wb.TakeAlert()
	assert.True(t, ok)
	assert.Contains(t, msg, "grades.xlsx")
}

func TestWorkbench_StartUnknownAction(t *testing.T) {
	t.Parallel()

	wb := csvstory.NewWorkbench(&mock.Backend{}, newRenderer())
	wb.SelectFile(csvFile())

	_, err := wb.Start(csvstory.ActionCharts)
	assert.ErrorIs(t, err, csvstory.ErrUnknownAction, "charts only run after a story")
}

func TestWorkbench_AnalyzeSuccess(t *testing.T) {
	t.Parallel()

	var got csvstory.Payload
	backend := &mock.Backend{
		AnalyzeFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.AnalysisResult, error) {
			got = p
			return analysisResult(), nil
		},
	}
	wb := csvstory.NewWorkbench(backend, newRenderer())
	wb.SelectFile(csvFile())

	p, err := wb.Start(csvstory.ActionAnalyze)
	require.NoError(t, err)

	s := wb.State()
	assert.Equal(t, csvstory.Control{Label: "Analyzing...", Disabled: true}, s.Controls[csvstory.ActionAnalyze])
	assert.Equal(t, "msg:Analyzing CSV...", s.Panels[csvstory.PanelHead])
	assert.True(t, s.Busy())

	require.NoError(t, p.Do(context.Background()))

	assert.Equal(t, "grades.csv", got.File.Name)
	assert.Equal(t, "iqr", got.Fields.Get("method"))

	s = wb.State()
	assert.Equal(t, csvstory.Control{Label: "Analyze CSV"}, s.Controls[csvstory.ActionAnalyze])
	assert.Equal(t, "table(1,0)", s.Panels[csvstory.PanelHead])
	assert.Equal(t, "table(1,0)", s.Panels[csvstory.PanelSchema])
	assert.Equal(t, "table(0,100)", s.Panels[csvstory.PanelAnom])
	assert.Equal(t, "table(0,100)", s.Panels[csvstory.PanelIso])

	assert.Equal(t, []string{"carrera", "periodo"}, s.Groups.Values())
	assert.Equal(t, "carrera", s.Groups.Value, "default group is not offered")
	assert.Equal(t, "carrera", s.Form.GroupCol)
	assert.Equal(t, []string{csvstory.SentinelMetric, "nota"}, s.Metrics.Values())
	assert.Equal(t, "nota", s.Metrics.Value)
	assert.Equal(t, "nota", s.Form.MetricChoice)
	assert.Equal(t, "periodo", s.Form.Sequence.LineX)

	panel, ok := wb.TakeScroll()
	assert.True(t, ok)
	assert.Equal(t, csvstory.PanelHead, panel)
}

func TestWorkbench_AnalyzeFailure(t *testing.T) {
	t.Parallel()

	backend := &mock.Backend{
		AnalyzeFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.AnalysisResult, error) {
			return nil, &csvstory.Error{Kind: csvstory.ErrorApplication, Op: "/analyze", Message: "bad column"}
		},
	}
	wb := csvstory.NewWorkbench(backend, newRenderer())
	wb.SelectFile(csvFile())

	err := wb.Run(context.Background(), csvstory.ActionAnalyze)
	require.Error(t, err)
	assert.True(t, csvstory.IsApplicationError(err))

	s := wb.State()
	assert.Equal(t, "error:Error: bad column", s.Panels[csvstory.PanelHead])
	assert.False(t, s.Controls[csvstory.ActionAnalyze].Disabled, "control is restored on failure")
	msg, ok := wb.TakeAlert()
	assert.True(t, ok)
	assert.Equal(t, "Error: bad column", msg)
}

func TestWorkbench_SequenceStoresSession(t *testing.T) {
	t.Parallel()

	backend := &mock.Backend{
		GenerateSequenceFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
			assert.Equal(t, "on", p.Fields.Get("seq_simple"))
			return chartArtifact(6), nil
		},
	}
	wb := csvstory.NewWorkbench(backend, newRenderer())
	wb.SelectFile(csvFile())

	require.NoError(t, wb.Run(context.Background(), csvstory.ActionSequence))

	s := wb.State()
	assert.Equal(t, "gallery(6)", s.Panels[csvstory.PanelSequenceGallery])
	assert.Equal(t, "log:ok", s.Panels[csvstory.PanelSequenceLog])
	assert.Len(t, s.Session.SeqPaths, 6)
	assert.Equal(t, "Chart 0", s.Session.SeqCaptions[0])
}

func TestWorkbench_ArtifactFailureClearsGallery(t *testing.T) {
	t.Parallel()

	calls := 0
	backend := &mock.Backend{
		GenerateTemplatesFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
			calls++
			if calls == 1 {
				return chartArtifact(2), nil
			}
			return nil, &csvstory.Error{Kind: csvstory.ErrorTransport, Op: "/generate_templates", Status: 502, Message: "Bad Gateway"}
		},
	}
	wb := csvstory.NewWorkbench(backend, newRenderer())
	wb.SelectFile(csvFile())

	require.NoError(t, wb.Run(context.Background(), csvstory.ActionTemplates))
	require.NotNil(t, wb.Gallery(csvstory.PanelTemplateGallery))

	err := wb.Run(context.Background(), csvstory.ActionTemplates)
	require.Error(t, err)

	s := wb.State()
	assert.Empty(t, s.Panels[csvstory.PanelTemplateGallery])
	assert.Equal(t, "error:Error generating templates: Bad Gateway", s.Panels[csvstory.PanelTemplateLog])
	assert.Nil(t, wb.Gallery(csvstory.PanelTemplateGallery))
}

func TestWorkbench_StoryChainsCharts(t *testing.T) {
	t.Parallel()

	var wb *csvstory.Workbench
	backend := &mock.Backend{
		GenerateStoryFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.Story, error) {
			assert.Equal(t, "8", p.Fields.Get("seq_topn"))
			return &csvstory.Story{Text: "### Summary"}, nil
		},
		GenerateChartsFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
			s := wb.State()
			assert.Equal(t, "story:### Summary", s.Panels[csvstory.PanelStory], "story renders before charts")
			assert.False(t, s.Controls[csvstory.ActionStory].Disabled, "story control restored before charts")
			assert.Empty(t, p.Fields, "charts send only the file")
			assert.Equal(t, "grades.csv", p.File.Name)
			return chartArtifact(3), nil
		},
	}
	wb = csvstory.NewWorkbench(backend, newRenderer())
	wb.SelectFile(csvFile())
	require.NoError(t, wb.SwitchSection(csvstory.SectionInsights))

	require.NoError(t, wb.Run(context.Background(), csvstory.ActionStory))

	s := wb.State()
	assert.Equal(t, "### Summary", s.Story)
	assert.Equal(t, "gallery(3)", s.Panels[csvstory.PanelChartGallery])
	assert.Equal(t, 3, s.View.ChartItems)
	assert.True(t, s.DownloadVisible())

	require.NoError(t, wb.SwitchSection(csvstory.SectionSequence))
	assert.False(t, wb.State().DownloadVisible())
}

func TestWorkbench_StoryStartHidesDownload(t *testing.T) {
	t.Parallel()

	backend := &mock.Backend{
		GenerateStoryFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.Story, error) {
			return &csvstory.Story{Text: "ok"}, nil
		},
		GenerateChartsFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
			return chartArtifact(2), nil
		},
	}
	wb := csvstory.NewWorkbench(backend, newRenderer())
	wb.SelectFile(csvFile())
	require.NoError(t, wb.SwitchSection(csvstory.SectionInsights))
	require.NoError(t, wb.Run(context.Background(), csvstory.ActionStory))
	require.True(t, wb.State().DownloadVisible())

	_, err := wb.Start(csvstory.ActionStory)
	require.NoError(t, err)

	s := wb.State()
	assert.Equal(t, 0, s.View.ChartItems)
	assert.False(t, s.DownloadVisible())
	assert.Empty(t, s.Story)
}

// blockedStoryFlow runs a story whose chained charts request blocks until
// release is closed. It returns once the charts request is in flight.
func blockedStoryFlow(t *testing.T, storyFn func(ctx context.Context, p csvstory.Payload) (*csvstory.Story, error)) (wb *csvstory.Workbench, release chan struct{}, done chan error) {
	t.Helper()

	entered := make(chan struct{})
	release = make(chan struct{})
	backend := &mock.Backend{
		GenerateStoryFn: storyFn,
		GenerateChartsFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
			close(entered)
			<-release
			return chartArtifact(2), nil
		},
	}
	wb = csvstory.NewWorkbench(backend, newRenderer())
	wb.SelectFile(csvFile())
	require.NoError(t, wb.SwitchSection(csvstory.SectionInsights))

	done = make(chan error, 1)
	go func() { done <- wb.Run(context.Background(), csvstory.ActionStory) }()
	<-entered
	return wb, release, done
}

func TestWorkbench_NewStoryDiscardsEarlierCharts(t *testing.T) {
	t.Parallel()

	wb, release, done := blockedStoryFlow(t, func(ctx context.Context, p csvstory.Payload) (*csvstory.Story, error) {
		return &csvstory.Story{Text: "ok"}, nil
	})

	_, err := wb.Start(csvstory.ActionStory)
	require.NoError(t, err)
	close(release)
	require.ErrorIs(t, <-done, csvstory.ErrStale)

	s := wb.State()
	assert.Equal(t, 0, s.View.ChartItems)
	assert.False(t, s.DownloadVisible(), "download stays hidden until the new flow's charts resolve")
	assert.Equal(t, "msg:Charts will be generated after the insights.", s.Panels[csvstory.PanelChartGallery])
	assert.Empty(t, s.Panels[csvstory.PanelChartLog])
}

func TestWorkbench_FailedNewStoryKeepsEarlierChartsOut(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	wb, release, done := blockedStoryFlow(t, func(ctx context.Context, p csvstory.Payload) (*csvstory.Story, error) {
		if calls.Add(1) == 1 {
			return &csvstory.Story{Text: "ok"}, nil
		}
		return nil, &csvstory.Error{Kind: csvstory.ErrorApplication, Op: "/generate_story", Message: "no data"}
	})

	second, err := wb.Start(csvstory.ActionStory)
	require.NoError(t, err)
	close(release)
	require.ErrorIs(t, <-done, csvstory.ErrStale)
	require.Error(t, second.Do(context.Background()))

	s := wb.State()
	assert.Equal(t, "error:no data", s.Panels[csvstory.PanelStory])
	assert.Equal(t, 0, s.View.ChartItems)
	assert.Empty(t, s.Panels[csvstory.PanelChartGallery])
	assert.False(t, s.DownloadVisible())
}

func TestWorkbench_StoryFailureSkipsCharts(t *testing.T) {
	t.Parallel()

	backend := &mock.Backend{
		GenerateStoryFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.Story, error) {
			return nil, &csvstory.Error{Kind: csvstory.ErrorApplication, Op: "/generate_story", Message: "no data"}
		},
		GenerateChartsFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
			t.Fatal("charts must not run after a failed story")
			return nil, nil
		},
	}
	wb := csvstory.NewWorkbench(backend, newRenderer())
	wb.SelectFile(csvFile())

	err := wb.Run(context.Background(), csvstory.ActionStory)
	require.Error(t, err)

	s := wb.State()
	assert.Equal(t, "error:no data", s.Panels[csvstory.PanelStory], "application errors are shown as sent")
	assert.Equal(t, 0, s.View.ChartItems)
}

func TestWorkbench_StaleResponseIsDiscarded(t *testing.T) {
	t.Parallel()

	calls := 0
	backend := &mock.Backend{
		GenerateSequenceFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
			calls++
			return chartArtifact(calls), nil
		},
	}
	wb := csvstory.NewWorkbench(backend, newRenderer())
	wb.SelectFile(csvFile())

	first, err := wb.Start(csvstory.ActionSequence)
	require.NoError(t, err)
	second, err := wb.Start(csvstory.ActionSequence)
	require.NoError(t, err)
	assert.Greater(t, second.Token(), first.Token())

	// The superseded request answers first.
	err = first.Do(context.Background())
	require.ErrorIs(t, err, csvstory.ErrStale)
	s := wb.State()
	assert.True(t, s.Controls[csvstory.ActionSequence].Disabled, "stale response does not restore the control")
	assert.True(t, s.Session.Empty())

	require.NoError(t, second.Do(context.Background()))
	s = wb.State()
	assert.False(t, s.Controls[csvstory.ActionSequence].Disabled)
	assert.Equal(t, "gallery(2)", s.Panels[csvstory.PanelSequenceGallery])
}

func TestWorkbench_FileChangeResets(t *testing.T) {
	t.Parallel()

	backend := &mock.Backend{
		AnalyzeFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.AnalysisResult, error) {
			return analysisResult(), nil
		},
		GenerateSequenceFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
			return chartArtifact(2), nil
		},
	}
	wb := csvstory.NewWorkbench(backend, newRenderer())
	wb.SelectFile(csvFile())
	require.NoError(t, wb.Run(context.Background(), csvstory.ActionAnalyze))
	require.NoError(t, wb.Run(context.Background(), csvstory.ActionSequence))
	require.NoError(t, wb.OpenImage(csvstory.PanelSequenceGallery, 1))

	pending, err := wb.Start(csvstory.ActionSequence)
	require.NoError(t, err)

	wb.SelectFile(csvstory.Upload{Name: "other.csv"})

	s := wb.State()
	assert.Equal(t, "other.csv", s.FileName)
	assert.Empty(t, s.Panels)
	assert.True(t, s.Session.Empty())
	assert.False(t, s.Lightbox.Visible)
	assert.False(t, s.Busy(), "controls are enabled after a reset")
	assert.Equal(t, "estructuraalumno", s.Form.GroupCol)
	assert.Equal(t, csvstory.SentinelMetric, s.Form.MetricChoice)
	assert.Equal(t, "semestre", s.Form.Sequence.LineX)

	// The request issued for the previous file must not leak into the new one.
	require.ErrorIs(t, pending.Do(context.Background()), csvstory.ErrStale)
	assert.True(t, wb.State().Session.Empty())
}

func TestWorkbench_SwitchSection(t *testing.T) {
	t.Parallel()

	wb := csvstory.NewWorkbench(&mock.Backend{}, newRenderer())

	require.NoError(t, wb.SwitchSection(csvstory.SectionTemplates))
	assert.Equal(t, csvstory.SectionTemplates, wb.State().View.Active)

	panel, ok := wb.TakeScroll()
	assert.True(t, ok)
	assert.Empty(t, panel, "section switch scrolls to the top")

	assert.ErrorIs(t, wb.SwitchSection(csvstory.SectionLogout), csvstory.ErrLogout)
	assert.ErrorIs(t, wb.SwitchSection(csvstory.Section("nope")), csvstory.ErrUnknownSection)
	assert.Equal(t, csvstory.SectionTemplates, wb.State().View.Active)
}

func TestWorkbench_Lightbox(t *testing.T) {
	t.Parallel()

	backend := &mock.Backend{
		GenerateSequenceFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
			return &csvstory.Artifact{Images: []string{"/a.png", "/b.png"}, Captions: []string{"A"}}, nil
		},
	}
	wb := csvstory.NewWorkbench(backend, newRenderer())
	wb.SelectFile(csvFile())
	require.NoError(t, wb.Run(context.Background(), csvstory.ActionSequence))

	require.NoError(t, wb.OpenImage(csvstory.PanelSequenceGallery, 1))
	assert.Equal(t, csvstory.Lightbox{Visible: true, Src: "/b.png", Caption: csvstory.DefaultCaption}, wb.State().Lightbox)

	wb.ClickLightbox(csvstory.ClickImage)
	assert.True(t, wb.State().Lightbox.Visible)
	wb.ClickLightbox(csvstory.ClickBackdrop)
	assert.False(t, wb.State().Lightbox.Visible)

	assert.Error(t, wb.OpenImage(csvstory.PanelSequenceGallery, 2))
	assert.Error(t, wb.OpenImage(csvstory.PanelChartGallery, 0))
}

func TestWorkbench_UpdateFormAndCycle(t *testing.T) {
	t.Parallel()

	backend := &mock.Backend{
		AnalyzeFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.AnalysisResult, error) {
			return analysisResult(), nil
		},
	}
	wb := csvstory.NewWorkbench(backend, newRenderer())
	wb.SelectFile(csvFile())
	require.NoError(t, wb.Run(context.Background(), csvstory.ActionAnalyze))

	assert.Equal(t, "periodo", wb.CycleSelect(csvstory.SelectGroup, 1))
	assert.Equal(t, "periodo", wb.State().Form.GroupCol)

	wb.UpdateForm(func(f *csvstory.Form) {
		f.MetricChoice = csvstory.SentinelMetric
		f.Method = "z"
	})
	s := wb.State()
	assert.Equal(t, csvstory.SentinelMetric, s.Metrics.Value)
	assert.Equal(t, "z", s.Form.Method)
}

func TestWorkbench_Download(t *testing.T) {
	t.Parallel()

	backend := &mock.Backend{
		DownloadFn: func(ctx context.Context, w io.Writer) (int64, error) {
			n, err := w.Write([]byte("PK\x03\x04"))
			return int64(n), err
		},
	}
	wb := csvstory.NewWorkbench(backend, newRenderer())

	var buf bytes.Buffer
	n, err := wb.Download(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, "PK\x03\x04", buf.String())
}

func TestWorkbench_EventsReachSinksOutsideLock(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		events []csvstory.Event
		wb     *csvstory.Workbench
	)
	sink := &mock.EventSink{
		RecordFn: func(ev csvstory.Event) error {
			// Calling back into the workbench would deadlock if sinks ran under its lock.
			_ = wb.State()
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
			return errors.New("sink errors are logged, not returned")
		},
	}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	backend := &mock.Backend{
		AnalyzeFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.AnalysisResult, error) {
			return analysisResult(), nil
		},
	}
	wb = csvstory.NewWorkbench(backend, newRenderer(),
		csvstory.WithEventSink(sink),
		csvstory.WithClock(func() time.Time { return now }),
	)

	wb.SelectFile(csvFile())
	require.NoError(t, wb.Run(context.Background(), csvstory.ActionAnalyze))

	mu.Lock()
	defer mu.Unlock()
	var kinds []csvstory.EventKind
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
		assert.Equal(t, now, ev.Time)
	}
	assert.Equal(t, []csvstory.EventKind{
		csvstory.EventReset,
		csvstory.EventFileSelected,
		csvstory.EventStarted,
		csvstory.EventSucceeded,
	}, kinds)
	assert.Equal(t, csvstory.ActionAnalyze, events[3].Action)
}

func TestWorkbench_ConcurrentActions(t *testing.T) {
	t.Parallel()

	backend := &mock.Backend{
		GenerateSequenceFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
			return chartArtifact(1), nil
		},
		GenerateTemplatesFn: func(ctx context.Context, p csvstory.Payload) (*csvstory.Artifact, error) {
			return chartArtifact(2), nil
		},
	}
	wb := csvstory.NewWorkbench(backend, newRenderer())
	wb.SelectFile(csvFile())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = wb.Run(context.Background(), csvstory.ActionSequence)
		}()
		go func() {
			defer wg.Done()
			_ = wb.Run(context.Background(), csvstory.ActionTemplates)
			_ = wb.State()
		}()
	}
	wg.Wait()

	s := wb.State()
	assert.False(t, s.Busy())
	assert.Equal(t, "gallery(1)", s.Panels[csvstory.PanelSequenceGallery])
	assert.Equal(t, "gallery(2)", s.Panels[csvstory.PanelTemplateGallery])
}
