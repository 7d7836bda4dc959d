package csvstory

import (
	"net/url"
	"strconv"
)

// Defaults applied on startup and whenever a new file is selected.
const (
	DefaultMethod    = "iqr"
	DefaultGroupCol  = "estructuraalumno"
	DefaultPeriodCol = "semestre"
	DefaultTheme     = "light"
	DefaultTopN      = 8
)

// Outlier detection methods understood by the backend.
var Methods = []string{"iqr", "z", "mad"}

// Themes understood by the chart generator.
var Themes = []string{"midnight", "teal-dark", "indigo", "light", "black-orange"}

// ChartTypes are the template chart identifiers understood by the backend.
var ChartTypes = []string{"Barras", "Pastel", "Líneas", "Heatmap", "Violín", "Montaña"}

// ChartOptions configures a generated chart set.
type ChartOptions struct {
	Theme      string
	Simple     bool
	TopN       int
	Normalize  bool
	LineX      string
	LineY      string
	HeatmapRow string
	HeatmapCol string
	Title      string
	Subtitle   string
}

// TemplateOptions configures individual chart templates.
type TemplateOptions struct {
	ChartOptions
	GroupCol   string
	MetricCol  string
	ChartTypes []string
}

// Form holds the values of every named control read at request-build time.
type Form struct {
	Method       string
	GroupCol     string
	MetricChoice string
	KIQR         float64
	ZThr         float64
	MADThr       float64
	MinN         int
	IsoFrac      float64

	Sequence  ChartOptions
	Templates TemplateOptions
}

// DefaultForm returns the form as it looks before any analysis.
func DefaultForm() Form {
	f := Form{
		Method:  DefaultMethod,
		KIQR:    1.5,
		ZThr:    2.5,
		MADThr:  3.5,
		MinN:    30,
		IsoFrac: 0.02,
		Sequence: ChartOptions{
			Theme:    DefaultTheme,
			Simple:   true,
			TopN:     DefaultTopN,
			Title:    "Rendimiento Académico",
			Subtitle: "Secuencia de comprensión visual",
		},
		Templates: TemplateOptions{
			ChartOptions: ChartOptions{
				Theme:    DefaultTheme,
				Simple:   true,
				TopN:     DefaultTopN,
				Title:    "Rendimiento Académico",
				Subtitle: "Resumen visual desde dataset",
			},
			ChartTypes: []string{"Barras", "Líneas", "Heatmap"},
		},
	}
	f.ResetSelections()
	return f
}

// ResetSelections restores the column and metric choices that depend on the
// selected file. Thresholds, themes and titles are kept.
func (f *Form) ResetSelections() {
	f.GroupCol = DefaultGroupCol
	f.MetricChoice = SentinelMetric

	f.Sequence.LineX = DefaultPeriodCol
	f.Sequence.LineY = SentinelMetric
	f.Sequence.HeatmapRow = DefaultGroupCol
	f.Sequence.HeatmapCol = DefaultPeriodCol

	f.Templates.GroupCol = DefaultGroupCol
	f.Templates.MetricCol = SentinelMetric
	f.Templates.LineX = DefaultPeriodCol
	f.Templates.LineY = SentinelMetric
	f.Templates.HeatmapRow = DefaultGroupCol
	f.Templates.HeatmapCol = DefaultPeriodCol
}

// ApplyAnalysis auto-populates the dependent fields from an analysis: the
// first reported group is primary, the second (or the primary again) is
// secondary, and the best metric becomes the default metric.
func (f *Form) ApplyAnalysis(res *AnalysisResult) {
	if res == nil {
		return
	}
	if len(res.Groups) > 0 {
		primary := res.Groups[0]
		secondary := primary
		if len(res.Groups) > 1 {
			secondary = res.Groups[1]
		}

		f.Sequence.LineX = secondary
		f.Sequence.HeatmapRow = primary
		f.Sequence.HeatmapCol = secondary

		f.Templates.GroupCol = primary
		f.Templates.LineX = secondary
		f.Templates.HeatmapRow = primary
		f.Templates.HeatmapCol = secondary
	}

	metric := BestMetric(res)
	f.MetricChoice = metric
	f.Sequence.LineY = metric
	f.Templates.MetricCol = metric
	f.Templates.LineY = metric
}

// BestMetric picks the default metric after an analysis: the metric the
// backend reports as current, else the first non-sentinel metric, else the
// first metric, else the sentinel.
func BestMetric(res *AnalysisResult) string {
	if res == nil {
		return SentinelMetric
	}
	if res.CurrentMetric != "" {
		return res.CurrentMetric
	}
	for _, m := range res.Metrics {
		if m != SentinelMetric {
			return m
		}
	}
	if len(res.Metrics) > 0 {
		return res.Metrics[0]
	}
	return SentinelMetric
}

// AnalyzeFields builds the named fields of an analyze request.
func (f Form) AnalyzeFields() url.Values {
	v := url.Values{}
	v.Set("method", f.Method)
	v.Set("group_col", f.GroupCol)
	v.Set("metric_choice", f.MetricChoice)
	f.setThresholds(v)
	v.Set("iso_frac", formatFloat(f.IsoFrac))
	return v
}

// SequenceFields builds the named fields of a sequence request.
func (f Form) SequenceFields() url.Values {
	s := f.Sequence
	v := url.Values{}
	v.Set("group_col", f.GroupCol)
	v.Set("metric_choice", f.MetricChoice)
	v.Set("seq_theme", s.Theme)
	v.Set("seq_simple", onOff(s.Simple))
	v.Set("seq_topn", strconv.Itoa(s.TopN))
	v.Set("seq_norm", onOff(s.Normalize))
	v.Set("seq_line_x", s.LineX)
	v.Set("seq_line_y", s.LineY)
	v.Set("seq_hm_row", s.HeatmapRow)
	v.Set("seq_hm_col", s.HeatmapCol)
	v.Set("seq_title", s.Title)
	v.Set("seq_subt", s.Subtitle)
	return v
}

// StoryFields builds the named fields of an insights request. The sequence
// top-N is sent so the narrative sees the same ranking as the charts.
func (f Form) StoryFields() url.Values {
	v := url.Values{}
	v.Set("group_col", f.GroupCol)
	v.Set("metric_choice", f.MetricChoice)
	v.Set("method", f.Method)
	f.setThresholds(v)
	v.Set("seq_topn", strconv.Itoa(f.Sequence.TopN))
	return v
}

// TemplateFields builds the named fields of a templates request. Chart
// types are encoded as a repeated key.
func (f Form) TemplateFields() url.Values {
	t := f.Templates
	v := url.Values{}
	for _, ct := range t.ChartTypes {
		v.Add("tpl_chart_types[]", ct)
	}
	v.Set("tpl_theme", t.Theme)
	v.Set("tpl_simple", onOff(t.Simple))
	v.Set("tpl_group_col", t.GroupCol)
	v.Set("tpl_metric_col", t.MetricCol)
	v.Set("tpl_topn", strconv.Itoa(t.TopN))
	v.Set("tpl_norm", onOff(t.Normalize))
	v.Set("tpl_line_x", t.LineX)
	v.Set("tpl_line_y", t.LineY)
	v.Set("tpl_hm_row", t.HeatmapRow)
	v.Set("tpl_hm_col", t.HeatmapCol)
	v.Set("tpl_title", t.Title)
	v.Set("tpl_subtitle", t.Subtitle)
	return v
}

// ToggleChartType adds or removes a template chart type, keeping the
// canonical order of ChartTypes.
func (f *Form) ToggleChartType(chartType string) {
	selected := make(map[string]bool, len(f.Templates.ChartTypes))
	for _, ct := range f.Templates.ChartTypes {
		selected[ct] = true
	}
	selected[chartType] = !selected[chartType]

	var out []string
	for _, ct := range ChartTypes {
		if selected[ct] {
			out = append(out, ct)
		}
	}
	f.Templates.ChartTypes = out
}

func (f Form) setThresholds(v url.Values) {
	v.Set("k_iqr", formatFloat(f.KIQR))
	v.Set("z_thr", formatFloat(f.ZThr))
	v.Set("mad_thr", formatFloat(f.MADThr))
	v.Set("min_n", strconv.Itoa(f.MinN))
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
