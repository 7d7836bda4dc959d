package csvstory

// Panel identifies an output target that receives rendered fragments.
type Panel string

// Output targets.
const (
	PanelHead            Panel = "head"
	PanelSchema          Panel = "schema"
	PanelAnom            Panel = "anom"
	PanelIso             Panel = "iso"
	PanelSequenceGallery Panel = "sequence_gallery"
	PanelSequenceLog     Panel = "sequence_log"
	PanelTemplateGallery Panel = "template_gallery"
	PanelTemplateLog     Panel = "template_log"
	PanelStory           Panel = "story"
	PanelChartGallery    Panel = "chart_gallery"
	PanelChartLog        Panel = "chart_log"
)

// AnomalyRowLimit caps the rows shown in the anomaly and isolation tables.
const AnomalyRowLimit = 100

// Panels lists every output target in display order.
var Panels = []Panel{
	PanelHead, PanelSchema, PanelAnom, PanelIso,
	PanelSequenceGallery, PanelSequenceLog,
	PanelTemplateGallery, PanelTemplateLog,
	PanelStory, PanelChartGallery, PanelChartLog,
}

// SectionPanels maps each content section to the targets it shows.
var SectionPanels = map[Section][]Panel{
	SectionAnalysis:  {PanelHead, PanelSchema, PanelAnom, PanelIso},
	SectionSequence:  {PanelSequenceGallery, PanelSequenceLog},
	SectionTemplates: {PanelTemplateGallery, PanelTemplateLog},
	SectionInsights:  {PanelStory, PanelChartGallery, PanelChartLog},
}

// SectionAction maps each content section to the action it triggers.
var SectionAction = map[Section]Action{
	SectionAnalysis:  ActionAnalyze,
	SectionSequence:  ActionSequence,
	SectionTemplates: ActionTemplates,
	SectionInsights:  ActionStory,
}

// Title returns the heading shown above the panel.
func (p Panel) Title() string {
	switch p {
	case PanelHead:
		return "Preview"
	case PanelSchema:
		return "Schema"
	case PanelAnom:
		return "Group anomalies"
	case PanelIso:
		return "Row anomalies (Isolation Forest)"
	case PanelSequenceGallery:
		return "Native sequence"
	case PanelTemplateGallery:
		return "Templates"
	case PanelStory:
		return "Insights"
	case PanelChartGallery:
		return "AI charts"
	case PanelSequenceLog, PanelTemplateLog, PanelChartLog:
		return "Log"
	}
	return string(p)
}

// IsGallery reports whether the panel shows an image gallery.
func (p Panel) IsGallery() bool {
	switch p {
	case PanelSequenceGallery, PanelTemplateGallery, PanelChartGallery:
		return true
	}
	return false
}
