package csvstory

// Section identifies a content section reachable from the navigation.
type Section string

// Navigation items. SectionLogout is a navigation item but not a section:
// selecting it ends the session instead of switching content.
const (
	SectionAnalysis  Section = "analysis"
	SectionSequence  Section = "sequence"
	SectionTemplates Section = "templates"
	SectionInsights  Section = "insights"
	SectionLogout    Section = "logout"
)

// Navigation lists the navigation items in display order.
var Navigation = []Section{SectionAnalysis, SectionSequence, SectionTemplates, SectionInsights, SectionLogout}

// DefaultSection is active on startup.
const DefaultSection = SectionAnalysis

// Title returns the navigation label of the section.
func (s Section) Title() string {
	switch s {
	case SectionAnalysis:
		return "Analysis"
	case SectionSequence:
		return "Sequence"
	case SectionTemplates:
		return "Templates"
	case SectionInsights:
		return "AI Insights"
	case SectionLogout:
		return "Logout"
	}
	return string(s)
}

// valid reports whether s is a switchable content section.
func (s Section) valid() bool {
	switch s {
	case SectionAnalysis, SectionSequence, SectionTemplates, SectionInsights:
		return true
	}
	return false
}

// ViewState is the derived view: the active section and how many items the
// derived chart gallery currently shows.
type ViewState struct {
	Active     Section
	ChartItems int
}

// DownloadVisible reports whether the download action is shown.
func (v ViewState) DownloadVisible() bool {
	return DownloadVisible(v.Active, v.ChartItems)
}

// DownloadVisible is true only on the insights section with at least one
// rendered derived chart.
func DownloadVisible(active Section, chartItems int) bool {
	return active == SectionInsights && chartItems > 0
}
