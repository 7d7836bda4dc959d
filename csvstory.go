// Package csvstory provides domain types and the request orchestration core
// for a client of the CSV analytics backend.
package csvstory

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

// SentinelMetric is the reserved metric identifier the backend derives on its
// own. It must always be selectable even if the backend does not report it.
const SentinelMetric = "__tasa__"

// DefaultCaption labels a gallery image whose caption is missing.
const DefaultCaption = "Image"

// Placeholders shown when a payload has nothing to display.
const (
	NoDataText   = "(No data found for this section)"
	NoImagesText = "(No images generated)"
)

// TruncationNotice describes a table showing shown of total rows.
func TruncationNotice(shown, total int) string {
	return fmt.Sprintf("Showing the first %d of %d rows.", shown, total)
}

// Upload is a CSV file selected by the user.
type Upload struct {
	Name string // Base name as chosen by the user, e.g. "grades.csv"
	Data []byte
}

// HasCSVExtension reports whether name ends in ".csv", ignoring case.
func HasCSVExtension(name string) bool {
	return strings.EqualFold(path.Ext(name), ".csv")
}

// AnalysisResult is the payload returned by the analyze endpoint.
type AnalysisResult struct {
	Head          []Row    `json:"head"`
	Schema        []Row    `json:"schema"`
	Anom          []Row    `json:"anom"`
	Iso           []Row    `json:"iso"`
	Groups        []string `json:"groups"`
	Metrics       []string `json:"metrics"`
	CurrentMetric string   `json:"current_metric,omitempty"`
}

// Artifact is a generated set of images with their captions and a log text.
type Artifact struct {
	Images   []string `json:"images"`
	Captions []string `json:"captions"`
	Log      string   `json:"log"`
}

// Caption returns the caption for image i, or DefaultCaption when the
// backend sent fewer captions than images or an empty one.
func (a *Artifact) Caption(i int) string {
	if a == nil || i < 0 || i >= len(a.Captions) || a.Captions[i] == "" {
		return DefaultCaption
	}
	return a.Captions[i]
}

// Len returns the number of images in the artifact.
func (a *Artifact) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Images)
}

// Story is the narrative produced by the insights endpoint.
type Story struct {
	Text string `json:"story"`
}

// Payload is the body of a backend request: the selected file plus named
// form fields. Multi-value controls are carried as repeated keys.
type Payload struct {
	File   Upload
	Fields url.Values
}

// Backend performs the server-side analysis operations.
//
// Implementations return *Error values: ErrorApplication when the backend
// answered successfully but reported an error in the body, ErrorTransport for
// non-2xx statuses, unreadable bodies and network failures.
type Backend interface {
	Analyze(ctx context.Context, p Payload) (*AnalysisResult, error)
	GenerateSequence(ctx context.Context, p Payload) (*Artifact, error)
	GenerateStory(ctx context.Context, p Payload) (*Story, error)
	GenerateCharts(ctx context.Context, p Payload) (*Artifact, error)
	GenerateTemplates(ctx context.Context, p Payload) (*Artifact, error)
	// Download streams the archive of every generated image into w.
	Download(ctx context.Context, w io.Writer) (int64, error)
}

// ImageFetcher retrieves a generated image by the URL the backend reported.
type ImageFetcher interface {
	FetchImage(ctx context.Context, src string, w io.Writer) error
}

// Renderer turns payloads into display fragments for an output target.
// Absent or malformed input degrades to a placeholder, never to an error.
type Renderer interface {
	// Table renders rows, showing at most maxRows of them when maxRows > 0.
	Table(rows []Row, maxRows int) string
	// Gallery renders one item per image of the artifact.
	Gallery(a *Artifact) string
	// Log renders a status block styled as success or error.
	Log(msg string, isError bool) string
	// Story renders narrative markdown.
	Story(markdown string) string
	// Message renders transient or placeholder text.
	Message(msg string) string
}

// Clipboard provides copy-to-clipboard functionality.
type Clipboard interface {
	Copy(content string) error
}

// Viewer presents a Workbench interactively until the user quits.
type Viewer interface {
	View(ctx context.Context, wb *Workbench) error
}
