package chroma

import (
	"path/filepath"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/fwojciec/csvstory"
)

// Compile-time interface verification.
var _ csvstory.LanguageDetector = (*Detector)(nil)

// Detector detects languages from file paths using chroma.
type Detector struct{}

// NewDetector creates a new chroma-based language detector.
func NewDetector() *Detector {
	return &Detector{}
}

// DetectFromPath returns the language name for the given path,
// or an empty string if the language cannot be determined.
func (d *Detector) DetectFromPath(path string) string {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		return ""
	}
	return lexer.Config().Name
}
