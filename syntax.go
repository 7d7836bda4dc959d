package csvstory

// Token represents a syntax-highlighted segment of text.
type Token struct {
	Text  string // The text content of this token
	Style Style  // Visual style to apply (colors, bold, etc.)
}

// Style represents the visual styling for a token.
type Style struct {
	Foreground string // Hex color code (e.g., "#ff0000") or empty for default
	Bold       bool   // Whether the text should be bold
}

// Tokenizer extracts syntax tokens from text in a given language.
type Tokenizer interface {
	// Tokenize splits source into highlighted tokens for the given language.
	// Returns nil if the language is not supported.
	Tokenize(language, source string) []Token
}

// LanguageDetector identifies the highlighting language of a file.
type LanguageDetector interface {
	// DetectFromPath returns the language name for path, or "" if unknown.
	DetectFromPath(path string) string
}
