// Package chroma provides syntax highlighting of payloads and config files
// using the chroma library.
package chroma

import (
	"errors"

	chromalib "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/fwojciec/csvstory"
)

// Compile-time interface verification.
var _ csvstory.Tokenizer = (*Tokenizer)(nil)

// StyleFunc maps chroma token types to csvstory styles.
type StyleFunc func(chromalib.TokenType) csvstory.Style

// Tokenizer extracts syntax tokens using chroma.
type Tokenizer struct {
	styleFunc StyleFunc
}

// NewTokenizer creates a chroma-based tokenizer with the given style function.
// Use StyleFromPalette to create a style function from a csvstory.Palette.
func NewTokenizer(styleFunc StyleFunc) (*Tokenizer, error) {
	if styleFunc == nil {
		return nil, errors.New("chroma: styleFunc cannot be nil")
	}
	return &Tokenizer{styleFunc: styleFunc}, nil
}

// Tokenize splits source into highlighted tokens for the given language.
// Returns nil if the language is not supported or an error occurs.
// Returns an empty slice for empty source.
func (t *Tokenizer) Tokenize(language, source string) []csvstory.Token {
	if source == "" {
		return []csvstory.Token{}
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		return nil
	}
	lexer = chromalib.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return nil
	}

	var tokens []csvstory.Token
	for token := iterator(); token != chromalib.EOF; token = iterator() {
		tokens = append(tokens, csvstory.Token{
			Text:  token.Value,
			Style: t.styleFunc(token.Type),
		})
	}
	return tokens
}
