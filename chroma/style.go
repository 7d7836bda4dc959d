package chroma

import (
	chromalib "github.com/alecthomas/chroma/v2"
	"github.com/fwojciec/csvstory"
)

// StyleFromPalette returns a function that maps chroma token types to
// csvstory styles based on the provided palette colors. It covers the token
// types produced by the JSON, YAML and Markdown lexers.
func StyleFromPalette(p csvstory.Palette) StyleFunc {
	return func(tt chromalib.TokenType) csvstory.Style {
		switch tt {
		// Object keys
		case chromalib.NameTag, chromalib.NameAttribute:
			return csvstory.Style{Foreground: string(p.Key)}

		// true, false, null
		case chromalib.Keyword, chromalib.KeywordConstant, chromalib.KeywordReserved,
			chromalib.LiteralStringBoolean:
			return csvstory.Style{Foreground: string(p.Keyword), Bold: true}

		case chromalib.String, chromalib.StringDouble, chromalib.StringSingle,
			chromalib.StringEscape, chromalib.StringOther, chromalib.StringSymbol:
			return csvstory.Style{Foreground: string(p.String)}

		case chromalib.Number, chromalib.NumberFloat, chromalib.NumberInteger,
			chromalib.NumberIntegerLong:
			return csvstory.Style{Foreground: string(p.Number)}

		case chromalib.Comment, chromalib.CommentSingle, chromalib.CommentMultiline:
			return csvstory.Style{Foreground: string(p.Muted)}

		// Markdown
		case chromalib.GenericHeading, chromalib.GenericSubheading:
			return csvstory.Style{Foreground: string(p.Heading), Bold: true}
		case chromalib.GenericStrong:
			return csvstory.Style{Bold: true}
		case chromalib.GenericEmph:
			return csvstory.Style{Foreground: string(p.Accent)}

		case chromalib.Punctuation:
			return csvstory.Style{Foreground: string(p.Punctuation)}

		default:
			return csvstory.Style{}
		}
	}
}
