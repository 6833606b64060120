// Package highlight wraps chroma as the external syntax-highlighting
// collaborator the rest of scrollcode treats as untrusted/slow: requests are
// dispatched through a Highlighter interface so a renderer never has to know
// whether a result came back synchronously or from a worker goroutine.
package highlight

import (
	"context"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// Token is one highlighted span within a line.
type Token struct {
	Text  string
	Class chroma.TokenType
}

// Request describes one highlight job.
type Request struct {
	Text     string
	Language string
	Theme    string
}

// Result is the tokenized output of a Request, one slice of Tokens per
// source line.
type Result struct {
	Rows [][]Token
}

// Highlighter tokenizes source text for a given language and theme.
type Highlighter interface {
	Highlight(ctx context.Context, req Request) (Result, error)
}

// ChromaHighlighter is the synchronous, in-process Highlighter
// implementation. It is safe for concurrent use.
type ChromaHighlighter struct {
	lexers sync.Map // language -> chroma.Lexer
	styles sync.Map // theme -> *chroma.Style
}

// NewChromaHighlighter returns a ready-to-use ChromaHighlighter.
func NewChromaHighlighter() *ChromaHighlighter {
	return &ChromaHighlighter{}
}

func (c *ChromaHighlighter) lexerFor(language string) chroma.Lexer {
	if v, ok := c.lexers.Load(language); ok {
		return v.(chroma.Lexer)
	}
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	c.lexers.Store(language, lexer)
	return lexer
}

func (c *ChromaHighlighter) styleFor(theme string) *chroma.Style {
	if v, ok := c.styles.Load(theme); ok {
		return v.(*chroma.Style)
	}
	style := StyleFor(theme)
	c.styles.Store(theme, style)
	return style
}

// StyleFor resolves a named chroma style, falling back to styles.Fallback for
// an unknown name. It is the same lookup ChromaHighlighter caches per theme,
// exported so a renderer can turn a Token's Class into a color without going
// through a Highlighter.
func StyleFor(theme string) *chroma.Style {
	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}
	return style
}

// Color resolves the foreground lipgloss.Color a chroma style assigns class,
// via the same StyleEntry lookup chroma's own terminal formatter renders
// from. ok is false when the style leaves class unset (e.g. plain
// chroma.Text), letting the caller keep its own base color instead.
func Color(style *chroma.Style, class chroma.TokenType) (lipgloss.Color, bool) {
	if style == nil {
		return "", false
	}
	entry := style.Get(class)
	if !entry.Colour.IsSet() {
		return "", false
	}
	return lipgloss.Color(entry.Colour.String()), true
}

// Highlight tokenizes req.Text with the lexer attached to req.Language,
// returning one Token slice per line. The chroma.Style named by req.Theme is
// resolved and cached here so repeated requests for the same theme don't
// re-walk chroma's style registry; callers map each Token's Class through it
// (via Color) once tokens reach renderview.
func (c *ChromaHighlighter) Highlight(ctx context.Context, req Request) (Result, error) {
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	lexer := c.lexerFor(req.Language)
	c.styleFor(req.Theme)

	iterator, err := lexer.Tokenise(nil, req.Text)
	if err != nil {
		return Result{}, err
	}

	rows := [][]Token{{}}
	for _, tok := range chroma.SplitTokensIntoLines(iterator.Tokens()) {
		var row []Token
		for _, t := range tok {
			row = append(row, Token{Text: t.Value, Class: t.Type})
		}
		rows = append(rows, row)
	}
	// rows starts with an empty placeholder row; drop it so the row count
	// matches the source line count.
	if len(rows) > 0 {
		rows = rows[1:]
	}
	return Result{Rows: rows}, nil
}

// PlainTokens wraps unhighlighted text into single-token rows, so renderview
// never has to special-case "no highlighter configured yet."
func PlainTokens(text string) [][]Token {
	lines := splitLines(text)
	rows := make([][]Token, len(lines))
	for i, l := range lines {
		if l == "" {
			rows[i] = nil
			continue
		}
		rows[i] = []Token{{Text: l, Class: chroma.Text}}
	}
	return rows
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
