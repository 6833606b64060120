package highlight

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/stretchr/testify/require"
)

func TestChromaHighlighter_HighlightGo(t *testing.T) {
	h := NewChromaHighlighter()
	res, err := h.Highlight(context.Background(), Request{
		Text:     "package main\n\nfunc main() {}\n",
		Language: "go",
		Theme:    "monokai",
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
}

func TestChromaHighlighter_UnknownLanguageFallsBack(t *testing.T) {
	h := NewChromaHighlighter()
	res, err := h.Highlight(context.Background(), Request{Text: "whatever\n", Language: "not-a-real-language"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Rows)
}

func TestChromaHighlighter_CachesLexerByLanguage(t *testing.T) {
	h := NewChromaHighlighter()
	_, err := h.Highlight(context.Background(), Request{Text: "x := 1\n", Language: "go"})
	require.NoError(t, err)
	first := h.lexerFor("go")
	second := h.lexerFor("go")
	require.Same(t, first, second)
}

func TestStyleFor_UnknownThemeFallsBack(t *testing.T) {
	style := StyleFor("not-a-real-theme")
	require.NotNil(t, style)
}

func TestColor_KeywordAndCommentDiffer(t *testing.T) {
	style := StyleFor("monokai")

	kw, ok := Color(style, chroma.KeywordDeclaration)
	require.True(t, ok)
	cm, ok := Color(style, chroma.Comment)
	require.True(t, ok)
	require.NotEqual(t, kw, cm)
}

func TestPlainTokens(t *testing.T) {
	rows := PlainTokens("one\ntwo\nthree")
	require.Len(t, rows, 3)
	require.Equal(t, "one", rows[0][0].Text)
}

type countingHighlighter struct {
	calls int64
}

func (c *countingHighlighter) Highlight(ctx context.Context, req Request) (Result, error) {
	atomic.AddInt64(&c.calls, 1)
	return Result{Rows: PlainTokens(req.Text)}, nil
}

func TestPool_SynchronousMode(t *testing.T) {
	h := &countingHighlighter{}
	p := NewPool(h, 0)
	require.Equal(t, ModeSynchronous, p.Mode())

	resp := p.Submit(context.Background(), Request{Text: "a\n"})
	result := <-resp
	require.Len(t, result.Rows, 1)
	require.EqualValues(t, 1, atomic.LoadInt64(&h.calls))
}

func TestPool_WorkingModeProcessesAllJobs(t *testing.T) {
	h := &countingHighlighter{}
	p := NewPool(h, 2)
	require.Equal(t, ModeWorking, p.Mode())
	defer p.Close()

	var channels []<-chan Result
	for i := 0; i < 10; i++ {
		channels = append(channels, p.Submit(context.Background(), Request{Text: "a\n"}))
	}
	for _, ch := range channels {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for pool result")
		}
	}
	require.EqualValues(t, 10, atomic.LoadInt64(&h.calls))
}

func TestPool_CloseIsIdempotent(t *testing.T) {
	p := NewPool(&countingHighlighter{}, 1)
	p.Close()
	p.Close()
}

func TestCache_SetGetAndMetrics(t *testing.T) {
	c := NewCache()
	key := CacheKey{FileCacheKey: "f1", Theme: "monokai"}

	_, ok := c.Get(key)
	require.False(t, ok)

	c.Set(key, Result{Rows: PlainTokens("hi")})
	got, ok := c.Get(key)
	require.True(t, ok)
	require.Len(t, got.Rows, 1)

	m := c.Metrics()
	require.EqualValues(t, 1, m.Hits)
	require.EqualValues(t, 1, m.Misses)
}

func TestCache_InvalidateDropsAllThemesForFile(t *testing.T) {
	c := NewCache()
	c.Set(CacheKey{FileCacheKey: "f1", Theme: "dark"}, Result{})
	c.Set(CacheKey{FileCacheKey: "f1", Theme: "light"}, Result{})
	c.Set(CacheKey{FileCacheKey: "f2", Theme: "dark"}, Result{})

	c.Invalidate("f1")

	_, ok := c.Get(CacheKey{FileCacheKey: "f1", Theme: "dark"})
	require.False(t, ok)
	_, ok = c.Get(CacheKey{FileCacheKey: "f1", Theme: "light"})
	require.False(t, ok)
	_, ok = c.Get(CacheKey{FileCacheKey: "f2", Theme: "dark"})
	require.True(t, ok)
}
