// ABOUTME: Tests for the markdown editor component's preview across pending, loaded and fallback states.
// ABOUTME: Covers fetch-once, edits while pending, unmount discarding, and byte-exact fallback text.
package component

import (
	"context"
	"errors"
	"html/template"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/2389-research/splitview/content"
	"github.com/2389-research/splitview/loader"
	"github.com/2389-research/splitview/markdown"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubFetch lets a test decide when and how the renderer fetch resolves.
type stubFetch struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func newStubFetch(err error) *stubFetch {
	return &stubFetch{release: make(chan struct{}), err: err}
}

func (s *stubFetch) fetch(ctx context.Context) (Renderer, error) {
	s.calls.Add(1)
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	engine, err := markdown.Fetcher{}.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

func waitDone(t *testing.T, e *Editor) {
	t.Helper()
	select {
	case <-e.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("editor renderer did not settle")
	}
}

func propsWith(text string) content.EditorProps {
	return content.EditorProps{InitialText: text, Title: "T", Author: "A", LastModified: time.Now()}
}

func TestEditorStartsWithSampleTextWhenEmpty(t *testing.T) {
	e := NewEditor(content.EditorProps{}, newStubFetch(nil).fetch)
	assert.Equal(t, SampleText, e.Text())
	assert.Equal(t, KindMarkdownEditor, e.Kind())
	assert.NotEmpty(t, e.ID())
}

func TestEditorPendingShowsSkeleton(t *testing.T) {
	stub := newStubFetch(nil)
	e := NewEditor(propsWith("# Title\n\nbody"), stub.fetch)
	e.Mount(context.Background())
	defer e.Unmount()

	view := e.Preview()
	assert.Equal(t, loader.StatePending, view.State)
	require.Len(t, view.Skeleton, 2)
	assert.Equal(t, SkeletonHeading, view.Skeleton[0].Kind)
	assert.Empty(t, view.HTML)
	assert.False(t, view.ShowRaw())
}

func TestEditorSampleTextRendersTableAndCheckedTask(t *testing.T) {
	stub := newStubFetch(nil)
	e := NewEditor(content.EditorProps{}, stub.fetch)
	e.Mount(context.Background())

	assert.Equal(t, loader.StatePending, e.Preview().State)
	close(stub.release)
	waitDone(t, e)

	view := e.Preview()
	require.Equal(t, loader.StateLoaded, view.State)
	html := string(view.HTML)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, `type="checkbox"`)
	assert.Contains(t, html, "checked")
	assert.Contains(t, html, "Load heavyweight markdown engine")
	assert.Nil(t, view.Skeleton)
}

func TestEditorFailureFallsBackToRawText(t *testing.T) {
	stub := newStubFetch(errors.New("chunk load error"))
	e := NewEditor(propsWith("# Keep *me*"), stub.fetch)
	e.Mount(context.Background())
	close(stub.release)
	waitDone(t, e)

	view := e.Preview()
	assert.Equal(t, loader.StateFallback, view.State)
	assert.True(t, view.ShowRaw())
	assert.Equal(t, "# Keep *me*", view.Raw)
	assert.Empty(t, view.HTML)

	e.SetText("still editable")
	assert.Equal(t, "still editable", e.Preview().Raw)
}

func TestEditorFallbackTextIsByteExact(t *testing.T) {
	stub := newStubFetch(errors.New("offline"))
	close(stub.release)
	e := NewEditor(propsWith("seed"), stub.fetch)
	e.Mount(context.Background())
	waitDone(t, e)
	require.Equal(t, loader.StateFallback, e.State())

	faker := gofakeit.New(42)
	specials := []string{"<script>", "&amp;", "\t", "\r\n", "  ", "é", "```", "|a|b|", "\x00"}
	for i := 0; i < 200; i++ {
		var b strings.Builder
		for j := 0; j < 1+i%7; j++ {
			b.WriteString(faker.Word())
			b.WriteString(specials[(i+j)%len(specials)])
			b.WriteString(faker.Emoji())
		}
		text := b.String()
		e.SetText(text)
		assert.Equal(t, text, e.Preview().Raw)
	}
}

func TestEditorEditsWhilePendingArePreserved(t *testing.T) {
	stub := newStubFetch(nil)
	e := NewEditor(propsWith("first"), stub.fetch)
	e.Mount(context.Background())

	e.SetText("# Edited while loading")
	assert.Equal(t, "# Edited while loading", e.Text(), "edit visible immediately")
	assert.Equal(t, 1, e.Fetches())

	for i := 0; i < 10; i++ {
		e.SetText("# Edited while loading")
		e.Preview()
	}
	assert.Equal(t, 1, e.Fetches(), "edits must not trigger another fetch")

	close(stub.release)
	waitDone(t, e)
	assert.Contains(t, string(e.Preview().HTML), "Edited while loading")
	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestEditorMountTwiceFetchesOnce(t *testing.T) {
	stub := newStubFetch(nil)
	e := NewEditor(propsWith("x"), stub.fetch)
	assert.True(t, e.Mount(context.Background()))
	assert.False(t, e.Mount(context.Background()))
	close(stub.release)
	waitDone(t, e)
	assert.False(t, e.Mount(context.Background()))
	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestEditorUnmountBeforeResolveStaysPending(t *testing.T) {
	stub := newStubFetch(nil)
	e := NewEditor(propsWith("x"), stub.fetch)

	var notified atomic.Bool
	e.OnSettle(func(loader.State) { notified.Store(true) })
	e.Mount(context.Background())
	e.Unmount()
	waitDone(t, e)
	close(stub.release)

	assert.True(t, e.Unmounted())
	assert.Equal(t, loader.StatePending, e.State())
	assert.False(t, notified.Load())
}

type failingRenderer struct{}

func (failingRenderer) Render(string) (template.HTML, error) {
	return "", errors.New("render exploded")
}

func TestEditorRenderErrorDegradesWithoutStateChange(t *testing.T) {
	e := NewEditor(propsWith("text"), func(context.Context) (Renderer, error) {
		return failingRenderer{}, nil
	})
	e.Mount(context.Background())
	waitDone(t, e)

	view := e.Preview()
	assert.Equal(t, loader.StateLoaded, view.State)
	assert.True(t, view.Degraded)
	assert.True(t, view.ShowRaw())
	assert.Equal(t, "text", view.Raw)
}

func TestMarkdownFetchAdaptsFetcher(t *testing.T) {
	r, err := MarkdownFetch(markdown.Fetcher{})(context.Background())
	require.NoError(t, err)
	out, err := r.Render("**bold**")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<strong>bold</strong>")

	r, err = MarkdownFetch(markdown.Fetcher{Fail: true})(context.Background())
	assert.ErrorIs(t, err, markdown.ErrFetchFailed)
	assert.Nil(t, r, "a failed fetch must not return a typed nil renderer")
}

func TestEditorDocumentCopy(t *testing.T) {
	props := propsWith("body")
	e := NewEditor(props, newStubFetch(nil).fetch)
	doc := e.Document()
	assert.Equal(t, "T", doc.Title)
	assert.Equal(t, "A", doc.Author)
	assert.Equal(t, props.LastModified, doc.LastModified)
}
