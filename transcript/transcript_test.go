package transcript

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sonnes/lekhak/core"
	"github.com/sonnes/lekhak/layout"
	"github.com/sonnes/lekhak/render/pdf"
	"github.com/sonnes/lekhak/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)

func newTestAppender(t *testing.T) *Appender {
	t.Helper()
	logger := log.New(io.Discard)
	c, err := layout.NewComposer(layout.Default(), nil, logger)
	require.NoError(t, err)
	st, err := store.New(t.TempDir(), c.Layout.Size(), pdf.NewEncoder(c.Layout.Font), logger)
	require.NoError(t, err)

	a := New(st, c, logger)
	a.Now = func() time.Time { return testTime }
	return a
}

func footers(d *core.Document) []string {
	var out []string
	for _, p := range d.Pages {
		out = append(out, p.Footer.Text)
	}
	return out
}

func TestAppendChatMissingSession(t *testing.T) {
	a := newTestAppender(t)

	_, err := a.AppendChat(context.Background(), "s1", core.ChatTurn{Question: "q", Answer: "a"}, Options{})
	assert.ErrorIs(t, err, core.ErrDocumentNotFound)
	assert.False(t, a.Store.Exists("s1"))
}

func TestAppendChatGrowsByOnePage(t *testing.T) {
	ctx := context.Background()
	a := newTestAppender(t)

	for i := 1; i <= 3; i++ {
		d, err := a.AppendChat(ctx, "s1", core.ChatTurn{Question: "What is 2+2?", Answer: "4"}, Options{Create: true})
		require.NoError(t, err)
		assert.Equal(t, i, d.PageCount())
	}

	d, err := a.Store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Page 1 of 3", "Page 2 of 3", "Page 3 of 3"}, footers(d))

	data, err := a.Store.ReadPDF("s1")
	require.NoError(t, err)
	n, err := pdf.PageCount(data)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAppendChatSanitizesNewlines(t *testing.T) {
	a := newTestAppender(t)

	d, err := a.AppendChat(context.Background(), "s1", core.ChatTurn{Question: "line one\nline two", Answer: "a\r\nb"}, Options{Create: true})
	require.NoError(t, err)

	texts := d.Pages[0].Texts()
	assert.Contains(t, texts, "line one line two")
	assert.Contains(t, texts, "a b")
	for _, s := range texts {
		assert.NotContains(t, s, "\n")
	}
}

func TestAppendChatLongAnswerWraps(t *testing.T) {
	a := newTestAppender(t)
	answer := strings.TrimSpace(strings.Repeat("lorem ipsum dolor sit amet ", 40))

	d, err := a.AppendChat(context.Background(), "s1", core.ChatTurn{Question: "q", Answer: answer}, Options{Create: true})
	require.NoError(t, err)

	max := a.Composer.Layout.MaxLineWidth()
	var words []string
	for _, op := range d.Pages[0].Ops {
		if op.Type != core.OpText || op.Font != core.FontRegular || op.Text == "q" {
			continue
		}
		w, err := a.Composer.Fonts.Regular.Width(op.Text, op.Size)
		require.NoError(t, err)
		assert.LessOrEqual(t, w, max)
		words = append(words, strings.Fields(op.Text)...)
	}
	assert.Equal(t, strings.Fields(answer), words)
}

func TestAppendChatSkipsUnsupportedWords(t *testing.T) {
	a := newTestAppender(t)

	d, err := a.AppendChat(context.Background(), "s1", core.ChatTurn{Question: "hi", Answer: "snow ☃ man"}, Options{Create: true})
	require.NoError(t, err)
	assert.Contains(t, d.Pages[0].Texts(), "snow man")
}

func TestAppendDealer(t *testing.T) {
	ctx := context.Background()
	a := newTestAppender(t)
	info := core.DealerInfo{Name: "Acme Motors", Info: "Open weekdays", Number: "555-0100"}

	d, err := a.AppendDealer(ctx, "s1", info, Options{Create: true})
	require.NoError(t, err)
	require.Equal(t, 1, d.PageCount())
	assert.Equal(t, core.PageDealer, d.Pages[0].Kind)

	texts := d.Pages[0].Texts()
	for _, want := range []string{"Chat Report", "5/1/2024, 2:30:00 PM", "Dealer Name:", "Acme Motors", "Dealer Info:", "Open weekdays", "Dealer Number:", "555-0100"} {
		assert.Contains(t, texts, want)
	}

	_, err = a.AppendChat(ctx, "s1", core.ChatTurn{Question: "q", Answer: "a"}, Options{})
	require.NoError(t, err)
	d, err = a.AppendDealer(ctx, "s1", info, Options{})
	require.NoError(t, err)
	assert.Equal(t, []core.PageKind{core.PageDealer, core.PageChat, core.PageDealer}, kinds(d))
	assert.Equal(t, "Page 3 of 3", d.Pages[2].Footer.Text)
}

func TestAppendDealerValidates(t *testing.T) {
	a := newTestAppender(t)

	_, err := a.AppendDealer(context.Background(), "s1", core.DealerInfo{Name: "Acme"}, Options{Create: true})
	assert.ErrorIs(t, err, ErrInvalidDealer)
	assert.Contains(t, err.Error(), "dealerInfo")
	assert.False(t, a.Store.Exists("s1"))
}

func TestCoverPage(t *testing.T) {
	ctx := context.Background()
	a := newTestAppender(t)
	a.Cover = true

	d, err := a.AppendChat(ctx, "s1", core.ChatTurn{Question: "q", Answer: "a"}, Options{Create: true})
	require.NoError(t, err)
	assert.Equal(t, []core.PageKind{core.PageCover, core.PageChat}, kinds(d))
	assert.Contains(t, d.Pages[0].Texts(), "s1")

	d, err = a.AppendChat(ctx, "s1", core.ChatTurn{Question: "q", Answer: "a"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []core.PageKind{core.PageCover, core.PageChat, core.PageChat}, kinds(d))
}

func TestAppendLeavesInvalidDocument(t *testing.T) {
	a := newTestAppender(t)
	path, err := a.Store.Path("s1")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	_, err = a.AppendChat(context.Background(), "s1", core.ChatTurn{Question: "q", Answer: "a"}, Options{Create: true})
	assert.True(t, errors.Is(err, core.ErrInvalidDocument))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not a pdf", string(data))
}

func kinds(d *core.Document) []core.PageKind {
	var out []core.PageKind
	for _, p := range d.Pages {
		out = append(out, p.Kind)
	}
	return out
}
