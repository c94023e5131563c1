package shortcode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagehooks/internal/config"
	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser([]config.Shortcode{
		{
			Name:     "box",
			Template: `<div class="box"><h3>{{.Attrs.title}}</h3>{{.Content}}</div>`,
			CSS:      ".box{border:1px solid}",
			Head:     `<link rel="stylesheet" href="/box.css" />`,
		},
		{Name: "year", Template: `2024`, JS: `console.log("year");`},
	})
	require.NoError(t, err)
	return p
}

func TestParseExpandsShortcodes(t *testing.T) {
	p := newParser(t)
	out, frags, err := p.Parse(context.Background(), `<p>{{box title="Hi"}}inside {{year /}}{{/box}}</p>{{box title='Again'}}{{/box}}`)
	require.NoError(t, err)

	assert.Equal(t, `<p><div class="box"><h3>Hi</h3>inside 2024</div></p><div class="box"><h3>Again</h3></div>`, out)
	require.Len(t, frags.CSS, 1, "each shortcode contributes once")
	assert.Equal(t, "shortcode:box", frags.CSS[0].Source)
	require.Len(t, frags.JS, 1)
	assert.Equal(t, `console.log("year");`, frags.JS[0].String)
	require.Len(t, frags.Head, 1)
}

func TestParseDecodesEscapedQuotes(t *testing.T) {
	p := newParser(t)
	out, _, err := p.Parse(context.Background(), `{{box title=&quot;Welcome&quot;}}x{{/box}}`)
	require.NoError(t, err)
	assert.Equal(t, `<div class="box"><h3>Welcome</h3>x</div>`, out)
}

func TestParseLeavesUnknownShortcodes(t *testing.T) {
	p := newParser(t)
	in := `<p>{{unknown a="1"}}text{{/unknown}}</p>`
	out, frags, err := p.Parse(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Empty(t, frags.CSS)
}

func TestParseUnclosed(t *testing.T) {
	p := newParser(t)
	_, _, err := p.Parse(context.Background(), `{{box title="x"}}never closed`)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRender))
}

func TestNewParserRejectsBadTemplate(t *testing.T) {
	_, err := NewParser([]config.Shortcode{{Name: "bad", Template: "{{.Attrs"}})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestParseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := newParser(t).Parse(ctx, "plain")
	assert.ErrorIs(t, err, context.Canceled)
}
