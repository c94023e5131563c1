package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	out, err := New().Render([]byte("# Hello\n\nSome *text*.\n"))
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hello</h1>\n<p>Some <em>text</em>.</p>\n", out)
}

func TestRenderKeepsRawHTMLAndShortcodes(t *testing.T) {
	out, err := New().Render([]byte("<div class=\"x\">raw</div>\n\n{{box title=\"Hi\"}}inner{{/box}}\n"))
	require.NoError(t, err)
	assert.Contains(t, out, `<div class="x">raw</div>`)
	assert.Contains(t, out, `{{box title=&quot;Hi&quot;}}inner{{/box}}`)
}

func TestRenderTable(t *testing.T) {
	out, err := New().Render([]byte("| a |\n|---|\n| 1 |\n"))
	require.NoError(t, err)
	assert.Contains(t, out, "<table>")
}
