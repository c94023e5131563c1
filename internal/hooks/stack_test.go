package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeDescendingStable(t *testing.T) {
	frags := []Fragment{
		{String: "c", Priority: 50},
		{String: "a", Priority: 100},
		{String: "d", Priority: 50},
		{String: "b", Priority: 90},
	}
	assert.Equal(t, "abcd", Compose(frags))
	assert.Equal(t, "c", frags[0].String, "input is not reordered")
	assert.Empty(t, Compose(nil))
}

func TestValidateFragment(t *testing.T) {
	valid := []string{
		`<meta charset="UTF-8" />`,
		`<link rel="preload" href="/static/s.min.js" as="script" />`,
		`<script>if (a < b) { load(); }</script>`,
		`<div><p>text</p></div>`,
	}
	for _, s := range valid {
		assert.NoError(t, ValidateFragment(Fragment{Source: "t", String: s}), s)
	}

	invalid := []string{"", "   ", "<div>", "</p>", "<div><span></div>"}
	for _, s := range invalid {
		assert.Error(t, ValidateFragment(Fragment{Source: "t", String: s}), s)
	}
}
