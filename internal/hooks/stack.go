package hooks

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// DefaultFragmentPriority is used by hosts pushing fragments without an opinion on order.
const DefaultFragmentPriority = 50

// Fragment is one entry of a stack. Source names the hook or component that pushed it.
type Fragment struct {
	Source   string `json:"source"`
	String   string `json:"string"`
	Priority int    `json:"priority"`
}

// Compose renders a stack: fragments sorted by descending priority (stable),
// concatenated.
func Compose(frags []Fragment) string {
	sorted := slices.Clone(frags)
	slices.SortStableFunc(sorted, func(a, b Fragment) int { return b.Priority - a.Priority })
	var sb strings.Builder
	for _, f := range sorted {
		sb.WriteString(f.String)
	}
	return sb.String()
}

// voidElements never take a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// ValidateFragment checks that f is non-empty markup whose elements are balanced.
func ValidateFragment(f Fragment) error {
	if strings.TrimSpace(f.String) == "" {
		return fmt.Errorf("fragment from %q is empty", f.Source)
	}
	var open []string
	z := html.NewTokenizer(strings.NewReader(f.String))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return fmt.Errorf("fragment from %q: %w", f.Source, err)
			}
			if len(open) > 0 {
				return fmt.Errorf("fragment from %q: unclosed <%s>", f.Source, open[len(open)-1])
			}
			return nil
		case html.StartTagToken:
			name, _ := z.TagName()
			if !voidElements[string(name)] {
				open = append(open, string(name))
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if len(open) == 0 || open[len(open)-1] != string(name) {
				return fmt.Errorf("fragment from %q: unexpected </%s>", f.Source, name)
			}
			open = open[:len(open)-1]
		}
	}
}
