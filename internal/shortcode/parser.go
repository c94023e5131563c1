// Package shortcode expands {{name attr="v"}}inner{{/name}} markers in
// rendered templates using the shortcodes declared in settings.
package shortcode

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"text/template"

	"git.home.luguber.info/inful/pagehooks/internal/config"
	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
	"git.home.luguber.info/inful/pagehooks/internal/hooks"
)

var (
	openRe = regexp.MustCompile(`\{\{\s*([A-Za-z][\w-]*)([^{}]*?)\s*(/?)\}\}`)
	attrRe = regexp.MustCompile(`([A-Za-z_][\w-]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

// Fragments are the stack entries contributed by the shortcodes of one parse.
type Fragments struct {
	CSS  []hooks.Fragment
	JS   []hooks.Fragment
	Head []hooks.Fragment
}

// Data is what a shortcode template receives.
type Data struct {
	Name    string
	Attrs   map[string]string
	Content string
}

type shortcode struct {
	def  config.Shortcode
	tmpl *template.Template
}

// Parser expands the shortcodes it was built with. Unknown names are left untouched.
type Parser struct {
	codes map[string]*shortcode
}

// NewParser compiles the shortcode templates.
func NewParser(defs []config.Shortcode) (*Parser, error) {
	p := &Parser{codes: make(map[string]*shortcode, len(defs))}
	for _, d := range defs {
		tmpl, err := template.New(d.Name).Option("missingkey=zero").Parse(d.Template)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid shortcode template").
				WithContext("shortcode", d.Name).
				Build()
		}
		p.codes[d.Name] = &shortcode{def: d, tmpl: tmpl}
	}
	return p, nil
}

// Parse returns templateHTML with every known shortcode expanded, plus the
// css, js and head fragments of the shortcodes used (once per shortcode).
func (p *Parser) Parse(ctx context.Context, templateHTML string) (string, Fragments, error) {
	var frags Fragments
	used := make(map[string]bool)
	out, err := p.expand(ctx, templateHTML, used, &frags)
	if err != nil {
		return "", Fragments{}, err
	}
	return out, frags, nil
}

func (p *Parser) expand(ctx context.Context, s string, used map[string]bool, frags *Fragments) (string, error) {
	var sb strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		loc := openRe.FindStringSubmatchIndex(s)
		if loc == nil {
			sb.WriteString(s)
			return sb.String(), nil
		}
		name := s[loc[2]:loc[3]]
		sc, ok := p.codes[name]
		if !ok {
			sb.WriteString(s[:loc[1]])
			s = s[loc[1]:]
			continue
		}
		sb.WriteString(s[:loc[0]])
		attrs := parseAttrs(s[loc[4]:loc[5]])
		selfClosing := loc[7] > loc[6]
		rest := s[loc[1]:]

		var inner string
		if !selfClosing {
			closer := "{{/" + name + "}}"
			end := strings.Index(rest, closer)
			if end < 0 {
				return "", ferrors.RenderError("unclosed shortcode").WithContext("shortcode", name).Build()
			}
			expanded, err := p.expand(ctx, rest[:end], used, frags)
			if err != nil {
				return "", err
			}
			inner = expanded
			rest = rest[end+len(closer):]
		}

		var body strings.Builder
		if err := sc.tmpl.Execute(&body, Data{Name: name, Attrs: attrs, Content: inner}); err != nil {
			return "", ferrors.WrapError(err, ferrors.CategoryRender, "shortcode failed").
				WithContext("shortcode", name).
				Build()
		}
		sb.WriteString(body.String())
		if !used[name] {
			used[name] = true
			frags.add(sc.def)
		}
		s = rest
	}
}

func (f *Fragments) add(d config.Shortcode) {
	src := fmt.Sprintf("shortcode:%s", d.Name)
	if d.CSS != "" {
		f.CSS = append(f.CSS, hooks.Fragment{Source: src, String: d.CSS, Priority: hooks.DefaultFragmentPriority})
	}
	if d.JS != "" {
		f.JS = append(f.JS, hooks.Fragment{Source: src, String: d.JS, Priority: hooks.DefaultFragmentPriority})
	}
	if d.Head != "" {
		f.Head = append(f.Head, hooks.Fragment{Source: src, String: d.Head, Priority: hooks.DefaultFragmentPriority})
	}
}

// parseAttrs reads key="value" pairs. Markdown renderers escape quotes, so
// entities are decoded first.
func parseAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatch(html.UnescapeString(s), -1) {
		v := m[2]
		if v == "" {
			v = m[3]
		}
		attrs[m[1]] = v
	}
	return attrs
}
