package hooks

import (
	"errors"
	"maps"
	"slices"
	"time"

	"git.home.luguber.info/inful/pagehooks/internal/config"
)

// ErrOutputNotProduced is returned by Context.Output when a derived output is
// read before the stage that produces it has run.
var ErrOutputNotProduced = errors.New("output not produced yet")

// RequestType tells how a page render was triggered.
type RequestType string

const (
	RequestBuild  RequestType = "build"
	RequestServer RequestType = "server"
)

// Request identifies the page a request context renders.
type Request struct {
	Route     string
	Permalink string
	Type      RequestType
}

// IncomingRequest is the part of an HTTP request the middleware stage reads.
type IncomingRequest struct {
	Method string
	Path   string
}

// Response is the write side of a dev server request.
type Response interface {
	HeaderSent() bool
	SetHeader(name, value string)
	End(body string)
}

// NextFunc hands the request to the next handler. Its return value is passed
// through Stop unchanged.
type NextFunc func() any

// Helpers are functions and values exposed to templates.
type Helpers map[string]any

// Timing is one measured span.
type Timing struct {
	Name     string
	Duration time.Duration
}

// Stack names an append-only fragment accumulator.
type Stack string

const (
	StackHead          Stack = "headStack"
	StackCSS           Stack = "cssStack"
	StackBeforeHydrate Stack = "beforeHydrateStack"
	StackHydrate       Stack = "hydrateStack"
	StackCustomJS      Stack = "customJsStack"
	StackFooter        Stack = "footerStack"
)

// Stacks returns every stack name.
func Stacks() []Stack {
	return []Stack{StackHead, StackCSS, StackBeforeHydrate, StackHydrate, StackCustomJS, StackFooter}
}

// Output names a derived string produced by a later stage.
type Output string

const (
	OutputTemplateHTML Output = "templateHtml"
	OutputLayoutHTML   Output = "layoutHtml"
	OutputHeadString   Output = "headString"
	OutputFooterString Output = "footerString"
	OutputHTMLString   Output = "htmlString"
)

// Context is the shared state of one pipeline invocation. Hooks read the
// exported inputs and return patches; accumulators and outputs only change
// through Apply.
type Context struct {
	scope Scope

	Settings     *config.Settings
	Request      *Request
	Routes       map[string]config.Route
	Helpers      Helpers
	Query        map[string]any
	Data         map[string]any
	Req          *IncomingRequest
	Res          Response
	Next         NextFunc
	ServerLookup map[string]*Request

	stacks       map[Stack][]Fragment
	outputs      map[Output]string
	errs         []error
	timings      []Timing
	buildTimings [][]Timing
}

// NewRequestContext creates a context for the request stages.
func NewRequestContext(settings *config.Settings, req *Request) *Context {
	c := newContext(ScopeRequest, settings)
	c.Request = req
	return c
}

// NewBuildContext creates a context for bootstrap and buildComplete.
func NewBuildContext(settings *config.Settings) *Context {
	return newContext(ScopeBuild, settings)
}

func newContext(scope Scope, settings *config.Settings) *Context {
	c := &Context{
		scope:    scope,
		Settings: settings,
		Routes:   map[string]config.Route{},
		Helpers:  Helpers{},
		Query:    map[string]any{},
		Data:     map[string]any{},
		stacks:   map[Stack][]Fragment{},
		outputs:  map[Output]string{},
	}
	if settings != nil {
		for _, r := range settings.Routes {
			c.Routes[r.Name] = r
		}
	}
	return c
}

// Scope returns the scope fixed at construction.
func (c *Context) Scope() Scope { return c.scope }

// Stack returns a copy of the fragments pushed to s, in push order.
func (c *Context) Stack(s Stack) []Fragment { return slices.Clone(c.stacks[s]) }

// Output returns a derived output or ErrOutputNotProduced.
func (c *Context) Output(name Output) (string, error) {
	v, ok := c.outputs[name]
	if !ok {
		return "", ErrOutputNotProduced
	}
	return v, nil
}

// Errors returns a copy of the accumulated errors.
func (c *Context) Errors() []error { return slices.Clone(c.errs) }

// Timings returns a copy of the per-request timings.
func (c *Context) Timings() []Timing { return slices.Clone(c.timings) }

// BuildTimings returns a copy of the per-page timings collected by a build.
func (c *Context) BuildTimings() [][]Timing { return slices.Clone(c.buildTimings) }

// Apply merges p into c without checking stage permissions. The engine calls
// it after validating a hook patch; hosts call it directly for their own work.
func (c *Context) Apply(p Patch) {
	if p.Helpers != nil {
		c.Helpers = p.Helpers
	}
	if p.Query != nil {
		c.Query = p.Query
	}
	if p.Data != nil {
		c.Data = p.Data
	}
	for name, v := range p.Outputs {
		c.outputs[name] = v
	}
	for _, s := range Stacks() {
		if frags := p.Push[s]; len(frags) > 0 {
			c.stacks[s] = append(c.stacks[s], frags...)
		}
	}
	c.errs = append(c.errs, p.Errors...)
	c.timings = append(c.timings, p.Timings...)
	c.buildTimings = append(c.buildTimings, p.BuildTimings...)
}

// Clone returns a copy whose maps and accumulators can change independently of c.
func (c *Context) Clone() *Context {
	out := *c
	out.Routes = maps.Clone(c.Routes)
	out.Helpers = maps.Clone(c.Helpers)
	out.Query = maps.Clone(c.Query)
	out.Data = maps.Clone(c.Data)
	out.ServerLookup = maps.Clone(c.ServerLookup)
	out.stacks = make(map[Stack][]Fragment, len(c.stacks))
	for k, v := range c.stacks {
		out.stacks[k] = slices.Clone(v)
	}
	out.outputs = maps.Clone(c.outputs)
	out.errs = slices.Clone(c.errs)
	out.timings = slices.Clone(c.timings)
	out.buildTimings = slices.Clone(c.buildTimings)
	return &out
}
