package hooks

import "fmt"

// Stage identifies a hook point: one pipeline invocation with its own hook subset.
type Stage string

const (
	StageBootstrap       Stage = "bootstrap"
	StageMiddleware      Stage = "middleware"
	StageRequest         Stage = "request"
	StageData            Stage = "data"
	StageShortcodes      Stage = "shortcodes"
	StageStacks          Stage = "stacks"
	StageHead            Stage = "head"
	StageCompileHTML     Stage = "compileHtml"
	StageHTML            Stage = "html"
	StageRequestComplete Stage = "requestComplete"
	StageError           Stage = "error"
	StageBuildComplete   Stage = "buildComplete"
)

// Scope tells which kind of context a stage runs against.
type Scope int

const (
	ScopeRequest Scope = iota
	ScopeBuild
)

func (s Scope) String() string {
	if s == ScopeBuild {
		return "build"
	}
	return "request"
}

// Field names a context field a patch can touch.
type Field string

const (
	FieldHelpers      Field = "helpers"
	FieldQuery        Field = "query"
	FieldData         Field = "data"
	FieldErrors       Field = "errors"
	FieldTimings      Field = "timings"
	FieldBuildTimings Field = "buildTimings"
)

type stageInfo struct {
	scope       Scope
	description string
	mutable     []Field
}

var stageOrder = []Stage{
	StageBootstrap,
	StageMiddleware,
	StageRequest,
	StageData,
	StageShortcodes,
	StageStacks,
	StageHead,
	StageCompileHTML,
	StageHTML,
	StageRequestComplete,
	StageError,
	StageBuildComplete,
}

var stageTable = map[Stage]stageInfo{
	StageBootstrap: {
		scope:       ScopeBuild,
		description: "Runs once before any page is rendered; loads helpers shared by every request.",
		mutable:     []Field{FieldHelpers, FieldQuery, FieldData, FieldErrors},
	},
	StageMiddleware: {
		scope:       ScopeRequest,
		description: "Dev server requests; may answer the request and stop the stage.",
		mutable:     []Field{FieldHelpers, FieldQuery, FieldData, FieldErrors},
	},
	StageRequest: {
		scope:       ScopeRequest,
		description: "Start of a page render; adjust helpers and data for this request.",
		mutable:     []Field{FieldHelpers, FieldQuery, FieldData, FieldErrors},
	},
	StageData: {
		scope:       ScopeRequest,
		description: "Populate page data before templates render.",
		mutable:     []Field{FieldData, FieldErrors},
	},
	StageShortcodes: {
		scope:       ScopeRequest,
		description: "Rewrite the rendered template and collect shortcode css, js and head fragments.",
		mutable:     []Field{Field(OutputTemplateHTML), Field(StackHead), Field(StackCSS), Field(StackCustomJS), FieldErrors},
	},
	StageStacks: {
		scope:       ScopeRequest,
		description: "Push fragments into the head, css, script and footer stacks.",
		mutable: []Field{
			Field(StackHead), Field(StackCSS), Field(StackBeforeHydrate), Field(StackHydrate),
			Field(StackCustomJS), Field(StackFooter), FieldErrors,
		},
	},
	StageHead: {
		scope:       ScopeRequest,
		description: "Adjust the composed head string.",
		mutable:     []Field{Field(OutputHeadString), FieldErrors},
	},
	StageCompileHTML: {
		scope:       ScopeRequest,
		description: "Assemble the final HTML document.",
		mutable:     []Field{Field(OutputHTMLString), FieldErrors},
	},
	StageHTML: {
		scope:       ScopeRequest,
		description: "Post-process the final HTML document.",
		mutable:     []Field{Field(OutputHTMLString), FieldErrors},
	},
	StageRequestComplete: {
		scope:       ScopeRequest,
		description: "Persist the page and report request timings.",
		mutable:     []Field{FieldErrors},
	},
	StageError: {
		scope:       ScopeRequest,
		description: "Runs when a request accumulated errors; reporting only.",
	},
	StageBuildComplete: {
		scope:       ScopeBuild,
		description: "Runs once after every page of a build; reporting and error persistence.",
		mutable:     []Field{FieldErrors},
	},
}

// Stages returns all stages in page lifecycle order.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// ParseStage converts a name to a Stage.
func ParseStage(name string) (Stage, error) {
	s := Stage(name)
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q", name)
	}
	return s, nil
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := stageTable[s]
	return ok
}

// Scope returns the context scope s runs against.
func (s Stage) Scope() Scope { return stageTable[s].scope }

// Description is a one-line summary used by the hooks listing.
func (s Stage) Description() string { return stageTable[s].description }

// Mutable reports whether hooks in s may touch f.
func (s Stage) Mutable(f Field) bool {
	for _, m := range stageTable[s].mutable {
		if m == f {
			return true
		}
	}
	return false
}

// MutableFields lists the fields hooks in s may touch.
func (s Stage) MutableFields() []Field {
	m := stageTable[s].mutable
	out := make([]Field, len(m))
	copy(out, m)
	return out
}
