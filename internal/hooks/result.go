package hooks

// Action tells the engine what to do after a hook returned.
type Action int

const (
	ActionNoOp Action = iota
	ActionContinue
	ActionStop
)

func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "continue"
	case ActionStop:
		return "stop"
	default:
		return "noop"
	}
}

// Result is the tagged return value of a hook. The zero value is NoOp.
type Result struct {
	action Action
	patch  Patch
	value  any
}

// NoOp reports that the hook changed nothing.
func NoOp() Result { return Result{} }

// Continue asks the engine to merge p and run the next hook.
func Continue(p Patch) Result { return Result{action: ActionContinue, patch: p} }

// Stop ends the stage; v is handed back to the host unchanged.
func Stop(v any) Result { return Result{action: ActionStop, value: v} }

func (r Result) Action() Action { return r.action }
func (r Result) Patch() Patch   { return r.patch }
func (r Result) Value() any     { return r.value }
