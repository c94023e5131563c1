package hooks

import "sort"

// Patch is a partial context returned by a hook.
//
// Helpers, Query and Data replace the current value when non-nil. Outputs are
// last write wins per output. Push, Errors, Timings and BuildTimings are
// appended in the order listed.
//
// No stage lists Timings or BuildTimings as mutable, so the engine rejects a
// hook patch carrying them. Only hosts append timings, through Context.Apply.
type Patch struct {
	Helpers      Helpers
	Query        map[string]any
	Data         map[string]any
	Outputs      map[Output]string
	Push         map[Stack][]Fragment
	Errors       []error
	Timings      []Timing
	BuildTimings [][]Timing
}

// IsEmpty reports whether applying p would change nothing.
func (p Patch) IsEmpty() bool { return len(p.Fields()) == 0 }

// Fields lists every context field p touches, sorted by name.
func (p Patch) Fields() []Field {
	var out []Field
	if p.Helpers != nil {
		out = append(out, FieldHelpers)
	}
	if p.Query != nil {
		out = append(out, FieldQuery)
	}
	if p.Data != nil {
		out = append(out, FieldData)
	}
	for name := range p.Outputs {
		out = append(out, Field(name))
	}
	for name, frags := range p.Push {
		if len(frags) > 0 {
			out = append(out, Field(name))
		}
	}
	if len(p.Errors) > 0 {
		out = append(out, FieldErrors)
	}
	if len(p.Timings) > 0 {
		out = append(out, FieldTimings)
	}
	if len(p.BuildTimings) > 0 {
		out = append(out, FieldBuildTimings)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PushOne is shorthand for a patch appending a single fragment to s.
func PushOne(s Stack, f Fragment) Patch {
	return Patch{Push: map[Stack][]Fragment{s: {f}}}
}
