// Package hooks implements the page pipeline: a registry of named, prioritized
// hooks grouped by stage, and an engine that runs one stage's hooks in order
// against a shared *Context.
//
// # Ordering
//
// ForStage returns hooks sorted by ascending priority (1 runs first, 100 last).
// Hooks with equal priority keep their registration order. The sort is stable
// so two hooks that both push into the head stack at priority 50 always run in
// the order they were passed to Register.
//
// # Results
//
// A hook returns one of three results:
//
//   - NoOp(): nothing changed (also the zero Result)
//   - Continue(patch): merge patch into the context and run the next hook
//   - Stop(value): stop the stage and hand value back to the host
//
// Patches are merged by Context.Apply. Scalar and map fields are last write
// wins. Stacks, errors and timings only grow: the engine appends what a patch
// lists and never concatenates anything implicitly. A stage only accepts
// patches touching the fields it declares mutable.
//
// # Errors
//
// Every runtime failure of a hook becomes data. An error returned by Run, a
// panic, or a patch touching a field the stage does not allow is appended to
// the context's error accumulator and the stage continues. Only Register
// (validation) and caller misuse of Engine.Run return errors to the host.
package hooks
