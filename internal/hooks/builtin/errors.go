package builtin

import (
	"context"
	"log/slog"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
	"git.home.luguber.info/inful/pagehooks/internal/hooks"
	"git.home.luguber.info/inful/pagehooks/internal/logfields"
)

// BuildErrorsFile is where writeBuildErrors persists errors, relative to the root dir.
const BuildErrorsFile = ".pagehooks/build-errors.json"

// ErrorRecord is the JSON form of one accumulated error.
type ErrorRecord struct {
	Category  string `json:"category"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Hook      string `json:"hook,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Permalink string `json:"permalink,omitempty"`
}

// Describe flattens err into an ErrorRecord.
func Describe(err error) ErrorRecord {
	rec := ErrorRecord{
		Category: string(ferrors.GetCategory(err)),
		Severity: string(ferrors.GetSeverity(err)),
		Message:  err.Error(),
	}
	if ce, ok := ferrors.AsClassified(err); ok {
		rec.Hook, _ = ce.Context().GetString("hook")
		rec.Stage, _ = ce.Context().GetString("stage")
		rec.Permalink, _ = ce.Context().GetString("permalink")
	}
	return rec
}

func consoleLogErrors(logger *slog.Logger) hooks.RunFunc {
	return func(ctx context.Context, c *hooks.Context) (hooks.Result, error) {
		if c.Settings != nil && c.Settings.Worker {
			return hooks.NoOp(), nil
		}
		var permalink string
		if c.Request != nil {
			permalink = c.Request.Permalink
		}
		for _, err := range c.Errors() {
			logger.ErrorContext(ctx, "Request failed", logfields.Permalink(permalink), logfields.Error(err))
		}
		return hooks.NoOp(), nil
	}
}

func writeBuildErrors(w FileWriter) hooks.RunFunc {
	return func(_ context.Context, c *hooks.Context) (hooks.Result, error) {
		errs := c.Errors()
		if w == nil || len(errs) == 0 || c.Settings == nil {
			return hooks.NoOp(), nil
		}
		records := make([]ErrorRecord, 0, len(errs))
		for _, err := range errs {
			records = append(records, Describe(err))
		}
		path := c.Settings.Resolve(filepath.FromSlash(BuildErrorsFile))
		if err := w.WriteJSON(path, records); err != nil {
			return hooks.Continue(hooks.Patch{Errors: []error{
				ferrors.WrapError(err, ferrors.CategoryWrite, "failed to write build errors").
					WithContext("path", path).
					Build(),
			}}), nil
		}
		return hooks.NoOp(), nil
	}
}
