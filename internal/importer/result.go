package importer

import (
	"strings"

	"github.com/Terryzhang-jp/curise-fullstack-project-sub000/internal"
)

// FormatErrors classifies raw row error strings so the caller can group
// them in a report and attach a fix suggestion per category.
func FormatErrors(errs []string) []internal.FormattedError {
	out := make([]internal.FormattedError, 0, len(errs))
	for _, raw := range errs {
		fe := internal.FormattedError{Message: raw, Category: internal.ErrorClassGeneral}
		switch {
		case strings.Contains(raw, "not found"):
			fe.Category = internal.ErrorClassForeignKey
			fe.Suggestion = "import the referenced master record first, or fix the spelling to match an existing one"
		case strings.Contains(raw, "is required"):
			fe.Category = internal.ErrorClassRequiredField
			fe.Suggestion = "fill in the missing cell before re-uploading"
		case strings.Contains(raw, "format"), strings.Contains(raw, "must be a number"):
			fe.Category = internal.ErrorClassFormat
			fe.Suggestion = "use plain numbers and YYYY-MM-DD dates"
		case strings.Contains(raw, "must be"), strings.Contains(raw, "must not be"), strings.Contains(raw, "cannot be"):
			fe.Category = internal.ErrorClassInvalidValue
			fe.Suggestion = "check the value against the column rules"
		}
		out = append(out, fe)
	}
	return out
}
