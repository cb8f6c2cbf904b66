package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy strips all markup; user-supplied text is stored as plain text only.
var policy = bluemonday.StrictPolicy()

// Clean strips unsafe markup from a free-text field before persistence.
func Clean(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}

// CleanAll sanitizes every string in place and returns the slice for
// convenience at call sites with several fields.
func CleanAll(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = Clean(*f)
		}
	}
}
