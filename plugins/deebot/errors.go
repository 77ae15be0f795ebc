package deebot

// ErrorDescriber resolves a device error code to a human-readable
// description. The production table lives in errorcodes.go; tests and
// embedders may supply their own.
type ErrorDescriber interface {
	Describe(code string) (string, bool)
}

// DescriptionTable is a static code-to-description mapping.
type DescriptionTable map[string]string

func (t DescriptionTable) Describe(code string) (string, bool) {
	description, ok := t[code]
	return description, ok
}

// errorFieldPriority is the fixed scan order over incoming error events.
// Different firmware generations report the code under different keys.
var errorFieldPriority = []string{"code", "errno", "error", "errs"}

// ResolveError normalizes a device error event into an ErrorState.
// The first present, non-empty field in priority order wins; the "new"
// field is consulted last, with one special rule: an empty "new" next to
// a non-empty "old" means the error just cleared, not that the code is
// blank. Code "100" is the device's no-error sentinel and normalizes to
// "0" with an empty description. Resolving the same event twice yields
// the same state.
func ResolveError(event Event, table ErrorDescriber) ErrorState {
	code, found := "", false
	for _, key := range errorFieldPriority {
		if value, ok := event.Attr(key); ok && value != "" {
			code, found = value, true
			break
		}
	}
	if !found {
		if value, ok := event.Attr("new"); ok {
			if value != "" {
				code, found = value, true
			} else if old, _ := event.Attr("old"); old != "" {
				code, found = "0", true
			}
		}
	}
	if !found {
		code = "0"
	}

	if code == "100" {
		return ErrorState{Code: "0"}
	}
	if description, ok := table.Describe(code); ok {
		return ErrorState{Code: code, Description: description}
	}
	return ErrorState{Code: code, Description: "unknown errorCode: " + code}
}
