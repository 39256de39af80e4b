package validation

import "fmt"

// ValidationError reports a request field rejected before it reaches the store
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
