package models

import "fmt"

// ValidationError marks a request field that is missing or outside its
// allowed set.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
