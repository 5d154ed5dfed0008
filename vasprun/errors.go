package vasprun

import "fmt"

// StructuralError reports a stream whose element nesting is broken or whose
// sections arrive without the data they depend on (for example a calculation
// closing before any structure has been read). The parse aborts and no
// partial result is returned.
type StructuralError struct {
	Tag    string
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("malformed output stream: %s", e.Reason)
	}
	return fmt.Sprintf("malformed output stream in <%s>: %s", e.Tag, e.Reason)
}

// DecodeError reports a payload whose declared type could not be parsed and
// for which no sidecar replacement was available.
type DecodeError struct {
	Parameter string
	Type      string
	Text      string
	Err       error
}

func (e *DecodeError) Error() string {
	if e.Parameter != "" {
		return fmt.Sprintf("cannot decode parameter %s as %s: %q", e.Parameter, e.typeName(), e.Text)
	}
	return fmt.Sprintf("cannot decode value as %s: %q", e.typeName(), e.Text)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) typeName() string {
	if e.Type == "" {
		return "float"
	}
	return e.Type
}
