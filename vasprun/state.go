package vasprun

// state tracks which tags are currently open and the label each open tag
// carries. A tag's label is its name attribute (or comment attribute when no
// name is present); tags without either are recorded as plain booleans.
// Entries are pushed on element start and popped on element end, so a tag
// that nests inside itself (as <set> does) always reports the innermost
// label.
type state struct {
	open map[string][]string
}

func newState() *state {
	return &state{open: make(map[string][]string)}
}

// label extracts the recorded value for a tag from its attributes.
func label(attrs map[string]string) string {
	if v, ok := attrs["name"]; ok {
		return v
	}
	if v, ok := attrs["comment"]; ok {
		return v
	}
	return ""
}

func (s *state) enter(tag string, attrs map[string]string) {
	s.open[tag] = append(s.open[tag], label(attrs))
}

// exit pops the innermost entry for tag. It reports false when no entry is
// open, which means the event stream is unbalanced.
func (s *state) exit(tag string) bool {
	stack := s.open[tag]
	if len(stack) == 0 {
		return false
	}
	s.open[tag] = stack[:len(stack)-1]
	return true
}

func (s *state) active(tag string) bool {
	return len(s.open[tag]) > 0
}

// value returns the innermost label recorded for tag, or "" when the tag is
// not open or carries no label.
func (s *state) value(tag string) string {
	stack := s.open[tag]
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1]
}
