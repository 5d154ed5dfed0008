package vasprun

import "testing"

func TestState(t *testing.T) {
	s := newState()

	t.Run("plain tag", func(t *testing.T) {
		s.enter("incar", nil)
		if !s.active("incar") {
			t.Error("incar should be active after enter")
		}
		if got := s.value("incar"); got != "" {
			t.Errorf("value(incar) = %q, want empty", got)
		}
		if !s.exit("incar") {
			t.Error("exit(incar) should succeed")
		}
		if s.active("incar") {
			t.Error("incar should be inactive after exit")
		}
	})

	t.Run("name attribute becomes the label", func(t *testing.T) {
		s.enter("varray", map[string]string{"name": "forces"})
		if got := s.value("varray"); got != "forces" {
			t.Errorf("value(varray) = %q, want %q", got, "forces")
		}
		s.exit("varray")
	})

	t.Run("comment attribute becomes the label", func(t *testing.T) {
		s.enter("set", map[string]string{"comment": "spin 1"})
		if got := s.value("set"); got != "spin 1" {
			t.Errorf("value(set) = %q, want %q", got, "spin 1")
		}
		s.exit("set")
	})

	t.Run("self-nesting reports innermost label", func(t *testing.T) {
		s.enter("set", map[string]string{"comment": "ion 1"})
		s.enter("set", map[string]string{"comment": "spin 1"})
		if got := s.value("set"); got != "spin 1" {
			t.Errorf("inner value(set) = %q, want %q", got, "spin 1")
		}
		s.exit("set")
		if got := s.value("set"); got != "ion 1" {
			t.Errorf("outer value(set) = %q, want %q", got, "ion 1")
		}
		s.exit("set")
	})

	t.Run("unbalanced exit", func(t *testing.T) {
		if s.exit("never-opened") {
			t.Error("exit of a tag that was never opened should fail")
		}
	})
}
