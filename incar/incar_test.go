package incar

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	const input = `SYSTEM = rutile
# a comment line
! another comment

NSW = 10
EDIFF = 1E-06
LDAU = .TRUE.
LWAVE = F
MAGMOM = 2*5.0 1.0
LDAUU = 4.0 0.0
ALGO = Fast
`
	file, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tests := []struct {
		key  string
		want any
	}{
		{"SYSTEM", "rutile"},
		{"NSW", 10},
		{"EDIFF", 1e-06},
		{"LDAU", true},
		{"LWAVE", false},
		{"MAGMOM", []float64{5, 5, 1}},
		{"LDAUU", []float64{4, 0}},
		{"ALGO", "Fast"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := file.Get(tt.key)
			if !ok {
				t.Fatalf("%s not found", tt.key)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("%s = %v (%T), want %v (%T)", tt.key, got, got, tt.want, tt.want)
			}
		})
	}

	t.Run("ordered keys", func(t *testing.T) {
		want := []string{"SYSTEM", "NSW", "EDIFF", "LDAU", "LWAVE", "MAGMOM", "LDAUU", "ALGO"}
		if !reflect.DeepEqual(file.Keys(), want) {
			t.Errorf("Keys() = %v, want %v", file.Keys(), want)
		}
	})
}

func TestString(t *testing.T) {
	file, err := Parse(strings.NewReader("NSW = 10\nLDAU = .TRUE.\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got := file.String()
	want := "NSW = 10\nLDAU = .TRUE.\n"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestStringRoundTrip(t *testing.T) {
	file := &File{vals: make(map[string]any)}
	file.Set("NSW", 99)
	file.Set("MAGMOM", []float64{5, 5, 1})
	file.Set("LDAU", true)

	reparsed, err := Parse(strings.NewReader(file.String()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for _, key := range file.Keys() {
		want, _ := file.Get(key)
		got, ok := reparsed.Get(key)
		if !ok {
			t.Fatalf("%s lost in round trip", key)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s = %v (%T) after round trip, want %v (%T)", key, got, got, want, want)
		}
	}
}
