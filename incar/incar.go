// Package incar reads the line-oriented KEY = VALUE input files that sit
// next to a run's output stream. Values are coerced into typed Go values
// following the conventions of the producer's input format.
package incar

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// File is an ordered table of input parameters.
type File struct {
	keys []string
	vals map[string]any
}

var linePattern = regexp.MustCompile(`^(\w+)\s*=\s*(.*)$`)

// ParseFile reads an input file from disk.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads KEY = VALUE lines. Blank lines and lines starting with "#" or
// "!" are skipped; lines that do not match the key/value shape are ignored,
// matching the tolerant behavior producers rely on.
func Parse(r io.Reader) (*File, error) {
	file := &File{vals: make(map[string]any)}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		m := linePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := strings.TrimSpace(m[1])
		file.Set(key, procValue(key, strings.TrimSpace(m[2])))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return file, nil
}

func (f *File) Set(key string, val any) {
	if _, ok := f.vals[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.vals[key] = val
}

func (f *File) Get(key string) (any, bool) {
	v, ok := f.vals[key]
	return v, ok
}

// Keys returns the parameter names in file order.
func (f *File) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

func (f *File) Len() int { return len(f.keys) }

// String renders the table back into KEY = VALUE lines in file order.
func (f *File) String() string {
	var b strings.Builder
	for _, key := range f.keys {
		b.WriteString(key)
		b.WriteString(" = ")
		b.WriteString(formatValue(f.vals[key]))
		b.WriteString("\n")
	}
	return b.String()
}

// Key classes drive value coercion; anything else is kept as a raw string.
var (
	listKeys = map[string]bool{
		"LDAUU": true, "LDAUL": true, "LDAUJ": true, "LDAUTYPE": true, "MAGMOM": true,
	}
	booleanKeys = map[string]bool{
		"LDAU": true, "LWAVE": true, "LCHARG": true,
	}
	numberKeys = map[string]bool{
		"NSW": true, "NELMIN": true, "ISIF": true, "IBRION": true, "ISPIN": true,
		"EDIFF": true, "ICHARG": true, "NELM": true, "ISMEAR": true, "NPAR": true,
		"SIGMA": true, "LDAUPRINT": true, "LMAXMIX": true, "ENCUT": true,
	}
)

var repeatPattern = regexp.MustCompile(`^(\d+)\*([\d.+-]+)$`)

// procValue coerces a raw value by key class. A value that fails to coerce
// is returned as the raw string rather than rejected.
func procValue(key, val string) any {
	switch {
	case listKeys[key]:
		var out []float64
		for _, tok := range strings.Fields(val) {
			if m := repeatPattern.FindStringSubmatch(tok); m != nil {
				count, _ := strconv.Atoi(m[1])
				num, err := strconv.ParseFloat(m[2], 64)
				if err != nil {
					return val
				}
				for i := 0; i < count; i++ {
					out = append(out, num)
				}
				continue
			}
			num, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return val
			}
			out = append(out, num)
		}
		return out
	case booleanKeys[key]:
		trimmed := strings.TrimLeft(val, ".")
		if trimmed != "" {
			switch trimmed[0] {
			case 'T', 't':
				return true
			case 'F', 'f':
				return false
			}
		}
		return val
	case numberKeys[key]:
		if strings.Contains(val, ".") || strings.ContainsAny(val, "eE") {
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return f
			}
			return val
		}
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
		return val
	}
	return val
}

func formatValue(v any) string {
	switch val := v.(type) {
	case bool:
		if val {
			return ".TRUE."
		}
		return ".FALSE."
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'G', -1, 64)
	case []float64:
		toks := make([]string, len(val))
		for i, f := range val {
			toks[i] = strconv.FormatFloat(f, 'G', -1, 64)
		}
		return strings.Join(toks, " ")
	case string:
		return val
	}
	return fmt.Sprintf("%v", v)
}
