package vasprun

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// errMalformedNumber marks a numeric token that failed to parse. The
// producer sometimes prints a fixed-width overflow marker such as "2****"
// instead of a number; callers catch this error and retry through the
// sidecar resolver before giving up.
var errMalformedNumber = errors.New("malformed numeric token")

// decodeScalar converts one payload into a typed value according to the
// declared type tag. An empty type means float.
func decodeScalar(typ, text string) (any, error) {
	text = strings.TrimSpace(text)
	switch typ {
	case "logical":
		return parseLogical(text)
	case "int":
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errMalformedNumber, text)
		}
		return n, nil
	case "string":
		return text, nil
	default:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errMalformedNumber, text)
		}
		return f, nil
	}
}

// decodeVector converts a whitespace-separated payload into a homogeneous
// slice according to the declared type tag.
func decodeVector(typ, text string) (any, error) {
	toks := strings.Fields(text)
	switch typ {
	case "logical":
		out := make([]bool, len(toks))
		for i, tok := range toks {
			b, err := parseLogical(tok)
			if err != nil {
				return nil, err
			}
			out[i] = b
		}
		return out, nil
	case "int":
		out := make([]int, len(toks))
		for i, tok := range toks {
			n, err := strconv.Atoi(tok)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", errMalformedNumber, tok)
			}
			out[i] = n
		}
		return out, nil
	case "string":
		return toks, nil
	default:
		out := make([]float64, len(toks))
		for i, tok := range toks {
			f, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", errMalformedNumber, tok)
			}
			out[i] = f
		}
		return out, nil
	}
}

// parseLogical interprets the first significant character of a boolean
// token. The producer writes "T"/"F"; input files use forms like ".TRUE.",
// so leading dots are skipped and case is ignored.
func parseLogical(tok string) (bool, error) {
	trimmed := strings.TrimLeft(strings.TrimSpace(tok), ".")
	if trimmed == "" {
		return false, fmt.Errorf("empty logical token %q", tok)
	}
	switch trimmed[0] {
	case 't', 'T':
		return true, nil
	case 'f', 'F':
		return false, nil
	}
	return false, fmt.Errorf("invalid logical token %q", tok)
}

// parseFloats decodes a whitespace-separated run of floats, used for the
// matrix and row payloads that carry no type declaration.
func parseFloats(text string) ([]float64, error) {
	toks := strings.Fields(text)
	out := make([]float64, len(toks))
	for i, tok := range toks {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errMalformedNumber, tok)
		}
		out[i] = f
	}
	return out, nil
}

// reshape turns a flat float slice into a rows x cols matrix.
func reshape(flat []float64, rows, cols int) ([][]float64, error) {
	if len(flat) != rows*cols {
		return nil, fmt.Errorf("expected %d values for a %dx%d matrix, got %d", rows*cols, rows, cols, len(flat))
	}
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = flat[i*cols : (i+1)*cols]
	}
	return out, nil
}

// encodeParameter renders a typed value back into its declared textual form.
// It returns the payload text, the type tag the payload would carry and
// whether the value is a vector. Decoding the result through decodeScalar or
// decodeVector yields the original value.
func encodeParameter(v any) (text, typ string, vector bool) {
	switch val := v.(type) {
	case bool:
		return encodeLogical(val), "logical", false
	case int:
		return strconv.Itoa(val), "int", false
	case float64:
		return strconv.FormatFloat(val, 'G', -1, 64), "", false
	case string:
		return val, "string", false
	case []bool:
		toks := make([]string, len(val))
		for i, b := range val {
			toks[i] = encodeLogical(b)
		}
		return strings.Join(toks, " "), "logical", true
	case []int:
		toks := make([]string, len(val))
		for i, n := range val {
			toks[i] = strconv.Itoa(n)
		}
		return strings.Join(toks, " "), "int", true
	case []float64:
		toks := make([]string, len(val))
		for i, f := range val {
			toks[i] = strconv.FormatFloat(f, 'G', -1, 64)
		}
		return strings.Join(toks, " "), "", true
	case []string:
		return strings.Join(val, " "), "string", true
	}
	return fmt.Sprintf("%v", v), "string", false
}

func encodeLogical(b bool) string {
	if b {
		return "T"
	}
	return "F"
}
