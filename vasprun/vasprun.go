// Package vasprun parses the hierarchical XML output stream of a VASP run
// into a fully-typed result: run parameters, k-points, per-step structures,
// forces and stresses, densities of states and eigenvalue tables.
//
// The parse is a single sequential pass over the element stream. Leaf tags
// are interpreted by the section that encloses them, so dispatch is driven
// by a stack of active tags rather than by event order. Known producer bugs
// (doubled species entries, a mislabeled inert-gas symbol, overflowed
// numeric fields) are repaired during the pass; numeric fields that cannot
// be repaired from a sidecar input file abort the parse.
package vasprun

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type parser struct {
	earlyStop  bool
	sidecarDir string
}

type Option func(*parser)

// WithEarlyStop makes the parse stop consuming events once the eigenvalues
// section starts. Parameters, k-points and all structures are complete by
// then; density-of-states and eigenvalue data are left unpopulated. Off by
// default.
func WithEarlyStop() Option {
	return func(p *parser) { p.earlyStop = true }
}

// WithSidecarDir sets the directory searched for a sidecar input file when a
// mangled numeric parameter needs to be recovered. ParseFile sets it to the
// stream's own directory.
func WithSidecarDir(dir string) Option {
	return func(p *parser) { p.sidecarDir = dir }
}

// ParseFile parses the named output stream.
func ParseFile(path string, opts ...Option) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}
	defer f.Close()
	opts = append([]Option{WithSidecarDir(filepath.Dir(path))}, opts...)
	return Parse(f, opts...)
}

// Parse consumes the whole event stream from r and returns the assembled
// result. Any error aborts the parse; no partial result is returned.
func Parse(r io.Reader, opts ...Option) (*Result, error) {
	p := &parser{}
	for _, opt := range opts {
		opt(p)
	}

	h := newHandler(p)
	dec := xml.NewDecoder(r)
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if depth != 0 {
					return nil, &StructuralError{Reason: "unexpected end of stream"}
				}
				break
			}
			return nil, &StructuralError{Reason: err.Error()}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			attrs := make(map[string]string, len(t.Attr))
			for _, attr := range t.Attr {
				attrs[attr.Name.Local] = attr.Value
			}
			if err := h.startElement(t.Name.Local, attrs); err != nil {
				return nil, err
			}
		case xml.CharData:
			h.charData(string(t))
		case xml.EndElement:
			depth--
			if err := h.endElement(t.Name.Local); err != nil {
				return nil, err
			}
		}
		if h.stopped {
			break
		}
	}
	return h.res, nil
}
