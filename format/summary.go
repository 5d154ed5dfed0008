package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/mseaton/vaspio/vasprun"
)

// SummaryEncoder renders a short human-readable overview of a run.
type SummaryEncoder struct {
	w      io.Writer
	result *vasprun.Result
}

func NewSummaryEncoder(w io.Writer) *SummaryEncoder {
	return &SummaryEncoder{w: w}
}

func (e *SummaryEncoder) Encode(result *vasprun.Result) error {
	e.result = result
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *SummaryEncoder) MarshalText() ([]byte, error) {
	r := e.result
	var b strings.Builder

	if r.Version != "" {
		fmt.Fprintf(&b, "version:      %s\n", r.Version)
	}
	fmt.Fprintf(&b, "converged:    %v\n", r.Converged())
	if energy, ok := r.FinalEnergy(); ok {
		fmt.Fprintf(&b, "final energy: %.6f\n", energy)
	}
	if s := r.FinalStructure(); s != nil {
		fmt.Fprintf(&b, "atoms:        %d (%s)\n", s.AtomCount(), formula(s.Symbols))
	}
	fmt.Fprintf(&b, "ionic steps:  %d\n", len(r.IonicSteps))
	if r.KPoints != nil {
		if len(r.KPoints.Mesh) == 3 {
			m := r.KPoints.Mesh
			fmt.Fprintf(&b, "k-points:     %dx%dx%d mesh\n", m[0], m[1], m[2])
		} else if len(r.KPoints.Points) > 0 {
			fmt.Fprintf(&b, "k-points:     %d explicit\n", len(r.KPoints.Points))
		}
	}
	if r.DOS != nil {
		fmt.Fprintf(&b, "dos:          %d energies, %d spin channel(s), efermi %.4f\n",
			len(r.DOS.Energies), len(r.DOS.Total), r.DOS.Efermi)
	}
	if len(r.Eigenvalues) > 0 {
		fmt.Fprintf(&b, "eigenvalues:  %d (kpoint, spin) listings\n", len(r.Eigenvalues))
	}
	return []byte(b.String()), nil
}

// formula counts symbols in site order, e.g. Fe2 O3.
func formula(symbols []string) string {
	var order []string
	counts := make(map[string]int)
	for _, sym := range symbols {
		if counts[sym] == 0 {
			order = append(order, sym)
		}
		counts[sym]++
	}
	parts := make([]string, len(order))
	for i, sym := range order {
		if counts[sym] == 1 {
			parts[i] = sym
		} else {
			parts[i] = fmt.Sprintf("%s%d", sym, counts[sym])
		}
	}
	return strings.Join(parts, " ")
}
