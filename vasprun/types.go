package vasprun

// Spin identifies one of the two spin channels of a spin-polarized run.
type Spin int

const (
	SpinUp   Spin = 1
	SpinDown Spin = -1
)

func (s Spin) String() string {
	if s == SpinDown {
		return "down"
	}
	return "up"
}

// RunParameters is an ordered table of named, typed run parameters. Values
// are bool, int, float64, string or a homogeneous slice of one of those.
type RunParameters struct {
	keys []string
	vals map[string]any
}

func NewRunParameters() *RunParameters {
	return &RunParameters{vals: make(map[string]any)}
}

func (p *RunParameters) Set(key string, val any) {
	if _, ok := p.vals[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.vals[key] = val
}

func (p *RunParameters) Get(key string) (any, bool) {
	v, ok := p.vals[key]
	return v, ok
}

// Keys returns the parameter names in insertion order.
func (p *RunParameters) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

func (p *RunParameters) Len() int { return len(p.keys) }

// Int returns the named parameter as an integer, accepting a stored float
// with an integral value.
func (p *RunParameters) Int(key string) (int, bool) {
	switch v := p.vals[key].(type) {
	case int:
		return v, true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

func (p *RunParameters) Float(key string) (float64, bool) {
	switch v := p.vals[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func (p *RunParameters) Bool(key string) (bool, bool) {
	v, ok := p.vals[key].(bool)
	return v, ok
}

// KPointSet describes how the run sampled reciprocal space: either an
// explicit list of points with weights, or a generating mesh. Exactly one of
// the two representations is populated.
type KPointSet struct {
	Comment string
	Style   string
	Scheme  string

	Points  [][]float64
	Weights []float64
	Mesh    []int
}

// StructureSnapshot is one atomic structure: a 3x3 lattice of row vectors,
// the element symbol per site and an N x 3 coordinate matrix.
type StructureSnapshot struct {
	Lattice [][]float64
	Symbols []string
	Coords  [][]float64
}

func (s *StructureSnapshot) AtomCount() int { return len(s.Symbols) }

// ElectronicStep holds the named scalar energy terms of one iteration of the
// fixed-geometry convergence loop.
type ElectronicStep map[string]float64

// IonicStep is one geometry update: its inner convergence iterations, the
// structure it produced, and the forces and stress evaluated on it.
type IonicStep struct {
	ElectronicSteps []ElectronicStep
	Structure       *StructureSnapshot
	Forces          [][]float64
	Stress          [][]float64
}

// DensityOfStates carries the shared energy grid and the per-spin total and
// integrated densities. All vectors of a spin channel share the grid length.
type DensityOfStates struct {
	Efermi     float64
	Energies   []float64
	Total      map[Spin][]float64
	Integrated map[Spin][]float64
}

// OrbitalDOS is the projection of the density of states onto one atom and
// one orbital. Densities has no SpinDown entry for non-spin-polarized runs;
// absence is preserved rather than zero-filled.
type OrbitalDOS struct {
	Atom      int
	Orbital   int
	Densities map[Spin][]float64
}

// EigenvalueKey addresses one band listing by k-point index (1-based, as
// labeled in the stream) and spin channel.
type EigenvalueKey struct {
	KPoint int
	Spin   Spin
}

// BandEntry is one (energy, occupation) pair of an eigenvalue listing.
type BandEntry struct {
	Energy     float64
	Occupation float64
}
