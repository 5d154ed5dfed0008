package vasprun

// Result is the fully-typed outcome of one parse. It is only written by the
// parsing pass and must be treated as read-only afterwards.
type Result struct {
	// Version is the producer version string from the stream preamble.
	Version string

	// Incar holds the parameters declared in the input; Parameters holds
	// the effective set the producer actually used, defaults included.
	// Both are built the same way from their respective sections.
	Incar      *RunParameters
	Parameters *RunParameters

	// AtomicSymbols lists the element symbol of every site, expanded from
	// the species catalogue. PotcarSymbols lists the pseudopotential label
	// of each element type.
	AtomicSymbols []string
	PotcarSymbols []string

	KPoints *KPointSet

	// Structures and IonicSteps are in stream order. Each ionic step
	// references the structure it produced.
	Structures []*StructureSnapshot
	IonicSteps []*IonicStep

	// DOS is nil when the stream carries no density-of-states section or
	// the parse stopped early. Projected is indexed by atom then orbital.
	DOS       *DensityOfStates
	Projected [][]OrbitalDOS

	Eigenvalues map[EigenvalueKey][]BandEntry
}

func newResult() *Result {
	return &Result{
		Incar:      NewRunParameters(),
		Parameters: NewRunParameters(),
		KPoints:    &KPointSet{},
	}
}

// Converged reports whether the run finished its geometry optimization: the
// number of ionic moves stayed under the NSW limit, or no moves were
// requested at all.
func (r *Result) Converged() bool {
	nsw, ok := r.Parameters.Int("NSW")
	if !ok {
		return false
	}
	return nsw == 0 || len(r.Structures)-2 < nsw
}

// FinalEnergy returns the e_wo_entrp term of the last electronic step of the
// last ionic step.
func (r *Result) FinalEnergy() (float64, bool) {
	if len(r.IonicSteps) == 0 {
		return 0, false
	}
	steps := r.IonicSteps[len(r.IonicSteps)-1].ElectronicSteps
	if len(steps) == 0 {
		return 0, false
	}
	e, ok := steps[len(steps)-1]["e_wo_entrp"]
	return e, ok
}

func (r *Result) FinalStructure() *StructureSnapshot {
	if len(r.Structures) == 0 {
		return nil
	}
	return r.Structures[len(r.Structures)-1]
}

func (r *Result) InitialStructure() *StructureSnapshot {
	if len(r.Structures) == 0 {
		return nil
	}
	return r.Structures[0]
}
