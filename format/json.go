package format

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/mseaton/vaspio/vasprun"
)

type JSONEncoder struct {
	w      io.Writer
	result *vasprun.Result
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(result *vasprun.Result) error {
	e.result = result
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(buildResultData(e.result), "", "  ")
}

type jsonResult struct {
	Version       string               `json:"version,omitempty"`
	Incar         map[string]any       `json:"incar"`
	Parameters    map[string]any       `json:"parameters"`
	AtomicSymbols []string             `json:"atomicSymbols,omitempty"`
	PotcarSymbols []string             `json:"potcarSymbols,omitempty"`
	KPoints       *jsonKPoints         `json:"kpoints,omitempty"`
	Structures    []jsonStructure      `json:"structures,omitempty"`
	IonicSteps    []jsonIonicStep      `json:"ionicSteps,omitempty"`
	DOS           *jsonDOS             `json:"dos,omitempty"`
	Projected     [][]jsonOrbitalDOS   `json:"projectedDos,omitempty"`
	Eigenvalues   []jsonEigenvalueList `json:"eigenvalues,omitempty"`
	Converged     bool                 `json:"converged"`
	FinalEnergy   *float64             `json:"finalEnergy,omitempty"`
}

type jsonKPoints struct {
	Comment string      `json:"comment,omitempty"`
	Style   string      `json:"style,omitempty"`
	Scheme  string      `json:"scheme,omitempty"`
	Points  [][]float64 `json:"points,omitempty"`
	Weights []float64   `json:"weights,omitempty"`
	Mesh    []int       `json:"mesh,omitempty"`
}

type jsonStructure struct {
	Lattice [][]float64 `json:"lattice"`
	Symbols []string    `json:"symbols"`
	Coords  [][]float64 `json:"coords"`
}

type jsonIonicStep struct {
	ElectronicSteps []map[string]float64 `json:"electronicSteps"`
	Forces          [][]float64          `json:"forces,omitempty"`
	Stress          [][]float64          `json:"stress,omitempty"`
}

type jsonDOS struct {
	Efermi     float64              `json:"efermi"`
	Energies   []float64            `json:"energies"`
	Total      map[string][]float64 `json:"total"`
	Integrated map[string][]float64 `json:"integrated"`
}

type jsonOrbitalDOS struct {
	Atom      int                  `json:"atom"`
	Orbital   int                  `json:"orbital"`
	Densities map[string][]float64 `json:"densities"`
}

type jsonEigenvalueList struct {
	KPoint int                 `json:"kpoint"`
	Spin   string              `json:"spin"`
	Bands  []vasprun.BandEntry `json:"bands"`
}

func buildResultData(r *vasprun.Result) *jsonResult {
	out := &jsonResult{
		Version:       r.Version,
		Incar:         parametersToMap(r.Incar),
		Parameters:    parametersToMap(r.Parameters),
		AtomicSymbols: r.AtomicSymbols,
		PotcarSymbols: r.PotcarSymbols,
		Converged:     r.Converged(),
	}
	if energy, ok := r.FinalEnergy(); ok {
		out.FinalEnergy = &energy
	}
	if r.KPoints != nil {
		out.KPoints = &jsonKPoints{
			Comment: r.KPoints.Comment,
			Style:   r.KPoints.Style,
			Scheme:  r.KPoints.Scheme,
			Points:  r.KPoints.Points,
			Weights: r.KPoints.Weights,
			Mesh:    r.KPoints.Mesh,
		}
	}
	for _, s := range r.Structures {
		out.Structures = append(out.Structures, jsonStructure{
			Lattice: s.Lattice,
			Symbols: s.Symbols,
			Coords:  s.Coords,
		})
	}
	for _, step := range r.IonicSteps {
		js := jsonIonicStep{Forces: step.Forces, Stress: step.Stress}
		for _, es := range step.ElectronicSteps {
			js.ElectronicSteps = append(js.ElectronicSteps, map[string]float64(es))
		}
		out.IonicSteps = append(out.IonicSteps, js)
	}
	if r.DOS != nil {
		out.DOS = &jsonDOS{
			Efermi:     r.DOS.Efermi,
			Energies:   r.DOS.Energies,
			Total:      spinMap(r.DOS.Total),
			Integrated: spinMap(r.DOS.Integrated),
		}
	}
	for _, row := range r.Projected {
		var jsonRow []jsonOrbitalDOS
		for _, od := range row {
			jsonRow = append(jsonRow, jsonOrbitalDOS{
				Atom:      od.Atom,
				Orbital:   od.Orbital,
				Densities: spinMap(od.Densities),
			})
		}
		out.Projected = append(out.Projected, jsonRow)
	}
	for key, bands := range r.Eigenvalues {
		out.Eigenvalues = append(out.Eigenvalues, jsonEigenvalueList{
			KPoint: key.KPoint,
			Spin:   key.Spin.String(),
			Bands:  bands,
		})
	}
	sort.Slice(out.Eigenvalues, func(i, j int) bool {
		a, b := out.Eigenvalues[i], out.Eigenvalues[j]
		if a.KPoint != b.KPoint {
			return a.KPoint < b.KPoint
		}
		return a.Spin < b.Spin
	})
	return out
}

func parametersToMap(p *vasprun.RunParameters) map[string]any {
	out := make(map[string]any, p.Len())
	for _, key := range p.Keys() {
		v, _ := p.Get(key)
		out[key] = v
	}
	return out
}

func spinMap(m map[vasprun.Spin][]float64) map[string][]float64 {
	out := make(map[string][]float64, len(m))
	for spin, vals := range m {
		out[spin.String()] = vals
	}
	return out
}
