package vasprun

import (
	"errors"
	"strconv"
	"strings"
)

// leafDest names the destination a leaf payload is routed to. The routing is
// decided purely from the context stack at the moment the leaf opens; the
// classify method below is the single place that rule table lives.
type leafDest int

const (
	destNone leafDest = iota
	destDeclaredParam
	destEffectiveParam
	destVersion
	destKPoint
	destKPointWeight
	destKPointDivisions
	destAtomSymbol
	destAtomType
	destLattice
	destPositions
	destForces
	destStress
	destStepEnergy
	destEfermi
	destTotalDOSRow
	destPartialDOSRow
	destEigenvalueRow
)

// The producer mislabels xenon entries in the species catalogue.
var symbolFixes = map[string]string{"X": "Xe"}

type pdosKey struct {
	ion     int
	orbital int
	spin    Spin
}

type handler struct {
	res      *Result
	ctx      *state
	resolver *sidecarResolver

	earlyStop bool
	stopped   bool

	// inputRead flips once the species catalogue closes, separating the
	// run preamble from the calculation sections.
	inputRead bool

	// Leaf capture: text fragments between a leaf's start and end are
	// concatenated here and decoded only when the leaf closes.
	capture   bool
	dest      leafDest
	text      strings.Builder
	paramName string
	paramType string

	atomSymbolsRaw []string
	atomTypesRaw   []string

	readStructure bool
	latticeBuf    strings.Builder
	posBuf        strings.Builder

	readCalc  bool
	scstep    ElectronicStep
	scdata    []ElectronicStep
	forceBuf  strings.Builder
	stressBuf strings.Builder
	forces    [][]float64
	stress    [][]float64

	readDOS       bool
	dosEnergies   []float64
	dosTotal      []float64
	dosIntegrated []float64
	pdosRows      [][]float64
	pdosIon       int
	pdosSpin      Spin
	pdos          map[pdosKey][]float64
	norbitals     int

	readEigen   bool
	eigenKPoint int
	eigenSpin   Spin
	eigenRows   []BandEntry
}

func newHandler(p *parser) *handler {
	h := &handler{
		res: newResult(),
		ctx: newState(),
	}
	h.earlyStop = p.earlyStop
	if p.sidecarDir != "" {
		h.resolver = &sidecarResolver{dir: p.sidecarDir}
	}
	return h
}

func (h *handler) startElement(name string, attrs map[string]string) error {
	h.ctx.enter(name, attrs)
	h.capture = false
	h.dest = destNone

	switch name {
	case "generation":
		if !h.inputRead && h.ctx.active("kpoints") {
			h.res.KPoints.Comment = "k-point data read from the output stream"
			h.res.KPoints.Style = "-1"
			h.res.KPoints.Scheme = attrs["param"]
		}
	case "calculation":
		if h.inputRead {
			h.scdata = nil
			h.readCalc = true
		}
	case "scstep":
		if h.readCalc {
			h.scstep = make(ElectronicStep)
		}
	case "structure":
		if h.inputRead {
			h.latticeBuf.Reset()
			h.posBuf.Reset()
			h.readStructure = true
		}
	case "varray":
		if h.readCalc && !h.readStructure {
			switch label(attrs) {
			case "forces":
				h.forceBuf.Reset()
			case "stress":
				h.stressBuf.Reset()
			}
		}
	case "dos":
		if h.inputRead {
			h.res.DOS = &DensityOfStates{
				Total:      make(map[Spin][]float64),
				Integrated: make(map[Spin][]float64),
			}
			h.res.Projected = nil
			h.dosEnergies = nil
			h.dosTotal = nil
			h.dosIntegrated = nil
			h.pdos = make(map[pdosKey][]float64)
			h.pdosRows = nil
			h.readDOS = true
		}
	case "eigenvalues":
		if h.inputRead && !h.readDOS {
			if h.earlyStop {
				h.stopped = true
				return nil
			}
			h.res.Eigenvalues = make(map[EigenvalueKey][]BandEntry)
			h.eigenRows = nil
			h.readEigen = true
		}
	case "set":
		if err := h.enterSet(attrs["comment"]); err != nil {
			return err
		}
	}

	dest, err := h.classify(name, attrs)
	if err != nil {
		return err
	}
	if dest != destNone {
		h.dest = dest
		h.capture = true
		h.text.Reset()
	}
	return nil
}

// enterSet records the spin, k-point or ion a labeled <set> introduces.
func (h *handler) enterSet(comment string) error {
	if comment == "" {
		return nil
	}
	switch {
	case h.readEigen:
		if strings.HasPrefix(comment, "spin") {
			h.eigenSpin = spinFromLabel(comment)
		}
		if strings.HasPrefix(comment, "kpoint") {
			n, err := indexFromLabel(comment)
			if err != nil {
				return &StructuralError{Tag: "set", Reason: "bad k-point label " + strconv.Quote(comment)}
			}
			h.eigenKPoint = n
			h.eigenRows = nil
		}
	case h.readDOS && h.ctx.active("partial"):
		if strings.HasPrefix(comment, "ion") {
			n, err := indexFromLabel(comment)
			if err != nil {
				return &StructuralError{Tag: "set", Reason: "bad ion label " + strconv.Quote(comment)}
			}
			h.pdosIon = n
		}
		if strings.HasPrefix(comment, "spin") {
			h.pdosSpin = spinFromLabel(comment)
			h.pdosRows = nil
		}
	}
	return nil
}

// classify is the dispatch table: it maps a leaf tag plus the active context
// to the destination its payload belongs to. Leaves that match no rule are
// ignored.
func (h *handler) classify(name string, attrs map[string]string) (leafDest, error) {
	if !h.inputRead {
		switch name {
		case "i", "v":
			if h.ctx.active("generator") {
				if name == "i" && h.ctx.value("i") == "version" {
					return destVersion, nil
				}
				return destNone, nil
			}
			if h.ctx.active("incar") || h.ctx.active("parameters") {
				h.paramName = attrs["name"]
				h.paramType = attrs["type"]
				if h.ctx.active("incar") {
					return destDeclaredParam, nil
				}
				return destEffectiveParam, nil
			}
			if name == "v" && h.ctx.active("kpoints") {
				switch {
				case h.ctx.value("varray") == "kpointlist":
					return destKPoint, nil
				case h.ctx.value("varray") == "weights":
					return destKPointWeight, nil
				case h.ctx.value("v") == "divisions":
					return destKPointDivisions, nil
				}
			}
		case "c":
			switch h.ctx.value("array") {
			case "atoms":
				return destAtomSymbol, nil
			case "atomtypes":
				return destAtomType, nil
			}
		}
		return destNone, nil
	}

	switch name {
	case "i":
		if h.readCalc && h.ctx.active("scstep") {
			h.paramName = attrs["name"]
			h.paramType = attrs["type"]
			return destStepEnergy, nil
		}
		if h.readDOS && h.ctx.value("i") == "efermi" {
			return destEfermi, nil
		}
	case "v":
		if h.readStructure {
			switch h.ctx.value("varray") {
			case "basis":
				return destLattice, nil
			case "positions":
				return destPositions, nil
			}
			return destNone, nil
		}
		if h.readCalc {
			switch h.ctx.value("varray") {
			case "forces":
				return destForces, nil
			case "stress":
				return destStress, nil
			}
		}
	case "r":
		if h.readEigen && strings.HasPrefix(h.ctx.value("set"), "kpoint") {
			return destEigenvalueRow, nil
		}
		if h.readDOS && strings.HasPrefix(h.ctx.value("set"), "spin") {
			if h.ctx.active("total") {
				return destTotalDOSRow, nil
			}
			if h.ctx.active("partial") {
				return destPartialDOSRow, nil
			}
		}
	}
	return destNone, nil
}

func (h *handler) charData(text string) {
	if h.capture {
		h.text.WriteString(text)
	}
}

func (h *handler) endElement(name string) error {
	var err error
	if h.capture {
		err = h.finishLeaf()
		h.capture = false
		h.dest = destNone
	} else {
		err = h.closeSection(name)
	}
	if err != nil {
		return err
	}
	if !h.ctx.exit(name) {
		return &StructuralError{Tag: name, Reason: "unexpected closing tag"}
	}
	return nil
}

// finishLeaf decodes the captured payload and stores it at the destination
// chosen when the leaf opened.
func (h *handler) finishLeaf() error {
	text := h.text.String()
	switch h.dest {
	case destDeclaredParam, destEffectiveParam:
		val, err := h.decodeParameter(h.ctx.active("v"), text)
		if err != nil {
			return err
		}
		if h.dest == destDeclaredParam {
			h.res.Incar.Set(h.paramName, val)
		} else {
			h.res.Parameters.Set(h.paramName, val)
		}
	case destVersion:
		h.res.Version = strings.TrimSpace(text)
	case destKPoint:
		point, err := parseFloats(text)
		if err != nil {
			return &DecodeError{Text: strings.TrimSpace(text), Err: err}
		}
		if len(point) != 3 {
			return &StructuralError{Tag: "v", Reason: "k-point is not a 3-vector"}
		}
		h.res.KPoints.Points = append(h.res.KPoints.Points, point)
	case destKPointWeight:
		weight, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return &DecodeError{Text: strings.TrimSpace(text), Err: errMalformedNumber}
		}
		h.res.KPoints.Weights = append(h.res.KPoints.Weights, weight)
	case destKPointDivisions:
		val, err := decodeVector("int", text)
		if err != nil {
			return &DecodeError{Parameter: "divisions", Type: "int", Text: strings.TrimSpace(text), Err: err}
		}
		mesh := val.([]int)
		if len(mesh) != 3 {
			return &StructuralError{Tag: "v", Reason: "mesh divisions are not a 3-vector"}
		}
		h.res.KPoints.Mesh = mesh
	case destAtomSymbol:
		h.atomSymbolsRaw = append(h.atomSymbolsRaw, strings.TrimSpace(text))
	case destAtomType:
		h.atomTypesRaw = append(h.atomTypesRaw, strings.TrimSpace(text))
	case destLattice:
		h.latticeBuf.WriteString(text)
		h.latticeBuf.WriteString("\n")
	case destPositions:
		h.posBuf.WriteString(text)
		h.posBuf.WriteString("\n")
	case destForces:
		h.forceBuf.WriteString(text)
		h.forceBuf.WriteString("\n")
	case destStress:
		h.stressBuf.WriteString(text)
		h.stressBuf.WriteString("\n")
	case destStepEnergy:
		val, err := h.decodeParameter(false, text)
		if err != nil {
			return err
		}
		if f, ok := toFloat(val); ok {
			h.scstep[h.paramName] = f
		}
	case destEfermi:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return &DecodeError{Parameter: "efermi", Text: strings.TrimSpace(text), Err: errMalformedNumber}
		}
		h.res.DOS.Efermi = f
	case destTotalDOSRow:
		row, err := parseFloats(text)
		if err != nil {
			return &DecodeError{Text: strings.TrimSpace(text), Err: err}
		}
		if len(row) < 3 {
			return &StructuralError{Tag: "r", Reason: "total DOS row needs energy, total and integrated columns"}
		}
		h.dosEnergies = append(h.dosEnergies, row[0])
		h.dosTotal = append(h.dosTotal, row[1])
		h.dosIntegrated = append(h.dosIntegrated, row[2])
	case destPartialDOSRow:
		row, err := parseFloats(text)
		if err != nil {
			return &DecodeError{Text: strings.TrimSpace(text), Err: err}
		}
		if len(row) < 2 {
			return &StructuralError{Tag: "r", Reason: "projected DOS row has no orbital columns"}
		}
		h.pdosRows = append(h.pdosRows, row[1:])
	case destEigenvalueRow:
		row, err := parseFloats(text)
		if err != nil {
			return &DecodeError{Text: strings.TrimSpace(text), Err: err}
		}
		if len(row) < 2 {
			return &StructuralError{Tag: "r", Reason: "eigenvalue row needs energy and occupation"}
		}
		h.eigenRows = append(h.eigenRows, BandEntry{Energy: row[0], Occupation: row[1]})
	}
	return nil
}

// decodeParameter decodes the current leaf with its declared type, retrying
// through the sidecar resolver when a numeric token is mangled.
func (h *handler) decodeParameter(vector bool, raw string) (any, error) {
	var val any
	var err error
	if vector {
		val, err = decodeVector(h.paramType, raw)
	} else {
		val, err = decodeScalar(h.paramType, raw)
	}
	if err == nil {
		return val, nil
	}
	if errors.Is(err, errMalformedNumber) {
		if rv, ok := h.resolver.resolve(h.paramName); ok {
			return rv, nil
		}
	}
	return nil, &DecodeError{Parameter: h.paramName, Type: h.paramType, Text: strings.TrimSpace(raw), Err: err}
}

// closeSection finalizes the accumulator owned by a closing section.
func (h *handler) closeSection(name string) error {
	switch name {
	case "set":
		return h.closeSet()
	case "structure":
		if h.readStructure {
			h.readStructure = false
			return h.finishStructure()
		}
	case "varray":
		if h.readCalc && !h.readStructure {
			return h.finishCalcMatrix()
		}
	case "scstep":
		if h.scstep != nil {
			h.scdata = append(h.scdata, h.scstep)
			h.scstep = nil
		}
	case "calculation":
		if h.readCalc {
			h.readCalc = false
			return h.finishIonicStep()
		}
	case "partial":
		if h.readDOS {
			return h.finishProjected()
		}
	case "dos":
		h.readDOS = false
	case "eigenvalues":
		h.readEigen = false
	}
	return nil
}

func (h *handler) closeSet() error {
	if !h.inputRead {
		switch h.ctx.value("array") {
		case "atoms":
			h.res.AtomicSymbols = decimateSymbols(h.atomSymbolsRaw)
			h.atomSymbolsRaw = nil
		case "atomtypes":
			h.res.PotcarSymbols = extractTypeSymbols(h.atomTypesRaw)
			h.atomTypesRaw = nil
			h.inputRead = true
		}
		return nil
	}

	setLabel := h.ctx.value("set")
	switch {
	case h.readEigen && strings.HasPrefix(setLabel, "kpoint"):
		key := EigenvalueKey{KPoint: h.eigenKPoint, Spin: h.eigenSpin}
		h.res.Eigenvalues[key] = h.eigenRows
		h.eigenRows = nil
	case h.readDOS && h.ctx.active("total") && strings.HasPrefix(setLabel, "spin"):
		return h.finishTotalDOSSpin(spinFromLabel(setLabel))
	case h.readDOS && h.ctx.active("partial") && strings.HasPrefix(setLabel, "spin"):
		return h.finishPartialDOSSpin()
	}
	return nil
}

// decimateSymbols collapses the doubled species entries (the emitter prints
// every symbol twice) and repairs known mislabeled symbols.
func decimateSymbols(raw []string) []string {
	out := make([]string, 0, (len(raw)+1)/2)
	for i := 0; i < len(raw); i += 2 {
		sym := raw[i]
		if fixed, ok := symbolFixes[sym]; ok {
			sym = fixed
		}
		out = append(out, sym)
	}
	return out
}

// extractTypeSymbols pulls the pseudopotential label out of the element-type
// catalogue, whose entries repeat in a fixed stride of five fields with the
// label in the last position.
func extractTypeSymbols(raw []string) []string {
	var out []string
	for i := 4; i < len(raw); i += 5 {
		out = append(out, raw[i])
	}
	return out
}

func (h *handler) finishStructure() error {
	n := len(h.res.AtomicSymbols)
	if n == 0 {
		return &StructuralError{Tag: "structure", Reason: "species catalogue not read before structure"}
	}
	latticeFlat, err := parseFloats(h.latticeBuf.String())
	if err != nil {
		return &DecodeError{Parameter: "basis", Text: h.latticeBuf.String(), Err: err}
	}
	lattice, err := reshape(latticeFlat, 3, 3)
	if err != nil {
		return &StructuralError{Tag: "structure", Reason: err.Error()}
	}
	posFlat, err := parseFloats(h.posBuf.String())
	if err != nil {
		return &DecodeError{Parameter: "positions", Text: h.posBuf.String(), Err: err}
	}
	coords, err := reshape(posFlat, n, 3)
	if err != nil {
		return &StructuralError{Tag: "structure", Reason: err.Error()}
	}
	h.res.Structures = append(h.res.Structures, &StructureSnapshot{
		Lattice: lattice,
		Symbols: append([]string(nil), h.res.AtomicSymbols...),
		Coords:  coords,
	})
	return nil
}

func (h *handler) finishCalcMatrix() error {
	switch h.ctx.value("varray") {
	case "forces":
		flat, err := parseFloats(h.forceBuf.String())
		if err != nil {
			return &DecodeError{Parameter: "forces", Text: h.forceBuf.String(), Err: err}
		}
		forces, err := reshape(flat, len(h.res.AtomicSymbols), 3)
		if err != nil {
			return &StructuralError{Tag: "varray", Reason: err.Error()}
		}
		h.forces = forces
	case "stress":
		flat, err := parseFloats(h.stressBuf.String())
		if err != nil {
			return &DecodeError{Parameter: "stress", Text: h.stressBuf.String(), Err: err}
		}
		stress, err := reshape(flat, 3, 3)
		if err != nil {
			return &StructuralError{Tag: "varray", Reason: err.Error()}
		}
		h.stress = stress
	}
	return nil
}

func (h *handler) finishIonicStep() error {
	if len(h.scdata) == 0 {
		return &StructuralError{Tag: "calculation", Reason: "closed without convergence data"}
	}
	if len(h.res.Structures) == 0 {
		return &StructuralError{Tag: "calculation", Reason: "closed without a structure"}
	}
	h.res.IonicSteps = append(h.res.IonicSteps, &IonicStep{
		ElectronicSteps: h.scdata,
		Structure:       h.res.Structures[len(h.res.Structures)-1],
		Forces:          h.forces,
		Stress:          h.stress,
	})
	h.scdata = nil
	h.forces = nil
	h.stress = nil
	return nil
}

func (h *handler) finishTotalDOSSpin(spin Spin) error {
	if h.res.DOS.Energies == nil {
		h.res.DOS.Energies = h.dosEnergies
	} else if len(h.dosEnergies) != len(h.res.DOS.Energies) {
		return &StructuralError{Tag: "set", Reason: "DOS energy grid length differs between spin channels"}
	}
	if len(h.dosTotal) != len(h.res.DOS.Energies) || len(h.dosIntegrated) != len(h.res.DOS.Energies) {
		return &StructuralError{Tag: "set", Reason: "DOS columns do not match the energy grid"}
	}
	h.res.DOS.Total[spin] = h.dosTotal
	h.res.DOS.Integrated[spin] = h.dosIntegrated
	h.dosEnergies = nil
	h.dosTotal = nil
	h.dosIntegrated = nil
	return nil
}

func (h *handler) finishPartialDOSSpin() error {
	if len(h.pdosRows) == 0 {
		return &StructuralError{Tag: "set", Reason: "empty projected DOS spin set"}
	}
	if h.res.DOS.Energies != nil && len(h.pdosRows) != len(h.res.DOS.Energies) {
		return &StructuralError{Tag: "set", Reason: "projected DOS rows do not match the energy grid"}
	}
	h.norbitals = len(h.pdosRows[0])
	for orbital := 0; orbital < h.norbitals; orbital++ {
		column := make([]float64, len(h.pdosRows))
		for i, row := range h.pdosRows {
			if len(row) != h.norbitals {
				return &StructuralError{Tag: "set", Reason: "ragged projected DOS rows"}
			}
			column[i] = row[orbital]
		}
		h.pdos[pdosKey{ion: h.pdosIon, orbital: orbital, spin: h.pdosSpin}] = column
	}
	h.pdosRows = nil
	return nil
}

// finishProjected combines the per-spin columns collected under every ion
// into ordered entries: atom index first, orbital index second. The up
// channel is required; a missing down channel is preserved as absence.
func (h *handler) finishProjected() error {
	natoms := len(h.res.AtomicSymbols)
	for atom := 1; atom <= natoms; atom++ {
		row := make([]OrbitalDOS, 0, h.norbitals)
		for orbital := 0; orbital < h.norbitals; orbital++ {
			up, ok := h.pdos[pdosKey{ion: atom, orbital: orbital, spin: SpinUp}]
			if !ok {
				return &StructuralError{Tag: "partial", Reason: "missing spin-up projection for ion " + strconv.Itoa(atom)}
			}
			densities := map[Spin][]float64{SpinUp: up}
			if down, ok := h.pdos[pdosKey{ion: atom, orbital: orbital, spin: SpinDown}]; ok {
				densities[SpinDown] = down
			}
			row = append(row, OrbitalDOS{Atom: atom, Orbital: orbital, Densities: densities})
		}
		h.res.Projected = append(h.res.Projected, row)
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	}
	return 0, false
}

// spinFromLabel maps the "spin 1"/"spin 2" set labels onto spin channels.
func spinFromLabel(comment string) Spin {
	if comment == "spin 1" {
		return SpinUp
	}
	return SpinDown
}

// indexFromLabel parses the numeric suffix of labels like "kpoint 3" or
// "ion 12".
func indexFromLabel(comment string) (int, error) {
	fields := strings.Fields(comment)
	if len(fields) < 2 {
		return 0, errors.New("label has no index")
	}
	return strconv.Atoi(fields[1])
}
