package synth

// Panel holds the raw 0-127 value of every parameter and its derived value.
// A derived value is recomputed only when its raw value changes.
//
// A Panel is not safe for concurrent use; the Engine confines it to the
// audio side.
type Panel struct {
	curve CutoffCurve
	raw   [NumParams]uint8
	value [NumParams]float32
}

// NewPanel loads every parameter with its default.
func NewPanel(curve CutoffCurve) *Panel {
	p := &Panel{curve: curve}
	for id := ParamID(0); id < NumParams; id++ {
		p.raw[id] = paramSpecs[id].Default
		p.value[id] = Scale(id, p.raw[id], curve)
	}
	return p
}

// Set stores raw (clamped to 0..127) and reports whether the value changed.
// Unknown IDs are ignored.
func (p *Panel) Set(id ParamID, raw int) bool {
	if id >= NumParams {
		return false
	}
	r := uint8(min(max(raw, 0), 127))
	if p.raw[id] == r {
		return false
	}
	p.raw[id] = r
	p.value[id] = Scale(id, r, p.curve)
	return true
}

// Nudge moves a parameter by delta steps, the way a rotary encoder does.
func (p *Panel) Nudge(id ParamID, delta int) bool {
	if id >= NumParams {
		return false
	}
	return p.Set(id, int(p.raw[id])+delta)
}

func (p *Panel) Raw(id ParamID) uint8 {
	if id >= NumParams {
		return 0
	}
	return p.raw[id]
}

func (p *Panel) Value(id ParamID) float32 {
	if id >= NumParams {
		return 0
	}
	return p.value[id]
}

func (p *Panel) Curve() CutoffCurve { return p.curve }
