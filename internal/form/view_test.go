package form

import (
	"sync"
)

// fakeView records every mutation the controller makes
type fakeView struct {
	mu             sync.Mutex
	values         map[Field]string
	bounds         map[Field]Bounds
	borders        map[Field]Border
	submitLabel    string
	submitDisabled bool
	resultVisible  bool
	resultText     string
	resultHistory  []string
	scrolled       int
	advisories     []Advisory
	removed        []string
	controls       []Control
}

func newFakeView() *fakeView {
	bounds := make(map[Field]Bounds)
	for f, b := range DefaultBounds {
		bounds[f] = b
	}
	return &fakeView{
		values:      make(map[Field]string),
		bounds:      bounds,
		borders:     make(map[Field]Border),
		submitLabel: SubmitLabelIdle,
	}
}

func (v *fakeView) Value(f Field) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.values[f]
}

func (v *fakeView) SetValue(f Field, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[f] = value
}

func (v *fakeView) Bounds(f Field) Bounds {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bounds[f]
}

func (v *fakeView) SetBorder(f Field, b Border) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.borders[f] = b
}

func (v *fakeView) SetSubmitLabel(label string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.submitLabel = label
}

func (v *fakeView) SetSubmitDisabled(disabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.submitDisabled = disabled
}

func (v *fakeView) SetResultVisible(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resultVisible = visible
}

func (v *fakeView) SetResultText(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resultText = text
	v.resultHistory = append(v.resultHistory, text)
}

func (v *fakeView) ScrollResultIntoView() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrolled++
}

func (v *fakeView) InsertAdvisory(a Advisory) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.advisories = append(v.advisories, a)
}

func (v *fakeView) RemoveAdvisory(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.removed = append(v.removed, id)
	for i, a := range v.advisories {
		if a.ID == id {
			v.advisories = append(v.advisories[:i], v.advisories[i+1:]...)
			return
		}
	}
}

func (v *fakeView) AddControl(c Control) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controls = append(v.controls, c)
}

func (v *fakeView) visibleAdvisories() []Advisory {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Advisory, len(v.advisories))
	copy(out, v.advisories)
	return out
}

func (v *fakeView) result() (visible bool, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resultVisible, v.resultText
}

func (v *fakeView) history() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, len(v.resultHistory))
	copy(out, v.resultHistory)
	return out
}

func (v *fakeView) submit() (label string, disabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.submitLabel, v.submitDisabled
}

func (v *fakeView) border(f Field) Border {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.borders[f]
}

// activate clicks an injected control outside the view lock
func (v *fakeView) activate(id string) bool {
	v.mu.Lock()
	var target Control
	found := false
	for _, c := range v.controls {
		if c.ID == id {
			target, found = c, true
			break
		}
	}
	v.mu.Unlock()

	if !found {
		return false
	}
	target.OnActivate()
	return true
}
