package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/smukkama/bike-demand/internal/form"
)

// consoleView renders the form as a line-oriented transcript.
// Writes to out are unlocked; the controller serializes all View calls.
type consoleView struct {
	mu       sync.Mutex
	out      io.Writer
	values   map[form.Field]string
	bounds   map[form.Field]form.Bounds
	controls map[string]form.Control
	result   string
}

func newConsoleView(out io.Writer) *consoleView {
	v := &consoleView{
		out:      out,
		values:   make(map[form.Field]string),
		bounds:   make(map[form.Field]form.Bounds),
		controls: make(map[string]form.Control),
	}
	for f, b := range form.DefaultBounds {
		v.bounds[f] = b
	}
	// Select defaults from the page markup.
	v.values[form.FieldHoliday] = "0"
	v.values[form.FieldWorkingday] = "1"
	return v
}

func (v *consoleView) Value(f form.Field) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.values[f]
}

func (v *consoleView) SetValue(f form.Field, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[f] = value
}

func (v *consoleView) Bounds(f form.Field) form.Bounds {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bounds[f]
}

func (v *consoleView) SetBorder(f form.Field, b form.Border) {
	if b == form.BorderInvalid {
		fmt.Fprintf(v.out, "  ! %s needs attention\n", f)
	}
}

func (v *consoleView) SetSubmitLabel(label string) {
	fmt.Fprintf(v.out, "  [%s]\n", label)
}

func (v *consoleView) SetSubmitDisabled(bool) {}

func (v *consoleView) SetResultVisible(bool) {}

func (v *consoleView) SetResultText(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.result = text
}

func (v *consoleView) ScrollResultIntoView() {}

func (v *consoleView) InsertAdvisory(a form.Advisory) {
	fmt.Fprintf(v.out, "  (%s) %s\n", a.Kind, a.Text)
}

func (v *consoleView) RemoveAdvisory(string) {}

func (v *consoleView) AddControl(c form.Control) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.controls[c.ID] = c
}

// click activates an injected control
func (v *consoleView) click(id string) error {
	v.mu.Lock()
	c, ok := v.controls[id]
	v.mu.Unlock()
	if !ok {
		return fmt.Errorf("no control %q on the form", id)
	}
	c.OnActivate()
	return nil
}

func (v *consoleView) resultText() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result
}
