package form

// Border is the visual validity marker of an input
type Border int

const (
	BorderValid Border = iota
	BorderInvalid
)

// Color returns the CSS border color used by the stock markup
func (b Border) Color() string {
	if b == BorderInvalid {
		return "#dc3545"
	}
	return "#e0e0e0"
}

// AdvisoryKind distinguishes error and success advisories
type AdvisoryKind int

const (
	AdvisoryError AdvisoryKind = iota
	AdvisorySuccess
)

func (k AdvisoryKind) String() string {
	if k == AdvisorySuccess {
		return "success"
	}
	return "error"
}

// Advisory is a transient message shown under the form
type Advisory struct {
	ID   string
	Kind AdvisoryKind
	Text string
}

// Control is an extra button the controller injects into the form
type Control struct {
	ID         string
	Label      string
	OnActivate func()
}

// Submit control labels
const (
	SubmitLabelIdle = "Predict Bike Demand"
	SubmitLabelBusy = "Predicting..."
)

// View is everything the controller needs from the rendered form.
// Implementations are only called with the controller's lock held.
type View interface {
	Value(f Field) string
	SetValue(f Field, v string)
	// Bounds returns the raw min/max metadata; empty strings when undeclared.
	Bounds(f Field) Bounds
	SetBorder(f Field, b Border)

	SetSubmitLabel(label string)
	SetSubmitDisabled(disabled bool)

	SetResultVisible(visible bool)
	SetResultText(text string)
	ScrollResultIntoView()

	InsertAdvisory(a Advisory)
	RemoveAdvisory(id string)

	AddControl(c Control)
}
