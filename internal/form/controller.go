// Package form implements the prediction form controller: field rules,
// validation, submission, result rendering and transient advisories.
//
// The controller owns no rendering. It drives a View, and every View call
// happens under a single lock, so a View never sees concurrent mutation.
package form

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smukkama/bike-demand/internal/client"
	"github.com/smukkama/bike-demand/internal/protocol"
)

// Advisory texts
const (
	MsgMissingFields    = "Please fill in all required fields"
	MsgPredictionDone   = "Prediction completed successfully!"
	MsgPredictionFailed = "An error occurred while making the prediction"
	MsgNetworkError     = "Network error. Please check your connection and try again."
	MsgSampleLoaded     = `Sample data loaded! Click "Predict Bike Demand" to see the result.`
)

// SampleControlID identifies the injected sample-data control
const SampleControlID = "sample-data"

// ErrIncomplete is returned by Submit when a required field is empty
var ErrIncomplete = errors.New(MsgMissingFields)

// Predictor performs the remote prediction
type Predictor interface {
	Predict(ctx context.Context, req protocol.PredictRequest) (*protocol.PredictResponse, error)
}

// Scheduler runs advisory dismissals
type Scheduler interface {
	Schedule(id string, fireAt time.Time, callback func()) error
	Cancel(id string) bool
}

// State is the submission cycle phase
type State int

const (
	StateIdle State = iota
	StateValidating
	StateLoading
	StateResultShown
	StateErrorShown
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateLoading:
		return "loading"
	case StateResultShown:
		return "result"
	case StateErrorShown:
		return "error"
	default:
		return "idle"
	}
}

// Options tunes timing and logging
type Options struct {
	ErrorDismiss   time.Duration
	SuccessDismiss time.Duration
	FrameInterval  time.Duration
	Logger         logrus.FieldLogger
}

// DefaultOptions matches the stock widget timings
func DefaultOptions() Options {
	return Options{
		ErrorDismiss:   5 * time.Second,
		SuccessDismiss: 3 * time.Second,
		FrameInterval:  16 * time.Millisecond,
		Logger:         logrus.StandardLogger(),
	}
}

// Controller is the form submission controller
type Controller struct {
	mu        sync.Mutex
	view      View
	predictor Predictor
	scheduler Scheduler
	opts      Options
	log       logrus.FieldLogger

	state    State
	advisory *Advisory
	// animation is bumped to stop a running count-up
	animation uint64
	frames    sync.WaitGroup
}

// NewController creates a controller bound to its view
func NewController(view View, predictor Predictor, scheduler Scheduler, opts Options) *Controller {
	defaults := DefaultOptions()
	if opts.ErrorDismiss <= 0 {
		opts.ErrorDismiss = defaults.ErrorDismiss
	}
	if opts.SuccessDismiss <= 0 {
		opts.SuccessDismiss = defaults.SuccessDismiss
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = defaults.FrameInterval
	}
	if opts.Logger == nil {
		opts.Logger = defaults.Logger
	}

	return &Controller{
		view:      view,
		predictor: predictor,
		scheduler: scheduler,
		opts:      opts,
		log:       opts.Logger.WithField("component", "form"),
	}
}

// Setup injects the sample-data control into the view
func (c *Controller) Setup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.view.AddControl(Control{
		ID:         SampleControlID,
		Label:      "Load Sample Data",
		OnActivate: c.LoadSampleData,
	})
}

// Close stops any running animation
func (c *Controller) Close() {
	c.mu.Lock()
	c.animation++
	c.mu.Unlock()
}

// State returns the current submission phase
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentAdvisory returns the visible advisory, if any
func (c *Controller) CurrentAdvisory() (Advisory, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.advisory == nil {
		return Advisory{}, false
	}
	return *c.advisory, true
}

// MonthChanged fills season from the selected month
func (c *Controller) MonthChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if season, ok := SeasonForMonth(c.view.Value(FieldMonth)); ok {
		c.view.SetValue(FieldSeason, season)
	}
}

// Validate presence-checks every required field and marks its border
func (c *Controller) Validate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked()
}

func (c *Controller) validateLocked() bool {
	valid := true
	for _, f := range RequiredFields {
		if strings.TrimSpace(c.view.Value(f)) == "" {
			c.view.SetBorder(f, BorderInvalid)
			valid = false
		} else {
			c.view.SetBorder(f, BorderValid)
		}
	}
	return valid
}

// NumericInput range-checks a bounded field against its declared min/max.
// The result is visual only and never blocks submission.
func (c *Controller) NumericInput(f Field) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bounds := c.view.Bounds(f)
	value, okValue := parseFloat(c.view.Value(f))
	lo, okLo := parseFloat(bounds.Min)
	hi, okHi := parseFloat(bounds.Max)

	// Unparsable operands compare false, leaving the field marked valid.
	outOfRange := (okValue && okLo && value < lo) || (okValue && okHi && value > hi)
	if outOfRange {
		c.view.SetBorder(f, BorderInvalid)
	} else {
		c.view.SetBorder(f, BorderValid)
	}
}

// Payload serializes the current form input
func (c *Controller) Payload() protocol.PredictRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payloadLocked()
}

func (c *Controller) payloadLocked() protocol.PredictRequest {
	integer := func(f Field) int {
		v, _ := parseInt(c.view.Value(f))
		return v
	}
	number := func(f Field) float64 {
		v, _ := parseFloat(c.view.Value(f))
		return v
	}

	return protocol.PredictRequest{
		Year:        integer(FieldYear),
		Month:       c.view.Value(FieldMonth),
		Weekday:     c.view.Value(FieldWeekday),
		Temperature: number(FieldTemperature),
		Humidity:    number(FieldHumidity),
		Windspeed:   number(FieldWindspeed),
		Weather:     c.view.Value(FieldWeather),
		Season:      c.view.Value(FieldSeason),
		Holiday:     integer(FieldHoliday),
		Workingday:  integer(FieldWorkingday),
	}
}

// Submit validates, posts the form, and renders the outcome.
// It blocks for the duration of the HTTP exchange without holding the view lock.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	c.state = StateValidating
	if !c.validateLocked() {
		c.showErrorLocked(MsgMissingFields)
		c.state = StateIdle
		c.mu.Unlock()
		return ErrIncomplete
	}

	c.showLoadingLocked()
	c.state = StateLoading
	req := c.payloadLocked()
	c.mu.Unlock()

	resp, err := c.predictor.Predict(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.showFailureLocked(err)
		c.state = StateErrorShown
		return err
	}

	c.hideLoadingLocked()
	c.showResultLocked(resp.Prediction)
	c.showAdvisoryLocked(AdvisorySuccess, MsgPredictionDone)
	c.state = StateResultShown
	return nil
}

func (c *Controller) showFailureLocked(err error) {
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		msg := statusErr.Message
		if msg == "" {
			msg = MsgPredictionFailed
		}
		c.showErrorLocked(msg)
		return
	}

	c.log.WithError(err).Errorln("prediction request failed")
	c.showErrorLocked(MsgNetworkError)
}

// LoadSampleData overwrites every field with a known-good input set
func (c *Controller) LoadSampleData() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, f := range Fields {
		c.view.SetValue(f, SampleData[f])
	}
	c.showAdvisoryLocked(AdvisorySuccess, MsgSampleLoaded)
}

func (c *Controller) showLoadingLocked() {
	c.view.SetSubmitLabel(SubmitLabelBusy)
	c.view.SetSubmitDisabled(true)
	c.view.SetResultVisible(false)
	c.animation++
}

func (c *Controller) hideLoadingLocked() {
	c.view.SetSubmitLabel(SubmitLabelIdle)
	c.view.SetSubmitDisabled(false)
}

func (c *Controller) showResultLocked(prediction float64) {
	c.view.SetResultVisible(true)

	c.animation++
	generation := c.animation
	counter := NewCountUp(prediction)

	text, done := counter.Next()
	c.view.SetResultText(text)
	c.view.ScrollResultIntoView()

	if !done {
		c.frames.Add(1)
		go c.animate(generation, counter)
	}
}

// Settle blocks until the running count-up animation, if any, has stopped.
// It must not race with Submit.
func (c *Controller) Settle() {
	c.frames.Wait()
}

// animate advances the counter once per frame until done or superseded
func (c *Controller) animate(generation uint64, counter *CountUp) {
	defer c.frames.Done()

	ticker := time.NewTicker(c.opts.FrameInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.animation != generation {
			c.mu.Unlock()
			return
		}
		text, done := counter.Next()
		c.view.SetResultText(text)
		c.mu.Unlock()

		if done {
			return
		}
	}
}

func (c *Controller) showErrorLocked(text string) {
	c.hideLoadingLocked()
	c.showAdvisoryLocked(AdvisoryError, text)
}

// showAdvisoryLocked replaces any visible advisory and schedules its dismissal
func (c *Controller) showAdvisoryLocked(kind AdvisoryKind, text string) {
	c.removeAdvisoryLocked()

	advisory := Advisory{
		ID:   "advisory-" + uuid.NewString(),
		Kind: kind,
		Text: text,
	}
	c.advisory = &advisory
	c.view.InsertAdvisory(advisory)

	delay := c.opts.ErrorDismiss
	if kind == AdvisorySuccess {
		delay = c.opts.SuccessDismiss
	}

	id := advisory.ID
	if err := c.scheduler.Schedule(id, time.Now().Add(delay), func() { c.expire(id) }); err != nil {
		c.log.WithError(err).WithField("advisory", id).Warnln("advisory will not auto-dismiss")
	}
}

func (c *Controller) removeAdvisoryLocked() {
	if c.advisory == nil {
		return
	}
	c.scheduler.Cancel(c.advisory.ID)
	c.view.RemoveAdvisory(c.advisory.ID)
	c.advisory = nil
}

// expire dismisses an advisory unless a newer one has replaced it
func (c *Controller) expire(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.advisory == nil || c.advisory.ID != id {
		return
	}
	c.view.RemoveAdvisory(id)
	c.advisory = nil
}
