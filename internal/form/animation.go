package form

import (
	"math"
	"strconv"
)

// CountUpSteps is the number of increments between 0 and the target
const CountUpSteps = 50

// CountUp produces the frames of the result counter animation
type CountUp struct {
	target   float64
	step     float64
	current  float64
	finished bool
}

func NewCountUp(target float64) *CountUp {
	return &CountUp{
		target: target,
		step:   target / CountUpSteps,
	}
}

// Next advances one frame and returns the text to display.
// Once the accumulated value reaches the target it returns the exact target and done.
func (c *CountUp) Next() (text string, done bool) {
	if c.finished || !(c.current < c.target) || !(c.step > 0) {
		c.finished = true
		return formatValue(c.target), true
	}

	c.current += c.step
	if c.current >= c.target {
		c.finished = true
		return formatValue(c.target), true
	}

	shown := math.Floor(c.current + 0.5)
	if shown > c.target {
		shown = math.Floor(c.target)
	}
	return strconv.FormatFloat(shown, 'f', -1, 64), false
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
