package form

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCountUp(t *testing.T, target float64) []string {
	t.Helper()

	counter := NewCountUp(target)
	var frames []string
	for i := 0; i <= CountUpSteps+1; i++ {
		text, done := counter.Next()
		frames = append(frames, text)
		if done {
			return frames
		}
	}
	t.Fatalf("count-up to %v did not finish after %d frames", target, len(frames))
	return nil
}

func TestCountUp_EndsExactlyAtTarget(t *testing.T) {
	for _, target := range []float64{100, 143, 1, 49, 8765} {
		frames := runCountUp(t, target)

		assert.Equal(t, strconv.FormatFloat(target, 'f', -1, 64), frames[len(frames)-1])
		assert.LessOrEqual(t, len(frames), CountUpSteps+1, "target %v", target)

		previous := -1
		for _, text := range frames {
			v, err := strconv.Atoi(text)
			require.NoError(t, err)
			assert.LessOrEqual(t, float64(v), target, "frame overshoots target %v", target)
			assert.GreaterOrEqual(t, v, previous, "frames must not decrease")
			previous = v
		}
	}
}

func TestCountUp_HundredStepsByTwo(t *testing.T) {
	frames := runCountUp(t, 100)

	require.Len(t, frames, CountUpSteps)
	assert.Equal(t, "2", frames[0])
	assert.Equal(t, "50", frames[24])
	assert.Equal(t, "100", frames[len(frames)-1])
}

func TestCountUp_NonPositiveTargetShowsImmediately(t *testing.T) {
	text, done := NewCountUp(0).Next()
	assert.True(t, done)
	assert.Equal(t, "0", text)

	text, done = NewCountUp(-5).Next()
	assert.True(t, done)
	assert.Equal(t, "-5", text)
}

func TestCountUp_NextAfterDoneRepeatsTarget(t *testing.T) {
	counter := NewCountUp(3)
	for {
		if _, done := counter.Next(); done {
			break
		}
	}

	text, done := counter.Next()
	assert.True(t, done)
	assert.Equal(t, "3", text)
}
