// Package model evaluates the linear bike-sharing demand model.
package model

import (
	"math"

	"github.com/smukkama/bike-demand/internal/protocol"
)

// Coefficient terms
const (
	TermConst         = "const"
	TermYear          = "yr"
	TermTemp          = "temp"
	TermHumidity      = "hum"
	TermWindspeed     = "windspeed"
	TermSpring        = "Spring"
	TermWinter        = "Winter"
	TermJul           = "Jul"
	TermJun           = "Jun"
	TermAug           = "Aug"
	TermLightRainfall = "Light_rainfall"
	TermThunderstorm  = "Thunderstrom"
)

// featureTerms are the model inputs, in evaluation order.
var featureTerms = []string{
	TermYear, TermTemp, TermHumidity, TermWindspeed, TermSpring, TermWinter,
	TermJul, TermJun, TermAug, TermLightRainfall, TermThunderstorm,
}

// Normalisation ranges for the numeric inputs.
const (
	tempScale      = 40.0
	humidityScale  = 100.0
	windspeedScale = 50.0
	outputScale    = 1000.0
)

// Coefficients maps a term to its regression weight
type Coefficients map[string]float64

// DefaultCoefficients returns the weights fitted on the bike-sharing dataset
func DefaultCoefficients() Coefficients {
	return Coefficients{
		TermConst:         0.3535,
		TermYear:          0.228,
		TermTemp:          0.526,
		TermHumidity:      -0.189,
		TermWindspeed:     -0.165,
		TermSpring:        -0.113,
		TermWinter:        0.045,
		TermAug:           -0.59,
		TermJul:           -0.124,
		TermJun:           -0.05,
		TermLightRainfall: -0.045,
		TermThunderstorm:  -0.203,
	}
}

// Merge returns a copy of c with the given overrides applied
func (c Coefficients) Merge(overrides map[string]float64) Coefficients {
	merged := make(Coefficients, len(c))
	for term, value := range c {
		merged[term] = value
	}
	for term, value := range overrides {
		merged[term] = value
	}
	return merged
}

// Model is an immutable linear demand model
type Model struct {
	name         string
	coefficients Coefficients
}

// New creates a model from the given coefficients
func New(name string, coefficients Coefficients) *Model {
	return &Model{
		name:         name,
		coefficients: coefficients.Merge(nil),
	}
}

// Name returns the model name
func (m *Model) Name() string {
	return m.name
}

// Coefficient returns the weight for a term
func (m *Model) Coefficient(term string) (float64, bool) {
	v, ok := m.coefficients[term]
	return v, ok
}

// Features converts a request into scaled model inputs
func Features(req protocol.PredictRequest) map[string]float64 {
	return map[string]float64{
		TermYear:          float64(req.Year),
		TermTemp:          req.Temperature / tempScale,
		TermHumidity:      req.Humidity / humidityScale,
		TermWindspeed:     req.Windspeed / windspeedScale,
		TermSpring:        indicator(req.Season == "Spring"),
		TermWinter:        indicator(req.Season == "Winter"),
		TermJul:           indicator(req.Month == "Jul"),
		TermJun:           indicator(req.Month == "Jun"),
		TermAug:           indicator(req.Month == "Aug"),
		TermLightRainfall: indicator(req.Weather == "Light_rainfall"),
		TermThunderstorm:  indicator(req.Weather == "Thunderstrom"),
	}
}

// Predict returns the expected number of rentals, never negative
func (m *Model) Predict(req protocol.PredictRequest) int {
	features := Features(req)

	prediction := m.coefficients[TermConst]
	for _, term := range featureTerms {
		prediction += m.coefficients[term] * features[term]
	}

	prediction = math.Max(0, prediction*outputScale)
	return int(math.RoundToEven(prediction))
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
