package form

// Field is the identifier of one form input
type Field string

const (
	FieldYear        Field = "year"
	FieldMonth       Field = "month"
	FieldWeekday     Field = "weekday"
	FieldTemperature Field = "temperature"
	FieldHumidity    Field = "humidity"
	FieldWindspeed   Field = "windspeed"
	FieldWeather     Field = "weather"
	FieldSeason      Field = "season"
	FieldHoliday     Field = "holiday"
	FieldWorkingday  Field = "workingday"
)

// Fields lists every input in markup order
var Fields = []Field{
	FieldYear, FieldMonth, FieldWeekday, FieldTemperature, FieldHumidity,
	FieldWindspeed, FieldWeather, FieldSeason, FieldHoliday, FieldWorkingday,
}

// RequiredFields must be non-empty for a submission to proceed.
// holiday and workingday are selects that always carry a value.
var RequiredFields = []Field{
	FieldYear, FieldMonth, FieldWeekday, FieldTemperature,
	FieldHumidity, FieldWindspeed, FieldWeather, FieldSeason,
}

// BoundedFields get a live range check on every input event
var BoundedFields = []Field{FieldTemperature, FieldHumidity, FieldWindspeed}

// Bounds is the min/max metadata a bounded input declares
type Bounds struct {
	Min string
	Max string
}

// DefaultBounds are the ranges declared by the stock markup
var DefaultBounds = map[Field]Bounds{
	FieldTemperature: {Min: "-10", Max: "40"},
	FieldHumidity:    {Min: "0", Max: "100"},
	FieldWindspeed:   {Min: "0", Max: "50"},
}

var (
	Months   = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	Weekdays = []string{"Mon", "Tue", "Wed", "Thurs", "Fri", "Sat", "Sun"}
	Weathers = []string{"Clear", "Mist", "Light_rainfall", "Thunderstrom"}
	Seasons  = []string{"Spring", "Summer", "Fall", "Winter"}
)

var monthSeasons = map[string]string{
	"Dec": "Winter", "Jan": "Winter", "Feb": "Winter",
	"Mar": "Spring", "Apr": "Spring", "May": "Spring",
	"Jun": "Summer", "Jul": "Summer", "Aug": "Summer",
	"Sep": "Fall", "Oct": "Fall", "Nov": "Fall",
}

// SeasonForMonth maps a 3-letter month code to its season
func SeasonForMonth(month string) (string, bool) {
	season, ok := monthSeasons[month]
	return season, ok
}

// SampleData is the fixed input set behind the "Load Sample Data" control
var SampleData = map[Field]string{
	FieldYear:        "1",
	FieldMonth:       "Jul",
	FieldWeekday:     "Mon",
	FieldTemperature: "25.5",
	FieldHumidity:    "65",
	FieldWindspeed:   "12.5",
	FieldWeather:     "Clear",
	FieldSeason:      "Summer",
	FieldHoliday:     "0",
	FieldWorkingday:  "1",
}
