package forecast

import (
	"math"
	"slices"
	"time"
)

// CalendarSchemaVersion identifies the calendar feature set. Bump it
// whenever the names, order or meaning of the features change.
const CalendarSchemaVersion = "calendar-v2"

var calendarFeatureNames = []string{
	"hour_of_day",
	"day_of_week",
	"month",
	"quarter",
	"is_weekend",
	"hour_sin",
	"hour_cos",
}

// FeatureVector holds feature values in FeatureSchema.Names order.
type FeatureVector []float64

// FeatureSchema names the features a vector carries.
type FeatureSchema struct {
	Version string
	Names   []string
}

// Matches reports whether a model trained under version/names can be
// applied to vectors built under this schema.
func (s FeatureSchema) Matches(version string, names []string) bool {
	return s.Version == version && slices.Equal(s.Names, names)
}

// FeatureBuilder derives a feature vector from a timestamp. It must be a
// pure function of its input.
type FeatureBuilder interface {
	Schema() FeatureSchema
	Build(ts time.Time) FeatureVector
}

// CalendarFeatures builds calendar features evaluated in the venue's
// local time zone.
type CalendarFeatures struct {
	loc *time.Location
}

func NewCalendarFeatures(loc *time.Location) *CalendarFeatures {
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarFeatures{loc: loc}
}

func (f *CalendarFeatures) Schema() FeatureSchema {
	return FeatureSchema{
		Version: CalendarSchemaVersion,
		Names:   slices.Clone(calendarFeatureNames),
	}
}

func (f *CalendarFeatures) Build(ts time.Time) FeatureVector {
	t := ts.In(f.loc)
	hour := t.Hour()
	// Monday=0 .. Sunday=6
	dow := (int(t.Weekday()) + 6) % 7
	month := int(t.Month())

	weekend := 0.0
	if dow >= 5 {
		weekend = 1.0
	}
	angle := 2 * math.Pi * float64(hour) / 24

	return FeatureVector{
		float64(hour),
		float64(dow),
		float64(month),
		float64((month-1)/3 + 1),
		weekend,
		math.Sin(angle),
		math.Cos(angle),
	}
}
