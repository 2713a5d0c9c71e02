// Package features derives the model's numeric feature row from a parsed document.
package features

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	apperrors "github.com/ZanzyTHEbar/hacs-api/internal/errors"
	"github.com/ZanzyTHEbar/hacs-api/internal/types"
)

// Engineered feature names
const (
	VelocityKmPerDay        = "velocity_km_per_day"
	DistanceToDiameterRatio = "distance_to_diameter_ratio"
	KineticEnergyProxy      = "kinetic_energy_proxy"
)

const (
	secondsPerDay = 86400
	yearSuffix    = "_year"
	monthSuffix   = "_month"
	daySuffix     = "_day"
)

// dateLayouts are tried in order for string date fields
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"2006-Jan-02",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// Extractor builds feature rows that match a model's feature list
type Extractor struct {
	featureNames []string
}

// NewExtractor creates an extractor for the given ordered feature list
func NewExtractor(featureNames []string) *Extractor {
	return &Extractor{featureNames: append([]string(nil), featureNames...)}
}

// Extract builds the full row and reindexes it to the feature list
func (e *Extractor) Extract(raw types.RawInput) (*FeatureRow, error) {
	row, err := BuildRow(raw)
	if err != nil {
		return nil, err
	}

	selected, missing := row.Reindex(e.featureNames)
	if len(missing) > 0 {
		return nil, apperrors.NewMissingFeatureError(missing, len(e.featureNames))
	}
	return selected, nil
}

// BuildRow expands dates, encodes categorical fields and adds engineered features.
// Null fields are left out of the row.
func BuildRow(raw types.RawInput) (*FeatureRow, error) {
	row := NewFeatureRow()
	dateParts := NewFeatureRow()
	categorical := make(map[string]string)
	var categoricalOrder []string

	for _, field := range fieldOrder(raw) {
		value, ok := raw[field]
		if !ok || value == nil {
			continue
		}

		if isDateField(field) {
			t, err := parseDate(value)
			if err != nil {
				return nil, apperrors.NewInvalidDateError(field, value, err)
			}
			dateParts.Set(field+yearSuffix, float64(t.Year()))
			dateParts.Set(field+monthSuffix, float64(t.Month()))
			dateParts.Set(field+daySuffix, float64(t.Day()))
			continue
		}

		switch v := value.(type) {
		case float64:
			row.Set(field, v)
		case string:
			categorical[field] = v
			categoricalOrder = append(categoricalOrder, field)
			// placeholder keeps the field's position until it is encoded
			row.Set(field, 0)
		default:
			return nil, apperrors.NewInvalidDocumentError(fmt.Sprintf("field %q has unsupported type %T", field, value), nil)
		}
	}

	for _, name := range dateParts.Names() {
		v, _ := dateParts.Get(name)
		row.Set(name, v)
	}

	// Each request fits its own encoder, so codes carry no meaning across requests.
	for _, field := range categoricalOrder {
		enc := NewLabelEncoder([]string{categorical[field]})
		row.Set(field, float64(enc.Transform(categorical[field])))
	}

	addEngineered(row)

	// large finite inputs can still overflow an engineered feature
	values := row.Values()
	for i, name := range row.Names() {
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			return nil, apperrors.NewInvalidDocumentError(fmt.Sprintf("feature %q is not a finite number", name), nil)
		}
	}

	return row, nil
}

func addEngineered(row *FeatureRow) {
	velocity, hasVelocity := row.Get(types.FieldRelativeVelocityKmPerSec)
	if hasVelocity {
		row.Set(VelocityKmPerDay, velocity*secondsPerDay)
	}

	diameter, hasDiameter := row.Get(types.FieldDiameter)
	if !hasDiameter {
		return
	}
	if missDist, ok := row.Get(types.FieldMissDistAstronomical); ok {
		row.Set(DistanceToDiameterRatio, missDist/(diameter+1))
	}
	if hasVelocity {
		row.Set(KineticEnergyProxy, math.Pow(diameter, 3)*math.Pow(velocity, 2))
	}
}

// fieldOrder returns vocabulary fields first, then any extra keys sorted
func fieldOrder(raw types.RawInput) []string {
	order := make([]string, 0, len(raw))
	known := make(map[string]bool, len(types.Vocabulary))
	for _, f := range types.Vocabulary {
		known[f] = true
		order = append(order, f)
	}

	var extra []string
	for k := range raw {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

func isDateField(field string) bool {
	for _, f := range types.DateFields {
		if f == field {
			return true
		}
	}
	return false
}

// parseDate accepts calendar strings or numbers. Numbers are nanoseconds since the
// Unix epoch, matching how the training pipeline converted numeric date columns.
func parseDate(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= math.MaxInt64 {
			return time.Time{}, fmt.Errorf("numeric date %v is out of range", v)
		}
		return time.Unix(0, int64(v)).UTC(), nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			// the written calendar date wins over any zone offset
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", v)
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", value)
	}
}
