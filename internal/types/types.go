package types

// Field labels accepted in an uploaded asteroid document
const (
	FieldName                     = "Name"
	FieldEpochDateCloseApproach   = "Epoch Date Close Approach"
	FieldRelativeVelocityKmPerSec = "Relative Velocity km per sec"
	FieldRelativeVelocityKmPerHr  = "Relative Velocity km per hr"
	FieldMilesPerHour             = "Miles per hour"
	FieldMissDistAstronomical     = "Miss Dist.(Astronomical)"
	FieldMissDistLunar            = "Miss Dist.(lunar)"
	FieldMissDistKilometers       = "Miss Dist.(kilometers)"
	FieldMissDistMiles            = "Miss Dist.(miles)"
	FieldJupiterTisserand         = "Jupiter Tisserand Invariant"
	FieldEpochOsculation          = "Epoch Osculation"
	FieldSemiMajorAxis            = "Semi Major Axis"
	FieldAscNodeLongitude         = "Asc Node Longitude"
	FieldPerihelionArg            = "Perihelion Arg"
	FieldAphelionDist             = "Aphelion Dist"
	FieldPerihelionTime           = "Perihelion Time"
	FieldMeanAnomaly              = "Mean Anomaly"
	FieldMeanMotion               = "Mean Motion"
	FieldApproachYear             = "approach_year"
	FieldApproachMonth            = "approach_month"
	FieldApproachDay              = "approach_day"
	FieldOrbitalPeriod            = "Orbital Period"
	FieldOrbitUncertainity        = "Orbit Uncertainity"

	// FieldDiameter is read by feature engineering but is not part of Vocabulary
	FieldDiameter = "Diameter"
)

// Vocabulary lists every field extracted from a document, in document order
var Vocabulary = []string{
	FieldName,
	FieldEpochDateCloseApproach,
	FieldRelativeVelocityKmPerSec,
	FieldRelativeVelocityKmPerHr,
	FieldMilesPerHour,
	FieldMissDistAstronomical,
	FieldMissDistLunar,
	FieldMissDistKilometers,
	FieldMissDistMiles,
	FieldJupiterTisserand,
	FieldEpochOsculation,
	FieldSemiMajorAxis,
	FieldAscNodeLongitude,
	FieldPerihelionArg,
	FieldAphelionDist,
	FieldPerihelionTime,
	FieldMeanAnomaly,
	FieldMeanMotion,
	FieldApproachYear,
	FieldApproachMonth,
	FieldApproachDay,
	FieldOrbitalPeriod,
	FieldOrbitUncertainity,
}

// DateFields are expanded into _year, _month and _day features
var DateFields = []string{
	FieldEpochDateCloseApproach,
	FieldEpochOsculation,
	FieldPerihelionTime,
}

// RawInput maps vocabulary labels to the document's values. A value is a float64,
// a string, or nil when the document left the field out or null.
type RawInput map[string]interface{}

// Present reports whether the field has a non-null value
func (r RawInput) Present(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}
