// Package modeltest provides a small deterministic model bundle and matching
// documents for tests across packages.
package modeltest

import (
	"testing"

	"github.com/ZanzyTHEbar/hacs-api/internal/model"
	"github.com/ZanzyTHEbar/hacs-api/internal/types"
	"github.com/stretchr/testify/require"
)

// FeatureNames is the fixture model's ordered feature list
func FeatureNames() []string {
	return []string{
		types.FieldName,
		types.FieldRelativeVelocityKmPerSec,
		types.FieldRelativeVelocityKmPerHr,
		types.FieldMilesPerHour,
		types.FieldMissDistAstronomical,
		types.FieldMissDistLunar,
		types.FieldMissDistKilometers,
		types.FieldMissDistMiles,
		types.FieldJupiterTisserand,
		types.FieldSemiMajorAxis,
		types.FieldAscNodeLongitude,
		types.FieldPerihelionArg,
		types.FieldAphelionDist,
		types.FieldMeanAnomaly,
		types.FieldMeanMotion,
		types.FieldApproachYear,
		types.FieldApproachMonth,
		types.FieldApproachDay,
		types.FieldOrbitalPeriod,
		types.FieldOrbitUncertainity,
		"Epoch Date Close Approach_year",
		"Epoch Date Close Approach_month",
		"Epoch Date Close Approach_day",
		"Epoch Osculation_year",
		"Epoch Osculation_month",
		"Epoch Osculation_day",
		"Perihelion Time_year",
		"Perihelion Time_month",
		"Perihelion Time_day",
		"velocity_km_per_day",
	}
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	panic("modeltest: unknown feature " + name)
}

// Scaler centers the four features the fixture trees read; the rest pass through
// with unit scale.
func Scaler() *model.Scaler {
	names := FeatureNames()
	s := &model.Scaler{
		Mean:  make([]float64, len(names)),
		Scale: make([]float64, len(names)),
	}
	for i := range s.Scale {
		s.Scale[i] = 1
	}

	set := func(name string, mean, scale float64) {
		i := indexOf(names, name)
		s.Mean[i] = mean
		s.Scale[i] = scale
	}
	set(types.FieldMissDistAstronomical, 0.25, 0.1)
	set(types.FieldRelativeVelocityKmPerSec, 15, 5)
	set(types.FieldOrbitUncertainity, 4, 3)
	set(types.FieldOrbitalPeriod, 700, 300)
	set("velocity_km_per_day", 15*86400, 5*86400)
	return s
}

// Ensemble has three trees:
//
//	miss distance below mean      +1.5 / -1.5
//	velocity below mean           -0.8 / +0.8
//	orbit uncertainty below mean  then orbital period below mean +0.2 / -0.1, else -0.3
func Ensemble() *model.Ensemble {
	names := FeatureNames()
	miss := indexOf(names, types.FieldMissDistAstronomical)
	velocity := indexOf(names, types.FieldRelativeVelocityKmPerSec)
	uncertainty := indexOf(names, types.FieldOrbitUncertainity)
	period := indexOf(names, types.FieldOrbitalPeriod)

	importances := make([]float64, len(names))
	importances[miss] = 0.45
	importances[velocity] = 0.30
	importances[uncertainty] = 0.15
	importances[period] = 0.10

	return &model.Ensemble{
		BaseMargin: 0,
		Trees: []model.Tree{
			{Nodes: []model.Node{
				{Feature: miss, Threshold: 0, Left: 1, Right: 2},
				{Leaf: true, Value: 1.5},
				{Leaf: true, Value: -1.5},
			}},
			{Nodes: []model.Node{
				{Feature: velocity, Threshold: 0, Left: 1, Right: 2},
				{Leaf: true, Value: -0.8},
				{Leaf: true, Value: 0.8},
			}},
			{Nodes: []model.Node{
				{Feature: uncertainty, Threshold: 0, Left: 1, Right: 2},
				{Feature: period, Threshold: 0, Left: 3, Right: 4},
				{Leaf: true, Value: -0.3},
				{Leaf: true, Value: 0.2},
				{Leaf: true, Value: -0.1},
			}},
		},
		Importances: importances,
	}
}

// Artifacts returns the fixture bundle in memory
func Artifacts() *model.Artifacts {
	return &model.Artifacts{
		Classifier:   Ensemble(),
		Scaler:       Scaler(),
		FeatureNames: FeatureNames(),
	}
}

// WriteDir writes the fixture bundle to a temporary directory and returns it
func WriteDir(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, model.WriteArtifacts(dir, Ensemble(), Scaler(), FeatureNames()))
	return dir
}

// HazardousMargin is the fixture margin for HazardousDocument: 1.5 + 0.8 + 0.2
const HazardousMargin = 2.5

// SafeMargin is the fixture margin for SafeDocument: -1.5 - 0.8 - 0.3
const SafeMargin = -2.6

// HazardousDocument is a close, fast approach
const HazardousDocument = `Name: 3703080
Epoch Date Close Approach: "1995-01-01"
Relative Velocity km per sec: 25.0
Relative Velocity km per hr: 90000.0
Miles per hour: 55923.4
Miss Dist.(Astronomical): 0.05
Miss Dist.(lunar): 19.45
Miss Dist.(kilometers): 7479893.5
Miss Dist.(miles): 4647755.8
Jupiter Tisserand Invariant: 5.457
Epoch Osculation: "2017-04-06"
Semi Major Axis: 1.407
Asc Node Longitude: 314.37
Perihelion Arg: 57.25
Aphelion Dist: 2.005
Perihelion Time: "2017-06-17"
Mean Anomaly: 264.84
Mean Motion: 0.59
approach_year: 1995
approach_month: 1
approach_day: 1
Orbital Period: 400.0
Orbit Uncertainity: 0
`

// SafeDocument is a distant, slow approach
const SafeDocument = `Name: 3723955
Epoch Date Close Approach: "2023-05-10"
Relative Velocity km per sec: 5.0
Relative Velocity km per hr: 18000.0
Miles per hour: 11184.7
Miss Dist.(Astronomical): 0.45
Miss Dist.(lunar): 175.05
Miss Dist.(kilometers): 67319040.0
Miss Dist.(miles): 41829801.0
Jupiter Tisserand Invariant: 4.1
Epoch Osculation: "2017-04-06"
Semi Major Axis: 1.9
Asc Node Longitude: 120.5
Perihelion Arg: 80.1
Aphelion Dist: 2.8
Perihelion Time: "2016-11-02"
Mean Anomaly: 100.2
Mean Motion: 0.37
approach_year: 2023
approach_month: 5
approach_day: 10
Orbital Period: 970.0
Orbit Uncertainity: 8
`
