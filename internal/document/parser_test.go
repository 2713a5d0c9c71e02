package document

import (
	"testing"

	apperrors "github.com/ZanzyTHEbar/hacs-api/internal/errors"
	"github.com/ZanzyTHEbar/hacs-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasYAMLExtension(t *testing.T) {
	tests := []struct {
		filename string
		expected bool
	}{
		{"asteroid.yaml", true},
		{"asteroid.yml", true},
		{"ASTEROID.YAML", true},
		{"asteroid.json", false},
		{"asteroid.yaml.txt", false},
		{"yaml", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, HasYAMLExtension(tt.filename))
		})
	}
}

func TestParse_ValidDocument(t *testing.T) {
	data := []byte(`
Name: 3703080
Epoch Date Close Approach: "2023-05-10"
Relative Velocity km per sec: 6.115834
Miss Dist.(Astronomical): 0.4194
Orbit Uncertainity: 5
Unrelated Key: ignored
Perihelion Time: 2018-01-05
`)

	raw, err := Parse(data)
	require.NoError(t, err)

	assert.Len(t, raw, len(types.Vocabulary))
	assert.Equal(t, 3703080.0, raw[types.FieldName])
	assert.Equal(t, "2023-05-10", raw[types.FieldEpochDateCloseApproach])
	assert.Equal(t, 6.115834, raw[types.FieldRelativeVelocityKmPerSec])
	assert.Equal(t, 5.0, raw[types.FieldOrbitUncertainity])
	assert.NotContains(t, raw, "Unrelated Key")

	assert.True(t, raw.Present(types.FieldMissDistAstronomical))
	assert.False(t, raw.Present(types.FieldMeanMotion))
	assert.Contains(t, raw, types.FieldMeanMotion)

	// unquoted timestamps stay parseable as dates whatever form the decoder yields
	assert.NotNil(t, raw[types.FieldPerihelionTime])
}

func TestParse_NullAndBool(t *testing.T) {
	raw, err := Parse([]byte("Mean Motion: null\nOrbital Period: true\nName: ~\nMiles per hour: .nan\n"))
	require.NoError(t, err)

	assert.Nil(t, raw[types.FieldMilesPerHour])
	assert.Nil(t, raw[types.FieldMeanMotion])
	assert.Nil(t, raw[types.FieldName])
	assert.Equal(t, 1.0, raw[types.FieldOrbitalPeriod])
}

func TestParse_InvalidDocuments(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		detail string
	}{
		{
			name:   "malformed yaml",
			data:   "Name: [unclosed\n",
			detail: "Invalid YAML format:",
		},
		{
			name:   "empty document",
			data:   "",
			detail: "document is empty",
		},
		{
			name:   "null document",
			data:   "~\n",
			detail: "document is empty",
		},
		{
			name:   "sequence instead of mapping",
			data:   "- 1\n- 2\n",
			detail: "must be a mapping",
		},
		{
			name:   "nested value for a field",
			data:   "Mean Motion:\n  value: 1\n",
			detail: `field "Mean Motion"`,
		},
		{
			name:   "positive infinity",
			data:   "Mean Motion: .inf\n",
			detail: `field "Mean Motion": value must be a finite number`,
		},
		{
			name:   "negative infinity",
			data:   "Relative Velocity km per sec: -.Inf\n",
			detail: `field "Relative Velocity km per sec": value must be a finite number`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Parse([]byte(tt.data))
			assert.Nil(t, raw)
			require.Error(t, err)
			assert.True(t, apperrors.IsCategory(err, apperrors.CategoryInvalidDocument))
			assert.Contains(t, err.Error(), tt.detail)
		})
	}
}
