package model

import "fmt"

// Scaler standardizes columns as (x - mean) / scale
type Scaler struct {
	Mean  []float64 `json:"mean" validate:"required,min=1"`
	Scale []float64 `json:"scale" validate:"required,min=1"`
}

func (s *Scaler) check(width int) error {
	if len(s.Mean) != width || len(s.Scale) != width {
		return fmt.Errorf("scaler has %d means and %d scales, expected %d", len(s.Mean), len(s.Scale), width)
	}
	return nil
}

// Transform returns the standardized copy of x. A zero scale leaves the centered value unscaled.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("scaler expects %d values, got %d", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}
