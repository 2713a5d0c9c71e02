package analysis

import (
	"fmt"
	"math"

	apperrors "github.com/ZanzyTHEbar/hacs-api/internal/errors"
	"github.com/ZanzyTHEbar/hacs-api/internal/features"
	"github.com/ZanzyTHEbar/hacs-api/internal/model"
)

// Score standardizes the row and runs the classifier. The row must already be
// reindexed to the artifacts' feature list.
func Score(artifacts *model.Artifacts, row *features.FeatureRow) ([]float64, PredictionResult, error) {
	scaled, err := artifacts.Scaler.Transform(row.Values())
	if err != nil {
		return nil, PredictionResult{}, apperrors.NewInternalError("scaler rejected feature row", err)
	}
	for i, v := range scaled {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, PredictionResult{}, apperrors.NewInvalidDocumentError(
				fmt.Sprintf("feature %q is out of range for the model", artifacts.FeatureNames[i]), nil)
		}
	}

	proba := artifacts.Classifier.PredictProba(scaled)
	label := artifacts.Classifier.Predict(scaled) == 1
	if math.IsNaN(proba[1]) {
		return nil, PredictionResult{}, apperrors.NewInternalError("classifier produced NaN probability", nil)
	}

	hazard := clip(proba[1], 0, 1)
	return scaled, PredictionResult{
		Label:                label,
		HazardProbability:    hazard,
		NonHazardProbability: 1 - hazard,
		Margin:               artifacts.Classifier.DecisionMargin(scaled),
	}, nil
}

// percent renders a probability as a two-decimal percentage
func percent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
