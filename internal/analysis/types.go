package analysis

// Impact directions
const (
	Increases = "INCREASES"
	Decreases = "DECREASES"
)

// Confidence levels
const (
	ConfidenceLow      = "LOW"
	ConfidenceModerate = "MODERATE"
	ConfidenceHigh     = "HIGH"
	ConfidenceVeryHigh = "VERY HIGH"
)

// PredictionResult is the classifier output for one row
type PredictionResult struct {
	Label                bool
	HazardProbability    float64
	NonHazardProbability float64
	Margin               float64
}

// Contribution is one feature's signed share of the margin
type Contribution struct {
	Score       float64
	ScaledValue float64
}

type InfluentialFeature struct {
	Feature           string  `json:"feature"`
	ActualValue       float64 `json:"actual_value"`
	ContributionScore float64 `json:"contribution_score"`
	ImpactDirection   string  `json:"impact_direction"`
	Explanation       string  `json:"explanation"`
}

type ConfidenceMetrics struct {
	ConfidenceScore float64 `json:"confidence_score"`
	ConfidenceLevel string  `json:"confidence_level"`
}

// Explanation holds the interpretability part of a prediction
type Explanation struct {
	Contributions map[string]Contribution
	Features      []InfluentialFeature
	Confidence    ConfidenceMetrics
	Summary       string
}

// Prediction is the full pipeline result for one document
type Prediction struct {
	Result      PredictionResult
	Explanation Explanation
}

// Response DTOs for POST /predict

type ConfidenceBody struct {
	HazardProbability           float64 `json:"hazard_probability"`
	HazardProbabilityPercent    string  `json:"hazard_probability_percent"`
	NonHazardProbability        float64 `json:"non_hazard_probability"`
	NonHazardProbabilityPercent string  `json:"non_hazard_probability_percent"`
}

type InterpretabilityBody struct {
	ConfidenceLevel string               `json:"confidence_level"`
	ConfidenceScore float64              `json:"confidence_score"`
	TopFeatures     []InfluentialFeature `json:"top_5_influential_features"`
	Summary         string               `json:"summary"`
}

type PredictionResponse struct {
	Classification   string               `json:"classification"`
	IsHazardous      bool                 `json:"is_hazardous"`
	Confidence       ConfidenceBody       `json:"confidence"`
	Interpretability InterpretabilityBody `json:"interpretability"`
}
