package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/hacs-api/internal/features"
	"github.com/ZanzyTHEbar/hacs-api/internal/types"
)

// DefaultTopN is the number of influential features reported when none is configured
const DefaultTopN = 5

type explanationTemplate struct {
	increase string
	decrease string
}

// explanationTemplates are formatted with the feature's actual value
var explanationTemplates = map[string]explanationTemplate{
	types.FieldMissDistAstronomical: {
		increase: "Close approach distance of %.4f AU significantly increases collision risk",
		decrease: "Safe miss distance of %.4f AU reduces hazard potential",
	},
	types.FieldDiameter: {
		increase: "Large diameter of %.3f km indicates significant impact potential",
		decrease: "Small diameter of %.3f km limits potential impact damage",
	},
	types.FieldRelativeVelocityKmPerSec: {
		increase: "High relative velocity of %.2f km/s increases potential impact energy",
		decrease: "Moderate relative velocity of %.2f km/s reduces impact energy",
	},
	types.FieldOrbitUncertainity: {
		increase: "Orbit uncertainty level %.0f suggests a less predictable trajectory",
		decrease: "Low orbit uncertainty (%.0f) indicates a well-determined trajectory",
	},
	types.FieldOrbitalPeriod: {
		increase: "Orbital period of %.1f days brings frequent Earth approaches",
		decrease: "Orbital period of %.1f days keeps approaches infrequent",
	},
}

// explain renders the sentence for one feature
func explain(feature string, value float64, direction string) string {
	if tmpl, ok := explanationTemplates[feature]; ok {
		if direction == Increases {
			return fmt.Sprintf(tmpl.increase, value)
		}
		return fmt.Sprintf(tmpl.decrease, value)
	}

	verb := "decreases"
	if direction == Increases {
		verb = "increases"
	}
	return fmt.Sprintf("%s value of %.4g %s hazard likelihood", feature, value, verb)
}

// Contributions weights each scaled value by the feature's importance, then
// rescales so the absolute contributions add up to the absolute margin. Signs
// are kept. Nothing is rescaled when every contribution is zero or the total
// is not finite.
func Contributions(names []string, importances, scaled []float64, margin float64) map[string]Contribution {
	out := make(map[string]Contribution, len(names))
	total := 0.0
	for i, name := range names {
		c := importances[i] * scaled[i]
		out[name] = Contribution{Score: c, ScaledValue: scaled[i]}
		total += math.Abs(c)
	}

	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return out
	}

	factor := math.Abs(margin) / total
	for name, c := range out {
		c.Score *= factor
		out[name] = c
	}
	return out
}

// RankFeatures returns the topN features by absolute contribution. Ties keep
// the model's feature order.
func RankFeatures(names []string, contributions map[string]Contribution, row *features.FeatureRow, topN int) []InfluentialFeature {
	if topN <= 0 {
		topN = DefaultTopN
	}

	order := append([]string(nil), names...)
	sort.SliceStable(order, func(i, j int) bool {
		return math.Abs(contributions[order[i]].Score) > math.Abs(contributions[order[j]].Score)
	})
	if len(order) > topN {
		order = order[:topN]
	}

	ranked := make([]InfluentialFeature, 0, len(order))
	for _, name := range order {
		c := contributions[name]

		direction := Decreases
		if c.Score > 0 {
			direction = Increases
		}

		value := c.ScaledValue
		if row != nil {
			if actual, ok := row.Get(name); ok {
				value = actual
			}
		}

		ranked = append(ranked, InfluentialFeature{
			Feature:           name,
			ActualValue:       value,
			ContributionScore: math.Abs(c.Score),
			ImpactDirection:   direction,
			Explanation:       explain(name, value, direction),
		})
	}
	return ranked
}

// Confidence measures how far the hazard probability sits from the decision boundary
func Confidence(hazardProbability float64) ConfidenceMetrics {
	score := clip(math.Abs(hazardProbability-0.5)*2, 0, 1)

	level := ConfidenceLow
	switch {
	case score > 0.8:
		level = ConfidenceVeryHigh
	case score > 0.6:
		level = ConfidenceHigh
	case score > 0.4:
		level = ConfidenceModerate
	}

	return ConfidenceMetrics{ConfidenceScore: score, ConfidenceLevel: level}
}

// Classification returns the label text for a prediction
func Classification(hazardous bool) string {
	if hazardous {
		return "HAZARDOUS"
	}
	return "NON-HAZARDOUS"
}

// Summarize renders the headline and the numbered list of influential features
func Summarize(result PredictionResult, ranked []InfluentialFeature) string {
	p := result.NonHazardProbability
	if result.Label {
		p = result.HazardProbability
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Classification: %s (%.1f%% confidence)", Classification(result.Label), p*100)
	if len(ranked) == 0 {
		return b.String()
	}

	b.WriteString("\n\nKey factors:")
	for i, f := range ranked {
		marker := "↓"
		if f.ImpactDirection == Increases {
			marker = "↑"
		}
		fmt.Fprintf(&b, "\n%d. %s %s: %s", i+1, marker, f.Feature, f.Explanation)
	}
	return b.String()
}

// Explain builds contributions, the ranked features, confidence and summary for one prediction
func Explain(names []string, importances, scaled []float64, row *features.FeatureRow, result PredictionResult, topN int) Explanation {
	contributions := Contributions(names, importances, scaled, result.Margin)
	ranked := RankFeatures(names, contributions, row, topN)

	return Explanation{
		Contributions: contributions,
		Features:      ranked,
		Confidence:    Confidence(result.HazardProbability),
		Summary:       Summarize(result, ranked),
	}
}
