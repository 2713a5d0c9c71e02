// Package analysis turns a parsed asteroid document into a hazard prediction
// with an explanation of the features that drove it.
package analysis

import (
	"context"

	"github.com/ZanzyTHEbar/hacs-api/internal/document"
	apperrors "github.com/ZanzyTHEbar/hacs-api/internal/errors"
	"github.com/ZanzyTHEbar/hacs-api/internal/features"
	"github.com/ZanzyTHEbar/hacs-api/internal/model"
	"github.com/ZanzyTHEbar/hacs-api/internal/types"
)

// Analyzer orchestrates the full prediction pipeline
type Analyzer struct {
	store *model.Store
	topN  int
}

// NewAnalyzer creates an analyzer reporting topN influential features
func NewAnalyzer(store *model.Store, topN int) *Analyzer {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Analyzer{store: store, topN: topN}
}

// Ready reports whether the model artifacts are loaded
func (a *Analyzer) Ready() bool {
	return a.store.Ready()
}

// FeatureCount returns the number of model features, or 0 while degraded
func (a *Analyzer) FeatureCount() int {
	return a.store.FeatureCount()
}

// AnalyzeDocument parses YAML bytes and runs the pipeline
func (a *Analyzer) AnalyzeDocument(ctx context.Context, data []byte) (*Prediction, error) {
	raw, err := document.Parse(data)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, raw)
}

// Analyze runs extraction, scoring and explanation on a parsed document
func (a *Analyzer) Analyze(ctx context.Context, raw types.RawInput) (*Prediction, error) {
	artifacts, err := a.store.Artifacts()
	if err != nil {
		return nil, err
	}

	row, err := features.NewExtractor(artifacts.FeatureNames).Extract(raw)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("Prediction cancelled", err)
	}

	scaled, result, err := Score(artifacts, row)
	if err != nil {
		return nil, err
	}

	explanation := Explain(
		artifacts.FeatureNames,
		artifacts.Classifier.FeatureImportances(),
		scaled,
		row,
		result,
		a.topN,
	)

	return &Prediction{Result: result, Explanation: explanation}, nil
}

// Features returns the model-ordered feature row for a parsed document
func (a *Analyzer) Features(raw types.RawInput) (*features.FeatureRow, error) {
	artifacts, err := a.store.Artifacts()
	if err != nil {
		return nil, err
	}
	return features.NewExtractor(artifacts.FeatureNames).Extract(raw)
}

// Response maps a prediction to the public response body
func (p *Prediction) Response() PredictionResponse {
	ranked := p.Explanation.Features
	if ranked == nil {
		ranked = []InfluentialFeature{}
	}

	return PredictionResponse{
		Classification: Classification(p.Result.Label),
		IsHazardous:    p.Result.Label,
		Confidence: ConfidenceBody{
			HazardProbability:           p.Result.HazardProbability,
			HazardProbabilityPercent:    percent(p.Result.HazardProbability),
			NonHazardProbability:        p.Result.NonHazardProbability,
			NonHazardProbabilityPercent: percent(p.Result.NonHazardProbability),
		},
		Interpretability: InterpretabilityBody{
			ConfidenceLevel: p.Explanation.Confidence.ConfidenceLevel,
			ConfidenceScore: p.Explanation.Confidence.ConfidenceScore,
			TopFeatures:     ranked,
			Summary:         p.Explanation.Summary,
		},
	}
}
