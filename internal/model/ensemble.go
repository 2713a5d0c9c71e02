// Package model loads the trained classifier, the fitted scaler and the ordered
// feature list, and evaluates the classifier on standardized rows.
package model

import (
	"fmt"
	"math"
)

// Classifier is the binary hazard model
type Classifier interface {
	// Predict returns 1 for hazardous and 0 otherwise
	Predict(x []float64) int
	// PredictProba returns [P(non-hazardous), P(hazardous)]
	PredictProba(x []float64) [2]float64
	// DecisionMargin returns the raw log-odds before the sigmoid
	DecisionMargin(x []float64) float64
	// FeatureImportances returns one importance per input column
	FeatureImportances() []float64
}

// Node is one entry of a tree. Internal nodes route x[Feature] < Threshold to Left.
type Node struct {
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
	Feature   int     `json:"feature" validate:"gte=0"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left" validate:"gte=0"`
	Right     int     `json:"right" validate:"gte=0"`
	// DefaultLeft routes NaN inputs
	DefaultLeft bool `json:"default_left"`
}

// Tree is a flat node list rooted at index 0
type Tree struct {
	Nodes []Node `json:"nodes" validate:"required,min=1,dive"`
}

// Ensemble is a gradient-boosted tree model whose output is the sum of leaf
// values plus a base margin, passed through a sigmoid.
type Ensemble struct {
	BaseMargin  float64   `json:"base_margin"`
	Trees       []Tree    `json:"trees" validate:"required,min=1,dive"`
	Importances []float64 `json:"feature_importances" validate:"required,min=1,dive,gte=0"`
}

// check verifies every tree terminates and only reads columns below width
func (e *Ensemble) check(width int) error {
	if len(e.Importances) != width {
		return fmt.Errorf("classifier has %d feature importances, expected %d", len(e.Importances), width)
	}
	for ti, tree := range e.Trees {
		for ni, node := range tree.Nodes {
			if node.Leaf {
				continue
			}
			if node.Feature >= width {
				return fmt.Errorf("tree %d node %d reads feature %d of %d", ti, ni, node.Feature, width)
			}
			// children must follow their parent so evaluation cannot loop
			for _, child := range []int{node.Left, node.Right} {
				if child <= ni || child >= len(tree.Nodes) {
					return fmt.Errorf("tree %d node %d has invalid child %d", ti, ni, child)
				}
			}
		}
	}
	return nil
}

func (t *Tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		v := x[n.Feature]
		switch {
		case math.IsNaN(v):
			if n.DefaultLeft {
				i = n.Left
			} else {
				i = n.Right
			}
		case v < n.Threshold:
			i = n.Left
		default:
			i = n.Right
		}
	}
}

// DecisionMargin sums the base margin and every tree's leaf value
func (e *Ensemble) DecisionMargin(x []float64) float64 {
	margin := e.BaseMargin
	for i := range e.Trees {
		margin += e.Trees[i].eval(x)
	}
	return margin
}

// PredictProba returns [P(non-hazardous), P(hazardous)]
func (e *Ensemble) PredictProba(x []float64) [2]float64 {
	p := sigmoid(e.DecisionMargin(x))
	return [2]float64{1 - p, p}
}

// Predict thresholds the hazardous probability at 0.5
func (e *Ensemble) Predict(x []float64) int {
	if e.PredictProba(x)[1] > 0.5 {
		return 1
	}
	return 0
}

// FeatureImportances returns a copy of the per-column importances
func (e *Ensemble) FeatureImportances() []float64 {
	return append([]float64(nil), e.Importances...)
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
