package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Artifact file names inside the model directory
const (
	ClassifierFile   = "classifier.json"
	ScalerFile       = "scaler.json"
	FeatureNamesFile = "feature_names.json"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Artifacts is the immutable model bundle shared by all requests
type Artifacts struct {
	Classifier   Classifier
	Scaler       *Scaler
	FeatureNames []string
}

// Width returns the number of model features
func (a *Artifacts) Width() int {
	return len(a.FeatureNames)
}

type featureNameList struct {
	Names []string `validate:"required,min=1,unique,dive,required"`
}

// LoadArtifacts reads and cross-checks the three artifact files in dir
func LoadArtifacts(dir string) (*Artifacts, error) {
	var names []string
	if err := readJSON(filepath.Join(dir, FeatureNamesFile), &names); err != nil {
		return nil, err
	}
	if err := validate.Struct(featureNameList{Names: names}); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", FeatureNamesFile, err)
	}

	var scaler Scaler
	if err := readJSON(filepath.Join(dir, ScalerFile), &scaler); err != nil {
		return nil, err
	}
	if err := validate.Struct(&scaler); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ScalerFile, err)
	}
	if err := scaler.check(len(names)); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ScalerFile, err)
	}

	var ensemble Ensemble
	if err := readJSON(filepath.Join(dir, ClassifierFile), &ensemble); err != nil {
		return nil, err
	}
	if err := validate.Struct(&ensemble); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ClassifierFile, err)
	}
	if err := ensemble.check(len(names)); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ClassifierFile, err)
	}

	return &Artifacts{
		Classifier:   &ensemble,
		Scaler:       &scaler,
		FeatureNames: names,
	}, nil
}

func readJSON(path string, v interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open model artifact: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteArtifacts stores a model bundle in dir using the layout LoadArtifacts reads
func WriteArtifacts(dir string, ensemble *Ensemble, scaler *Scaler, names []string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	files := map[string]interface{}{
		ClassifierFile:   ensemble,
		ScalerFile:       scaler,
		FeatureNamesFile: names,
	}
	for name, v := range files {
		file, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", name, err)
		}

		encoder := json.NewEncoder(file)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			file.Close()
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}
