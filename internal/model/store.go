package model

import (
	"log/slog"

	apperrors "github.com/ZanzyTHEbar/hacs-api/internal/errors"
)

// Store holds the artifacts loaded at startup. A store whose load failed stays
// degraded for the life of the process.
type Store struct {
	dir       string
	artifacts *Artifacts
	loadErr   error
}

// NewStore loads the artifacts from dir. Load failures are logged and kept.
func NewStore(dir string) *Store {
	artifacts, err := LoadArtifacts(dir)
	if err != nil {
		slog.Error("Failed to load model artifacts, serving in degraded mode", "dir", dir, "error", err)
		return &Store{dir: dir, loadErr: err}
	}

	slog.Info("Model artifacts loaded", "dir", dir, "features", artifacts.Width())
	return &Store{dir: dir, artifacts: artifacts}
}

// NewStaticStore wraps already loaded artifacts
func NewStaticStore(artifacts *Artifacts) *Store {
	return &Store{artifacts: artifacts}
}

// Ready reports whether predictions can be served
func (s *Store) Ready() bool {
	return s.artifacts != nil
}

// Artifacts returns the loaded bundle or a ModelUnavailableError
func (s *Store) Artifacts() (*Artifacts, error) {
	if s.artifacts == nil {
		return nil, apperrors.NewModelUnavailableError(s.loadErr)
	}
	return s.artifacts, nil
}

// FeatureCount returns the model width, or 0 while degraded
func (s *Store) FeatureCount() int {
	if s.artifacts == nil {
		return 0
	}
	return s.artifacts.Width()
}

// LoadErr returns the startup load failure, if any
func (s *Store) LoadErr() error {
	return s.loadErr
}

// Dir returns the directory the store was loaded from
func (s *Store) Dir() string {
	return s.dir
}
