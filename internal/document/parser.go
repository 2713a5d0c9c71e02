// Package document turns an uploaded YAML file into a RawInput.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/ZanzyTHEbar/hacs-api/internal/errors"
	"github.com/ZanzyTHEbar/hacs-api/internal/types"
	"gopkg.in/yaml.v3"
)

// AllowedExtensions are the filename suffixes accepted for upload
var AllowedExtensions = []string{".yaml", ".yml"}

// HasYAMLExtension reports whether filename ends in an accepted suffix (case-insensitive)
func HasYAMLExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Parse decodes a YAML mapping and keeps only the vocabulary fields. Unknown keys
// are ignored; vocabulary fields missing from the document are stored as nil.
func Parse(data []byte) (types.RawInput, error) {
	var doc map[string]interface{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewInvalidDocumentError("document is empty", err)
		}
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return nil, apperrors.NewInvalidDocumentError("document must be a mapping of field names to values", err)
		}
		return nil, apperrors.NewInvalidDocumentError(err.Error(), err)
	}
	if doc == nil {
		return nil, apperrors.NewInvalidDocumentError("document is empty", nil)
	}

	raw := make(types.RawInput, len(types.Vocabulary))
	for _, field := range types.Vocabulary {
		value, err := normalize(doc[field])
		if err != nil {
			return nil, apperrors.NewInvalidDocumentError(fmt.Sprintf("field %q: %v", field, err), err)
		}
		raw[field] = value
	}

	return raw, nil
}

// normalize narrows YAML scalars to float64, string or nil. NaN counts as null
// and infinities are rejected.
func normalize(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case float64:
		if math.IsNaN(val) {
			return nil, nil
		}
		if math.IsInf(val, 0) {
			return nil, fmt.Errorf("value must be a finite number")
		}
		return val, nil
	case bool:
		if val {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		return val, nil
	case time.Time:
		return val.Format(time.RFC3339Nano), nil
	default:
		return nil, fmt.Errorf("expected a scalar value, got %T", v)
	}
}
