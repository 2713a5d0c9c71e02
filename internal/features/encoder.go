package features

import "sort"

// LabelEncoder assigns each distinct string its index in sorted order
type LabelEncoder struct {
	index map[string]int
}

// NewLabelEncoder fits an encoder on values
func NewLabelEncoder(values []string) *LabelEncoder {
	seen := make(map[string]bool, len(values))
	classes := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			classes = append(classes, v)
		}
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &LabelEncoder{index: index}
}

// Transform returns the code for v, or -1 when v was not seen during fitting
func (e *LabelEncoder) Transform(v string) int {
	if i, ok := e.index[v]; ok {
		return i
	}
	return -1
}
