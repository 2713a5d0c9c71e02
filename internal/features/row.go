package features

// FeatureRow is an insertion-ordered mapping from feature name to value
type FeatureRow struct {
	names  []string
	values map[string]float64
}

// NewFeatureRow creates an empty row
func NewFeatureRow() *FeatureRow {
	return &FeatureRow{values: make(map[string]float64)}
}

// Set stores a value; a new name is appended to the order
func (r *FeatureRow) Set(name string, value float64) {
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = value
}

// Get returns the value for name and whether it is present
func (r *FeatureRow) Get(name string) (float64, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Has reports whether name is present
func (r *FeatureRow) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Names returns a copy of the feature names in order
func (r *FeatureRow) Names() []string {
	return append([]string(nil), r.names...)
}

// Values returns the values in name order
func (r *FeatureRow) Values() []float64 {
	out := make([]float64, len(r.names))
	for i, n := range r.names {
		out[i] = r.values[n]
	}
	return out
}

// Len returns the number of features
func (r *FeatureRow) Len() int {
	return len(r.names)
}

// Reindex selects exactly the given names in that order. It returns the names
// that are absent from the row when the selection cannot be made.
func (r *FeatureRow) Reindex(names []string) (*FeatureRow, []string) {
	var missing []string
	out := &FeatureRow{
		names:  make([]string, 0, len(names)),
		values: make(map[string]float64, len(names)),
	}
	for _, n := range names {
		if !r.Has(n) {
			missing = append(missing, n)
			continue
		}
		out.Set(n, r.values[n])
	}
	if len(missing) > 0 {
		return nil, missing
	}
	return out, nil
}
