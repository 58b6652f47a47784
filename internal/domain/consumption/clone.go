package consumption

// Clone returns a deep copy of the reading, including its computed shares.
func (r Reading) Clone() Reading {
	out := r
	if r.CostShare != nil {
		v := *r.CostShare
		out.CostShare = &v
	}
	if r.PercentageShare != nil {
		v := *r.PercentageShare
		out.PercentageShare = &v
	}
	return out
}

// CloneReadings deep-copies a reading slice. A nil input yields an empty slice.
func CloneReadings(in []Reading) []Reading {
	out := make([]Reading, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// CloneGroups copies a group slice. A nil input yields an empty slice.
func CloneGroups(in []Group) []Group {
	out := make([]Group, len(in))
	copy(out, in)
	return out
}

// Clone returns a deep copy of the result.
func (r *CalculationResult) Clone() *CalculationResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Categories = make([]CategoryResult, len(r.Categories))
	for i, c := range r.Categories {
		c.Readings = CloneReadings(c.Readings)
		out.Categories[i] = c
	}
	out.Groups = CloneGroups(r.Groups)
	out.CompanyInfo = r.CompanyInfo.Clone()
	return &out
}

// Float returns a pointer to v. Handy for building readings with computed
// shares in tests and adapters.
func Float(v float64) *float64 {
	return &v
}
