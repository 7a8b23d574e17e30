package planner

// Candidate is one discovered input and where it would go. Candidates are
// recomputed every run and never persisted.
type Candidate struct {
	Input  string // absolute path of the enumerated input
	Ext    string // lowercase container extension without the dot
	Rel    string // Input relative to the input root
	Output string // re-rooted (and possibly re-extensioned) output path

	// PlanErr is set when no output path could be computed; Rel and Output
	// are empty in that case.
	PlanErr error
}

// Planned reports whether an output path was computed.
func (c Candidate) Planned() bool { return c.PlanErr == nil }
