package binding

// Composite chains several factories that all matched the same source type,
// trying each in priority order until one produces a non-nil detail. It
// carries no state beyond the ordered candidate list; the registry constructs
// a fresh composite for every resolution that yields multiple matches.
type Composite struct {
	candidates []Factory
}

var _ Factory = (*Composite)(nil)

// NewComposite creates a composite over the given candidates. The order of
// the arguments is the order in which candidates are tried.
func NewComposite(candidates ...Factory) *Composite {
	return &Composite{candidates: candidates}
}

// Produce tries each candidate in order and returns the first non-nil detail.
// Later candidates are never invoked once a result is found. If every
// candidate declines, Produce returns nil: the factories were found and
// tried, but none applied to this particular source value. That outcome is
// distinct from resolution failing with NoFactoryFoundError and is not an
// error here.
func (c *Composite) Produce(source any) any {
	for _, candidate := range c.candidates {
		if details := normalize(candidate.Produce(source)); details != nil {
			return details
		}
	}
	return nil
}

// Candidates returns a copy of the candidate list in try order.
func (c *Composite) Candidates() []Factory {
	out := make([]Factory, len(c.candidates))
	copy(out, c.candidates)
	return out
}
