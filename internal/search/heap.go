package search

// frontier is a min-heap of visitors keyed by their next event instant.
// Keying on the next event alone is sufficient: a visitor's emitted
// journeys can only arrive at or after its next event, so the pop order
// bounds every improvement still possible.
type frontier []visitor

func (f frontier) Len() int            { return len(f) }
func (f frontier) Less(i, j int) bool  { return f[i].nextEvent() < f[j].nextEvent() }
func (f frontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x interface{}) { *f = append(*f, x.(visitor)) }

func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	v := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return v
}
