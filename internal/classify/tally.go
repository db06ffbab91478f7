package classify

// Tally counts messages per category. It is zero-initialised over all
// categories so every category is reported even when nothing landed in it.
type Tally map[Category]int

// NewTally returns a tally with every category at zero.
func NewTally() Tally {
	t := make(Tally, len(Categories))
	for _, c := range Categories {
		t[c] = 0
	}
	return t
}

// Add counts one message. Unknown categories are counted as Uncategorized.
func (t Tally) Add(c Category) {
	if !c.Known() {
		c = CategoryUncategorized
	}
	t[c]++
}

// Count returns the number of messages in c.
func (t Tally) Count(c Category) int {
	return t[c]
}

// Total returns the number of messages counted.
func (t Tally) Total() int {
	n := 0
	for _, v := range t {
		n += v
	}
	return n
}
