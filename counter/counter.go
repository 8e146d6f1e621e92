// Package counter wraps readers and writers to keep track of how many
// bytes went through them.
package counter

// CountCallback is called with the total number of bytes counted so far
type CountCallback func(count int64)

// tally is shared by readers and writers. The callback only fires when
// bytes actually went through.
type tally struct {
	count   int64
	onCount CountCallback
}

func (t *tally) add(n int) {
	if n <= 0 {
		return
	}

	t.count += int64(n)
	if t.onCount != nil {
		t.onCount(t.count)
	}
}

// Count returns the number of bytes counted so far
func (t *tally) Count() int64 {
	return t.count
}
