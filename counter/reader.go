package counter

import "io"

// CounterReader counts the bytes read from an underlying reader
type CounterReader struct {
	tally
	reader io.Reader
}

// NewReader returns a CounterReader reading from reader
func NewReader(reader io.Reader) *CounterReader {
	return NewReaderCallback(nil, reader)
}

// NewReaderCallback returns a CounterReader that calls onRead whenever
// bytes are read, with the running total
func NewReaderCallback(onRead CountCallback, reader io.Reader) *CounterReader {
	return &CounterReader{
		tally:  tally{onCount: onRead},
		reader: reader,
	}
}

func (r *CounterReader) Read(buffer []byte) (int, error) {
	n, err := r.reader.Read(buffer)
	r.add(n)
	return n, err
}
