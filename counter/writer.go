package counter

import "io"

// CounterWriter counts the bytes written to an underlying writer
type CounterWriter struct {
	tally
	writer io.Writer
}

// NewWriter returns a CounterWriter writing to writer. A nil writer
// discards everything, so only the count is kept.
func NewWriter(writer io.Writer) *CounterWriter {
	return NewWriterCallback(nil, writer)
}

// NewWriterCallback returns a CounterWriter that calls onWrite whenever
// bytes are written, with the running total
func NewWriterCallback(onWrite CountCallback, writer io.Writer) *CounterWriter {
	if writer == nil {
		writer = io.Discard
	}

	return &CounterWriter{
		tally:  tally{onCount: onWrite},
		writer: writer,
	}
}

func (w *CounterWriter) Write(buffer []byte) (int, error) {
	n, err := w.writer.Write(buffer)
	w.add(n)
	return n, err
}

// Close closes the underlying writer if it is an io.Closer
func (w *CounterWriter) Close() error {
	if c, ok := w.writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
