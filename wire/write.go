package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"

	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
)

// WriteContext writes magic numbers and length-prefixed protobuf messages
type WriteContext struct {
	writer io.Writer

	lenBuf []byte
}

// NewWriteContext returns a WriteContext that writes to writer
func NewWriteContext(writer io.Writer) *WriteContext {
	return &WriteContext{writer, make([]byte, binary.MaxVarintLen64)}
}

// WriteMagic writes a 4-byte magic number
func (w *WriteContext) WriteMagic(magic int32) error {
	return errors.WithStack(binary.Write(w.writer, ENDIANNESS, magic))
}

// WriteMessage writes msg prefixed with its uvarint-encoded length
func (w *WriteContext) WriteMessage(msg proto.Message) error {
	if DEBUG_WIRE {
		fmt.Printf("<< %s %+v\n", reflect.TypeOf(msg).Elem().Name(), msg)
	}

	buf, err := proto.Marshal(msg)
	if err != nil {
		return errors.WithStack(err)
	}

	n := binary.PutUvarint(w.lenBuf, uint64(len(buf)))
	_, err = w.writer.Write(w.lenBuf[:n])
	if err != nil {
		return errors.WithStack(err)
	}

	_, err = w.writer.Write(buf)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}
