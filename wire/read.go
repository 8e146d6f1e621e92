package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"

	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
)

// ReadContext reads magic numbers and length-prefixed protobuf messages
type ReadContext struct {
	reader io.Reader

	byteBuffer []byte
	msgBuf     []byte
}

// NewReadContext returns a ReadContext that reads from reader
func NewReadContext(reader io.Reader) *ReadContext {
	return &ReadContext{reader, make([]byte, 1), make([]byte, 32)}
}

// ReadByte reads a single byte, so that a ReadContext is an io.ByteReader
func (r *ReadContext) ReadByte() (byte, error) {
	_, err := io.ReadFull(r.reader, r.byteBuffer)
	if err != nil {
		return 0, err
	}

	return r.byteBuffer[0], nil
}

// ExpectMagic reads a 4-byte magic number and errors out if it isn't magic
func (r *ReadContext) ExpectMagic(magic int32) error {
	var readMagic int32
	err := binary.Read(r.reader, ENDIANNESS, &readMagic)
	if err != nil {
		return errors.WithStack(err)
	}

	if magic != readMagic {
		return errors.Wrapf(ErrInvalidMagic, "expected magic %x, but read %x", magic, readMagic)
	}

	return nil
}

// ReadMessage reads a length-prefixed message into msg. It returns
// io.EOF, unwrapped, if the stream ends cleanly before a message.
func (r *ReadContext) ReadMessage(msg proto.Message) error {
	length, err := binary.ReadUvarint(r)
	if err != nil {
		if err == io.EOF {
			return err
		}
		return errors.WithStack(err)
	}

	if length > MaxMessageSize {
		return errors.Wrapf(ErrMessageTooLarge, "%d bytes", length)
	}

	if uint64(cap(r.msgBuf)) < length {
		r.msgBuf = make([]byte, length)
	}

	_, err = io.ReadFull(r.reader, r.msgBuf[:length])
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return errors.WithStack(err)
	}

	err = proto.Unmarshal(r.msgBuf[:length], msg)
	if err != nil {
		return errors.WithStack(err)
	}

	if DEBUG_WIRE {
		fmt.Printf(">> %s %+v\n", reflect.TypeOf(msg).Elem().Name(), msg)
	}

	return nil
}
