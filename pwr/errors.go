package pwr

import (
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrConfiguration is returned when settings are invalid, for example a
	// block size that isn't strictly positive or an unknown strong hash
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInputUnavailable is returned when a reference, source, signature or patch
	// couldn't be read
	ErrInputUnavailable = errors.New("input unavailable")

	// ErrCorruptPatch is returned when a patch stream is malformed or truncated
	ErrCorruptPatch = errors.New("corrupt patch")

	// ErrCorruptSignature is returned when a signature stream is malformed
	ErrCorruptSignature = errors.New("corrupt signature")

	// ErrIntegrity is returned when the result of applying a patch doesn't
	// match the size or hash recorded in the patch
	ErrIntegrity = errors.New("reconstructed file does not match patch")

	// ErrBlockMismatch is returned when a reference doesn't match its signature
	ErrBlockMismatch = errors.New("reference does not match signature")
)

// failReader remembers the first error its reader returned, other than io.EOF,
// so that decoding errors can be told apart from I/O errors.
type failReader struct {
	reader io.Reader
	err    error
}

func (fr *failReader) Read(p []byte) (int, error) {
	n, err := fr.reader.Read(p)
	if err != nil && err != io.EOF && fr.err == nil {
		fr.err = err
	}
	return n, err
}

// wrap returns ErrInputUnavailable if reading failed, and corrupt otherwise
func (fr *failReader) wrap(err error, corrupt error) error {
	if fr.err != nil {
		return errors.Wrap(ErrInputUnavailable, fr.err.Error())
	}
	return errors.Wrap(corrupt, err.Error())
}
