package wsync

import "github.com/pkg/errors"

var (
	// ErrInvalidBlockSize is returned when a Context was created with a block size
	// that isn't strictly positive
	ErrInvalidBlockSize = errors.New("block size must be strictly positive")

	// ErrUnknownBlock is returned when applying an operation that refers
	// to a block the reference file doesn't have
	ErrUnknownBlock = errors.New("operation refers to a block past the end of the reference")

	// ErrUnknownOperation is returned when applying an operation of unknown type
	ErrUnknownOperation = errors.New("unknown sync operation type")
)
