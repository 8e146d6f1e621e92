package wire

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ENDIANNESS is the byte order of magic numbers
var ENDIANNESS = binary.LittleEndian

// DEBUG_WIRE prints every message read or written when set
var DEBUG_WIRE = false

// MaxMessageSize is the largest message a ReadContext accepts. It guards
// against allocating absurd amounts of memory when reading garbage.
const MaxMessageSize = 256 * 1024 * 1024

var (
	// ErrInvalidMagic is returned when a stream doesn't start with the expected magic number
	ErrInvalidMagic = errors.New("invalid magic number")

	// ErrMessageTooLarge is returned when a message length prefix exceeds MaxMessageSize
	ErrMessageTooLarge = errors.New("message too large")
)
