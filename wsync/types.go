package wsync

import "hash"

// Internal constant used in rolling checksum.
const _M = 1 << 16

// MaxDataOp is the largest chunk of fresh data a single encoded operation
// should carry. ComputeDiff itself doesn't split literals.
const MaxDataOp = (4 * 1024 * 1024)

// An OpType describes the type of a sync operation
type OpType byte

const (
	// OpBlock is a type of operation where a block of bytes is copied
	// from the reference file into the file we're reconstructing
	OpBlock OpType = iota

	// OpData is a type of operation where fresh bytes are pasted into
	// the file we're reconstructing, because we weren't able to re-use
	// data from the reference file
	OpData
)

func (t OpType) String() string {
	switch t {
	case OpBlock:
		return "block"
	case OpData:
		return "data"
	default:
		return "unknown"
	}
}

// Operation describes a step required to rebuild the source from the reference.
// For OpBlock, the length of the copied span is the length recorded for that
// block in the signature.
type Operation struct {
	Type       OpType
	BlockIndex int64
	Data       []byte
}

// An OperationWriter consumes sync operations and does whatever it wants with them
type OperationWriter func(op Operation) error

// BlockHash is a signature hash item generated from the reference file.
type BlockHash struct {
	BlockIndex int64

	// Size is the length of the block, equal to the block size
	// except for the last block of a file
	Size int64

	WeakHash   uint32
	StrongHash []byte
}

// A SignatureWriter consumes block hashes and does whatever it wants with them
type SignatureWriter func(hash BlockHash) error

// Context holds the state during a sync operation
type Context struct {
	blockSize    int
	uniqueHasher hash.Hash
}

// BlockLibrary stores a signature in a form that's easy to look up
// by weak hash. Entries sharing a weak hash are kept in block order.
type BlockLibrary struct {
	hashLookup map[uint32][]BlockHash
	numHashes  int
}
