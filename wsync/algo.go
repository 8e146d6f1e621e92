// Based on code from: https://bitbucket.org/kardianos/rsync/
// Original algorithm: http://www.samba.org/~tridge/phd_thesis.pdf
//
// Definitions
//   Reference: The content the receiver already has.
//   Source: The final content, to be rebuilt from the reference.
//   Signature: The sequence of hashes used to identify the reference's blocks.
package wsync

import (
	"io"
	"math"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// DefaultBlockCacheSize is the number of reference blocks an Applier keeps around
const DefaultBlockCacheSize = 256

type scanMode int

const (
	// the next weak hash must be computed over the whole window
	modeFresh scanMode = iota
	// the next weak hash can be rolled from lastWeak
	modeRolling
)

// matchState is the scan state threaded through ComputeDiff iterations
type matchState struct {
	cursor   int
	mode     scanMode
	lastWeak uint32

	// unmatched bytes are always source[literalStart:cursor]
	literalStart int
}

// ComputeDiff scans source once and writes the operations needed to rebuild
// it from the reference described by library. Consecutive unmatched bytes are
// always sent as a single OpData, whose Data aliases source.
func (ctx *Context) ComputeDiff(source []byte, library *BlockLibrary, ops OperationWriter) error {
	err := ctx.check()
	if err != nil {
		return err
	}

	blockSize := ctx.blockSize
	st := &matchState{mode: modeFresh}

	flushLiteral := func() error {
		if st.literalStart == st.cursor {
			return nil
		}
		err := ops(Operation{Type: OpData, Data: source[st.literalStart:st.cursor]})
		st.literalStart = st.cursor
		return err
	}

	for st.cursor < len(source) {
		remaining := len(source) - st.cursor
		testLen := min(blockSize, remaining)

		var weak uint32
		// modeRolling is only ever set after the cursor moved past a byte,
		// so source[st.cursor-1] is always valid here.
		if st.mode == modeRolling && remaining >= blockSize {
			weak = RollWeakHash(st.lastWeak, source[st.cursor-1], source[st.cursor+blockSize-1], blockSize)
		} else {
			weak = WeakHash(source[st.cursor : st.cursor+testLen])
		}
		st.lastWeak = weak

		var blockHash *BlockHash
		if hh, ok := library.Lookup(weak); ok {
			blockHash = ctx.findUniqueHash(hh, source[st.cursor:st.cursor+testLen])
		}

		if blockHash != nil {
			err = flushLiteral()
			if err != nil {
				return err
			}

			err = ops(Operation{Type: OpBlock, BlockIndex: blockHash.BlockIndex})
			if err != nil {
				return err
			}

			st.cursor += testLen
			st.literalStart = st.cursor
			st.mode = modeFresh
		} else {
			st.cursor++
			st.mode = modeRolling
		}
	}

	return flushLiteral()
}

// Applier rebuilds a source file from a reference and a stream of operations.
type Applier struct {
	blockSize int
	output    io.Writer
	reference io.ReadSeeker

	buffer []byte
	cache  *lru.Cache
}

// NewApplier returns an Applier writing to output. Blocks are read from
// reference as they're needed and kept in a small cache.
func (ctx *Context) NewApplier(output io.Writer, reference io.ReadSeeker) (*Applier, error) {
	err := ctx.check()
	if err != nil {
		return nil, err
	}

	cache, err := lru.New(DefaultBlockCacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &Applier{
		blockSize: ctx.blockSize,
		output:    output,
		reference: reference,
		buffer:    make([]byte, ctx.blockSize),
		cache:     cache,
	}, nil
}

// Apply writes the bytes described by a single operation to the output.
func (a *Applier) Apply(op Operation) error {
	switch op.Type {
	case OpBlock:
		block, err := a.readBlock(op.BlockIndex)
		if err != nil {
			return err
		}
		_, err = a.output.Write(block)
		return errors.WithStack(err)
	case OpData:
		_, err := a.output.Write(op.Data)
		return errors.WithStack(err)
	default:
		return errors.Wrapf(ErrUnknownOperation, "op type %d", op.Type)
	}
}

func (a *Applier) readBlock(blockIndex int64) ([]byte, error) {
	if blockIndex < 0 || blockIndex > math.MaxInt64/int64(a.blockSize) {
		return nil, errors.Wrapf(ErrUnknownBlock, "block %d", blockIndex)
	}

	if cached, ok := a.cache.Get(blockIndex); ok {
		return cached.([]byte), nil
	}

	_, err := a.reference.Seek(int64(a.blockSize)*blockIndex, io.SeekStart)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	n, err := io.ReadAtLeast(a.reference, a.buffer, a.blockSize)
	if err != nil {
		// UnexpectedEOF is actually expected, since we want to copy short
		// blocks at the end of files. Other errors aren't expected.
		if err == io.EOF {
			return nil, errors.Wrapf(ErrUnknownBlock, "block %d", blockIndex)
		}
		if err != io.ErrUnexpectedEOF {
			return nil, errors.WithStack(err)
		}
	}

	block := make([]byte, n)
	copy(block, a.buffer[:n])
	a.cache.Add(blockIndex, block)
	return block, nil
}

// ApplyRecipe applies every operation received on ops, in order. If it
// returns an error, it stops receiving from ops.
func (ctx *Context) ApplyRecipe(output io.Writer, reference io.ReadSeeker, ops <-chan Operation) error {
	applier, err := ctx.NewApplier(output, reference)
	if err != nil {
		return err
	}

	for op := range ops {
		err = applier.Apply(op)
		if err != nil {
			return err
		}
	}
	return nil
}
