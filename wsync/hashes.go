package wsync

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"hash"
	"io"

	"github.com/pkg/errors"
)

// NewContext returns a sync context that uses MD5 as the strong hash.
func NewContext(blockSize int) *Context {
	return NewContextWithHasher(blockSize, md5.New())
}

// NewContextWithHasher returns a sync context that confirms weak hash
// matches with the given hasher. Both the signature and the diff must be
// computed with the same block size and the same kind of hasher.
func NewContextWithHasher(blockSize int, uniqueHasher hash.Hash) *Context {
	return &Context{
		blockSize:    blockSize,
		uniqueHasher: uniqueHasher,
	}
}

// BlockSize returns the block size this context partitions files with
func (ctx *Context) BlockSize() int {
	return ctx.blockSize
}

func (ctx *Context) check() error {
	if ctx.blockSize <= 0 {
		return errors.WithStack(ErrInvalidBlockSize)
	}
	return nil
}

func (ctx *Context) splitFunc(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if len(data) >= ctx.blockSize {
		return ctx.blockSize, data[:ctx.blockSize], nil
	}

	if atEOF {
		if len(data) > 0 {
			return len(data), data, nil
		}
		return 0, nil, io.EOF
	}

	// wait for more data
	return 0, nil, nil
}

// CreateSignature splits the reference into blocks and writes one
// BlockHash per block, in block order. An empty reader yields no hashes.
func (ctx *Context) CreateSignature(fileReader io.Reader, writeHash SignatureWriter) error {
	err := ctx.check()
	if err != nil {
		return err
	}

	s := bufio.NewScanner(fileReader)
	maxTokenSize := bufio.MaxScanTokenSize
	if ctx.blockSize > maxTokenSize {
		maxTokenSize = ctx.blockSize
	}
	s.Buffer(make([]byte, 0, ctx.blockSize), maxTokenSize)
	s.Split(ctx.splitFunc)

	blockIndex := int64(0)

	for s.Scan() {
		block := s.Bytes()
		weakHash, strongHash := ctx.HashBlock(block)

		err = writeHash(BlockHash{
			BlockIndex: blockIndex,
			Size:       int64(len(block)),
			WeakHash:   weakHash,
			StrongHash: strongHash,
		})
		if err != nil {
			return err
		}
		blockIndex++
	}

	return errors.WithStack(s.Err())
}

// ComputeSignature returns the block hashes of an in-memory reference.
func (ctx *Context) ComputeSignature(reference []byte) ([]BlockHash, error) {
	var hashes []BlockHash
	err := ctx.CreateSignature(bytes.NewReader(reference), func(bh BlockHash) error {
		hashes = append(hashes, bh)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hashes, nil
}

// HashBlock returns the weak and strong hashes of a single block
func (ctx *Context) HashBlock(block []byte) (weakHash uint32, strongHash []byte) {
	return WeakHash(block), ctx.uniqueHash(block)
}

// Use a more unique way to identify a set of bytes.
func (ctx *Context) uniqueHash(v []byte) []byte {
	ctx.uniqueHasher.Reset()
	ctx.uniqueHasher.Write(v)
	return ctx.uniqueHasher.Sum(nil)
}

// Searches for a given strong hash among all strong hashes in this bucket.
// Only blocks of exactly the tested size are considered: equal digests over
// different lengths are not a match.
func (ctx *Context) findUniqueHash(hh []BlockHash, window []byte) *BlockHash {
	size := int64(len(window))

	var hashValue []byte
	for i := range hh {
		block := &hh[i]
		if block.Size != size {
			continue
		}

		if hashValue == nil {
			hashValue = ctx.uniqueHash(window)
		}
		if bytes.Equal(block.StrongHash, hashValue) {
			return block
		}
	}
	return nil
}

// WeakHash is an rsync-style checksum made of two 16-bit sums:
// a, the sum of all bytes, and b, the sum of each byte weighted by
// its distance to the end of the block. It returns a + b<<16.
func WeakHash(block []byte) uint32 {
	var a, b uint32
	n := uint32(len(block))
	for i, val := range block {
		a += uint32(val)
		b += (n - uint32(i)) * uint32(val)
	}
	return (a % _M) + _M*(b%_M)
}

// RollWeakHash slides a window of n bytes one byte to the right: out is
// the byte leaving the window and in the byte entering it. The result is
// equal to WeakHash over the shifted window.
func RollWeakHash(sum uint32, out byte, in byte, n int) uint32 {
	a := sum % _M
	b := sum / _M

	a = (a - uint32(out) + uint32(in)) % _M
	b = (b - uint32(n)*uint32(out) + a) % _M
	return a + _M*b
}
