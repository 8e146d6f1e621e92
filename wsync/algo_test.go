package wsync

import (
	"bytes"
	"fmt"
	"math"
	"testing"

	"github.com/itchio/rdelta/wtest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// constantHasher gives every input the same digest, so that only weak
// hashes and block sizes tell blocks apart
type constantHasher struct{}

func (constantHasher) Write(p []byte) (int, error) { return len(p), nil }
func (constantHasher) Sum(b []byte) []byte         { return append(b, bytes.Repeat([]byte{0x42}, 16)...) }
func (constantHasher) Reset()                      {}
func (constantHasher) Size() int                   { return 16 }
func (constantHasher) BlockSize() int              { return 64 }

func computeOps(t *testing.T, ctx *Context, reference []byte, source []byte) []Operation {
	t.Helper()

	hashes, err := ctx.ComputeSignature(reference)
	wtest.Must(t, err)

	var ops []Operation
	err = ctx.ComputeDiff(source, NewBlockLibrary(hashes), func(op Operation) error {
		if op.Type == OpData {
			data := make([]byte, len(op.Data))
			copy(data, op.Data)
			op.Data = data
		}
		ops = append(ops, op)
		return nil
	})
	wtest.Must(t, err)
	return ops
}

func applyOps(t *testing.T, ctx *Context, reference []byte, ops []Operation) []byte {
	t.Helper()

	opsChan := make(chan Operation, len(ops))
	for _, op := range ops {
		opsChan <- op
	}
	close(opsChan)

	result := new(bytes.Buffer)
	wtest.Must(t, ctx.ApplyRecipe(result, bytes.NewReader(reference), opsChan))
	return result.Bytes()
}

func block(i int64) Operation {
	return Operation{Type: OpBlock, BlockIndex: i}
}

func data(s string) Operation {
	return Operation{Type: OpData, Data: []byte(s)}
}

func Test_DiffScenarios(t *testing.T) {
	scenarios := []struct {
		name      string
		blockSize int
		reference string
		source    string
		ops       []Operation
	}{
		{"identical", 4, "ABCDEFGH", "ABCDEFGH", []Operation{block(0), block(1)}},
		{"one byte inserted", 4, "ABCDEFGH", "XABCDEFGH", []Operation{data("X"), block(0), block(1)}},
		{"empty reference", 4, "", "hello", []Operation{data("hello")}},
		{"empty source", 4, "ABCDEFGH", "", nil},
		{"both empty", 4, "", "", nil},
		{"short source matches short block", 4, "ABCDEF", "EF", []Operation{block(1)}},
		{"short source", 4, "ABCDEFGH", "AB", []Operation{data("AB")}},
		{"short tail after roll", 4, "ABCDEF", "ZABCDEF", []Operation{data("Z"), block(0), block(1)}},
		{"window ends at end of source", 4, "ABCD", "XABCD", []Operation{data("X"), block(0)}},
		{"literal between blocks", 4, "ABCDEFGH", "ABCDxyzEFGH", []Operation{block(0), data("xyz"), block(1)}},
		{"reordered blocks", 4, "ABCDEFGH", "EFGHABCD", []Operation{block(1), block(0)}},
		{"repeated block", 4, "ABCDEFGH", "ABCDABCDABCD", []Operation{block(0), block(0), block(0)}},
		{"duplicate reference blocks", 4, "ABCDABCD", "ABCD", []Operation{block(0)}},
		{"trailing literal", 4, "ABCDEFGH", "ABCDEFGHij", []Operation{block(0), block(1), data("ij")}},
		{"no match at all", 4, "ABCDEFGH", "zyxwvutsrq", []Operation{data("zyxwvutsrq")}},
	}

	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			ctx := NewContext(s.blockSize)
			ops := computeOps(t, ctx, []byte(s.reference), []byte(s.source))
			assert.Equal(t, s.ops, ops)
			assert.Equal(t, s.source, string(applyOps(t, ctx, []byte(s.reference), ops)))
		})
	}
}

func Test_DiffLengthSafety(t *testing.T) {
	// every block has the same strong hash, and zero-filled windows of any
	// length have a weak hash of 0: only the recorded size can tell them apart.
	ctx := NewContextWithHasher(4, constantHasher{})

	reference := make([]byte, 4)
	source := make([]byte, 2)

	ops := computeOps(t, ctx, reference, source)
	assert.Equal(t, []Operation{{Type: OpData, Data: []byte{0, 0}}}, ops)

	// a full-size window does match
	source = make([]byte, 6)
	ops = computeOps(t, ctx, reference, source)
	assert.Equal(t, []Operation{block(0), {Type: OpData, Data: []byte{0, 0}}}, ops)
}

func Test_DiffFirstCandidateWins(t *testing.T) {
	ctx := NewContextWithHasher(2, constantHasher{})

	// blocks 0 and 2 share a weak hash and, here, a strong hash
	reference := []byte("ABCDAB")
	ops := computeOps(t, ctx, reference, []byte("AB"))
	assert.Equal(t, []Operation{block(0)}, ops)
}

type pair struct {
	description string
	reference   []byte
	source      []byte
}

func Test_DiffReconstructs(t *testing.T) {
	bs := wtest.BlockSize
	base := wtest.RandomData(t, 0x42, bs*64+7)
	other := wtest.RandomData(t, 0x2345, bs*64+7)

	pairs := []pair{
		{"same content", base, base},
		{"slightly different content", base, wtest.Alter(base, wtest.Bsmod{Interval: bs*5 + 3, Delta: 0x4})},
		{"very different content", base, other},
		{"source shorter, same content", base, base[:bs*20+3]},
		{"source longer, same content", base[:bs*20+3], base},
		{"bytes inserted", base, wtest.Insert(base, bs*10+1, []byte("hello there"))},
		{"bytes removed", base, append(append([]byte{}, base[:bs*3+2]...), base[bs*9:]...)},
		{"reference empty", nil, base},
		{"source empty", base, nil},
		{"both smaller than a block", base[:bs-3], other[:bs-5]},
	}

	for _, blockSize := range []int{1, 3, bs, 64} {
		for _, p := range pairs {
			t.Run(fmt.Sprintf("%s-bs%d", p.description, blockSize), func(t *testing.T) {
				ctx := NewContext(blockSize)
				ops := computeOps(t, ctx, p.reference, p.source)

				var blockCt, dataCt, dataLen int
				for i, op := range ops {
					switch op.Type {
					case OpBlock:
						blockCt++
					case OpData:
						dataCt++
						dataLen += len(op.Data)
						assert.NotEmpty(t, op.Data)
						if i > 0 {
							assert.NotEqual(t, OpData, ops[i-1].Type, "adjacent data ops at %d", i)
						}
					}
				}
				t.Logf("Block Ops:%5d, Data Ops: %5d, Data Len: %5d", blockCt, dataCt, dataLen)

				result := applyOps(t, ctx, p.reference, ops)
				assert.Equal(t, len(p.source), len(result))
				assert.True(t, bytes.Equal(p.source, result), "result differs from source")
			})
		}
	}
}

func Test_DiffIdenticalFiles(t *testing.T) {
	ctx := NewContext(wtest.BlockSize)
	reference := wtest.RandomData(t, 0xd00d, wtest.BlockSize*33+5)

	ops := computeOps(t, ctx, reference, reference)
	assert.Len(t, ops, 34)
	for i, op := range ops {
		assert.Equal(t, block(int64(i)), op)
	}
}

func Test_DiffWriterError(t *testing.T) {
	ctx := NewContext(4)
	hashes, err := ctx.ComputeSignature([]byte("ABCDEFGH"))
	wtest.Must(t, err)

	boom := errors.New("boom")
	err = ctx.ComputeDiff([]byte("XABCDEFGH"), NewBlockLibrary(hashes), func(op Operation) error {
		return boom
	})
	assert.Equal(t, boom, errors.Cause(err))
}

func Test_ApplierUnknownBlock(t *testing.T) {
	ctx := NewContext(4)
	applier, err := ctx.NewApplier(new(bytes.Buffer), bytes.NewReader([]byte("ABCDEF")))
	wtest.Must(t, err)

	wtest.Must(t, applier.Apply(block(1)))

	err = applier.Apply(block(2))
	assert.Equal(t, ErrUnknownBlock, errors.Cause(err))

	err = applier.Apply(block(-1))
	assert.Equal(t, ErrUnknownBlock, errors.Cause(err))

	err = applier.Apply(Operation{Type: OpType(9)})
	assert.Equal(t, ErrUnknownOperation, errors.Cause(err))
}

func Test_ApplierHugeBlockIndex(t *testing.T) {
	ctx := NewContext(4)
	out := new(bytes.Buffer)
	applier, err := ctx.NewApplier(out, bytes.NewReader([]byte("ABCDEF")))
	wtest.Must(t, err)

	// 4 * 2^62 wraps around to offset 0
	err = applier.Apply(block(1 << 62))
	assert.Equal(t, ErrUnknownBlock, errors.Cause(err))

	err = applier.Apply(block(math.MaxInt64 / 4))
	assert.Equal(t, ErrUnknownBlock, errors.Cause(err))

	assert.Equal(t, 0, out.Len())
}

func Test_ApplierCachesBlocks(t *testing.T) {
	ctx := NewContext(4)
	reference := bytes.NewReader([]byte("ABCDEFGH"))
	out := new(bytes.Buffer)

	applier, err := ctx.NewApplier(out, reference)
	wtest.Must(t, err)

	for i := 0; i < 3; i++ {
		wtest.Must(t, applier.Apply(block(1)))
	}
	wtest.Must(t, applier.Apply(data("!")))
	wtest.Must(t, applier.Apply(block(0)))
	assert.Equal(t, "EFGHEFGHEFGH!ABCD", out.String())
	assert.Equal(t, 2, applier.cache.Len())
}
