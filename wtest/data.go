package wtest

import (
	"io"
	"math/rand"
	"testing"

	"github.com/itchio/randsource"
)

// BlockSize is a small block size that makes tests exercise many blocks
// without needing large inputs
const BlockSize = 16

// RandomData returns size pseudo-random bytes. The same seed always
// gives the same bytes.
func RandomData(t testing.TB, seed int64, size int) []byte {
	t.Helper()

	prng := randsource.Reader{
		Source: rand.New(rand.NewSource(seed)),
	}

	data := make([]byte, size)
	_, err := io.ReadFull(&prng, data)
	Must(t, err)
	return data
}

// Bsmod describes a regular alteration of a file: every Interval bytes,
// Delta is added to the byte at that position
type Bsmod struct {
	Interval int
	Delta    byte
}

// Alter returns a copy of data with mod applied
func Alter(data []byte, mod Bsmod) []byte {
	res := make([]byte, len(data))
	copy(res, data)
	if mod.Interval <= 0 {
		return res
	}

	for i := mod.Interval; i < len(res); i += mod.Interval {
		res[i] += mod.Delta
	}
	return res
}

// Insert returns a copy of data with extra inserted at offset
func Insert(data []byte, offset int, extra []byte) []byte {
	res := make([]byte, 0, len(data)+len(extra))
	res = append(res, data[:offset]...)
	res = append(res, extra...)
	res = append(res, data[offset:]...)
	return res
}
