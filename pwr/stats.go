package pwr

import (
	"fmt"

	"github.com/itchio/headway/united"
	"github.com/itchio/rdelta/wsync"
)

// DiffStats sums up the operations of a diff
type DiffStats struct {
	SourceSize int64

	BlockOps    int64
	DataOps     int64
	ReusedBytes int64
	FreshBytes  int64

	// PatchSize is the size of the encoded patch, zero if none was written
	PatchSize int64
}

func (ds *DiffStats) record(op wsync.Operation, blockSize int64) {
	switch op.Type {
	case wsync.OpBlock:
		ds.BlockOps++
		ds.ReusedBytes += blockSize
	case wsync.OpData:
		ds.DataOps++
		ds.FreshBytes += int64(len(op.Data))
	}
}

// InstructionSize estimates the size of the instruction stream in a
// compact encoding: a 5-byte header per instruction, plus literal bytes
func (ds DiffStats) InstructionSize() int64 {
	return sizeOfInstruction*(ds.BlockOps+ds.DataOps) + ds.FreshBytes
}

// Ratio is the instruction size relative to the source size
func (ds DiffStats) Ratio() float64 {
	if ds.SourceSize == 0 {
		return 0
	}
	return float64(ds.InstructionSize()) / float64(ds.SourceSize)
}

func (ds DiffStats) String() string {
	s := fmt.Sprintf("%d block ops (%s reused), %d data ops (%s fresh), instructions take %s (%.2f%% of %s)",
		ds.BlockOps, united.FormatBytes(ds.ReusedBytes),
		ds.DataOps, united.FormatBytes(ds.FreshBytes),
		united.FormatBytes(ds.InstructionSize()), ds.Ratio()*100.0, united.FormatBytes(ds.SourceSize))
	if ds.PatchSize > 0 {
		s += fmt.Sprintf(", patch is %s", united.FormatBytes(ds.PatchSize))
	}
	return s
}
