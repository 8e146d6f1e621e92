package pwr

import (
	"io"

	"github.com/itchio/headway/state"
	"github.com/itchio/headway/united"
	"github.com/itchio/rdelta/counter"
	"github.com/itchio/rdelta/wire"
	"github.com/itchio/rdelta/wsync"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

// DiffContext holds the reference's signature and reports the outcome of a diff
type DiffContext struct {
	TargetSignature *SignatureInfo
	Consumer        *state.Consumer

	// MaxDataOp is the most fresh bytes a single DATA op carries. Longer
	// literals are split over several ops. Zero means wsync.MaxDataOp.
	MaxDataOp int

	// Stats is filled by WritePatch
	Stats DiffStats
}

// WritePatch computes the difference between the reference described by
// TargetSignature and source, and writes it as a patch to patchWriter.
// If patchWriter is nil, the patch is only measured.
func (dctx *DiffContext) WritePatch(patchWriter io.Writer, source []byte) error {
	if dctx.TargetSignature == nil {
		return errors.Wrap(ErrInputUnavailable, "diff needs a reference signature")
	}

	consumer := dctx.Consumer
	if consumer == nil {
		consumer = &state.Consumer{}
	}

	sigInfo := dctx.TargetSignature
	sctx, err := sigInfo.Settings.mksync()
	if err != nil {
		return err
	}

	cw := counter.NewWriter(patchWriter)
	wc := wire.NewWriteContext(cw)

	err = wc.WriteMagic(PatchMagic)
	if err != nil {
		return err
	}

	sourceHash := blake3.Sum256(source)
	err = wc.WriteMessage(&PatchHeader{
		BlockSize:  int64(sigInfo.Settings.BlockSize),
		StrongHash: sigInfo.Settings.StrongHash,
		SourceSize: int64(len(source)),
		SourceHash: sourceHash[:],
	})
	if err != nil {
		return err
	}

	maxDataOp := dctx.MaxDataOp
	if maxDataOp <= 0 {
		maxDataOp = wsync.MaxDataOp
	}

	library := wsync.NewBlockLibrary(sigInfo.Hashes)
	consumer.Debugf("Diffing %s against %d blocks", united.FormatBytes(int64(len(source))), library.Len())

	dctx.Stats = DiffStats{SourceSize: int64(len(source))}
	opsWriter := makeOpsWriter(wc, sctx, sigInfo.ReferenceSize, maxDataOp, &dctx.Stats, consumer)

	err = sctx.ComputeDiff(source, library, opsWriter)
	if err != nil {
		return errors.Wrap(err, "while computing diff")
	}

	err = wc.WriteMessage(&SyncOp{Type: SyncOp_HEY_YOU_DID_IT})
	if err != nil {
		return err
	}

	dctx.Stats.PatchSize = cw.Count()
	consumer.Infof("Diff: %s", dctx.Stats)
	return nil
}

func makeOpsWriter(wc *wire.WriteContext, sctx *wsync.Context, referenceSize int64, maxDataOp int, stats *DiffStats, consumer *state.Consumer) wsync.OperationWriter {
	wop := &SyncOp{}
	blockSize64 := int64(sctx.BlockSize())
	covered := int64(0)

	return func(op wsync.Operation) error {
		var opSize int64
		switch op.Type {
		case wsync.OpBlock:
			opSize = ComputeBlockSize(referenceSize, blockSize64, op.BlockIndex)
		case wsync.OpData:
			opSize = int64(len(op.Data))
		default:
			return errors.Errorf("unknown rsync op type: %d", op.Type)
		}

		stats.record(op, opSize)
		covered += opSize
		if stats.SourceSize > 0 {
			consumer.Progress(float64(covered) / float64(stats.SourceSize))
		}

		if op.Type == wsync.OpBlock {
			wop.Reset()
			wop.Type = SyncOp_BLOCK
			wop.BlockIndex = op.BlockIndex
			return wc.WriteMessage(wop)
		}

		// one literal may span several DATA ops on the wire
		data := op.Data
		for len(data) > 0 {
			chunk := min(len(data), maxDataOp)

			wop.Reset()
			wop.Type = SyncOp_DATA
			wop.Data = data[:chunk]
			err := wc.WriteMessage(wop)
			if err != nil {
				return err
			}
			data = data[chunk:]
		}
		return nil
	}
}
