package pwr

import (
	"bytes"
	"io"

	"github.com/itchio/headway/state"
	"github.com/itchio/headway/united"
	"github.com/itchio/rdelta/counter"
	"github.com/itchio/rdelta/wire"
	"github.com/itchio/rdelta/wsync"
	"github.com/itchio/savior"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

// ApplyContext rebuilds a source file from a reference and a patch
type ApplyContext struct {
	Consumer *state.Consumer

	// set by ApplyPatch
	Header       *PatchHeader
	BytesWritten int64
}

// ApplyPatch reads a patch from the start of patchReader, and writes the
// source it describes to output, copying blocks from reference as needed.
// The output is checked against the size and hash recorded in the patch.
func (actx *ApplyContext) ApplyPatch(patchReader savior.SeekSource, reference io.ReadSeeker, output io.Writer) error {
	consumer := actx.Consumer
	if consumer == nil {
		consumer = &state.Consumer{}
	}

	startOffset, err := patchReader.Resume(nil)
	if err != nil {
		return errors.Wrap(ErrInputUnavailable, err.Error())
	}

	if startOffset != 0 {
		return errors.Wrapf(ErrInputUnavailable, "expected patch to resume at 0, got %d", startOffset)
	}

	fr := &failReader{reader: patchReader}
	rctx := wire.NewReadContext(fr)

	err = rctx.ExpectMagic(PatchMagic)
	if err != nil {
		return fr.wrap(err, ErrCorruptPatch)
	}

	header := &PatchHeader{}
	err = rctx.ReadMessage(header)
	if err != nil {
		return fr.wrap(err, ErrCorruptPatch)
	}
	actx.Header = header

	settings := Settings{
		BlockSize:  int(header.BlockSize),
		StrongHash: header.StrongHash,
	}
	sctx, err := settings.mksync()
	if err != nil {
		return errors.Wrap(ErrCorruptPatch, err.Error())
	}

	consumer.Debugf("Patch: %s source, %s blocks, %s strong hash",
		united.FormatBytes(header.SourceSize), united.FormatBytes(header.BlockSize), header.StrongHash)

	hasher := blake3.New()
	onWrite := func(count int64) {
		if header.SourceSize > 0 {
			consumer.Progress(float64(count) / float64(header.SourceSize))
		}
	}
	cw := counter.NewWriterCallback(onWrite, io.MultiWriter(output, hasher))

	applier, err := sctx.NewApplier(cw, reference)
	if err != nil {
		return err
	}

	rop := &SyncOp{}
	for {
		err = rctx.ReadMessage(rop)
		if err != nil {
			if err == io.EOF {
				return errors.Wrap(ErrCorruptPatch, "patch ended before its last operation")
			}
			return fr.wrap(err, ErrCorruptPatch)
		}

		var op wsync.Operation
		switch rop.Type {
		case SyncOp_BLOCK:
			op = wsync.Operation{Type: wsync.OpBlock, BlockIndex: rop.BlockIndex}
		case SyncOp_DATA:
			op = wsync.Operation{Type: wsync.OpData, Data: rop.Data}
		case SyncOp_HEY_YOU_DID_IT:
			actx.BytesWritten = cw.Count()
			return checkIntegrity(header, cw.Count(), hasher.Sum(nil))
		default:
			return errors.Wrapf(ErrCorruptPatch, "unknown sync op type %d", rop.Type)
		}

		err = applier.Apply(op)
		if err != nil {
			if errors.Cause(err) == wsync.ErrUnknownBlock {
				return errors.Wrap(ErrCorruptPatch, err.Error())
			}
			return err
		}
	}
}

func checkIntegrity(header *PatchHeader, size int64, hash []byte) error {
	if size != header.SourceSize {
		return errors.Wrapf(ErrIntegrity, "expected %d bytes, wrote %d", header.SourceSize, size)
	}

	if !bytes.Equal(hash, header.SourceHash) {
		return errors.Wrapf(ErrIntegrity, "expected hash %x, got %x", header.SourceHash, hash)
	}

	return nil
}
