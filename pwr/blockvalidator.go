package pwr

import (
	"bytes"
	"io"

	"github.com/itchio/headway/state"
	"github.com/itchio/headway/united"
	"github.com/itchio/rdelta/counter"
	"github.com/itchio/rdelta/wsync"
	"github.com/pkg/errors"
)

// A BlockValidator checks reference blocks against a signature
type BlockValidator interface {
	BlockSize(blockIndex int64) int64
	ValidateAsError(blockIndex int64, data []byte) error
}

type blockValidator struct {
	sigInfo *SignatureInfo
	sctx    *wsync.Context
}

var _ BlockValidator = (*blockValidator)(nil)

// NewBlockValidator returns a validator for the reference described by sigInfo
func NewBlockValidator(sigInfo *SignatureInfo) (BlockValidator, error) {
	sctx, err := sigInfo.Settings.mksync()
	if err != nil {
		return nil, err
	}

	return &blockValidator{
		sigInfo: sigInfo,
		sctx:    sctx,
	}, nil
}

func (bv *blockValidator) BlockSize(blockIndex int64) int64 {
	return ComputeBlockSize(bv.sigInfo.ReferenceSize, int64(bv.sigInfo.Settings.BlockSize), blockIndex)
}

func (bv *blockValidator) ValidateAsError(blockIndex int64, data []byte) error {
	hashes := bv.sigInfo.Hashes

	if blockIndex >= int64(len(hashes)) {
		return errors.Wrapf(ErrBlockMismatch, "too large (%d blocks, tried to look up hash %d)", len(hashes), blockIndex)
	}

	bh := hashes[blockIndex]

	if bh.Size != int64(len(data)) {
		return errors.Wrapf(ErrBlockMismatch, "at block %d, expected %d bytes, got %d", blockIndex, bh.Size, len(data))
	}

	weakHash, strongHash := bv.sctx.HashBlock(data)

	if bh.WeakHash != weakHash {
		return errors.Wrapf(ErrBlockMismatch, "at block %d, expected weak hash %x, got %x", blockIndex, bh.WeakHash, weakHash)
	}

	if !bytes.Equal(bh.StrongHash, strongHash) {
		return errors.Wrapf(ErrBlockMismatch, "at block %d, expected strong hash %x, got %x", blockIndex, bh.StrongHash, strongHash)
	}

	return nil
}

// ValidateReference checks that reference is exactly the file sigInfo was
// computed from. Patches made against sigInfo can only be applied to such a file.
func ValidateReference(reference io.Reader, sigInfo *SignatureInfo, consumer *state.Consumer) error {
	if consumer == nil {
		consumer = &state.Consumer{}
	}

	bv, err := NewBlockValidator(sigInfo)
	if err != nil {
		return err
	}

	onRead := func(count int64) {
		if sigInfo.ReferenceSize > 0 {
			consumer.Progress(min(1.0, float64(count)/float64(sigInfo.ReferenceSize)))
		}
	}
	cr := counter.NewReaderCallback(onRead, reference)

	buf := make([]byte, sigInfo.Settings.BlockSize)
	numBlocks := int64(0)

	for {
		n, readErr := io.ReadFull(cr, buf)
		if readErr == io.EOF {
			break
		}
		if readErr != nil && readErr != io.ErrUnexpectedEOF {
			return errors.Wrap(ErrInputUnavailable, readErr.Error())
		}

		err = bv.ValidateAsError(numBlocks, buf[:n])
		if err != nil {
			return err
		}
		numBlocks++

		if readErr == io.ErrUnexpectedEOF {
			break
		}
	}

	if numBlocks != int64(len(sigInfo.Hashes)) {
		return errors.Wrapf(ErrBlockMismatch, "reference has %d blocks, signature has %d", numBlocks, len(sigInfo.Hashes))
	}

	consumer.Infof("Reference matches its signature (%d blocks, %s)", numBlocks, united.FormatBytes(cr.Count()))
	return nil
}
