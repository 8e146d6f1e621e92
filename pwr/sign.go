package pwr

import (
	"io"

	"github.com/itchio/headway/state"
	"github.com/itchio/headway/united"
	"github.com/itchio/rdelta/counter"
	"github.com/itchio/rdelta/wire"
	"github.com/itchio/rdelta/wsync"
	"github.com/pkg/errors"
)

// ComputeSignature hashes every block of the reference
func ComputeSignature(reference io.Reader, settings Settings, consumer *state.Consumer) (*SignatureInfo, error) {
	sigInfo := &SignatureInfo{
		Settings: settings,
		Hashes:   make([]wsync.BlockHash, 0),
	}

	err := ComputeSignatureToWriter(reference, settings, consumer, func(bh wsync.BlockHash) error {
		sigInfo.Hashes = append(sigInfo.Hashes, bh)
		sigInfo.ReferenceSize += bh.Size
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sigInfo, nil
}

// ComputeSignatureToWriter hashes every block of the reference and passes
// block hashes to sigWriter as they're computed
func ComputeSignatureToWriter(reference io.Reader, settings Settings, consumer *state.Consumer, sigWriter wsync.SignatureWriter) error {
	sctx, err := settings.mksync()
	if err != nil {
		return err
	}

	if consumer == nil {
		consumer = &state.Consumer{}
	}

	cr := counter.NewReader(reference)
	err = sctx.CreateSignature(cr, func(bh wsync.BlockHash) error {
		consumer.Debugf("id:%d len:%d weak:%d", bh.BlockIndex, bh.Size, bh.WeakHash)
		return sigWriter(bh)
	})
	if err != nil {
		return errors.Wrap(err, "while computing signature")
	}

	consumer.Infof("Hashed %s in %s blocks", united.FormatBytes(cr.Count()), united.FormatBytes(int64(settings.BlockSize)))
	return nil
}

// WriteSignature writes a signature file: magic, header, then one
// BlockHash message per block
func WriteSignature(signatureWriter io.Writer, sigInfo *SignatureInfo) error {
	wc := wire.NewWriteContext(signatureWriter)

	err := wc.WriteMagic(SignatureMagic)
	if err != nil {
		return err
	}

	err = wc.WriteMessage(&SignatureHeader{
		BlockSize:     int64(sigInfo.Settings.BlockSize),
		StrongHash:    sigInfo.Settings.StrongHash,
		ReferenceSize: sigInfo.ReferenceSize,
	})
	if err != nil {
		return err
	}

	hash := &BlockHash{}
	for _, bh := range sigInfo.Hashes {
		hash.Reset()
		hash.WeakHash = bh.WeakHash
		hash.StrongHash = bh.StrongHash
		hash.Size = bh.Size

		err = wc.WriteMessage(hash)
		if err != nil {
			return err
		}
	}

	return nil
}

// ReadSignature reads a signature file written by WriteSignature
func ReadSignature(signatureReader io.Reader) (*SignatureInfo, error) {
	fr := &failReader{reader: signatureReader}
	rc := wire.NewReadContext(fr)
	err := rc.ExpectMagic(SignatureMagic)
	if err != nil {
		return nil, fr.wrap(err, ErrCorruptSignature)
	}

	header := &SignatureHeader{}
	err = rc.ReadMessage(header)
	if err != nil {
		return nil, fr.wrap(err, ErrCorruptSignature)
	}

	if header.ReferenceSize < 0 {
		return nil, errors.Wrapf(ErrCorruptSignature, "negative reference size %d", header.ReferenceSize)
	}

	settings := Settings{
		BlockSize:  int(header.BlockSize),
		StrongHash: header.StrongHash,
	}
	err = settings.Validate()
	if err != nil {
		return nil, errors.Wrap(ErrCorruptSignature, err.Error())
	}

	sigInfo := &SignatureInfo{
		Settings:      settings,
		ReferenceSize: header.ReferenceSize,
		Hashes:        make([]wsync.BlockHash, 0),
	}

	blockSize64 := int64(settings.BlockSize)
	numBlocks := ComputeNumBlocks(header.ReferenceSize, blockSize64)
	hash := &BlockHash{}

	for blockIndex := int64(0); ; blockIndex++ {
		err = rc.ReadMessage(hash)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fr.wrap(err, ErrCorruptSignature)
		}

		expectedSize := ComputeBlockSize(header.ReferenceSize, blockSize64, blockIndex)
		if blockIndex >= numBlocks || hash.Size != expectedSize {
			return nil, errors.Wrapf(ErrCorruptSignature, "block %d: expected size %d, got %d", blockIndex, expectedSize, hash.Size)
		}

		sigInfo.Hashes = append(sigInfo.Hashes, wsync.BlockHash{
			BlockIndex: blockIndex,
			Size:       hash.Size,
			WeakHash:   hash.WeakHash,
			StrongHash: append([]byte(nil), hash.StrongHash...),
		})
	}

	if int64(len(sigInfo.Hashes)) != numBlocks {
		return nil, errors.Wrapf(ErrCorruptSignature, "expected %d hashes, got %d", numBlocks, len(sigInfo.Hashes))
	}

	return sigInfo, nil
}
