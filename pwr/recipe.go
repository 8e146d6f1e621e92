package pwr

import (
	"bytes"

	"github.com/itchio/headway/state"
	"github.com/itchio/rdelta/wsync"
	"github.com/pkg/errors"
)

// Recipe is the in-memory list of operations that rebuilds a source from a reference
type Recipe struct {
	Ops   []wsync.Operation
	Stats DiffStats

	// Signature is the reference's signature, computed along the way
	Signature *SignatureInfo
}

// ComputeRecipe indexes reference then scans source against it. Data
// operations in the result are copies and don't alias source.
func ComputeRecipe(reference []byte, source []byte, settings Settings, consumer *state.Consumer) (*Recipe, error) {
	sigInfo, err := ComputeSignature(bytes.NewReader(reference), settings, consumer)
	if err != nil {
		return nil, err
	}

	sctx, err := settings.mksync()
	if err != nil {
		return nil, err
	}

	recipe := &Recipe{
		Stats:     DiffStats{SourceSize: int64(len(source))},
		Signature: sigInfo,
	}
	blockSize64 := int64(settings.BlockSize)

	err = sctx.ComputeDiff(source, wsync.NewBlockLibrary(sigInfo.Hashes), func(op wsync.Operation) error {
		if op.Type == wsync.OpData {
			op.Data = append([]byte(nil), op.Data...)
		}
		recipe.Stats.record(op, ComputeBlockSize(sigInfo.ReferenceSize, blockSize64, op.BlockIndex))
		recipe.Ops = append(recipe.Ops, op)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "while computing recipe")
	}

	return recipe, nil
}

// Apply rebuilds the source from the reference
func (r *Recipe) Apply(reference []byte, settings Settings) ([]byte, error) {
	sctx, err := settings.mksync()
	if err != nil {
		return nil, err
	}

	ops := make(chan wsync.Operation)
	done := make(chan struct{})
	go func() {
		defer close(ops)
		for _, op := range r.Ops {
			select {
			case ops <- op:
			case <-done:
				return
			}
		}
	}()

	result := new(bytes.Buffer)
	err = sctx.ApplyRecipe(result, bytes.NewReader(reference), ops)
	close(done)
	if err != nil {
		return nil, err
	}
	return result.Bytes(), nil
}
