package pwr

import "github.com/itchio/rdelta/wsync"

// SignatureInfo describes a reference file: the settings it was hashed
// with, its size, and one hash per block.
type SignatureInfo struct {
	Settings      Settings
	ReferenceSize int64
	Hashes        []wsync.BlockHash
}

// ComputeNumBlocks returns the number of blocks a file of the given size is split into
func ComputeNumBlocks(fileSize int64, blockSize int64) int64 {
	return (fileSize + blockSize - 1) / blockSize
}

// ComputeBlockSize returns the size of one of the blocks of a file,
// which is blockSize for all but possibly the last one.
func ComputeBlockSize(fileSize int64, blockSize int64, blockIndex int64) int64 {
	if blockSize*(blockIndex+1) > fileSize {
		return fileSize % blockSize
	}
	return blockSize
}
