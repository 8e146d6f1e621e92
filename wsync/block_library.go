package wsync

// NewBlockLibrary indexes a signature by weak hash.
func NewBlockLibrary(hashes []BlockHash) *BlockLibrary {
	// A single β-hash may correlate with many unique hashes.
	hashLookup := make(map[uint32][]BlockHash)

	for _, hash := range hashes {
		key := hash.WeakHash
		hashLookup[key] = append(hashLookup[key], hash)
	}

	return &BlockLibrary{
		hashLookup: hashLookup,
		numHashes:  len(hashes),
	}
}

// Len returns the number of blocks in the library
func (bl *BlockLibrary) Len() int {
	return bl.numHashes
}

// Lookup returns all blocks sharing the given weak hash, in block order
func (bl *BlockLibrary) Lookup(weakHash uint32) ([]BlockHash, bool) {
	hh, ok := bl.hashLookup[weakHash]
	return hh, ok
}
