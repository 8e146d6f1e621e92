package pwr

const (
	// PatchMagic is the magic number for patch files (.rdp)
	PatchMagic = int32(iota + 0xFEF5F00)

	// SignatureMagic is the magic number for signature files (.rds)
	SignatureMagic
)

// DefaultBlockSize is the size reference files are split into when no
// other block size is given. Small blocks find more matches but make
// for bigger signatures.
const DefaultBlockSize = 64

const (
	// StrongHashMD5 confirms weak hash matches with MD5 (128-bit digests)
	StrongHashMD5 = "md5"

	// StrongHashBLAKE3 confirms weak hash matches with BLAKE3 (256-bit digests)
	StrongHashBLAKE3 = "blake3"
)

// sizeOfInstruction is how many bytes a single instruction header takes
// in the compact encoding the report estimates: a type byte, then either
// a block index or a literal length as a 32-bit integer.
const sizeOfInstruction = 5
