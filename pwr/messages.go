package pwr

import (
	"github.com/golang/protobuf/proto"
)

// SignatureHeader is the first message of a signature file, right after the magic
type SignatureHeader struct {
	BlockSize     int64  `protobuf:"varint,1,opt,name=blockSize,proto3" json:"blockSize,omitempty"`
	StrongHash    string `protobuf:"bytes,2,opt,name=strongHash,proto3" json:"strongHash,omitempty"`
	ReferenceSize int64  `protobuf:"varint,3,opt,name=referenceSize,proto3" json:"referenceSize,omitempty"`
}

func (m *SignatureHeader) Reset()         { *m = SignatureHeader{} }
func (m *SignatureHeader) String() string { return proto.CompactTextString(m) }
func (*SignatureHeader) ProtoMessage()    {}

// BlockHash is written once per reference block in a signature file, in block order
type BlockHash struct {
	WeakHash   uint32 `protobuf:"varint,1,opt,name=weakHash,proto3" json:"weakHash,omitempty"`
	StrongHash []byte `protobuf:"bytes,2,opt,name=strongHash,proto3" json:"strongHash,omitempty"`
	Size       int64  `protobuf:"varint,3,opt,name=size,proto3" json:"size,omitempty"`
}

func (m *BlockHash) Reset()         { *m = BlockHash{} }
func (m *BlockHash) String() string { return proto.CompactTextString(m) }
func (*BlockHash) ProtoMessage()    {}

// PatchHeader is the first message of a patch file, right after the magic
type PatchHeader struct {
	BlockSize  int64  `protobuf:"varint,1,opt,name=blockSize,proto3" json:"blockSize,omitempty"`
	StrongHash string `protobuf:"bytes,2,opt,name=strongHash,proto3" json:"strongHash,omitempty"`
	SourceSize int64  `protobuf:"varint,3,opt,name=sourceSize,proto3" json:"sourceSize,omitempty"`
	// SourceHash is the BLAKE3-256 digest of the whole source
	SourceHash []byte `protobuf:"bytes,4,opt,name=sourceHash,proto3" json:"sourceHash,omitempty"`
}

func (m *PatchHeader) Reset()         { *m = PatchHeader{} }
func (m *PatchHeader) String() string { return proto.CompactTextString(m) }
func (*PatchHeader) ProtoMessage()    {}

// SyncOp_Type tells how to interpret a SyncOp
type SyncOp_Type int32

const (
	SyncOp_BLOCK          SyncOp_Type = 0
	SyncOp_DATA           SyncOp_Type = 1
	SyncOp_HEY_YOU_DID_IT SyncOp_Type = 2049
)

var SyncOp_Type_name = map[SyncOp_Type]string{
	SyncOp_BLOCK:          "BLOCK",
	SyncOp_DATA:           "DATA",
	SyncOp_HEY_YOU_DID_IT: "HEY_YOU_DID_IT",
}

func (t SyncOp_Type) String() string {
	if name, ok := SyncOp_Type_name[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// SyncOp is a single patch instruction. The last SyncOp of a patch
// is always of type HEY_YOU_DID_IT.
type SyncOp struct {
	Type       SyncOp_Type `protobuf:"varint,1,opt,name=type,proto3" json:"type,omitempty"`
	BlockIndex int64       `protobuf:"varint,2,opt,name=blockIndex,proto3" json:"blockIndex,omitempty"`
	Data       []byte      `protobuf:"bytes,3,opt,name=data,proto3" json:"data,omitempty"`
}

func (m *SyncOp) Reset()         { *m = SyncOp{} }
func (m *SyncOp) String() string { return proto.CompactTextString(m) }
func (*SyncOp) ProtoMessage()    {}
