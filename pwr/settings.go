package pwr

import (
	"crypto/md5"
	"hash"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/itchio/rdelta/wsync"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

// Settings must be the same when computing a signature and diffing
// against it. They are recorded in both signature and patch headers.
type Settings struct {
	BlockSize  int
	StrongHash string
}

// DefaultSettings returns 64-byte blocks confirmed with MD5
func DefaultSettings() Settings {
	return Settings{
		BlockSize:  DefaultBlockSize,
		StrongHash: StrongHashMD5,
	}
}

// Validate returns an error whose cause is ErrConfiguration if s can't be used
func (s Settings) Validate() error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.BlockSize, validation.Required, validation.Min(1)),
		validation.Field(&s.StrongHash, validation.Required, validation.In(StrongHashMD5, StrongHashBLAKE3)),
	)
	if err != nil {
		return errors.Wrapf(ErrConfiguration, "%v", err)
	}
	return nil
}

func (s Settings) newStrongHasher() hash.Hash {
	switch s.StrongHash {
	case StrongHashBLAKE3:
		return blake3.New()
	default:
		return md5.New()
	}
}

func (s Settings) mksync() (*wsync.Context, error) {
	err := s.Validate()
	if err != nil {
		return nil, err
	}
	return wsync.NewContextWithHasher(s.BlockSize, s.newStrongHasher()), nil
}
