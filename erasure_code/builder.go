package erasure_code

import (
	"time"

	"github.com/journeymidnight/liberasure/ec_backend"
	"github.com/journeymidnight/liberasure/xlog"
	"github.com/pkg/errors"
)

// wordSize is the word size in bits passed to the backend.
const wordSize = 32

// Builder collects the settings of an ErasureCoder.
type Builder struct {
	dataFragments   int
	parityFragments int
	backend         Backend
	checksum        Checksum
	metadataChecks  bool

	codec codecBackend
}

// NewBuilder returns a Builder for dataFragments+parityFragments fragments
// using DefaultBackend and DefaultChecksum.
func NewBuilder(dataFragments, parityFragments int) *Builder {
	return &Builder{
		dataFragments:   dataFragments,
		parityFragments: parityFragments,
		backend:         DefaultBackend,
		checksum:        DefaultChecksum,
		codec:           ec_backend.Default(),
	}
}

func (b *Builder) Backend(backend Backend) *Builder {
	b.backend = backend
	return b
}

func (b *Builder) Checksum(checksum Checksum) *Builder {
	b.checksum = checksum
	return b
}

// MetadataChecks makes Decode verify the payload checksum of every fragment.
// It has no effect with ChecksumNone.
func (b *Builder) MetadataChecks(enabled bool) *Builder {
	b.metadataChecks = enabled
	return b
}

// Build creates the backend instance and returns a live coder.
func (b *Builder) Build() (*ErasureCoder, error) {
	if b.dataFragments < 1 || b.parityFragments < 1 {
		return nil, errors.Wrapf(ErrInvalidParams, "k=%d, m=%d: fragment counts must be positive",
			b.dataFragments, b.parityFragments)
	}
	if b.dataFragments == 1 && b.parityFragments == 1 {
		// Some backends abort in reconstruct with these parameters.
		return nil, errors.Wrap(ErrInvalidParams, "k=1, m=1 is not supported")
	}
	id, err := b.backend.backendID()
	if err != nil {
		return nil, err
	}
	ct, err := b.checksum.checksumType()
	if err != nil {
		return nil, err
	}
	args := ec_backend.Args{
		K:  b.dataFragments,
		M:  b.parityFragments,
		W:  wordSize,
		HD: b.parityFragments,
		CT: ct,
	}

	var coder *ErasureCoder
	err = withCreationLock(func() error {
		desc, code := b.codec.Create(id, args)
		if code != ec_backend.OK {
			xlog.Logger.Warnf("create %s instance k=%d m=%d failed: code %d", id, args.K, args.M, code)
			return wrapCode(code, "create backend instance")
		}
		coder = &ErasureCoder{
			dataFragments:   b.dataFragments,
			parityFragments: b.parityFragments,
			backend:         b.backend,
			checksum:        b.checksum,
			metadataChecks:  b.metadataChecks,
			codec:           b.codec,
			desc:            desc,
		}
		xlog.Logger.Debugf("created %s instance %d k=%d m=%d checksum=%s", id, desc, args.K, args.M, b.checksum)

		time.Sleep(settleDelay)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return coder, nil
}
