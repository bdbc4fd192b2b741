package erasure_code

import (
	"github.com/journeymidnight/liberasure/ec_backend"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// encodedBuffers owns an Encode result until release hands it back to the
// backend. release must run on every path once the result was received.
type encodedBuffers struct {
	codec    codecBackend
	desc     ec_backend.Desc
	encoded  *ec_backend.Encoded
	released bool
}

func (b *encodedBuffers) copyOut(dataFragments, parityFragments int) ([][]byte, error) {
	e := b.encoded
	if len(e.Data) != dataFragments || len(e.Parity) != parityFragments {
		return nil, errors.Wrapf(ErrBadHeader, "backend returned %d+%d fragments, want %d+%d",
			len(e.Data), len(e.Parity), dataFragments, parityFragments)
	}
	n := int(e.FragmentLen)
	fragments := make([][]byte, 0, dataFragments+parityFragments)
	for _, group := range [][][]byte{e.Data, e.Parity} {
		for i, src := range group {
			if len(src) < n {
				return nil, errors.Wrapf(ErrBadHeader, "fragment %d is %d bytes, want %d", i, len(src), n)
			}
			dst := make([]byte, n)
			copy(dst, src[:n])
			fragments = append(fragments, dst)
		}
	}
	return fragments, nil
}

func (b *encodedBuffers) release() error {
	if b.released {
		return nil
	}
	b.released = true
	return wrapCode(b.codec.EncodeCleanup(b.desc, b.encoded), "encode cleanup")
}

// decodedBuffer owns a Decode result until release.
type decodedBuffer struct {
	codec    codecBackend
	desc     ec_backend.Desc
	decoded  *ec_backend.Decoded
	released bool
}

func (b *decodedBuffer) copyOut() []byte {
	out := make([]byte, len(b.decoded.Data))
	copy(out, b.decoded.Data)
	return out
}

func (b *decodedBuffer) release() error {
	if b.released {
		return nil
	}
	b.released = true
	return wrapCode(b.codec.DecodeCleanup(b.desc, b.decoded), "decode cleanup")
}

// releaseInto runs release and merges its error into *err. A failed release
// drops whatever result the caller was about to return.
func releaseInto(release func() error, err *error) bool {
	rerr := release()
	*err = multierr.Append(*err, rerr)
	return rerr != nil
}
