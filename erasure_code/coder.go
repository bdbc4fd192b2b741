// Package erasure_code splits buffers into data and parity fragments on top
// of an ec_backend instance and restores them from any k fragments.
package erasure_code

import (
	"iter"
	"slices"
	"sync"

	"github.com/journeymidnight/liberasure/ec_backend"
	"github.com/journeymidnight/liberasure/xlog"
	"github.com/pkg/errors"
)

var errClosed = errors.Wrap(ErrInvalidParams, "coder is closed")

// ErasureCoder encodes buffers into k data and m parity fragments and
// restores them from any k of those.
//
// Calls on one coder are serialized. Distinct coders can be used in
// parallel. Close must be called to release the backend instance.
type ErasureCoder struct {
	dataFragments   int
	parityFragments int
	backend         Backend
	checksum        Checksum
	metadataChecks  bool

	codec codecBackend

	mu     sync.Mutex
	desc   ec_backend.Desc
	closed bool
}

// NewErasureCoder is NewBuilder(dataFragments, parityFragments).Build().
func NewErasureCoder(dataFragments, parityFragments int) (*ErasureCoder, error) {
	return NewBuilder(dataFragments, parityFragments).Build()
}

func (c *ErasureCoder) DataFragments() int {
	return c.dataFragments
}

func (c *ErasureCoder) ParityFragments() int {
	return c.parityFragments
}

// Fragments returns the total number of data and parity fragments.
func (c *ErasureCoder) Fragments() int {
	return c.dataFragments + c.parityFragments
}

func (c *ErasureCoder) Backend() Backend {
	return c.backend
}

func (c *ErasureCoder) Checksum() Checksum {
	return c.checksum
}

// Encode returns Fragments() fragments of equal length, data fragments first.
func (c *ErasureCoder) Encode(data []byte) (fragments [][]byte, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errClosed
	}

	encoded, code := c.codec.Encode(c.desc, data)
	if code != ec_backend.OK {
		return nil, wrapCode(code, "encode")
	}
	bufs := &encodedBuffers{codec: c.codec, desc: c.desc, encoded: encoded}
	defer func() {
		if releaseInto(bufs.release, &err) {
			xlog.Logger.Warnf("instance %d: %v", c.desc, err)
			fragments = nil
		}
	}()
	return bufs.copyOut(c.dataFragments, c.parityFragments)
}

// Decode restores the original buffer. All fragments must have the length of
// the first one.
func (c *ErasureCoder) Decode(fragments [][]byte) (data []byte, err error) {
	if len(fragments) == 0 {
		return nil, errors.WithMessage(ErrInsufficientFragments, "decode")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errClosed
	}

	fragmentLen := uint64(len(fragments[0]))
	decoded, code := c.codec.Decode(c.desc, fragments, fragmentLen, c.metadataChecks)
	if code != ec_backend.OK {
		return nil, wrapCode(code, "decode")
	}
	buf := &decodedBuffer{codec: c.codec, desc: c.desc, decoded: decoded}
	defer func() {
		if releaseInto(buf.release, &err) {
			xlog.Logger.Warnf("instance %d: %v", c.desc, err)
			data = nil
		}
	}()
	return buf.copyOut(), nil
}

// Reconstruct rebuilds the fragment at index from the available fragments.
func (c *ErasureCoder) Reconstruct(index int, available iter.Seq[[]byte]) ([]byte, error) {
	if index < 0 || index >= c.Fragments() {
		return nil, errors.Wrapf(ErrInvalidParams, "reconstruct index %d out of range [0, %d)", index, c.Fragments())
	}
	fragments := slices.Collect(available)
	if len(fragments) == 0 {
		return nil, errors.WithMessage(ErrInsufficientFragments, "reconstruct")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errClosed
	}

	fragmentLen := uint64(len(fragments[0]))
	out := make([]byte, fragmentLen)
	if code := c.codec.Reconstruct(c.desc, fragments, fragmentLen, index, out); code != ec_backend.OK {
		return nil, wrapCode(code, "reconstruct")
	}
	return out, nil
}

// ReconstructFrom is Reconstruct over a slice.
func (c *ErasureCoder) ReconstructFrom(index int, available [][]byte) ([]byte, error) {
	return c.Reconstruct(index, slices.Values(available))
}

// Close releases the backend instance. The coder is unusable afterwards,
// even when the backend reported an error.
func (c *ErasureCoder) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed
	}
	c.closed = true
	if code := c.codec.Destroy(c.desc); code != ec_backend.OK {
		xlog.Logger.Warnf("destroy instance %d failed: code %d", c.desc, code)
		return wrapCode(code, "destroy backend instance")
	}
	xlog.Logger.Debugf("destroyed instance %d", c.desc)
	return nil
}
