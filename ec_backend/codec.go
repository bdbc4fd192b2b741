package ec_backend

import (
	"math"
	"sync/atomic"

	"github.com/journeymidnight/liberasure/utils"
	"github.com/klauspost/reedsolomon"
	pool "github.com/libp2p/go-buffer-pool"
	"github.com/pkg/errors"
)

// Encoded holds the fragments produced by Encode. The buffers are owned by
// the instance until EncodeCleanup is called.
type Encoded struct {
	Data        [][]byte
	Parity      [][]byte
	FragmentLen uint64
	id          uint64
}

// Decoded holds the buffer produced by Decode. It is owned by the instance
// until DecodeCleanup is called.
type Decoded struct {
	Data []byte
	id   uint64
}

func (r *Registry) track(inst *instance, bufs [][]byte) uint64 {
	id := atomic.AddUint64(&r.nextAlloc, 1)
	inst.mu.Lock()
	inst.allocs[id] = bufs
	inst.mu.Unlock()
	return id
}

func (r *Registry) release(inst *instance, id uint64) Code {
	inst.mu.Lock()
	bufs, ok := inst.allocs[id]
	delete(inst.allocs, id)
	inst.mu.Unlock()
	if !ok {
		return EInvalidParams
	}
	for _, b := range bufs {
		pool.Put(b)
	}
	return OK
}

func codeFromRS(err error) Code {
	switch errors.Cause(err) {
	case reedsolomon.ErrTooFewShards:
		return EInsuffFrags
	case reedsolomon.ErrShardSize, reedsolomon.ErrShardNoData:
		return EInvalidParams
	default:
		return EBackendInitErr
	}
}

// shardSizeFor returns the payload size of each fragment for n bytes over k
// data fragments. The header stores it in 32 bits.
func shardSizeFor(n, k int) (int, Code) {
	size := utils.Max(1, utils.CeilDiv(n, k))
	if uint64(size) > math.MaxUint32 {
		return 0, EInvalidParams
	}
	return size, OK
}

// Encode splits data into k data fragments and m parity fragments.
func (r *Registry) Encode(desc Desc, data []byte) (*Encoded, Code) {
	inst, code := r.get(desc)
	if code != OK {
		return nil, code
	}
	k, m := inst.args.K, inst.args.M

	shardSize, code := shardSizeFor(len(data), k)
	if code != OK {
		return nil, code
	}
	fragLen := HeaderSize + shardSize

	frags := make([][]byte, k+m)
	payloads := make([][]byte, k+m)
	for i := range frags {
		frags[i] = pool.Get(fragLen)
		payloads[i] = frags[i][HeaderSize:]
	}
	for i := 0; i < k; i++ {
		n := 0
		if off := i * shardSize; off < len(data) {
			n = copy(payloads[i], data[off:])
		}
		zero(payloads[i][n:])
	}

	fail := func(c Code) (*Encoded, Code) {
		for _, f := range frags {
			pool.Put(f)
		}
		return nil, c
	}
	if err := inst.enc.Encode(payloads); err != nil {
		return fail(codeFromRS(err))
	}
	for i, f := range frags {
		if err := writeHeader(f, i, uint64(len(data)), inst.id, inst.args.CT); err != nil {
			return fail(EBadHeader)
		}
	}

	utils.AssertTrue(len(frags) == k+m)
	id := r.track(inst, frags)
	inst.mu.Lock()
	inst.encodes++
	inst.mu.Unlock()
	return &Encoded{
		Data:        frags[:k],
		Parity:      frags[k:],
		FragmentLen: uint64(fragLen),
		id:          id,
	}, OK
}

// EncodeCleanup returns the buffers of an Encode result to the instance.
func (r *Registry) EncodeCleanup(desc Desc, encoded *Encoded) Code {
	if encoded == nil {
		return EInvalidParams
	}
	inst, code := r.get(desc)
	if code != OK {
		return code
	}
	return r.release(inst, encoded.id)
}

// collect validates fragments and places their payloads by index. Payloads
// alias the caller's memory.
func collect(inst *instance, fragments [][]byte, fragmentLen uint64, checkPayload bool) ([][]byte, uint64, Code) {
	n := inst.args.K + inst.args.M
	if fragmentLen <= HeaderSize {
		return nil, 0, EBadHeader
	}
	shards := make([][]byte, n)
	var origSize uint64
	found := 0
	for i, f := range fragments {
		if uint64(len(f)) != fragmentLen {
			return nil, 0, EInvalidParams
		}
		hdr, code := ParseFragmentHeader(f)
		if code != OK {
			return nil, 0, code
		}
		if int(hdr.Index) >= n || hdr.ChecksumType != uint8(inst.args.CT) {
			return nil, 0, EBadHeader
		}
		if i == 0 {
			origSize = hdr.OrigDataSize
		} else if hdr.OrigDataSize != origSize {
			return nil, 0, EBadHeader
		}
		payload := f[HeaderSize:]
		if checkPayload && !verifyPayload(hdr, payload) {
			return nil, 0, EBadChksum
		}
		if shards[hdr.Index] != nil {
			continue
		}
		shards[hdr.Index] = payload
		found++
	}
	if found < inst.args.K {
		return nil, 0, EInsuffFrags
	}
	if origSize > uint64(inst.args.K)*(fragmentLen-HeaderSize) {
		return nil, 0, EBadHeader
	}
	return shards, origSize, OK
}

// Decode rebuilds the original buffer from at least k distinct fragments.
func (r *Registry) Decode(desc Desc, fragments [][]byte, fragmentLen uint64, forceMetadataChecks bool) (*Decoded, Code) {
	inst, code := r.get(desc)
	if code != OK {
		return nil, code
	}
	if len(fragments) == 0 {
		return nil, EInsuffFrags
	}
	shards, origSize, code := collect(inst, fragments, fragmentLen, forceMetadataChecks)
	if code != OK {
		return nil, code
	}
	k := inst.args.K
	for i := 0; i < k; i++ {
		if shards[i] == nil {
			if err := inst.enc.ReconstructData(shards); err != nil {
				return nil, codeFromRS(err)
			}
			break
		}
	}

	out := pool.Get(int(origSize))
	rest := out
	for i := 0; i < k && len(rest) > 0; i++ {
		rest = rest[copy(rest, shards[i]):]
	}

	id := r.track(inst, [][]byte{out})
	inst.mu.Lock()
	inst.decodes++
	inst.mu.Unlock()
	return &Decoded{Data: out, id: id}, OK
}

// DecodeCleanup returns the buffer of a Decode result to the instance.
func (r *Registry) DecodeCleanup(desc Desc, decoded *Decoded) Code {
	if decoded == nil {
		return EInvalidParams
	}
	inst, code := r.get(desc)
	if code != OK {
		return code
	}
	return r.release(inst, decoded.id)
}

// Reconstruct rebuilds the fragment at index into out, which is supplied by
// the caller and must hold at least fragmentLen bytes.
func (r *Registry) Reconstruct(desc Desc, fragments [][]byte, fragmentLen uint64, index int, out []byte) Code {
	inst, code := r.get(desc)
	if code != OK {
		return code
	}
	n := inst.args.K + inst.args.M
	if index < 0 || index >= n || uint64(len(out)) < fragmentLen {
		return EInvalidParams
	}
	if len(fragments) == 0 {
		return EInsuffFrags
	}
	shards, origSize, code := collect(inst, fragments, fragmentLen, false)
	if code != OK {
		return code
	}
	if shards[index] == nil {
		required := make([]bool, n)
		required[index] = true
		if err := inst.enc.ReconstructSome(shards, required); err != nil {
			return codeFromRS(err)
		}
	}

	frag := out[:fragmentLen]
	copy(frag[HeaderSize:], shards[index])
	if err := writeHeader(frag, index, origSize, inst.id, inst.args.CT); err != nil {
		return EBadHeader
	}
	inst.mu.Lock()
	inst.reconstruct++
	inst.mu.Unlock()
	return OK
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
