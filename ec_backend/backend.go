// Package ec_backend is a descriptor based erasure coding engine modelled on
// openstack/liberasurecode. Callers create an instance, get an integer
// descriptor back and pass it to every other call. Buffers returned by Encode
// and Decode belong to the instance until they are handed back with the
// matching cleanup call.
package ec_backend

import (
	"sync"
	"sync/atomic"

	"github.com/klauspost/reedsolomon"
)

// ID selects the backend algorithm. Values follow ec_backend_id_t.
type ID int

const (
	Null                 ID = 0
	JerasureRSVand       ID = 1
	JerasureRSCauchy     ID = 2
	FlatXORHD            ID = 3
	ISALRSVand           ID = 4
	SHSS                 ID = 5
	LibErasureCodeRSVand ID = 6
)

func (id ID) String() string {
	switch id {
	case Null:
		return "null"
	case JerasureRSVand:
		return "jerasure_rs_vand"
	case JerasureRSCauchy:
		return "jerasure_rs_cauchy"
	case FlatXORHD:
		return "flat_xor_hd"
	case ISALRSVand:
		return "isa_l_rs_vand"
	case SHSS:
		return "shss"
	case LibErasureCodeRSVand:
		return "liberasurecode_rs_vand"
	default:
		return "unknown"
	}
}

// ChecksumType is stored in every fragment header.
type ChecksumType uint8

const (
	ChecksumNone  ChecksumType = 1
	ChecksumCRC32 ChecksumType = 2
	ChecksumMD5   ChecksumType = 3
)

func (ct ChecksumType) valid() bool {
	return ct >= ChecksumNone && ct <= ChecksumMD5
}

// Code is a backend status. OK is zero, failures are small positive numbers.
type Code uint32

const (
	OK               Code = 0
	EBackendNotSupp  Code = 200
	EECMethodNotImpl Code = 201
	EBackendInitErr  Code = 202
	EBackendInUse    Code = 203
	EBackendNotAvail Code = 204
	EBadChksum       Code = 205
	EInvalidParams   Code = 206
	EBadHeader       Code = 207
	EInsuffFrags     Code = 208
)

// MaxFragments is the largest k+m a GF(2^8) code can address.
const MaxFragments = 256

// Args are the arguments common to all backends.
type Args struct {
	K  int // data fragments
	M  int // parity fragments
	W  int // word size in bits
	HD int // hamming distance, must equal M for Reed-Solomon
	CT ChecksumType
}

// Desc identifies a live instance. Valid descriptors are > 0.
type Desc int

// Stats is a snapshot of an instance.
type Stats struct {
	Outstanding int // allocations not yet returned through a cleanup call
	Encodes     uint64
	Decodes     uint64
	Reconstruct uint64
}

type instance struct {
	id   ID
	args Args
	enc  reedsolomon.Encoder

	mu          sync.Mutex
	allocs      map[uint64][][]byte
	encodes     uint64
	decodes     uint64
	reconstruct uint64
}

// Registry holds live instances keyed by descriptor.
type Registry struct {
	mu        sync.RWMutex
	instances map[Desc]*instance
	nextDesc  int64
	nextAlloc uint64
}

func NewRegistry() *Registry {
	return &Registry{
		instances: make(map[Desc]*instance),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process wide registry.
func Default() *Registry {
	return defaultRegistry
}

func matrixOption(id ID) (reedsolomon.Option, Code) {
	switch id {
	case JerasureRSVand:
		return reedsolomon.WithJerasureMatrix(), OK
	case JerasureRSCauchy:
		return reedsolomon.WithCauchyMatrix(), OK
	case LibErasureCodeRSVand:
		return nil, OK
	case ISALRSVand:
		return nil, EBackendNotAvail
	default:
		return nil, EBackendNotSupp
	}
}

func validateArgs(args Args) Code {
	if args.K < 1 || args.M < 1 || args.K+args.M > MaxFragments {
		return EInvalidParams
	}
	switch args.W {
	case 8, 16, 32:
	default:
		return EInvalidParams
	}
	if args.HD != args.M {
		return EInvalidParams
	}
	if !args.CT.valid() {
		return EInvalidParams
	}
	return OK
}

// Create instantiates a backend and returns its descriptor.
func (r *Registry) Create(id ID, args Args) (Desc, Code) {
	opt, code := matrixOption(id)
	if code != OK {
		return 0, code
	}
	if code = validateArgs(args); code != OK {
		return 0, code
	}
	var opts []reedsolomon.Option
	if opt != nil {
		opts = append(opts, opt)
	}
	enc, err := reedsolomon.New(args.K, args.M, opts...)
	if err != nil {
		return 0, EBackendInitErr
	}

	desc := Desc(atomic.AddInt64(&r.nextDesc, 1))
	r.mu.Lock()
	r.instances[desc] = &instance{
		id:     id,
		args:   args,
		enc:    enc,
		allocs: make(map[uint64][][]byte),
	}
	r.mu.Unlock()
	return desc, OK
}

// Destroy closes an instance. It fails with EBackendInUse while any Encode or
// Decode result of the instance has not been cleaned up.
func (r *Registry) Destroy(desc Desc) Code {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[desc]
	if !ok {
		return EBackendNotAvail
	}
	inst.mu.Lock()
	outstanding := len(inst.allocs)
	inst.mu.Unlock()
	if outstanding > 0 {
		return EBackendInUse
	}
	delete(r.instances, desc)
	return OK
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

func (r *Registry) Stats(desc Desc) (Stats, Code) {
	inst, code := r.get(desc)
	if code != OK {
		return Stats{}, code
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return Stats{
		Outstanding: len(inst.allocs),
		Encodes:     inst.encodes,
		Decodes:     inst.decodes,
		Reconstruct: inst.reconstruct,
	}, OK
}

func (r *Registry) get(desc Desc) (*instance, Code) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[desc]
	if !ok {
		return nil, EBackendNotAvail
	}
	return inst, OK
}
