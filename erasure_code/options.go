package erasure_code

import (
	"strings"

	"github.com/journeymidnight/liberasure/ec_backend"
	"github.com/pkg/errors"
)

// Backend is the erasure coding algorithm.
type Backend int

const (
	// Reed-Solomon over a Vandermonde matrix, jerasure compatible.
	BackendVandermondeRS Backend = iota
	// Reed-Solomon over a Cauchy matrix. This is the default.
	BackendCauchyRS
)

// Checksum is the per fragment checksum algorithm.
type Checksum int

const (
	ChecksumNone Checksum = iota
	ChecksumCRC32
	ChecksumMD5
)

const (
	DefaultBackend  = BackendCauchyRS
	DefaultChecksum = ChecksumNone
)

func (b Backend) String() string {
	switch b {
	case BackendVandermondeRS:
		return "vandermonde"
	case BackendCauchyRS:
		return "cauchy"
	default:
		return "unknown"
	}
}

func (c Checksum) String() string {
	switch c {
	case ChecksumNone:
		return "none"
	case ChecksumCRC32:
		return "crc32"
	case ChecksumMD5:
		return "md5"
	default:
		return "unknown"
	}
}

// ParseBackend accepts the names printed by Backend.String.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vandermonde", "vand", "rs_vand":
		return BackendVandermondeRS, nil
	case "cauchy", "rs_cauchy", "":
		return BackendCauchyRS, nil
	}
	return 0, errors.Wrapf(ErrBackendNotSupported, "backend %q", s)
}

// ParseChecksum accepts the names printed by Checksum.String.
func ParseChecksum(s string) (Checksum, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return ChecksumNone, nil
	case "crc32":
		return ChecksumCRC32, nil
	case "md5":
		return ChecksumMD5, nil
	}
	return 0, errors.Wrapf(ErrInvalidParams, "checksum %q", s)
}

func (b Backend) backendID() (ec_backend.ID, error) {
	switch b {
	case BackendVandermondeRS:
		return ec_backend.JerasureRSVand, nil
	case BackendCauchyRS:
		return ec_backend.JerasureRSCauchy, nil
	}
	return ec_backend.Null, errors.Wrapf(ErrBackendNotSupported, "backend %d", int(b))
}

func (c Checksum) checksumType() (ec_backend.ChecksumType, error) {
	switch c {
	case ChecksumNone:
		return ec_backend.ChecksumNone, nil
	case ChecksumCRC32:
		return ec_backend.ChecksumCRC32, nil
	case ChecksumMD5:
		return ec_backend.ChecksumMD5, nil
	}
	return 0, errors.Wrapf(ErrInvalidParams, "checksum %d", int(c))
}
