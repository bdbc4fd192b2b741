package erasure_code

import (
	"fmt"

	"github.com/journeymidnight/liberasure/ec_backend"
	"github.com/pkg/errors"
)

var (
	ErrBackendNotSupported   = errors.New("the backend is not supported")
	ErrMethodNotImplemented  = errors.New("the erasure coding method is not implemented")
	ErrBackendInitError      = errors.New("initialization of the backend failed")
	ErrBackendInUse          = errors.New("the backend is in use")
	ErrBackendNotAvailable   = errors.New("the backend is not available")
	ErrBadChecksum           = errors.New("bad checksum value")
	ErrInvalidParams         = errors.New("invalid parameters")
	ErrBadHeader             = errors.New("bad header")
	ErrInsufficientFragments = errors.New("insufficient fragments")
)

// OtherError carries a backend code outside the known set.
type OtherError struct {
	Code ec_backend.Code
}

func (e *OtherError) Error() string {
	return fmt.Sprintf("unknown error (code=%d)", e.Code)
}

// FromErrorCode translates a backend status into an error. OK maps to nil.
func FromErrorCode(code ec_backend.Code) error {
	switch code {
	case ec_backend.OK:
		return nil
	case ec_backend.EBackendNotSupp:
		return ErrBackendNotSupported
	case ec_backend.EECMethodNotImpl:
		return ErrMethodNotImplemented
	case ec_backend.EBackendInitErr:
		return ErrBackendInitError
	case ec_backend.EBackendInUse:
		return ErrBackendInUse
	case ec_backend.EBackendNotAvail:
		return ErrBackendNotAvailable
	case ec_backend.EBadChksum:
		return ErrBadChecksum
	case ec_backend.EInvalidParams:
		return ErrInvalidParams
	case ec_backend.EBadHeader:
		return ErrBadHeader
	case ec_backend.EInsuffFrags:
		return ErrInsufficientFragments
	default:
		return &OtherError{Code: code}
	}
}

// ErrorCode is the inverse of FromErrorCode. Wrapped errors are unwrapped
// first; errors outside the taxonomy report EInvalidParams.
func ErrorCode(err error) ec_backend.Code {
	if err == nil {
		return ec_backend.OK
	}
	var other *OtherError
	switch {
	case errors.As(err, &other):
		return other.Code
	case errors.Is(err, ErrBackendNotSupported):
		return ec_backend.EBackendNotSupp
	case errors.Is(err, ErrMethodNotImplemented):
		return ec_backend.EECMethodNotImpl
	case errors.Is(err, ErrBackendInitError):
		return ec_backend.EBackendInitErr
	case errors.Is(err, ErrBackendInUse):
		return ec_backend.EBackendInUse
	case errors.Is(err, ErrBackendNotAvailable):
		return ec_backend.EBackendNotAvail
	case errors.Is(err, ErrBadChecksum):
		return ec_backend.EBadChksum
	case errors.Is(err, ErrBadHeader):
		return ec_backend.EBadHeader
	case errors.Is(err, ErrInsufficientFragments):
		return ec_backend.EInsuffFrags
	default:
		return ec_backend.EInvalidParams
	}
}

func wrapCode(code ec_backend.Code, op string) error {
	err := FromErrorCode(code)
	if err == nil {
		return nil
	}
	return errors.WithMessage(err, op)
}
