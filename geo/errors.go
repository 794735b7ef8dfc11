package geo

import "errors"

// Kind classifies a failed location query.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnsupported
	KindPermissionDenied
	KindPositionUnavailable
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindUnsupported:
		return "geolocation is not supported"
	case KindPermissionDenied:
		return "user denied the location request"
	case KindPositionUnavailable:
		return "location information is unavailable"
	case KindTimeout:
		return "location request timed out"
	default:
		return "failed to get location"
	}
}

// Sentinels for errors.Is. A *Error matches the sentinel of its Kind.
var (
	ErrUnsupported         = errors.New(KindUnsupported.String())
	ErrPermissionDenied    = errors.New(KindPermissionDenied.String())
	ErrPositionUnavailable = errors.New(KindPositionUnavailable.String())
	ErrTimeout             = errors.New(KindTimeout.String())
)

// Error is a classified location failure.
type Error struct {
	Kind Kind
	Err  error // underlying provider error, may be nil
}

func (e *Error) Error() string {
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnsupported:
		return e.Kind == KindUnsupported
	case ErrPermissionDenied:
		return e.Kind == KindPermissionDenied
	case ErrPositionUnavailable:
		return e.Kind == KindPositionUnavailable
	case ErrTimeout:
		return e.Kind == KindTimeout
	}
	return false
}

// Classify wraps err in a *Error. Errors that already carry a classification
// keep it; anything else becomes KindUnknown.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	switch {
	case errors.Is(err, ErrUnsupported):
		return &Error{Kind: KindUnsupported, Err: err}
	case errors.Is(err, ErrPermissionDenied):
		return &Error{Kind: KindPermissionDenied, Err: err}
	case errors.Is(err, ErrPositionUnavailable):
		return &Error{Kind: KindPositionUnavailable, Err: err}
	case errors.Is(err, ErrTimeout):
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindUnknown, Err: err}
}
