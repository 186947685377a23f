package device

import (
	"fmt"

	"github.com/u-stem/koto/internal/errors"
)

// ComponentDevice identifies device errors.
const ComponentDevice = "device"

// ErrorKind classifies device failures.
type ErrorKind int

const (
	KindNoHost ErrorKind = iota
	KindNoOutputDevice
	KindNoInputDevice
	KindConfig
	KindStream
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoHost:
		return "no_host"
	case KindNoOutputDevice:
		return "no_output_device"
	case KindNoInputDevice:
		return "no_input_device"
	case KindConfig:
		return "config"
	case KindStream:
		return "stream"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a device failure with a readable cause.
type Error struct {
	Kind  ErrorKind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return "audio device: " + e.Kind.String()
	}
	return fmt.Sprintf("audio device: %s: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// KindOf returns the kind of the first device Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// newError wraps cause as a device Error of kind and attaches the operation.
func newError(kind ErrorKind, op string, cause error) error {
	category := errors.CategoryAudioDevice
	if kind == KindStream {
		category = errors.CategoryAudioStream
	}
	return errors.New(&Error{Kind: kind, Cause: cause}).
		Component(ComponentDevice).
		Category(category).
		Context("operation", op).
		Context("kind", kind.String()).
		Build()
}
