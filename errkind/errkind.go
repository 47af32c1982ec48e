// Package errkind classifies conversion failures.
//
// A Kind is itself an error, so callers can test for it with errors.Is and
// wrap it with additional context:
//
//	return errkind.Errorf(errkind.MalformedContainer, "bad magic %q", magic)
package errkind

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	Unknown Kind = iota
	MalformedContainer
	UnsupportedFeature
	EncodingError
	ResamplingError
)

func (k Kind) String() string {
	switch k {
	case MalformedContainer:
		return "malformed container"
	case UnsupportedFeature:
		return "unsupported feature"
	case EncodingError:
		return "encoding error"
	case ResamplingError:
		return "resampling error"
	}
	return "unknown error"
}

func (k Kind) Error() string { return k.String() }

// Errorf returns an error of kind k. The format may itself use %w.
func Errorf(k Kind, format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{k}, args...)...)
}

// Of reports the first Kind found in err's chain, or Unknown.
func Of(err error) Kind {
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return Unknown
}
