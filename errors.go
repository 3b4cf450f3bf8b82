package mqttv4

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by Decode and Encode matches exactly
// one of these with errors.Is, in addition to the specific sentinel
// describing the failure. ReadPacket and WritePacket also pass through
// transport errors and the ErrPacketTooLarge size guard unclassified.
var (
	// ErrIncomplete reports that the input ends before a complete packet.
	// Not a failure: buffer more bytes and retry the decode from the same
	// offset. Errors matching ErrIncomplete also unwrap to *IncompleteError.
	ErrIncomplete = errors.New("mqttv4: incomplete packet")

	// ErrMalformed reports a violation of the protocol framing rules.
	// The decode attempt cannot be retried and the connection that produced
	// the bytes should be closed.
	ErrMalformed = errors.New("mqttv4: malformed packet")

	// ErrValidation reports an illegal field combination in a locally
	// constructed packet, caught by a builder or Validate before encoding.
	ErrValidation = errors.New("mqttv4: invalid packet")

	// ErrEncode reports a field value that cannot be represented on the
	// wire, such as a string longer than 65535 bytes.
	ErrEncode = errors.New("mqttv4: unencodable packet")
)

// IncompleteError reports how many more bytes are needed, at minimum, before
// decoding can make progress. Need is exact once the remaining length has
// been parsed and a lower bound before that.
type IncompleteError struct {
	Need int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("mqttv4: incomplete packet: need %d more bytes", e.Need)
}

func (e *IncompleteError) Unwrap() error { return ErrIncomplete }

// needMore builds the incomplete result for a buffer short by n bytes.
func needMore(n int) error {
	if n < 1 {
		n = 1
	}
	return &IncompleteError{Need: n}
}

// malformedErr classifies err as ErrMalformed, preserving the specific
// sentinel for errors.Is.
func malformedErr(err error) error {
	if errors.Is(err, ErrMalformed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrMalformed, err)
}

// validationErr classifies err as ErrValidation.
func validationErr(err error) error {
	if errors.Is(err, ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// encodeErr classifies err as ErrEncode.
func encodeErr(err error) error {
	if errors.Is(err, ErrEncode) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrEncode, err)
}
