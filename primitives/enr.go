package primitives

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// MaxENRSize is the maximum encoded size of a node record.
const MaxENRSize = 300

var ErrInvalidENR = errors.New("invalid ENR")

// ENR is the text form of a signed node record ("enr:" + unpadded base64url).
//
// Records are owned by the discovery layer; here they are only shape-checked and passed through.
type ENR string

func ParseENR(s string) (ENR, error) {
	raw, ok := strings.CutPrefix(s, "enr:")
	if !ok {
		return "", fmt.Errorf("%w: missing enr: prefix", ErrInvalidENR)
	}
	if len(raw) > base64.RawURLEncoding.EncodedLen(MaxENRSize) {
		return "", fmt.Errorf("%w: record exceeds %d bytes", ErrInvalidENR, MaxENRSize)
	}
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidENR, err)
	}
	if len(b) == 0 {
		return "", fmt.Errorf("%w: empty record", ErrInvalidENR)
	}
	return ENR(s), nil
}

func (e ENR) String() string { return string(e) }
